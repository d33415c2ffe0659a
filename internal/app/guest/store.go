package guest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/veloura/veloura-backend/pkg/logger"
	"github.com/veloura/veloura-backend/pkg/redis"
	"github.com/veloura/veloura-backend/pkg/util"
)

// CartItem is one guest cart line. Lines are identified by the
// (product, size, color) tuple, matching the signed-in cart. UnitPrice
// is snapshotted when the line is added and carried into the account
// cart on merge.
type CartItem struct {
	ProductID uint    `json:"product_id"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
}

// Session is the full guest state stored under one token.
type Session struct {
	Cart     []CartItem `json:"cart"`
	Wishlist []uint     `json:"wishlist"`
}

// Store keeps guest carts and wishlists in Redis under a server-issued
// token. Reads of a missing or expired token return an empty session.
type Store struct {
	kv  redis.KV
	ttl time.Duration
}

func NewStore(kv redis.KV, ttl time.Duration) *Store {
	return &Store{kv: kv, ttl: ttl}
}

// NewToken issues a fresh guest token. Nothing is written until the
// session is first saved.
func (s *Store) NewToken() string {
	return util.GenerateGuestToken()
}

func sessionKey(token string) string {
	return fmt.Sprintf("guest:session:%s", token)
}

// Load returns the session for token, or an empty session when the token
// is unknown or has expired.
func (s *Store) Load(ctx context.Context, token string) (*Session, error) {
	logger.Debug("Loading guest session", map[string]interface{}{
		"token": token,
	})

	raw, err := s.kv.Get(ctx, sessionKey(token))
	if err != nil {
		if errors.Is(err, redis.ErrKeyNotFound) {
			logger.Debug("Guest session not found, returning empty session", map[string]interface{}{
				"token": token,
			})
			return &Session{}, nil
		}
		logger.Error("Failed to load guest session", err, map[string]interface{}{
			"token": token,
		})
		return nil, err
	}

	var session Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		logger.Error("Failed to decode guest session, discarding", err, map[string]interface{}{
			"token": token,
		})
		return &Session{}, nil
	}

	logger.Debug("Guest session loaded", map[string]interface{}{
		"token":          token,
		"cart_items":     len(session.Cart),
		"wishlist_items": len(session.Wishlist),
	})
	return &session, nil
}

// Save writes the session back and refreshes its TTL.
func (s *Store) Save(ctx context.Context, token string, session *Session) error {
	logger.Debug("Saving guest session", map[string]interface{}{
		"token":          token,
		"cart_items":     len(session.Cart),
		"wishlist_items": len(session.Wishlist),
	})

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}

	if err := s.kv.Set(ctx, sessionKey(token), string(raw), s.ttl); err != nil {
		logger.Error("Failed to save guest session", err, map[string]interface{}{
			"token": token,
		})
		return err
	}
	return nil
}

// Delete removes the session, normally after a merge into an account.
func (s *Store) Delete(ctx context.Context, token string) error {
	logger.Debug("Deleting guest session", map[string]interface{}{
		"token": token,
	})

	if err := s.kv.Del(ctx, sessionKey(token)); err != nil {
		logger.Error("Failed to delete guest session", err, map[string]interface{}{
			"token": token,
		})
		return err
	}
	return nil
}

// AddCartItem merges an item into the guest cart. An existing line with
// the same identity absorbs the quantity; a non-positive resulting
// quantity removes the line.
func (s *Store) AddCartItem(ctx context.Context, token string, item CartItem) (*Session, error) {
	session, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	merged := false
	result := session.Cart[:0]
	for _, line := range session.Cart {
		if line.ProductID == item.ProductID && line.Size == item.Size && line.Color == item.Color {
			line.Quantity += item.Quantity
			merged = true
		}
		if line.Quantity > 0 {
			result = append(result, line)
		}
	}
	if !merged && item.Quantity > 0 {
		result = append(result, item)
	}
	session.Cart = result

	if err := s.Save(ctx, token, session); err != nil {
		return nil, err
	}
	return session, nil
}

// SetCartQuantity replaces the quantity of an existing line. Setting a
// non-positive quantity removes the line.
func (s *Store) SetCartQuantity(ctx context.Context, token string, productID uint, size, color string, quantity int) (*Session, error) {
	session, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	result := session.Cart[:0]
	for _, line := range session.Cart {
		if line.ProductID == productID && line.Size == size && line.Color == color {
			line.Quantity = quantity
		}
		if line.Quantity > 0 {
			result = append(result, line)
		}
	}
	session.Cart = result

	if err := s.Save(ctx, token, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveCartItem drops a line by identity.
func (s *Store) RemoveCartItem(ctx context.Context, token string, productID uint, size, color string) (*Session, error) {
	return s.SetCartQuantity(ctx, token, productID, size, color, 0)
}

// ClearCart empties the guest cart but leaves the wishlist alone.
func (s *Store) ClearCart(ctx context.Context, token string) (*Session, error) {
	session, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	session.Cart = nil

	if err := s.Save(ctx, token, session); err != nil {
		return nil, err
	}
	return session, nil
}

// AddWishlistItem records a product once. Re-adding is a no-op.
func (s *Store) AddWishlistItem(ctx context.Context, token string, productID uint) (*Session, error) {
	session, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	for _, id := range session.Wishlist {
		if id == productID {
			return session, nil
		}
	}
	session.Wishlist = append(session.Wishlist, productID)

	if err := s.Save(ctx, token, session); err != nil {
		return nil, err
	}
	return session, nil
}

// RemoveWishlistItem drops a product from the guest wishlist.
func (s *Store) RemoveWishlistItem(ctx context.Context, token string, productID uint) (*Session, error) {
	session, err := s.Load(ctx, token)
	if err != nil {
		return nil, err
	}

	result := session.Wishlist[:0]
	for _, id := range session.Wishlist {
		if id != productID {
			result = append(result, id)
		}
	}
	session.Wishlist = result

	if err := s.Save(ctx, token, session); err != nil {
		return nil, err
	}
	return session, nil
}
