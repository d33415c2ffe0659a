package guest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloura/veloura-backend/pkg/redis"
)

// memoryKV is an in-process stand-in for the Redis client.
type memoryKV struct {
	data map[string]string
}

func newMemoryKV() *memoryKV {
	return &memoryKV{data: make(map[string]string)}
}

func (kv *memoryKV) Get(_ context.Context, key string) (string, error) {
	val, ok := kv.data[key]
	if !ok {
		return "", redis.ErrKeyNotFound
	}
	return val, nil
}

func (kv *memoryKV) Set(_ context.Context, key, value string, _ time.Duration) error {
	kv.data[key] = value
	return nil
}

func (kv *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(kv.data, key)
	}
	return nil
}

func setupGuestStoreTest(t *testing.T) (*Store, string) {
	t.Helper()
	store := NewStore(newMemoryKV(), time.Hour)
	return store, store.NewToken()
}

func TestStore_NewToken_Unique(t *testing.T) {
	store, _ := setupGuestStoreTest(t)
	assert.NotEqual(t, store.NewToken(), store.NewToken())
}

func TestStore_Load_UnknownTokenIsEmptySession(t *testing.T) {
	store, token := setupGuestStoreTest(t)

	session, err := store.Load(context.Background(), token)
	assert.NoError(t, err)
	assert.Empty(t, session.Cart)
	assert.Empty(t, session.Wishlist)
}

func TestStore_Load_CorruptPayloadDiscarded(t *testing.T) {
	kv := newMemoryKV()
	store := NewStore(kv, time.Hour)
	token := store.NewToken()
	kv.data[sessionKey(token)] = "{not json"

	session, err := store.Load(context.Background(), token)
	assert.NoError(t, err)
	assert.Empty(t, session.Cart)
}

func TestStore_AddCartItem(t *testing.T) {
	store, token := setupGuestStoreTest(t)
	ctx := context.Background()

	session, err := store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "M", Color: "Black", Quantity: 2, UnitPrice: 500})
	require.NoError(t, err)
	require.Len(t, session.Cart, 1)
	assert.Equal(t, 2, session.Cart[0].Quantity)

	// Same identity merges into the existing line and keeps its snapshot
	session, err = store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "M", Color: "Black", Quantity: 3, UnitPrice: 650})
	require.NoError(t, err)
	require.Len(t, session.Cart, 1)
	assert.Equal(t, 5, session.Cart[0].Quantity)
	assert.Equal(t, 500.0, session.Cart[0].UnitPrice)

	// Different size is a new line
	session, err = store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "L", Color: "Black", Quantity: 1})
	require.NoError(t, err)
	assert.Len(t, session.Cart, 2)
}

func TestStore_AddCartItem_NegativeQuantityRemoves(t *testing.T) {
	store, token := setupGuestStoreTest(t)
	ctx := context.Background()

	_, err := store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "M", Color: "Black", Quantity: 2})
	require.NoError(t, err)

	session, err := store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "M", Color: "Black", Quantity: -2})
	require.NoError(t, err)
	assert.Len(t, session.Cart, 0)
}

func TestStore_SetCartQuantity(t *testing.T) {
	store, token := setupGuestStoreTest(t)
	ctx := context.Background()

	_, err := store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "M", Color: "Black", Quantity: 2})
	require.NoError(t, err)

	session, err := store.SetCartQuantity(ctx, token, 1, "M", "Black", 7)
	require.NoError(t, err)
	require.Len(t, session.Cart, 1)
	assert.Equal(t, 7, session.Cart[0].Quantity)

	// Zero removes the line
	session, err = store.SetCartQuantity(ctx, token, 1, "M", "Black", 0)
	require.NoError(t, err)
	assert.Len(t, session.Cart, 0)
}

func TestStore_RemoveCartItem(t *testing.T) {
	store, token := setupGuestStoreTest(t)
	ctx := context.Background()

	_, err := store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "M", Color: "Black", Quantity: 2})
	require.NoError(t, err)
	_, err = store.AddCartItem(ctx, token, CartItem{ProductID: 2, Size: "S", Color: "Ivory", Quantity: 1})
	require.NoError(t, err)

	session, err := store.RemoveCartItem(ctx, token, 1, "M", "Black")
	require.NoError(t, err)
	require.Len(t, session.Cart, 1)
	assert.Equal(t, uint(2), session.Cart[0].ProductID)
}

func TestStore_ClearCart_KeepsWishlist(t *testing.T) {
	store, token := setupGuestStoreTest(t)
	ctx := context.Background()

	_, err := store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "M", Color: "Black", Quantity: 2})
	require.NoError(t, err)
	_, err = store.AddWishlistItem(ctx, token, 3)
	require.NoError(t, err)

	session, err := store.ClearCart(ctx, token)
	require.NoError(t, err)
	assert.Len(t, session.Cart, 0)
	assert.Equal(t, []uint{3}, session.Wishlist)
}

func TestStore_Wishlist(t *testing.T) {
	store, token := setupGuestStoreTest(t)
	ctx := context.Background()

	session, err := store.AddWishlistItem(ctx, token, 3)
	require.NoError(t, err)
	assert.Equal(t, []uint{3}, session.Wishlist)

	// Re-adding is a no-op
	session, err = store.AddWishlistItem(ctx, token, 3)
	require.NoError(t, err)
	assert.Len(t, session.Wishlist, 1)

	session, err = store.RemoveWishlistItem(ctx, token, 3)
	require.NoError(t, err)
	assert.Len(t, session.Wishlist, 0)
}

func TestStore_Delete(t *testing.T) {
	store, token := setupGuestStoreTest(t)
	ctx := context.Background()

	_, err := store.AddCartItem(ctx, token, CartItem{ProductID: 1, Size: "M", Color: "Black", Quantity: 2})
	require.NoError(t, err)

	err = store.Delete(ctx, token)
	require.NoError(t, err)

	session, err := store.Load(ctx, token)
	require.NoError(t, err)
	assert.Empty(t, session.Cart)
}
