package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloura/veloura-backend/internal/app/guest"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/app/repository"
	"github.com/veloura/veloura-backend/internal/app/service"
	"github.com/veloura/veloura-backend/internal/db"
	"github.com/veloura/veloura-backend/internal/middleware"
	"github.com/veloura/veloura-backend/pkg/redis"
	"gorm.io/gorm"
)

// stubKV is an in-memory redis.KV so guest sessions work without a server.
type stubKV struct {
	data map[string]string
}

func newStubKV() *stubKV {
	return &stubKV{data: make(map[string]string)}
}

func (kv *stubKV) Get(ctx context.Context, key string) (string, error) {
	val, ok := kv.data[key]
	if !ok {
		return "", redis.ErrKeyNotFound
	}
	return val, nil
}

func (kv *stubKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	kv.data[key] = value
	return nil
}

func (kv *stubKV) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(kv.data, key)
	}
	return nil
}

type cartControllerEnv struct {
	router      *gin.Engine
	authService service.AuthService
	testDB      *gorm.DB
	product     *model.Product
	variant     *model.ProductVariant
}

func setupCartControllerTest(t *testing.T) *cartControllerEnv {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	cartRepo := repository.NewCartRepository(testDB)
	wishlistRepo := repository.NewWishlistRepository(testDB)
	productRepo := repository.NewProductRepository(testDB)
	variantRepo := repository.NewProductVariantRepository(testDB)
	userRepo := repository.NewUserRepository(testDB)

	guestStore := guest.NewStore(newStubKV(), time.Hour)
	cartService := service.NewCartService(cartRepo, productRepo, variantRepo)
	reconcileService := service.NewReconcileService(guestStore, cartRepo, wishlistRepo, productRepo, variantRepo)
	authService := service.NewAuthService(userRepo, "test-secret", 15*time.Minute, 7*24*time.Hour)

	ctrl := NewCartController(cartService, reconcileService, guestStore)
	authMiddleware := middleware.NewAuthMiddleware("test-secret")

	router := gin.New()
	router.POST("/guest/session", ctrl.CreateGuestSession)
	router.GET("/cart", authMiddleware.OptionalAuthenticate(), ctrl.GetCart)
	router.POST("/cart", authMiddleware.OptionalAuthenticate(), ctrl.AddToCart)
	router.PUT("/cart/:id", authMiddleware.OptionalAuthenticate(), ctrl.UpdateCartItem)
	router.DELETE("/cart/:id", authMiddleware.OptionalAuthenticate(), ctrl.RemoveFromCart)
	router.DELETE("/cart", authMiddleware.OptionalAuthenticate(), ctrl.ClearCart)
	router.POST("/cart/merge", authMiddleware.OptionalAuthenticate(), ctrl.MergeCart)

	product := &model.Product{
		Name:      "Silk Slip Dress",
		Category:  "dresses",
		Brand:     "Veloura",
		BasePrice: 1000,
		IsActive:  true,
	}
	require.NoError(t, testDB.Create(product).Error)

	variant := &model.ProductVariant{
		ProductID: product.ID,
		Size:      "M",
		Color:     "Black",
		Stock:     10,
		IsActive:  true,
	}
	require.NoError(t, testDB.Create(variant).Error)

	return &cartControllerEnv{
		router:      router,
		authService: authService,
		testDB:      testDB,
		product:     product,
		variant:     variant,
	}
}

func (env *cartControllerEnv) registerUser(t *testing.T, email string) string {
	t.Helper()
	_, tokens, err := env.authService.Register(email, "password123", "Test User", "")
	require.NoError(t, err)
	return tokens.AccessToken
}

func doJSON(router *gin.Engine, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCartController_CreateGuestSession(t *testing.T) {
	env := setupCartControllerTest(t)

	w := doJSON(env.router, "POST", "/guest/session", nil, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response["guest_token"])
}

func TestCartController_GetCart_NoSession(t *testing.T) {
	env := setupCartControllerTest(t)

	w := doJSON(env.router, "GET", "/cart", nil, nil)

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["count"])
}

func TestCartController_AddToCart_Guest(t *testing.T) {
	env := setupCartControllerTest(t)

	reqBody := AddToCartRequest{
		ProductID: env.product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  2,
	}
	w := doJSON(env.router, "POST", "/cart", reqBody, nil)

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.NotEmpty(t, response["guest_token"])
	assert.Equal(t, float64(1), response["count"])

	// The line carries the price snapshotted at add time
	items := response["cart_items"].([]interface{})
	line := items[0].(map[string]interface{})
	assert.Equal(t, float64(1000), line["unit_price"])
}

func TestCartController_AddToCart_GuestProductNotFound(t *testing.T) {
	env := setupCartControllerTest(t)

	reqBody := AddToCartRequest{
		ProductID: 9999,
		Size:      "M",
		Color:     "Black",
		Quantity:  1,
	}
	w := doJSON(env.router, "POST", "/cart", reqBody, nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartController_AddToCart_GuestMergesExistingLine(t *testing.T) {
	env := setupCartControllerTest(t)

	reqBody := AddToCartRequest{
		ProductID: env.product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  2,
	}
	w := doJSON(env.router, "POST", "/cart", reqBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	token := first["guest_token"].(string)

	reqBody.Quantity = 3
	w = doJSON(env.router, "POST", "/cart", reqBody, map[string]string{
		middleware.GuestTokenHeader: token,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var second map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))
	assert.Equal(t, float64(1), second["count"])

	items := second["cart_items"].([]interface{})
	line := items[0].(map[string]interface{})
	assert.Equal(t, float64(5), line["quantity"])
}

func TestCartController_AddToCart_User(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	reqBody := AddToCartRequest{
		ProductID: env.product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  2,
	}
	w := doJSON(env.router, "POST", "/cart", reqBody, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusCreated, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["count"])
	assert.Equal(t, float64(2000), response["subtotal"])
}

func TestCartController_AddToCart_ProductNotFound(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	reqBody := AddToCartRequest{
		ProductID: 9999,
		Size:      "M",
		Color:     "Black",
		Quantity:  1,
	}
	w := doJSON(env.router, "POST", "/cart", reqBody, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartController_AddToCart_InsufficientStock(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	reqBody := AddToCartRequest{
		ProductID: env.product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  100,
	}
	w := doJSON(env.router, "POST", "/cart", reqBody, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Insufficient stock")
}

func TestCartController_UpdateCartItem_User(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	addBody := AddToCartRequest{ProductID: env.product.ID, Size: "M", Color: "Black", Quantity: 2}
	w := doJSON(env.router, "POST", "/cart", addBody, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var cartItem model.CartItem
	require.NoError(t, env.testDB.First(&cartItem).Error)

	updateBody := map[string]interface{}{"quantity": 5}
	w = doJSON(env.router, "PUT", fmt.Sprintf("/cart/%d", cartItem.ID), updateBody, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	items := response["cart_items"].([]interface{})
	line := items[0].(map[string]interface{})
	assert.Equal(t, float64(5), line["quantity"])
}

func TestCartController_UpdateCartItem_ZeroQuantityRemoves(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	addBody := AddToCartRequest{ProductID: env.product.ID, Size: "M", Color: "Black", Quantity: 2}
	w := doJSON(env.router, "POST", "/cart", addBody, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var cartItem model.CartItem
	require.NoError(t, env.testDB.First(&cartItem).Error)

	// An explicit zero is a removal, not a validation error
	updateBody := map[string]interface{}{"quantity": 0}
	w = doJSON(env.router, "PUT", fmt.Sprintf("/cart/%d", cartItem.ID), updateBody, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["count"])

	// A missing quantity is still rejected
	w = doJSON(env.router, "PUT", fmt.Sprintf("/cart/%d", cartItem.ID), map[string]interface{}{}, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCartController_UpdateCartItem_NotFound(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	updateBody := map[string]interface{}{"quantity": 5}
	w := doJSON(env.router, "PUT", "/cart/9999", updateBody, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCartController_UpdateCartItem_Guest(t *testing.T) {
	env := setupCartControllerTest(t)

	addBody := AddToCartRequest{ProductID: env.product.ID, Size: "M", Color: "Black", Quantity: 2}
	w := doJSON(env.router, "POST", "/cart", addBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	token := first["guest_token"].(string)

	updateBody := map[string]interface{}{"quantity": 7, "size": "M", "color": "Black"}
	w = doJSON(env.router, "PUT", fmt.Sprintf("/cart/%d", env.product.ID), updateBody, map[string]string{
		middleware.GuestTokenHeader: token,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	items := response["cart_items"].([]interface{})
	line := items[0].(map[string]interface{})
	assert.Equal(t, float64(7), line["quantity"])
}

func TestCartController_RemoveFromCart_User(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	addBody := AddToCartRequest{ProductID: env.product.ID, Size: "M", Color: "Black", Quantity: 2}
	w := doJSON(env.router, "POST", "/cart", addBody, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var cartItem model.CartItem
	require.NoError(t, env.testDB.First(&cartItem).Error)

	w = doJSON(env.router, "DELETE", fmt.Sprintf("/cart/%d", cartItem.ID), nil, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["count"])
}

func TestCartController_RemoveFromCart_Guest(t *testing.T) {
	env := setupCartControllerTest(t)

	addBody := AddToCartRequest{ProductID: env.product.ID, Size: "M", Color: "Black", Quantity: 2}
	w := doJSON(env.router, "POST", "/cart", addBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	token := first["guest_token"].(string)

	path := fmt.Sprintf("/cart/%d?size=M&color=Black", env.product.ID)
	w = doJSON(env.router, "DELETE", path, nil, map[string]string{
		middleware.GuestTokenHeader: token,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["count"])
}

func TestCartController_ClearCart_User(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	addBody := AddToCartRequest{ProductID: env.product.ID, Size: "M", Color: "Black", Quantity: 2}
	w := doJSON(env.router, "POST", "/cart", addBody, map[string]string{
		"Authorization": "Bearer " + token,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(env.router, "DELETE", "/cart", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(env.router, "GET", "/cart", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(0), response["count"])
}

func TestCartController_MergeCart(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	addBody := AddToCartRequest{ProductID: env.product.ID, Size: "M", Color: "Black", Quantity: 2}
	w := doJSON(env.router, "POST", "/cart", addBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	guestToken := first["guest_token"].(string)

	w = doJSON(env.router, "POST", "/cart/merge", nil, map[string]string{
		"Authorization":             "Bearer " + token,
		middleware.GuestTokenHeader: guestToken,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Guest cart merged successfully", response["message"])
	assert.Equal(t, float64(1), response["count"])

	merge := response["merge"].(map[string]interface{})
	assert.Equal(t, float64(1), merge["cart_added"])
}

func TestCartController_MergeCart_BodyToken(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	addBody := AddToCartRequest{ProductID: env.product.ID, Size: "M", Color: "Black", Quantity: 1}
	w := doJSON(env.router, "POST", "/cart", addBody, nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var first map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))
	guestToken := first["guest_token"].(string)

	w = doJSON(env.router, "POST", "/cart/merge", MergeCartRequest{GuestToken: guestToken}, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, float64(1), response["count"])
}

func TestCartController_MergeCart_Unauthorized(t *testing.T) {
	env := setupCartControllerTest(t)

	w := doJSON(env.router, "POST", "/cart/merge", nil, map[string]string{
		middleware.GuestTokenHeader: "some-token",
	})

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartController_MergeCart_MissingGuestToken(t *testing.T) {
	env := setupCartControllerTest(t)
	token := env.registerUser(t, "shopper@example.com")

	w := doJSON(env.router, "POST", "/cart/merge", nil, map[string]string{
		"Authorization": "Bearer " + token,
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
