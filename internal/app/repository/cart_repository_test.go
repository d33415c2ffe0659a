package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veloura/veloura-backend/internal/app/model"
	"github.com/veloura/veloura-backend/internal/db"
	"gorm.io/gorm"
)

func setupCartTest(t *testing.T) (*gorm.DB, CartRepository, *model.User, *model.Product) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)

	repo := NewCartRepository(testDB)

	// Create test user
	user := &model.User{
		Email:    "test@example.com",
		Password: "hash",
		Name:     "Test User",
		Role:     model.UserRoleCustomer,
	}
	testDB.Create(user)

	// Create test product
	product := &model.Product{
		Name:      "Silk Slip Dress",
		Category:  "dresses",
		BasePrice: 1000,
		IsActive:  true,
	}
	testDB.Create(product)

	return testDB, repo, user, product
}

func TestCartRepository_Create(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cartItem := &model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  2,
		UnitPrice: 1000,
	}

	err := repo.Create(cartItem)
	assert.NoError(t, err)
	assert.NotZero(t, cartItem.ID)
}

func TestCartRepository_FindByUserID(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	item1 := &model.CartItem{UserID: user.ID, ProductID: product.ID, Size: "M", Color: "Black", Quantity: 2, UnitPrice: 1000}
	item2 := &model.CartItem{UserID: user.ID, ProductID: product.ID, Size: "L", Color: "Ivory", Quantity: 1, UnitPrice: 1000}

	repo.Create(item1)
	repo.Create(item2)

	items, err := repo.FindByUserID(user.ID)
	assert.NoError(t, err)
	assert.Len(t, items, 2)

	// Product is preloaded for cart rendering
	require.NotNil(t, items[0].Product)
	assert.Equal(t, "Silk Slip Dress", items[0].Product.Name)
}

func TestCartRepository_FindByID(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cartItem := &model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  3,
		UnitPrice: 1000,
	}
	repo.Create(cartItem)

	found, err := repo.FindByID(cartItem.ID)
	assert.NoError(t, err)
	assert.Equal(t, cartItem.ID, found.ID)
	assert.Equal(t, 3, found.Quantity)

	_, err = repo.FindByID(9999)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_FindByIdentity(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cartItem := &model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  2,
		UnitPrice: 1000,
	}
	repo.Create(cartItem)

	found, err := repo.FindByIdentity(user.ID, product.ID, "M", "Black")
	assert.NoError(t, err)
	assert.Equal(t, cartItem.ID, found.ID)

	// A different color is a different line
	_, err = repo.FindByIdentity(user.ID, product.ID, "M", "Ivory")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_Update(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cartItem := &model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  2,
		UnitPrice: 1000,
	}
	repo.Create(cartItem)

	cartItem.Quantity = 5
	err := repo.Update(cartItem)
	assert.NoError(t, err)

	found, _ := repo.FindByID(cartItem.ID)
	assert.Equal(t, 5, found.Quantity)
}

func TestCartRepository_Delete(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	cartItem := &model.CartItem{
		UserID:    user.ID,
		ProductID: product.ID,
		Size:      "M",
		Color:     "Black",
		Quantity:  2,
		UnitPrice: 1000,
	}
	repo.Create(cartItem)

	err := repo.Delete(cartItem.ID)
	assert.NoError(t, err)

	_, err = repo.FindByID(cartItem.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestCartRepository_DeleteByUserID(t *testing.T) {
	testDB, repo, user, product := setupCartTest(t)
	defer db.CleanupTestDB(testDB)

	repo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Size: "M", Color: "Black", Quantity: 2, UnitPrice: 1000})
	repo.Create(&model.CartItem{UserID: user.ID, ProductID: product.ID, Size: "L", Color: "Black", Quantity: 1, UnitPrice: 1000})

	err := repo.DeleteByUserID(user.ID)
	assert.NoError(t, err)

	items, _ := repo.FindByUserID(user.ID)
	assert.Len(t, items, 0)
}
