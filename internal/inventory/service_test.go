package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newInventoryTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.InventoryItem{}, &models.StockBatch{}))
	return db
}

func newInventoryService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(gormTxRunner{db: db}, NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestAddStockIncrementsAggregate(t *testing.T) {
	db := newInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{Name: "Saline", Unit: "ml", Quantity: 40})
	require.NoError(t, err)

	batch, err := svc.AddStock(ctx, AddStockInput{
		InventoryID: item.ID,
		Quantity:    60,
		Supplier:    "MedSupply",
		BatchNumber: "B-100",
	})
	require.NoError(t, err)
	assert.Equal(t, 60, batch.Quantity)

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Quantity)

	batches, err := svc.ListBatches(ctx, item.ID)
	require.NoError(t, err)
	require.Len(t, batches, 1)
}

func TestAddStockUnknownItem(t *testing.T) {
	db := newInventoryTestDB(t)
	svc := newInventoryService(t, db)

	_, err := svc.AddStock(context.Background(), AddStockInput{InventoryID: uuid.New(), Quantity: 5})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeNotFound, appErr.Code())

	var count int64
	require.NoError(t, db.Model(&models.StockBatch{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestRemoveBatchDecrementsAggregate(t *testing.T) {
	db := newInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{Name: "Dextrose", Quantity: 0})
	require.NoError(t, err)
	batch, err := svc.AddStock(ctx, AddStockInput{InventoryID: item.ID, Quantity: 50})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveBatch(ctx, batch.ID))

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Quantity)
}

// A batch removal that would drive the aggregate negative must leave both the
// batch and the aggregate untouched.
func TestRemoveBatchWouldGoNegative(t *testing.T) {
	db := newInventoryTestDB(t)
	svc := newInventoryService(t, db)
	ctx := context.Background()

	item, err := svc.CreateItem(ctx, CreateItemInput{Name: "Heparin", Quantity: 0})
	require.NoError(t, err)
	batch, err := svc.AddStock(ctx, AddStockInput{InventoryID: item.ID, Quantity: 50})
	require.NoError(t, err)

	// simulate consumption of 20 units since receipt
	require.NoError(t, db.Model(&models.InventoryItem{}).Where("id = ?", item.ID).Update("quantity", 30).Error)

	err = svc.RemoveBatch(ctx, batch.ID)
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())

	got, err := svc.GetItem(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 30, got.Quantity)

	var count int64
	require.NoError(t, db.Model(&models.StockBatch{}).Where("id = ?", batch.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestAdjustQuantityGuard(t *testing.T) {
	db := newInventoryTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	item := &models.InventoryItem{Name: "Saline", Quantity: 10}
	require.NoError(t, db.Create(item).Error)

	ok, err := repo.AdjustQuantity(ctx, item.ID, -10)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.AdjustQuantity(ctx, item.ID, -1)
	require.NoError(t, err)
	assert.False(t, ok)

	var got models.InventoryItem
	require.NoError(t, db.First(&got, "id = ?", item.ID).Error)
	assert.Equal(t, 0, got.Quantity)
}
