package services

import (
	"context"
	"errors"
	"math/rand"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kariqs/campus-store-api/models"
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB creates an in-memory SQLite database for testing. A single
// connection serializes transactions, so concurrent placements queue up.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.User{}, &models.Cart{}, &models.CartItem{}))
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64, stock int) *models.Product {
	t.Helper()
	p := &models.Product{Name: name, Category: models.CategoryStationery, Price: price, CountInStock: stock}
	require.NoError(t, db.Create(p).Error)
	return p
}

func seedUser(t *testing.T, db *gorm.DB, name, email string) *models.User {
	t.Helper()
	u := &models.User{Name: name, Email: email, Password: "x"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func stockOf(t *testing.T, db *gorm.DB, id string) int {
	t.Helper()
	var p models.Product
	require.NoError(t, db.Unscoped().First(&p, "id = ?", id).Error)
	return p.CountInStock
}

func orderCount(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Order{}).Count(&n).Error)
	return n
}

func validAddress() *models.ShippingAddress {
	return &models.ShippingAddress{
		Address:    "Hall 4, Room 12",
		City:       "Nairobi",
		PostalCode: "00100",
		Country:    "Kenya",
		Phone:      "0712345678",
	}
}

func line(p *models.Product, qty int) models.OrderItem {
	return models.OrderItem{Product: p.ID, Name: p.Name, Image: p.Image, Price: p.Price, Qty: qty}
}

func noBackoff(int) time.Duration { return 0 }

func newTestService(db *gorm.DB, opts ...Option) *OrderService {
	opts = append([]Option{WithBackoff(noBackoff)}, opts...)
	return NewOrderService(db, opts...)
}

type statementCounter struct {
	reads  atomic.Int64
	writes atomic.Int64
}

func countStatements(t *testing.T, db *gorm.DB) *statementCounter {
	t.Helper()
	c := &statementCounter{}
	read := func(*gorm.DB) { c.reads.Add(1) }
	write := func(*gorm.DB) { c.writes.Add(1) }
	require.NoError(t, db.Callback().Query().Before("gorm:query").Register("test:count_query", read))
	require.NoError(t, db.Callback().Row().Before("gorm:row").Register("test:count_row", read))
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:count_create", write))
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register("test:count_update", write))
	require.NoError(t, db.Callback().Delete().Before("gorm:delete").Register("test:count_delete", write))
	return c
}

func TestPlaceOrder_Success(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db, WithPricing(Pricing{ShippingFee: 400}))
	user := seedUser(t, db, "Amina", "amina@campus.test")
	notebook := seedProduct(t, db, "Notebook", 120, 10)
	pen := seedProduct(t, db, "Pen", 40, 5)

	req := PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(notebook, 3), line(pen, 2)},
		ShippingAddress: validAddress(),
	}
	order, err := svc.PlaceOrder(context.Background(), user.ID, req)
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, user.ID, order.UserID)
	assert.Equal(t, req.OrderItems, []models.OrderItem(order.OrderItems))
	assert.Equal(t, models.PaymentMethodCOD, order.PaymentMethod)
	assert.Equal(t, models.PaymentStatusPending, order.PaymentResult.Status)
	assert.False(t, order.IsPaid)
	assert.False(t, order.IsShipped)
	assert.False(t, order.IsDelivered)
	assert.Nil(t, order.PaidAt)
	assert.Equal(t, 440.0, order.ItemsPrice)
	assert.Equal(t, 400.0, order.ShippingPrice)
	assert.Equal(t, 840.0, order.TotalPrice)

	assert.Equal(t, 7, stockOf(t, db, notebook.ID))
	assert.Equal(t, 3, stockOf(t, db, pen.ID))
	assert.EqualValues(t, 1, orderCount(t, db))
}

func TestPlaceOrder_KeepsExplicitPaymentMethod(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	p := seedProduct(t, db, "Stapler", 250, 2)

	order, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 1)},
		ShippingAddress: validAddress(),
		PaymentMethod:   "M-Pesa",
	})
	require.NoError(t, err)
	assert.Equal(t, "M-Pesa", order.PaymentMethod)
}

func TestPlaceOrder_InsufficientStockLeavesStockUnchanged(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	p := seedProduct(t, db, "Graphing Calculator", 3500, 2)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 3)},
		ShippingAddress: validAddress(),
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Graphing Calculator", stockErr.ProductName)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, "Not enough stock for Graphing Calculator. Only 2 available", err.Error())

	assert.Equal(t, 2, stockOf(t, db, p.ID))
	assert.Zero(t, orderCount(t, db))
}

func TestPlaceOrder_MultiItemFailureIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	a := seedProduct(t, db, "Product A", 100, 10)
	b := seedProduct(t, db, "Product B", 100, 5)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(a, 2), line(b, 1000)},
		ShippingAddress: validAddress(),
	})

	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, b.ID, stockErr.ProductID)
	assert.Equal(t, 10, stockOf(t, db, a.ID))
	assert.Equal(t, 5, stockOf(t, db, b.ID))
	assert.Zero(t, orderCount(t, db))
}

func TestPlaceOrder_MissingProductIsAtomic(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	a := seedProduct(t, db, "Product A", 100, 10)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		OrderItems: []models.OrderItem{
			line(a, 2),
			{Product: "gone", Name: "Lab Coat", Price: 900, Qty: 1},
		},
		ShippingAddress: validAddress(),
	})

	var notFound *NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "Product Lab Coat not found", err.Error())
	assert.Equal(t, 10, stockOf(t, db, a.ID))
	assert.Zero(t, orderCount(t, db))
}

func TestPlaceOrder_SoldOutScenario(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	p1 := seedProduct(t, db, "p1", 50, 3)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p1, 3)},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)
	assert.Equal(t, 0, stockOf(t, db, p1.ID))

	_, err = svc.PlaceOrder(ctx, "user-2", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p1, 1)},
		ShippingAddress: validAddress(),
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Contains(t, err.Error(), "Only 0 available")
	assert.EqualValues(t, 1, orderCount(t, db))
}

func TestPlaceOrder_EmptyCartWritesNothing(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	counter := countStatements(t, db)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		ShippingAddress: validAddress(),
	})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "No order items", validation.Message)
	assert.Zero(t, counter.reads.Load())
	assert.Zero(t, counter.writes.Load())
}

func TestPlaceOrder_BadPhoneFailsBeforeAnyRead(t *testing.T) {
	db := setupTestDB(t)
	p := seedProduct(t, db, "Notebook", 120, 10)
	svc := newTestService(db)
	counter := countStatements(t, db)

	for _, phone := range []string{"071234567", "07123456789", "07123x5678", "+254712345"} {
		addr := validAddress()
		addr.Phone = phone

		_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
			OrderItems:      []models.OrderItem{line(p, 1)},
			ShippingAddress: addr,
		})

		var validation *ValidationError
		require.ErrorAs(t, err, &validation, phone)
		assert.Equal(t, "Phone number must be 10 digits", validation.Message)
	}
	assert.Zero(t, counter.reads.Load())
	assert.Zero(t, counter.writes.Load())
}

func TestPlaceOrder_RequiresUser(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	p := seedProduct(t, db, "Notebook", 120, 10)

	_, err := svc.PlaceOrder(context.Background(), "", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 1)},
		ShippingAddress: validAddress(),
	})

	var internal *InternalError
	require.ErrorAs(t, err, &internal)
	assert.ErrorIs(t, err, ErrUserRequired)
	assert.Equal(t, 10, stockOf(t, db, p.ID))
}

func TestPlaceOrder_DuplicateLinesCheckedCumulatively(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	p := seedProduct(t, db, "Highlighter", 30, 5)
	ctx := context.Background()

	_, err := svc.PlaceOrder(ctx, "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 3), line(p, 3)},
		ShippingAddress: validAddress(),
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Available, "second line sees what the first one left")
	assert.Equal(t, 5, stockOf(t, db, p.ID))

	order, err := svc.PlaceOrder(ctx, "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 2), line(p, 3)},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)
	assert.Len(t, order.OrderItems, 2)
	assert.Equal(t, 0, stockOf(t, db, p.ID))
}

func TestPlaceOrder_ConcurrentCheckoutsNeverOversell(t *testing.T) {
	const (
		stock   = 7
		qty     = 2
		workers = 10
	)

	db := setupTestDB(t)
	svc := newTestService(db)
	p := seedProduct(t, db, "Lab Goggles", 600, stock)

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		soldOut   atomic.Int64
		other     atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
				OrderItems:      []models.OrderItem{line(p, qty)},
				ShippingAddress: validAddress(),
			})
			var stockErr *InsufficientStockError
			switch {
			case err == nil:
				successes.Add(1)
			case errors.As(err, &stockErr):
				soldOut.Add(1)
			default:
				other.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, stock/qty, successes.Load())
	assert.EqualValues(t, workers-stock/qty, soldOut.Load())
	assert.Zero(t, other.Load())
	assert.Equal(t, stock-int(successes.Load())*qty, stockOf(t, db, p.ID))
	assert.Equal(t, successes.Load(), orderCount(t, db))
}

// setupSharedTestDB opens a file-backed SQLite database in WAL mode with one
// connection per worker, so transactions overlap instead of queueing.
func setupSharedTestDB(t *testing.T, conns int) *gorm.DB {
	t.Helper()

	dsn := "file:" + filepath.Join(t.TempDir(), "store.db") + "?_journal_mode=WAL&_busy_timeout=5000"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(conns)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.Product{}, &models.Order{}, &models.User{}, &models.Cart{}, &models.CartItem{}))
	return db
}

// holdFirstReads blocks the first n product reads until all n have happened
// (or a second passes), so every first attempt decides on the same stock.
func holdFirstReads(t *testing.T, db *gorm.DB, n int64) {
	t.Helper()
	var arrived atomic.Int64
	release := make(chan struct{})
	hold := func(tx *gorm.DB) {
		if tx.Statement.Table != "products" {
			return
		}
		switch k := arrived.Add(1); {
		case k == n:
			close(release)
		case k < n:
			select {
			case <-release:
			case <-time.After(time.Second):
			}
		}
	}
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:hold_first_reads", hold))
}

func TestPlaceOrder_OverlappingTransactionsNeverOversell(t *testing.T) {
	const (
		stock   = 7
		qty     = 2
		workers = 10
	)

	db := setupSharedTestDB(t, workers)
	p := seedProduct(t, db, "Lab Goggles", 600, stock)
	holdFirstReads(t, db, workers)

	var retries atomic.Int64
	svc := NewOrderService(db,
		WithMaxAttempts(50),
		WithTimeout(30*time.Second),
		WithBackoff(func(int) time.Duration {
			retries.Add(1)
			return time.Duration(1+rand.Intn(5)) * time.Millisecond
		}),
	)

	var (
		wg        sync.WaitGroup
		successes atomic.Int64
		soldOut   atomic.Int64
		other     atomic.Int64
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
				OrderItems:      []models.OrderItem{line(p, qty)},
				ShippingAddress: validAddress(),
			})
			var stockErr *InsufficientStockError
			switch {
			case err == nil:
				successes.Add(1)
			case errors.As(err, &stockErr):
				soldOut.Add(1)
			default:
				t.Logf("unexpected placement error: %v", err)
				other.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.EqualValues(t, stock/qty, successes.Load())
	assert.EqualValues(t, workers-stock/qty, soldOut.Load())
	assert.Zero(t, other.Load())
	assert.Equal(t, stock-int(successes.Load())*qty, stockOf(t, db, p.ID))
	assert.Equal(t, successes.Load(), orderCount(t, db))
	assert.Positive(t, retries.Load(), "stale first attempts must conflict and retry")
}

func TestPlaceOrder_SnapshotSurvivesProductEdits(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	p := seedProduct(t, db, "Backpack", 2500, 4)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 1)},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Product{}).Where("id = ?", p.ID).
		Updates(map[string]any{"name": "Backpack v2", "price": 3000}).Error)
	require.NoError(t, db.Delete(&models.Product{}, "id = ?", p.ID).Error)

	var stored models.Order
	require.NoError(t, db.First(&stored, "id = ?", order.ID).Error)
	require.Len(t, stored.OrderItems, 1)
	assert.Equal(t, "Backpack", stored.OrderItems[0].Name)
	assert.Equal(t, 2500.0, stored.OrderItems[0].Price)
}

// injectDeadlocks makes the next n stock updates fail the way MySQL reports a
// deadlock victim.
func injectDeadlocks(t *testing.T, db *gorm.DB, n int) *atomic.Int64 {
	t.Helper()
	remaining := &atomic.Int64{}
	remaining.Store(int64(n))
	err := db.Callback().Update().Before("gorm:update").Register("test:deadlock", func(tx *gorm.DB) {
		if tx.Statement.Table == "products" && remaining.Add(-1) >= 0 {
			tx.AddError(&mysql.MySQLError{Number: 1213, Message: "Deadlock found when trying to get lock"})
		}
	})
	require.NoError(t, err)
	return remaining
}

func TestPlaceOrder_RetriesConflicts(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db, WithMaxAttempts(3))
	p := seedProduct(t, db, "Notebook", 120, 10)
	injectDeadlocks(t, db, 2)

	order, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 4)},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.Equal(t, 6, stockOf(t, db, p.ID))
	assert.EqualValues(t, 1, orderCount(t, db))
}

func TestPlaceOrder_ExhaustedRetriesSurfaceAsInternal(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db, WithMaxAttempts(2))
	p := seedProduct(t, db, "Notebook", 120, 10)
	injectDeadlocks(t, db, 5)

	_, err := svc.PlaceOrder(context.Background(), "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 4)},
		ShippingAddress: validAddress(),
	})

	var internal *InternalError
	require.ErrorAs(t, err, &internal)
	var conflict *TransactionConflictError
	assert.ErrorAs(t, err, &conflict)
	assert.Equal(t, 10, stockOf(t, db, p.ID))
	assert.Zero(t, orderCount(t, db))
}

func TestPlaceOrder_CanceledContextLeavesNoWrites(t *testing.T) {
	db := setupTestDB(t)
	svc := newTestService(db)
	p := seedProduct(t, db, "Notebook", 120, 10)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.PlaceOrder(ctx, "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 1)},
		ShippingAddress: validAddress(),
	})

	var internal *InternalError
	require.ErrorAs(t, err, &internal)
	assert.Equal(t, 10, stockOf(t, db, p.ID))
	assert.Zero(t, orderCount(t, db))
}

func TestPlaceOrder_AfterCommitHooks(t *testing.T) {
	db := setupTestDB(t)
	var seen []string
	svc := newTestService(db, WithAfterCommit(func(ctx context.Context, order *models.Order) {
		assert.NoError(t, ctx.Err())
		seen = append(seen, order.ID)
	}))
	p := seedProduct(t, db, "Notebook", 120, 1)
	ctx := context.Background()

	order, err := svc.PlaceOrder(ctx, "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 1)},
		ShippingAddress: validAddress(),
	})
	require.NoError(t, err)

	_, err = svc.PlaceOrder(ctx, "user-1", PlaceOrderRequest{
		OrderItems:      []models.OrderItem{line(p, 1)},
		ShippingAddress: validAddress(),
	})
	require.Error(t, err)

	assert.Equal(t, []string{order.ID}, seen, "hooks only run for committed orders")
}

func TestProductIDs(t *testing.T) {
	items := []models.OrderItem{{Product: "p2", Qty: 1}, {Product: "p1", Qty: 3}, {Product: "p2", Qty: 2}}
	assert.Equal(t, []string{"p2", "p1", "p2"}, productIDs(items))
	assert.Empty(t, productIDs(nil))
}
