package services

import (
	"context"
	"testing"

	"github.com/Kariqs/campus-store-api/cart"
	"github.com/Kariqs/campus-store-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCartService_CheckoutClearsCartOnSuccess(t *testing.T) {
	db := setupTestDB(t)
	orders := newTestService(db)
	carts := NewCartService(db, orders)
	ctx := context.Background()
	notebook := seedProduct(t, db, "Notebook", 120, 10)
	pen := seedProduct(t, db, "Pen", 40, 10)

	c, err := carts.Open(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, cart.Line{ProductID: notebook.ID, Name: notebook.Name, Price: notebook.Price, Qty: 2}))
	require.NoError(t, c.Add(ctx, cart.Line{ProductID: pen.ID, Name: pen.Name, Price: pen.Price, Qty: 5}))

	order, err := carts.Checkout(ctx, "user-1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 2)
	assert.Equal(t, notebook.ID, order.OrderItems[0].Product)
	assert.Equal(t, 5, order.OrderItems[1].Qty)
	assert.Equal(t, 440.0, order.ItemsPrice)

	reopened, err := carts.Open(ctx, "user-1")
	require.NoError(t, err)
	assert.True(t, reopened.IsEmpty())
	assert.Equal(t, 8, stockOf(t, db, notebook.ID))
}

func TestCartService_CheckoutKeepsLinesChangedMeanwhile(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	notebook := seedProduct(t, db, "Notebook", 120, 10)
	pen := seedProduct(t, db, "Pen", 40, 10)
	eraser := seedProduct(t, db, "Eraser", 15, 10)

	// Another request edits the cart after the order commits and before
	// checkout tidies up.
	var carts *CartService
	editCart := func(ctx context.Context, _ *models.Order) {
		c, err := carts.Open(ctx, "user-1")
		require.NoError(t, err)
		require.NoError(t, c.Add(ctx, cart.Line{ProductID: eraser.ID, Name: eraser.Name, Price: eraser.Price, Qty: 1}))
		require.NoError(t, c.UpdateQuantity(ctx, pen.ID, 7))
	}
	carts = NewCartService(db, newTestService(db, WithAfterCommit(editCart)))

	c, err := carts.Open(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, cart.Line{ProductID: notebook.ID, Name: notebook.Name, Price: notebook.Price, Qty: 2}))
	require.NoError(t, c.Add(ctx, cart.Line{ProductID: pen.ID, Name: pen.Name, Price: pen.Price, Qty: 5}))

	order, err := carts.Checkout(ctx, "user-1", CheckoutRequest{ShippingAddress: validAddress()})
	require.NoError(t, err)
	require.Len(t, order.OrderItems, 2)

	reopened, err := carts.Open(ctx, "user-1")
	require.NoError(t, err)
	lines := reopened.Lines()
	require.Len(t, lines, 2)
	assert.Equal(t, pen.ID, lines[0].ProductID)
	assert.Equal(t, 7, lines[0].Qty)
	assert.Equal(t, eraser.ID, lines[1].ProductID)
}

func TestCartService_FailedCheckoutKeepsCart(t *testing.T) {
	db := setupTestDB(t)
	carts := NewCartService(db, newTestService(db))
	ctx := context.Background()
	p := seedProduct(t, db, "Notebook", 120, 1)

	c, err := carts.Open(ctx, "user-1")
	require.NoError(t, err)
	require.NoError(t, c.Add(ctx, cart.Line{ProductID: p.ID, Name: p.Name, Price: p.Price, Qty: 3}))

	_, err = carts.Checkout(ctx, "user-1", CheckoutRequest{ShippingAddress: validAddress()})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	reopened, err := carts.Open(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, reopened.Lines(), 1)
	assert.Equal(t, 1, stockOf(t, db, p.ID))
}

func TestCartService_EmptyCartCheckout(t *testing.T) {
	db := setupTestDB(t)
	carts := NewCartService(db, newTestService(db))

	_, err := carts.Checkout(context.Background(), "user-1", CheckoutRequest{ShippingAddress: validAddress()})

	var validation *ValidationError
	require.ErrorAs(t, err, &validation)
	assert.Equal(t, "No order items", validation.Message)
}
