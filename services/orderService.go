package services

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Kariqs/campus-store-api/metrics"
	"github.com/Kariqs/campus-store-api/models"
	"github.com/Kariqs/campus-store-api/repositories"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	DefaultMaxAttempts = 3
	DefaultTimeout     = 10 * time.Second
)

// AfterCommitFunc runs once an order is durably created. It cannot fail the
// placement; it gets a context detached from the request's cancellation.
type AfterCommitFunc func(ctx context.Context, order *models.Order)

type OrderService struct {
	db          *gorm.DB
	pricing     Pricing
	maxAttempts int
	timeout     time.Duration
	backoff     func(attempt int) time.Duration
	afterCommit []AfterCommitFunc
	now         func() time.Time
}

type Option func(*OrderService)

func WithPricing(p Pricing) Option {
	return func(s *OrderService) { s.pricing = p }
}

// WithMaxAttempts bounds how many transactions one placement may run when
// the store reports contention. Values below 1 mean a single attempt.
func WithMaxAttempts(n int) Option {
	return func(s *OrderService) {
		if n < 1 {
			n = 1
		}
		s.maxAttempts = n
	}
}

// WithTimeout caps the whole placement, retries included. Zero disables it.
func WithTimeout(d time.Duration) Option {
	return func(s *OrderService) { s.timeout = d }
}

func WithBackoff(fn func(attempt int) time.Duration) Option {
	return func(s *OrderService) { s.backoff = fn }
}

func WithAfterCommit(fns ...AfterCommitFunc) Option {
	return func(s *OrderService) { s.afterCommit = append(s.afterCommit, fns...) }
}

func NewOrderService(db *gorm.DB, opts ...Option) *OrderService {
	s := &OrderService{
		db:          db,
		maxAttempts: DefaultMaxAttempts,
		timeout:     DefaultTimeout,
		backoff:     jitteredBackoff,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PlaceOrder validates the cart, then in one transaction checks and decrements
// stock for every line and inserts the order. Either all of it commits or
// nothing does.
func (s *OrderService) PlaceOrder(ctx context.Context, userID string, req PlaceOrderRequest) (*models.Order, error) {
	if userID == "" {
		return nil, &InternalError{Err: ErrUserRequired}
	}
	if err := ValidatePlaceOrder(req); err != nil {
		metrics.OrdersTotal.WithLabelValues(outcomeOf(err)).Inc()
		return nil, err
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	fields := log.Fields{
		"user_id":     userID,
		"order_items": productIDs(req.OrderItems),
	}

	order, err := s.placeWithRetry(ctx, userID, req, fields)
	metrics.OrdersTotal.WithLabelValues(outcomeOf(err)).Inc()
	if err != nil {
		var internal *InternalError
		if errors.As(err, &internal) {
			log.WithFields(fields).WithError(internal.Err).Error("Order placement failed")
		}
		return nil, err
	}

	for _, item := range order.OrderItems {
		metrics.StockDecrements.Add(float64(item.Qty))
	}
	log.WithFields(fields).WithField("order_id", order.ID).Info("Order placed")

	hookCtx := context.WithoutCancel(ctx)
	for _, fn := range s.afterCommit {
		fn(hookCtx, order)
	}
	return order, nil
}

func (s *OrderService) placeWithRetry(ctx context.Context, userID string, req PlaceOrderRequest, fields log.Fields) (*models.Order, error) {
	for attempt := 1; ; attempt++ {
		metrics.OrderAttempts.Inc()

		order, err := s.placeOnce(ctx, userID, req)
		var conflict *TransactionConflictError
		if err == nil || !errors.As(err, &conflict) {
			return order, err
		}

		if attempt >= s.maxAttempts {
			return nil, &InternalError{Err: fmt.Errorf("gave up after %d attempts: %w", attempt, err)}
		}

		log.WithFields(fields).WithField("attempt", attempt).WithError(conflict.Err).Warn("Order transaction conflicted, retrying")

		timer := time.NewTimer(s.backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, &InternalError{Err: ctx.Err()}
		case <-timer.C:
		}
	}
}

// placeOnce runs a single transaction. gorm commits when the closure returns
// nil and rolls back on an error or panic, so every exit path closes it.
func (s *OrderService) placeOnce(ctx context.Context, userID string, req PlaceOrderRequest) (*models.Order, error) {
	var created *models.Order

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		products := repositories.NewProductRepository(tx)

		reservations, err := reserveStock(ctx, products, req.OrderItems)
		if err != nil {
			return err
		}

		for _, r := range reservations {
			if err := products.DecrementStock(ctx, r.productID, r.qty); err != nil {
				return err
			}
		}

		order := s.buildOrder(userID, req)
		if err := repositories.NewOrderRepository(tx).Create(ctx, order); err != nil {
			return err
		}

		// A caller that went away must not end up with a committed order.
		if err := ctx.Err(); err != nil {
			return err
		}

		created = order
		return nil
	})
	if err != nil {
		return nil, classify(err)
	}
	return created, nil
}

type reservation struct {
	productID string
	qty       int
}

// reserveStock reads every referenced product inside the transaction and
// stops at the first line that cannot be served. Repeated lines for one
// product are checked against their running total.
func reserveStock(ctx context.Context, products *repositories.ProductRepository, items []models.OrderItem) ([]reservation, error) {
	loaded := make(map[string]*models.Product, len(items))
	staged := make(map[string]int, len(items))
	var order []string

	for _, item := range items {
		product, ok := loaded[item.Product]
		if !ok {
			found, err := products.FindForUpdate(ctx, item.Product)
			if errors.Is(err, repositories.ErrNotFound) {
				return nil, &NotFoundError{ProductID: item.Product, Name: item.Name}
			}
			if err != nil {
				return nil, err
			}
			product = found
			loaded[item.Product] = product
			order = append(order, item.Product)
		}

		available := product.CountInStock - staged[item.Product]
		if available < item.Qty {
			return nil, &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   item.Qty,
				Available:   available,
			}
		}
		staged[item.Product] += item.Qty
	}

	reservations := make([]reservation, 0, len(order))
	for _, id := range order {
		reservations = append(reservations, reservation{productID: id, qty: staged[id]})
	}
	return reservations, nil
}

// buildOrder snapshots the caller's line items as priced at cart time.
func (s *OrderService) buildOrder(userID string, req PlaceOrderRequest) *models.Order {
	items := make([]models.OrderItem, len(req.OrderItems))
	copy(items, req.OrderItems)

	paymentMethod := req.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = models.PaymentMethodCOD
	}

	totals := s.pricing.Totals(items)
	now := s.now()

	return &models.Order{
		UserID:          userID,
		OrderItems:      items,
		ShippingAddress: *req.ShippingAddress,
		PaymentMethod:   paymentMethod,
		PaymentResult:   models.PaymentResult{Status: models.PaymentStatusPending},
		ItemsPrice:      totals.ItemsPrice,
		ShippingPrice:   totals.ShippingPrice,
		TaxPrice:        totals.TaxPrice,
		TotalPrice:      totals.TotalPrice,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

func classify(err error) error {
	switch {
	case isDomainError(err):
		return err
	case repositories.IsConflict(err):
		return &TransactionConflictError{Err: err}
	default:
		return &InternalError{Err: err}
	}
}

func outcomeOf(err error) string {
	var (
		validation *ValidationError
		notFound   *NotFoundError
		stock      *InsufficientStockError
		internal   *InternalError
	)
	switch {
	case err == nil:
		return metrics.OutcomeCreated
	case errors.As(err, &validation):
		return metrics.OutcomeValidationFailed
	case errors.As(err, &notFound):
		return metrics.OutcomeNotFound
	case errors.As(err, &stock):
		return metrics.OutcomeInsufficientStock
	case errors.As(err, &internal):
		var conflict *TransactionConflictError
		if errors.As(internal.Err, &conflict) {
			return metrics.OutcomeConflictExhausted
		}
		return metrics.OutcomeInternalError
	default:
		return metrics.OutcomeInternalError
	}
}

func jitteredBackoff(attempt int) time.Duration {
	base := time.Duration(attempt) * 20 * time.Millisecond
	return base + time.Duration(rand.Int63n(int64(base)))
}

func productIDs(items []models.OrderItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.Product)
	}
	return ids
}
