// Package cart holds a shopper's cart as an explicit state container.
//
// Every mutation is applied to a copy of the current lines and handed to the
// Persister; the in-memory state only advances once the save succeeds.
package cart

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrLineNotFound    = errors.New("item not in cart")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrMissingProduct  = errors.New("product is required")
)

// Line is one product in the cart, priced as shown to the shopper.
type Line struct {
	ProductID string  `json:"product"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Qty       int     `json:"qty"`
}

// Persister stores the full cart state after each mutation.
type Persister interface {
	Save(ctx context.Context, userID string, lines []Line) error
}

type Cart struct {
	userID  string
	lines   []Line
	persist Persister
}

// New wraps previously loaded lines. persist may be nil for a throwaway cart.
func New(userID string, lines []Line, persist Persister) *Cart {
	return &Cart{
		userID:  userID,
		lines:   clone(lines),
		persist: persist,
	}
}

// Lines returns a copy of the cart contents in insertion order.
func (c *Cart) Lines() []Line {
	return clone(c.lines)
}

func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// ItemsPrice is the sum of price x qty over all lines.
func (c *Cart) ItemsPrice() float64 {
	var total float64
	for _, l := range c.lines {
		total += l.Price * float64(l.Qty)
	}
	return total
}

// Add puts a product in the cart. An existing line for the same product is
// replaced, matching how the storefront re-adds a product with a new quantity.
func (c *Cart) Add(ctx context.Context, line Line) error {
	if line.ProductID == "" {
		return ErrMissingProduct
	}
	if line.Qty < 1 {
		return ErrInvalidQuantity
	}

	next := clone(c.lines)
	if i := indexOf(next, line.ProductID); i >= 0 {
		next[i] = line
	} else {
		next = append(next, line)
	}
	return c.commit(ctx, next)
}

func (c *Cart) UpdateQuantity(ctx context.Context, productID string, qty int) error {
	if qty < 1 {
		return ErrInvalidQuantity
	}
	i := indexOf(c.lines, productID)
	if i < 0 {
		return ErrLineNotFound
	}

	next := clone(c.lines)
	next[i].Qty = qty
	return c.commit(ctx, next)
}

func (c *Cart) Remove(ctx context.Context, productID string) error {
	i := indexOf(c.lines, productID)
	if i < 0 {
		return ErrLineNotFound
	}

	next := make([]Line, 0, len(c.lines)-1)
	next = append(next, c.lines[:i]...)
	next = append(next, c.lines[i+1:]...)
	return c.commit(ctx, next)
}

func (c *Cart) Clear(ctx context.Context) error {
	return c.commit(ctx, []Line{})
}

func (c *Cart) commit(ctx context.Context, next []Line) error {
	if c.persist != nil {
		if err := c.persist.Save(ctx, c.userID, clone(next)); err != nil {
			return fmt.Errorf("failed to persist cart: %w", err)
		}
	}
	c.lines = next
	return nil
}

func indexOf(lines []Line, productID string) int {
	for i, l := range lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

func clone(lines []Line) []Line {
	out := make([]Line, len(lines))
	copy(out, lines)
	return out
}
