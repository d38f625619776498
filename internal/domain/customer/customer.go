// Package customer holds the customer lookup collaborator contract. The sale
// engine only needs to resolve customers by id; catalog management lives
// elsewhere.
package customer

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no customer exists for the given id.
var ErrNotFound = errors.New("customer not found")

// Customer is the subset of the customer record the sale engine reads.
type Customer struct {
	ID        int64
	Code      string
	TradeName string
	Email     string
}

// Repository provides customer lookup.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*Customer, error)
}
