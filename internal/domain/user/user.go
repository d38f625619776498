// Package user holds the registering-user lookup contract.
package user

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when no user exists for the given id.
var ErrNotFound = errors.New("user not found")

// User identifies who registered a sale.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Repository provides user lookup.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
}
