package db

import "errors"

var (
	// ErrProductNotFound is returned when a referenced product does not exist.
	ErrProductNotFound = errors.New("product not found")

	// ErrInsufficientStock is returned when a requested quantity exceeds the
	// current stock of a product, read under row lock.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrOrderNotFound covers both a missing order and an order owned by a
	// different user, so callers cannot probe for existence.
	ErrOrderNotFound = errors.New("order not found")

	// ErrUserNotFound is returned when a user row is absent.
	ErrUserNotFound = errors.New("user not found")
)
