package remote

import "errors"

var (
	ErrTripNotFound    = errors.New("trip not found")
	ErrExpenseNotFound = errors.New("expense not found")
	ErrBlobNotFound    = errors.New("bill image not found")
)
