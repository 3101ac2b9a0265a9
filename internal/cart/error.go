package cart

import "errors"

var (
	ErrCartNotFound = errors.New("cart not found")
	ErrCartInactive = errors.New("cart is no longer active")
	ErrCartEmpty    = errors.New("cart has no items")
)
