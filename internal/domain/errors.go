package domain

import "errors"

// Sentinel errors for the purchase admission pipeline. Transport
// layers switch on identity, not type, to decide the outer result
// code.
var (
	ErrSaleNotFound         = errors.New("sale not found")
	ErrSaleNotActive        = errors.New("sale not active")
	ErrSoldOut              = errors.New("sold out")
	ErrAlreadyPurchased     = errors.New("already purchased")
	ErrTransientCoordinator = errors.New("coordinator unavailable")
	ErrTransientDurable     = errors.New("durable store unavailable")
	ErrDuplicateOrder       = errors.New("duplicate order")
	ErrFatalDurable         = errors.New("durable store error")
	ErrValidation           = errors.New("validation error")
)
