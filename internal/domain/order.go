package domain

import "time"

// OrderStatus mirrors the DOL schema's status column.
type OrderStatus string

const (
	OrderSuccess OrderStatus = "SUCCESS"
	OrderFailed  OrderStatus = "FAILED"
)

// Order is a row in the durable order log. Orders are created
// exclusively by the admission pipeline and never mutated after
// insert.
type Order struct {
	ID        string
	SaleID    string
	UserID    string
	Status    OrderStatus
	CreatedAt time.Time
}

// Result is one of the six outcome codes of the purchase-core API.
type Result string

const (
	ResultSuccess          Result = "SUCCESS"
	ResultAlreadyPurchased Result = "ALREADY_PURCHASED"
	ResultSoldOut          Result = "SOLD_OUT"
	ResultSaleNotActive    Result = "SALE_NOT_ACTIVE"
	ResultSaleNotFound     Result = "SALE_NOT_FOUND"
	ResultError            Result = "ERROR"
)
