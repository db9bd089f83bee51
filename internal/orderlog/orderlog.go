// Package orderlog implements the Durable Order Log (DOL): the
// append-only, uniqueness-constrained source of truth for committed
// orders and sale metadata.
package orderlog

import (
	"context"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
)

// OrderLog is the contract the admission pipeline and reconciliation
// procedures depend on.
type OrderLog interface {
	GetSale(ctx context.Context, saleID string) (domain.Sale, bool, error)
	CountSuccess(ctx context.Context, saleID string) (int, error)
	CountFailed(ctx context.Context, saleID string) (int, error)
	ListSuccessUsers(ctx context.Context, saleID string) ([]string, error)
	InsertOrder(ctx context.Context, saleID, userID string, status domain.OrderStatus) (domain.Order, error)
	GetSuccessOrder(ctx context.Context, saleID, userID string) (domain.Order, bool, error)
	DeleteOrders(ctx context.Context, saleID string) error
	SetTotalStock(ctx context.Context, saleID string, n int) error
	UpdateWindow(ctx context.Context, saleID string, start, end *time.Time) (domain.Sale, error)
	Ping(ctx context.Context) error
}
