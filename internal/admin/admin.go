// Package admin implements the administrative sale-window and
// stock-management surface: UpdateWindow and set_total_stock, exposed
// as a minimal service in the shape of the ticketing reference's
// AdminService.
package admin

import (
	"context"
	"fmt"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/frayhan94/flash-sale-ordering-system/internal/orderlog"
)

type Service struct {
	dol orderlog.OrderLog
}

func NewService(dol orderlog.OrderLog) *Service {
	return &Service{dol: dol}
}

// UpdateWindow adjusts a sale's start and/or end time. Either bound
// may be left nil to leave it unchanged.
func (s *Service) UpdateWindow(ctx context.Context, saleID string, start, end *time.Time) (domain.Sale, error) {
	sale, err := s.dol.UpdateWindow(ctx, saleID, start, end)
	if err != nil {
		return domain.Sale{}, fmt.Errorf("admin: update_window: %w", err)
	}
	return sale, nil
}

// SetTotalStock adjusts a sale's total_stock in the DOL only. Callers
// that also need the FC counter reseeded should follow this with
// reconcile.Service.InitStock or Reset, depending on whether live
// traffic is expected.
func (s *Service) SetTotalStock(ctx context.Context, saleID string, n int) error {
	if n < 0 {
		return domain.ErrValidation
	}
	if err := s.dol.SetTotalStock(ctx, saleID, n); err != nil {
		return fmt.Errorf("admin: set_total_stock: %w", err)
	}
	return nil
}
