// Package reconcile implements the bootstrap, reset, stock
// reinitialisation, and user-mark recovery procedures that keep the
// Fast Coordinator's view consistent with the Durable Order Log. It
// is a pure consumer of the Coordinator and OrderLog adapters; it
// holds no state of its own.
package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/frayhan94/flash-sale-ordering-system/internal/coordinator"
	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/frayhan94/flash-sale-ordering-system/internal/orderlog"
)

type Service struct {
	fc  coordinator.Coordinator
	dol orderlog.OrderLog
	log *slog.Logger
}

func NewService(fc coordinator.Coordinator, dol orderlog.OrderLog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{fc: fc, dol: dol, log: log}
}

// Bootstrap computes remaining stock from the DOL and writes it into
// the FC for saleID. If the sale does not exist it logs and returns
// nil — reads against a missing sale return SALE_NOT_FOUND on their
// own, no error propagation is needed here.
func (s *Service) Bootstrap(ctx context.Context, saleID string) error {
	sale, found, err := s.dol.GetSale(ctx, saleID)
	if err != nil {
		return fmt.Errorf("reconcile: bootstrap lookup: %w", err)
	}
	if !found {
		s.log.InfoContext(ctx, "bootstrap: sale not found, skipping", "sale_id", saleID)
		return nil
	}

	remaining, err := s.remaining(ctx, sale)
	if err != nil {
		return err
	}
	if err := s.fc.SetStock(ctx, saleID, remaining); err != nil {
		return fmt.Errorf("reconcile: bootstrap set_stock: %w", err)
	}
	s.log.InfoContext(ctx, "bootstrap complete", "sale_id", saleID, "remaining_stock", remaining)
	return nil
}

// Reset is the administrative Reset operation: set total_stock in the
// DOL, delete all orders for the sale, wipe FC stock and marks, then
// reseed FC stock to the new total. Idempotent: calling it twice in
// succession yields the same GetSaleStatus both times.
func (s *Service) Reset(ctx context.Context, saleID string, newTotalStock int) error {
	if err := s.dol.SetTotalStock(ctx, saleID, newTotalStock); err != nil {
		return fmt.Errorf("reconcile: reset set_total_stock: %w", err)
	}
	if err := s.dol.DeleteOrders(ctx, saleID); err != nil {
		return fmt.Errorf("reconcile: reset delete_orders: %w", err)
	}
	if err := s.fc.Reset(ctx, saleID); err != nil {
		return fmt.Errorf("reconcile: reset fc reset: %w", err)
	}
	if err := s.fc.SetStock(ctx, saleID, newTotalStock); err != nil {
		return fmt.Errorf("reconcile: reset set_stock: %w", err)
	}
	s.log.InfoContext(ctx, "reset complete", "sale_id", saleID, "total_stock", newTotalStock)
	return nil
}

// InitStock recomputes remaining stock from the DOL and overwrites FC.
// This is documented as operator-only: it takes no lock against
// concurrent Purchase calls and may cause transient over-acceptance
// if invoked during live traffic.
func (s *Service) InitStock(ctx context.Context, saleID string) (int, error) {
	sale, found, err := s.dol.GetSale(ctx, saleID)
	if err != nil {
		return 0, fmt.Errorf("reconcile: init_stock lookup: %w", err)
	}
	if !found {
		return 0, domain.ErrSaleNotFound
	}
	remaining, err := s.remaining(ctx, sale)
	if err != nil {
		return 0, err
	}
	s.log.WarnContext(ctx, "initializing stock outside bootstrap; unsafe under live traffic", "sale_id", saleID)
	if err := s.fc.SetStock(ctx, saleID, remaining); err != nil {
		return 0, fmt.Errorf("reconcile: init_stock set_stock: %w", err)
	}
	return remaining, nil
}

// RecoverUserMarks reads every SUCCESS user_id from the DOL and
// re-marks it in FC. Idempotent: set_mark is unconditional.
func (s *Service) RecoverUserMarks(ctx context.Context, saleID string) (int, error) {
	users, err := s.dol.ListSuccessUsers(ctx, saleID)
	if err != nil {
		return 0, fmt.Errorf("reconcile: recover list_success_users: %w", err)
	}
	for _, userID := range users {
		if err := s.fc.SetMark(ctx, saleID, userID); err != nil {
			return 0, fmt.Errorf("reconcile: recover set_mark(%s): %w", userID, err)
		}
	}
	s.log.InfoContext(ctx, "user marks recovered", "sale_id", saleID, "count", len(users))
	return len(users), nil
}

func (s *Service) remaining(ctx context.Context, sale domain.Sale) (int, error) {
	count, err := s.dol.CountSuccess(ctx, sale.ID)
	if err != nil {
		return 0, fmt.Errorf("reconcile: count_success: %w", err)
	}
	remaining := sale.TotalStock - count
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}
