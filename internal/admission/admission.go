// Package admission implements the Admission Pipeline (AP): the
// stateless protocol that coordinates the Fast Coordinator and the
// Durable Order Log to admit purchases under concurrency.
package admission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/clock"
	"github.com/frayhan94/flash-sale-ordering-system/internal/coordinator"
	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/frayhan94/flash-sale-ordering-system/internal/orderlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var apTracer = otel.Tracer("admission")

// OutcomeRecorder is the metrics seam the admission pipeline reports
// through; a nil Recorder on Service disables metrics entirely.
type OutcomeRecorder interface {
	RecordOutcome(saleID string, result domain.Result)
	ObserveStep(step string, d time.Duration)
}

// OutcomeEvent is published on the best-effort audit side-channel
// after every Purchase call resolves.
type OutcomeEvent struct {
	SaleID         string
	UserID         string
	Result         domain.Result
	OrderID        string
	RemainingStock *int
	At             time.Time
}

// EventPublisher is the audit-channel seam; a nil EventPublisher on
// Service disables publication entirely. Implementations must not
// block the caller on failure.
type EventPublisher interface {
	PublishOutcome(ctx context.Context, evt OutcomeEvent)
}

// PurchaseInput is the transport-agnostic request shape of the
// Purchase operation.
type PurchaseInput struct {
	UserID string
	SaleID string
}

// PurchaseOutcome is the transport-agnostic response shape of the
// Purchase operation.
type PurchaseOutcome struct {
	Result         domain.Result
	Message        string
	Order          *domain.Order
	RemainingStock *int
	// SubStatus is only meaningful when Result == ResultSaleNotActive.
	SubStatus domain.SaleStatus
}

// UserPurchase is the response shape of the GetUserPurchase operation.
type UserPurchase struct {
	Purchased bool
	Order     *domain.Order
}

// SaleStatusView is the response shape of the GetSaleStatus operation.
type SaleStatusView struct {
	SaleID         string
	Name           string
	Status         domain.SaleStatus
	RemainingStock int
	TotalStock     int
	StartTime      time.Time
	EndTime        time.Time
}

// Stats is the response shape of the GetStats operation.
type Stats struct {
	Sale         SaleStatusView
	SuccessCount int
	FailedCount  int
	TotalCount   int
}

// Service implements the Admission Pipeline. It holds no per-sale
// in-process state: every field is a shared, concurrency-safe
// collaborator.
type Service struct {
	fc     coordinator.Coordinator
	dol    orderlog.OrderLog
	clock  clock.Clock
	log    *slog.Logger
	rec    OutcomeRecorder
	events EventPublisher
}

// Option configures optional Service collaborators, following the
// functional-options shape used throughout this pack's service layer.
type Option func(*Service)

func WithRecorder(r OutcomeRecorder) Option {
	return func(s *Service) { s.rec = r }
}

func WithEventPublisher(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(fc coordinator.Coordinator, dol orderlog.OrderLog, c clock.Clock, opts ...Option) *Service {
	s := &Service{
		fc:    fc,
		dol:   dol,
		clock: c,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Purchase executes the six-step reserve-then-verify purchase
// protocol: look up the sale, check its window, check the user's
// existing mark, decrement stock, re-verify against oversell, then
// mark the user and commit the order, compensating on any failure.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (PurchaseOutcome, error) {
	ctx, span := apTracer.Start(ctx, "ap.purchase",
		trace.WithAttributes(attribute.String("sale_id", in.SaleID), attribute.String("user_id", in.UserID)))
	defer span.End()

	if !domain.ValidUserID(in.UserID) {
		return PurchaseOutcome{}, domain.ErrValidation
	}

	outcome := s.purchase(ctx, in)
	span.SetAttributes(attribute.String("result", string(outcome.Result)))
	if s.rec != nil {
		s.rec.RecordOutcome(in.SaleID, outcome.Result)
	}
	s.publish(ctx, in, outcome)
	return outcome, nil
}

func (s *Service) purchase(ctx context.Context, in PurchaseInput) PurchaseOutcome {
	// Step 1: sale lookup.
	sale, found, err := s.step("sale_lookup", func() (domain.Sale, bool, error) {
		return s.dol.GetSale(ctx, in.SaleID)
	})
	if err != nil {
		s.log.ErrorContext(ctx, "sale lookup failed", "sale_id", in.SaleID, "err", err)
		return errOutcome()
	}
	if !found {
		return PurchaseOutcome{Result: domain.ResultSaleNotFound, Message: "sale not found"}
	}

	now := s.clock.Now()
	if status := sale.Status(now); status != domain.SaleActive {
		return PurchaseOutcome{
			Result:    domain.ResultSaleNotActive,
			Message:   "sale not active",
			SubStatus: status,
		}
	}

	// Step 2: fast user-mark check, with DOL fallback when FC is down.
	alreadyPurchased, fcDown, _ := s.timed("mark_check", func() (bool, bool, error) {
		has, err := s.fc.HasMark(ctx, in.SaleID, in.UserID)
		if err != nil {
			return false, true, err
		}
		return has, false, nil
	})
	if alreadyPurchased {
		return PurchaseOutcome{Result: domain.ResultAlreadyPurchased, Message: "already purchased"}
	}
	if fcDown {
		order, has, err := s.dol.GetSuccessOrder(ctx, in.SaleID, in.UserID)
		if err == nil && has {
			o := order
			return PurchaseOutcome{Result: domain.ResultAlreadyPurchased, Message: "already purchased", Order: &o}
		}
	}

	// Step 3: atomic stock decrement.
	start := time.Now()
	newStock, err := s.fc.DecrStock(ctx, in.SaleID)
	s.observe("decr_stock", start)
	if err != nil {
		s.log.ErrorContext(ctx, "decrement failed, coordinator unavailable", "sale_id", in.SaleID, "err", err)
		return errOutcome()
	}
	stockDecremented := true

	compensate := func(clearMark bool) {
		if stockDecremented {
			if _, incErr := s.fc.IncrStock(ctx, in.SaleID); incErr != nil {
				s.log.ErrorContext(ctx, "compensation incr_stock failed", "sale_id", in.SaleID, "err", incErr)
			}
		}
		if clearMark {
			if clrErr := s.fc.ClearMark(ctx, in.SaleID, in.UserID); clrErr != nil {
				s.log.ErrorContext(ctx, "compensation clear_mark failed", "sale_id", in.SaleID, "user_id", in.UserID, "err", clrErr)
			}
		}
	}

	// Step 4: oversell guard.
	if newStock < 0 {
		compensate(false)
		return PurchaseOutcome{Result: domain.ResultSoldOut, Message: "sold out"}
	}

	// Step 5: user-mark write, before the DOL insert, so that a
	// concurrent request from the same user is rejected at the step-2
	// mark check instead of decrementing stock and losing at the
	// uniqueness constraint. A crash between the two leaves a mark with
	// no order: later purchases by that user return ALREADY_PURCHASED
	// until the mark expires or a Reset clears it; RecoverUserMarks does
	// not remove it.
	if err := s.fc.SetMark(ctx, in.SaleID, in.UserID); err != nil {
		compensate(false)
		s.log.ErrorContext(ctx, "mark write failed, coordinator unavailable", "sale_id", in.SaleID, "err", err)
		return errOutcome()
	}

	// Step 6: durable insert.
	start = time.Now()
	order, err := s.dol.InsertOrder(ctx, in.SaleID, in.UserID, domain.OrderSuccess)
	s.observe("insert_order", start)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateOrder):
			// 6a: the other concurrent request owns the mark; do not clear it.
			compensate(false)
			return PurchaseOutcome{Result: domain.ResultAlreadyPurchased, Message: "already purchased"}
		default:
			// 6b: transient or fatal, compensate fully.
			compensate(true)
			s.log.ErrorContext(ctx, "durable insert failed", "sale_id", in.SaleID, "user_id", in.UserID, "err", err)
			return errOutcome()
		}
	}

	// 6c: success.
	remaining := newStock
	o := order
	return PurchaseOutcome{
		Result:         domain.ResultSuccess,
		Message:        "success",
		Order:          &o,
		RemainingStock: &remaining,
	}
}

func (s *Service) publish(ctx context.Context, in PurchaseInput, outcome PurchaseOutcome) {
	if s.events == nil {
		return
	}
	evt := OutcomeEvent{
		SaleID:         in.SaleID,
		UserID:         in.UserID,
		Result:         outcome.Result,
		RemainingStock: outcome.RemainingStock,
		At:             s.clock.Now(),
	}
	if outcome.Order != nil {
		evt.OrderID = outcome.Order.ID
	}
	s.events.PublishOutcome(ctx, evt)
}

// GetUserPurchase answers directly against the DOL, which remains the
// source of truth regardless of FC state.
func (s *Service) GetUserPurchase(ctx context.Context, saleID, userID string) (UserPurchase, error) {
	ctx, span := apTracer.Start(ctx, "ap.get_user_purchase",
		trace.WithAttributes(attribute.String("sale_id", saleID), attribute.String("user_id", userID)))
	defer span.End()

	order, found, err := s.dol.GetSuccessOrder(ctx, saleID, userID)
	if err != nil {
		return UserPurchase{}, err
	}
	if !found {
		return UserPurchase{Purchased: false}, nil
	}
	o := order
	return UserPurchase{Purchased: true, Order: &o}, nil
}

// GetSaleStatus falls back to the DOL's count_success to derive
// remaining stock when FC is unavailable.
func (s *Service) GetSaleStatus(ctx context.Context, saleID string) (SaleStatusView, error) {
	ctx, span := apTracer.Start(ctx, "ap.get_sale_status", trace.WithAttributes(attribute.String("sale_id", saleID)))
	defer span.End()

	sale, found, err := s.dol.GetSale(ctx, saleID)
	if err != nil {
		return SaleStatusView{}, err
	}
	if !found {
		return SaleStatusView{Status: domain.SaleNotFound}, domain.ErrSaleNotFound
	}

	remaining, ok, err := s.fc.GetStock(ctx, saleID)
	if err != nil || !ok {
		count, cErr := s.dol.CountSuccess(ctx, saleID)
		if cErr != nil {
			return SaleStatusView{}, cErr
		}
		remaining = sale.TotalStock - count
	}
	if remaining < 0 {
		remaining = 0
	}

	return SaleStatusView{
		SaleID:         sale.ID,
		Name:           sale.Name,
		Status:         sale.Status(s.clock.Now()),
		RemainingStock: remaining,
		TotalStock:     sale.TotalStock,
		StartTime:      sale.StartTime,
		EndTime:        sale.EndTime,
	}, nil
}

// GetStats reports aggregate success/failure counts for a sale
// alongside its current status view.
func (s *Service) GetStats(ctx context.Context, saleID string) (Stats, error) {
	ctx, span := apTracer.Start(ctx, "ap.get_stats", trace.WithAttributes(attribute.String("sale_id", saleID)))
	defer span.End()

	saleView, err := s.GetSaleStatus(ctx, saleID)
	if err != nil {
		return Stats{}, err
	}
	success, err := s.dol.CountSuccess(ctx, saleID)
	if err != nil {
		return Stats{}, err
	}
	failed, err := s.dol.CountFailed(ctx, saleID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{
		Sale:         saleView,
		SuccessCount: success,
		FailedCount:  failed,
		TotalCount:   success + failed,
	}, nil
}

func errOutcome() PurchaseOutcome {
	return PurchaseOutcome{Result: domain.ResultError, Message: "internal error"}
}

// step wraps a DOL-facing call with a step-duration observation.
func (s *Service) step(name string, fn func() (domain.Sale, bool, error)) (domain.Sale, bool, error) {
	start := time.Now()
	sale, found, err := fn()
	s.observe(name, start)
	return sale, found, err
}

// timed wraps a bool-returning FC-facing call with a step-duration
// observation; the third return is the underlying error, unused by
// callers that only need the fcDown flag.
func (s *Service) timed(name string, fn func() (bool, bool, error)) (bool, bool, error) {
	start := time.Now()
	v, down, err := fn()
	s.observe(name, start)
	return v, down, err
}

func (s *Service) observe(step string, start time.Time) {
	if s.rec == nil {
		return
	}
	s.rec.ObserveStep(step, time.Since(start))
}
