package orderlog

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/domain"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var dolTracer = otel.Tracer("orderlog")

// PostgresOrderLog implements OrderLog against a single Postgres
// database/sql pool, opening one trace span per query and classifying
// unique-constraint violations the same way the ticketing reference
// does (translated from pgx's pgconn.PgError to lib/pq's *pq.Error).
type PostgresOrderLog struct {
	db *sql.DB
}

func NewPostgresOrderLog(db *sql.DB) *PostgresOrderLog {
	return &PostgresOrderLog{db: db}
}

func (r *PostgresOrderLog) GetSale(ctx context.Context, saleID string) (domain.Sale, bool, error) {
	ctx, span := dolTracer.Start(ctx, "dol.get_sale",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "postgresql"), attribute.String("sale_id", saleID)))
	defer span.End()

	const query = `
SELECT id, name, start_time, end_time, total_stock, created_at, updated_at
FROM sales WHERE id = $1`

	var s domain.Sale
	err := r.db.QueryRowContext(ctx, query, saleID).Scan(
		&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.TotalStock, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return domain.Sale{}, false, classifyErr(err)
	}
	return s, true, nil
}

func (r *PostgresOrderLog) CountSuccess(ctx context.Context, saleID string) (int, error) {
	ctx, span := dolTracer.Start(ctx, "dol.count_success",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "postgresql"), attribute.String("sale_id", saleID)))
	defer span.End()

	const query = `SELECT COUNT(*) FROM orders WHERE sale_id = $1 AND status = 'SUCCESS'`
	var n int
	if err := r.db.QueryRowContext(ctx, query, saleID).Scan(&n); err != nil {
		span.RecordError(err)
		return 0, classifyErr(err)
	}
	return n, nil
}

func (r *PostgresOrderLog) CountFailed(ctx context.Context, saleID string) (int, error) {
	ctx, span := dolTracer.Start(ctx, "dol.count_failed",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "postgresql"), attribute.String("sale_id", saleID)))
	defer span.End()

	const query = `SELECT COUNT(*) FROM orders WHERE sale_id = $1 AND status = 'FAILED'`
	var n int
	if err := r.db.QueryRowContext(ctx, query, saleID).Scan(&n); err != nil {
		span.RecordError(err)
		return 0, classifyErr(err)
	}
	return n, nil
}

func (r *PostgresOrderLog) ListSuccessUsers(ctx context.Context, saleID string) ([]string, error) {
	ctx, span := dolTracer.Start(ctx, "dol.list_success_users",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("db.system", "postgresql"), attribute.String("sale_id", saleID)))
	defer span.End()

	const query = `SELECT user_id FROM orders WHERE sale_id = $1 AND status = 'SUCCESS'`
	rows, err := r.db.QueryContext(ctx, query, saleID)
	if err != nil {
		span.RecordError(err)
		return nil, classifyErr(err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			span.RecordError(err)
			return nil, classifyErr(err)
		}
		users = append(users, u)
	}
	span.SetAttributes(attribute.Int("result.count", len(users)))
	return users, rows.Err()
}

// InsertOrder attempts a durable commit of the order row. The
// uniqueness constraint on (sale_id, user_id) is the ultimate
// enforcer of one-per-customer; a violation surfaces as
// ErrDuplicateOrder so the admission pipeline can take its
// duplicate-order compensation path.
func (r *PostgresOrderLog) InsertOrder(ctx context.Context, saleID, userID string, status domain.OrderStatus) (domain.Order, error) {
	ctx, span := dolTracer.Start(ctx, "dol.insert_order",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("db.system", "postgresql"),
			attribute.String("sale_id", saleID),
			attribute.String("user_id", userID),
		))
	defer span.End()

	order := domain.Order{
		ID:        uuid.NewString(),
		SaleID:    saleID,
		UserID:    userID,
		Status:    status,
		CreatedAt: time.Now().UTC(),
	}

	const stmt = `
INSERT INTO orders (id, sale_id, user_id, status, created_at)
VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.ExecContext(ctx, stmt, order.ID, order.SaleID, order.UserID, string(order.Status), order.CreatedAt)
	if err != nil {
		span.RecordError(err)
		if isUniqueViolation(err) {
			return domain.Order{}, domain.ErrDuplicateOrder
		}
		return domain.Order{}, classifyErr(err)
	}
	return order, nil
}

func (r *PostgresOrderLog) GetSuccessOrder(ctx context.Context, saleID, userID string) (domain.Order, bool, error) {
	ctx, span := dolTracer.Start(ctx, "dol.get_success_order",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID), attribute.String("user_id", userID)))
	defer span.End()

	const query = `
SELECT id, sale_id, user_id, status, created_at
FROM orders WHERE sale_id = $1 AND user_id = $2 AND status = 'SUCCESS'`

	var o domain.Order
	var status string
	err := r.db.QueryRowContext(ctx, query, saleID, userID).Scan(&o.ID, &o.SaleID, &o.UserID, &status, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, false, nil
	}
	if err != nil {
		span.RecordError(err)
		return domain.Order{}, false, classifyErr(err)
	}
	o.Status = domain.OrderStatus(status)
	return o, true, nil
}

func (r *PostgresOrderLog) DeleteOrders(ctx context.Context, saleID string) error {
	ctx, span := dolTracer.Start(ctx, "dol.delete_orders",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID)))
	defer span.End()

	if _, err := r.db.ExecContext(ctx, `DELETE FROM orders WHERE sale_id = $1`, saleID); err != nil {
		span.RecordError(err)
		return classifyErr(err)
	}
	return nil
}

func (r *PostgresOrderLog) SetTotalStock(ctx context.Context, saleID string, n int) error {
	ctx, span := dolTracer.Start(ctx, "dol.set_total_stock",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID), attribute.Int("total_stock", n)))
	defer span.End()

	const stmt = `UPDATE sales SET total_stock = $2, updated_at = NOW() WHERE id = $1`
	tag, err := r.db.ExecContext(ctx, stmt, saleID, n)
	if err != nil {
		span.RecordError(err)
		return classifyErr(err)
	}
	if affected, _ := tag.RowsAffected(); affected == 0 {
		return domain.ErrSaleNotFound
	}
	return nil
}

func (r *PostgresOrderLog) UpdateWindow(ctx context.Context, saleID string, start, end *time.Time) (domain.Sale, error) {
	ctx, span := dolTracer.Start(ctx, "dol.update_window",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("sale_id", saleID)))
	defer span.End()

	const stmt = `
UPDATE sales
SET start_time = COALESCE($2, start_time),
    end_time   = COALESCE($3, end_time),
    updated_at = NOW()
WHERE id = $1
RETURNING id, name, start_time, end_time, total_stock, created_at, updated_at`

	var s domain.Sale
	err := r.db.QueryRowContext(ctx, stmt, saleID, start, end).Scan(
		&s.ID, &s.Name, &s.StartTime, &s.EndTime, &s.TotalStock, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Sale{}, domain.ErrSaleNotFound
	}
	if err != nil {
		span.RecordError(err)
		return domain.Sale{}, classifyErr(err)
	}
	return s, nil
}

func (r *PostgresOrderLog) Ping(ctx context.Context) error {
	return classifyErr(r.db.PingContext(ctx))
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// classifyErr maps a driver-level error to the DOL's TRANSIENT/FATAL
// split: connectivity failures are transient, everything else
// (constraint violations aside from uniqueness, malformed SQL, etc.)
// is treated as fatal by the caller's compensation path.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrTransientDurable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrTransientDurable, err)
	}
	if errors.Is(err, sql.ErrConnDone) || errors.Is(err, driver.ErrBadConn) {
		return fmt.Errorf("%w: %v", domain.ErrTransientDurable, err)
	}
	return fmt.Errorf("%w: %v", domain.ErrFatalDurable, err)
}
