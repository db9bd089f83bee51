// Package events implements a best-effort purchase-outcome audit
// side-channel. Publication never gates or alters a Purchase
// response: failures are logged and dropped.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/admission"
	"github.com/nats-io/nats.go"
)

const outcomeSubject = "flashsale.purchase.outcome"

type outcomePayload struct {
	SaleID         string `json:"sale_id"`
	UserID         string `json:"user_id"`
	Result         string `json:"result"`
	OrderID        string `json:"order_id,omitempty"`
	RemainingStock *int   `json:"remaining_stock,omitempty"`
	At             string `json:"at"`
}

// Publisher wraps a NATS connection for fire-and-forget publication
// of purchase outcomes, exposing a single async-publish method.
type Publisher struct {
	conn *nats.Conn
	log  *slog.Logger
}

// NewPublisher connects to the given NATS URL. A failed initial
// connection is returned as an error at once; after an established
// connection drops, the client reconnects with a one-second wait for
// up to 10 attempts.
func NewPublisher(url string, log *slog.Logger) (*Publisher, error) {
	if log == nil {
		log = slog.Default()
	}
	opts := []nats.Option{
		nats.Name("flash-sale-admission"),
		nats.ReconnectWait(time.Second),
		nats.MaxReconnects(10),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			if err != nil {
				log.Warn("nats disconnected", "err", err)
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", "url", nc.ConnectedUrl())
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn, log: log}, nil
}

// PublishOutcome implements admission.EventPublisher. It never returns
// an error to the caller; publish failures are logged at warn level
// and otherwise ignored, since this channel is audit-only and must
// never affect the purchase result.
func (p *Publisher) PublishOutcome(ctx context.Context, evt admission.OutcomeEvent) {
	payload := outcomePayload{
		SaleID:         evt.SaleID,
		UserID:         evt.UserID,
		Result:         string(evt.Result),
		OrderID:        evt.OrderID,
		RemainingStock: evt.RemainingStock,
		At:             evt.At.Format(time.RFC3339),
	}
	data, err := json.Marshal(payload)
	if err != nil {
		p.log.WarnContext(ctx, "failed to marshal outcome event", "err", err)
		return
	}
	if err := p.conn.Publish(outcomeSubject, data); err != nil {
		p.log.WarnContext(ctx, "failed to publish outcome event", "err", err)
	}
}

func (p *Publisher) Close() {
	if p.conn != nil {
		p.conn.Drain()
		p.conn.Close()
	}
}
