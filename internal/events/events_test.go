package events_test

import (
	"context"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/frayhan94/flash-sale-ordering-system/internal/admission"
	"github.com/frayhan94/flash-sale-ordering-system/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"
)

const defaultTestNATSURL = nats.DefaultURL

func TestPublishOutcome(t *testing.T) {
	url := os.Getenv("TEST_NATS_URL")
	if url == "" {
		url = defaultTestNATSURL
	}

	conn, err := nats.Connect(url, nats.Timeout(2*time.Second))
	if err != nil {
		t.Skipf("skipping NATS integration test: %v", err)
	}
	defer conn.Close()

	sub, err := conn.SubscribeSync("flashsale.purchase.outcome")
	require.NoError(t, err)
	defer sub.Unsubscribe()

	pub, err := events.NewPublisher(url, slog.Default())
	require.NoError(t, err)
	defer pub.Close()

	remaining := 5
	pub.PublishOutcome(context.Background(), admission.OutcomeEvent{
		SaleID:         "s1",
		UserID:         "u1",
		OrderID:        "o1",
		RemainingStock: &remaining,
		At:             time.Now().UTC(),
	})

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	require.Contains(t, string(msg.Data), `"sale_id":"s1"`)
}

func TestNewPublisher_UnreachableReturnsError(t *testing.T) {
	_, err := events.NewPublisher("nats://127.0.0.1:1", slog.Default())
	require.Error(t, err)
}
