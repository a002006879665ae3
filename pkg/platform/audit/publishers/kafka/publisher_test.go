package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "paycustom/pkg/platform/audit"
)

type fakeProducer struct {
	records []*kgo.Record
	err     error
}

func (f *fakeProducer) ProduceSync(_ context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		f.records = append(f.records, r)
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func TestSinkAppend(t *testing.T) {
	id := uuid.New()
	ts := time.Date(2026, 5, 4, 3, 2, 1, 0, time.UTC)
	event := audit.Event{
		ID:              id,
		Timestamp:       ts,
		Action:          string(audit.EventPaymentMethodHidden),
		Subject:         "inline",
		Decision:        "hide",
		Reason:          "restricted_items_present",
		PaymentMethodID: "PM1",
	}

	t.Run("produces keyed JSON record", func(t *testing.T) {
		producer := &fakeProducer{}
		sink := NewSink(producer, "payment-customization.audit")

		require.NoError(t, sink.Append(context.Background(), event))
		require.Len(t, producer.records, 1)

		rec := producer.records[0]
		assert.Equal(t, "payment-customization.audit", rec.Topic)
		assert.Equal(t, id.String(), string(rec.Key))

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Value, &body))
		assert.Equal(t, "operations", body["category"])
		assert.Equal(t, "PM1", body["payment_method_id"])
		assert.Equal(t, ts.Format(time.RFC3339Nano), body["timestamp"])
	})

	t.Run("wraps produce errors", func(t *testing.T) {
		producer := &fakeProducer{err: errors.New("not leader")}
		sink := NewSink(producer, "audit")

		err := sink.Append(context.Background(), event)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "produce audit event")
	})
}
