package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/inventario-core/internal/application/inventory"
	"github.com/jhoicas/inventario-core/internal/infrastructure/messaging"
)

type fakeWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &fakeWriter{}
	p := messaging.NewKafkaPublisher(w)
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	err := p.Publish(context.Background(), inventory.StockEvent{
		Type:          inventory.EventStockCommitted,
		SKUID:         "sku-1",
		Quantity:      2,
		RefType:       "ORDER_ITEM",
		RefID:         "oi-1",
		SerialUnitIDs: []string{"u-1", "u-2"},
		StockQuantity: 8,
		OccurredAt:    at,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)

	msg := w.msgs[0]
	assert.Equal(t, "sku-1", string(msg.Key), "la key conserva el orden por SKU")
	assert.Equal(t, at, msg.Time)
	require.NotEmpty(t, msg.Headers)
	assert.Equal(t, "event_type", msg.Headers[0].Key)
	assert.Equal(t, string(inventory.EventStockCommitted), string(msg.Headers[0].Value))

	var body map[string]any
	require.NoError(t, json.Unmarshal(msg.Value, &body))
	assert.Equal(t, "sku-1", body["sku_id"])
	assert.EqualValues(t, 2, body["quantity"])
	assert.EqualValues(t, 8, body["stock_quantity"])
	assert.Len(t, body["serial_unit_ids"], 2)
	assert.NotContains(t, body, "movement_ids")

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}

func TestKafkaPublisher_ErrorDelWriter(t *testing.T) {
	broker := errors.New("broker caído")
	p := messaging.NewKafkaPublisher(&fakeWriter{err: broker})

	err := p.Publish(context.Background(), inventory.StockEvent{Type: inventory.EventStockReserved, SKUID: "sku-1"})
	assert.ErrorIs(t, err, broker)
}
