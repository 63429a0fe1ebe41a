package events_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tournevent/orderquote/internal/events"
	"github.com/tournevent/orderquote/pkg/shipper"
)

type recordingWriter struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *recordingWriter) Close() error {
	w.closed = true
	return nil
}

func quotedOrder() *shipper.Order {
	return &shipper.Order{
		ID:      "order-123",
		Status:  shipper.StatusQuoted,
		Quotes:  []shipper.ShippingQuote{{Carrier: shipper.CarrierUPS, PriceCents: 815}},
		Version: 2,
	}
}

func TestKafkaPublisher_Publish(t *testing.T) {
	w := &recordingWriter{}
	p := events.NewKafkaPublisherWithWriter(w)

	err := p.Publish(context.Background(), events.NewEvent(events.TypeOrderQuoted, quotedOrder()))
	require.NoError(t, err)

	require.Len(t, w.msgs, 1)
	msg := w.msgs[0]
	assert.Equal(t, "order-123", string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, events.TypeOrderQuoted, string(msg.Headers[0].Value))

	var got events.Event
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, events.TypeOrderQuoted, got.Type)
	assert.Equal(t, shipper.StatusQuoted, got.Status)
	assert.Equal(t, int64(2), got.Version)
	assert.Equal(t, []shipper.ShippingQuote{{Carrier: shipper.CarrierUPS, PriceCents: 815}}, got.Quotes)
}

func TestKafkaPublisher_WriteError(t *testing.T) {
	cause := errors.New("broker down")
	p := events.NewKafkaPublisherWithWriter(&recordingWriter{err: cause})

	err := p.Publish(context.Background(), events.NewEvent(events.TypeOrderBooked, quotedOrder()))
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "order-123")
}

func TestKafkaPublisher_Close(t *testing.T) {
	w := &recordingWriter{}
	require.NoError(t, events.NewKafkaPublisherWithWriter(w).Close())
	assert.True(t, w.closed)
}

func TestNop(t *testing.T) {
	var p events.Publisher = events.Nop{}
	assert.NoError(t, p.Publish(context.Background(), events.Event{}))
	assert.NoError(t, p.Close())
}
