package consumer

import (
	"context"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"example.com/mealplan/internal/logger"
)

func frame(schemaID uint32, payload []byte) []byte {
	value := make([]byte, 5+len(payload))
	value[0] = 0
	binary.BigEndian.PutUint32(value[1:5], schemaID)
	copy(value[5:], payload)
	return value
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return logger.FromZap(zap.New(core)), logs
}

func TestProcessorCommitsOnSuccess(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	payload := []byte(`{"activity_id":"abc"}`)
	msg := kafka.Message{
		Topic:     "activity_events",
		Partition: 0,
		Offset:    10,
		Time:      time.Now().UTC(),
		Value:     frame(42, payload),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("activity.created")},
			{Key: "tenant_id", Value: []byte("tenant-1")},
			{Key: "schema_subject", Value: []byte("activity_events-value")},
		},
	}

	reader := &stubReader{messages: []kafka.Message{msg}, after: contextCanceled}
	handler := &stubHandler{}
	log, _ := observedLogger()

	processor := NewProcessor(reader, handler, WithLogger(log))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 1, reader.commitCalls)
	require.Equal(t, "activity.created", handler.last.EventType)
	require.Equal(t, "tenant-1", handler.last.TenantID)
	require.Equal(t, "activity_events-value", handler.last.SchemaSubject)
	require.Equal(t, 42, handler.last.SchemaID)
	require.JSONEq(t, string(payload), string(handler.last.Payload))
}

func TestProcessorSkipsCommitOnHandlerError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	msg := kafka.Message{
		Topic:  "program_events",
		Offset: 20,
		Time:   time.Now().UTC(),
		Value:  frame(99, []byte(`{"program_id":"def"}`)),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte("program.activated")},
			{Key: "tenant_id", Value: []byte("tenant-2")},
		},
	}

	reader := &stubReader{messages: []kafka.Message{msg}, after: contextCanceled}
	handler := &stubHandler{err: errors.New("boom")}
	log, logs := observedLogger()
	before := testutil.ToFloat64(handlerErrorCounter.WithLabelValues("program_events", "program.activated"))

	processor := NewProcessor(reader, handler, WithLogger(log))

	err := processor.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 1, handler.calls)
	require.Equal(t, 0, reader.commitCalls)
	require.Equal(t, 1, logs.FilterMessage("handler failed").Len())
	require.Equal(t, before+1, testutil.ToFloat64(handlerErrorCounter.WithLabelValues("program_events", "program.activated")))
}

func TestProcessorCommitsUndecodableMessages(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages := []kafka.Message{
		{Topic: "activity_events", Offset: 1, Value: []byte{0, 1}},
		{Topic: "activity_events", Offset: 2, Value: frame(1, []byte(`{}`))},
		{Topic: "activity_events", Offset: 3, Value: append([]byte{7}, frame(1, []byte(`{}`))[1:]...),
			Headers: []kafka.Header{{Key: "event_type", Value: []byte("activity.created")}}},
	}

	reader := &stubReader{messages: messages, after: contextCanceled}
	handler := &stubHandler{}
	log, logs := observedLogger()
	before := testutil.ToFloat64(decodeErrorCounter.WithLabelValues("activity_events"))

	err := NewProcessor(reader, handler, WithLogger(log)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)

	require.Equal(t, 0, handler.calls)
	require.Equal(t, 3, reader.commitCalls)
	require.Equal(t, 3, logs.FilterMessage("decode failed").Len())
	require.Equal(t, before+3, testutil.ToFloat64(decodeErrorCounter.WithLabelValues("activity_events")))
}

func TestChainStopsAtFirstError(t *testing.T) {
	first := &stubHandler{err: errors.New("first")}
	second := &stubHandler{}

	err := Chain(first, second).Handle(context.Background(), Message{})
	require.EqualError(t, err, "first")
	require.Equal(t, 1, first.calls)
	require.Equal(t, 0, second.calls)

	first.err = nil
	require.NoError(t, Chain(first, second).Handle(context.Background(), Message{}))
	require.Equal(t, 1, second.calls)
}

type stubReader struct {
	messages    []kafka.Message
	index       int
	commitCalls int
	after       func() error
}

func (r *stubReader) FetchMessage(context.Context) (kafka.Message, error) {
	if r.index >= len(r.messages) {
		if r.after != nil {
			return kafka.Message{}, r.after()
		}
		return kafka.Message{}, context.Canceled
	}
	msg := r.messages[r.index]
	r.index++
	return msg, nil
}

func (r *stubReader) CommitMessages(_ context.Context, _ ...kafka.Message) error {
	r.commitCalls++
	return nil
}

func (r *stubReader) Close() error { return nil }

func contextCanceled() error { return context.Canceled }

type stubHandler struct {
	calls int
	err   error
	last  Message
}

func (h *stubHandler) Handle(_ context.Context, msg Message) error {
	h.calls++
	h.last = msg
	return h.err
}
