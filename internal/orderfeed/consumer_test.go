package orderfeed

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    Event
		wantErr bool
	}{
		{"created", `{"orderId":"o-1","type":"created"}`, Event{OrderID: "o-1", Type: "created"}, false},
		{"case and spaces", `{"orderId":"o-2","type":" Paid "}`, Event{OrderID: "o-2", Type: "paid"}, false},
		{"missing id", `{"type":"created"}`, Event{}, true},
		{"unknown type", `{"orderId":"o-3","type":"archived"}`, Event{}, true},
		{"not json", `order o-4 created`, Event{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeEvent([]byte(tt.value))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadEvent)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeReader struct {
	msgs   []kafka.Message
	err    error
	closed bool
}

func (r *fakeReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	if len(r.msgs) == 0 {
		if r.err != nil {
			return kafka.Message{}, r.err
		}
		<-ctx.Done()
		return kafka.Message{}, ctx.Err()
	}
	m := r.msgs[0]
	r.msgs = r.msgs[1:]
	return m, nil
}

func (r *fakeReader) Close() error {
	r.closed = true
	return nil
}

type countingRefresher struct {
	mu    sync.Mutex
	calls int
	done  chan struct{}
	want  int
}

func (r *countingRefresher) RefreshAll(context.Context) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls == r.want && r.done != nil {
		close(r.done)
	}
	return 1
}

func TestConsumer_RefreshesOnValidEvents(t *testing.T) {
	log, hook := test.NewNullLogger()
	reader := &fakeReader{msgs: []kafka.Message{
		{Value: []byte(`{"orderId":"o-1","type":"created"}`)},
		{Value: []byte(`garbage`), Offset: 7},
		{Value: []byte(`{"orderId":"o-1","type":"paid"}`)},
	}}
	ref := &countingRefresher{done: make(chan struct{}), want: 2}
	c := &Consumer{Reader: reader, Refresher: ref, Log: log}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- c.Run(ctx) }()

	<-ref.done
	cancel()
	require.NoError(t, <-errc)
	assert.True(t, reader.closed)
	assert.Equal(t, 2, ref.calls)

	var warned bool
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			warned = true
			assert.EqualValues(t, 7, e.Data["offset"])
		}
	}
	assert.True(t, warned)
}

func TestConsumer_ReaderFailure(t *testing.T) {
	log, _ := test.NewNullLogger()
	boom := errors.New("broker gone")
	c := &Consumer{Reader: &fakeReader{err: boom}, Refresher: &countingRefresher{}, Log: log}

	err := c.Run(context.Background())
	assert.ErrorIs(t, err, boom)
}
