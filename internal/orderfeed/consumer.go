package orderfeed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"restoran-analytics/internal/config"
	"restoran-analytics/internal/metrics"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Event is published whenever an order is created, changed or removed.
type Event struct {
	OrderID string `json:"orderId"`
	Type    string `json:"type"`
}

var ErrBadEvent = errors.New("bad order event")

var eventTypes = map[string]bool{
	"created": true,
	"updated": true,
	"paid":    true,
	"deleted": true,
}

func decodeEvent(value []byte) (Event, error) {
	var ev Event
	if err := json.Unmarshal(value, &ev); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	ev.Type = strings.ToLower(strings.TrimSpace(ev.Type))
	if ev.OrderID == "" || !eventTypes[ev.Type] {
		return Event{}, fmt.Errorf("%w: order=%q type=%q", ErrBadEvent, ev.OrderID, ev.Type)
	}
	return ev, nil
}

// Reader is the part of *kafka.Reader the consumer needs.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// Refresher recomputes whatever depends on the order snapshot.
type Refresher interface {
	RefreshAll(ctx context.Context) int
}

func NewReader(cfg config.KafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
	})
}

// Consumer turns order change events into live board refreshes. A burst of
// events supersedes itself on each board, so only the last refresh lands.
type Consumer struct {
	Reader    Reader
	Refresher Refresher
	Log       logrus.FieldLogger
}

// Run reads until ctx is cancelled or the reader fails. A cancelled context
// is a clean shutdown and returns nil.
func (c *Consumer) Run(ctx context.Context) error {
	defer c.Reader.Close()
	for {
		msg, err := c.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("reading order feed: %w", err)
		}
		c.handle(ctx, msg)
	}
}

func (c *Consumer) handle(ctx context.Context, msg kafka.Message) {
	ev, err := decodeEvent(msg.Value)
	if err != nil {
		metrics.OrderFeedEvents.WithLabelValues("invalid").Inc()
		c.Log.WithFields(logrus.Fields{
			"partition": msg.Partition,
			"offset":    msg.Offset,
		}).WithError(err).Warn("skipping order event")
		return
	}

	n := c.Refresher.RefreshAll(ctx)
	metrics.OrderFeedEvents.WithLabelValues("refreshed").Inc()
	c.Log.WithFields(logrus.Fields{
		"order_id": ev.OrderID,
		"type":     ev.Type,
		"boards":   n,
	}).Debug("order event refreshed live boards")
}
