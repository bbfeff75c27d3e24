package analytics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/kafka"
)

// Publisher ships a batch of events. *kafka.Producer satisfies it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Collector records search and index events into an Aggregator and, when a
// Publisher is set, ships them to Kafka in batches. Track never blocks: a
// full buffer drops the event, and so does a Collector that has been closed.
type Collector struct {
	publisher     Publisher
	aggregator    *Aggregator
	eventCh       chan any
	batchSize     int
	flushInterval time.Duration
	logger        *slog.Logger
	done          chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewCollector creates a Collector. publisher may be nil, in which case
// events are only aggregated in process.
func NewCollector(publisher Publisher, aggregator *Aggregator, bufferSize, batchSize int, flushInterval time.Duration) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushInterval <= 0 {
		flushInterval = 5 * time.Second
	}
	return &Collector{
		publisher:     publisher,
		aggregator:    aggregator,
		eventCh:       make(chan any, bufferSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		logger:        slog.Default().With("component", "analytics-collector"),
		done:          make(chan struct{}),
	}
}

// Start launches the background loop that drains the buffer until ctx is
// cancelled or Close is called.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", cap(c.eventCh),
		"batch_size", c.batchSize,
		"flush_interval", c.flushInterval,
		"publishing", c.publisher != nil,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.flushInterval)
	defer ticker.Stop()

	batch := make([]kafka.Event, 0, c.batchSize)
	flush := func(ctx context.Context) {
		if len(batch) == 0 || c.publisher == nil {
			batch = batch[:0]
			return
		}
		if err := c.publisher.PublishBatch(ctx, batch); err != nil {
			c.logger.Error("failed to publish analytics batch", "batch_size", len(batch), "error", err)
		}
		batch = make([]kafka.Event, 0, c.batchSize)
	}

	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				flush(context.Background())
				return
			}
			batch = append(batch, c.record(event))
			if len(batch) >= c.batchSize {
				flush(ctx)
			}
		case <-ticker.C:
			flush(ctx)
		case <-ctx.Done():
			c.drainRemaining(&batch)
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			flush(flushCtx)
			cancel()
			return
		}
	}
}

// record feeds the aggregator and wraps the event for publishing.
func (c *Collector) record(event any) kafka.Event {
	switch e := event.(type) {
	case SearchEvent:
		if c.aggregator != nil {
			c.aggregator.RecordSearch(e)
		}
		return kafka.Event{Key: string(e.Type), Value: e}
	case IndexEvent:
		if c.aggregator != nil {
			c.aggregator.RecordIndex(e)
		}
		return kafka.Event{Key: string(e.Type), Value: e}
	default:
		return kafka.Event{Key: "analytics", Value: e}
	}
}

func (c *Collector) drainRemaining(batch *[]kafka.Event) {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			*batch = append(*batch, c.record(event))
		default:
			return
		}
	}
}

// Track queues event for aggregation and publishing.
func (c *Collector) Track(event any) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		c.logger.Debug("analytics event dropped (collector closed)")
		return
	}
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// Close stops accepting events, flushes what is buffered and waits for the
// loop to exit. Events tracked after Close are dropped. Close is safe to call
// more than once.
func (c *Collector) Close() {
	c.mu.Lock()
	if !c.closed {
		c.closed = true
		close(c.eventCh)
	}
	c.mu.Unlock()
	<-c.done
}
