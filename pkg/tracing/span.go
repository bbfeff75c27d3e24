// Package tracing records in-process span trees carried through
// context.Context. A request's tree is logged through slog when its root
// span ends; there is no exporter.
package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
)

type spanKey struct{}

type Span struct {
	Name    string
	TraceID string
	Start   time.Time

	mu       sync.Mutex
	duration time.Duration
	attrs    []slog.Attr
	children []*Span
}

// Start opens a span under the one in ctx, or a new root span whose trace
// id is the request id when one is set.
func Start(ctx context.Context, name string) (context.Context, *Span) {
	span := &Span{Name: name, Start: time.Now()}
	if parent := FromContext(ctx); parent != nil {
		span.TraceID = parent.TraceID
		parent.mu.Lock()
		parent.children = append(parent.children, span)
		parent.mu.Unlock()
	} else if id := logger.RequestID(ctx); id != "" {
		span.TraceID = id
	} else {
		span.TraceID = newTraceID()
	}
	return context.WithValue(ctx, spanKey{}, span), span
}

// FromContext returns the current span, or nil.
func FromContext(ctx context.Context) *Span {
	span, _ := ctx.Value(spanKey{}).(*Span)
	return span
}

// SetAttr attaches an attribute logged with the span. Nil spans are
// ignored so callers need not check for tracing.
func (s *Span) SetAttr(key string, value any) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.attrs = append(s.attrs, slog.Any(key, value))
	s.mu.Unlock()
}

func (s *Span) End() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.duration = time.Since(s.Start)
	s.mu.Unlock()
}

func (s *Span) Duration() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.duration
}

// Children returns a snapshot of the direct child spans.
func (s *Span) Children() []*Span {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Span, len(s.children))
	copy(out, s.children)
	return out
}

// Log writes one record per span in depth-first order.
func (s *Span) Log(ctx context.Context, log *slog.Logger, level slog.Level) {
	s.log(ctx, log, level, 0)
}

func (s *Span) log(ctx context.Context, log *slog.Logger, level slog.Level, depth int) {
	s.mu.Lock()
	attrs := append([]slog.Attr{
		slog.String("trace_id", s.TraceID),
		slog.String("span", s.Name),
		slog.Int("depth", depth),
		slog.Float64("duration_ms", float64(s.duration.Microseconds())/1000),
	}, s.attrs...)
	children := s.children
	s.mu.Unlock()

	log.LogAttrs(ctx, level, "span", attrs...)
	for _, child := range children {
		child.log(ctx, log, level, depth+1)
	}
}

func newTraceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b[:])
}
