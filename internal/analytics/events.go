package analytics

import "time"

type EventType string

const (
	EventSearch         EventType = "search"
	EventAddDocument    EventType = "add_document"
	EventRemoveDocument EventType = "remove_document"
)

type SearchEvent struct {
	Type      EventType `json:"type"`
	Query     string    `json:"query"`
	Required  []string  `json:"required"`
	Forbidden []string  `json:"forbidden"`
	Status    string    `json:"status"`
	Parallel  bool      `json:"parallel"`
	Returned  int       `json:"returned"`
	LatencyMs int64     `json:"latency_ms"`
	CacheHit  bool      `json:"cache_hit"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// IndexEvent records a document added to or removed from the index. Source
// names the path the change came through: http, kafka, postgres or dedup.
type IndexEvent struct {
	Type       EventType `json:"type"`
	DocumentID int       `json:"document_id"`
	Status     string    `json:"status,omitempty"`
	WordCount  int       `json:"word_count"`
	Source     string    `json:"source"`
	LatencyMs  int64     `json:"latency_ms"`
	Timestamp  time.Time `json:"timestamp"`
}
