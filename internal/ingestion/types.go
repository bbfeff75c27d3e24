// Package ingestion defines the request and event schemas through which
// documents enter and leave the index: the HTTP document body and the Kafka
// ingest event.
package ingestion

import "github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"

// Op is the operation an IngestEvent applies.
type Op string

const (
	OpAdd    Op = "add"
	OpRemove Op = "remove"
)

// DocumentRequest is the JSON body accepted by POST /api/v1/documents. ID
// is a pointer so a missing id can be told apart from id 0.
type DocumentRequest struct {
	ID      *int         `json:"id"`
	Text    string       `json:"text"`
	Status  index.Status `json:"status"`
	Ratings []int        `json:"ratings"`
}

// DocumentResponse is returned after a document is indexed.
type DocumentResponse struct {
	DocumentID int    `json:"document_id"`
	Status     string `json:"status"`
}

// IngestEvent is the Kafka message payload that adds or removes a document.
// Status and Ratings apply to adds only; Parallel selects the parallel
// removal path.
type IngestEvent struct {
	Op       Op           `json:"op"`
	ID       int          `json:"id"`
	Text     string       `json:"text,omitempty"`
	Status   index.Status `json:"status,omitempty"`
	Ratings  []int        `json:"ratings,omitempty"`
	Parallel bool         `json:"parallel,omitempty"`
}

// IngestResponse acknowledges an event accepted for asynchronous indexing.
type IngestResponse struct {
	DocumentID int    `json:"document_id"`
	Op         Op     `json:"op"`
	Status     string `json:"status"`
	Persisted  bool   `json:"persisted"`
}
