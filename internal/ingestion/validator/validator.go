// Package validator checks ingestion requests and events before they reach
// the index and reports per-field error details.
package validator

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/ingestion"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

const (
	maxTextLength = 1048576
	maxRatings    = 10000
)

// ValidationError holds per-field validation failure messages. It matches
// apperrors.ErrInvalidInput under errors.Is.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == apperrors.ErrInvalidInput
}

// ValidateDocumentRequest checks the fields of an add request. Character
// level checks on the text are left to the index.
func ValidateDocumentRequest(req *ingestion.DocumentRequest) error {
	errs := make(map[string]string)
	if req.ID == nil {
		errs["id"] = "id is required"
	} else if *req.ID < 0 {
		errs["id"] = "id must not be negative"
	}
	validateText(req.Text, errs)
	if len(req.Ratings) > maxRatings {
		errs["ratings"] = fmt.Sprintf("at most %d ratings are accepted", maxRatings)
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// ValidateIngestEvent checks a Kafka ingest event.
func ValidateIngestEvent(event *ingestion.IngestEvent) error {
	errs := make(map[string]string)
	switch event.Op {
	case ingestion.OpAdd:
		validateText(event.Text, errs)
		if len(event.Ratings) > maxRatings {
			errs["ratings"] = fmt.Sprintf("at most %d ratings are accepted", maxRatings)
		}
	case ingestion.OpRemove:
	default:
		errs["op"] = fmt.Sprintf("unknown operation %q", event.Op)
	}
	if event.ID < 0 {
		errs["id"] = "id must not be negative"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}

func validateText(text string, errs map[string]string) {
	if len(text) > maxTextLength {
		errs["text"] = fmt.Sprintf("text must be at most %d bytes", maxTextLength)
	}
}
