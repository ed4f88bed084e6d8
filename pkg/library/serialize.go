package library

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/coolbeans/brenda/pkg/brenda"
)

// JSONLines writes each record as one line of JSON.
type JSONLines struct {
	encoder *json.Encoder
}

// NewJSONLines creates a JSON Lines sink writing to w.
func NewJSONLines(w io.Writer) *JSONLines {
	encoder := json.NewEncoder(w)
	encoder.SetEscapeHTML(false)
	return &JSONLines{encoder: encoder}
}

// Store writes one JSON object per record, in input order.
func (s *JSONLines) Store(ctx context.Context, records []*brenda.Record) (*StoreResult, error) {
	result := &StoreResult{RunID: uuid.NewString()}
	for _, record := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := s.encoder.Encode(record); err != nil {
			return nil, fmt.Errorf("failed to write record %s: %w", record.Code, err)
		}
		result.Added++
	}
	return result, nil
}

// ReadJSONLines reads records written by JSONLines.
func ReadJSONLines(r io.Reader) ([]*brenda.Record, error) {
	var records []*brenda.Record
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 64<<20)

	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var record brenda.Record
		if err := json.Unmarshal(scanner.Bytes(), &record); err != nil {
			return nil, fmt.Errorf("line %d: failed to unmarshal record: %w", lineNumber, err)
		}
		records = append(records, &record)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read records: %w", err)
	}
	return records, nil
}
