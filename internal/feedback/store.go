// Package feedback holds the customer-facing side of the system: a CSV store
// of submitted feedback and the LLM helpers that reply to customers and
// summarize feedback for operators.
package feedback

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"
)

// Record is one stored piece of customer feedback.
type Record struct {
	Timestamp  time.Time
	UserName   string
	Rating     int
	ReviewText string
	Response   string
}

var storeHeader = []string{
	"timestamp",
	"user_name",
	"rating",
	"review_text",
	"llm_response",
}

// Store persists feedback records in a single CSV file.
type Store struct {
	path string
}

// NewStore creates a store backed by the given CSV file. The file is created
// lazily on first append.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Append adds a single record to the store, writing the header first when
// the file is new or empty.
func (s *Store) Append(rec Record) error {
	if strings.TrimSpace(rec.ReviewText) == "" {
		return fmt.Errorf("feedback review text must not be empty")
	}
	if rec.Rating < 1 || rec.Rating > 5 {
		return fmt.Errorf("feedback rating %d outside [1,5]", rec.Rating)
	}

	f, err := os.OpenFile(s.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat feedback file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(storeHeader); err != nil {
			return err
		}
	}

	ts := rec.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	row := []string{
		ts.UTC().Format(time.RFC3339),
		rec.UserName,
		strconv.Itoa(rec.Rating),
		rec.ReviewText,
		rec.Response,
	}
	if err := w.Write(row); err != nil {
		return err
	}

	w.Flush()
	return w.Error()
}

// Load returns all stored records. A missing or empty file yields an empty
// slice, not an error.
func (s *Store) Load() ([]Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open feedback file: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read feedback header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}
	for _, required := range storeHeader {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing required feedback column: %s", required)
		}
	}

	var records []Record
	for lineNum := 2; ; lineNum++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read feedback row %d: %w", lineNum, err)
		}

		ts, err := time.Parse(time.RFC3339, row[colIndex["timestamp"]])
		if err != nil {
			return nil, fmt.Errorf("feedback row %d has invalid timestamp: %w", lineNum, err)
		}
		rating, err := strconv.Atoi(strings.TrimSpace(row[colIndex["rating"]]))
		if err != nil {
			return nil, fmt.Errorf("feedback row %d has non-integer rating: %w", lineNum, err)
		}

		records = append(records, Record{
			Timestamp:  ts,
			UserName:   row[colIndex["user_name"]],
			Rating:     rating,
			ReviewText: row[colIndex["review_text"]],
			Response:   row[colIndex["llm_response"]],
		})
	}

	return records, nil
}

// Stats summarizes a set of feedback records.
type Stats struct {
	Count         int
	AverageRating float64
	LatestAt      time.Time
}

// ComputeStats derives basic statistics from records.
func ComputeStats(records []Record) Stats {
	s := Stats{Count: len(records)}
	if len(records) == 0 {
		return s
	}

	sum := 0
	for _, r := range records {
		sum += r.Rating
		if r.Timestamp.After(s.LatestAt) {
			s.LatestAt = r.Timestamp
		}
	}
	s.AverageRating = float64(sum) / float64(len(records))
	return s
}
