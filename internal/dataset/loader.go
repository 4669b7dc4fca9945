package dataset

import (
	"embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed all:testdata
var embeddedDatasets embed.FS

// Load loads a dataset by name, searching first in the external directory
// (if provided), then in the embedded datasets. The returned dataset has
// already passed Validate; a malformed dataset fails the load, never a later
// evaluation run.
func Load(name string, externalDir string) (*Dataset, error) {
	// Try external directory first.
	if externalDir != "" {
		p := filepath.Join(externalDir, name)
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			return loadFromFS(os.DirFS(p), name)
		}
	}

	// Fall back to embedded datasets.
	// Use path.Join (not filepath.Join) because embed.FS always uses forward slashes.
	subFS, err := fs.Sub(embeddedDatasets, path.Join("testdata", name))
	if err != nil {
		return nil, fmt.Errorf("dataset %q not found: %w", name, err)
	}
	return loadFromFS(subFS, name)
}

// List returns the names of all available datasets.
func List(externalDir string) ([]string, error) {
	seen := make(map[string]bool)
	var names []string

	entries, err := fs.ReadDir(embeddedDatasets, "testdata")
	if err == nil {
		for _, e := range entries {
			if e.IsDir() {
				seen[e.Name()] = true
				names = append(names, e.Name())
			}
		}
	}

	if externalDir != "" {
		entries, err := os.ReadDir(externalDir)
		if err == nil {
			for _, e := range entries {
				if e.IsDir() && !seen[e.Name()] {
					names = append(names, e.Name())
				}
			}
		}
	}

	return names, nil
}

// Validate checks the dataset contract: every item carries a non-empty ID,
// non-empty review text, and an integer star label in [1,5]. The whole slice
// is rejected on the first violation so a run never starts on a partially
// valid dataset.
func Validate(reviews []Review) error {
	if len(reviews) == 0 {
		return fmt.Errorf("dataset has no reviews")
	}
	seen := make(map[string]bool, len(reviews))
	for i, r := range reviews {
		if strings.TrimSpace(r.ID) == "" {
			return fmt.Errorf("review %d has an empty ID", i+1)
		}
		if seen[r.ID] {
			return fmt.Errorf("duplicate review ID %q", r.ID)
		}
		seen[r.ID] = true
		if strings.TrimSpace(r.Text) == "" {
			return fmt.Errorf("review %q has empty text", r.ID)
		}
		if r.Stars < 1 || r.Stars > 5 {
			return fmt.Errorf("review %q has star label %d outside [1,5]", r.ID, r.Stars)
		}
	}
	return nil
}

func loadFromFS(fsys fs.FS, name string) (*Dataset, error) {
	configData, err := fs.ReadFile(fsys, "config.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read config.yaml for dataset %q: %w", name, err)
	}

	var ds Dataset
	if err := yaml.Unmarshal(configData, &ds); err != nil {
		return nil, fmt.Errorf("failed to parse config.yaml for dataset %q: %w", name, err)
	}

	if ds.ReviewsFile == "" {
		ds.ReviewsFile = "reviews.csv"
	}

	reviews, err := loadReviewsFromFS(fsys, ds.ReviewsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load reviews for dataset %q: %w", name, err)
	}
	if err := Validate(reviews); err != nil {
		return nil, fmt.Errorf("dataset %q is malformed: %w", name, err)
	}
	ds.Reviews = reviews

	return &ds, nil
}

func loadReviewsFromFS(fsys fs.FS, filename string) ([]Review, error) {
	f, err := fsys.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", filename, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1 // Allow variable field counts.

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	colIndex := make(map[string]int)
	for i, col := range header {
		colIndex[strings.TrimSpace(col)] = i
	}

	for _, required := range []string{"ID", "Review", "Stars"} {
		if _, ok := colIndex[required]; !ok {
			return nil, fmt.Errorf("missing required CSV column: %s", required)
		}
	}

	minCols := 0
	for _, idx := range colIndex {
		if idx >= minCols {
			minCols = idx + 1
		}
	}

	var reviews []Review
	for lineNum := 2; ; lineNum++ { // lineNum starts at 2 (1-indexed, after header).
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row %d: %w", lineNum, err)
		}
		if len(record) < minCols {
			return nil, fmt.Errorf("CSV row %d has %d columns, expected at least %d", lineNum, len(record), minCols)
		}

		stars, err := strconv.Atoi(strings.TrimSpace(record[colIndex["Stars"]]))
		if err != nil {
			return nil, fmt.Errorf("CSV row %d has non-integer Stars value %q", lineNum, record[colIndex["Stars"]])
		}

		reviews = append(reviews, Review{
			ID:    record[colIndex["ID"]],
			Text:  record[colIndex["Review"]],
			Stars: stars,
		})
	}

	return reviews, nil
}
