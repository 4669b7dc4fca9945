package eval

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Outcome and summary records are persisted as CSV so they can be diffed and
// loaded into a spreadsheet; the run manifest is JSON for tooling.

var outcomeHeader = []string{
	"item_id",
	"true_stars",
	"predicted_stars",
	"explanation",
	"raw_reply",
	"api_failed",
	"extraction_failed",
}

var summaryHeader = []string{
	"variant",
	"total_items",
	"valid_extractions",
	"accuracy",
	"extraction_validity_rate",
}

func writeOutcomesFile(path string, outcomes []Outcome) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create outcomes file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(outcomeHeader); err != nil {
		return err
	}

	for _, o := range outcomes {
		predicted := ""
		explanation := ""
		if o.Prediction != nil {
			predicted = strconv.Itoa(o.Prediction.PredictedStars)
			explanation = o.Prediction.Explanation
		}
		row := []string{
			o.ItemID,
			strconv.Itoa(o.TrueStars),
			predicted,
			explanation,
			o.RawReply,
			strconv.FormatBool(o.APIFailed),
			strconv.FormatBool(o.ExtractionFailed),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func writeSummaryFile(path string, summaries []Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create summary file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(summaryHeader); err != nil {
		return err
	}

	for _, s := range summaries {
		row := []string{
			string(s.Variant),
			strconv.Itoa(s.TotalItems),
			strconv.Itoa(s.ValidExtractions),
			FormatAccuracy(s.Accuracy),
			strconv.FormatFloat(s.ValidityRate, 'f', 4, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

// FormatAccuracy renders an accuracy value for human-facing output. A nil
// accuracy means no reply was extractable and is reported as "n/a", never as
// zero.
func FormatAccuracy(a *float64) string {
	if a == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*a, 'f', 4, 64)
}

// writeRunArtifacts persists the per-run summary CSV and the JSON manifest.
func writeRunArtifacts(outputPath string, run *Run) error {
	summaries := make([]Summary, 0, len(run.Variants))
	for _, v := range run.Variants {
		summaries = append(summaries, v.Summary)
	}
	if err := writeSummaryFile(filepath.Join(outputPath, "summary.csv"), summaries); err != nil {
		return fmt.Errorf("failed to write run summary: %w", err)
	}
	if err := writeRunMetadata(outputPath, run); err != nil {
		return fmt.Errorf("failed to write run metadata: %w", err)
	}
	return nil
}

func writeRunMetadata(outputPath string, run *Run) error {
	variants := make([]map[string]interface{}, 0, len(run.Variants))
	for _, v := range run.Variants {
		variants = append(variants, map[string]interface{}{
			"variant":       v.Variant,
			"duration":      v.Duration.Seconds(),
			"outcomes_file": v.OutcomesFile,
			"summary":       v.Summary,
		})
	}

	metadata := map[string]interface{}{
		"id":            run.ID,
		"dataset":       run.Dataset,
		"model":         run.Model,
		"timestamp":     run.Timestamp,
		"full_duration": run.Duration.Seconds(),
		"variants":      variants,
	}

	data, err := json.MarshalIndent(metadata, "", "    ")
	if err != nil {
		return err
	}

	return os.WriteFile(filepath.Join(outputPath, "resultset.json"), data, 0o644)
}
