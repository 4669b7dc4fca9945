package eval

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedbackhq/rating-eval/internal/dataset"
	"github.com/feedbackhq/rating-eval/internal/extract"
	"github.com/feedbackhq/rating-eval/internal/llm"
	"github.com/feedbackhq/rating-eval/internal/prompt"
)

// mockClient is a test double for llm.Client that routes on the review text
// embedded in the user prompt.
type mockClient struct {
	respond func(req llm.ChatRequest) (*llm.ChatResponse, error)
	calls   int
}

func (m *mockClient) ChatCompletion(_ context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.calls++
	if m.respond != nil {
		return m.respond(req)
	}
	return &llm.ChatResponse{Content: `{"predicted_stars": 3, "explanation": "default"}`}, nil
}

func (m *mockClient) ChatCompletionStream(_ context.Context, _ llm.ChatRequest) (*llm.StreamReader, error) {
	return nil, assert.AnError
}

func replyFor(stars int) string {
	return fmt.Sprintf(`{"predicted_stars": %d, "explanation": "mock"}`, stars)
}

func testItems() []dataset.Review {
	return []dataset.Review{
		{ID: "1", Text: "wonderful evening, superb food", Stars: 5},
		{ID: "2", Text: "cold soup and rude staff", Stars: 1},
		{ID: "3", Text: "fine but forgettable", Stars: 3},
	}
}

func newTestRunner(client llm.Client, outputDir string) *Runner {
	return NewRunner(client, "test-model", &extract.Extractor{}, outputDir)
}

func TestEvaluateProducesOrderedOutcomes(t *testing.T) {
	client := &mockClient{
		respond: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			switch {
			case strings.Contains(req.UserMessage, "wonderful"):
				return &llm.ChatResponse{Content: replyFor(5)}, nil
			case strings.Contains(req.UserMessage, "cold soup"):
				return &llm.ChatResponse{Content: replyFor(1)}, nil
			default:
				return &llm.ChatResponse{Content: replyFor(3)}, nil
			}
		},
	}
	r := newTestRunner(client, t.TempDir())

	outcomes, err := r.Evaluate(context.Background(), testItems(), prompt.Simple)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	// Outcomes follow item order.
	assert.Equal(t, "1", outcomes[0].ItemID)
	assert.Equal(t, "2", outcomes[1].ItemID)
	assert.Equal(t, "3", outcomes[2].ItemID)

	for _, o := range outcomes {
		assert.Equal(t, prompt.Simple, o.Variant)
		assert.False(t, o.APIFailed)
		assert.False(t, o.ExtractionFailed)
		require.NotNil(t, o.Prediction)
	}
	assert.Equal(t, 5, outcomes[0].Prediction.PredictedStars)
	assert.Equal(t, 3, client.calls)
}

func TestEvaluateIsolatesTransportFailure(t *testing.T) {
	// Item 2's call fails at the transport level; items 1 and 3 must be
	// unaffected and fully populated.
	client := &mockClient{
		respond: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			if strings.Contains(req.UserMessage, "cold soup") {
				return nil, fmt.Errorf("connection reset by peer")
			}
			return &llm.ChatResponse{Content: replyFor(4)}, nil
		},
	}
	r := newTestRunner(client, t.TempDir())

	outcomes, err := r.Evaluate(context.Background(), testItems(), prompt.Simple)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[1].APIFailed)
	assert.Nil(t, outcomes[1].Prediction)
	assert.Empty(t, outcomes[1].RawReply)

	assert.False(t, outcomes[0].APIFailed)
	assert.False(t, outcomes[2].APIFailed)
	require.NotNil(t, outcomes[0].Prediction)
	require.NotNil(t, outcomes[2].Prediction)
	assert.Equal(t, 3, client.calls)
}

func TestEvaluateIsolatesExtractionFailure(t *testing.T) {
	client := &mockClient{
		respond: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			if strings.Contains(req.UserMessage, "cold soup") {
				return &llm.ChatResponse{Content: "I'd say about four stars."}, nil
			}
			return &llm.ChatResponse{Content: replyFor(2)}, nil
		},
	}
	r := newTestRunner(client, t.TempDir())

	outcomes, err := r.Evaluate(context.Background(), testItems(), prompt.FewShot)
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[1].ExtractionFailed)
	assert.False(t, outcomes[1].APIFailed)
	assert.Equal(t, "I'd say about four stars.", outcomes[1].RawReply)

	// The invariant: prediction is absent exactly when extraction failed.
	for _, o := range outcomes {
		assert.Equal(t, o.ExtractionFailed, o.Prediction == nil)
	}
}

func TestEvaluateRejectsMalformedDataset(t *testing.T) {
	client := &mockClient{}
	r := newTestRunner(client, t.TempDir())

	items := []dataset.Review{{ID: "1", Text: "ok", Stars: 7}}
	_, err := r.Evaluate(context.Background(), items, prompt.Simple)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset contract violation")
	// Fail fast: no inference call may have been issued.
	assert.Equal(t, 0, client.calls)
}

func TestEvaluateCancellationAtItemBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	client := &mockClient{
		respond: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			// Cancel while the first item is in flight; the second item must
			// not start.
			cancel()
			return &llm.ChatResponse{Content: replyFor(3)}, nil
		},
	}
	r := newTestRunner(client, t.TempDir())

	outcomes, err := r.Evaluate(ctx, testItems(), prompt.Simple)
	require.Error(t, err)
	assert.Len(t, outcomes, 1)
	assert.Equal(t, 1, client.calls)
	// The in-flight item ran to completion before the boundary check.
	assert.False(t, outcomes[0].APIFailed)
}

func TestRunCancelledBeforeStartReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := &mockClient{}
	r := newTestRunner(client, tmpDir)
	ds := &dataset.Dataset{Name: "tiny set", Reviews: testItems()}

	run, err := r.Run(ctx, ds, prompt.All())
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, run)
	assert.Empty(t, run.Variants)
	assert.Equal(t, 0, client.calls)

	// Artifacts for the interrupted run are still on disk.
	assert.FileExists(t, filepath.Join(tmpDir, run.ID, "resultset.json"))
}

func TestRunCancelledBetweenVariantsReturnsPartial(t *testing.T) {
	tmpDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())

	items := testItems()
	client := &mockClient{}
	client.respond = func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		// Cancel while the last item of the first variant is in flight; the
		// second variant must not start.
		if client.calls == len(items) {
			cancel()
		}
		return &llm.ChatResponse{Content: replyFor(3)}, nil
	}
	r := newTestRunner(client, tmpDir)
	ds := &dataset.Dataset{Name: "tiny set", Reviews: items}

	run, err := r.Run(ctx, ds, []prompt.Variant{prompt.Simple, prompt.FewShot})
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, run)
	require.Len(t, run.Variants, 1)
	assert.Equal(t, prompt.Simple, run.Variants[0].Variant)
	assert.Equal(t, len(items), client.calls)
}

func TestRunEndToEnd(t *testing.T) {
	tmpDir := t.TempDir()

	// True labels [5, 1]; the model predicts 5 and 2. One of two valid
	// extractions is correct.
	client := &mockClient{
		respond: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			if strings.Contains(req.UserMessage, "loved every minute") {
				return &llm.ChatResponse{Content: replyFor(5)}, nil
			}
			return &llm.ChatResponse{Content: replyFor(2)}, nil
		},
	}
	r := newTestRunner(client, tmpDir)

	ds := &dataset.Dataset{
		Name: "tiny set",
		Reviews: []dataset.Review{
			{ID: "a", Text: "loved every minute of it", Stars: 5},
			{ID: "b", Text: "awful, send help", Stars: 1},
		},
	}

	run, err := r.Run(context.Background(), ds, []prompt.Variant{prompt.Simple})
	require.NoError(t, err)
	require.Len(t, run.Variants, 1)

	s := run.Variants[0].Summary
	assert.Equal(t, 2, s.TotalItems)
	assert.Equal(t, 2, s.ValidExtractions)
	require.NotNil(t, s.Accuracy)
	assert.InDelta(t, 0.5, *s.Accuracy, 0.0001)
	assert.InDelta(t, 1.0, s.ValidityRate, 0.0001)

	// Artifacts on disk.
	assert.FileExists(t, run.Variants[0].OutcomesFile)
	assert.FileExists(t, filepath.Join(tmpDir, run.ID, "summary.csv"))
	assert.FileExists(t, filepath.Join(tmpDir, run.ID, "resultset.json"))
}

func TestRunMultipleVariants(t *testing.T) {
	tmpDir := t.TempDir()
	client := &mockClient{}
	r := newTestRunner(client, tmpDir)

	ds := &dataset.Dataset{
		Name:    "multi",
		Reviews: testItems(),
	}

	run, err := r.Run(context.Background(), ds, prompt.All())
	require.NoError(t, err)
	assert.Len(t, run.Variants, 3)
	assert.Equal(t, 9, client.calls) // 3 items x 3 variants

	for _, v := range run.Variants {
		assert.Len(t, v.Outcomes, 3)
		assert.FileExists(t, v.OutcomesFile)
	}
}

func TestRunProgressCallback(t *testing.T) {
	client := &mockClient{}
	r := newTestRunner(client, t.TempDir())

	var seen []string
	r.SetProgressFunc(func(v prompt.Variant, idx, total int) {
		seen = append(seen, fmt.Sprintf("%s:%d/%d", v, idx, total))
	})

	ds := &dataset.Dataset{Name: "progress", Reviews: testItems()}
	_, err := r.Run(context.Background(), ds, []prompt.Variant{prompt.Simple})
	require.NoError(t, err)
	assert.Equal(t, []string{"simple:1/3", "simple:2/3", "simple:3/3"}, seen)
}

func TestRunNoVariants(t *testing.T) {
	r := newTestRunner(&mockClient{}, t.TempDir())
	ds := &dataset.Dataset{Name: "x", Reviews: testItems()}

	_, err := r.Run(context.Background(), ds, nil)
	assert.Error(t, err)
}

func TestRunOutcomesFileContents(t *testing.T) {
	tmpDir := t.TempDir()
	client := &mockClient{
		respond: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
			if strings.Contains(req.UserMessage, "cold soup") {
				return nil, fmt.Errorf("boom")
			}
			return &llm.ChatResponse{Content: replyFor(5)}, nil
		},
	}
	r := newTestRunner(client, tmpDir)

	ds := &dataset.Dataset{Name: "csv check", Reviews: testItems()}
	run, err := r.Run(context.Background(), ds, []prompt.Variant{prompt.Simple})
	require.NoError(t, err)

	f, err := os.Open(run.Variants[0].OutcomesFile)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 4) // header + 3 items

	assert.Equal(t, outcomeHeader, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "5", rows[1][2]) // predicted stars
	assert.Equal(t, "true", rows[2][5])
	assert.Equal(t, "", rows[2][2]) // no prediction for the failed item
}
