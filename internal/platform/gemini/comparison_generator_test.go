package gemini

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"text/template"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mverity/docvault-api/internal/config"
	"github.com/mverity/docvault-api/internal/generation"
)

// newTestGenerator builds a generator with the embedded template and a
// stubbed model call, bypassing the real Gemini client.
func newTestGenerator(t *testing.T, callModel func(ctx context.Context, prompt string) (string, error)) *ComparisonGenerator {
	t.Helper()

	tmpl, err := template.New("comparison").Parse(defaultPromptTemplate)
	require.NoError(t, err)

	g := &ComparisonGenerator{
		logger:         slog.New(slog.NewTextHandler(os.Stderr, nil)),
		config:         config.LLMConfig{MaxRetries: 0, RetryDelaySeconds: 1},
		promptTemplate: tmpl,
		model:          "test-model",
	}
	g.callModel = callModel
	return g
}

func testInput() generation.ComparisonInput {
	return generation.ComparisonInput{
		DocumentID:     uuid.New(),
		Title:          "Runbook",
		BaseVersion:    1,
		RevisedVersion: 2,
		BaseText:       "step one\nstep two",
		RevisedText:    "step one\nstep two\nstep three",
	}
}

func TestGenerateComparison(t *testing.T) {
	var seenPrompt string
	g := newTestGenerator(t, func(ctx context.Context, prompt string) (string, error) {
		seenPrompt = prompt
		return `{"summary":"a step was appended","changes":[{"section":"steps","type":"added","detail":"step three"}]}`, nil
	})

	input := testInput()
	result, err := g.GenerateComparison(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, input.DocumentID, result.DocumentID)
	assert.Equal(t, 1, result.BaseVersion)
	assert.Equal(t, 2, result.RevisedVersion)
	assert.Equal(t, "a step was appended", result.Summary)
	require.Len(t, result.Changes, 1)
	assert.Equal(t, "added", string(result.Changes[0].Type))

	// The prompt carries both version bodies.
	assert.Contains(t, seenPrompt, "step three")
	assert.Contains(t, seenPrompt, "Runbook")
}

func TestGenerateComparisonFencedResponse(t *testing.T) {
	g := newTestGenerator(t, func(ctx context.Context, prompt string) (string, error) {
		return "```json\n{\"summary\":\"ok\",\"changes\":[]}\n```", nil
	})

	result, err := g.GenerateComparison(context.Background(), testInput())
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Summary)
	assert.Empty(t, result.Changes)
}

func TestGenerateComparisonMalformedResponse(t *testing.T) {
	g := newTestGenerator(t, func(ctx context.Context, prompt string) (string, error) {
		return "this is not json", nil
	})

	_, err := g.GenerateComparison(context.Background(), testInput())
	assert.ErrorIs(t, err, generation.ErrInvalidResponse)
}

func TestGenerateComparisonBlockedIsPermanent(t *testing.T) {
	calls := 0
	g := newTestGenerator(t, func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", generation.ErrContentBlocked
	})
	g.config.MaxRetries = 3

	_, err := g.GenerateComparison(context.Background(), testInput())
	assert.ErrorIs(t, err, generation.ErrContentBlocked)
	assert.Equal(t, 1, calls, "permanent errors must not be retried")
}

func TestGenerateComparisonTransientExhaustsRetries(t *testing.T) {
	calls := 0
	g := newTestGenerator(t, func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", errors.New("rpc error: unavailable")
	})

	_, err := g.GenerateComparison(context.Background(), testInput())
	assert.ErrorIs(t, err, generation.ErrTransientFailure)
	assert.Equal(t, 1, calls)
}

func TestGenerateComparisonEmptyInput(t *testing.T) {
	g := newTestGenerator(t, func(ctx context.Context, prompt string) (string, error) {
		t.Fatal("model must not be called for invalid input")
		return "", nil
	})

	input := testInput()
	input.BaseText = ""
	_, err := g.GenerateComparison(context.Background(), input)
	assert.Error(t, err)
}

func TestNormalizeChangeType(t *testing.T) {
	assert.Equal(t, "added", string(normalizeChangeType("Added")))
	assert.Equal(t, "removed", string(normalizeChangeType(" removed ")))
	assert.Equal(t, "modified", string(normalizeChangeType("rewritten")))
	assert.Equal(t, "modified", string(normalizeChangeType("")))
}
