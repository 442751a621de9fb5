// Package gemini implements the generation.Generator interface using
// Google's Gemini API to produce comparison analyses between document
// versions.
package gemini

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strings"
	"text/template"
	"time"

	"google.golang.org/genai"

	"github.com/mverity/docvault-api/internal/config"
	"github.com/mverity/docvault-api/internal/domain"
	"github.com/mverity/docvault-api/internal/generation"
)

//go:embed comparison_prompt.tmpl
var defaultPromptTemplate string

// ComparisonGenerator implements the generation.Generator interface using
// Google's Gemini API.
type ComparisonGenerator struct {
	logger         *slog.Logger
	config         config.LLMConfig
	promptTemplate *template.Template
	client         *genai.Client
	model          string

	// callModel makes a single model invocation and returns the raw
	// response text. Tests replace it to avoid network access.
	callModel func(ctx context.Context, prompt string) (string, error)
}

// NewComparisonGenerator creates a ComparisonGenerator with the provided
// dependencies. The prompt template is embedded by default and can be
// overridden through config.PromptTemplatePath.
func NewComparisonGenerator(
	ctx context.Context,
	logger *slog.Logger,
	cfg config.LLMConfig,
) (*ComparisonGenerator, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	templateContent := defaultPromptTemplate
	if cfg.PromptTemplatePath != "" {
		raw, err := os.ReadFile(cfg.PromptTemplatePath)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read prompt template from %s: %v",
				generation.ErrInvalidConfig, cfg.PromptTemplatePath, err)
		}
		templateContent = string(raw)
	}

	promptTemplate, err := template.New("comparison").Parse(templateContent)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse prompt template: %v",
			generation.ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	g := &ComparisonGenerator{
		logger:         logger.With(slog.String("component", "comparison_generator")),
		config:         cfg,
		promptTemplate: promptTemplate,
		client:         client,
		model:          cfg.ModelName,
	}
	g.callModel = g.callGemini

	return g, nil
}

// Ensure ComparisonGenerator implements generation.Generator.
var _ generation.Generator = (*ComparisonGenerator)(nil)

// GenerateComparison implements generation.Generator.
func (g *ComparisonGenerator) GenerateComparison(
	ctx context.Context,
	input generation.ComparisonInput,
) (*domain.ComparisonResult, error) {
	prompt, err := g.createPrompt(input)
	if err != nil {
		return nil, err
	}

	schema, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		return nil, err
	}

	result := &domain.ComparisonResult{
		DocumentID:     input.DocumentID,
		BaseVersion:    input.BaseVersion,
		RevisedVersion: input.RevisedVersion,
		Summary:        schema.Summary,
		Changes:        make([]domain.DocumentChange, 0, len(schema.Changes)),
	}
	for _, c := range schema.Changes {
		result.Changes = append(result.Changes, domain.DocumentChange{
			Section: c.Section,
			Type:    normalizeChangeType(c.Type),
			Detail:  c.Detail,
		})
	}

	return result, nil
}

// createPrompt renders the prompt template with the comparison input.
func (g *ComparisonGenerator) createPrompt(input generation.ComparisonInput) (string, error) {
	if input.BaseText == "" || input.RevisedText == "" {
		return "", fmt.Errorf("%w: comparison input texts cannot be empty", generation.ErrInvalidConfig)
	}

	var buf bytes.Buffer
	if err := g.promptTemplate.Execute(&buf, input); err != nil {
		return "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return buf.String(), nil
}

// callWithRetry invokes the model with exponential backoff and jitter.
// Transient errors (network, quota) are retried up to config.MaxRetries
// times; permanent errors (safety block, malformed response) are returned
// immediately.
func (g *ComparisonGenerator) callWithRetry(ctx context.Context, prompt string) (*responseSchema, error) {
	maxRetries := g.config.MaxRetries
	if maxRetries < 0 {
		maxRetries = 3
	}
	baseDelaySeconds := g.config.RetryDelaySeconds
	if baseDelaySeconds < 1 {
		baseDelaySeconds = 2
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		text, err := g.callModel(ctx, prompt)
		if err == nil {
			schema, parseErr := parseResponse(text)
			if parseErr == nil {
				return schema, nil
			}
			// A malformed response is permanent; the model is unlikely
			// to produce valid JSON on an identical retry.
			return nil, parseErr
		}

		if errors.Is(err, generation.ErrContentBlocked) ||
			errors.Is(err, generation.ErrInvalidResponse) ||
			errors.Is(err, context.Canceled) ||
			errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}

		lastErr = err
		g.logger.WarnContext(ctx, "Gemini call failed, will retry",
			slog.Int("attempt", attempt+1),
			slog.Int("max_attempts", maxRetries+1),
			slog.String("error", err.Error()))

		if attempt == maxRetries {
			break
		}

		delay := time.Duration(float64(baseDelaySeconds)*math.Pow(2, float64(attempt))) * time.Second
		jitter := time.Duration(rng.Int63n(int64(time.Second)))
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay + jitter):
		}
	}

	return nil, fmt.Errorf("%w: %v", generation.ErrTransientFailure, lastErr)
}

// callGemini performs one real Gemini API invocation and extracts the
// response text.
func (g *ComparisonGenerator) callGemini(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", err
	}
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no content generated", generation.ErrInvalidResponse)
	}

	candidate := resp.Candidates[0]
	if candidate.FinishReason == genai.FinishReasonSafety {
		return "", fmt.Errorf("%w: finish reason safety", generation.ErrContentBlocked)
	}
	if candidate.Content == nil {
		return "", fmt.Errorf("%w: empty content in response", generation.ErrInvalidResponse)
	}

	var text strings.Builder
	for _, part := range candidate.Content.Parts {
		text.WriteString(part.Text)
	}

	return text.String(), nil
}

// parseResponse decodes the model output, tolerating markdown code fences
// around the JSON body.
func parseResponse(text string) (*responseSchema, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var schema responseSchema
	if err := json.Unmarshal([]byte(trimmed), &schema); err != nil {
		return nil, fmt.Errorf("%w: failed to parse JSON response: %v",
			generation.ErrInvalidResponse, err)
	}
	if schema.Summary == "" {
		return nil, fmt.Errorf("%w: missing summary", generation.ErrInvalidResponse)
	}

	return &schema, nil
}

// normalizeChangeType maps the model's free-form change type onto the
// domain enum, defaulting to modified.
func normalizeChangeType(s string) domain.ChangeType {
	switch domain.ChangeType(strings.ToLower(strings.TrimSpace(s))) {
	case domain.ChangeTypeAdded:
		return domain.ChangeTypeAdded
	case domain.ChangeTypeRemoved:
		return domain.ChangeTypeRemoved
	default:
		return domain.ChangeTypeModified
	}
}
