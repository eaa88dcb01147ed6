package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"text/template"
	"time"

	"forgefit/fitness-engine/internal/domain"

	"google.golang.org/genai"
)

// --- Error Definitions ---
var (
	ErrInvalidConfig   = errors.New("invalid reasoning configuration")
	ErrInvalidResponse = errors.New("invalid reasoning response")
)

// GeminiConfig configures the Gemini-backed strategy.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// adaptationPrompt asks for strictly-JSON adaptation candidates. The
// engine re-validates everything, so the model is only trusted to
// brainstorm, never to decide.
const adaptationPrompt = `You are a strength and conditioning coach reviewing one week of a training program.

Plan: {{.PlanSummary.Type}}, week {{.PlanSummary.WeekNumber}} of {{.PlanSummary.DurationWeeks}}, {{.PlanSummary.WorkoutsPerWeek}} workouts/week, experience level {{.PlanSummary.ExperienceLevel}}.
Adherence: {{printf "%.0f" .Adherence.AdherenceScore}}% of {{.Adherence.ScheduledWorkouts}} scheduled workouts completed, average intensity {{printf "%.1f" .Adherence.AvgIntensity}}/10, consistency {{printf "%.0f" .Deficiencies.VolumeDeficiency}}% volume deficiency, {{printf "%.0f" .Deficiencies.IntensityDeficiency}}% intensity deficiency.
{{if .Preferences.Goal}}Goal: {{.Preferences.Goal}}.{{end}}

Propose up to 3 adjustments for next week. Respond with ONLY a JSON array, no prose:
[{"type":"volume_reduction|volume_increase|intensity_change|rest_adjustment|exercise_swap|deload|progression","description":"...","reason":"...","impact":"...","volumeChangePercent":0,"intensityChangePercent":0}]`

// GeminiStrategy implements Strategy using Google's Gemini API.
type GeminiStrategy struct {
	logger  *slog.Logger
	client  *genai.Client
	model   string
	timeout time.Duration
	tmpl    *template.Template
}

// NewGeminiStrategy creates a Gemini-backed reasoning strategy.
func NewGeminiStrategy(ctx context.Context, logger *slog.Logger, cfg GeminiConfig) (*GeminiStrategy, error) {
	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: API key cannot be empty", ErrInvalidConfig)
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", ErrInvalidConfig)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	tmpl, err := template.New("adaptation").Parse(adaptationPrompt)
	if err != nil {
		return nil, fmt.Errorf("%w: parsing prompt template: %v", ErrInvalidConfig, err)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: creating Gemini client: %v", ErrInvalidConfig, err)
	}

	return &GeminiStrategy{
		logger:  logger,
		client:  client,
		model:   cfg.Model,
		timeout: cfg.Timeout,
		tmpl:    tmpl,
	}, nil
}

// SuggestAdaptations asks Gemini for candidate adaptations. Errors are
// returned to the caller, which treats any failure as an empty addition;
// this path never blocks the weekly run.
func (g *GeminiStrategy) SuggestAdaptations(ctx context.Context, input Input) ([]domain.Adaptation, error) {
	var promptBuf bytes.Buffer
	if err := g.tmpl.Execute(&promptBuf, input); err != nil {
		return nil, fmt.Errorf("executing prompt template: %w", err)
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Models.GenerateContent(callCtx, g.model, genai.Text(promptBuf.String()), nil)
	if err != nil {
		return nil, fmt.Errorf("gemini call: %w", err)
	}
	text, ok := responseText(resp)
	if !ok {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	candidates, err := parseAdaptations(text)
	if err != nil {
		return nil, err
	}

	g.logger.DebugContext(ctx, "gemini proposed adaptations", "count", len(candidates))
	return candidates, nil
}

// responseText concatenates the text parts of the first candidate. A
// response with no candidates or no content yields ok=false.
func responseText(resp *genai.GenerateContentResponse) (string, bool) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", false
	}
	text := ""
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			text += part.Text
		}
	}
	return text, true
}

// parseAdaptations decodes the model's JSON array, tolerating markdown
// code fences, and marks every candidate as AI-sourced.
func parseAdaptations(text string) ([]domain.Adaptation, error) {
	start := bytes.IndexByte([]byte(text), '[')
	end := bytes.LastIndexByte([]byte(text), ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON array found", ErrInvalidResponse)
	}

	var out []domain.Adaptation
	if err := json.Unmarshal([]byte(text[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	for i := range out {
		out[i].FromAI = true
	}
	return out, nil
}
