package reasoning

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"forgefit/fitness-engine/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

func TestResponseText(t *testing.T) {
	t.Parallel()

	t.Run("concatenates candidate parts", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{
					Parts: []*genai.Part{{Text: `[{"type":"deload",`}, {Text: `"description":"back off","reason":"fatigue"}]`}},
				},
			}},
		}
		text, ok := responseText(resp)
		require.True(t, ok)

		got, err := parseAdaptations(text)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.AdaptDeload, got[0].Type)
	})

	t.Run("nil parts skipped", func(t *testing.T) {
		t.Parallel()
		resp := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{
				Content: &genai.Content{Parts: []*genai.Part{nil, {Text: "[]"}}},
			}},
		}
		text, ok := responseText(resp)
		require.True(t, ok)
		assert.Equal(t, "[]", text)
	})

	t.Run("empty responses", func(t *testing.T) {
		t.Parallel()
		for _, resp := range []*genai.GenerateContentResponse{
			nil,
			{},
			{Candidates: []*genai.Candidate{{}}},
		} {
			_, ok := responseText(resp)
			assert.False(t, ok)
		}
	})
}

func TestParseAdaptations(t *testing.T) {
	t.Parallel()

	t.Run("bare array", func(t *testing.T) {
		t.Parallel()
		got, err := parseAdaptations(`[{"type":"deload","description":"back off","reason":"fatigue"}]`)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, domain.AdaptDeload, got[0].Type)
		assert.True(t, got[0].FromAI, "every parsed candidate is marked AI-sourced")
	})

	t.Run("markdown fences tolerated", func(t *testing.T) {
		t.Parallel()
		text := "```json\n[{\"type\":\"volume_reduction\",\"description\":\"cut sets\",\"reason\":\"low adherence\",\"volumeChangePercent\":-10}]\n```"
		got, err := parseAdaptations(text)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, -10.0, got[0].VolumeChangePercent)
	})

	t.Run("surrounding prose tolerated", func(t *testing.T) {
		t.Parallel()
		text := `Here are my suggestions: [{"type":"progression","description":"add reps","reason":"strong week"}] Hope that helps!`
		got, err := parseAdaptations(text)
		require.NoError(t, err)
		require.Len(t, got, 1)
	})

	t.Run("no array is an error", func(t *testing.T) {
		t.Parallel()
		_, err := parseAdaptations("I cannot help with that.")
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		t.Parallel()
		_, err := parseAdaptations(`[{"type":}]`)
		assert.ErrorIs(t, err, ErrInvalidResponse)
	})

	t.Run("empty array is fine", func(t *testing.T) {
		t.Parallel()
		got, err := parseAdaptations(`[]`)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestNewGeminiStrategyValidation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	logger := slog.Default()

	_, err := NewGeminiStrategy(ctx, nil, GeminiConfig{APIKey: "key", Model: "gemini-2.0-flash"})
	assert.Error(t, err)

	_, err = NewGeminiStrategy(ctx, logger, GeminiConfig{Model: "gemini-2.0-flash"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = NewGeminiStrategy(ctx, logger, GeminiConfig{APIKey: "key"})
	assert.ErrorIs(t, err, ErrInvalidConfig)

	strategy, err := NewGeminiStrategy(ctx, logger, GeminiConfig{
		APIKey: "test-key", Model: "gemini-2.0-flash",
	})
	require.NoError(t, err)
	assert.Equal(t, 15*time.Second, strategy.timeout, "timeout defaults when unset")
}

func TestNoopStrategy(t *testing.T) {
	t.Parallel()

	got, err := NoopStrategy{}.SuggestAdaptations(context.Background(), Input{})
	require.NoError(t, err)
	assert.Nil(t, got)
}
