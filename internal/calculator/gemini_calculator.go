package calculator

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/ospiem/quizbee/config"
	"github.com/ospiem/quizbee/internal/model"
	"github.com/rs/zerolog/log"
	"google.golang.org/api/option"
)

// GeminiCalculator grades test answers exactly like SimpleCalculator but
// scores open answers through Gemini as a semantic similarity between the
// canonical answer and the person's answer.
type GeminiCalculator struct {
	client *genai.GenerativeModel
}

func NewGeminiCalculator(cfg *config.Config) (*GeminiCalculator, error) {
	if cfg.GeminiApiKey == "" {
		log.Warn().Msg("GEMINI_API_KEY is not set. GeminiCalculator will be non-functional.")
		return &GeminiCalculator{client: nil}, nil
	}
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiApiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Gemini client: %w", err)
	}
	return &GeminiCalculator{client: client.GenerativeModel("gemini-1.5-flash")}, nil
}

func (c *GeminiCalculator) ScoreTest(record *model.Record) (float64, error) {
	if record.PersonAnswer != nil && record.Question.Answer == *record.PersonAnswer {
		return 1, nil
	}
	return 0, nil
}

func (c *GeminiCalculator) ScoreOpen(record *model.Record) (float64, error) {
	if c.client == nil {
		return 0, fmt.Errorf("gemini client not initialized")
	}
	if record.PersonAnswer == nil {
		return 0, fmt.Errorf("record %d has no person answer to score", record.ID)
	}

	prompt := fmt.Sprintf(
		"You compare a reference answer with a student answer to the same question.\n"+
			"Question: %s\nReference answer: %s\nStudent answer: %s\n"+
			"Reply with a single decimal number between 0.0 and 1.0 measuring how close "+
			"the student answer is to the reference answer in meaning. No other text.",
		record.Question.Text, record.Question.Answer, *record.PersonAnswer)

	resp, err := c.client.GenerateContent(context.Background(), genai.Text(prompt))
	if err != nil {
		return 0, fmt.Errorf("gemini request failed: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return 0, fmt.Errorf("gemini returned an empty response")
	}

	raw, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return 0, fmt.Errorf("gemini returned a non-text part")
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(string(raw)), 64)
	if err != nil {
		return 0, fmt.Errorf("gemini returned an unparseable score %q: %w", string(raw), err)
	}
	if score < 0 {
		score = 0
	}
	if score > 1 {
		score = 1
	}
	log.Debug().Uint("recordID", record.ID).Float64("score", score).Msg("Gemini scored open answer")
	return score, nil
}
