package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"quiz-night/internal/config"
)

const (
	openAIChatURL      = "https://api.openai.com/v1/chat/completions"
	placeholderCount   = "{{count}}"
	placeholderPlayer  = "{{player}}"
	placeholderAnswers = "{{answers}}"
)

const icebreakerSystemPrompt = "You write short, open-ended icebreaker questions about lifestyle and " +
	"entertainment for a party game. Reply with a numbered list only, one question per line."

const triviaSystemPrompt = "You write multiple-choice trivia questions about a specific player, based on " +
	"answers they gave earlier. The correct answer must be knowable by that player; the wrong options must be " +
	"plausible. Reply with a JSON array only, each element an object with keys \"question\", \"correct\", and " +
	"\"wrong\" (an array of exactly 3 strings)."

type openAIGenerator struct {
	cfg    config.Config
	client *http.Client
}

func newOpenAIGenerator(cfg config.Config) *openAIGenerator {
	return &openAIGenerator{
		cfg:    cfg,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

type openAIChatRequest struct {
	Model       string              `json:"model"`
	Messages    []openAIChatMessage `json:"messages"`
	Temperature float64             `json:"temperature,omitempty"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
}

type openAIChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (g *openAIGenerator) IcebreakerQuestions(ctx context.Context, count int) ([]string, error) {
	template, err := readPromptFile(g.cfg.IcebreakerPromptPath)
	if err != nil {
		return nil, err
	}
	userPrompt := strings.ReplaceAll(template, placeholderCount, strconv.Itoa(count))
	content, err := g.complete(ctx, icebreakerSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	questions := parseQuestionList(content)
	if len(questions) < count {
		return nil, errors.New("model returned too few questions")
	}
	return questions[:count], nil
}

func (g *openAIGenerator) TriviaQuestions(ctx context.Context, req TriviaRequest) ([]GeneratedTrivia, error) {
	template, err := readPromptFile(g.cfg.TriviaPromptPath)
	if err != nil {
		return nil, err
	}
	var answerLines strings.Builder
	for _, pair := range req.Pairs {
		fmt.Fprintf(&answerLines, "Q: %s\nA: %s\n", pair.Question, pair.Answer)
	}
	userPrompt := strings.ReplaceAll(template, placeholderPlayer, req.PlayerName)
	userPrompt = strings.ReplaceAll(userPrompt, placeholderCount, strconv.Itoa(req.Count))
	userPrompt = strings.ReplaceAll(userPrompt, placeholderAnswers, answerLines.String())

	content, err := g.complete(ctx, triviaSystemPrompt, userPrompt)
	if err != nil {
		return nil, err
	}
	trivia := parseTriviaJSON(content)
	if len(trivia) == 0 {
		return nil, errors.New("model did not return trivia in the expected format")
	}
	if len(trivia) > req.Count {
		trivia = trivia[:req.Count]
	}
	return trivia, nil
}

func (g *openAIGenerator) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if strings.TrimSpace(g.cfg.OpenAIAPIKey) == "" {
		return "", errors.New("OpenAI API key is not configured")
	}
	reqBody := openAIChatRequest{
		Model: g.cfg.OpenAIModel,
		Messages: []openAIChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: 0.9,
		MaxTokens:   700,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to build OpenAI request")
	}

	reqCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, openAIChatURL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to build OpenAI request")
	}
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(g.cfg.OpenAIAPIKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to reach OpenAI")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read OpenAI response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("OpenAI request failed (%d)", resp.StatusCode)
	}

	var parsed openAIChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse OpenAI response")
	}
	if parsed.Error != nil && parsed.Error.Message != "" {
		return "", fmt.Errorf("OpenAI error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", errors.New("OpenAI returned no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func readPromptFile(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read prompt template: %s", path)
	}
	return strings.TrimSpace(string(content)), nil
}

// parseQuestionList accepts numbered or bulleted lines, one question each.
// Lines with neither a list prefix nor a trailing question mark are treated
// as prose around the list and dropped.
func parseQuestionList(raw string) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	seen := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		stripped := strings.TrimSpace(strings.TrimLeft(line, "-*•"))
		stripped = strings.TrimSpace(strings.TrimLeft(stripped, "0123456789."))
		listItem := stripped != line
		line = stripped
		if line == "" {
			continue
		}
		if !listItem && !strings.HasSuffix(line, "?") {
			continue
		}
		key := strings.ToLower(line)
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, line)
	}
	return out
}

type triviaJSONEntry struct {
	Question string   `json:"question"`
	Correct  string   `json:"correct"`
	Wrong    []string `json:"wrong"`
}

// parseTriviaJSON extracts the first JSON array from the reply, tolerating
// code fences and surrounding prose.
func parseTriviaJSON(raw string) []GeneratedTrivia {
	start := strings.Index(raw, "[")
	end := strings.LastIndex(raw, "]")
	if start < 0 || end <= start {
		return nil
	}
	var entries []triviaJSONEntry
	if err := json.Unmarshal([]byte(raw[start:end+1]), &entries); err != nil {
		return nil
	}
	out := make([]GeneratedTrivia, 0, len(entries))
	for _, entry := range entries {
		question := strings.TrimSpace(entry.Question)
		correct := strings.TrimSpace(entry.Correct)
		if question == "" || correct == "" || len(entry.Wrong) < 3 {
			continue
		}
		trivia := GeneratedTrivia{Text: question, Correct: correct}
		for i := 0; i < 3; i++ {
			trivia.Distractors[i] = strings.TrimSpace(entry.Wrong[i])
		}
		out = append(out, trivia)
	}
	return out
}
