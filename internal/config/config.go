package config

import (
	"os"
	"strconv"
)

type Config struct {
	IcebreakerQuestions      int
	QuizQuestionsPerPlayer   int
	QuizAnswerSeconds        int
	MaxPlayers               int
	BaseURL                  string
	DBMaxOpenConns           int
	DBMaxIdleConns           int
	DBConnMaxLifetimeSeconds int
	DBConnMaxIdleTimeSeconds int
	OpenAIAPIKey             string
	OpenAIModel              string
	IcebreakerPromptPath     string
	TriviaPromptPath         string
}

func Default() Config {
	return Config{
		IcebreakerQuestions:      3,
		QuizQuestionsPerPlayer:   2,
		QuizAnswerSeconds:        20,
		MaxPlayers:               4,
		BaseURL:                  "http://localhost:8080",
		DBMaxOpenConns:           10,
		DBMaxIdleConns:           10,
		DBConnMaxLifetimeSeconds: 300,
		DBConnMaxIdleTimeSeconds: 60,
		OpenAIModel:              "gpt-4o-mini",
		IcebreakerPromptPath:     "prompts/icebreaker_questions.txt",
		TriviaPromptPath:         "prompts/player_trivia.txt",
	}
}

func Load() Config {
	cfg := Default()
	if raw := os.Getenv("ICEBREAKER_QUESTIONS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.IcebreakerQuestions = value
		}
	}
	if raw := os.Getenv("QUIZ_QUESTIONS_PER_PLAYER"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.QuizQuestionsPerPlayer = value
		}
	}
	if raw := os.Getenv("QUIZ_ANSWER_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.QuizAnswerSeconds = value
		}
	}
	if raw := os.Getenv("MAX_PLAYERS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.MaxPlayers = value
		}
	}
	if raw := os.Getenv("BASE_URL"); raw != "" {
		cfg.BaseURL = raw
	}
	if raw := os.Getenv("DB_MAX_OPEN_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxOpenConns = value
		}
	}
	if raw := os.Getenv("DB_MAX_IDLE_CONNS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBMaxIdleConns = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_LIFETIME_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxLifetimeSeconds = value
		}
	}
	if raw := os.Getenv("DB_CONN_MAX_IDLE_SECONDS"); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.DBConnMaxIdleTimeSeconds = value
		}
	}
	if raw := os.Getenv("OPENAI_API_KEY"); raw != "" {
		cfg.OpenAIAPIKey = raw
	}
	if raw := os.Getenv("OPENAI_MODEL"); raw != "" {
		cfg.OpenAIModel = raw
	}
	if raw := os.Getenv("ICEBREAKER_PROMPT_PATH"); raw != "" {
		cfg.IcebreakerPromptPath = raw
	}
	if raw := os.Getenv("TRIVIA_PROMPT_PATH"); raw != "" {
		cfg.TriviaPromptPath = raw
	}
	return cfg
}
