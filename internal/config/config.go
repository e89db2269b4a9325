// Package config loads the server configuration from YAML with environment
// overrides.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`
	Data struct {
		Questions string `yaml:"questions"`
	} `yaml:"data"`
	Game struct {
		BuzzWindowSec   int `yaml:"buzz_window_sec"`
		AnswerWindowSec int `yaml:"answer_window_sec"`
		FinalWindowSec  int `yaml:"final_window_sec"`
		RevealDelaySec  int `yaml:"reveal_delay_sec"`
	} `yaml:"game"`
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"nats"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	cfg.Server.Addr = ":8080"
	cfg.Data.Questions = "data/questions.json"
	cfg.Game.BuzzWindowSec = 5
	cfg.Game.AnswerWindowSec = 10
	cfg.Game.FinalWindowSec = 30
	cfg.Game.RevealDelaySec = 3
	cfg.NATS.SubjectPrefix = "quizshow.events"
	return cfg
}

// Load reads the YAML file at path, falling back to defaults when the file
// does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg.Server.Addr = getEnv("QUIZSHOW_ADDR", cfg.Server.Addr)
	cfg.Data.Questions = getEnv("QUIZSHOW_QUESTIONS", cfg.Data.Questions)
	cfg.NATS.URL = getEnv("QUIZSHOW_NATS_URL", cfg.NATS.URL)
	cfg.Game.BuzzWindowSec = getEnvAsInt("QUIZSHOW_BUZZ_WINDOW_SEC", cfg.Game.BuzzWindowSec)
	cfg.Game.AnswerWindowSec = getEnvAsInt("QUIZSHOW_ANSWER_WINDOW_SEC", cfg.Game.AnswerWindowSec)
	cfg.Game.FinalWindowSec = getEnvAsInt("QUIZSHOW_FINAL_WINDOW_SEC", cfg.Game.FinalWindowSec)
	cfg.Game.RevealDelaySec = getEnvAsInt("QUIZSHOW_REVEAL_DELAY_SEC", cfg.Game.RevealDelaySec)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
