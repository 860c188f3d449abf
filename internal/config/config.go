package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"lms-challenge-service/internal/ranking"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Ranking struct {
		// Thresholds differ between deployments, so they are never hard-coded.
		MasteryThreshold *int    `yaml:"mastery_threshold"`
		PerfectScore     *int    `yaml:"perfect_score"`
		SpeedsterSeconds float64 `yaml:"speedster_seconds"`
		AttemptPolicy    string  `yaml:"attempt_policy"`
		CacheTTL         string  `yaml:"cache_ttl"`
	} `yaml:"ranking"`
	Challenge struct {
		QuestionTTL   string `yaml:"question_ttl"`
		FeedbackDelay string `yaml:"feedback_delay"`
		IdleTimeout   string `yaml:"idle_timeout"`
		SweepSchedule string `yaml:"sweep_schedule"`
	} `yaml:"challenge"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// RankingConfig builds the leaderboard thresholds, falling back to
// ranking.DefaultConfig for unset values.
func (c Config) RankingConfig() ranking.Config {
	rc := ranking.DefaultConfig()
	if c.Ranking.MasteryThreshold != nil {
		rc.MasteryThreshold = *c.Ranking.MasteryThreshold
	}
	if c.Ranking.PerfectScore != nil {
		rc.PerfectScore = *c.Ranking.PerfectScore
	}
	if c.Ranking.SpeedsterSeconds > 0 {
		rc.SpeedsterSeconds = c.Ranking.SpeedsterSeconds
	}
	switch p := ranking.AttemptPolicy(c.Ranking.AttemptPolicy); p {
	case ranking.SumAll, ranking.BestPerChapter, ranking.LatestPerChapter:
		rc.Policy = p
	}
	return rc
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
