package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"FinSight/internal/trainer"
)

// Config holds all application configuration.
type Config struct {
	Data struct {
		CSVPath      string `yaml:"csv_path"`
		LookbackDays int    `yaml:"lookback_days"`
	} `yaml:"data"`
	Ledger struct {
		BaseURL        string `yaml:"base_url"`
		APIKey         string `yaml:"api_key"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"ledger"`
	Model struct {
		Dir             string `yaml:"dir"`
		HorizonDays     int    `yaml:"horizon_days"`
		MinTrainingRows int    `yaml:"min_training_rows"`
	} `yaml:"model"`
	Training trainer.Params `yaml:"training"`
	Schedule struct {
		RetrainCron string   `yaml:"retrain_cron"`
		Users       []string `yaml:"users"`
	} `yaml:"schedule"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Email struct {
		SMTPHost     string   `yaml:"smtp_host"`
		SMTPPort     string   `yaml:"smtp_port"`
		SMTPUsername string   `yaml:"smtp_username"`
		SMTPPassword string   `yaml:"smtp_password"`
		SenderEmail  string   `yaml:"sender_email"`
		Recipients   []string `yaml:"recipients"`
	} `yaml:"email"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTLHours int    `yaml:"ttl_hours"`
	} `yaml:"redis"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides
// and defaults. A missing file yields a config built from env and defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATA_CSV_PATH"); v != "" {
		cfg.Data.CSVPath = v
	}
	if v := os.Getenv("LEDGER_BASE_URL"); v != "" {
		cfg.Ledger.BaseURL = v
	}
	if v := os.Getenv("LEDGER_API_KEY"); v != "" {
		cfg.Ledger.APIKey = v
	}
	if v := os.Getenv("MODEL_DIR"); v != "" {
		cfg.Model.Dir = v
	}
	if v := os.Getenv("CRON_RETRAIN"); v != "" {
		cfg.Schedule.RetrainCron = v
	}
	if v := os.Getenv("RETRAIN_USERS"); v != "" {
		cfg.Schedule.Users = splitList(v)
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("SMTP_HOST"); v != "" {
		cfg.Email.SMTPHost = v
	}
	if v := os.Getenv("SMTP_PORT"); v != "" {
		cfg.Email.SMTPPort = v
	}
	if v := os.Getenv("SMTP_USERNAME"); v != "" {
		cfg.Email.SMTPUsername = v
	}
	if v := os.Getenv("SMTP_PASSWORD"); v != "" {
		cfg.Email.SMTPPassword = v
	}
	if v := os.Getenv("SENDER_EMAIL"); v != "" {
		cfg.Email.SenderEmail = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			cfg.Redis.DB = db
		}
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Data.LookbackDays == 0 {
		cfg.Data.LookbackDays = 365
	}
	if cfg.Ledger.TimeoutSeconds == 0 {
		cfg.Ledger.TimeoutSeconds = 30
	}
	if cfg.Model.Dir == "" {
		cfg.Model.Dir = "data/models"
	}
	if cfg.Model.HorizonDays == 0 {
		cfg.Model.HorizonDays = 30
	}
	if cfg.Model.MinTrainingRows == 0 {
		cfg.Model.MinTrainingRows = 100
	}
	if cfg.Schedule.RetrainCron == "" {
		cfg.Schedule.RetrainCron = "0 0 3 * * *"
	}
	if cfg.Email.SMTPPort == "" {
		cfg.Email.SMTPPort = "587"
	}
	if cfg.Redis.TTLHours == 0 {
		cfg.Redis.TTLHours = 24
	}
	if cfg.Database.SQLitePath == "" {
		cfg.Database.SQLitePath = "data/finsight.db"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	def := trainer.DefaultParams()
	t := &cfg.Training
	if t.Forest.NTrees == 0 {
		t.Forest.NTrees = def.Forest.NTrees
	}
	if t.Forest.MaxDepth == 0 {
		t.Forest.MaxDepth = def.Forest.MaxDepth
	}
	if t.Forest.MinSamplesSplit == 0 {
		t.Forest.MinSamplesSplit = def.Forest.MinSamplesSplit
	}
	if t.Forest.MinSamplesLeaf == 0 {
		t.Forest.MinSamplesLeaf = def.Forest.MinSamplesLeaf
	}
	if t.Forest.Seed == 0 {
		t.Forest.Seed = def.Forest.Seed
	}
	if t.Boosting.NStages == 0 {
		t.Boosting.NStages = def.Boosting.NStages
	}
	if t.Boosting.LearningRate == 0 {
		t.Boosting.LearningRate = def.Boosting.LearningRate
	}
	if t.Boosting.MaxDepth == 0 {
		t.Boosting.MaxDepth = def.Boosting.MaxDepth
	}
	if t.Boosting.MinSamplesSplit == 0 {
		t.Boosting.MinSamplesSplit = def.Boosting.MinSamplesSplit
	}
	if t.Boosting.MinSamplesLeaf == 0 {
		t.Boosting.MinSamplesLeaf = def.Boosting.MinSamplesLeaf
	}
	if t.TestSize == 0 {
		t.TestSize = def.TestSize
	}
	if t.SplitSeed == 0 {
		t.SplitSeed = def.SplitSeed
	}
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Data.CSVPath == "" && c.Ledger.BaseURL == "" {
		return fmt.Errorf("one of data.csv_path or ledger.base_url is required")
	}
	if c.Model.HorizonDays < 1 || c.Model.HorizonDays > 365 {
		return fmt.Errorf("model.horizon_days must be between 1 and 365, got %d", c.Model.HorizonDays)
	}
	if c.Model.MinTrainingRows < 1 {
		return fmt.Errorf("model.min_training_rows must be positive")
	}
	if c.Training.TestSize <= 0 || c.Training.TestSize >= 1 {
		return fmt.Errorf("training.test_size must be in (0, 1), got %v", c.Training.TestSize)
	}
	if c.Training.Forest.NTrees < 1 || c.Training.Boosting.NStages < 1 {
		return fmt.Errorf("training.forest.n_trees and training.boosting.n_stages must be positive")
	}
	if c.Training.Boosting.LearningRate <= 0 {
		return fmt.Errorf("training.boosting.learning_rate must be positive")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	if c.Email.SMTPHost != "" && (c.Email.SenderEmail == "" || len(c.Email.Recipients) == 0) {
		return fmt.Errorf("email.sender_email and email.recipients are required with email.smtp_host")
	}
	return nil
}
