// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type PaymentConfig struct {
	ServiceURL      string        `yaml:"service_url"`
	APIKey          string        `yaml:"api_key"`
	Network         string        `yaml:"network"` // e.g. Preprod | Mainnet
	Amount          string        `yaml:"amount"`
	Unit            string        `yaml:"unit"`
	AgentIdentifier string        `yaml:"agent_identifier"`
	SellerVKey      string        `yaml:"seller_vkey"`
	PollInterval    time.Duration `yaml:"poll_interval"`
}

type AIConfig struct {
	GeminiKey       string `yaml:"gemini_key"`
	GeminiURL       string `yaml:"gemini_url"`
	OpenAIKey       string `yaml:"openai_key"`
	GenerationModel string `yaml:"generation_model"`
	EmbeddingModel  string `yaml:"embedding_model"`
	EmbeddingDim    int    `yaml:"embedding_dim"`
}

type RAGConfig struct {
	TopK        int    `yaml:"top_k"`
	ChunkTokens int    `yaml:"chunk_tokens"`
	UploadDir   string `yaml:"upload_dir"`
	Workers     int    `yaml:"workers"` // task pool size
}

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
	Payment PaymentConfig `yaml:"payment"`
	AI      AIConfig      `yaml:"ai"`
	RAG     RAGConfig     `yaml:"rag"`

	Runtime RuntimeConfig `yaml:"-"`
}

// LoadConfig reads the YAML config, expanding ${ENV} references after loading
// an optional .env file, and applies defaults plus minimal validation.
func LoadConfig(path string, dev bool) (*Config, error) {
	// .env is optional; real env vars win either way.
	_ = godotenv.Load()

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(b))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8081
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Payment.Network == "" {
		cfg.Payment.Network = "Preprod"
	}
	if cfg.Payment.Amount == "" {
		cfg.Payment.Amount = "10000000" // 10 ADA
	}
	if cfg.Payment.Unit == "" {
		cfg.Payment.Unit = "lovelace"
	}
	if cfg.Payment.PollInterval <= 0 {
		cfg.Payment.PollInterval = 10 * time.Second
	}
	if cfg.AI.GenerationModel == "" {
		cfg.AI.GenerationModel = "gemini-2.5-flash"
	}
	if cfg.AI.EmbeddingModel == "" {
		cfg.AI.EmbeddingModel = "text-embedding-004"
	}
	if cfg.AI.EmbeddingDim <= 0 {
		cfg.AI.EmbeddingDim = 768
	}
	if cfg.RAG.TopK <= 0 {
		cfg.RAG.TopK = 5
	}
	if cfg.RAG.ChunkTokens <= 0 {
		cfg.RAG.ChunkTokens = 256
	}
	if cfg.RAG.UploadDir == "" {
		cfg.RAG.UploadDir = "uploads"
	}
	if cfg.RAG.Workers <= 0 {
		cfg.RAG.Workers = 8
	}

	// Minimal validation
	if cfg.Payment.ServiceURL == "" {
		return nil, errors.New("payment.service_url is required")
	}
	if cfg.Payment.APIKey == "" {
		return nil, errors.New("payment.api_key is required")
	}
	if cfg.Payment.AgentIdentifier == "" {
		return nil, errors.New("payment.agent_identifier is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
