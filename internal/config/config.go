// Package config handles application configuration from YAML files and environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Server     ServerConfig    `yaml:"server"`
	Database   DatabaseConfig  `yaml:"database"`
	LLM        LLMConfig       `yaml:"llm"`
	Search     SearchConfig    `yaml:"search"`
	Vision     VisionConfig    `yaml:"vision"`
	Upload     UploadConfig    `yaml:"upload"`
	Verify     VerifyConfig    `yaml:"verify"`
	Synthesis  SynthesisConfig `yaml:"synthesis"`
	RateLimits RateLimitConfig `yaml:"rate_limits"`
	Logging    LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port          int    `yaml:"port"`
	MaxUploadSize int64  `yaml:"max_upload_size"` // bytes
	AdminToken    string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"` // sqlite
	Path   string `yaml:"path"`
}

type LLMConfig struct {
	Provider  string        `yaml:"provider"` // openai, groq, anthropic, gemini, ollama
	Model     string        `yaml:"model"`
	APIKey    string        `yaml:"api_key"`
	BaseURL   string        `yaml:"base_url"` // OpenAI-compatible endpoint override
	OllamaURL string        `yaml:"ollama_url"`
	Timeout   time.Duration `yaml:"timeout"`
	Tasks     TaskConfig    `yaml:"tasks"`
}

// TaskConfig holds per-task generation settings.
type TaskConfig struct {
	Extraction TaskSettings `yaml:"extraction"`
	Queries    TaskSettings `yaml:"queries"`
	Narration  TaskSettings `yaml:"narration"`
	Synthesis  TaskSettings `yaml:"synthesis"`
}

// TaskSettings overrides the generation parameters of one task.
type TaskSettings struct {
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	MaxTokens   int     `yaml:"max_tokens"`
}

type SearchConfig struct {
	SerpAPIKey      string        `yaml:"serpapi_key"`
	SerpAPIURL      string        `yaml:"serpapi_url"`
	ResultsPerQuery int           `yaml:"results_per_query"`
	VisualMatches   int           `yaml:"visual_matches"`
	DuckDuckGo      bool          `yaml:"duckduckgo"`
	Timeout         time.Duration `yaml:"timeout"`
}

type VisionConfig struct {
	HuggingFaceKey        string        `yaml:"huggingface_key"`
	HuggingFaceURL        string        `yaml:"huggingface_url"`
	NLIModel              string        `yaml:"nli_model"`
	CaptionModel          string        `yaml:"caption_model"`
	AuthenticityModel     string        `yaml:"authenticity_model"`
	AuthenticityThreshold float64       `yaml:"authenticity_threshold"`
	RealLabel             string        `yaml:"real_label"`
	FakeLabel             string        `yaml:"fake_label"`
	OCRSpaceKey           string        `yaml:"ocr_space_key"`
	OCRSpaceURL           string        `yaml:"ocr_space_url"`
	Timeout               time.Duration `yaml:"timeout"`
}

type UploadConfig struct {
	Provider string        `yaml:"provider"` // imgbb, s3
	ImgBBKey string        `yaml:"imgbb_key"`
	ImgBBURL string        `yaml:"imgbb_url"`
	S3       S3Config      `yaml:"s3"`
	Timeout  time.Duration `yaml:"timeout"`
}

type S3Config struct {
	Endpoint  string        `yaml:"endpoint"`
	AccessKey string        `yaml:"access_key"`
	SecretKey string        `yaml:"secret_key"`
	Bucket    string        `yaml:"bucket"`
	Secure    bool          `yaml:"secure"`
	URLExpiry time.Duration `yaml:"url_expiry"`
}

type VerifyConfig struct {
	ClaimConcurrency    int `yaml:"claim_concurrency"`
	MaxThematicSnippets int `yaml:"max_thematic_snippets"`
}

type SynthesisConfig struct {
	ExtraRules []SignalRuleConfig `yaml:"extra_rules"`
}

// SignalRuleConfig adds a keyword rule to the signal extractor.
type SignalRuleConfig struct {
	Category string   `yaml:"category"`
	Keywords []string `yaml:"keywords"`
	Signal   string   `yaml:"signal"`
}

type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"default_requests_per_minute"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:          8080,
			MaxUploadSize: 10 << 20,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			Path:   "./data/factlens.db",
		},
		LLM: LLMConfig{
			Provider: "groq",
			Model:    "llama3-8b-8192",
			Timeout:  45 * time.Second,
			Tasks: TaskConfig{
				Extraction: TaskSettings{Temperature: 0.2, MaxTokens: 1024},
				Queries:    TaskSettings{Temperature: 0.5, MaxTokens: 512},
				Narration:  TaskSettings{Temperature: 0.3, MaxTokens: 1024},
				Synthesis:  TaskSettings{Temperature: 0.1, TopP: 0.1, MaxTokens: 1024},
			},
		},
		Search: SearchConfig{
			SerpAPIURL:      "https://serpapi.com/search.json",
			ResultsPerQuery: 3,
			VisualMatches:   10,
			DuckDuckGo:      true,
			Timeout:         15 * time.Second,
		},
		Vision: VisionConfig{
			HuggingFaceURL:        "https://router.huggingface.co/hf-inference/models/",
			NLIModel:              "MoritzLaurer/DeBERTa-v3-base-mnli-fever-anli",
			CaptionModel:          "Salesforce/blip-image-captioning-base",
			AuthenticityModel:     "umm-maybe/AI-image-detector",
			AuthenticityThreshold: 0.75,
			RealLabel:             "human",
			FakeLabel:             "artificial",
			OCRSpaceURL:           "https://api.ocr.space/parse/image",
			Timeout:               60 * time.Second,
		},
		Upload: UploadConfig{
			Provider: "imgbb",
			ImgBBURL: "https://api.imgbb.com/1/upload",
			S3: S3Config{
				Secure:    true,
				URLExpiry: time.Hour,
			},
			Timeout: 30 * time.Second,
		},
		Verify: VerifyConfig{
			ClaimConcurrency:    4,
			MaxThematicSnippets: 6,
		},
		RateLimits: RateLimitConfig{
			RequestsPerMinute: 30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration from a YAML file. Variables from a .env file in
// the working directory are loaded first so they can be interpolated.
func Load(path string) (*Config, error) {
	if err := LoadDotEnv(".env"); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s (run 'factlens config generate' to create one)", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Interpolate environment variables
	content := interpolateEnvVars(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadDotEnv loads environment variables from the given dotenv files.
// Missing files are skipped and variables already set are not overridden.
func LoadDotEnv(paths ...string) error {
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}
	return nil
}

// GenerateSample creates a sample configuration file.
func GenerateSample(path string) error {
	sample := `# factlens configuration
# Values of the form ${VAR} are read from the environment (or a .env file).

server:
  port: 8080
  max_upload_size: 10485760
  admin_token: ${FACTLENS_ADMIN_TOKEN}

database:
  driver: sqlite
  path: ./data/factlens.db

llm:
  provider: groq  # openai, groq, anthropic, gemini, ollama
  model: llama3-8b-8192
  api_key: ${GROQ_API_KEY}
  timeout: 45s
  tasks:
    extraction: {temperature: 0.2, max_tokens: 1024}
    queries:    {temperature: 0.5, max_tokens: 512}
    narration:  {temperature: 0.3, max_tokens: 1024}
    synthesis:  {temperature: 0.1, top_p: 0.1, max_tokens: 1024}

  # For OpenAI:
  # provider: openai
  # model: gpt-4o-mini
  # api_key: ${OPENAI_API_KEY}

  # For Ollama (local):
  # provider: ollama
  # model: llama3
  # ollama_url: http://localhost:11434

search:
  serpapi_key: ${SERPAPI_API_KEY}
  results_per_query: 3
  visual_matches: 10
  duckduckgo: true  # fallback when SerpAPI is not configured
  timeout: 15s

vision:
  huggingface_key: ${HF_API_KEY}
  nli_model: MoritzLaurer/DeBERTa-v3-base-mnli-fever-anli
  caption_model: Salesforce/blip-image-captioning-base
  authenticity_model: umm-maybe/AI-image-detector
  authenticity_threshold: 0.75
  real_label: human
  fake_label: artificial
  ocr_space_key: ${OCR_SPACE_API_KEY}
  timeout: 60s

upload:
  provider: imgbb  # imgbb or s3
  imgbb_key: ${IMGBB_API_KEY}
  # s3:
  #   endpoint: localhost:9000
  #   access_key: ${S3_ACCESS_KEY}
  #   secret_key: ${S3_SECRET_KEY}
  #   bucket: factlens-uploads
  #   secure: false
  #   url_expiry: 1h

verify:
  claim_concurrency: 4
  max_thematic_snippets: 6

synthesis:
  extra_rules: []
  # - category: satire
  #   keywords: ["the onion", "babylon bee"]
  #   signal: "NOTE: Online history links the image to a satirical outlet."

rate_limits:
  default_requests_per_minute: 30

logging:
  level: info  # debug, info, warn, error
  format: json # json or text
`
	return os.WriteFile(path, []byte(sample), 0644)
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	validProviders := map[string]bool{"openai": true, "groq": true, "anthropic": true, "gemini": true, "ollama": true}
	if !validProviders[c.LLM.Provider] {
		return fmt.Errorf("unsupported LLM provider: %s", c.LLM.Provider)
	}

	switch c.Upload.Provider {
	case "", "imgbb", "s3":
	default:
		return fmt.Errorf("unsupported upload provider: %s", c.Upload.Provider)
	}

	if c.Vision.AuthenticityThreshold < 0 || c.Vision.AuthenticityThreshold > 1 {
		return fmt.Errorf("authenticity threshold must be within [0, 1]: %v", c.Vision.AuthenticityThreshold)
	}

	if c.Search.ResultsPerQuery < 1 {
		return fmt.Errorf("results_per_query must be positive")
	}

	if c.Verify.ClaimConcurrency < 1 {
		return fmt.Errorf("claim_concurrency must be positive")
	}

	for i, r := range c.Synthesis.ExtraRules {
		if len(r.Keywords) == 0 || r.Signal == "" {
			return fmt.Errorf("synthesis rule %d needs keywords and a signal", i)
		}
	}

	return nil
}

// interpolateEnvVars replaces ${VAR_NAME} with environment variable values.
// Unset variables become empty so optional keys read as unconfigured.
func interpolateEnvVars(content string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)
	return re.ReplaceAllStringFunc(content, func(match string) string {
		varName := strings.TrimPrefix(strings.TrimSuffix(match, "}"), "${")
		return os.Getenv(varName)
	})
}
