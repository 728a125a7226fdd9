package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

type Config struct {
	App    AppConfig    `toml:"app"`
	Log    LogConfig    `toml:"log"`
	Auth   AuthConfig   `toml:"auth"`
	LLM    LLMConfig    `toml:"llm"`
	Redis  RedisConfig  `toml:"redis"`
	Vision VisionConfig `toml:"vision"`
}

type AppConfig struct {
	Name        string `toml:"name"`
	Env         string `toml:"env"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	GinMode     string `toml:"gin_mode"`
	MaxUploadMB int    `toml:"max_upload_mb"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// AuthConfig enables bearer-token auth on the processing routes when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `toml:"jwt_secret"`
	Issuer    string `toml:"issuer"`
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	BaseURL        string `toml:"base_url"`
	APIKey         string `toml:"api_key"`
	Model          string `toml:"model"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// RedisConfig backs the per-client rate limiter. An empty Addr disables it.
type RedisConfig struct {
	Addr               string `toml:"addr"`
	Password           string `toml:"password"`
	DB                 int    `toml:"db"`
	RateLimitPerMinute int    `toml:"rate_limit_per_minute"`
}

type VisionConfig struct {
	ModelPath         string `toml:"model_path"`
	ONNXSharedLibPath string `toml:"onnx_shared_lib_path"`
	MaxSide           int    `toml:"max_side"`
	InputName         string `toml:"input_name"`
	BoxesOutput       string `toml:"boxes_output"`
	LabelsOutput      string `toml:"labels_output"`
	ScoresOutput      string `toml:"scores_output"`
}

func Load() (*Config, error) {
	loadSecrets()

	cfg := defaultConfig()

	configPath := getEnv("CONFIG_FILE", "configs/config.toml")
	if _, err := os.Stat(configPath); err == nil {
		if _, err := toml.DecodeFile(configPath, cfg); err != nil {
			return nil, fmt.Errorf("decode config file failed: %w", err)
		}
	}

	overrideByEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSecrets reads dotenv files into the process env. Variables already set win.
func loadSecrets() {
	paths := []string{getEnv("SECRETS_FILE", "secrets.env"), ".env"}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		_ = godotenv.Load(p)
	}
}

func (c *Config) Validate() error {
	switch c.LLM.Provider {
	case ProviderGemini, ProviderOpenAI, ProviderOllama:
	default:
		return fmt.Errorf("unknown llm provider %q", c.LLM.Provider)
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("invalid app port %d", c.App.Port)
	}
	if c.Vision.MaxSide <= 0 {
		return fmt.Errorf("vision max_side must be positive, got %d", c.Vision.MaxSide)
	}
	if c.App.MaxUploadMB <= 0 {
		return fmt.Errorf("app max_upload_mb must be positive, got %d", c.App.MaxUploadMB)
	}
	return nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.App.Host, c.App.Port)
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.App.MaxUploadMB) << 20
}

func (c *Config) AuthEnabled() bool {
	return strings.TrimSpace(c.Auth.JWTSecret) != ""
}

func (c *Config) RateLimitEnabled() bool {
	return c.Redis.Addr != "" && c.Redis.RateLimitPerMinute > 0
}

func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "snapcaption",
			Env:         "dev",
			Host:        "0.0.0.0",
			Port:        8000,
			GinMode:     "debug",
			MaxUploadMB: 10,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Auth: AuthConfig{
			Issuer: "snapcaption",
		},
		LLM: LLMConfig{
			Provider:       ProviderGemini,
			TimeoutSeconds: 30,
		},
		Vision: VisionConfig{
			ModelPath:    "assets/fasterrcnn_resnet50_fpn.onnx",
			MaxSide:      1333,
			BoxesOutput:  "boxes",
			LabelsOutput: "labels",
			ScoresOutput: "scores",
		},
	}
}

func overrideByEnv(cfg *Config) {
	cfg.App.Name = getEnv("APP_NAME", cfg.App.Name)
	cfg.App.Env = getEnv("APP_ENV", cfg.App.Env)
	cfg.App.Host = getEnv("APP_HOST", cfg.App.Host)
	cfg.App.Port = getEnvAsInt("APP_PORT", cfg.App.Port)
	cfg.App.GinMode = getEnv("GIN_MODE", cfg.App.GinMode)
	cfg.App.MaxUploadMB = getEnvAsInt("APP_MAX_UPLOAD_MB", cfg.App.MaxUploadMB)

	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.Auth.JWTSecret = getEnv("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.Issuer = getEnv("JWT_ISSUER", cfg.Auth.Issuer)

	cfg.LLM.Provider = strings.ToLower(getEnv("LLM_PROVIDER", cfg.LLM.Provider))
	cfg.LLM.BaseURL = getEnv("LLM_BASE_URL", cfg.LLM.BaseURL)
	cfg.LLM.APIKey = firstNonEmpty(os.Getenv("LLM_API_KEY"), os.Getenv("GOOGLE_API_KEY"), cfg.LLM.APIKey)
	cfg.LLM.Model = getEnv("LLM_MODEL", cfg.LLM.Model)
	cfg.LLM.TimeoutSeconds = getEnvAsInt("LLM_TIMEOUT_SECONDS", cfg.LLM.TimeoutSeconds)

	cfg.Redis.Addr = getEnv("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvAsInt("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.RateLimitPerMinute = getEnvAsInt("REDIS_RATE_LIMIT_PER_MINUTE", cfg.Redis.RateLimitPerMinute)

	cfg.Vision.ModelPath = getEnv("VISION_MODEL_PATH", cfg.Vision.ModelPath)
	cfg.Vision.ONNXSharedLibPath = getEnv("VISION_ONNX_LIB", cfg.Vision.ONNXSharedLibPath)
	cfg.Vision.MaxSide = getEnvAsInt("VISION_MAX_SIDE", cfg.Vision.MaxSide)
	cfg.Vision.InputName = getEnv("VISION_INPUT_NAME", cfg.Vision.InputName)
	cfg.Vision.BoxesOutput = getEnv("VISION_BOXES_OUTPUT", cfg.Vision.BoxesOutput)
	cfg.Vision.LabelsOutput = getEnv("VISION_LABELS_OUTPUT", cfg.Vision.LabelsOutput)
	cfg.Vision.ScoresOutput = getEnv("VISION_SCORES_OUTPUT", cfg.Vision.ScoresOutput)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func getEnvAsInt(key string, fallback int) int {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}
