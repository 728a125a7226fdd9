package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"snapcaption/internal/ai"
	"snapcaption/internal/app"
	"snapcaption/internal/config"
	"snapcaption/internal/platform/logging"
	redisClient "snapcaption/internal/platform/redis"
	"snapcaption/internal/ratelimit"
	"snapcaption/internal/vision"
)

type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	Detector  *vision.Detector
	Generator ai.TextGenerator
	Images    *app.ImageService
	Redis     *redis.Client
	Limiter   *ratelimit.Limiter

	StartedAt time.Time
}

// New loads configuration and builds every long-lived component. The detector is
// mandatory; the llm provider and redis degrade to fallbacks when unavailable.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger, err := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}

	engine, err := vision.NewONNXEngine(vision.ONNXConfig{
		ModelPath:     cfg.Vision.ModelPath,
		SharedLibPath: cfg.Vision.ONNXSharedLibPath,
		InputName:     cfg.Vision.InputName,
		BoxesOutput:   cfg.Vision.BoxesOutput,
		LabelsOutput:  cfg.Vision.LabelsOutput,
		ScoresOutput:  cfg.Vision.ScoresOutput,
	})
	if err != nil {
		_ = logger.Sync()
		return nil, fmt.Errorf("load detection model failed: %w", err)
	}
	a.Detector = vision.NewDetector(engine, cfg.Vision.MaxSide)
	logger.Info("detection model loaded", zap.String("path", cfg.Vision.ModelPath))

	a.Generator = newGenerator(ctx, cfg.LLM, logger)

	if cfg.RateLimitEnabled() {
		client, err := redisClient.New(ctx, redisClient.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			logger.Warn("redis unavailable, rate limiting disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			a.Redis = client
			a.Limiter = ratelimit.NewLimiter(client, cfg.Redis.RateLimitPerMinute, time.Minute)
			logger.Info("rate limiting enabled", zap.Int("per_minute", cfg.Redis.RateLimitPerMinute))
		}
	}

	a.Images = app.NewImageService(
		a.Detector,
		app.NewCaptionGenerator(a.Generator, logger),
		app.NewHashtagGenerator(a.Generator, logger),
		logger,
	)
	return a, nil
}

func newGenerator(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) ai.TextGenerator {
	gen, err := ai.New(ctx, ai.Config{
		Provider: cfg.Provider,
		BaseURL:  cfg.BaseURL,
		APIKey:   cfg.APIKey,
		Model:    cfg.Model,
		Timeout:  time.Duration(cfg.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		logger.Warn("llm provider unavailable, captions and hashtags will use fallbacks",
			zap.String("provider", cfg.Provider), zap.Error(err))
		return ai.Unavailable{Provider: cfg.Provider, Err: err}
	}
	logger.Info("llm provider ready", zap.String("generator", gen.Name()))
	return gen
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		closeErr = multierr.Append(closeErr, a.Redis.Close())
	}
	if a.Detector != nil {
		closeErr = multierr.Append(closeErr, a.Detector.Close())
	}
	if a.Logger != nil {
		// Sync on a console logger returns EINVAL for stderr on some platforms.
		_ = a.Logger.Sync()
	}
	return closeErr
}
