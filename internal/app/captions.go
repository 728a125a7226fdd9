package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"snapcaption/internal/ai"
	"snapcaption/internal/vision"
)

const (
	emptyImageCaption  = "Great shot!"
	maxCaptionObjects  = 3
	captionPromptShape = "Generate 3 engaging social media captions for an image containing: %s\n" +
		"The mood of the image is: %s\n\n" +
		"Make them creative, engaging, and include relevant emojis.\n" +
		"Return as a JSON array of strings only.\n" +
		"Not more than 10 words"
)

type CaptionGenerator struct {
	llm    ai.TextGenerator
	logger *zap.Logger
}

func NewCaptionGenerator(llm ai.TextGenerator, logger *zap.Logger) *CaptionGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CaptionGenerator{llm: llm, logger: logger.Named("captions")}
}

// GenerateCaptions asks the model for captions. It never fails: any provider or parse
// error yields a single templated caption instead.
func (g *CaptionGenerator) GenerateCaptions(ctx context.Context, objects []string, mood vision.Mood) []string {
	if len(objects) == 0 {
		return []string{emptyImageCaption}
	}

	prompt := fmt.Sprintf(captionPromptShape, strings.Join(objects, ", "), mood)
	raw, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("caption generation failed, using fallback", zap.String("provider", g.llm.Name()), zap.Error(err))
		return fallbackCaptions(objects, mood)
	}

	var captions []string
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &captions); err != nil {
		g.logger.Warn("caption response is not a json string array, using fallback", zap.Error(err))
		return fallbackCaptions(objects, mood)
	}
	if captions == nil {
		return fallbackCaptions(objects, mood)
	}
	return captions
}

func fallbackCaptions(objects []string, mood vision.Mood) []string {
	if len(objects) > maxCaptionObjects {
		objects = objects[:maxCaptionObjects]
	}
	subject := strings.Join(objects, ", ")

	switch mood {
	case vision.MoodJoy, vision.MoodSerenity:
		return []string{fmt.Sprintf("Love this %s moment! ✨", subject)}
	case vision.MoodSad:
		return []string{"Thoughtful capture of " + subject}
	default:
		return []string{"Spotted: " + subject}
	}
}
