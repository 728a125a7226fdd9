package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"snapcaption/internal/ai"
)

const (
	maxHashtagObjects  = 5
	hashtagPromptShape = "Generate 8-10 trending hashtags for a social media post featuring: %s\n\n" +
		"Include:\n" +
		"- Object-specific hashtags\n" +
		"- 2-3 trending general hashtags\n" +
		"- Photography-related hashtags\n\n" +
		"Return as a JSON array of hashtag strings (include # symbol)."
)

var genericHashtags = []string{"#photography", "#ai", "#content"}

type HashtagGenerator struct {
	llm    ai.TextGenerator
	logger *zap.Logger
}

func NewHashtagGenerator(llm ai.TextGenerator, logger *zap.Logger) *HashtagGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HashtagGenerator{llm: llm, logger: logger.Named("hashtags")}
}

// GenerateHashtags asks the model for hashtags. The model is called even when objects
// is empty.
func (g *HashtagGenerator) GenerateHashtags(ctx context.Context, objects []string) []string {
	prompt := fmt.Sprintf(hashtagPromptShape, strings.Join(objects, ", "))
	raw, err := g.llm.Generate(ctx, prompt)
	if err != nil {
		g.logger.Warn("hashtag generation failed, using fallback", zap.String("provider", g.llm.Name()), zap.Error(err))
		return fallbackHashtags(objects)
	}

	text := stripCodeFence(raw)
	var parsed any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		g.logger.Warn("hashtag response is not json, using fallback", zap.Error(err))
		return fallbackHashtags(objects)
	}

	items, ok := parsed.([]any)
	if !ok {
		return strings.Fields(text)
	}
	tags := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			tags = append(tags, s)
			continue
		}
		tags = append(tags, fmt.Sprint(item))
	}
	return tags
}

func fallbackHashtags(objects []string) []string {
	if len(objects) > maxHashtagObjects {
		objects = objects[:maxHashtagObjects]
	}
	tags := make([]string, 0, len(objects)+len(genericHashtags))
	for _, obj := range objects {
		tags = append(tags, "#"+strings.ToLower(strings.ReplaceAll(obj, " ", "")))
	}
	return append(tags, genericHashtags...)
}
