package service

import (
	"context"
	"strings"

	"go.uber.org/zap"
)

// explainer produces a generated explanation or, when the provider fails, a fixed fallback
type explainer struct {
	generator Generator
	maxTokens int32
	logger    *zap.Logger
}

func (e explainer) explain(ctx context.Context, prompt, fallback string) string {
	if e.generator == nil {
		return fallback
	}

	text, err := e.generator.Generate(ctx, prompt, e.maxTokens)
	if err != nil {
		e.logger.Warn("explanation fell back to template", zap.Error(err))
		return fallback
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return fallback
	}
	return text
}
