package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Embedder turns text into a vector in the same space as the reference chunks
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Generator produces a short natural-language explanation
type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int32) (string, error)
}

// Provider is the external text model used for explanations and semantic lookup
type Provider interface {
	Embedder
	Generator
}

// ErrProviderUnavailable wraps every failure of the external text model
var ErrProviderUnavailable = errors.New("text provider unavailable")

const (
	maxRetries     = 3
	initialBackoff = time.Second
)

// GeminiProvider calls Gemini for generation and embeddings.
// A nil client makes every call fail fast with ErrProviderUnavailable.
type GeminiProvider struct {
	client          *genai.Client
	generationModel string
	embeddingModel  string
	timeout         time.Duration
	limiter         *rate.Limiter
	backoff         time.Duration
	logger          *zap.Logger
}

// GeminiOption is a functional option for GeminiProvider
type GeminiOption func(*GeminiProvider)

// GeminiWithModels sets the generation and embedding model names
func GeminiWithModels(generation, embedding string) GeminiOption {
	return func(p *GeminiProvider) {
		p.generationModel = generation
		p.embeddingModel = embedding
	}
}

// GeminiWithTimeout bounds each call, retries included
func GeminiWithTimeout(timeout time.Duration) GeminiOption {
	return func(p *GeminiProvider) {
		p.timeout = timeout
	}
}

// GeminiWithRateLimit sets the sustained calls per second; burst is twice that
func GeminiWithRateLimit(perSecond float64) GeminiOption {
	return func(p *GeminiProvider) {
		burst := int(perSecond * 2)
		if burst < 1 {
			burst = 1
		}
		p.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// GeminiWithLogger sets the logger
func GeminiWithLogger(logger *zap.Logger) GeminiOption {
	return func(p *GeminiProvider) {
		p.logger = logger
	}
}

// NewGeminiProvider creates a provider around an existing client
func NewGeminiProvider(client *genai.Client, opts ...GeminiOption) *GeminiProvider {
	p := &GeminiProvider{
		client:          client,
		generationModel: "gemini-1.5-flash",
		embeddingModel:  "embedding-001",
		timeout:         10 * time.Second,
		limiter:         rate.NewLimiter(rate.Limit(5), 10),
		backoff:         initialBackoff,
		logger:          zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Generate asks the generation model for at most maxTokens of text
func (p *GeminiProvider) Generate(ctx context.Context, prompt string, maxTokens int32) (string, error) {
	if p.client == nil {
		return "", fmt.Errorf("%w: no client configured", ErrProviderUnavailable)
	}

	var text string
	err := p.call(ctx, "generate", func(ctx context.Context) error {
		model := p.client.GenerativeModel(p.generationModel)
		model.SetMaxOutputTokens(maxTokens)

		resp, err := model.GenerateContent(ctx, genai.Text(prompt))
		if err != nil {
			return err
		}
		text, err = responseText(resp)
		return err
	})
	return text, err
}

// Embed asks the embedding model for the vector of text
func (p *GeminiProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if p.client == nil {
		return nil, fmt.Errorf("%w: no client configured", ErrProviderUnavailable)
	}

	var values []float32
	err := p.call(ctx, "embed", func(ctx context.Context) error {
		res, err := p.client.EmbeddingModel(p.embeddingModel).EmbedContent(ctx, genai.Text(text))
		if err != nil {
			return err
		}
		if res == nil || res.Embedding == nil || len(res.Embedding.Values) == 0 {
			return errors.New("API returned empty embedding")
		}
		values = res.Embedding.Values
		return nil
	})
	return values, err
}

// call runs fn under the rate limiter with retries and exponential backoff,
// all inside a single timeout
func (p *GeminiProvider) call(ctx context.Context, op string, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	backoff := p.backoff
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(backoff):
				backoff *= 2
			case <-ctx.Done():
				return fmt.Errorf("%w: %s: %v (last error: %v)", ErrProviderUnavailable, op, ctx.Err(), lastErr)
			}
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%w: %s: rate limiter: %v", ErrProviderUnavailable, op, err)
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		p.logger.Warn("provider call failed",
			zap.String("op", op),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}

	return fmt.Errorf("%w: %s failed after %d attempts: %v", ErrProviderUnavailable, op, maxRetries, lastErr)
}

// responseText concatenates the text parts of every candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("API returned no response")
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("API blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", errors.New("API returned no candidates")
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", errors.New("API returned empty content")
	}
	return text, nil
}
