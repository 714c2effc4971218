package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docqa/internal/domain"
	"github.com/kailas-cloud/docqa/internal/domain/conversation"
	"github.com/kailas-cloud/docqa/internal/metrics"
)

// GroqBaseURL is the OpenAI-compatible Groq endpoint.
const GroqBaseURL = "https://api.groq.com/openai/v1"

// GeneratorConfig holds the chat completion settings.
type GeneratorConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Logger      *zap.Logger
}

// Generator answers prompts through an OpenAI-compatible chat completions API.
type Generator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

// NewGenerator creates a chat completion generator.
func NewGenerator(cfg *GeneratorConfig) *Generator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if clientCfg.BaseURL == "" {
		clientCfg.BaseURL = GroqBaseURL
	}

	return &Generator{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      cfg.Logger,
	}
}

// Generate returns the full answer in one call.
func (g *Generator) Generate(ctx context.Context, p conversation.Prompt) (string, error) {
	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, g.request(p, false))
	metrics.GeneratorRequestDuration.WithLabelValues("sync").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GeneratorRequestsTotal.WithLabelValues("sync", "error").Inc()
		return "", parseAPIError(err, domain.ErrGeneratorError)
	}
	if len(resp.Choices) == 0 {
		metrics.GeneratorRequestsTotal.WithLabelValues("sync", "error").Inc()
		return "", fmt.Errorf("empty completion response: %w", domain.ErrGeneratorError)
	}

	metrics.GeneratorRequestsTotal.WithLabelValues("sync", "success").Inc()
	g.logger.Debug("Completion finished",
		zap.String("model", g.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// Stream opens a streaming completion.
func (g *Generator) Stream(ctx context.Context, p conversation.Prompt) (conversation.FragmentStream, error) {
	stream, err := g.client.CreateChatCompletionStream(ctx, g.request(p, true))
	if err != nil {
		metrics.GeneratorRequestsTotal.WithLabelValues("stream", "error").Inc()
		return nil, parseAPIError(err, domain.ErrGeneratorError)
	}
	return &chatStream{stream: stream, start: time.Now()}, nil
}

func (g *Generator) request(p conversation.Prompt, stream bool) openai.ChatCompletionRequest {
	return openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    buildMessages(p),
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
		Stream:      stream,
	}
}

// buildMessages orders the conversation as: system prompt, prior turns, retrieved
// context, then the user query.
func buildMessages(p conversation.Prompt) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(p.History)+3)
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.System})
	for _, t := range p.History {
		role := openai.ChatMessageRoleUser
		if t.Role == conversation.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: t.Text})
	}
	if p.Context != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: p.Context})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: p.Query})
	return msgs
}

type chatStream struct {
	stream *openai.ChatCompletionStream
	start  time.Time
	done   bool
}

func (s *chatStream) Recv() (string, error) {
	for {
		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.finish("success")
			return "", io.EOF
		}
		if err != nil {
			s.finish("error")
			return "", parseAPIError(err, domain.ErrGeneratorError)
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		return resp.Choices[0].Delta.Content, nil
	}
}

func (s *chatStream) Close() error {
	s.finish("closed")
	return s.stream.Close() //nolint:wrapcheck // passthrough
}

func (s *chatStream) finish(status string) {
	if s.done {
		return
	}
	s.done = true
	metrics.GeneratorRequestsTotal.WithLabelValues("stream", status).Inc()
	metrics.GeneratorRequestDuration.WithLabelValues("stream").Observe(time.Since(s.start).Seconds())
}
