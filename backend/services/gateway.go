package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"mentor/backend/config"

	"github.com/sethvargo/go-retry"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

var (
	ErrGatewayNotConfigured = errors.New("AI gateway is not configured")
	ErrRateLimited          = errors.New("AI gateway rate limit exceeded")
	ErrPaymentRequired      = errors.New("AI gateway usage limit reached")
	ErrEmptyCompletion      = errors.New("AI gateway returned no choices")
)

// Tool is a function the model is forced to call; its arguments come back
// as a JSON string in Completion.ToolArguments.
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

type Prompt struct {
	Model       string
	System      string
	User        string
	JSONMode    bool
	Temperature float64
	Tool        *Tool
}

type Completion struct {
	Content       string
	ToolArguments string
}

// Gateway sends one system+user exchange to a chat completion model.
type Gateway interface {
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)
}

// LangchainGateway talks to an OpenAI-compatible chat completions endpoint.
type LangchainGateway struct {
	llm        llms.Model
	logger     *zap.Logger
	newBackoff func() retry.Backoff
}

func NewLangchainGateway(cfg *config.Config, logger *zap.Logger) (*LangchainGateway, error) {
	if cfg.AIGatewayAPIKey == "" {
		return nil, ErrGatewayNotConfigured
	}

	llm, err := openai.New(
		openai.WithToken(cfg.AIGatewayAPIKey),
		openai.WithBaseURL(cfg.AIGatewayURL),
		openai.WithModel(cfg.AIModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM: %w", err)
	}

	return &LangchainGateway{
		llm:    llm,
		logger: logger,
		newBackoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewExponential(500*time.Millisecond))
		},
	}, nil
}

func (g *LangchainGateway) Complete(ctx context.Context, prompt Prompt) (*Completion, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, prompt.System),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt.User),
	}

	var options []llms.CallOption
	if prompt.Model != "" {
		options = append(options, llms.WithModel(prompt.Model))
	}
	if prompt.JSONMode {
		options = append(options, llms.WithJSONMode())
	}
	if prompt.Temperature > 0 {
		options = append(options, llms.WithTemperature(prompt.Temperature))
	}
	if prompt.Tool != nil {
		options = append(options,
			llms.WithTools([]llms.Tool{{
				Type: "function",
				Function: &llms.FunctionDefinition{
					Name:        prompt.Tool.Name,
					Description: prompt.Tool.Description,
					Parameters:  prompt.Tool.Parameters,
				},
			}}),
			llms.WithToolChoice(map[string]any{
				"type":     "function",
				"function": map[string]any{"name": prompt.Tool.Name},
			}),
		)
	}

	var res *llms.ContentResponse
	err := retry.Do(ctx, g.newBackoff(), func(ctx context.Context) error {
		var err error
		res, err = g.llm.GenerateContent(ctx, messages, options...)
		if err == nil {
			return nil
		}

		classified := classifyGatewayError(err)
		status := gatewayStatus(err)
		g.logger.Warn("AI gateway call failed",
			zap.String("model", prompt.Model),
			zap.Int("status", status),
			zap.Error(err),
		)
		if status == 0 || status >= 500 {
			return retry.RetryableError(classified)
		}
		return classified
	})
	if err != nil {
		return nil, err
	}

	if len(res.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	choice := res.Choices[0]
	completion := &Completion{Content: choice.Content}
	for _, call := range choice.ToolCalls {
		if call.FunctionCall != nil {
			completion.ToolArguments = call.FunctionCall.Arguments
			break
		}
	}

	return completion, nil
}

var statusCodePattern = regexp.MustCompile(`status code: (\d{3})`)

// gatewayStatus extracts the upstream HTTP status from a client error, or 0
// when the failure happened before a response arrived.
func gatewayStatus(err error) int {
	m := statusCodePattern.FindStringSubmatch(err.Error())
	if m == nil {
		return 0
	}
	status, _ := strconv.Atoi(m[1])
	return status
}

func classifyGatewayError(err error) error {
	switch gatewayStatus(err) {
	case 429:
		return ErrRateLimited
	case 402:
		return ErrPaymentRequired
	default:
		return fmt.Errorf("AI gateway error: %w", err)
	}
}
