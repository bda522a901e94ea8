// ABOUTME: OpenAI client that answers reading questions and extracts concepts
// ABOUTME: One JSON-mode chat completion returns both the response and concept names
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/harper/marginalia/internal/models"
	"github.com/harper/marginalia/internal/util"
)

const (
	// DefaultChatModel is the default model for chat completions
	DefaultChatModel = "gpt-4o-mini"
	// MaxConcepts bounds how many concept names are kept from one completion
	MaxConcepts = 8
)

// Request is one reader action on a text selection
type Request struct {
	Action       string
	SelectedText string
	PageContext  string
	Question     string
	// History is prior reading context for the document, already rendered
	History string
}

// Completion is the answer plus the concept names it surfaced
type Completion struct {
	Response string   `json:"response"`
	Concepts []string `json:"concepts"`
}

// Completer produces completions for reader actions
type Completer interface {
	Complete(ctx context.Context, req Request) (*Completion, error)
}

// ClientConfig holds configuration for the OpenAI client
type ClientConfig struct {
	APIKey     string
	ChatModel  string
	Timeout    time.Duration
	MaxRetries int
	RetryDelay time.Duration
}

// DefaultConfig returns the default client configuration
func DefaultConfig(apiKey string) *ClientConfig {
	return &ClientConfig{
		APIKey:     apiKey,
		ChatModel:  DefaultChatModel,
		Timeout:    30 * time.Second,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
	}
}

// OpenAIClient wraps the OpenAI API client with retry logic
type OpenAIClient struct {
	client     *openai.Client
	chatModel  string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIClient creates a new OpenAI client with the given API key using default configuration
func NewOpenAIClient(apiKey string) (*OpenAIClient, error) {
	return NewOpenAIClientWithConfig(DefaultConfig(apiKey))
}

// NewOpenAIClientWithConfig creates a new OpenAI client with custom configuration
func NewOpenAIClientWithConfig(config *ClientConfig) (*OpenAIClient, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	model := config.ChatModel
	if model == "" {
		model = DefaultChatModel
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &OpenAIClient{
		client:     openai.NewClient(config.APIKey),
		chatModel:  model,
		timeout:    timeout,
		maxRetries: config.MaxRetries,
		retryDelay: config.RetryDelay,
	}, nil
}

// Complete answers a reader action and extracts the concepts it touches
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (*Completion, error) {
	messages := BuildMessages(req)

	var out *Completion
	err := util.Retry(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		callCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(callCtx, openai.ChatCompletionRequest{
			Model:       c.chatModel,
			Messages:    messages,
			Temperature: 0.3,
			ResponseFormat: &openai.ChatCompletionResponseFormat{
				Type: openai.ChatCompletionResponseFormatTypeJSONObject,
			},
		})
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 {
			return fmt.Errorf("no completion choices returned")
		}

		parsed, err := ParseCompletion(resp.Choices[0].Message.Content)
		if err != nil {
			return err
		}
		out = parsed
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("completion failed: %w", err)
	}
	return out, nil
}

const systemPrompt = `You are a reading companion. The reader selected a passage from a document and asked for help.
Answer clearly and concisely for the requested action.
Also list the key concepts the passage and your answer are about: short noun phrases, at most 8.

Return ONLY a JSON object: {"response": "<your answer>", "concepts": ["<concept>", ...]}`

var actionInstructions = map[string]string{
	models.ActionExplain:   "Explain the selected passage in plain language.",
	models.ActionSummarize: "Summarize the selected passage in a few sentences.",
	models.ActionDefine:    "Define the selected term as it is used in this context.",
	models.ActionAsk:       "Answer the reader's question about the selected passage.",
}

// BuildMessages renders the chat messages for a request
func BuildMessages(req Request) []openai.ChatCompletionMessage {
	instruction, ok := actionInstructions[req.Action]
	if !ok {
		instruction = actionInstructions[models.ActionExplain]
	}

	var b strings.Builder
	if req.History != "" {
		b.WriteString(req.History)
		b.WriteString("\n\n")
	}
	b.WriteString(instruction)
	b.WriteString("\n\nSelected text:\n")
	b.WriteString(req.SelectedText)
	if req.PageContext != "" {
		b.WriteString("\n\nSurrounding page:\n")
		b.WriteString(req.PageContext)
	}
	if req.Question != "" {
		b.WriteString("\n\nQuestion:\n")
		b.WriteString(req.Question)
	}

	return []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: b.String()},
	}
}

// ParseCompletion decodes the model's JSON reply and tidies the concept list
func ParseCompletion(content string) (*Completion, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var out Completion
	if err := json.Unmarshal([]byte(content), &out); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if strings.TrimSpace(out.Response) == "" {
		return nil, fmt.Errorf("completion has no response")
	}

	out.Concepts = models.UniqueConceptNames(out.Concepts)
	if len(out.Concepts) > MaxConcepts {
		out.Concepts = out.Concepts[:MaxConcepts]
	}
	return &out, nil
}
