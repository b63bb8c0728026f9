package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"docchat-be/pkg/llm"

	openai "github.com/sashabaranov/go-openai"
)

type OpenAIProvider struct {
	client      *openai.Client
	modelName   string
	visionModel string
}

// Ensure OpenAIProvider implements both contracts
var _ llm.LLMProvider = &OpenAIProvider{}
var _ llm.VisionProvider = &OpenAIProvider{}

func NewOpenAIProvider(apiKey, modelName, visionModel string) *OpenAIProvider {
	if visionModel == "" {
		visionModel = modelName
	}
	return &OpenAIProvider{
		client:      openai.NewClient(apiKey),
		modelName:   modelName,
		visionModel: visionModel,
	}
}

func (p *OpenAIProvider) buildRequest(history []llm.Message, options []llm.Option) openai.ChatCompletionRequest {
	opts := &llm.Options{
		Temperature: 0.7, // Default
	}
	for _, opt := range options {
		opt(opts)
	}

	messages := make([]openai.ChatCompletionMessage, len(history))
	for i, msg := range history {
		role := msg.Role
		if role == "model" {
			role = openai.ChatMessageRoleAssistant
		}
		messages[i] = openai.ChatCompletionMessage{
			Role:    role,
			Content: msg.Content,
		}
	}

	model := p.modelName
	if opts.Model != "" {
		model = opts.Model
	}

	req := openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: float32(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Schema != nil {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   opts.Schema.Name,
				Schema: opts.Schema.Schema,
				Strict: true,
			},
		}
	}
	return req
}

func (p *OpenAIProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	req := p.buildRequest(history, options)

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) ChatStream(ctx context.Context, history []llm.Message, onDelta llm.StreamHandler, options ...llm.Option) (string, error) {
	req := p.buildRequest(history, options)
	req.Stream = true

	stream, err := p.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai stream failed: %w", err)
	}
	defer stream.Close()

	full := ""
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("openai stream recv failed: %w", err)
		}
		if len(resp.Choices) == 0 {
			continue
		}
		delta := resp.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full += delta
		if onDelta != nil {
			if err := onDelta(delta); err != nil {
				return "", err
			}
		}
	}
	return full, nil
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

// DescribeImage submits the image inline as a data URL together with the
// caller's instruction parts. One non-streamed call per image, no caching.
func (p *OpenAIProvider) DescribeImage(ctx context.Context, mimeType string, data []byte, instructions []string) (string, error) {
	b64 := base64.StdEncoding.EncodeToString(data)

	parts := make([]openai.ChatMessagePart, 0, len(instructions)+1)
	for _, instruction := range instructions {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeText,
			Text: instruction,
		})
	}
	parts = append(parts, openai.ChatMessagePart{
		Type: openai.ChatMessagePartTypeImageURL,
		ImageURL: &openai.ChatMessageImageURL{
			URL:    fmt.Sprintf("data:%s;base64,%s", mimeType, b64),
			Detail: openai.ImageURLDetailAuto,
		},
	})

	req := openai.ChatCompletionRequest{
		Model: p.visionModel,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are an assistant that can both describe images and read any text in them. This description will be stored in a vector store to answer user questions later.",
			},
			{
				Role:         openai.ChatMessageRoleUser,
				MultiContent: parts,
			},
		},
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai vision call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai vision returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
