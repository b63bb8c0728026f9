package answer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"docchat-be/pkg/llm"
	"docchat-be/pkg/store"
)

// StructuredPipeline implements store.AnswerPipeline on top of a streaming
// LLM constrained to the AnswerWithSources schema. Answer text is surfaced
// fragment by fragment while the JSON is still arriving; the sources tail
// is appended once the object is complete.
type StructuredPipeline struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewStructuredPipeline(provider llm.LLMProvider, logger *log.Logger) *StructuredPipeline {
	return &StructuredPipeline{provider: provider, logger: logger}
}

func (p *StructuredPipeline) Invoke(ctx context.Context, in store.PipelineInputs, emit func(string) error) (*store.PipelineOutput, error) {
	messages := buildMessages(in)
	schema := ResponseSchema()

	var extractor answerExtractor
	var emitErr error
	raw, err := p.provider.ChatStream(ctx, messages, func(delta string) error {
		fragment := extractor.feed(delta)
		if fragment == "" || emit == nil {
			return nil
		}
		if err := emit(fragment); err != nil {
			emitErr = err
			return err
		}
		return nil
	}, llm.WithResponseSchema(schema.Name, schema.Schema))
	if err != nil {
		if emitErr != nil {
			return nil, fmt.Errorf("answer stream aborted: %w", emitErr)
		}
		return nil, fmt.Errorf("answer generation failed: %w", err)
	}

	parsed, err := Parse(raw)
	if err != nil {
		p.logger.Printf("[ERROR] Structured output did not parse: %v", err)
		return nil, err
	}

	finalText := Serialize(parsed)

	// Emit whatever the extractor has not surfaced yet, normally just the
	// sources tail, so the emitted fragments concatenate to finalText.
	if emit != nil {
		streamed := extractor.emitted.String()
		tail := finalText
		if strings.HasPrefix(finalText, streamed) {
			tail = finalText[len(streamed):]
		}
		if tail != "" {
			if err := emit(tail); err != nil {
				return nil, fmt.Errorf("answer stream aborted: %w", err)
			}
		}
	}

	return &store.PipelineOutput{
		Answer:    parsed.Answer,
		Sources:   parsed.Sources,
		FinalText: finalText,
	}, nil
}
