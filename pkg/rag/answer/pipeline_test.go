package answer

import (
	"context"
	"log"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/pkg/llm"
	"docchat-be/pkg/store"
)

// stubLLM replays a canned response in fixed-size chunks.
type stubLLM struct {
	response  string
	chunkSize int

	opts llm.Options // options applied on the last ChatStream call
}

func (s *stubLLM) Chat(_ context.Context, _ []llm.Message, _ ...llm.Option) (string, error) {
	return s.response, nil
}

func (s *stubLLM) Generate(_ context.Context, _ string, _ ...llm.Option) (string, error) {
	return s.response, nil
}

func (s *stubLLM) ChatStream(_ context.Context, _ []llm.Message, onDelta llm.StreamHandler, options ...llm.Option) (string, error) {
	s.opts = llm.Options{}
	for _, opt := range options {
		opt(&s.opts)
	}

	size := s.chunkSize
	if size <= 0 {
		size = 3
	}
	for i := 0; i < len(s.response); i += size {
		end := i + size
		if end > len(s.response) {
			end = len(s.response)
		}
		if err := onDelta(s.response[i:end]); err != nil {
			return "", err
		}
	}
	return s.response, nil
}

func testLogger() *log.Logger {
	return log.New(os.Stderr, "[test] ", log.LstdFlags)
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		in   AnswerWithSources
		want string
	}{
		{
			name: "with sources",
			in:   AnswerWithSources{Answer: "42", Sources: []string{"guide.pdf", "notes.docx"}},
			want: "42\nSources: guide.pdf, notes.docx",
		},
		{
			name: "no sources",
			in:   AnswerWithSources{Answer: "42"},
			want: "42\nSources: AI knowledge",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(&tt.in))
		})
	}
}

func TestInvokeStreamsAnswerThenSources(t *testing.T) {
	raw := `{"answer": "Paris is the capital.", "sources": ["geo.pdf"]}`
	p := NewStructuredPipeline(&stubLLM{response: raw, chunkSize: 4}, testLogger())

	var fragments []string
	out, err := p.Invoke(context.Background(), store.PipelineInputs{Question: "capital of France?"}, func(f string) error {
		fragments = append(fragments, f)
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "Paris is the capital.", out.Answer)
	assert.Equal(t, []string{"geo.pdf"}, out.Sources)
	assert.Equal(t, "Paris is the capital.\nSources: geo.pdf", out.FinalText)

	// the streamed fragments reassemble exactly into the final text
	assert.Equal(t, out.FinalText, strings.Join(fragments, ""))
}

func TestInvokeConstrainsOutputToSchema(t *testing.T) {
	raw := `{"answer": "ok", "sources": []}`
	stub := &stubLLM{response: raw}
	p := NewStructuredPipeline(stub, testLogger())

	_, err := p.Invoke(context.Background(), store.PipelineInputs{Question: "q"}, nil)
	require.NoError(t, err)

	require.NotNil(t, stub.opts.Schema)
	assert.Equal(t, "answer_with_sources", stub.opts.Schema.Name)
	assert.JSONEq(t, schemaJSON, string(stub.opts.Schema.Schema))
}

func TestInvokeEmptySourcesFallsBackToAIKnowledge(t *testing.T) {
	raw := `{"answer": "From memory.", "sources": []}`
	p := NewStructuredPipeline(&stubLLM{response: raw}, testLogger())

	var streamed strings.Builder
	out, err := p.Invoke(context.Background(), store.PipelineInputs{Question: "q"}, func(f string) error {
		streamed.WriteString(f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "From memory.\nSources: AI knowledge", out.FinalText)
	assert.Equal(t, out.FinalText, streamed.String())
}

func TestInvokeHandlesEscapedAnswerText(t *testing.T) {
	raw := `{"answer": "line one\nsaid \"hi\"", "sources": []}`
	p := NewStructuredPipeline(&stubLLM{response: raw, chunkSize: 2}, testLogger())

	var streamed strings.Builder
	out, err := p.Invoke(context.Background(), store.PipelineInputs{Question: "q"}, func(f string) error {
		streamed.WriteString(f)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "line one\nsaid \"hi\"", out.Answer)
	assert.Equal(t, out.FinalText, streamed.String())
}

func TestInvokeMalformedOutputErrors(t *testing.T) {
	p := NewStructuredPipeline(&stubLLM{response: "definitely not json"}, testLogger())
	_, err := p.Invoke(context.Background(), store.PipelineInputs{Question: "q"}, nil)
	assert.Error(t, err)
}

func TestExtractorAcrossChunkBoundaries(t *testing.T) {
	raw := `{"answer": "hello world", "sources": []}`
	for chunk := 1; chunk <= 7; chunk++ {
		var e answerExtractor
		var got strings.Builder
		for i := 0; i < len(raw); i += chunk {
			end := i + chunk
			if end > len(raw) {
				end = len(raw)
			}
			got.WriteString(e.feed(raw[i:end]))
		}
		assert.Equal(t, "hello world", got.String(), "chunk size %d", chunk)
	}
}

func TestExtractorUnicodeEscape(t *testing.T) {
	var e answerExtractor
	got := e.feed(`{"answer": "café", "sources": []}`)
	assert.Equal(t, "café", got)
}
