package answer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/pkg/store"
)

func TestBuildMessagesSystemInstruction(t *testing.T) {
	messages := buildMessages(store.PipelineInputs{Question: "q"})
	require.Len(t, messages, 2)
	require.Equal(t, "system", messages[0].Role)

	system := messages[0].Content
	assert.Contains(t, system, "You are a helpful chatbot")
	assert.Contains(t, system, "Respond only in markdown")
	assert.Contains(t, system, "never h1 or h2 headings")
	assert.Contains(t, system, "Answer the problem in detail")

	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "q", messages[1].Content)
}

func TestBuildMessagesIncludesContextAndHistory(t *testing.T) {
	messages := buildMessages(store.PipelineInputs{
		Question:    "what changed?",
		ChatHistory: "User: hi\nBot: hello\nSources: AI knowledge",
		Context: []store.Document{
			{Source: "changelog.pdf", Content: "v2 adds exports"},
		},
	})

	system := messages[0].Content
	assert.Contains(t, system, "[source: changelog.pdf]")
	assert.Contains(t, system, "v2 adds exports")
	assert.Contains(t, system, "User: hi\nBot: hello")
}

func TestBuildMessagesOmitsEmptySections(t *testing.T) {
	messages := buildMessages(store.PipelineInputs{Question: "q"})
	system := messages[0].Content
	assert.NotContains(t, system, "<reference_documents>")
	assert.NotContains(t, system, "<conversation_so_far>")
}
