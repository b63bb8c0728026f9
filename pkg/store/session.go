package store

import "context"

// Document is a retrieved chunk from a vector collection.
type Document struct {
	ID         string  `json:"id"`
	Collection string  `json:"collection"`
	Source     string  `json:"source"`
	Content    string  `json:"content"`
	Score      float32 `json:"score"`
}

// Retriever is the similarity-search handle a session keeps per collection.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Document, error)
}

// PipelineInputs are the exact three inputs of one answer invocation.
// All continuity between turns travels through ChatHistory.
type PipelineInputs struct {
	Question    string
	Context     []Document
	ChatHistory string
}

// PipelineOutput is the finished result of one answer invocation.
// FinalText is the rendered "{answer}\nSources: ..." form and equals the
// concatenation of every fragment emitted while streaming.
type PipelineOutput struct {
	Answer    string
	Sources   []string
	FinalText string
}

// AnswerPipeline generates a structured answer, emitting displayable text
// fragments as they become available.
type AnswerPipeline interface {
	Invoke(ctx context.Context, in PipelineInputs, emit func(fragment string) error) (*PipelineOutput, error)
}

// Session is the active chat session state held in memory. It is owned by
// exactly one chat session; nothing is shared across sessions.
type Session struct {
	ID         string `json:"id"` // ChatSessionID
	UserID     string `json:"user_id"`
	Collection string `json:"collection"` // currently selected data collection

	// Vector store handles: the shared "default" collection and the
	// user-selected active collection. A settings update swaps Active only.
	Default Retriever `json:"-"`
	Active  Retriever `json:"-"`

	// Prompt pipeline, built once per session and reused across turns.
	Pipeline AnswerPipeline `json:"-"`

	// Append-only transcript blob of alternating "User:"/"Bot:" turns.
	// Never truncated or summarized; growth is an accepted tradeoff.
	History string `json:"history"`
}

// AppendUserTurn records the user's question in the history blob.
func (s *Session) AppendUserTurn(question string) {
	s.History += "User: " + question + "\n"
}

// AppendBotTurn records the finished answer in the history blob.
func (s *Session) AppendBotTurn(answer string) {
	s.History += "Bot: " + answer + "\n"
}

// Ready reports whether both vector store handles are initialized.
func (s *Session) Ready() bool {
	return s.Default != nil && s.Active != nil
}
