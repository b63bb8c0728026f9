// Package answer generates structured, citation-carrying answers and
// streams them as displayable text.
package answer

import (
	"encoding/json"
	"fmt"
	"strings"

	"docchat-be/pkg/llm"
)

// AnswerWithSources is the structured shape every generation must produce.
// Sources names the documents actually used; empty means the model answered
// from its own knowledge.
type AnswerWithSources struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// schemaJSON constrains generation so Parse never sees free-form text.
const schemaJSON = `{
  "type": "object",
  "properties": {
    "answer": {
      "type": "string",
      "description": "The answer to the user's question."
    },
    "sources": {
      "type": "array",
      "items": {"type": "string"},
      "description": "Filenames of the context documents used to answer. Empty if none were used."
    }
  },
  "required": ["answer", "sources"],
  "additionalProperties": false
}`

// ResponseSchema returns the structured-output contract for the LLM call.
func ResponseSchema() *llm.ResponseSchema {
	return &llm.ResponseSchema{
		Name:   "answer_with_sources",
		Schema: json.RawMessage(schemaJSON),
	}
}

// Parse decodes the model's structured output.
func Parse(raw string) (*AnswerWithSources, error) {
	var out AnswerWithSources
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &out); err != nil {
		return nil, fmt.Errorf("parse structured answer: %w", err)
	}
	return &out, nil
}

// Serialize renders the canonical display form. The sources line is always
// present; "AI knowledge" marks an answer with no document backing.
func Serialize(a *AnswerWithSources) string {
	attribution := "AI knowledge"
	if len(a.Sources) > 0 {
		attribution = strings.Join(a.Sources, ", ")
	}
	return a.Answer + "\nSources: " + attribution
}
