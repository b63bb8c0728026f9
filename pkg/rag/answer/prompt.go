package answer

import (
	"strings"

	"docchat-be/pkg/llm"
	"docchat-be/pkg/store"
)

// buildMessages assembles the chat payload for one answer invocation.
// Everything the model may rely on travels in here: retrieved documents,
// the running transcript, and the user's question.
func buildMessages(in store.PipelineInputs) []llm.Message {
	var system strings.Builder

	system.WriteString("<task>\n")
	system.WriteString("You are a helpful chatbot answering questions from the user's document collections.\n")
	system.WriteString("Answer using the reference documents below whenever they are relevant.\n")
	system.WriteString("</task>\n\n")

	if len(in.Context) > 0 {
		system.WriteString("<reference_documents>\n")
		for _, doc := range in.Context {
			system.WriteString("[source: ")
			system.WriteString(doc.Source)
			system.WriteString("]\n")
			system.WriteString(doc.Content)
			system.WriteString("\n\n")
		}
		system.WriteString("</reference_documents>\n\n")
	}

	if in.ChatHistory != "" {
		system.WriteString("<conversation_so_far>\n")
		system.WriteString(in.ChatHistory)
		system.WriteString("</conversation_so_far>\n\n")
	}

	system.WriteString("<guidelines>\n")
	system.WriteString("1. Base your answer on the reference documents when they cover the question\n")
	system.WriteString("2. List in sources the exact source names of the documents you actually used\n")
	system.WriteString("3. If no document was useful, answer from general knowledge and leave sources empty\n")
	system.WriteString("4. Never invent source names\n")
	system.WriteString("5. Respond only in markdown: use **bold**, _italics_, headings, lists and fenced code blocks, but never h1 or h2 headings\n")
	system.WriteString("6. Answer the problem in detail\n")
	system.WriteString("</guidelines>")

	return []llm.Message{
		{Role: "system", Content: system.String()},
		{Role: "user", Content: in.Question},
	}
}
