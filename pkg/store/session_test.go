package store

import "testing"

func TestHistoryIsLiteralConcatenation(t *testing.T) {
	s := &Session{}

	turns := []struct {
		question string
		answer   string
	}{
		{"What is the onboarding process?", "It starts with IT setup.\nSources: onboarding.pdf"},
		{"Who approves travel?", "The line manager.\nSources: AI knowledge"},
		{"", ""},
	}

	want := ""
	for _, turn := range turns {
		s.AppendUserTurn(turn.question)
		want += "User: " + turn.question + "\n"
		s.AppendBotTurn(turn.answer)
		want += "Bot: " + turn.answer + "\n"
	}

	if s.History != want {
		t.Errorf("History = %q, want %q", s.History, want)
	}
}

func TestSessionReady(t *testing.T) {
	s := &Session{}
	if s.Ready() {
		t.Error("Ready() = true for session without vector store handles")
	}
}
