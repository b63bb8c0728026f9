package engine

import (
	"context"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/pkg/rag/sources"
	"docchat-be/pkg/rag/vision"
	"docchat-be/pkg/store"
)

type fixedRetriever struct {
	docs    []store.Document
	queries []string
	mu      sync.Mutex
}

func (f *fixedRetriever) Retrieve(_ context.Context, query string) ([]store.Document, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	f.mu.Unlock()
	return f.docs, nil
}

type fixedPipeline struct {
	out   store.PipelineOutput
	block chan struct{} // when set, Invoke waits until closed
	seen  []store.PipelineInputs
	mu    sync.Mutex
}

func (f *fixedPipeline) Invoke(_ context.Context, in store.PipelineInputs, emit func(string) error) (*store.PipelineOutput, error) {
	f.mu.Lock()
	f.seen = append(f.seen, in)
	f.mu.Unlock()
	if f.block != nil {
		<-f.block
	}
	if emit != nil {
		if err := emit(f.out.FinalText); err != nil {
			return nil, err
		}
	}
	out := f.out
	return &out, nil
}

type fixedVision struct{ description string }

func (f *fixedVision) DescribeImage(_ context.Context, _ string, _ []byte, _ []string) (string, error) {
	return f.description, nil
}

func newTestEngine(v *fixedVision) *Engine {
	logger := log.New(os.Stderr, "[test] ", log.LstdFlags)
	return NewEngine(vision.NewPreprocessor(v), sources.NewResolver(os.TempDir()), logger)
}

func newTestSession(p store.AnswerPipeline, r store.Retriever) *store.Session {
	return &store.Session{
		ID:         "sess-1",
		UserID:     "user-1",
		Collection: "engineering",
		Default:    r,
		Active:     r,
		Pipeline:   p,
	}
}

func TestRunTurnAppendsHistory(t *testing.T) {
	pipeline := &fixedPipeline{out: store.PipelineOutput{
		Answer:    "yes",
		FinalText: "yes\nSources: AI knowledge",
	}}
	session := newTestSession(pipeline, &fixedRetriever{})
	e := newTestEngine(&fixedVision{})

	res, err := e.RunTurn(context.Background(), session, TurnInput{Question: "is it?"}, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, "yes\nSources: AI knowledge", res.FinalText)
	assert.Equal(t, "User: is it?\nBot: yes\nSources: AI knowledge\n", session.History)

	_, err = e.RunTurn(context.Background(), session, TurnInput{Question: "again?"}, Hooks{})
	require.NoError(t, err)
	assert.Equal(t,
		"User: is it?\nBot: yes\nSources: AI knowledge\nUser: again?\nBot: yes\nSources: AI knowledge\n",
		session.History)
}

func TestRunTurnImageAugmentsQuestionAndRetriesRetrieval(t *testing.T) {
	retriever := &fixedRetriever{}
	pipeline := &fixedPipeline{out: store.PipelineOutput{FinalText: "ok\nSources: AI knowledge"}}
	session := newTestSession(pipeline, retriever)
	e := newTestEngine(&fixedVision{description: "a bar chart"})

	res, err := e.RunTurn(context.Background(), session, TurnInput{
		Question: "what does it show?",
		Image:    &ImageInput{MimeType: "image/png", Data: []byte{1}},
	}, Hooks{})
	require.NoError(t, err)
	assert.Equal(t, "a bar chart", res.ImageDescription)

	// the ensemble queries both retriever slots, twice: raw then augmented
	require.Len(t, retriever.queries, 4)
	assert.Equal(t, "what does it show?", retriever.queries[0])
	augmented := vision.Augment("a bar chart", "what does it show?")
	assert.Equal(t, augmented, retriever.queries[2])

	// the pipeline sees the augmented question, history records the raw one
	require.Len(t, pipeline.seen, 1)
	assert.Equal(t, augmented, pipeline.seen[0].Question)
	assert.Contains(t, session.History, "User: what does it show?\n")
}

func TestRunTurnStateSequence(t *testing.T) {
	pipeline := &fixedPipeline{out: store.PipelineOutput{FinalText: "ok\nSources: AI knowledge"}}
	session := newTestSession(pipeline, &fixedRetriever{})
	e := newTestEngine(&fixedVision{description: "desc"})

	var states []TurnState
	_, err := e.RunTurn(context.Background(), session, TurnInput{
		Question: "q",
		Image:    &ImageInput{MimeType: "image/png", Data: []byte{1}},
	}, Hooks{OnState: func(s TurnState) { states = append(states, s) }})
	require.NoError(t, err)

	assert.Equal(t, []TurnState{
		StateRetrieving,
		StateDescribingImage,
		StateRetrieving,
		StateGenerating,
		StateFinalizing,
		StateIdle,
	}, states)
}

func TestRunTurnRejectsConcurrentMessages(t *testing.T) {
	block := make(chan struct{})
	pipeline := &fixedPipeline{
		out:   store.PipelineOutput{FinalText: "ok\nSources: AI knowledge"},
		block: block,
	}
	session := newTestSession(pipeline, &fixedRetriever{})
	e := newTestEngine(&fixedVision{})

	done := make(chan error, 1)
	go func() {
		_, err := e.RunTurn(context.Background(), session, TurnInput{Question: "slow"}, Hooks{})
		done <- err
	}()

	// wait for the first turn to take the lock
	require.Eventually(t, func() bool {
		pipeline.mu.Lock()
		defer pipeline.mu.Unlock()
		return len(pipeline.seen) == 1
	}, time.Second, 5*time.Millisecond)

	_, err := e.RunTurn(context.Background(), session, TurnInput{Question: "eager"}, Hooks{})
	assert.ErrorIs(t, err, ErrSessionBusy)

	close(block)
	require.NoError(t, <-done)
}

func TestRunTurnNotReady(t *testing.T) {
	session := &store.Session{ID: "s", Pipeline: &fixedPipeline{}}
	e := newTestEngine(&fixedVision{})
	_, err := e.RunTurn(context.Background(), session, TurnInput{Question: "q"}, Hooks{})
	assert.ErrorIs(t, err, ErrSessionNotReady)
}
