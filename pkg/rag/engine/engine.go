// Package engine drives one conversational turn end to end: retrieval,
// optional image preprocessing, answer generation, and source resolution.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"docchat-be/pkg/rag/retrieval"
	"docchat-be/pkg/rag/sources"
	"docchat-be/pkg/rag/vision"
	"docchat-be/pkg/store"
)

// TurnState is the phase a running turn is in, surfaced to the client as
// status events.
type TurnState string

const (
	StateIdle            TurnState = "idle"
	StateRetrieving      TurnState = "retrieving"
	StateDescribingImage TurnState = "describing_image"
	StateGenerating      TurnState = "generating"
	StateFinalizing      TurnState = "finalizing"
)

// ErrSessionBusy is returned when a message arrives while the session is
// still processing the previous one. Turns are strictly sequential.
var ErrSessionBusy = errors.New("session is already processing a message")

// ErrSessionNotReady is returned when the session's vector store handles
// were never initialized.
var ErrSessionNotReady = errors.New("session retrievers are not initialized")

// ImageInput is an optional image attached to the turn.
type ImageInput struct {
	MimeType string
	Data     []byte
}

// TurnInput is everything the user submitted for one turn.
type TurnInput struct {
	Question string
	Image    *ImageInput
}

// TurnResult is the finished turn.
type TurnResult struct {
	Answer           string
	Sources          []string
	FinalText        string
	ImageDescription string
	Attachments      []sources.Attachment
}

// Hooks observe turn progress. Both are optional.
type Hooks struct {
	OnState    func(state TurnState)
	OnFragment func(fragment string) error
}

func (h Hooks) setState(s TurnState) {
	if h.OnState != nil {
		h.OnState(s)
	}
}

// Engine executes turns against in-memory sessions. One engine serves all
// sessions; per-session locks keep each session's turns sequential.
type Engine struct {
	preprocessor *vision.Preprocessor
	resolver     *sources.Resolver
	logger       *log.Logger

	locks sync.Map // session ID -> *sync.Mutex
}

func NewEngine(preprocessor *vision.Preprocessor, resolver *sources.Resolver, logger *log.Logger) *Engine {
	return &Engine{
		preprocessor: preprocessor,
		resolver:     resolver,
		logger:       logger,
	}
}

func (e *Engine) sessionLock(id string) *sync.Mutex {
	mu, _ := e.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

// ReleaseSession drops the lock entry of an ended session.
func (e *Engine) ReleaseSession(id string) {
	e.locks.Delete(id)
}

// RunTurn executes one full turn. A second call for the same session while
// one is in flight fails with ErrSessionBusy.
func (e *Engine) RunTurn(ctx context.Context, session *store.Session, in TurnInput, hooks Hooks) (*TurnResult, error) {
	if !session.Ready() || session.Pipeline == nil {
		return nil, ErrSessionNotReady
	}

	mu := e.sessionLock(session.ID)
	if !mu.TryLock() {
		return nil, ErrSessionBusy
	}
	defer mu.Unlock()
	defer hooks.setState(StateIdle)

	ensemble, err := retrieval.NewEnsembleRetriever(
		[]store.Retriever{session.Default, session.Active},
		[]float64{retrieval.DefaultCollectionWeight, retrieval.ActiveCollectionWeight},
	)
	if err != nil {
		return nil, err
	}

	hooks.setState(StateRetrieving)
	docs, err := ensemble.Retrieve(ctx, in.Question)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	question := in.Question
	description := ""
	if in.Image != nil {
		hooks.setState(StateDescribingImage)
		description, err = e.preprocessor.Describe(ctx, in.Image.MimeType, in.Image.Data)
		if err != nil {
			return nil, err
		}
		question = vision.Augment(description, in.Question)

		// the description may match documents the raw question missed
		hooks.setState(StateRetrieving)
		docs, err = ensemble.Retrieve(ctx, question)
		if err != nil {
			return nil, fmt.Errorf("retrieval failed: %w", err)
		}
	}

	hooks.setState(StateGenerating)
	out, err := session.Pipeline.Invoke(ctx, store.PipelineInputs{
		Question:    question,
		Context:     docs,
		ChatHistory: session.History,
	}, hooks.OnFragment)
	if err != nil {
		return nil, err
	}

	hooks.setState(StateFinalizing)
	session.AppendUserTurn(in.Question)
	session.AppendBotTurn(out.FinalText)

	attachments := e.resolver.Resolve(out.FinalText)
	e.logger.Printf("[DEBUG] Turn finished for session %s: %d context docs, %d attachments",
		session.ID, len(docs), len(attachments))

	return &TurnResult{
		Answer:           out.Answer,
		Sources:          out.Sources,
		FinalText:        out.FinalText,
		ImageDescription: description,
		Attachments:      attachments,
	}, nil
}
