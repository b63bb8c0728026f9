package retrieval

import (
	"context"
	"fmt"
	"sort"

	"docchat-be/pkg/store"
)

// rrfConstant dampens the influence of rank position in reciprocal rank fusion.
const rrfConstant = 60

// Default weighting: the shared collection dominates, the user-selected
// collection supplements it.
const (
	DefaultCollectionWeight = 0.7
	ActiveCollectionWeight  = 0.3
)

// EnsembleRetriever fuses the results of several retrievers with weighted
// reciprocal rank fusion. Documents appearing in more than one result list
// are merged into a single entry with their fusion scores summed.
type EnsembleRetriever struct {
	retrievers []store.Retriever
	weights    []float64
}

func NewEnsembleRetriever(retrievers []store.Retriever, weights []float64) (*EnsembleRetriever, error) {
	if len(retrievers) == 0 {
		return nil, fmt.Errorf("ensemble requires at least one retriever")
	}
	if len(retrievers) != len(weights) {
		return nil, fmt.Errorf("ensemble: %d retrievers but %d weights", len(retrievers), len(weights))
	}
	return &EnsembleRetriever{retrievers: retrievers, weights: weights}, nil
}

type fusedDoc struct {
	doc   store.Document
	score float64
	order int // first-encounter position, breaks score ties
}

func (e *EnsembleRetriever) Retrieve(ctx context.Context, query string) ([]store.Document, error) {
	fused := make(map[string]*fusedDoc)
	order := 0

	for i, r := range e.retrievers {
		docs, err := r.Retrieve(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("ensemble retriever %d: %w", i, err)
		}
		for rank, doc := range docs {
			// Identity is the content itself. The same chunk stored in two
			// collections carries distinct row IDs, yet must fuse into one
			// entry with its scores summed.
			key := doc.Source + "\x00" + doc.Content
			contribution := e.weights[i] / float64(rank+1+rrfConstant)
			if existing, ok := fused[key]; ok {
				existing.score += contribution
			} else {
				fused[key] = &fusedDoc{doc: doc, score: contribution, order: order}
				order++
			}
		}
	}

	ranked := make([]*fusedDoc, 0, len(fused))
	for _, f := range fused {
		ranked = append(ranked, f)
	}
	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].score != ranked[b].score {
			return ranked[a].score > ranked[b].score
		}
		return ranked[a].order < ranked[b].order
	})

	out := make([]store.Document, len(ranked))
	for i, f := range ranked {
		out[i] = f.doc
		out[i].Score = float32(f.score)
	}
	return out, nil
}
