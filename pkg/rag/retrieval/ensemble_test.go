package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docchat-be/pkg/store"
)

type stubRetriever struct {
	docs []store.Document
	err  error
}

func (s *stubRetriever) Retrieve(_ context.Context, _ string) ([]store.Document, error) {
	return s.docs, s.err
}

func doc(id, content string) store.Document {
	return store.Document{ID: id, Collection: "c", Source: "s.pdf", Content: content}
}

func TestEnsembleFusesAndDeduplicates(t *testing.T) {
	primary := &stubRetriever{docs: []store.Document{doc("a", "alpha"), doc("b", "beta")}}
	secondary := &stubRetriever{docs: []store.Document{doc("b", "beta"), doc("c", "gamma")}}

	ensemble, err := NewEnsembleRetriever(
		[]store.Retriever{primary, secondary},
		[]float64{DefaultCollectionWeight, ActiveCollectionWeight},
	)
	require.NoError(t, err)

	results, err := ensemble.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 3)

	// b appears in both lists: 0.7/62 + 0.3/61 > a's 0.7/61
	assert.Equal(t, "b", results[0].ID)
	assert.Equal(t, "a", results[1].ID)
	assert.Equal(t, "c", results[2].ID)
}

func TestEnsembleMergesSameContentAcrossCollections(t *testing.T) {
	// The same chunk embedded in two collections has distinct row IDs;
	// identity is the content, so it fuses into one entry.
	primary := &stubRetriever{docs: []store.Document{
		{ID: "row-1", Collection: "default", Source: "s.pdf", Content: "shared chunk"},
	}}
	secondary := &stubRetriever{docs: []store.Document{
		{ID: "row-2", Collection: "engineering", Source: "s.pdf", Content: "shared chunk"},
	}}

	ensemble, err := NewEnsembleRetriever(
		[]store.Retriever{primary, secondary},
		[]float64{DefaultCollectionWeight, ActiveCollectionWeight},
	)
	require.NoError(t, err)

	results, err := ensemble.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 1)

	assert.Equal(t, "row-1", results[0].ID)
	assert.Equal(t, "shared chunk", results[0].Content)
	assert.InDelta(t, DefaultCollectionWeight/61+ActiveCollectionWeight/61, float64(results[0].Score), 1e-6)
}

func TestEnsembleEqualRanksFavorHigherWeight(t *testing.T) {
	primary := &stubRetriever{docs: []store.Document{doc("a", "alpha")}}
	secondary := &stubRetriever{docs: []store.Document{doc("b", "beta")}}

	ensemble, err := NewEnsembleRetriever(
		[]store.Retriever{primary, secondary},
		[]float64{DefaultCollectionWeight, ActiveCollectionWeight},
	)
	require.NoError(t, err)

	results, err := ensemble.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a", results[0].ID)
	assert.Equal(t, "b", results[1].ID)
}

func TestEnsembleTieBreaksByEncounterOrder(t *testing.T) {
	// Equal weights and equal ranks produce identical scores; first
	// encountered wins.
	first := &stubRetriever{docs: []store.Document{doc("x", "ex")}}
	second := &stubRetriever{docs: []store.Document{doc("y", "why")}}

	ensemble, err := NewEnsembleRetriever(
		[]store.Retriever{first, second},
		[]float64{0.5, 0.5},
	)
	require.NoError(t, err)

	results, err := ensemble.Retrieve(context.Background(), "query")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "x", results[0].ID)
	assert.Equal(t, "y", results[1].ID)
}

func TestEnsembleRejectsMismatchedWeights(t *testing.T) {
	_, err := NewEnsembleRetriever([]store.Retriever{&stubRetriever{}}, []float64{0.7, 0.3})
	assert.Error(t, err)

	_, err = NewEnsembleRetriever(nil, nil)
	assert.Error(t, err)
}
