package vision

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVision struct {
	description string
	gotMime     string
	gotData     []byte
}

func (s *stubVision) DescribeImage(_ context.Context, mimeType string, data []byte, _ []string) (string, error) {
	s.gotMime = mimeType
	s.gotData = data
	return s.description, nil
}

func TestIsImage(t *testing.T) {
	assert.True(t, IsImage("image/png"))
	assert.True(t, IsImage("image/jpeg"))
	assert.False(t, IsImage("application/pdf"))
	assert.False(t, IsImage("text/plain"))
	assert.False(t, IsImage(""))
}

func TestDescribeRejectsNonImages(t *testing.T) {
	p := NewPreprocessor(&stubVision{})
	_, err := p.Describe(context.Background(), "application/pdf", []byte("%PDF"))
	assert.Error(t, err)
}

func TestDescribeForwardsImage(t *testing.T) {
	stub := &stubVision{description: "a chart with three bars"}
	p := NewPreprocessor(stub)

	desc, err := p.Describe(context.Background(), "image/png", []byte{0x89, 0x50})
	require.NoError(t, err)
	assert.Equal(t, "a chart with three bars", desc)
	assert.Equal(t, "image/png", stub.gotMime)
	assert.Equal(t, []byte{0x89, 0x50}, stub.gotData)
}

func TestAugment(t *testing.T) {
	got := Augment("a red square", "what color is it?")
	want := "Answer the question based on the image and context:\na red square\nwhat color is it?"
	assert.Equal(t, want, got)
}
