// Package vision turns uploaded images into text so they can participate
// in retrieval like any other context.
package vision

import (
	"context"
	"fmt"
	"strings"

	"docchat-be/pkg/llm"
)

// instructions sent alongside every image
var describeInstructions = []string{
	"Describe the visual content of the image in detail.",
	"If the image contains any readable text, transcribe it exactly as written.",
	"Present the description and the transcription as separate sections.",
}

// IsImage reports whether the attachment MIME type denotes an image.
func IsImage(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// Preprocessor produces a text description of an image via a vision model.
type Preprocessor struct {
	provider llm.VisionProvider
}

func NewPreprocessor(provider llm.VisionProvider) *Preprocessor {
	return &Preprocessor{provider: provider}
}

// Describe runs the vision model over the raw image bytes.
func (p *Preprocessor) Describe(ctx context.Context, mimeType string, data []byte) (string, error) {
	if !IsImage(mimeType) {
		return "", fmt.Errorf("unsupported attachment type: %s", mimeType)
	}
	description, err := p.provider.DescribeImage(ctx, mimeType, data, describeInstructions)
	if err != nil {
		return "", fmt.Errorf("image description failed: %w", err)
	}
	return description, nil
}

// Augment rewrites the user's question so the image description travels
// through retrieval and generation as ordinary text.
func Augment(description, question string) string {
	return "Answer the question based on the image and context:\n" + description + "\n" + question
}
