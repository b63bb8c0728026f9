package sources

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourcesLine(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "comma separated names",
			text: "The answer.\nSources: guide.pdf, handbook.docx",
			want: []string{"guide.pdf", "handbook.docx"},
		},
		{
			name: "ai knowledge attribution",
			text: "The answer.\nSources: AI knowledge",
			want: nil,
		},
		{
			name: "no sources section",
			text: "Just an answer.",
			want: nil,
		},
		{
			name: "last marker wins",
			text: "It says Sources: are cited below.\nSources: a.pdf",
			want: []string{"a.pdf"},
		},
		{
			name: "empty entries dropped",
			text: "x\nSources: a.pdf, , b.doc",
			want: []string{"a.pdf", "b.doc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSourcesLine(tt.text))
		})
	}
}

func TestIsDocument(t *testing.T) {
	assert.True(t, IsDocument("report.pdf"))
	assert.True(t, IsDocument("REPORT.PDF"))
	assert.True(t, IsDocument("letter.doc"))
	assert.True(t, IsDocument("letter.docx"))
	assert.False(t, IsDocument("notes.txt"))
	assert.False(t, IsDocument("image.png"))
	assert.False(t, IsDocument("noextension"))
}

func TestResolveReturnsOnlyExistingDocuments(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.pdf"), []byte("%PDF"), 0o644))

	r := NewResolver(dir)
	got := r.Resolve("answer\nSources: guide.pdf, missing.pdf, notes.txt")

	require.Len(t, got, 1)
	assert.Equal(t, "guide.pdf", got[0].Name)
	assert.Equal(t, filepath.Join(dir, "guide.pdf"), got[0].Path)
}

func TestResolveStripsPathComponents(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "guide.pdf"), []byte("%PDF"), 0o644))

	r := NewResolver(dir)
	got := r.Resolve("answer\nSources: ../guide.pdf")
	require.Len(t, got, 1)
	assert.Equal(t, filepath.Join(dir, "guide.pdf"), got[0].Path)
}
