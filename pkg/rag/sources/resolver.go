// Package sources recovers document attachments from a rendered answer so
// the client can offer the cited files alongside the reply.
package sources

import (
	"os"
	"path/filepath"
	"strings"
)

// documentExtensions are the attachment types offered in the side panel.
// Plain text sources are cited in-line but not attached.
var documentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
}

const sourcesMarker = "Sources:"

// Attachment is one cited document resolved against the documents directory.
type Attachment struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// ParseSourcesLine extracts the cited source names from the final portion
// of a rendered answer. Returns nil when no sources section exists or the
// attribution is "AI knowledge".
func ParseSourcesLine(text string) []string {
	idx := strings.LastIndex(text, sourcesMarker)
	if idx < 0 {
		return nil
	}
	tail := strings.TrimSpace(text[idx+len(sourcesMarker):])
	if tail == "" || tail == "AI knowledge" {
		return nil
	}

	parts := strings.Split(tail, ",")
	names := make([]string, 0, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// IsDocument reports whether the source name carries an attachable
// document extension.
func IsDocument(name string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(name))]
}

// Resolver locates cited documents on disk.
type Resolver struct {
	documentsDir string
}

func NewResolver(documentsDir string) *Resolver {
	return &Resolver{documentsDir: documentsDir}
}

// Resolve parses the answer's sources section and returns the cited
// documents that exist under the documents directory. Citations without a
// document extension, and documents missing from disk, are skipped.
func (r *Resolver) Resolve(finalText string) []Attachment {
	var attachments []Attachment
	for _, name := range ParseSourcesLine(finalText) {
		if !IsDocument(name) {
			continue
		}
		// cited names are bare filenames; never let one climb out of the dir
		base := filepath.Base(name)
		path := filepath.Join(r.documentsDir, base)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		attachments = append(attachments, Attachment{Name: base, Path: path})
	}
	return attachments
}
