// Package docs loads plain-text documents for graph building.
package docs

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Document is one loaded file plus its provenance metadata.
type Document struct {
	Text     string
	Metadata map[string]string
}

// Source returns the document's source name, "unknown" when absent.
func (d Document) Source() string {
	if s := d.Metadata["source"]; s != "" {
		return s
	}
	return "unknown"
}

var textExtensions = map[string]bool{
	".txt":  true,
	".md":   true,
	".html": true,
	".csv":  true,
	".json": true,
}

// LoadDirectory reads every recognized text file directly under dir.
// Unreadable files are logged and skipped, they never abort the batch.
// A missing directory yields an empty list.
func LoadDirectory(dir string, logger *log.Logger) []Document {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("documents directory unavailable", "dir", dir, "err", err)
		return nil
	}

	var documents []Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !textExtensions[ext] {
			logger.Debug("skipping non-text file", "file", name)
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Error("failed to read document", "file", name, "err", err)
			continue
		}

		documents = append(documents, Document{
			Text: string(data),
			Metadata: map[string]string{
				"source":    name,
				"file_path": path,
				"file_type": ext,
			},
		})
	}

	logger.Info("loaded documents", "dir", dir, "count", len(documents))
	return documents
}
