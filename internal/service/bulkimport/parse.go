package bulkimport

import (
	"path/filepath"
	"strings"
)

// Supported upload extensions and the content types they are stored as.
var contentTypes = map[string]string{
	".md":  "text/markdown",
	".txt": "text/plain",
}

type parsedFile struct {
	Title       string
	ContentType string
	Body        string
	WordCount   int
}

// parseFile derives document metadata from an upload. Markdown files take
// their title from the first level-one heading when present; everything else
// falls back to the file name without its extension.
func parseFile(name string, body []byte) (*parsedFile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	contentType, ok := contentTypes[ext]
	if !ok {
		return nil, &FileError{FileName: name, Err: ErrUnsupportedFormat}
	}

	text := string(body)
	if strings.TrimSpace(text) == "" {
		return nil, &FileError{FileName: name, Err: ErrEmptyFile}
	}

	title := ""
	if ext == ".md" {
		title = markdownTitle(text)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}

	return &parsedFile{
		Title:       title,
		ContentType: contentType,
		Body:        text,
		WordCount:   len(strings.Fields(text)),
	}, nil
}

func markdownTitle(text string) string {
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if after, ok := strings.CutPrefix(trimmed, "# "); ok {
			return strings.TrimSpace(after)
		}
	}
	return ""
}
