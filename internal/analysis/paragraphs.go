package analysis

import (
	"errors"
	"fmt"
	"mime"
	"strings"

	"journal-ai/internal/storage"
)

// ErrUnsupportedMediaType is returned for attachments that are not audio,
// images or PDF documents.
var ErrUnsupportedMediaType = errors.New("unsupported media type")

// Paragraph is one non-empty line of an entry body.
type Paragraph struct {
	Index int // position among the non-empty lines, from 0
	Text  string
}

// SplitParagraphs splits body on line breaks and drops blank lines.
// Indexes are contiguous and follow the order lines appear in body.
func SplitParagraphs(body string) []Paragraph {
	lines := strings.Split(body, "\n")
	paragraphs := make([]Paragraph, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		paragraphs = append(paragraphs, Paragraph{Index: len(paragraphs), Text: line})
	}
	return paragraphs
}

// NormalizeTags trims tag names and drops blanks and repeats, keeping the
// first occurrence order.
func NormalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

// CountWords counts whitespace-delimited tokens.
func CountWords(body string) int {
	return len(strings.Fields(body))
}

// ClassifyMIME maps a content type to an attachment file type by prefix.
// Parameters such as charset are ignored.
func ClassifyMIME(contentType string) (storage.FileType, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}

	switch {
	case strings.HasPrefix(mediaType, "audio/"):
		return storage.FileAudio, nil
	case strings.HasPrefix(mediaType, "image/"):
		return storage.FileImage, nil
	case mediaType == "application/pdf":
		return storage.FileDocument, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
}
