// Package importer bulk-loads existing markdown journal files as entries.
package importer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"

	"journal-ai/internal/analysis"
	"journal-ai/internal/contextutil"
	"journal-ai/internal/storage"
)

// EntryCreator stores and analyzes one entry.
type EntryCreator interface {
	CreateEntry(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

// Stats counts the outcome of one import run.
type Stats struct {
	Files    int `json:"files"`
	Imported int `json:"imported"` // fully analyzed
	Partial  int `json:"partial"`  // stored with some derived records missing
	Failed   int `json:"failed"`
	Skipped  int `json:"skipped"` // no text
}

// Importer creates an entry for every markdown file under a directory.
type Importer struct {
	entries EntryCreator
	userID  string
	md      goldmark.Markdown
}

// New creates an importer that files entries under userID.
func New(entries EntryCreator, userID string) *Importer {
	return &Importer{entries: entries, userID: userID, md: goldmark.New()}
}

// Run imports every file Scan finds under root, oldest first. A failing
// file is counted and logged; the run stops only when ctx is done.
func (im *Importer) Run(ctx context.Context, root string) (Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := Scan(ctx, root)
	if err != nil {
		return Stats{}, err
	}

	stats := Stats{Files: len(files)}
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		req, err := im.request(f)
		if err != nil {
			logger.WarnContext(ctx, "failed to read journal file", "rel_path", f.RelPath, "error", err)
			stats.Failed++
			continue
		}
		if strings.TrimSpace(req.Body) == "" {
			logger.DebugContext(ctx, "skipping empty journal file", "rel_path", f.RelPath)
			stats.Skipped++
			continue
		}

		result, err := im.entries.CreateEntry(ctx, req)
		switch {
		case err != nil:
			logger.WarnContext(ctx, "failed to import journal file", "rel_path", f.RelPath, "error", err)
			stats.Failed++
		case result.Status == storage.StatusPartial:
			stats.Partial++
		default:
			stats.Imported++
		}
	}

	logger.InfoContext(ctx, "import completed",
		"files", stats.Files,
		"imported", stats.Imported,
		"partial", stats.Partial,
		"failed", stats.Failed,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// request builds the entry for one file. A leading level-1 heading becomes
// the title and is removed from the body; otherwise the file name is used.
func (im *Importer) request(f ScannedFile) (analysis.Request, error) {
	content, err := os.ReadFile(f.AbsPath)
	if err != nil {
		return analysis.Request{}, fmt.Errorf("failed to read file %s: %w", f.AbsPath, err)
	}

	title, body := im.splitTitle(content)
	if title == "" {
		title = f.Stem
	}
	return analysis.Request{
		UserID:    im.userID,
		Title:     title,
		Body:      strings.TrimSpace(string(body)),
		EntryDate: f.Date,
	}, nil
}

func (im *Importer) splitTitle(content []byte) (string, []byte) {
	doc := im.md.Parser().Parse(text.NewReader(content))

	first := doc.FirstChild()
	heading, ok := first.(*ast.Heading)
	if !ok || heading.Level != 1 || heading.Lines().Len() == 0 {
		return "", content
	}

	var title bytes.Buffer
	lines := heading.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		title.Write(seg.Value(content))
	}

	// Drop everything up to the end of the heading line.
	end := lines.At(lines.Len() - 1).Stop
	if nl := bytes.IndexByte(content[end:], '\n'); nl >= 0 {
		end += nl + 1
	} else {
		end = len(content)
	}
	return strings.TrimSpace(title.String()), content[end:]
}
