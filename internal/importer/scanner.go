package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// datePrefix matches file names such as "2024-06-01 lake.md".
var datePrefix = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})[ _-]*`)

// ScannedFile represents a markdown journal file found during scanning.
type ScannedFile struct {
	RelPath string    // Relative path from the import root, with forward slashes
	AbsPath string    // Absolute file path
	Date    time.Time // From a YYYY-MM-DD file name prefix, else the modification time
	Stem    string    // File name without extension and date prefix
}

// Scan walks root and returns every markdown file ordered by date, then path.
// Hidden directories such as .git and .obsidian are skipped.
func Scan(ctx context.Context, root string) ([]ScannedFile, error) {
	var files []ScannedFile

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".md") {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}

		date, stem := parseFileName(info.Name())
		if date.IsZero() {
			date = info.ModTime()
		}
		files = append(files, ScannedFile{
			RelPath: filepath.ToSlash(relPath),
			AbsPath: path,
			Date:    date,
			Stem:    stem,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}

	sort.SliceStable(files, func(i, j int) bool {
		if !files[i].Date.Equal(files[j].Date) {
			return files[i].Date.Before(files[j].Date)
		}
		return files[i].RelPath < files[j].RelPath
	})
	return files, nil
}

// parseFileName splits "2024-06-01 lake day.md" into its date and "lake day".
// The date is zero when the name has no valid date prefix.
func parseFileName(name string) (time.Time, string) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	m := datePrefix.FindStringSubmatch(stem)
	if m == nil {
		return time.Time{}, stem
	}
	date, err := time.Parse("2006-01-02", m[1])
	if err != nil {
		return time.Time{}, stem
	}
	return date, strings.TrimSpace(stem[len(m[0]):])
}
