// Package export writes harvested articles to the tabular output file.
package export

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Adda-Baaj/khobor-robot/internal/domain"

	"github.com/gocarina/gocsv"
)

// Record is one CSV row. Absent fields render as empty cells.
type Record struct {
	Title             string `csv:"title"`
	Date              string `csv:"date"`
	Description       string `csv:"description"`
	MentionsMoney     bool   `csv:"mentions_money"`
	SearchPhraseCount int    `csv:"search_phrase_count"`
	Thumbnail         string `csv:"thumbnail"`
}

// Records flattens articles into rows, preserving order.
func Records(articles []domain.Article) []Record {
	out := make([]Record, len(articles))
	for i, a := range articles {
		out[i] = Record{
			Title:             domain.Value(a.Title),
			Date:              domain.Value(a.Date),
			Description:       domain.Value(a.Description),
			MentionsMoney:     a.MentionsMoney,
			SearchPhraseCount: a.SearchPhraseCount,
			Thumbnail:         domain.Value(a.Thumbnail),
		}
	}
	return out
}

// WriteCSV writes articles to {dir}/{base}.csv and returns the file path.
func WriteCSV(dir, base string, articles []domain.Article) (string, error) {
	base = strings.TrimSpace(base)
	if base == "" {
		return "", errors.New("output file name is empty")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	path := filepath.Join(dir, base+".csv")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create csv file: %w", err)
	}
	defer file.Close()

	records := Records(articles)
	if err := gocsv.MarshalFile(&records, file); err != nil {
		return "", fmt.Errorf("write csv: %w", err)
	}
	return path, file.Close()
}
