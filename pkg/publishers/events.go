// Package publishers forwards harvested articles to queues and HTTP sinks declared in a publishers file.
package publishers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Adda-Baaj/khobor-robot/internal/domain"
)

// Logger is the structured logger publishers report through.
type Logger interface {
	DebugObj(msg, event string, fields map[string]any)
	InfoObj(msg, event string, fields map[string]any)
	WarnObj(msg, event string, fields map[string]any)
	ErrorObj(msg, event string, fields map[string]any)
}

type nopLogger struct{}

func (nopLogger) DebugObj(string, string, map[string]any) {}
func (nopLogger) InfoObj(string, string, map[string]any)  {}
func (nopLogger) WarnObj(string, string, map[string]any)  {}
func (nopLogger) ErrorObj(string, string, map[string]any) {}

func ensureLogger(log Logger) Logger {
	if log == nil {
		return nopLogger{}
	}
	return log
}

// Publisher delivers events to one sink.
type Publisher interface {
	ID() string
	Type() string
	Publish(ctx context.Context, evt Event) error
}

// Event is the message published for one harvested article.
type Event struct {
	ProviderID        string    `json:"provider_id"`
	SearchPhrase      string    `json:"search_phrase"`
	WindowStart       string    `json:"window_start"`
	WindowEnd         string    `json:"window_end"`
	Title             *string   `json:"title"`
	Date              *string   `json:"date"`
	Description       *string   `json:"description"`
	Thumbnail         *string   `json:"thumbnail"`
	MentionsMoney     bool      `json:"mentions_money"`
	SearchPhraseCount int       `json:"search_phrase_count"`
	HarvestedAt       time.Time `json:"harvested_at"`
}

// RunInfo describes the run an event belongs to.
type RunInfo struct {
	ProviderID   string
	SearchPhrase string
	StartDate    time.Time
	EndDate      time.Time
	HarvestedAt  time.Time
}

// NewEvents builds one event per article.
func NewEvents(run RunInfo, articles []domain.Article) []Event {
	events := make([]Event, len(articles))
	for i, a := range articles {
		events[i] = Event{
			ProviderID:        run.ProviderID,
			SearchPhrase:      run.SearchPhrase,
			WindowStart:       run.StartDate.Format(time.DateOnly),
			WindowEnd:         run.EndDate.Format(time.DateOnly),
			Title:             a.Title,
			Date:              a.Date,
			Description:       a.Description,
			Thumbnail:         a.Thumbnail,
			MentionsMoney:     a.MentionsMoney,
			SearchPhraseCount: a.SearchPhraseCount,
			HarvestedAt:       run.HarvestedAt,
		}
	}
	return events
}

// Dispatch sends every event to every publisher. Failures are logged and returned joined; delivery continues.
func Dispatch(ctx context.Context, pubs []Publisher, events []Event, log Logger) error {
	log = ensureLogger(log)

	var errs []error
	for _, pub := range pubs {
		sent := 0
		for _, evt := range events {
			if err := ctx.Err(); err != nil {
				return errors.Join(append(errs, err)...)
			}
			if err := pub.Publish(ctx, evt); err != nil {
				log.ErrorObj("publish failed", "publish_error", map[string]any{
					"publisher_id": pub.ID(),
					"type":         pub.Type(),
					"error":        err.Error(),
				})
				errs = append(errs, fmt.Errorf("publisher %s: %w", pub.ID(), err))
				continue
			}
			sent++
		}
		log.InfoObj("publisher finished", "publish_done", map[string]any{
			"publisher_id": pub.ID(),
			"sent":         sent,
			"total":        len(events),
		})
	}
	return errors.Join(errs...)
}
