// Package config resolves the immutable run configuration from the active key/value source.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Recognised keys and their defaults.
const (
	KeySearchPhrase = "SEARCH_PHRASE"
	KeySections     = "SECTIONS"
	KeyMonths       = "MONTHS"
	KeyOutputFile   = "OUTPUT_FILE"

	DefaultSearchPhrase = "Airport"
	DefaultSections     = "World"
	DefaultMonths       = "2"
	DefaultOutputFile   = "output"
)

// ErrInvalidMonths is matched by every ConfigurationError raised for MONTHS.
var ErrInvalidMonths = errors.New("months must be an integer")

// ConfigurationError reports a configuration value that cannot be interpreted.
type ConfigurationError struct {
	Key   string
	Value string
	Err   error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s=%q: %v", e.Key, e.Value, e.Err)
}

func (e *ConfigurationError) Unwrap() []error {
	return []error{ErrInvalidMonths, e.Err}
}

// Source is a key/value provider. Value returns def when the key is not set.
type Source interface {
	Value(key, def string) string
}

// RunConfig is the resolved, read-only configuration for one run.
type RunConfig struct {
	searchPhrase string
	sections     []string
	months       int
	startDate    time.Time
	endDate      time.Time
	outputFile   string
}

func (c RunConfig) SearchPhrase() string { return c.searchPhrase }
func (c RunConfig) Months() int          { return c.months }
func (c RunConfig) StartDate() time.Time { return c.startDate }
func (c RunConfig) EndDate() time.Time   { return c.endDate }
func (c RunConfig) OutputFile() string   { return c.outputFile }

// Sections returns a copy of the section list.
func (c RunConfig) Sections() []string {
	out := make([]string, len(c.sections))
	copy(out, c.sections)
	return out
}

// draft collects values from a Source before they are sealed into a RunConfig.
type draft struct {
	searchPhrase string
	sections     []string
	months       int
	outputFile   string
}

// Resolve reads the run configuration from src and derives the date window ending on the civil date of now.
func Resolve(src Source, now time.Time) (RunConfig, error) {
	d, err := readDraft(src)
	if err != nil {
		return RunConfig{}, err
	}
	return d.seal(now), nil
}

func readDraft(src Source) (draft, error) {
	d := draft{
		searchPhrase: src.Value(KeySearchPhrase, DefaultSearchPhrase),
		sections:     splitSections(src.Value(KeySections, DefaultSections)),
		outputFile:   src.Value(KeyOutputFile, DefaultOutputFile),
	}
	if d.searchPhrase == "" {
		d.searchPhrase = DefaultSearchPhrase
	}

	raw := src.Value(KeyMonths, DefaultMonths)
	months, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return draft{}, &ConfigurationError{Key: KeyMonths, Value: raw, Err: err}
	}
	if months == 0 {
		months = 1
	}
	d.months = months

	return d, nil
}

func (d draft) seal(now time.Time) RunConfig {
	today := civilDate(now)
	return RunConfig{
		searchPhrase: d.searchPhrase,
		sections:     d.sections,
		months:       d.months,
		startDate:    SubtractMonths(today, d.months),
		endDate:      today,
		outputFile:   d.outputFile,
	}
}

// splitSections splits on commas and trims each piece. Empty pieces are kept.
func splitSections(raw string) []string {
	parts := strings.Split(raw, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func civilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// SubtractMonths moves t back by n calendar months, clamping the day to the end of the target month.
func SubtractMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m-time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysIn(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysIn(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}
