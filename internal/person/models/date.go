package models

import (
	"errors"
	"time"
)

// DateLayout is the wire and storage layout for exact dates.
const DateLayout = "2006-01-02"

type DateKind string

const (
	DateExact DateKind = "exact"
	DateText  DateKind = "text"
)

// DateDescriptor is either an exact calendar date or a free-text description
// ("about 1890", "spring 1944"). A nil descriptor means unknown.
type DateDescriptor struct {
	Type DateKind `json:"type"`
	Date string   `json:"date,omitempty"`
	Text string   `json:"text,omitempty"`
}

func ExactDate(t time.Time) *DateDescriptor {
	return &DateDescriptor{Type: DateExact, Date: t.Format(DateLayout)}
}

func TextDate(text string) *DateDescriptor {
	return &DateDescriptor{Type: DateText, Text: text}
}

// Validate accepts nil. Exact dates must parse with DateLayout; text dates
// must be non-empty; the unused field must be empty.
func (d *DateDescriptor) Validate() error {
	if d == nil {
		return nil
	}
	switch d.Type {
	case DateExact:
		if d.Text != "" {
			return errors.New("exact date must not carry text")
		}
		if _, err := time.Parse(DateLayout, d.Date); err != nil {
			return errors.New("exact date must use YYYY-MM-DD")
		}
	case DateText:
		if d.Date != "" {
			return errors.New("text date must not carry an exact date")
		}
		if d.Text == "" {
			return errors.New("text date must not be empty")
		}
	default:
		return errors.New("date type must be exact or text")
	}
	return nil
}

func (d *DateDescriptor) Clone() *DateDescriptor {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// ValidWeddingDate accepts an empty string (unknown) or a DateLayout date.
func ValidWeddingDate(s string) bool {
	if s == "" {
		return true
	}
	_, err := time.Parse(DateLayout, s)
	return err == nil
}
