package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// MoodKind tags the variant held by a Mood.
type MoodKind string

const (
	MoodPreset MoodKind = "preset"
	MoodCustom MoodKind = "custom"
)

// Preset mood names understood by the dashboard.
const (
	MoodLow    = "LOW"
	MoodNormal = "NORMAL"
	MoodHigh   = "HIGH"
)

// Mood is either a named preset or a custom emoji with a label.
type Mood struct {
	Kind  MoodKind `json:"kind"`
	Name  string   `json:"name,omitempty"`
	Emoji string   `json:"emoji,omitempty"`
	Label string   `json:"label,omitempty"`
}

// PresetMood builds a preset variant.
func PresetMood(name string) Mood {
	return Mood{Kind: MoodPreset, Name: strings.ToUpper(name)}
}

// CustomMood builds a custom variant.
func CustomMood(emoji, label string) Mood {
	return Mood{Kind: MoodCustom, Emoji: emoji, Label: label}
}

// Validate checks that exactly the fields of the tagged variant are set.
func (m Mood) Validate() error {
	switch m.Kind {
	case MoodPreset:
		switch m.Name {
		case MoodLow, MoodNormal, MoodHigh:
		default:
			return fmt.Errorf("%w: unknown mood preset %q", ErrInvalidInput, m.Name)
		}
		if m.Emoji != "" || m.Label != "" {
			return fmt.Errorf("%w: preset mood carries custom fields", ErrInvalidInput)
		}
	case MoodCustom:
		if strings.TrimSpace(m.Emoji) == "" || strings.TrimSpace(m.Label) == "" {
			return fmt.Errorf("%w: custom mood needs emoji and label", ErrInvalidInput)
		}
		if m.Name != "" {
			return fmt.Errorf("%w: custom mood carries a preset name", ErrInvalidInput)
		}
	default:
		return fmt.Errorf("%w: unknown mood kind %q", ErrInvalidInput, m.Kind)
	}
	return nil
}

// Value stores the mood as JSON text.
func (m Mood) Value() (driver.Value, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(raw), nil
}

// Scan reads a mood previously written by Value.
func (m *Mood) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return json.Unmarshal([]byte(v), m)
	case []byte:
		return json.Unmarshal(v, m)
	default:
		return fmt.Errorf("unsupported mood column type %T", src)
	}
}
