package settings

import "errors"

// ErrMalformed indicates a settings file that exists but cannot be decoded
var ErrMalformed = errors.New("malformed settings file")

// Theme is the UI color scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Valid reports whether t is one of the known themes
func (t Theme) Valid() bool {
	return t == ThemeDark || t == ThemeLight
}

const (
	// DefaultInvertStrength is the strength used on first run
	DefaultInvertStrength = 85
	MinInvertStrength     = 0
	MaxInvertStrength     = 100
)

// Record is the persisted user preferences.
// The mapstructure tags are the in-memory key names; see PascalKey for disk.
type Record struct {
	Theme          Theme `mapstructure:"theme"`
	InvertStrength int   `mapstructure:"invert_strength"`
}

// Defaults returns the first-run settings
func Defaults() Record {
	return Record{
		Theme:          ThemeDark,
		InvertStrength: DefaultInvertStrength,
	}
}

// Normalize corrects an unknown theme to dark and clamps the strength.
// It reports whether anything had to change.
func (r *Record) Normalize() bool {
	changed := false
	if !r.Theme.Valid() {
		r.Theme = ThemeDark
		changed = true
	}
	if s := ClampStrength(r.InvertStrength); s != r.InvertStrength {
		r.InvertStrength = s
		changed = true
	}
	return changed
}

// ClampStrength limits s to the valid invert strength range
func ClampStrength(s int) int {
	return min(max(s, MinInvertStrength), MaxInvertStrength)
}

// Store defines the interface for settings persistence
type Store interface {
	// Load reads the persisted record. A missing file is reported with an
	// error matching fs.ErrNotExist, undecodable content with ErrMalformed.
	Load() (Record, error)
	// Save persists the record, replacing any previous content
	Save(rec Record) error
	// Path returns where the record is stored
	Path() string
}
