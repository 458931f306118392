package history

import "time"

// Target identifies where an exported image went
type Target string

const (
	TargetFile      Target = "file"
	TargetClipboard Target = "clipboard"
)

// Export records one saved or copied result
type Export struct {
	ID         string
	SourceName string
	Target     Target
	Path       string // empty for clipboard exports
	Format     string
	Strength   int
	Width      int
	Height     int
	CreatedAt  time.Time
}

// Store defines the interface for the export journal
type Store interface {
	// Add records an export, filling in ID and CreatedAt when empty
	Add(e *Export) error

	// Recent returns up to limit exports, newest first
	Recent(limit int) ([]Export, error)

	// Get retrieves an export by ID, returning nil if it does not exist
	Get(id string) (*Export, error)

	// Close releases resources
	Close() error
}
