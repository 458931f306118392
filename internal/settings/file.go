package settings

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-viper/mapstructure/v2"
	"go.yaml.in/yaml/v3"
)

// DefaultFileName is the settings file created next to the working directory
const DefaultFileName = "_image_inversion_config.yml"

// FileStore implements Store as a hand-editable YAML file with PascalCase keys
type FileStore struct {
	path string
}

// NewFileStore creates a store backed by the YAML file at path
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the settings file location
func (f *FileStore) Path() string {
	return f.path
}

// Load reads and decodes the settings file. Keys are mapped back to snake
// case before decoding; missing keys keep their default values.
func (f *FileStore) Load() (Record, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return Record{}, fmt.Errorf("read settings: %w", err)
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if raw == nil {
		return Record{}, fmt.Errorf("%w: empty document", ErrMalformed)
	}

	fields := make(map[string]any, len(raw))
	for k, v := range raw {
		fields[SnakeKey(k)] = v
	}

	rec := Defaults()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &rec,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return Record{}, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(fields); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return rec, nil
}

// Save encodes rec with PascalCase keys and atomically replaces the file
func (f *FileStore) Save(rec Record) error {
	var fields map[string]any
	if err := mapstructure.Decode(rec, &fields); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	disk := make(map[string]any, len(fields))
	for k, v := range fields {
		disk[PascalKey(k)] = v
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(disk); err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	return writeFileAtomic(f.path, buf.Bytes())
}

// writeFileAtomic writes data to a temporary file in the target directory
// and renames it over path, so readers never observe a partial file.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close settings: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("chmod settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
