package manifest

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pointy-labs/pointy/internal/apperr"
)

// ParseFile reads and validates a manifest.json file.
func ParseFile(path string) (*Manifest, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Parse validates and decodes a manifest document.
func Parse(data []byte) (*Manifest, error) {
	return decode[Manifest](DocManifest, data)
}

// ParseRelease validates and decodes a latest-release document.
func ParseRelease(data []byte) (*Release, error) {
	return decode[Release](DocRelease, data)
}

// ParseIndex validates and decodes a registry index: a JSON array of
// manifests.
func ParseIndex(data []byte) ([]Manifest, error) {
	list, err := decode[[]Manifest](DocIndex, data)
	if err != nil {
		return nil, err
	}
	return *list, nil
}

// decode validates data against the schema for doc and unmarshals it.
func decode[T any](doc Document, data []byte) (*T, error) {
	result, err := Validate(doc, data)
	if err != nil {
		return nil, apperr.New(apperr.KindSerialization, "parse "+string(doc), err)
	}
	if !result.Valid {
		return nil, apperr.New(apperr.KindSerialization, "parse "+string(doc), result)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, apperr.New(apperr.KindSerialization, "parse "+string(doc), err)
	}
	return &v, nil
}

// readFile reads the contents of a file at the given path.
func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperr.New(apperr.KindFileSystem, "read "+path, err)
	}
	return data, nil
}
