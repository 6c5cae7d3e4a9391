package compiler

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParseAsset decodes a YAML asset document. Unknown keys are rejected.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - *Asset: the decoded asset
//   - error: error if the document is not a valid asset
func ParseAsset(data []byte) (*Asset, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var a Asset
	if err := dec.Decode(&a); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidAsset, err)
	}
	return &a, nil
}

// LoadAsset reads and decodes the asset at path.
//
// Parameters:
//   - path: file path of a YAML asset
//
// Returns:
//   - *Asset: the decoded asset
//   - error: error if the file cannot be read or decoded
func LoadAsset(path string) (*Asset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", path, err)
	}
	a, err := ParseAsset(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// SaveAsset assigns missing clip config ids and writes the asset to path.
// Saving is the only place config ids are generated, so ids stay stable across edits.
//
// Parameters:
//   - path: destination file path
//   - a: the asset; its clip nodes receive config ids in place
//
// Returns:
//   - error: error if ids cannot be assigned or the file cannot be written
func SaveAsset(path string, a *Asset) error {
	if err := AssignConfigIDs(a); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(a); err != nil {
		return fmt.Errorf("encode asset %s: %w", a.Name, err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode asset %s: %w", a.Name, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write asset %s: %w", path, err)
	}
	return nil
}
