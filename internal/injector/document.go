package injector

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Document is a loaded OpenAPI YAML document. It wraps the raw node tree so
// the injector can mutate matched operations in place without disturbing
// anything else in the file.
type Document struct {
	root *yaml.Node
}

// Load reads and parses the OpenAPI document at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read openapi document: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return doc, nil
}

// Parse parses an OpenAPI document from raw YAML. The top level must be a
// mapping; anything else is unusable and aborts the run.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("unmarshal openapi document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, fmt.Errorf("openapi document is not a YAML mapping")
	}
	return &Document{root: &root}, nil
}

// top returns the document's top-level mapping.
func (d *Document) top() *yaml.Node {
	return d.root.Content[0]
}

// Marshal serializes the document back to YAML.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("marshal openapi document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("marshal openapi document: %w", err)
	}
	return buf.Bytes(), nil
}

// Save writes the document to path. It is only called after the whole
// in-memory mutation succeeded, so a failed run never truncates the target.
func (d *Document) Save(path string) error {
	data, err := d.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write openapi document: %w", err)
	}
	return nil
}
