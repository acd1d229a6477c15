package bt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"
)

// Tree files are plain nested records in JSON or YAML, the save/load
// boundary shared with the editor and content pipeline. Decoding always
// validates, so a malformed tree is rejected at load time and never
// reaches the scheduler.

// DecodeJSON reads and validates a tree from JSON.
func DecodeJSON(r io.Reader) (*Node, error) {
	var n Node
	dec := json.NewDecoder(r)
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("bt: decode tree: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// DecodeYAML reads and validates a tree from YAML.
func DecodeYAML(r io.Reader) (*Node, error) {
	var n Node
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("bt: decode tree: %w", err)
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}
	return &n, nil
}

// EncodeJSON writes the tree as indented JSON.
func EncodeJSON(w io.Writer, n *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(n); err != nil {
		return fmt.Errorf("bt: encode tree: %w", err)
	}
	return nil
}

// Digest returns a stable content hash of the tree. The scheduler compares
// digests to notice a replaced tree and reset its repeater counters.
func (n *Node) Digest() uint64 {
	if n == nil {
		return 0
	}
	raw, err := json.Marshal(n)
	if err != nil {
		return 0
	}
	return xxhash.Sum64(raw)
}
