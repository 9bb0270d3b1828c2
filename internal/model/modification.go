package model

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ModificationType tags the closed set of batch operations. Every consumer
// switches over it exhaustively; an unknown type is an invalid operation,
// not a crash.
type ModificationType string

const (
	ModCreateFile     ModificationType = "create_file"
	ModReplaceFile    ModificationType = "replace_file"
	ModDeleteFile     ModificationType = "delete_file"
	ModCreateElement  ModificationType = "create_element"
	ModReplaceElement ModificationType = "replace_element"
	ModDeleteElement  ModificationType = "delete_element"
	ModAddImport      ModificationType = "add_import"
	ModRemoveImport   ModificationType = "remove_import"
)

// Position selects where CreateElement splices the new node.
type Position string

const (
	PositionFirstChild Position = "first_child"
	PositionLastChild  Position = "last_child"
	PositionBefore     Position = "before"
	PositionAfter      Position = "after"
)

// DefaultPosition applies when a batch entry leaves the position empty.
const DefaultPosition = PositionLastChild

// Modification is one addressed structural operation. The field set mirrors
// the upstream payload: type, path, content, elementKind, position,
// importPath. Path is the canonical path string; for CreateElement with
// before/after it addresses the sibling anchor, otherwise the container.
type Modification struct {
	Type        ModificationType `yaml:"type" json:"type"`
	Path        string           `yaml:"path" json:"path"`
	Content     string           `yaml:"content,omitempty" json:"content,omitempty"`
	ElementKind ElementKind      `yaml:"elementKind,omitempty" json:"elementKind,omitempty"`
	Position    Position         `yaml:"position,omitempty" json:"position,omitempty"`
	ImportPath  string           `yaml:"importPath,omitempty" json:"importPath,omitempty"`
}

// Normalized returns a copy with defaults filled in.
func (m Modification) Normalized() Modification {
	if m.Position == "" {
		m.Position = DefaultPosition
	}

	return m
}

// TargetFile parses the modification's path and returns the file it
// targets. Operations on distinct target files are independent.
func (m Modification) TargetFile() (string, error) {
	p, err := ParsePath(m.Path)
	if err != nil {
		return "", err
	}

	return p.File, nil
}

// Describe renders a short human-readable label for result listings.
func (m Modification) Describe() string {
	switch m.Type {
	case ModAddImport, ModRemoveImport:
		return fmt.Sprintf("%s %s (%s)", m.Type, m.ImportPath, m.Path)
	default:
		return fmt.Sprintf("%s %s", m.Type, m.Path)
	}
}

// ModificationResult records the outcome of exactly one modification.
// Apply returns one result per input, in input order.
type ModificationResult struct {
	Modification Modification
	// AffectedPath is the canonical path of the touched node on success.
	AffectedPath string
	// Text is the resulting source text of the touched node on success.
	Text string
	// Err is nil on success and a *Error on failure.
	Err error
}

// Succeeded reports whether the modification applied.
func (r ModificationResult) Succeeded() bool {
	return r.Err == nil
}

// Success builds a successful result.
func Success(mod Modification, affectedPath, text string) ModificationResult {
	return ModificationResult{Modification: mod, AffectedPath: affectedPath, Text: text}
}

// Failure builds a failed result.
func Failure(mod Modification, err error) ModificationResult {
	return ModificationResult{Modification: mod, Err: err}
}

// CountFailures returns the number of failed results.
func CountFailures(results []ModificationResult) int {
	failures := 0

	for _, result := range results {
		if !result.Succeeded() {
			failures++
		}
	}

	return failures
}

// BatchSucceeded reports whether every result in the batch succeeded.
func BatchSucceeded(results []ModificationResult) bool {
	return CountFailures(results) == 0
}

// Batch is the on-disk shape of a modification batch. YAML is the primary
// encoding; JSON payloads parse through the same decoder.
type Batch struct {
	Modifications []Modification `yaml:"modifications" json:"modifications"`
}

// ParseBatch decodes a batch document and applies per-entry defaults.
func ParseBatch(data []byte) (Batch, error) {
	var batch Batch
	if err := yaml.Unmarshal(data, &batch); err != nil {
		return Batch{}, NewParseError("", fmt.Sprintf("decode batch: %v", err))
	}

	for i, mod := range batch.Modifications {
		batch.Modifications[i] = mod.Normalized()
	}

	return batch, nil
}

// FileChange captures a file's content before and after a batch, used by
// dry runs to render diffs instead of persisting.
type FileChange struct {
	Path   string
	Before string
	After  string
	// Deleted marks a file removed by the batch.
	Deleted bool
	// Created marks a file that did not exist before the batch.
	Created bool
}
