package history

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cabcoat/cabcoat/internal/models"
	"gopkg.in/yaml.v3"
)

// Summary describes one exported design.
type Summary struct {
	File        string        `yaml:"file"`
	CreatedAt   string        `yaml:"createdat"`
	Session     string        `yaml:"session,omitempty"`
	Color       *models.Color `yaml:"color,omitempty"`
	Hardware    string        `yaml:"hardware,omitempty"`
	Sheen       string        `yaml:"sheen,omitempty"`
	FreeText    string        `yaml:"freetext,omitempty"`
	Instruction string        `yaml:"instruction,omitempty"`
}

// NewSummary builds a summary for an export of the design produced by sel.
func NewSummary(file, sessionID string, sel models.Selection, instruction string, at time.Time) Summary {
	s := Summary{
		File:        filepath.Base(file),
		CreatedAt:   at.UTC().Format(time.RFC3339),
		Session:     sessionID,
		Color:       sel.ResolvedColor(),
		FreeText:    sel.FreeText,
		Instruction: instruction,
	}
	if sel.Hardware.IsChange() {
		s.Hardware = sel.Hardware.Name
	}
	if sel.HasSheen() {
		s.Sheen = sel.Sheen
	}
	return s
}

// SummaryPath returns the sidecar path for an export file.
func SummaryPath(exportPath string) string {
	return strings.TrimSuffix(exportPath, filepath.Ext(exportPath)) + ".yaml"
}

// Marshal encodes the summary as YAML.
func (s Summary) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(&s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return data, nil
}

// WriteSummary writes s next to exportPath and returns the sidecar path.
func WriteSummary(exportPath string, s Summary) (string, error) {
	data, err := s.Marshal()
	if err != nil {
		return "", err
	}

	path := SummaryPath(exportPath)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return path, nil
}

// ReadSummary loads a sidecar written by WriteSummary.
func ReadSummary(path string) (*Summary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read summary: %w", err)
	}
	var s Summary
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse summary: %w", err)
	}
	return &s, nil
}
