// Package manifest provides parsing and validation of ledgerdesk
// document manifests: the YAML/JSON files fed to `ledgerctl create`
// and `ledgerctl update`.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ledgerdesk/ledgerdesk/internal/validate"
	"github.com/ledgerdesk/ledgerdesk/pkg/ledger"
)

// Manifest is one parsed document manifest.
//
//	kind: AdvancePayment
//	spec:
//	  number: AP-0001
//	  date: "2026-08-25"
//	  ...
type Manifest struct {
	Kind ledger.Kind    `yaml:"kind" json:"kind"`
	Spec map[string]any `yaml:"spec" json:"spec"`
}

// Parse parses a manifest from raw bytes (YAML or JSON).
func Parse(data []byte) (*Manifest, error) {
	var m Manifest

	// Try YAML first; YAML is a superset here so JSON usually parses
	// too, but keep the explicit fallback for exotic JSON.
	if err := yaml.Unmarshal(data, &m); err != nil {
		if err2 := json.Unmarshal(data, &m); err2 != nil {
			return nil, fmt.Errorf("failed to parse as YAML: %w, failed to parse as JSON: %v", err, err2)
		}
	}

	if m.Kind == "" {
		return nil, fmt.Errorf("kind is required")
	}
	// Accept CLI spellings ("advance-payment") alongside canonical
	// kinds ("AdvancePayment"), normalizing to the canonical form.
	if _, err := ledger.ResourceByKind(m.Kind); err != nil {
		info, aliasErr := ledger.ResolveResource(strings.ToLower(string(m.Kind)))
		if aliasErr != nil {
			return nil, err
		}
		m.Kind = info.Kind
	}
	if len(m.Spec) == 0 {
		return nil, fmt.Errorf("spec is required")
	}
	return &m, nil
}

// ParseFile parses a manifest from a file.
func ParseFile(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Validate checks the manifest's spec against the resource's write
// schema. Returns *ledger.ValidationError on violations.
func (m *Manifest) Validate() error {
	return validate.Payload(m.Kind, m.Spec)
}

// Resource returns the descriptor for the manifest's kind.
func (m *Manifest) Resource() (ledger.ResourceInfo, error) {
	return ledger.ResourceByKind(m.Kind)
}
