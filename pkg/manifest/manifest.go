// Package manifest loads declarative pipeline manifests and compiles them
// into runnable operations bound to an execution's adaptors.
package manifest

import (
	"errors"
	"fmt"
	"os"

	"github.com/aretw0/sluice"
	"github.com/aretw0/sluice/pkg/pipeline"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Manifest describes one pipeline: which backend to talk to and the
// ordered operations to run against it.
type Manifest struct {
	Pipeline   string           `yaml:"pipeline"`
	Backend    pipeline.Backend `yaml:"backend"`
	Operations []OperationSpec  `yaml:"operations"`
}

// OperationSpec names one operation and its loosely-typed parameter block.
type OperationSpec struct {
	Op     string         `yaml:"op"`
	Params map[string]any `yaml:"params"`
}

// Load reads and validates a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates manifest bytes.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the structural requirements a manifest must meet before
// compilation. Operation parameters are validated during Compile.
func (m *Manifest) Validate() error {
	if m.Pipeline == "" {
		return errors.New("manifest: pipeline name is required")
	}
	if m.Backend.Endpoint == "" {
		return errors.New("manifest: backend.endpoint is required")
	}
	if m.Backend.AccessToken == "" && m.Backend.Username == "" {
		return errors.New("manifest: backend needs credentials or an access token")
	}
	if len(m.Operations) == 0 {
		return errors.New("manifest: at least one operation is required")
	}
	for i, spec := range m.Operations {
		if spec.Op == "" {
			return fmt.Errorf("manifest: operation %d has no op name", i)
		}
	}
	return nil
}

type fetchRegistrantParams struct {
	ID string `mapstructure:"id"`
}

type searchGroupsParams struct {
	Filter []any `mapstructure:"filter"`
	Offset int   `mapstructure:"offset"`
}

type enrolledProgramsParams struct {
	ID string `mapstructure:"id"`
}

type submissionsParams struct {
	Form   string `mapstructure:"form"`
	Offset int    `mapstructure:"offset"`
}

// Compile binds the manifest's operation specs to the execution's adaptors,
// preserving order. Unknown operation names and malformed parameter blocks
// fail compilation; nothing is sent to the backend.
func Compile(exec *sluice.Execution, specs []OperationSpec) ([]pipeline.Operation, error) {
	ops := make([]pipeline.Operation, 0, len(specs))

	for i, spec := range specs {
		op, err := compileOne(exec, spec)
		if err != nil {
			return nil, fmt.Errorf("operation %d (%s): %w", i, spec.Op, err)
		}
		ops = append(ops, op)
	}
	return ops, nil
}

func compileOne(exec *sluice.Execution, spec OperationSpec) (pipeline.Operation, error) {
	switch spec.Op {
	case "registry.fetch_registrant":
		var p fetchRegistrantParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errors.New("param id is required")
		}
		return exec.Registry.FetchRegistrant(p.ID, nil), nil

	case "registry.search_groups":
		var p searchGroupsParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		return exec.Registry.SearchGroups(p.Filter, p.Offset, nil), nil

	case "registry.enrolled_programs":
		var p enrolledProgramsParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		if p.ID == "" {
			return nil, errors.New("param id is required")
		}
		return exec.Registry.EnrolledPrograms(p.ID, nil), nil

	case "survey.submissions":
		var p submissionsParams
		if err := decodeParams(spec.Params, &p); err != nil {
			return nil, err
		}
		if p.Form == "" {
			return nil, errors.New("param form is required")
		}
		return exec.Survey.Submissions(p.Form, p.Offset, nil), nil

	default:
		return nil, fmt.Errorf("unknown operation %q", spec.Op)
	}
}

func decodeParams(params map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}
