package secret

import (
	"context"
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Static is an in-memory secret table for development stations, populated
// from a YAML file and/or NAME=VALUE override pairs
type Static struct {
	values map[string]string
}

var _ Store = (*Static)(nil)

// ErrBadOverride is returned for an override not of the form NAME=VALUE
var ErrBadOverride = fmt.Errorf("override must be NAME=VALUE")

// NewStatic creates a static store from a copy of the given table
func NewStatic(values map[string]string) *Static {
	res := make(map[string]string, len(values))
	maps.Copy(res, values)
	return &Static{values: res}
}

// LoadStatic reads a flat YAML mapping of secret names to values
func LoadStatic(path string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("secrets file %s: %w", path, err)
	}
	return NewStatic(values), nil
}

// ApplyOverrides merges NAME=VALUE pairs into the table, the way a
// developer passes --secret FOO=BAR on the command line
func (s *Static) ApplyOverrides(pairs []string) error {
	for _, pair := range pairs {
		name, value, ok := strings.Cut(pair, "=")
		if !ok || name == "" {
			return fmt.Errorf("%w: %q", ErrBadOverride, pair)
		}
		s.values[name] = value
	}
	return nil
}

// Get implements Store
func (s *Static) Get(_ context.Context, name string) (string, error) {
	if name == "" {
		return "", ErrSecretNameEmpty
	}
	v, ok := s.values[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSecretNotFound, name)
	}
	return v, nil
}
