package api

import (
	"errors"
	"fmt"

	"github.com/hwbench/station/pkg/util"
)

type (
	// Option is a single selectable choice presented to the operator
	Option struct {
		Value any    `json:"value"`
		Name  string `json:"name"`
	}

	// Options is an ordered list of selectable choices
	Options []Option
)

var (
	ErrNoOptions          = errors.New("at least one option required")
	ErrOptionNameEmpty    = errors.New("option name empty")
	ErrDuplicateOption    = errors.New("duplicate option name")
	ErrBadOptionSpecifier = errors.New("bad option specifier")
)

// Opt constructs an explicit (label, value) option pair
func Opt(name string, value any) Option {
	return Option{Name: name, Value: value}
}

// NormalizeOptions converts author-supplied option specifiers into Options.
// A specifier may be a bare string label (the value equals the label), an
// Option, or an Options list to splice in
func NormalizeOptions(specs ...any) (Options, error) {
	var res Options
	for _, spec := range specs {
		switch o := spec.(type) {
		case string:
			res = append(res, Option{Name: o, Value: o})
		case Option:
			res = append(res, o)
		case Options:
			res = append(res, o...)
		case []string:
			for _, s := range o {
				res = append(res, Option{Name: s, Value: s})
			}
		default:
			return nil, fmt.Errorf("%w: %T", ErrBadOptionSpecifier, spec)
		}
	}
	return res, nil
}

// Validate checks that the list is non-empty with unique, non-empty names
func (o Options) Validate() error {
	if len(o) == 0 {
		return ErrNoOptions
	}
	seen := util.Set[string]{}
	for _, opt := range o {
		if opt.Name == "" {
			return ErrOptionNameEmpty
		}
		if seen.Contains(opt.Name) {
			return fmt.Errorf("%w: %s", ErrDuplicateOption, opt.Name)
		}
		seen.Add(opt.Name)
	}
	return nil
}

// ByValue returns the first option whose value equals v
func (o Options) ByValue(v any) (Option, bool) {
	for _, opt := range o {
		if optionValueEqual(opt.Value, v) {
			return opt, true
		}
	}
	return Option{}, false
}

// ByName returns the option with the given name
func (o Options) ByName(name string) (Option, bool) {
	for _, opt := range o {
		if opt.Name == name {
			return opt, true
		}
	}
	return Option{}, false
}

// optionValueEqual compares option values loosely enough to survive a JSON
// round trip, where all numbers arrive as float64
func optionValueEqual(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := asFloat(a)
	bf, bok := asFloat(b)
	return aok && bok && af == bf
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
