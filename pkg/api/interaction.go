package api

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hwbench/station/pkg/util"
)

type (
	// InteractionKind discriminates the operator input widgets a step may
	// present through the console
	InteractionKind string

	// InteractionRequest is a prompt sent to the operator console. The
	// engine blocks until a correlated InteractionResponse arrives
	InteractionRequest struct {
		ID            string          `json:"id"`
		Kind          InteractionKind `json:"kind"`
		Prompt        string          `json:"prompt,omitempty"`
		Options       Options         `json:"options,omitempty"`
		AllowMultiple bool            `json:"allow_multiple,omitempty"`
		Size          int             `json:"size,omitempty"`
	}

	// InteractionResponse carries the operator's answer, correlated to its
	// originating request by ID
	InteractionResponse struct {
		Value json.RawMessage `json:"value"`
		ID    string          `json:"id"`
	}
)

const (
	KindButtons    InteractionKind = "buttons"
	KindPassFail   InteractionKind = "pass_fail"
	KindTextInput  InteractionKind = "text_input"
	KindRadios     InteractionKind = "radios"
	KindCheckboxes InteractionKind = "checkboxes"
	KindSelect     InteractionKind = "select"
)

// DefaultTextInputSize is the width hint applied to text inputs when the
// step author does not choose one
const DefaultTextInputSize = 50

var (
	ErrRequestIDEmpty     = errors.New("interaction request ID empty")
	ErrInvalidKind        = errors.New("invalid interaction kind")
	ErrInvalidSize        = errors.New("text input size must be positive")
	ErrCorrelation        = errors.New("response does not correlate to request")
	ErrResponseDecode     = errors.New("undecodable response value")
	ErrUnknownOptionValue = errors.New("response value not among options")
	ErrUnknownOptionName  = errors.New("response name not among options")
	ErrDuplicateSelection = errors.New("duplicate selection name")
	ErrSingleSelection    = errors.New("exactly one selection required")

	validKinds = util.SetOf(
		KindButtons,
		KindPassFail,
		KindTextInput,
		KindRadios,
		KindCheckboxes,
		KindSelect,
	)
)

// PassFailOptions returns the fixed option pair presented by a pass/fail
// prompt. Pass carries true and renders green; Fail carries false and
// renders red
func PassFailOptions() Options {
	return Options{
		{Name: "Pass", Value: true},
		{Name: "Fail", Value: false},
	}
}

// Validate checks structural validity of a request before transmission
func (r *InteractionRequest) Validate() error {
	if r.ID == "" {
		return ErrRequestIDEmpty
	}
	if !validKinds.Contains(r.Kind) {
		return fmt.Errorf("%w: %s", ErrInvalidKind, r.Kind)
	}
	switch r.Kind {
	case KindTextInput:
		if r.Size <= 0 {
			return ErrInvalidSize
		}
		return nil
	default:
		return r.Options.Validate()
	}
}

// Resolve validates a response against its originating request and returns
// the kind-appropriate result: the chosen value for buttons, a bool for
// pass/fail, a string for text input, an Option for radios and
// single-select, and []Option for checkboxes and multi-select. A response
// naming an option absent from the request is rejected, never accepted
func (r *InteractionRequest) Resolve(resp *InteractionResponse) (any, error) {
	if resp.ID != r.ID {
		return nil, fmt.Errorf("%w: %s != %s", ErrCorrelation, resp.ID, r.ID)
	}
	switch r.Kind {
	case KindButtons:
		return r.ResolveValue(resp)
	case KindPassFail:
		return r.ResolveBool(resp)
	case KindTextInput:
		return r.ResolveText(resp)
	case KindRadios:
		return r.ResolveOption(resp)
	case KindCheckboxes:
		return r.ResolveOptions(resp)
	case KindSelect:
		if r.AllowMultiple {
			return r.ResolveOptions(resp)
		}
		return r.ResolveOption(resp)
	default:
		return nil, fmt.Errorf("%w: %s", ErrInvalidKind, r.Kind)
	}
}

// ResolveValue resolves a buttons response to the canonical value of the
// clicked option
func (r *InteractionRequest) ResolveValue(
	resp *InteractionResponse,
) (any, error) {
	var value any
	if err := json.Unmarshal(resp.Value, &value); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrResponseDecode, err)
	}
	opt, ok := r.Options.ByValue(value)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownOptionValue, value)
	}
	return opt.Value, nil
}

// ResolveBool resolves a pass/fail response to true for Pass, false for Fail
func (r *InteractionRequest) ResolveBool(
	resp *InteractionResponse,
) (bool, error) {
	value, err := r.ResolveValue(resp)
	if err != nil {
		return false, err
	}
	b, ok := value.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %v", ErrUnknownOptionValue, value)
	}
	return b, nil
}

// ResolveText resolves a text input response to the typed string
func (r *InteractionRequest) ResolveText(
	resp *InteractionResponse,
) (string, error) {
	var s string
	if err := json.Unmarshal(resp.Value, &s); err != nil {
		return "", fmt.Errorf("%w: %w", ErrResponseDecode, err)
	}
	return s, nil
}

// ResolveOption resolves a single-selection response to the canonical
// option named by it
func (r *InteractionRequest) ResolveOption(
	resp *InteractionResponse,
) (Option, error) {
	opts, err := r.decodeSelections(resp)
	if err != nil {
		return Option{}, err
	}
	if len(opts) != 1 {
		return Option{}, fmt.Errorf("%w: got %d",
			ErrSingleSelection, len(opts))
	}
	return opts[0], nil
}

// ResolveOptions resolves a multi-selection response to an ordered,
// duplicate-free list of canonical options. The list may be empty
func (r *InteractionRequest) ResolveOptions(
	resp *InteractionResponse,
) ([]Option, error) {
	return r.decodeSelections(resp)
}

// decodeSelections accepts either a single {name, value} object or an array
// of them, mapping each back to the canonical request option
func (r *InteractionRequest) decodeSelections(
	resp *InteractionResponse,
) ([]Option, error) {
	var picked []Option
	var one Option
	if err := json.Unmarshal(resp.Value, &picked); err != nil {
		if err := json.Unmarshal(resp.Value, &one); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrResponseDecode, err)
		}
		picked = []Option{one}
	}

	res := make([]Option, 0, len(picked))
	seen := util.Set[string]{}
	for _, sel := range picked {
		opt, ok := r.Options.ByName(sel.Name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownOptionName, sel.Name)
		}
		if sel.Value != nil && !optionValueEqual(opt.Value, sel.Value) {
			return nil, fmt.Errorf("%w: %v", ErrUnknownOptionValue, sel.Value)
		}
		if seen.Contains(opt.Name) {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSelection, opt.Name)
		}
		seen.Add(opt.Name)
		res = append(res, opt)
	}
	return res, nil
}
