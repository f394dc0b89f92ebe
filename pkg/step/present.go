package step

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hwbench/station/pkg/api"
)

type (
	// ReqOption adjusts a single interaction request
	ReqOption func(*reqOptions)

	reqOptions struct {
		timeout time.Duration
		size    int
	}
)

// WithSize sets the character width hint of a text input box
func WithSize(size int) ReqOption {
	return func(o *reqOptions) {
		o.size = size
	}
}

// WithTimeout bounds how long a request waits for the operator. Zero waits
// indefinitely, which is the default for a human-paced workflow
func WithTimeout(d time.Duration) ReqOption {
	return func(o *reqOptions) {
		o.timeout = d
	}
}

// PresentButtons shows a row of buttons and blocks until the operator
// clicks one, returning the clicked button's value. Specifiers may be bare
// labels or explicit pairs built with api.Opt; a button whose value is true
// renders green and false renders red
func (c *Context) PresentButtons(specs ...any) (any, error) {
	opts, ro, err := splitSpecs(specs)
	if err != nil {
		return nil, err
	}
	req := c.newRequest(api.KindButtons, "", opts, ro)
	resp, err := c.request(req, ro)
	if err != nil {
		return nil, err
	}
	return req.ResolveValue(resp)
}

// PresentPassFail shows the green Pass / red Fail button pair and returns
// true when the operator clicks Pass
func (c *Context) PresentPassFail(ro ...ReqOption) (bool, error) {
	opt := applyReqOptions(ro)
	req := c.newRequest(api.KindPassFail, "", api.PassFailOptions(), opt)
	resp, err := c.request(req, opt)
	if err != nil {
		return false, err
	}
	return req.ResolveBool(resp)
}

// PresentTextInput shows a prompt with a text box and returns the typed
// string. The box width defaults to api.DefaultTextInputSize characters
func (c *Context) PresentTextInput(
	prompt string, ro ...ReqOption,
) (string, error) {
	opt := applyReqOptions(ro)
	if opt.size <= 0 {
		opt.size = api.DefaultTextInputSize
	}
	req := c.newRequest(api.KindTextInput, prompt, nil, opt)
	resp, err := c.request(req, opt)
	if err != nil {
		return "", err
	}
	return req.ResolveText(resp)
}

// PresentRadios requires the operator to select exactly one option
func (c *Context) PresentRadios(
	prompt string, specs ...any,
) (api.Option, error) {
	return c.presentSingle(api.KindRadios, prompt, false, specs)
}

// PresentCheckboxes lets the operator select any number of options,
// including none, returning the selections in order
func (c *Context) PresentCheckboxes(
	prompt string, specs ...any,
) ([]api.Option, error) {
	return c.presentMulti(api.KindCheckboxes, prompt, false, specs)
}

// PresentSelect shows a dropdown requiring exactly one selection
func (c *Context) PresentSelect(
	prompt string, specs ...any,
) (api.Option, error) {
	return c.presentSingle(api.KindSelect, prompt, false, specs)
}

// PresentMultiSelect shows a dropdown allowing multiple selections,
// returning an ordered, duplicate-free list
func (c *Context) PresentMultiSelect(
	prompt string, specs ...any,
) ([]api.Option, error) {
	return c.presentMulti(api.KindSelect, prompt, true, specs)
}

func (c *Context) presentSingle(
	kind api.InteractionKind, prompt string, multiple bool, specs []any,
) (api.Option, error) {
	opts, ro, err := splitSpecs(specs)
	if err != nil {
		return api.Option{}, err
	}
	req := c.newRequest(kind, prompt, opts, ro)
	req.AllowMultiple = multiple
	resp, err := c.request(req, ro)
	if err != nil {
		return api.Option{}, err
	}
	return req.ResolveOption(resp)
}

func (c *Context) presentMulti(
	kind api.InteractionKind, prompt string, multiple bool, specs []any,
) ([]api.Option, error) {
	opts, ro, err := splitSpecs(specs)
	if err != nil {
		return nil, err
	}
	req := c.newRequest(kind, prompt, opts, ro)
	req.AllowMultiple = multiple
	resp, err := c.request(req, ro)
	if err != nil {
		return nil, err
	}
	return req.ResolveOptions(resp)
}

func (c *Context) newRequest(
	kind api.InteractionKind, prompt string, opts api.Options, ro reqOptions,
) *api.InteractionRequest {
	return &api.InteractionRequest{
		ID:      uuid.NewString(),
		Kind:    kind,
		Prompt:  prompt,
		Options: opts,
		Size:    ro.size,
	}
}

func (c *Context) request(
	req *api.InteractionRequest, ro reqOptions,
) (*api.InteractionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx := c.ctx
	if ro.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ro.timeout)
		defer cancel()
	}
	return c.console.Request(ctx, req)
}

// splitSpecs separates ReqOption values from option specifiers so present
// helpers can take both in one variadic list
func splitSpecs(specs []any) (api.Options, reqOptions, error) {
	var optionSpecs []any
	var ro []ReqOption
	for _, spec := range specs {
		if o, ok := spec.(ReqOption); ok {
			ro = append(ro, o)
			continue
		}
		optionSpecs = append(optionSpecs, spec)
	}
	opts, err := api.NormalizeOptions(optionSpecs...)
	if err != nil {
		return nil, reqOptions{}, err
	}
	return opts, applyReqOptions(ro), nil
}

func applyReqOptions(ro []ReqOption) reqOptions {
	var res reqOptions
	for _, apply := range ro {
		apply(&res)
	}
	return res
}
