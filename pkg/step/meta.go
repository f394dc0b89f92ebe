package step

import "github.com/hwbench/station/pkg/api"

// MetaOption customizes a step's static metadata at registration time
type MetaOption func(*api.StepMeta)

// WithDisplayName overrides the display name derived from the step ID
func WithDisplayName(name string) MetaOption {
	return func(m *api.StepMeta) {
		m.DisplayName = name
	}
}

// WithDescription sets the description shown in the operator console.
// It defaults to the display name
func WithDescription(desc string) MetaOption {
	return func(m *api.StepMeta) {
		m.Description = desc
	}
}

// WithImage sets the repo-relative path of a static image displayed during
// the step
func WithImage(path string) MetaOption {
	return func(m *api.StepMeta) {
		m.Image = path
	}
}

// WithLink attaches a link shown in the console during the step
func WithLink(url string) MetaOption {
	return func(m *api.StepMeta) {
		m.Link = &api.Link{URL: url}
	}
}

// WithLinkText attaches a link with custom display text
func WithLinkText(url, text string) MetaOption {
	return func(m *api.StepMeta) {
		m.Link = &api.Link{URL: url, Text: text}
	}
}

// WithContinueOnFail lets the run proceed past this step when it fails.
// Steps stop the run on failure by default
func WithContinueOnFail() MetaOption {
	return func(m *api.StepMeta) {
		m.StopOnFail = false
	}
}
