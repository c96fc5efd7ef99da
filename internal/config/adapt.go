package config

import (
	"fmt"
	"time"
)

// Envelope kinds.
const (
	EnvelopeRequire = "require"
	EnvelopeDefine  = "define"
	EnvelopeCustom  = "custom"
)

// Dynamic require policies.
const (
	DynamicRequiresWarn = "warn"
	DynamicRequiresFail = "fail"
)

// AdaptConfig configures module adaptation.
type AdaptConfig struct {
	// Marker is the callee of bundler-internal require calls.
	Marker string `yaml:"marker"`

	// Envelope selects the wrapper: require, define or custom. Template
	// holds the text of a custom envelope.
	Envelope string `yaml:"envelope"`
	Template string `yaml:"template"`

	// DynamicRequires is warn or fail.
	DynamicRequires string `yaml:"dynamic_requires"`

	// Concurrency limits how many bundles are adapted at once.
	Concurrency int `yaml:"concurrency"`

	StripSourceMappingURL bool `yaml:"strip_source_mapping_url"`

	// StaticURLs are asset paths that must be resolved at runtime.
	StaticURLs    []string `yaml:"static_urls"`
	RuntimeHelper string   `yaml:"runtime_helper"`

	// RootElementID, when set, retargets document.getElementById(<id>) to
	// the portlet's element.
	RootElementID string `yaml:"root_element_id"`

	// RootSelector, when set, replaces every literal equal to it with a
	// selector for the portlet's element.
	RootSelector string `yaml:"root_selector"`

	// ExportAsFunction moves the bundle body into
	// module.exports = function(_LIFERAY_PARAMS_, _ADAPT_RT_) {...}. It is
	// implied by StaticURLs, RootElementID and RootSelector, whose rewrites
	// refer to those parameters.
	ExportAsFunction bool `yaml:"export_as_function"`

	// Timeout bounds one adaptation run; empty means no limit.
	Timeout string `yaml:"timeout"`
}

// DefaultAdaptConfig returns the default adaptation settings.
func DefaultAdaptConfig() AdaptConfig {
	return AdaptConfig{
		Marker:                "__REQUIRE__",
		Envelope:              EnvelopeRequire,
		DynamicRequires:       DynamicRequiresWarn,
		Concurrency:           4,
		StripSourceMappingURL: true,
		RuntimeHelper:         "_ADAPT_RT_.adaptStaticURL",
	}
}

// GetTimeout returns the adaptation timeout, zero when unset.
func (c AdaptConfig) GetTimeout() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// ExportsFunction reports whether the bundle body is exported as a function
// of the portlet parameters.
func (c AdaptConfig) ExportsFunction() bool {
	return c.ExportAsFunction || len(c.StaticURLs) > 0 || c.RootElementID != "" || c.RootSelector != ""
}

func (c AdaptConfig) validate() error {
	if !identifier.MatchString(c.Marker) {
		return &ValidationError{Field: "adapt.marker", Message: fmt.Sprintf("%q is not an identifier", c.Marker)}
	}
	switch c.Envelope {
	case EnvelopeRequire, EnvelopeDefine:
	case EnvelopeCustom:
		if c.Template == "" {
			return &ValidationError{Field: "adapt.template", Message: "custom envelope needs a template"}
		}
	default:
		return &ValidationError{Field: "adapt.envelope", Message: fmt.Sprintf("unknown envelope %q (valid: require, define, custom)", c.Envelope)}
	}
	if c.ExportsFunction() && c.Envelope == EnvelopeRequire {
		return &ValidationError{Field: "adapt.envelope", Message: "exporting the module as a function needs the define or custom envelope"}
	}
	switch c.DynamicRequires {
	case DynamicRequiresWarn, DynamicRequiresFail:
	default:
		return &ValidationError{Field: "adapt.dynamic_requires", Message: fmt.Sprintf("unknown policy %q (valid: warn, fail)", c.DynamicRequires)}
	}
	if c.Concurrency < 1 {
		return &ValidationError{Field: "adapt.concurrency", Message: "must be at least 1"}
	}
	if c.Timeout != "" {
		if _, err := time.ParseDuration(c.Timeout); err != nil {
			return &ValidationError{Field: "adapt.timeout", Message: err.Error()}
		}
	}
	return nil
}
