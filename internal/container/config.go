// Package container provides dependency injection and lifecycle management
// for the visitor kiosk following Clean Architecture principles.
package container

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/garyjia/visitor-kiosk/internal/application/port"
	"github.com/garyjia/visitor-kiosk/internal/application/workflow"
)

// Option overrides a component the container would otherwise build itself
type Option func(*overrides)

type overrides struct {
	scheduler workflow.Scheduler
	registry  *prometheus.Registry
	otp       port.OTPVerifier
	exporter  port.VisitExporter
}

// WithScheduler replaces the ticker scheduler driving guard polls
func WithScheduler(s workflow.Scheduler) Option {
	return func(o *overrides) {
		o.scheduler = s
	}
}

// WithRegistry registers metrics on reg instead of a fresh registry
func WithRegistry(reg *prometheus.Registry) Option {
	return func(o *overrides) {
		o.registry = reg
	}
}

// WithOTPVerifier replaces the format-only OTP verifier
func WithOTPVerifier(v port.OTPVerifier) Option {
	return func(o *overrides) {
		o.otp = v
	}
}

// WithExporter replaces the xlsx visit log exporter
func WithExporter(e port.VisitExporter) Option {
	return func(o *overrides) {
		o.exporter = e
	}
}
