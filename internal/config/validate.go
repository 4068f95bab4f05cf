package config

import (
	"fmt"
	"strings"
)

// ValidationError accumulates config validation errors.
type ValidationError struct {
	Errors []string
}

func (v *ValidationError) Error() string {
	return "config validation failed:\n  - " + strings.Join(v.Errors, "\n  - ")
}

// HasErrors reports whether any validation errors have been recorded.
func (v *ValidationError) HasErrors() bool {
	return len(v.Errors) > 0
}

// Add records a formatted validation error.
func (v *ValidationError) Add(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}

// Validate checks cfg for structural correctness. It returns a *ValidationError
// listing every problem found.
func Validate(cfg *File) error {
	ve := &ValidationError{}
	validateLogger(cfg, ve)
	validateStorage(cfg, ve)
	validateActuator(cfg, ve)
	validateBaseline(cfg, ve)
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func validateLogger(cfg *File, ve *ValidationError) {
	switch strings.ToLower(cfg.Logger.Format) {
	case "", "text", "json":
	default:
		ve.Add("logger.format %q must be text or json", cfg.Logger.Format)
	}
}

func validateStorage(cfg *File, ve *ValidationError) {
	if cfg.Storage.Path == "" {
		ve.Add("storage.path must not be empty")
	}
	if cfg.Storage.Namespace == "" {
		ve.Add("storage.namespace must not be empty")
	}
}

func validateActuator(cfg *File, ve *ValidationError) {
	a := cfg.Actuator
	switch a.Kind {
	case "none", "terminal":
	case "gpio":
		if a.BuzzerPin < 0 || a.LEDPin < 0 {
			ve.Add("actuator pins must be >= 0")
		}
	case "serial":
		if a.SerialPort == "" {
			ve.Add("actuator.serial_port is required when kind is serial")
		}
		if a.BaudRate <= 0 {
			ve.Add("actuator.baud_rate must be > 0")
		}
	default:
		ve.Add("actuator.kind %q must be one of none, terminal, gpio, serial", a.Kind)
	}
	if a.Frequency <= 0 {
		ve.Add("actuator.frequency must be > 0")
	}
	if a.Duty < 0 || a.Duty > 255 {
		ve.Add("actuator.duty must be within 0..255")
	}
}

// Baseline duration and floor are clamped at session start, so only the
// medium name is rejected here.
func validateBaseline(cfg *File, ve *ValidationError) {
	switch strings.ToLower(cfg.Baseline.Medium) {
	case "wifi", "ble", "both":
	default:
		ve.Add("baseline.medium %q must be wifi, ble or both", cfg.Baseline.Medium)
	}
}
