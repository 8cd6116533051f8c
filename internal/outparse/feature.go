package outparse

import (
	"errors"
	"fmt"
	"strings"
)

var ErrIncompatibleCode = errors.New("outparse: spirit build lacks a required feature")

// Feature is a build option a run can depend on.
type Feature string

const (
	FeaturePinning Feature = "Pinning"
	FeatureDefects Feature = "Defects"
)

// IncompatibleError names the feature the Spirit build did not enable.
type IncompatibleError struct {
	Feature Feature
	Info    string
}

func (e *IncompatibleError) Error() string {
	if e.Info == "" {
		return fmt.Sprintf("spirit build reports nothing about %s", e.Feature)
	}
	return fmt.Sprintf("spirit build has %s disabled (%q)", e.Feature, e.Info)
}

func (e *IncompatibleError) Unwrap() error { return ErrIncompatibleCode }

// Require checks that every feature is reported as enabled.
func (r *Record) Require(features ...Feature) error {
	for _, f := range features {
		info := r.VersionInfo[string(f)]
		if !strings.Contains(info, "enabled") {
			return &IncompatibleError{Feature: f, Info: info}
		}
	}
	return nil
}
