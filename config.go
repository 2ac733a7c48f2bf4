package amdil

import (
	"github.com/go-logr/logr"

	"github.com/tetratelabs/amdil/internal/device"
)

// CompilerConfig controls compiler behavior, with the default implementation as NewCompilerConfig.
//
// The zero value is not valid. CompilerConfig is immutable: every WithXxx method returns a
// modified copy and leaves the receiver unchanged, so one config can be shared safely.
type CompilerConfig struct {
	target     string
	calVersion uint32
	logger     logr.Logger
	cache      CompilationCache
}

// defaultConfig helps avoid copy/pasting the wrong defaults.
var defaultConfig = &CompilerConfig{
	target:     "cypress",
	calVersion: device.DefaultCALVersion,
	logger:     logr.Discard(),
}

// clone ensures all fields are copied even if nil.
func (c *CompilerConfig) clone() *CompilerConfig {
	ret := *c
	return &ret
}

// NewCompilerConfig returns a CompilerConfig targeting "cypress" with the default CAL version.
func NewCompilerConfig() *CompilerConfig {
	return defaultConfig.clone()
}

// WithTarget selects the device to compile for by its catalogue name, e.g. "cayman".
//
// An unknown name is reported by NewCompilerWithConfig.
func (c *CompilerConfig) WithTarget(name string) *CompilerConfig {
	ret := c.clone()
	ret.target = name
	return ret
}

// WithCALVersion selects the CAL toolchain version the output is compiled for. Zero restores
// the default.
func (c *CompilerConfig) WithCALVersion(v uint32) *CompilerConfig {
	if v == 0 {
		v = device.DefaultCALVersion
	}
	ret := c.clone()
	ret.calVersion = v
	return ret
}

// WithLogger sets the logger lowering decisions are reported to at V(1). Defaults to
// logr.Discard.
func (c *CompilerConfig) WithLogger(logger logr.Logger) *CompilerConfig {
	ret := c.clone()
	ret.logger = logger
	return ret
}

// WithCompilationCache persists compiled kernels across processes. A nil cache disables it.
//
// See NewCompilationCacheWithDir.
func (c *CompilerConfig) WithCompilationCache(cache CompilationCache) *CompilerConfig {
	ret := c.clone()
	ret.cache = cache
	return ret
}
