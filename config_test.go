package amdil

import (
	"testing"

	"github.com/go-logr/logr"
	"github.com/go-logr/logr/funcr"
	"github.com/stretchr/testify/require"

	"github.com/tetratelabs/amdil/internal/device"
)

func TestCompilerConfig(t *testing.T) {
	logger := funcr.New(func(prefix, args string) {}, funcr.Options{})
	cc := &cache{dir: "/tmp/amdil"}

	for _, tc := range []struct {
		name     string
		with     func(*CompilerConfig) *CompilerConfig
		expected *CompilerConfig
	}{
		{
			name: "WithTarget",
			with: func(c *CompilerConfig) *CompilerConfig {
				return c.WithTarget("cayman")
			},
			expected: &CompilerConfig{target: "cayman", calVersion: device.DefaultCALVersion, logger: logr.Discard()},
		},
		{
			name: "WithCALVersion",
			with: func(c *CompilerConfig) *CompilerConfig {
				return c.WithCALVersion(device.CALVersionSC135)
			},
			expected: &CompilerConfig{target: "cypress", calVersion: device.CALVersionSC135, logger: logr.Discard()},
		},
		{
			name: "WithCALVersion zero restores the default",
			with: func(c *CompilerConfig) *CompilerConfig {
				return c.WithCALVersion(900).WithCALVersion(0)
			},
			expected: &CompilerConfig{target: "cypress", calVersion: device.DefaultCALVersion, logger: logr.Discard()},
		},
		{
			name: "WithLogger",
			with: func(c *CompilerConfig) *CompilerConfig {
				return c.WithLogger(logger)
			},
			expected: &CompilerConfig{target: "cypress", calVersion: device.DefaultCALVersion, logger: logger},
		},
		{
			name: "WithCompilationCache",
			with: func(c *CompilerConfig) *CompilerConfig {
				return c.WithCompilationCache(cc)
			},
			expected: &CompilerConfig{target: "cypress", calVersion: device.DefaultCALVersion, logger: logr.Discard(), cache: cc},
		},
	} {
		tc := tc

		t.Run(tc.name, func(t *testing.T) {
			input := NewCompilerConfig()
			rc := tc.with(input)
			require.Equal(t, tc.expected.target, rc.target)
			require.Equal(t, tc.expected.calVersion, rc.calVersion)
			require.Equal(t, tc.expected.logger.GetSink() == nil, rc.logger.GetSink() == nil)
			require.Equal(t, tc.expected.cache, rc.cache)
			// The source wasn't modified
			require.Equal(t, NewCompilerConfig(), input)
		})
	}
}

func TestNewCompilerWithConfig(t *testing.T) {
	t.Run("unknown target", func(t *testing.T) {
		_, err := NewCompilerWithConfig(NewCompilerConfig().WithTarget("tahiti"))
		require.EqualError(t, err, `unknown device "tahiti"`)
	})
	t.Run("targets", func(t *testing.T) {
		for _, name := range device.Names() {
			c, err := NewCompilerWithConfig(NewCompilerConfig().WithTarget(name))
			require.NoError(t, err)
			require.Equal(t, name, c.Device())
		}
	})
	t.Run("default", func(t *testing.T) {
		require.Equal(t, "cypress", NewCompiler().Device())
	})
}
