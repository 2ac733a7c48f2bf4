// Package amdil compiles kernels written in a textual AMD IL with pseudo operations into the IL
// text a specific Radeon generation executes.
//
// Pseudo operations are the typed, device independent operations a front end emits: sized
// loads and stores into an address space, 64-bit integer arithmetic, conversions, comparisons
// and selects. Compiling lowers each into native instructions the target supports, emulating
// what the hardware lacks, assigns vector-lane swizzles and prints the result.
package amdil

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/tetratelabs/amdil/internal/backend"
	"github.com/tetratelabs/amdil/internal/compilationcache"
	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/il"
	"github.com/tetratelabs/amdil/internal/printer"
	"github.com/tetratelabs/amdil/internal/swizzle"
	"github.com/tetratelabs/amdil/internal/version"
)

// Compiler compiles IL modules for one device. It is safe for concurrent use.
//
// Ex.
//
//	c, err := amdil.NewCompilerWithConfig(amdil.NewCompilerConfig().WithTarget("cayman"))
//	if err != nil {
//		log.Panicln(err)
//	}
//	res, err := c.Compile(ctx, source)
type Compiler interface {
	// Device returns the name of the device the Compiler targets.
	Device() string

	// Compile parses source and compiles every kernel in it.
	//
	// An error is only returned if source does not parse or ctx is done. A kernel that fails to
	// compile reports it in CompiledKernel.Err without affecting the other kernels.
	Compile(ctx context.Context, source []byte) (*Result, error)
}

// Result is the outcome of Compiler.Compile, one CompiledKernel per kernel in source order.
type Result struct {
	Kernels []*CompiledKernel
}

// Err returns the first kernel error, or nil if every kernel compiled.
func (r *Result) Err() error {
	for _, k := range r.Kernels {
		if k.Err != nil {
			return k.Err
		}
	}
	return nil
}

// Text returns the IL text of every compiled kernel, in order.
func (r *Result) Text() string {
	var b strings.Builder
	for _, k := range r.Kernels {
		b.WriteString(k.Text)
	}
	return b.String()
}

// CompiledKernel is one compiled kernel.
type CompiledKernel struct {
	// Name is the kernel name.
	Name string
	// Text is the IL text, or empty when Err is set.
	Text string
	// Diagnostics are the warnings and errors recorded while lowering, each prefixed by its
	// severity, e.g. "warning: 1 byte store to global memory is emulated ...".
	Diagnostics []string
	// Err is set when the kernel could not be compiled.
	Err error
	// Cached is true when Text was read from the CompilationCache.
	Cached bool
}

// NewCompiler returns a Compiler with the default configuration.
func NewCompiler() Compiler {
	c, err := NewCompilerWithConfig(NewCompilerConfig())
	if err != nil {
		panic(err) // the default target is in the catalogue.
	}
	return c
}

// NewCompilerWithConfig returns a Compiler for config. It fails if the target is unknown.
func NewCompilerWithConfig(config *CompilerConfig) (Compiler, error) {
	dev, err := device.Lookup(config.target, config.calVersion)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	c := &compiler{
		dev:      dev,
		lowering: backend.NewLowering(dev, config.logger),
		logger:   config.logger,
		version:  version.GetAmdilVersion(),
	}
	if config.cache != nil {
		c.cache = config.cache.fileCache()
	}
	return c, nil
}

// compiler implements Compiler.
type compiler struct {
	dev      *device.Device
	lowering *backend.Lowering
	logger   logr.Logger
	// cache is nil when no CompilationCache is configured.
	cache   compilationcache.Cache
	version string
}

// Device implements Compiler.Device.
func (c *compiler) Device() string { return c.dev.Name() }

// Compile implements Compiler.Compile.
func (c *compiler) Compile(ctx context.Context, source []byte) (*Result, error) {
	m, err := il.ParseModule(string(source))
	if err != nil {
		return nil, errors.Wrap(err, "parsing module")
	}
	ret := &Result{Kernels: make([]*CompiledKernel, 0, len(m.Functions))}
	for _, fn := range m.Functions {
		if err = ctx.Err(); err != nil {
			return nil, errors.WithStack(err)
		}
		ret.Kernels = append(ret.Kernels, c.compileKernel(fn))
	}
	return ret, nil
}

func (c *compiler) compileKernel(fn *il.Function) *CompiledKernel {
	ret := &CompiledKernel{Name: fn.Name()}

	var key compilationcache.Key
	if c.cache != nil {
		// The key is taken before lowering mutates fn.
		key = compilationcache.KeyOf(c.version, c.dev.Name(), c.dev.CALVersion(), []byte(fn.Format()))
		if text, ok := c.getCached(key); ok {
			ret.Text, ret.Cached = text, true
			ret.Diagnostics = diagnosticsOf(text)
			c.logger.V(1).Info("cache hit", "kernel", fn.Name())
			return ret
		}
	}

	err := c.lowering.Lower(fn)
	ret.Diagnostics = make([]string, 0, len(fn.Kernel.Diagnostics))
	for _, d := range fn.Kernel.Diagnostics {
		ret.Diagnostics = append(ret.Diagnostics, d.String())
	}
	if err != nil {
		ret.Err = err
		return ret
	}

	swizzle.Assign(fn)
	if err = swizzle.Check(fn); err != nil {
		ret.Err = err
		return ret
	}
	ret.Text = printer.String(fn)

	if c.cache != nil {
		if err = c.cache.Add(key, strings.NewReader(ret.Text)); err != nil {
			// A cache that cannot be written only costs the next compilation.
			c.logger.Error(err, "caching kernel", "kernel", fn.Name())
		}
	}
	return ret
}

func (c *compiler) getCached(key compilationcache.Key) (string, bool) {
	content, ok, err := c.cache.Get(key)
	if err != nil || !ok {
		return "", false
	}
	text, err := io.ReadAll(content)
	_ = content.Close()
	if err != nil || !bytes.HasPrefix(text, []byte(printer.Header)) {
		// Unreadable entries are purged and recompiled.
		_ = c.cache.Delete(key)
		return "", false
	}
	return string(text), true
}

// diagnosticsOf recovers the diagnostics printed as comments after the kernel header.
func diagnosticsOf(text string) []string {
	ret := []string{}
	sc := bufio.NewScanner(strings.NewReader(text))
	for sc.Scan() {
		line := sc.Text()
		switch {
		case line == printer.Header, strings.HasPrefix(line, "; kernel "):
		case strings.HasPrefix(line, "; "):
			ret = append(ret, strings.TrimPrefix(line, "; "))
		default:
			return ret
		}
	}
	return ret
}
