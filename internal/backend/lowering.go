// Package backend lowers pseudo operations into the native AMD IL instructions a device
// actually executes. Memory pseudo operations are expanded first, then every remaining pseudo
// operation is rewritten by the strategy selected for the device when the Lowering was built.
package backend

import (
	"fmt"

	"github.com/go-logr/logr"
	"github.com/pkg/errors"

	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/il"
)

// Lowering lowers functions for one device. It is immutable after NewLowering and may be
// shared by goroutines lowering different functions.
type Lowering struct {
	dev        device.Capabilities
	logger     logr.Logger
	strategies map[strategyKey]strategy
	tier       conversionTier
}

// NewLowering resolves the strategy table for dev.
func NewLowering(dev device.Capabilities, logger logr.Logger) *Lowering {
	l := &Lowering{dev: dev, logger: logger, tier: conversionTierOf(dev)}
	l.strategies = l.buildStrategies()
	logger.V(1).Info("lowering ready", "device", dev.Name(), "generation", dev.Generation().String(),
		"cal", dev.CALVersion(), "conversionTier", l.tier.String(), "strategies", len(l.strategies))
	return l
}

// Device returns the device the Lowering targets.
func (l *Lowering) Device() device.Capabilities { return l.dev }

// Lower rewrites every pseudo operation of fn in place and validates the result. Diagnostics
// are recorded on fn.Kernel; an error is returned if any of them is an error, or if the lowered
// function uses an instruction the device lacks.
func (l *Lowering) Lower(fn *il.Function) error {
	ctx := &memContext{fn: fn, kernel: fn.Kernel}
	for cur := fn.Root(); cur != nil; {
		next := cur.Next()
		switch cur.Opcode() {
		case il.OpcodeLoad:
			l.expandLoad(ctx, cur)
		case il.OpcodeStore:
			l.expandStore(ctx, cur)
		}
		cur = next
	}

	for cur := fn.Root(); cur != nil; {
		next := cur.Next()
		if op := cur.Opcode(); op.IsPseudo() && op != il.OpcodeLoad && op != il.OpcodeStore {
			l.lowerInstruction(fn, cur)
		}
		cur = next
	}

	if fn.Kernel.HasErrors() {
		var n int
		for _, d := range fn.Kernel.Diagnostics {
			if d.Severity == il.SeverityError {
				n++
			}
		}
		return errors.Errorf("kernel %s: %d error diagnostic(s)", fn.Name(), n)
	}
	return l.Validate(fn)
}

func (l *Lowering) lowerInstruction(fn *il.Function, instr *il.Instruction) {
	key := keyOf(instr)
	s, ok := l.strategies[key]
	if !ok {
		panic(fmt.Sprintf("BUG: no lowering of %s for %s on %s", key, instr, l.dev.Name()))
	}
	b := fn.BuilderBefore(instr)
	res := s.fn(b, instr)
	b.Mov(instr.Def(), res)
	fn.Remove(instr)
	l.logger.V(1).Info("lowered", "kernel", fn.Name(), "op", key.String(), "strategy", s.name)
}

// StrategyName returns the name of the strategy chosen for op with the given destination and
// source classes, or "" if the table has none.
func (l *Lowering) StrategyName(op il.Opcode, dst, src il.RegClass) string {
	return l.strategies[strategyKey{op: op, dst: kindOf(dst), src: kindOf(src)}].name
}
