package backend

import (
	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/il"
)

var (
	longOpcodes = []il.Opcode{
		il.OpcodeI64Add, il.OpcodeI64Sub, il.OpcodeI64Shl, il.OpcodeI64Shr, il.OpcodeU64Shr,
		il.OpcodeI64Eq, il.OpcodeI64Ne, il.OpcodeI64Lt, il.OpcodeI64Ge, il.OpcodeU64Lt, il.OpcodeU64Ge,
	}
	evergreenOpcodes = []il.Opcode{il.OpcodeFfbHi, il.OpcodeUBitExtract}
	// nativeConversionOpcodes are only emitted by the native conversion tier.
	nativeConversionOpcodes = []il.Opcode{
		il.OpcodeDTrunc, il.OpcodeDtoI, il.OpcodeDtoU, il.OpcodeItoD, il.OpcodeUtoD,
	}
	doubleOpcodes = []il.Opcode{
		il.OpcodeDMov, il.OpcodeDAdd, il.OpcodeDSub, il.OpcodeDNeg, il.OpcodeDMul, il.OpcodeDMad,
		il.OpcodeDEq, il.OpcodeDNe, il.OpcodeDLt, il.OpcodeDGe, il.OpcodeFtoD, il.OpcodeDtoF,
		il.OpcodeDCreate, il.OpcodeDLo, il.OpcodeDHi,
	}
)

// Available returns true if the native opcode op can execute on dev.
func Available(dev device.Capabilities, op il.Opcode) bool {
	switch {
	case op.IsPseudo():
		return false
	case lo.Contains(longOpcodes, op):
		return dev.UsesHardware(device.CapabilityLongOps)
	case lo.Contains(evergreenOpcodes, op):
		return dev.Generation() >= device.GenerationHD5XXX
	case lo.Contains(nativeConversionOpcodes, op):
		return hasNativeDoubleConversions(dev)
	case lo.Contains(doubleOpcodes, op):
		return dev.IsSupported(device.CapabilityDoubleOps)
	case op == il.OpcodeIMul24:
		return dev.UsesHardware(device.CapabilitySigned24BitOps)
	case op.StoreWidth() != 0:
		return dev.UsesHardware(device.CapabilityByteStores)
	case op >= il.OpcodeLDSLoad && op <= il.OpcodeLDSStoreW:
		return dev.UsesHardware(device.CapabilityLocalMem)
	case op >= il.OpcodeGDSLoad && op <= il.OpcodeGDSStoreW:
		return dev.UsesHardware(device.CapabilityRegionMem)
	}
	return true
}

// Validate checks that fn is fully lowered for the device: no pseudo operation remains and
// every native opcode is available.
func (l *Lowering) Validate(fn *il.Function) error {
	bad := lo.Filter(fn.Instructions(), func(instr *il.Instruction, _ int) bool {
		return !Available(l.dev, instr.Opcode())
	})
	if len(bad) == 0 {
		return nil
	}
	instr := bad[0]
	if instr.Opcode().IsPseudo() {
		return errors.Errorf("kernel %s: %s was not lowered (%d invalid instructions)", fn.Name(), instr, len(bad))
	}
	return errors.Errorf("kernel %s: %s is not available on %s (%d invalid instructions)", fn.Name(), instr, l.dev.Name(), len(bad))
}
