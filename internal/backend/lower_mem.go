package backend

import (
	"fmt"

	"github.com/tetratelabs/amdil/internal/device"
	"github.com/tetratelabs/amdil/internal/il"
)

// memContext is the per-function state of memory expansion.
type memContext struct {
	fn     *il.Function
	kernel *il.Kernel
	// defaulted records the address spaces whose missing resource id was already reported.
	defaulted map[il.AddressSpace]bool
}

type memKind byte

const (
	memKindUAV memKind = iota
	memKindLDS
	memKindGDS
)

// memTarget is the memory a single access was routed to.
type memTarget struct {
	kind memKind
	id   uint32
}

type dsOpcodes struct {
	load, store         il.Opcode
	loadLane, storeLane [4]il.Opcode
}

var (
	ldsOpcodes = dsOpcodes{
		load:      il.OpcodeLDSLoad,
		store:     il.OpcodeLDSStore,
		loadLane:  [4]il.Opcode{il.OpcodeLDSLoadX, il.OpcodeLDSLoadY, il.OpcodeLDSLoadZ, il.OpcodeLDSLoadW},
		storeLane: [4]il.Opcode{il.OpcodeLDSStoreX, il.OpcodeLDSStoreY, il.OpcodeLDSStoreZ, il.OpcodeLDSStoreW},
	}
	gdsOpcodes = dsOpcodes{
		load:      il.OpcodeGDSLoad,
		store:     il.OpcodeGDSStore,
		loadLane:  [4]il.Opcode{il.OpcodeGDSLoadX, il.OpcodeGDSLoadY, il.OpcodeGDSLoadZ, il.OpcodeGDSLoadW},
		storeLane: [4]il.Opcode{il.OpcodeGDSStoreX, il.OpcodeGDSStoreY, il.OpcodeGDSStoreZ, il.OpcodeGDSStoreW},
	}
)

func (t memTarget) opcodes() dsOpcodes {
	switch t.kind {
	case memKindLDS:
		return ldsOpcodes
	case memKindGDS:
		return gdsOpcodes
	default:
		panic("BUG: raw UAV has no data share opcodes")
	}
}

func checkAccessSize(instr *il.Instruction) {
	switch instr.Mem().Size {
	case 1, 2, 4, 8, 16:
	default:
		panic(fmt.Sprintf("BUG: invalid access size in %s", instr))
	}
}

// checkAlignment records an error diagnostic and returns false if the address of the access is
// a known constant that is not naturally aligned. Accesses of a dword or more need dword alignment.
func checkAlignment(ctx *memContext, instr *il.Instruction, addr il.VReg) bool {
	a, ok := constAddress(ctx.kernel, instr, addr)
	if !ok {
		return true
	}
	mem := instr.Mem()
	align := uint32(mem.Size)
	if align > 4 {
		align = 4
	}
	if a%align == 0 {
		return true
	}
	ctx.kernel.Errorf("%d byte access to %s memory at %#x is not naturally aligned", mem.Size, mem.Space, a)
	return false
}

// constAddress returns the value of addr when its closest preceding definition moves an
// immediate or loads a 32-bit integer literal.
func constAddress(k *il.Kernel, instr *il.Instruction, addr il.VReg) (uint32, bool) {
	for cur := instr.Prev(); cur != nil; cur = cur.Prev() {
		if cur.NumDefs() != 1 || cur.Def() != addr {
			continue
		}
		src := cur.Operand(1)
		switch {
		case cur.Opcode() == il.OpcodeMov && src.Kind() == il.OperandKindImm:
			return uint32(src.Imm()), true
		case cur.Opcode() == il.OpcodeLoadConst && src.Kind() == il.OperandKindLiteral:
			if lit := k.Literals.Literal(src.Literal()); lit.Kind == il.LiteralInt32 {
				return lit.Bits[0], true
			}
		}
		return 0, false
	}
	return 0, false
}

// route picks the memory backing the access and records its use on the kernel. It returns
// false if the address space is unavailable on the device; an error diagnostic is recorded.
func (l *Lowering) route(ctx *memContext, instr *il.Instruction) (memTarget, bool) {
	mem := instr.Mem()
	k := ctx.kernel
	switch mem.Space {
	case il.AddressSpaceLocal, il.AddressSpaceRegion:
		capability, res, size, kind := device.CapabilityLocalMem, device.ResourceLDS, k.LocalSize, memKindLDS
		if mem.Space == il.AddressSpaceRegion {
			capability, res, size, kind = device.CapabilityRegionMem, device.ResourceGDS, k.RegionSize, memKindGDS
		}
		if !l.dev.IsSupported(capability) {
			k.Errorf("%s memory is not supported on %s", mem.Space, l.dev.Name())
			return memTarget{}, false
		}
		if size == 0 {
			k.Errorf("kernel %s accesses %s memory but allocates none", k.Name, mem.Space)
		}
		k.MarkUsed(mem.Space)
		if l.dev.UsesHardware(capability) && mem.HWEligible {
			return memTarget{kind: kind, id: l.resourceID(ctx, mem.Space, res)}, true
		}
		return memTarget{kind: memKindUAV, id: l.resourceID(ctx, il.AddressSpaceGlobal, device.ResourceRawUAV)}, true
	case il.AddressSpacePrivate:
		k.MarkUsed(mem.Space)
		return memTarget{kind: memKindUAV, id: l.resourceID(ctx, mem.Space, device.ResourceScratch)}, true
	default:
		k.MarkUsed(mem.Space)
		return memTarget{kind: memKindUAV, id: l.resourceID(ctx, mem.Space, device.ResourceRawUAV)}, true
	}
}

// resourceID returns the id assigned to space, substituting the device default for a missing one.
func (l *Lowering) resourceID(ctx *memContext, space il.AddressSpace, res device.Resource) uint32 {
	if id := ctx.kernel.ResourceID(space); id != 0 {
		return id
	}
	id := l.dev.DefaultResourceID(res)
	if !ctx.defaulted[space] {
		if ctx.defaulted == nil {
			ctx.defaulted = map[il.AddressSpace]bool{}
		}
		ctx.defaulted[space] = true
		ctx.kernel.Warnf("kernel %s has no %s resource id for %s memory, using default %d", ctx.kernel.Name, res, space, id)
	}
	return id
}

// expandLoad replaces a pseudo LOAD. Unpacking and extension always run once after the
// access itself, whatever memory and size it took.
func (l *Lowering) expandLoad(ctx *memContext, instr *il.Instruction) {
	checkAccessSize(instr)
	if !checkAlignment(ctx, instr, instr.Arg(1)) {
		return
	}
	t, ok := l.route(ctx, instr)
	if !ok {
		return
	}
	mem, dst, addr := instr.Mem(), instr.Def(), instr.Arg(1)
	b := ctx.fn.BuilderBefore(instr)

	var raw il.VReg
	if mem.Size >= 4 {
		raw = l.loadWords(b, t, addr, mem.Size/4)
	} else {
		raw = l.loadSubWord(b, t, addr, mem.Size)
	}
	val := expandPackedData(b, raw, dst.Class(), mem)
	val = expandExtendLoad(b, val, dst.Class(), mem)
	b.Mov(dst, val)
	ctx.fn.Remove(instr)
	l.logger.V(1).Info("expanded load", "kernel", ctx.kernel.Name, "space", mem.Space.String(), "size", mem.Size, "id", t.id)
}

// expandStore replaces a pseudo STORE.
func (l *Lowering) expandStore(ctx *memContext, instr *il.Instruction) {
	checkAccessSize(instr)
	if !checkAlignment(ctx, instr, instr.Arg(1)) {
		return
	}
	t, ok := l.route(ctx, instr)
	if !ok {
		return
	}
	mem, v, addr := instr.Mem(), instr.Arg(0), instr.Arg(1)
	b := ctx.fn.BuilderBefore(instr)

	elems := il.ElemCount(v.Class())
	memBits := mem.Size * 8 / elems
	if il.Is64Bit(v.Class()) && memBits <= 32 {
		v = split(b, v).lo
	}
	if elems > 1 && memBits < 32 {
		v = packData(b, v, elems, memBits)
	}

	switch {
	case mem.Size >= 4:
		l.storeWords(b, t, v, addr, mem.Size/4)
	case t.kind == memKindUAV && l.dev.UsesHardware(device.CapabilityByteStores):
		op := il.OpcodeUAVByteStore
		if mem.Size == 2 {
			op = il.OpcodeUAVShortStore
		}
		b.Emit(op, il.OperandReg(v), il.OperandReg(addr), il.OperandImm(int64(t.id)))
	default:
		if t.kind == memKindUAV {
			ctx.kernel.Warnf("%d byte store to %s memory is emulated with a read-modify-write of the enclosing word", mem.Size, mem.Space)
		}
		l.storeSubWord(b, t, v, addr, mem.Size)
	}
	ctx.fn.Remove(instr)
	l.logger.V(1).Info("expanded store", "kernel", ctx.kernel.Name, "space", mem.Space.String(), "size", mem.Size, "id", t.id)
}

// loadWords loads lanes consecutive dwords from the dword aligned addr.
func (l *Lowering) loadWords(b *il.Builder, t memTarget, addr il.VReg, lanes int) il.VReg {
	dst := b.Alloc(il.IntClassOfLanes(lanes))
	id := il.OperandImm(int64(t.id))
	if t.kind == memKindUAV {
		b.Emit(il.OpcodeUAVRawLoad, il.OperandReg(dst), il.OperandReg(addr), id)
		return dst
	}
	ops := t.opcodes()
	if lanes == 1 {
		b.Emit(ops.load, il.OperandReg(dst), il.OperandReg(addr), id)
		return dst
	}
	for lane := 0; lane < lanes; lane++ {
		b.Emit(ops.loadLane[lane], il.OperandReg(dst), il.OperandReg(laneAddress(b, addr, lane)), id)
	}
	return dst
}

// storeWords stores the lanes of v as consecutive dwords at the dword aligned addr.
func (l *Lowering) storeWords(b *il.Builder, t memTarget, v, addr il.VReg, lanes int) {
	id := il.OperandImm(int64(t.id))
	if t.kind == memKindUAV {
		b.Emit(il.OpcodeUAVRawStore, il.OperandReg(v), il.OperandReg(addr), id)
		return
	}
	ops := t.opcodes()
	if lanes == 1 {
		b.Emit(ops.store, il.OperandReg(v), il.OperandReg(addr), id)
		return
	}
	for lane := 0; lane < lanes; lane++ {
		b.Emit(ops.storeLane[lane], il.OperandReg(v), il.OperandReg(laneAddress(b, addr, lane)), id)
	}
}

func laneAddress(b *il.Builder, addr il.VReg, lane int) il.VReg {
	if lane == 0 {
		return addr
	}
	return op(b, il.OpcodeIAdd, addr, b.IConst(uint32(4*lane)))
}

func subWordMask(size int) uint32 { return uint32(1)<<(8*size) - 1 }

// loadSubWord loads the dword containing the naturally aligned 1 or 2 byte value at addr and
// extracts the value, zero extended. A 2 byte value at addr&3 == 3 would straddle two dwords.
func (l *Lowering) loadSubWord(b *il.Builder, t memTarget, addr il.VReg, size int) il.VReg {
	aligned := op(b, il.OpcodeIAnd, addr, b.IConst(^uint32(3)))
	word := l.loadWords(b, t, aligned, 1)
	sh := l.byteShift(b, addr)
	if l.dev.Generation() >= device.GenerationHD5XXX {
		return b.Op(il.OpcodeUBitExtract, il.RegClassI32, b.IConst(uint32(8*size)), sh, word)
	}
	return op(b, il.OpcodeIAnd, op(b, il.OpcodeUShr, word, sh), b.IConst(subWordMask(size)))
}

// storeSubWord merges v into the dword containing addr with a masked OR and writes it back.
func (l *Lowering) storeSubWord(b *il.Builder, t memTarget, v, addr il.VReg, size int) {
	aligned := op(b, il.OpcodeIAnd, addr, b.IConst(^uint32(3)))
	word := l.loadWords(b, t, aligned, 1)
	sh := l.byteShift(b, addr)
	mask := b.IConst(subWordMask(size))
	keep := op(b, il.OpcodeIAnd, word, op(b, il.OpcodeINot, op(b, il.OpcodeIShl, mask, sh)))
	ins := op(b, il.OpcodeIShl, b.Op(il.OpcodeIAnd, il.RegClassI32, v, mask), sh)
	l.storeWords(b, t, op(b, il.OpcodeIOr, keep, ins), aligned, 1)
}

// byteShift returns the bit offset of the byte addressed by addr within its dword. HD4XXX
// selects it from a vector compare of addr & 3 against (0, 1, 2, 3).
func (l *Lowering) byteShift(b *il.Builder, addr il.VReg) il.VReg {
	off := op(b, il.OpcodeIAnd, addr, b.IConst(3))
	if l.dev.Generation() >= device.GenerationHD5XXX {
		return op(b, il.OpcodeIShl, off, b.IConst(3))
	}
	eq := op(b, il.OpcodeIEq, off, b.VConst([4]uint32{0, 1, 2, 3}))
	sh := b.IConst(0)
	for lane := 1; lane < 4; lane++ {
		sel := b.Extract(il.RegClassI32, eq, lane)
		sh = op(b, il.OpcodeCmovLogical, sel, b.IConst(uint32(8*lane)), sh)
	}
	return sh
}

// expandPackedData spreads the sub-word elements of a packed vector load over one lane each.
func expandPackedData(b *il.Builder, raw il.VReg, c il.RegClass, mem il.MemAccess) il.VReg {
	elems := il.ElemCount(c)
	memBits := mem.Size * 8 / elems
	if elems == 1 || memBits >= 32 {
		return raw
	}
	mask := b.IConst(uint32(1)<<memBits - 1)
	if il.LaneCount(raw.Class()) == 1 {
		var shifts [4]uint32
		for i := 0; i < elems; i++ {
			shifts[i] = uint32(i * memBits)
		}
		vc := il.IntClassOfLanes(elems)
		return b.Op(il.OpcodeIAnd, vc, b.Op(il.OpcodeUShr, vc, raw, b.VConst(shifts)), mask)
	}
	// Four shorts span two dwords.
	shifts := b.VConst([4]uint32{0, 16, 0, 16})
	unpack := func(word il.VReg) il.VReg {
		return b.Op(il.OpcodeIAnd, il.RegClassV2I32, b.Op(il.OpcodeUShr, il.RegClassV2I32, word, shifts), mask)
	}
	lo := unpack(b.Extract(il.RegClassI32, raw, 0))
	hi := unpack(b.Extract(il.RegClassI32, raw, 1))
	return b.Concat(il.RegClassV4I32, lo, hi)
}

// expandExtendLoad applies the extension of a narrow load, widening into 64-bit elements where
// the destination has them. Sub-word values arrive zero extended.
func expandExtendLoad(b *il.Builder, val il.VReg, c il.RegClass, mem il.MemAccess) il.VReg {
	memBits := mem.Size * 8 / il.ElemCount(c)
	if memBits < 32 && mem.Ext == il.ExtSign {
		val = signExtend(b, val, memBits)
	}
	if il.Is64Bit(c) && memBits <= 32 {
		var hi il.VReg
		if mem.Ext == il.ExtSign {
			hi = op(b, il.OpcodeIShr, val, b.IConst(31))
		} else {
			hi = b.IConstOf(val.Class(), 0)
		}
		return join(b, pair{lo: val, hi: hi}, c)
	}
	return val
}

// packData is the inverse of expandPackedData for stores.
func packData(b *il.Builder, v il.VReg, elems, memBits int) il.VReg {
	vc := il.IntClassOfLanes(elems)
	var shifts [4]uint32
	for i := 0; i < elems; i++ {
		shifts[i] = uint32(i*memBits) % 32
	}
	masked := b.Op(il.OpcodeIAnd, vc, v, b.IConst(uint32(1)<<memBits-1))
	shifted := b.Op(il.OpcodeIShl, vc, masked, b.VConst(shifts))
	merge := func(from, to int) il.VReg {
		acc := b.Extract(il.RegClassI32, shifted, from)
		for i := from + 1; i < to; i++ {
			acc = op(b, il.OpcodeIOr, acc, b.Extract(il.RegClassI32, shifted, i))
		}
		return acc
	}
	if elems*memBits <= 32 {
		return merge(0, elems)
	}
	return b.Concat(il.RegClassV2I32, merge(0, 2), merge(2, 4))
}
