package il

// Builder emits instructions at an explicit insertion point of a Function. Instructions
// emitted by one Builder keep their emission order.
type Builder struct {
	fn *Function
	// pivot is the instruction new code goes before, or nil to append.
	pivot *Instruction
}

// NewBuilder returns a Builder appending to the end of fn.
func NewBuilder(fn *Function) *Builder { return &Builder{fn: fn} }

// BuilderBefore returns a Builder inserting immediately before pivot.
func (f *Function) BuilderBefore(pivot *Instruction) *Builder {
	return &Builder{fn: f, pivot: pivot}
}

// Insert links instr at the insertion point.
func (b *Builder) Insert(instr *Instruction) *Instruction {
	b.fn.InsertBefore(b.pivot, instr)
	return instr
}

// Emit inserts a new instruction.
func (b *Builder) Emit(op Opcode, operands ...Operand) *Instruction {
	return b.Insert(NewInstruction(op, operands...))
}

// Alloc returns a fresh register of the class.
func (b *Builder) Alloc(c RegClass) VReg { return b.fn.AllocateVReg(c) }

// Op emits op over register sources into a fresh register of class c.
func (b *Builder) Op(op Opcode, c RegClass, srcs ...VReg) VReg {
	dst := b.fn.AllocateVReg(c)
	ops := make([]Operand, 0, len(srcs)+1)
	ops = append(ops, OperandReg(dst))
	for _, s := range srcs {
		ops = append(ops, OperandReg(s))
	}
	b.Emit(op, ops...)
	return dst
}

// OpTo emits op over register sources into dst.
func (b *Builder) OpTo(op Opcode, dst VReg, srcs ...VReg) *Instruction {
	ops := make([]Operand, 0, len(srcs)+1)
	ops = append(ops, OperandReg(dst))
	for _, s := range srcs {
		ops = append(ops, OperandReg(s))
	}
	return b.Emit(op, ops...)
}

// Mov copies src into dst with the move matching dst's class.
func (b *Builder) Mov(dst, src VReg) *Instruction {
	return b.OpTo(MoveOpcode(dst.Class()), dst, src)
}

func (b *Builder) loadConst(c RegClass, lit uint32) VReg {
	dst := b.fn.AllocateVReg(c)
	b.Emit(OpcodeLoadConst, OperandReg(dst), OperandLiteral(lit))
	return dst
}

// IConst materializes a 32-bit integer constant.
func (b *Builder) IConst(v uint32) VReg {
	return b.loadConst(RegClassI32, b.fn.Kernel.Literals.AddIntegerLiteral(v))
}

// IConstOf materializes a 32-bit integer constant splatted across class c, which must have
// 32-bit integer elements.
func (b *Builder) IConstOf(c RegClass, v uint32) VReg {
	switch LaneCount(c) {
	case 1:
		return b.loadConst(c, b.fn.Kernel.Literals.AddIntegerLiteral(v))
	default:
		return b.loadConst(c, b.fn.Kernel.Literals.AddVectorLiteral([4]uint32{v, v, v, v}))
	}
}

// FConst materializes a 32-bit float constant.
func (b *Builder) FConst(v float32) VReg {
	return b.loadConst(RegClassF32, b.fn.Kernel.Literals.AddFloatLiteral(v))
}

// DConst materializes a 64-bit float constant.
func (b *Builder) DConst(v float64) VReg {
	return b.loadConst(RegClassF64, b.fn.Kernel.Literals.AddDoubleLiteral(v))
}

// VConst materializes a four-lane integer vector constant.
func (b *Builder) VConst(v [4]uint32) VReg {
	return b.loadConst(RegClassV4I32, b.fn.Kernel.Literals.AddVectorLiteral(v))
}

// Extract emits a vextract of lane from vector v.
func (b *Builder) Extract(c RegClass, v VReg, lane int) VReg {
	dst := b.fn.AllocateVReg(c)
	b.Emit(OpcodeVExtract, OperandReg(dst), OperandReg(v), OperandImm(int64(lane)))
	return dst
}

// Concat emits a vconcat placing lo in the low lanes and hi in the high lanes of class c.
func (b *Builder) Concat(c RegClass, lo, hi VReg) VReg {
	dst := b.fn.AllocateVReg(c)
	b.Emit(OpcodeVConcat, OperandReg(dst), OperandReg(lo), OperandReg(hi))
	return dst
}
