// Package interpreter evaluates lowered functions lane by lane. It executes native opcodes
// only and exists so that lowerings can be checked against the values they must preserve.
//
// Registers are four untyped 32-bit lanes. An instruction writes as many lanes as its
// definition's class occupies, and a source with fewer lanes than the destination is read
// cyclically, so scalars broadcast against vectors. Swizzles are not consulted.
package interpreter

import (
	"encoding/binary"
	"math"
	"math/bits"

	"github.com/pkg/errors"

	"github.com/tetratelabs/amdil/internal/il"
)

// Value is the content of a register.
type Value = [4]uint32

// Memory is the state of the memories addressed by a function.
type Memory struct {
	// UAV maps a resource id to its byte contents.
	UAV map[uint32][]byte
	LDS []byte
	GDS []byte
}

// NewMemory returns a Memory with the given UAV, LDS and GDS sizes in bytes.
func NewMemory(uavs map[uint32]int, ldsSize, gdsSize int) *Memory {
	m := &Memory{UAV: map[uint32][]byte{}, LDS: make([]byte, ldsSize), GDS: make([]byte, gdsSize)}
	for id, size := range uavs {
		m.UAV[id] = make([]byte, size)
	}
	return m
}

// Machine executes one function.
type Machine struct {
	fn   *il.Function
	mem  *Memory
	regs map[il.VRegID]Value
}

// Run executes fn with the given kernel arguments and returns the operands of its ret.
func Run(fn *il.Function, args []Value, mem *Memory) ([]Value, error) {
	if mem == nil {
		mem = NewMemory(nil, 0, 0)
	}
	m := &Machine{fn: fn, mem: mem, regs: map[il.VRegID]Value{}}
	for cur := fn.Root(); cur != nil; cur = cur.Next() {
		if cur.Opcode() == il.OpcodeRet {
			ret := make([]Value, cur.NumOperands())
			for i := range ret {
				ret[i] = m.read(cur.Operand(i))
			}
			return ret, nil
		}
		if err := m.step(cur, args); err != nil {
			return nil, errors.Wrapf(err, "%s", cur)
		}
	}
	return nil, nil
}

func (m *Machine) read(o il.Operand) Value {
	switch o.Kind() {
	case il.OperandKindReg:
		return m.regs[o.Reg().ID()]
	case il.OperandKindLiteral:
		return m.fn.Kernel.Literals.Literal(o.Literal()).Bits
	case il.OperandKindImm:
		v := uint32(o.Imm())
		return Value{v, v, v, v}
	default:
		panic("BUG: cannot read operand " + o.String())
	}
}

// lanes returns the number of lanes the operand holds.
func (m *Machine) lanes(o il.Operand) int {
	switch o.Kind() {
	case il.OperandKindReg:
		return il.LaneCount(o.Reg().Class())
	case il.OperandKindLiteral:
		return m.fn.Kernel.Literals.Literal(o.Literal()).Lanes()
	default:
		return 1
	}
}

// source is an operand read cyclically.
type source struct {
	v Value
	n int
}

func (s source) lane(j int) uint32 { return s.v[j%s.n] }

// elem returns 64-bit element e.
func (s source) elem(e int) uint64 {
	if s.n == 1 {
		return uint64(s.v[0])
	}
	return uint64(s.lane(2*e)) | uint64(s.lane(2*e+1))<<32
}

func (s source) f32(j int) float32 { return math.Float32frombits(s.lane(j)) }
func (s source) f64(e int) float64 { return math.Float64frombits(s.elem(e)) }

func (m *Machine) src(instr *il.Instruction, i int) source {
	o := instr.Operand(i)
	return source{v: m.read(o), n: m.lanes(o)}
}

func (m *Machine) write(dst il.VReg, v Value) {
	old := m.regs[dst.ID()]
	for j := 0; j < il.LaneCount(dst.Class()); j++ {
		old[j] = v[j]
	}
	m.regs[dst.ID()] = old
}

func (m *Machine) writeLane(dst il.VReg, lane int, v uint32) {
	old := m.regs[dst.ID()]
	old[lane] = v
	m.regs[dst.ID()] = old
}

func boolMask(b bool) uint32 {
	if b {
		return 0xffffffff
	}
	return 0
}

func (m *Machine) step(instr *il.Instruction, args []Value) error {
	op := instr.Opcode()
	switch op {
	case il.OpcodeDebugValue:
		return nil
	case il.OpcodeCall:
		return errors.New("calls are not supported")
	case il.OpcodeArg:
		idx := int(instr.Operand(1).Imm())
		if idx >= len(args) {
			return errors.Errorf("argument %d of %d", idx, len(args))
		}
		m.write(instr.Def(), args[idx])
		return nil
	}
	if op.IsPseudo() {
		return errors.Errorf("pseudo operation %s cannot execute", op)
	}
	if op.IsMemory() {
		return m.memory(instr)
	}

	dst := instr.Def()
	n := il.LaneCount(dst.Class())
	var r Value
	switch op {
	case il.OpcodeMov, il.OpcodeDMov, il.OpcodeLoadConst:
		a := m.src(instr, 1)
		for j := 0; j < n; j++ {
			r[j] = a.lane(j)
		}
	case il.OpcodeVExtract:
		a := m.read(instr.Operand(1))
		lane := int(instr.Operand(2).Imm())
		for j := 0; j < n; j++ {
			r[j] = a[lane+j]
		}
	case il.OpcodeVInsert:
		r = m.read(instr.Operand(1))
		r[instr.Operand(3).Imm()] = m.read(instr.Operand(2))[0]
	case il.OpcodeVConcat:
		lo, hi := m.src(instr, 1), m.src(instr, 2)
		for j := 0; j < lo.n; j++ {
			r[j] = lo.lane(j)
		}
		for j := 0; j < hi.n && lo.n+j < 4; j++ {
			r[lo.n+j] = hi.lane(j)
		}
	case il.OpcodeCmovLogical:
		mask, t, f := m.src(instr, 1), m.src(instr, 2), m.src(instr, 3)
		wideDst := il.Is64Bit(dst.Class())
		narrowMask := instr.Operand(1).Kind() != il.OperandKindReg || !il.Is64Bit(instr.Arg(1).Class())
		for j := 0; j < n; j++ {
			mj := j
			if wideDst && narrowMask {
				mj = j / 2
			}
			if mask.lane(mj) != 0 {
				r[j] = t.lane(j)
			} else {
				r[j] = f.lane(j)
			}
		}
	case il.OpcodeLCreate, il.OpcodeDCreate:
		lo, hi := m.src(instr, 1), m.src(instr, 2)
		for e := 0; e < n/2; e++ {
			r[2*e], r[2*e+1] = lo.lane(e), hi.lane(e)
		}
	case il.OpcodeLLo, il.OpcodeDLo, il.OpcodeLHi, il.OpcodeDHi:
		a := m.src(instr, 1)
		half := 0
		if op == il.OpcodeLHi || op == il.OpcodeDHi {
			half = 1
		}
		for e := 0; e < n; e++ {
			r[e] = a.lane(2*e + half)
		}
	default:
		if f, ok := lane32[op]; ok {
			srcs := make([]source, instr.NumOperands()-1)
			for i := range srcs {
				srcs[i] = m.src(instr, i+1)
			}
			for j := 0; j < n; j++ {
				r[j] = f(srcs, j)
			}
		} else if f, ok := elem64[op]; ok {
			srcs := make([]source, instr.NumOperands()-1)
			for i := range srcs {
				srcs[i] = m.src(instr, i+1)
			}
			if il.Is64Bit(dst.Class()) {
				for e := 0; e < n/2; e++ {
					v := f(srcs, e)
					r[2*e], r[2*e+1] = uint32(v), uint32(v>>32)
				}
			} else {
				for e := 0; e < n; e++ {
					r[e] = uint32(f(srcs, e))
				}
			}
		} else {
			return errors.Errorf("opcode %s has no evaluation", op)
		}
	}
	m.write(dst, r)
	return nil
}

func signExtend24(v uint32) int32 { return int32(v<<8) >> 8 }

// lane32 evaluates lane j of opcodes on 32-bit lanes.
var lane32 = map[il.Opcode]func(s []source, j int) uint32{
	il.OpcodeIAdd:    func(s []source, j int) uint32 { return s[0].lane(j) + s[1].lane(j) },
	il.OpcodeISub:    func(s []source, j int) uint32 { return s[0].lane(j) - s[1].lane(j) },
	il.OpcodeINegate: func(s []source, j int) uint32 { return -s[0].lane(j) },
	il.OpcodeIMul:    func(s []source, j int) uint32 { return s[0].lane(j) * s[1].lane(j) },
	il.OpcodeUMul:    func(s []source, j int) uint32 { return s[0].lane(j) * s[1].lane(j) },
	il.OpcodeIMulHigh: func(s []source, j int) uint32 {
		return uint32(uint64(int64(int32(s[0].lane(j)))*int64(int32(s[1].lane(j)))) >> 32)
	},
	il.OpcodeIMul24: func(s []source, j int) uint32 {
		return uint32(signExtend24(s[0].lane(j)) * signExtend24(s[1].lane(j)))
	},
	il.OpcodeUMulHigh: func(s []source, j int) uint32 {
		hi, _ := bits.Mul32(s[0].lane(j), s[1].lane(j))
		return hi
	},
	il.OpcodeUDiv32: func(s []source, j int) uint32 {
		if d := s[1].lane(j); d != 0 {
			return s[0].lane(j) / d
		}
		return 0xffffffff
	},
	il.OpcodeUMod32: func(s []source, j int) uint32 {
		if d := s[1].lane(j); d != 0 {
			return s[0].lane(j) % d
		}
		return 0xffffffff
	},
	il.OpcodeIAnd: func(s []source, j int) uint32 { return s[0].lane(j) & s[1].lane(j) },
	il.OpcodeIOr:  func(s []source, j int) uint32 { return s[0].lane(j) | s[1].lane(j) },
	il.OpcodeIXor: func(s []source, j int) uint32 { return s[0].lane(j) ^ s[1].lane(j) },
	il.OpcodeINot: func(s []source, j int) uint32 { return ^s[0].lane(j) },
	il.OpcodeIShl: func(s []source, j int) uint32 { return s[0].lane(j) << (s[1].lane(j) & 31) },
	il.OpcodeIShr: func(s []source, j int) uint32 { return uint32(int32(s[0].lane(j)) >> (s[1].lane(j) & 31)) },
	il.OpcodeUShr: func(s []source, j int) uint32 { return s[0].lane(j) >> (s[1].lane(j) & 31) },
	il.OpcodeIEq:  func(s []source, j int) uint32 { return boolMask(s[0].lane(j) == s[1].lane(j)) },
	il.OpcodeINe:  func(s []source, j int) uint32 { return boolMask(s[0].lane(j) != s[1].lane(j)) },
	il.OpcodeILt:  func(s []source, j int) uint32 { return boolMask(int32(s[0].lane(j)) < int32(s[1].lane(j))) },
	il.OpcodeIGe:  func(s []source, j int) uint32 { return boolMask(int32(s[0].lane(j)) >= int32(s[1].lane(j))) },
	il.OpcodeULt:  func(s []source, j int) uint32 { return boolMask(s[0].lane(j) < s[1].lane(j)) },
	il.OpcodeUGe:  func(s []source, j int) uint32 { return boolMask(s[0].lane(j) >= s[1].lane(j)) },
	il.OpcodeUBitExtract: func(s []source, j int) uint32 {
		width, offset := s[0].lane(j)&31, s[1].lane(j)&31
		if width == 0 {
			return 0
		}
		return (s[2].lane(j) >> offset) & (1<<width - 1)
	},
	il.OpcodeFfbHi: func(s []source, j int) uint32 {
		if v := s[0].lane(j); v != 0 {
			return uint32(bits.LeadingZeros32(v))
		}
		return 0xffffffff
	},

	il.OpcodeFAdd: func(s []source, j int) uint32 { return math.Float32bits(s[0].f32(j) + s[1].f32(j)) },
	il.OpcodeFSub: func(s []source, j int) uint32 { return math.Float32bits(s[0].f32(j) - s[1].f32(j)) },
	il.OpcodeFMul: func(s []source, j int) uint32 { return math.Float32bits(s[0].f32(j) * s[1].f32(j)) },
	il.OpcodeFMad: func(s []source, j int) uint32 {
		return math.Float32bits(float32(s[0].f32(j)*s[1].f32(j)) + s[2].f32(j))
	},
	il.OpcodeFDivInf: func(s []source, j int) uint32 { return math.Float32bits(s[0].f32(j) / s[1].f32(j)) },
	il.OpcodeFRoundZ: func(s []source, j int) uint32 {
		return math.Float32bits(float32(math.Trunc(float64(s[0].f32(j)))))
	},
	il.OpcodeFAbs: func(s []source, j int) uint32 { return s[0].lane(j) &^ (1 << 31) },
	il.OpcodeFEq:  func(s []source, j int) uint32 { return boolMask(s[0].f32(j) == s[1].f32(j)) },
	il.OpcodeFNe:  func(s []source, j int) uint32 { return boolMask(s[0].f32(j) != s[1].f32(j)) },
	il.OpcodeFLt:  func(s []source, j int) uint32 { return boolMask(s[0].f32(j) < s[1].f32(j)) },
	il.OpcodeFGe:  func(s []source, j int) uint32 { return boolMask(s[0].f32(j) >= s[1].f32(j)) },
	il.OpcodeFtoI: func(s []source, j int) uint32 { return uint32(truncToInt32(float64(s[0].f32(j)))) },
	il.OpcodeFtoU: func(s []source, j int) uint32 { return truncToUint32(float64(s[0].f32(j))) },
	il.OpcodeItoF: func(s []source, j int) uint32 { return math.Float32bits(float32(int32(s[0].lane(j)))) },
	il.OpcodeUtoF: func(s []source, j int) uint32 { return math.Float32bits(float32(s[0].lane(j))) },

	il.OpcodeDtoF: func(s []source, j int) uint32 { return math.Float32bits(float32(s[0].f64(j))) },
	il.OpcodeDtoI: func(s []source, j int) uint32 { return uint32(truncToInt32(s[0].f64(j))) },
	il.OpcodeDtoU: func(s []source, j int) uint32 { return truncToUint32(s[0].f64(j)) },
}

// elem64 evaluates element e of opcodes with 64-bit elements. Compares return a lane mask.
var elem64 = map[il.Opcode]func(s []source, e int) uint64{
	il.OpcodeI64Add: func(s []source, e int) uint64 { return s[0].elem(e) + s[1].elem(e) },
	il.OpcodeI64Sub: func(s []source, e int) uint64 { return s[0].elem(e) - s[1].elem(e) },
	il.OpcodeI64Shl: func(s []source, e int) uint64 { return s[0].elem(e) << (s[1].lane(e) & 63) },
	il.OpcodeI64Shr: func(s []source, e int) uint64 { return uint64(int64(s[0].elem(e)) >> (s[1].lane(e) & 63)) },
	il.OpcodeU64Shr: func(s []source, e int) uint64 { return s[0].elem(e) >> (s[1].lane(e) & 63) },
	il.OpcodeI64Eq:  func(s []source, e int) uint64 { return uint64(boolMask(s[0].elem(e) == s[1].elem(e))) },
	il.OpcodeI64Ne:  func(s []source, e int) uint64 { return uint64(boolMask(s[0].elem(e) != s[1].elem(e))) },
	il.OpcodeI64Lt: func(s []source, e int) uint64 {
		return uint64(boolMask(int64(s[0].elem(e)) < int64(s[1].elem(e))))
	},
	il.OpcodeI64Ge: func(s []source, e int) uint64 {
		return uint64(boolMask(int64(s[0].elem(e)) >= int64(s[1].elem(e))))
	},
	il.OpcodeU64Lt: func(s []source, e int) uint64 { return uint64(boolMask(s[0].elem(e) < s[1].elem(e))) },
	il.OpcodeU64Ge: func(s []source, e int) uint64 { return uint64(boolMask(s[0].elem(e) >= s[1].elem(e))) },

	il.OpcodeDAdd: func(s []source, e int) uint64 { return math.Float64bits(s[0].f64(e) + s[1].f64(e)) },
	il.OpcodeDSub: func(s []source, e int) uint64 { return math.Float64bits(s[0].f64(e) - s[1].f64(e)) },
	il.OpcodeDNeg: func(s []source, e int) uint64 { return s[0].elem(e) ^ (1 << 63) },
	il.OpcodeDMul: func(s []source, e int) uint64 { return math.Float64bits(s[0].f64(e) * s[1].f64(e)) },
	il.OpcodeDMad: func(s []source, e int) uint64 {
		return math.Float64bits(float64(s[0].f64(e)*s[1].f64(e)) + s[2].f64(e))
	},
	il.OpcodeDEq:    func(s []source, e int) uint64 { return uint64(boolMask(s[0].f64(e) == s[1].f64(e))) },
	il.OpcodeDNe:    func(s []source, e int) uint64 { return uint64(boolMask(s[0].f64(e) != s[1].f64(e))) },
	il.OpcodeDLt:    func(s []source, e int) uint64 { return uint64(boolMask(s[0].f64(e) < s[1].f64(e))) },
	il.OpcodeDGe:    func(s []source, e int) uint64 { return uint64(boolMask(s[0].f64(e) >= s[1].f64(e))) },
	il.OpcodeDTrunc: func(s []source, e int) uint64 { return math.Float64bits(math.Trunc(s[0].f64(e))) },
	il.OpcodeFtoD:   func(s []source, e int) uint64 { return math.Float64bits(float64(s[0].f32(e))) },
	il.OpcodeItoD:   func(s []source, e int) uint64 { return math.Float64bits(float64(int32(s[0].lane(e)))) },
	il.OpcodeUtoD:   func(s []source, e int) uint64 { return math.Float64bits(float64(s[0].lane(e))) },
}

// truncToInt32 truncates toward zero, clamping out of range values and mapping NaN to zero.
func truncToInt32(f float64) int32 {
	switch {
	case f != f:
		return 0
	case f <= math.MinInt32:
		return math.MinInt32
	case f >= math.MaxInt32:
		return math.MaxInt32
	}
	return int32(f)
}

func truncToUint32(f float64) uint32 {
	switch {
	case f != f, f <= 0:
		return 0
	case f >= math.MaxUint32:
		return math.MaxUint32
	}
	return uint32(f)
}

func (m *Machine) memory(instr *il.Instruction) error {
	op := instr.Opcode()
	id := uint32(instr.Operand(2).Imm())
	addr := m.read(instr.Operand(1))[0]

	var mem []byte
	switch {
	case op.IsUAV():
		var ok bool
		if mem, ok = m.mem.UAV[id]; !ok {
			return errors.Errorf("no UAV with id %d", id)
		}
	case op >= il.OpcodeLDSLoad && op <= il.OpcodeLDSStoreW:
		mem = m.mem.LDS
	default:
		mem = m.mem.GDS
	}
	if size := op.StoreWidth(); size != 0 {
		if addr%uint32(size) != 0 {
			return errors.Errorf("misaligned address %#x", addr)
		}
		if uint64(addr)+uint64(size) > uint64(len(mem)) {
			return errors.Errorf("address %#x out of bounds of %d bytes", addr, len(mem))
		}
		val := m.read(instr.Operand(0))[0]
		for j := 0; j < size; j++ {
			mem[addr+uint32(j)] = byte(val >> (8 * j))
		}
		return nil
	}
	if addr%4 != 0 {
		return errors.Errorf("misaligned address %#x", addr)
	}

	v := instr.Arg(0)
	lane := op.LaneOf()
	n := il.LaneCount(v.Class())
	if lane >= 0 {
		n = 1
	}
	if uint64(addr)+uint64(4*n) > uint64(len(mem)) {
		return errors.Errorf("address %#x out of bounds of %d bytes", addr, len(mem))
	}

	if op.IsLoad() {
		if lane >= 0 {
			m.writeLane(v, lane, binary.LittleEndian.Uint32(mem[addr:]))
			return nil
		}
		var r Value
		for j := 0; j < n; j++ {
			r[j] = binary.LittleEndian.Uint32(mem[addr+uint32(4*j):])
		}
		m.write(v, r)
		return nil
	}

	val := m.read(instr.Operand(0))
	if lane >= 0 {
		binary.LittleEndian.PutUint32(mem[addr:], val[lane])
		return nil
	}
	for j := 0; j < n; j++ {
		binary.LittleEndian.PutUint32(mem[addr+uint32(4*j):], val[j])
	}
	return nil
}
