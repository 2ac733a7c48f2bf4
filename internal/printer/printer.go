// Package printer renders a lowered and swizzled function as AMD IL text.
//
// The printer makes no lowering decisions: every operation it writes maps onto one IL
// instruction whose operand lanes were chosen by the swizzle pass. Operations without an IL
// mnemonic of their own are written as the move or OR their swizzles were assigned for.
package printer

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/tetratelabs/amdil/internal/il"
)

// Header is the first line of every compute shader.
const Header = "il_cs_2_0"

// argBuffer is the constant buffer holding kernel arguments, one per slot.
const argBuffer = "cb1"

// mnemonics rewrites opcodes whose IL spelling differs from their name. Composition and
// shuffles become moves or ORs of swizzled sources, and the negated double forms reuse the
// unnegated instruction.
var mnemonics = map[il.Opcode]string{
	il.OpcodeLoadConst: "mov",
	il.OpcodeLLo:       "mov",
	il.OpcodeLHi:       "mov",
	il.OpcodeDLo:       "mov",
	il.OpcodeDHi:       "mov",
	il.OpcodeVExtract:  "mov",
	il.OpcodeLCreate:   "ior",
	il.OpcodeDCreate:   "ior",
	il.OpcodeVInsert:   "ior",
	il.OpcodeVConcat:   "ior",
	il.OpcodeDSub:      "dadd",
	il.OpcodeDNeg:      "dmov",
}

// resource is a memory resource referenced by the function.
type resource struct {
	kind string
	id   uint32
}

func resourceOf(instr *il.Instruction) (resource, bool) {
	op := instr.Opcode()
	if !op.IsMemory() {
		return resource{}, false
	}
	id := uint32(instr.Operand(2).Imm())
	switch {
	case op.IsUAV():
		return resource{kind: "raw_uav", id: id}, true
	case op >= il.OpcodeLDSLoad && op <= il.OpcodeLDSStoreW:
		return resource{kind: "lds", id: id}, true
	default:
		return resource{kind: "gds", id: id}, true
	}
}

// memoryMnemonic drops the lane suffix of a lane access; the swizzles select the lane.
func memoryMnemonic(instr *il.Instruction, r resource) string {
	name := r.kind
	if name == "raw_uav" {
		name = "uav_raw"
	}
	switch instr.Opcode().StoreWidth() {
	case 1:
		return fmt.Sprintf("uav_byte_store_id(%d)", r.id)
	case 2:
		return fmt.Sprintf("uav_short_store_id(%d)", r.id)
	}
	if instr.Opcode().IsLoad() {
		name += "_load"
	} else {
		name += "_store"
	}
	return fmt.Sprintf("%s_id(%d)", name, r.id)
}

func operand(o il.Operand) string {
	swz := o.Swizzle().String()
	switch o.Kind() {
	case il.OperandKindReg:
		return fmt.Sprintf("r%d%s", o.Reg().ID(), swz)
	case il.OperandKindLiteral:
		return fmt.Sprintf("l%d%s", o.Literal(), swz)
	case il.OperandKindImm:
		return fmt.Sprintf("%d", o.Imm())
	case il.OperandKindFImm:
		return fmt.Sprintf("%g", o.FImm())
	case il.OperandKindBlock:
		return fmt.Sprintf("bb%d", o.Block())
	case il.OperandKindGlobal, il.OperandKindExternal:
		return o.Symbol()
	default:
		panic("BUG: invalid operand")
	}
}

func literalLanes(l il.Literal) [4]uint32 {
	switch l.Lanes() {
	case 1:
		return [4]uint32{l.Bits[0], l.Bits[0], l.Bits[0], l.Bits[0]}
	case 2:
		return [4]uint32{l.Bits[0], l.Bits[1], l.Bits[0], l.Bits[1]}
	default:
		return l.Bits
	}
}

// Instruction returns the IL line of a native instruction.
func Instruction(instr *il.Instruction) string {
	op := instr.Opcode()
	if op.IsPseudo() {
		panic("BUG: printing pseudo operation " + instr.String())
	}
	ops := instr.Operands()
	switch op {
	case il.OpcodeArg:
		return fmt.Sprintf("mov %s, %s[%d]", operand(ops[0]), argBuffer, ops[1].Imm())
	case il.OpcodeRet:
		return "ret_dyn"
	case il.OpcodeDebugValue:
		return "; dbg_value " + strings.Join(lo.Map(ops, func(o il.Operand, _ int) string { return operand(o) }), ", ")
	case il.OpcodeVExtract, il.OpcodeVInsert:
		ops = ops[:len(ops)-1]
	}

	name := op.String()
	if r, ok := resourceOf(instr); ok {
		name = memoryMnemonic(instr, r)
		if op.IsStore() {
			// Stores take the address before the value.
			return fmt.Sprintf("%s mem0, %s, %s", name, operand(ops[1]), operand(ops[0]))
		}
		ops = ops[:2]
	} else if m, ok := mnemonics[op]; ok {
		name = m
	}
	if len(ops) == 0 {
		return name
	}
	return name + " " + strings.Join(lo.Map(ops, func(o il.Operand, _ int) string { return operand(o) }), ", ")
}

// Fprint writes the IL text of fn to w.
func Fprint(w io.Writer, fn *il.Function) error {
	var b strings.Builder
	k := fn.Kernel
	instrs := fn.Instructions()

	b.WriteString(Header + "\n")
	fmt.Fprintf(&b, "; kernel %s\n", k.Name)
	for _, d := range k.Diagnostics {
		fmt.Fprintf(&b, "; %s\n", d)
	}

	args := lo.CountBy(instrs, func(instr *il.Instruction) bool { return instr.Opcode() == il.OpcodeArg })
	if args > 0 {
		fmt.Fprintf(&b, "dcl_cb %s[%d]\n", argBuffer, args)
	}
	resources := lo.Uniq(lo.FilterMap(instrs, func(instr *il.Instruction, _ int) (resource, bool) {
		return resourceOf(instr)
	}))
	sort.Slice(resources, func(i, j int) bool {
		if resources[i].kind != resources[j].kind {
			return resources[i].kind > resources[j].kind
		}
		return resources[i].id < resources[j].id
	})
	for _, r := range resources {
		switch r.kind {
		case "lds":
			fmt.Fprintf(&b, "dcl_lds_id(%d) %d\n", r.id, k.LocalSize)
		case "gds":
			fmt.Fprintf(&b, "dcl_gds_id(%d) %d\n", r.id, k.RegionSize)
		default:
			fmt.Fprintf(&b, "dcl_raw_uav_id(%d)\n", r.id)
		}
	}
	for i, l := range k.Literals.Entries() {
		lanes := literalLanes(l)
		fmt.Fprintf(&b, "dcl_literal l%d, 0x%08x, 0x%08x, 0x%08x, 0x%08x\n", i, lanes[0], lanes[1], lanes[2], lanes[3])
	}

	for _, instr := range instrs {
		if instr.Opcode() == il.OpcodeRet {
			for i, o := range instr.Operands() {
				fmt.Fprintf(&b, "mov o%d, %s\n", i, operand(o))
			}
		}
		b.WriteString(Instruction(instr) + "\n")
	}
	b.WriteString("end\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		return errors.Wrapf(err, "writing kernel %s", k.Name)
	}
	return nil
}

// String returns the IL text of fn.
func String(fn *il.Function) string {
	var b strings.Builder
	_ = Fprint(&b, fn)
	return b.String()
}
