package il

import "fmt"

// RegClass is the register class of a virtual register. It fixes the element type, the
// element count and therefore how many 32-bit hardware lanes the value occupies.
type RegClass byte

const (
	RegClassInvalid RegClass = iota
	RegClassI8
	RegClassV2I8
	RegClassV4I8
	RegClassI16
	RegClassV2I16
	RegClassV4I16
	RegClassI32
	RegClassV2I32
	RegClassV4I32
	RegClassF32
	RegClassV2F32
	RegClassV4F32
	RegClassI64
	RegClassV2I64
	RegClassF64
	RegClassV2F64

	numRegClasses
)

type regClassInfo struct {
	name  string
	elems int
	bits  int
	float bool
}

var regClassInfos = [numRegClasses]regClassInfo{
	RegClassInvalid: {name: "invalid"},
	RegClassI8:      {name: "i8", elems: 1, bits: 8},
	RegClassV2I8:    {name: "v2i8", elems: 2, bits: 8},
	RegClassV4I8:    {name: "v4i8", elems: 4, bits: 8},
	RegClassI16:     {name: "i16", elems: 1, bits: 16},
	RegClassV2I16:   {name: "v2i16", elems: 2, bits: 16},
	RegClassV4I16:   {name: "v4i16", elems: 4, bits: 16},
	RegClassI32:     {name: "i32", elems: 1, bits: 32},
	RegClassV2I32:   {name: "v2i32", elems: 2, bits: 32},
	RegClassV4I32:   {name: "v4i32", elems: 4, bits: 32},
	RegClassF32:     {name: "f32", elems: 1, bits: 32, float: true},
	RegClassV2F32:   {name: "v2f32", elems: 2, bits: 32, float: true},
	RegClassV4F32:   {name: "v4f32", elems: 4, bits: 32, float: true},
	RegClassI64:     {name: "i64", elems: 1, bits: 64},
	RegClassV2I64:   {name: "v2i64", elems: 2, bits: 64},
	RegClassF64:     {name: "f64", elems: 1, bits: 64, float: true},
	RegClassV2F64:   {name: "v2f64", elems: 2, bits: 64, float: true},
}

func (c RegClass) info() regClassInfo {
	if c == RegClassInvalid || c >= numRegClasses {
		panic(fmt.Sprintf("BUG: invalid register class %d", c))
	}
	return regClassInfos[c]
}

// String implements fmt.Stringer.
func (c RegClass) String() string {
	if c >= numRegClasses {
		return fmt.Sprintf("regclass(%d)", c)
	}
	return regClassInfos[c].name
}

// RegClassByName returns the class named by String, e.g. "v2i64".
func RegClassByName(name string) (RegClass, bool) {
	for c := RegClassI8; c < numRegClasses; c++ {
		if regClassInfos[c].name == name {
			return c, true
		}
	}
	return RegClassInvalid, false
}

// ElemCount returns the number of vector elements. Scalars have one element.
func ElemCount(c RegClass) int { return c.info().elems }

// ElemBits returns the width of one element in bits.
func ElemBits(c RegClass) int { return c.info().bits }

// IsFloat returns true for floating point classes.
func IsFloat(c RegClass) bool { return c.info().float }

// IsVector returns true if the class has more than one element.
func IsVector(c RegClass) bool { return c.info().elems > 1 }

// Is64Bit returns true if each element is 64 bits wide.
func Is64Bit(c RegClass) bool { return c.info().bits == 64 }

// ByteSize returns the in-memory size of a value of the class.
func ByteSize(c RegClass) int {
	info := c.info()
	return info.elems * info.bits / 8
}

// LaneCount returns the number of 32-bit hardware lanes the class occupies. Sub-word elements
// are held one per lane, and 64-bit elements take two lanes.
func LaneCount(c RegClass) int {
	info := c.info()
	if info.bits == 64 {
		return info.elems * 2
	}
	return info.elems
}

// RegClassFor maps an element count and element width to a register class.
func RegClassFor(elems, bits int, float bool) RegClass {
	for c := RegClassI8; c < numRegClasses; c++ {
		info := regClassInfos[c]
		if info.elems == elems && info.bits == bits && info.float == float {
			return c
		}
	}
	panic(fmt.Sprintf("BUG: no register class for %d x %d bits (float=%v)", elems, bits, float))
}

// IntClassOfLanes returns the 32-bit integer class occupying the given number of lanes.
func IntClassOfLanes(lanes int) RegClass {
	switch lanes {
	case 1:
		return RegClassI32
	case 2:
		return RegClassV2I32
	case 4:
		return RegClassV4I32
	default:
		panic(fmt.Sprintf("BUG: no integer class with %d lanes", lanes))
	}
}

// IntClass returns the integer class with the same shape as c.
func IntClass(c RegClass) RegClass {
	info := c.info()
	return RegClassFor(info.elems, info.bits, false)
}

// WithBits returns the integer class with the same element count as c and elements of the given width.
func WithBits(c RegClass, bits int) RegClass {
	return RegClassFor(c.info().elems, bits, false)
}

// FloatClass returns the float class with the same element count as c and elements of the given width.
func FloatClass(c RegClass, bits int) RegClass {
	return RegClassFor(c.info().elems, bits, true)
}

// HalfClass returns the class of the low or high 32-bit halves of a 64-bit element class.
func HalfClass(c RegClass) RegClass {
	info := c.info()
	if info.bits != 64 {
		panic("BUG: HalfClass on " + c.String())
	}
	return RegClassFor(info.elems, 32, false)
}

// MoveOpcode returns the native move for the class.
func MoveOpcode(c RegClass) Opcode {
	info := c.info()
	if info.float && info.bits == 64 {
		return OpcodeDMov
	}
	return OpcodeMov
}
