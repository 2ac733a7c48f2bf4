package il

import (
	"fmt"
	"strings"
)

// LaneSwizzle selects hardware lanes for one register operand. Sources and destinations
// index separate tables. The zero value means no swizzle has been assigned.
type LaneSwizzle struct {
	set   bool
	dst   bool
	index uint8
}

type swizzleEntry struct {
	pattern string
	// neg is a lane mask (bit 0 = x) of negated source lanes.
	neg byte
	// width is the lane count of the register class the entry applies to.
	width int
}

// Source swizzles.
var (
	SrcDefault    = srcSwizzle(0)
	SrcX1         = srcSwizzle(1)
	SrcXY2        = srcSwizzle(2)
	SrcXXXX2      = srcSwizzle(3)
	SrcYYYY2      = srcSwizzle(4)
	SrcXXXX4      = srcSwizzle(5)
	SrcYYYY4      = srcSwizzle(6)
	SrcZZZZ4      = srcSwizzle(7)
	SrcWWWW4      = srcSwizzle(8)
	SrcXZXZ4      = srcSwizzle(9)
	SrcYWYW4      = srcSwizzle(10)
	SrcXXYY2      = srcSwizzle(11)
	SrcX0001      = srcSwizzle(12)
	Src0X001      = srcSwizzle(13)
	Src00X01      = srcSwizzle(14)
	Src000X1      = srcSwizzle(15)
	SrcX0Y02      = srcSwizzle(16)
	Src0X0Y2      = srcSwizzle(17)
	SrcXY002      = srcSwizzle(18)
	Src00XY2      = srcSwizzle(19)
	Src0YZW4      = srcSwizzle(20)
	SrcX0ZW4      = srcSwizzle(21)
	SrcXY0W4      = srcSwizzle(22)
	SrcXYZ04      = srcSwizzle(23)
	Src0Y002      = srcSwizzle(24)
	SrcX0002      = srcSwizzle(25)
	SrcXYNegY2    = srcSwizzle(26)
	SrcXYZWNegYW4 = srcSwizzle(27)
	SrcZWZW4      = srcSwizzle(28)
)

var sourceSwizzles = []swizzleEntry{
	{pattern: "xyzw", width: 4},
	{pattern: "xxxx", width: 1},
	{pattern: "xyxy", width: 2},
	{pattern: "xxxx", width: 2},
	{pattern: "yyyy", width: 2},
	{pattern: "xxxx", width: 4},
	{pattern: "yyyy", width: 4},
	{pattern: "zzzz", width: 4},
	{pattern: "wwww", width: 4},
	{pattern: "xzxz", width: 4},
	{pattern: "ywyw", width: 4},
	{pattern: "xxyy", width: 2},
	{pattern: "x000", width: 1},
	{pattern: "0x00", width: 1},
	{pattern: "00x0", width: 1},
	{pattern: "000x", width: 1},
	{pattern: "x0y0", width: 2},
	{pattern: "0x0y", width: 2},
	{pattern: "xy00", width: 2},
	{pattern: "00xy", width: 2},
	{pattern: "0yzw", width: 4},
	{pattern: "x0zw", width: 4},
	{pattern: "xy0w", width: 4},
	{pattern: "xyz0", width: 4},
	{pattern: "0y00", width: 2},
	{pattern: "x000", width: 2},
	{pattern: "xyxy", neg: 0b0010, width: 2},
	{pattern: "xyzw", neg: 0b1010, width: 4},
	{pattern: "zwzw", width: 4},
}

// Destination swizzles.
var (
	DstDefault = dstSwizzle(0)
	DstX1      = dstSwizzle(1)
	DstXY2     = dstSwizzle(2)
	DstX2      = dstSwizzle(3)
	DstY2      = dstSwizzle(4)
	DstX4      = dstSwizzle(5)
	DstY4      = dstSwizzle(6)
	DstZ4      = dstSwizzle(7)
	DstW4      = dstSwizzle(8)
)

var destSwizzles = []swizzleEntry{
	{pattern: "xyzw", width: 4},
	{pattern: "x___", width: 1},
	{pattern: "xy__", width: 2},
	{pattern: "x___", width: 2},
	{pattern: "_y__", width: 2},
	{pattern: "x___", width: 4},
	{pattern: "_y__", width: 4},
	{pattern: "__z_", width: 4},
	{pattern: "___w", width: 4},
}

func srcSwizzle(i uint8) LaneSwizzle { return LaneSwizzle{set: true, index: i} }

func dstSwizzle(i uint8) LaneSwizzle { return LaneSwizzle{set: true, dst: true, index: i} }

// DecodeSwizzle is the inverse of LaneSwizzle.Encoding.
func DecodeSwizzle(enc uint8) (LaneSwizzle, error) {
	s := LaneSwizzle{set: true, dst: enc&0x80 != 0, index: enc & 0x7f}
	if int(s.index) >= len(s.table()) {
		return LaneSwizzle{}, fmt.Errorf("swizzle encoding %#x out of range", enc)
	}
	return s, nil
}

func (s LaneSwizzle) table() []swizzleEntry {
	if s.dst {
		return destSwizzles
	}
	return sourceSwizzles
}

func (s LaneSwizzle) entry() swizzleEntry {
	if !s.set {
		panic("BUG: swizzle not assigned")
	}
	return s.table()[s.index]
}

// Assigned returns true if the swizzle pass set s.
func (s LaneSwizzle) Assigned() bool { return s.set }

// IsDest returns true for destination swizzles.
func (s LaneSwizzle) IsDest() bool { return s.dst }

// Encoding packs s into one byte: the top bit selects the destination table and the
// remaining seven bits index it.
func (s LaneSwizzle) Encoding() uint8 {
	if s.dst {
		return 0x80 | s.index
	}
	return s.index
}

// Width returns the lane count of the register class s is defined for.
func (s LaneSwizzle) Width() int { return s.entry().width }

// Pattern returns the four-character lane pattern, e.g. "xyxy" or "x___".
func (s LaneSwizzle) Pattern() string { return s.entry().pattern }

// Negated returns the mask of negated source lanes.
func (s LaneSwizzle) Negated() byte { return s.entry().neg }

// Select returns the source lane read for result lane i, or -1 for a constant zero lane.
func (s LaneSwizzle) Select(i int) int {
	switch s.entry().pattern[i] {
	case 'x':
		return 0
	case 'y':
		return 1
	case 'z':
		return 2
	case 'w':
		return 3
	}
	return -1
}

// Writes returns true if the destination swizzle writes lane i.
func (s LaneSwizzle) Writes(i int) bool { return s.entry().pattern[i] != '_' }

// String returns the AMDIL suffix for s, e.g. ".xxxx" or ".xyzw_neg(yw)". The full
// default swizzles render as the empty string.
func (s LaneSwizzle) String() string {
	if !s.set {
		return ""
	}
	e := s.entry()
	var b strings.Builder
	if s.index != 0 || e.neg != 0 {
		b.WriteByte('.')
		b.WriteString(e.pattern)
	}
	if e.neg != 0 {
		b.WriteString("_neg(")
		for i, c := range "xyzw" {
			if e.neg&(1<<i) != 0 {
				b.WriteRune(c)
			}
		}
		b.WriteByte(')')
	}
	return b.String()
}
