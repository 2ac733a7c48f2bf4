package il

import (
	"fmt"
	"math"
	"strconv"
)

// Severity classifies a Diagnostic.
type Severity byte

const (
	SeverityWarning Severity = iota
	SeverityError
)

// String implements fmt.Stringer.
func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is a message attached to a kernel during lowering.
type Diagnostic struct {
	Severity Severity
	Message  string
}

// String implements fmt.Stringer.
func (d Diagnostic) String() string { return d.Severity.String() + ": " + d.Message }

// Kernel holds the per-kernel metadata the lowering reads and records.
type Kernel struct {
	Name string
	// LocalSize and RegionSize are the bytes of local and region memory the kernel declares.
	LocalSize, RegionSize uint32
	// PrivateSize is the bytes of private scratch memory the kernel declares.
	PrivateSize uint32
	Literals    LiteralPool
	Diagnostics []Diagnostic

	resourceIDs [numAddressSpaces]uint32
	used        [numAddressSpaces]bool
}

// NewKernel returns an empty kernel.
func NewKernel(name string) *Kernel { return &Kernel{Name: name} }

// ResourceID returns the resource id assigned to the address space, or 0 if unassigned.
func (k *Kernel) ResourceID(space AddressSpace) uint32 { return k.resourceIDs[space] }

// SetResourceID assigns the resource id backing the address space.
func (k *Kernel) SetResourceID(space AddressSpace, id uint32) { k.resourceIDs[space] = id }

// MarkUsed records that the kernel accesses the address space.
func (k *Kernel) MarkUsed(space AddressSpace) { k.used[space] = true }

// Uses returns true if an access to the address space was lowered.
func (k *Kernel) Uses(space AddressSpace) bool { return k.used[space] }

// Warnf appends a warning diagnostic.
func (k *Kernel) Warnf(format string, args ...interface{}) {
	k.Diagnostics = append(k.Diagnostics, Diagnostic{Severity: SeverityWarning, Message: fmt.Sprintf(format, args...)})
}

// Errorf appends an error diagnostic.
func (k *Kernel) Errorf(format string, args ...interface{}) {
	k.Diagnostics = append(k.Diagnostics, Diagnostic{Severity: SeverityError, Message: fmt.Sprintf(format, args...)})
}

// HasErrors returns true if any error diagnostic was recorded.
func (k *Kernel) HasErrors() bool {
	for _, d := range k.Diagnostics {
		if d.Severity == SeverityError {
			return true
		}
	}
	return false
}

// LiteralKind is the type of a literal pool entry.
type LiteralKind byte

const (
	LiteralInt32 LiteralKind = iota
	LiteralFloat32
	LiteralInt64
	LiteralFloat64
	LiteralVector
)

// Literal is a constant materialized by the finalizer. Bits holds the value in 32-bit lanes,
// low half first for 64-bit values.
type Literal struct {
	Kind LiteralKind
	Bits [4]uint32
}

// Lanes returns the number of meaningful lanes in Bits.
func (l Literal) Lanes() int {
	switch l.Kind {
	case LiteralInt64, LiteralFloat64:
		return 2
	case LiteralVector:
		return 4
	default:
		return 1
	}
}

// String returns the literal in the form accepted by the literal directive.
func (l Literal) String() string {
	switch l.Kind {
	case LiteralInt32:
		return fmt.Sprintf("i32 %#x", l.Bits[0])
	case LiteralFloat32:
		return "f32 " + strconv.FormatFloat(float64(math.Float32frombits(l.Bits[0])), 'g', -1, 32)
	case LiteralInt64:
		return fmt.Sprintf("i64 %#x", uint64(l.Bits[1])<<32|uint64(l.Bits[0]))
	case LiteralFloat64:
		return "f64 " + strconv.FormatFloat(math.Float64frombits(uint64(l.Bits[1])<<32|uint64(l.Bits[0])), 'g', -1, 64)
	default:
		return fmt.Sprintf("v4 %#x %#x %#x %#x", l.Bits[0], l.Bits[1], l.Bits[2], l.Bits[3])
	}
}

// LiteralPool deduplicates kernel constants. Indices are stable once returned.
type LiteralPool struct {
	entries []Literal
	index   map[Literal]uint32
}

func (p *LiteralPool) add(l Literal) uint32 {
	if p.index == nil {
		p.index = make(map[Literal]uint32)
	}
	if i, ok := p.index[l]; ok {
		return i
	}
	i := uint32(len(p.entries))
	p.entries = append(p.entries, l)
	p.index[l] = i
	return i
}

// AddIntegerLiteral interns a 32-bit integer.
func (p *LiteralPool) AddIntegerLiteral(v uint32) uint32 {
	return p.add(Literal{Kind: LiteralInt32, Bits: [4]uint32{v}})
}

// AddFloatLiteral interns a 32-bit float by bit pattern.
func (p *LiteralPool) AddFloatLiteral(v float32) uint32 {
	return p.add(Literal{Kind: LiteralFloat32, Bits: [4]uint32{math.Float32bits(v)}})
}

// AddLongLiteral interns a 64-bit integer.
func (p *LiteralPool) AddLongLiteral(v uint64) uint32 {
	return p.add(Literal{Kind: LiteralInt64, Bits: [4]uint32{uint32(v), uint32(v >> 32)}})
}

// AddDoubleLiteral interns a 64-bit float by bit pattern.
func (p *LiteralPool) AddDoubleLiteral(v float64) uint32 {
	b := math.Float64bits(v)
	return p.add(Literal{Kind: LiteralFloat64, Bits: [4]uint32{uint32(b), uint32(b >> 32)}})
}

// AddVectorLiteral interns a four-lane 32-bit vector.
func (p *LiteralPool) AddVectorLiteral(v [4]uint32) uint32 {
	return p.add(Literal{Kind: LiteralVector, Bits: v})
}

// Literal returns entry i.
func (p *LiteralPool) Literal(i uint32) Literal { return p.entries[i] }

// Len returns the number of entries.
func (p *LiteralPool) Len() int { return len(p.entries) }

// Entries returns the entries in index order.
func (p *LiteralPool) Entries() []Literal { return p.entries }
