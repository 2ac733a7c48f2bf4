package il

import (
	"strconv"
	"strings"
)

// Function is a kernel body: a doubly linked list of instructions over virtual registers.
type Function struct {
	Kernel *Kernel

	root, tail *Instruction
	nextVReg   VRegID
}

// NewFunction returns an empty function for the kernel. A nil kernel gets a fresh one named name.
func NewFunction(name string, k *Kernel) *Function {
	if k == nil {
		k = NewKernel(name)
	}
	return &Function{Kernel: k}
}

// Name returns the kernel name.
func (f *Function) Name() string { return f.Kernel.Name }

// AllocateVReg returns a fresh virtual register of the class.
func (f *Function) AllocateVReg(c RegClass) VReg {
	v := NewVReg(f.nextVReg, c)
	f.nextVReg++
	return v
}

// reserveVReg makes sure ids up to and including id are never handed out again.
func (f *Function) reserveVReg(id VRegID) {
	if id >= f.nextVReg {
		f.nextVReg = id + 1
	}
}

// NumVRegs returns one past the largest allocated register id.
func (f *Function) NumVRegs() int { return int(f.nextVReg) }

// Root returns the first instruction.
func (f *Function) Root() *Instruction { return f.root }

// Tail returns the last instruction.
func (f *Function) Tail() *Instruction { return f.tail }

// Append adds instr at the end of the function.
func (f *Function) Append(instr *Instruction) {
	f.adopt(instr)
	if f.tail == nil {
		f.root, f.tail = instr, instr
		return
	}
	f.tail.next, instr.prev = instr, f.tail
	f.tail = instr
}

// InsertBefore links instr immediately before pivot. A nil pivot appends.
func (f *Function) InsertBefore(pivot, instr *Instruction) {
	if pivot == nil {
		f.Append(instr)
		return
	}
	f.adopt(instr)
	instr.prev, instr.next = pivot.prev, pivot
	if pivot.prev != nil {
		pivot.prev.next = instr
	} else {
		f.root = instr
	}
	pivot.prev = instr
}

// Remove unlinks instr from the function.
func (f *Function) Remove(instr *Instruction) {
	if instr.fn != f {
		panic("BUG: removing instruction not owned by " + f.Name())
	}
	if instr.prev != nil {
		instr.prev.next = instr.next
	} else {
		f.root = instr.next
	}
	if instr.next != nil {
		instr.next.prev = instr.prev
	} else {
		f.tail = instr.prev
	}
	instr.prev, instr.next, instr.fn = nil, nil, nil
}

func (f *Function) adopt(instr *Instruction) {
	if instr.fn != nil {
		panic("BUG: instruction already linked: " + instr.String())
	}
	instr.fn = f
	for _, o := range instr.operands {
		if o.IsReg() {
			f.reserveVReg(o.Reg().ID())
		}
	}
}

// Instructions returns a snapshot of the instruction list.
func (f *Function) Instructions() []*Instruction {
	var ret []*Instruction
	for cur := f.root; cur != nil; cur = cur.next {
		ret = append(ret, cur)
	}
	return ret
}

// Len returns the number of instructions.
func (f *Function) Len() (n int) {
	for cur := f.root; cur != nil; cur = cur.next {
		n++
	}
	return
}

// Format returns the textual IR form of the function, which ParseModule accepts.
func (f *Function) Format() string {
	var b strings.Builder
	k := f.Kernel
	b.WriteString("kernel " + k.Name + "\n")
	for space := AddressSpace(0); space < numAddressSpaces; space++ {
		if id := k.ResourceID(space); id != 0 {
			b.WriteString("  resource " + space.String() + " " + uitoa(id) + "\n")
		}
	}
	if k.LocalSize != 0 {
		b.WriteString("  local " + uitoa(k.LocalSize) + "\n")
	}
	if k.RegionSize != 0 {
		b.WriteString("  region " + uitoa(k.RegionSize) + "\n")
	}
	if k.PrivateSize != 0 {
		b.WriteString("  private " + uitoa(k.PrivateSize) + "\n")
	}
	for _, l := range k.Literals.Entries() {
		b.WriteString("  literal " + l.String() + "\n")
	}
	for cur := f.root; cur != nil; cur = cur.next {
		b.WriteString("  " + cur.String() + "\n")
	}
	b.WriteString("end\n")
	return b.String()
}

func uitoa(v uint32) string { return strconv.FormatUint(uint64(v), 10) }
