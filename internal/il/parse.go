package il

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Module is a set of kernels parsed from one source.
type Module struct {
	Functions []*Function
}

// Format returns the textual form of every kernel.
func (m *Module) Format() string {
	var b strings.Builder
	for i, f := range m.Functions {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(f.Format())
	}
	return b.String()
}

// ParseModule reads the textual IR:
//
//	kernel <name>
//	  resource <space> <id>
//	  local <bytes>
//	  region <bytes>
//	  private <bytes>
//	  literal i32|f32|i64|f64|v4 <value>...
//	  <mnemonic>[.<modifier>]* <operand>, ...
//	end
//
// Operands are %<id>:<class> registers (the class may be omitted after first use),
// #<int> or #<float>f immediates, l<n> literals, @<name> globals, $<name> externals and
// ^bb<n> blocks. Text after ';' is ignored.
func ParseModule(src string) (*Module, error) {
	p := parser{m: &Module{}}
	sc := bufio.NewScanner(strings.NewReader(src))
	for sc.Scan() {
		p.line++
		text := sc.Text()
		if i := strings.IndexByte(text, ';'); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if err := p.parseLine(text); err != nil {
			return nil, errors.Wrapf(err, "line %d", p.line)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if p.fn != nil {
		return nil, errors.Errorf("kernel %s: missing end", p.fn.Name())
	}
	return p.m, nil
}

type parser struct {
	m       *Module
	fn      *Function
	classes map[VRegID]RegClass
	line    int
}

func (p *parser) parseLine(text string) error {
	head, rest := text, ""
	if i := strings.IndexAny(text, " \t"); i >= 0 {
		head, rest = text[:i], strings.TrimSpace(text[i+1:])
	}

	if p.fn == nil {
		if head != "kernel" || rest == "" {
			return errors.Errorf("expected kernel header, got %q", text)
		}
		p.fn = NewFunction(rest, nil)
		p.classes = map[VRegID]RegClass{}
		return nil
	}

	k := p.fn.Kernel
	switch head {
	case "end":
		p.m.Functions = append(p.m.Functions, p.fn)
		p.fn = nil
		return nil
	case "kernel":
		return errors.Errorf("nested kernel %q", rest)
	case "resource":
		fields := strings.Fields(rest)
		if len(fields) != 2 {
			return errors.Errorf("resource wants <space> <id>, got %q", rest)
		}
		space, ok := AddressSpaceByName(fields[0])
		if !ok {
			return errors.Errorf("unknown address space %q", fields[0])
		}
		id, err := parseUint32(fields[1])
		if err != nil {
			return err
		}
		k.SetResourceID(space, id)
		return nil
	case "literal":
		return p.parseLiteral(rest)
	case "local", "region", "private":
		v, err := parseUint32(rest)
		if err != nil {
			return err
		}
		switch head {
		case "local":
			k.LocalSize = v
		case "region":
			k.RegionSize = v
		default:
			k.PrivateSize = v
		}
		return nil
	}

	instr, err := p.parseInstruction(head, rest)
	if err != nil {
		return err
	}
	p.fn.Append(instr)
	return nil
}

func (p *parser) parseInstruction(head, rest string) (*Instruction, error) {
	parts := strings.Split(head, ".")
	op, ok := OpcodeByName(parts[0])
	if !ok {
		return nil, errors.Errorf("unknown opcode %q", parts[0])
	}
	instr := NewInstruction(op)

	mods := parts[1:]
	switch op {
	case OpcodeLoad, OpcodeStore:
		if len(mods) < 2 {
			return nil, errors.Errorf("%s wants .<space>.<size>", op)
		}
		space, ok := AddressSpaceByName(mods[0])
		if !ok {
			return nil, errors.Errorf("unknown address space %q", mods[0])
		}
		size, err := strconv.Atoi(mods[1])
		if err != nil || (size != 1 && size != 2 && size != 4 && size != 8 && size != 16) {
			return nil, errors.Errorf("invalid access size %q", mods[1])
		}
		instr.mem = MemAccess{Space: space, Size: size}
		for _, m := range mods[2:] {
			switch m {
			case "sext":
				instr.mem.Ext = ExtSign
			case "zext":
				instr.mem.Ext = ExtZero
			case "hw":
				instr.mem.HWEligible = true
			default:
				return nil, errors.Errorf("unknown memory modifier %q", m)
			}
		}
	case OpcodeSetCC, OpcodeSelectCC:
		if len(mods) != 1 {
			return nil, errors.Errorf("%s wants one condition", op)
		}
		cc, ok := CondCodeByName(mods[0])
		if !ok {
			return nil, errors.Errorf("unknown condition %q", mods[0])
		}
		instr.cond = cc
	default:
		if len(mods) != 0 {
			return nil, errors.Errorf("%s takes no modifiers", op)
		}
	}

	if rest != "" {
		for _, tok := range strings.Split(rest, ",") {
			o, err := p.parseOperand(strings.TrimSpace(tok))
			if err != nil {
				return nil, err
			}
			instr.operands = append(instr.operands, o)
		}
	}
	if err := instr.Verify(); err != nil {
		return nil, err
	}
	return instr, nil
}

func (p *parser) parseOperand(tok string) (Operand, error) {
	if tok == "" {
		return Operand{}, errors.New("empty operand")
	}
	switch tok[0] {
	case '%':
		idText, classText := tok[1:], ""
		if i := strings.IndexByte(idText, ':'); i >= 0 {
			idText, classText = idText[:i], idText[i+1:]
		}
		id, err := parseUint32(idText)
		if err != nil {
			return Operand{}, err
		}
		vid := VRegID(id)
		known, seen := p.classes[vid]
		if classText == "" {
			if !seen {
				return Operand{}, errors.Errorf("register %%%d used without a class", id)
			}
			return OperandReg(NewVReg(vid, known)), nil
		}
		c, ok := RegClassByName(classText)
		if !ok {
			return Operand{}, errors.Errorf("unknown register class %q", classText)
		}
		if seen && known != c {
			return Operand{}, errors.Errorf("register %%%d redeclared as %s, was %s", id, c, known)
		}
		p.classes[vid] = c
		return OperandReg(NewVReg(vid, c)), nil
	case '#':
		v := tok[1:]
		if strings.HasSuffix(v, "f") && !strings.HasPrefix(v, "0x") && !strings.HasPrefix(v, "-0x") {
			f, err := strconv.ParseFloat(strings.TrimSuffix(v, "f"), 64)
			if err != nil {
				return Operand{}, errors.Wrapf(err, "float immediate %q", tok)
			}
			return OperandFImm(f), nil
		}
		i, err := strconv.ParseInt(v, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(v, 0, 64)
			if uerr != nil {
				return Operand{}, errors.Wrapf(err, "immediate %q", tok)
			}
			i = int64(u)
		}
		return OperandImm(i), nil
	case '@':
		return OperandGlobal(tok[1:]), nil
	case '$':
		return OperandExternal(tok[1:]), nil
	case '^':
		id, err := parseUint32(strings.TrimPrefix(tok[1:], "bb"))
		if err != nil {
			return Operand{}, err
		}
		return OperandBlock(id), nil
	case 'l':
		idx, err := parseUint32(tok[1:])
		if err != nil {
			return Operand{}, err
		}
		if int(idx) >= p.fn.Kernel.Literals.Len() {
			return Operand{}, errors.Errorf("literal l%d not defined", idx)
		}
		return OperandLiteral(idx), nil
	}
	return Operand{}, errors.Errorf("invalid operand %q", tok)
}

func (p *parser) parseLiteral(rest string) error {
	fields := strings.Fields(rest)
	if len(fields) < 2 {
		return errors.Errorf("literal wants <kind> <value>, got %q", rest)
	}
	pool := &p.fn.Kernel.Literals
	want := pool.Len()
	var got uint32
	switch fields[0] {
	case "i32":
		v, err := strconv.ParseUint(fields[1], 0, 32)
		if err != nil {
			return errors.Wrapf(err, "i32 literal %q", fields[1])
		}
		got = pool.AddIntegerLiteral(uint32(v))
	case "f32":
		v, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return errors.Wrapf(err, "f32 literal %q", fields[1])
		}
		got = pool.AddFloatLiteral(float32(v))
	case "i64":
		v, err := strconv.ParseUint(fields[1], 0, 64)
		if err != nil {
			return errors.Wrapf(err, "i64 literal %q", fields[1])
		}
		got = pool.AddLongLiteral(v)
	case "f64":
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return errors.Wrapf(err, "f64 literal %q", fields[1])
		}
		got = pool.AddDoubleLiteral(v)
	case "v4":
		if len(fields) != 5 {
			return errors.Errorf("v4 literal wants four lanes, got %q", rest)
		}
		var lanes [4]uint32
		for i := range lanes {
			v, err := parseUint32(fields[i+1])
			if err != nil {
				return err
			}
			lanes[i] = v
		}
		got = pool.AddVectorLiteral(lanes)
	default:
		return errors.Errorf("unknown literal kind %q", fields[0])
	}
	if int(got) != want {
		return errors.Errorf("duplicate literal %q", rest)
	}
	return nil
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid number %q", s)
	}
	return uint32(v), nil
}
