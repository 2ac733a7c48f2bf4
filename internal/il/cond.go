package il

import "fmt"

// CondCode is a generic comparison condition. On integer operands GT/GE/LT/LE are signed and
// UGT/UGE/ULT/ULE are unsigned. On float operands the O* conditions are false and the U*
// conditions are true when either operand is NaN; EQ/GT/GE/LT/LE behave as ordered and NE as
// unordered.
type CondCode byte

const (
	CondInvalid CondCode = iota
	CondFalse
	CondOEQ
	CondOGT
	CondOGE
	CondOLT
	CondOLE
	CondONE
	CondO
	CondUO
	CondUEQ
	CondUGT
	CondUGE
	CondULT
	CondULE
	CondUNE
	CondTrue
	CondEQ
	CondGT
	CondGE
	CondLT
	CondLE
	CondNE

	numCondCodes
)

var condCodeNames = [numCondCodes]string{
	"invalid", "false", "oeq", "ogt", "oge", "olt", "ole", "one", "o", "uo",
	"ueq", "ugt", "uge", "ult", "ule", "une", "true", "eq", "gt", "ge", "lt", "le", "ne",
}

// String implements fmt.Stringer.
func (c CondCode) String() string {
	if c >= numCondCodes {
		return fmt.Sprintf("cond(%d)", c)
	}
	return condCodeNames[c]
}

// CondCodeByName returns the condition named by String.
func CondCodeByName(name string) (CondCode, bool) {
	for c := CondFalse; c < numCondCodes; c++ {
		if condCodeNames[c] == name {
			return c, true
		}
	}
	return CondInvalid, false
}
