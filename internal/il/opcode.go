package il

import "fmt"

// Opcode identifies an instruction. Native opcodes map one-to-one onto AMDIL instructions.
// Pseudo opcodes are generic operations that must be expanded by the backend before printing.
type Opcode uint16

const (
	OpcodeInvalid Opcode = iota

	// OpcodeArg reads kernel argument #index into its definition: `arg dst, #index`.
	OpcodeArg
	// OpcodeRet returns its operands from the kernel.
	OpcodeRet
	// OpcodeCall calls the external symbol in operand 0 with the remaining operands.
	OpcodeCall
	// OpcodeDebugValue is a debug marker and produces no code.
	OpcodeDebugValue
	// OpcodeLoadConst materializes a literal pool entry: `loadconst dst, lN`.
	OpcodeLoadConst
	OpcodeMov
	OpcodeDMov

	// 32-bit integer arithmetic.
	OpcodeIAdd
	OpcodeISub
	OpcodeINegate
	OpcodeIMul
	OpcodeUMul
	OpcodeIMulHigh
	OpcodeUMulHigh
	// OpcodeIMul24 multiplies the sign extended low 24 bits of its sources.
	OpcodeIMul24
	OpcodeUDiv32
	OpcodeUMod32
	OpcodeIAnd
	OpcodeIOr
	OpcodeIXor
	OpcodeINot
	OpcodeIShl
	OpcodeIShr
	OpcodeUShr
	OpcodeIEq
	OpcodeINe
	OpcodeILt
	OpcodeIGe
	OpcodeULt
	OpcodeUGe
	// OpcodeCmovLogical selects operand 2 where operand 1 is non-zero, operand 3 otherwise.
	OpcodeCmovLogical
	// OpcodeUBitExtract extracts operand 1 bits starting at bit operand 2 from operand 3.
	OpcodeUBitExtract
	// OpcodeFfbHi returns the number of leading zero bits, or -1 for zero.
	OpcodeFfbHi

	// 64-bit integer arithmetic, available when long operations run in hardware.
	OpcodeI64Add
	OpcodeI64Sub
	OpcodeI64Shl
	OpcodeI64Shr
	OpcodeU64Shr
	OpcodeI64Eq
	OpcodeI64Ne
	OpcodeI64Lt
	OpcodeI64Ge
	OpcodeU64Lt
	OpcodeU64Ge

	// Composition of 64-bit values from 32-bit halves.
	OpcodeLCreate
	OpcodeLLo
	OpcodeLHi
	OpcodeDCreate
	OpcodeDLo
	OpcodeDHi

	// 32-bit float arithmetic.
	OpcodeFAdd
	OpcodeFSub
	OpcodeFMul
	OpcodeFMad
	OpcodeFDivInf
	OpcodeFRoundZ
	OpcodeFAbs
	OpcodeFEq
	OpcodeFNe
	OpcodeFLt
	OpcodeFGe
	OpcodeFtoI
	OpcodeFtoU
	OpcodeItoF
	OpcodeUtoF

	// 64-bit float arithmetic.
	OpcodeDAdd
	OpcodeDSub
	OpcodeDNeg
	OpcodeDMul
	OpcodeDMad
	OpcodeDEq
	OpcodeDNe
	OpcodeDLt
	OpcodeDGe
	OpcodeFtoD
	OpcodeDtoF
	OpcodeDTrunc
	OpcodeDtoI
	OpcodeDtoU
	OpcodeItoD
	OpcodeUtoD

	// Vector element manipulation. The lane index is an immediate operand.
	OpcodeVExtract
	OpcodeVInsert
	OpcodeVConcat

	// Memory. The last operand of each is the immediate resource id.
	OpcodeUAVRawLoad
	OpcodeUAVRawStore
	// OpcodeUAVByteStore and OpcodeUAVShortStore write the low 1 or 2 bytes of the value to a
	// naturally aligned byte address.
	OpcodeUAVByteStore
	OpcodeUAVShortStore
	OpcodeLDSLoad
	OpcodeLDSLoadX
	OpcodeLDSLoadY
	OpcodeLDSLoadZ
	OpcodeLDSLoadW
	OpcodeLDSStore
	OpcodeLDSStoreX
	OpcodeLDSStoreY
	OpcodeLDSStoreZ
	OpcodeLDSStoreW
	OpcodeGDSLoad
	OpcodeGDSLoadX
	OpcodeGDSLoadY
	OpcodeGDSLoadZ
	OpcodeGDSLoadW
	OpcodeGDSStore
	OpcodeGDSStoreX
	OpcodeGDSStoreY
	OpcodeGDSStoreZ
	OpcodeGDSStoreW

	// Pseudo operations.
	OpcodeAdd
	OpcodeSub
	OpcodeMul
	OpcodeSDiv
	OpcodeUDiv
	OpcodeSRem
	OpcodeURem
	OpcodeFPToSI
	OpcodeFPToUI
	OpcodeSIToFP
	OpcodeUIToFP
	OpcodeCtlz
	OpcodeSetCC
	OpcodeSelectCC
	OpcodeLoad
	OpcodeStore

	numOpcodes
)

type opcodeInfo struct {
	name string
	defs int
	// operands is the operand count including definitions, or variadic.
	operands int
	pseudo   bool
}

const variadic = -1

var opcodeInfos = [numOpcodes]opcodeInfo{
	OpcodeInvalid:    {name: "invalid"},
	OpcodeArg:        {name: "arg", defs: 1, operands: 2},
	OpcodeRet:        {name: "ret", operands: variadic},
	OpcodeCall:       {name: "call", operands: variadic},
	OpcodeDebugValue: {name: "dbg_value", operands: variadic},
	OpcodeLoadConst:  {name: "loadconst", defs: 1, operands: 2},
	OpcodeMov:        {name: "mov", defs: 1, operands: 2},
	OpcodeDMov:       {name: "dmov", defs: 1, operands: 2},

	OpcodeIAdd:        {name: "iadd", defs: 1, operands: 3},
	OpcodeISub:        {name: "isub", defs: 1, operands: 3},
	OpcodeINegate:     {name: "inegate", defs: 1, operands: 2},
	OpcodeIMul:        {name: "imul", defs: 1, operands: 3},
	OpcodeUMul:        {name: "umul", defs: 1, operands: 3},
	OpcodeIMulHigh:    {name: "imul_high", defs: 1, operands: 3},
	OpcodeUMulHigh:    {name: "umul_high", defs: 1, operands: 3},
	OpcodeIMul24:      {name: "imul24", defs: 1, operands: 3},
	OpcodeUDiv32:      {name: "udiv", defs: 1, operands: 3},
	OpcodeUMod32:      {name: "umod", defs: 1, operands: 3},
	OpcodeIAnd:        {name: "iand", defs: 1, operands: 3},
	OpcodeIOr:         {name: "ior", defs: 1, operands: 3},
	OpcodeIXor:        {name: "ixor", defs: 1, operands: 3},
	OpcodeINot:        {name: "inot", defs: 1, operands: 2},
	OpcodeIShl:        {name: "ishl", defs: 1, operands: 3},
	OpcodeIShr:        {name: "ishr", defs: 1, operands: 3},
	OpcodeUShr:        {name: "ushr", defs: 1, operands: 3},
	OpcodeIEq:         {name: "ieq", defs: 1, operands: 3},
	OpcodeINe:         {name: "ine", defs: 1, operands: 3},
	OpcodeILt:         {name: "ilt", defs: 1, operands: 3},
	OpcodeIGe:         {name: "ige", defs: 1, operands: 3},
	OpcodeULt:         {name: "ult", defs: 1, operands: 3},
	OpcodeUGe:         {name: "uge", defs: 1, operands: 3},
	OpcodeCmovLogical: {name: "cmov_logical", defs: 1, operands: 4},
	OpcodeUBitExtract: {name: "ubit_extract", defs: 1, operands: 4},
	OpcodeFfbHi:       {name: "ffb_hi", defs: 1, operands: 2},

	OpcodeI64Add: {name: "i64add", defs: 1, operands: 3},
	OpcodeI64Sub: {name: "i64sub", defs: 1, operands: 3},
	OpcodeI64Shl: {name: "i64shl", defs: 1, operands: 3},
	OpcodeI64Shr: {name: "i64shr", defs: 1, operands: 3},
	OpcodeU64Shr: {name: "u64shr", defs: 1, operands: 3},
	OpcodeI64Eq:  {name: "i64eq", defs: 1, operands: 3},
	OpcodeI64Ne:  {name: "i64ne", defs: 1, operands: 3},
	OpcodeI64Lt:  {name: "i64lt", defs: 1, operands: 3},
	OpcodeI64Ge:  {name: "i64ge", defs: 1, operands: 3},
	OpcodeU64Lt:  {name: "u64lt", defs: 1, operands: 3},
	OpcodeU64Ge:  {name: "u64ge", defs: 1, operands: 3},

	OpcodeLCreate: {name: "lcreate", defs: 1, operands: 3},
	OpcodeLLo:     {name: "llo", defs: 1, operands: 2},
	OpcodeLHi:     {name: "lhi", defs: 1, operands: 2},
	OpcodeDCreate: {name: "dcreate", defs: 1, operands: 3},
	OpcodeDLo:     {name: "dlo", defs: 1, operands: 2},
	OpcodeDHi:     {name: "dhi", defs: 1, operands: 2},

	OpcodeFAdd:    {name: "add", defs: 1, operands: 3},
	OpcodeFSub:    {name: "sub", defs: 1, operands: 3},
	OpcodeFMul:    {name: "mul", defs: 1, operands: 3},
	OpcodeFMad:    {name: "mad", defs: 1, operands: 4},
	OpcodeFDivInf: {name: "div_zeroop(infinity)", defs: 1, operands: 3},
	OpcodeFRoundZ: {name: "round_z", defs: 1, operands: 2},
	OpcodeFAbs:    {name: "abs", defs: 1, operands: 2},
	OpcodeFEq:     {name: "eq", defs: 1, operands: 3},
	OpcodeFNe:     {name: "ne", defs: 1, operands: 3},
	OpcodeFLt:     {name: "lt", defs: 1, operands: 3},
	OpcodeFGe:     {name: "ge", defs: 1, operands: 3},
	OpcodeFtoI:    {name: "ftoi", defs: 1, operands: 2},
	OpcodeFtoU:    {name: "ftou", defs: 1, operands: 2},
	OpcodeItoF:    {name: "itof", defs: 1, operands: 2},
	OpcodeUtoF:    {name: "utof", defs: 1, operands: 2},

	OpcodeDAdd:   {name: "dadd", defs: 1, operands: 3},
	OpcodeDSub:   {name: "dsub", defs: 1, operands: 3},
	OpcodeDNeg:   {name: "dneg", defs: 1, operands: 2},
	OpcodeDMul:   {name: "dmul", defs: 1, operands: 3},
	OpcodeDMad:   {name: "dmad", defs: 1, operands: 4},
	OpcodeDEq:    {name: "deq", defs: 1, operands: 3},
	OpcodeDNe:    {name: "dne", defs: 1, operands: 3},
	OpcodeDLt:    {name: "dlt", defs: 1, operands: 3},
	OpcodeDGe:    {name: "dge", defs: 1, operands: 3},
	OpcodeFtoD:   {name: "f2d", defs: 1, operands: 2},
	OpcodeDtoF:   {name: "d2f", defs: 1, operands: 2},
	OpcodeDTrunc: {name: "dtrunc", defs: 1, operands: 2},
	OpcodeDtoI:   {name: "dtoi", defs: 1, operands: 2},
	OpcodeDtoU:   {name: "dtou", defs: 1, operands: 2},
	OpcodeItoD:   {name: "itod", defs: 1, operands: 2},
	OpcodeUtoD:   {name: "utod", defs: 1, operands: 2},

	OpcodeVExtract: {name: "vextract", defs: 1, operands: 3},
	OpcodeVInsert:  {name: "vinsert", defs: 1, operands: 4},
	OpcodeVConcat:  {name: "vconcat", defs: 1, operands: 3},

	OpcodeUAVRawLoad:    {name: "uav_raw_load", defs: 1, operands: 3},
	OpcodeUAVRawStore:   {name: "uav_raw_store", operands: 3},
	OpcodeUAVByteStore:  {name: "uav_byte_store", operands: 3},
	OpcodeUAVShortStore: {name: "uav_short_store", operands: 3},
	OpcodeLDSLoad:       {name: "lds_load", defs: 1, operands: 3},
	OpcodeLDSLoadX:      {name: "lds_load_x", defs: 1, operands: 3},
	OpcodeLDSLoadY:      {name: "lds_load_y", defs: 1, operands: 3},
	OpcodeLDSLoadZ:      {name: "lds_load_z", defs: 1, operands: 3},
	OpcodeLDSLoadW:      {name: "lds_load_w", defs: 1, operands: 3},
	OpcodeLDSStore:      {name: "lds_store", operands: 3},
	OpcodeLDSStoreX:     {name: "lds_store_x", operands: 3},
	OpcodeLDSStoreY:     {name: "lds_store_y", operands: 3},
	OpcodeLDSStoreZ:     {name: "lds_store_z", operands: 3},
	OpcodeLDSStoreW:     {name: "lds_store_w", operands: 3},
	OpcodeGDSLoad:       {name: "gds_load", defs: 1, operands: 3},
	OpcodeGDSLoadX:      {name: "gds_load_x", defs: 1, operands: 3},
	OpcodeGDSLoadY:      {name: "gds_load_y", defs: 1, operands: 3},
	OpcodeGDSLoadZ:      {name: "gds_load_z", defs: 1, operands: 3},
	OpcodeGDSLoadW:      {name: "gds_load_w", defs: 1, operands: 3},
	OpcodeGDSStore:      {name: "gds_store", operands: 3},
	OpcodeGDSStoreX:     {name: "gds_store_x", operands: 3},
	OpcodeGDSStoreY:     {name: "gds_store_y", operands: 3},
	OpcodeGDSStoreZ:     {name: "gds_store_z", operands: 3},
	OpcodeGDSStoreW:     {name: "gds_store_w", operands: 3},

	OpcodeAdd:      {name: "ADD", defs: 1, operands: 3, pseudo: true},
	OpcodeSub:      {name: "SUB", defs: 1, operands: 3, pseudo: true},
	OpcodeMul:      {name: "MUL", defs: 1, operands: 3, pseudo: true},
	OpcodeSDiv:     {name: "SDIV", defs: 1, operands: 3, pseudo: true},
	OpcodeUDiv:     {name: "UDIV", defs: 1, operands: 3, pseudo: true},
	OpcodeSRem:     {name: "SREM", defs: 1, operands: 3, pseudo: true},
	OpcodeURem:     {name: "UREM", defs: 1, operands: 3, pseudo: true},
	OpcodeFPToSI:   {name: "FP_TO_SINT", defs: 1, operands: 2, pseudo: true},
	OpcodeFPToUI:   {name: "FP_TO_UINT", defs: 1, operands: 2, pseudo: true},
	OpcodeSIToFP:   {name: "SINT_TO_FP", defs: 1, operands: 2, pseudo: true},
	OpcodeUIToFP:   {name: "UINT_TO_FP", defs: 1, operands: 2, pseudo: true},
	OpcodeCtlz:     {name: "CTLZ", defs: 1, operands: 2, pseudo: true},
	OpcodeSetCC:    {name: "SETCC", defs: 1, operands: 3, pseudo: true},
	OpcodeSelectCC: {name: "SELECT_CC", defs: 1, operands: 5, pseudo: true},
	OpcodeLoad:     {name: "LOAD", defs: 1, operands: 2, pseudo: true},
	OpcodeStore:    {name: "STORE", operands: 2, pseudo: true},
}

// String implements fmt.Stringer.
func (o Opcode) String() string {
	if o >= numOpcodes {
		return fmt.Sprintf("opcode(%d)", o)
	}
	return opcodeInfos[o].name
}

// IsPseudo returns true if the opcode has no AMDIL encoding and must be expanded.
func (o Opcode) IsPseudo() bool { return opcodeInfos[o].pseudo }

// NumDefs returns the number of leading operands that are definitions.
func (o Opcode) NumDefs() int { return opcodeInfos[o].defs }

// NumOperands returns the operand count including definitions, and false for variadic opcodes.
func (o Opcode) NumOperands() (int, bool) {
	n := opcodeInfos[o].operands
	return n, n != variadic
}

// IsMemory returns true for native memory instructions.
func (o Opcode) IsMemory() bool {
	return o >= OpcodeUAVRawLoad && o <= OpcodeGDSStoreW
}

// IsUAV returns true for native accesses to a raw UAV.
func (o Opcode) IsUAV() bool {
	return o >= OpcodeUAVRawLoad && o <= OpcodeUAVShortStore
}

// StoreWidth returns the bytes written by a sub-word UAV store, or 0.
func (o Opcode) StoreWidth() int {
	switch o {
	case OpcodeUAVByteStore:
		return 1
	case OpcodeUAVShortStore:
		return 2
	}
	return 0
}

// IsLoad returns true for native and pseudo loads.
func (o Opcode) IsLoad() bool {
	switch o {
	case OpcodeLoad, OpcodeUAVRawLoad,
		OpcodeLDSLoad, OpcodeLDSLoadX, OpcodeLDSLoadY, OpcodeLDSLoadZ, OpcodeLDSLoadW,
		OpcodeGDSLoad, OpcodeGDSLoadX, OpcodeGDSLoadY, OpcodeGDSLoadZ, OpcodeGDSLoadW:
		return true
	}
	return false
}

// IsStore returns true for native and pseudo stores.
func (o Opcode) IsStore() bool {
	switch o {
	case OpcodeStore, OpcodeUAVRawStore, OpcodeUAVByteStore, OpcodeUAVShortStore,
		OpcodeLDSStore, OpcodeLDSStoreX, OpcodeLDSStoreY, OpcodeLDSStoreZ, OpcodeLDSStoreW,
		OpcodeGDSStore, OpcodeGDSStoreX, OpcodeGDSStoreY, OpcodeGDSStoreZ, OpcodeGDSStoreW:
		return true
	}
	return false
}

// LaneOf returns the lane addressed by a single-lane LDS/GDS instruction, or -1.
func (o Opcode) LaneOf() int {
	switch o {
	case OpcodeLDSLoadX, OpcodeLDSStoreX, OpcodeGDSLoadX, OpcodeGDSStoreX:
		return 0
	case OpcodeLDSLoadY, OpcodeLDSStoreY, OpcodeGDSLoadY, OpcodeGDSStoreY:
		return 1
	case OpcodeLDSLoadZ, OpcodeLDSStoreZ, OpcodeGDSLoadZ, OpcodeGDSStoreZ:
		return 2
	case OpcodeLDSLoadW, OpcodeLDSStoreW, OpcodeGDSLoadW, OpcodeGDSStoreW:
		return 3
	}
	return -1
}

// OpcodeByName returns the opcode whose String is name.
func OpcodeByName(name string) (Opcode, bool) {
	o, ok := opcodesByName[name]
	return o, ok
}

var opcodesByName = func() map[string]Opcode {
	m := make(map[string]Opcode, numOpcodes)
	for o := OpcodeArg; o < numOpcodes; o++ {
		m[opcodeInfos[o].name] = o
	}
	return m
}()
