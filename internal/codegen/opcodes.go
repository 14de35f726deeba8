// Package codegen lowers type-checked function bodies into a linear
// instruction sequence for a stack target with two-slot wide values.
//
// Instructions stay structured: branch targets are labels until the
// final resolution pass rewrites them to instruction offsets. Byte
// encoding belongs to the surrounding toolchain.
package codegen

import "github.com/vesper-lang/vesper/internal/symbols"

// Opcode identifies a single lowered instruction.
type Opcode byte

const (
	// Stack manipulation
	OpConst Opcode = iota // push constant pool entry Arg
	OpNull                // push the absent reference
	OpUnit                // push unit
	OpPop
	OpDup

	// Locals. Slot is the frame index; wide values occupy Slot and
	// Slot+1 and use the wide forms.
	OpLoadSlot
	OpStoreSlot
	OpLoadWide
	OpStoreWide

	// Arithmetic
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod

	// Comparison
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe

	// Logic
	OpAnd
	OpOr
	OpNot

	// Numeric widening and representation changes
	OpI2L
	OpI2D
	OpL2D
	OpF2D
	OpBox
	OpUnbox

	// Control flow. Arg is a label before resolution, an instruction
	// offset after.
	OpJump
	OpBranchFalse
	OpTrap // unmatched value reached the end of a match
	OpReturn

	// Calls
	OpCall // Sym is the callee, Arg the argument count

	// Construction
	OpMakeList    // Arg elements
	OpMakeVariant // Sym is the variant tag, Arg the field count
	OpMakeRecord  // Sym is the product name, Arg the field count

	// Match dispatch and deconstruction
	OpCheckTag     // push whether top's tag equals Sym
	OpIsNull       // push whether top is the absent reference
	OpCheckType    // push whether top has runtime type Sym
	OpCheckListLen // push whether list length Sym ("==", ">=") Arg
	OpGetField     // replace variant/record with field Arg
	OpGetListElem  // replace list with element Arg
	OpGetListRest  // replace list with its tail from index Arg
)

var opNames = map[Opcode]string{
	OpConst:        "CONST",
	OpNull:         "NULL",
	OpUnit:         "UNIT",
	OpPop:          "POP",
	OpDup:          "DUP",
	OpLoadSlot:     "LOAD",
	OpStoreSlot:    "STORE",
	OpLoadWide:     "LOAD_W",
	OpStoreWide:    "STORE_W",
	OpAdd:          "ADD",
	OpSub:          "SUB",
	OpMul:          "MUL",
	OpDiv:          "DIV",
	OpMod:          "MOD",
	OpEq:           "EQ",
	OpNe:           "NE",
	OpLt:           "LT",
	OpLe:           "LE",
	OpGt:           "GT",
	OpGe:           "GE",
	OpAnd:          "AND",
	OpOr:           "OR",
	OpNot:          "NOT",
	OpI2L:          "I2L",
	OpI2D:          "I2D",
	OpL2D:          "L2D",
	OpF2D:          "F2D",
	OpBox:          "BOX",
	OpUnbox:        "UNBOX",
	OpJump:         "JUMP",
	OpBranchFalse:  "BRANCH_FALSE",
	OpTrap:         "TRAP",
	OpReturn:       "RETURN",
	OpCall:         "CALL",
	OpMakeList:     "MAKE_LIST",
	OpMakeVariant:  "MAKE_VARIANT",
	OpMakeRecord:   "MAKE_RECORD",
	OpCheckTag:     "CHECK_TAG",
	OpIsNull:       "IS_NULL",
	OpCheckType:    "CHECK_TYPE",
	OpCheckListLen: "CHECK_LIST_LEN",
	OpGetField:     "GET_FIELD",
	OpGetListElem:  "GET_LIST_ELEM",
	OpGetListRest:  "GET_LIST_REST",
}

// Name returns the mnemonic used by the disassembler.
func (op Opcode) Name() string {
	if n, ok := opNames[op]; ok {
		return n
	}
	return "UNKNOWN"
}

// Instruction is one lowered operation. Arg and Sym carry the operand
// when the opcode takes one; both are zero otherwise.
type Instruction struct {
	Op   Opcode
	Arg  int
	Sym  string
	Line int
}

// Code is the lowered form of one function: its instruction sequence,
// constant pool, tag table, and frame size in slots.
type Code struct {
	Name         string
	File         string
	Instructions []Instruction
	Constants    []interface{}
	// Tags assigns a stable numeric id to every variant tag this
	// function constructs or tests, so the target dispatches on ids
	// while Sym keeps the name for listings.
	Tags       *symbols.Interner
	FrameSlots int
}

// AddConstant interns a value in the constant pool and returns its index.
func (c *Code) AddConstant(v interface{}) int {
	for i, existing := range c.Constants {
		if existing == v {
			return i
		}
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1
}

// Len returns the number of instructions.
func (c *Code) Len() int {
	return len(c.Instructions)
}
