package codegen

import "fmt"

// Label is an opaque branch target handle minted by an Assembler.
// Labels decouple emission order from layout: match lowering emits
// forward branches to bodies that are placed later.
type Label int

// Assembler owns instruction emission for one function. Branches name
// labels; Resolve rewrites them to instruction offsets once everything
// is placed. A branch to a label that was never placed is a compiler
// bug and panics.
type Assembler struct {
	code    *Code
	next    Label
	placed  map[Label]int
	patches map[int]Label // instruction index -> unresolved target
}

// NewAssembler creates an assembler emitting into code.
func NewAssembler(code *Code) *Assembler {
	return &Assembler{
		code:    code,
		placed:  make(map[Label]int),
		patches: make(map[int]Label),
	}
}

// NewLabel mints an unplaced label.
func (a *Assembler) NewLabel() Label {
	a.next++
	return a.next
}

// Place pins the label at the current emission point. Placing the same
// label twice is a compiler bug.
func (a *Assembler) Place(l Label) {
	if at, ok := a.placed[l]; ok {
		panic(fmt.Sprintf("codegen: label %d placed twice (first at %d)", l, at))
	}
	a.placed[l] = len(a.code.Instructions)
}

// Emit appends a plain instruction.
func (a *Assembler) Emit(op Opcode, line int) {
	a.code.Instructions = append(a.code.Instructions, Instruction{Op: op, Line: line})
}

// EmitArg appends an instruction with a numeric operand.
func (a *Assembler) EmitArg(op Opcode, arg int, line int) {
	a.code.Instructions = append(a.code.Instructions, Instruction{Op: op, Arg: arg, Line: line})
}

// EmitSym appends an instruction with a symbolic operand.
func (a *Assembler) EmitSym(op Opcode, sym string, arg int, line int) {
	a.code.Instructions = append(a.code.Instructions, Instruction{Op: op, Sym: sym, Arg: arg, Line: line})
}

// EmitConstant interns v and pushes it.
func (a *Assembler) EmitConstant(v interface{}, line int) {
	a.EmitArg(OpConst, a.code.AddConstant(v), line)
}

// Branch emits a control transfer to l, resolved later.
func (a *Assembler) Branch(op Opcode, l Label, line int) {
	a.patches[len(a.code.Instructions)] = l
	a.EmitArg(op, -1, line)
}

// Resolve rewrites every branch operand from label to instruction
// offset. Must run exactly once, after all placement.
func (a *Assembler) Resolve() {
	for idx, l := range a.patches {
		at, ok := a.placed[l]
		if !ok {
			panic(fmt.Sprintf("codegen: branch at %d references unplaced label %d", idx, l))
		}
		a.code.Instructions[idx].Arg = at
	}
	a.patches = make(map[int]Label)
}
