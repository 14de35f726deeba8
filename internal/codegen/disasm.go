package codegen

import (
	"fmt"
	"strings"
)

// Disassemble renders a human-readable listing of lowered code. The
// format is stable and covered by golden tests: offset, source line
// (or a continuation bar), mnemonic, then the operand.
func Disassemble(code *Code) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("== %s ==\n", code.Name))

	for offset, ins := range code.Instructions {
		sb.WriteString(fmt.Sprintf("%04d ", offset))
		if offset > 0 && ins.Line == code.Instructions[offset-1].Line {
			sb.WriteString("   | ")
		} else {
			sb.WriteString(fmt.Sprintf("%4d ", ins.Line))
		}
		writeInstruction(&sb, code, ins)
		sb.WriteByte('\n')
	}
	return sb.String()
}

func writeInstruction(sb *strings.Builder, code *Code, ins Instruction) {
	name := ins.Op.Name()
	switch ins.Op {
	case OpConst:
		fmt.Fprintf(sb, "%-16s %d (%v)", name, ins.Arg, code.Constants[ins.Arg])
	case OpJump, OpBranchFalse:
		fmt.Fprintf(sb, "%-16s -> %04d", name, ins.Arg)
	case OpLoadSlot, OpStoreSlot, OpLoadWide, OpStoreWide,
		OpGetField, OpGetListElem, OpGetListRest, OpMakeList:
		fmt.Fprintf(sb, "%-16s %d", name, ins.Arg)
	case OpCall, OpMakeVariant, OpMakeRecord:
		fmt.Fprintf(sb, "%-16s %s/%d", name, ins.Sym, ins.Arg)
	case OpCheckTag, OpCheckType:
		fmt.Fprintf(sb, "%-16s %s", name, ins.Sym)
	case OpCheckListLen:
		fmt.Fprintf(sb, "%-16s len %s %d", name, ins.Sym, ins.Arg)
	default:
		sb.WriteString(name)
	}
}
