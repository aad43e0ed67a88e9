package ir

import (
	"fmt"
	"strings"
)

// String renders the module in a deterministic LLVM-like textual form:
// struct bodies, globals, external declarations, then definitions, in
// insertion order.
func (m *Module) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "; module %s\n", m.Name)

	for _, st := range m.Structs {
		fields := make([]string, len(st.Fields))
		for i, f := range st.Fields {
			fields[i] = f.String()
		}
		fmt.Fprintf(&sb, "%%%s = type { %s }\n", st.Name, strings.Join(fields, ", "))
	}
	if len(m.Structs) > 0 {
		sb.WriteString("\n")
	}

	for _, g := range m.Globals {
		sb.WriteString(g.define())
		sb.WriteString("\n")
	}
	if len(m.Globals) > 0 {
		sb.WriteString("\n")
	}

	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			fmt.Fprintf(&sb, "declare %s\n", f.signature())
		}
	}
	for _, f := range m.Funcs {
		if len(f.Blocks) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\ndefine %s {\n", f.signature())
		for _, b := range f.Blocks {
			fmt.Fprintf(&sb, "%s:\n", b.name)
			for _, in := range b.Instrs {
				fmt.Fprintf(&sb, "  %s\n", in.render())
			}
		}
		sb.WriteString("}\n")
	}
	return sb.String()
}

func (g *Global) define() string {
	linkage := "global"
	if g.Const {
		linkage = "constant"
	}
	if g.Private {
		linkage = "private " + linkage
	}
	if g.Private {
		// Only interned string constants are private.
		return fmt.Sprintf("@%s = %s %s c\"%s\"", g.name, linkage, g.ValueType, escapeString(g.Str))
	}
	init := "zeroinitializer"
	if g.Init != nil {
		init = g.Init.Operand()
	}
	return fmt.Sprintf("@%s = %s %s %s", g.name, linkage, g.ValueType, init)
}

// escapeString renders string-constant bytes with a trailing NUL, the
// way LLVM spells c"..." payloads.
func escapeString(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b >= 0x20 && b < 0x7f && b != '"' && b != '\\' {
			sb.WriteByte(b)
			continue
		}
		fmt.Fprintf(&sb, "\\%02X", b)
	}
	sb.WriteString("\\00")
	return sb.String()
}

func (f *Func) signature() string {
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = typed(p)
	}
	if f.typ.Variadic {
		params = append(params, "...")
	}
	return fmt.Sprintf("%s @%s(%s)", f.typ.Return, f.name, strings.Join(params, ", "))
}

// render produces the instruction's one-line textual form.
func (in *Instr) render() string {
	switch in.Op {
	case OpAlloca:
		return fmt.Sprintf("%%%s = alloca %s", in.name, in.ElemType)
	case OpLoad:
		return fmt.Sprintf("%%%s = load %s, %s", in.name, in.ElemType, typed(in.Args[0]))
	case OpStore:
		return fmt.Sprintf("store %s, %s", typed(in.Args[0]), typed(in.Args[1]))
	case OpGEP:
		parts := make([]string, len(in.Args))
		for i, a := range in.Args {
			parts[i] = typed(a)
		}
		return fmt.Sprintf("%%%s = getelementptr %s, %s", in.name, in.ElemType, strings.Join(parts, ", "))
	case OpICmp, OpFCmp:
		return fmt.Sprintf("%%%s = %s %s %s %s, %s",
			in.name, in.Op, in.Pred, in.Args[0].Type(), in.Args[0].Operand(), in.Args[1].Operand())
	case OpTrunc, OpSExt, OpZExt, OpSIToFP, OpUIToFP, OpFPToSI, OpFPToUI,
		OpFPExt, OpFPTrunc, OpBitcast, OpIntToPtr, OpPtrToInt:
		return fmt.Sprintf("%%%s = %s %s to %s", in.name, in.Op, typed(in.Args[0]), in.typ)
	case OpFNeg:
		return fmt.Sprintf("%%%s = fneg %s", in.name, typed(in.Args[0]))
	case OpBr:
		return fmt.Sprintf("br label %%%s", in.Blocks[0].name)
	case OpCondBr:
		return fmt.Sprintf("br i1 %s, label %%%s, label %%%s",
			in.Args[0].Operand(), in.Blocks[0].name, in.Blocks[1].name)
	case OpRet:
		if len(in.Args) == 0 {
			return "ret void"
		}
		return fmt.Sprintf("ret %s", typed(in.Args[0]))
	case OpPhi:
		pairs := make([]string, len(in.Incomings))
		for i, v := range in.Incomings {
			pairs[i] = fmt.Sprintf("[ %s, %%%s ]", v.Operand(), in.Blocks[i].name)
		}
		return fmt.Sprintf("%%%s = phi %s %s", in.name, in.typ, strings.Join(pairs, ", "))
	case OpCall:
		args := make([]string, len(in.Args))
		for i, a := range in.Args {
			args[i] = typed(a)
		}
		call := fmt.Sprintf("call %s @%s(%s)", in.CallType.Return, in.Callee, strings.Join(args, ", "))
		if in.CallType.Return.IsVoid() {
			return call
		}
		return fmt.Sprintf("%%%s = %s", in.name, call)
	default:
		// Binary arithmetic shares one shape.
		return fmt.Sprintf("%%%s = %s %s %s, %s",
			in.name, in.Op, in.Args[0].Type(), in.Args[0].Operand(), in.Args[1].Operand())
	}
}
