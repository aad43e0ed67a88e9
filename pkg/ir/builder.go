package ir

// Builder appends instructions at an insert point, in the style of an
// LLVM IRBuilder. Create methods return the instruction as a Value.
type Builder struct {
	block *Block
}

func NewBuilder() *Builder { return &Builder{} }

// SetInsertPoint makes subsequent instructions append to b.
func (bd *Builder) SetInsertPoint(b *Block) { bd.block = b }

// InsertBlock returns the current insert block.
func (bd *Builder) InsertBlock() *Block { return bd.block }

// append adds the instruction, assigning a fresh temp name when the
// result is a value.
func (bd *Builder) append(in *Instr) *Instr {
	if !in.typ.IsVoid() {
		in.name = bd.block.fn.nextTempName()
	}
	bd.block.Instrs = append(bd.block.Instrs, in)
	return in
}

//
// Memory
//

// CreateAlloca reserves stack storage for one value of t.
func (bd *Builder) CreateAlloca(t *Type) Value {
	return bd.append(&Instr{Op: OpAlloca, typ: PointerTo(t), ElemType: t})
}

// CreateLoad reads a value of t from addr.
func (bd *Builder) CreateLoad(t *Type, addr Value) Value {
	return bd.append(&Instr{Op: OpLoad, typ: t, ElemType: t, Args: []Value{addr}})
}

// CreateStore writes val to addr.
func (bd *Builder) CreateStore(val, addr Value) {
	bd.append(&Instr{Op: OpStore, typ: Void, Args: []Value{val, addr}})
}

// CreateGEP computes the address of an element: base is a pointer,
// elemType the pointed-at type the indices step through.
func (bd *Builder) CreateGEP(elemType *Type, base Value, indices ...Value) Value {
	args := append([]Value{base}, indices...)
	return bd.append(&Instr{Op: OpGEP, typ: PointerTo(elemType), ElemType: elemType, Args: args})
}

// CreateStructGEP computes the address of field i of a struct at base.
func (bd *Builder) CreateStructGEP(structType *Type, base Value, i int) Value {
	args := []Value{base, NewConstInt(I32, 0), NewConstInt(I32, int64(i))}
	return bd.append(&Instr{
		Op:       OpGEP,
		typ:      PointerTo(structType.Fields[i]),
		ElemType: structType,
		Args:     args,
	})
}

//
// Arithmetic
//

func (bd *Builder) CreateBinary(op Op, lhs, rhs Value) Value {
	return bd.append(&Instr{Op: op, typ: lhs.Type(), Args: []Value{lhs, rhs}})
}

func (bd *Builder) CreateAdd(l, r Value) Value  { return bd.CreateBinary(OpAdd, l, r) }
func (bd *Builder) CreateSub(l, r Value) Value  { return bd.CreateBinary(OpSub, l, r) }
func (bd *Builder) CreateMul(l, r Value) Value  { return bd.CreateBinary(OpMul, l, r) }
func (bd *Builder) CreateSDiv(l, r Value) Value { return bd.CreateBinary(OpSDiv, l, r) }
func (bd *Builder) CreateUDiv(l, r Value) Value { return bd.CreateBinary(OpUDiv, l, r) }
func (bd *Builder) CreateSRem(l, r Value) Value { return bd.CreateBinary(OpSRem, l, r) }
func (bd *Builder) CreateURem(l, r Value) Value { return bd.CreateBinary(OpURem, l, r) }
func (bd *Builder) CreateAnd(l, r Value) Value  { return bd.CreateBinary(OpAnd, l, r) }
func (bd *Builder) CreateOr(l, r Value) Value   { return bd.CreateBinary(OpOr, l, r) }
func (bd *Builder) CreateXor(l, r Value) Value  { return bd.CreateBinary(OpXor, l, r) }
func (bd *Builder) CreateShl(l, r Value) Value  { return bd.CreateBinary(OpShl, l, r) }
func (bd *Builder) CreateAShr(l, r Value) Value { return bd.CreateBinary(OpAShr, l, r) }
func (bd *Builder) CreateLShr(l, r Value) Value { return bd.CreateBinary(OpLShr, l, r) }
func (bd *Builder) CreateFAdd(l, r Value) Value { return bd.CreateBinary(OpFAdd, l, r) }
func (bd *Builder) CreateFSub(l, r Value) Value { return bd.CreateBinary(OpFSub, l, r) }
func (bd *Builder) CreateFMul(l, r Value) Value { return bd.CreateBinary(OpFMul, l, r) }
func (bd *Builder) CreateFDiv(l, r Value) Value { return bd.CreateBinary(OpFDiv, l, r) }
func (bd *Builder) CreateFRem(l, r Value) Value { return bd.CreateBinary(OpFRem, l, r) }

// CreateNeg lowers integer negation as a subtraction from zero.
func (bd *Builder) CreateNeg(v Value) Value {
	return bd.CreateSub(NewConstInt(v.Type(), 0), v)
}

func (bd *Builder) CreateFNeg(v Value) Value {
	return bd.append(&Instr{Op: OpFNeg, typ: v.Type(), Args: []Value{v}})
}

//
// Comparisons
//

// CreateICmp compares integers or pointers; pred is an LLVM predicate
// such as eq, ne, slt, ult.
func (bd *Builder) CreateICmp(pred string, lhs, rhs Value) Value {
	return bd.append(&Instr{Op: OpICmp, typ: I1, Pred: pred, Args: []Value{lhs, rhs}})
}

// CreateFCmp compares floats with an ordered predicate (oeq, olt, ...).
func (bd *Builder) CreateFCmp(pred string, lhs, rhs Value) Value {
	return bd.append(&Instr{Op: OpFCmp, typ: I1, Pred: pred, Args: []Value{lhs, rhs}})
}

//
// Conversions
//

// CreateCast emits a conversion instruction to the target type.
func (bd *Builder) CreateCast(op Op, v Value, to *Type) Value {
	return bd.append(&Instr{Op: op, typ: to, Args: []Value{v}})
}

//
// Control flow
//

// CreateBr branches unconditionally to target.
func (bd *Builder) CreateBr(target *Block) {
	bd.append(&Instr{Op: OpBr, typ: Void, Blocks: []*Block{target}})
}

// CreateCondBr branches to ifTrue or ifFalse on an i1 condition.
func (bd *Builder) CreateCondBr(cond Value, ifTrue, ifFalse *Block) {
	bd.append(&Instr{Op: OpCondBr, typ: Void, Args: []Value{cond}, Blocks: []*Block{ifTrue, ifFalse}})
}

// CreateRet returns v from the current function.
func (bd *Builder) CreateRet(v Value) {
	bd.append(&Instr{Op: OpRet, typ: Void, Args: []Value{v}})
}

// CreateRetVoid returns from a void function.
func (bd *Builder) CreateRetVoid() {
	bd.append(&Instr{Op: OpRet, typ: Void})
}

// CreatePhi merges values flowing in from predecessor blocks.
func (bd *Builder) CreatePhi(t *Type) *Instr {
	return bd.append(&Instr{Op: OpPhi, typ: t})
}

// AddIncoming appends one (value, predecessor) pair to a phi.
func (phi *Instr) AddIncoming(v Value, from *Block) {
	phi.Incomings = append(phi.Incomings, v)
	phi.Blocks = append(phi.Blocks, from)
}

// CreateCall calls a function by symbol name.
func (bd *Builder) CreateCall(fnType *Type, callee string, args ...Value) Value {
	return bd.append(&Instr{
		Op:       OpCall,
		typ:      fnType.Return,
		CallType: fnType,
		Callee:   callee,
		Args:     args,
	})
}
