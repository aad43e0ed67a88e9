package compiler

// runtimeFunc is one externally defined runtime entry point. The
// compiler declares these so calls type-check and lower; their bodies
// live in the OS runtime library.
type runtimeFunc struct {
	name string
	typ  *FunctionType
}

var voidPtr = NewPointerType(TypeVoid)
var charPtr = NewPointerType(TypeChar)

// runtimeFuncs lists the runtime interface of the bare-metal target:
// allocation, raw memory ops, console output, string copy, and port I/O.
var runtimeFuncs = []runtimeFunc{
	{"malloc", NewFunctionType(voidPtr, []Type{TypeLong}, false)},
	{"free", NewFunctionType(TypeVoid, []Type{voidPtr}, false)},
	{"memcpy", NewFunctionType(voidPtr, []Type{voidPtr, voidPtr, TypeLong}, false)},
	{"memset", NewFunctionType(voidPtr, []Type{voidPtr, TypeInt, TypeLong}, false)},
	{"putchar", NewFunctionType(TypeInt, []Type{TypeInt}, false)},
	{"puts", NewFunctionType(TypeInt, []Type{charPtr}, false)},
	{"strcpy", NewFunctionType(charPtr, []Type{charPtr, charPtr}, false)},
	{"outb", NewFunctionType(TypeVoid, []Type{TypeUShort, TypeUChar}, false)},
	{"inb", NewFunctionType(TypeUChar, []Type{TypeUShort}, false)},
}
