package compiler

import (
	"fmt"

	"github.com/schemabind/schemabind/schema"
)

// Sandboxed guest backend: a self-contained package compiled to wasm
// inside the sandbox. It talks to the host exclusively through numeric
// imports — one per function-table entry plus a small fixed set of
// system imports for containers, parameter-handle lookup, and logging.
// All helper code is emitted into the output so the guest depends on
// nothing but the Go standard library.

const guestPackage = "bindings"

// GenerateGuest produces the guest backend's output files. Functions
// whose flattened signature exceeds the sandbox arity ceiling are
// skipped with a diagnostic; the host backend skips the same set.
func GenerateGuest(ctx *Context, diag *Diagnostics) map[string]string {
	registerGuestStructs(ctx)
	files := make(map[string]string)
	files["guest.go"] = guestPrelude()

	for _, module := range ctx.ModuleNames() {
		w := &srcWriter{}
		w.Linef(generatedBanner)
		w.Linef("// Module %s (sandbox guest).", module)
		w.Blank()
		w.Linef("package %s", guestPackage)
		w.Blank()
		if guestModuleNeedsUnsafe(ctx, module) {
			w.Linef("import (")
			w.Indent()
			w.Linef("\"unsafe\"")
			w.Dedent()
			w.Linef(")")
			w.Blank()
		}

		for _, e := range ctx.ModuleEnums[module] {
			emitEnum(ctx, w, e)
		}
		for _, s := range ctx.ModuleStructs[module] {
			emitGuestStruct(w, s)
		}
		for _, c := range ctx.ModuleClasses[module] {
			emitGuestClass(w, c)
		}

		for i := range ctx.FuncTable {
			e := &ctx.FuncTable[i]
			if e.Module != module {
				continue
			}
			sig, reason := FlattenSignature(ctx, e)
			if reason != "" {
				diag.Skipf(e.Class+"."+e.Name, "sandbox: %s", reason)
				continue
			}
			emitGuestImport(w, sig)
			emitGuestWrapper(ctx, w, sig)
		}
		files[module+".go"] = w.String()
	}
	return files
}

func guestModuleNeedsUnsafe(ctx *Context, module string) bool {
	for i := range ctx.FuncTable {
		e := &ctx.FuncTable[i]
		if e.Module != module {
			continue
		}
		if sig, reason := FlattenSignature(ctx, e); reason == "" {
			for _, fp := range sig.Params {
				if fp.Role != roleScalarIn && fp.Role != roleContainer {
					return true
				}
			}
		}
	}
	return false
}

func emitGuestStruct(w *srcWriter, s *schema.Struct) {
	w.Linef("// %s is an opaque value of the host struct %s.", s.Name, s.NativeName)
	w.Linef("type %s struct {", s.Name)
	w.Indent()
	w.Linef("data []byte")
	w.Dedent()
	w.Linef("}")
	w.Blank()
	w.Linef("// %sFromBytes wraps raw host-layout bytes.", s.Name)
	w.Linef("func %sFromBytes(b []byte) %s { return %s{data: b} }", s.Name, s.Name, s.Name)
	w.Blank()
	w.Linef("// Bytes returns the raw host-layout bytes.")
	w.Linef("func (v %s) Bytes() []byte { return v.data }", s.Name)
	w.Blank()
}

func emitGuestClass(w *srcWriter, c *schema.Class) {
	w.Linef("// %s is a handle to a host object of class %s.", c.Name, c.NativeName)
	w.Linef("type %s uint64", c.Name)
	w.Blank()
	w.Linef("// IsNil reports whether the handle is null.")
	w.Linef("func (o %s) IsNil() bool { return o == 0 }", c.Name)
	w.Blank()
}

// emitGuestImport writes the raw wasm import declaration for one entry.
func emitGuestImport(w *srcWriter, sig *flatSig) {
	parts := []string{"self uint64"}
	for _, s := range sig.Slots {
		parts = append(parts, fmt.Sprintf("%s %s", s.Name, s.Kind.wasmType()))
	}
	w.Linef("//go:wasmimport %s %s", HostModuleName, ImportName(sig.Entry.FuncID))
	w.Linef("func hostCall%d(%s) uint32", sig.Entry.FuncID, joinComma(parts))
	w.Blank()
}

// guestType spells a parameter's Go type on the guest side. Objects are
// value handles, structs are value wrappers, everything else matches
// the native display type.
func guestType(ctx *Context, fp *flatParam) string {
	m := &fp.Mapped
	switch {
	case m.ToWire.IsContainer():
		return guestContainerValueType(ctx, fp.Param)
	case m.ToWire == ConvObject:
		return trimPtr(m.Display)
	case m.ToWire == ConvName:
		return "Name"
	case m.Display == "runtime.ObjectHandle":
		return "Handle"
	case m.Display == "runtime.Name":
		return "Name"
	default:
		return m.Display
	}
}

func guestContainerValueType(ctx *Context, p *schema.Param) string {
	switch p.Type {
	case "MapProperty":
		return fmt.Sprintf("map[%s]%s", guestElemType(ctx, p.Key), guestElemType(ctx, p.Value))
	case "SetProperty":
		return "[]" + guestElemType(ctx, p.Element)
	default:
		return "[]" + guestElemType(ctx, p.Inner)
	}
}

func guestElemType(ctx *Context, elem *schema.Property) string {
	t := ContainerElemType(elem, ctx)
	switch t {
	case "runtime.ObjectHandle":
		return "Handle"
	case "runtime.Name":
		return "Name"
	}
	return trimPtr(t)
}

func guestZero(typ string) string {
	switch typ {
	case "":
		return "0"
	case "bool":
		return "false"
	case "string":
		return `""`
	}
	switch typ[0] {
	case '[', 'm', '*':
		return "nil"
	}
	// Handle newtypes and enums are numeric; struct values need a
	// composite literal.
	if isGuestStructType(typ) {
		return typ + "{}"
	}
	return "0"
}

// guestStructTypes is filled per generation run so zero values can be
// spelled without re-deriving the schema.
var guestStructTypes = map[string]bool{}

func isGuestStructType(typ string) bool { return guestStructTypes[typ] }

func registerGuestStructs(ctx *Context) {
	guestStructTypes = map[string]bool{}
	for name := range ctx.Structs {
		guestStructTypes[name] = true
	}
}

// emitGuestWrapper writes the typed caller over a raw import.
func emitGuestWrapper(ctx *Context, w *srcWriter, sig *flatSig) {
	e := sig.Entry
	fn := e.Func

	var inParts []string
	for i := range sig.Params {
		fp := &sig.Params[i]
		if fp.Dir == DirIn || fp.Dir == DirInOut {
			inParts = append(inParts, ParamIdent(fp.Param.Name)+" "+guestType(ctx, fp))
		}
	}
	outs := guestOrderedOutputs(sig)
	var retParts []string
	for _, oi := range outs {
		retParts = append(retParts, guestType(ctx, &sig.Params[oi]))
	}
	retParts = append(retParts, "error")
	retSig := " (" + joinComma(retParts) + ")"
	if len(retParts) == 1 {
		retSig = " error"
	}

	zeros := func() string {
		var zs []string
		for _, oi := range outs {
			zs = append(zs, guestZero(guestType(ctx, &sig.Params[oi])))
		}
		zs = append(zs, "err")
		return joinComma(zs)
	}

	w.Linef("// %s calls the host function %s.%s across the sandbox", e.Name, e.Class, e.LookupName)
	w.Linef("// boundary.")
	if fn.IsStatic {
		w.Linef("func %s%s(%s)%s {", e.Class, e.Name, joinComma(inParts), retSig)
	} else {
		w.Linef("func (o %s) %s(%s)%s {", e.Class, e.Name, joinComma(inParts), retSig)
	}
	w.Indent()

	// Container staging before anything else; temporaries free on every
	// path.
	for i := range sig.Params {
		fp := &sig.Params[i]
		if fp.Role != roleContainer {
			continue
		}
		propVar := fmt.Sprintf("prop%d", i)
		baseVar := fmt.Sprintf("base%d", i)
		w.Linef("%s, err := funcParamProp(%q, %q, %q)", propVar, e.Class, e.LookupName, fp.Param.Name)
		w.Linef("if err != nil {")
		w.Indent()
		w.Linef("return %s", zeros())
		w.Dedent()
		w.Linef("}")
		src := ParamIdent(fp.Param.Name)
		if fp.Dir == DirOut || fp.Dir == DirReturn {
			src = "nil"
		}
		switch fp.Param.Type {
		case "MapProperty":
			w.Linef("%s, err := stageMap(%s, %s, %s, %s)", baseVar, propVar,
				guestCodecExpr(ctx, fp.Param.Key), guestCodecExpr(ctx, fp.Param.Value), src)
		case "SetProperty":
			w.Linef("%s, err := stageArray(%s, %s, %s)", baseVar, propVar, guestCodecExpr(ctx, fp.Param.Element), src)
		default:
			w.Linef("%s, err := stageArray(%s, %s, %s)", baseVar, propVar, guestCodecExpr(ctx, fp.Param.Inner), src)
		}
		w.Linef("if err != nil {")
		w.Indent()
		w.Linef("return %s", zeros())
		w.Dedent()
		w.Linef("}")
		w.Linef("defer freeTemp(%s, %s)", propVar, baseVar)
	}

	needGrow := false
	for i := range sig.Params {
		if r := sig.Params[i].Role; r == roleBufOut || r == roleBufIO {
			needGrow = true
		}
	}

	self := "uint64(o)"
	if fn.IsStatic {
		self = "0"
	}

	if needGrow {
		w.Linef("bufCap := 256")
		w.Linef("for {")
		w.Indent()
	}

	// Locals the host writes into, then the call with every slot bound.
	args := []string{self}
	for i := range sig.Params {
		fp := &sig.Params[i]
		ident := ParamIdent(fp.Param.Name)
		switch fp.Role {
		case roleScalarIn:
			args = append(args, guestScalarArg(fp, ident))
		case roleScalarOut:
			cell := fmt.Sprintf("out%d", i)
			w.Linef("var %s %s", cell, guestCellType(&fp.Mapped))
			args = append(args, fmt.Sprintf("ptr32(unsafe.Pointer(&%s))", cell))
		case roleScalarIO:
			cell := fmt.Sprintf("out%d", i)
			w.Linef("%s := %s", cell, guestCellInit(&fp.Mapped, ident))
			args = append(args, fmt.Sprintf("ptr32(unsafe.Pointer(&%s))", cell))
		case roleBufIn:
			pv, lv := fmt.Sprintf("p%d", i), fmt.Sprintf("l%d", i)
			w.Linef("%s, %s := %s", pv, lv, guestBufIn(fp, ident))
			args = append(args, pv, lv)
		case roleBufOut:
			bv, wv := fmt.Sprintf("buf%d", i), fmt.Sprintf("written%d", i)
			w.Linef("%s := make([]byte, bufCap)", bv)
			w.Linef("var %s uint32", wv)
			bp := fmt.Sprintf("bp%d", i)
			w.Linef("%s, _ := bytesPtr(%s)", bp, bv)
			args = append(args, bp, "uint32(bufCap)", fmt.Sprintf("ptr32(unsafe.Pointer(&%s))", wv))
		case roleBufIO:
			bv, wv := fmt.Sprintf("buf%d", i), fmt.Sprintf("written%d", i)
			w.Linef("%s := make([]byte, bufCap)", bv)
			w.Linef("%s := uint32(copy(%s, %s))", wv, bv, guestBufInitExpr(fp, ident))
			bp := fmt.Sprintf("bp%d", i)
			w.Linef("%s, _ := bytesPtr(%s)", bp, bv)
			args = append(args, bp, wv, "uint32(bufCap)", fmt.Sprintf("ptr32(unsafe.Pointer(&%s))", wv))
		case roleContainer:
			args = append(args, fmt.Sprintf("base%d", i), fmt.Sprintf("prop%d", i))
		}
	}
	w.Linef("c := hostCall%d(%s)", e.FuncID, joinComma(args))
	if needGrow {
		w.Linef("if c == codeBufferTooSmall {")
		w.Indent()
		w.Linef("bufCap *= 2")
		w.Linef("continue")
		w.Dedent()
		w.Linef("}")
	}
	w.Linef("if c != 0 {")
	w.Indent()
	w.Linef("err := codeErr(c)")
	w.Linef("return %s", zeros())
	w.Dedent()
	w.Linef("}")

	var results []string
	for _, oi := range outs {
		fp := &sig.Params[oi]
		if fp.Role == roleContainer {
			resVar := fmt.Sprintf("res%d", oi)
			propVar, baseVar := fmt.Sprintf("prop%d", oi), fmt.Sprintf("base%d", oi)
			switch fp.Param.Type {
			case "MapProperty":
				w.Linef("%s, err := readBackMap(%s, %s, %s, %s)", resVar, baseVar, propVar,
					guestCodecExpr(ctx, fp.Param.Key), guestCodecExpr(ctx, fp.Param.Value))
			case "SetProperty":
				w.Linef("%s, err := readBackArray(%s, %s, %s)", resVar, baseVar, propVar, guestCodecExpr(ctx, fp.Param.Element))
			default:
				w.Linef("%s, err := readBackArray(%s, %s, %s)", resVar, baseVar, propVar, guestCodecExpr(ctx, fp.Param.Inner))
			}
			w.Linef("if err != nil {")
			w.Indent()
			w.Linef("return %s", zeros())
			w.Dedent()
			w.Linef("}")
			results = append(results, resVar)
			continue
		}
		results = append(results, guestResultExpr(ctx, fp, oi))
	}
	results = append(results, "nil")
	w.Linef("return %s", joinComma(results))

	if needGrow {
		w.Dedent()
		w.Linef("}")
	}
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

// guestOrderedOutputs mirrors the native result ordering: return value
// first, then out and in-out parameters in declaration order.
func guestOrderedOutputs(sig *flatSig) []int {
	var outs []int
	if sig.ReturnParam >= 0 {
		outs = append(outs, sig.ReturnParam)
	}
	for i := range sig.Params {
		if i == sig.ReturnParam {
			continue
		}
		switch sig.Params[i].Dir {
		case DirOut, DirInOut:
			outs = append(outs, i)
		}
	}
	return outs
}

// guestScalarArg casts a display value to its wasm slot type.
func guestScalarArg(fp *flatParam, ident string) string {
	m := &fp.Mapped
	switch m.ToWire {
	case ConvObject:
		return fmt.Sprintf("uint64(%s)", ident)
	case ConvName:
		return fmt.Sprintf("uint64(%s)", ident)
	case ConvEnum:
		if scalarSlotKind(m) == slotI64 {
			return fmt.Sprintf("uint64(%s)", ident)
		}
		return fmt.Sprintf("uint32(%s)", ident)
	}
	switch m.Wire {
	case "bool":
		return fmt.Sprintf("b2i(%s)", ident)
	case "float32", "float64":
		return ident
	case "int64", "uint64":
		return fmt.Sprintf("uint64(%s)", ident)
	case "runtime.ObjectHandle", "runtime.Name":
		return fmt.Sprintf("uint64(%s)", ident)
	default:
		return fmt.Sprintf("uint32(%s)", ident)
	}
}

// guestCellType is the local variable type a scalar output is written
// into; the host writes exactly the wire width.
func guestCellType(m *MappedType) string {
	switch m.Wire {
	case "bool":
		return "uint8"
	case "runtime.ObjectHandle", "runtime.Name":
		return "uint64"
	default:
		return m.Wire
	}
}

func guestCellInit(m *MappedType, ident string) string {
	t := guestCellType(m)
	switch m.Wire {
	case "bool":
		return fmt.Sprintf("b2u8(%s)", ident)
	default:
		return fmt.Sprintf("%s(%s)", t, ident)
	}
}

func guestBufIn(fp *flatParam, ident string) string {
	if fp.Mapped.ToWire == ConvOpaqueStruct {
		return fmt.Sprintf("bytesPtr(%s.Bytes())", ident)
	}
	return fmt.Sprintf("stringPtr(%s)", ident)
}

func guestBufInitExpr(fp *flatParam, ident string) string {
	if fp.Mapped.ToWire == ConvOpaqueStruct {
		return ident + ".Bytes()"
	}
	return ident
}

// guestResultExpr decodes a filled output cell or buffer back to the
// display type.
func guestResultExpr(ctx *Context, fp *flatParam, i int) string {
	m := &fp.Mapped
	switch fp.Role {
	case roleBufOut, roleBufIO:
		if m.ToWire == ConvOpaqueStruct {
			return fmt.Sprintf("%sFromBytes(buf%d[:written%d])", m.Display, i, i)
		}
		return fmt.Sprintf("string(buf%d[:written%d])", i, i)
	default:
		cell := fmt.Sprintf("out%d", i)
		switch {
		case m.ToWire == ConvObject:
			return fmt.Sprintf("%s(%s)", trimPtr(m.Display), cell)
		case m.ToWire == ConvEnum:
			return fmt.Sprintf("%s(%s)", m.Display, cell)
		case m.ToWire == ConvName:
			return fmt.Sprintf("Name(%s)", cell)
		case m.Display == "runtime.ObjectHandle":
			return fmt.Sprintf("Handle(%s)", cell)
		case m.Wire == "bool":
			return fmt.Sprintf("%s != 0", cell)
		case m.ToWire == ConvIntCast:
			return fmt.Sprintf("%s(%s)", m.Display, cell)
		default:
			return cell
		}
	}
}

// guestCodecExpr mirrors codecExpr with the guest prelude's names.
func guestCodecExpr(ctx *Context, elem *schema.Property) string {
	display := guestElemType(ctx, elem)
	switch elem.Type {
	case "BoolProperty":
		return "boolCodec"
	case "Int8Property":
		return guestCastCodec("u8Codec", display, "uint8")
	case "ByteProperty":
		if elem.EnumName != "" {
			return guestCastCodec("i64Codec", display, "int64")
		}
		return "u8Codec"
	case "Int16Property", "UInt16Property", "UInt32Property":
		return guestCastCodec("i32Codec", display, "int32")
	case "IntProperty":
		return "i32Codec"
	case "UInt64Property":
		return guestCastCodec("i64Codec", display, "int64")
	case "Int64Property":
		return "i64Codec"
	case "FloatProperty":
		return "f32Codec"
	case "DoubleProperty":
		return "f64Codec"
	case "StrProperty", "TextProperty":
		return "stringCodec"
	case "NameProperty":
		return guestCastCodec("u64Codec", display, "uint64")
	case "EnumProperty":
		return guestCastCodec("i64Codec", display, "int64")
	case "StructProperty":
		return fmt.Sprintf(
			"castCodec(bytesCodec, func(v %s) []byte { return v.Bytes() }, %sFromBytes)",
			display, display)
	default:
		if display == "Handle" {
			return guestCastCodec("u64Codec", "Handle", "uint64")
		}
		return guestCastCodec("u64Codec", display, "uint64")
	}
}

func guestCastCodec(base, display, wire string) string {
	if display == wire {
		return base
	}
	return fmt.Sprintf(
		"castCodec(%s, func(v %s) %s { return %s(v) }, func(v %s) %s { return %s(v) })",
		base, display, wire, wire, wire, display, display)
}
