package compiler

import (
	"fmt"

	"github.com/schemabind/schemabind/schema"
)

// Native backend: typed wrappers over the host's pre-validated call
// thunks. Wrappers push inputs into a frame, invoke the thunk by dense
// identifier, and decode outputs. The thunk result is asserted — a
// validated direct call that fails means the generated code and the
// host disagree, which is a bug, not a runtime condition. Only
// container staging introduces a recoverable error into a signature.

const generatedBanner = "// Code generated by schemabind. DO NOT EDIT."

// nativePackage is the package name of the emitted native bindings.
const nativePackage = "bindings"

// GenerateNative produces the native backend's output files, keyed by
// file name.
func GenerateNative(ctx *Context, diag *Diagnostics) map[string]string {
	files := make(map[string]string)
	files["bindings.go"] = nativePrelude()
	files["funcids.go"] = emitFuncIDs(ctx)

	for _, module := range ctx.ModuleNames() {
		w := &srcWriter{}
		w.Linef(generatedBanner)
		w.Linef("// Module %s.", module)
		w.Blank()
		w.Linef("package %s", nativePackage)
		w.Blank()
		if moduleNeedsRuntime(ctx, module) {
			w.Linef("import (")
			w.Indent()
			w.Linef("\"github.com/schemabind/schemabind/runtime\"")
			w.Dedent()
			w.Linef(")")
			w.Blank()
		}
		emitModuleTypes(ctx, w, module)
		for i := range ctx.FuncTable {
			e := &ctx.FuncTable[i]
			if e.Module == module {
				emitNativeFunc(ctx, w, e)
			}
		}
		files[module+".go"] = w.String()
	}
	return files
}

// moduleNeedsRuntime reports whether the module file references the
// runtime package. Enum-only modules do not.
func moduleNeedsRuntime(ctx *Context, module string) bool {
	if len(ctx.ModuleClasses[module]) > 0 || len(ctx.ModuleStructs[module]) > 0 {
		return true
	}
	return false
}

func nativePrelude() string {
	w := &srcWriter{}
	w.Linef(generatedBanner)
	w.Blank()
	w.Linef("package %s", nativePackage)
	w.Blank()
	w.Linef("import (")
	w.Indent()
	w.Linef("\"github.com/schemabind/schemabind/runtime\"")
	w.Dedent()
	w.Linef(")")
	w.Blank()
	w.Linef("func boolByte(v bool) uint8 {")
	w.Indent()
	w.Linef("if v {")
	w.Indent()
	w.Linef("return 1")
	w.Dedent()
	w.Linef("}")
	w.Linef("return 0")
	w.Dedent()
	w.Linef("}")
	w.Blank()
	w.Linef("// structCap returns the byte size of a host struct type, zero when")
	w.Linef("// the type is unknown; an unknown type fails the subsequent call.")
	w.Linef("func structCap(name string) int {")
	w.Indent()
	w.Linef("st, err := runtime.CachedStructType(name)")
	w.Linef("if err != nil {")
	w.Indent()
	w.Linef("return 0")
	w.Dedent()
	w.Linef("}")
	w.Linef("return int(runtime.API().Reflection.StructSize(st))")
	w.Dedent()
	w.Linef("}")
	w.Blank()
	w.Linef("// delegateParamString reads a string parameter out of a raw delegate")
	w.Linef("// buffer through the host, growing until it fits.")
	w.Linef("func delegateParamString(params runtime.ParamBuffer, prop runtime.PropHandle) string {")
	w.Indent()
	w.Linef("buf := make([]byte, 256)")
	w.Linef("for {")
	w.Indent()
	w.Linef("n, code := runtime.API().Reflection.GetParamString(params, prop, buf)")
	w.Linef("switch code {")
	w.Linef("case runtime.CodeOK:")
	w.Indent()
	w.Linef("return string(buf[:n])")
	w.Dedent()
	w.Linef("case runtime.CodeBufferTooSmall:")
	w.Indent()
	w.Linef("buf = make([]byte, n)")
	w.Dedent()
	w.Linef("default:")
	w.Indent()
	w.Linef("return \"\"")
	w.Dedent()
	w.Linef("}")
	w.Dedent()
	w.Linef("}")
	w.Dedent()
	w.Linef("}")
	w.Blank()
	w.Linef("func copyBytes(params runtime.ParamBuffer, off, size uint32) []byte {")
	w.Indent()
	w.Linef("out := make([]byte, size)")
	w.Linef("copy(out, params[off:off+size])")
	w.Linef("return out")
	w.Dedent()
	w.Linef("}")
	return w.String()
}

func emitFuncIDs(ctx *Context) string {
	w := &srcWriter{}
	w.Linef(generatedBanner)
	w.Linef("// Dense function identifiers. Positions are assigned by sorted")
	w.Linef("// (module, class, name) order and are identical across backends.")
	w.Blank()
	w.Linef("package %s", nativePackage)
	w.Blank()
	w.Linef("import (")
	w.Indent()
	w.Linef("\"github.com/schemabind/schemabind/runtime\"")
	w.Dedent()
	w.Linef(")")
	w.Blank()
	if len(ctx.FuncTable) > 0 {
		w.Linef("const (")
		w.Indent()
		for i := range ctx.FuncTable {
			e := &ctx.FuncTable[i]
			w.Linef("%s runtime.FuncID = %d", funcIDConst(e), e.FuncID)
		}
		w.Dedent()
		w.Linef(")")
		w.Blank()
	}
	w.Linef("// FuncCount is the size of the generated function table.")
	w.Linef("const FuncCount = %d", len(ctx.FuncTable))
	return w.String()
}

func funcIDConst(e *FuncEntry) string {
	return "id" + e.Class + e.Name
}

// natParam carries one parameter's emission plan.
type natParam struct {
	p     *schema.Param
	m     MappedType
	dir   Direction
	ident string
	// slotVar is the frame slot variable for outputs.
	slotVar string
	// container staging variables.
	propVar, baseVar string
}

func emitNativeFunc(ctx *Context, w *srcWriter, e *FuncEntry) {
	fn := e.Func

	params := make([]natParam, len(fn.Params))
	hasContainer := false
	needGrow := false
	for i := range fn.Params {
		p := &fn.Params[i]
		np := natParam{
			p: p, m: MapPropertyType(p),
			dir:   ParamDirection(p),
			ident: ParamIdent(p.Name),
		}
		if np.m.ToWire.IsContainer() {
			hasContainer = true
			np.propVar = fmt.Sprintf("prop%d", i)
			np.baseVar = fmt.Sprintf("base%d", i)
		}
		if np.m.ToWire == ConvString && np.dir != DirIn {
			needGrow = true
		}
		params[i] = np
	}

	// Go signature: inputs in declaration order; outputs as results,
	// return value first, then out parameters in declaration order.
	var inParts []string
	for i := range params {
		np := &params[i]
		if np.dir == DirIn || np.dir == DirInOut {
			inParts = append(inParts, np.ident+" "+nativeParamType(ctx, np))
		}
	}
	outs := orderedOutputs(params)
	var retParts []string
	for _, oi := range outs {
		retParts = append(retParts, nativeParamType(ctx, &params[oi]))
	}
	if hasContainer {
		retParts = append(retParts, "error")
	}
	retSig := ""
	switch len(retParts) {
	case 0:
	case 1:
		retSig = " " + retParts[0]
	default:
		retSig = " (" + joinComma(retParts) + ")"
	}

	callCtx := e.Class + "." + e.Name
	errReturn := func() string {
		var zeros []string
		for _, oi := range outs {
			zeros = append(zeros, nativeZero(ctx, &params[oi]))
		}
		zeros = append(zeros, "err")
		return joinComma(zeros)
	}

	w.Linef("// %s calls the host function %s.%s.", e.Name, e.Class, e.LookupName)
	if fn.IsStatic {
		w.Linef("func %s%s(%s)%s {", e.Class, e.Name, joinComma(inParts), retSig)
	} else {
		w.Linef("func (o *%s) %s(%s)%s {", e.Class, e.Name, joinComma(inParts), retSig)
	}
	w.Indent()

	// Container staging happens before the frame: handles resolve on
	// first use, temporaries are freed on every path.
	for i := range params {
		np := &params[i]
		if np.propVar == "" {
			continue
		}
		w.Linef("%s, err := runtime.CachedFuncParam(%q, %q, %q)", np.propVar, e.Class, e.LookupName, np.p.Name)
		w.Linef("if err != nil {")
		w.Indent()
		w.Linef("return %s", errReturn())
		w.Dedent()
		w.Linef("}")
		emitStage(ctx, w, np, errReturn)
		w.Linef("defer runtime.FreeTemp(%s, %s)", np.propVar, np.baseVar)
	}

	w.Linef("f := runtime.Func(%s)", funcIDConst(e))
	self := "o.h"
	if fn.IsStatic {
		self = "runtime.NilObject"
	}

	if needGrow {
		w.Linef("for bufCap := 256; ; bufCap *= 2 {")
		w.Indent()
	}
	w.Linef("var fr runtime.Frame")
	slot := 0
	for i := range params {
		np := &params[i]
		if np.propVar != "" {
			w.Linef("fr.PushHandle(%s)", np.baseVar)
			w.Linef("fr.PushI64(int64(%s))", np.propVar)
			continue
		}
		switch np.dir {
		case DirIn:
			emitPush(w, np)
		case DirOut, DirReturn:
			np.slotVar = fmt.Sprintf("s%d", slot)
			slot++
			w.Linef("%s := %s", np.slotVar, outReservation(np))
		case DirInOut:
			np.slotVar = fmt.Sprintf("s%d", slot)
			slot++
			w.Linef("%s := %s", np.slotVar, inOutReservation(np))
		}
	}
	w.Linef("code := f(%s, &fr)", self)
	if needGrow {
		w.Linef("if code == runtime.CodeBufferTooSmall {")
		w.Indent()
		w.Linef("continue")
		w.Dedent()
		w.Linef("}")
	}
	w.Linef("runtime.AssertOK(code, %q)", callCtx)

	// Decode results.
	var results []string
	for _, oi := range outs {
		np := &params[oi]
		if np.propVar != "" {
			resVar := fmt.Sprintf("res%d", oi)
			emitReadBack(ctx, w, np, resVar, errReturn)
			results = append(results, resVar)
			continue
		}
		results = append(results, slotReadExpr(np))
	}
	if hasContainer {
		results = append(results, "nil")
	}
	if len(results) > 0 {
		w.Linef("return %s", joinComma(results))
	} else if needGrow {
		w.Linef("return")
	}
	if needGrow {
		w.Dedent()
		w.Linef("}")
	}
	w.Dedent()
	w.Linef("}")
	w.Blank()

	emitDefaultWrapper(ctx, w, e, params, retSig)
}

// emitDefaultWrapper emits a convenience wrapper filling the longest
// trailing run of plain input parameters that carry a representable
// schema default, matching the host editor's call sites where those
// arguments are normally omitted.
func emitDefaultWrapper(ctx *Context, w *srcWriter, e *FuncEntry, params []natParam, retSig string) {
	var inputs []int
	for i := range params {
		if params[i].dir == DirIn || params[i].dir == DirInOut {
			inputs = append(inputs, i)
		}
	}
	first := len(inputs)
	for first > 0 {
		np := &params[inputs[first-1]]
		if np.dir != DirIn || DefaultLiteral(ctx, np.p, &np.m) == "" {
			break
		}
		first--
	}
	if first == len(inputs) {
		return
	}

	var sigParts, args, docs []string
	for k, i := range inputs {
		np := &params[i]
		if k < first {
			sigParts = append(sigParts, np.ident+" "+nativeParamType(ctx, np))
			args = append(args, np.ident)
			continue
		}
		lit := DefaultLiteral(ctx, np.p, &np.m)
		args = append(args, lit)
		docs = append(docs, np.ident+"="+lit)
	}

	w.Linef("// %sDefault calls %s with %s.", e.Name, e.Name, joinComma(docs))
	var call string
	if e.Func.IsStatic {
		w.Linef("func %s%sDefault(%s)%s {", e.Class, e.Name, joinComma(sigParts), retSig)
		call = fmt.Sprintf("%s%s(%s)", e.Class, e.Name, joinComma(args))
	} else {
		w.Linef("func (o *%s) %sDefault(%s)%s {", e.Class, e.Name, joinComma(sigParts), retSig)
		call = fmt.Sprintf("o.%s(%s)", e.Name, joinComma(args))
	}
	w.Indent()
	if retSig != "" {
		w.Linef("return %s", call)
	} else {
		w.Linef("%s", call)
	}
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

// orderedOutputs returns parameter indices producing results: the
// return parameter first, then out and in-out parameters in
// declaration order.
func orderedOutputs(params []natParam) []int {
	var outs []int
	for i := range params {
		if params[i].dir == DirReturn {
			outs = append(outs, i)
		}
	}
	for i := range params {
		switch params[i].dir {
		case DirOut, DirInOut:
			outs = append(outs, i)
		}
	}
	return outs
}

// nativeParamType spells a parameter's Go type in wrapper signatures.
func nativeParamType(ctx *Context, np *natParam) string {
	switch {
	case np.m.ToWire == ConvOpaqueStruct:
		return "*" + np.m.Display
	case np.m.ToWire.IsContainer():
		return containerValueType(ctx, np.p)
	default:
		return np.m.Display
	}
}

// containerValueType spells the by-value Go form of a container
// parameter: slices for arrays and sets, a map for maps.
func containerValueType(ctx *Context, p *schema.Param) string {
	switch p.Type {
	case "MapProperty":
		return fmt.Sprintf("map[%s]%s", ContainerElemType(p.Key, ctx), ContainerElemType(p.Value, ctx))
	case "SetProperty":
		return "[]" + ContainerElemType(p.Element, ctx)
	default:
		return "[]" + ContainerElemType(p.Inner, ctx)
	}
}

func nativeZero(ctx *Context, np *natParam) string {
	switch {
	case np.m.ToWire == ConvOpaqueStruct, np.m.ToWire.IsContainer():
		return "nil"
	default:
		return zeroValue(np.m.Display)
	}
}

// emitStage stages a container parameter into a host temporary. Output
// containers start empty.
func emitStage(ctx *Context, w *srcWriter, np *natParam, errReturn func() string) {
	src := np.ident
	if np.dir == DirOut || np.dir == DirReturn {
		src = "nil"
	}
	var call string
	switch np.p.Type {
	case "MapProperty":
		call = fmt.Sprintf("runtime.StageMap(%s, %s, %s, %s)",
			np.propVar, codecExpr(nil, np.p.Key), codecExpr(nil, np.p.Value), src)
	case "SetProperty":
		call = fmt.Sprintf("runtime.StageSet(%s, %s, %s)", np.propVar, codecExpr(nil, np.p.Element), src)
	default:
		call = fmt.Sprintf("runtime.StageArray(%s, %s, %s)", np.propVar, codecExpr(nil, np.p.Inner), src)
	}
	w.Linef("%s, err := %s", np.baseVar, call)
	w.Linef("if err != nil {")
	w.Indent()
	w.Linef("return %s", errReturn())
	w.Dedent()
	w.Linef("}")
}

func emitReadBack(ctx *Context, w *srcWriter, np *natParam, resVar string, errReturn func() string) {
	var call string
	switch np.p.Type {
	case "MapProperty":
		call = fmt.Sprintf("runtime.ReadBackMap(%s, %s, %s, %s)",
			np.baseVar, np.propVar, codecExpr(nil, np.p.Key), codecExpr(nil, np.p.Value))
	case "SetProperty":
		call = fmt.Sprintf("runtime.ReadBackSet(%s, %s, %s)", np.baseVar, np.propVar, codecExpr(nil, np.p.Element))
	default:
		call = fmt.Sprintf("runtime.ReadBackArray(%s, %s, %s)", np.baseVar, np.propVar, codecExpr(nil, np.p.Inner))
	}
	w.Linef("%s, err := %s", resVar, call)
	w.Linef("if err != nil {")
	w.Indent()
	w.Linef("return %s", errReturn())
	w.Dedent()
	w.Linef("}")
}

// emitPush writes one input's frame push.
func emitPush(w *srcWriter, np *natParam) {
	v := np.ident
	switch np.m.ToWire {
	case ConvString:
		w.Linef("fr.PushString(%s)", v)
	case ConvOpaqueStruct:
		w.Linef("fr.PushBytes(%s.Bytes())", v)
	case ConvObject:
		w.Linef("fr.PushHandle(%s.Handle())", v)
	case ConvEnum:
		w.Linef("fr.PushI64(int64(%s))", v)
	case ConvName:
		w.Linef("fr.PushName(%s)", v)
	case ConvIntCast:
		w.Linef("fr.Push%s(%s(%s))", pushSuffix(np.m.Wire), np.m.Wire, v)
	default:
		if np.m.Display == "runtime.ObjectHandle" {
			w.Linef("fr.PushHandle(%s)", v)
		} else {
			w.Linef("fr.Push%s(%s)", pushSuffix(np.m.Wire), v)
		}
	}
}

func pushSuffix(wire string) string {
	switch wire {
	case "bool":
		return "Bool"
	case "uint8":
		return "U8"
	case "int32":
		return "I32"
	case "int64":
		return "I64"
	case "float32":
		return "F32"
	case "float64":
		return "F64"
	case "runtime.Name":
		return "Name"
	default:
		return "I64"
	}
}

// outReservation spells the frame reservation for an output parameter.
func outReservation(np *natParam) string {
	switch np.m.ToWire {
	case ConvString:
		return "fr.OutBytes(bufCap)"
	case ConvOpaqueStruct:
		return fmt.Sprintf("fr.OutBytes(structCap(%q))", np.m.Display)
	default:
		return "fr.OutWord()"
	}
}

func inOutReservation(np *natParam) string {
	v := np.ident
	switch np.m.ToWire {
	case ConvString:
		return fmt.Sprintf("fr.InOutBytes([]byte(%s), bufCap)", v)
	case ConvOpaqueStruct:
		return fmt.Sprintf("fr.InOutBytes(%s.Bytes(), structCap(%q))", v, np.m.Display)
	case ConvObject:
		return fmt.Sprintf("fr.InOutHandle(%s.Handle())", v)
	case ConvEnum:
		return fmt.Sprintf("fr.InOutI64(int64(%s))", v)
	case ConvName:
		return fmt.Sprintf("fr.InOutName(%s)", v)
	case ConvIntCast:
		return fmt.Sprintf("fr.InOut%s(%s(%s))", pushSuffix(np.m.Wire), np.m.Wire, v)
	default:
		if np.m.Display == "runtime.ObjectHandle" {
			return fmt.Sprintf("fr.InOutHandle(%s)", v)
		}
		return fmt.Sprintf("fr.InOut%s(%s)", pushSuffix(np.m.Wire), v)
	}
}

// slotReadExpr spells the decode of an output slot back to the display
// type.
func slotReadExpr(np *natParam) string {
	s := np.slotVar
	switch np.m.ToWire {
	case ConvString:
		return fmt.Sprintf("fr.String(%s)", s)
	case ConvOpaqueStruct:
		return fmt.Sprintf("%sFromBytes(fr.Bytes(%s))", np.m.Display, s)
	case ConvObject:
		return fmt.Sprintf("%sFromHandle(fr.Handle(%s))", trimPtr(np.m.Display), s)
	case ConvEnum:
		return fmt.Sprintf("%s(fr.I64(%s))", np.m.Display, s)
	case ConvName:
		return fmt.Sprintf("fr.NameAt(%s)", s)
	case ConvIntCast:
		return fmt.Sprintf("%s(fr.%s(%s))", np.m.Display, readSuffix(np.m.Wire), s)
	default:
		if np.m.Display == "runtime.ObjectHandle" {
			return fmt.Sprintf("fr.Handle(%s)", s)
		}
		return fmt.Sprintf("fr.%s(%s)", readSuffix(np.m.Wire), s)
	}
}

func readSuffix(wire string) string {
	switch wire {
	case "bool":
		return "Bool"
	case "uint8":
		return "U8"
	case "int32":
		return "I32"
	case "int64":
		return "I64"
	case "float32":
		return "F32"
	case "float64":
		return "F64"
	default:
		return "I64"
	}
}
