package compiler

import "fmt"

// Sandboxed host backend: wazero host functions mirroring the guest's
// imports. Each generated function decodes its wasm stack slots with
// the exact layout FlattenSignature derived for the guest, moves
// buffers across linear memory, drives the same pre-validated thunk
// the native backend uses, and writes outputs back into guest memory
// only on success.

const hostPackage = "sandboxhost"

// GenerateHost produces the host backend's output files. The skip set
// matches the guest backend exactly: both consult FlattenSignature.
func GenerateHost(ctx *Context, diag *Diagnostics) map[string]string {
	files := make(map[string]string)

	var moduleNames []string
	for _, module := range ctx.ModuleNames() {
		var entries []*flatSig
		usesMem := false
		for i := range ctx.FuncTable {
			e := &ctx.FuncTable[i]
			if e.Module != module {
				continue
			}
			sig, reason := FlattenSignature(ctx, e)
			if reason != "" {
				// The guest backend already reported this skip.
				continue
			}
			entries = append(entries, sig)
			for _, fp := range sig.Params {
				if fp.Role != roleScalarIn && fp.Role != roleContainer {
					usesMem = true
				}
			}
		}

		if len(entries) == 0 {
			continue
		}

		w := &srcWriter{}
		w.Linef(generatedBanner)
		w.Linef("// Module %s (sandbox host).", module)
		w.Blank()
		w.Linef("package %s", hostPackage)
		w.Blank()
		w.Linef("import (")
		w.Indent()
		w.Linef("\"context\"")
		w.Blank()
		w.Linef("\"github.com/tetratelabs/wazero\"")
		w.Linef("\"github.com/tetratelabs/wazero/api\"")
		w.Blank()
		w.Linef("\"github.com/schemabind/schemabind/runtime\"")
		if usesMem {
			w.Linef("\"github.com/schemabind/schemabind/sandbox\"")
		}
		w.Dedent()
		w.Linef(")")
		w.Blank()

		w.Linef("func register%s(b wazero.HostModuleBuilder) {", exportIdent(module))
		w.Indent()
		for _, sig := range entries {
			w.Linef("b.NewFunctionBuilder().")
			w.Indent()
			w.Linef("WithGoModuleFunction(api.GoModuleFunc(call%d), %s, resultI32).", sig.Entry.FuncID, hostValueTypes(sig))
			w.Linef("Export(%q)", ImportName(sig.Entry.FuncID))
			w.Dedent()
		}
		w.Dedent()
		w.Linef("}")
		w.Blank()

		for _, sig := range entries {
			emitHostFunc(w, sig)
		}
		files[module+".go"] = w.String()
		moduleNames = append(moduleNames, module)
	}

	files["host.go"] = hostRoot(moduleNames)
	return files
}

// exportIdent upper-cases a module ident's first byte for use in a Go
// function name.
func exportIdent(module string) string {
	out := []byte(module)
	for i := range out {
		if out[i] == '_' {
			continue
		}
		if out[i] >= 'a' && out[i] <= 'z' {
			out[i] -= 'a' - 'A'
		}
		break
	}
	return string(out)
}

func hostRoot(modules []string) string {
	w := &srcWriter{}
	w.Linef(generatedBanner)
	w.Blank()
	w.Linef("package %s", hostPackage)
	w.Blank()
	w.Linef("import (")
	w.Indent()
	w.Linef("\"github.com/tetratelabs/wazero\"")
	w.Linef("\"github.com/tetratelabs/wazero/api\"")
	w.Dedent()
	w.Linef(")")
	w.Blank()
	w.Linef("var resultI32 = []api.ValueType{api.ValueTypeI32}")
	w.Blank()
	w.Linef("// RegisterCalls exports every generated call on the host module")
	w.Linef("// builder. System imports are registered separately by the sandbox")
	w.Linef("// package.")
	w.Linef("func RegisterCalls(b wazero.HostModuleBuilder) {")
	w.Indent()
	for _, m := range modules {
		w.Linef("register%s(b)", exportIdent(m))
	}
	w.Dedent()
	w.Linef("}")
	return w.String()
}

// hostValueTypes spells the wasm parameter types, implicit self first.
func hostValueTypes(sig *flatSig) string {
	parts := []string{"api.ValueTypeI64"}
	for _, s := range sig.Slots {
		switch s.Kind {
		case slotI32:
			parts = append(parts, "api.ValueTypeI32")
		case slotI64:
			parts = append(parts, "api.ValueTypeI64")
		case slotF32:
			parts = append(parts, "api.ValueTypeF32")
		default:
			parts = append(parts, "api.ValueTypeF64")
		}
	}
	return "[]api.ValueType{" + joinComma(parts) + "}"
}

type hostPostWrite struct {
	// source frame slot variable.
	slotVar string
	// kind of write-back.
	role slotRole
	// stack index of the first slot for offset operands.
	stackAt int
	size    int
}

func emitHostFunc(w *srcWriter, sig *flatSig) {
	e := sig.Entry
	w.Linef("func call%d(_ context.Context, mod api.Module, stack []uint64) {", e.FuncID)
	w.Indent()

	needsMem := false
	for _, fp := range sig.Params {
		if fp.Role != roleScalarIn && fp.Role != roleContainer {
			needsMem = true
		}
	}
	if needsMem {
		w.Linef("mem := mod.Memory()")
	}
	w.Linef("self := runtime.ObjectHandle(stack[0])")
	w.Linef("var fr runtime.Frame")

	fail := func() {
		w.Linef("stack[0] = uint64(runtime.CodeCallFailed)")
		w.Linef("return")
	}

	var posts []hostPostWrite
	slotVarN := 0
	for i := range sig.Params {
		fp := &sig.Params[i]
		at := 1 + fp.First // stack position after the implicit self
		switch fp.Role {
		case roleScalarIn:
			w.Linef("%s", hostPushStmt(fp, at))
		case roleScalarOut:
			sv := fmt.Sprintf("s%d", slotVarN)
			slotVarN++
			w.Linef("%s := fr.OutWord()", sv)
			posts = append(posts, hostPostWrite{slotVar: sv, role: roleScalarOut, stackAt: at, size: scalarByteSize(&fp.Mapped)})
		case roleScalarIO:
			sv := fmt.Sprintf("s%d", slotVarN)
			slotVarN++
			size := scalarByteSize(&fp.Mapped)
			w.Linef("w%d, ok := sandbox.ReadWord(mem, uint32(stack[%d]), %d)", i, at, size)
			w.Linef("if !ok {")
			w.Indent()
			fail()
			w.Dedent()
			w.Linef("}")
			w.Linef("%s := fr.InOutWord(w%d)", sv, i)
			posts = append(posts, hostPostWrite{slotVar: sv, role: roleScalarOut, stackAt: at, size: size})
		case roleBufIn:
			w.Linef("b%d, ok := sandbox.ReadBytes(mem, uint32(stack[%d]), uint32(stack[%d]))", i, at, at+1)
			w.Linef("if !ok {")
			w.Indent()
			fail()
			w.Dedent()
			w.Linef("}")
			w.Linef("fr.PushBytes(b%d)", i)
		case roleBufOut:
			sv := fmt.Sprintf("s%d", slotVarN)
			slotVarN++
			w.Linef("%s := fr.OutBytes(int(uint32(stack[%d])))", sv, at+1)
			posts = append(posts, hostPostWrite{slotVar: sv, role: roleBufOut, stackAt: at})
		case roleBufIO:
			sv := fmt.Sprintf("s%d", slotVarN)
			slotVarN++
			w.Linef("b%d, ok := sandbox.ReadBytes(mem, uint32(stack[%d]), uint32(stack[%d]))", i, at, at+1)
			w.Linef("if !ok {")
			w.Indent()
			fail()
			w.Dedent()
			w.Linef("}")
			w.Linef("%s := fr.InOutBytes(b%d, int(uint32(stack[%d])))", sv, i, at+2)
			posts = append(posts, hostPostWrite{slotVar: sv, role: roleBufIO, stackAt: at})
		case roleContainer:
			w.Linef("fr.PushHandle(runtime.ObjectHandle(stack[%d]))", at)
			w.Linef("fr.PushI64(int64(stack[%d]))", at+1)
		}
	}

	w.Linef("code := runtime.Func(%d)(self, &fr)", e.FuncID)
	if len(posts) > 0 {
		w.Linef("if code == runtime.CodeOK {")
		w.Indent()
		for _, p := range posts {
			switch p.role {
			case roleScalarOut:
				w.Linef("if !sandbox.WriteWord(mem, uint32(stack[%d]), fr.Word(%s), %d) {", p.stackAt, p.slotVar, p.size)
			case roleBufOut:
				w.Linef("if !sandbox.WriteBuf(mem, uint32(stack[%d]), uint32(stack[%d]), fr.Bytes(%s)) {", p.stackAt, p.stackAt+2, p.slotVar)
			default: // roleBufIO: written pointer is the fourth slot
				w.Linef("if !sandbox.WriteBuf(mem, uint32(stack[%d]), uint32(stack[%d]), fr.Bytes(%s)) {", p.stackAt, p.stackAt+3, p.slotVar)
			}
			w.Indent()
			fail()
			w.Dedent()
			w.Linef("}")
		}
		w.Dedent()
		w.Linef("}")
	}
	w.Linef("stack[0] = uint64(code)")
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

// hostPushStmt spells the frame push for a directly passed scalar,
// recovering the value from its wasm stack slot.
func hostPushStmt(fp *flatParam, at int) string {
	m := &fp.Mapped
	arg := fmt.Sprintf("stack[%d]", at)
	switch m.ToWire {
	case ConvObject:
		return fmt.Sprintf("fr.PushHandle(runtime.ObjectHandle(%s))", arg)
	case ConvName:
		return fmt.Sprintf("fr.PushName(runtime.Name(%s))", arg)
	case ConvEnum:
		if scalarSlotKind(m) == slotI64 {
			return fmt.Sprintf("fr.PushI64(int64(%s))", arg)
		}
		return fmt.Sprintf("fr.PushI64(int64(int32(uint32(%s))))", arg)
	}
	switch m.Wire {
	case "bool":
		return fmt.Sprintf("fr.PushBool(uint32(%s) != 0)", arg)
	case "uint8", "int8":
		return fmt.Sprintf("fr.PushU8(uint8(%s))", arg)
	case "int16", "uint16", "int32", "uint32":
		return fmt.Sprintf("fr.PushI32(int32(uint32(%s)))", arg)
	case "int64", "uint64":
		return fmt.Sprintf("fr.PushI64(int64(%s))", arg)
	case "float32":
		return fmt.Sprintf("fr.PushF32(api.DecodeF32(%s))", arg)
	case "float64":
		return fmt.Sprintf("fr.PushF64(api.DecodeF64(%s))", arg)
	case "runtime.ObjectHandle":
		return fmt.Sprintf("fr.PushHandle(runtime.ObjectHandle(%s))", arg)
	case "runtime.Name":
		return fmt.Sprintf("fr.PushName(runtime.Name(%s))", arg)
	default:
		return fmt.Sprintf("fr.PushI64(int64(%s))", arg)
	}
}
