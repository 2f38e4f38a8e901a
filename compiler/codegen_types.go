package compiler

import (
	"fmt"

	"github.com/schemabind/schemabind/schema"
)

// Native type-definition emission: class wrappers with property
// accessors, opaque struct values, and enum types. Function wrappers
// are emitted separately and attach to the types produced here.

// emitModuleTypes writes one module's type definitions into w. Enums
// come first so their constants are in scope for defaulted signatures,
// then structs, then classes.
func emitModuleTypes(ctx *Context, w *srcWriter, module string) {
	for _, e := range ctx.ModuleEnums[module] {
		emitEnum(ctx, w, e)
	}
	for _, s := range ctx.ModuleStructs[module] {
		emitStruct(ctx, w, s)
	}
	for _, c := range ctx.ModuleClasses[module] {
		emitClassType(ctx, w, c)
	}
}

func emitEnum(ctx *Context, w *srcWriter, e *schema.Enum) {
	schema.NormalizeEnum(e)
	repr := ctx.EnumActualRepr(e.Name)

	w.Linef("// %s mirrors the host enum %s (underlying %s).", e.Name, e.NativeName, e.Underlying)
	w.Linef("type %s %s", e.Name, repr)
	w.Blank()
	if len(e.Pairs) > 0 {
		w.Linef("const (")
		w.Indent()
		for _, pair := range e.Pairs {
			w.Linef("%s%s %s = %d", e.Name, variantIdent(pair.Name), e.Name, pair.Value)
		}
		w.Dedent()
		w.Linef(")")
		w.Blank()
	}

	// The host hands enum values out as 64-bit signed integers; stored
	// values may arrive either raw (width-truncated) or sign-normalized,
	// and both forms must resolve.
	w.Linef("// %sFromValue maps a host value to the enum, accepting both the", e.Name)
	w.Linef("// raw and the sign-normalized form. Reports false for values the")
	w.Linef("// enum does not declare.")
	w.Linef("func %sFromValue(v int64) (%s, bool) {", e.Name, e.Name)
	w.Indent()
	w.Linef("switch v {")
	bits := schema.EnumWidthBits(e.Underlying)
	seen := make(map[int64]bool)
	for _, pair := range e.Pairs {
		values := []int64{pair.Value}
		if raw := rawEnumValue(pair.Value, bits); raw != pair.Value {
			values = append(values, raw)
		}
		cases := ""
		for _, v := range values {
			if seen[v] {
				continue
			}
			seen[v] = true
			if cases != "" {
				cases += ", "
			}
			cases += fmt.Sprintf("%d", v)
		}
		if cases == "" {
			continue
		}
		w.Linef("case %s:", cases)
		w.Indent()
		w.Linef("return %s%s, true", e.Name, variantIdent(pair.Name))
		w.Dedent()
	}
	w.Linef("}")
	w.Linef("return 0, false")
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

// rawEnumValue recovers the unsigned width-truncated form of a
// normalized value, e.g. -1 in an 8-bit enum is also addressable as 255.
func rawEnumValue(v int64, bits int) int64 {
	if v >= 0 {
		return v
	}
	switch bits {
	case 8:
		return int64(uint8(v))
	case 16:
		return int64(uint16(v))
	case 32:
		return int64(uint32(v))
	default:
		return v
	}
}

func emitStruct(ctx *Context, w *srcWriter, s *schema.Struct) {
	w.Linef("// %s is an opaque value of the host struct %s. The bytes are the", s.Name, s.NativeName)
	w.Linef("// host's own layout; members are reached through reflection offsets,")
	w.Linef("// never by structural interpretation.")
	w.Linef("type %s struct {", s.Name)
	w.Indent()
	w.Linef("data []byte")
	w.Dedent()
	w.Linef("}")
	w.Blank()

	if s.HasStaticType {
		w.Linef("// New%s allocates a host-initialized value.", s.Name)
		w.Linef("func New%s() (*%s, error) {", s.Name, s.Name)
		w.Indent()
		w.Linef("st, err := runtime.CachedStructType(%q)", s.Name)
		w.Linef("if err != nil {")
		w.Indent()
		w.Linef("return nil, err")
		w.Dedent()
		w.Linef("}")
		w.Linef("v := &%s{data: make([]byte, runtime.API().Reflection.StructSize(st))}", s.Name)
		w.Linef("if err := runtime.CheckCode(runtime.API().Reflection.InitStruct(st, v.data), %q); err != nil {", "init "+s.Name)
		w.Indent()
		w.Linef("return nil, err")
		w.Dedent()
		w.Linef("}")
		w.Linef("return v, nil")
		w.Dedent()
		w.Linef("}")
		w.Blank()

		w.Linef("// Destroy runs the host destructor. Optional for plain-data structs,")
		w.Linef("// required when the host tracks the value.")
		w.Linef("func (v *%s) Destroy() error {", s.Name)
		w.Indent()
		w.Linef("st, err := runtime.CachedStructType(%q)", s.Name)
		w.Linef("if err != nil {")
		w.Indent()
		w.Linef("return err")
		w.Dedent()
		w.Linef("}")
		w.Linef("runtime.API().Reflection.DestroyStruct(st, v.data)")
		w.Linef("return nil")
		w.Dedent()
		w.Linef("}")
		w.Blank()
	}

	w.Linef("// %sFromBytes wraps raw host-layout bytes without copying.", s.Name)
	w.Linef("func %sFromBytes(b []byte) *%s { return &%s{data: b} }", s.Name, s.Name, s.Name)
	w.Blank()
	w.Linef("// Bytes returns the raw host-layout bytes.")
	w.Linef("func (v *%s) Bytes() []byte { return v.data }", s.Name)
	w.Blank()

	for i := range s.Props {
		emitStructMember(ctx, w, s, &s.Props[i])
	}
}

// emitStructMember writes offset-addressed accessors for one struct
// member. Only byte-addressable kinds get accessors; variable-length
// and container members stay reachable through the property primitives.
func emitStructMember(ctx *Context, w *srcWriter, s *schema.Struct, p *schema.Property) {
	read, write, typ := structMemberCodec(ctx, p)
	if read == "" || p.ArrayDim > 1 {
		return
	}
	name := EscapeIdent(p.Name)

	w.Linef("// %s reads the %s member.", name, p.Name)
	w.Linef("func (v *%s) %s() (%s, error) {", s.Name, name, typ)
	w.Indent()
	w.Linef("prop, err := runtime.CachedStructProperty(%q, %q)", s.Name, p.Name)
	w.Linef("if err != nil {")
	w.Indent()
	w.Linef("var zero %s", typ)
	w.Linef("return zero, err")
	w.Dedent()
	w.Linef("}")
	w.Linef("off := runtime.API().Reflection.PropertyOffset(prop)")
	w.Linef("return %s, nil", fmt.Sprintf(read, "v.data", "off"))
	w.Dedent()
	w.Linef("}")
	w.Blank()

	w.Linef("// Set%s writes the %s member.", name, p.Name)
	w.Linef("func (v *%s) Set%s(val %s) error {", s.Name, name, typ)
	w.Indent()
	w.Linef("prop, err := runtime.CachedStructProperty(%q, %q)", s.Name, p.Name)
	w.Linef("if err != nil {")
	w.Indent()
	w.Linef("return err")
	w.Dedent()
	w.Linef("}")
	w.Linef("off := runtime.API().Reflection.PropertyOffset(prop)")
	w.Linef("%s", fmt.Sprintf(write, "v.data", "off", "val"))
	w.Linef("return nil")
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

// structMemberCodec returns format strings for an offset-addressed read
// ("%s"=buf, "%s"=off) and write ("%s"=buf, "%s"=off, "%s"=val), plus
// the display type. Empty read means no accessor is emitted.
func structMemberCodec(ctx *Context, p *schema.Property) (read, write, typ string) {
	switch p.Type {
	case "BoolProperty":
		return "runtime.ReadBool(%s, %s)", "runtime.WriteBool(%s, %s, %s)", "bool"
	case "Int8Property":
		return "int8(runtime.ReadU8(%s, %s))", "runtime.WriteU8(%s, %s, uint8(%s))", "int8"
	case "ByteProperty":
		if p.EnumName != "" {
			return enumMemberCodec(ctx, p)
		}
		return "runtime.ReadU8(%s, %s)", "runtime.WriteU8(%s, %s, %s)", "uint8"
	case "Int16Property":
		return "int16(runtime.ReadU16(%s, %s))", "runtime.WriteU16(%s, %s, uint16(%s))", "int16"
	case "UInt16Property":
		return "runtime.ReadU16(%s, %s)", "runtime.WriteU16(%s, %s, %s)", "uint16"
	case "IntProperty":
		return "runtime.ReadI32(%s, %s)", "runtime.WriteI32(%s, %s, %s)", "int32"
	case "UInt32Property":
		return "uint32(runtime.ReadI32(%s, %s))", "runtime.WriteI32(%s, %s, int32(%s))", "uint32"
	case "Int64Property":
		return "runtime.ReadI64(%s, %s)", "runtime.WriteI64(%s, %s, %s)", "int64"
	case "UInt64Property":
		return "uint64(runtime.ReadI64(%s, %s))", "runtime.WriteI64(%s, %s, int64(%s))", "uint64"
	case "FloatProperty":
		return "runtime.ReadF32(%s, %s)", "runtime.WriteF32(%s, %s, %s)", "float32"
	case "DoubleProperty":
		return "runtime.ReadF64(%s, %s)", "runtime.WriteF64(%s, %s, %s)", "float64"
	case "NameProperty":
		return "runtime.ReadName(%s, %s)", "runtime.WriteName(%s, %s, %s)", "runtime.Name"
	case "EnumProperty":
		return enumMemberCodec(ctx, p)
	default:
		return "", "", ""
	}
}

func enumMemberCodec(ctx *Context, p *schema.Property) (read, write, typ string) {
	if p.EnumName == "" || ctx.Enums[p.EnumName] == nil {
		return "", "", ""
	}
	name := p.EnumName
	// In-memory enum storage uses the declared width.
	switch schema.EnumWidthBits(p.EnumWidth) {
	case 16:
		return name + "(runtime.ReadU16(%s, %s))", "runtime.WriteU16(%s, %s, uint16(%s))", name
	case 32:
		return name + "(runtime.ReadI32(%s, %s))", "runtime.WriteI32(%s, %s, int32(%s))", name
	case 64:
		return name + "(runtime.ReadI64(%s, %s))", "runtime.WriteI64(%s, %s, int64(%s))", name
	default:
		return name + "(runtime.ReadU8(%s, %s))", "runtime.WriteU8(%s, %s, uint8(%s))", name
	}
}

func emitClassType(ctx *Context, w *srcWriter, c *schema.Class) {
	w.Linef("// %s wraps a live host object of class %s.", c.Name, c.NativeName)
	w.Linef("type %s struct {", c.Name)
	w.Indent()
	w.Linef("h runtime.ObjectHandle")
	w.Dedent()
	w.Linef("}")
	w.Blank()

	w.Linef("// %sFromHandle wraps a raw handle; nil for the null handle.", c.Name)
	w.Linef("// No liveness or class check happens here.")
	w.Linef("func %sFromHandle(h runtime.ObjectHandle) *%s {", c.Name, c.Name)
	w.Indent()
	w.Linef("if h == 0 {")
	w.Indent()
	w.Linef("return nil")
	w.Dedent()
	w.Linef("}")
	w.Linef("return &%s{h: h}", c.Name)
	w.Dedent()
	w.Linef("}")
	w.Blank()

	w.Linef("// Handle returns the raw host handle.")
	w.Linef("func (o *%s) Handle() runtime.ObjectHandle {", c.Name)
	w.Indent()
	w.Linef("if o == nil {")
	w.Indent()
	w.Linef("return runtime.NilObject")
	w.Dedent()
	w.Linef("}")
	w.Linef("return o.h")
	w.Dedent()
	w.Linef("}")
	w.Blank()

	w.Linef("// IsValid reports whether the host still considers the object live.")
	w.Linef("func (o *%s) IsValid() bool {", c.Name)
	w.Indent()
	w.Linef("return o != nil && runtime.API().Core.IsValid(o.h)")
	w.Dedent()
	w.Linef("}")
	w.Blank()

	for i := range c.Props {
		emitPropertyAccessors(ctx, w, c, &c.Props[i])
	}
}

func emitPropertyAccessors(ctx *Context, w *srcWriter, c *schema.Class, p *schema.Property) {
	mapped := MapPropertyType(p)
	switch {
	case mapped.ToWire.IsDelegate():
		emitDelegateBind(ctx, w, c, p)
	case mapped.ToWire.IsContainer():
		emitContainerAccessor(ctx, w, c, p)
	case p.ArrayDim > 1:
		emitIndexedAccessors(w, c, p, &mapped)
	default:
		emitScalarAccessors(w, c, p, &mapped)
	}
}

// propLookup emits the shared handle-resolution prologue and the error
// return for it. zero is the zero-value expression of the result type.
func propLookup(w *srcWriter, class, prop, zero string) {
	w.Linef("prop, err := runtime.CachedProperty(%q, %q)", class, prop)
	w.Linef("if err != nil {")
	w.Indent()
	if zero == "" {
		w.Linef("return err")
	} else {
		w.Linef("return %s, err", zero)
	}
	w.Dedent()
	w.Linef("}")
}

func emitScalarAccessors(w *srcWriter, c *schema.Class, p *schema.Property, mapped *MappedType) {
	name := EscapeIdent(p.Name)
	ctxStr := c.Name + "." + p.Name
	display := mapped.Display
	if mapped.ToWire == ConvOpaqueStruct {
		display = "*" + display
	}
	zero := zeroValue(display)

	w.Linef("// %s reads the %s property.", name, p.Name)
	w.Linef("func (o *%s) %s() (%s, error) {", c.Name, name, display)
	w.Indent()
	propLookup(w, c.Name, p.Name, zero)
	switch mapped.ToWire {
	case ConvString:
		w.Linef("return runtime.GetStringProp(o.h, prop, %q)", ctxStr)
	case ConvOpaqueStruct:
		w.Linef("b, err := runtime.GetStructProp(o.h, prop, %q)", ctxStr)
		w.Linef("if err != nil {")
		w.Indent()
		w.Linef("return nil, err")
		w.Dedent()
		w.Linef("}")
		w.Linef("return %sFromBytes(b), nil", trimPtr(mapped.Display))
	case ConvObject:
		w.Linef("v, code := runtime.API().Property.GetObject(o.h, prop)")
		w.Linef("if err := runtime.CheckCode(code, %q); err != nil {", ctxStr)
		w.Indent()
		w.Linef("return nil, err")
		w.Dedent()
		w.Linef("}")
		w.Linef("return %sFromHandle(v), nil", trimPtr(mapped.Display))
	case ConvEnum:
		w.Linef("v, code := runtime.API().Property.GetEnum(o.h, prop)")
		w.Linef("if err := runtime.CheckCode(code, %q); err != nil {", ctxStr)
		w.Indent()
		w.Linef("return 0, err")
		w.Dedent()
		w.Linef("}")
		w.Linef("return %s(v), nil", mapped.Display)
	default:
		w.Linef("v, code := runtime.API().Property.%s(o.h, prop)", mapped.Getter)
		w.Linef("if err := runtime.CheckCode(code, %q); err != nil {", ctxStr)
		w.Indent()
		w.Linef("return %s, err", zero)
		w.Dedent()
		w.Linef("}")
		if mapped.FromWire == ConvIntCast {
			w.Linef("return %s(v), nil", mapped.Display)
		} else {
			w.Linef("return v, nil")
		}
	}
	w.Dedent()
	w.Linef("}")
	w.Blank()

	w.Linef("// Set%s writes the %s property.", name, p.Name)
	w.Linef("func (o *%s) Set%s(v %s) error {", c.Name, name, display)
	w.Indent()
	propLookup(w, c.Name, p.Name, "")
	switch mapped.ToWire {
	case ConvString:
		w.Linef("return runtime.CheckCode(runtime.API().Property.SetString(o.h, prop, v), %q)", ctxStr)
	case ConvOpaqueStruct:
		w.Linef("return runtime.CheckCode(runtime.API().Property.SetStruct(o.h, prop, v.Bytes()), %q)", ctxStr)
	case ConvObject:
		w.Linef("return runtime.CheckCode(runtime.API().Property.SetObject(o.h, prop, v.Handle()), %q)", ctxStr)
	case ConvEnum:
		w.Linef("return runtime.CheckCode(runtime.API().Property.SetEnum(o.h, prop, int64(v)), %q)", ctxStr)
	case ConvIntCast:
		w.Linef("return runtime.CheckCode(runtime.API().Property.%s(o.h, prop, %s(v)), %q)", mapped.Setter, mapped.Wire, ctxStr)
	default:
		w.Linef("return runtime.CheckCode(runtime.API().Property.%s(o.h, prop, v), %q)", mapped.Setter, ctxStr)
	}
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

// emitIndexedAccessors covers fixed-size array properties. Only the
// widths backed by indexed primitives get accessors.
func emitIndexedAccessors(w *srcWriter, c *schema.Class, p *schema.Property, mapped *MappedType) {
	var getter, setter string
	switch mapped.Wire {
	case "uint8", "int8", "bool":
		getter, setter = "GetAtU8", "SetAtU8"
	case "int16", "uint16", "int32", "uint32":
		getter, setter = "GetAtI32", "SetAtI32"
	case "int64", "uint64":
		getter, setter = "GetAtI64", "SetAtI64"
	case "float32":
		getter, setter = "GetAtF32", "SetAtF32"
	case "float64":
		getter, setter = "GetAtF64", "SetAtF64"
	default:
		return
	}
	if mapped.ToWire == ConvEnum {
		getter, setter = "GetAtI64", "SetAtI64"
	}
	name := EscapeIdent(p.Name)
	ctxStr := c.Name + "." + p.Name
	display := mapped.Display
	zero := zeroValue(display)

	w.Linef("// %sAt reads slot i of the fixed array %s (%d slots).", name, p.Name, p.ArrayDim)
	w.Linef("func (o *%s) %sAt(i int) (%s, error) {", c.Name, name, display)
	w.Indent()
	w.Linef("if i < 0 || i >= %d {", p.ArrayDim)
	w.Indent()
	w.Linef("return %s, runtime.NewError(runtime.ErrIndexOutOfRange, \"%s[%%d]\", i)", zero, ctxStr)
	w.Dedent()
	w.Linef("}")
	propLookup(w, c.Name, p.Name, zero)
	w.Linef("v, code := runtime.API().Property.%s(o.h, prop, int32(i))", getter)
	w.Linef("if err := runtime.CheckCode(code, %q); err != nil {", ctxStr)
	w.Indent()
	w.Linef("return %s, err", zero)
	w.Dedent()
	w.Linef("}")
	if needsCast(display, mapped) {
		w.Linef("return %s(v), nil", display)
	} else {
		w.Linef("return v, nil")
	}
	w.Dedent()
	w.Linef("}")
	w.Blank()

	wireCast := wireCastExpr(mapped)
	w.Linef("// Set%sAt writes slot i of the fixed array %s.", name, p.Name)
	w.Linef("func (o *%s) Set%sAt(i int, v %s) error {", c.Name, name, display)
	w.Indent()
	w.Linef("if i < 0 || i >= %d {", p.ArrayDim)
	w.Indent()
	w.Linef("return runtime.NewError(runtime.ErrIndexOutOfRange, \"%s[%%d]\", i)", ctxStr)
	w.Dedent()
	w.Linef("}")
	propLookup(w, c.Name, p.Name, "")
	w.Linef("return runtime.CheckCode(runtime.API().Property.%s(o.h, prop, int32(i), %s), %q)", setter, wireCast, ctxStr)
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

func needsCast(display string, mapped *MappedType) bool {
	return mapped.ToWire == ConvIntCast || mapped.ToWire == ConvEnum || display == "bool"
}

// wireCastExpr spells the cast from display value v to the indexed
// primitive's argument.
func wireCastExpr(mapped *MappedType) string {
	switch {
	case mapped.ToWire == ConvEnum:
		return "int64(v)"
	case mapped.Display == "bool":
		return "boolByte(v)"
	case mapped.ToWire == ConvIntCast:
		switch mapped.Wire {
		case "uint8":
			return "uint8(v)"
		case "int32":
			return "int32(v)"
		default:
			return "int64(v)"
		}
	default:
		return "v"
	}
}

func emitContainerAccessor(ctx *Context, w *srcWriter, c *schema.Class, p *schema.Property) {
	viewType := ResolveContainerType(p, ctx)
	if viewType == "" {
		return
	}
	name := EscapeIdent(p.Name)

	w.Linef("// %s returns a live view of the %s container. Elements are read", name, p.Name)
	w.Linef("// through the host on each access; nothing is snapshotted.")
	w.Linef("func (o *%s) %s() (%s, error) {", c.Name, name, viewType)
	w.Indent()
	w.Linef("prop, err := runtime.CachedProperty(%q, %q)", c.Name, p.Name)
	w.Linef("if err != nil {")
	w.Indent()
	w.Linef("return %s{}, err", viewType)
	w.Dedent()
	w.Linef("}")
	switch p.Type {
	case "MapProperty":
		w.Linef("return %s{Obj: o.h, Prop: prop, KeyCodec: %s, ValCodec: %s}, nil",
			viewType, codecExpr(ctx, p.Key), codecExpr(ctx, p.Value))
	case "SetProperty":
		w.Linef("return %s{Obj: o.h, Prop: prop, Codec: %s}, nil", viewType, codecExpr(ctx, p.Element))
	default:
		w.Linef("return %s{Obj: o.h, Prop: prop, Codec: %s}, nil", viewType, codecExpr(ctx, p.Inner))
	}
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

// codecExpr spells the runtime codec literal moving one element type
// across the byte boundary.
func codecExpr(ctx *Context, elem *schema.Property) string {
	display := ContainerElemType(elem, ctx)
	switch elem.Type {
	case "BoolProperty":
		return "runtime.BoolCodec"
	case "Int8Property":
		return castCodec("runtime.U8Codec", display, "uint8")
	case "ByteProperty":
		if elem.EnumName != "" {
			return castCodec("runtime.I64Codec", display, "int64")
		}
		return "runtime.U8Codec"
	case "Int16Property", "UInt16Property", "UInt32Property":
		return castCodec("runtime.I32Codec", display, "int32")
	case "IntProperty":
		return "runtime.I32Codec"
	case "UInt64Property":
		return castCodec("runtime.I64Codec", display, "int64")
	case "Int64Property":
		return "runtime.I64Codec"
	case "FloatProperty":
		return "runtime.F32Codec"
	case "DoubleProperty":
		return "runtime.F64Codec"
	case "StrProperty", "TextProperty":
		return "runtime.StringCodec"
	case "NameProperty":
		return "runtime.NameCodec"
	case "EnumProperty":
		return castCodec("runtime.I64Codec", display, "int64")
	case "StructProperty":
		return fmt.Sprintf(
			"runtime.CastCodec(runtime.BytesCodec, func(v %s) []byte { return v.Bytes() }, func(b []byte) %s { return *%sFromBytes(b) })",
			display, display, display)
	default:
		// Object-like references travel as raw handles.
		if display == "runtime.ObjectHandle" {
			return "runtime.HandleCodec"
		}
		bare := trimPtr(display)
		return fmt.Sprintf(
			"runtime.CastCodec(runtime.HandleCodec, func(v %s) runtime.ObjectHandle { return v.Handle() }, %sFromHandle)",
			display, bare)
	}
}

func castCodec(base, display, wire string) string {
	if display == wire {
		return base
	}
	return fmt.Sprintf(
		"runtime.CastCodec(%s, func(v %s) %s { return %s(v) }, func(v %s) %s { return %s(v) })",
		base, display, wire, wire, wire, display, display)
}

func emitDelegateBind(ctx *Context, w *srcWriter, c *schema.Class, p *schema.Property) {
	if p.FuncInfo == nil {
		return
	}
	mapped := MapPropertyType(p)
	multicast := mapped.ToWire == ConvMulticast

	// Callback signature from the delegate's own parameter list.
	var sigParts, decodes []string
	for i := range p.FuncInfo.Params {
		dp := &p.FuncInfo.Params[i]
		dm := MapPropertyType(dp)
		display := dm.Display
		if dm.ToWire == ConvOpaqueStruct {
			display = "*" + display
		}
		sigParts = append(sigParts, fmt.Sprintf("%s %s", ParamIdent(dp.Name), display))
		decodes = append(decodes, delegateDecode(dp, &dm, i))
	}
	sig := joinComma(sigParts)
	verb, attach := "Bind", "BindDelegate"
	if multicast {
		verb, attach = "Add", "AddMulticast"
	}
	name := EscapeIdent(p.Name)

	w.Linef("// %s%s attaches f to the %s delegate. The returned binding", verb, name, p.Name)
	w.Linef("// must be unbound before the owner dies; unbinding from inside the")
	w.Linef("// callback is safe.")
	w.Linef("func (o *%s) %s%s(f func(%s)) (*runtime.Binding, error) {", c.Name, verb, name, sig)
	w.Indent()
	propLookup(w, c.Name, p.Name, "nil")
	w.Linef("sig := runtime.API().Reflection.DelegateSignature(prop)")
	w.Linef("if sig == 0 {")
	w.Indent()
	w.Linef("return nil, runtime.NewError(runtime.ErrNotFound, \"signature of %s.%s\")", c.Name, p.Name)
	w.Dedent()
	w.Linef("}")
	// Parameter handles and offsets resolve once, at bind time; the
	// per-fire closure only reads the buffer.
	for i := range p.FuncInfo.Params {
		dp := &p.FuncInfo.Params[i]
		dm := MapPropertyType(dp)
		w.Linef("ph%d := runtime.API().Reflection.FuncParam(sig, %q)", i, dp.Name)
		w.Linef("if ph%d == 0 {", i)
		w.Indent()
		w.Linef("return nil, runtime.NewError(runtime.ErrNotFound, \"param %s of %s.%s\")", dp.Name, c.Name, p.Name)
		w.Dedent()
		w.Linef("}")
		switch dm.ToWire {
		case ConvString:
			// String reads go through the handle, not the offset.
		case ConvOpaqueStruct:
			w.Linef("off%d := runtime.API().Reflection.PropertyOffset(ph%d)", i, i)
			w.Linef("sz%d := runtime.API().Reflection.PropertySize(ph%d)", i, i)
		default:
			w.Linef("off%d := runtime.API().Reflection.PropertyOffset(ph%d)", i, i)
		}
	}
	w.Linef("return runtime.%s(o.h, prop, func(params runtime.ParamBuffer) {", attach)
	w.Indent()
	w.Linef("f(%s)", joinComma(decodes))
	w.Dedent()
	w.Linef("})")
	w.Dedent()
	w.Linef("}")
	w.Blank()
}

// delegateDecode spells the read of delegate parameter i from the raw
// buffer at its resolved offset.
func delegateDecode(p *schema.Param, m *MappedType, i int) string {
	off := fmt.Sprintf("off%d", i)
	switch m.ToWire {
	case ConvObject:
		return fmt.Sprintf("%sFromHandle(runtime.ReadHandle(params, %s))", trimPtr(m.Display), off)
	case ConvEnum:
		return fmt.Sprintf("%s(%s)", m.Display, enumBufRead(p.EnumWidth, off))
	case ConvName:
		return fmt.Sprintf("runtime.ReadName(params, %s)", off)
	case ConvString:
		return fmt.Sprintf("delegateParamString(params, ph%d)", i)
	case ConvOpaqueStruct:
		return fmt.Sprintf("%sFromBytes(copyBytes(params, %s, sz%d))", m.Display, off, i)
	default:
		switch m.Wire {
		case "bool":
			return fmt.Sprintf("runtime.ReadBool(params, %s)", off)
		case "uint8":
			return castIf(m, fmt.Sprintf("runtime.ReadU8(params, %s)", off))
		case "int32":
			return castIf(m, fmt.Sprintf("runtime.ReadI32(params, %s)", off))
		case "int64":
			return castIf(m, fmt.Sprintf("runtime.ReadI64(params, %s)", off))
		case "float32":
			return fmt.Sprintf("runtime.ReadF32(params, %s)", off)
		case "float64":
			return fmt.Sprintf("runtime.ReadF64(params, %s)", off)
		case "runtime.ObjectHandle":
			return fmt.Sprintf("runtime.ReadHandle(params, %s)", off)
		default:
			return fmt.Sprintf("runtime.ReadI64(params, %s)", off)
		}
	}
}

func enumBufRead(width, off string) string {
	switch schema.EnumWidthBits(width) {
	case 16:
		return fmt.Sprintf("runtime.ReadU16(params, %s)", off)
	case 32:
		return fmt.Sprintf("runtime.ReadI32(params, %s)", off)
	case 64:
		return fmt.Sprintf("runtime.ReadI64(params, %s)", off)
	default:
		return fmt.Sprintf("runtime.ReadU8(params, %s)", off)
	}
}

func castIf(m *MappedType, expr string) string {
	if m.ToWire == ConvIntCast {
		return fmt.Sprintf("%s(%s)", m.Display, expr)
	}
	return expr
}

func trimPtr(s string) string {
	if len(s) > 0 && s[0] == '*' {
		return s[1:]
	}
	return s
}

func zeroValue(display string) string {
	switch display {
	case "bool":
		return "false"
	case "string":
		return `""`
	case "runtime.Name":
		return "runtime.NameNone"
	case "runtime.ObjectHandle":
		return "runtime.NilObject"
	}
	if len(display) > 0 && display[0] == '*' {
		return "nil"
	}
	return "0"
}

func joinComma(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += ", "
		}
		out += p
	}
	return out
}
