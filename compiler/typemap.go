package compiler

import (
	"fmt"

	"github.com/schemabind/schemabind/schema"
)

// Direction classifies how a function parameter moves data.
type Direction int

const (
	DirIn    Direction = iota // input
	DirOut                    // output (non-const out)
	DirInOut                  // reference parameter, copied both ways
	DirReturn
)

func (d Direction) String() string {
	switch d {
	case DirIn:
		return "in"
	case DirOut:
		return "out"
	case DirInOut:
		return "inout"
	case DirReturn:
		return "return"
	default:
		return "unknown"
	}
}

// ConversionKind is the closed set of strategies for moving a value across
// an ABI boundary. The schema's type tag is an open string; it is decided
// into a ConversionKind exactly once, here, and never re-dispatched on
// downstream.
type ConversionKind int

const (
	ConvIdentity ConversionKind = iota
	ConvIntCast                 // declared width differs from wire width
	ConvObject                  // raw object handle, wrapped per class
	ConvString                  // UTF-8 (pointer, length) on the wire
	ConvEnum                    // integer of declared width; host side moves i64
	ConvOpaqueStruct            // raw byte pointer into backing storage
	ConvName                    // interned name handle
	ConvArray
	ConvMap
	ConvSet
	ConvDelegate
	ConvMulticast
)

func (c ConversionKind) String() string {
	switch c {
	case ConvIdentity:
		return "identity"
	case ConvIntCast:
		return "int-cast"
	case ConvObject:
		return "object"
	case ConvString:
		return "string"
	case ConvEnum:
		return "enum"
	case ConvOpaqueStruct:
		return "opaque-struct"
	case ConvName:
		return "name"
	case ConvArray:
		return "array"
	case ConvMap:
		return "map"
	case ConvSet:
		return "set"
	case ConvDelegate:
		return "delegate"
	case ConvMulticast:
		return "multicast"
	default:
		return "unknown"
	}
}

// IsContainer reports whether the kind is one of the three container kinds.
func (c ConversionKind) IsContainer() bool {
	return c == ConvArray || c == ConvMap || c == ConvSet
}

// IsDelegate reports whether the kind is one of the two delegate kinds.
func (c ConversionKind) IsDelegate() bool {
	return c == ConvDelegate || c == ConvMulticast
}

// MappedType is the target representation of a schema property type.
type MappedType struct {
	// Display is the Go type in generated signatures (e.g. "int32",
	// "*Actor", "string").
	Display string
	// Wire is the type crossing the native ABI (e.g. "int32",
	// "runtime.ObjectHandle").
	Wire string
	// Getter and Setter name the property-access primitives on the host
	// table (e.g. "GetI32", "SetI32").
	Getter string
	Setter string
	// ToWire converts a display value into its wire form; FromWire the
	// reverse. Every property maps to exactly one kind per direction.
	ToWire   ConversionKind
	FromWire ConversionKind
	// Supported is false for tags the binding cannot express (nested
	// containers, unresolvable interfaces, unknown tags). Callers must
	// skip the owning function entirely — never coerce.
	Supported bool
	// Reason says why Supported is false.
	Reason string
}

// Schema type tags the classifier understands. Anything else is
// unsupported and the owning member is skipped.
var supportedTags = map[string]bool{
	"BoolProperty":                    true,
	"Int8Property":                    true,
	"ByteProperty":                    true,
	"Int16Property":                   true,
	"UInt16Property":                  true,
	"IntProperty":                     true,
	"UInt32Property":                  true,
	"Int64Property":                   true,
	"UInt64Property":                  true,
	"FloatProperty":                   true,
	"DoubleProperty":                  true,
	"StrProperty":                     true,
	"NameProperty":                    true,
	"TextProperty":                    true,
	"EnumProperty":                    true,
	"ObjectProperty":                  true,
	"ClassProperty":                   true,
	"StructProperty":                  true,
	"ArrayProperty":                   true,
	"MapProperty":                     true,
	"SetProperty":                     true,
	"SoftObjectProperty":              true,
	"WeakObjectProperty":              true,
	"InterfaceProperty":               true,
	"DelegateProperty":                true,
	"MulticastInlineDelegateProperty": true,
	"MulticastSparseDelegateProperty": true,
}

// IsSupportedTag reports whether the schema type tag can be bound at all.
func IsSupportedTag(tag string) bool {
	return supportedTags[tag]
}

// IsDelegateTag reports whether the tag names a delegate property type.
func IsDelegateTag(tag string) bool {
	switch tag {
	case "DelegateProperty", "MulticastInlineDelegateProperty", "MulticastSparseDelegateProperty":
		return true
	}
	return false
}

// IsContainerTag reports whether the tag names a container property type.
func IsContainerTag(tag string) bool {
	switch tag {
	case "ArrayProperty", "MapProperty", "SetProperty":
		return true
	}
	return false
}

// MapPropertyType classifies a schema property into its target
// representation. Unsupported combinations return Supported=false and the
// caller must skip the owning member; silent coercion is never allowed.
func MapPropertyType(p *schema.Property) MappedType {
	switch p.Type {
	case "BoolProperty":
		return MappedType{
			Display: "bool", Wire: "bool",
			Getter: "GetBool", Setter: "SetBool",
			ToWire: ConvIdentity, FromWire: ConvIdentity,
			Supported: true,
		}
	case "Int8Property":
		return intType("int8")
	case "ByteProperty":
		// A byte property carrying an enum reference is an enum.
		if p.EnumName != "" {
			return enumType(p.EnumName, p.EnumWidth)
		}
		return intType("uint8")
	case "Int16Property":
		return intType("int16")
	case "UInt16Property":
		return intType("uint16")
	case "IntProperty":
		return intType("int32")
	case "UInt32Property":
		return intType("uint32")
	case "Int64Property":
		return intType("int64")
	case "UInt64Property":
		return intType("uint64")
	case "FloatProperty":
		return MappedType{
			Display: "float32", Wire: "float32",
			Getter: "GetF32", Setter: "SetF32",
			ToWire: ConvIdentity, FromWire: ConvIdentity,
			Supported: true,
		}
	case "DoubleProperty":
		return MappedType{
			Display: "float64", Wire: "float64",
			Getter: "GetF64", Setter: "SetF64",
			ToWire: ConvIdentity, FromWire: ConvIdentity,
			Supported: true,
		}
	case "StrProperty", "TextProperty":
		return MappedType{
			Display: "string", Wire: "runtime.StrRef",
			Getter: "GetString", Setter: "SetString",
			ToWire: ConvString, FromWire: ConvString,
			Supported: true,
		}
	case "NameProperty":
		return MappedType{
			Display: "runtime.Name", Wire: "runtime.Name",
			Getter: "GetName", Setter: "SetName",
			ToWire: ConvName, FromWire: ConvName,
			Supported: true,
		}
	case "EnumProperty":
		if p.EnumName == "" {
			return unsupported("EnumProperty without enum reference")
		}
		return enumType(p.EnumName, p.EnumWidth)
	case "ObjectProperty", "SoftObjectProperty", "WeakObjectProperty":
		return objectType(p.ClassName)
	case "ClassProperty":
		// Class references bind through the metaclass when present.
		cls := p.MetaClass
		if cls == "" {
			cls = p.ClassName
		}
		return objectType(cls)
	case "InterfaceProperty":
		if p.Interface == "" {
			return unsupported("InterfaceProperty without interface reference")
		}
		return objectType(p.Interface)
	case "StructProperty":
		if p.StructName == "" {
			return unsupported("StructProperty without struct reference")
		}
		return MappedType{
			Display: p.StructName, Wire: "runtime.StructBytes",
			Getter: "GetStruct", Setter: "SetStruct",
			ToWire: ConvOpaqueStruct, FromWire: ConvOpaqueStruct,
			Supported: true,
		}
	case "ArrayProperty":
		return containerType(ConvArray)
	case "MapProperty":
		return containerType(ConvMap)
	case "SetProperty":
		return containerType(ConvSet)
	case "DelegateProperty":
		return MappedType{ToWire: ConvDelegate, FromWire: ConvDelegate, Supported: true}
	case "MulticastInlineDelegateProperty", "MulticastSparseDelegateProperty":
		return MappedType{ToWire: ConvMulticast, FromWire: ConvMulticast, Supported: true}
	default:
		return unsupported(p.Type)
	}
}

// ParamDirection derives the data-flow direction from property flags.
// A const out parameter is a pseudo-output and collapses to plain input.
func ParamDirection(p *schema.Param) Direction {
	if p.PropFlags&schema.PropReturnParam != 0 {
		return DirReturn
	}
	isOut := p.PropFlags&schema.PropOutParam != 0
	isConst := p.PropFlags&schema.PropConstParam != 0
	isRef := p.PropFlags&schema.PropReferenceParm != 0

	switch {
	case isOut && isConst:
		return DirIn
	case isOut && isRef:
		return DirInOut
	case isOut:
		return DirOut
	default:
		return DirIn
	}
}

// The host property table only exposes 8/32/64-bit integer primitives.
// Narrow and unsigned widths route through the nearest exposed primitive
// with an explicit cast at the boundary.
func intType(display string) MappedType {
	var getter, setter, wire string
	switch display {
	case "int8", "uint8":
		getter, setter, wire = "GetU8", "SetU8", "uint8"
	case "int16", "uint16", "int32", "uint32":
		getter, setter, wire = "GetI32", "SetI32", "int32"
	case "int64", "uint64":
		getter, setter, wire = "GetI64", "SetI64", "int64"
	default:
		getter, setter, wire = "GetI32", "SetI32", "int32"
	}
	conv := ConvIdentity
	if display != wire {
		conv = ConvIntCast
	}
	return MappedType{
		Display: display, Wire: wire,
		Getter: getter, Setter: setter,
		ToWire: conv, FromWire: conv,
		Supported: true,
	}
}

// Enum wire width matches the declared underlying type, but the host
// enum-access primitive always moves a 64-bit signed value; a second cast
// happens at that boundary in generated code.
func enumType(name, underlying string) MappedType {
	var wire string
	switch underlying {
	case "uint8":
		wire = "uint8"
	case "int8":
		wire = "int8"
	case "uint16":
		wire = "uint16"
	case "int16":
		wire = "int16"
	case "uint32":
		wire = "uint32"
	case "int32":
		wire = "int32"
	case "uint64":
		wire = "uint64"
	case "int64":
		wire = "int64"
	default:
		wire = "uint8"
	}
	return MappedType{
		Display: name, Wire: wire,
		Getter: "GetEnum", Setter: "SetEnum",
		ToWire: ConvEnum, FromWire: ConvEnum,
		Supported: true,
	}
}

func objectType(class string) MappedType {
	if class == "" {
		// Untyped reference: the raw handle crosses unchanged.
		return MappedType{
			Display: "runtime.ObjectHandle", Wire: "runtime.ObjectHandle",
			Getter: "GetObject", Setter: "SetObject",
			ToWire: ConvIdentity, FromWire: ConvIdentity,
			Supported: true,
		}
	}
	return MappedType{
		Display: "*" + class, Wire: "runtime.ObjectHandle",
		Getter: "GetObject", Setter: "SetObject",
		ToWire: ConvObject, FromWire: ConvObject,
		Supported: true,
	}
}

func containerType(kind ConversionKind) MappedType {
	return MappedType{ToWire: kind, FromWire: kind, Supported: true}
}

func unsupported(reason string) MappedType {
	return MappedType{Reason: reason}
}

// ContainerElemType resolves the display type for a container element.
// When ctx is non-nil, referenced types must live in enabled modules.
// Returns "" if the element type cannot serve as a container element
// (nested containers, delegates, unresolved references).
func ContainerElemType(inner *schema.Property, ctx *Context) string {
	switch inner.Type {
	case "BoolProperty":
		return "bool"
	case "Int8Property":
		return "int8"
	case "ByteProperty":
		if inner.EnumName != "" {
			if ctx != nil && ctx.Enums[inner.EnumName] == nil {
				return ""
			}
			return inner.EnumName
		}
		return "uint8"
	case "Int16Property":
		return "int16"
	case "UInt16Property":
		return "uint16"
	case "IntProperty":
		return "int32"
	case "UInt32Property":
		return "uint32"
	case "Int64Property":
		return "int64"
	case "UInt64Property":
		return "uint64"
	case "FloatProperty":
		return "float32"
	case "DoubleProperty":
		return "float64"
	case "StrProperty", "TextProperty":
		return "string"
	case "NameProperty":
		return "runtime.Name"
	case "ObjectProperty", "SoftObjectProperty", "WeakObjectProperty":
		if inner.ClassName == "" {
			return "runtime.ObjectHandle"
		}
		if ctx != nil && ctx.Classes[inner.ClassName] == nil {
			return ""
		}
		return "*" + inner.ClassName
	case "ClassProperty":
		cls := inner.MetaClass
		if cls == "" {
			cls = inner.ClassName
		}
		if cls == "" {
			return "runtime.ObjectHandle"
		}
		if ctx != nil && ctx.Classes[cls] == nil {
			return ""
		}
		return "*" + cls
	case "InterfaceProperty":
		if inner.Interface == "" {
			return ""
		}
		if ctx != nil && ctx.Classes[inner.Interface] == nil {
			return ""
		}
		return "*" + inner.Interface
	case "EnumProperty":
		if inner.EnumName == "" {
			return ""
		}
		if ctx != nil && ctx.Enums[inner.EnumName] == nil {
			return ""
		}
		return inner.EnumName
	case "StructProperty":
		if inner.StructName == "" {
			return ""
		}
		if ctx != nil {
			si := ctx.Structs[inner.StructName]
			if si == nil || !si.HasStaticType {
				// Without a host construct/destruct pair the element
				// copy primitive cannot manage the value.
				return ""
			}
		}
		return inner.StructName
	default:
		// Nested containers and delegates cannot be container elements.
		return ""
	}
}

// ResolveContainerType returns the full display type for a container
// property, e.g. "runtime.Array[int32]". Empty if any inner type is
// unsupported.
func ResolveContainerType(p *schema.Property, ctx *Context) string {
	switch p.Type {
	case "ArrayProperty":
		if p.Inner == nil {
			return ""
		}
		elem := ContainerElemType(p.Inner, ctx)
		if elem == "" {
			return ""
		}
		return fmt.Sprintf("runtime.Array[%s]", elem)
	case "MapProperty":
		if p.Key == nil || p.Value == nil {
			return ""
		}
		// Map keys and set elements must be comparable on the Go side;
		// opaque struct values are not.
		if p.Key.Type == "StructProperty" {
			return ""
		}
		key := ContainerElemType(p.Key, ctx)
		val := ContainerElemType(p.Value, ctx)
		if key == "" || val == "" {
			return ""
		}
		return fmt.Sprintf("runtime.Map[%s, %s]", key, val)
	case "SetProperty":
		if p.Element == nil || p.Element.Type == "StructProperty" {
			return ""
		}
		elem := ContainerElemType(p.Element, ctx)
		if elem == "" {
			return ""
		}
		return fmt.Sprintf("runtime.Set[%s]", elem)
	default:
		return ""
	}
}
