package compiler

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/schemabind/schemabind/schema"
)

// DefaultLiteral re-parses a parameter's default-value string into a Go
// literal expression for the generated signature docs and convenience
// wrappers. Returns "" when the default cannot be expressed — the
// parameter simply stays required.
func DefaultLiteral(ctx *Context, p *schema.Param, mapped *MappedType) string {
	if p.Default == "" {
		return ""
	}
	// Opaque struct defaults would need host-side construction.
	if mapped.ToWire == ConvOpaqueStruct {
		return ""
	}

	switch p.Type {
	case "BoolProperty":
		return boolDefault(p.Default)
	case "FloatProperty":
		return floatDefault(p.Default, "float32")
	case "DoubleProperty":
		return floatDefault(p.Default, "float64")
	case "Int8Property":
		return intDefault(p.Default, "int8")
	case "Int16Property":
		return intDefault(p.Default, "int16")
	case "IntProperty":
		return intDefault(p.Default, "int32")
	case "Int64Property":
		return intDefault(p.Default, "int64")
	case "ByteProperty":
		if p.EnumName != "" {
			return enumDefault(ctx, p)
		}
		return intDefault(p.Default, "uint8")
	case "UInt16Property":
		return intDefault(p.Default, "uint16")
	case "UInt32Property":
		return intDefault(p.Default, "uint32")
	case "UInt64Property":
		return intDefault(p.Default, "uint64")
	case "EnumProperty":
		return enumDefault(ctx, p)
	case "ObjectProperty", "ClassProperty", "SoftObjectProperty",
		"WeakObjectProperty", "InterfaceProperty":
		if p.Default == "None" {
			if mapped.ToWire == ConvObject {
				return "nil"
			}
			return "runtime.NilObject"
		}
		return ""
	case "StrProperty", "TextProperty":
		return strconv.Quote(p.Default)
	case "NameProperty":
		if p.Default == "" || p.Default == "None" {
			return "runtime.NameNone"
		}
		return ""
	default:
		return ""
	}
}

func boolDefault(s string) string {
	switch s {
	case "true", "True":
		return "true"
	case "false", "False":
		return "false"
	default:
		return ""
	}
}

func floatDefault(s, typ string) string {
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		return ""
	}
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return fmt.Sprintf("%s(%s)", typ, s)
}

func intDefault(s, typ string) string {
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		if _, uerr := strconv.ParseUint(s, 10, 64); uerr != nil {
			return ""
		}
	}
	return fmt.Sprintf("%s(%s)", typ, s)
}

// enumDefault resolves a variant name (either bare or Enum::Variant
// qualified) to the generated constant.
func enumDefault(ctx *Context, p *schema.Param) string {
	if p.EnumName == "" {
		return ""
	}
	e := ctx.Enums[p.EnumName]
	if e == nil {
		return ""
	}
	for _, pair := range e.Pairs {
		if pair.Name == p.Default || strings.HasSuffix(pair.Name, "::"+p.Default) {
			return p.EnumName + variantIdent(pair.Name)
		}
	}
	return ""
}

// variantIdent strips the Enum:: qualifier from a variant name, leaving
// the suffix used to build the generated constant identifier.
func variantIdent(variant string) string {
	if _, after, ok := strings.Cut(variant, "::"); ok {
		return after
	}
	return variant
}
