package compiler

import (
	"fmt"

	"github.com/schemabind/schemabind/schema"
)

// ApplyFilters removes everything that cannot be safely bound from the
// context's module groupings, in place: blocklisted entities, members
// with unsupported or unavailable types, non-native functions,
// convenience-wrapper duplicates. It then disambiguates overloads.
// Filtering must finish before the function table is built.
func ApplyFilters(ctx *Context, cfg *Config, diag *Diagnostics) {
	blockedClasses := toSet(cfg.Blocklist.Classes)
	blockedStructs := toSet(cfg.Blocklist.Structs)
	presentClasses := toSet(cfg.Present.Classes)
	skipFuncs := append(cfg.Blocklist.BlockedFunctions(), cfg.Present.PresentFunctions()...)

	for name := range blockedClasses {
		delete(ctx.Classes, name)
	}
	for name := range presentClasses {
		delete(ctx.Classes, name)
	}

	for module, classes := range ctx.ModuleClasses {
		kept := classes[:0]
		for _, class := range classes {
			if blockedClasses[class.Name] {
				diag.Skipf(class.Name, "blocklisted")
				continue
			}
			if presentClasses[class.Name] {
				diag.Skipf(class.Name, "already present in environment")
				continue
			}
			filterProperties(ctx, class, diag)
			filterFunctions(ctx, class, blockedStructs, skipFuncs, diag)
			kept = append(kept, class)
		}
		ctx.ModuleClasses[module] = kept
	}

	for _, structs := range ctx.ModuleStructs {
		for _, s := range structs {
			filterStructProperties(ctx, s, diag)
		}
	}
}

func toSet(names []string) map[string]bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return set
}

func filterProperties(ctx *Context, class *schema.Class, diag *Diagnostics) {
	kept := class.Props[:0]
	for i := range class.Props {
		p := &class.Props[i]
		if reason := propertyRejection(ctx, p); reason != "" {
			diag.Skipf(class.Name+"."+p.Name, "%s", reason)
			continue
		}
		kept = append(kept, *p)
	}
	class.Props = kept
}

func filterStructProperties(ctx *Context, s *schema.Struct, diag *Diagnostics) {
	kept := s.Props[:0]
	for i := range s.Props {
		p := &s.Props[i]
		if reason := propertyRejection(ctx, p); reason != "" {
			diag.Skipf(s.Name+"."+p.Name, "%s", reason)
			continue
		}
		kept = append(kept, *p)
	}
	s.Props = kept
}

// propertyRejection returns "" when the property is exportable, or the
// reason it is not.
func propertyRejection(ctx *Context, p *schema.Property) string {
	if !IsSupportedTag(p.Type) {
		return fmt.Sprintf("unsupported type %s", p.Type)
	}

	// Fixed arrays of variable-length element types: the element-copy
	// primitive moves a fixed element size and would corrupt these.
	if p.ArrayDim > 1 {
		switch p.Type {
		case "StrProperty", "NameProperty", "TextProperty":
			return "fixed array of variable-length elements"
		}
	}

	if p.PropFlags&schema.PropAccessPrivate != 0 {
		return "private native access"
	}
	if p.PropFlags&schema.PropAccessProtected != 0 {
		return "protected native access"
	}

	if IsDelegateTag(p.Type) {
		return delegateRejection(ctx, p)
	}

	return referenceRejection(ctx, p)
}

// delegateRejection validates a delegate property's signature: every
// parameter must independently be a supported, non-container,
// non-delegate type with resolvable references.
func delegateRejection(ctx *Context, p *schema.Property) string {
	if p.FuncInfo == nil {
		return "delegate without signature info"
	}
	for i := range p.FuncInfo.Params {
		dp := &p.FuncInfo.Params[i]
		if !IsSupportedTag(dp.Type) {
			return fmt.Sprintf("delegate param %s: unsupported type %s", dp.Name, dp.Type)
		}
		if IsDelegateTag(dp.Type) {
			return fmt.Sprintf("delegate param %s: nested delegate", dp.Name)
		}
		if IsContainerTag(dp.Type) {
			return fmt.Sprintf("delegate param %s: container type", dp.Name)
		}
		if reason := referenceRejection(ctx, dp); reason != "" {
			return fmt.Sprintf("delegate param %s: %s", dp.Name, reason)
		}
	}
	return ""
}

// referenceRejection checks that every type the property references
// lives in an enabled module.
func referenceRejection(ctx *Context, p *schema.Property) string {
	if p.ClassName != "" && !ctx.IsTypeAvailable(p.ClassName) {
		return fmt.Sprintf("references unavailable class %s", p.ClassName)
	}
	if p.StructName != "" && !ctx.IsTypeAvailable(p.StructName) {
		return fmt.Sprintf("references unavailable struct %s", p.StructName)
	}
	if p.EnumName != "" && !ctx.IsTypeAvailable(p.EnumName) {
		return fmt.Sprintf("references unavailable enum %s", p.EnumName)
	}
	if p.Interface != "" && !ctx.IsTypeAvailable(p.Interface) {
		return fmt.Sprintf("references unavailable interface %s", p.Interface)
	}
	if p.Type == "ClassProperty" && p.MetaClass != "" && !ctx.IsTypeAvailable(p.MetaClass) {
		return fmt.Sprintf("references unavailable metaclass %s", p.MetaClass)
	}
	return ""
}

func containerParamRejection(ctx *Context, p *schema.Param) string {
	inner := func(elem *schema.Property, what string) string {
		if elem == nil {
			return what + " type missing"
		}
		if !IsSupportedTag(elem.Type) {
			return fmt.Sprintf("%s type %s unsupported", what, elem.Type)
		}
		if IsContainerTag(elem.Type) {
			return "nested container"
		}
		if IsDelegateTag(elem.Type) {
			return what + " type is a delegate"
		}
		if reason := referenceRejection(ctx, elem); reason != "" {
			return reason
		}
		return ""
	}

	switch p.Type {
	case "ArrayProperty":
		return inner(p.Inner, "element")
	case "MapProperty":
		if reason := inner(p.Key, "key"); reason != "" {
			return reason
		}
		if p.Key != nil && p.Key.Type == "StructProperty" {
			return "struct map key is not comparable"
		}
		return inner(p.Value, "value")
	case "SetProperty":
		if p.Element != nil && p.Element.Type == "StructProperty" {
			return "struct set element is not comparable"
		}
		return inner(p.Element, "element")
	default:
		return "not a container"
	}
}

// filterFunctions applies the native-only gate, blocklists, convenience
// dedup, and parameter checks, then renames overloads. Renaming happens
// after dedup and before identifier assignment; the original name is
// kept on the function for reflection-by-name lookups.
func filterFunctions(ctx *Context, class *schema.Class, blockedStructs map[string]bool, skipFuncs [][2]string, diag *Diagnostics) {
	allNames := make(map[string]bool, len(class.Funcs))
	for i := range class.Funcs {
		allNames[class.Funcs[i].Name] = true
	}

	kept := class.Funcs[:0]
	for i := range class.Funcs {
		fn := &class.Funcs[i]
		entity := class.Name + "." + fn.Name

		if reason := functionRejection(ctx, class, fn, allNames, blockedStructs, skipFuncs); reason != "" {
			diag.Skipf(entity, "%s", reason)
			continue
		}
		kept = append(kept, *fn)
	}
	class.Funcs = kept

	// Preserve the schema names before overload disambiguation.
	for i := range class.Funcs {
		class.Funcs[i].LookupName = class.Funcs[i].Name
	}

	// Overloads: the first declaration keeps the bare name, later ones
	// get _1, _2, … in declaration order.
	counts := make(map[string]int, len(class.Funcs))
	for i := range class.Funcs {
		name := class.Funcs[i].Name
		if n := counts[name]; n > 0 {
			class.Funcs[i].Name = fmt.Sprintf("%s_%d", name, n)
		}
		counts[name]++
	}
}

func functionRejection(ctx *Context, class *schema.Class, fn *schema.Function, allNames, blockedStructs map[string]bool, skipFuncs [][2]string) string {
	for _, pair := range skipFuncs {
		if pair[0] == class.Name && pair[1] == fn.Name {
			return "blocklisted or already present"
		}
	}

	// Script-only functions have no native thunk to call.
	if uint32(fn.FuncFlags)&schema.FuncNative == 0 {
		return "not natively implemented"
	}

	// Convenience wrappers duplicate an unprefixed native counterpart.
	if base, ok := StripConveniencePrefix(fn.Name); ok && allNames[base] {
		return fmt.Sprintf("convenience wrapper of %s", base)
	}

	for i := range fn.Params {
		p := &fn.Params[i]
		if !IsSupportedTag(p.Type) {
			return fmt.Sprintf("param %s: unsupported type %s", p.Name, p.Type)
		}
		if IsDelegateTag(p.Type) {
			return fmt.Sprintf("param %s: delegate-typed parameter", p.Name)
		}
		if IsContainerTag(p.Type) {
			if reason := containerParamRejection(ctx, p); reason != "" {
				return fmt.Sprintf("param %s: %s", p.Name, reason)
			}
		}
		if reason := referenceRejection(ctx, p); reason != "" {
			return fmt.Sprintf("param %s: %s", p.Name, reason)
		}
		if p.StructName != "" && blockedStructs[p.StructName] {
			return fmt.Sprintf("param %s: struct %s blocklisted", p.Name, p.StructName)
		}
	}
	return ""
}
