package compiler

import (
	"sort"

	"github.com/schemabind/schemabind/schema"
)

// Context is the central build context for the codegen pipeline: type
// lookups, the module partition, and the flat function table. All
// entities it owns are read-only to the backends; nothing is mutated
// after the filter stage completes.
type Context struct {
	// Entities in enabled modules, by name.
	Classes map[string]*schema.Class
	Structs map[string]*schema.Struct
	Enums   map[string]*schema.Enum

	// Host package name → output module name.
	PackageToModule map[string]string
	// Output module name → gating feature name.
	ModuleToFeature map[string]string
	// Enabled output module names.
	EnabledModules map[string]bool

	// Entities grouped by module, each group sorted by name.
	ModuleClasses map[string][]*schema.Class
	ModuleStructs map[string][]*schema.Struct
	ModuleEnums   map[string][]*schema.Enum

	// All exportable functions sorted by (module, class, func) with
	// dense identifiers. This ordering is the wire contract between the
	// three backends.
	FuncTable []FuncEntry
}

// FuncEntry is a generated function's slot in the flat function table.
type FuncEntry struct {
	// FuncID is the zero-based table position.
	FuncID uint32
	Module string
	Class  string
	// Name is the public (possibly overload-disambiguated) name.
	Name string
	// LookupName is the original schema name, used for
	// reflection-by-name lookups against the host.
	LookupName string
	Func       *schema.Function
	// NativeClass is the host-side class name (with prefix).
	NativeClass string
	Header      string
}

// NewContext partitions the schema into modules per the configuration.
// Packages without an explicit mapping fall back to a deterministic
// name-derived module; modules whose feature is disabled are dropped
// wholesale. Entities referencing types in disabled modules survive this
// stage — the filter removes them later, so module activation order
// never matters here.
func NewContext(snap *schema.Snapshot, cfg *Config) *Context {
	ctx := &Context{
		Classes:         make(map[string]*schema.Class),
		Structs:         make(map[string]*schema.Struct),
		Enums:           make(map[string]*schema.Enum),
		PackageToModule: make(map[string]string),
		ModuleToFeature: make(map[string]string),
		EnabledModules:  make(map[string]bool),
		ModuleClasses:   make(map[string][]*schema.Class),
		ModuleStructs:   make(map[string][]*schema.Struct),
		ModuleEnums:     make(map[string][]*schema.Enum),
	}

	for pkg, mapping := range cfg.Modules {
		ctx.PackageToModule[pkg] = mapping.Module
		ctx.ModuleToFeature[mapping.Module] = mapping.Feature
	}

	enabledFeatures := make(map[string]bool, len(cfg.Features))
	for _, f := range cfg.Features {
		enabledFeatures[f] = true
	}
	for _, mapping := range cfg.Modules {
		if enabledFeatures[mapping.Feature] {
			ctx.EnabledModules[mapping.Module] = true
		}
	}

	// Deterministic fallback for packages the config does not map.
	// Derived modules are gated by a feature of the same name.
	seen := func(pkg string) {
		if _, ok := ctx.PackageToModule[pkg]; ok {
			return
		}
		module := ModuleIdent(pkg)
		ctx.PackageToModule[pkg] = module
		ctx.ModuleToFeature[module] = module
		if enabledFeatures[module] {
			ctx.EnabledModules[module] = true
		}
	}
	for i := range snap.Classes {
		seen(snap.Classes[i].Package)
	}
	for i := range snap.Structs {
		seen(snap.Structs[i].Package)
	}
	for i := range snap.Enums {
		seen(snap.Enums[i].Package)
	}

	for i := range snap.Classes {
		c := &snap.Classes[i]
		if module := ctx.PackageToModule[c.Package]; ctx.EnabledModules[module] {
			ctx.Classes[c.Name] = c
			ctx.ModuleClasses[module] = append(ctx.ModuleClasses[module], c)
		}
	}
	for i := range snap.Structs {
		s := &snap.Structs[i]
		if module := ctx.PackageToModule[s.Package]; ctx.EnabledModules[module] {
			ctx.Structs[s.Name] = s
			ctx.ModuleStructs[module] = append(ctx.ModuleStructs[module], s)
		}
	}
	for i := range snap.Enums {
		e := &snap.Enums[i]
		if module := ctx.PackageToModule[e.Package]; ctx.EnabledModules[module] {
			ctx.Enums[e.Name] = e
			ctx.ModuleEnums[module] = append(ctx.ModuleEnums[module], e)
		}
	}

	for _, classes := range ctx.ModuleClasses {
		sort.Slice(classes, func(i, j int) bool { return classes[i].Name < classes[j].Name })
	}
	for _, structs := range ctx.ModuleStructs {
		sort.Slice(structs, func(i, j int) bool { return structs[i].Name < structs[j].Name })
	}
	for _, enums := range ctx.ModuleEnums {
		sort.Slice(enums, func(i, j int) bool { return enums[i].Name < enums[j].Name })
	}

	return ctx
}

// ModuleNames returns the enabled module names in sorted order.
func (ctx *Context) ModuleNames() []string {
	names := make([]string, 0, len(ctx.EnabledModules))
	for m := range ctx.EnabledModules {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

// IsTypeAvailable reports whether a class, struct, or enum exists in an
// enabled module.
func (ctx *Context) IsTypeAvailable(name string) bool {
	return ctx.Classes[name] != nil || ctx.Structs[name] != nil || ctx.Enums[name] != nil
}

// EnumActualRepr returns the Go representation type for an enum,
// accounting for signed promotion: enums with negative variants use the
// signed integer of their declared width. Enum codegen and default-value
// parsing must agree on this.
func (ctx *Context) EnumActualRepr(enumName string) string {
	e := ctx.Enums[enumName]
	if e == nil {
		return ""
	}
	signed := e.HasNegative()
	switch schema.EnumWidthBits(e.Underlying) {
	case 16:
		if signed {
			return "int16"
		}
		return "uint16"
	case 32:
		if signed {
			return "int32"
		}
		return "uint32"
	case 64:
		if signed {
			return "int64"
		}
		return "uint64"
	default:
		if signed {
			return "int8"
		}
		return "uint8"
	}
}

// BuildFuncTable assigns dense, deterministic identifiers to every
// exportable function. Eligible entries are sorted by (module, class,
// public name) and numbered 0..N-1 with no gaps; two runs over the same
// schema and configuration always produce the same table.
func (ctx *Context) BuildFuncTable() {
	var entries []FuncEntry

	for _, module := range ctx.ModuleNames() {
		for _, class := range ctx.ModuleClasses[module] {
			// Interface classes carry declarations only; their
			// functions cannot be invoked directly.
			if class.Super == "Interface" {
				continue
			}
			for i := range class.Funcs {
				fn := &class.Funcs[i]
				if !allParamsSupported(fn) {
					continue
				}
				lookup := fn.LookupName
				if lookup == "" {
					lookup = fn.Name
				}
				entries = append(entries, FuncEntry{
					Module:      module,
					Class:       class.Name,
					Name:        fn.Name,
					LookupName:  lookup,
					Func:        fn,
					NativeClass: class.NativeName,
					Header:      class.Header,
				})
			}
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := &entries[i], &entries[j]
		if a.Module != b.Module {
			return a.Module < b.Module
		}
		if a.Class != b.Class {
			return a.Class < b.Class
		}
		return a.Name < b.Name
	})

	for i := range entries {
		entries[i].FuncID = uint32(i)
	}
	ctx.FuncTable = entries
}

func allParamsSupported(fn *schema.Function) bool {
	for i := range fn.Params {
		if !MapPropertyType(&fn.Params[i]).Supported {
			return false
		}
	}
	return true
}

// ModuleDeps returns the sorted host package names required by the
// enabled modules — the dependency manifest handed to the build
// pipeline. "Core" is always required.
func (ctx *Context) ModuleDeps() []string {
	set := map[string]bool{"Core": true}
	for pkg, module := range ctx.PackageToModule {
		if ctx.EnabledModules[module] {
			set[pkg] = true
		}
	}
	deps := make([]string, 0, len(set))
	for d := range set {
		deps = append(deps, d)
	}
	sort.Strings(deps)
	return deps
}
