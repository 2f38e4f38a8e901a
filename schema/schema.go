// Package schema holds the in-memory reflection schema consumed by the
// binding compiler: classes, structs, enums and their members, as exported
// by the host engine's metadata tool into three JSON files.
//
// Entities are built once per compiler run and are immutable afterwards,
// except for the filter stage which removes members in place.
package schema

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Class describes a host object class: its properties, callable functions
// and parent class. Parent is a name reference, never a structural link —
// classes arrive in arbitrary schema order.
type Class struct {
	Name       string     `json:"name"`
	NativeName string     `json:"native_name"`
	Package    string     `json:"package"`
	Header     string     `json:"header"`
	ClassFlags Flags32    `json:"class_flags"`
	Super      string     `json:"super"`
	Interfaces []string   `json:"interfaces"`
	Props      []Property `json:"props"`
	Funcs      []Function `json:"funcs"`
}

// Struct describes a host value struct. Only structs with a host-side
// default-construct/destruct pair (HasStaticType) may cross the ABI by
// value; the rest degrade to opaque byte pointers.
type Struct struct {
	Name          string     `json:"name"`
	NativeName    string     `json:"native_name"`
	Package       string     `json:"package"`
	StructFlags   Flags32    `json:"struct_flags"`
	Super         string     `json:"super"`
	HasStaticType bool       `json:"has_static_type"`
	Props         []Property `json:"props"`
}

// Enum describes a host enum: ordered (variant, value) pairs over a
// declared underlying integer width.
type Enum struct {
	Name       string     `json:"name"`
	NativeName string     `json:"native_name"`
	Package    string     `json:"package"`
	Underlying string     `json:"underlying_type"`
	Pairs      []EnumPair `json:"pairs"`
}

// EnumPair is one enum variant.
type EnumPair struct {
	Name  string
	Value int64
}

// UnmarshalJSON accepts the exporter's ["Name", value] pair encoding.
func (p *EnumPair) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("enum pair: expected 2 elements, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &p.Name); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &p.Value)
}

// MarshalJSON emits the ["Name", value] pair encoding.
func (p EnumPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{p.Name, p.Value})
}

// Property describes a class or struct member. The same shape is reused
// for function parameters (see Param); nested element/key/value types are
// present for containers, FuncInfo for delegate signatures.
type Property struct {
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	PropFlags  uint64    `json:"prop_flags"`
	ArrayDim   uint32    `json:"array_dim"`
	EnumName   string    `json:"enum_name"`
	EnumWidth  string    `json:"enum_underlying_type"`
	ClassName  string    `json:"class_name"`
	MetaClass  string    `json:"meta_class_name"`
	StructName string    `json:"struct_name"`
	Interface  string    `json:"interface_name"`
	FuncInfo   *FuncSig  `json:"func_info"`
	Inner      *Property `json:"inner_prop"`
	Key        *Property `json:"key_prop"`
	Value      *Property `json:"value_prop"`
	Element    *Property `json:"element_prop"`
	Default    string    `json:"default"`
}

// Param is a function parameter. Identical shape to Property minus the
// fixed-array arity (parameters are always single-element).
type Param = Property

// FuncSig is the signature carried by delegate-typed properties.
type FuncSig struct {
	Params []Param `json:"params"`
}

// Function describes a callable member of a class.
type Function struct {
	Name      string  `json:"name"`
	FuncFlags Flags32 `json:"func_flags"`
	IsStatic  bool    `json:"is_static"`
	Params    []Param `json:"params"`

	// LookupName is the pre-rename schema name, set by the filter before
	// overload disambiguation. Reflection-by-name lookups (container and
	// delegate property offsets) must use this, never Name.
	LookupName string `json:"-"`
}

// Snapshot is the full schema handed to the compiler.
type Snapshot struct {
	Classes []Class
	Structs []Struct
	Enums   []Enum
}

type classesFile struct {
	Classes []Class `json:"classes"`
}

type structsFile struct {
	Structs []Struct `json:"structs"`
}

type enumsFile struct {
	Enums []Enum `json:"enums"`
}

// File names the metadata exporter writes into its output directory.
const (
	ClassesFileName = "bind_classes.json"
	StructsFileName = "bind_structs.json"
	EnumsFileName   = "bind_enums.json"
)

// Load reads the three schema JSON files from dir.
func Load(dir string) (*Snapshot, error) {
	var cf classesFile
	if err := readJSON(filepath.Join(dir, ClassesFileName), &cf); err != nil {
		return nil, err
	}
	var sf structsFile
	if err := readJSON(filepath.Join(dir, StructsFileName), &sf); err != nil {
		return nil, err
	}
	var ef enumsFile
	if err := readJSON(filepath.Join(dir, EnumsFileName), &ef); err != nil {
		return nil, err
	}

	snap := &Snapshot{Classes: cf.Classes, Structs: sf.Structs, Enums: ef.Enums}
	normalizeSnapshot(snap)
	return snap, nil
}

// Parse decodes a snapshot from already-loaded JSON blobs. Used by tests
// and by embedders that fetch metadata themselves.
func Parse(classes, structs, enums []byte) (*Snapshot, error) {
	var cf classesFile
	if err := json.Unmarshal(classes, &cf); err != nil {
		return nil, fmt.Errorf("classes: %w", err)
	}
	var sf structsFile
	if err := json.Unmarshal(structs, &sf); err != nil {
		return nil, fmt.Errorf("structs: %w", err)
	}
	var ef enumsFile
	if err := json.Unmarshal(enums, &ef); err != nil {
		return nil, fmt.Errorf("enums: %w", err)
	}
	snap := &Snapshot{Classes: cf.Classes, Structs: sf.Structs, Enums: ef.Enums}
	normalizeSnapshot(snap)
	return snap, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func normalizeSnapshot(snap *Snapshot) {
	for i := range snap.Classes {
		c := &snap.Classes[i]
		for j := range c.Props {
			normalizeProperty(&c.Props[j])
		}
	}
	for i := range snap.Structs {
		s := &snap.Structs[i]
		for j := range s.Props {
			normalizeProperty(&s.Props[j])
		}
	}
	for i := range snap.Enums {
		NormalizeEnum(&snap.Enums[i])
	}
}

// The exporter omits array_dim for the common single-element case.
func normalizeProperty(p *Property) {
	if p.ArrayDim == 0 {
		p.ArrayDim = 1
	}
	for _, nested := range []*Property{p.Inner, p.Key, p.Value, p.Element} {
		if nested != nil {
			normalizeProperty(nested)
		}
	}
}
