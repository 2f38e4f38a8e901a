package runtime

import "sync"

// First-use lookup caches. A resolved handle is immutable for the
// process lifetime, so each cell is written once and read forever;
// failed lookups are not cached and will retry. sync.Map keeps the
// duplicate-init race benign even though callers stay on the designated
// thread.

type memberKey struct {
	owner, member string
}

type paramKey struct {
	class, fn, param string
}

var (
	classCache      sync.Map // string -> ClassHandle
	structCache     sync.Map // string -> StructTypeHandle
	propCache       sync.Map // memberKey -> PropHandle
	structPropCache sync.Map // memberKey -> PropHandle
	funcCache       sync.Map // memberKey -> FuncHandle
	funcParamCache  sync.Map // paramKey -> PropHandle
)

// CachedClass resolves a class handle by name, at most once.
func CachedClass(name string) (ClassHandle, error) {
	if v, ok := classCache.Load(name); ok {
		return v.(ClassHandle), nil
	}
	h := API().Reflection.FindClass(name)
	if h == 0 {
		return 0, NewError(ErrNotFound, "class %s", name)
	}
	v, _ := classCache.LoadOrStore(name, h)
	return v.(ClassHandle), nil
}

// CachedStructType resolves a struct type handle by name, at most once.
func CachedStructType(name string) (StructTypeHandle, error) {
	if v, ok := structCache.Load(name); ok {
		return v.(StructTypeHandle), nil
	}
	h := API().Reflection.FindStruct(name)
	if h == 0 {
		return 0, NewError(ErrNotFound, "struct %s", name)
	}
	v, _ := structCache.LoadOrStore(name, h)
	return v.(StructTypeHandle), nil
}

// CachedProperty resolves a class property handle, at most once per
// (class, property) pair.
func CachedProperty(class, prop string) (PropHandle, error) {
	key := memberKey{class, prop}
	if v, ok := propCache.Load(key); ok {
		return v.(PropHandle), nil
	}
	cls, err := CachedClass(class)
	if err != nil {
		return 0, err
	}
	h := API().Reflection.FindProperty(cls, prop)
	if h == 0 {
		return 0, NewError(ErrNotFound, "property %s.%s", class, prop)
	}
	v, _ := propCache.LoadOrStore(key, h)
	return v.(PropHandle), nil
}

// CachedStructProperty resolves a struct member handle, at most once.
func CachedStructProperty(structName, prop string) (PropHandle, error) {
	key := memberKey{structName, prop}
	if v, ok := structPropCache.Load(key); ok {
		return v.(PropHandle), nil
	}
	st, err := CachedStructType(structName)
	if err != nil {
		return 0, err
	}
	h := API().Reflection.FindStructProperty(st, prop)
	if h == 0 {
		return 0, NewError(ErrNotFound, "struct property %s.%s", structName, prop)
	}
	v, _ := structPropCache.LoadOrStore(key, h)
	return v.(PropHandle), nil
}

// CachedFunction resolves a class function handle by its schema name.
// Lookups use the original host name even when the generated surface
// renamed the function for overload disambiguation.
func CachedFunction(class, fn string) (FuncHandle, error) {
	key := memberKey{class, fn}
	if v, ok := funcCache.Load(key); ok {
		return v.(FuncHandle), nil
	}
	cls, err := CachedClass(class)
	if err != nil {
		return 0, err
	}
	h := API().Reflection.FindFunction(cls, fn)
	if h == 0 {
		return 0, NewError(ErrNotFound, "function %s.%s", class, fn)
	}
	v, _ := funcCache.LoadOrStore(key, h)
	return v.(FuncHandle), nil
}

// CachedFuncParam resolves the property handle of a function parameter,
// at most once per (class, function, parameter) triple. Container
// argument staging depends on this being cheap after first use.
func CachedFuncParam(class, fn, param string) (PropHandle, error) {
	key := paramKey{class, fn, param}
	if v, ok := funcParamCache.Load(key); ok {
		return v.(PropHandle), nil
	}
	fh, err := CachedFunction(class, fn)
	if err != nil {
		return 0, err
	}
	h := API().Reflection.FuncParam(fh, param)
	if h == 0 {
		return 0, NewError(ErrNotFound, "parameter %s of %s.%s", param, class, fn)
	}
	v, _ := funcParamCache.LoadOrStore(key, h)
	return v.(PropHandle), nil
}

// ResetCaches drops every cached handle. Test helper only.
func ResetCaches() {
	for _, m := range []*sync.Map{
		&classCache, &structCache, &propCache,
		&structPropCache, &funcCache, &funcParamCache,
	} {
		m.Range(func(k, _ any) bool {
			m.Delete(k)
			return true
		})
	}
}
