package runtime

import (
	"sort"
	"testing"
)

// installFake replaces the installed API table for one test and restores
// a clean slate afterwards. Tests never leak handles into each other:
// the lookup caches are dropped too.
func installFake(t *testing.T, tbl *APITable) {
	t.Helper()
	resetAPI()
	ResetCaches()
	Install(tbl)
	t.Cleanup(func() {
		resetAPI()
		ResetCaches()
	})
}

// fakeContainers is an in-memory container host keyed by temp handle.
// Elements are stored as raw encoded bytes.
type fakeContainers struct {
	next   ObjectHandle
	arrays map[ObjectHandle][][]byte
	maps   map[ObjectHandle]map[string][]byte
	frees  int
	allocs int
}

func newFakeContainers() *fakeContainers {
	return &fakeContainers{
		next:   100,
		arrays: make(map[ObjectHandle][][]byte),
		maps:   make(map[ObjectHandle]map[string][]byte),
	}
}

func (fc *fakeContainers) api() ContainerAPI {
	return ContainerAPI{
		AllocTemp: func(prop PropHandle) ObjectHandle {
			fc.next++
			fc.allocs++
			fc.arrays[fc.next] = nil
			fc.maps[fc.next] = make(map[string][]byte)
			return fc.next
		},
		FreeTemp: func(prop PropHandle, base ObjectHandle) {
			fc.frees++
			delete(fc.arrays, base)
			delete(fc.maps, base)
		},
		Len: func(obj ObjectHandle, prop PropHandle) (int32, Code) {
			if m := fc.maps[obj]; len(m) > 0 {
				return int32(len(m)), CodeOK
			}
			return int32(len(fc.arrays[obj])), CodeOK
		},
		Get: func(obj ObjectHandle, prop PropHandle, idx int32, out []byte) (int32, Code) {
			elems := fc.arrays[obj]
			if int(idx) >= len(elems) {
				return 0, CodeIndexOutOfRange
			}
			e := elems[idx]
			if len(e) > len(out) {
				return int32(len(e)), CodeBufferTooSmall
			}
			copy(out, e)
			return int32(len(e)), CodeOK
		},
		Set: func(obj ObjectHandle, prop PropHandle, idx int32, elem []byte) Code {
			elems := fc.arrays[obj]
			if int(idx) >= len(elems) {
				return CodeIndexOutOfRange
			}
			elems[idx] = append([]byte(nil), elem...)
			return CodeOK
		},
		Add: func(obj ObjectHandle, prop PropHandle, elem []byte) Code {
			fc.arrays[obj] = append(fc.arrays[obj], append([]byte(nil), elem...))
			return CodeOK
		},
		Remove: func(obj ObjectHandle, prop PropHandle, idx int32) Code {
			elems := fc.arrays[obj]
			if int(idx) >= len(elems) {
				return CodeIndexOutOfRange
			}
			fc.arrays[obj] = append(elems[:idx], elems[idx+1:]...)
			return CodeOK
		},
		Clear: func(obj ObjectHandle, prop PropHandle) Code {
			fc.arrays[obj] = nil
			fc.maps[obj] = make(map[string][]byte)
			return CodeOK
		},
		ElemSize: func(prop PropHandle) uint32 { return 8 },
		MapAdd: func(obj ObjectHandle, prop PropHandle, key, val []byte) Code {
			fc.maps[obj][string(key)] = append([]byte(nil), val...)
			return CodeOK
		},
		MapFind: func(obj ObjectHandle, prop PropHandle, key []byte, out []byte) (int32, Code) {
			v, ok := fc.maps[obj][string(key)]
			if !ok {
				return 0, CodeNotFound
			}
			if len(v) > len(out) {
				return int32(len(v)), CodeBufferTooSmall
			}
			copy(out, v)
			return int32(len(v)), CodeOK
		},
		MapRemove: func(obj ObjectHandle, prop PropHandle, key []byte) Code {
			delete(fc.maps[obj], string(key))
			return CodeOK
		},
		MapPair: func(obj ObjectHandle, prop PropHandle, idx int32, keyOut, valOut []byte) (int32, int32, Code) {
			keys := make([]string, 0, len(fc.maps[obj]))
			for k := range fc.maps[obj] {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			if int(idx) >= len(keys) {
				return 0, 0, CodeIndexOutOfRange
			}
			k := keys[idx]
			v := fc.maps[obj][k]
			if len(k) > len(keyOut) || len(v) > len(valOut) {
				return int32(len(k)), int32(len(v)), CodeBufferTooSmall
			}
			copy(keyOut, k)
			copy(valOut, v)
			return int32(len(k)), int32(len(v)), CodeOK
		},
		SetContains: func(obj ObjectHandle, prop PropHandle, elem []byte) (bool, Code) {
			for _, e := range fc.arrays[obj] {
				if string(e) == string(elem) {
					return true, CodeOK
				}
			}
			return false, CodeOK
		},
	}
}
