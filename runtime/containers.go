package runtime

// Container views and argument staging. A view wraps a live (object,
// property) pair and reads elements through the host primitives on each
// access; nothing is snapshotted. Staging copies a Go slice or map into
// a detached host temporary so a container can cross a call boundary.

// growBuf is the starting capacity for variable-length element reads.
const growBuf = 256

func getElem(obj ObjectHandle, prop PropHandle, idx int32) ([]byte, error) {
	buf := make([]byte, growBuf)
	for {
		n, code := API().Container.Get(obj, prop, idx, buf)
		switch code {
		case CodeOK:
			return buf[:n], nil
		case CodeBufferTooSmall:
			buf = make([]byte, n)
		default:
			return nil, CheckCode(code, "container get")
		}
	}
}

// Array is a live view of an array-typed property.
type Array[T any] struct {
	Obj   ObjectHandle
	Prop  PropHandle
	Codec Codec[T]
}

func (a Array[T]) Len() (int, error) {
	n, code := API().Container.Len(a.Obj, a.Prop)
	return int(n), CheckCode(code, "array len")
}

func (a Array[T]) Get(i int) (T, error) {
	var zero T
	b, err := getElem(a.Obj, a.Prop, int32(i))
	if err != nil {
		return zero, err
	}
	return a.Codec.Decode(b), nil
}

func (a Array[T]) Set(i int, v T) error {
	return CheckCode(API().Container.Set(a.Obj, a.Prop, int32(i), a.Codec.Encode(v)), "array set")
}

func (a Array[T]) Add(v T) error {
	return CheckCode(API().Container.Add(a.Obj, a.Prop, a.Codec.Encode(v)), "array add")
}

func (a Array[T]) Remove(i int) error {
	return CheckCode(API().Container.Remove(a.Obj, a.Prop, int32(i)), "array remove")
}

func (a Array[T]) Clear() error {
	return CheckCode(API().Container.Clear(a.Obj, a.Prop), "array clear")
}

// Items copies the whole array out element by element.
func (a Array[T]) Items() ([]T, error) {
	n, err := a.Len()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, n)
	for i := 0; i < n; i++ {
		v, err := a.Get(i)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// Map is a live view of a map-typed property.
type Map[K comparable, V any] struct {
	Obj      ObjectHandle
	Prop     PropHandle
	KeyCodec Codec[K]
	ValCodec Codec[V]
}

func (m Map[K, V]) Len() (int, error) {
	n, code := API().Container.Len(m.Obj, m.Prop)
	return int(n), CheckCode(code, "map len")
}

// Find returns the value for key, reporting presence separately.
func (m Map[K, V]) Find(key K) (V, bool, error) {
	var zero V
	buf := make([]byte, growBuf)
	for {
		n, code := API().Container.MapFind(m.Obj, m.Prop, m.KeyCodec.Encode(key), buf)
		switch code {
		case CodeOK:
			return m.ValCodec.Decode(buf[:n]), true, nil
		case CodeNotFound:
			return zero, false, nil
		case CodeBufferTooSmall:
			buf = make([]byte, n)
		default:
			return zero, false, CheckCode(code, "map find")
		}
	}
}

func (m Map[K, V]) Add(key K, val V) error {
	code := API().Container.MapAdd(m.Obj, m.Prop, m.KeyCodec.Encode(key), m.ValCodec.Encode(val))
	return CheckCode(code, "map add")
}

func (m Map[K, V]) Remove(key K) error {
	return CheckCode(API().Container.MapRemove(m.Obj, m.Prop, m.KeyCodec.Encode(key)), "map remove")
}

func (m Map[K, V]) Clear() error {
	return CheckCode(API().Container.Clear(m.Obj, m.Prop), "map clear")
}

// Items copies the whole map out pair by pair.
func (m Map[K, V]) Items() (map[K]V, error) {
	n, err := m.Len()
	if err != nil {
		return nil, err
	}
	out := make(map[K]V, n)
	kbuf := make([]byte, growBuf)
	vbuf := make([]byte, growBuf)
	for i := 0; i < n; i++ {
		kn, vn, code := API().Container.MapPair(m.Obj, m.Prop, int32(i), kbuf, vbuf)
		if code == CodeBufferTooSmall {
			kbuf = make([]byte, max(kn, int32(len(kbuf))))
			vbuf = make([]byte, max(vn, int32(len(vbuf))))
			i--
			continue
		}
		if err := CheckCode(code, "map pair"); err != nil {
			return nil, err
		}
		out[m.KeyCodec.Decode(kbuf[:kn])] = m.ValCodec.Decode(vbuf[:vn])
	}
	return out, nil
}

// Set is a live view of a set-typed property.
type Set[T comparable] struct {
	Obj   ObjectHandle
	Prop  PropHandle
	Codec Codec[T]
}

func (s Set[T]) Len() (int, error) {
	n, code := API().Container.Len(s.Obj, s.Prop)
	return int(n), CheckCode(code, "set len")
}

func (s Set[T]) Add(v T) error {
	return CheckCode(API().Container.Add(s.Obj, s.Prop, s.Codec.Encode(v)), "set add")
}

func (s Set[T]) Contains(v T) (bool, error) {
	ok, code := API().Container.SetContains(s.Obj, s.Prop, s.Codec.Encode(v))
	return ok, CheckCode(code, "set contains")
}

func (s Set[T]) Clear() error {
	return CheckCode(API().Container.Clear(s.Obj, s.Prop), "set clear")
}

// Items copies the whole set out element by element.
func (s Set[T]) Items() ([]T, error) {
	n, err := s.Len()
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, n)
	for i := 0; i < n; i++ {
		b, err := getElem(s.Obj, s.Prop, int32(i))
		if err != nil {
			return nil, err
		}
		items = append(items, s.Codec.Decode(b))
	}
	return items, nil
}

// StageArray copies elems into a freshly allocated host temporary and
// returns its base handle. The caller owns the temporary and must
// FreeTemp it on every path, success or failure.
func StageArray[T any](prop PropHandle, codec Codec[T], elems []T) (ObjectHandle, error) {
	base := API().Container.AllocTemp(prop)
	if base == 0 {
		return 0, NewError(ErrInternal, "container temp allocation failed")
	}
	for _, v := range elems {
		if code := API().Container.Add(base, prop, codec.Encode(v)); code != CodeOK {
			FreeTemp(prop, base)
			return 0, CheckCode(code, "container stage")
		}
	}
	return base, nil
}

// StageMap copies entries into a host temporary, like StageArray.
func StageMap[K comparable, V any](prop PropHandle, kc Codec[K], vc Codec[V], entries map[K]V) (ObjectHandle, error) {
	base := API().Container.AllocTemp(prop)
	if base == 0 {
		return 0, NewError(ErrInternal, "container temp allocation failed")
	}
	for k, v := range entries {
		if code := API().Container.MapAdd(base, prop, kc.Encode(k), vc.Encode(v)); code != CodeOK {
			FreeTemp(prop, base)
			return 0, CheckCode(code, "container stage")
		}
	}
	return base, nil
}

// StageSet copies elems into a host temporary, like StageArray.
func StageSet[T comparable](prop PropHandle, codec Codec[T], elems []T) (ObjectHandle, error) {
	return StageArray(prop, codec, elems)
}

// ReadBackArray drains a temporary into a Go slice after an output or
// in-out container call.
func ReadBackArray[T any](base ObjectHandle, prop PropHandle, codec Codec[T]) ([]T, error) {
	return Array[T]{Obj: base, Prop: prop, Codec: codec}.Items()
}

// ReadBackMap drains a temporary into a Go map.
func ReadBackMap[K comparable, V any](base ObjectHandle, prop PropHandle, kc Codec[K], vc Codec[V]) (map[K]V, error) {
	return Map[K, V]{Obj: base, Prop: prop, KeyCodec: kc, ValCodec: vc}.Items()
}

// ReadBackSet drains a temporary into a Go slice.
func ReadBackSet[T comparable](base ObjectHandle, prop PropHandle, codec Codec[T]) ([]T, error) {
	return Set[T]{Obj: base, Prop: prop, Codec: codec}.Items()
}

// FreeTemp releases a staged temporary. Exactly one call per successful
// AllocTemp, unconditionally.
func FreeTemp(prop PropHandle, base ObjectHandle) {
	API().Container.FreeTemp(prop, base)
}
