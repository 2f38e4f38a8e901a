package runtime

import "sync"

// Delegate callback registry. The host stores only the numeric id on
// its side of a binding; when the delegate fires, the host dispatch
// shim calls InvokeCallback with that id and the raw parameter block.
//
// Dispatch uses take-execute-restore: the callback is removed from its
// slot before running and restored only if the slot still exists and is
// still empty afterwards. A callback that unbinds itself (or is unbound
// by code it calls) mid-invoke therefore stays unbound, and reentrant
// fires of the same id during its own invoke are dropped rather than
// recursed.

// CallbackID keys a registered callback.
type CallbackID uint64

// Callback receives the host's raw parameter block when a delegate
// fires. Generated code wraps it with typed decoding.
type Callback func(params ParamBuffer)

var callbackReg = struct {
	mu    sync.Mutex
	next  CallbackID
	slots map[CallbackID]Callback
}{slots: make(map[CallbackID]Callback)}

// RegisterCallback stores f and returns its id. Ids are never reused
// within a process.
func RegisterCallback(f Callback) CallbackID {
	callbackReg.mu.Lock()
	defer callbackReg.mu.Unlock()
	callbackReg.next++
	id := callbackReg.next
	callbackReg.slots[id] = f
	return id
}

// UnregisterCallback removes the slot entirely. Safe during an invoke
// of the same id: the in-flight execution finishes, but the slot is
// gone so nothing is restored.
func UnregisterCallback(id CallbackID) {
	callbackReg.mu.Lock()
	defer callbackReg.mu.Unlock()
	delete(callbackReg.slots, id)
}

// InvokeCallback runs the callback registered under id, if any. Called
// by the host dispatch shim; unknown or currently-executing ids are
// ignored.
func InvokeCallback(id CallbackID, params ParamBuffer) {
	callbackReg.mu.Lock()
	f := callbackReg.slots[id]
	if f == nil {
		callbackReg.mu.Unlock()
		return
	}
	callbackReg.slots[id] = nil // mark executing
	callbackReg.mu.Unlock()

	defer func() {
		callbackReg.mu.Lock()
		if cur, ok := callbackReg.slots[id]; ok && cur == nil {
			callbackReg.slots[id] = f
		}
		callbackReg.mu.Unlock()
	}()
	f(params)
}

// callbackCount returns the number of live slots. Test helper only.
func callbackCount() int {
	callbackReg.mu.Lock()
	defer callbackReg.mu.Unlock()
	return len(callbackReg.slots)
}

// Binding ties a registered callback to a host-side delegate
// attachment. Unbind detaches both halves; it is idempotent.
type Binding struct {
	id        CallbackID
	obj       ObjectHandle
	prop      PropHandle
	multicast bool
	done      bool
}

// BindDelegate attaches f to a unicast delegate property, replacing any
// previous binding on the host side.
func BindDelegate(obj ObjectHandle, prop PropHandle, f Callback) (*Binding, error) {
	id := RegisterCallback(f)
	if code := API().Delegate.Bind(obj, prop, uint64(id)); code != CodeOK {
		UnregisterCallback(id)
		return nil, CheckCode(code, "delegate bind")
	}
	return &Binding{id: id, obj: obj, prop: prop}, nil
}

// AddMulticast attaches f to a multicast delegate property alongside
// any existing bindings.
func AddMulticast(obj ObjectHandle, prop PropHandle, f Callback) (*Binding, error) {
	id := RegisterCallback(f)
	if code := API().Delegate.Add(obj, prop, uint64(id)); code != CodeOK {
		UnregisterCallback(id)
		return nil, CheckCode(code, "multicast add")
	}
	return &Binding{id: id, obj: obj, prop: prop, multicast: true}, nil
}

// Unbind detaches the binding from the host and drops the callback.
// Safe to call from inside the callback itself.
func (b *Binding) Unbind() error {
	if b == nil || b.done {
		return nil
	}
	b.done = true
	UnregisterCallback(b.id)
	var code Code
	if b.multicast {
		code = API().Delegate.Remove(b.obj, b.prop, uint64(b.id))
	} else {
		code = API().Delegate.Unbind(b.obj, b.prop)
	}
	return CheckCode(code, "delegate unbind")
}

// ID exposes the registry key, for host-side bookkeeping.
func (b *Binding) ID() CallbackID { return b.id }
