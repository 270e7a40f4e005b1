package rpccodec

import (
	"reflect"
	"slices"

	"github.com/cockroachdb/errors"
	"github.com/puzpuzpuz/xsync/v4"
)

// TypeDispatch maps type signatures to per-type callbacks. The codec calls
// into it; it never calls back except through the StreamReader/StreamWriter it
// is handed.
type TypeDispatch interface {
	// SignatureOf returns the signature to write for a live object.
	SignatureOf(obj any) (string, error)
	// Handler returns the callbacks for a signature.
	Handler(signature string) (*TypeHandler, bool)
}

// TypeHandler holds the callbacks for one signature. Instantiate must create a
// bare instance without reading its fields; Read populates it afterwards, so a
// field referring back to the instance resolves to it.
type TypeHandler struct {
	Instantiate func(r StreamReader) (any, error)
	Read        func(r StreamReader, obj any) error
	Write       func(w StreamWriter, obj any) error

	// Shared marks reference types. A repeat of the same reference reuses
	// the index of its first write; instances of other types are written in
	// full every time.
	Shared bool

	// IsNil reports a typed nil instance, which is written as the null index.
	IsNil func(obj any) bool
}

// Handler is the typed form of TypeHandler used with Register.
type Handler[T any] struct {
	New   func(r StreamReader) (T, error)
	Read  func(r StreamReader, v T) error
	Write func(w StreamWriter, v T) error
}

// Registry is an explicitly populated TypeDispatch. It is safe for concurrent
// registration and lookup, so one registry can serve many streams.
type Registry struct {
	handlers   *xsync.Map[string, *TypeHandler]
	signatures *xsync.Map[reflect.Type, string]
}

var _ TypeDispatch = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		handlers:   xsync.NewMap[string, *TypeHandler](),
		signatures: xsync.NewMap[reflect.Type, string](),
	}
}

// Register binds signature to the Go type T. A signature or a type can only be
// registered once.
func Register[T any](r *Registry, signature string, h Handler[T]) error {
	if signature == "" {
		return errors.New("rpccodec: empty signature")
	}
	typ := reflect.TypeOf((*T)(nil)).Elem()
	if prev, loaded := r.signatures.LoadOrStore(typ, signature); loaded {
		return errors.Newf("rpccodec: %s already registered as %q", typ, prev)
	}
	th := &TypeHandler{}
	switch typ.Kind() {
	case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
		var zero T
		th.Shared = true
		th.IsNil = func(obj any) bool { return obj == any(zero) }
	case reflect.Map, reflect.Slice, reflect.Func:
		th.IsNil = func(obj any) bool { return reflect.ValueOf(obj).IsNil() }
	}
	if h.New != nil {
		th.Instantiate = func(sr StreamReader) (any, error) { return h.New(sr) }
	}
	if h.Read != nil {
		th.Read = func(sr StreamReader, obj any) error {
			v, ok := obj.(T)
			if !ok {
				return errors.Newf("rpccodec: %q handler got %T", signature, obj)
			}
			return h.Read(sr, v)
		}
	}
	if h.Write != nil {
		th.Write = func(sw StreamWriter, obj any) error {
			v, ok := obj.(T)
			if !ok {
				return errors.Newf("rpccodec: %q handler got %T", signature, obj)
			}
			return h.Write(sw, v)
		}
	}
	if _, loaded := r.handlers.LoadOrStore(signature, th); loaded {
		r.signatures.Delete(typ)
		return errors.Newf("rpccodec: signature %q already registered", signature)
	}
	return nil
}

// MustRegister is Register that panics on error, for package init.
func MustRegister[T any](r *Registry, signature string, h Handler[T]) {
	if err := Register(r, signature, h); err != nil {
		panic(err)
	}
}

// SignatureOf implements TypeDispatch.
func (r *Registry) SignatureOf(obj any) (string, error) {
	if obj == nil {
		return "", errors.Wrap(ErrNotSerializable, "nil")
	}
	if sig, ok := r.signatures.Load(reflect.TypeOf(obj)); ok {
		return sig, nil
	}
	return "", errors.Wrapf(ErrNotSerializable, "%T", obj)
}

// Handler implements TypeDispatch.
func (r *Registry) Handler(signature string) (*TypeHandler, bool) {
	return r.handlers.Load(signature)
}

// Signatures returns the registered signatures in sorted order.
func (r *Registry) Signatures() []string {
	sigs := make([]string, 0, r.handlers.Size())
	r.handlers.Range(func(sig string, _ *TypeHandler) bool {
		sigs = append(sigs, sig)
		return true
	})
	slices.Sort(sigs)
	return sigs
}
