package rpccodec

import (
	"github.com/cockroachdb/errors"
)

// objectWriter assigns indices to objects in first-seen order starting at 1.
// Instances of shared handlers are keyed by reference, so two equal but
// distinct objects get distinct indices and aliasing survives the round trip.
// Every other instance is written in full with a fresh index.
type objectWriter struct {
	dispatch TypeDispatch
	seen     map[any]int32
	next     int32
}

func newObjectWriter(dispatch TypeDispatch) *objectWriter {
	return &objectWriter{dispatch: dispatch, seen: make(map[any]int32)}
}

func (o *objectWriter) write(w StreamWriter, obj any) error {
	if obj == nil {
		w.WriteInt32(0)
		return w.Err()
	}
	if o.dispatch == nil {
		return errors.Wrapf(ErrNotSerializable, "%T: no type dispatch", obj)
	}
	sig, err := o.dispatch.SignatureOf(obj)
	if err != nil {
		if !errors.Is(err, ErrNotSerializable) {
			err = errors.Mark(err, ErrNotSerializable)
		}
		return err
	}
	h, ok := o.dispatch.Handler(sig)
	if !ok {
		return errors.Wrapf(ErrNotSerializable, "no handler for %q", sig)
	}
	if h.IsNil != nil && h.IsNil(obj) {
		w.WriteInt32(0)
		return w.Err()
	}
	if h.Shared {
		if idx, ok := o.seen[obj]; ok {
			w.WriteInt32(idx)
			return w.Err()
		}
	}
	if h.Write == nil {
		return errors.Wrapf(ErrNotSerializable, "no writer for %q", sig)
	}

	o.next++
	idx := o.next
	if h.Shared {
		o.seen[obj] = idx
	}
	w.WriteInt32(idx)
	w.WriteString(sig)
	if err := h.Write(w, obj); err != nil {
		return errors.Wrapf(err, "rpccodec: write %q", sig)
	}
	return w.Err()
}

// count returns the number of objects written in full.
func (o *objectWriter) count() int { return int(o.next) }

// reserved marks a slot whose object is still being instantiated.
type reserved struct{}

// objectReader materializes objects in index order. A slot is reserved before
// instantiation and filled with the bare instance before its fields are read,
// so a field pointing back at an ancestor resolves to the same instance.
type objectReader struct {
	dispatch TypeDispatch
	slots    []any
}

func newObjectReader(dispatch TypeDispatch) *objectReader {
	return &objectReader{dispatch: dispatch}
}

func (o *objectReader) read(r StreamReader) (any, error) {
	var idx int32
	r.ReadInt32(&idx)
	if err := r.Err(); err != nil {
		return nil, err
	}

	next := len(o.slots) + 1
	switch {
	case idx == 0:
		return nil, nil
	case idx < 0 || int(idx) > next:
		return nil, corruptf("object index %d, expected at most %d", idx, next)
	case int(idx) < next:
		obj := o.slots[idx-1]
		if _, pending := obj.(reserved); pending {
			return nil, corruptf("object index %d referenced during its instantiation", idx)
		}
		return obj, nil
	}

	o.slots = append(o.slots, reserved{})
	var sig string
	r.ReadString(&sig)
	if err := r.Err(); err != nil {
		return nil, err
	}
	var h *TypeHandler
	if o.dispatch != nil {
		h, _ = o.dispatch.Handler(sig)
	}
	if h == nil || h.Instantiate == nil {
		return nil, errors.Wrapf(ErrNotInstantiable, "%q", sig)
	}
	obj, err := h.Instantiate(r)
	if err != nil {
		return nil, errors.Wrapf(err, "rpccodec: instantiate %q", sig)
	}
	if err := r.Err(); err != nil {
		return nil, err
	}
	if obj == nil || (h.IsNil != nil && h.IsNil(obj)) {
		return nil, errors.Wrapf(ErrNotInstantiable, "%q instantiated nil", sig)
	}
	o.slots[idx-1] = obj
	if h.Read != nil {
		if err := h.Read(r, obj); err != nil {
			return nil, errors.Wrapf(err, "rpccodec: read %q", sig)
		}
	}
	return obj, r.Err()
}

// count returns the number of objects materialized or reserved.
func (o *objectReader) count() int { return len(o.slots) }
