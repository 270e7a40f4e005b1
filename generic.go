package rpccodec

// Marshal encodes the graph rooted at root into a single binary blob.
func Marshal(dispatch TypeDispatch, root any, opts ...Option) ([]byte, error) {
	w := NewBinaryWriter(dispatch, opts...)
	w.WriteObject(root)
	if err := w.Finalize(); err != nil {
		return nil, err
	}
	return w.Bytes()
}

// Unmarshal decodes a blob produced by Marshal. It returns the complete graph
// or an error, never a partially built graph.
func Unmarshal(dispatch TypeDispatch, blob []byte, opts ...Option) (any, error) {
	r, err := NewBinaryReaderBlob(blob, dispatch, opts...)
	if err != nil {
		return nil, err
	}
	root := r.ReadObject()
	if err := r.Err(); err != nil {
		return nil, err
	}
	// Ensure no unexpected trailing data remains.
	if n := r.Remaining(); n != 0 {
		err := corruptf("%d trailing words after root object", n)
		r.fail(err)
		return nil, err
	}
	return root, nil
}

// MarshalText encodes the graph rooted at root into a textual payload.
func MarshalText(dispatch TypeDispatch, root any, opts ...Option) (string, error) {
	w := NewTextWriter(dispatch, opts...)
	w.WriteObject(root)
	if err := w.Finalize(); err != nil {
		return "", err
	}
	return w.Payload()
}

// UnmarshalText decodes a payload produced by MarshalText.
func UnmarshalText(dispatch TypeDispatch, payload string, opts ...Option) (any, error) {
	r, err := NewTextReader(payload, dispatch, opts...)
	if err != nil {
		return nil, err
	}
	root := r.ReadObject()
	if err := r.Err(); err != nil {
		return nil, err
	}
	if n := r.Remaining(); n != 0 {
		err := corruptf("%d trailing tokens after root object", n)
		r.fail(err)
		return nil, err
	}
	return root, nil
}

// UnmarshalAs decodes a binary blob and asserts the root's type.
func UnmarshalAs[T any](dispatch TypeDispatch, blob []byte, opts ...Option) (T, error) {
	var zero T
	root, err := Unmarshal(dispatch, blob, opts...)
	if err != nil {
		return zero, err
	}
	v, ok := root.(T)
	if !ok && root != nil {
		return zero, corruptf("root is %T, want %T", root, zero)
	}
	return v, nil
}
