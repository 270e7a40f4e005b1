package rpccodec

// Collections are written as a length followed by their elements. A nil
// slice or map is written with length -1 and reads back as nil.
//
// ReadSlice and ReadMap claim the decoded length against the reader's guard
// before allocating, so a forged length cannot make the receiver allocate
// more than the payload could hold, however deeply the collections nest.

const nilLength = -1

// WriteSlice writes items using write for each element.
func WriteSlice[T any](w StreamWriter, items []T, write func(StreamWriter, T)) {
	if items == nil {
		w.WriteInt32(nilLength)
		return
	}
	w.WriteInt32(int32(len(items)))
	for _, item := range items {
		write(w, item)
		if w.Err() != nil {
			return
		}
	}
}

// ReadSlice reads a slice written by WriteSlice.
func ReadSlice[T any](r StreamReader, read func(StreamReader) T) ([]T, error) {
	n, err := readLength(r)
	if err != nil || n == nilLength {
		return nil, err
	}
	items := make([]T, 0, n)
	for range n {
		item := read(r)
		if err := r.Err(); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// WriteMap writes m as alternating keys and values. Iteration order is the
// map's, so two payloads of the same map need not be byte-identical.
func WriteMap[K comparable, V any](w StreamWriter, m map[K]V, writeKey func(StreamWriter, K), writeValue func(StreamWriter, V)) {
	if m == nil {
		w.WriteInt32(nilLength)
		return
	}
	w.WriteInt32(int32(len(m)))
	for k, v := range m {
		writeKey(w, k)
		writeValue(w, v)
		if w.Err() != nil {
			return
		}
	}
}

// ReadMap reads a map written by WriteMap.
func ReadMap[K comparable, V any](r StreamReader, readKey func(StreamReader) K, readValue func(StreamReader) V) (map[K]V, error) {
	n, err := readLength(r)
	if err != nil || n == nilLength {
		return nil, err
	}
	m := make(map[K]V, n)
	for range n {
		k := readKey(r)
		v := readValue(r)
		if err := r.Err(); err != nil {
			return nil, err
		}
		m[k] = v
	}
	return m, nil
}

// readLength reads a collection length and claims it. A negative length other
// than nilLength fails the claim as corrupt.
func readLength(r StreamReader) (int, error) {
	var n int32
	r.ReadInt32(&n)
	if err := r.Err(); err != nil {
		return 0, err
	}
	if n == nilLength {
		return nilLength, nil
	}
	if err := r.Claim(int(n)); err != nil {
		return 0, err
	}
	return int(n), nil
}
