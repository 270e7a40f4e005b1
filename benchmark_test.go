package rpccodec

import (
	"testing"
)

func benchmarkGraph() *node {
	root := &node{Name: "root", Tags: []string{"a", "b", "c"}}
	cur := root
	for i := range 32 {
		next := &node{Name: "n", Weight: int64(i) << 40, Tags: []string{"a"}}
		cur.Peer = next
		cur = next
	}
	cur.Peer = root
	return root
}

func BenchmarkMarshal(b *testing.B) {
	registry, root := newTestRegistry(), benchmarkGraph()
	opts := []Option{WithMetrics(false)}
	b.ReportAllocs()
	for b.Loop() {
		_, _ = Marshal(registry, root, opts...)
	}
}

func BenchmarkUnmarshal(b *testing.B) {
	registry := newTestRegistry()
	opts := []Option{WithMetrics(false)}
	blob, err := Marshal(registry, benchmarkGraph(), opts...)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		_, _ = Unmarshal(registry, blob, opts...)
	}
}

func BenchmarkMarshalText(b *testing.B) {
	registry, root := newTestRegistry(), benchmarkGraph()
	opts := []Option{WithMetrics(false)}
	b.ReportAllocs()
	for b.Loop() {
		_, _ = MarshalText(registry, root, opts...)
	}
}

func BenchmarkUnmarshalText(b *testing.B) {
	registry := newTestRegistry()
	opts := []Option{WithMetrics(false)}
	payload, err := MarshalText(registry, benchmarkGraph(), opts...)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for b.Loop() {
		_, _ = UnmarshalText(registry, payload, opts...)
	}
}

func BenchmarkEncodeLong(b *testing.B) {
	for b.Loop() {
		_ = encodeLong(-1)
	}
}
