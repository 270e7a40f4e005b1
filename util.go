package rpccodec

import "golang.org/x/exp/constraints"

func Ptr[T any](v T) *T { return &v } // Ptr is a helper to take the address of a value, handy for WriteStringRef.

// Roundup rounds n up to the nearest multiple of align, which must be a power of two.
func Roundup[T constraints.Integer](n, align T) T { return (n + (align - 1)) &^ (align - 1) }
