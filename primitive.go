package rpccodec

import (
	"math"
	"strconv"
)

// longAlphabet maps 6-bit groups to symbols for textual longs.
const longAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789$_"

// maxLongSymbols is ceil(64/6). The leading symbol of an 11-symbol token
// carries only the top 4 bits.
const maxLongSymbols = 11

const (
	tokenNaN    = "NaN"
	tokenPosInf = "Infinity"
	tokenNegInf = "-Infinity"
	tokenTrue   = "1"
	tokenFalse  = "0"
)

var longSymbols [256]int8

func init() {
	for i := range longSymbols {
		longSymbols[i] = -1
	}
	for i := 0; i < len(longAlphabet); i++ {
		longSymbols[longAlphabet[i]] = int8(i)
	}
}

// encodeLong renders the two's-complement bits of v, most significant group
// first, without leading zero groups. Zero renders as "A".
func encodeLong(v int64) string {
	u := uint64(v)
	var buf [maxLongSymbols]byte
	i := len(buf)
	for {
		i--
		buf[i] = longAlphabet[u&63]
		u >>= 6
		if u == 0 {
			break
		}
	}
	return string(buf[i:])
}

func decodeLong(tok string) (int64, error) {
	if len(tok) == 0 || len(tok) > maxLongSymbols {
		return 0, corruptf("long token has %d symbols", len(tok))
	}
	var u uint64
	for i := 0; i < len(tok); i++ {
		d := longSymbols[tok[i]]
		if d < 0 {
			return 0, corruptf("invalid long symbol 0x%02x", tok[i])
		}
		if i == 0 && len(tok) == maxLongSymbols && d > 0x0f {
			return 0, corruptf("long token overflows 64 bits")
		}
		u = u<<6 | uint64(d)
	}
	return int64(u), nil
}

func formatFloat(v float64, bitSize int) string {
	switch {
	case math.IsNaN(v):
		return tokenNaN
	case math.IsInf(v, 1):
		return tokenPosInf
	case math.IsInf(v, -1):
		return tokenNegInf
	}
	return strconv.FormatFloat(v, 'g', -1, bitSize)
}

func parseFloat(tok string, bitSize int) (float64, error) {
	switch tok {
	case tokenNaN:
		return math.NaN(), nil
	case tokenPosInf:
		return math.Inf(1), nil
	case tokenNegInf:
		return math.Inf(-1), nil
	}
	v, err := strconv.ParseFloat(tok, bitSize)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, corruptf("invalid float%d token", bitSize)
	}
	return v, nil
}

func formatBool(v bool) string {
	if v {
		return tokenTrue
	}
	return tokenFalse
}

func parseBool(tok string) (bool, error) {
	switch tok {
	case tokenTrue:
		return true, nil
	case tokenFalse:
		return false, nil
	}
	return false, corruptf("invalid bool token")
}

func parseInt(tok string, bitSize int) (int64, error) {
	v, err := strconv.ParseInt(tok, 10, bitSize)
	if err != nil {
		return 0, corruptf("invalid int%d token", bitSize)
	}
	return v, nil
}

func parseUint(tok string, bitSize int) (uint64, error) {
	v, err := strconv.ParseUint(tok, 10, bitSize)
	if err != nil {
		return 0, corruptf("invalid uint%d token", bitSize)
	}
	return v, nil
}

// Binary words. Narrow integers are sign- (or zero-) extended into a word and
// must decode back into their range.

func boolWord(v bool) uint32 {
	if v {
		return 1
	}
	return 0
}

func wordBool(w uint32) (bool, error) {
	switch w {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, corruptf("invalid bool word 0x%08x", w)
}

func wordInt8(w uint32) (int8, error) {
	v := int32(w)
	if v < math.MinInt8 || v > math.MaxInt8 {
		return 0, corruptf("byte word out of range: %d", v)
	}
	return int8(v), nil
}

func wordInt16(w uint32) (int16, error) {
	v := int32(w)
	if v < math.MinInt16 || v > math.MaxInt16 {
		return 0, corruptf("short word out of range: %d", v)
	}
	return int16(v), nil
}

func wordChar(w uint32) (uint16, error) {
	if w > math.MaxUint16 {
		return 0, corruptf("char word out of range: %d", w)
	}
	return uint16(w), nil
}

// splitLong returns the low and high words of v.
func splitLong(v int64) (lo, hi uint32) {
	u := uint64(v)
	return uint32(u), uint32(u >> 32)
}

func joinLong(lo, hi uint32) int64 {
	return int64(uint64(hi)<<32 | uint64(lo))
}
