package rpccodec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLongTokens(t *testing.T) {
	cases := []struct {
		value int64
		token string
	}{
		{0, "A"},
		{1, "B"},
		{63, "_"},
		{64, "BA"},
		{4095, "__"},
		{-1, "P__________"},
		{math.MaxInt64, "H__________"},
		{math.MinInt64, "IAAAAAAAAAA"},
	}
	for _, tc := range cases {
		tok := encodeLong(tc.value)
		assert.Equal(t, tc.token, tok, "encode %d", tc.value)

		v, err := decodeLong(tc.token)
		require.NoError(t, err, "decode %q", tc.token)
		assert.Equal(t, tc.value, v)
	}

	t.Run("RoundTripsPrecisionSensitiveValues", func(t *testing.T) {
		// 2^53+1 is the first integer a float64 cannot hold.
		for _, v := range []int64{1<<53 + 1, -(1<<53 + 1), math.MaxInt64 - 1, math.MinInt64 + 1} {
			got, err := decodeLong(encodeLong(v))
			require.NoError(t, err)
			assert.Equal(t, v, got)
		}
	})

	t.Run("RejectsMalformedTokens", func(t *testing.T) {
		for _, tok := range []string{"", "A*", "AAAAAAAAAAAA", "Q__________", "a b"} {
			_, err := decodeLong(tok)
			assert.ErrorIs(t, err, ErrCorruptPayload, "token %q", tok)
		}
	})
}

func TestFloatTokens(t *testing.T) {
	assert.Equal(t, "0.1", formatFloat(0.1, 64))
	assert.Equal(t, "0.1", formatFloat(float64(float32(0.1)), 32))
	assert.Equal(t, tokenNaN, formatFloat(math.NaN(), 64))
	assert.Equal(t, tokenPosInf, formatFloat(math.Inf(1), 64))
	assert.Equal(t, tokenNegInf, formatFloat(math.Inf(-1), 32))

	v, err := parseFloat("-0", 64)
	require.NoError(t, err)
	assert.True(t, math.Signbit(v))

	v, err = parseFloat(tokenNaN, 64)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	v, err = parseFloat(formatFloat(math.SmallestNonzeroFloat64, 64), 64)
	require.NoError(t, err)
	assert.Equal(t, math.SmallestNonzeroFloat64, v)

	for _, tok := range []string{"", "nan", "inf", "1e400", "1.0.0", "0x"} {
		_, err := parseFloat(tok, 64)
		assert.ErrorIs(t, err, ErrCorruptPayload, "token %q", tok)
	}
}

func TestIntegerTokens(t *testing.T) {
	b, err := parseBool("1")
	require.NoError(t, err)
	assert.True(t, b)

	_, err = parseBool("true")
	assert.ErrorIs(t, err, ErrCorruptPayload)

	_, err = parseInt("128", 8)
	assert.ErrorIs(t, err, ErrCorruptPayload)

	_, err = parseUint("-1", 16)
	assert.ErrorIs(t, err, ErrCorruptPayload)

	v, err := parseInt("-32768", 16)
	require.NoError(t, err)
	assert.EqualValues(t, math.MinInt16, v)
}

func TestWords(t *testing.T) {
	t.Run("NarrowIntegersAreRangeChecked", func(t *testing.T) {
		minInt8, minInt16 := int32(-128), int32(math.MinInt16)
		v8, err := wordInt8(uint32(minInt8))
		require.NoError(t, err)
		assert.EqualValues(t, -128, v8)

		_, err = wordInt8(128)
		assert.ErrorIs(t, err, ErrCorruptPayload)

		v16, err := wordInt16(uint32(minInt16))
		require.NoError(t, err)
		assert.EqualValues(t, math.MinInt16, v16)

		_, err = wordInt16(uint32(minInt16 - 1))
		assert.ErrorIs(t, err, ErrCorruptPayload)

		_, err = wordChar(0x10000)
		assert.ErrorIs(t, err, ErrCorruptPayload)
	})

	t.Run("BoolsAreStrict", func(t *testing.T) {
		b, err := wordBool(boolWord(true))
		require.NoError(t, err)
		assert.True(t, b)

		_, err = wordBool(2)
		assert.ErrorIs(t, err, ErrCorruptPayload)
	})

	t.Run("LongSplitsLowWordFirst", func(t *testing.T) {
		lo, hi := splitLong(0x0102030405060708)
		assert.Equal(t, uint32(0x05060708), lo)
		assert.Equal(t, uint32(0x01020304), hi)
		assert.EqualValues(t, 0x0102030405060708, joinLong(lo, hi))

		lo, hi = splitLong(-1)
		assert.Equal(t, uint32(math.MaxUint32), lo)
		assert.Equal(t, uint32(math.MaxUint32), hi)
		assert.EqualValues(t, -1, joinLong(lo, hi))
	})
}
