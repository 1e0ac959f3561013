package recordstore

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRoundTrip(t *testing.T) {
	w := NewWriter(8)
	for i := 0; i < 5; i++ {
		rec := make([]byte, 8)
		binary.LittleEndian.PutUint32(rec[0:4], uint32(i))
		binary.LittleEndian.PutUint32(rec[4:8], uint32(i*100))
		require.NoError(t, w.Append(rec))
	}
	assert.Equal(t, 5, w.Count())

	s, err := Load(w.Build())
	require.NoError(t, err)
	require.NoError(t, s.Verify())
	assert.Equal(t, 5, s.Count())
	assert.Equal(t, 8, s.RecordSize())

	rec, err := s.Record(3)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), binary.LittleEndian.Uint32(rec[0:4]))
	assert.Equal(t, uint32(300), binary.LittleEndian.Uint32(rec[4:8]))
}

func TestRecordOutOfBounds(t *testing.T) {
	w := NewWriter(4)
	require.NoError(t, w.Append([]byte{1, 2, 3, 4}))

	s, err := Load(w.Build())
	require.NoError(t, err)

	for _, i := range []int{-1, 1, 100} {
		_, err := s.Record(i)
		var oob *ErrOutOfBounds
		require.ErrorAs(t, err, &oob, "index %d", i)
		assert.Equal(t, i, oob.Index)
	}
}

func TestAppendWrongWidth(t *testing.T) {
	w := NewWriter(4)
	err := w.Append([]byte{1, 2, 3})
	var mal *ErrMalformed
	assert.ErrorAs(t, err, &mal)
}

func TestLoadRejectsMalformed(t *testing.T) {
	valid := func() []byte {
		w := NewWriter(4)
		require.NoError(t, w.Append([]byte{1, 2, 3, 4}))
		return w.Build()
	}

	t.Run("Short", func(t *testing.T) {
		_, err := Load(valid()[:10])
		var mal *ErrMalformed
		assert.ErrorAs(t, err, &mal)
	})

	t.Run("BadMagic", func(t *testing.T) {
		data := valid()
		data[0] ^= 0xFF
		_, err := Load(data)
		var bad *ErrInvalidMagic
		assert.ErrorAs(t, err, &bad)
	})

	t.Run("BadVersion", func(t *testing.T) {
		data := valid()
		data[4] = 9
		_, err := Load(data)
		var bad *ErrInvalidVersion
		assert.ErrorAs(t, err, &bad)
	})

	t.Run("TruncatedBody", func(t *testing.T) {
		data := valid()
		_, err := Load(data[:len(data)-1])
		var mal *ErrMalformed
		assert.ErrorAs(t, err, &mal)
	})
}

func TestVerifyDetectsCorruption(t *testing.T) {
	w := NewWriter(4)
	require.NoError(t, w.Append([]byte{1, 2, 3, 4}))
	data := w.Build()
	data[RecordHeaderSize] ^= 0x01

	s, err := Load(data)
	require.NoError(t, err)

	var cs *ErrChecksum
	assert.ErrorAs(t, s.Verify(), &cs)
}

func TestEmptyStore(t *testing.T) {
	s, err := Load(NewWriter(16).Build())
	require.NoError(t, err)
	require.NoError(t, s.Verify())
	assert.Equal(t, 0, s.Count())

	_, err = s.Record(0)
	var oob *ErrOutOfBounds
	assert.ErrorAs(t, err, &oob)
}
