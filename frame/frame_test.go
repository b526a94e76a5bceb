package frame

import (
	"bytes"
	"encoding/binary"
	"io"
	"runtime"
	"testing"
	"testing/iotest"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeLayout(t *testing.T) {
	data, err := Encode([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34, 0xAB, 0xCD, 0, 0, 0, 5, 'h', 'e', 'l', 'l', 'o'}, data)
}

func TestEncodeEmptyPayload(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Len(t, data, HeaderSize)

	payload, err := ReadFrame(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Empty(t, payload)
}

func TestEncodeRejectsOversizedPayload(t *testing.T) {
	_, err := encode(make([]byte, 11), 10)
	assert.True(t, errors.Is(err, ErrPayloadTooLarge))

	data, err := encode(make([]byte, 10), 10)
	require.NoError(t, err)
	assert.Len(t, data, HeaderSize+10)
}

func TestReadFramesInOrder(t *testing.T) {
	var buf bytes.Buffer
	for _, p := range []string{"first", "", "third"} {
		_, err := WriteFrame(&buf, []byte(p))
		require.NoError(t, err)
	}
	for _, p := range []string{"first", "", "third"} {
		payload, err := ReadFrame(&buf)
		require.NoError(t, err)
		assert.Equal(t, p, string(payload))
	}
	_, err := ReadFrame(&buf)
	assert.Equal(t, ErrEndOfStream, err)
	assert.Equal(t, io.EOF, err)
}

func TestReadFrameAcrossShortReads(t *testing.T) {
	data, err := Encode([]byte("split into one-byte reads"))
	require.NoError(t, err)
	payload, err := ReadFrame(iotest.OneByteReader(bytes.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, "split into one-byte reads", string(payload))
}

func TestReadHeaderBadMagic(t *testing.T) {
	data, err := Encode([]byte("x"))
	require.NoError(t, err)
	data[0] = 0xFF
	_, err = ReadHeader(bytes.NewReader(data))
	assert.True(t, errors.Is(err, ErrFrameCorrupt))
	assert.Contains(t, err.Error(), "0xff34abcd")
}

func TestReadHeaderTruncated(t *testing.T) {
	data, err := Encode([]byte("x"))
	require.NoError(t, err)
	for _, n := range []int{1, 3, 4, 7} {
		_, err := ReadHeader(bytes.NewReader(data[:n]))
		assert.True(t, errors.Is(err, ErrTruncatedFrame), "cut after %d bytes: %v", n, err)
	}
}

func TestReadFrameHeaderOnly(t *testing.T) {
	data, err := Encode([]byte("payload that never arrives"))
	require.NoError(t, err)
	_, err = ReadFrame(bytes.NewReader(data[:HeaderSize]))
	assert.True(t, errors.Is(err, ErrTruncatedFrame))
}

func TestReadFramePartialPayload(t *testing.T) {
	data, err := Encode([]byte("0123456789"))
	require.NoError(t, err)
	_, err = ReadFrame(bytes.NewReader(data[:HeaderSize+4]))
	assert.True(t, errors.Is(err, ErrTruncatedFrame))
	assert.Contains(t, err.Error(), "4 of 10")
}

func TestReadFrameHugeLengthDoesNotAllocateUpFront(t *testing.T) {
	header := []byte{0x12, 0x34, 0xAB, 0xCD, 0xFF, 0xFF, 0xFF, 0xF0}

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	_, err := ReadFrame(bytes.NewReader(header))
	runtime.ReadMemStats(&after)

	assert.True(t, errors.Is(err, ErrTruncatedFrame))
	assert.Contains(t, err.Error(), "0 of 4294967280")
	assert.Less(t, after.TotalAlloc-before.TotalAlloc, uint64(16<<20))
}

func TestReadFrameLargePayload(t *testing.T) {
	payload := bytes.Repeat([]byte("0123456789abcdef"), 20000)
	data, err := Encode(payload)
	require.NoError(t, err)
	got, err := ReadFrame(iotest.HalfReader(bytes.NewReader(data)))
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadHeaderPassesThroughReadErrors(t *testing.T) {
	boom := errors.New("boom")
	_, err := ReadHeader(iotest.ErrReader(boom))
	assert.Equal(t, boom, err)
}

func TestInterleavedFramesAreDetected(t *testing.T) {
	a, err := Encode(bytes.Repeat([]byte("a"), 16))
	require.NoError(t, err)
	b, err := Encode(bytes.Repeat([]byte("b"), 16))
	require.NoError(t, err)

	// the second frame's header lands inside the first frame's payload
	var mixed []byte
	mixed = append(mixed, a[:HeaderSize+4]...)
	mixed = append(mixed, b...)
	mixed = append(mixed, a[HeaderSize+4:]...)

	r := bytes.NewReader(mixed)
	payload, err := ReadFrame(r)
	require.NoError(t, err)
	assert.NotEqual(t, bytes.Repeat([]byte("a"), 16), payload)
	_, err = ReadFrame(r)
	assert.True(t, errors.Is(err, ErrFrameCorrupt), "got %v", err)
}

func TestMagicIsBigEndian(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	assert.Equal(t, Magic, binary.BigEndian.Uint32(data))
}
