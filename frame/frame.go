// Package frame implements the framing used on the reporting pipe.
//
// Each frame is a 4-byte magic marker, a 4-byte payload length and the payload itself.
// Both integers are big-endian. The payload is opaque to this package.
package frame

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/pkg/errors"
)

const (
	// Magic is the marker that starts every frame.
	Magic uint32 = 0x1234ABCD

	// HeaderSize is the size of the magic marker plus the length field.
	HeaderSize = 8

	// MaxPayloadSize is the largest payload the length field can describe.
	MaxPayloadSize = math.MaxUint32

	initialPayloadBuffer = 64 * 1024
)

var (
	// ErrPayloadTooLarge means the payload cannot be described by the length field.
	// Nothing is written when this is returned.
	ErrPayloadTooLarge = errors.New("payload too large for frame")

	// ErrFrameCorrupt means the magic marker did not match, so the stream is misaligned.
	ErrFrameCorrupt = errors.New("frame corrupt")

	// ErrTruncatedFrame means the stream ended in the middle of a frame.
	ErrTruncatedFrame = errors.New("truncated frame")

	// ErrEndOfStream is returned when the stream ends cleanly at a frame boundary. It is
	// io.EOF, so callers can use the usual read loop idiom.
	ErrEndOfStream = io.EOF
)

// Encode returns payload wrapped in a frame.
func Encode(payload []byte) ([]byte, error) {
	return encode(payload, MaxPayloadSize)
}

func encode(payload []byte, limit uint64) ([]byte, error) {
	if uint64(len(payload)) > limit {
		return nil, errors.Wrapf(ErrPayloadTooLarge, "%d bytes exceeds limit of %d", len(payload), limit)
	}
	buf := make([]byte, HeaderSize+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], Magic)
	binary.BigEndian.PutUint32(buf[4:8], uint32(len(payload)))
	copy(buf[HeaderSize:], payload)
	return buf, nil
}

// WriteFrame encodes payload and writes the whole frame with a single Write call. It
// does not serialize concurrent callers; that is up to the owner of w.
func WriteFrame(w io.Writer, payload []byte) (int, error) {
	data, err := Encode(payload)
	if err != nil {
		return 0, err
	}
	return w.Write(data)
}

// ReadHeader reads a frame header and returns the payload length.
//
// It returns ErrEndOfStream if r is exhausted before any header byte is read,
// ErrTruncatedFrame if r is exhausted partway through the header, and ErrFrameCorrupt if
// the marker is wrong. Other read errors are returned as they are.
func ReadHeader(r io.Reader) (uint32, error) {
	var header [HeaderSize]byte
	n, err := io.ReadFull(r, header[:])
	switch {
	case err == io.EOF:
		return 0, ErrEndOfStream
	case err == io.ErrUnexpectedEOF:
		return 0, errors.Wrapf(ErrTruncatedFrame, "stream ended after %d of %d header bytes", n, HeaderSize)
	case err != nil:
		return 0, err
	}
	if magic := binary.BigEndian.Uint32(header[0:4]); magic != Magic {
		return 0, errors.Wrapf(ErrFrameCorrupt, "expected magic %#08x, got %#08x", Magic, magic)
	}
	return binary.BigEndian.Uint32(header[4:8]), nil
}

// ReadFrame reads one whole frame and returns its payload. A stream that ends after the
// header but before the declared number of payload bytes produces ErrTruncatedFrame.
func ReadFrame(r io.Reader) ([]byte, error) {
	length, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}
	// The buffer grows with the bytes that actually arrive, so a damaged length field
	// cannot force a large allocation up front.
	var payload bytes.Buffer
	if length <= initialPayloadBuffer {
		payload.Grow(int(length))
	} else {
		payload.Grow(initialPayloadBuffer)
	}
	n, err := io.CopyN(&payload, r, int64(length))
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return nil, errors.Wrapf(ErrTruncatedFrame, "stream ended after %d of %d payload bytes", n, length)
	}
	if err != nil {
		return nil, err
	}
	return payload.Bytes(), nil
}
