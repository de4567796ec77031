// Package session carries engine and venue traffic over a transport:
// length-prefixed binary frames on Unix domain sockets and JSON
// envelopes over websocket. Both transports deliver the same header
// plus encoded payload pairs, so everything above the session layer is
// transport blind.
package session

import (
	"encoding/binary"
	"io"

	"main/internal/codec"
	"main/internal/schema"
	"main/pkg/exception"
)

// Frame layout: a little-endian uint32 length of what follows, then
// the fixed-size header, then the payload.
const (
	frameLenSize = 4

	// MaxFramePayload bounds a frame so a corrupt length prefix cannot
	// force an unbounded allocation.
	MaxFramePayload = 64 << 10
)

// AppendFrame appends one framed event to dst and returns the result.
func AppendFrame(dst []byte, h schema.EventHeader, payload []byte) ([]byte, error) {
	if len(payload) > MaxFramePayload {
		return dst, exception.ErrFrameTooLarge
	}
	var lenBuf [frameLenSize]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(codec.HeaderWireSize+len(payload)))
	dst = append(dst, lenBuf[:]...)

	var hdr [codec.HeaderWireSize]byte
	codec.EncodeHeader(hdr[:], h)
	dst = append(dst, hdr[:]...)
	return append(dst, payload...), nil
}

// WriteFrame writes one framed event in a single Write call, reusing
// buf as scratch space. It returns the grown buffer for the next call.
// Callers serialize writes themselves.
func WriteFrame(w io.Writer, buf []byte, h schema.EventHeader, payload []byte) ([]byte, error) {
	out, err := AppendFrame(buf[:0], h, payload)
	if err != nil {
		return buf, err
	}
	if _, err := w.Write(out); err != nil {
		return out, err
	}
	return out, nil
}

// ReadFrame reads the next frame from r, reusing buf as scratch space.
// The returned payload aliases the returned buffer and is only valid
// until the next call with that buffer.
func ReadFrame(r io.Reader, buf []byte) (schema.EventHeader, []byte, []byte, error) {
	var lenBuf [frameLenSize]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return schema.EventHeader{}, nil, buf, err
	}
	total := int(binary.LittleEndian.Uint32(lenBuf[:]))
	if total < codec.HeaderWireSize {
		return schema.EventHeader{}, nil, buf, exception.ErrFrameTruncated
	}
	if total > codec.HeaderWireSize+MaxFramePayload {
		return schema.EventHeader{}, nil, buf, exception.ErrFrameTooLarge
	}

	if cap(buf) < total {
		buf = make([]byte, total)
	}
	buf = buf[:total]
	if _, err := io.ReadFull(r, buf); err != nil {
		return schema.EventHeader{}, nil, buf, err
	}
	h, ok := codec.DecodeHeader(buf)
	if !ok {
		return schema.EventHeader{}, nil, buf, exception.ErrFrameTruncated
	}
	return h, buf[codec.HeaderWireSize:], buf, nil
}
