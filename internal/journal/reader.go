package journal

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"

	"main/internal/schema"
)

var ErrChecksumMismatch = errors.New("journal checksum mismatch")

// ReaderOptions controls record decoding.
type ReaderOptions struct {
	DisableChecksum bool
	MaxPayloadSize  int
}

// Reader decodes journal records sequentially.
type Reader struct {
	src  *bufio.Reader
	opts ReaderOptions
	head [recordHeaderSize]byte
	body []byte
}

// NewReader wraps an io.Reader with journal decoding.
func NewReader(r io.Reader, opts ReaderOptions) *Reader {
	return &Reader{src: bufio.NewReader(r), opts: opts}
}

// Next returns the next record header and payload.
// The payload is only valid until the next call to Next.
func (r *Reader) Next() (schema.EventHeader, []byte, error) {
	if err := r.fill(r.head[:], true); err != nil {
		return schema.EventHeader{}, nil, err
	}

	header, payloadLen, err := decodeRecordHeader(r.head[:])
	if err != nil {
		return header, nil, err
	}
	if r.opts.MaxPayloadSize > 0 && payloadLen > uint32(r.opts.MaxPayloadSize) {
		return header, nil, ErrPayloadTooLarge
	}

	// Payload and footer arrive in one read; the footer guards both the
	// header bytes and the payload.
	need := int(payloadLen) + recordChecksumSize
	if cap(r.body) < need {
		r.body = make([]byte, need)
	}
	r.body = r.body[:need]
	if err := r.fill(r.body, false); err != nil {
		return header, nil, err
	}

	payload := r.body[:payloadLen]
	if !r.opts.DisableChecksum {
		want := binary.LittleEndian.Uint32(r.body[payloadLen:])
		if checksum(r.head[:], payload) != want {
			return header, nil, ErrChecksumMismatch
		}
	}
	return header, payload, nil
}

// fill reads exactly len(dst) bytes. A clean EOF passes through only at
// a record boundary; inside a record it means the record is torn.
func (r *Reader) fill(dst []byte, atBoundary bool) error {
	n, err := io.ReadFull(r.src, dst)
	switch {
	case err == nil:
		return nil
	case err == io.EOF && atBoundary && n == 0:
		return io.EOF
	case err == io.EOF:
		return io.ErrUnexpectedEOF
	}
	return err
}

// IsTornTail reports whether a read error is consistent with a record
// cut short by a crash: the bytes up to the previous record stay valid
// and recovery treats the stream as cleanly ended there.
func IsTornTail(err error) bool {
	return errors.Is(err, io.ErrUnexpectedEOF) ||
		errors.Is(err, ErrChecksumMismatch) ||
		errors.Is(err, ErrInvalidMagic) ||
		errors.Is(err, ErrInvalidRecordHeaderSize)
}
