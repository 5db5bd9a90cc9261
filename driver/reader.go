package driver

import (
	"encoding/binary"
	"fmt"
	"io"
)

// FrameReader reads length-prefixed protobuf frames from a byte stream.
//
// Wire format: a 4-byte big-endian unsigned length L, followed by exactly L
// bytes of protobuf-encoded LogEntry. There is no outer delimiter, checksum,
// or version byte.
type FrameReader struct {
	r      io.Reader
	lenBuf [4]byte
	buf    []byte
}

// NewFrameReader wraps r as a FrameReader.
func NewFrameReader(r io.Reader) *FrameReader {
	return &FrameReader{
		r:   r,
		buf: make([]byte, 1024),
	}
}

// Next returns the next decoded frame, io.EOF when the stream has no more
// frames, or a wrapped error for a framing or protobuf decode failure.
//
// A clean EOF before any length byte, during the length header, or during the
// payload are all reported as io.EOF ("no more frames"), never as an error:
// the engine closes the FIFO when the container exits, and that close can
// land between frames or mid-frame without warning.
func (fr *FrameReader) Next() (*RawFrame, error) {
	if _, err := io.ReadFull(fr.r, fr.lenBuf[:]); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame length: %w", err)
	}

	size := binary.BigEndian.Uint32(fr.lenBuf[:])
	if int(size) > len(fr.buf) {
		fr.buf = make([]byte, size)
	}
	payload := fr.buf[:size]

	if _, err := io.ReadFull(fr.r, payload); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("reading frame payload: %w", err)
	}

	entry := &RawFrame{}
	if err := unmarshalLogEntry(payload, entry); err != nil {
		return nil, fmt.Errorf("decoding frame: %w", err)
	}
	return entry, nil
}
