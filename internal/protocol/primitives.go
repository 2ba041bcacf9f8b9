// Package protocol implements the wire framing between this guest process
// and the host: big-endian integer primitives, the length-prefixed frame
// layout, and the JSON message shapes carried inside those frames.
package protocol

import (
	"encoding/binary"
	"io"
)

// ReadUint8 reads a single big-endian byte.
func ReadUint8(r io.Reader) (uint8, error) {
	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return buf[0], nil
}

// WriteUint8 writes a single byte.
func WriteUint8(w io.Writer, v uint8) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadUint32 reads a big-endian uint32.
func ReadUint32(r io.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(buf[:]), nil
}

// WriteUint32 writes a big-endian uint32.
func WriteUint32(w io.Writer, v uint32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadUint64 reads a big-endian uint64.
func ReadUint64(r io.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(buf[:]), nil
}

// WriteUint64 writes a big-endian uint64.
func WriteUint64(w io.Writer, v uint64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadSegment reads a length-prefixed (u64 length) byte segment.
func ReadSegment(r io.Reader) ([]byte, error) {
	n, err := ReadUint64(r)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteSegment writes a length-prefixed (u64 length) byte segment.
func WriteSegment(w io.Writer, seg []byte) error {
	if err := WriteUint64(w, uint64(len(seg))); err != nil {
		return err
	}
	_, err := w.Write(seg)
	return err
}
