package core

import (
	"encoding/binary"
	"fmt"
)

// This file implements the canonical binary encoding the chain signs and
// persists: variant tags are explicit integers, integers are fixed-width
// little-endian, and internal sets are emitted in sorted order. Two
// semantically equal values of any encoded type MUST produce byte-identical
// encodings — NodeBlock signatures cover exactly this encoding, so any
// drift breaks verification across implementations. Codecs like RLP or CBOR
// canonicalize to minimal big-endian forms and cannot guarantee the
// fixed-width layout, hence the hand-rolled encoder.

type encoder struct {
	buf []byte
}

func newEncoder() *encoder { return &encoder{buf: make([]byte, 0, 128)} }

func (e *encoder) byte(b byte) { e.buf = append(e.buf, b) }

func (e *encoder) u32(v uint32) {
	var tmp [4]byte
	binary.LittleEndian.PutUint32(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) u64(v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	e.buf = append(e.buf, tmp[:]...)
}

func (e *encoder) raw(b []byte) { e.buf = append(e.buf, b...) }

// bytesField writes a length-prefixed byte slice.
func (e *encoder) bytesField(b []byte) {
	e.u32(uint32(len(b)))
	e.raw(b)
}

func (e *encoder) bytes() []byte { return e.buf }

type decoder struct {
	buf []byte
	off int
}

func newDecoder(b []byte) *decoder { return &decoder{buf: b} }

func (d *decoder) remaining() int { return len(d.buf) - d.off }

func (d *decoder) byte() (byte, error) {
	if d.remaining() < 1 {
		return 0, fmt.Errorf("decode: truncated byte")
	}
	b := d.buf[d.off]
	d.off++
	return b, nil
}

func (d *decoder) u32() (uint32, error) {
	if d.remaining() < 4 {
		return 0, fmt.Errorf("decode: truncated u32")
	}
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v, nil
}

func (d *decoder) u64() (uint64, error) {
	if d.remaining() < 8 {
		return 0, fmt.Errorf("decode: truncated u64")
	}
	v := binary.LittleEndian.Uint64(d.buf[d.off:])
	d.off += 8
	return v, nil
}

func (d *decoder) raw(n int) ([]byte, error) {
	if d.remaining() < n {
		return nil, fmt.Errorf("decode: truncated field (want %d have %d)", n, d.remaining())
	}
	out := d.buf[d.off : d.off+n]
	d.off += n
	return out, nil
}

func (d *decoder) bytesField() ([]byte, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	return d.raw(int(n))
}

func (d *decoder) done() bool { return d.remaining() == 0 }
