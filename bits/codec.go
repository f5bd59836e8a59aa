package bits

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/google/uuid"
)

var ErrEOF = errors.New("end of data table")

var order = binary.LittleEndian

// Encoder appends little endian data table fields to a growing buffer
type Encoder struct {
	buf []byte
}

func NewEncoder(capacity int) *Encoder {
	return &Encoder{buf: make([]byte, 0, capacity)}
}

func (e *Encoder) Bytes() []byte { return e.buf }

func (e *Encoder) PutU8(v uint8)   { e.buf = append(e.buf, v) }
func (e *Encoder) PutU16(v uint16) { e.buf = order.AppendUint16(e.buf, v) }
func (e *Encoder) PutU32(v uint32) { e.buf = order.AppendUint32(e.buf, v) }
func (e *Encoder) PutI64(v int64)  { e.buf = order.AppendUint64(e.buf, uint64(v)) }

func (e *Encoder) PutF32(v float32) { e.PutU32(math.Float32bits(v)) }
func (e *Encoder) PutF64(v float64) { e.buf = order.AppendUint64(e.buf, math.Float64bits(v)) }

func (e *Encoder) PutRaw(p []byte) { e.buf = append(e.buf, p...) }

func (e *Encoder) PutUUID(id uuid.UUID) { e.buf = append(e.buf, id[:]...) }

// PutString writes a u32 length prefix followed by raw bytes
func (e *Encoder) PutString(s string) {
	e.PutU32(uint32(len(s)))
	e.buf = append(e.buf, s...)
}

// Decoder reads fields written by Encoder, in the same order
type Decoder struct {
	data []byte
	off  int
}

func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Remaining is the count of bytes not consumed yet
func (d *Decoder) Remaining() int {
	return len(d.data) - d.off
}

func (d *Decoder) next(n int) ([]byte, error) {
	if n < 0 || d.Remaining() < n {
		d.off = len(d.data)
		return nil, ErrEOF
	}
	p := d.data[d.off : d.off+n]
	d.off += n
	return p, nil
}

func (d *Decoder) ReadU8() (uint8, error) {
	p, err := d.next(1)
	if err != nil {
		return 0, err
	}
	return p[0], nil
}

func (d *Decoder) ReadU16() (uint16, error) {
	p, err := d.next(2)
	if err != nil {
		return 0, err
	}
	return order.Uint16(p), nil
}

func (d *Decoder) ReadU32() (uint32, error) {
	p, err := d.next(4)
	if err != nil {
		return 0, err
	}
	return order.Uint32(p), nil
}

func (d *Decoder) ReadI64() (int64, error) {
	p, err := d.next(8)
	if err != nil {
		return 0, err
	}
	return int64(order.Uint64(p)), nil
}

func (d *Decoder) ReadF32() (float32, error) {
	u, err := d.ReadU32()
	return math.Float32frombits(u), err
}

func (d *Decoder) ReadF64() (float64, error) {
	p, err := d.next(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(order.Uint64(p)), nil
}

func (d *Decoder) ReadUUID() (id uuid.UUID, err error) {
	p, err := d.next(len(id))
	if err != nil {
		return id, err
	}
	copy(id[:], p)
	return id, nil
}

// ReadString reads a u32 length prefixed string
func (d *Decoder) ReadString() (string, error) {
	size, err := d.ReadU32()
	if err != nil {
		return "", err
	}
	p, err := d.next(int(size))
	if err != nil {
		return "", err
	}
	return string(p), nil
}
