package wire

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/wippyai/marshal/errors"
)

// maxLEB128Bytes is the longest encoding of a 64-bit value.
const maxLEB128Bytes = 10

// Reader reads stream primitives from an in-memory buffer with position
// tracking. Every failure is an *errors.Error carrying the offset.
type Reader struct {
	data  []byte
	pos   int
	phase errors.Phase
}

// NewReader creates a Reader over data. Errors are raised in phase.
func NewReader(data []byte, phase errors.Phase) *Reader {
	return &Reader{data: data, phase: phase}
}

// Position returns the current byte position.
func (r *Reader) Position() int {
	return r.pos
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int {
	return len(r.data) - r.pos
}

// Len returns the total length of the buffer.
func (r *Reader) Len() int {
	return len(r.data)
}

// ReadHeader reads and checks the version header.
func (r *Reader) ReadHeader() error {
	start := r.pos
	hdr, err := r.ReadBytes(HeaderSize)
	if err != nil {
		return err
	}
	if hdr[0] != VersionMajor || hdr[1] != VersionMinor {
		return errors.New(r.phase, errors.KindFormatVersion).
			Offset(start).
			Value([2]byte{hdr[0], hdr[1]}).
			Detail("stream version %d.%d, supported %d.%d", hdr[0], hdr[1], VersionMajor, VersionMinor).
			Build()
	}
	return nil
}

// PeekByte returns the next byte without consuming it.
func (r *Reader) PeekByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errors.Truncated(r.phase, r.pos, 1)
	}
	return r.data[r.pos], nil
}

// ReadByte reads a single byte and advances the position.
func (r *Reader) ReadByte() (byte, error) {
	if r.pos >= len(r.data) {
		return 0, errors.Truncated(r.phase, r.pos, 1)
	}
	b := r.data[r.pos]
	r.pos++
	return b, nil
}

// ReadBytes reads exactly n bytes. The result is a copy.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, r.invalid(r.pos, "negative length %d", n)
	}
	if n > r.Remaining() {
		return nil, errors.Truncated(r.phase, r.pos, n-r.Remaining())
	}
	buf := make([]byte, n)
	copy(buf, r.data[r.pos:r.pos+n])
	r.pos += n
	return buf, nil
}

// ReadU64 reads an unsigned LEB128 encoded uint64.
func (r *Reader) ReadU64() (uint64, error) {
	start := r.pos
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		if i == maxLEB128Bytes {
			return 0, r.invalid(start, "unsigned LEB128 exceeds 64 bits")
		}
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		// The tenth byte may carry only the top bit.
		if i == maxLEB128Bytes-1 && b > 0x01 {
			return 0, r.invalid(start, "unsigned LEB128 exceeds 64 bits")
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// ReadS64 reads a signed LEB128 encoded int64.
func (r *Reader) ReadS64() (int64, error) {
	start := r.pos
	var result int64
	var shift uint
	var b byte
	for i := 0; ; i++ {
		if i == maxLEB128Bytes {
			return 0, r.invalid(start, "signed LEB128 exceeds 64 bits")
		}
		var err error
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		// The tenth byte holds bit 63 only: all zero or all one.
		if i == maxLEB128Bytes-1 && b != 0x00 && b != 0x7f {
			return 0, r.invalid(start, "signed LEB128 exceeds 64 bits")
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	// Sign extend
	if shift < 64 && b&0x40 != 0 {
		result |= ^int64(0) << shift
	}
	return result, nil
}

// ReadF64 reads a little-endian IEEE-754 double.
func (r *Reader) ReadF64() (float64, error) {
	if r.Remaining() < 8 {
		return 0, errors.Truncated(r.phase, r.pos, 8-r.Remaining())
	}
	bits := binary.LittleEndian.Uint64(r.data[r.pos : r.pos+8])
	r.pos += 8
	return math.Float64frombits(bits), nil
}

// ReadLen reads a uLEB128 length and checks it fits in the remaining
// buffer when each unit needs at least minUnit bytes.
func (r *Reader) ReadLen(minUnit int) (int, error) {
	start := r.pos
	n, err := r.ReadU64()
	if err != nil {
		return 0, err
	}
	if n > math.MaxInt32 {
		return 0, r.invalid(start, "length %d out of range", n)
	}
	if minUnit > 0 && int(n)*minUnit > r.Remaining() {
		return 0, errors.Truncated(r.phase, r.pos, int(n)*minUnit-r.Remaining())
	}
	return int(n), nil
}

// ReadSeq reads a length-prefixed byte sequence of at most limit bytes.
// A limit of zero means no limit.
func (r *Reader) ReadSeq(limit int) ([]byte, error) {
	n, err := r.readSized(limit)
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(n)
}

// ReadString reads a length-prefixed UTF-8 string of at most limit bytes.
// A limit of zero means no limit.
func (r *Reader) ReadString(limit int) (string, error) {
	start := r.pos
	n, err := r.readSized(limit)
	if err != nil {
		return "", err
	}
	s := string(r.data[r.pos : r.pos+n])
	r.pos += n
	if !utf8.ValidString(s) {
		return "", r.invalid(start, "string is not valid UTF-8")
	}
	return s, nil
}

func (r *Reader) readSized(limit int) (int, error) {
	start := r.pos
	n, err := r.ReadLen(1)
	if err != nil {
		return 0, err
	}
	if limit > 0 && n > limit {
		return 0, errors.New(r.phase, errors.KindInvalidData).
			Offset(start).
			Value(n).
			Detail("length %d exceeds limit %d", n, limit).
			Build()
	}
	return n, nil
}

func (r *Reader) invalid(offset int, msg string, args ...any) *errors.Error {
	return errors.New(r.phase, errors.KindInvalidData).Offset(offset).Detail(msg, args...).Build()
}
