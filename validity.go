package geoarrow

import (
	"github.com/apache/arrow-go/v18/arrow/bitutil"
)

// Bitmap is an immutable validity bitmap with one bit per slot. A set bit
// marks a valid slot. A nil *Bitmap means every slot is valid.
type Bitmap struct {
	bits   []byte
	offset int
	length int
}

// NewBitmap builds a bitmap from a slice of validity flags.
func NewBitmap(valid []bool) *Bitmap {
	bits := make([]byte, bitutil.BytesForBits(int64(len(valid))))
	for i, v := range valid {
		if v {
			bitutil.SetBit(bits, i)
		}
	}
	return &Bitmap{bits: bits, length: len(valid)}
}

// NewBitmapFromBytes wraps LSB-ordered bitmap bytes holding length bits.
func NewBitmapFromBytes(bits []byte, length int) *Bitmap {
	return &Bitmap{bits: bits, length: length}
}

// Len returns the number of slots.
func (b *Bitmap) Len() int {
	if b == nil {
		return 0
	}
	return b.length
}

// IsValid reports whether slot i is valid.
func (b *Bitmap) IsValid(i int) bool {
	if b == nil {
		return true
	}
	return bitutil.BitIsSet(b.bits, b.offset+i)
}

// IsNull reports whether slot i is null.
func (b *Bitmap) IsNull(i int) bool {
	return !b.IsValid(i)
}

// NullCount returns the number of null slots.
func (b *Bitmap) NullCount() int {
	if b == nil {
		return 0
	}
	return b.length - bitutil.CountSetBits(b.bits, b.offset, b.length)
}

// Slice returns a window of n slots starting at start, sharing storage.
func (b *Bitmap) Slice(start, n int) *Bitmap {
	if b == nil {
		return nil
	}
	return &Bitmap{bits: b.bits, offset: b.offset + start, length: n}
}

// Copy returns an independent bitmap of n slots starting at start. It returns
// nil when the range holds no nulls.
func (b *Bitmap) Copy(start, n int) *Bitmap {
	if b == nil {
		return nil
	}
	out := NewBitmapBuilder(n)
	for i := 0; i < n; i++ {
		out.Append(b.IsValid(start + i))
	}
	return out.Finish()
}

// Bytes returns the bitmap rebased to bit zero, suitable for export.
func (b *Bitmap) Bytes() []byte {
	if b == nil {
		return nil
	}
	if b.offset == 0 {
		return b.bits[:bitutil.BytesForBits(int64(b.length))]
	}
	out := make([]byte, bitutil.BytesForBits(int64(b.length)))
	for i := 0; i < b.length; i++ {
		if b.IsValid(i) {
			bitutil.SetBit(out, i)
		}
	}
	return out
}

// BitmapBuilder appends validity bits. No storage is allocated until the first
// null is appended.
type BitmapBuilder struct {
	bits     []byte
	length   int
	capacity int
	nulls    int
}

// NewBitmapBuilder creates a builder expecting about capacity slots.
func NewBitmapBuilder(capacity int) *BitmapBuilder {
	return &BitmapBuilder{capacity: capacity}
}

// Append appends one validity bit.
func (b *BitmapBuilder) Append(valid bool) {
	if !valid && b.bits == nil {
		b.materialize()
	}
	if b.bits != nil {
		b.grow(b.length + 1)
		bitutil.SetBitTo(b.bits, b.length, valid)
	}
	if !valid {
		b.nulls++
	}
	b.length++
}

// AppendN appends n copies of valid.
func (b *BitmapBuilder) AppendN(n int, valid bool) {
	for i := 0; i < n; i++ {
		b.Append(valid)
	}
}

// Reserve records that about additional more slots are expected.
func (b *BitmapBuilder) Reserve(additional int) {
	b.capacity = max(b.capacity, b.length+additional)
	if b.bits != nil {
		b.grow(b.capacity)
	}
}

// Len returns the number of slots appended.
func (b *BitmapBuilder) Len() int { return b.length }

// NullCount returns the number of nulls appended.
func (b *BitmapBuilder) NullCount() int { return b.nulls }

// IsValid reports whether slot i was appended as valid.
func (b *BitmapBuilder) IsValid(i int) bool {
	if b.bits == nil {
		return true
	}
	return bitutil.BitIsSet(b.bits, i)
}

// truncate drops every slot after the first n.
func (b *BitmapBuilder) truncate(n int) {
	if n >= b.length {
		return
	}
	if b.bits != nil {
		valid := bitutil.CountSetBits(b.bits, n, b.length-n)
		b.nulls -= (b.length - n) - valid
		bitutil.SetBitsTo(b.bits, int64(n), int64(b.length-n), false)
	}
	b.length = n
}

func (b *BitmapBuilder) materialize() {
	b.bits = make([]byte, bitutil.BytesForBits(int64(max(b.capacity, b.length+1))))
	bitutil.SetBitsTo(b.bits, 0, int64(b.length), true)
}

func (b *BitmapBuilder) grow(n int) {
	need := int(bitutil.BytesForBits(int64(n)))
	if need <= len(b.bits) {
		return
	}
	grown := make([]byte, max(need, 2*len(b.bits)))
	copy(grown, b.bits)
	b.bits = grown
}

// Finish returns the bitmap, or nil when no null was appended.
func (b *BitmapBuilder) Finish() *Bitmap {
	if b.nulls == 0 {
		b.length = 0
		return nil
	}
	out := &Bitmap{bits: b.bits, length: b.length}
	b.bits, b.length, b.nulls = nil, 0, 0
	return out
}
