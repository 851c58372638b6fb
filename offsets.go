package geoarrow

import (
	"fmt"
	"math"
	"slices"
)

// OffsetBuffer is an immutable sequence of N+1 monotonic offsets describing N
// variable-length ranges. Exactly one of the narrow or wide slices is used.
type OffsetBuffer struct {
	width  OffsetWidth
	narrow []int32
	wide   []int64
}

// NewNarrowOffsetBuffer wraps int32 offsets.
func NewNarrowOffsetBuffer(offsets []int32) (OffsetBuffer, error) {
	if len(offsets) == 0 {
		return OffsetBuffer{}, fmt.Errorf("%w: offsets must hold at least one value", ErrInvalidData)
	}
	return OffsetBuffer{width: Narrow, narrow: offsets}, nil
}

// NewWideOffsetBuffer wraps int64 offsets.
func NewWideOffsetBuffer(offsets []int64) (OffsetBuffer, error) {
	if len(offsets) == 0 {
		return OffsetBuffer{}, fmt.Errorf("%w: offsets must hold at least one value", ErrInvalidData)
	}
	return OffsetBuffer{width: Wide, wide: offsets}, nil
}

// emptyOffsets returns the offsets of zero ranges.
func emptyOffsets(width OffsetWidth) OffsetBuffer {
	if width == Wide {
		return OffsetBuffer{width: Wide, wide: []int64{0}}
	}
	return OffsetBuffer{width: Narrow, narrow: []int32{0}}
}

// Width returns the offset integer width.
func (o OffsetBuffer) Width() OffsetWidth { return o.width }

// Len returns the number of ranges.
func (o OffsetBuffer) Len() int {
	if o.width == Wide {
		return len(o.wide) - 1
	}
	return len(o.narrow) - 1
}

// At returns the i-th offset value.
func (o OffsetBuffer) At(i int) int {
	if o.width == Wide {
		return int(o.wide[i])
	}
	return int(o.narrow[i])
}

// First returns the first offset value.
func (o OffsetBuffer) First() int { return o.At(0) }

// Last returns the final offset value.
func (o OffsetBuffer) Last() int { return o.At(o.Len()) }

// Range returns the start and end of the i-th range.
func (o OffsetBuffer) Range(i int) (int, int) {
	return o.At(i), o.At(i + 1)
}

// Narrow returns the int32 storage, or nil for wide offsets.
func (o OffsetBuffer) Narrow() []int32 { return o.narrow }

// Wide returns the int64 storage, or nil for narrow offsets.
func (o OffsetBuffer) Wide() []int64 { return o.wide }

// Slice returns the offsets of n ranges starting at range start. The values
// are not rebased.
func (o OffsetBuffer) Slice(start, n int) OffsetBuffer {
	if o.width == Wide {
		return OffsetBuffer{width: Wide, wide: o.wide[start : start+n+1 : start+n+1]}
	}
	return OffsetBuffer{width: Narrow, narrow: o.narrow[start : start+n+1 : start+n+1]}
}

// Rebased returns a copy of n ranges starting at range start, shifted so the
// first offset is zero.
func (o OffsetBuffer) Rebased(start, n int) OffsetBuffer {
	base := o.At(start)
	if o.width == Wide {
		out := make([]int64, n+1)
		for i := range out {
			out[i] = o.wide[start+i] - int64(base)
		}
		return OffsetBuffer{width: Wide, wide: out}
	}
	out := make([]int32, n+1)
	for i := range out {
		out[i] = o.narrow[start+i] - int32(base)
	}
	return OffsetBuffer{width: Narrow, narrow: out}
}

// MaxRangeLen returns the longest range, or 0 when there are none.
func (o OffsetBuffer) MaxRangeLen() int {
	longest := 0
	for i := 0; i < o.Len(); i++ {
		start, end := o.Range(i)
		longest = max(longest, end-start)
	}
	return longest
}

// FitsNarrow reports whether every offset value is representable as int32.
func (o OffsetBuffer) FitsNarrow() bool {
	if o.width == Narrow {
		return true
	}
	return o.Last() <= math.MaxInt32
}

// ToWidth converts the buffer to the given width.
func (o OffsetBuffer) ToWidth(width OffsetWidth) (OffsetBuffer, error) {
	if o.width == width {
		return o, nil
	}
	if width == Wide {
		out := make([]int64, len(o.narrow))
		for i, v := range o.narrow {
			out[i] = int64(v)
		}
		return OffsetBuffer{width: Wide, wide: out}, nil
	}
	if !o.FitsNarrow() {
		return OffsetBuffer{}, fmt.Errorf("%w: last offset %d exceeds int32", ErrOffsetOverflow, o.Last())
	}
	out := make([]int32, len(o.wide))
	for i, v := range o.wide {
		out[i] = int32(v)
	}
	return OffsetBuffer{width: Narrow, narrow: out}, nil
}

// check verifies the first offset is zero and the last equals childLen.
func (o OffsetBuffer) check(level string, childLen int) error {
	if o.Len() < 0 {
		return fmt.Errorf("%w: %s offsets are empty", ErrInvalidData, level)
	}
	if o.First() != 0 {
		return fmt.Errorf("%w: %s offsets start at %d", ErrInvalidData, level, o.First())
	}
	if o.Last() != childLen {
		return fmt.Errorf("%w: last %s offset %d does not match child length %d", ErrInvalidData, level, o.Last(), childLen)
	}
	return nil
}

func maxOffset(width OffsetWidth) int64 {
	if width == Wide {
		return math.MaxInt64
	}
	return math.MaxInt32
}

// OffsetsBuilder appends offsets. It always starts with a single zero.
type OffsetsBuilder struct {
	width  OffsetWidth
	narrow []int32
	wide   []int64
}

// NewOffsetsBuilder creates a builder with room for capacity ranges.
func NewOffsetsBuilder(width OffsetWidth, capacity int) *OffsetsBuilder {
	b := &OffsetsBuilder{width: width}
	if width == Wide {
		b.wide = make([]int64, 1, capacity+1)
	} else {
		b.narrow = make([]int32, 1, capacity+1)
	}
	return b
}

// TryPushUsize appends last+n. It fails with ErrOffsetOverflow when the new
// offset does not fit the builder's width.
func (b *OffsetsBuilder) TryPushUsize(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: negative range length %d", ErrInvalidData, n)
	}
	last := int64(b.Last())
	if int64(n) > maxOffset(b.width)-last {
		return fmt.Errorf("%w: %d + %d exceeds %s", ErrOffsetOverflow, last, n, b.width)
	}
	if b.width == Wide {
		b.wide = append(b.wide, last+int64(n))
	} else {
		b.narrow = append(b.narrow, int32(last)+int32(n))
	}
	return nil
}

// ExtendConstant repeats the last offset n times. It is used for nulls.
func (b *OffsetsBuilder) ExtendConstant(n int) {
	if b.width == Wide {
		last := b.wide[len(b.wide)-1]
		for i := 0; i < n; i++ {
			b.wide = append(b.wide, last)
		}
		return
	}
	last := b.narrow[len(b.narrow)-1]
	for i := 0; i < n; i++ {
		b.narrow = append(b.narrow, last)
	}
}

// Last returns the most recently pushed offset.
func (b *OffsetsBuilder) Last() int {
	if b.width == Wide {
		return int(b.wide[len(b.wide)-1])
	}
	return int(b.narrow[len(b.narrow)-1])
}

// At returns offset i.
func (b *OffsetsBuilder) At(i int) int {
	if b.width == Wide {
		return int(b.wide[i])
	}
	return int(b.narrow[i])
}

// truncate drops every range after the first n.
func (b *OffsetsBuilder) truncate(n int) {
	if n >= b.Len() {
		return
	}
	if b.width == Wide {
		b.wide = b.wide[:n+1]
		return
	}
	b.narrow = b.narrow[:n+1]
}

// Len returns the number of ranges.
func (b *OffsetsBuilder) Len() int {
	if b.width == Wide {
		return len(b.wide) - 1
	}
	return len(b.narrow) - 1
}

// Reserve grows capacity for at least additional ranges.
func (b *OffsetsBuilder) Reserve(additional int) {
	if b.width == Wide {
		b.wide = slices.Grow(b.wide, additional)
		return
	}
	b.narrow = slices.Grow(b.narrow, additional)
}

// ReserveExact grows capacity to exactly Len()+1+additional values.
func (b *OffsetsBuilder) ReserveExact(additional int) {
	if b.width == Wide {
		if cap(b.wide)-len(b.wide) < additional {
			grown := make([]int64, len(b.wide), len(b.wide)+additional)
			copy(grown, b.wide)
			b.wide = grown
		}
		return
	}
	if cap(b.narrow)-len(b.narrow) < additional {
		grown := make([]int32, len(b.narrow), len(b.narrow)+additional)
		copy(grown, b.narrow)
		b.narrow = grown
	}
}

// Finish moves the offsets into an immutable buffer.
func (b *OffsetsBuilder) Finish() OffsetBuffer {
	out := OffsetBuffer{width: b.width, narrow: b.narrow, wide: b.wide}
	b.narrow, b.wide = nil, nil
	return out
}
