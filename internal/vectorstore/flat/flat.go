// Package flat implements an exact nearest-neighbor index over squared
// Euclidean distance with a compact binary persistence format.
package flat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"

	"tradecoach/internal/domain"
)

// Index is an immutable flat L2 index. Vectors are stored contiguously in
// insertion order; a vector's position is its insertion index.
type Index struct {
	dimension int
	count     int
	data      []float32
}

var _ domain.VectorIndex = (*Index)(nil)

// Build creates an index from vectors that all share the dimension of the
// first one.
func Build(vectors []domain.Vector) (*Index, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("build flat index: %w", domain.ErrCorpusEmpty)
	}
	dim := len(vectors[0])
	if dim == 0 {
		return nil, fmt.Errorf("build flat index: %w: zero-length vector", domain.ErrDimensionMismatch)
	}
	data := make([]float32, 0, dim*len(vectors))
	for i, v := range vectors {
		if len(v) != dim {
			return nil, fmt.Errorf("build flat index: %w: vector %d has %d components, want %d",
				domain.ErrDimensionMismatch, i, len(v), dim)
		}
		data = append(data, v...)
	}
	return &Index{dimension: dim, count: len(vectors), data: data}, nil
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int { return x.count }

// Dim returns the vector dimension.
func (x *Index) Dim() int { return x.dimension }

// Vector returns a copy of the vector stored at pos.
func (x *Index) Vector(pos int) domain.Vector {
	v := make(domain.Vector, x.dimension)
	copy(v, x.row(pos))
	return v
}

func (x *Index) row(pos int) []float32 {
	return x.data[pos*x.dimension : (pos+1)*x.dimension]
}

// Search returns up to k neighbors in ascending distance order. Equal
// distances are ordered by position, earliest first.
func (x *Index) Search(query domain.Vector, k int) ([]domain.Neighbor, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("search flat index: %w: query has %d components, want %d",
			domain.ErrDimensionMismatch, len(query), x.dimension)
	}
	if k <= 0 {
		return []domain.Neighbor{}, nil
	}
	hits := make([]domain.Neighbor, x.count)
	for i := 0; i < x.count; i++ {
		hits[i] = domain.Neighbor{Position: i, Distance: squaredL2(x.row(i), query)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Distance < hits[j].Distance
	})
	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func squaredL2(a, b []float32) float64 {
	sum := 0.0
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Binary layout, little-endian:
//
//	magic   [4]byte "TCFL"
//	version uint16
//	dim     uint32
//	count   uint64
//	data    count*dim float32 bit patterns
const (
	formatVersion uint16 = 1
	headerSize           = 4 + 2 + 4 + 8
)

var magic = [4]byte{'T', 'C', 'F', 'L'}

// Persist encodes the index. Restore(Persist()) reproduces it exactly.
func (x *Index) Persist() []byte {
	buf := make([]byte, headerSize+4*len(x.data))
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:6], formatVersion)
	binary.LittleEndian.PutUint32(buf[6:10], uint32(x.dimension))
	binary.LittleEndian.PutUint64(buf[10:18], uint64(x.count))
	off := headerSize
	for _, f := range x.data {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	return buf
}

// Restore decodes an index produced by Persist.
func Restore(data []byte) (*Index, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header truncated (%d bytes)", domain.ErrCorruptIndex, len(data))
	}
	if !bytes.Equal(data[0:4], magic[:]) {
		return nil, fmt.Errorf("%w: bad magic %q", domain.ErrCorruptIndex, data[0:4])
	}
	if v := binary.LittleEndian.Uint16(data[4:6]); v != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", domain.ErrCorruptIndex, v)
	}
	dim := binary.LittleEndian.Uint32(data[6:10])
	if dim == 0 {
		return nil, fmt.Errorf("%w: zero dimension", domain.ErrCorruptIndex)
	}
	count := binary.LittleEndian.Uint64(data[10:18])
	if count == 0 {
		return nil, fmt.Errorf("%w: no vectors", domain.ErrCorruptIndex)
	}
	body := data[headerSize:]
	if count > uint64(len(body))/4/uint64(dim) || uint64(len(body)) != count*uint64(dim)*4 {
		return nil, fmt.Errorf("%w: body is %d bytes, want %d vectors of dim %d",
			domain.ErrCorruptIndex, len(body), count, dim)
	}
	values := make([]float32, len(body)/4)
	for i := range values {
		values[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[i*4:]))
	}
	return &Index{dimension: int(dim), count: int(count), data: values}, nil
}
