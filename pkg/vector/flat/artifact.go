package flat

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/lexfindco/lexfind/pkg/vector"
)

// Binary artifact layout, all little-endian:
//
//	dim   uint32
//	count uint32
//	per entry: idLen uint32, id bytes, vec float32[dim]
//
// The artifact is a build-time output of the offline indexing pipeline and
// is loaded exactly once at process start.

// MarshalBinary serializes the index.
func (i *Index) MarshalBinary() ([]byte, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	size := 8
	for pos, id := range i.ids {
		size += 4 + len(id) + 4*len(i.vecs[pos])
	}

	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(i.dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(i.ids)))
	for pos, id := range i.ids {
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id)))
		out = append(out, id...)
		for _, f := range i.vecs[pos] {
			out = binary.LittleEndian.AppendUint32(out, math.Float32bits(f))
		}
	}
	return out, nil
}

// UnmarshalBinary reconstructs the index from a serialized artifact.
// The artifact's dimension must match the index's configured dimension.
func (i *Index) UnmarshalBinary(data []byte) error {
	if len(data) < 8 {
		return errors.New("index artifact truncated")
	}

	off := 0
	u32 := func() (uint32, error) {
		if off+4 > len(data) {
			return 0, errors.New("index artifact truncated")
		}
		v := binary.LittleEndian.Uint32(data[off : off+4])
		off += 4
		return v, nil
	}

	dim, _ := u32()
	count, _ := u32()
	if int(dim) != i.dim {
		return fmt.Errorf("%w: artifact dimension %d, index expects %d",
			vector.ErrDimensionMismatch, dim, i.dim)
	}
	if count == 0 {
		return vector.ErrEmptyCorpus
	}

	ids := make([]string, count)
	vecs := make([][]float32, count)
	for n := range count {
		idLen, err := u32()
		if err != nil {
			return err
		}
		if off+int(idLen) > len(data) {
			return errors.New("index artifact truncated")
		}
		ids[n] = string(data[off : off+int(idLen)])
		off += int(idLen)

		vec := make([]float32, dim)
		for j := range vec {
			bits, err := u32()
			if err != nil {
				return err
			}
			vec[j] = math.Float32frombits(bits)
		}
		vecs[n] = vec
	}

	return i.Build(ids, vecs)
}

// WriteFile persists the index artifact to path.
func (i *Index) WriteFile(path string) error {
	data, err := i.MarshalBinary()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing index artifact: %w", err)
	}
	return nil
}

// ReadFile loads a persisted index artifact and returns a ready-to-search
// index with the artifact's dimension.
func ReadFile(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading index artifact: %w", err)
	}
	if len(data) < 4 {
		return nil, errors.New("index artifact truncated")
	}

	idx, err := New(int(binary.LittleEndian.Uint32(data[:4])))
	if err != nil {
		return nil, err
	}
	if err := idx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return idx, nil
}
