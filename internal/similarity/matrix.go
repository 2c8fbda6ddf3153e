// Package similarity computes the dense sentence similarity matrix of a chapter pair
// and its binary cache encoding.
package similarity

import (
	"encoding/binary"
	"fmt"
	"math"

	apperrors "github.com/hyperjump/interleave/internal/errors"
	"github.com/hyperjump/interleave/pkg/utils"
)

// Matrix is a dense row-major Rows×Cols matrix. Row i holds the similarities of source
// sentence i against every destination sentence.
type Matrix struct {
	Rows int
	Cols int
	Data []float32
}

// NewMatrix returns a zeroed rows×cols matrix.
func NewMatrix(rows, cols int) *Matrix {
	return &Matrix{Rows: rows, Cols: cols, Data: make([]float32, rows*cols)}
}

// FromRows builds a matrix from equal-length rows.
func FromRows(rows [][]float32) (*Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, apperrors.NewInput("matrix", "empty matrix")
	}
	m := NewMatrix(len(rows), len(rows[0]))
	for i, r := range rows {
		if len(r) != m.Cols {
			return nil, apperrors.NewInput("matrix", "row %d has %d columns, want %d", i, len(r), m.Cols)
		}
		copy(m.Data[i*m.Cols:], r)
	}
	return m, nil
}

// At returns entry (i, j).
func (m *Matrix) At(i, j int) float32 {
	return m.Data[i*m.Cols+j]
}

// Set sets entry (i, j).
func (m *Matrix) Set(i, j int, v float32) {
	m.Data[i*m.Cols+j] = v
}

// Row returns row i. The slice aliases the matrix storage.
func (m *Matrix) Row(i int) []float32 {
	return m.Data[i*m.Cols : (i+1)*m.Cols]
}

// Compute returns the cosine similarity of every source embedding against every
// destination embedding. Zero vectors have similarity 0 with everything.
func Compute(src, dst [][]float32) (*Matrix, error) {
	if len(src) == 0 {
		return nil, apperrors.NewInput("src", "no source sentences to compare")
	}
	if len(dst) == 0 {
		return nil, apperrors.NewInput("dst", "no destination sentences to compare")
	}
	dim := len(src[0])
	for _, side := range []struct {
		name string
		vecs [][]float32
	}{{"src", src}, {"dst", dst}} {
		for i, v := range side.vecs {
			if len(v) != dim {
				return nil, apperrors.NewInput(side.name, "embedding %d has dimension %d, want %d", i, len(v), dim)
			}
		}
	}

	dstNorms := make([]float64, len(dst))
	for j, v := range dst {
		dstNorms[j] = utils.NormL2(v)
	}

	m := NewMatrix(len(src), len(dst))
	for i, a := range src {
		na := utils.NormL2(a)
		row := m.Row(i)
		for j, b := range dst {
			if na == 0 || dstNorms[j] == 0 {
				continue
			}
			row[j] = float32(utils.Dot(a, b) / (na * dstNorms[j]))
		}
	}
	return m, nil
}

const (
	codecMagic   = "ISIM"
	codecVersion = 1
	headerSize   = 4 + 4 + 4 + 4
)

// MarshalBinary encodes the matrix as: magic "ISIM", version (4), rows (4), cols (4),
// then rows*cols little-endian float32 values.
func (m *Matrix) MarshalBinary() ([]byte, error) {
	if len(m.Data) != m.Rows*m.Cols {
		return nil, fmt.Errorf("matrix data has %d values, want %d", len(m.Data), m.Rows*m.Cols)
	}
	out := make([]byte, headerSize+4*len(m.Data))
	copy(out, codecMagic)
	binary.LittleEndian.PutUint32(out[4:], codecVersion)
	binary.LittleEndian.PutUint32(out[8:], uint32(m.Rows))
	binary.LittleEndian.PutUint32(out[12:], uint32(m.Cols))
	for i, v := range m.Data {
		binary.LittleEndian.PutUint32(out[headerSize+4*i:], math.Float32bits(v))
	}
	return out, nil
}

// UnmarshalMatrix decodes a matrix written by MarshalBinary.
func UnmarshalMatrix(b []byte) (*Matrix, error) {
	if len(b) < headerSize || string(b[:4]) != codecMagic {
		return nil, fmt.Errorf("not a similarity matrix")
	}
	if v := binary.LittleEndian.Uint32(b[4:]); v != codecVersion {
		return nil, fmt.Errorf("unsupported matrix version %d", v)
	}
	rows := binary.LittleEndian.Uint32(b[8:])
	cols := binary.LittleEndian.Uint32(b[12:])
	// rows*cols fits in uint64 for any pair of uint32.
	body := len(b) - headerSize
	if body%4 != 0 || uint64(rows)*uint64(cols) != uint64(body/4) {
		return nil, fmt.Errorf("matrix %dx%d does not match %d bytes of data", rows, cols, body)
	}
	m := NewMatrix(int(rows), int(cols))
	for i := range m.Data {
		m.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[headerSize+4*i:]))
	}
	return m, nil
}
