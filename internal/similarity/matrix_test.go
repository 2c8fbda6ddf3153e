package similarity

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"

	apperrors "github.com/hyperjump/interleave/internal/errors"
)

func TestCompute(t *testing.T) {
	src := [][]float32{{1, 0}, {0, 2}, {0, 0}}
	dst := [][]float32{{3, 0}, {1, 1}}
	m, err := Compute(src, dst)
	if err != nil {
		t.Fatal(err)
	}
	if m.Rows != 3 || m.Cols != 2 {
		t.Fatalf("shape %dx%d, want 3x2", m.Rows, m.Cols)
	}
	tests := []struct {
		i, j int
		want float64
	}{
		{0, 0, 1},
		{0, 1, 1 / math.Sqrt2},
		{1, 0, 0},
		{1, 1, 1 / math.Sqrt2},
		{2, 0, 0},
		{2, 1, 0},
	}
	for _, tt := range tests {
		if got := float64(m.At(tt.i, tt.j)); math.Abs(got-tt.want) > 1e-6 {
			t.Errorf("At(%d,%d) = %f, want %f", tt.i, tt.j, got, tt.want)
		}
	}
}

func TestCompute_errors(t *testing.T) {
	tests := []struct {
		name     string
		src, dst [][]float32
	}{
		{"empty src", nil, [][]float32{{1}}},
		{"empty dst", [][]float32{{1}}, nil},
		{"dimension mismatch", [][]float32{{1, 0}}, [][]float32{{1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.src, tt.dst)
			if !errors.Is(err, apperrors.ErrInput) {
				t.Errorf("expected input error, got %v", err)
			}
		})
	}
}

func TestCompute_dimensionErrorNamesFirstBadSide(t *testing.T) {
	tests := []struct {
		name     string
		src, dst [][]float32
		field    string
	}{
		{"dst only", [][]float32{{1, 0}}, [][]float32{{1}}, "dst"},
		{"both sides", [][]float32{{1, 0}, {1}}, [][]float32{{1}}, "src"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for run := 0; run < 20; run++ {
				_, err := Compute(tt.src, tt.dst)
				var inputErr *apperrors.InputError
				if !errors.As(err, &inputErr) || inputErr.Field != tt.field {
					t.Fatalf("run %d: got %v, want input error on %s", run, err, tt.field)
				}
			}
		})
	}
}

func TestUnmarshalMatrix_oversizedHeader(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols uint32
		data       int
	}{
		{"product wraps", 1 << 31, 1 << 31, 0},
		{"max dimensions", math.MaxUint32, math.MaxUint32, 8},
		{"rows without data", 1 << 20, 1, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := make([]byte, 16+tt.data)
			copy(b, codecMagic)
			binary.LittleEndian.PutUint32(b[4:], codecVersion)
			binary.LittleEndian.PutUint32(b[8:], tt.rows)
			binary.LittleEndian.PutUint32(b[12:], tt.cols)
			m, err := UnmarshalMatrix(b)
			if err == nil {
				t.Fatalf("expected error, got %dx%d matrix", m.Rows, m.Cols)
			}
		})
	}
}

func TestMatrix_codec(t *testing.T) {
	m, err := FromRows([][]float32{{0.5, -1, 2}, {0, 0.25, 1}})
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	got, err := UnmarshalMatrix(b)
	if err != nil {
		t.Fatal(err)
	}
	if got.Rows != 2 || got.Cols != 3 || got.At(0, 1) != -1 || got.At(1, 1) != 0.25 {
		t.Errorf("decoded %+v", got)
	}

	if _, err := UnmarshalMatrix(b[:len(b)-1]); err == nil {
		t.Error("expected error for truncated data")
	}
	bad := append([]byte("NOPE"), b[4:]...)
	if _, err := UnmarshalMatrix(bad); err == nil {
		t.Error("expected error for wrong magic")
	}
}

func TestFromRows_ragged(t *testing.T) {
	if _, err := FromRows([][]float32{{1, 2}, {3}}); !errors.Is(err, apperrors.ErrInput) {
		t.Errorf("expected input error, got %v", err)
	}
}
