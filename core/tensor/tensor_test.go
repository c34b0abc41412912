package tensor

import (
	"math"
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		data    []float64
		shape   []int
		wantErr bool
	}{
		{
			name:  "2x3 matrix",
			data:  []float64{1, 2, 3, 4, 5, 6},
			shape: []int{2, 3},
		},
		{
			name:  "3-way tensor",
			data:  make([]float64, 24),
			shape: []int{2, 3, 4},
		},
		{
			name:  "scalar-like single axis",
			data:  []float64{1, 2, 3},
			shape: []int{3},
		},
		{
			name:    "no shape",
			data:    []float64{1},
			shape:   nil,
			wantErr: true,
		},
		{
			name:    "size mismatch",
			data:    []float64{1, 2, 3},
			shape:   []int{2, 2},
			wantErr: true,
		},
		{
			name:    "non-positive dimension",
			data:    []float64{},
			shape:   []int{0, 2},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, err := New(tt.data, tt.shape...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if tr.NDim() != len(tt.shape) {
				t.Errorf("NDim() = %d, want %d", tr.NDim(), len(tt.shape))
			}
			if tr.Size() != len(tt.data) {
				t.Errorf("Size() = %d, want %d", tr.Size(), len(tt.data))
			}
		})
	}
}

func TestAtSetRowMajor(t *testing.T) {
	tr, err := New([]float64{
		// i=0
		0, 1, 2, 3,
		4, 5, 6, 7,
		8, 9, 10, 11,
		// i=1
		12, 13, 14, 15,
		16, 17, 18, 19,
		20, 21, 22, 23,
	}, 2, 3, 4)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Row-major: offset(i,j,k) = i*12 + j*4 + k
	if got := tr.At(1, 2, 3); got != 23 {
		t.Errorf("At(1,2,3) = %v, want 23", got)
	}
	if got := tr.At(0, 1, 2); got != 6 {
		t.Errorf("At(0,1,2) = %v, want 6", got)
	}

	tr.Set(-1, 1, 0, 0)
	if got := tr.At(1, 0, 0); got != -1 {
		t.Errorf("At(1,0,0) after Set = %v, want -1", got)
	}
}

func TestUnfold(t *testing.T) {
	// 2x3x2 tensor with entries 0..11 in row-major order.
	data := make([]float64, 12)
	for i := range data {
		data[i] = float64(i)
	}
	tr, err := New(data, 2, 3, 2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		name     string
		axis     int
		wantRows int
		wantCols int
		want     [][]float64
	}{
		{
			name:     "mode 0",
			axis:     0,
			wantRows: 2,
			wantCols: 6,
			want: [][]float64{
				{0, 1, 2, 3, 4, 5},
				{6, 7, 8, 9, 10, 11},
			},
		},
		{
			name:     "mode 1",
			axis:     1,
			wantRows: 3,
			wantCols: 4,
			// col = i*2 + k for remaining axes (i, k)
			want: [][]float64{
				{0, 1, 6, 7},
				{2, 3, 8, 9},
				{4, 5, 10, 11},
			},
		},
		{
			name:     "mode 2",
			axis:     2,
			wantRows: 2,
			wantCols: 6,
			// col = i*3 + j for remaining axes (i, j)
			want: [][]float64{
				{0, 2, 4, 6, 8, 10},
				{1, 3, 5, 7, 9, 11},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := tr.Unfold(tt.axis)
			if err != nil {
				t.Fatalf("Unfold(%d) error = %v", tt.axis, err)
			}
			r, c := m.Dims()
			if r != tt.wantRows || c != tt.wantCols {
				t.Fatalf("Unfold(%d) dims = (%d,%d), want (%d,%d)", tt.axis, r, c, tt.wantRows, tt.wantCols)
			}
			for i := 0; i < r; i++ {
				for j := 0; j < c; j++ {
					if m.At(i, j) != tt.want[i][j] {
						t.Errorf("Unfold(%d)[%d,%d] = %v, want %v", tt.axis, i, j, m.At(i, j), tt.want[i][j])
					}
				}
			}
		})
	}

	if _, err := tr.Unfold(3); err == nil {
		t.Errorf("Unfold(3) expected axis out of range error")
	}
}

func TestFiniteHandling(t *testing.T) {
	tr, err := New([]float64{1, math.NaN(), 3, math.Inf(1)}, 2, 2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if got := tr.CountFinite(); got != 2 {
		t.Errorf("CountFinite() = %d, want 2", got)
	}

	filled := tr.ZeroFillNonFinite()
	if filled.At(0, 1) != 0 || filled.At(1, 1) != 0 {
		t.Errorf("ZeroFillNonFinite left non-finite entries: %v", filled.Data())
	}
	if filled.At(0, 0) != 1 || filled.At(1, 0) != 3 {
		t.Errorf("ZeroFillNonFinite changed finite entries: %v", filled.Data())
	}

	// Receiver untouched
	if !math.IsNaN(tr.At(0, 1)) {
		t.Errorf("ZeroFillNonFinite mutated the receiver")
	}
}

func TestNorm(t *testing.T) {
	tr, err := New([]float64{3, 4, 0, 0}, 2, 2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := tr.Norm(); math.Abs(got-5) > 1e-12 {
		t.Errorf("Norm() = %v, want 5", got)
	}
}

func TestCopyIndependence(t *testing.T) {
	tr, _ := Ones(2, 2)
	cp := tr.Copy()
	cp.Set(9, 0, 0)
	if tr.At(0, 0) != 1 {
		t.Errorf("Copy shares storage with original")
	}
}
