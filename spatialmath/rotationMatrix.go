package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// RotationMatrix is a 3x3 matrix. Elements are addressed by (row, column) regardless of the
// column-major storage of the underlying mgl64.Mat3.
// The zero value is not a rotation; use NewRotationMatrix or IdentityRotationMatrix.
type RotationMatrix struct {
	mat mgl64.Mat3
}

// NewRotationMatrix builds a matrix from its rows. No check is made that the result is orthonormal;
// see IsOrthonormal.
func NewRotationMatrix(rows [3][3]float64) *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Mat3FromRows(
		mgl64.Vec3{rows[0][0], rows[0][1], rows[0][2]},
		mgl64.Vec3{rows[1][0], rows[1][1], rows[1][2]},
		mgl64.Vec3{rows[2][0], rows[2][1], rows[2][2]},
	)}
}

// NewRotationMatrixFromSlices builds a matrix from a 3x3 nested slice, as read from configuration.
func NewRotationMatrixFromSlices(rows [][]float64) (*RotationMatrix, error) {
	if len(rows) != 3 {
		return nil, errors.Errorf("rotation matrix must have 3 rows, got %d", len(rows))
	}
	var data [3][3]float64
	for r, row := range rows {
		if len(row) != 3 {
			return nil, errors.Errorf("rotation matrix row %d must have 3 columns, got %d", r, len(row))
		}
		copy(data[r][:], row)
	}
	return NewRotationMatrix(data), nil
}

// IdentityRotationMatrix returns the rotation matrix representing no rotation.
func IdentityRotationMatrix() *RotationMatrix {
	return &RotationMatrix{mat: mgl64.Ident3()}
}

// At returns the value at row r and column c.
func (rm *RotationMatrix) At(r, c int) float64 {
	return rm.mat.At(r, c)
}

// Rows returns a copy of the matrix contents.
func (rm *RotationMatrix) Rows() [3][3]float64 {
	var rows [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rows[r][c] = rm.mat.At(r, c)
		}
	}
	return rows
}

// Col returns the c'th column, which is the image of the c'th basis vector.
func (rm *RotationMatrix) Col(c int) r3.Vector {
	col := rm.mat.Col(c)
	return r3.Vector{X: col[0], Y: col[1], Z: col[2]}
}

// Mul returns the matrix product rm * other.
func (rm *RotationMatrix) Mul(other *RotationMatrix) *RotationMatrix {
	return &RotationMatrix{mat: rm.mat.Mul3(other.mat)}
}

// Transpose returns the transpose, which is the inverse for an orthonormal matrix.
func (rm *RotationMatrix) Transpose() *RotationMatrix {
	return &RotationMatrix{mat: rm.mat.Transpose()}
}

// Inverse returns the general inverse of the matrix. Matrices read from configuration are not
// assumed to be orthonormal, so the transpose cannot be used blindly.
func (rm *RotationMatrix) Inverse() (*RotationMatrix, error) {
	var inv mat.Dense
	if err := inv.Inverse(rm.dense()); err != nil {
		return nil, errors.Wrap(err, "rotation matrix is not invertible")
	}
	var rows [3][3]float64
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			rows[r][c] = inv.At(r, c)
		}
	}
	return NewRotationMatrix(rows), nil
}

// IsOrthonormal reports whether the matrix is a proper rotation: M * M^T = I and det(M) = 1, within
// tol.
func (rm *RotationMatrix) IsOrthonormal(tol float64) bool {
	m := rm.dense()
	var prod mat.Dense
	prod.Mul(m, m.T())
	identity := mat.NewDiagDense(3, []float64{1, 1, 1})
	return mat.EqualApprox(&prod, identity, tol) && math.Abs(mat.Det(m)-1) <= tol
}

// Rotate applies the matrix to a vector.
func (rm *RotationMatrix) Rotate(v r3.Vector) r3.Vector {
	out := rm.mat.Mul3x1(mgl64.Vec3{v.X, v.Y, v.Z})
	return r3.Vector{X: out[0], Y: out[1], Z: out[2]}
}

// AlmostEqual reports whether every element of the two matrices is within tol.
func (rm *RotationMatrix) AlmostEqual(other *RotationMatrix, tol float64) bool {
	return rm.mat.ApproxFuncEqual(other.mat, func(a, b float64) bool {
		return math.Abs(a-b) <= tol
	})
}

func (rm *RotationMatrix) dense() *mat.Dense {
	data := make([]float64, 0, 9)
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			data = append(data, rm.mat.At(r, c))
		}
	}
	return mat.NewDense(3, 3, data)
}

// RotationMatrix returns the orientation in rotation matrix representation.
func (rm *RotationMatrix) RotationMatrix() *RotationMatrix {
	return rm
}

// Quaternion returns orientation in quaternion representation, with a non-negative real part.
// See: https://www.euclideanspace.com/maths/geometry/rotations/conversions/matrixToQuaternion/
func (rm *RotationMatrix) Quaternion() quat.Number {
	m := func(r, c int) float64 { return rm.mat.At(r, c) }
	var q quat.Number
	tr := m(0, 0) + m(1, 1) + m(2, 2)
	switch {
	case tr > 0:
		s := math.Sqrt(tr+1) * 2
		q = quat.Number{Real: 0.25 * s, Imag: (m(2, 1) - m(1, 2)) / s, Jmag: (m(0, 2) - m(2, 0)) / s, Kmag: (m(1, 0) - m(0, 1)) / s}
	case m(0, 0) > m(1, 1) && m(0, 0) > m(2, 2):
		s := math.Sqrt(1+m(0, 0)-m(1, 1)-m(2, 2)) * 2
		q = quat.Number{Real: (m(2, 1) - m(1, 2)) / s, Imag: 0.25 * s, Jmag: (m(0, 1) + m(1, 0)) / s, Kmag: (m(0, 2) + m(2, 0)) / s}
	case m(1, 1) > m(2, 2):
		s := math.Sqrt(1+m(1, 1)-m(0, 0)-m(2, 2)) * 2
		q = quat.Number{Real: (m(0, 2) - m(2, 0)) / s, Imag: (m(0, 1) + m(1, 0)) / s, Jmag: 0.25 * s, Kmag: (m(1, 2) + m(2, 1)) / s}
	default:
		s := math.Sqrt(1+m(2, 2)-m(0, 0)-m(1, 1)) * 2
		q = quat.Number{Real: (m(1, 0) - m(0, 1)) / s, Imag: (m(0, 2) + m(2, 0)) / s, Jmag: (m(1, 2) + m(2, 1)) / s, Kmag: 0.25 * s}
	}
	return canonical(Normalize(q))
}

// AxisAngles returns the orientation in axis angle representation.
func (rm *RotationMatrix) AxisAngles() *R4AA {
	aa := QuatToR4AA(rm.Quaternion())
	return &aa
}

// EulerAngles returns orientation in Euler angle representation.
func (rm *RotationMatrix) EulerAngles() *EulerAngles {
	return QuatToEulerAngles(rm.Quaternion())
}

// QuatToRotationMatrix converts a quat to a rotation matrix.
func QuatToRotationMatrix(q quat.Number) *RotationMatrix {
	q = Normalize(q)
	w, x, y, z := q.Real, q.Imag, q.Jmag, q.Kmag
	return NewRotationMatrix([3][3]float64{
		{1 - 2*(y*y+z*z), 2 * (x*y - w*z), 2 * (x*z + w*y)},
		{2 * (x*y + w*z), 1 - 2*(x*x+z*z), 2 * (y*z - w*x)},
		{2 * (x*z - w*y), 2 * (y*z + w*x), 1 - 2*(x*x+y*y)},
	})
}
