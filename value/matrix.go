package value

import "strconv"

// NewMatrix checks that rows describe a non-empty rectangular matrix and
// returns it.
func NewMatrix(rows [][]float64) (Matrix, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return Matrix{}, &DimensionError{Op: "Matrix", Msg: "matrix must have at least one row and column"}
	}
	for i, row := range rows {
		if len(row) != len(rows[0]) {
			return Matrix{}, &DimensionError{
				Op:  "Matrix",
				Msg: "row " + strconv.Itoa(i) + " has " + strconv.Itoa(len(row)) + " columns, want " + strconv.Itoa(len(rows[0])),
			}
		}
	}
	return Matrix{Rows: rows}, nil
}

// Dims returns the number of rows and columns of m.
func (m Matrix) Dims() (rows, cols int) {
	if len(m.Rows) == 0 {
		return 0, 0
	}
	return len(m.Rows), len(m.Rows[0])
}

func dims(m Matrix) string {
	r, c := m.Dims()
	return strconv.Itoa(r) + "x" + strconv.Itoa(c)
}

func (m Matrix) elementwise(n Matrix, op string, f func(a, b float64) float64) (Matrix, error) {
	mr, mc := m.Dims()
	nr, nc := n.Dims()
	if mr != nr || mc != nc {
		return Matrix{}, &DimensionError{Op: op, Msg: "matrices are " + dims(m) + " and " + dims(n)}
	}
	rows := make([][]float64, mr)
	for i := range rows {
		rows[i] = make([]float64, mc)
		for j := range rows[i] {
			rows[i][j] = f(m.Rows[i][j], n.Rows[i][j])
		}
	}
	return Matrix{Rows: rows}, nil
}

// Add returns m + n. The matrices must have equal dimensions.
func (m Matrix) Add(n Matrix) (Matrix, error) {
	return m.elementwise(n, "+", func(a, b float64) float64 { return a + b })
}

// Sub returns m - n. The matrices must have equal dimensions.
func (m Matrix) Sub(n Matrix) (Matrix, error) {
	return m.elementwise(n, "-", func(a, b float64) float64 { return a - b })
}

// Mul returns the matrix product m n.
func (m Matrix) Mul(n Matrix) (Matrix, error) {
	mr, mc := m.Dims()
	nr, nc := n.Dims()
	if mc != nr {
		return Matrix{}, &DimensionError{Op: "*", Msg: "cannot multiply " + dims(m) + " by " + dims(n)}
	}
	rows := make([][]float64, mr)
	for i := range rows {
		rows[i] = make([]float64, nc)
		for j := range rows[i] {
			var s float64
			for k := 0; k < mc; k++ {
				s += m.Rows[i][k] * n.Rows[k][j]
			}
			rows[i][j] = s
		}
	}
	return Matrix{Rows: rows}, nil
}

// MulVector returns the product of m and the column vector v.
func (m Matrix) MulVector(v Vector) (Vector, error) {
	mr, mc := m.Dims()
	if mc != len(v.Components) {
		return Vector{}, &DimensionError{Op: "*", Msg: "cannot multiply " + dims(m) + " matrix by vector of length " + strconv.Itoa(len(v.Components))}
	}
	r := make([]float64, mr)
	for i := range r {
		for k := 0; k < mc; k++ {
			r[i] += m.Rows[i][k] * v.Components[k]
		}
	}
	return Vector{Components: r}, nil
}

// Scale returns m with every element multiplied by k.
func (m Matrix) Scale(k float64) Matrix {
	rows := make([][]float64, len(m.Rows))
	for i, row := range m.Rows {
		rows[i] = make([]float64, len(row))
		for j, x := range row {
			rows[i][j] = x * k
		}
	}
	return Matrix{Rows: rows}
}

// Transpose returns the transpose of m.
func (m Matrix) Transpose() Matrix {
	mr, mc := m.Dims()
	rows := make([][]float64, mc)
	for j := range rows {
		rows[j] = make([]float64, mr)
		for i := range rows[j] {
			rows[j][i] = m.Rows[i][j]
		}
	}
	return Matrix{Rows: rows}
}

// minor returns m without row r and column c.
func (m Matrix) minor(r, c int) Matrix {
	rows := make([][]float64, 0, len(m.Rows)-1)
	for i, row := range m.Rows {
		if i == r {
			continue
		}
		nr := make([]float64, 0, len(row)-1)
		nr = append(nr, row[:c]...)
		nr = append(nr, row[c+1:]...)
		rows = append(rows, nr)
	}
	return Matrix{Rows: rows}
}

// MaxCofactorSize is the largest matrix whose determinant or inverse is
// computed. Cofactor expansion takes factorial time in the size.
const MaxCofactorSize = 10

// Determinant computes the determinant of a square matrix by cofactor
// expansion along the first row.
func (m Matrix) Determinant() (float64, error) {
	mr, mc := m.Dims()
	if mr != mc || mr == 0 {
		return 0, &DimensionError{Op: "det", Msg: "matrix must be square, not " + dims(m)}
	}
	if mr > MaxCofactorSize {
		return 0, &DimensionError{Op: "det", Msg: "matrix is " + dims(m) + ", larger than " + strconv.Itoa(MaxCofactorSize) + "x" + strconv.Itoa(MaxCofactorSize)}
	}
	return m.det(), nil
}

func (m Matrix) det() float64 {
	a := m.Rows
	switch len(a) {
	case 1:
		return a[0][0]
	case 2:
		return a[0][0]*a[1][1] - a[0][1]*a[1][0]
	}
	var d float64
	sign := 1.0
	for c, x := range a[0] {
		if x != 0 {
			d += sign * x * m.minor(0, c).det()
		}
		sign = -sign
	}
	return d
}

// Inverse computes the inverse of a square matrix as its adjugate divided by
// its determinant.
func (m Matrix) Inverse() (Matrix, error) {
	d, err := m.Determinant()
	if err != nil {
		err.(*DimensionError).Op = "inverse"
		return Matrix{}, err
	}
	if d == 0 {
		return Matrix{}, &SingularMatrixError{M: m}
	}
	n := len(m.Rows)
	if n == 1 {
		return Matrix{Rows: [][]float64{{1 / d}}}, nil
	}
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		for j := range rows[i] {
			// adj(m)[i][j] is the (j, i) cofactor.
			c := m.minor(j, i).det()
			if (i+j)%2 == 1 {
				c = -c
			}
			rows[i][j] = c / d
		}
	}
	return Matrix{Rows: rows}, nil
}

// Identity returns the n×n identity matrix.
func Identity(n int) Matrix {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
		rows[i][i] = 1
	}
	return Matrix{Rows: rows}
}
