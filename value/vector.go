package value

import (
	"math"
	"strconv"
)

func (v Vector) sameLen(w Vector, op string) error {
	if len(v.Components) != len(w.Components) {
		return &DimensionError{
			Op:  op,
			Msg: "vectors have lengths " + strconv.Itoa(len(v.Components)) + " and " + strconv.Itoa(len(w.Components)),
		}
	}
	return nil
}

// Add returns v + w. The vectors must have equal lengths.
func (v Vector) Add(w Vector) (Vector, error) {
	if err := v.sameLen(w, "+"); err != nil {
		return Vector{}, err
	}
	r := make([]float64, len(v.Components))
	for i := range r {
		r[i] = v.Components[i] + w.Components[i]
	}
	return Vector{Components: r}, nil
}

// Sub returns v - w. The vectors must have equal lengths.
func (v Vector) Sub(w Vector) (Vector, error) {
	if err := v.sameLen(w, "-"); err != nil {
		return Vector{}, err
	}
	r := make([]float64, len(v.Components))
	for i := range r {
		r[i] = v.Components[i] - w.Components[i]
	}
	return Vector{Components: r}, nil
}

// Scale returns v with every component multiplied by k.
func (v Vector) Scale(k float64) Vector {
	r := make([]float64, len(v.Components))
	for i, x := range v.Components {
		r[i] = x * k
	}
	return Vector{Components: r}
}

// Dot returns the dot product of v and w.
func (v Vector) Dot(w Vector) (float64, error) {
	if err := v.sameLen(w, "dot"); err != nil {
		return 0, err
	}
	var s float64
	for i := range v.Components {
		s += v.Components[i] * w.Components[i]
	}
	return s, nil
}

// Cross returns the cross product of two 3-dimensional vectors.
func (v Vector) Cross(w Vector) (Vector, error) {
	if len(v.Components) != 3 || len(w.Components) != 3 {
		return Vector{}, &DimensionError{Op: "cross", Msg: "cross product is only defined for 3-dimensional vectors"}
	}
	a, b := v.Components, w.Components
	return Vector{Components: []float64{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}}, nil
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	var s float64
	for _, x := range v.Components {
		s += x * x
	}
	return math.Sqrt(s)
}
