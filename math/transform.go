// math/transform.go
// Copyright(c) 2025 metproducts contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

// Matrix3 is a 2D affine transformation in homogeneous coordinates.
type Matrix3 [3][3]float64

func MakeMatrix3(m00, m01, m02, m10, m11, m12, m20, m21, m22 float64) Matrix3 {
	return Matrix3{
		{m00, m01, m02},
		{m10, m11, m12},
		{m20, m21, m22}}
}

func Identity3x3() Matrix3 {
	var m Matrix3
	m[0][0] = 1
	m[1][1] = 1
	m[2][2] = 1
	return m
}

func (m Matrix3) PostMultiply(m2 Matrix3) Matrix3 {
	var result Matrix3
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			result[i][j] = m[i][0]*m2[0][j] + m[i][1]*m2[1][j] + m[i][2]*m2[2][j]
		}
	}
	return result
}

func (m Matrix3) Scale(x, y float64) Matrix3 {
	return m.PostMultiply(MakeMatrix3(x, 0, 0, 0, y, 0, 0, 0, 1))
}

func (m Matrix3) Translate(x, y float64) Matrix3 {
	return m.PostMultiply(MakeMatrix3(1, 0, x, 0, 1, y, 0, 0, 1))
}

func (m Matrix3) Determinant() float64 {
	minor12 := m[1][1]*m[2][2] - m[1][2]*m[2][1]
	minor02 := m[1][0]*m[2][2] - m[1][2]*m[2][0]
	minor01 := m[1][0]*m[2][1] - m[1][1]*m[2][0]
	return m[0][2]*minor01 + (m[0][0]*minor12 - m[0][1]*minor02)
}

func (m Matrix3) Inverse() Matrix3 {
	invDet := 1 / m.Determinant()
	var r Matrix3
	r[0][0] = invDet * (m[1][1]*m[2][2] - m[1][2]*m[2][1])
	r[1][0] = invDet * (m[1][2]*m[2][0] - m[1][0]*m[2][2])
	r[2][0] = invDet * (m[1][0]*m[2][1] - m[1][1]*m[2][0])
	r[0][1] = invDet * (m[0][2]*m[2][1] - m[0][1]*m[2][2])
	r[1][1] = invDet * (m[0][0]*m[2][2] - m[0][2]*m[2][0])
	r[2][1] = invDet * (m[0][1]*m[2][0] - m[0][0]*m[2][1])
	r[0][2] = invDet * (m[0][1]*m[1][2] - m[0][2]*m[1][1])
	r[1][2] = invDet * (m[0][2]*m[1][0] - m[0][0]*m[1][2])
	r[2][2] = invDet * (m[0][0]*m[1][1] - m[0][1]*m[1][0])
	return r
}

func (m Matrix3) TransformPoint(x, y float64) (float64, float64) {
	return m[0][0]*x + m[0][1]*y + m[0][2], m[1][0]*x + m[1][1]*y + m[1][2]
}

// WindowToViewport returns the transformation taking the extent e onto
// the pixel rectangle with upper-left corner (px, py) and size w x h;
// projected y increases upward while pixel y increases downward.
func WindowToViewport(e Extent, px, py, w, h float64) Matrix3 {
	return Identity3x3().
		Translate(px, py+h).
		Scale(w/e.Width(), -h/e.Height()).
		Translate(-e.X0, -e.Y0)
}
