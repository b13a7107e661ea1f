package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// near-parallel quaternions get linearly interpolated to avoid a vanishing sine
const slerpLinearThreshold = 0.01

// Dot returns the 4D dot product of two quaternions.
func Dot(q1, q2 quat.Number) float64 {
	return q1.Real*q2.Real + q1.Imag*q2.Imag + q1.Jmag*q2.Jmag + q1.Kmag*q2.Kmag
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same
// orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}

// Normalize a quaternion, returning its, versor (unit quaternion).
func Normalize(q quat.Number) quat.Number {
	length := math.Sqrt(Dot(q, q))
	if math.Abs(length-1.0) < 1e-10 {
		return q
	}
	if length == 0 {
		return quat.Number{Real: 1}
	}
	return quat.Scale(1/length, q)
}

// Slerp spherically interpolates between two quaternions. t is expected in [0, 1];
// the sign of q2 is flipped if that gives the shorter great-arc path.
func Slerp(q1, q2 quat.Number, t float64) quat.Number {
	return slerp(q1, q2, t, true)
}

func slerp(q1, q2 quat.Number, t float64, allowFlip bool) quat.Number {
	cosAngle := Dot(q1, q2)

	var c1, c2 float64
	if 1.0-math.Abs(cosAngle) < slerpLinearThreshold {
		c1 = 1.0 - t
		c2 = t
	} else {
		angle := math.Acos(math.Abs(cosAngle))
		sinAngle := math.Sin(angle)
		c1 = math.Sin(angle*(1.0-t)) / sinAngle
		c2 = math.Sin(angle*t) / sinAngle
	}

	if allowFlip && cosAngle < 0 {
		c1 = -c1
	}

	return quat.Add(quat.Scale(c1, q1), quat.Scale(c2, q2))
}

// SquadTangent computes the control quaternion at center used by Squad to pass
// smoothly through the sequence before, center, after.
func SquadTangent(before, center, after quat.Number) quat.Number {
	l1 := quat.Log(quat.Mul(quat.Inv(center), before))
	l2 := quat.Log(quat.Mul(quat.Inv(center), after))
	e := quat.Scale(-0.25, quat.Add(l1, l2))
	return quat.Mul(center, quat.Exp(e))
}

// Squad performs spherical cubic interpolation between q1 and q2 at parameter t,
// steered by the tangent control quaternions tg1 and tg2.
func Squad(q1, tg1, tg2, q2 quat.Number, t float64) quat.Number {
	ab := slerp(q1, q2, t, true)
	tg := slerp(tg1, tg2, t, false)
	return slerp(ab, tg, 2*t*(1-t), false)
}

// QuaternionAlmostEqual will return a bool describing whether 2 quaternions represent
// approximately the same orientation. q and -q are the same rotation, so both signs
// are checked.
func QuaternionAlmostEqual(q1, q2 quat.Number, tol float64) bool {
	diff := quat.Sub(q1, q2)
	if math.Sqrt(Dot(diff, diff)) < tol {
		return true
	}
	diff = quat.Sub(q1, Flip(q2))
	return math.Sqrt(Dot(diff, diff)) < tol
}
