package math3d

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Quaternion is a unit rotation quaternion. It wraps gonum's quat.Number
// rather than reinventing one. Pose uses it for the body orientation, while
// the teacher's Euler-angle rotations stay in use for single-axis leg joints:
// different representations for different jobs within the same module.
type Quaternion struct {
	q quat.Number
}

// IdentityQuaternion represents no rotation.
var IdentityQuaternion = Quaternion{quat.Number{Real: 1}}

// MakeQuaternionFromEuler builds a unit quaternion from roll/pitch/yaw, given
// in radians, using the body-frame convention roll(X) -> pitch(Y) -> yaw(Z).
func MakeQuaternionFromEuler(roll, pitch, yaw float64) Quaternion {
	cr, sr := math.Cos(roll*0.5), math.Sin(roll*0.5)
	cp, sp := math.Cos(pitch*0.5), math.Sin(pitch*0.5)
	cy, sy := math.Cos(yaw*0.5), math.Sin(yaw*0.5)

	return Quaternion{quat.Number{
		Real: cr*cp*cy + sr*sp*sy,
		Imag: sr*cp*cy - cr*sp*sy,
		Jmag: cr*sp*cy + sr*cp*sy,
		Kmag: cr*cp*sy - sr*sp*cy,
	}}.Normalize()
}

func (q Quaternion) String() string {
	r, p, y := q.Euler()
	return fmt.Sprintf("&Quat{roll=%+.2f° pitch=%+.2f° yaw=%+.2f°}", deg(r), deg(p), deg(y))
}

// Normalize returns q scaled to unit length. The identity quaternion is
// returned for a zero quaternion, which should never occur in practice but
// is cheaper to guard against here than to chase down later as a NaN.
func (q Quaternion) Normalize() Quaternion {
	n := quat.Abs(q.q)
	if n == 0 {
		return IdentityQuaternion
	}
	return Quaternion{quat.Scale(1/n, q.q)}
}

// Multiply composes two rotations: applying the result is equivalent to
// applying qq first, then q.
func (q Quaternion) Multiply(qq Quaternion) Quaternion {
	return Quaternion{quat.Mul(q.q, qq.q)}.Normalize()
}

// Inverse returns the rotation that undoes q. For a unit quaternion this is
// the conjugate.
func (q Quaternion) Inverse() Quaternion {
	return Quaternion{quat.Conj(q.q)}
}

// Rotate applies the rotation to v, returning the rotated vector.
func (q Quaternion) Rotate(v Vector3) Vector3 {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q.q, p), quat.Conj(q.q))
	return Vector3{r.Imag, r.Jmag, r.Kmag}
}

// Euler decomposes the quaternion back into roll/pitch/yaw radians, using
// the same convention as MakeQuaternionFromEuler.
func (q Quaternion) Euler() (roll, pitch, yaw float64) {
	w, x, y, z := q.q.Real, q.q.Imag, q.q.Jmag, q.q.Kmag

	sinrCosp := 2 * (w*x + y*z)
	cosrCosp := 1 - 2*(x*x+y*y)
	roll = math.Atan2(sinrCosp, cosrCosp)

	sinp := 2 * (w*y - z*x)
	if sinp >= 1 {
		pitch = math.Pi / 2
	} else if sinp <= -1 {
		pitch = -math.Pi / 2
	} else {
		pitch = math.Asin(sinp)
	}

	sinyCosp := 2 * (w*z + x*y)
	cosyCosp := 1 - 2*(y*y+z*z)
	yaw = math.Atan2(sinyCosp, cosyCosp)
	return
}

func deg(rad float64) float64 {
	return rad * 180 / math.Pi
}
