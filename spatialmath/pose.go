// Package spatialmath defines the spatial math primitives used to describe
// rigid-body poses: 3D position vectors and unit quaternion orientations.
package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose is an immutable rigid-body pose: a position in 3D space together with
// a unit quaternion orientation.
type Pose struct {
	Position    r3.Vector
	Orientation quat.Number
}

// NewPose returns a Pose at the given point with the given orientation.
func NewPose(point r3.Vector, orientation quat.Number) Pose {
	return Pose{Position: point, Orientation: orientation}
}

// NewZeroPose returns a Pose at the origin with no rotation.
func NewZeroPose() Pose {
	return Pose{Orientation: quat.Number{Real: 1}}
}

// NewPoseFromPoint returns a Pose at the given point with no rotation.
func NewPoseFromPoint(point r3.Vector) Pose {
	return Pose{Position: point, Orientation: quat.Number{Real: 1}}
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately
// the same, within the given tolerance for both position and orientation.
func PoseAlmostEqual(a, b Pose, tol float64) bool {
	return R3VectorAlmostEqual(a.Position, b.Position, tol) &&
		QuaternionAlmostEqual(a.Orientation, b.Orientation, tol)
}

// R3VectorAlmostEqual compares two r3.Vector objects and will return true if they
// are within the given tolerance of one another.
func R3VectorAlmostEqual(a, b r3.Vector, tol float64) bool {
	return a.Sub(b).Norm() < tol
}
