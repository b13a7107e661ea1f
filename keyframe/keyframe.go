// Package keyframe implements keyframe-based motion interpolation: a sparse,
// time-stamped track of rigid-body poses is resampled into a smooth, dense
// trajectory using a cubic Hermite spline for position and spherical cubic
// (squad) interpolation for orientation.
package keyframe

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/campath/spatialmath"
)

// KeyFrame is a pose stamped with a time, along with the derived tangents the
// spline needs at that point. Tangents are recomputed whenever the owning
// track changes and cannot be set directly.
type KeyFrame struct {
	pose spatialmath.Pose
	time float64

	tangentPos    r3.Vector
	tangentOrient quat.Number
}

func newKeyFrame(pose spatialmath.Pose, time float64) *KeyFrame {
	pose.Orientation = spatialmath.Normalize(pose.Orientation)
	return &KeyFrame{pose: pose, time: time}
}

// Pose returns the keyframe's pose.
func (kf *KeyFrame) Pose() spatialmath.Pose {
	return kf.pose
}

// Time returns the keyframe's time stamp.
func (kf *KeyFrame) Time() float64 {
	return kf.time
}

// flipOrientationIfNeeded negates the orientation when it sits in the opposite
// octant from prev. q and -q are the same rotation; keeping consecutive
// orientations on the same side stops the interpolation from taking the long
// way around.
func (kf *KeyFrame) flipOrientationIfNeeded(prev quat.Number) {
	if spatialmath.Dot(prev, kf.pose.Orientation) < 0 {
		kf.pose.Orientation = spatialmath.Flip(kf.pose.Orientation)
	}
}

// computeTangent derives the position and orientation tangents from the
// keyframe's immediate neighbors. Neighboring segments can differ a lot in
// length; the farther neighbor's offset is rescaled to the nearer one's
// distance before averaging so the tangent does not overshoot short segments.
func (kf *KeyFrame) computeTangent(prev, next *KeyFrame) {
	pos := kf.pose.Position
	sdPrev := prev.pose.Position.Sub(pos).Norm2()
	sdNext := next.pose.Position.Sub(pos).Norm2()
	if sdPrev < sdNext {
		newNext := pos.Add(next.pose.Position.Sub(pos).Normalize().Mul(math.Sqrt(sdPrev)))
		kf.tangentPos = newNext.Sub(prev.pose.Position).Mul(0.5)
	} else {
		newPrev := pos.Add(prev.pose.Position.Sub(pos).Normalize().Mul(math.Sqrt(sdNext)))
		kf.tangentPos = next.pose.Position.Sub(newPrev).Mul(0.5)
	}

	kf.tangentOrient = spatialmath.SquadTangent(prev.pose.Orientation, kf.pose.Orientation, next.pose.Orientation)
}
