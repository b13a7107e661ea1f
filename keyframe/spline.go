package keyframe

import (
	"math"

	"github.com/viam-labs/campath/spatialmath"
)

// below this, a time bracket is treated as zero-length
const timeEpsilon = 1e-8

// relatedKeyFrames locates the four control keyframes for a query time. The
// returned indices i0..i3 satisfy time(i1) <= time <= time(i2) except at the
// ends, where they clamp to the first/last keyframe; i0 and i3 are the outer
// neighbors, reusing i1/i2 at the boundaries. The track must be non-empty with
// monotone times.
func (t *Track) relatedKeyFrames(time float64) [4]int {
	n := len(t.keyframes)

	i2 := 0
	for t.keyframes[i2].time < time && i2 < n-1 {
		i2++
	}

	i1 := i2
	if i1 > 0 && time < t.keyframes[i2].time {
		i1--
	}

	i0 := i1
	if i0 > 0 {
		i0--
	}

	i3 := i2
	if i3 < n-1 {
		i3++
	}

	return [4]int{i0, i1, i2, i3}
}

// evaluateAt interpolates the track at the given time: cubic Hermite for
// position, squad for orientation. A zero-length bracket collapses to the
// bracket's first keyframe. Tangents must be current (see recomputeTangents).
func (t *Track) evaluateAt(time float64) spatialmath.Pose {
	related := t.relatedKeyFrames(time)
	kf1 := t.keyframes[related[1]]
	kf2 := t.keyframes[related[2]]

	delta := kf2.pose.Position.Sub(kf1.pose.Position)
	v1 := delta.Mul(3.0).Sub(kf1.tangentPos.Mul(2.0)).Sub(kf2.tangentPos)
	v2 := delta.Mul(-2.0).Add(kf1.tangentPos).Add(kf2.tangentPos)

	alpha := 0.0
	dt := kf2.time - kf1.time
	if math.Abs(dt) >= timeEpsilon {
		alpha = (time - kf1.time) / dt
	}

	pos := kf1.pose.Position.Add(
		kf1.tangentPos.Add(v1.Add(v2.Mul(alpha)).Mul(alpha)).Mul(alpha))
	orient := spatialmath.Squad(
		kf1.pose.Orientation, kf1.tangentOrient, kf2.tangentOrient, kf2.pose.Orientation, alpha)

	return spatialmath.NewPose(pos, spatialmath.Normalize(orient))
}
