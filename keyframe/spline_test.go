package keyframe

import (
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/viam-labs/campath/spatialmath"
)

func collinearTrack(t *testing.T) *Track {
	t.Helper()
	tr := NewTrack(golog.NewTestLogger(t))
	test.That(t, tr.Append(pt(0, 0, 0), 0), test.ShouldBeNil)
	test.That(t, tr.Append(pt(1, 0, 0), 1), test.ShouldBeNil)
	test.That(t, tr.Append(pt(2, 0, 0), 2), test.ShouldBeNil)
	return tr
}

func TestRelatedKeyFrames(t *testing.T) {
	tr := collinearTrack(t)

	// mid-segment queries bracket with outer neighbors clamped at the ends
	test.That(t, tr.relatedKeyFrames(0.5), test.ShouldResemble, [4]int{0, 0, 1, 2})
	test.That(t, tr.relatedKeyFrames(1.5), test.ShouldResemble, [4]int{0, 1, 2, 2})

	// exact keyframe times collapse the inner bracket onto that keyframe
	test.That(t, tr.relatedKeyFrames(0), test.ShouldResemble, [4]int{0, 0, 0, 1})
	test.That(t, tr.relatedKeyFrames(1), test.ShouldResemble, [4]int{0, 1, 1, 2})
	test.That(t, tr.relatedKeyFrames(2), test.ShouldResemble, [4]int{1, 2, 2, 2})

	// out-of-range queries clamp to the first/last keyframe
	test.That(t, tr.relatedKeyFrames(-1), test.ShouldResemble, [4]int{0, 0, 0, 1})
	test.That(t, tr.relatedKeyFrames(5), test.ShouldResemble, [4]int{1, 2, 2, 2})
}

func TestEvaluateEndpoints(t *testing.T) {
	tr := collinearTrack(t)
	tr.recomputeTangents()

	first := tr.evaluateAt(tr.FirstTime())
	test.That(t, spatialmath.R3VectorAlmostEqual(first.Position, tr.PoseAt(0).Position, 1e-9), test.ShouldBeTrue)

	last := tr.evaluateAt(tr.LastTime())
	test.That(t, spatialmath.R3VectorAlmostEqual(last.Position, tr.PoseAt(2).Position, 1e-9), test.ShouldBeTrue)
}

func TestEvaluateMidSegment(t *testing.T) {
	tr := collinearTrack(t)
	tr.recomputeTangents()

	// collinear identity-orientation track: interpolant stays on the x axis
	// strictly between the bracketing keyframes
	pose := tr.evaluateAt(0.5)
	test.That(t, pose.Position.Y, test.ShouldAlmostEqual, 0)
	test.That(t, pose.Position.Z, test.ShouldAlmostEqual, 0)
	test.That(t, pose.Position.X, test.ShouldBeGreaterThan, 0)
	test.That(t, pose.Position.X, test.ShouldBeLessThan, 1)
	test.That(t, spatialmath.QuaternionAlmostEqual(pose.Orientation, tr.PoseAt(0).Orientation, 1e-6), test.ShouldBeTrue)
}

func TestEvaluateSingleKeyFrame(t *testing.T) {
	tr := NewTrack(golog.NewTestLogger(t))
	test.That(t, tr.Append(pt(3, 4, 5), 0), test.ShouldBeNil)
	tr.recomputeTangents()

	// degenerate zero-length bracket collapses to the lone keyframe
	for _, when := range []float64{-1, 0, 1} {
		pose := tr.evaluateAt(when)
		test.That(t, spatialmath.PoseAlmostEqual(pose, tr.PoseAt(0), 1e-9), test.ShouldBeTrue)
	}
}
