package keyframe

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"

	"github.com/viam-labs/campath/spatialmath"
)

// Track owns a time-ordered sequence of keyframes. Keyframe times are strictly
// increasing; appends that violate that are rejected. Every structural change
// notifies the registered change observers so derived state (the interpolated
// path cache, playback position) can be invalidated.
type Track struct {
	logger    golog.Logger
	keyframes []*KeyFrame

	// chord length between the first two keyframes, recorded when the second
	// arrives; later auto-assigned times are normalized against it.
	referenceDistance float64

	changeObservers []func()
}

// NewTrack returns an empty track.
func NewTrack(logger golog.Logger) *Track {
	return &Track{logger: logger}
}

// OnChange registers an observer called synchronously after every structural
// change to the track (append, remove, clear).
func (t *Track) OnChange(fn func()) {
	t.changeObservers = append(t.changeObservers, fn)
}

func (t *Track) notifyChanged() {
	for _, fn := range t.changeObservers {
		fn()
	}
}

// Append adds a keyframe with an explicit time. The time must be strictly
// greater than the last keyframe's time; otherwise the append is rejected,
// logged, and the track is left unchanged.
func (t *Track) Append(pose spatialmath.Pose, time float64) error {
	if len(t.keyframes) > 0 && t.keyframes[len(t.keyframes)-1].time >= time {
		err := errors.Errorf("keyframe time %f is not monotone; last keyframe is at %f",
			time, t.keyframes[len(t.keyframes)-1].time)
		t.logger.Error(err)
		return err
	}

	t.keyframes = append(t.keyframes, newKeyFrame(pose, time))
	if len(t.keyframes) == 2 {
		t.referenceDistance = t.keyframes[1].pose.Position.Sub(t.keyframes[0].pose.Position).Norm()
	}
	t.notifyChanged()
	return nil
}

// AppendAuto adds a keyframe with an automatically assigned time. The first
// keyframe lands at 0 and the second at 1; beyond that each keyframe's time
// advances by the chord distance from its predecessor normalized against the
// distance between the first two keyframes. Playback therefore moves at the
// pace set by the first segment, with spatially longer segments taking
// proportionally longer.
func (t *Track) AppendAuto(pose spatialmath.Pose) error {
	var time float64
	switch len(t.keyframes) {
	case 0:
		time = 0
	case 1:
		time = 1.0
	default:
		reference := t.referenceDistance
		if reference == 0 {
			// coincident first two keyframes leave no usable reference
			t.logger.Warn("reference distance is 0; pacing keyframe by raw chord length")
			reference = 1.0
		}
		last := t.keyframes[len(t.keyframes)-1]
		time = last.time + pose.Position.Sub(last.pose.Position).Norm()/reference
	}
	return t.Append(pose, time)
}

// RemoveLast drops the last keyframe. Removing from an empty track is a no-op.
func (t *Track) RemoveLast() {
	if len(t.keyframes) == 0 {
		return
	}
	t.keyframes[len(t.keyframes)-1] = nil
	t.keyframes = t.keyframes[:len(t.keyframes)-1]
	t.notifyChanged()
}

// Clear removes all keyframes.
func (t *Track) Clear() {
	t.keyframes = nil
	t.referenceDistance = 0
	t.notifyChanged()
}

// Len returns the number of keyframes.
func (t *Track) Len() int {
	return len(t.keyframes)
}

// PoseAt returns the pose of the keyframe at the given index.
func (t *Track) PoseAt(index int) spatialmath.Pose {
	return t.keyframes[index].pose
}

// TimeAt returns the time of the keyframe at the given index.
func (t *Track) TimeAt(index int) float64 {
	return t.keyframes[index].time
}

// Poses returns the raw keyframe poses in track order, e.g. for rendering
// camera positions along the path.
func (t *Track) Poses() []spatialmath.Pose {
	poses := make([]spatialmath.Pose, 0, len(t.keyframes))
	for _, kf := range t.keyframes {
		poses = append(poses, kf.pose)
	}
	return poses
}

// FirstTime returns the time of the first keyframe, or 0 if the track is empty.
func (t *Track) FirstTime() float64 {
	if len(t.keyframes) == 0 {
		return 0
	}
	return t.keyframes[0].time
}

// LastTime returns the time of the last keyframe, or 0 if the track is empty.
func (t *Track) LastTime() float64 {
	if len(t.keyframes) == 0 {
		return 0
	}
	return t.keyframes[len(t.keyframes)-1].time
}

// Duration returns the time span covered by the track.
func (t *Track) Duration() float64 {
	return t.LastTime() - t.FirstTime()
}

// recomputeTangents walks the track twice: first correcting orientation signs
// so consecutive orientations have a non-negative dot product, then deriving
// each keyframe's tangents from its neighbors. The first and last keyframes
// stand in for their own missing neighbor.
func (t *Track) recomputeTangents() {
	if len(t.keyframes) == 0 {
		return
	}

	prevQ := t.keyframes[0].pose.Orientation
	for _, kf := range t.keyframes {
		kf.flipOrientationIfNeeded(prevQ)
		prevQ = kf.pose.Orientation
	}

	for i, kf := range t.keyframes {
		prev := kf
		if i > 0 {
			prev = t.keyframes[i-1]
		}
		next := kf
		if i < len(t.keyframes)-1 {
			next = t.keyframes[i+1]
		}
		kf.computeTangent(prev, next)
	}
}
