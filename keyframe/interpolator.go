package keyframe

import (
	"math"

	"github.com/edaniels/golog"

	"github.com/viam-labs/campath/spatialmath"
)

const (
	// DefaultFrameRate is the sampling/playback rate used when none is set.
	DefaultFrameRate = 30
	// DefaultSpeed is the playback speed multiplier used when none is set.
	DefaultSpeed = 1.0

	// a single relaxation pass; further iterations do not improve the path
	smoothingIterations = 1
)

// Interpolator owns a keyframe track together with a lazily rebuilt cache of
// densely sampled poses along the track's spline. Any track mutation, frame
// rate change, or speed change invalidates the cache; the next call to
// InterpolatedPath rebuilds it from scratch.
type Interpolator struct {
	logger golog.Logger
	track  *Track

	frameRate int
	speed     float64

	path      []spatialmath.Pose
	pathValid bool

	invalidateObservers []func()
}

// NewInterpolator returns an interpolator with an empty track and default
// frame rate and speed.
func NewInterpolator(logger golog.Logger) *Interpolator {
	interp := &Interpolator{
		logger:    logger,
		track:     NewTrack(logger),
		frameRate: DefaultFrameRate,
		speed:     DefaultSpeed,
	}
	interp.track.OnChange(interp.invalidate)
	return interp
}

// Track returns the underlying keyframe track.
func (in *Interpolator) Track() *Track {
	return in.track
}

// FrameRate returns the sampling/playback frame rate in samples per second.
func (in *Interpolator) FrameRate() int {
	return in.frameRate
}

// SetFrameRate sets the frame rate and invalidates the cached path.
func (in *Interpolator) SetFrameRate(fps int) {
	in.frameRate = fps
	in.invalidate()
}

// Speed returns the playback speed multiplier.
func (in *Interpolator) Speed() float64 {
	return in.speed
}

// SetSpeed sets the playback speed multiplier and invalidates the cached path.
func (in *Interpolator) SetSpeed(speed float64) {
	in.speed = speed
	in.invalidate()
}

// SampleInterval returns the wall-clock spacing in seconds between consecutive
// path samples when played back at the configured frame rate and speed.
func (in *Interpolator) SampleInterval() float64 {
	return (1.0 / float64(in.frameRate)) / in.speed
}

// OnInvalidate registers an observer called synchronously whenever the cached
// path becomes stale, whether from a track mutation or a frame rate or speed
// change. Playback uses this to halt and rewind.
func (in *Interpolator) OnInvalidate(fn func()) {
	in.invalidateObservers = append(in.invalidateObservers, fn)
}

func (in *Interpolator) invalidate() {
	in.pathValid = false
	for _, fn := range in.invalidateObservers {
		fn()
	}
}

// InterpolatedPath returns the dense pose sequence along the track's spline,
// rebuilding it if the cache is stale. An empty track yields an empty path.
func (in *Interpolator) InterpolatedPath() []spatialmath.Pose {
	if in.pathValid {
		return in.path
	}

	if in.track.Len() > 2 {
		in.logger.Debugf("interpolating %d keyframes...", in.track.Len())
	}
	in.path = in.samplePath(in.track)
	for i := 0; i < smoothingIterations; i++ {
		in.smoothPath()
	}
	if in.track.Len() > 2 {
		in.logger.Debugf("keyframe interpolation done, %d frames", len(in.path))
	}

	in.pathValid = true
	return in.path
}

// samplePath evaluates the track's spline from its first time to just past its
// last time at SampleInterval steps. The loop oversteps by one interval so the
// final keyframe time is still included after floating-point accumulation.
func (in *Interpolator) samplePath(track *Track) []spatialmath.Pose {
	if track.Len() == 0 {
		return nil
	}

	track.recomputeTangents()

	interval := in.SampleInterval()
	if interval <= 0 || math.IsInf(interval, 0) || math.IsNaN(interval) ||
		math.IsInf(track.Duration(), 0) || math.IsNaN(track.Duration()) {
		in.logger.Errorf("cannot sample path: interval %f over duration %f is degenerate",
			interval, track.Duration())
		return nil
	}

	var frames []spatialmath.Pose
	for time := track.FirstTime(); time < track.LastTime()+interval; time += interval {
		frames = append(frames, track.evaluateAt(time))
	}
	return frames
}

// smoothPath runs one relaxation pass over the cached path: the samples are
// treated as a synthetic keyframe track with chord-normalized times (the first
// interval pinned to SampleInterval), rescaled so the synthetic track spans the
// same duration as the real one, and the spline is re-evaluated over it. The
// original keyframe track is not touched.
func (in *Interpolator) smoothPath() {
	if len(in.path) < 2 {
		return
	}

	interval := in.SampleInterval()
	var referenceDistance float64
	asKeyFrames := make([]*KeyFrame, 0, len(in.path))
	for _, frame := range in.path {
		var time float64
		switch len(asKeyFrames) {
		case 0:
			time = 0
		case 1:
			time = interval
			referenceDistance = frame.Position.Sub(asKeyFrames[0].pose.Position).Norm()
		default:
			last := asKeyFrames[len(asKeyFrames)-1]
			time = last.time + interval*frame.Position.Sub(last.pose.Position).Norm()/referenceDistance
		}
		asKeyFrames = append(asKeyFrames, newKeyFrame(frame, time))
	}

	// a stationary path has zero chord length everywhere, which makes the
	// reassigned times collapse or go non-finite; skip the pass entirely
	newDuration := asKeyFrames[len(asKeyFrames)-1].time - asKeyFrames[0].time
	if newDuration == 0 || math.IsNaN(newDuration) || math.IsInf(newDuration, 0) {
		in.logger.Error("cannot smooth path: resampled duration is degenerate")
		return
	}

	ratio := in.track.Duration() / newDuration
	for _, kf := range asKeyFrames {
		kf.time *= ratio
	}

	synthetic := &Track{logger: in.logger, keyframes: asKeyFrames}
	in.path = in.samplePath(synthetic)
}
