// Package playback drives an external pose sink through an interpolated
// keyframe path in real time, on a cancellable background loop with
// resume-from-where-it-stopped semantics.
package playback

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/campath/keyframe"
	"github.com/viam-labs/campath/spatialmath"
)

// frame sleeps are shortened a little to compensate for scheduling overhead
const overheadCompensation = 0.9

// PoseSink is an external mutable transform, such as a camera or scene node,
// written once per played frame.
type PoseSink interface {
	SetPositionAndOrientation(position r3.Vector, orientation quat.Number)
}

// ControllerParams configure a playback Controller.
type ControllerParams struct {
	Interpolator *keyframe.Interpolator
	Sink         PoseSink
	Logger       golog.Logger
	Clock        clock.Clock // optional; defaults to the wall clock
}

// Controller plays an interpolator's cached path against a pose sink on a
// background goroutine, one sample per frame interval. Stopping is cooperative
// and records where playback should resume; any track or configuration change
// halts playback and rewinds to the start.
type Controller struct {
	logger golog.Logger
	interp *keyframe.Interpolator
	sink   PoseSink
	clk    clock.Clock

	mu              sync.Mutex
	running         bool
	nextSampleIndex int
	rewindGen       int
	runCtx          context.Context
	runCancel       func()
	runDone         chan struct{}

	cancelCtx               context.Context
	cancelFunc              func()
	activeBackgroundWorkers sync.WaitGroup

	frameObservers    []func(index int, pose spatialmath.Pose)
	completeObservers []func()
}

// NewController returns a controller for the given interpolator and sink.
func NewController(params ControllerParams) (*Controller, error) {
	if params.Interpolator == nil {
		return nil, errors.New("interpolator is required")
	}
	if params.Sink == nil {
		return nil, errors.New("pose sink is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	if params.Clock == nil {
		params.Clock = clock.New()
	}

	cancelCtx, cancelFunc := context.WithCancel(context.Background())
	c := &Controller{
		logger:     params.Logger,
		interp:     params.Interpolator,
		sink:       params.Sink,
		clk:        params.Clock,
		cancelCtx:  cancelCtx,
		cancelFunc: cancelFunc,
	}
	c.interp.OnInvalidate(c.handleInvalidation)
	return c, nil
}

// OnFrame registers an observer called synchronously from the playback
// goroutine after each frame is written to the sink. Register observers
// before the first Start.
func (c *Controller) OnFrame(fn func(index int, pose spatialmath.Pose)) {
	c.frameObservers = append(c.frameObservers, fn)
}

// OnComplete registers an observer called when playback reaches the end of
// the path without being stopped.
func (c *Controller) OnComplete(fn func()) {
	c.completeObservers = append(c.completeObservers, fn)
}

// Running reports whether the playback loop is active.
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Start begins or resumes playback on a background goroutine. It is a no-op
// if the track is empty or playback is already running. A loop that has been
// stopped but has not yet drained does not count as running: Start waits for
// it to exit (it writes at most one more frame) and then launches, so a
// Stop-then-Start sequence always resumes. The path cache is rebuilt here if
// stale, before the loop begins reading it.
func (c *Controller) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.running {
		if c.runCtx != nil && c.runCtx.Err() == nil {
			c.logger.Debug("playback already running")
			return
		}
		done := c.runDone
		c.mu.Unlock()
		<-done
		c.mu.Lock()
	}

	path := c.interp.InterpolatedPath()
	if len(path) == 0 {
		return
	}

	runCtx, runCancel := context.WithCancel(c.cancelCtx)
	done := make(chan struct{})
	c.runCtx = runCtx
	c.runCancel = runCancel
	c.runDone = done
	c.running = true

	start := c.nextSampleIndex
	gen := c.rewindGen
	waitFor := time.Duration(overheadCompensation * c.interp.SampleInterval() * float64(time.Second))

	c.activeBackgroundWorkers.Add(1)
	utils.PanicCapturingGo(func() {
		defer c.activeBackgroundWorkers.Done()
		defer func() {
			c.mu.Lock()
			c.running = false
			if c.runCtx == runCtx {
				c.runCancel()
				c.runCtx = nil
				c.runCancel = nil
			}
			c.mu.Unlock()
			close(done)
		}()
		c.playLoop(runCtx, path, start, gen, waitFor)
	})
}

// Stop signals the playback loop to halt at its next safe point; at most one
// more frame may reach the sink after it returns. Stopping an idle controller
// is a no-op.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.runCancel != nil {
		c.runCancel()
	}
}

// Close stops playback and waits for the background loop to exit.
func (c *Controller) Close() error {
	c.cancelFunc()
	c.activeBackgroundWorkers.Wait()
	return nil
}

// handleInvalidation runs whenever the interpolator's cache goes stale: the
// current run (if any) is cancelled and the resume position rewinds to the
// start, since cached indices no longer line up with the new path.
func (c *Controller) handleInvalidation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nextSampleIndex = 0
	c.rewindGen++
	if c.runCancel != nil {
		c.runCancel()
	}
}

func (c *Controller) playLoop(
	ctx context.Context,
	path []spatialmath.Pose,
	start, gen int,
	waitFor time.Duration,
) {
	completed := true
	for i := start; i < len(path); i++ {
		if ctx.Err() != nil {
			c.recordResumeIndex(i, gen)
			completed = false
			break
		}

		pose := path[i]
		c.sink.SetPositionAndOrientation(pose.Position, pose.Orientation)
		for _, fn := range c.frameObservers {
			fn(i, pose)
		}

		c.waitInterval(ctx, waitFor)

		if i == len(path)-1 {
			c.recordResumeIndex(0, gen)
		}
	}

	if completed {
		for _, fn := range c.completeObservers {
			fn()
		}
	}
}

// recordResumeIndex stores where the next Start should pick up, unless a
// rewind happened since this run began, in which case the rewound position
// wins over the stale in-flight index.
func (c *Controller) recordResumeIndex(index, gen int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.rewindGen == gen {
		c.nextSampleIndex = index
	}
}

func (c *Controller) waitInterval(ctx context.Context, waitFor time.Duration) {
	if waitFor <= 0 {
		return
	}
	timer := c.clk.Timer(waitFor)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
