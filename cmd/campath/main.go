// Package main contains a command to inspect and play back keyframe path files.
package main

import (
	"context"
	"fmt"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/campath/keyframe"
	"github.com/viam-labs/campath/playback"
)

var logger = golog.NewDevelopmentLogger("campath")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

// Arguments for the command.
type Arguments struct {
	PathFile  string  `flag:"0,required,usage=keyframe (.kf) file to load"`
	FrameRate int     `flag:"fps,default=30,usage=samples per second"`
	Speed     float64 `flag:"speed,default=1.0,usage=playback speed multiplier"`
	Dump      bool    `flag:"dump,usage=print the interpolated path as x y z lines"`
	Play      bool    `flag:"play,usage=play the path back in real time, logging each frame"`
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}

	interp := keyframe.NewInterpolator(logger)
	interp.SetFrameRate(argsParsed.FrameRate)
	interp.SetSpeed(argsParsed.Speed)
	if err := interp.Track().LoadFile(argsParsed.PathFile); err != nil {
		return err
	}
	logger.Infow("loaded keyframes",
		"count", interp.Track().Len(),
		"duration", interp.Track().Duration(),
		"samples", len(interp.InterpolatedPath()),
	)

	if argsParsed.Dump {
		for _, pose := range interp.InterpolatedPath() {
			fmt.Printf("%v %v %v\n", pose.Position.X, pose.Position.Y, pose.Position.Z)
		}
	}

	if argsParsed.Play {
		return play(ctx, interp, logger)
	}
	return nil
}

// loggingSink logs every frame it is driven through.
type loggingSink struct {
	logger golog.Logger
}

func (s *loggingSink) SetPositionAndOrientation(position r3.Vector, orientation quat.Number) {
	s.logger.Debugw("frame", "position", position, "orientation", orientation)
}

func play(ctx context.Context, interp *keyframe.Interpolator, logger golog.Logger) error {
	controller, err := playback.NewController(playback.ControllerParams{
		Interpolator: interp,
		Sink:         &loggingSink{logger: logger},
		Logger:       logger,
	})
	if err != nil {
		return err
	}
	defer func() {
		utils.UncheckedError(controller.Close())
	}()

	done := make(chan struct{})
	controller.OnComplete(func() { close(done) })
	controller.Start()

	select {
	case <-ctx.Done():
		controller.Stop()
		return ctx.Err()
	case <-done:
		logger.Info("playback complete")
		return nil
	}
}
