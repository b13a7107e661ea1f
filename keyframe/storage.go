package keyframe

import (
	"fmt"
	"io"
	"os"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/num/quat"

	"github.com/viam-labs/campath/spatialmath"
)

// The .kf format is line-oriented, whitespace-separated text:
//
//	num_key_frames: <N>
//	frame: <index>
//	    position: <x> <y> <z>
//	    orientation: <x> <y> <z> <w>
//
// Times and tangents are not persisted; tangents are derived, and times are
// reassigned on load by the auto-time chord rule, so round trips preserve
// geometry but not the original timings.

// Save writes the track's keyframes to w. It returns an error if the track is
// empty or the write fails.
func (t *Track) Save(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "\tnum_key_frames: %d\n", len(t.keyframes)); err != nil {
		return errors.Wrap(err, "failed to write keyframes")
	}
	for i, kf := range t.keyframes {
		pos := kf.pose.Position
		orient := kf.pose.Orientation
		if _, err := fmt.Fprintf(w,
			"\tframe: %d\n\t\tposition: %v %v %v\n\t\torientation: %v %v %v %v\n",
			i, pos.X, pos.Y, pos.Z, orient.Imag, orient.Jmag, orient.Kmag, orient.Real,
		); err != nil {
			return errors.Wrap(err, "failed to write keyframes")
		}
	}
	if len(t.keyframes) == 0 {
		return errors.New("no keyframes to save")
	}
	return nil
}

// SaveFile writes the track's keyframes to the named file.
func (t *Track) SaveFile(path string) (err error) {
	//nolint:gosec
	f, err := os.Create(path)
	if err != nil {
		err = errors.Wrapf(err, "unable to open %q", path)
		t.logger.Error(err)
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return t.Save(f)
}

// Load clears the track and reads keyframes from r, appending each with an
// auto-assigned time in file order. It returns an error unless at least one
// keyframe was loaded.
func (t *Track) Load(r io.Reader) error {
	t.Clear()

	var label string
	var numKeyFrames int
	if _, err := fmt.Fscan(r, &label, &numKeyFrames); err != nil {
		return errors.Wrap(err, "failed to read keyframe count")
	}

	for i := 0; i < numKeyFrames; i++ {
		var frameIndex int
		var pos r3.Vector
		var orient quat.Number
		if _, err := fmt.Fscan(r,
			&label, &frameIndex,
			&label, &pos.X, &pos.Y, &pos.Z,
			&label, &orient.Imag, &orient.Jmag, &orient.Kmag, &orient.Real,
		); err != nil {
			return errors.Wrapf(err, "failed to read keyframe %d", i)
		}
		if err := t.AppendAuto(spatialmath.NewPose(pos, orient)); err != nil {
			return err
		}
	}

	if len(t.keyframes) == 0 {
		return errors.New("no keyframes loaded")
	}
	return nil
}

// LoadFile clears the track and reads keyframes from the named file. On open
// failure the error is logged and returned and the track is left empty.
func (t *Track) LoadFile(path string) (err error) {
	t.Clear()
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		err = errors.Wrapf(err, "unable to open %q", path)
		t.logger.Error(err)
		return err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return t.Load(f)
}
