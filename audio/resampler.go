// SPDX-License-Identifier: EPL-2.0

package audio

import (
	"fmt"
	"io"

	"github.com/ik5/soundpool/utils"
)

// Resampler streams from src to a target sample rate using cubic interpolation.
// Works on interleaved samples; preserves channel count.
// A one-pole low-pass filter is applied to incoming frames when downsampling.
//
// The source rate may be changed while streaming with SetSourceRate, which is
// how playback rate changes are applied to a track without rebuilding it.
type Resampler struct {
	src      Source
	srcRate  int
	dstRate  int
	step     float64 // source frames consumed per output frame
	channels int

	// Interpolation window: output is taken between win[1] and win[2].
	// real[i] is false for frames synthesised past the end of the source.
	win  [4][]float32
	real [4]bool
	frac float64

	primed bool
	eof    bool
	frame  []float32

	useFilter   bool
	filterAlpha float32
	filterState []float32
}

func NewResampler(src Source, dstRate int) *Resampler {
	channels := src.Channels()
	r := &Resampler{
		src:         src,
		dstRate:     dstRate,
		channels:    channels,
		frame:       make([]float32, channels),
		filterState: make([]float32, channels),
	}
	for i := range r.win {
		r.win[i] = make([]float32, channels)
	}
	r.setRates(src.SampleRate(), dstRate)

	return r
}

func (r *Resampler) SampleRate() int { return r.dstRate }
func (r *Resampler) Channels() int   { return r.channels }
func (r *Resampler) BufSize() int    { return r.src.BufSize() }

func (r *Resampler) Close() error {
	if err := r.src.Close(); err != nil {
		return fmt.Errorf("%w", err)
	}
	return nil
}

// SetSourceRate changes the rate at which source frames are consumed. The
// interpolation window is kept, so the change is click free.
func (r *Resampler) SetSourceRate(hz int) error {
	if hz <= 0 {
		return ErrInvalidRate
	}
	r.setRates(hz, r.dstRate)
	return nil
}

func (r *Resampler) setRates(srcRate, dstRate int) {
	r.srcRate = srcRate
	r.step = float64(srcRate) / float64(dstRate)
	r.useFilter = r.step > 1.0
	if r.useFilter {
		// Cutoff roughly at the destination Nyquist frequency.
		r.filterAlpha = 0.5
	}
}

// pull reads the next source frame into r.frame. ok is false once the source
// is exhausted.
func (r *Resampler) pull() (ok bool, err error) {
	if r.eof {
		return false, nil
	}
	n, err := r.src.ReadSamples(r.frame)
	if err == io.EOF {
		if n < r.channels {
			r.eof = true
			return false, nil
		}
		err = nil
	} else if err != nil {
		return false, fmt.Errorf("%w", err)
	}
	if n < r.channels {
		// A short read without EOF; pad the partial frame.
		clear(r.frame[n:])
	}
	if r.useFilter {
		for c := range r.channels {
			r.frame[c] = r.filterAlpha*r.frame[c] + (1-r.filterAlpha)*r.filterState[c]
			r.filterState[c] = r.frame[c]
		}
	}
	return true, nil
}

// shift advances the window by one source frame.
func (r *Resampler) shift() error {
	copy(r.win[0], r.win[1])
	copy(r.win[1], r.win[2])
	copy(r.win[2], r.win[3])
	r.real[0], r.real[1], r.real[2] = r.real[1], r.real[2], r.real[3]

	ok, err := r.pull()
	if err != nil {
		return err
	}
	if ok {
		copy(r.win[3], r.frame)
	} else {
		copy(r.win[3], r.win[2])
	}
	r.real[3] = ok
	return nil
}

func (r *Resampler) prime() error {
	r.primed = true
	ok, err := r.pull()
	if err != nil {
		return err
	}
	if !ok {
		return io.EOF
	}
	if r.useFilter {
		copy(r.filterState, r.frame)
	}
	copy(r.win[0], r.frame)
	copy(r.win[1], r.frame)
	r.real[1] = true
	for i := 2; i < 4; i++ {
		ok, err := r.pull()
		if err != nil {
			return err
		}
		if ok {
			copy(r.win[i], r.frame)
		} else {
			copy(r.win[i], r.win[i-1])
		}
		r.real[i] = ok
	}
	return nil
}

// ReadSamples produces dst samples at the destination rate.
// dst length should be a multiple of r.channels.
func (r *Resampler) ReadSamples(dst []float32) (int, error) {
	if len(dst)%r.channels != 0 {
		return 0, ErrInvalidDstSize
	}
	if !r.primed {
		if err := r.prime(); err != nil {
			return 0, err
		}
	}

	written := 0
	frames := len(dst) / r.channels
	for written < frames {
		for r.frac >= 1.0 {
			r.frac -= 1.0
			if err := r.shift(); err != nil {
				return written * r.channels, err
			}
		}
		if !r.real[1] {
			if written == 0 {
				return 0, io.EOF
			}
			return written * r.channels, io.EOF
		}

		x := float32(r.frac)
		out := dst[written*r.channels : (written+1)*r.channels]
		for c := range r.channels {
			out[c] = utils.CubicInterpolate(r.win[0][c], r.win[1][c], r.win[2][c], r.win[3][c], x)
		}
		written++
		r.frac += r.step
	}

	return written * r.channels, nil
}
