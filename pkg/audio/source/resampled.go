// ABOUTME: Sample rate conversion wrapper for sources
// ABOUTME: Presents any Source at a target rate using the streaming linear resampler
package source

import (
	"github.com/Resonate-Protocol/lowlat/pkg/audio"
	"github.com/Resonate-Protocol/lowlat/pkg/audio/resample"
)

// Resampled converts a Source to another sample rate
type Resampled struct {
	src       Source
	format    audio.Format
	resampler *resample.Resampler

	in      []int16
	out     []int16
	pending []int16
}

// Resample wraps src so Read yields samples at rate. A source already at rate
// is returned unchanged.
func Resample(src Source, rate int) Source {
	f := src.Format()
	if f.SampleRate == rate || rate <= 0 {
		return src
	}

	format := f
	format.SampleRate = rate
	return &Resampled{
		src:       src,
		format:    format,
		resampler: resample.New(f.SampleRate, rate, f.Channels),
	}
}

func (r *Resampled) Read(samples []int16) (int, error) {
	ch := r.format.Channels
	written := 0

	for written < len(samples) {
		if len(r.pending) > 0 {
			n := copy(samples[written:], r.pending)
			r.pending = r.pending[n:]
			written += n
			continue
		}

		want := r.resampler.InputSamplesNeeded(len(samples) - written)
		want = max(want-want%ch, ch)
		if cap(r.in) < want {
			r.in = make([]int16, want)
		}
		n, err := r.src.Read(r.in[:want])
		if n > 0 {
			need := r.resampler.OutputSamplesNeeded(n)
			if cap(r.out) < need {
				r.out = make([]int16, need)
			}
			m := r.resampler.Resample(r.in[:n], r.out[:need])
			r.pending = r.out[:m]
		}
		if err != nil {
			c := copy(samples[written:], r.pending)
			r.pending = r.pending[c:]
			written += c
			if written > 0 {
				// the error repeats on the next call
				return written, nil
			}
			return 0, err
		}
		if n == 0 {
			break
		}
	}

	return written, nil
}

func (r *Resampled) Format() audio.Format { return r.format }
func (r *Resampled) Title() string        { return r.src.Title() }
func (r *Resampled) Close() error         { return r.src.Close() }
