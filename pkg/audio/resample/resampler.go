// ABOUTME: Streaming linear resampler for interleaved 16-bit PCM
// ABOUTME: Carries the last input frame across calls so chunk boundaries interpolate cleanly
package resample

// Resampler performs linear interpolation to convert between sample rates
type Resampler struct {
	inputRate  int
	outputRate int
	channels   int
	ratio      float64

	// position is the read position in frames relative to prev
	position float64
	prev     []int16
	primed   bool
}

// New creates a new resampler
func New(inputRate, outputRate, channels int) *Resampler {
	return &Resampler{
		inputRate:  inputRate,
		outputRate: outputRate,
		channels:   channels,
		ratio:      float64(inputRate) / float64(outputRate),
		prev:       make([]int16, channels),
	}
}

// frame returns channel ch of frame i, where frame 0 is the carried frame
// and frame i > 0 is input frame i-1.
func (r *Resampler) frame(input []int16, i, ch int) int16 {
	if i == 0 {
		return r.prev[ch]
	}
	return input[(i-1)*r.channels+ch]
}

// Resample converts interleaved input at inputRate into output at outputRate
// and returns the number of samples written. All of input is consumed; size
// output with OutputSamplesNeeded to avoid dropping audio.
func (r *Resampler) Resample(input []int16, output []int16) int {
	if len(input) < r.channels {
		return 0
	}

	if !r.primed {
		copy(r.prev, input[:r.channels])
		input = input[r.channels:]
		r.primed = true
	}

	inputFrames := len(input) / r.channels
	outputFrames := len(output) / r.channels

	outIdx := 0
	for outIdx < outputFrames {
		idx := int(r.position)
		// need frames idx and idx+1
		if idx+1 > inputFrames {
			break
		}

		frac := r.position - float64(idx)
		for ch := 0; ch < r.channels; ch++ {
			s1 := float64(r.frame(input, idx, ch))
			s2 := float64(r.frame(input, idx+1, ch))
			output[outIdx*r.channels+ch] = int16(s1*(1.0-frac) + s2*frac)
		}

		outIdx++
		r.position += r.ratio
	}

	if inputFrames > 0 {
		copy(r.prev, input[(inputFrames-1)*r.channels:inputFrames*r.channels])
		r.position -= float64(inputFrames)
		if r.position < 0 {
			r.position = 0
		}
	}

	return outIdx * r.channels
}

// Reset forgets the carried frame and position
func (r *Resampler) Reset() {
	r.position = 0
	r.primed = false
	clear(r.prev)
}

// Ratio returns input frames consumed per output frame
func (r *Resampler) Ratio() float64 {
	return r.ratio
}

// OutputSamplesNeeded returns an output size large enough for inputSamples
func (r *Resampler) OutputSamplesNeeded(inputSamples int) int {
	inputFrames := inputSamples / r.channels
	outputFrames := int(float64(inputFrames)/r.ratio) + 2
	return outputFrames * r.channels
}

// InputSamplesNeeded estimates how many input samples produce outputSamples
func (r *Resampler) InputSamplesNeeded(outputSamples int) int {
	outputFrames := outputSamples / r.channels
	inputFrames := int(float64(outputFrames)*r.ratio) + 1
	return inputFrames * r.channels
}
