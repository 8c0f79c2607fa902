// ABOUTME: Error taxonomy for the output stream engine
// ABOUTME: Sentinel errors and platform result codes
package output

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidState is returned by Open when the engine's output mix never became valid
	ErrInvalidState = errors.New("output: engine not valid")

	// ErrDeviceError wraps any platform creation or state transition failure
	ErrDeviceError = errors.New("output: device error")

	// ErrUnsupportedFormat is the panic value for formats the engine cannot render.
	// Only 16-bit mono or stereo PCM is accepted.
	ErrUnsupportedFormat = errors.New("output: unsupported format")
)

// Result is a platform status code. Backends return it as an error.
type Result uint32

const (
	ResultSuccess               Result = 0x0
	ResultPreconditionsViolated Result = 0x1
	ResultParameterInvalid      Result = 0x2
	ResultMemoryFailure         Result = 0x3
	ResultResourceError         Result = 0x4
	ResultIOError               Result = 0x6
	ResultBufferInsufficient    Result = 0x7
	ResultContentUnsupported    Result = 0x9
	ResultFeatureUnsupported    Result = 0xC
	ResultInternalError         Result = 0xD
)

var resultNames = map[Result]string{
	ResultSuccess:               "success",
	ResultPreconditionsViolated: "preconditions violated",
	ResultParameterInvalid:      "parameter invalid",
	ResultMemoryFailure:         "memory failure",
	ResultResourceError:         "resource error",
	ResultIOError:               "io error",
	ResultBufferInsufficient:    "buffer insufficient",
	ResultContentUnsupported:    "content unsupported",
	ResultFeatureUnsupported:    "feature unsupported",
	ResultInternalError:         "internal error",
}

func (r Result) Error() string {
	if name, ok := resultNames[r]; ok {
		return fmt.Sprintf("0x%X (%s)", uint32(r), name)
	}
	return fmt.Sprintf("0x%X", uint32(r))
}
