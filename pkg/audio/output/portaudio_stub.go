//go:build !portaudio

// ABOUTME: PortAudio stub when library not available
// ABOUTME: Provides compile-time placeholder when PortAudio not installed
package output

import (
	"fmt"
)

// PortAudio platform (stub)
type PortAudio struct {
	props Properties
}

// NewPortAudio creates a PortAudio platform that cannot create an engine
func NewPortAudio(opts PlatformOptions) Platform {
	return &PortAudio{props: Properties{APILevel: opts.APILevel, FramesPerBuffer: opts.FramesPerBuffer}}
}

func (p *PortAudio) Name() string           { return "portaudio" }
func (p *PortAudio) Properties() Properties { return p.props }

// CreateEngine always fails
func (p *PortAudio) CreateEngine() (Engine, error) {
	return nil, fmt.Errorf("PortAudio support not enabled (build with -tags portaudio): %w", ResultFeatureUnsupported)
}
