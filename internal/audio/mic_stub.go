//go:build !cgo

package audio

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/moodify/internal/shared"
)

// Microphone is unavailable without cgo; Open always fails.
type Microphone struct{}

// NewMicrophone returns a [Microphone] whose Open reports [shared.ErrDeviceAccess].
func NewMicrophone(framesPerBuffer int, logger *log.Logger) *Microphone {
	return &Microphone{}
}

func (m *Microphone) Open(ctx context.Context, c Constraints) (InputStream, error) {
	return nil, fmt.Errorf("%w: microphone capture requires a cgo build", shared.ErrDeviceAccess)
}
