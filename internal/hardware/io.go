package hardware

import (
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"

	"shiftlight-service/internal/logger"
)

// ButtonCallback runs on each button press, outside the scheduler loop.
// Implementations must hand off to the loop rather than touch its state.
type ButtonCallback func()

// ModeButton is a single GPIO push button used to trigger the ring test
// without the messaging surface.
type ModeButton struct {
	line *gpiocdev.Line
	log  *logger.Logger
}

func NewModeButton(chip string, offset int, callback ButtonCallback, log *logger.Logger) (*ModeButton, error) {
	l := log.WithTag("button")
	line, err := gpiocdev.RequestLine(chip, offset,
		gpiocdev.WithConsumer("shiftlight-service"),
		gpiocdev.WithPullUp,
		gpiocdev.WithDebounce(20*time.Millisecond),
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			if evt.Type != gpiocdev.LineEventFallingEdge {
				return
			}
			l.Debugf("Button press on %s:%d", chip, offset)
			callback()
		}))
	if err != nil {
		return nil, fmt.Errorf("failed to request GPIO line %s:%d: %w", chip, offset, err)
	}

	l.Infof("Mode button on %s line %d", chip, offset)
	return &ModeButton{line: line, log: l}, nil
}

func (b *ModeButton) Close() {
	if err := b.line.Close(); err != nil {
		b.log.Warnf("Failed to close GPIO line: %v", err)
	}
}
