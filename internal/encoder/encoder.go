package encoder

import (
	"fmt"
	"log"

	"github.com/relabs-tech/cart_computer/internal/config"
)

// Reader returns the current raw angular code of the absolute encoder,
// in [0, steps). Implementations perform the hardware transaction and
// nothing else.
type Reader interface {
	ReadAngle() (uint16, error)
}

// NewFromConfig builds the encoder source selected by ENCODER_SOURCE.
func NewFromConfig(cfg *config.Config) (Reader, error) {
	switch cfg.EncoderSource {
	case "i2c":
		return NewAS5600(cfg.EncoderI2CBus, cfg.EncoderI2CAddr)
	case "serial":
		return NewSerial(cfg.EncoderSerialPort, cfg.EncoderBaudRate, cfg.EncoderSteps)
	case "mock":
		return NewMock(cfg.EncoderSteps), nil
	default:
		return nil, fmt.Errorf("unknown encoder source %q", cfg.EncoderSource)
	}
}

// failsoft wraps a Reader so that a transient communication failure
// yields the previous good reading instead of an error. One missed
// sample must not halt acquisition.
type failsoft struct {
	inner Reader
	last  uint16
}

// Failsoft wraps r with the last-good-value recovery policy. Errors
// from the underlying reader are logged, never returned.
func Failsoft(r Reader) Reader {
	return &failsoft{inner: r}
}

func (f *failsoft) ReadAngle() (uint16, error) {
	code, err := f.inner.ReadAngle()
	if err != nil {
		log.Printf("encoder: read error, reusing last code %d: %v", f.last, err)
		return f.last, nil
	}
	f.last = code
	return code, nil
}
