package encoder

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	serial "github.com/jacobsa/go-serial/serial"
)

// serialReader reads a UART-attached encoder that streams one decimal
// raw code per line. A background goroutine keeps the latest frame;
// ReadAngle returns it without blocking on the port.
type serialReader struct {
	mu    sync.Mutex
	last  uint16
	valid bool
}

// NewSerial opens the encoder serial port and starts the frame reader.
func NewSerial(port string, baud, steps int) (Reader, error) {
	opts := serial.OpenOptions{
		PortName:        port,
		BaudRate:        uint(baud),
		DataBits:        8,
		StopBits:        1,
		MinimumReadSize: 1,
		ParityMode:      serial.PARITY_NONE,
	}

	p, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("encoder: serial open (%s): %w", port, err)
	}
	log.Printf("encoder: serial port opened on %s at %d baud", port, baud)

	r := &serialReader{}
	go r.readLoop(p, steps)
	return r, nil
}

func (r *serialReader) readLoop(port io.ReadCloser, steps int) {
	defer port.Close()

	scanner := bufio.NewScanner(port)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		code, err := strconv.Atoi(line)
		if err != nil {
			// partial frame after open, or line noise
			continue
		}
		if code < 0 || code >= steps {
			log.Printf("encoder: serial frame out of range: %d", code)
			continue
		}

		r.mu.Lock()
		r.last = uint16(code)
		r.valid = true
		r.mu.Unlock()
	}

	if err := scanner.Err(); err != nil {
		log.Printf("encoder: serial read error: %v", err)
	}
}

func (r *serialReader) ReadAngle() (uint16, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.valid {
		return 0, fmt.Errorf("encoder: no serial frame received yet")
	}
	return r.last, nil
}
