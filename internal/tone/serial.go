package tone

import (
	"fmt"
	"io"
	"log/slog"

	"go.bug.st/serial"
)

// Serial sends tone commands to a microcontroller that owns the buzzers.
type Serial struct {
	port   io.WriteCloser
	logger *slog.Logger
}

// OpenSerial opens the named serial device at the given baud rate.
func OpenSerial(name string, baud int, logger *slog.Logger) (*Serial, error) {
	mode := &serial.Mode{BaudRate: baud}
	p, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s at %d baud: %w", name, baud, err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("serial: port opened", "device", name, "baud", baud)
	return NewSerial(p, logger), nil
}

// NewSerial wraps an already open port.
func NewSerial(port io.WriteCloser, logger *slog.Logger) *Serial {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serial{port: port, logger: logger}
}

func (s *Serial) CreateTone(pin int) error {
	return s.send(Frame{Cmd: CmdCreateTone, Pin: byte(pin)})
}

func (s *Serial) SetTone(pin, hz int) error {
	if hz < 0 || hz > 0xFFFF {
		return fmt.Errorf("serial: frequency %d out of range", hz)
	}
	return s.send(Frame{Cmd: CmdSetTone, Pin: byte(pin), Hz: uint16(hz)})
}

func (s *Serial) send(f Frame) error {
	data := f.Encode()
	n, err := s.port.Write(data)
	if err != nil {
		return fmt.Errorf("serial: write: %w", err)
	}
	s.logger.Debug("serial: frame sent", "bytes", n, "cmd", f.Cmd, "pin", f.Pin, "hz", f.Hz)
	return nil
}

// Close closes the underlying serial port.
func (s *Serial) Close() error {
	s.logger.Info("serial: closing port")
	return s.port.Close()
}
