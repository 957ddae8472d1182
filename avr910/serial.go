package avr910

import (
	"fmt"

	"go.bug.st/serial"
)

// DefaultBaudRate is the rate the classic AVR910 firmware runs at.
const DefaultBaudRate = 19200

// Port is a Programmer bound to a serial port it owns.
type Port struct {
	*Programmer
	port serial.Port
}

// Open opens a serial port at the given baud rate (8N1, as the firmware
// expects) and returns a Programmer bound to it. A baud of zero selects
// DefaultBaudRate. Stale input is drained so the first handshake starts
// clean.
func Open(portName string, baud int, opts ...Option) (*Port, error) {
	if baud == 0 {
		baud = DefaultBaudRate
	}
	mode := &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", portName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("drain %s: %w", portName, err)
	}
	return &Port{
		Programmer: New(port, opts...),
		port:       port,
	}, nil
}

// Close leaves programming mode and closes the serial port. The leave
// command is best effort; a device that already reset will not answer.
func (p *Port) Close() error {
	_ = p.LeaveProgMode()
	return p.port.Close()
}
