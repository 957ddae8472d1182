package avr910

import "fmt"

// ProtocolError indicates the firmware answered a command with something
// other than the expected carriage-return acknowledgment. The serial link
// is likely out of sync.
type ProtocolError struct {
	Op  string
	Got byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error on %s: expected ack, got 0x%02x", e.Op, e.Got)
}

// DeviceNotSupportedError indicates the programmer's supported-device list
// does not include the selected part.
type DeviceNotSupportedError struct {
	Part    string
	DevCode byte
}

func (e *DeviceNotSupportedError) Error() string {
	if e.DevCode == 0 {
		return fmt.Sprintf("programmer supports no devices, cannot select %s", e.Part)
	}
	return fmt.Sprintf("device code 0x%02x (%s) not supported by programmer", e.DevCode, e.Part)
}
