package sx1276

import (
	"errors"
	"fmt"
)

var (
	ErrVersion     = errors.New("version not matched")
	ErrNotLoRaMode = errors.New("chip not in lora mode")
	ErrTxTimeout   = errors.New("tx done timeout")
	ErrTxTooLate   = errors.New("tx time already passed")
	ErrRxTimeout   = errors.New("receive timeout")
	ErrNoBus       = errors.New("no register bus")
	ErrPayloadSize = fmt.Errorf("payload exceeds %d bytes", MaxPktLength)

	ErrUnsupportedParameter       = errors.New("unsupported parameter")
	ErrUnsupportedBandwidth       = fmt.Errorf("%w: bandwidth", ErrUnsupportedParameter)
	ErrUnsupportedSpreadingFactor = fmt.Errorf("%w: spreading factor", ErrUnsupportedParameter)
	ErrUnsupportedFrequency       = fmt.Errorf("%w: frequency", ErrUnsupportedParameter)
)

// BusError is returned when a register transfer fails. The device is left in
// whatever state the preceding writes produced.
type BusError struct {
	Op  string // "read" or "write"
	Reg Register
	Err error
}

func (e *BusError) Error() string {
	return fmt.Sprintf("%s register 0x%02x: %v", e.Op, byte(e.Reg), e.Err)
}

func (e *BusError) Unwrap() error {
	return e.Err
}
