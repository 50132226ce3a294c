package sx1276

import "fmt"

// State is the operating mode the driver last put the chip in.
type State uint8

const (
	StateUnknown State = iota
	StateSleep
	StateStandby
	StateRxSingle
	StateRxContinuous
	StateRxRSSI
	StateTx
)

var stateNames = [...]string{
	StateUnknown:      "unknown",
	StateSleep:        "sleep",
	StateStandby:      "standby",
	StateRxSingle:     "rx single",
	StateRxContinuous: "rx continuous",
	StateRxRSSI:       "rx rssi",
	StateTx:           "tx",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

var modeStates = map[Mode]State{
	ModeSleep:        StateSleep,
	ModeStandby:      StateStandby,
	ModeTx:           StateTx,
	ModeRxContinuous: StateRxContinuous,
	ModeRxSingle:     StateRxSingle,
}

// RxMode selects how the receiver is armed.
type RxMode uint8

const (
	// RxSingle receives one packet or times out.
	RxSingle RxMode = iota
	// RxScan receives continuously.
	RxScan
	// RxRSSI receives continuously with fixed modem settings and all
	// interrupts masked, for polling RSSI.
	RxRSSI
)

var rxIrqMask = [...]byte{
	RxSingle: IrqRxDoneMask | IrqRxTimeoutMask | IrqPayloadCrcErrorMask,
	RxScan:   IrqRxDoneMask | IrqPayloadCrcErrorMask,
	RxRSSI:   0x00,
}

func (d *Device) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

func (d *Device) Sleep() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setMode(ModeSleep)
}

func (d *Device) Standby() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setMode(ModeStandby)
}

func (d *Device) setMode(m Mode) error {
	err := d.updateRegister(RegOpMode, func(op byte) byte {
		return withOpMode(op, m)
	})
	if err != nil {
		return err
	}
	d.state = modeStates[m]
	return nil
}

// StartReceive arms the receiver using the current modem configuration.
func (d *Device) StartReceive(mode RxMode) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.startReceive(mode)
}

func (d *Device) startReceive(mode RxMode) error {
	if int(mode) >= len(rxIrqMask) {
		return fmt.Errorf("%w: rx mode %d", ErrUnsupportedParameter, mode)
	}
	if err := d.assertLoRa(); err != nil {
		return err
	}
	// FIFO pointers can only be written in standby.
	if err := d.setMode(ModeStandby); err != nil {
		return err
	}
	if err := d.applyInvertIQ(d.cfg.InvertIQ, false); err != nil {
		return err
	}
	if mode == RxRSSI {
		err := d.writeRegisters(
			regValue{RegModemConfig1, rssiScanModemConfig1},
			regValue{RegModemConfig2, rssiScanModemConfig2},
		)
		if err != nil {
			return err
		}
	}
	err := d.writeRegisters(
		regValue{RegMaxPayloadLength, 0x80},
		regValue{RegHopPeriod, 0xff},
		regValue{RegFifoRxBaseAddr, fifoBase},
		regValue{RegFifoAddrPtr, fifoBase},
		regValue{RegDioMapping1, dio0RxDone | dio1RxTimeout | dio2Nop},
		regValue{RegIrqFlags, irqAll},
		regValue{RegIrqFlagsMask, ^rxIrqMask[mode]},
	)
	if err != nil {
		return err
	}
	if mode == RxSingle {
		return d.setMode(ModeRxSingle)
	}
	if err := d.setMode(ModeRxContinuous); err != nil {
		return err
	}
	if mode == RxRSSI {
		d.state = StateRxRSSI
	}
	return nil
}

// armTx prepares standby, DIO0 and the interrupt mask for a transmission.
func (d *Device) armTx() error {
	if err := d.setMode(ModeStandby); err != nil {
		return err
	}
	return d.writeRegisters(
		regValue{RegDioMapping1, dio0TxDone | dio1Nop | dio2Nop},
		regValue{RegIrqFlags, irqAll},
		regValue{RegIrqFlagsMask, ^IrqTxDoneMask},
	)
}

// finishTx masks and clears all interrupts and puts the chip to sleep.
func (d *Device) finishTx() error {
	err := d.writeRegisters(
		regValue{RegIrqFlagsMask, irqAll},
		regValue{RegIrqFlags, irqAll},
	)
	if err != nil {
		return err
	}
	return d.setMode(ModeSleep)
}
