package sx1276

import (
	"fmt"
	"time"
)

type TxMode uint8

const (
	Immediate TxMode = iota
	Timestamped
)

// TxPacket is a packet to transmit together with its radio parameters.
type TxPacket struct {
	Payload    []byte
	Power      int // dBm, clamped to [5, 20]
	Frequency  uint32
	DataRate   DataRate
	Bandwidth  Bandwidth
	CodingRate int // denominator of 4/x, clamped to [5, 8]
	Preamble   uint16
	NoCRC      bool
	InvertIQ   bool
	Mode       TxMode
	// Time is when the first preamble symbol should be on air, with
	// microsecond resolution. Used in Timestamped mode.
	Time time.Time
}

const (
	txPollInterval = 100 * time.Microsecond
	spinThreshold  = time.Millisecond
)

func (p *TxPacket) modem(syncWord byte) (modem, error) {
	if len(p.Payload) > MaxPktLength {
		return modem{}, fmt.Errorf("%w: %d bytes", ErrPayloadSize, len(p.Payload))
	}
	sf, err := SpreadingFactor(p.DataRate)
	if err != nil {
		return modem{}, err
	}
	bw, err := BandwidthHz(p.Bandwidth)
	if err != nil {
		return modem{}, err
	}
	m := modem{
		frequency:  p.Frequency,
		sf:         sf,
		bandwidth:  bw,
		codingRate: p.CodingRate,
		preamble:   p.Preamble,
		syncWord:   syncWord,
		crc:        !p.NoCRC,
	}
	return m, m.validate()
}

// TimeOnAir returns the on-air duration of p.
func (p *TxPacket) TimeOnAir() (time.Duration, error) {
	m, err := p.modem(0)
	if err != nil {
		return 0, err
	}
	return m.timeOnAir(len(p.Payload)), nil
}

// Transmit reprograms the modem with the packet parameters and sends it. In
// Timestamped mode the transmission is delayed until p.Time if it lies within
// TxJitWindow; packets further ahead are sent immediately, as are late ones
// unless Options.RejectLate is set. Transmit returns once TX done is signalled
// and leaves the chip in sleep mode.
func (d *Device) Transmit(p *TxPacket) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	m, err := p.modem(d.cfg.SyncWord)
	if err != nil {
		return err
	}
	if err := d.enterLoRa(m.frequency); err != nil {
		return err
	}
	if err := d.applyPower(p.Power); err != nil {
		return err
	}
	if err := d.applyModem(m); err != nil {
		return err
	}
	if err := d.writeRegister(RegPaRamp, paRampTx); err != nil {
		return err
	}
	if err := d.applyInvertIQ(false, p.InvertIQ); err != nil {
		return err
	}
	if err := d.armTx(); err != nil {
		return err
	}
	if err := d.loadFifo(p.Payload); err != nil {
		return err
	}

	if p.Mode == Timestamped {
		delay := p.Time.Sub(d.now()) - TxStartDelay
		switch {
		case delay > 0 && delay < TxJitWindow:
			d.sleep(delay)
		case delay <= 0 && d.rejectLate:
			if err := d.finishTx(); err != nil {
				return err
			}
			return fmt.Errorf("%w by %s", ErrTxTooLate, -delay)
		}
	}

	if err := d.send(m.timeOnAir(len(p.Payload))); err != nil {
		return err
	}
	sf := clampSpreadingFactor(m.sf)
	d.log("%s: transmit at SF%dBW%s on %s", d.cfg.Desc, sf, hz(m.bandwidth), hz(m.frequency))
	return nil
}

// Send transmits payload immediately with the configured modem parameters.
// The chip must have been configured.
func (d *Device) Send(payload []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(payload) > MaxPktLength {
		return fmt.Errorf("%w: %d bytes", ErrPayloadSize, len(payload))
	}
	if err := d.assertLoRa(); err != nil {
		return err
	}
	if err := d.setMode(ModeStandby); err != nil {
		return err
	}
	if err := d.applyInvertIQ(false, d.cfg.InvertIQ); err != nil {
		return err
	}
	if err := d.writeRegister(RegSyncWord, d.cfg.SyncWord); err != nil {
		return err
	}
	if err := d.applyPower(d.cfg.Power); err != nil {
		return err
	}
	if err := d.armTx(); err != nil {
		return err
	}
	if err := d.loadFifo(payload); err != nil {
		return err
	}
	if err := d.send(d.cfg.modem().timeOnAir(len(payload))); err != nil {
		return err
	}
	d.log("%s: transmit at SF%dBW%s on %s", d.cfg.Desc, clampSpreadingFactor(d.cfg.SpreadingFactor), hz(d.cfg.Bandwidth), hz(d.cfg.Frequency))
	return nil
}

func (d *Device) loadFifo(payload []byte) error {
	err := d.writeRegisters(
		regValue{RegFifoTxBaseAddr, fifoBase},
		regValue{RegFifoAddrPtr, fifoBase},
	)
	if err != nil {
		return err
	}
	for _, b := range payload {
		if err := d.writeRegister(RegFifo, b); err != nil {
			return err
		}
	}
	return d.writeRegister(RegPayloadLength, byte(len(payload)))
}

// send starts the transmission of the loaded FIFO and waits for TX done.
func (d *Device) send(airtime time.Duration) error {
	if err := d.setMode(ModeTx); err != nil {
		return err
	}
	timeout := d.txTimeout
	if timeout == 0 {
		timeout = 2*airtime + 100*time.Millisecond
	}
	if err := d.waitTxDone(timeout); err != nil {
		// Best effort, the chip may be unresponsive.
		d.finishTx()
		return err
	}
	return d.finishTx()
}

func (d *Device) waitTxDone(timeout time.Duration) error {
	deadline := d.now().Add(timeout)
	for {
		done, err := d.txDone()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		if !d.now().Before(deadline) {
			return fmt.Errorf("%w after %s", ErrTxTimeout, timeout)
		}
		time.Sleep(txPollInterval)
	}
}

func (d *Device) txDone() (bool, error) {
	if d.pins.DIO0 != nil {
		high, err := d.pins.DIO0.Get()
		if err != nil {
			return false, fmt.Errorf("failed to read DIO0: %w", err)
		}
		return high, nil
	}
	irq, err := d.readRegister(RegIrqFlags)
	if err != nil {
		return false, err
	}
	return irq&IrqTxDoneMask != 0, nil
}

// spinSleep sleeps for most of d and spins for the rest, since time.Sleep may
// overshoot by more than the scheduling precision needed on air.
func spinSleep(d time.Duration) {
	deadline := time.Now().Add(d)
	if d > spinThreshold {
		time.Sleep(d - spinThreshold)
	}
	for time.Now().Before(deadline) {
	}
}
