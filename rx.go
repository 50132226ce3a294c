package sx1276

import (
	"context"
	"fmt"
	"time"
)

const rxPollInterval = time.Millisecond

// Packet is a received packet with stats.
type Packet struct {
	Payload []byte
	SNR     int // dB
	RSSI    int // dBm
	Valid   bool
}

// Receive polls RegIrqFlags once and returns the received packet, or nil if
// none is ready. Packets with a CRC error are dropped. All interrupt flags are
// cleared by the poll.
func (d *Device) Receive() (*Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.receive()
}

func (d *Device) receive() (*Packet, error) {
	irq, err := d.readRegister(RegIrqFlags)
	if err != nil {
		return nil, err
	}
	if err := d.writeRegister(RegIrqFlags, irqAll); err != nil {
		return nil, err
	}
	if irq&IrqRxDoneMask == 0 || irq&IrqPayloadCrcErrorMask != 0 {
		return nil, nil
	}

	addr, err := d.readRegister(RegFifoRxCurrentAddr)
	if err != nil {
		return nil, err
	}
	n, err := d.readRegister(RegRxNbBytes)
	if err != nil {
		return nil, err
	}
	if err := d.writeRegister(RegFifoAddrPtr, addr); err != nil {
		return nil, err
	}
	payload, err := d.readFifo(int(n))
	if err != nil {
		return nil, err
	}

	snr, err := d.readRegister(RegPktSnrValue)
	if err != nil {
		return nil, err
	}
	rssi, err := d.readRegister(RegPktRssiValue)
	if err != nil {
		return nil, err
	}
	p := &Packet{
		Payload: payload,
		SNR:     decodeSNR(snr),
		RSSI:    decodeRSSI(rssi),
		Valid:   true,
	}
	d.log("%s: received %d bytes, snr %d dB, rssi %d dBm", d.cfg.Desc, len(payload), p.SNR, p.RSSI)
	return p, nil
}

// readFifo reads n bytes from RegFifo. The chip advances RegFifoAddrPtr on
// every access.
func (d *Device) readFifo(n int) ([]byte, error) {
	if n == 0 {
		return []byte{}, nil
	}
	if br, ok := d.bus.(BurstReader); ok {
		b, err := br.ReadRegisterBytes(RegFifo, n)
		if err != nil {
			return nil, &BusError{Op: "read", Reg: RegFifo, Err: err}
		}
		return b, nil
	}
	b := make([]byte, n)
	for i := range b {
		v, err := d.readRegister(RegFifo)
		if err != nil {
			return nil, err
		}
		b[i] = v
	}
	return b, nil
}

// ReceiveSingle arms a single reception and waits up to timeout for it to
// end. It returns ErrRxTimeout if the chip reported a symbol timeout or
// nothing happened in time, and a nil packet if the CRC check failed.
func (d *Device) ReceiveSingle(timeout time.Duration) (*Packet, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.startReceive(RxSingle); err != nil {
		return nil, err
	}
	deadline := d.now().Add(timeout)
	for {
		done, err := d.rxEnded()
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
		if !d.now().Before(deadline) {
			return nil, fmt.Errorf("%w after %s", ErrRxTimeout, timeout)
		}
		time.Sleep(rxPollInterval)
	}
	irq, err := d.readRegister(RegIrqFlags)
	if err != nil {
		return nil, err
	}
	if irq&IrqRxTimeoutMask != 0 {
		if err := d.writeRegister(RegIrqFlags, irqAll); err != nil {
			return nil, err
		}
		return nil, ErrRxTimeout
	}
	return d.receive()
}

// rxEnded reports RxDone or RxTimeout, from DIO0 and DIO1 when both are wired.
func (d *Device) rxEnded() (bool, error) {
	if d.pins.DIO0 != nil && d.pins.DIO1 != nil {
		for _, l := range []Line{d.pins.DIO0, d.pins.DIO1} {
			high, err := l.Get()
			if err != nil {
				return false, fmt.Errorf("failed to read DIO line: %w", err)
			}
			if high {
				return true, nil
			}
		}
		return false, nil
	}
	irq, err := d.readRegister(RegIrqFlags)
	if err != nil {
		return false, err
	}
	return irq&(IrqRxDoneMask|IrqRxTimeoutMask) != 0, nil
}

// RSSI returns the current channel RSSI in dBm.
func (d *Device) RSSI() (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.readRegister(RegRssiValue)
	if err != nil {
		return 0, err
	}
	return decodeRSSI(v), nil
}

// Listen receives continuously and pushes packets into ch until ctx is done.
// The receiver is polled every interval, skipping the register poll while
// DIO0 is low. The chip is put in standby on return.
func (d *Device) Listen(ctx context.Context, interval time.Duration, ch chan<- *Packet) error {
	if err := d.StartReceive(RxScan); err != nil {
		return err
	}
	defer d.Standby()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		}
		if d.pins.DIO0 != nil {
			ready, err := d.pins.DIO0.Get()
			if err != nil {
				return fmt.Errorf("failed to read DIO0: %w", err)
			}
			if !ready {
				continue
			}
		}
		p, err := d.Receive()
		if err != nil {
			return err
		}
		if p == nil {
			continue
		}
		select {
		case ch <- p:
		case <-ctx.Done():
			return nil
		}
	}
}
