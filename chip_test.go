package sx1276

import (
	"errors"
	"testing"
	"time"
)

var errBus = errors.New("spi transfer failed")

// fakeChip simulates the SX1276 register file closely enough to exercise
// the driver: FIFO auto-increment, write-one-to-clear IRQ flags and the long
// range bit that only changes in sleep mode.
type fakeChip struct {
	regs      [256]byte
	fifo      [256]byte
	writes    []regValue
	failRead  map[Register]bool
	failWrite map[Register]bool
	fsk       bool         // refuses the LoRa modem
	onMode    func(m Mode) // called after every op mode change
}

func newFakeChip() *fakeChip {
	c := &fakeChip{
		failRead:  make(map[Register]bool),
		failWrite: make(map[Register]bool),
	}
	// Power-on defaults.
	c.regs[RegOpMode] = 0x09
	c.regs[RegModemConfig1] = 0x72
	c.regs[RegModemConfig2] = 0x70
	c.regs[RegInvertIQ] = 0x27
	c.regs[RegVersion] = ChipVersion
	return c
}

func (c *fakeChip) ReadRegister(reg Register) (byte, error) {
	if c.failRead[reg] {
		return 0, errBus
	}
	if reg == RegFifo {
		v := c.fifo[c.regs[RegFifoAddrPtr]]
		c.regs[RegFifoAddrPtr]++
		return v, nil
	}
	return c.regs[reg], nil
}

func (c *fakeChip) WriteRegister(reg Register, v byte) error {
	if c.failWrite[reg] {
		return errBus
	}
	c.writes = append(c.writes, regValue{reg, v})
	switch reg {
	case RegFifo:
		c.fifo[c.regs[RegFifoAddrPtr]] = v
		c.regs[RegFifoAddrPtr]++
	case RegIrqFlags:
		c.regs[reg] &^= v
	case RegOpMode:
		cur := c.regs[RegOpMode]
		lora := byte(ModeLongRange)
		if Mode(cur)&modeMask != ModeSleep {
			v = v&^lora | cur&lora
		}
		if c.fsk {
			v &^= lora
		}
		c.regs[reg] = v
		if c.onMode != nil {
			c.onMode(Mode(v) & modeMask)
		}
	default:
		c.regs[reg] = v
	}
	return nil
}

// written returns the values written to reg, in order.
func (c *fakeChip) written(reg Register) []byte {
	var vals []byte
	for _, w := range c.writes {
		if w.reg == reg {
			vals = append(vals, w.val)
		}
	}
	return vals
}

// firstWrite returns the index of the first write to reg matching f, or -1.
func (c *fakeChip) firstWrite(reg Register, f func(byte) bool) int {
	for i, w := range c.writes {
		if w.reg == reg && (f == nil || f(w.val)) {
			return i
		}
	}
	return -1
}

func (c *fakeChip) mode() Mode {
	return Mode(c.regs[RegOpMode]) & modeMask
}

// burstChip adds burst FIFO reads to fakeChip.
type burstChip struct {
	*fakeChip
	bursts int
}

func (c *burstChip) ReadRegisterBytes(reg Register, n int) ([]byte, error) {
	c.bursts++
	b := make([]byte, n)
	for i := range b {
		v, err := c.ReadRegister(reg)
		if err != nil {
			return nil, err
		}
		b[i] = v
	}
	return b, nil
}

type fakeLine struct {
	high bool
	sets []bool
	err  error
}

func (l *fakeLine) Set(high bool) error {
	l.sets = append(l.sets, high)
	l.high = high
	return l.err
}

func (l *fakeLine) Get() (bool, error) {
	return l.high, l.err
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Desc = "test"
	return cfg
}

func newTestDevice(t *testing.T, bus Bus, pins Pins, cfg Config) *Device {
	t.Helper()
	d, err := New(bus, pins, cfg, &Options{Logger: t.Logf})
	if err != nil {
		t.Fatal(err)
	}
	d.sleep = func(d time.Duration) {
		t.Fatalf("unexpected sleep %s", d)
	}
	return d
}

// configuredDevice returns a device whose fake chip is already in LoRa mode.
func configuredDevice(t *testing.T, pins Pins) (*Device, *fakeChip) {
	t.Helper()
	c := newFakeChip()
	d := newTestDevice(t, c, pins, testConfig())
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	c.writes = nil
	return d, c
}
