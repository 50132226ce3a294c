package sx1276

import (
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3/physic"
)

// Bus gives access to the chip registers.
type Bus interface {
	ReadRegister(reg Register) (byte, error)
	WriteRegister(reg Register, value byte) error
}

// BurstReader is implemented by buses that can read n consecutive values of
// one register in a single transfer.
type BurstReader interface {
	ReadRegisterBytes(reg Register, n int) ([]byte, error)
}

// Line is a single GPIO line.
type Line interface {
	Set(high bool) error
	Get() (bool, error)
}

// LogPrintf is the function used for logging.
type LogPrintf func(format string, v ...interface{})

// Pins are the GPIO lines wired to the radio. Any of them may be nil: without
// Reset the chip is not reset, without DIO0 TX completion and RX readiness are
// read from RegIrqFlags.
type Pins struct {
	Reset Line
	DIO0  Line
	DIO1  Line
}

type Options struct {
	// TxTimeout bounds the wait for TX done. Zero derives it from the time on
	// air of each packet.
	TxTimeout time.Duration
	// RejectLate makes Transmit fail with ErrTxTooLate for timestamped packets
	// whose start time has passed, instead of sending them immediately.
	RejectLate bool
	Logger     LogPrintf
}

// Device is one SX1276 radio. Methods serialize on the device; a Device must
// not share its bus with another Device.
type Device struct {
	mu         sync.Mutex
	bus        Bus
	pins       Pins
	cfg        Config
	state      State
	txTimeout  time.Duration
	rejectLate bool
	log        LogPrintf
	closers    []io.Closer

	now   func() time.Time
	sleep func(time.Duration)
}

type regValue struct {
	reg Register
	val byte
}

// modem is the subset of parameters programmed into the LoRa modem
// registers, shared by Configure and Transmit.
type modem struct {
	frequency  uint32
	sf         int
	bandwidth  uint32
	codingRate int
	preamble   uint16
	syncWord   byte
	crc        bool
}

func New(bus Bus, pins Pins, cfg Config, opts *Options) (*Device, error) {
	if bus == nil {
		return nil, ErrNoBus
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d := &Device{
		bus:   bus,
		pins:  pins,
		cfg:   cfg,
		log:   func(format string, v ...interface{}) {},
		now:   time.Now,
		sleep: spinSleep,
	}
	if opts != nil {
		d.txTimeout = opts.TxTimeout
		d.rejectLate = opts.RejectLate
		if opts.Logger != nil {
			d.log = opts.Logger
		}
	}
	return d, nil
}

// Close releases the resources opened by Open.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var first error
	for _, c := range d.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	d.closers = nil
	return first
}

func (d *Device) Config() Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Init resets the chip, checks its silicon revision and configures it.
func (d *Device) Init() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.detect()
	if err != nil {
		return err
	}
	if v != ChipVersion {
		d.log("%s: unrecognized transceiver, expect 0x%02x found 0x%02x", d.cfg.Desc, ChipVersion, v)
		return fmt.Errorf("%w: expect 0x%02x found 0x%02x", ErrVersion, ChipVersion, v)
	}
	d.log("%s: SX1276 detected", d.cfg.Desc)
	return d.configure()
}

// Detect resets the chip and reports whether RegVersion holds the expected
// silicon revision.
func (d *Device) Detect() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, err := d.detect()
	return v == ChipVersion, err
}

func (d *Device) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reset()
}

func (d *Device) reset() error {
	if d.pins.Reset == nil {
		return nil
	}
	if err := d.pins.Reset.Set(false); err != nil {
		return fmt.Errorf("failed to pull reset low: %w", err)
	}
	time.Sleep(10 * time.Millisecond)
	err := d.pins.Reset.Set(true)
	time.Sleep(10 * time.Millisecond)
	if err != nil {
		return fmt.Errorf("failed to release reset: %w", err)
	}
	d.state = StateUnknown
	return nil
}

func (d *Device) detect() (byte, error) {
	if err := d.reset(); err != nil {
		return 0, err
	}
	if err := d.setMode(ModeSleep); err != nil {
		return 0, err
	}
	return d.readRegister(RegVersion)
}

// SetConfig replaces the configuration record and applies it.
func (d *Device) SetConfig(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cfg = cfg
	return d.configure()
}

// Configure programs the LoRa modem from the configuration record. The chip
// is left in sleep mode. A failed Configure may leave the modem partially
// programmed; call it again before further use.
func (d *Device) Configure() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.configure()
}

func (d *Device) configure() error {
	m := d.cfg.modem()
	if err := m.validate(); err != nil {
		return err
	}
	d.log("Setup %s channel: freq=%s sf=%d bw=%s cr=4/%d prlen=%d syncword=0x%02x",
		d.cfg.Desc, hz(m.frequency), m.sf, hz(m.bandwidth), m.codingRate, m.preamble, m.syncWord)

	if err := d.enterLoRa(m.frequency); err != nil {
		return err
	}
	if err := d.applyModem(m); err != nil {
		return err
	}
	return d.writeRegisters(
		regValue{RegHighBwOptimize1, highBwOptimize1},
		regValue{RegHighBwOptimize2, highBwOptimize2},
	)
}

func (c Config) modem() modem {
	return modem{
		frequency:  c.Frequency,
		sf:         c.SpreadingFactor,
		bandwidth:  c.Bandwidth,
		codingRate: c.CodingRate,
		preamble:   c.PreambleLength,
		syncWord:   c.SyncWord,
		crc:        c.CRC,
	}
}

func (m modem) validate() error {
	if _, err := frfFromHz(m.frequency); err != nil {
		return err
	}
	_, err := bandwidthRegField(m.bandwidth)
	return err
}

// enterLoRa selects the LoRa modem. The long range bit can only be changed in
// sleep mode, and the chip ignores the LoRa registers until it is set.
func (d *Device) enterLoRa(frequency uint32) error {
	if err := d.setMode(ModeSleep); err != nil {
		return err
	}
	op := ModeLongRange | ModeSleep
	if frequency < RfMidBandThreshold {
		op |= ModeLowFrequency
	}
	if err := d.writeRegister(RegOpMode, byte(op)); err != nil {
		return err
	}
	return d.assertLoRa()
}

func (d *Device) assertLoRa() error {
	op, err := d.readRegister(RegOpMode)
	if err != nil {
		return err
	}
	if op&byte(ModeLongRange) == 0 {
		return fmt.Errorf("%w: RegOpMode 0x%02x", ErrNotLoRaMode, op)
	}
	return nil
}

// applyModem writes frequency, spreading factor, bandwidth, coding rate,
// preamble, sync word, CRC and gain settings. The chip must be in LoRa mode
// and m must be valid.
func (d *Device) applyModem(m modem) error {
	frf, err := frfFromHz(m.frequency)
	if err != nil {
		return err
	}
	bw, err := bandwidthRegField(m.bandwidth)
	if err != nil {
		return err
	}
	sf := clampSpreadingFactor(m.sf)
	cr := clampCodingRate(m.codingRate)
	policy := policyFor(sf)

	err = d.writeRegisters(
		regValue{RegFrfMsb, byte(frf >> 16)},
		regValue{RegFrfMid, byte(frf >> 8)},
		regValue{RegFrfLsb, byte(frf >> 0)},
		regValue{RegDetectionOptimize, policy.detectionOptimize},
		regValue{RegDetectionThreshold, policy.detectionThreshold},
	)
	if err != nil {
		return err
	}
	err = d.updateRegister(RegModemConfig2, func(mc2 byte) byte {
		return withSpreadingFactor(mc2, sf)
	})
	if err != nil {
		return err
	}
	err = d.updateRegister(RegModemConfig1, func(mc1 byte) byte {
		return withBandwidth(mc1, bw)
	})
	if err != nil {
		return err
	}
	err = d.updateRegister(RegModemConfig1, func(mc1 byte) byte {
		return withCodingRate(mc1, cr)
	})
	if err != nil {
		return err
	}
	err = d.writeRegisters(
		regValue{RegPreambleMsb, byte(m.preamble >> 8)},
		regValue{RegPreambleLsb, byte(m.preamble >> 0)},
		regValue{RegSyncWord, m.syncWord},
	)
	if err != nil {
		return err
	}
	err = d.updateRegister(RegModemConfig2, func(mc2 byte) byte {
		return withCrc(mc2, m.crc)
	})
	if err != nil {
		return err
	}
	return d.writeRegisters(
		regValue{RegLna, lnaMaxGain},
		regValue{RegModemConfig3, policy.modemConfig3},
	)
}

func (d *Device) applyInvertIQ(rx, tx bool) error {
	v, err := d.readRegister(RegInvertIQ)
	if err != nil {
		return err
	}
	iq, iq2 := withInvertIQ(v, rx, tx)
	return d.writeRegisters(
		regValue{RegInvertIQ, iq},
		regValue{RegInvertIQ2, iq2},
	)
}

func (d *Device) applyPower(dbm int) error {
	return d.writeRegisters(
		regValue{RegPaDac, paDacHighPower},
		regValue{RegPaConfig, paConfig(dbm)},
	)
}

func (d *Device) readRegister(reg Register) (byte, error) {
	v, err := d.bus.ReadRegister(reg)
	if err != nil {
		return 0, &BusError{Op: "read", Reg: reg, Err: err}
	}
	return v, nil
}

func (d *Device) writeRegister(reg Register, v byte) error {
	if err := d.bus.WriteRegister(reg, v); err != nil {
		return &BusError{Op: "write", Reg: reg, Err: err}
	}
	return nil
}

func (d *Device) writeRegisters(values ...regValue) error {
	for _, rv := range values {
		if err := d.writeRegister(rv.reg, rv.val); err != nil {
			return err
		}
	}
	return nil
}

// updateRegister replaces reg with f applied to its current value.
func (d *Device) updateRegister(reg Register, f func(byte) byte) error {
	v, err := d.readRegister(reg)
	if err != nil {
		return err
	}
	return d.writeRegister(reg, f(v))
}

func hz(v uint32) physic.Frequency {
	return physic.Frequency(v) * physic.Hertz
}
