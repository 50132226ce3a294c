package sx1276

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

// PinLine adapts a periph.io pin to Line.
type PinLine struct {
	Pin gpio.PinIO
}

func (l PinLine) Set(high bool) error {
	return l.Pin.Out(gpio.Level(high))
}

func (l PinLine) Get() (bool, error) {
	return bool(l.Pin.Read()), nil
}

// Open initializes the periph.io host drivers and opens the SPI port and pins
// named in cfg.Hardware.
func Open(cfg Config, opts *Options) (*Device, error) {
	if _, err := host.Init(); err != nil {
		return nil, err
	}
	hw := cfg.Hardware
	pins, err := OpenPins(hw)
	if err != nil {
		return nil, err
	}
	bus, err := OpenSPIBus(hw.SPI, physic.Frequency(hw.SPISpeed)*physic.Hertz)
	if err != nil {
		return nil, fmt.Errorf("failed to open SPI port %s: %w", hw.SPI, err)
	}
	d, err := New(bus, pins, cfg, opts)
	if err != nil {
		bus.Close()
		return nil, err
	}
	d.closers = append(d.closers, bus)
	return d, nil
}

// OpenPins looks up the reset and DIO pins by name. DIO1 is optional.
func OpenPins(hw Hardware) (Pins, error) {
	reset := gpioreg.ByName(hw.Reset)
	if reset == nil {
		return Pins{}, errors.New("failed to find RESET pin")
	}
	if err := reset.Out(gpio.High); err != nil {
		return Pins{}, err
	}

	dio0 := gpioreg.ByName(hw.DIO0)
	if dio0 == nil {
		return Pins{}, errors.New("failed to find DIO0 pin")
	}
	if err := dio0.In(gpio.PullDown, gpio.NoEdge); err != nil {
		return Pins{}, err
	}
	pins := Pins{Reset: PinLine{reset}, DIO0: PinLine{dio0}}

	if hw.DIO1 != "" {
		dio1 := gpioreg.ByName(hw.DIO1)
		if dio1 == nil {
			return Pins{}, errors.New("failed to find DIO1 pin")
		}
		if err := dio1.In(gpio.PullDown, gpio.NoEdge); err != nil {
			return Pins{}, err
		}
		pins.DIO1 = PinLine{dio1}
	}
	return pins, nil
}
