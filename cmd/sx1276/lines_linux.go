//go:build linux

package main

import (
	"github.com/NV4RE/sx1276"
	"github.com/NV4RE/sx1276/gpioline"
)

// openLines requests the reset and DIO lines from the configured GPIO chip.
// Pin names are line offsets.
func openLines(hw sx1276.Hardware) (sx1276.Pins, func() error, error) {
	chip, err := gpioline.Open(hw.GPIOChip)
	if err != nil {
		return sx1276.Pins{}, nil, err
	}
	var lines []*gpioline.Line
	closeAll := func() error {
		for _, l := range lines {
			l.Close()
		}
		return chip.Close()
	}
	fail := func(err error) (sx1276.Pins, func() error, error) {
		closeAll()
		return sx1276.Pins{}, nil, err
	}

	off, err := parseOffset("reset", hw.Reset)
	if err != nil {
		return fail(err)
	}
	reset, err := chip.Output(off)
	if err != nil {
		return fail(err)
	}
	lines = append(lines, reset)

	off, err = parseOffset("dio0", hw.DIO0)
	if err != nil {
		return fail(err)
	}
	dio0, err := chip.Input(off)
	if err != nil {
		return fail(err)
	}
	lines = append(lines, dio0)
	pins := sx1276.Pins{Reset: reset, DIO0: dio0}

	if hw.DIO1 != "" {
		off, err = parseOffset("dio1", hw.DIO1)
		if err != nil {
			return fail(err)
		}
		dio1, err := chip.Input(off)
		if err != nil {
			return fail(err)
		}
		lines = append(lines, dio1)
		pins.DIO1 = dio1
	}
	return pins, closeAll, nil
}
