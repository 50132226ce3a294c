//go:build linux

// Package gpioline drives the radio reset and DIO pins through the Linux GPIO
// character device.
package gpioline

import (
	"fmt"

	"github.com/warthog618/gpiod"
)

type Chip struct {
	chip *gpiod.Chip
}

// Line is a requested GPIO line. It implements sx1276.Line.
type Line struct {
	line *gpiod.Line
}

// Open opens a GPIO chip such as "gpiochip0".
func Open(name string) (*Chip, error) {
	c, err := gpiod.NewChip(name, gpiod.WithConsumer("sx1276"))
	if err != nil {
		return nil, fmt.Errorf("failed to create GPIO chip: %w", err)
	}
	return &Chip{chip: c}, nil
}

// Output requests offset as an output driven high.
func (c *Chip) Output(offset int) (*Line, error) {
	l, err := c.chip.RequestLine(offset, gpiod.AsOutput(1))
	if err != nil {
		return nil, fmt.Errorf("failed to request output line %d: %w", offset, err)
	}
	return &Line{line: l}, nil
}

// Input requests offset as an input.
func (c *Chip) Input(offset int) (*Line, error) {
	l, err := c.chip.RequestLine(offset, gpiod.AsInput)
	if err != nil {
		return nil, fmt.Errorf("failed to request input line %d: %w", offset, err)
	}
	return &Line{line: l}, nil
}

func (c *Chip) Close() error {
	return c.chip.Close()
}

func (l *Line) Set(high bool) error {
	v := 0
	if high {
		v = 1
	}
	return l.line.SetValue(v)
}

func (l *Line) Get() (bool, error) {
	v, err := l.line.Value()
	if err != nil {
		return false, err
	}
	return v == 1, nil
}

func (l *Line) Close() error {
	return l.line.Close()
}
