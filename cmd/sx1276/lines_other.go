//go:build !linux

package main

import (
	"errors"

	"github.com/NV4RE/sx1276"
)

func openLines(hw sx1276.Hardware) (sx1276.Pins, func() error, error) {
	return sx1276.Pins{}, nil, errors.New("GPIO character devices require linux")
}
