package sx1276

import (
	"errors"
	"testing"
)

func TestFrequency(t *testing.T) {
	tests := []struct {
		hz  uint32
		frf uint32
	}{
		{868100000, 0xd90666},
		{915000000, 0xe4c000},
		{433175000, 0x6c4b33},
	}
	for _, test := range tests {
		frf, err := frfFromHz(test.hz)
		if err != nil {
			t.Fatal(err)
		}
		if frf != test.frf {
			t.Errorf("frf(%d) = 0x%06x, want 0x%06x", test.hz, frf, test.frf)
		}
	}
	if _, err := frfFromHz(1100000000); !errors.Is(err, ErrUnsupportedFrequency) {
		t.Errorf("frf(1.1GHz) returned %v, want %v", err, ErrUnsupportedFrequency)
	}
}

func TestFrequencyRoundTrip(t *testing.T) {
	// One FRF step is 32MHz/2^19, just over 61Hz.
	const step = 62
	for hz := uint32(137000000); hz <= 1020000000; hz += 7654321 {
		frf, err := frfFromHz(hz)
		if err != nil {
			t.Fatal(err)
		}
		got := hzFromFrf(frf)
		diff := int64(got) - int64(hz)
		if diff < -step || diff > step {
			t.Errorf("%d Hz encoded as 0x%06x decodes to %d Hz", hz, frf, got)
		}
	}
}

func TestClamps(t *testing.T) {
	tests := []struct {
		name    string
		f       func(int) int
		in, out int
	}{
		{"sf", clampSpreadingFactor, 3, 6},
		{"sf", clampSpreadingFactor, 9, 9},
		{"sf", clampSpreadingFactor, 15, 12},
		{"cr", clampCodingRate, 3, 5},
		{"cr", clampCodingRate, 7, 7},
		{"cr", clampCodingRate, 9, 8},
		{"power", clampPower, 0, 5},
		{"power", clampPower, 14, 14},
		{"power", clampPower, 30, 20},
	}
	for _, test := range tests {
		if got := test.f(test.in); got != test.out {
			t.Errorf("%s %d clamped to %d, want %d", test.name, test.in, got, test.out)
		}
	}
	if got := paConfig(30); got != 0x8f {
		t.Errorf("paConfig(30) = 0x%02x, want 0x8f", got)
	}
	if got := paConfig(-3); got != 0x80 {
		t.Errorf("paConfig(-3) = 0x%02x, want 0x80", got)
	}
}

func TestRegisterFields(t *testing.T) {
	if got := withOpMode(0x89, ModeTx); got != 0x8b {
		t.Errorf("op mode 0x%02x, want 0x8b", got)
	}
	// Implicit header bit survives bandwidth and coding rate changes.
	mc1 := withBandwidth(0x01, 8)
	mc1 = withCodingRate(mc1, 8)
	if mc1 != 0x89 {
		t.Errorf("modem config 1 0x%02x, want 0x89", mc1)
	}
	mc2 := withSpreadingFactor(0x73, 12)
	mc2 = withCrc(mc2, true)
	if mc2 != 0xc7 {
		t.Errorf("modem config 2 0x%02x, want 0xc7", mc2)
	}
	if got := withCrc(0xc7, false); got != 0xc3 {
		t.Errorf("crc off 0x%02x, want 0xc3", got)
	}
}

func TestInvertIQ(t *testing.T) {
	tests := []struct {
		reg     byte
		rx, tx  bool
		iq, iq2 byte
	}{
		{0x27, false, false, 0x27, 0x1d},
		{0x27, true, false, 0x67, 0x19},
		{0x27, false, true, 0x26, 0x19},
		{0x66, false, false, 0x27, 0x1d},
	}
	for _, test := range tests {
		iq, iq2 := withInvertIQ(test.reg, test.rx, test.tx)
		if iq != test.iq || iq2 != test.iq2 {
			t.Errorf("invert rx=%v tx=%v of 0x%02x: 0x%02x 0x%02x, want 0x%02x 0x%02x",
				test.rx, test.tx, test.reg, iq, iq2, test.iq, test.iq2)
		}
	}
}

func TestPolicy(t *testing.T) {
	tests := []struct {
		sf        int
		optimize  byte
		threshold byte
		mc3       byte
	}{
		{5, 0xc5, 0x0c, 0x04},
		{6, 0xc5, 0x0c, 0x04},
		{7, 0xc3, 0x0a, 0x04},
		{10, 0xc3, 0x0a, 0x04},
		{11, 0xc3, 0x0a, 0x08},
		{12, 0xc3, 0x0a, 0x08},
		{13, 0xc3, 0x0a, 0x08},
	}
	for _, test := range tests {
		p := policyFor(test.sf)
		if p.detectionOptimize != test.optimize || p.detectionThreshold != test.threshold || p.modemConfig3 != test.mc3 {
			t.Errorf("SF%d: got %+v", test.sf, p)
		}
	}
}

func TestDecodeStats(t *testing.T) {
	snr := map[byte]int{
		0x00: 0,
		0x04: 1,
		0x28: 10,
		0xfc: -1,
		0xec: -5,
		0x80: -32,
	}
	for raw, want := range snr {
		if got := decodeSNR(raw); got != want {
			t.Errorf("snr 0x%02x = %d dB, want %d", raw, got, want)
		}
	}
	if got := decodeRSSI(100); got != -57 {
		t.Errorf("rssi 100 = %d dBm, want -57", got)
	}
}
