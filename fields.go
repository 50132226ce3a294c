package sx1276

import "fmt"

// Register values derived from physical units. Each function returns the new
// register byte and leaves bits it does not own untouched.

func frfFromHz(hz uint32) (uint32, error) {
	frf := (uint64(hz)<<19 + xtalFrequency/2) / xtalFrequency
	if frf > uint64(frfMax) {
		return 0, fmt.Errorf("%w %d Hz", ErrUnsupportedFrequency, hz)
	}
	return uint32(frf), nil
}

func hzFromFrf(frf uint32) uint32 {
	return uint32((uint64(frf) * xtalFrequency) >> 19)
}

func withOpMode(op byte, m Mode) byte {
	return op&^byte(modeMask) | byte(m&modeMask)
}

func withBandwidth(mc1, field byte) byte {
	return mc1&0x0f | field<<4
}

func withCodingRate(mc1 byte, denominator int) byte {
	return mc1&0xf1 | byte(denominator-4)<<1
}

func withSpreadingFactor(mc2 byte, sf int) byte {
	return mc2&0x0f | byte(sf)<<4&0xf0
}

func withCrc(mc2 byte, on bool) byte {
	if on {
		return mc2 | crcOnMask
	}
	return mc2 &^ crcOnMask
}

// RegInvertIQ bit 6 inverts RX, bit 0 is set for a non-inverted TX path.
const (
	invertIQRxMask byte = 0xbf
	invertIQRxOn   byte = 0x40
	invertIQTxMask byte = 0xfe
	invertIQTxOff  byte = 0x01
	invertIQ2On    byte = 0x19
	invertIQ2Off   byte = 0x1d
)

func withInvertIQ(reg byte, rx, tx bool) (byte, byte) {
	v := reg & invertIQRxMask & invertIQTxMask
	if rx {
		v |= invertIQRxOn
	}
	if !tx {
		v |= invertIQTxOff
	}
	if rx || tx {
		return v, invertIQ2On
	}
	return v, invertIQ2Off
}

func clampSpreadingFactor(sf int) int {
	return clamp(sf, 6, 12)
}

func clampCodingRate(denominator int) int {
	return clamp(denominator, 5, 8)
}

func clampPower(dbm int) int {
	return clamp(dbm, MinPower, MaxPower)
}

func paConfig(dbm int) byte {
	return paBoost | byte(clampPower(dbm)-MinPower)&0x0f
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// sfPolicy holds the spreading-factor dependent register constants. SF6 needs
// the dedicated detection settings from the datasheet, SF11 and SF12 have
// symbols longer than 16ms at 125kHz and need low data rate optimization.
type sfPolicy struct {
	min, max           int
	detectionOptimize  byte
	detectionThreshold byte
	modemConfig3       byte
}

var sfPolicies = [...]sfPolicy{
	{min: 6, max: 6, detectionOptimize: 0xc5, detectionThreshold: 0x0c, modemConfig3: mc3AgcAuto},
	{min: 7, max: 10, detectionOptimize: 0xc3, detectionThreshold: 0x0a, modemConfig3: mc3AgcAuto},
	{min: 11, max: 12, detectionOptimize: 0xc3, detectionThreshold: 0x0a, modemConfig3: mc3LowDataRateOptimize},
}

func policyFor(sf int) sfPolicy {
	sf = clampSpreadingFactor(sf)
	for _, p := range sfPolicies {
		if sf >= p.min && sf <= p.max {
			return p
		}
	}
	panic("sx1276: no policy for spreading factor")
}

// decodeSNR converts RegPktSnrValue to dB. The register holds a two's
// complement value in quarter dB.
func decodeSNR(raw byte) int {
	if raw&0x80 != 0 {
		return -int((^raw + 1) >> 2)
	}
	return int(raw >> 2)
}

func decodeRSSI(raw byte) int {
	return int(raw) - RssiOffset
}
