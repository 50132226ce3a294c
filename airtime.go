package sx1276

import "time"

// TimeOnAir returns the on-air duration of an explicit header packet with
// payloadLength bytes using the configured modem parameters.
func (c Config) TimeOnAir(payloadLength int) time.Duration {
	return c.modem().timeOnAir(payloadLength)
}

// Page 31 of the SX1276 datasheet.
func (m modem) timeOnAir(payloadLength int) time.Duration {
	if m.bandwidth == 0 {
		return 0
	}
	sf := int64(clampSpreadingFactor(m.sf))
	cr := int64(clampCodingRate(m.codingRate) - 4)
	var ldro, crc int64
	if policyFor(int(sf)).modemConfig3 == mc3LowDataRateOptimize {
		ldro = 1
	}
	if m.crc {
		crc = 1
	}
	bits := 8*int64(payloadLength) - 4*sf + 28 + 16*crc
	div := 4 * (sf - 2*ldro)
	symbols := int64(8)
	if bits > 0 {
		symbols += (bits + div - 1) / div * (cr + 4)
	}
	// The preamble lasts 4.25 symbols longer than programmed; count quarters.
	quarters := 4*(int64(m.preamble)+symbols) + 17
	return time.Duration(quarters << sf * int64(time.Second) / (4 * int64(m.bandwidth)))
}
