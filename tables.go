package sx1276

import "fmt"

// Bandwidth is the packet-level bandwidth code used by LoRa gateway HALs.
type Bandwidth uint8

const (
	BW500kHz Bandwidth = 0x01
	BW250kHz Bandwidth = 0x02
	BW125kHz Bandwidth = 0x03
	BW62k5Hz Bandwidth = 0x04
	BW31k2Hz Bandwidth = 0x05
	BW15k6Hz Bandwidth = 0x06
	BW7k8Hz  Bandwidth = 0x07
)

// DataRate is the packet-level spreading factor code.
type DataRate uint8

const (
	DRSF7  DataRate = 0x02
	DRSF8  DataRate = 0x04
	DRSF9  DataRate = 0x08
	DRSF10 DataRate = 0x10
	DRSF11 DataRate = 0x20
	DRSF12 DataRate = 0x40
)

var bandwidthHz = map[Bandwidth]uint32{
	BW500kHz: 500000,
	BW250kHz: 250000,
	BW125kHz: 125000,
	BW62k5Hz: 62500,
	BW31k2Hz: 31200,
	BW15k6Hz: 15600,
	BW7k8Hz:  7800,
}

var spreadingFactors = map[DataRate]int{
	DRSF7:  7,
	DRSF8:  8,
	DRSF9:  9,
	DRSF10: 10,
	DRSF11: 11,
	DRSF12: 12,
}

// bandwidthField maps a bandwidth to the RegModemConfig1 BW field. Only the
// bandwidths with a packet code are accepted.
var bandwidthField = map[uint32]byte{
	7800:   0,
	15600:  2,
	31200:  4,
	62500:  6,
	125000: 7,
	250000: 8,
	500000: 9,
}

var (
	bandwidthCodes = invert(bandwidthHz)
	dataRateCodes  = invert(spreadingFactors)
)

func invert[K, V comparable](m map[K]V) map[V]K {
	r := make(map[V]K, len(m))
	for k, v := range m {
		r[v] = k
	}
	return r
}

func BandwidthHz(bw Bandwidth) (uint32, error) {
	hz, ok := bandwidthHz[bw]
	if !ok {
		return 0, fmt.Errorf("%w code 0x%02x", ErrUnsupportedBandwidth, byte(bw))
	}
	return hz, nil
}

func BandwidthCode(hz uint32) (Bandwidth, error) {
	bw, ok := bandwidthCodes[hz]
	if !ok {
		return 0, fmt.Errorf("%w %d Hz", ErrUnsupportedBandwidth, hz)
	}
	return bw, nil
}

func SpreadingFactor(dr DataRate) (int, error) {
	sf, ok := spreadingFactors[dr]
	if !ok {
		return 0, fmt.Errorf("%w code 0x%02x", ErrUnsupportedSpreadingFactor, byte(dr))
	}
	return sf, nil
}

func DataRateCode(sf int) (DataRate, error) {
	dr, ok := dataRateCodes[sf]
	if !ok {
		return 0, fmt.Errorf("%w SF%d", ErrUnsupportedSpreadingFactor, sf)
	}
	return dr, nil
}

func bandwidthRegField(hz uint32) (byte, error) {
	f, ok := bandwidthField[hz]
	if !ok {
		return 0, fmt.Errorf("%w %d Hz", ErrUnsupportedBandwidth, hz)
	}
	return f, nil
}
