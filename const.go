package sx1276

import "time"

type Mode byte
type Register byte

const (
	RegFifo               Register = 0x00
	RegOpMode             Register = 0x01
	RegFrfMsb             Register = 0x06
	RegFrfMid             Register = 0x07
	RegFrfLsb             Register = 0x08
	RegPaConfig           Register = 0x09
	RegPaRamp             Register = 0x0a
	RegLna                Register = 0x0c
	RegFifoAddrPtr        Register = 0x0d
	RegFifoTxBaseAddr     Register = 0x0e
	RegFifoRxBaseAddr     Register = 0x0f
	RegFifoRxCurrentAddr  Register = 0x10
	RegIrqFlagsMask       Register = 0x11
	RegIrqFlags           Register = 0x12
	RegRxNbBytes          Register = 0x13
	RegPktSnrValue        Register = 0x19
	RegPktRssiValue       Register = 0x1a
	RegRssiValue          Register = 0x1b
	RegModemConfig1       Register = 0x1d
	RegModemConfig2       Register = 0x1e
	RegPreambleMsb        Register = 0x20
	RegPreambleLsb        Register = 0x21
	RegPayloadLength      Register = 0x22
	RegMaxPayloadLength   Register = 0x23
	RegHopPeriod          Register = 0x24
	RegModemConfig3       Register = 0x26
	RegDetectionOptimize  Register = 0x31
	RegInvertIQ           Register = 0x33
	RegHighBwOptimize1    Register = 0x36
	RegDetectionThreshold Register = 0x37
	RegSyncWord           Register = 0x39
	RegHighBwOptimize2    Register = 0x3a
	RegInvertIQ2          Register = 0x3b
	RegDioMapping1        Register = 0x40
	RegVersion            Register = 0x42
	RegPaDac              Register = 0x4d
)

// Op modes, low three bits of RegOpMode.
const (
	ModeSleep        Mode = 0x00
	ModeStandby      Mode = 0x01
	ModeTx           Mode = 0x03
	ModeRxContinuous Mode = 0x05
	ModeRxSingle     Mode = 0x06

	ModeLongRange    Mode = 0x80
	ModeLowFrequency Mode = 0x08
	modeMask         Mode = 0x07
)

const (
	IrqRxTimeoutMask       byte = 0x80
	IrqRxDoneMask          byte = 0x40
	IrqPayloadCrcErrorMask byte = 0x20
	IrqTxDoneMask          byte = 0x08
	irqAll                 byte = 0xff
)

// RegDioMapping1 fields.
const (
	dio0RxDone    byte = 0x00
	dio0TxDone    byte = 0x40
	dio1RxTimeout byte = 0x00
	dio1Nop       byte = 0x30
	dio2Nop       byte = 0xc0
)

const (
	lnaMaxGain             byte = 0x23 // G1, 150% LNA current
	mc3AgcAuto             byte = 0x04
	mc3LowDataRateOptimize byte = 0x08
	paBoost                byte = 0x80
	paDacHighPower         byte = 0x87
	paRampTx               byte = 0x08

	// Fixed modem configuration for RSSI scanning.
	rssiScanModemConfig1 byte = 0x0a
	rssiScanModemConfig2 byte = 0x70

	highBwOptimize1 byte = 0x02
	highBwOptimize2 byte = 0x64

	crcOnMask byte = 0x04
	fifoBase  byte = 0x00
)

const (
	ChipVersion        byte   = 0x12
	RfMidBandThreshold uint32 = 525e6
	RssiOffset         int    = 157
	MaxPktLength       int    = 255
	MaxPower           int    = 20
	MinPower           int    = 5

	xtalFrequency uint64 = 32e6
	frfMax        uint32 = 1<<24 - 1
)

const (
	// TxStartDelay is the chip ramp-up latency between the TX opmode write and
	// the first preamble symbol on air. Calibrated for the Dragino LoRa/GPS HAT.
	TxStartDelay = 1495 * time.Microsecond
	// TxJitWindow bounds how far ahead a timestamped packet may be loaded.
	TxJitWindow = 30000 * time.Microsecond
)
