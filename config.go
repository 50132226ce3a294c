package sx1276

import (
	"encoding/json"
	"fmt"
	"os"
)

// Config is the configuration record of one radio.
type Config struct {
	Desc            string   `json:"desc"`
	Frequency       uint32   `json:"freq"` // Hz
	SpreadingFactor int      `json:"sf"`
	Bandwidth       uint32   `json:"bw"` // Hz
	CodingRate      int      `json:"cr"` // denominator of 4/x
	PreambleLength  uint16   `json:"prlen"`
	SyncWord        byte     `json:"syncword"`
	CRC             bool     `json:"crc"`
	InvertIQ        bool     `json:"invertiq"`
	Power           int      `json:"power"` // dBm
	Hardware        Hardware `json:"hardware"`
}

// Hardware names the bus and pins the radio is wired to. Pins are periph.io
// pin names, or line offsets when GPIOChip is set.
type Hardware struct {
	SPI      string `json:"spi"`
	SPISpeed int64  `json:"spispeed"` // Hz
	Reset    string `json:"reset"`
	DIO0     string `json:"dio0"`
	DIO1     string `json:"dio1"`
	GPIOChip string `json:"gpiochip"`
}

// DefaultConfig returns the settings of a Dragino LoRa/GPS HAT on a Raspberry
// Pi listening on 868.1MHz SF7BW125.
func DefaultConfig() Config {
	return Config{
		Desc:            "SX1276",
		Frequency:       868100000,
		SpreadingFactor: 7,
		Bandwidth:       125000,
		CodingRate:      5,
		PreambleLength:  8,
		SyncWord:        0x34,
		CRC:             true,
		Power:           14,
		Hardware: Hardware{
			SPI:      "/dev/spidev0.0",
			SPISpeed: 8000000,
			Reset:    "GPIO17",
			DIO0:     "GPIO4",
			DIO1:     "GPIO23",
		},
	}
}

// LoadConfig reads a JSON configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

// Validate reports parameters the chip cannot represent. Spreading factor,
// coding rate and power are clamped when applied and never rejected.
func (c Config) Validate() error {
	if _, err := bandwidthRegField(c.Bandwidth); err != nil {
		return err
	}
	if _, err := frfFromHz(c.Frequency); err != nil {
		return err
	}
	return nil
}
