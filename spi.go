package sx1276

import (
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// SPIBus accesses the chip registers over SPI. The first byte of a transfer
// is the register address, with the MSB set for writes.
type SPIBus struct {
	conn spi.Conn
	port spi.PortCloser
}

func NewSPIBus(c spi.Conn) *SPIBus {
	return &SPIBus{conn: c}
}

// OpenSPIBus opens the named SPI port in mode 0.
func OpenSPIBus(name string, speed physic.Frequency) (*SPIBus, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, err
	}
	c, err := p.Connect(speed, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, err
	}
	return &SPIBus{conn: c, port: p}, nil
}

func (b *SPIBus) Close() error {
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}

func (b *SPIBus) ReadRegister(reg Register) (byte, error) {
	w := []byte{byte(reg) & 0x7f, 0x00}
	r := make([]byte, len(w))
	if err := b.conn.Tx(w, r); err != nil {
		return 0, err
	}
	return r[1], nil
}

func (b *SPIBus) ReadRegisterBytes(reg Register, n int) ([]byte, error) {
	w := make([]byte, n+1)
	w[0] = byte(reg) & 0x7f
	r := make([]byte, len(w))
	if err := b.conn.Tx(w, r); err != nil {
		return nil, err
	}
	return r[1:], nil
}

func (b *SPIBus) WriteRegister(reg Register, value byte) error {
	return b.conn.Tx([]byte{byte(reg) | 0x80, value}, make([]byte, 2))
}
