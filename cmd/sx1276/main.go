// Command sx1276 drives a single SX1276 LoRa radio, such as the one on the
// Dragino LoRa/GPS HAT.
//
// Subcommand detect checks the chip revision, rx receives and logs packets
// until interrupted, and tx sends one packet.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/NV4RE/sx1276"
	"github.com/mazen160/go-random"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"
)

var (
	configPath = flag.String("config", "", "JSON configuration file")
	lockPath   = flag.String("lock", "/var/run/sx1276.lock", "lock file guarding the radio")
	verbose    = flag.Bool("v", false, "verbose logging")

	rxCmd      = flag.NewFlagSet("rx", flag.ExitOnError)
	rxMode     = rxCmd.String("mode", "scan", "receive mode ('scan', 'single', 'rssi')")
	rxInterval = rxCmd.Duration("interval", 10*time.Millisecond, "poll interval")
	rxTimeout  = rxCmd.Duration("timeout", 5*time.Second, "timeout in single mode")

	txCmd    = flag.NewFlagSet("tx", flag.ExitOnError)
	txHex    = txCmd.String("hex", "", "hex-encoded payload")
	txRandom = txCmd.Int("random", 0, "send a random alphanumeric payload of this length")
	txDelay  = txCmd.Duration("delay", 0, "schedule the transmission this far ahead")
)

var errRunning = errors.New("another instance is driving the radio")

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "sx1276: specify 'detect', 'rx' or 'tx' command\n")
		os.Exit(2)
	}
	if err := run(flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "sx1276: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd string, args []string) error {
	switch cmd {
	case "detect":
	case "rx":
		if err := rxCmd.Parse(args); err != nil {
			rxCmd.Usage()
		}
	case "tx":
		if err := txCmd.Parse(args); err != nil {
			txCmd.Usage()
		}
	default:
		fmt.Fprintf(os.Stderr, "sx1276: unknown command: %q\n", cmd)
		os.Exit(2)
	}

	cfg := sx1276.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = sx1276.LoadConfig(*configPath)
		if err != nil {
			return err
		}
	}
	unlock, err := lockInstance(*lockPath)
	if err != nil {
		return err
	}
	defer unlock()

	opts := &sx1276.Options{}
	if *verbose {
		opts.Logger = log.Printf
	}
	dev, closeDev, err := openDevice(cfg, opts)
	if err != nil {
		return err
	}
	defer closeDev()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch cmd {
	case "detect":
		return detect(dev)
	case "rx":
		return receive(ctx, dev)
	default:
		return transmit(dev, cfg)
	}
}

// openDevice opens the radio with periph.io pins, or with character device
// lines when a GPIO chip is configured.
func openDevice(cfg sx1276.Config, opts *sx1276.Options) (*sx1276.Device, func() error, error) {
	hw := cfg.Hardware
	if hw.GPIOChip == "" {
		d, err := sx1276.Open(cfg, opts)
		if err != nil {
			return nil, nil, err
		}
		return d, d.Close, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, err
	}
	pins, closePins, err := openLines(hw)
	if err != nil {
		return nil, nil, err
	}
	bus, err := sx1276.OpenSPIBus(hw.SPI, physic.Frequency(hw.SPISpeed)*physic.Hertz)
	if err != nil {
		closePins()
		return nil, nil, fmt.Errorf("failed to open SPI port %s: %w", hw.SPI, err)
	}
	closeAll := func() error {
		err := bus.Close()
		if perr := closePins(); err == nil {
			err = perr
		}
		return err
	}
	d, err := sx1276.New(bus, pins, cfg, opts)
	if err != nil {
		closeAll()
		return nil, nil, err
	}
	return d, closeAll, nil
}

func parseOffset(name, v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s line offset %q: %w", name, v, err)
	}
	return n, nil
}

func detect(dev *sx1276.Device) error {
	ok, err := dev.Detect()
	if err != nil {
		return err
	}
	if !ok {
		return sx1276.ErrVersion
	}
	log.Printf("%s: SX1276 detected", dev.Config().Desc)
	return nil
}

func receive(ctx context.Context, dev *sx1276.Device) error {
	if err := dev.Init(); err != nil {
		return err
	}
	switch *rxMode {
	case "scan":
		ch := make(chan *sx1276.Packet, 4)
		errc := make(chan error, 1)
		go func() {
			errc <- dev.Listen(ctx, *rxInterval, ch)
		}()
		for {
			select {
			case p := <-ch:
				logPacket(p)
			case err := <-errc:
				return err
			}
		}
	case "single":
		p, err := dev.ReceiveSingle(*rxTimeout)
		if err != nil {
			return err
		}
		if p == nil {
			log.Printf("packet dropped, CRC error")
			return nil
		}
		logPacket(p)
		return nil
	case "rssi":
		if err := dev.StartReceive(sx1276.RxRSSI); err != nil {
			return err
		}
		defer dev.Standby()
		t := time.NewTicker(*rxInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
			}
			rssi, err := dev.RSSI()
			if err != nil {
				return err
			}
			log.Printf("RSSI %d dBm", rssi)
		}
	default:
		return fmt.Errorf("unknown receive mode %q", *rxMode)
	}
}

func logPacket(p *sx1276.Packet) {
	log.Printf("receive(HEX): %s", hex.EncodeToString(p.Payload))
	log.Printf("SNR %d dB, RSSI %d dBm", p.SNR, p.RSSI)
}

func transmit(dev *sx1276.Device, cfg sx1276.Config) error {
	payload, err := txPayload()
	if err != nil {
		return err
	}
	bw, err := sx1276.BandwidthCode(cfg.Bandwidth)
	if err != nil {
		return err
	}
	dr, err := sx1276.DataRateCode(cfg.SpreadingFactor)
	if err != nil {
		return err
	}
	if err := dev.Init(); err != nil {
		return err
	}
	p := &sx1276.TxPacket{
		Payload:    payload,
		Power:      cfg.Power,
		Frequency:  cfg.Frequency,
		DataRate:   dr,
		Bandwidth:  bw,
		CodingRate: cfg.CodingRate,
		Preamble:   cfg.PreambleLength,
		NoCRC:      !cfg.CRC,
		InvertIQ:   cfg.InvertIQ,
	}
	if *txDelay > 0 {
		p.Mode = sx1276.Timestamped
		p.Time = time.Now().Add(*txDelay)
	}
	airtime, err := p.TimeOnAir()
	if err != nil {
		return err
	}
	start := time.Now()
	if err := dev.Transmit(p); err != nil {
		return err
	}
	log.Printf("sent %d bytes in %s (%s on air)", len(payload), time.Since(start), airtime)
	return nil
}

func txPayload() ([]byte, error) {
	switch {
	case *txHex != "" && *txRandom > 0:
		return nil, errors.New("specify only one of -hex and -random")
	case *txHex != "":
		return hex.DecodeString(*txHex)
	case *txRandom > 0:
		s, err := random.String(*txRandom)
		if err != nil {
			return nil, fmt.Errorf("failed to generate random payload: %w", err)
		}
		return []byte(s), nil
	default:
		return nil, errors.New("specify a payload with -hex or -random")
	}
}
