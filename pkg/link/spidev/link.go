// Package spidev implements sdep.Link on a host SPI port.
package spidev

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// Config defines how to open the port.
type Config struct {
	// Port is the SPI port name, e.g. "/dev/spidev0.0" or "SPI0.0".
	// Empty selects the first available port.
	Port      string
	Frequency physic.Frequency
	Mode      spi.Mode
	// CSPin names a GPIO driven as chip select. When empty the
	// driver's chip select pulses once per transfer.
	CSPin string
	// Settle is the delay after each chip select edge on CSPin.
	Settle time.Duration
}

// DefaultConfig is the port configuration used by the bridge.
var DefaultConfig = Config{
	Frequency: physic.MegaHertz,
	Mode:      spi.Mode0,
	Settle:    time.Millisecond,
}

// Link exchanges one byte per Tx on an SPI port.
type Link struct {
	port   spi.PortCloser
	conn   spi.Conn
	cs     gpio.PinOut
	settle time.Duration
	w, r   [1]byte
}

// Open initializes host drivers and opens the port.
func Open(cfg Config) (*Link, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	port, err := spireg.Open(cfg.Port)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", cfg.Port, err)
	}
	l := &Link{port: port, settle: cfg.Settle}
	mode := cfg.Mode
	if cfg.CSPin != "" {
		pin := gpioreg.ByName(cfg.CSPin)
		if pin == nil {
			port.Close()
			return nil, fmt.Errorf("unknown chip select pin %q", cfg.CSPin)
		}
		// idle high before the first frame.
		if err = pin.Out(gpio.High); err != nil {
			port.Close()
			return nil, fmt.Errorf("chip select %s: %w", cfg.CSPin, err)
		}
		l.cs = pin
		mode |= spi.NoCS
	}
	freq := cfg.Frequency
	if freq == 0 {
		freq = DefaultConfig.Frequency
	}
	if l.conn, err = port.Connect(freq, mode, 8); err != nil {
		port.Close()
		return nil, fmt.Errorf("connect spi %q: %w", cfg.Port, err)
	}
	glog.Infof("spi %s opened at %s", port, freq)
	return l, nil
}

// Select implements sdep.Link.
func (l *Link) Select() error {
	return l.setCS(gpio.Low)
}

// Deselect implements sdep.Link.
func (l *Link) Deselect() error {
	return l.setCS(gpio.High)
}

// Transfer implements sdep.Link.
func (l *Link) Transfer(b byte) (byte, error) {
	l.w[0] = b
	if err := l.conn.Tx(l.w[:], l.r[:]); err != nil {
		return 0, err
	}
	return l.r[0], nil
}

// Close implements io.Closer.
func (l *Link) Close() error {
	if l.cs != nil {
		l.cs.Out(gpio.High)
	}
	return l.port.Close()
}

func (l *Link) setCS(level gpio.Level) error {
	if l.cs == nil {
		return nil
	}
	if err := l.cs.Out(level); err != nil {
		return err
	}
	if l.settle > 0 {
		time.Sleep(l.settle)
	}
	return nil
}
