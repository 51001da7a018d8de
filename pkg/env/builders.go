package env

import (
	"fmt"
	"io"
	"net/url"
	"strings"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/robotalks/sdep.go/pkg/bridge"
	"github.com/robotalks/sdep.go/pkg/console"
	fx "github.com/robotalks/sdep.go/pkg/framework"
	"github.com/robotalks/sdep.go/pkg/link/sim"
	"github.com/robotalks/sdep.go/pkg/link/spidev"
	"github.com/robotalks/sdep.go/pkg/mqtt"
	"github.com/robotalks/sdep.go/pkg/sdep"
)

// Link drivers.
const (
	LinkSPIDev = "spidev"
	LinkSim    = "sim"
)

// ConsoleStdio selects the process standard input/output.
const ConsoleStdio = "stdio"

// NewLink opens the configured link. The returned closer may be nil.
func (c *Config) NewLink() (sdep.Link, io.Closer, error) {
	switch c.Link {
	case LinkSim:
		dev := sim.NewDevice()
		dev.Handler = sim.Echo
		return dev, nil, nil
	case LinkSPIDev, "":
		cfg := spidev.DefaultConfig
		cfg.Port = c.SPIPort
		cfg.CSPin = c.CSPin
		if c.SPIFrequency != "" {
			freq, err := c.Frequency()
			if err != nil {
				return nil, nil, fmt.Errorf("spi frequency %q: %w", c.SPIFrequency, err)
			}
			cfg.Frequency = freq
		}
		l, err := spidev.Open(cfg)
		if err != nil {
			return nil, nil, err
		}
		return l, l, nil
	default:
		return nil, nil, fmt.Errorf("unknown link driver %q", c.Link)
	}
}

// NewClient creates a client over link with the configured retry policies.
func (c *Config) NewClient(link sdep.Link, resetter sdep.Resetter) *sdep.Client {
	t := sdep.NewTransceiver(link)
	t.Retry = sdep.RetryPolicy{Interval: c.ByteRetryInterval, MaxAttempts: c.ByteRetryAttempts}
	client := sdep.NewClient(t)
	client.Sync = sdep.RetryPolicy{Interval: c.SyncInterval, MaxAttempts: c.SyncAttempts}
	client.ResetKeyword = c.ResetKeyword
	client.Resetter = resetter
	return client
}

// NewConsoleRunnable creates the Runnable attaching the configured stream to con.
func (c *Config) NewConsoleRunnable(con *console.Console) (fx.Runnable, error) {
	switch {
	case c.Console == "" || c.Console == ConsoleStdio:
		return &console.Stream{Console: con, RW: console.Stdio()}, nil
	case strings.HasPrefix(c.Console, "ws://"):
		u, err := url.Parse(c.Console)
		if err != nil {
			return nil, fmt.Errorf("console url %q: %w", c.Console, err)
		}
		return &console.WebsocketServer{Console: con, Addr: u.Host, Path: u.Path}, nil
	default:
		rw, err := console.OpenSerial(c.Console, c.ConsoleBaud)
		if err != nil {
			return nil, fmt.Errorf("open console %s: %w", c.Console, err)
		}
		return &console.Stream{Console: con, RW: rw}, nil
	}
}

// NewIndicator creates the LED indicator, nil if no LED is configured.
func (c *Config) NewIndicator() (*bridge.Indicator, error) {
	if c.LEDPin == "" {
		return nil, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("init host drivers: %w", err)
	}
	pin := gpioreg.ByName(c.LEDPin)
	if pin == nil {
		return nil, fmt.Errorf("unknown led pin %q", c.LEDPin)
	}
	return &bridge.Indicator{LED: pin}, nil
}

// NewMirror creates the MQTT mirror, nil if no broker is configured.
func (c *Config) NewMirror(description string) (*mqtt.Mirror, error) {
	if c.MQTTBrokerURL == "" {
		return nil, nil
	}
	return mqtt.NewMirror(c.MQTTBrokerURL, mqtt.Meta{
		ID:          c.ID,
		Description: description,
		Link:        c.Link,
	})
}

// Frequency returns the parsed SPI frequency.
func (c *Config) Frequency() (physic.Frequency, error) {
	var f physic.Frequency
	err := f.Set(c.SPIFrequency)
	return f, err
}
