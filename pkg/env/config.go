// Package env builds the bridge components from flags, environment
// variables and an optional TOML file.
package env

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"
)

// Config provides the options shared by the commands.
type Config struct {
	// Link is the link driver: "spidev" or "sim".
	Link         string
	SPIPort      string
	SPIFrequency string
	CSPin        string
	LEDPin       string

	// Console is "stdio", a tty path, or ws://host:port/path.
	Console     string
	ConsoleBaud int
	Echo        bool

	ByteRetryInterval time.Duration
	ByteRetryAttempts int
	SyncInterval      time.Duration
	SyncAttempts      int
	ResetKeyword      string

	// MQTTBrokerURL enables the exchange mirror, e.g. mqtt://host:port/sdep/
	MQTTBrokerURL string
	ID            string
}

var defaultConfig = Config{
	Link:              "spidev",
	SPIFrequency:      "1MHz",
	Console:           "stdio",
	ConsoleBaud:       115200,
	Echo:              true,
	ByteRetryInterval: time.Millisecond,
	SyncInterval:      10 * time.Millisecond,
	ResetKeyword:      "atz",
}

var configFile string

func init() {
	if val := os.Getenv("SDEP_LINK"); val != "" {
		defaultConfig.Link = val
	}
	if val := os.Getenv("SDEP_SPI_DEV"); val != "" {
		defaultConfig.SPIPort = val
	}
	if val := os.Getenv("SDEP_CONSOLE"); val != "" {
		defaultConfig.Console = val
	}
	if val := os.Getenv("SDEP_MQTT_URL"); val != "" {
		defaultConfig.MQTTBrokerURL = val
	}
	if val := os.Getenv("SDEP_CONFIG"); val != "" {
		configFile = val
	}
}

// SetupFlags sets command line flags.
func SetupFlags() {
	flag.StringVar(&configFile, "config", configFile, "TOML config file, applied before other flags.")
	flag.StringVar(&defaultConfig.Link, "link", defaultConfig.Link, "Link driver: spidev or sim.")
	flag.StringVar(&defaultConfig.SPIPort, "spi", defaultConfig.SPIPort, "SPI port, empty for the first available.")
	flag.StringVar(&defaultConfig.SPIFrequency, "spi-freq", defaultConfig.SPIFrequency, "SPI clock frequency.")
	flag.StringVar(&defaultConfig.CSPin, "cs-pin", defaultConfig.CSPin, "GPIO driven as chip select, empty for the driver's.")
	flag.StringVar(&defaultConfig.LEDPin, "led-pin", defaultConfig.LEDPin, "GPIO of the indicator LED.")
	flag.StringVar(&defaultConfig.Console, "console", defaultConfig.Console, "Console: stdio, tty path or ws://host:port/path.")
	flag.IntVar(&defaultConfig.ConsoleBaud, "baud", defaultConfig.ConsoleBaud, "Baud rate of a tty console.")
	flag.BoolVar(&defaultConfig.Echo, "echo", defaultConfig.Echo, "Echo console input.")
	flag.DurationVar(&defaultConfig.ByteRetryInterval, "byte-retry", defaultConfig.ByteRetryInterval, "Delay before resending a byte the peer ignored.")
	flag.IntVar(&defaultConfig.ByteRetryAttempts, "byte-attempts", defaultConfig.ByteRetryAttempts, "Attempts per byte, 0 for no limit.")
	flag.DurationVar(&defaultConfig.SyncInterval, "sync-interval", defaultConfig.SyncInterval, "Delay between response polls.")
	flag.IntVar(&defaultConfig.SyncAttempts, "sync-attempts", defaultConfig.SyncAttempts, "Response polls, 0 for no limit.")
	flag.StringVar(&defaultConfig.ResetKeyword, "reset", defaultConfig.ResetKeyword, "Command resetting the bridge, empty to disable.")
	flag.StringVar(&defaultConfig.MQTTBrokerURL, "mqtt", defaultConfig.MQTTBrokerURL, "MQTT broker URL for mirroring, empty to disable.")
	flag.StringVar(&defaultConfig.ID, "id", defaultConfig.ID, "Bridge ID, defaults to the machine ID.")
}

// NewConfig creates a Config from defaults, the config file and flags.
// Flags given explicitly on the command line win over the file.
func NewConfig() (*Config, error) {
	conf := defaultConfig
	if configFile != "" {
		if err := conf.LoadFile(configFile); err != nil {
			return nil, err
		}
		// re-apply explicit flags on top of the file.
		if flag.Parsed() {
			explicit := defaultConfig
			flag.Visit(func(f *flag.Flag) {
				conf.applyFlag(f.Name, &explicit)
			})
		}
	}
	if conf.ID == "" {
		conf.ID = MachineID()
	}
	return &conf, nil
}

// MustNewConfig creates Config and fails on error.
func MustNewConfig() *Config {
	conf, err := NewConfig()
	if err != nil {
		glog.Exit(err)
	}
	return conf
}

type fileConfig struct {
	Link   string `toml:"link"`
	SPI    string `toml:"spi"`
	Freq   string `toml:"spi_freq"`
	CSPin  string `toml:"cs_pin"`
	LEDPin string `toml:"led_pin"`

	Console string `toml:"console"`
	Baud    int    `toml:"baud"`
	Echo    bool   `toml:"echo"`

	ByteRetry    string `toml:"byte_retry"`
	ByteAttempts int    `toml:"byte_attempts"`
	SyncInterval string `toml:"sync_interval"`
	SyncAttempts int    `toml:"sync_attempts"`
	Reset        string `toml:"reset"`

	MQTT string `toml:"mqtt"`
	ID   string `toml:"id"`
}

// LoadFile applies the keys present in a TOML file.
func (c *Config) LoadFile(path string) error {
	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return c.apply(raw, meta)
}

// LoadString applies the keys present in TOML text.
func (c *Config) LoadString(text string) error {
	var raw fileConfig
	meta, err := toml.Decode(text, &raw)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	return c.apply(raw, meta)
}

func (c *Config) apply(raw fileConfig, meta toml.MetaData) error {
	str := func(key, val string, dst *string) {
		if meta.IsDefined(key) {
			*dst = strings.TrimSpace(val)
		}
	}
	str("link", raw.Link, &c.Link)
	str("spi", raw.SPI, &c.SPIPort)
	str("spi_freq", raw.Freq, &c.SPIFrequency)
	str("cs_pin", raw.CSPin, &c.CSPin)
	str("led_pin", raw.LEDPin, &c.LEDPin)
	str("console", raw.Console, &c.Console)
	str("mqtt", raw.MQTT, &c.MQTTBrokerURL)
	str("id", raw.ID, &c.ID)
	if meta.IsDefined("reset") {
		c.ResetKeyword = raw.Reset
	}
	if meta.IsDefined("baud") {
		c.ConsoleBaud = raw.Baud
	}
	if meta.IsDefined("echo") {
		c.Echo = raw.Echo
	}
	if meta.IsDefined("byte_attempts") {
		c.ByteRetryAttempts = raw.ByteAttempts
	}
	if meta.IsDefined("sync_attempts") {
		c.SyncAttempts = raw.SyncAttempts
	}
	if meta.IsDefined("byte_retry") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.ByteRetry))
		if err != nil {
			return fmt.Errorf("parse byte_retry: %w", err)
		}
		c.ByteRetryInterval = d
	}
	if meta.IsDefined("sync_interval") {
		d, err := time.ParseDuration(strings.TrimSpace(raw.SyncInterval))
		if err != nil {
			return fmt.Errorf("parse sync_interval: %w", err)
		}
		c.SyncInterval = d
	}
	return nil
}

// applyFlag copies the field bound to a flag from src.
func (c *Config) applyFlag(name string, src *Config) {
	switch name {
	case "link":
		c.Link = src.Link
	case "spi":
		c.SPIPort = src.SPIPort
	case "spi-freq":
		c.SPIFrequency = src.SPIFrequency
	case "cs-pin":
		c.CSPin = src.CSPin
	case "led-pin":
		c.LEDPin = src.LEDPin
	case "console":
		c.Console = src.Console
	case "baud":
		c.ConsoleBaud = src.ConsoleBaud
	case "echo":
		c.Echo = src.Echo
	case "byte-retry":
		c.ByteRetryInterval = src.ByteRetryInterval
	case "byte-attempts":
		c.ByteRetryAttempts = src.ByteRetryAttempts
	case "sync-interval":
		c.SyncInterval = src.SyncInterval
	case "sync-attempts":
		c.SyncAttempts = src.SyncAttempts
	case "reset":
		c.ResetKeyword = src.ResetKeyword
	case "mqtt":
		c.MQTTBrokerURL = src.MQTTBrokerURL
	case "id":
		c.ID = src.ID
	}
}

// MachineID retrieves the unique ID identifying the machine.
func MachineID() string {
	id, err := machineid.ID()
	if err != nil {
		glog.Warningf("machine id: %v", err)
		if id, err = os.Hostname(); err != nil {
			return "sdep"
		}
	}
	return id
}
