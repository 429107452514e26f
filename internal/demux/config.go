package demux

import (
	"github.com/hashicorp/go-hclog"
	"github.com/juju/clock"

	"github.com/rmacdonaldsmith/streamdemux-go/pkg/packetlog"
)

// Config represents configuration for a StreamDemux
type Config struct {
	// Logger receives debug-level routing events (consumer lifecycle,
	// close/kill dispatch). Defaults to a no-op logger.
	Logger hclog.Logger

	// Clock supplies the timers backing consumer timeouts. Defaults to the
	// wall clock; tests inject a testclock to drive deadlines.
	Clock clock.Clock

	// Log is the shared packet log the router writes through. Defaults to
	// a fresh in-memory log owned exclusively by this router.
	Log packetlog.Log
}

// NewConfig creates a new StreamDemux configuration with safe defaults
func NewConfig() *Config {
	c := &Config{}
	c.SetDefaults()
	return c
}

// SetDefaults fills in defaults for any unset fields
func (c *Config) SetDefaults() {
	if c.Logger == nil {
		c.Logger = hclog.NewNullLogger()
	}
	if c.Clock == nil {
		c.Clock = clock.WallClock
	}
}

// WithLogger sets the logger
func (c *Config) WithLogger(logger hclog.Logger) *Config {
	c.Logger = logger
	return c
}

// WithClock sets the clock
func (c *Config) WithClock(clk clock.Clock) *Config {
	c.Clock = clk
	return c
}

// WithLog sets the shared packet log
func (c *Config) WithLog(log packetlog.Log) *Config {
	c.Log = log
	return c
}
