package avr910

import "github.com/moffa90/go-avrisp/programmer"

// Config holds the protocol configuration.
type Config struct {
	// DevCode overrides the device code sent with the select-device
	// command. Zero means use the part's code, validated against the
	// programmer's supported list.
	DevCode byte

	// TryBlockMode controls whether buffered memory access is probed
	// during initialization. A few firmwares lock up on the probe.
	TryBlockMode bool

	// Logger is used for logging operations (optional)
	Logger programmer.Logger
}

func defaultConfig() Config {
	return Config{
		TryBlockMode: true,
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithDevCode forces a specific device code instead of the part's.
func WithDevCode(code byte) Option {
	return func(c *Config) {
		c.DevCode = code
	}
}

// WithoutBlockMode disables probing for buffered memory access.
func WithoutBlockMode() Option {
	return func(c *Config) {
		c.TryBlockMode = false
	}
}

// WithLogger sets a logger for protocol operations.
func WithLogger(logger programmer.Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

func (a *Programmer) logDebug(msg string, keysAndValues ...interface{}) {
	if a.config.Logger != nil {
		a.config.Logger.Debug(msg, keysAndValues...)
	}
}

func (a *Programmer) logWarn(msg string, keysAndValues ...interface{}) {
	if a.config.Logger != nil {
		a.config.Logger.Warn(msg, keysAndValues...)
	}
}
