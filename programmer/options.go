package programmer

// Config holds the programmer configuration.
type Config struct {
	// ProgressCallback is called during transfers to report progress (optional)
	ProgressCallback ProgressCallback

	// Logger is used for logging operations (optional)
	Logger Logger

	// Clock is the time source for write polling and delays
	Clock Clock

	// FuseRecorder receives shadow copies of written fuse values (optional)
	FuseRecorder FuseRecorder

	// CountEraseCycles enables the EEPROM-resident erase cycle counter
	CountEraseCycles bool
}

func defaultConfig() Config {
	return Config{
		Clock: SystemClock(),
	}
}

// Option is a functional option for configuring the Programmer.
type Option func(*Config)

// WithProgressCallback sets a callback function to track transfer progress.
//
// Example:
//
//	prog := programmer.New(backend, part,
//	    programmer.WithProgressCallback(func(p programmer.Progress) {
//	        fmt.Printf("%s %s %.0f%%\n", p.Phase, p.Memory, p.Percentage)
//	    }),
//	)
func WithProgressCallback(callback ProgressCallback) Option {
	return func(c *Config) {
		c.ProgressCallback = callback
	}
}

// WithLogger sets a logger for programmer operations.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.Logger = logger
	}
}

// WithClock replaces the time source used for write polling deadlines and
// self-timed write waits. Tests use this to make polling deterministic.
func WithClock(clock Clock) Option {
	return func(c *Config) {
		if clock != nil {
			c.Clock = clock
		}
	}
}

// WithFuseRecorder sets the shadow recorder that is notified of every fuse
// byte the engine writes.
func WithFuseRecorder(rec FuseRecorder) Option {
	return func(c *Config) {
		c.FuseRecorder = rec
	}
}

// WithEraseCycleCounting enables maintenance of the erase cycle counter
// kept in the last four bytes of EEPROM across chip erases.
func WithEraseCycleCounting(enable bool) Option {
	return func(c *Config) {
		c.CountEraseCycles = enable
	}
}
