package meta

// Config controls how far decoders walk a container.
type Config struct {
	// Walk past the header record to count animation frames. When false,
	// decoding stops at the header record.
	CountFrames bool
}

var DefaultConfig = Config{CountFrames: true}

// Option sets an optional parameter for the metadata loaders.
type Option func(*Config)

// CountFrames returns an Option that controls animation frame counting. It is
// enabled by default. Disabling it means fewer bytes of the stream need to be
// read, but PNG and GIF animations are then reported as not animated.
func CountFrames(enabled bool) Option {
	return func(c *Config) {
		c.CountFrames = enabled
	}
}

func NewConfig(opts ...Option) Config {
	cfg := DefaultConfig
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}
