package logger

// Config describes logging configuration.
type Config struct {
	// Level is one of "debug", "info", "warn", "error".
	Level string
	// Formatter is "text" or "json".
	Formatter string
}

// DefaultConfig returns a Config instance with default values.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Formatter: "text",
	}
}
