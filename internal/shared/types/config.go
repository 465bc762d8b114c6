package types

// CommonConf holds the behavior of the socket listener itself.
type CommonConf struct {
	SocketPath     string `ini:"socket_path"`
	MaxConnections int    `ini:"max_connections"`
	MaxLineBytes   int    `ini:"max_line_bytes"`
}

// WebConf holds the optional web UI / live-tail configuration.
// A WebPort of 0 disables the web service entirely.
type WebConf struct {
	WebPort     int    `ini:"web_port"`
	WebUser     string `ini:"web_user"`
	WebPassword string `ini:"web_password"`
	HistorySize int    `ini:"history_size"`
}

// LogConf contains logging specific configuration
type LogConf struct {
	Level string `ini:"level"`
}

// Config is the unified configuration structure for the daemon.
type Config struct {
	CommonConf `ini:"common"`
	WebConf    `ini:"web"`
	LogConf    `ini:"log"`
}

// ApplyDefaults fills zero values with the defaults the original debug
// tooling used.
func (c *Config) ApplyDefaults() {
	if c.SocketPath == "" {
		c.SocketPath = "/tmp/debug.socket"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 64
	}
	if c.MaxLineBytes <= 0 {
		c.MaxLineBytes = 64 * 1024
	}
	if c.HistorySize <= 0 {
		c.HistorySize = 1024
	}
	if c.Level == "" {
		c.Level = "info"
	}
}
