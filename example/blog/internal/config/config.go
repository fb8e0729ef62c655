package config

import "time"

const (
	// Database configuration
	DriverName         = "sqlite"
	DefaultDSN         = "file:blog.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	DefaultDBSystem    = "sqlite"
	DefaultDBName      = "blog"
	DefaultInstance    = "primary"
	DefaultMaxOpen     = 4
	DefaultMaxIdle     = 2
	DefaultMaxLifetime = time.Hour
	DefaultMaxIdleTime = 15 * time.Minute

	// Server configuration
	HTTPAddr        = ":8080"
	MetricsAddr     = ":2112"
	ShutdownTimeout = 5 * time.Second

	// OpenTelemetry configuration
	OTLPEndpoint   = "localhost:4317"
	Application    = "blog"
	ServiceName    = "marginalia-blog-example"
	ServiceVersion = "0.1.0"
)
