package providers

import "time"

const (
	// shutdownTimeout is the maximum time to wait for graceful shutdown of services.
	shutdownTimeout = 30 * time.Second

	// cacheConnectTimeout bounds the initial Redis ping.
	cacheConnectTimeout = 3 * time.Second
)
