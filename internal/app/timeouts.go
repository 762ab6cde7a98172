package app

import "time"

const (
	defaultReconnectWait  = 2 * time.Second
	defaultConnectTimeout = 5 * time.Second
	shutdownTimeout       = 10 * time.Second
)
