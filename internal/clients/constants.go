package clients

import "time"

const (
	CONNECT_TIMEOUT = 10 * time.Second
	PING_TIMEOUT    = 3 * time.Second
	RETRIES         = 3
	RETRY_DELAY     = 250 * time.Millisecond
)
