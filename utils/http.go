// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// HTTPClient is shared by outbound service calls (record ingest, auth).
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
