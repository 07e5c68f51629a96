package pos

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/omrysinwany/InvoTrack/internal/infra"
)

// Supported POS system identifiers.
const (
	SystemCaspit = "caspit"
	SystemICount = "icount"
)

var ErrUnsupportedSystem = errors.New("pos: unsupported system")

// NewAdapter builds the adapter for cfg.SystemID. The switch is closed on
// purpose: an unknown id is a configuration error, not an extension point.
func NewAdapter(cfg Config) (Adapter, error) {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if cfg.Breaker == nil {
		cfg.Breaker = infra.NewCircuitBreaker(infra.DefaultCBConfig())
	}

	switch cfg.SystemID {
	case SystemCaspit:
		return newCaspitAdapter(cfg), nil
	case SystemICount:
		return newICountAdapter(cfg), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSystem, cfg.SystemID)
	}
}
