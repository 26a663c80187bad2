// Package api provides the HTTP surface for retrieval queries.
package api

import (
	"time"

	"github.com/lexfindco/lexfind/pkg/authgate"
	"github.com/lexfindco/lexfind/pkg/engine"
	"github.com/lexfindco/lexfind/pkg/eventstream"
)

// DefaultRequestTimeout bounds one query end to end (embed, search, resolve).
const DefaultRequestTimeout = 30 * time.Second

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// Engine executes retrieval queries. Required.
	Engine *engine.Engine

	// Gate validates API keys. When nil the query endpoints are served
	// without authentication; that is a local-development posture only.
	Gate authgate.Gate

	// Recorder records usage per validated request. Optional.
	Recorder authgate.UsageRecorder

	// Publisher emits a usage event per served query. Optional.
	Publisher eventstream.Publisher

	// RequestTimeout bounds one query. Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
}
