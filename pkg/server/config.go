package server

import (
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/vango-dev/domsync/pkg/snapshot"
)

// ServerConfig holds configuration for the render-target server.
type ServerConfig struct {
	// Address is the host:port to listen on.
	// Default: "localhost:7070".
	Address string

	// ReadBufferSize and WriteBufferSize size the websocket buffers.
	// Default: 4096.
	ReadBufferSize  int
	WriteBufferSize int

	// MaxMessageBytes limits one websocket frame or request body.
	// Zero means no limit.
	MaxMessageBytes int64

	// CheckOrigin validates the websocket Origin header.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// WriteTimeout is the deadline for one websocket write.
	// Default: 10 seconds.
	WriteTimeout time.Duration

	// PongTimeout is how long a websocket client may stay silent before it
	// is dropped. Pings go out at 9/10 of it.
	// Default: 60 seconds.
	PongTimeout time.Duration

	// Minify minifies GET /snapshot output unless the request overrides it.
	Minify bool

	// Store persists snapshots taken through POST /snapshot. Nil disables
	// that route.
	Store snapshot.Store
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:         "localhost:7070",
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		MaxMessageBytes: 1 << 20,
		CheckOrigin:     SameOriginCheck,
		ShutdownTimeout: 10 * time.Second,
		WriteTimeout:    10 * time.Second,
		PongTimeout:     60 * time.Second,
	}
}

// withDefaults fills unset fields from DefaultServerConfig.
func (c *ServerConfig) withDefaults() *ServerConfig {
	d := DefaultServerConfig()
	if c == nil {
		return d
	}
	out := *c
	if out.Address == "" {
		out.Address = d.Address
	}
	if out.ReadBufferSize == 0 {
		out.ReadBufferSize = d.ReadBufferSize
	}
	if out.WriteBufferSize == 0 {
		out.WriteBufferSize = d.WriteBufferSize
	}
	if out.CheckOrigin == nil {
		out.CheckOrigin = d.CheckOrigin
	}
	if out.ShutdownTimeout == 0 {
		out.ShutdownTimeout = d.ShutdownTimeout
	}
	if out.WriteTimeout == 0 {
		out.WriteTimeout = d.WriteTimeout
	}
	if out.PongTimeout == 0 {
		out.PongTimeout = d.PongTimeout
	}
	return &out
}

// SameOriginCheck accepts requests without an Origin header and requests
// whose Origin host matches the request host.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return r.Host != "" && u.Host == r.Host
}

// AllowOrigins returns a CheckOrigin func accepting the listed origins in
// addition to same-origin requests. "*" accepts any origin.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	if len(origins) == 0 {
		return SameOriginCheck
	}
	if slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		if SameOriginCheck(r) {
			return true
		}
		return slices.Contains(origins, r.Header.Get("Origin"))
	}
}
