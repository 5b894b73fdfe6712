package server

import (
	"github.com/edgefleet/fleetman/pkg/log"
	"github.com/edgefleet/fleetman/pkg/manager"
)

// Options defines configuration options for the API server.
type Options struct {
	// ListenAddr is the address to listen on for HTTP connections.
	ListenAddr string

	// AccessCode guards every /api route; empty disables the gate.
	AccessCode string

	// Manager is the fleet engine behind every endpoint.
	Manager *manager.Manager

	// Logger is the logger to use.
	Logger log.Logger
}

// DefaultOptions returns the default options for the API server.
func DefaultOptions() *Options {
	return &Options{
		ListenAddr: ":8080",
		Logger:     log.GetDefaultLogger().WithComponent("api-server"),
	}
}

// Option is a function that configures the API server options.
type Option func(*Options)

// WithListenAddr sets the HTTP listen address.
func WithListenAddr(addr string) Option {
	return func(o *Options) {
		o.ListenAddr = addr
	}
}

// WithAccessCode sets the access code for the /api gate.
func WithAccessCode(code string) Option {
	return func(o *Options) {
		o.AccessCode = code
	}
}

// WithManager sets the fleet manager.
func WithManager(m *manager.Manager) Option {
	return func(o *Options) {
		o.Manager = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger log.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}
