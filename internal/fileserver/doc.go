// Package fileserver runs the local HTTPS static file server.
//
// The server wraps net/http's file handler with request logging and serves
// over TLS using certificates from the localtls manager. Shutdown is driven
// by context cancellation so the serve command can stop cleanly on SIGINT.
package fileserver
