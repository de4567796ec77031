// Package uds carries venue sessions over Unix domain sockets. The
// server restricts the socket file to its owner because login secrets
// cross it.
package uds

import (
	"context"
	"errors"
	"net"
)

const unixNetwork = "unix"

var (
	// ErrEmptyPath is returned when a socket path is empty.
	ErrEmptyPath = errors.New("uds: empty path")
	// ErrNilClient is returned when a nil client receiver is used.
	ErrNilClient = errors.New("uds: nil client")
)

// Client dials Unix domain sockets using a precomputed address.
type Client struct {
	addr net.UnixAddr
}

// NewClient creates a client for the provided socket path.
func NewClient(path string) (*Client, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	return &Client{addr: net.UnixAddr{Name: path, Net: unixNetwork}}, nil
}

// Path returns the configured socket path.
func (c *Client) Path() string {
	if c == nil {
		return ""
	}
	return c.addr.Name
}

// Dial opens a connection to the socket.
func (c *Client) Dial() (*net.UnixConn, error) {
	return c.DialContext(context.Background())
}

// DialContext opens a connection, honoring the context's deadline and
// cancellation while connecting.
func (c *Client) DialContext(ctx context.Context) (*net.UnixConn, error) {
	if c == nil {
		return nil, ErrNilClient
	}
	if c.addr.Name == "" {
		return nil, ErrEmptyPath
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, unixNetwork, c.addr.Name)
	if err != nil {
		return nil, err
	}
	return conn.(*net.UnixConn), nil
}
