package uds

import (
	"errors"
	"net"
	"os"
)

var (
	// ErrNilServer reports a method call on a nil server.
	ErrNilServer = errors.New("uds: nil server")
	// ErrAlreadyListening reports a second Listen on the same server.
	ErrAlreadyListening = errors.New("uds: already listening")
	// ErrNotListening reports Accept before Listen.
	ErrNotListening = errors.New("uds: not listening")
	// ErrPathNotSocket reports a stale path occupied by a non-socket file.
	ErrPathNotSocket = errors.New("uds: path exists and is not a socket")
)

// Server accepts sessions on a Unix domain socket. The socket file is
// created on Listen, limited to the owning user, and unlinked again
// when the listener closes.
type Server struct {
	path string
	ln   *net.UnixListener
}

// NewServer prepares a server for the given socket path. Nothing is
// bound until Listen.
func NewServer(path string) (*Server, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	return &Server{path: path}, nil
}

// Path returns the socket path the server binds.
func (s *Server) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// Listen binds the socket path, replacing a socket file left behind by
// an earlier run, and restricts the file to its owner.
func (s *Server) Listen() error {
	switch {
	case s == nil:
		return ErrNilServer
	case s.path == "":
		return ErrEmptyPath
	case s.ln != nil:
		return ErrAlreadyListening
	}
	if err := RemoveIfExists(s.path); err != nil {
		return err
	}

	ln, err := net.ListenUnix(unixNetwork, &net.UnixAddr{Name: s.path, Net: unixNetwork})
	if err != nil {
		return err
	}
	ln.SetUnlinkOnClose(true)

	// Login secrets cross this socket; owner-only from the first accept.
	if err := os.Chmod(s.path, 0o600); err != nil {
		_ = ln.Close()
		return err
	}

	s.ln = ln
	return nil
}

// Accept waits for the next incoming connection.
func (s *Server) Accept() (*net.UnixConn, error) {
	switch {
	case s == nil:
		return nil, ErrNilServer
	case s.ln == nil:
		return nil, ErrNotListening
	}
	return s.ln.AcceptUnix()
}

// Close stops the listener and unlinks the socket file. Closing a
// server that never listened is a no-op.
func (s *Server) Close() error {
	if s == nil || s.ln == nil {
		return nil
	}
	err := s.ln.Close()
	s.ln = nil
	return err
}

// RemoveIfExists unlinks a socket file left behind by an earlier run.
// Paths occupied by anything other than a socket are refused.
func RemoveIfExists(path string) error {
	if path == "" {
		return ErrEmptyPath
	}
	info, err := os.Lstat(path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return err
	case info.Mode()&os.ModeSocket == 0:
		return ErrPathNotSocket
	}
	return os.Remove(path)
}
