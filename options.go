package ftpc

import (
	"fmt"
	"log/slog"
	"net"
	"time"
)

// Option is a functional option for configuring a Session.
type Option func(*Session) error

// WithTimeout sets the control channel timeout.
// It applies to dialing and to every command and reply. A control timeout
// is fatal to the Session. The default is 60 seconds.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Session) error {
		if timeout < 0 {
			return fmt.Errorf("negative timeout %v", timeout)
		}
		s.timeout = timeout
		return nil
	}
}

// WithDataTimeout sets the timeout for each read or write on a data
// connection, and for waiting on the server in active mode. A data timeout
// aborts only the transfer. The default is 15 seconds.
func WithDataTimeout(timeout time.Duration) Option {
	return func(s *Session) error {
		if timeout < 0 {
			return fmt.Errorf("negative data timeout %v", timeout)
		}
		s.dataTimeout = timeout
		return nil
	}
}

// WithLogger enables debug logging using the provided logger.
// All FTP commands and responses will be logged at debug level, with the
// password of PASS masked.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	}))
//	session, _ := ftpc.Dial("ftp.example.com:21", ftpc.WithLogger(logger))
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) error {
		if logger == nil {
			return fmt.Errorf("nil logger")
		}
		s.logger = logger
		return nil
	}
}

// WithDialer sets a custom net.Dialer for the control connection and for
// passive data connections. A dialer without a Timeout gets the control
// timeout; a Timeout already set on it is kept.
func WithDialer(dialer *net.Dialer) Option {
	return func(s *Session) error {
		if dialer == nil {
			return fmt.Errorf("nil dialer")
		}
		s.dialer = dialer
		return nil
	}
}

// WithActiveMode starts the Session in active mode (PORT) instead of
// passive mode (PASV). The mode can be changed later with SetPassive.
//
// Active mode advertises the address of the interface that routes towards
// the probe address (see WithProbeAddr). It does not work when the client
// sits behind NAT.
func WithActiveMode() Option {
	return func(s *Session) error {
		s.passive = false
		return nil
	}
}

// WithProbeAddr sets the UDP address used to discover the local outbound
// interface in active mode. No packet is sent to it. The default is 8.8.8.8:80.
func WithProbeAddr(addr string) Option {
	return func(s *Session) error {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("invalid probe address: %w", err)
		}
		s.probeAddr = addr
		return nil
	}
}

// WithActivePort fixes the local port announced with PORT in active mode.
// Zero (the default) lets the system choose an ephemeral port.
func WithActivePort(port int) Option {
	return func(s *Session) error {
		if port < 0 || port > 65535 {
			return fmt.Errorf("invalid active port %d", port)
		}
		s.activePort = port
		return nil
	}
}

// WithListingParser replaces the parser used by List.
// Use a CompositeParser to try several formats in order.
func WithListingParser(parser ListingParser) Option {
	return func(s *Session) error {
		if parser == nil {
			return fmt.Errorf("nil listing parser")
		}
		s.parser = parser
		return nil
	}
}

// WithEcho installs a transcript callback for the control channel.
// Commands are passed as ">> LINE" and replies as "<< CODE: MESSAGE".
// Both directions start enabled; use SetEcho to toggle them.
func WithEcho(fn EchoFunc) Option {
	return func(s *Session) error {
		s.echo = fn
		return nil
	}
}

// WithBufferSize sets the size of the buffer used for each data read.
// Each Download.Next call returns at most this many bytes. The default is 1 MiB.
func WithBufferSize(size int) Option {
	return func(s *Session) error {
		if size <= 0 {
			return fmt.Errorf("invalid buffer size %d", size)
		}
		s.bufferSize = size
		return nil
	}
}

// WithBandwidthLimit limits data transfers to the given number of bytes
// per second. Zero or a negative value disables the limit.
func WithBandwidthLimit(bytesPerSecond int64) Option {
	return func(s *Session) error {
		s.bandwidthLimit = bytesPerSecond
		return nil
	}
}
