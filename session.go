package ftpc

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/gonzalop/ftpc/internal/ratelimit"
)

const (
	defaultTimeout     = 60 * time.Second
	defaultDataTimeout = 15 * time.Second
	defaultBufferSize  = 1 << 20
)

// Session is one logged-in conversation with an FTP server.
//
// A Session owns its control connection for its whole life and issues one
// command at a time. It is not safe for concurrent use: callers that share a
// Session between goroutines must serialize access themselves.
type Session struct {
	// ctrl is the control channel
	ctrl *controlChannel

	// host and port of the control connection
	host string
	port string

	// greeting is the 220 reply read by Dial
	greeting *Response

	timeout     time.Duration
	dataTimeout time.Duration

	logger *slog.Logger
	dialer *net.Dialer

	// passive selects PASV (true) or PORT (false) for data connections
	passive    bool
	probeAddr  string
	activePort int

	parser     ListingParser
	echo       EchoFunc
	bufferSize int

	bandwidthLimit int64
	limiter        *ratelimit.Limiter

	// currentType is the last representation type accepted by the server
	currentType Type

	// transfer is the Download currently streaming, if any
	transfer *Download
}

// Dial connects to an FTP server at the given address and reads its
// greeting. The address should be in the form "host:port".
//
// Example:
//
//	session, err := ftpc.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Quit()
//
//	if err := session.Login("anonymous", "anonymous@"); err != nil {
//	    log.Fatal(err)
//	}
func Dial(addr string, options ...Option) (*Session, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("invalid address: %w", err)
	}

	s := &Session{
		host:        host,
		port:        port,
		timeout:     defaultTimeout,
		dataTimeout: defaultDataTimeout,
		dialer:      &net.Dialer{},
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		passive:     true,
		probeAddr:   defaultProbeAddr,
		parser:      AnchorParser{},
		bufferSize:  defaultBufferSize,
	}

	for _, opt := range options {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if s.dialer.Timeout == 0 {
		s.dialer.Timeout = s.timeout
	}
	s.limiter = ratelimit.New(s.bandwidthLimit)

	if err := s.connect(); err != nil {
		return nil, err
	}
	return s, nil
}

// connect opens the control connection and reads the greeting.
func (s *Session) connect() error {
	addr := net.JoinHostPort(s.host, s.port)
	s.logger.Debug("connecting to ftp server", "addr", addr)

	conn, err := s.dialer.Dial("tcp", addr)
	if err != nil {
		if isTimeout(err) {
			return &TimeoutError{Channel: "control", Op: "connect " + addr, Err: err}
		}
		return fmt.Errorf("failed to connect: %w", err)
	}

	s.ctrl = newControlChannel(conn, s.timeout, s.logger)
	s.ctrl.echo = s.echo
	s.ctrl.echoCommands = true
	s.ctrl.echoReplies = true

	// A 120 reply announces a delay; the server follows it with 220.
	for {
		resp, err := s.ctrl.await("CONNECT")
		if err != nil {
			s.ctrl.close()
			return err
		}
		if resp.Code == 120 {
			continue
		}
		if resp.Code != 220 {
			s.ctrl.close()
			return &ProtocolError{Command: "CONNECT", Response: resp}
		}
		s.greeting = resp
		return nil
	}
}

// ready fails when a Download is still streaming on the Session.
func (s *Session) ready() error {
	if s.transfer != nil {
		return ErrTransferInProgress
	}
	return nil
}

// Greeting returns the reply the server sent when the connection was opened.
func (s *Session) Greeting() *Response {
	return s.greeting
}

// Login authenticates with USER and PASS. PASS is skipped when the server
// accepts USER alone.
func (s *Session) Login(username, password string) error {
	if err := s.ready(); err != nil {
		return err
	}

	resp, err := s.ctrl.exchange("USER", username)
	if err != nil {
		return err
	}
	if resp.Is2xx() {
		return nil
	}

	_, err = s.ctrl.exchange("PASS", password)
	return err
}

// Quit sends QUIT and closes the control connection. A Download still in
// progress is closed first. Calling Quit on a closed Session is a no-op.
func (s *Session) Quit() error {
	var result *multierror.Error

	if s.transfer != nil {
		if err := s.transfer.Close(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if _, err := s.ctrl.exchange("QUIT"); err != nil && !errors.Is(err, ErrSessionClosed) {
		result = multierror.Append(result, err)
	}

	if err := s.ctrl.close(); err != nil && !errors.Is(err, net.ErrClosed) {
		result = multierror.Append(result, err)
	}

	return flatten(result)
}

// Close closes the control connection and any data connection without
// sending QUIT.
func (s *Session) Close() error {
	if s.transfer != nil {
		s.transfer.abandon()
	}
	if err := s.ctrl.close(); err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

// Closed reports whether the control connection can no longer be used,
// because of Quit, Close, a control timeout or a peer close. Every later
// call fails with ErrSessionClosed.
func (s *Session) Closed() bool {
	return s.ctrl.broken != nil
}

// SwitchMode sets the representation type with TYPE.
// The command is always sent, even if the type is already set.
func (s *Session) SwitchMode(t Type) error {
	if err := s.ready(); err != nil {
		return err
	}
	if t != TypeASCII && t != TypeBinary {
		return fmt.Errorf("ftp: unsupported transfer type %q", string(t))
	}

	if _, err := s.ctrl.exchange("TYPE", string(t)); err != nil {
		return err
	}
	s.currentType = t
	return nil
}

// CurrentType returns the last type accepted by the server, or "" if
// SwitchMode has never succeeded.
func (s *Session) CurrentType() Type {
	return s.currentType
}

// SetPassive selects passive (PASV) or active (PORT) data connections for
// the following transfers.
func (s *Session) SetPassive(passive bool) {
	s.passive = passive
}

// Passive reports whether data connections use PASV.
func (s *Session) Passive() bool {
	return s.passive
}

// SetEcho turns the transcript of commands and replies on or off. It has
// no effect unless an EchoFunc was installed with WithEcho.
func (s *Session) SetEcho(commands, replies bool) {
	s.ctrl.echoCommands = commands
	s.ctrl.echoReplies = replies
}

// flatten returns nil, the single error, or the aggregate.
func flatten(result *multierror.Error) error {
	if result == nil || len(result.Errors) == 0 {
		return nil
	}
	if len(result.Errors) == 1 {
		return result.Errors[0]
	}
	return result
}
