package ftpc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"
	"syscall"
	"time"
)

// EchoFunc receives one line of the control channel transcript, already
// prefixed with ">> " for commands or "<< " for replies.
type EchoFunc func(line string)

// controlChannel owns the control socket. It sends command lines and reads
// replies, strictly one exchange at a time.
type controlChannel struct {
	conn    net.Conn
	reader  *bufio.Reader
	timeout time.Duration
	logger  *slog.Logger

	// echo settings (presentation only)
	echo         EchoFunc
	echoCommands bool
	echoReplies  bool

	// mu serializes exchanges so that only one command is in flight
	mu sync.Mutex

	// broken is set once the channel can no longer be trusted to be in
	// sync with the server (timeout, peer close, explicit close)
	broken error
}

func newControlChannel(conn net.Conn, timeout time.Duration, logger *slog.Logger) *controlChannel {
	return &controlChannel{
		conn:    conn,
		reader:  bufio.NewReader(conn),
		timeout: timeout,
		logger:  logger,
	}
}

// formatCommand builds the command line without the CRLF terminator.
func formatCommand(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// maskCommand returns the form of a command line that is safe to log or echo.
func maskCommand(name, line string) string {
	if strings.EqualFold(name, "PASS") {
		return "PASS XXXX"
	}
	return line
}

func (cc *controlChannel) closedErr() error {
	return fmt.Errorf("%w (%v)", ErrSessionClosed, cc.broken)
}

// fail converts an I/O error on the control socket into the error
// taxonomy and marks the channel as broken.
func (cc *controlChannel) fail(op string, err error) error {
	switch {
	case isTimeout(err):
		err = &TimeoutError{Channel: "control", Op: op, Err: err}
	case errors.Is(err, ErrConnectionClosed):
		// already classified by readResponse
	case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed),
		errors.Is(err, syscall.ECONNRESET), errors.Is(err, syscall.EPIPE):
		err = fmt.Errorf("%w: %s: %v", ErrConnectionClosed, op, err)
	default:
		err = fmt.Errorf("ftp: %s: %w", op, err)
	}
	cc.broken = err
	return err
}

// send writes one command line to the control socket.
func (cc *controlChannel) send(name string, args ...string) error {
	if cc.broken != nil {
		return cc.closedErr()
	}

	line := formatCommand(name, args...)
	shown := maskCommand(name, line)

	cc.logger.Debug("ftp command", "cmd", shown)
	if cc.echo != nil && cc.echoCommands {
		cc.echo(">> " + shown)
	}

	if cc.timeout > 0 {
		if err := cc.conn.SetWriteDeadline(time.Now().Add(cc.timeout)); err != nil {
			return cc.fail("set write deadline", err)
		}
	}

	if _, err := io.WriteString(cc.conn, line+"\r\n"); err != nil {
		return cc.fail("send "+name, err)
	}
	return nil
}

// receive reads one complete reply from the control socket.
func (cc *controlChannel) receive(op string) (*Response, error) {
	if cc.broken != nil {
		return nil, cc.closedErr()
	}

	// Set read deadline for the reply
	// Note: We set it on the underlying connection, not the bufio Reader
	if cc.timeout > 0 {
		if err := cc.conn.SetReadDeadline(time.Now().Add(cc.timeout)); err != nil {
			return nil, cc.fail("set read deadline", err)
		}
	}

	resp, err := readResponse(cc.reader)
	if err != nil {
		return nil, cc.fail("read reply to "+op, err)
	}

	cc.logger.Debug("ftp response", "code", resp.Code, "message", resp.Message)
	if cc.echo != nil && cc.echoReplies {
		cc.echo("<< " + resp.String())
	}

	return resp, nil
}

// exchange sends a command and reads its reply. A negative reply is
// returned together with a *ProtocolError.
func (cc *controlChannel) exchange(name string, args ...string) (*Response, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if err := cc.send(name, args...); err != nil {
		return nil, err
	}
	return cc.check(maskCommand(name, formatCommand(name, args...)))
}

// await reads a reply without sending anything. It is used for the
// greeting and for the completion reply of a transfer; op names the
// command the reply belongs to.
func (cc *controlChannel) await(op string) (*Response, error) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	return cc.check(op)
}

func (cc *controlChannel) check(op string) (*Response, error) {
	resp, err := cc.receive(op)
	if err != nil {
		return nil, err
	}

	if !resp.Success() {
		return resp, &ProtocolError{
			Command:  op,
			Response: resp,
		}
	}

	return resp, nil
}

// close shuts the control socket down. Later calls fail with ErrSessionClosed.
func (cc *controlChannel) close() error {
	if cc.broken == nil {
		cc.broken = errors.New("closed by client")
	}
	return cc.conn.Close()
}
