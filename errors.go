package ftpc

import (
	"errors"
	"fmt"
	"net"
	"os"
)

var (
	// ErrConnectionClosed is returned when the peer closed a socket while a
	// reply or data was still expected.
	ErrConnectionClosed = errors.New("ftp: connection closed")

	// ErrSessionClosed is returned by every operation once the control
	// channel has been shut down, either by Quit/Close or because an earlier
	// timeout or peer close left it out of sync with the server.
	ErrSessionClosed = errors.New("ftp: session closed")

	// ErrTransferInProgress is returned when a command is issued while a
	// Download is still streaming on the session.
	ErrTransferInProgress = errors.New("ftp: transfer in progress")
)

// ReplyServiceClosing is the reply code a server sends when it is about to
// close the control connection on its own ("service not available").
const ReplyServiceClosing = 421

// ProtocolError is returned when the server answers a command with a
// negative reply (4xx or 5xx). It carries the reply verbatim.
type ProtocolError struct {
	// Command is the FTP command that was sent (e.g., "STOR file.txt").
	// Passwords are masked.
	Command string

	// Response is the reply received from the server
	Response *Response
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Response.Message, e.Response.Code)
}

// Code returns the numeric reply code.
func (e *ProtocolError) Code() int {
	return e.Response.Code
}

// IsTemporary returns true if the error is a transient failure (4xx).
func (e *ProtocolError) IsTemporary() bool {
	return e.Response.Is4xx()
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *ProtocolError) IsPermanent() bool {
	return e.Response.Is5xx()
}

// ClosesSession reports whether the server announced that it is closing the
// control connection. No further command should be sent on that session.
func (e *ProtocolError) ClosesSession() bool {
	return e.Response.Code == ReplyServiceClosing
}

// MalformedReplyError is returned when a positive reply does not match the
// sub-grammar the client needs (PASV address, SIZE number, ...).
type MalformedReplyError struct {
	Command string
	Reply   string
	Reason  string
}

func (e *MalformedReplyError) Error() string {
	return fmt.Sprintf("ftp: malformed %s reply %q: %s", e.Command, e.Reply, e.Reason)
}

// TimeoutError is returned when a socket did not produce the expected line
// or bytes before its deadline. On the control channel this is fatal to the
// session; on a data channel it only aborts the transfer.
type TimeoutError struct {
	// Channel is "control" or "data"
	Channel string
	Op      string
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("ftp: %s channel timeout during %s: %v", e.Channel, e.Op, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout implements the net.Error style timeout check.
func (e *TimeoutError) Timeout() bool { return true }

// Outcome is the tagged classification of the result of a session call.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeProtocol
	OutcomeMalformed
	OutcomeClosed
	OutcomeTimeout
	// OutcomeLocal covers everything else: local I/O, dial failures, misuse.
	OutcomeLocal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeProtocol:
		return "protocol error"
	case OutcomeMalformed:
		return "malformed reply"
	case OutcomeClosed:
		return "connection closed"
	case OutcomeTimeout:
		return "timeout"
	default:
		return "local error"
	}
}

// Classify maps an error returned by a Session method onto an Outcome so
// callers can switch on the kind of failure instead of probing types.
//
//	switch ftpc.Classify(err) {
//	case ftpc.OutcomeTimeout, ftpc.OutcomeClosed:
//	    // reconnect
//	case ftpc.OutcomeProtocol:
//	    // report the reply
//	}
func Classify(err error) Outcome {
	if err == nil {
		return OutcomeOK
	}

	var timeoutErr *TimeoutError
	if errors.As(err, &timeoutErr) {
		return OutcomeTimeout
	}
	if errors.Is(err, ErrConnectionClosed) || errors.Is(err, ErrSessionClosed) {
		return OutcomeClosed
	}
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return OutcomeProtocol
	}
	var malformed *MalformedReplyError
	if errors.As(err, &malformed) {
		return OutcomeMalformed
	}
	return OutcomeLocal
}

// isTimeout reports whether err is a network deadline error.
func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
