package ftpc

import (
	"errors"
	"fmt"
	"io"
	"os"
	"testing"

	"github.com/hashicorp/go-multierror"
)

func TestProtocolError(t *testing.T) {
	t.Parallel()
	err := &ProtocolError{
		Command:  "STOR file.txt",
		Response: &Response{Code: 550, Message: "Permission denied"},
	}

	if !err.IsPermanent() {
		t.Error("ProtocolError with code 550 should be IsPermanent()")
	}
	if err.IsTemporary() {
		t.Error("ProtocolError with code 550 should not be IsTemporary()")
	}
	if err.ClosesSession() {
		t.Error("550 does not close the session")
	}

	expectedMsg := "ftp: STOR file.txt failed: Permission denied (code 550)"
	if err.Error() != expectedMsg {
		t.Errorf("ProtocolError.Error() = %q, want %q", err.Error(), expectedMsg)
	}

	closing := &ProtocolError{Command: "PWD", Response: &Response{Code: 421, Message: "Timeout"}}
	if !closing.ClosesSession() || !closing.IsTemporary() {
		t.Error("421 should be temporary and close the session")
	}
}

func TestTimeoutError(t *testing.T) {
	t.Parallel()
	err := &TimeoutError{Channel: "data", Op: "RETR a", Err: os.ErrDeadlineExceeded}
	if !errors.Is(err, os.ErrDeadlineExceeded) {
		t.Error("TimeoutError does not unwrap to its cause")
	}
	if !isTimeout(err) {
		t.Error("isTimeout(TimeoutError) = false")
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()
	protocol := &ProtocolError{Command: "DELE x", Response: &Response{Code: 550}}
	timeout := &TimeoutError{Channel: "control", Op: "PWD", Err: os.ErrDeadlineExceeded}

	tests := []struct {
		name string
		err  error
		want Outcome
	}{
		{"nil", nil, OutcomeOK},
		{"protocol", protocol, OutcomeProtocol},
		{"wrapped protocol", fmt.Errorf("login failed: %w", protocol), OutcomeProtocol},
		{"malformed", &MalformedReplyError{Command: "SIZE", Reply: "x", Reason: "not a byte count"}, OutcomeMalformed},
		{"closed", fmt.Errorf("%w: no reply", ErrConnectionClosed), OutcomeClosed},
		{"session closed", ErrSessionClosed, OutcomeClosed},
		{"timeout", timeout, OutcomeTimeout},
		{"timeout wins in aggregate", multierror.Append(timeout, protocol), OutcomeTimeout},
		{"local", io.ErrShortWrite, OutcomeLocal},
		{"transfer in progress", ErrTransferInProgress, OutcomeLocal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOutcome_String(t *testing.T) {
	t.Parallel()
	if OutcomeTimeout.String() != "timeout" || OutcomeLocal.String() != "local error" {
		t.Error("unexpected Outcome names")
	}
}
