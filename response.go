package ftpc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// replyLineRegex matches a reply line: a three-digit code, a delimiter
// (space for the last line, dash for continuation) and the text.
var replyLineRegex = regexp.MustCompile(`^(\d{3})([ -])(.*)$`)

// Response represents an FTP server reply.
// A Response is not modified after it has been read from the control channel.
type Response struct {
	// Code is the three-digit reply code (e.g., 220, 550)
	Code int

	// Message is the reply text. For multi-line replies the text of every
	// line is joined with "\n".
	Message string

	// Lines contains the raw lines of the reply, CR/LF stripped
	Lines []string
}

// Success reports whether the reply is a positive one (1xx, 2xx or 3xx).
func (r *Response) Success() bool {
	class := r.Code / 100
	return class >= 1 && class <= 3
}

// Is1xx returns true if the response code is in the 1xx range (preliminary).
func (r *Response) Is1xx() bool {
	return r.Code >= 100 && r.Code < 200
}

// Is2xx returns true if the response code is in the 2xx range (success).
func (r *Response) Is2xx() bool {
	return r.Code >= 200 && r.Code < 300
}

// Is3xx returns true if the response code is in the 3xx range (intermediate).
func (r *Response) Is3xx() bool {
	return r.Code >= 300 && r.Code < 400
}

// Is4xx returns true if the response code is in the 4xx range (temporary failure).
func (r *Response) Is4xx() bool {
	return r.Code >= 400 && r.Code < 500
}

// Is5xx returns true if the response code is in the 5xx range (permanent failure).
func (r *Response) Is5xx() bool {
	return r.Code >= 500 && r.Code < 600
}

// String renders the reply as "<code>: <message>".
func (r *Response) String() string {
	return fmt.Sprintf("%d: %s", r.Code, r.Message)
}

// readLine reads one line from the control channel and strips the
// trailing CR/LF. A final unterminated fragment is returned together
// with io.EOF.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, err
}

// readResponse reads a complete FTP reply from the reader.
//
// Single-line format: "220 Welcome\r\n"
// Multi-line format:
//
//	"150-a\r\n"
//	"150-b\r\n"
//	"150 c\r\n"
//
// Lines that do not look like reply lines are kept verbatim as part of the
// message. The reply is complete at the first line that carries the code of
// the reply followed by a space. If the stream ends before that line arrives,
// the returned error wraps ErrConnectionClosed.
func readResponse(r *bufio.Reader) (*Response, error) {
	var (
		code     = -1
		lines    []string
		messages []string
	)

	for {
		line, err := readLine(r)
		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(lines) == 0 && line == "" {
					return nil, fmt.Errorf("%w: no reply", ErrConnectionClosed)
				}
				return nil, fmt.Errorf("%w: reply truncated after %d line(s)", ErrConnectionClosed, len(lines)+1)
			}
			return nil, err
		}
		lines = append(lines, line)

		m := replyLineRegex.FindStringSubmatch(line)
		if m == nil {
			messages = append(messages, line)
			continue
		}

		lineCode, _ := strconv.Atoi(m[1])
		if code == -1 {
			code = lineCode
		} else if lineCode != code {
			// Some servers echo numbered text inside a multi-line reply.
			messages = append(messages, line)
			continue
		}

		messages = append(messages, m[3])
		if m[2] == " " {
			return &Response{
				Code:    code,
				Message: strings.Join(messages, "\n"),
				Lines:   lines,
			}, nil
		}
	}
}
