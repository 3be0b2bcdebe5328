package ftpc

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// CurrentDir returns the current working directory reported by PWD.
//
// The path is taken from between the quotes of the reply, for example
// `257 "/home/user" is the current directory`. Doubled quotes inside the
// path are unescaped. A reply without quotes is returned trimmed.
func (s *Session) CurrentDir() (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	resp, err := s.ctrl.exchange("PWD")
	if err != nil {
		return "", err
	}
	return parseQuotedPath(resp.Message), nil
}

// parseQuotedPath extracts the quoted path of a 257 reply.
func parseQuotedPath(msg string) string {
	start := strings.IndexByte(msg, '"')
	if start == -1 {
		return strings.TrimSpace(msg)
	}

	var b strings.Builder
	rest := msg[start+1:]
	for i := 0; i < len(rest); i++ {
		if rest[i] != '"' {
			b.WriteByte(rest[i])
			continue
		}
		if i+1 < len(rest) && rest[i+1] == '"' {
			b.WriteByte('"')
			i++
			continue
		}
		return b.String()
	}
	// unterminated quote
	return strings.TrimSpace(msg)
}

// ChangeDir changes the current working directory.
func (s *Session) ChangeDir(path string) error {
	return s.simple("CWD", path)
}

// MakeDir creates a new directory.
func (s *Session) MakeDir(path string) error {
	return s.simple("MKD", path)
}

// RemoveDir removes a directory.
func (s *Session) RemoveDir(path string) error {
	return s.simple("RMD", path)
}

// Delete deletes a file.
func (s *Session) Delete(path string) error {
	return s.simple("DELE", path)
}

func (s *Session) simple(name, arg string) error {
	if err := s.ready(); err != nil {
		return err
	}
	_, err := s.ctrl.exchange(name, arg)
	return err
}

// Rename renames a file or directory with RNFR and RNTO.
//
// The two steps are not atomic. If RNFR is accepted and RNTO is rejected,
// the server may be left in a pending rename state and the caller should
// check the result by listing the directory.
func (s *Session) Rename(from, to string) error {
	if err := s.ready(); err != nil {
		return err
	}

	resp, err := s.ctrl.exchange("RNFR", from)
	if err != nil {
		return err
	}
	if resp.Code != 350 {
		return &ProtocolError{Command: "RNFR " + from, Response: resp}
	}

	_, err = s.ctrl.exchange("RNTO", to)
	return err
}

// SizeRaw returns the message of the SIZE reply unparsed.
// It switches to binary mode for SIZE and back to ASCII afterwards, also
// when SIZE fails.
func (s *Session) SizeRaw(path string) (string, error) {
	if err := s.SwitchMode(TypeBinary); err != nil {
		return "", err
	}

	var result *multierror.Error
	resp, err := s.ctrl.exchange("SIZE", path)
	if err != nil {
		result = multierror.Append(result, err)
	}

	// No point restoring the type on a dead connection.
	if !s.Closed() {
		if err := s.SwitchMode(TypeASCII); err != nil {
			result = multierror.Append(result, err)
		}
	}

	if err := flatten(result); err != nil {
		return "", err
	}
	return resp.Message, nil
}

// Size returns the size of a file in bytes.
// A reply that is not a decimal number yields a *MalformedReplyError and
// leaves the Session usable.
func (s *Session) Size(path string) (int64, error) {
	raw, err := s.SizeRaw(path)
	if err != nil {
		return 0, err
	}
	return parseSize(raw)
}

// parseSize parses the message of a 213 SIZE reply.
func parseSize(msg string) (int64, error) {
	size, err := strconv.ParseInt(strings.TrimSpace(msg), 10, 64)
	if err != nil || size < 0 {
		return 0, &MalformedReplyError{Command: "SIZE", Reply: msg, Reason: "not a byte count"}
	}
	return size, nil
}

// ListRaw returns the text of a LIST of path, or of the current directory
// when path is empty. Bytes that are not valid UTF-8 are dropped.
func (s *Session) ListRaw(path string) (string, error) {
	if err := s.ready(); err != nil {
		return "", err
	}

	var (
		dl  *Download
		err error
	)
	if path == "" {
		dl, err = s.download(-1, "LIST")
	} else {
		dl, err = s.download(-1, "LIST", path)
	}
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if _, err := dl.WriteTo(&buf); err != nil {
		return "", err
	}
	return strings.ToValidUTF8(buf.String(), ""), nil
}

// List returns the entries of a LIST of path, parsed with the Session's
// ListingParser. Lines the parser does not recognize are skipped.
//
// Example:
//
//	entries, err := session.List("/pub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, e := range entries {
//	    fmt.Println(e.Name, e.IsFile)
//	}
func (s *Session) List(path string) ([]FileEntry, error) {
	raw, err := s.ListRaw(path)
	if err != nil {
		return nil, err
	}
	return parseListing(s.logger, s.parser, raw), nil
}
