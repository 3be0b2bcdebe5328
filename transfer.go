package ftpc

import (
	"bytes"
	"fmt"
	"io"

	"github.com/hashicorp/go-multierror"

	"github.com/gonzalop/ftpc/internal/ratelimit"
)

// startTransfer opens a data connection and sends the transfer command.
// It returns the connection, the preliminary reply and the command line
// used to label the completion reply.
func (s *Session) startTransfer(name string, args ...string) (io.ReadWriteCloser, *Response, string, error) {
	conn, err := s.openDataConn()
	if err != nil {
		return nil, nil, "", err
	}

	op := formatCommand(name, args...)
	resp, err := s.ctrl.exchange(name, args...)
	if err != nil {
		conn.Close()
		return nil, nil, "", err
	}

	s.logger.Debug("data transfer started", "command", op, "passive", s.passive)
	return conn, resp, op, nil
}

// download starts a RETR or LIST and hands the data connection to a Download.
func (s *Session) download(size int64, name string, args ...string) (*Download, error) {
	conn, resp, op, err := s.startTransfer(name, args...)
	if err != nil {
		return nil, err
	}

	d := newDownload(s, conn, op, size)
	if !resp.Is1xx() {
		// The server answered with the completion reply right away.
		d.reply = resp
	}
	s.transfer = d
	return d, nil
}

// GetFile starts downloading a file in binary mode.
//
// The session switches to binary first and then probes the size with SIZE,
// since many servers refuse SIZE in ASCII mode. A rejected or unparsable
// SIZE reply only leaves the size unknown (-1). The returned Download must be read to
// the end or closed.
//
// Example:
//
//	dl, err := session.GetFile("pub/README")
//	if err != nil {
//	    return err
//	}
//	for chunk, err := range dl.Chunks() {
//	    if err != nil {
//	        return err
//	    }
//	    f.Write(chunk)
//	}
func (s *Session) GetFile(path string) (*Download, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	if err := s.SwitchMode(TypeBinary); err != nil {
		return nil, err
	}

	size := int64(-1)
	resp, err := s.ctrl.exchange("SIZE", path)
	if err == nil {
		size, err = parseSize(resp.Message)
	}
	if err != nil {
		switch Classify(err) {
		case OutcomeProtocol, OutcomeMalformed:
			s.logger.Debug("size unknown", "path", path, "error", err)
			size = -1
		default:
			return nil, err
		}
	}

	return s.download(size, "RETR", path)
}

// Retrieve downloads a file into w and returns the number of bytes written.
func (s *Session) Retrieve(path string, w io.Writer) (int64, error) {
	dl, err := s.GetFile(path)
	if err != nil {
		return 0, err
	}
	return dl.WriteTo(w)
}

// PutFile uploads data to path in binary mode.
func (s *Session) PutFile(path string, data []byte) error {
	return s.Store(path, bytes.NewReader(data))
}

// Store uploads everything read from r to path in binary mode.
// The data connection is closed once r is exhausted, which tells the
// server the file is complete, and the completion reply is then read.
//
// Example:
//
//	file, err := os.Open("local.txt")
//	if err != nil {
//	    return err
//	}
//	defer file.Close()
//
//	err = session.Store("remote.txt", file)
func (s *Session) Store(path string, r io.Reader) error {
	if err := s.ready(); err != nil {
		return err
	}
	if err := s.SwitchMode(TypeBinary); err != nil {
		return err
	}

	conn, resp, op, err := s.startTransfer("STOR", path)
	if err != nil {
		return err
	}

	var result *multierror.Error

	// Empty uploads still need the connection established in active mode.
	_, err = conn.Write(nil)
	if err != nil {
		result = multierror.Append(result, dataError(op, err))
	}

	var n int64
	if err == nil {
		dst := &recordingWriter{w: ratelimit.NewWriter(conn, s.limiter)}
		n, err = io.Copy(dst, r)
		switch {
		case err == nil:
		case dst.err != nil:
			result = multierror.Append(result, dataError(op, err))
		default:
			result = multierror.Append(result, fmt.Errorf("ftp: read upload source: %w", err))
		}
	}

	if err := conn.Close(); err != nil && result == nil {
		result = multierror.Append(result, dataError(op, err))
	}

	if resp.Is1xx() {
		if _, err := s.ctrl.await(op); err != nil {
			result = multierror.Append(result, err)
		}
	}

	s.logger.Debug("data transfer finished", "command", op, "bytes", n)
	return flatten(result)
}

// recordingWriter remembers whether a failure came from the destination.
type recordingWriter struct {
	w   io.Writer
	err error
}

func (rw *recordingWriter) Write(p []byte) (int, error) {
	n, err := rw.w.Write(p)
	if err != nil {
		rw.err = err
	}
	return n, err
}
