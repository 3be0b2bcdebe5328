package ftpc

import (
	"errors"
	"io"
	"iter"

	"github.com/hashicorp/go-multierror"

	"github.com/gonzalop/ftpc/internal/ratelimit"
)

// Download streams the data connection of one RETR or LIST.
//
// Bytes are pulled with Next, one data read per call, so a slow consumer
// throttles the network read. The stream ends at the first zero-length read
// or EOF; the server's completion reply is read at that point and the
// Session becomes available for the next command.
//
// A Download must be read to the end or closed before the Session is used
// again. Other Session calls fail with ErrTransferInProgress until then.
type Download struct {
	s       *Session
	conn    io.ReadCloser
	reader  io.Reader
	command string
	buf     []byte

	size     int64
	received int64
	progress ProgressFunc

	done  bool
	err   error
	reply *Response
}

func newDownload(s *Session, conn io.ReadCloser, command string, size int64) *Download {
	return &Download{
		s:       s,
		conn:    conn,
		reader:  ratelimit.NewReader(conn, s.limiter),
		command: command,
		buf:     make([]byte, s.bufferSize),
		size:    size,
	}
}

// Next returns the next chunk of data. At the end of the stream it returns
// nil and io.EOF if the server confirmed the transfer, or the error that
// ended it otherwise. Later calls return the same result.
//
// The returned slice is only valid until the next call.
func (d *Download) Next() ([]byte, error) {
	if d.done {
		return nil, d.err
	}

	n, err := d.reader.Read(d.buf)
	if n > 0 {
		d.received += int64(n)
		if d.progress != nil {
			d.progress(d.received, d.size)
		}
		return d.buf[:n], nil
	}

	return nil, d.finish(err, false)
}

// Chunks returns an iterator over the remaining chunks. Iteration stops
// after the first error; breaking out of the loop closes the Download.
//
//	for chunk, err := range dl.Chunks() {
//	    if err != nil {
//	        return err
//	    }
//	    f.Write(chunk)
//	}
func (d *Download) Chunks() iter.Seq2[[]byte, error] {
	return func(yield func([]byte, error) bool) {
		for {
			chunk, err := d.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(chunk, nil) {
				_ = d.Close()
				return
			}
		}
	}
}

// WriteTo writes the remaining chunks to w. It implements io.WriterTo.
// A write error closes the Download.
func (d *Download) WriteTo(w io.Writer) (int64, error) {
	var written int64
	for {
		chunk, err := d.Next()
		if errors.Is(err, io.EOF) {
			return written, nil
		}
		if err != nil {
			return written, err
		}

		n, werr := w.Write(chunk)
		written += int64(n)
		if werr != nil {
			if cerr := d.Close(); cerr != nil {
				return written, multierror.Append(werr, cerr)
			}
			return written, werr
		}
	}
}

// Close aborts the transfer if it is still running: the data connection is
// closed and the server's reply to the abort is consumed. A negative reply
// to an aborted transfer is expected and not reported.
func (d *Download) Close() error {
	if d.done {
		return nil
	}
	err := d.finish(nil, true)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// Size returns the size reported by SIZE before the transfer, or -1 when
// it is unknown.
func (d *Download) Size() int64 {
	return d.size
}

// Received returns the number of bytes read so far.
func (d *Download) Received() int64 {
	return d.received
}

// OnProgress registers a callback invoked after every chunk with the bytes
// received so far and the total from Size (-1 when unknown).
func (d *Download) OnProgress(fn ProgressFunc) {
	d.progress = fn
}

// Reply returns the completion reply of the transfer, or nil if the server
// has not sent it yet.
func (d *Download) Reply() *Response {
	return d.reply
}

// finish closes the data connection and drains the completion reply.
func (d *Download) finish(readErr error, aborted bool) error {
	d.done = true
	d.s.transfer = nil

	var result *multierror.Error
	if readErr != nil && !errors.Is(readErr, io.EOF) {
		result = multierror.Append(result, dataError(d.command, readErr))
	}

	if err := d.conn.Close(); err != nil {
		d.s.logger.Debug("closing data connection", "command", d.command, "error", err)
	}

	// reply is already set when the server completed the transfer
	// without a preliminary reply
	if d.reply == nil {
		resp, err := d.s.ctrl.await(d.command)
		d.reply = resp
		var protoErr *ProtocolError
		switch {
		case err == nil:
		case aborted && errors.As(err, &protoErr):
			d.s.logger.Debug("transfer aborted", "command", d.command, "code", protoErr.Code())
		default:
			result = multierror.Append(result, err)
		}
	}

	d.s.logger.Debug("transfer finished", "command", d.command, "bytes", d.received)

	d.err = flatten(result)
	if d.err == nil {
		d.err = io.EOF
	}
	return d.err
}

// abandon closes the data connection without reading the reply.
func (d *Download) abandon() {
	d.done = true
	d.err = ErrSessionClosed
	d.s.transfer = nil
	_ = d.conn.Close()
}
