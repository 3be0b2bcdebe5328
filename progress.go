package ftpc

import "io"

// ProgressFunc receives the bytes transferred so far and the expected
// total, or -1 when the total is unknown.
type ProgressFunc func(transferred, total int64)

// ProgressReader wraps an io.Reader and reports progress via a callback.
// Wrap the source passed to Store to follow an upload.
type ProgressReader struct {
	// Reader is the underlying reader
	Reader io.Reader

	// Total is the expected number of bytes, or -1 if unknown
	Total int64

	// Callback is called after each Read that returned data
	Callback ProgressFunc

	transferred int64
}

// Read implements io.Reader.
func (pr *ProgressReader) Read(p []byte) (int, error) {
	n, err := pr.Reader.Read(p)
	if n > 0 {
		pr.transferred += int64(n)
		if pr.Callback != nil {
			pr.Callback(pr.transferred, pr.Total)
		}
	}
	return n, err
}

// ProgressWriter wraps an io.Writer and reports progress via a callback.
// It is the Retrieve counterpart of Download.OnProgress.
type ProgressWriter struct {
	// Writer is the underlying writer
	Writer io.Writer

	// Total is the expected number of bytes, or -1 if unknown
	Total int64

	// Callback is called after each Write that stored data
	Callback ProgressFunc

	transferred int64
}

// Write implements io.Writer.
func (pw *ProgressWriter) Write(p []byte) (int, error) {
	n, err := pw.Writer.Write(p)
	if n > 0 {
		pw.transferred += int64(n)
		if pw.Callback != nil {
			pw.Callback(pw.transferred, pw.Total)
		}
	}
	return n, err
}
