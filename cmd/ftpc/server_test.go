package main

import (
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"time"

	qt "github.com/frankban/quicktest"
	"golang.org/x/net/nettest"

	"github.com/gonzalop/ftpc/internal/config"
)

// testServer is a small FTP server with an in-memory file table. It serves
// one control connection and passive data connections. Like many real
// servers it refuses SIZE in ASCII mode.
type testServer struct {
	ctrl net.Listener
	data net.Listener

	mu       sync.Mutex
	files    map[string][]byte
	listing  string
	received []string

	done chan struct{}
}

func newTestServer(c *qt.C) *testServer {
	ctrl, err := nettest.NewLocalListener("tcp4")
	c.Assert(err, qt.IsNil)
	data, err := nettest.NewLocalListener("tcp4")
	c.Assert(err, qt.IsNil)

	ts := &testServer{
		ctrl:  ctrl,
		data:  data,
		files: make(map[string][]byte),
		done:  make(chan struct{}),
	}
	go ts.serve()
	c.Cleanup(func() {
		ctrl.Close()
		data.Close()
		<-ts.done
	})
	return ts
}

// settings returns client settings pointing at the server.
func (ts *testServer) settings() *settings {
	addr := ts.ctrl.Addr().(*net.TCPAddr)
	cfg := config.Default()
	cfg.Port = addr.Port
	cfg.Timeout = config.Duration(2 * time.Second)
	cfg.DataTimeout = config.Duration(2 * time.Second)
	return &settings{host: addr.IP.String(), cfg: cfg}
}

func (ts *testServer) lines() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return append([]string(nil), ts.received...)
}

func (ts *testServer) put(name string, data []byte) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.files[name] = data
}

func (ts *testServer) setListing(listing string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.listing = listing
}

func (ts *testServer) file(name string) []byte {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.files[name]
}

func (ts *testServer) serve() {
	defer close(ts.done)
	conn, err := ts.ctrl.Accept()
	if err != nil {
		return
	}
	defer conn.Close()

	tc := textproto.NewConn(conn)
	_ = tc.PrintfLine("220 test server ready")

	binary := false
	for {
		line, err := tc.ReadLine()
		if err != nil {
			return
		}
		ts.mu.Lock()
		ts.received = append(ts.received, line)
		ts.mu.Unlock()

		cmd, arg, _ := strings.Cut(line, " ")
		switch strings.ToUpper(cmd) {
		case "USER":
			_ = tc.PrintfLine("331 Password required")
		case "PASS":
			_ = tc.PrintfLine("230 Logged in")
		case "TYPE":
			binary = arg == "I"
			_ = tc.PrintfLine("200 Type set to %s", arg)
		case "SIZE":
			data, ok := ts.lookup(arg)
			switch {
			case !binary:
				_ = tc.PrintfLine("550 SIZE not allowed in ASCII mode")
			case !ok:
				_ = tc.PrintfLine("550 No such file")
			default:
				_ = tc.PrintfLine("213 %d", len(data))
			}
		case "PASV":
			addr := ts.data.Addr().(*net.TCPAddr)
			ip := strings.ReplaceAll(addr.IP.To4().String(), ".", ",")
			_ = tc.PrintfLine("227 Entering Passive Mode (%s,%d,%d)", ip, addr.Port/256, addr.Port%256)
		case "RETR":
			data, ok := ts.lookup(arg)
			if !ok {
				_ = tc.PrintfLine("550 No such file")
				continue
			}
			ts.send(tc, data)
		case "LIST":
			ts.mu.Lock()
			listing := ts.listing
			ts.mu.Unlock()
			ts.send(tc, []byte(listing))
		case "STOR":
			_ = tc.PrintfLine("150 Ok to send data")
			dconn, err := ts.data.Accept()
			if err != nil {
				return
			}
			data, _ := io.ReadAll(dconn)
			dconn.Close()
			ts.put(arg, data)
			_ = tc.PrintfLine("226 Transfer complete")
		case "QUIT":
			_ = tc.PrintfLine("221 Goodbye")
			return
		default:
			_ = tc.PrintfLine("502 Command not implemented")
		}
	}
}

func (ts *testServer) lookup(name string) ([]byte, bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	data, ok := ts.files[name]
	return data, ok
}

func (ts *testServer) send(tc *textproto.Conn, data []byte) {
	_ = tc.PrintfLine("150 Opening data connection (%d bytes)", len(data))
	dconn, err := ts.data.Accept()
	if err != nil {
		return
	}
	_, _ = dconn.Write(data)
	dconn.Close()
	_ = tc.PrintfLine("226 Transfer complete")
}
