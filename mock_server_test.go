package ftpc

import (
	"fmt"
	"io"
	"net"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"golang.org/x/net/nettest"
)

// mockServer provides a simple way to script server responses
type mockServer struct {
	t        *testing.T
	listener net.Listener
	addr     string

	// greeting is sent when the client connects
	greeting string

	// handlers override the default reply for a command
	handlers map[string]func(conn *textproto.Conn, args string)

	// dataListener is used for passive mode
	dataListener net.Listener

	// activeAddr is the endpoint announced by the last PORT command
	activeAddr string

	mu       sync.Mutex
	received []string
	uploaded []byte

	done chan struct{}
}

func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	l, err := nettest.NewLocalListener("tcp")
	if err != nil {
		t.Fatal(err)
	}
	return &mockServer{
		t:        t,
		listener: l,
		addr:     l.Addr().String(),
		greeting: "220 Service ready",
		handlers: make(map[string]func(*textproto.Conn, string)),
		done:     make(chan struct{}),
	}
}

func (s *mockServer) start() {
	go func() {
		defer close(s.done)
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		textConn := textproto.NewConn(conn)
		defer textConn.Close()

		fmt.Fprintf(conn, "%s\r\n", s.greeting)

		for {
			line, err := textConn.ReadLine()
			if err != nil {
				return
			}

			parts := strings.SplitN(line, " ", 2)
			cmd := strings.ToUpper(parts[0])
			args := ""
			if len(parts) > 1 {
				args = parts[1]
			}

			s.mu.Lock()
			s.received = append(s.received, line)
			s.mu.Unlock()

			if handler, ok := s.handlers[cmd]; ok {
				handler(textConn, args)
				continue
			}

			switch cmd {
			case "USER":
				_ = textConn.PrintfLine("331 User name okay, need password.")
			case "PASS":
				_ = textConn.PrintfLine("230 User logged in, proceed.")
			case "QUIT":
				_ = textConn.PrintfLine("221 Service closing control connection.")
				return
			case "TYPE":
				_ = textConn.PrintfLine("200 Type set to %s.", args)
			case "PORT":
				s.activeAddr, err = parsePORTArg(args)
				if err != nil {
					_ = textConn.PrintfLine("501 %v", err)
					continue
				}
				_ = textConn.PrintfLine("200 PORT command successful.")
			default:
				_ = textConn.PrintfLine("502 Command not implemented.")
			}
		}
	}()
}

func (s *mockServer) stop() {
	s.listener.Close()
	if s.dataListener != nil {
		s.dataListener.Close()
	}
	<-s.done
}

// lines returns the command lines received so far.
func (s *mockServer) lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.received...)
}

// commands returns the names of the commands received so far.
func (s *mockServer) commands() []string {
	var cmds []string
	for _, line := range s.lines() {
		cmds = append(cmds, strings.ToUpper(strings.SplitN(line, " ", 2)[0]))
	}
	return cmds
}

// enablePassive opens a data listener and answers PASV with its address.
func (s *mockServer) enablePassive() {
	l, err := nettest.NewLocalListener("tcp4")
	if err != nil {
		s.t.Fatal(err)
	}
	s.dataListener = l

	addr := l.Addr().(*net.TCPAddr)
	ip := addr.IP.To4()
	reply := fmt.Sprintf("227 Entering Passive Mode (%d,%d,%d,%d,%d,%d).",
		ip[0], ip[1], ip[2], ip[3], addr.Port/256, addr.Port%256)

	s.handlers["PASV"] = func(c *textproto.Conn, args string) {
		_ = c.PrintfLine("%s", reply)
	}
}

// openData returns the data connection for the current transfer, accepting
// it in passive mode or dialing the PORT address in active mode.
func (s *mockServer) openData() (net.Conn, error) {
	if s.activeAddr != "" {
		addr := s.activeAddr
		s.activeAddr = ""
		return net.DialTimeout("tcp", addr, 2*time.Second)
	}
	return s.dataListener.Accept()
}

// sendData answers a RETR or LIST: it writes the chunks on the data
// connection, pausing between them, and then completes the transfer.
func (s *mockServer) sendData(c *textproto.Conn, chunks [][]byte, delay time.Duration) {
	_ = c.PrintfLine("150 Opening BINARY mode data connection.")
	dconn, err := s.openData()
	if err != nil {
		s.t.Errorf("mock server failed to open data conn: %v", err)
		return
	}
	for i, chunk := range chunks {
		if i > 0 && delay > 0 {
			time.Sleep(delay)
		}
		if _, err := dconn.Write(chunk); err != nil {
			s.t.Errorf("mock server data write: %v", err)
			break
		}
	}
	dconn.Close()
	_ = c.PrintfLine("226 Transfer complete.")
}

// receiveData answers a STOR by reading the data connection to EOF.
func (s *mockServer) receiveData(c *textproto.Conn) {
	_ = c.PrintfLine("150 Ok to send data.")
	dconn, err := s.openData()
	if err != nil {
		s.t.Errorf("mock server failed to open data conn: %v", err)
		return
	}
	data, err := io.ReadAll(dconn)
	dconn.Close()
	if err != nil {
		_ = c.PrintfLine("426 Connection closed; transfer aborted.")
		return
	}

	s.mu.Lock()
	s.uploaded = data
	s.mu.Unlock()
	_ = c.PrintfLine("226 Transfer complete.")
}

func (s *mockServer) uploadedData() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploaded
}

// parsePORTArg converts "h1,h2,h3,h4,p1,p2" into host:port.
func parsePORTArg(arg string) (string, error) {
	var h [4]int
	var p1, p2 int
	if _, err := fmt.Sscanf(arg, "%d,%d,%d,%d,%d,%d", &h[0], &h[1], &h[2], &h[3], &p1, &p2); err != nil {
		return "", fmt.Errorf("bad PORT argument %q", arg)
	}
	host := fmt.Sprintf("%d.%d.%d.%d", h[0], h[1], h[2], h[3])
	return net.JoinHostPort(host, fmt.Sprint(p1*256+p2)), nil
}

// dialMock connects and logs in to a started mock server.
func dialMock(t *testing.T, ms *mockServer, opts ...Option) *Session {
	t.Helper()
	opts = append([]Option{WithTimeout(2 * time.Second), WithDataTimeout(2 * time.Second)}, opts...)
	s, err := Dial(ms.addr, opts...)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Login("anonymous", "anonymous@"); err != nil {
		t.Fatal(err)
	}
	return s
}
