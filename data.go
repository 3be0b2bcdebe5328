package ftpc

import (
	"fmt"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// pasvRegex matches the address of a PASV reply: (h1,h2,h3,h4,p1,p2)
var pasvRegex = regexp.MustCompile(`\((\d+,\d+,\d+,\d+),(\d+),(\d+)\)`)

// defaultProbeAddr is dialed over UDP to learn which local interface
// routes outwards. No datagram is ever sent to it.
const defaultProbeAddr = "8.8.8.8:80"

// parsePASV parses the message of a PASV reply and returns host:port.
// Example: "Entering Passive Mode (192,168,1,1,1,4)" returns "192.168.1.1:260".
func parsePASV(message string) (string, error) {
	m := pasvRegex.FindStringSubmatch(message)
	if m == nil {
		return "", &MalformedReplyError{Command: "PASV", Reply: message, Reason: "no (h1,h2,h3,h4,p1,p2) address"}
	}

	var octets [4]int
	for i, part := range strings.Split(m[1], ",") {
		v, err := strconv.Atoi(part)
		if err != nil || v > 255 {
			return "", &MalformedReplyError{Command: "PASV", Reply: message, Reason: "invalid address octet " + part}
		}
		octets[i] = v
	}
	host := fmt.Sprintf("%d.%d.%d.%d", octets[0], octets[1], octets[2], octets[3])

	p1, err1 := strconv.Atoi(m[2])
	p2, err2 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || p1 > 255 || p2 > 255 {
		return "", &MalformedReplyError{Command: "PASV", Reply: message, Reason: "invalid port bytes"}
	}

	return net.JoinHostPort(host, strconv.Itoa(256*p1+p2)), nil
}

// resolveDataAddr replaces an unspecified PASV host (0.0.0.0) with the
// host of the control connection.
func resolveDataAddr(pasvAddr, controlHost string) string {
	host, port, err := net.SplitHostPort(pasvAddr)
	if err != nil {
		return pasvAddr
	}
	if host == "0.0.0.0" {
		return net.JoinHostPort(controlHost, port)
	}
	return pasvAddr
}

// formatPORT formats an endpoint as the PORT argument.
// 10.0.0.5 port 5000 becomes "10,0,0,5,19,136".
func formatPORT(ip net.IP, port int) (string, error) {
	ip4 := ip.To4()
	if ip4 == nil {
		return "", fmt.Errorf("ftp: PORT requires an IPv4 address, got %s", ip)
	}
	if port < 0 || port > 65535 {
		return "", fmt.Errorf("ftp: invalid port %d", port)
	}
	return fmt.Sprintf("%d,%d,%d,%d,%d,%d", ip4[0], ip4[1], ip4[2], ip4[3], port/256, port%256), nil
}

// localOutboundIP returns the address of the interface used to reach probeAddr.
// Dialing UDP only selects a route; nothing is sent.
func localOutboundIP(probeAddr string) (net.IP, error) {
	conn, err := net.Dial("udp4", probeAddr)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	addr, ok := conn.LocalAddr().(*net.UDPAddr)
	if !ok {
		return nil, fmt.Errorf("unexpected local address %v", conn.LocalAddr())
	}
	return addr.IP, nil
}

// openDataConn negotiates and opens the data connection for one transfer.
// The connection is only created after PASV/PORT has been accepted.
func (s *Session) openDataConn() (io.ReadWriteCloser, error) {
	if s.passive {
		return s.openPassiveDataConn()
	}
	return s.openActiveDataConn()
}

// openPassiveDataConn sends PASV and connects to the advertised endpoint.
func (s *Session) openPassiveDataConn() (io.ReadWriteCloser, error) {
	resp, err := s.ctrl.exchange("PASV")
	if err != nil {
		return nil, err
	}

	addr, err := parsePASV(resp.Message)
	if err != nil {
		return nil, err
	}
	addr = resolveDataAddr(addr, s.host)

	s.logger.Debug("opening passive data connection", "addr", addr)
	conn, err := s.dialer.Dial("tcp", addr)
	if err != nil {
		return nil, dataError("connect "+addr, err)
	}

	return &deadlineConn{Conn: conn, timeout: s.dataTimeout}, nil
}

// openActiveDataConn listens on the outbound interface and sends PORT.
// The server connection is accepted on first Read or Write.
func (s *Session) openActiveDataConn() (io.ReadWriteCloser, error) {
	ip, err := localOutboundIP(s.probeAddr)
	if err != nil {
		return nil, fmt.Errorf("ftp: discover local address: %w", err)
	}

	// net.Listen uses the system's maximum backlog
	listener, err := net.Listen("tcp4", net.JoinHostPort(ip.String(), strconv.Itoa(s.activePort)))
	if err != nil {
		return nil, fmt.Errorf("ftp: listen for data connection: %w", err)
	}

	port := listener.Addr().(*net.TCPAddr).Port
	arg, err := formatPORT(ip, port)
	if err != nil {
		listener.Close()
		return nil, err
	}

	s.logger.Debug("waiting for active data connection", "addr", listener.Addr().String())
	if _, err := s.ctrl.exchange("PORT", arg); err != nil {
		listener.Close()
		return nil, err
	}

	return &activeDataConn{
		listener: listener,
		timeout:  s.dataTimeout,
	}, nil
}

// deadlineConn wraps a passive data connection and refreshes the data
// timeout before every Read and Write.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(b []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Read(b)
}

func (c *deadlineConn) Write(b []byte) (int, error) {
	if c.timeout > 0 {
		if err := c.Conn.SetWriteDeadline(time.Now().Add(c.timeout)); err != nil {
			return 0, err
		}
	}
	return c.Conn.Write(b)
}

// activeDataConn wraps the listener of an active mode transfer.
type activeDataConn struct {
	listener net.Listener
	conn     net.Conn
	timeout  time.Duration
}

func (a *activeDataConn) accept() error {
	if a.timeout > 0 {
		if l, ok := a.listener.(*net.TCPListener); ok {
			_ = l.SetDeadline(time.Now().Add(a.timeout))
		}
	}
	c, err := a.listener.Accept()
	if err != nil {
		return err
	}
	a.conn = c
	return nil
}

func (a *activeDataConn) Read(p []byte) (int, error) {
	if a.conn == nil {
		if err := a.accept(); err != nil {
			return 0, err
		}
	}
	if a.timeout > 0 {
		_ = a.conn.SetReadDeadline(time.Now().Add(a.timeout))
	}
	return a.conn.Read(p)
}

func (a *activeDataConn) Write(p []byte) (int, error) {
	if a.conn == nil {
		if err := a.accept(); err != nil {
			return 0, err
		}
	}
	if a.timeout > 0 {
		_ = a.conn.SetWriteDeadline(time.Now().Add(a.timeout))
	}
	return a.conn.Write(p)
}

// Close closes the accepted connection (if any) and the listener.
func (a *activeDataConn) Close() error {
	var err1, err2 error
	if a.conn != nil {
		err1 = a.conn.Close()
	}
	if a.listener != nil {
		err2 = a.listener.Close()
	}
	if err1 != nil {
		return err1
	}
	return err2
}

// dataError classifies an I/O error on a data connection.
func dataError(op string, err error) error {
	if isTimeout(err) {
		return &TimeoutError{Channel: "data", Op: op, Err: err}
	}
	return fmt.Errorf("ftp: data connection %s: %w", op, err)
}
