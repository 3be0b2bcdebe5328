package ftpc

import (
	"net"
	"strings"
	"testing"
	"time"
)

func TestDial_InvalidOptions(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		opt  Option
		want string
	}{
		{"negative timeout", WithTimeout(-time.Second), "negative timeout"},
		{"negative data timeout", WithDataTimeout(-time.Second), "negative data timeout"},
		{"nil logger", WithLogger(nil), "nil logger"},
		{"nil dialer", WithDialer(nil), "nil dialer"},
		{"bad probe", WithProbeAddr("8.8.8.8"), "invalid probe address"},
		{"bad active port", WithActivePort(70000), "invalid active port"},
		{"nil parser", WithListingParser(nil), "nil listing parser"},
		{"zero buffer", WithBufferSize(0), "invalid buffer size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// options are applied before dialing, so no server is needed
			_, err := Dial("127.0.0.1:1", tt.opt)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Dial() error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestDial_InvalidAddress(t *testing.T) {
	t.Parallel()
	if _, err := Dial("no-port"); err == nil || !strings.Contains(err.Error(), "invalid address") {
		t.Errorf("Dial() error = %v", err)
	}
}

func TestOptions_Defaults(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.start()
	defer ms.stop()

	s, err := Dial(ms.addr)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Quit() }()

	if s.timeout != 60*time.Second || s.dataTimeout != 15*time.Second {
		t.Errorf("timeouts = %v/%v", s.timeout, s.dataTimeout)
	}
	if !s.Passive() || s.probeAddr != "8.8.8.8:80" || s.bufferSize != 1<<20 {
		t.Errorf("defaults: passive=%v probe=%q buffer=%d", s.Passive(), s.probeAddr, s.bufferSize)
	}
	if s.limiter != nil {
		t.Error("limiter set without WithBandwidthLimit")
	}
}

func TestWithDialer_KeepsDialTimeout(t *testing.T) {
	t.Parallel()
	ms := newMockServer(t)
	ms.start()
	defer ms.stop()

	custom := &net.Dialer{Timeout: 3 * time.Second}
	s, err := Dial(ms.addr, WithTimeout(time.Second), WithDialer(custom))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s.Quit() }()

	if s.dialer != custom || custom.Timeout != 3*time.Second {
		t.Errorf("dialer timeout = %v, want 3s", custom.Timeout)
	}

	other := newMockServer(t)
	other.start()
	defer other.stop()

	plain := &net.Dialer{}
	s2, err := Dial(other.addr, WithTimeout(time.Second), WithDialer(plain))
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s2.Quit() }()

	if plain.Timeout != time.Second {
		t.Errorf("dialer timeout = %v, want the control timeout", plain.Timeout)
	}
}
