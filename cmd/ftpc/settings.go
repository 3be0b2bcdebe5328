package main

import (
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"

	"github.com/urfave/cli"

	"github.com/gonzalop/ftpc"
	"github.com/gonzalop/ftpc/internal/config"
)

func globalFlags() []cli.Flag {
	return []cli.Flag{
		cli.StringFlag{
			Name:   "host",
			Usage:  "server host name",
			EnvVar: "FTPC_HOST",
		},
		cli.IntFlag{
			Name:   "port, p",
			Value:  21,
			Usage:  "server port",
			EnvVar: "FTPC_PORT",
		},
		cli.StringFlag{
			Name:   "user, u",
			Usage:  "user name",
			EnvVar: "FTPC_USER",
		},
		cli.StringFlag{
			Name:   "password",
			Usage:  "password (prompted for when the user is given without one)",
			EnvVar: "FTPC_PASSWORD",
		},
		cli.StringFlag{
			Name:   "config",
			Value:  config.DefaultPath(),
			Usage:  "configuration file",
			EnvVar: "FTPC_CONFIG",
		},
		cli.BoolFlag{
			Name:   "active",
			Usage:  "use active mode (PORT) for data connections",
			EnvVar: "FTPC_ACTIVE",
		},
		cli.DurationFlag{
			Name:   "timeout",
			Usage:  "control channel timeout",
			EnvVar: "FTPC_TIMEOUT",
		},
		cli.DurationFlag{
			Name:   "data-timeout",
			Usage:  "data channel timeout",
			EnvVar: "FTPC_DATA_TIMEOUT",
		},
		cli.Int64Flag{
			Name:   "limit",
			Usage:  "bandwidth limit in bytes per second (0 for none)",
			EnvVar: "FTPC_LIMIT",
		},
		cli.StringFlag{
			Name:   "download-dir, d",
			Usage:  "local directory for downloads",
			EnvVar: "FTPC_DOWNLOAD_DIR",
		},
		cli.BoolFlag{
			Name:   "debug",
			Usage:  "log protocol activity to stderr",
			EnvVar: "FTPC_DEBUG",
		},
	}
}

// settings is the configuration file merged with the command line.
type settings struct {
	host  string
	cfg   config.Config
	limit int64
	debug bool
}

func loadSettings(c *cli.Context) (*settings, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, err
	}

	s := &settings{
		host:  c.GlobalString("host"),
		cfg:   cfg,
		limit: c.GlobalInt64("limit"),
		debug: c.GlobalBool("debug"),
	}
	if s.host == "" {
		return nil, errors.New("no host given (use --host or FTPC_HOST)")
	}

	if c.GlobalIsSet("port") {
		s.cfg.Port = c.GlobalInt("port")
	}
	if c.GlobalIsSet("user") {
		s.cfg.User = c.GlobalString("user")
		s.cfg.Password = ""
	}
	if c.GlobalIsSet("password") {
		s.cfg.Password = c.GlobalString("password")
	}
	if c.GlobalIsSet("active") {
		s.cfg.Passive = !c.GlobalBool("active")
	}
	if c.GlobalIsSet("timeout") {
		s.cfg.Timeout = config.Duration(c.GlobalDuration("timeout"))
	}
	if c.GlobalIsSet("data-timeout") {
		s.cfg.DataTimeout = config.Duration(c.GlobalDuration("data-timeout"))
	}
	if c.GlobalIsSet("download-dir") {
		s.cfg.DownloadDir = c.GlobalString("download-dir")
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *settings) addr() string {
	return net.JoinHostPort(s.host, strconv.Itoa(s.cfg.Port))
}

func (s *settings) logger() *slog.Logger {
	if !s.debug {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func (s *settings) options(echo ftpc.EchoFunc) []ftpc.Option {
	opts := []ftpc.Option{
		ftpc.WithTimeout(s.cfg.Timeout.Std()),
		ftpc.WithDataTimeout(s.cfg.DataTimeout.Std()),
		ftpc.WithLogger(s.logger()),
		ftpc.WithBandwidthLimit(s.limit),
	}
	if !s.cfg.Passive {
		opts = append(opts, ftpc.WithActiveMode())
	}
	if echo != nil {
		opts = append(opts, ftpc.WithEcho(echo))
	}
	return opts
}

// password asks for the password when a user was given without one.
func (s *settings) password() error {
	if s.cfg.Password != "" || s.cfg.User == "anonymous" {
		return nil
	}
	p, err := readPassword("Enter password: ")
	if err != nil {
		return err
	}
	s.cfg.Password = p
	return nil
}

// connect dials and logs in, for the one-shot commands.
func (s *settings) connect() (*ftpc.Session, error) {
	if err := s.password(); err != nil {
		return nil, err
	}

	session, err := ftpc.Dial(s.addr(), s.options(nil)...)
	if err != nil {
		return nil, err
	}
	if err := session.Login(s.cfg.User, s.cfg.Password); err != nil {
		session.Close()
		return nil, err
	}
	return session, nil
}
