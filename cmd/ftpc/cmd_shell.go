package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"

	"github.com/gonzalop/ftpc"
	"github.com/gonzalop/ftpc/internal/shell"
)

var readPassword = shell.ReadPassword

func runShell(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return err
	}
	if err := s.password(); err != nil {
		return err
	}

	sh := shell.New(shell.Options{
		Dial: func(echo ftpc.EchoFunc) (shell.Remote, error) {
			session, err := ftpc.Dial(s.addr(), s.options(echo)...)
			if err != nil {
				return nil, err
			}
			return shell.Wrap(session), nil
		},
		User:         s.cfg.User,
		Password:     s.cfg.Password,
		Passive:      s.cfg.Passive,
		DownloadDir:  s.cfg.DownloadDir,
		Out:          os.Stdout,
		Progress:     shell.IsTerminal(os.Stdout),
		ReadPassword: readPassword,
		Logger:       s.logger(),
	})

	if err := sh.Connect(); err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer sh.Close()

	sh.Run()
	return nil
}

func shellCommand() cli.Command {
	return cli.Command{
		Name:   "shell",
		Usage:  "interactive session (the default)",
		Action: runShell,
	}
}
