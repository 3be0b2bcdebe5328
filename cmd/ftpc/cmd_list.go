package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli"

	"github.com/gonzalop/ftpc"
)

func listCommand() cli.Command {
	return cli.Command{
		Name:      "ls",
		Usage:     "list a remote directory",
		ArgsUsage: "[<path>]",
		Flags: []cli.Flag{
			cli.BoolFlag{
				Name:  "l",
				Usage: "print the raw LIST output",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 1 {
				return errors.New("usage: ftpc ls [-l] [<path>]")
			}
			s, err := loadSettings(c)
			if err != nil {
				return err
			}

			session, err := s.connect()
			if err != nil {
				return err
			}
			defer session.Quit()

			return list(session, c.Args().Get(0), c.Bool("l"), os.Stdout)
		},
	}
}

// list prints the entry names of dir, or the raw LIST output when long is set.
func list(session *ftpc.Session, dir string, long bool, out io.Writer) error {
	if long {
		raw, err := session.ListRaw(dir)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, raw)
		return err
	}

	entries, err := session.List(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		fmt.Fprintln(out, e.Name)
	}
	return nil
}
