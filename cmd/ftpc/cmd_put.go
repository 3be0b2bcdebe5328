package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/urfave/cli"

	"github.com/gonzalop/ftpc"
	"github.com/gonzalop/ftpc/internal/shell"
)

func putCommand() cli.Command {
	return cli.Command{
		Name:      "put",
		Usage:     "upload one file",
		ArgsUsage: "<local path> [<remote dir>]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 || c.NArg() > 2 {
				return errors.New("usage: ftpc put <local path> [<remote dir>]")
			}
			s, err := loadSettings(c)
			if err != nil {
				return err
			}

			local := c.Args().Get(0)
			dir := c.Args().Get(1)
			if dir == "" {
				dir = "."
			}

			session, err := s.connect()
			if err != nil {
				return err
			}
			defer session.Quit()

			return upload(session, local, path.Join(dir, filepath.Base(local)), os.Stdout)
		},
	}
}

// upload stores the local file at remote.
func upload(session *ftpc.Session, local, remote string, out io.Writer) error {
	f, err := os.Open(local)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	r := &ftpc.ProgressReader{Reader: f, Total: info.Size()}
	var bar *pb.ProgressBar
	if shell.IsTerminal(os.Stderr) {
		bar = pb.New64(info.Size()).Postfix(" " + filepath.Base(local))
		bar.Units = pb.U_BYTES
		bar.Output = os.Stderr
		bar.Start()
		r.Callback = func(transferred, _ int64) {
			bar.Set64(transferred)
		}
	}

	start := time.Now()
	err = session.Store(remote, r)
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, shell.Summary(info.Size(), "sent", time.Since(start)))
	return nil
}
