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

func getCommand() cli.Command {
	return cli.Command{
		Name:      "get",
		Usage:     "download one file",
		ArgsUsage: "<remote path> [<local path>]",
		Action: func(c *cli.Context) error {
			if c.NArg() < 1 || c.NArg() > 2 {
				return errors.New("usage: ftpc get <remote path> [<local path>]")
			}
			s, err := loadSettings(c)
			if err != nil {
				return err
			}

			remote := c.Args().Get(0)
			local := c.Args().Get(1)
			if local == "" {
				local = filepath.Join(s.cfg.DownloadDir, path.Base(remote))
			}

			session, err := s.connect()
			if err != nil {
				return err
			}
			defer session.Quit()

			return download(session, remote, local, os.Stdout)
		},
	}
}

// download streams remote into local.part and renames it once the server
// confirmed the transfer.
func download(session *ftpc.Session, remote, local string, out io.Writer) error {
	start := time.Now()

	dl, err := session.GetFile(remote)
	if err != nil {
		return err
	}

	partial := local + ".part"
	f, err := os.Create(partial)
	if err != nil {
		dl.Close()
		return err
	}

	var bar *pb.ProgressBar
	if shell.IsTerminal(os.Stderr) {
		bar = pb.New64(max(dl.Size(), 0)).Postfix(" " + path.Base(remote))
		bar.Units = pb.U_BYTES
		bar.Output = os.Stderr
		bar.Start()
		dl.OnProgress(func(transferred, _ int64) {
			bar.Set64(transferred)
		})
	}

	n, err := dl.WriteTo(f)
	if bar != nil {
		bar.Finish()
	}
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		return err
	}
	if err := os.Rename(partial, local); err != nil {
		return err
	}

	fmt.Fprintln(out, shell.Summary(n, "received", time.Since(start)))
	return nil
}
