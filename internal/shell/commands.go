package shell

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gonzalop/ftpc"
)

type command struct {
	name    string
	summary string
	usage   string

	// remote commands need a live session
	remote bool

	run func(sh *Shell, args []string) error
}

func commandTable() map[string]*command {
	list := []*command{
		{
			name:    "get",
			summary: "Receive file from the server",
			usage:   "get [-r] <path> [<local dir>]",
			remote:  true,
			run:     (*Shell).get,
		},
		{
			name:    "put",
			summary: "Send file to the server",
			usage:   "put <local path> [<remote dir>]",
			remote:  true,
			run:     (*Shell).put,
		},
		{
			name:    "user",
			summary: "Log in as another user",
			usage:   "user <username> [<password>]",
			remote:  true,
			run:     (*Shell).login,
		},
		{
			name:    "pwd",
			summary: "Print current directory on remote machine",
			usage:   "pwd",
			remote:  true,
			run:     (*Shell).pwd,
		},
		{
			name:    "rm",
			summary: "Remove file on the remote machine (-r: remove directory)",
			usage:   "rm [-r] <path>",
			remote:  true,
			run:     (*Shell).remove,
		},
		{
			name:    "ren",
			summary: "Rename file",
			usage:   "ren <from> <to>",
			remote:  true,
			run:     (*Shell).rename,
		},
		{
			name:    "cd",
			summary: "Change remote working directory",
			usage:   "cd <path>",
			remote:  true,
			run:     (*Shell).cd,
		},
		{
			name:    "mkdir",
			summary: "Make directory on the remote machine",
			usage:   "mkdir <directory name>",
			remote:  true,
			run:     (*Shell).mkdir,
		},
		{
			name:    "ls",
			summary: "Show content of remote directory (-l: as a table)",
			usage:   "ls [-l] [<path>]",
			remote:  true,
			run:     (*Shell).ls,
		},
		{
			name:    "size",
			summary: "Show size of remote file",
			usage:   "size <file name>",
			remote:  true,
			run:     (*Shell).size,
		},
		{
			name:    "type",
			summary: "Set representation type (a: ASCII, i: binary)",
			usage:   "type a|i",
			remote:  true,
			run:     (*Shell).setType,
		},
		{
			name:    "debug",
			summary: "Toggle echo of sent commands",
			usage:   "debug",
			run:     (*Shell).toggleDebug,
		},
		{
			name:    "mode",
			summary: "Toggle passive and active transfer mode",
			usage:   "mode",
			run:     (*Shell).toggleMode,
		},
		{
			name:    "help",
			summary: "Print help for a command, or list all commands",
			usage:   "help [<command>]",
			run:     (*Shell).help,
		},
		{
			name:    "exit",
			summary: "Terminate ftp session and exit",
			usage:   "exit",
			run:     (*Shell).exit,
		},
	}

	table := make(map[string]*command, len(list))
	for _, c := range list {
		table[c.name] = c
	}
	return table
}

func (sh *Shell) get(args []string) error {
	if len(args) == 0 || (args[0] == "-r" && len(args) == 1) || len(args) > 3 {
		return errUsage
	}
	if args[0] == "-r" {
		return errors.New("recursive transfers are not supported")
	}

	remotePath := strings.TrimRight(args[0], "/")
	dir := sh.downloadDir
	if len(args) > 1 {
		dir = args[1]
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return fmt.Errorf("%q is not a directory", dir)
	}

	target := filepath.Join(dir, path.Base(remotePath))
	return sh.download(remotePath, target)
}

// download writes the remote file to target.part and renames it once the
// server confirmed the transfer.
func (sh *Shell) download(remotePath, target string) error {
	start := sh.now()

	dl, err := sh.remote.Fetch(remotePath)
	if err != nil {
		return err
	}

	partial := target + ".part"
	f, err := os.Create(partial)
	if err != nil {
		dl.Close()
		return err
	}

	bar := sh.newBar(dl.Size())
	if bar != nil {
		dl.OnProgress(func(transferred, _ int64) {
			bar.Set64(transferred)
		})
	}

	n, err := dl.WriteTo(f)
	bar.finish()
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(partial)
		return err
	}

	if err := os.Rename(partial, target); err != nil {
		return err
	}

	sh.printf("%s", Summary(n, "received", sh.now().Sub(start)))
	return nil
}

func (sh *Shell) put(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}

	dir := "."
	if len(args) > 1 {
		dir = strings.TrimRight(args[1], "/")
	}
	target := path.Join(dir, filepath.Base(args[0]))

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("can't open file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	start := sh.now()
	bar := sh.newBar(info.Size())
	src := &ftpc.ProgressReader{
		Reader: f,
		Total:  info.Size(),
		Callback: func(transferred, _ int64) {
			if bar != nil {
				bar.Set64(transferred)
			}
		},
	}

	err = sh.remote.Store(target, src)
	bar.finish()
	if err != nil {
		return err
	}

	sh.printf("%s", Summary(info.Size(), "sent", sh.now().Sub(start)))
	return nil
}

func (sh *Shell) login(args []string) error {
	if len(args) == 0 || len(args) > 2 {
		return errUsage
	}

	user := args[0]
	var password string
	if len(args) > 1 {
		password = args[1]
	} else {
		if sh.readPassword == nil {
			return errUsage
		}
		p, err := sh.readPassword("Enter password: ")
		if err != nil {
			sh.printf("Login failed")
			return nil
		}
		password = p
	}

	if err := sh.remote.Login(user, password); err != nil {
		return err
	}
	sh.user, sh.password = user, password
	sh.cwd = ""
	return nil
}

func (sh *Shell) pwd(args []string) error {
	if len(args) != 0 {
		return errUsage
	}
	dir, err := sh.remote.CurrentDir()
	if err != nil {
		return err
	}
	sh.printf("%s", dir)
	return nil
}

func (sh *Shell) remove(args []string) error {
	switch {
	case len(args) == 1 && args[0] != "-r":
		return sh.remote.Delete(args[0])
	case len(args) == 2 && args[0] == "-r":
		return sh.remote.RemoveDir(args[1])
	default:
		return errUsage
	}
}

func (sh *Shell) rename(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	return sh.remote.Rename(args[0], args[1])
}

func (sh *Shell) cd(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := sh.remote.ChangeDir(args[0]); err != nil {
		return err
	}
	sh.changedDir(args[0])
	return nil
}

func (sh *Shell) mkdir(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	return sh.remote.MakeDir(args[0])
}

func (sh *Shell) ls(args []string) error {
	long := len(args) > 0 && args[0] == "-l"
	if long {
		args = args[1:]
	}
	if len(args) > 1 {
		return errUsage
	}

	var dir string
	if len(args) == 1 {
		dir = args[0]
	}

	entries, err := sh.remote.List(dir)
	if err != nil {
		return err
	}

	if long {
		return sh.renderTable(entries)
	}
	for _, e := range entries {
		sh.printf("%s", e.Name)
	}
	return nil
}

func (sh *Shell) size(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	msg, err := sh.remote.SizeRaw(args[0])
	if err != nil {
		return err
	}
	sh.printf("%s", msg)
	return nil
}

func (sh *Shell) setType(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	switch strings.ToLower(args[0]) {
	case "a":
		return sh.remote.SwitchMode(ftpc.TypeASCII)
	case "i":
		return sh.remote.SwitchMode(ftpc.TypeBinary)
	default:
		return errUsage
	}
}

func (sh *Shell) toggleDebug(args []string) error {
	sh.debug = !sh.debug
	if sh.remote != nil {
		sh.remote.SetEcho(sh.debug, true)
	}
	if sh.debug {
		sh.printf("Debug is on")
	} else {
		sh.printf("Debug is off")
	}
	return nil
}

func (sh *Shell) toggleMode(args []string) error {
	sh.passive = !sh.passive
	if sh.remote != nil {
		sh.remote.SetPassive(sh.passive)
	}
	if sh.passive {
		sh.printf("Passive mode is on")
	} else {
		sh.printf("Active mode is on")
	}
	return nil
}

func (sh *Shell) help(args []string) error {
	if len(args) == 0 {
		sh.printf("Commands:")
		sh.printf("    %s", strings.Join(sh.commandNames(), "    "))
		return nil
	}

	cmd, ok := sh.commands[args[0]]
	if !ok {
		sh.printf("Unknown command %q", args[0])
		return nil
	}
	sh.printf("usage: %s", cmd.usage)
	sh.printf("%s", cmd.summary)
	return nil
}

func (sh *Shell) exit(args []string) error {
	var err error
	if sh.remote != nil {
		err = sh.remote.Quit()
	}
	sh.exited = true
	if err != nil && ftpc.Classify(err) != ftpc.OutcomeClosed {
		sh.report(err)
	}
	return errExit
}
