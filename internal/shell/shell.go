// Package shell implements the interactive ftpc command loop on top of an
// FTP session.
package shell

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/c-bata/go-prompt"

	"github.com/gonzalop/ftpc"
)

var (
	errUsage = errors.New("wrong arguments")
	errExit  = errors.New("exit")
)

// Options configures a Shell.
type Options struct {
	// Dial opens a new connection. It is used for the first connection and
	// for every reconnect.
	Dial DialFunc

	User     string
	Password string

	// DownloadDir is where get stores files when no directory is given.
	DownloadDir string

	// Out receives all output. It defaults to io.Discard.
	Out io.Writer

	// Passive selects PASV data connections. The mode command toggles it
	// and every new connection gets the current value.
	Passive bool

	// Progress enables progress bars for transfers.
	Progress bool

	// ReadPassword asks for a password when user is given no password.
	ReadPassword func(prompt string) (string, error)

	Logger *slog.Logger
}

// Shell dispatches command lines to a Remote and renders the results.
type Shell struct {
	remote Remote
	dial   DialFunc

	user     string
	password string

	// cwd is the working directory relative to the login directory, as
	// changed through cd; it is restored after a reconnect
	cwd string

	passive bool

	downloadDir  string
	out          io.Writer
	progress     bool
	readPassword func(string) (string, error)
	logger       *slog.Logger

	debug  bool
	exited bool

	commands map[string]*command
	now      func() time.Time
}

// New returns a Shell that is not connected yet; call Connect.
func New(opts Options) *Shell {
	sh := &Shell{
		dial:         opts.Dial,
		user:         opts.User,
		password:     opts.Password,
		passive:      opts.Passive,
		downloadDir:  opts.DownloadDir,
		out:          opts.Out,
		progress:     opts.Progress,
		readPassword: opts.ReadPassword,
		logger:       opts.Logger,
		now:          time.Now,
	}
	if sh.downloadDir == "" {
		sh.downloadDir = "."
	}
	if sh.out == nil {
		sh.out = io.Discard
	}
	if sh.logger == nil {
		sh.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	sh.commands = commandTable()
	return sh
}

// Connect dials, applies the shell's transfer mode and echo settings and
// logs in.
func (sh *Shell) Connect() error {
	remote, err := sh.dial(sh.echo)
	if err != nil {
		return err
	}
	remote.SetPassive(sh.passive)
	remote.SetEcho(sh.debug, true)
	if err := remote.Login(sh.user, sh.password); err != nil {
		remote.Close()
		return err
	}
	sh.remote = remote
	return nil
}

// reconnect replaces a session the server or the network gave up on and
// returns to the directory the user was in.
func (sh *Shell) reconnect() error {
	sh.warnf("Connection lost, reconnecting...")
	if sh.remote != nil {
		sh.remote.Close()
		sh.remote = nil
	}

	if err := sh.Connect(); err != nil {
		return fmt.Errorf("reconnect failed: %w", err)
	}
	if sh.cwd != "" && sh.cwd != "." {
		if err := sh.remote.ChangeDir(sh.cwd); err != nil {
			return fmt.Errorf("restore directory %s: %w", sh.cwd, err)
		}
	}
	sh.logger.Info("reconnected", "user", sh.user, "dir", sh.cwd)
	return nil
}

// Exited reports whether the exit command ran.
func (sh *Shell) Exited() bool {
	return sh.exited
}

// Close ends the session unless exit already did.
func (sh *Shell) Close() error {
	if sh.exited || sh.remote == nil {
		return nil
	}
	sh.exited = true
	return sh.remote.Quit()
}

// Execute runs one command line.
func (sh *Shell) Execute(line string) {
	line = strings.TrimSpace(line)
	if line == "" || sh.exited {
		return
	}

	args, err := shlex.Split(line, true)
	if err != nil {
		sh.errorf("%v", err)
		return
	}
	if len(args) == 0 {
		return
	}

	cmd, ok := sh.commands[args[0]]
	if !ok {
		sh.printf("Unknown command. Use \"help\"")
		return
	}

	if sh.remote == nil && cmd.remote {
		if err := sh.reconnect(); err != nil {
			sh.errorf("%v", err)
			return
		}
	}

	err = cmd.run(sh, args[1:])
	switch {
	case err == nil, errors.Is(err, errExit):
		return
	case errors.Is(err, errUsage):
		sh.printf("Wrong arguments. Use \"help %s\"", cmd.name)
		return
	}

	sh.report(err)

	if sh.remote != nil && (sh.remote.Closed() || closesSession(err)) {
		if err := sh.reconnect(); err != nil {
			sh.errorf("%v", err)
		}
	}
}

// report prints a failed command. Negative replies were already shown by
// the transcript.
func (sh *Shell) report(err error) {
	switch ftpc.Classify(err) {
	case ftpc.OutcomeProtocol:
		sh.logger.Debug("command rejected", "error", err)
	case ftpc.OutcomeTimeout:
		sh.errorf("Timeout: %v", err)
	case ftpc.OutcomeClosed:
		sh.errorf("No response: %v", err)
	default:
		sh.errorf("%v", err)
	}
}

func closesSession(err error) bool {
	var protoErr *ftpc.ProtocolError
	return errors.As(err, &protoErr) && protoErr.ClosesSession()
}

// Run reads commands from the terminal until exit or end of input.
func (sh *Shell) Run() {
	p := prompt.New(
		sh.Execute,
		sh.complete,
		prompt.OptionTitle("ftpc"),
		prompt.OptionPrefix("ftp> "),
		prompt.OptionPrefixTextColor(prompt.Green),
		prompt.OptionPreviewSuggestionTextColor(prompt.Blue),
		prompt.OptionSelectedSuggestionBGColor(prompt.LightGray),
		prompt.OptionSuggestionBGColor(prompt.DarkGray),
		prompt.OptionCompletionWordSeparator(" "),
		prompt.OptionSetExitCheckerOnInput(func(string, bool) bool {
			return sh.exited
		}),
	)
	p.Run()
}

// complete suggests verbs for the first word and type names after "type".
func (sh *Shell) complete(d prompt.Document) []prompt.Suggest {
	words := strings.Fields(d.TextBeforeCursor())
	trailingSpace := strings.HasSuffix(d.TextBeforeCursor(), " ")

	if len(words) == 0 || (len(words) == 1 && !trailingSpace) {
		var suggestions []prompt.Suggest
		for _, name := range sh.commandNames() {
			suggestions = append(suggestions, prompt.Suggest{
				Text:        name,
				Description: sh.commands[name].summary,
			})
		}
		return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
	}

	switch words[0] {
	case "type":
		return prompt.FilterHasPrefix([]prompt.Suggest{
			{Text: "a", Description: "ASCII"},
			{Text: "i", Description: "binary"},
		}, d.GetWordBeforeCursor(), true)
	case "help":
		var suggestions []prompt.Suggest
		for _, name := range sh.commandNames() {
			suggestions = append(suggestions, prompt.Suggest{Text: name})
		}
		return prompt.FilterHasPrefix(suggestions, d.GetWordBeforeCursor(), true)
	}
	return nil
}

func (sh *Shell) commandNames() []string {
	names := make([]string, 0, len(sh.commands))
	for name := range sh.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// changedDir records a successful cd.
func (sh *Shell) changedDir(dir string) {
	if path.IsAbs(dir) {
		sh.cwd = path.Clean(dir)
		return
	}
	sh.cwd = path.Join(sh.cwd, dir)
}
