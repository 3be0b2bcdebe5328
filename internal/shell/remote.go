package shell

import (
	"io"

	"github.com/gonzalop/ftpc"
)

// Remote is the part of a session the shell drives. *ftpc.Session provides
// everything except Fetch; use Wrap to adapt one.
type Remote interface {
	Login(user, password string) error
	Quit() error
	Close() error
	Closed() bool

	CurrentDir() (string, error)
	ChangeDir(path string) error
	MakeDir(path string) error
	RemoveDir(path string) error
	Delete(path string) error
	Rename(from, to string) error
	SizeRaw(path string) (string, error)
	List(path string) ([]ftpc.FileEntry, error)

	Fetch(path string) (Download, error)
	Store(path string, r io.Reader) error

	SwitchMode(t ftpc.Type) error
	SetPassive(passive bool)
	Passive() bool
	SetEcho(commands, replies bool)
}

// Download is a file transfer in progress.
type Download interface {
	io.WriterTo
	Size() int64
	OnProgress(fn ftpc.ProgressFunc)
	Close() error
}

// DialFunc opens a new connection whose control transcript goes to echo.
// The shell logs in on its own.
type DialFunc func(echo ftpc.EchoFunc) (Remote, error)

// Wrap adapts a session to Remote.
func Wrap(s *ftpc.Session) Remote {
	return session{s}
}

type session struct {
	*ftpc.Session
}

func (s session) Fetch(path string) (Download, error) {
	dl, err := s.GetFile(path)
	if err != nil {
		return nil, err
	}
	return dl, nil
}
