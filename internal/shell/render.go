package shell

import (
	"fmt"
	"strings"
	"time"

	"github.com/cheggaaa/pb"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/gonzalop/ftpc"
)

var (
	commandColor = color.New(color.FgCyan)
	replyColor   = color.New(color.FgGreen)
	errorColor   = color.New(color.FgRed)
	warnColor    = color.New(color.FgYellow)
)

func (sh *Shell) printf(format string, args ...any) {
	fmt.Fprintf(sh.out, format+"\n", args...)
}

func (sh *Shell) errorf(format string, args ...any) {
	errorColor.Fprintf(sh.out, format+"\n", args...)
}

func (sh *Shell) warnf(format string, args ...any) {
	warnColor.Fprintf(sh.out, format+"\n", args...)
}

// echo renders one transcript line. Negative replies are shown as errors.
func (sh *Shell) echo(line string) {
	switch {
	case strings.HasPrefix(line, ">> "):
		commandColor.Fprintln(sh.out, line)
	case strings.HasPrefix(line, "<< 4"), strings.HasPrefix(line, "<< 5"):
		errorColor.Fprintln(sh.out, line)
	default:
		replyColor.Fprintln(sh.out, line)
	}
}

func (sh *Shell) renderTable(entries []ftpc.FileEntry) error {
	table := tablewriter.NewWriter(sh.out)
	table.Header("Name", "Type")
	for _, e := range entries {
		kind := "directory"
		if e.IsFile {
			kind = "file"
		}
		if err := table.Append([]string{e.Name, kind}); err != nil {
			return err
		}
	}
	return table.Render()
}

// Summary formats the line printed after a transfer.
func Summary(n int64, verb string, elapsed time.Duration) string {
	secs := elapsed.Seconds()
	var speed float64
	if secs > 0 {
		speed = float64(n) / (1 << 20) / secs
	}
	return fmt.Sprintf("%d bytes %s in %.2f secs (%.4f MB/s)", n, verb, secs, speed)
}

type progressBar struct {
	*pb.ProgressBar
}

// newBar starts a byte progress bar, or returns nil when progress output
// is off. A negative total shows a plain counter.
func (sh *Shell) newBar(total int64) *progressBar {
	if !sh.progress {
		return nil
	}
	if total < 0 {
		total = 0
	}
	bar := pb.New64(total)
	bar.Units = pb.U_BYTES
	bar.Output = sh.out
	bar.ShowSpeed = true
	bar.Start()
	return &progressBar{bar}
}

func (b *progressBar) finish() {
	if b == nil {
		return
	}
	b.Finish()
}
