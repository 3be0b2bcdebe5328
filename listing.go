package ftpc

import (
	"log/slog"
	"regexp"
	"strings"
)

// FileEntry is one entry of a directory listing.
type FileEntry struct {
	// Name is the file name, internal spaces preserved
	Name string

	// IsFile is false for directories
	IsFile bool

	// Raw is the listing line the entry was parsed from
	Raw string
}

// ListingParser parses one line of a LIST reply.
// Parse reports false for lines it does not recognize.
type ListingParser interface {
	Parse(line string) (FileEntry, bool)
}

// ListingParserFunc adapts a function to the ListingParser interface.
type ListingParserFunc func(line string) (FileEntry, bool)

// Parse calls f(line).
func (f ListingParserFunc) Parse(line string) (FileEntry, bool) {
	return f(line)
}

// anchorRegex finds the name after the last year or HH:MM token of a
// Unix style line:
//
//	drw-rw-r--   1 ftp      ftp       8650309 Dec 11  2007 03 Byvshiy podjesaul.mp3
//	-rw-rw-r--   1 ftp      ftp       9967461 08:00 01-Globus.mp3
var anchorRegex = regexp.MustCompile(`^(d?).*(?: \d{4} | \d{2}:\d{2} )(.+)$`)

// AnchorParser is the default ListingParser. A leading 'd' marks a
// directory and the name is everything after the timestamp, so names
// with spaces survive. Lines without a year or time token are skipped.
type AnchorParser struct{}

// Parse implements ListingParser.
func (AnchorParser) Parse(line string) (FileEntry, bool) {
	m := anchorRegex.FindStringSubmatch(line)
	if m == nil {
		return FileEntry{}, false
	}
	return FileEntry{
		Name:   m[2],
		IsFile: m[1] == "",
		Raw:    line,
	}, true
}

// CompositeParser tries multiple parsers in order.
type CompositeParser struct {
	Parsers []ListingParser
}

// Parse returns the entry of the first parser that recognizes line.
func (p *CompositeParser) Parse(line string) (FileEntry, bool) {
	for _, parser := range p.Parsers {
		if entry, ok := parser.Parse(line); ok {
			return entry, true
		}
	}
	return FileEntry{}, false
}

// parseListing splits raw listing text into lines (CRLF or LF) and parses
// each non-empty line, keeping input order.
func parseListing(logger *slog.Logger, parser ListingParser, raw string) []FileEntry {
	var entries []FileEntry
	for line := range strings.Lines(raw) {
		line = strings.TrimRight(line, "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		entry, ok := parser.Parse(line)
		if !ok {
			logger.Debug("skipping unrecognized listing line", "raw", line)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
