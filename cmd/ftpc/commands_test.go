package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/gonzalop/ftpc"
)

func connectTest(c *qt.C, ts *testServer) *ftpc.Session {
	session, err := ts.settings().connect()
	c.Assert(err, qt.IsNil)
	c.Cleanup(func() { _ = session.Quit() })
	return session
}

func TestDownload(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c)
	ts.put("pub/a.txt", []byte("hello world"))

	session := connectTest(c, ts)
	local := filepath.Join(c.TempDir(), "a.txt")
	var out bytes.Buffer
	c.Assert(download(session, "pub/a.txt", local, &out), qt.IsNil)

	data, err := os.ReadFile(local)
	c.Assert(err, qt.IsNil)
	c.Assert(string(data), qt.Equals, "hello world")
	_, err = os.Stat(local + ".part")
	c.Assert(os.IsNotExist(err), qt.IsTrue)
	c.Assert(out.String(), qt.Matches, `11 bytes received in [0-9.]+ secs \([0-9.]+ MB/s\)\n`)

	// one SIZE, sent in binary mode, and no extra TYPE round trips
	c.Assert(ts.lines()[2:], qt.DeepEquals, []string{
		"TYPE I",
		"SIZE pub/a.txt",
		"PASV",
		"RETR pub/a.txt",
	})
}

func TestDownloadMissingFile(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c)

	session := connectTest(c, ts)
	dir := c.TempDir()
	err := download(session, "nope.txt", filepath.Join(dir, "nope.txt"), &bytes.Buffer{})
	c.Assert(ftpc.Classify(err), qt.Equals, ftpc.OutcomeProtocol)

	entries, err := os.ReadDir(dir)
	c.Assert(err, qt.IsNil)
	c.Assert(entries, qt.HasLen, 0)
}

func TestUpload(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c)

	local := filepath.Join(c.TempDir(), "report.csv")
	c.Assert(os.WriteFile(local, []byte("a,b\n1,2\n"), 0o644), qt.IsNil)

	session := connectTest(c, ts)
	var out bytes.Buffer
	c.Assert(upload(session, local, "incoming/report.csv", &out), qt.IsNil)

	c.Assert(ts.file("incoming/report.csv"), qt.DeepEquals, []byte("a,b\n1,2\n"))
	c.Assert(out.String(), qt.Matches, `8 bytes sent in [0-9.]+ secs \([0-9.]+ MB/s\)\n`)
}

func TestUploadMissingLocalFile(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c)

	session := connectTest(c, ts)
	err := upload(session, filepath.Join(c.TempDir(), "absent"), "absent", &bytes.Buffer{})
	c.Assert(os.IsNotExist(err), qt.IsTrue)
}

func TestList(t *testing.T) {
	c := qt.New(t)
	ts := newTestServer(c)
	listing := "drwxr-xr-x 2 ftp ftp 4096 Jan 01 2024 pub\r\n" +
		"-rw-r--r-- 1 ftp ftp 11 Mar 03 10:15 read me.txt\r\n"
	ts.setListing(listing)

	session := connectTest(c, ts)

	var out bytes.Buffer
	c.Assert(list(session, "", false, &out), qt.IsNil)
	c.Assert(out.String(), qt.Equals, "pub\nread me.txt\n")

	out.Reset()
	c.Assert(list(session, "", true, &out), qt.IsNil)
	c.Assert(out.String(), qt.Equals, listing)
}
