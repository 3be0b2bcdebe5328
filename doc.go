// Package ftpc implements the client side of FTP: a synchronous
// command/reply conversation on a persistent control connection, and a
// fresh data connection per transfer in passive (PASV) or active (PORT)
// mode.
//
// # Basic Usage
//
//	session, err := ftpc.Dial("ftp.example.com:21")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer session.Quit()
//
//	if err := session.Login("anonymous", "anonymous@"); err != nil {
//	    log.Fatal(err)
//	}
//
// # Downloads
//
// GetFile returns a Download, a pull iterator over the bytes of the file.
// Each call to Next performs one read on the data connection, so the
// consumer sets the pace of the transfer:
//
//	dl, err := session.GetFile("pub/README")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for {
//	    chunk, err := dl.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    out.Write(chunk)
//	}
//
// Download also offers Chunks (a range-over-func iterator) and WriteTo.
// Until the Download has ended or been closed, other calls on the Session
// fail with ErrTransferInProgress.
//
// # Uploads
//
//	file, err := os.Open("local.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer file.Close()
//
//	if err := session.Store("remote.txt", file); err != nil {
//	    log.Fatal(err)
//	}
//
// # Progress Tracking
//
// Downloads report progress through Download.OnProgress. Uploads are
// tracked by wrapping the source:
//
//	pr := &ftpc.ProgressReader{
//	    Reader: file,
//	    Total:  info.Size(),
//	    Callback: func(sent, total int64) {
//	        fmt.Printf("Uploaded: %d/%d bytes\n", sent, total)
//	    },
//	}
//	err := session.Store("remote.txt", pr)
//
// # Error Handling
//
// A negative reply is a *ProtocolError carrying the Response. Replies that
// cannot be interpreted are a *MalformedReplyError. A control channel
// timeout or a connection closed by the server leaves the Session unusable;
// later calls return ErrSessionClosed. A data channel timeout only aborts
// the transfer. Classify maps any of these onto an Outcome:
//
//	switch ftpc.Classify(err) {
//	case ftpc.OutcomeProtocol:
//	    var pe *ftpc.ProtocolError
//	    errors.As(err, &pe)
//	    fmt.Println(pe.Response)
//	case ftpc.OutcomeTimeout, ftpc.OutcomeClosed:
//	    // dial again
//	}
//
// The package never retries a command on its own.
package ftpc
