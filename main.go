/*
Copyright © 2023 Chris Collins 'collins.christopher@gmail.com'

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package main

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/clcollins/incmgr/cmd"
)

func main() {
	home, err := os.UserHomeDir()
	if err != nil {
		log.Fatal(err)
	}

	// The TUI owns the terminal, so logs go to a file where the platform has one
	if path, ok := cmd.LogFile(home); ok {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil { //nolint:gomnd
			log.Fatal(err)
		}

		// Truncate on start to prevent unbounded growth
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600) //nolint:gomnd
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close() //nolint:errcheck

		// Log I/O must not block the UI
		asyncWriter := newAsyncWriter(f, 1000)
		defer asyncWriter.Close()

		log.SetOutput(asyncWriter)
	}

	cmd.Execute()
}

// asyncWriter hands log lines to a background goroutine so a slow disk
// never stalls the bubbletea event loop. Lines arriving while the queue is
// full are counted and discarded.
type asyncWriter struct {
	mu      sync.Mutex
	queue   chan []byte
	flushed chan struct{}
	closed  bool
	dropped int
}

func newAsyncWriter(w io.Writer, depth int) *asyncWriter {
	aw := &asyncWriter{
		queue:   make(chan []byte, depth),
		flushed: make(chan struct{}),
	}
	go aw.drain(w)
	return aw
}

func (aw *asyncWriter) drain(w io.Writer) {
	defer close(aw.flushed)
	for line := range aw.queue {
		_, _ = w.Write(line)
	}
}

func (aw *asyncWriter) Write(p []byte) (int, error) {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	if aw.closed {
		return 0, os.ErrClosed
	}

	line := append([]byte(nil), p...)
	select {
	case aw.queue <- line:
	default:
		aw.dropped++
	}
	return len(p), nil
}

// Dropped returns how many lines were discarded because the queue was full
func (aw *asyncWriter) Dropped() int {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	return aw.dropped
}

// Close stops accepting lines and waits until the queued ones are written
func (aw *asyncWriter) Close() error {
	aw.mu.Lock()
	if aw.closed {
		aw.mu.Unlock()
		return nil
	}
	aw.closed = true
	close(aw.queue)
	aw.mu.Unlock()

	<-aw.flushed
	return nil
}
