package logger

import (
	"fmt"
	"os"
	"sync"
	"syscall"
)

// NewLogFile opens filename for appending. The returned file reopens
// filename, when it was removed, for instance by logrotate.
func NewLogFile(filename string) (f *LogFile, err error) {
	f = &LogFile{filename: filename}
	if err := f.open(); err != nil {
		return nil, err
	}
	return f, nil
}

type LogFile struct {
	filename string

	mu   sync.Mutex
	file *os.File
}

func (self *LogFile) open() (err error) {
	self.file, err = os.OpenFile(self.filename,
		os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open file: %w", err)
	}
	return nil
}

func (self *LogFile) Write(p []byte) (int, error) {
	self.mu.Lock()
	defer self.mu.Unlock()

	if err := self.reopenIfRemoved(); err != nil {
		return 0, fmt.Errorf("reopen file %q: %w", self.filename, err)
	}
	n, err := self.file.Write(p)
	if err != nil {
		return n, fmt.Errorf("write to %q: %w", self.filename, err)
	}
	return n, nil
}

func (self *LogFile) reopenIfRemoved() error {
	finfo, err := self.file.Stat()
	if err != nil {
		return fmt.Errorf("stat of %q: %w", self.filename, err)
	}

	if stat, ok := finfo.Sys().(*syscall.Stat_t); ok && stat.Nlink > 0 {
		return nil
	}

	if err := self.file.Close(); err != nil {
		return fmt.Errorf("close %q: %w", self.filename, err)
	}
	return self.open()
}

func (self *LogFile) Close() error {
	self.mu.Lock()
	defer self.mu.Unlock()
	if err := self.file.Close(); err != nil {
		return fmt.Errorf("close %q: %w", self.filename, err)
	}
	return nil
}
