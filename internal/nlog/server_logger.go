/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */
package nlog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
)

// Logger is something that can print, using Logf, a format string
type Logger interface {
	Logf(format string, v ...any)
}

// subsystemLogger is a logger that handles only one file out of all that are opened by its logger
type subsystemLogger struct {
	filename string
	logger   *ServerLogger
}

// Logf for a subsystem logger is just a wrap for the Logs of its internal logger, giving its only filename
func (s *subsystemLogger) Logf(format string, v ...any) {
	s.logger.Logf(s.filename, format, v...)
}

// logEntry is an helper struct that can be used to send a couple (filename, formatted string) onto the log channel
type logEntry struct {
	filename  string
	formatted string
}

// ServerLogger can write to multiple log files, one per subsystem, from one single struct.
// It's safe to share amongst goroutines since it has an internal lock.
// Writes happen on the goroutine running Run, callers only push onto a buffered channel.
type ServerLogger struct {
	dir string // Directory holding one <subsystem>.log file per registered subsystem

	fileMapper map[string]*os.File    // Maps a filename to an OS file (used only to be able to deallocate it later)
	logMapper  map[string]*log.Logger // Maps a filename to the corresponding logger

	lock           sync.RWMutex
	currentLogFunc func(*log.Logger, string, ...any) // Current logging function (alternating between defaultLogf and nilLogf)

	inbox chan logEntry // Log channel, formatted strings are sent here instead of directly writing to files
}

// NewServerLogger creates the log directory dir and returns a ServerLogger writing inside it.
// When logging is false nothing is written until EnableLogging is called.
func NewServerLogger(dir string, logging bool) (*ServerLogger, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	s := &ServerLogger{
		dir:            dir,
		fileMapper:     make(map[string]*os.File),
		logMapper:      make(map[string]*log.Logger),
		currentLogFunc: nilLogf,
		inbox:          make(chan logEntry, 600),
	}

	if logging {
		s.currentLogFunc = defaultLogf
	}

	return s, nil
}

// RegisterSubsystem registers a new subsystem, returning a Logger that can write to the file filename.
// If successful, error is nil
func (s *ServerLogger) RegisterSubsystem(filename string) (Logger, error) {
	file, err := os.OpenFile(filepath.Join(s.dir, filename+".log"), os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0666)
	if err != nil {
		return nil, err
	}

	s.lock.Lock()
	defer s.lock.Unlock()
	s.logMapper[filename] = log.New(file, fmt.Sprintf("[%s]: ", filename), log.Ldate|log.Ltime|log.Lmicroseconds)
	s.fileMapper[filename] = file
	return &subsystemLogger{filename, s}, nil
}

// GetSubsystemLogger retrieves a subsystem logger, if previously registerd.
// If successful, error is nil
func (s *ServerLogger) GetSubsystemLogger(filename string) (Logger, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if _, ok := s.logMapper[filename]; !ok {
		return nil, fmt.Errorf("The subsystem was not registered")
	}
	return &subsystemLogger{filename, s}, nil
}

// EnableLogging enables the logging done by this logger
func (s *ServerLogger) EnableLogging() {
	s.lock.Lock()
	s.currentLogFunc = defaultLogf
	s.lock.Unlock()
}

// DisableLogging disables the logging done by this logger
func (s *ServerLogger) DisableLogging() {
	s.lock.Lock()
	s.currentLogFunc = nilLogf
	s.lock.Unlock()
}

// Logf formats a string using format and v, and appends it to a logging channel, alongside the file, filename, it will be written to
func (s *ServerLogger) Logf(filename, format string, v ...any) {
	s.inbox <- logEntry{filename, fmt.Sprintf(format, v...)}
}

// Run waits either on the log channel or ctx.Done()
// When ctx.Done(), the caller has shut down: pending entries are flushed and resources deallocated
// When a message arrives on the log channel, we write it accordingly
func (s *ServerLogger) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			s.CloseAll()
			return
		case msg := <-s.inbox:
			s.actualWrite(msg.filename, msg.formatted)
		}
	}
}

// drain writes whatever is still buffered in the inbox
func (s *ServerLogger) drain() {
	for {
		select {
		case msg := <-s.inbox:
			s.actualWrite(msg.filename, msg.formatted)
		default:
			return
		}
	}
}

// actualWrite is the function that writes the string formatted in the file filename
// When successful, error is nil
func (s *ServerLogger) actualWrite(filename, formatted string) error {
	s.lock.RLock()
	logFunc := s.currentLogFunc
	logger, ok := s.logMapper[filename]
	s.lock.RUnlock()

	if !ok {
		return fmt.Errorf("Logger is not setup for this filename")
	}
	if logFunc != nil {
		logFunc(logger, formatted)
	}
	return nil
}

// CloseAll closes all the open files that the loggers are using
func (s *ServerLogger) CloseAll() {
	s.lock.Lock()
	defer s.lock.Unlock()

	for _, file := range s.fileMapper {
		file.Sync()
		file.Close()
	}
	clear(s.fileMapper)
	clear(s.logMapper)
}

// defaultLogf is a log function that writes to a logger l
func defaultLogf(l *log.Logger, format string, a ...any) {
	l.Print(format)
}

// nilLogf is a log function that does nothing, which gets called when logging is disabled
func nilLogf(*log.Logger, string, ...any) {}

// consoleLogger writes synchronously to stderr, used before the file loggers exist
type consoleLogger struct {
	l *log.Logger
}

// Console returns a Logger printing to stderr with the given subsystem prefix
func Console(subsystem string) Logger {
	return &consoleLogger{log.New(os.Stderr, fmt.Sprintf("[%s]: ", subsystem), log.Ldate|log.Ltime)}
}

func (c *consoleLogger) Logf(format string, v ...any) {
	c.l.Printf(format, v...)
}

// Discard returns a Logger that drops everything
func Discard() Logger {
	return discardLogger{}
}

type discardLogger struct{}

func (discardLogger) Logf(string, ...any) {}
