package output

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/rafabd1/LPParser/utils"
)

type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarning
	LevelError
	LevelSuccess
)

type LogMessage struct {
	Level   LogLevel
	Message string
	Time    time.Time
}

type Logger struct {
	minLevel LogLevel
	silent   bool
	tc       *TerminalController
	logQueue chan LogMessage
	pending  sync.WaitGroup
	done     chan struct{}
	stopped  chan struct{}
	closed   sync.Once
	outputMu sync.Mutex

	debugColor   func(format string, a ...interface{}) string
	infoColor    func(format string, a ...interface{}) string
	warningColor func(format string, a ...interface{}) string
	errorColor   func(format string, a ...interface{}) string
	successColor func(format string, a ...interface{}) string
	timeColor    func(format string, a ...interface{}) string

	progressBar *ProgressBar
	progressMu  sync.Mutex

	loggedFindings map[string]bool
	findingsMutex  sync.Mutex
}

// NewLogger creates a logger writing to stderr.
// Verbose shows debug output, silent keeps only findings and errors.
func NewLogger(verbose, silent bool) *Logger {
	return NewLoggerWithOutput(GetTerminalController(), verbose, silent)
}

// NewLoggerWithOutput creates a logger writing through tc
func NewLoggerWithOutput(tc *TerminalController, verbose, silent bool) *Logger {
	minLevel := LevelInfo
	if verbose {
		minLevel = LevelDebug
	}

	logger := &Logger{
		minLevel: minLevel,
		silent:   silent,
		tc:       tc,
		logQueue: make(chan LogMessage, 100),
		done:     make(chan struct{}),
		stopped:  make(chan struct{}),

		timeColor:    color.New(color.FgHiBlack).SprintfFunc(),
		debugColor:   color.New(color.FgHiBlack).SprintfFunc(),
		infoColor:    color.New(color.FgCyan).SprintfFunc(),
		warningColor: color.New(color.FgYellow).SprintfFunc(),
		errorColor:   color.New(color.FgRed, color.Bold).SprintfFunc(),
		successColor: color.New(color.FgGreen, color.Bold).SprintfFunc(),

		loggedFindings: make(map[string]bool),
	}

	go logger.processLogs()

	return logger
}

// Writer returns the destination of log lines
func (l *Logger) Writer() io.Writer {
	return l.tc.out
}

func (l *Logger) SetProgressBar(pb *ProgressBar) {
	l.progressMu.Lock()
	defer l.progressMu.Unlock()
	l.progressBar = pb
}

/*
   Drains the log queue in the background
*/
func (l *Logger) processLogs() {
	defer close(l.stopped)
	for {
		select {
		case <-l.done:
			return
		case msg := <-l.logQueue:
			l.writeLog(msg)
			l.pending.Done()
		}
	}
}

func (l *Logger) enabled(level LogLevel) bool {
	if l.silent {
		return level == LevelSuccess || level == LevelError
	}
	return level >= l.minLevel
}

func (l *Logger) writeLog(msg LogMessage) {
	l.outputMu.Lock()
	defer l.outputMu.Unlock()

	l.progressMu.Lock()
	pb := l.progressBar
	l.progressMu.Unlock()

	if pb != nil {
		pb.PauseRender()
		defer pb.ResumeRender()
	}

	l.tc.CoordinateOutput(func() {
		timestamp := l.timeColor("[%s]", msg.Time.Format("15:04:05"))
		var prefix, formatted string

		switch msg.Level {
		case LevelDebug:
			prefix = l.debugColor("[DEBUG]")
			formatted = l.debugColor("%s", msg.Message)
		case LevelInfo:
			prefix = l.infoColor("[INFO]")
			formatted = msg.Message
		case LevelWarning:
			prefix = l.warningColor("[WARNING]")
			formatted = l.warningColor("%s", msg.Message)
		case LevelError:
			prefix = l.errorColor("[ERROR]")
			formatted = l.errorColor("%s", msg.Message)
		case LevelSuccess:
			prefix = l.successColor("[SUCCESS]")
			formatted = l.successColor("%s", msg.Message)
		}

		fmt.Fprintf(l.tc.out, "%s %s %s\n", timestamp, prefix, formatted)
	})
}

func (l *Logger) enqueueLog(level LogLevel, format string, args ...interface{}) {
	if !l.enabled(level) {
		return
	}

	msg := LogMessage{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		Time:    time.Now(),
	}

	select {
	case <-l.done:
		l.writeLog(msg)
		return
	default:
	}

	l.pending.Add(1)
	select {
	case l.logQueue <- msg:
	default:
		// queue full, write synchronously
		l.pending.Done()
		l.writeLog(msg)
	}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.enqueueLog(LevelDebug, format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.enqueueLog(LevelInfo, format, args...)
}

func (l *Logger) Warning(format string, args ...interface{}) {
	l.enqueueLog(LevelWarning, format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.enqueueLog(LevelError, format, args...)
}

func (l *Logger) Success(format string, args ...interface{}) {
	l.enqueueLog(LevelSuccess, format, args...)
}

/*
   Reports extracted credentials once per url/login pair.
   The password is masked in the log, the output file keeps it in full.
*/
func (l *Logger) CredentialFound(login, password, url string) {
	key := url + "\x00" + login + "\x00" + password

	l.findingsMutex.Lock()
	if l.loggedFindings[key] {
		l.findingsMutex.Unlock()
		return
	}
	l.loggedFindings[key] = true
	l.findingsMutex.Unlock()

	if password == "" {
		l.Success("Found login %s (no password) in %s", login, url)
		return
	}
	l.Success("Found %s:%s in %s", login, utils.MaskSecret(password), utils.TruncateString(url, 80))
}

// Flush blocks until every queued message has been written
func (l *Logger) Flush() {
	l.pending.Wait()
}

func (l *Logger) Close() {
	l.closed.Do(func() {
		l.Flush()
		close(l.done)
		<-l.stopped

		l.progressMu.Lock()
		if l.progressBar != nil {
			l.progressBar.Stop()
			l.progressBar = nil
		}
		l.progressMu.Unlock()
	})
}
