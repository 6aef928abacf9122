// Package nlog is the query engine's logger: buffered, timestamped,
// severity-leveled, with caller info and periodic flush - in place of the
// standard library's bare log package.
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package nlog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/singnet/das-query-engine/cmn/mono"
)

type severity int

const (
	sevInfo severity = iota
	sevWarn
	sevErr
)

var sevChar = [...]byte{'I', 'W', 'E'}

const flushInterval = 2 * time.Second

type logger struct {
	mu      sync.Mutex
	w       *bufio.Writer
	out     *os.File
	sev     severity
	last    time.Time
	written int64
}

var (
	loggers      [3]*logger
	toStderr     bool
	alsoToStderr bool
	title        string
	onceInit     sync.Once
)

func initLoggers() {
	for s := sevInfo; s <= sevErr; s++ {
		loggers[s] = &logger{sev: s, out: os.Stderr, w: bufio.NewWriter(os.Stderr)}
	}
	go flushLoop()
}

func flushLoop() {
	t := time.NewTicker(flushInterval)
	defer t.Stop()
	for range t.C {
		Flush()
	}
}

// SetOutput redirects all severities to w (tests, or a rotated file in
// production); by default logging goes to stderr.
func SetOutput(w *os.File) {
	onceInit.Do(initLoggers)
	for _, l := range loggers {
		l.mu.Lock()
		l.out = w
		l.w = bufio.NewWriter(w)
		l.mu.Unlock()
	}
}

func SetTitle(s string) { title = s }

func SetLogDirRole(dir, role string) {
	// kept for API parity with the teacher's logger; file-per-role rotation
	// is out of scope for this single-binary engine (stderr/SetOutput cover it).
	_ = dir
	_ = role
}

func InitFlags(toStderrDefault bool) { toStderr = toStderrDefault }

func (l *logger) printf(depth int, format string, args ...any) {
	onceInit.Do(initLoggers)
	line := formatLine(l.sev, depth+1, format, args...)
	l.mu.Lock()
	l.w.WriteString(line)
	l.last = time.Now()
	l.written += int64(len(line))
	if l.w.Buffered() > 4096 {
		l.w.Flush()
	}
	l.mu.Unlock()
	if toStderr || alsoToStderr || l.sev >= sevWarn {
		if l.out != os.Stderr {
			os.Stderr.WriteString(line)
		}
	}
}

func formatLine(sev severity, depth int, format string, args ...any) string {
	var b strings.Builder
	b.WriteByte(sevChar[sev])
	b.WriteByte(' ')
	b.WriteString(time.Now().Format("15:04:05.000000"))
	b.WriteByte(' ')
	if _, fn, ln, ok := runtime.Caller(depth + 1); ok {
		fn = filepath.Base(fn)
		fmt.Fprintf(&b, "%s:%d ", fn, ln)
	}
	if format == "" {
		fmt.Fprintln(&b, args...)
	} else {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}
	return b.String()
}

func log(sev severity, depth int, format string, args ...any) {
	onceInit.Do(initLoggers)
	loggers[sev].printf(depth+1, format, args...)
	if sev >= sevWarn {
		loggers[sevInfo].printf(depth+1, format, args...)
	}
}

func InfoDepth(depth int, args ...any)    { log(sevInfo, depth, "", args...) }
func Infoln(args ...any)                  { log(sevInfo, 0, "", args...) }
func Infof(format string, args ...any)    { log(sevInfo, 0, format, args...) }
func Warningln(args ...any)               { log(sevWarn, 0, "", args...) }
func Warningf(format string, args ...any) { log(sevWarn, 0, format, args...) }
func ErrorDepth(depth int, args ...any)   { log(sevErr, depth, "", args...) }
func Errorln(args ...any)                 { log(sevErr, 0, "", args...) }
func Errorf(format string, args ...any)   { log(sevErr, 0, format, args...) }

// Flush forces all buffered severities out to their writers.
func Flush() {
	onceInit.Do(initLoggers)
	for _, l := range loggers {
		l.mu.Lock()
		l.w.Flush()
		l.mu.Unlock()
	}
}

// Since returns the time elapsed since the last write to any severity,
// i.e. how long the process has gone quiet.
func Since() time.Duration {
	onceInit.Do(initLoggers)
	var oldest time.Duration
	now := mono.NanoTime()
	_ = now
	for i, l := range loggers {
		l.mu.Lock()
		d := time.Since(l.last)
		l.mu.Unlock()
		if i == 0 || d < oldest {
			oldest = d
		}
	}
	return oldest
}
