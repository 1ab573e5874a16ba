// Package logger provides structured, leveled logging for the qres packages.
package logger

import (
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger handles structured log messages from qres code. After the message,
// arguments are key-value pairs which are written as structured fields.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	WithFields(args ...interface{}) Logger
}

// New returns a new Logger instance scoped to the given namespace.
func New(ns string, args ...interface{}) Logger {
	base := logrus.New()
	base.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02T15:04:05Z07:00",
	})
	f := fields(args...)
	f["ns"] = ns
	return &logger{base, base.WithFields(f)}
}

type logger struct {
	root  *logrus.Logger
	entry *logrus.Entry
}

func (l *logger) Debug(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Debug(msg)
}

func (l *logger) Info(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Info(msg)
}

func (l *logger) Warn(msg string, args ...interface{}) {
	defer recoverLogErr()
	l.entry.WithFields(fields(args...)).Warn(msg)
}

// Error logs an error message. A single argument is treated as the error
// value itself:
//
//	log.Error("token refresh failed", err)
func (l *logger) Error(msg string, args ...interface{}) {
	defer recoverLogErr()
	var f map[string]interface{}
	if len(args) == 1 {
		f = fields("error", args[0])
	} else {
		f = fields(args...)
	}
	l.entry.WithFields(f).Error(msg)
}

// WithFields returns a new Logger instance with the given fields added to
// all log messages.
func (l *logger) WithFields(args ...interface{}) Logger {
	defer recoverLogErr()
	return &logger{l.root, l.entry.WithFields(fields(args...))}
}

// Configure applies the given configuration to the logger.
func (l *logger) Configure(conf Config) {
	l.root.SetLevel(level(conf.Level))
	if conf.Formatter == "json" {
		l.root.SetFormatter(&logrus.JSONFormatter{})
	}
}

// Configure applies the configuration if the logger was created by New.
func Configure(l Logger, conf Config) {
	if lg, ok := l.(*logger); ok {
		lg.Configure(conf)
	}
}

// SetOutput redirects the logger output, if the logger was created by New.
// Useful for silencing logs during tests.
func SetOutput(l Logger, w io.Writer) {
	if lg, ok := l.(*logger); ok {
		lg.root.SetOutput(w)
	}
}

func level(s string) logrus.Level {
	switch strings.ToLower(s) {
	case "debug":
		return logrus.DebugLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// recoverLogErr recovers from any panics during logging. Logging should
// never crash a program, so this failsafe prevents those crashes.
func recoverLogErr() {
	if r := recover(); r != nil {
		fmt.Println("Recovered from logging panic", r)
	}
}

// PrintSimpleError prints out an error message with a red "ERROR:" prefix.
func PrintSimpleError(err error) {
	fmt.Printf("\x1b[31m%s\x1b[0m %s\n", "ERROR:", err.Error())
}

func fields(args ...interface{}) map[string]interface{} {
	f := make(map[string]interface{}, len(args)/2)
	if len(args) == 1 {
		f["unknown"] = args[0]
		return f
	}
	for i := 0; i+1 < len(args); i += 2 {
		k, ok := args[i].(string)
		if !ok {
			k = fmt.Sprintf("%v", args[i])
		}
		f[k] = args[i+1]
	}
	if len(args)%2 != 0 && len(args) > 1 {
		f["unknown"] = args[len(args)-1]
	}
	return f
}
