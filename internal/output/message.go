package output

import (
	"fmt"
	"time"
)

const (
	ansiReset  = "\033[0m"
	ansiRed    = "\033[31m"
	ansiGreen  = "\033[32m"
	ansiYellow = "\033[33m"
	ansiBlue   = "\033[34m"
)

type level struct {
	name   string
	prefix string
	color  string
}

//nolint:gochecknoglobals // fixed notification styles
var (
	levelInfo    = level{"info", "ℹ️  ", ansiBlue}
	levelSuccess = level{"success", "✅ ", ansiGreen}
	levelWarn    = level{"warning", "⚠️  ", ansiYellow}
	levelError   = level{"error", "❌ ", ansiRed}
)

type notification struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Info shows an informational notification.
func (f *Formatter) Info(msg string) {
	f.notify(levelInfo, msg)
}

// Infof shows a formatted informational notification.
func (f *Formatter) Infof(format string, args ...any) {
	f.Info(fmt.Sprintf(format, args...))
}

// Success shows a success notification.
func (f *Formatter) Success(msg string) {
	f.notify(levelSuccess, msg)
}

// Warn shows a warning notification.
func (f *Formatter) Warn(msg string) {
	f.notify(levelWarn, msg)
}

// Warnf shows a formatted warning notification.
func (f *Formatter) Warnf(format string, args ...any) {
	f.Warn(fmt.Sprintf(format, args...))
}

// Error shows an error notification. It does not end the command.
func (f *Formatter) Error(msg string) {
	f.notify(levelError, msg)
}

// notify writes one line to the notification writer. In JSON mode each
// notification is a JSON object so the stream can be parsed line by line.
func (f *Formatter) notify(l level, msg string) {
	if f.errOut == nil {
		return
	}
	if f.format == FormatJSON {
		line, err := json.Marshal(notification{Level: l.name, Message: msg, Time: time.Now().UTC()})
		if err == nil {
			_, _ = fmt.Fprintln(f.errOut, string(line))
		}
		return
	}
	text := l.prefix + msg
	if f.color {
		text = l.color + text + ansiReset
	}
	_, _ = fmt.Fprintln(f.errOut, text)
}
