package logger

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

var (
	User *UserLogger // Clean messages for users (stdout) with emojis
	Op   *OpLogger   // Detailed operational logs (stderr) without emojis
)

// init ensures loggers are never nil
func init() {
	internal := GetLogger().GetInternalLogger()
	User = &UserLogger{logger: internal}
	Op = &OpLogger{logger: internal}
}

type UserLogger struct {
	logger *logrus.Logger
}

type OpLogger struct {
	logger *logrus.Logger
}

func (u *UserLogger) with(emoji string) *logrus.Entry {
	fields := logrus.Fields{"log_type": string(UserLog)}
	if emoji != "" {
		fields["emoji"] = emoji
	}
	return u.logger.WithFields(fields)
}

func (u *UserLogger) Info(msg string) {
	u.with("").Info(msg)
}

func (u *UserLogger) Infof(format string, args ...interface{}) {
	u.with("").Infof(format, args...)
}

func (u *UserLogger) Error(msg string) {
	u.with("❌").Error(msg)
}

func (u *UserLogger) Errorf(format string, args ...interface{}) {
	u.with("❌").Errorf(format, args...)
}

func (u *UserLogger) Warn(msg string) {
	u.with("⚠️").Warn(msg)
}

func (u *UserLogger) Warnf(format string, args ...interface{}) {
	u.with("⚠️").Warnf(format, args...)
}

// Task lifecycle methods with relevant emojis
func (u *UserLogger) Starting(msg string) {
	u.with("🚀").Info(msg)
}

func (u *UserLogger) Startingf(format string, args ...interface{}) {
	u.with("🚀").Infof(format, args...)
}

func (u *UserLogger) Success(msg string) {
	u.with("✅").Info(msg)
}

func (u *UserLogger) Successf(format string, args ...interface{}) {
	u.with("✅").Infof(format, args...)
}

func (u *UserLogger) Cachedf(format string, args ...interface{}) {
	u.with("♻️").Infof(format, args...)
}

func (u *UserLogger) Invalidatef(format string, args ...interface{}) {
	u.with("🗑️").Infof(format, args...)
}

func (u *UserLogger) Savef(format string, args ...interface{}) {
	u.with("💾").Infof(format, args...)
}

func (u *UserLogger) Submitf(format string, args ...interface{}) {
	u.with("📤").Infof(format, args...)
}

// OpLogger methods without emojis - clean operational logs
func (o *OpLogger) Info(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Info(msg)
}

func (o *OpLogger) Infof(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Infof(format, args...)
}

func (o *OpLogger) Error(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Error(msg)
}

func (o *OpLogger) Errorf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Errorf(format, args...)
}

func (o *OpLogger) Warn(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Warn(msg)
}

func (o *OpLogger) Warnf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Warnf(format, args...)
}

func (o *OpLogger) Debug(msg string) {
	o.logger.WithField("log_type", string(OpLog)).Debug(msg)
}

func (o *OpLogger) Debugf(format string, args ...interface{}) {
	o.logger.WithField("log_type", string(OpLog)).Debugf(format, args...)
}

func (o *OpLogger) WithFields(fields map[string]interface{}) *logrus.Entry {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["log_type"] = string(OpLog)
	return o.logger.WithFields(fields)
}

// WithTask returns an entry tagged with the task identity.
func (o *OpLogger) WithTask(identity string) *logrus.Entry {
	return o.WithFields(map[string]interface{}{"task": identity})
}

// CLIFormatter provides clean output for CLI applications
type CLIFormatter struct {
	DisableTimestamp bool
	DisableLevel     bool
	DisableColors    bool
}

func (f *CLIFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	if f.DisableLevel && f.DisableTimestamp {
		b.WriteString(entry.Message)
		b.WriteByte('\n')
		return b.Bytes(), nil
	}

	if !f.DisableTimestamp {
		b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}

	if !f.DisableLevel {
		levelColor := ""
		resetColor := ""
		if !f.DisableColors {
			switch entry.Level {
			case logrus.ErrorLevel:
				levelColor = "\033[31m" // Red
			case logrus.WarnLevel:
				levelColor = "\033[33m" // Yellow
			case logrus.InfoLevel:
				levelColor = "\033[36m" // Cyan
			case logrus.DebugLevel:
				levelColor = "\033[37m" // White
			}
			resetColor = "\033[0m"
		}

		b.WriteString(levelColor)
		b.WriteString(strings.ToUpper(entry.Level.String()))
		b.WriteString(resetColor)
		b.WriteString(": ")
	}

	b.WriteString(entry.Message)

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		if k == "log_type" || k == "emoji" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(fmt.Sprintf(" %s=%v", k, entry.Data[k]))
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

// Setup configures logging for the CLI, writing user logs to stdout and
// operational logs to stderr.
func Setup(verbose bool, jsonLogs bool, quiet bool) {
	SetupWithWriters(verbose, jsonLogs, quiet, os.Stdout, os.Stderr)
}

// SetupWithWriters is Setup with explicit destinations.
func SetupWithWriters(verbose bool, jsonLogs bool, quiet bool, userOut, opOut io.Writer) {
	// Check environment variables (these override CLI flags)
	if envLogMode := os.Getenv("LOG_MODE"); envLogMode != "" {
		switch envLogMode {
		case "quiet":
			quiet = true
			verbose = false
		case "verbose", "debug":
			verbose = true
			quiet = false
		}
	}

	if envLogFormat := os.Getenv("LOG_FORMAT"); envLogFormat != "" {
		switch envLogFormat {
		case "json":
			jsonLogs = true
		case "text":
			jsonLogs = false
		}
	}

	ul := GetLogger()
	internalLogger := ul.GetInternalLogger()

	var level logrus.Level
	if quiet {
		level = logrus.ErrorLevel
	} else if verbose {
		level = logrus.DebugLevel
	} else {
		level = logrus.InfoLevel
	}

	internalLogger.Hooks = make(logrus.LevelHooks)

	// Output handled by hooks
	ul.Configure(io.Discard, level, &logrus.TextFormatter{})

	hook := NewOutputRouterHook()
	hook.UserWriter = userOut
	hook.OpWriter = opOut

	if jsonLogs {
		hook.UserFormatter = &logrus.JSONFormatter{}
		hook.OpFormatter = &logrus.JSONFormatter{}
	} else {
		hook.UserFormatter = &CLIFormatter{
			DisableTimestamp: true,
			DisableLevel:     true,
			DisableColors:    false,
		}

		if verbose {
			hook.OpFormatter = &logrus.TextFormatter{
				FullTimestamp: true,
				ForceColors:   isTerminal(opOut),
			}
		} else {
			hook.OpFormatter = &CLIFormatter{
				DisableTimestamp: true,
				DisableLevel:     false,
				DisableColors:    !isTerminal(opOut),
			}
		}
	}

	internalLogger.AddHook(hook)

	User = &UserLogger{logger: internalLogger}
	Op = &OpLogger{logger: internalLogger}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && isatty.IsTerminal(f.Fd())
}

// ApplyLevel sets the level from a name such as "warn" or "debug". It is
// meant for configuration files and runs after Setup.
func ApplyLevel(name string) error {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		return err
	}
	GetLogger().SetLevel(level)
	return nil
}
