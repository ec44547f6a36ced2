// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/walteh/vfsops/pkg/status"
	"github.com/walteh/vfsops/pkg/transaction"
)

// 🎨 Display configuration
const (
	fileIndent   = 4  // spaces to indent operation entries
	nameWidth    = 35 // Base width for the description
	typeWidth    = 18 // Width for the operation kind
	statusWidth  = 15 // Width for status text
	shortIDWidth = 8
)

// 🎯 Logger handles structured logging with console output
type Logger struct {
	zlog    zerolog.Logger
	console io.Writer
	mu      sync.Mutex
	ended   map[string]int
}

// 🏭 New creates a logger printing to console and writing structured events
// at level to structured
func New(console, structured io.Writer, level zerolog.Level) *Logger {
	zlog := zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		w.Out = structured
	})).Level(level).With().Timestamp().Logger()
	return NewWithZerolog(console, zlog)
}

// NewWithZerolog creates a logger writing structured events to zlog
func NewWithZerolog(console io.Writer, zlog zerolog.Logger) *Logger {
	return &Logger{
		zlog:    zlog,
		console: console,
		ended:   make(map[string]int),
	}
}

// 🔑 contextKey is the type for context values
type contextKey struct{}

// 🎯 FromContext gets the logger from context
func FromContext(ctx context.Context) *Logger {
	logger, ok := ctx.Value(contextKey{}).(*Logger)
	if !ok {
		panic("logger not found in context")
	}
	return logger
}

// 🎯 NewContext adds the logger to context, along with its zerolog logger so
// zerolog.Ctx finds it too
func NewContext(ctx context.Context, l *Logger) context.Context {
	zlog := l.Zerolog()
	return zlog.WithContext(context.WithValue(ctx, contextKey{}, l))
}

// Zerolog returns the structured logger
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// 📝 formatOperation formats an operation for display
func (l *Logger) formatOperation(op status.OperationStatus) string {
	var (
		symbol      rune
		symbolColor color.Attribute
		state       string
	)
	switch {
	case op.Faulted:
		symbol, symbolColor, state = '✗', color.FgRed, "failed"
	case op.Canceled:
		symbol, symbolColor, state = '⊘', color.FgYellow, "canceled"
	case op.State == transaction.StateCompleted:
		symbol, symbolColor, state = '✓', color.FgGreen, "ok"
	case op.State == transaction.StateStarted:
		symbol, symbolColor, state = '⟳', color.FgBlue, "running"
	default:
		symbol, symbolColor, state = '-', color.FgHiBlack, "queued"
	}
	if op.HasProgress && !op.Faulted && !op.Canceled {
		state = fmt.Sprintf("%s %s", state, humanize.Bytes(uint64(op.Transferred)))
	}

	typeColor := color.FgBlue
	switch op.Kind {
	case transaction.KindCopyFile, transaction.KindMoveFile, transaction.KindDownloadFile, transaction.KindUploadFile, transaction.KindUpdateFile:
		typeColor = color.FgCyan
	case transaction.KindDeleteFile, transaction.KindDeleteDirectory, transaction.KindMoveDirectory:
		typeColor = color.FgYellow
	}

	// Build the line
	return fmt.Sprintf("%s%s %s %s %s",
		fmt.Sprintf("%*s", fileIndent, ""),
		color.New(symbolColor).Sprint(string(symbol)),
		fmt.Sprintf("%-*s", nameWidth, op.Description),
		color.New(typeColor).Sprint(fmt.Sprintf("%-*s", typeWidth, op.Kind.String())),
		fmt.Sprintf("%-*s", statusWidth, state))
}

// 📝 LogOperation logs an ended operation of tx
func (l *Logger) LogOperation(ctx context.Context, tx status.TransactionStatus, op status.OperationStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ended[tx.ID]++

	fmt.Fprintln(l.console, l.formatOperation(op))

	ev := l.zlog.Info()
	if op.Faulted {
		ev = l.zlog.Error().Err(op.Err)
	}
	ev.Str("transaction", tx.ID).
		Str("operation", op.ID).
		Str("kind", op.Kind.String()).
		Str("description", op.Description).
		Str("state", op.State.String()).
		Bool("faulted", op.Faulted).
		Bool("canceled", op.Canceled).
		Int64("bytes", op.Transferred).
		Msg("operation")
}

// 📝 StartTransaction prints the header of a transaction
func (l *Logger) StartTransaction(ctx context.Context, title string, tx status.TransactionStatus) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.ended[tx.ID] = 0

	fmt.Fprintf(l.console, "[%s]\n", color.New(color.FgCyan).Sprint(title))

	fmt.Fprintf(l.console, "%s %s %s %s\n",
		color.New(color.FgMagenta).Sprint("◆"),
		color.New(color.Bold).Sprint(shortID(tx.ID)),
		color.New(color.Faint).Sprint("•"),
		color.New(color.FgYellow).Sprintf("%d operations, %d parallel", tx.Added, tx.MaxParallel))

	l.zlog.Info().
		Str("transaction", tx.ID).
		Str("title", title).
		Int("operations", tx.Added).
		Int("max_parallel", tx.MaxParallel).
		Msg("starting transaction")
}

// 📝 EndTransaction logs the outcome of a transaction
func (l *Logger) EndTransaction(ctx context.Context, tx status.TransactionStatus, err error) {
	l.mu.Lock()
	logged := l.ended[tx.ID]
	delete(l.ended, tx.ID)
	l.mu.Unlock()

	l.zlog.Info().
		Str("transaction", tx.ID).
		Int("operations", tx.Added).
		Int("logged", logged).
		Int("faulted", tx.Faulted).
		Int("canceled", tx.Canceled).
		Int64("bytes", tx.Transferred()).
		Err(err).
		Msg("transaction complete")

	summary := fmt.Sprintf("%d of %d operations done, %s transferred", tx.Ended-tx.Faulted-tx.Canceled, tx.Added, humanize.Bytes(uint64(tx.Transferred())))
	if err != nil {
		l.Errorf("%s: %v", summary, err)
		return
	}
	l.Success(summary)
}

// 📝 LogNewline logs a newline
func (l *Logger) LogNewline() {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintln(l.console)
}

// 📝 Header logs a header
func (l *Logger) Header(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	nameText := color.New(color.Bold, color.FgCyan).Sprint("vfsops")
	fmt.Fprintf(l.console, "\n%s %s\n\n", nameText, color.New(color.Faint).Sprint("• "+msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Success logs a success message
func (l *Logger) Success(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Warning logs a warning message
func (l *Logger) Warning(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	l.zlog.Warn().Msg(msg)
}

// 📝 Error logs an error message
func (l *Logger) Error(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	l.zlog.Error().Msg(msg)
}

// 📝 Info logs an info message
func (l *Logger) Info(msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.console, "ℹ️  %s\n", color.New(color.FgCyan).Sprint(msg))
	l.zlog.Info().Msg(msg)
}

// 📝 Infof logs a formatted info message
func (l *Logger) Infof(format string, args ...interface{}) {
	l.Info(fmt.Sprintf(format, args...))
}

// 📝 Warningf logs a formatted warning message
func (l *Logger) Warningf(format string, args ...interface{}) {
	l.Warning(fmt.Sprintf(format, args...))
}

// 📝 Errorf logs a formatted error message
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.Error(fmt.Sprintf(format, args...))
}

// 📝 Successf logs a formatted success message
func (l *Logger) Successf(format string, args ...interface{}) {
	l.Success(fmt.Sprintf(format, args...))
}

func shortID(id string) string {
	if len(id) > shortIDWidth {
		return id[:shortIDWidth]
	}
	return id
}
