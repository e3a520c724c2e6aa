// Package notify implements the user-facing notification surface: short
// success and error messages (toasts) written to the terminal.
package notify

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
)

// Notifier delivers user-visible notifications.
type Notifier interface {
	Success(ctx context.Context, message string)
	Error(ctx context.Context, message string)
}

// Console writes notifications as single coloured lines. Colour follows
// fatih/color's detection (disabled for non-terminals and with NO_COLOR) unless
// forced off with NewConsole's plain flag.
type Console struct {
	mu      sync.Mutex
	out     io.Writer
	success *color.Color
	failure *color.Color
}

// NewConsole creates a Console writing to out.
func NewConsole(out io.Writer, plain bool) *Console {
	c := &Console{
		out:     out,
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}
	if plain {
		c.success.DisableColor()
		c.failure.DisableColor()
	}
	return c
}

// Success prints a green check followed by message.
func (c *Console) Success(_ context.Context, message string) {
	c.write(c.success, "✓", message)
}

// Error prints a red cross followed by message.
func (c *Console) Error(_ context.Context, message string) {
	c.write(c.failure, "✗", message)
}

func (c *Console) write(marker *color.Color, symbol, message string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "%s %s\n", marker.Sprint(symbol), message)
}

// Discard drops every notification.
type Discard struct{}

// Success implements Notifier.
func (Discard) Success(context.Context, string) {}

// Error implements Notifier.
func (Discard) Error(context.Context, string) {}

var (
	_ Notifier = (*Console)(nil)
	_ Notifier = Discard{}
)
