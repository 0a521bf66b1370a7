// Package opener hands URLs to the desktop's default handler.
package opener

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"
	"strings"

	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

var ErrUnavailable = errors.New("no url opener command available")

type runFunc func(ctx context.Context, name string, args ...string) (stderr string, err error)

type lookupFunc func(name string) (string, error)

// Opener runs xdg-open on Linux and open on macOS. Schemes it cannot route
// (itms-apps on a desktop) report false from CanOpen.
type Opener struct {
	goos   string
	run    runFunc
	lookup lookupFunc
}

var _ ports.URLOpener = (*Opener)(nil)

func New() *Opener {
	return &Opener{goos: runtime.GOOS, run: runCommand, lookup: exec.LookPath}
}

func (o *Opener) CanOpen(ctx context.Context, rawURL string) bool {
	if ctx.Err() != nil {
		return false
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	case "itms-apps":
		if o.goos != "darwin" {
			return false
		}
	default:
		return false
	}

	_, err = o.lookup(o.command())
	return err == nil
}

func (o *Opener) Open(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	name := o.command()
	if _, err := o.lookup(name); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return ErrUnavailable
		}
		return fmt.Errorf("locate %s: %w", name, err)
	}

	stderr, err := o.run(ctx, name, rawURL)
	if err != nil {
		if stderr == "" {
			return fmt.Errorf("%s %q: %w", name, rawURL, err)
		}
		return fmt.Errorf("%s %q: %w: %s", name, rawURL, err, stderr)
	}

	return nil
}

func (o *Opener) command() string {
	if o.goos == "darwin" {
		return "open"
	}

	return "xdg-open"
}

func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return strings.TrimSpace(stderr.String()), err
}
