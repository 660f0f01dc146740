// Package cron keeps the forecast download job in the user crontab.
package cron

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"slices"
	"strings"

	"github.com/rs/zerolog/log"
)

const (
	// Label tags the crontab line owned by this service.
	Label = "erfp-dataset-download"
	// Schedule runs the download at the start of every hour.
	Schedule = "0 * * * *"
)

// ErrSetup is returned when the crontab could not be updated.
var ErrSetup = errors.New("CRON setup error.") //nolint:stylecheck,revive

// Registrar installs or removes the periodic download job.
type Registrar interface {
	Install(ctx context.Context, command string) error
	Remove(ctx context.Context) error
}

// Reconcile installs command when a forecast directory is configured and removes the job otherwise.
// Failures are wrapped with ErrSetup.
func Reconcile(ctx context.Context, r Registrar, command, forecastDirectory string) error {
	var err error

	if strings.TrimSpace(command) != "" && strings.TrimSpace(forecastDirectory) != "" {
		err = r.Install(ctx, command)
	} else {
		err = r.Remove(ctx)
	}

	if err != nil {
		log.Error().Err(err).Msg("crontab update failed")

		return errors.Join(ErrSetup, err)
	}

	return nil
}

// Rewrite returns crontab without the lines tagged with Label and, if command is set, with a new tagged line.
func Rewrite(crontab, command string) string {
	var out []string

	if crontab = strings.TrimSuffix(crontab, "\n"); crontab != "" {
		out = strings.Split(crontab, "\n")
	}

	out = slices.DeleteFunc(out, func(line string) bool {
		return strings.HasSuffix(strings.TrimSpace(line), "# "+Label)
	})

	if command = strings.TrimSpace(command); command != "" {
		out = append(out, Schedule+" "+command+" # "+Label)
	}

	if len(out) == 0 {
		return ""
	}

	return strings.Join(out, "\n") + "\n"
}

// Crontab edits the crontab of the current user with the crontab binary.
type Crontab struct {
	// Binary defaults to "crontab".
	Binary string
}

func (c Crontab) binary() string {
	if c.Binary == "" {
		return "crontab"
	}

	return c.Binary
}

func (c Crontab) read(ctx context.Context) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.binary(), "-l") //nolint:gosec
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// an empty crontab is reported as an error
		if strings.Contains(stderr.String(), "no crontab") {
			return "", nil
		}

		return "", errors.Join(err, errors.New(strings.TrimSpace(stderr.String()))) //nolint:err113
	}

	return stdout.String(), nil
}

func (c Crontab) write(ctx context.Context, content string) error {
	var stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, c.binary(), "-") //nolint:gosec
	cmd.Stdin = strings.NewReader(content)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return errors.Join(err, errors.New(strings.TrimSpace(stderr.String()))) //nolint:err113
	}

	return nil
}

func (c Crontab) apply(ctx context.Context, command string) error {
	current, err := c.read(ctx)
	if err != nil {
		return err
	}

	return c.write(ctx, Rewrite(current, command))
}

// Install replaces the tagged job by command.
func (c Crontab) Install(ctx context.Context, command string) error {
	return c.apply(ctx, command)
}

// Remove deletes the tagged job.
func (c Crontab) Remove(ctx context.Context) error {
	return c.apply(ctx, "")
}

// Noop accepts every change without touching the system.
type Noop struct{}

// Install implements Registrar.
func (Noop) Install(context.Context, string) error { return nil }

// Remove implements Registrar.
func (Noop) Remove(context.Context) error { return nil }
