package core

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"pcswitch/logger"
	"pcswitch/models"
)

// EgressChecker reports where traffic through the active proxy comes out.
type EgressChecker interface {
	Check(ctx context.Context) (models.GeoInfo, error)
}

// Runner runs an external command and returns its stdout.
type Runner interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

func (ExecRunner) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return out, fmt.Errorf("%s exited with %v: %s", name, exitErr, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return out, nil
}

type CheckerOptions struct {
	ProxyCommand string
	HTTPClient   string
	IPEndpoint   string
	GeoEndpoint  string
	Timeout      time.Duration
}

// Checker shells out to an HTTP client, once through the proxy wrapper to
// learn the egress IP and once directly to geolocate it.
type Checker struct {
	runner Runner
	opts   CheckerOptions
}

func NewChecker(runner Runner, opts CheckerOptions) *Checker {
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Checker{runner: runner, opts: opts}
}

func (c *Checker) run(ctx context.Context, name string, args ...string) (string, error) {
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}
	logger.Debug("Running %s %s", name, strings.Join(args, " "))
	out, err := c.runner.Output(ctx, name, args...)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func (c *Checker) Check(ctx context.Context) (models.GeoInfo, error) {
	var (
		name string
		args []string
	)
	if c.opts.ProxyCommand != "" {
		name = c.opts.ProxyCommand
		args = []string{c.opts.HTTPClient, "-s", c.opts.IPEndpoint}
	} else {
		name = c.opts.HTTPClient
		args = []string{"-s", c.opts.IPEndpoint}
	}
	out, err := c.run(ctx, name, args...)
	if err != nil {
		return models.GeoInfo{}, fmt.Errorf("failed to fetch IP address with %s: %w", name, err)
	}
	ip := strings.TrimSpace(out)
	if ip == "" {
		return models.GeoInfo{}, fmt.Errorf("failed to fetch IP address with %s: empty response", name)
	}
	logger.Info("Egress IP via %s: %s", name, ip)

	geoURL := strings.TrimSuffix(c.opts.GeoEndpoint, "/") + "/" + ip
	body, err := c.run(ctx, c.opts.HTTPClient, "-s", geoURL)
	if err != nil {
		return models.GeoInfo{}, fmt.Errorf("failed to fetch IP info: %w", err)
	}
	return ParseGeo(body), nil
}
