// Package infra implements infrastructure concerns (delivery tool transport,
// session registry, flush journal, user notices).
package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/eztrackd/internal/domain"
)

// ToolResolver checks whether the delivery tool can be invoked at all.
type ToolResolver interface {
	Resolve(path string) bool
}

// PathToolResolver resolves against the filesystem and the search path.
type PathToolResolver struct{}

// Resolve reports whether path is an existing regular file or a command
// found on PATH.
func (PathToolResolver) Resolve(path string) bool {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return true
	}
	_, err := exec.LookPath(path)
	return err == nil
}

// ExecToolRunner implements domain.ToolRunner with a real subprocess.
type ExecToolRunner struct{}

// Run executes the tool and captures exit code, stdout and stderr. A context
// deadline hit surfaces as context.DeadlineExceeded; exit codes other than
// zero are results, not errors.
func (ExecToolRunner) Run(ctx context.Context, path string, args []string) (domain.RunResult, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = nil // Prevent any interactive prompts

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() != nil {
		return domain.RunResult{}, ctx.Err()
	}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return domain.RunResult{
				ExitCode: exitErr.ExitCode(),
				Stdout:   stdout.String(),
				Stderr:   stderr.String(),
			}, nil
		}
		// The tool never ran: missing binary, permission, fork failure.
		return domain.RunResult{}, err
	}

	return domain.RunResult{
		ExitCode: 0,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
	}, nil
}

// CLITransporter implements domain.Transporter by invoking the external
// delivery tool once per batch: the first heartbeat rides the flags, the
// rest travel as a JSON array under --extra-heartbeats.
type CLITransporter struct {
	cliPath  string
	plugin   string // "<name>/<version>" wire identity
	timeout  time.Duration
	runner   domain.ToolRunner
	resolver ToolResolver
	logger   *zap.Logger
}

// NewCLITransporter creates a transporter for the configured tool path.
func NewCLITransporter(cfg domain.TrackerConfig, version string, logger *zap.Logger) *CLITransporter {
	return &CLITransporter{
		cliPath:  cfg.CLIPath,
		plugin:   fmt.Sprintf("%s/%s", domain.PluginName, version),
		timeout:  cfg.CLITimeout,
		runner:   ExecToolRunner{},
		resolver: PathToolResolver{},
		logger:   logger,
	}
}

// NewCLITransporterWithDeps creates a transporter with injectable runner and
// resolver (for testing).
func NewCLITransporterWithDeps(cfg domain.TrackerConfig, version string, runner domain.ToolRunner, resolver ToolResolver, logger *zap.Logger) *CLITransporter {
	t := NewCLITransporter(cfg, version, logger)
	t.runner = runner
	t.resolver = resolver
	return t
}

// Send transmits one batch and classifies the result. The batch is consumed
// whatever happens; no outcome requeues it.
func (t *CLITransporter) Send(ctx context.Context, batch []domain.Heartbeat) domain.FlushOutcome {
	outcome := domain.FlushOutcome{BatchSize: len(batch)}

	if !t.resolver.Resolve(t.cliPath) {
		outcome.Class = domain.OutcomeToolMissing
		return outcome
	}

	primary := batch[0]
	extras := batch[1:]

	// A zero-duration primary is not worth a network call. The secondaries
	// go down with it; checking only the primary is the established
	// behavior of this pipeline.
	if primary.Duration == 0 {
		outcome.Class = domain.OutcomeZeroDuration
		return outcome
	}

	args, err := t.buildArgs(primary, extras)
	if err != nil {
		outcome.Class = domain.OutcomeFault
		outcome.Detail = err.Error()
		return outcome
	}

	runCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.logger.Debug("invoking delivery tool",
		zap.String("path", t.cliPath),
		zap.Int("batch_size", len(batch)))

	res, err := t.runner.Run(runCtx, t.cliPath, args)
	if err != nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			outcome.Class = domain.OutcomeTimeout
			outcome.Detail = fmt.Sprintf("exceeded %s", t.timeout)
		case errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist):
			outcome.Class = domain.OutcomeStartError
			outcome.Detail = err.Error()
		default:
			outcome.Class = domain.OutcomeFault
			outcome.Detail = err.Error()
		}
		return outcome
	}

	outcome.ExitCode = res.ExitCode
	outcome.Stdout = res.Stdout
	outcome.Stderr = res.Stderr

	switch res.ExitCode {
	case domain.ExitCodeAPIKeyError:
		outcome.Class = domain.OutcomeAPIKeyError
	case domain.ExitCodeConfigParseError:
		outcome.Class = domain.OutcomeConfigParseError
	default:
		outcome.Class = domain.OutcomeSent
	}
	return outcome
}

// buildArgs assembles the delivery tool invocation for one batch.
func (t *CLITransporter) buildArgs(primary domain.Heartbeat, extras []domain.Heartbeat) ([]string, error) {
	args := []string{
		"--entity", primary.Entity,
		"--time", formatUnixFloat(primary.Time),
		"--plugin", t.plugin,
	}

	if primary.Duration != 0 {
		args = append(args, "--duration", formatSeconds(primary.Duration))
	}
	if primary.IsWrite {
		args = append(args, "--write")
	}
	if primary.Language != "" {
		args = append(args, domain.LanguageFlag(primary.Language), primary.Language)
	}

	if len(extras) > 0 {
		payload, err := marshalExtras(extras)
		if err != nil {
			return nil, fmt.Errorf("failed to encode extra heartbeats: %w", err)
		}
		args = append(args, "--extra-heartbeats", payload)
	}

	return args, nil
}

// marshalExtras serializes secondary heartbeats. The language key name
// follows the same sentinel rule as the primary's flag.
func marshalExtras(extras []domain.Heartbeat) (string, error) {
	objs := make([]map[string]any, 0, len(extras))
	for _, hb := range extras {
		obj := map[string]any{
			"entity":    hb.Entity,
			"timestamp": unixFloat(hb.Time),
			"is_write":  hb.IsWrite,
			"duration":  hb.Duration,
		}
		obj[domain.LanguageKey(hb.Language)] = hb.Language
		objs = append(objs, obj)
	}
	data, err := json.Marshal(objs)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func unixFloat(t time.Time) float64 {
	return float64(t.UnixNano()) / float64(time.Second)
}

// formatUnixFloat renders a timestamp as "seconds.micros".
func formatUnixFloat(t time.Time) string {
	return strconv.FormatFloat(unixFloat(t), 'f', 6, 64)
}

func formatSeconds(d float64) string {
	return strconv.FormatFloat(d, 'f', -1, 64)
}

// Ensure CLITransporter implements domain.Transporter.
var _ domain.Transporter = (*CLITransporter)(nil)
var _ domain.ToolRunner = (*ExecToolRunner)(nil)
