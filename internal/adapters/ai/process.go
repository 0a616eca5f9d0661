// Package ai runs completions through an external helper process.
package ai

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/dkeye/Valley/internal/core"
	"github.com/dkeye/Valley/internal/domain"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

// waitDelay bounds how long Complete waits for the helper's pipes after the
// context kills it.
const waitDelay = 2 * time.Second

type request struct {
	Message string        `json:"message"`
	History []domain.Turn `json:"history"`
}

type response struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// ProcessProvider starts Command once per prompt. The helper reads one JSON
// request on stdin and prints one JSON response on stdout. The history it
// receives ends with the prompt itself.
type ProcessProvider struct {
	Command string
	Args    []string
	Dir     string
}

func NewProcessProvider(command string, args []string, dir string) *ProcessProvider {
	return &ProcessProvider{Command: command, Args: args, Dir: dir}
}

func (p *ProcessProvider) Complete(ctx context.Context, prompt string, history []domain.Turn) (string, error) {
	turns := make([]domain.Turn, 0, len(history)+1)
	turns = append(turns, history...)
	turns = append(turns, domain.Turn{Role: domain.RoleUser, Content: prompt})

	in, err := json.Marshal(request{Message: prompt, History: turns})
	if err != nil {
		return "", fmt.Errorf("%w: encode request: %v", core.ErrUnavailable, err)
	}

	cmd := exec.CommandContext(ctx, p.Command, p.Args...)
	cmd.Dir = p.Dir
	cmd.WaitDelay = waitDelay
	cmd.Env = append(os.Environ(), "PYTHONIOENCODING=utf-8")
	cmd.Stdin = bytes.NewReader(in)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("%w: %v", core.ErrUnavailable, ctx.Err())
		}
		log.Warn().Str("module", "adapters.ai").Str("stderr", strings.TrimSpace(stderr.String())).Msg("helper failed")
		return "", fmt.Errorf("%w: helper: %v", core.ErrUnavailable, err)
	}

	var out response
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out); err != nil {
		return "", fmt.Errorf("%w: decode response: %v", core.ErrUnavailable, err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("%w: %s", core.ErrUnavailable, out.Error)
	}
	if out.Response == "" {
		return "", fmt.Errorf("%w: empty response", core.ErrUnavailable)
	}
	return out.Response, nil
}
