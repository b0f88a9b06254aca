package youtube

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

const defaultTimeout = 30 * time.Minute

type Config struct {
	// Command is the interpreter running the helper, e.g. "python3".
	Command string `mapstructure:"command"`
	// Script is the path to the upload helper script.
	Script string `mapstructure:"script"`
	// TimeoutSeconds bounds a single helper run; 0 means 30 minutes.
	TimeoutSeconds int `mapstructure:"timeoutSeconds"`
}

// Uploader shells out to the OAuth-holding helper process that performs the
// actual resumable YouTube upload. The helper prints "PROGRESS <pct>" lines
// while uploading and a final "RESULT <json>" line; everything else on
// stdout is ignored.
type Uploader struct {
	config Config
}

func NewUploader(config Config) *Uploader {
	return &Uploader{config: config}
}

func (u *Uploader) Upload(ctx context.Context, filePath, title, privacy string, onProgress func(percent int)) ([]byte, error) {
	timeout := defaultTimeout
	if u.config.TimeoutSeconds > 0 {
		timeout = time.Duration(u.config.TimeoutSeconds) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, u.config.Command,
		u.config.Script,
		"--file", filePath,
		"--title", title,
		"--privacy", privacy,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to attach to upload helper: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start upload helper: %w", err)
	}

	var result []byte
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()

		if percent, ok := parseProgressLine(line); ok {
			if onProgress != nil {
				onProgress(percent)
			}
			continue
		}
		if raw, ok := parseResultLine(line); ok {
			result = raw
		}
	}
	scanErr := scanner.Err()

	if err := cmd.Wait(); err != nil {
		return nil, fmt.Errorf("upload helper failed: %w, stderr: %s", err, strings.TrimSpace(stderr.String()))
	}
	if scanErr != nil {
		return nil, fmt.Errorf("failed to read upload helper output: %w", scanErr)
	}
	if result == nil {
		return nil, fmt.Errorf("upload helper produced no result")
	}

	log.Info().Str("file", filePath).Str("privacy", privacy).Msg("Provider upload completed")
	return result, nil
}

// parseProgressLine recognizes "PROGRESS <0..100>".
func parseProgressLine(line string) (int, bool) {
	rest, ok := strings.CutPrefix(line, "PROGRESS ")
	if !ok {
		return 0, false
	}
	percent, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil || percent < 0 || percent > 100 {
		return 0, false
	}
	return percent, true
}

// parseResultLine recognizes "RESULT <json>" and returns the raw JSON.
func parseResultLine(line string) ([]byte, bool) {
	rest, ok := strings.CutPrefix(line, "RESULT ")
	if !ok {
		return nil, false
	}
	rest = strings.TrimSpace(rest)
	if rest == "" {
		return nil, false
	}
	return []byte(rest), true
}
