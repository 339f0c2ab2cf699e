// Package retriever wraps the external yt-dlp binary behind a synchronous
// call with a wall-clock timeout and a tagged outcome.
package retriever

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/ibwaheemi/sports-downloader-docker/internal/domain"
	"github.com/ibwaheemi/sports-downloader-docker/internal/ports"
)

const defaultBinary = "yt-dlp"

// YtdlpRetriever invokes yt-dlp for a single media transfer. Exported
// fields may be adjusted before first use.
type YtdlpRetriever struct {
	// Binary is the yt-dlp executable. Defaults to "yt-dlp" on PATH.
	Binary string

	// MaxDuration is the hard wall-clock budget for one retrieval.
	// Exceeding it terminates the transfer and yields a Timeout outcome.
	MaxDuration time.Duration

	// MaxFileSize caps the transfer size in bytes; passed to yt-dlp.
	MaxFileSize int64

	logger *slog.Logger
}

var _ ports.Retriever = (*YtdlpRetriever)(nil)

// NewYtdlp builds a retriever with the given limits.
func NewYtdlp(maxDuration time.Duration, maxFileSize int64, logger *slog.Logger) *YtdlpRetriever {
	return &YtdlpRetriever{
		Binary:      defaultBinary,
		MaxDuration: maxDuration,
		MaxFileSize: maxFileSize,
		logger:      logger,
	}
}

// CheckInstalled verifies the binary is invocable.
func (y *YtdlpRetriever) CheckInstalled(ctx context.Context) error {
	if err := exec.CommandContext(ctx, y.binary(), "--version").Run(); err != nil {
		return errors.New("yt-dlp is not installed or not on PATH")
	}
	return nil
}

// Retrieve downloads sourceURL to outputPath, resuming a partial output at
// the same path when one exists. The process is killed at MaxDuration; a
// partial file written before the cutoff is left behind as an advisory
// leftover for the next attempt.
func (y *YtdlpRetriever) Retrieve(ctx context.Context, sourceURL, outputPath string) domain.RetrievalOutcome {
	cmdCtx := ctx
	if y.MaxDuration > 0 {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, y.MaxDuration)
		defer cancel()
	}

	args := y.buildArgs(sourceURL, outputPath)
	if y.logger != nil {
		y.logger.Info("invoking retriever", "binary", y.binary(), "source", sourceURL, "output", outputPath)
	}

	cmd := exec.CommandContext(cmdCtx, y.binary(), args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	return classify(err, cmdCtx.Err(), stderr.String())
}

// buildArgs assembles the yt-dlp invocation. Resume is always requested;
// certificate checks are relaxed because replay mirrors routinely serve
// broken TLS.
func (y *YtdlpRetriever) buildArgs(sourceURL, outputPath string) []string {
	args := []string{
		"--no-playlist",
		"--format", formatSelector(sourceURL),
		"--output", outputPath,
		"--continue",
		"--no-part",
		"--retries", "10",
		"--fragment-retries", "10",
		"--retry-sleep", "5",
		"--socket-timeout", "30",
		"--no-check-certificates",
		"--concurrent-fragments", "1",
		"--hls-use-mpegts",
		"--no-warnings",
	}
	if y.MaxFileSize > 0 {
		args = append(args, "--max-filesize", strconv.FormatInt(y.MaxFileSize, 10))
	}
	return append(args, sourceURL)
}

// formatSelector picks the format hint by source host.
func formatSelector(sourceURL string) string {
	switch {
	case strings.Contains(sourceURL, "ok.ru"):
		return "hd/sd/low/lowest"
	case strings.Contains(sourceURL, "youtube.com"), strings.Contains(sourceURL, "youtu.be"):
		return "best[height<=1080]"
	default:
		return "best"
	}
}

// classify maps a process result onto the tagged outcome. A deadline on the
// command context means the wall-clock budget was exceeded.
func classify(runErr, ctxErr error, stderr string) domain.RetrievalOutcome {
	if runErr == nil {
		return domain.RetrievalOutcome{Kind: domain.RetrieveSuccess}
	}
	if errors.Is(ctxErr, context.DeadlineExceeded) {
		return domain.RetrievalOutcome{Kind: domain.RetrieveTimeout, Diagnostics: stderr}
	}
	diagnostics := stderr
	if diagnostics == "" {
		diagnostics = runErr.Error()
	}
	return domain.RetrievalOutcome{Kind: domain.RetrieveFailure, Diagnostics: diagnostics}
}

func (y *YtdlpRetriever) binary() string {
	if y.Binary != "" {
		return y.Binary
	}
	return defaultBinary
}
