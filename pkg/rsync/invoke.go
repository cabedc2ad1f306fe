package rsync

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sidkik/syncb/pkg/errors"
)

// binary is overridden in tests so they don't need rsync installed.
var binary = "rsync"

// Available reports whether the rsync binary can be found on PATH.
func Available() bool {
	_, err := exec.LookPath(binary)
	return err == nil
}

// Invoke runs one rsync transfer from source to dest and parses its itemized
// output. The subprocess is killed once timeout elapses, and the caller gets
// a TimeoutError it can tell apart from an ordinary transfer failure.
func Invoke(ctx context.Context, source, dest string, opts Options,
	timeout time.Duration) (Report, error) {

	source, dest = endpointPaths(source, dest)
	args := append(opts.Build(), source, dest)

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	log.WithField("args", strings.Join(args, " ")).Debug("Invoking rsync")

	cmd := exec.CommandContext(ctx, binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return Report{}, errors.TimeoutError{Item: source, Timeout: timeout}
	}
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return Report{}, errors.WithContext(errors.New(msg), "run rsync")
	}

	return ParseReport(stdout.String(), opts.Delete), nil
}

// endpointPaths appends a trailing separator to both paths when the source is
// a directory, so rsync syncs the directory's contents instead of nesting it
// one level deeper under the destination.
func endpointPaths(source, dest string) (string, string) {
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return source, dest
	}
	if !strings.HasSuffix(source, "/") {
		source += "/"
	}
	if !strings.HasSuffix(dest, "/") {
		dest += "/"
	}
	return source, dest
}
