package download

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// tempPattern names the in-flight file created next to the destination.
const tempPattern = ".httpkit-dl-*"

// removeFile deletes an abandoned temp file. Tests replace it.
var removeFile = os.Remove

// Handle streams body to a temp file in the same directory as destPath,
// which is then renamed over destPath on success. On any error the temp
// file is removed and destPath is left exactly as it was.
func Handle(ctx context.Context, body io.Reader, contentLength int64, destPath string, logger *slog.Logger, optFns ...Option) error {
	opts, err := applyOptions(optFns)
	if err != nil {
		return fmt.Errorf("applying option: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	if opts.skipExisting {
		if _, err := os.Stat(destPath); err == nil {
			logger.Info("skipping existing file", "path", destPath)
			return nil
		}
	}

	dir, err := CheckDestination(destPath)
	if err != nil {
		return err
	}

	file, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("creating temp file in %s: %v", dir, err)}
	}

	var successful bool
	defer func() {
		if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
			logger.Error("defer closing temp file", "path", file.Name(), "error", err)
		}
		if !successful {
			if err := removeFile(file.Name()); err != nil && !errors.Is(err, fs.ErrNotExist) {
				logger.Warn("failed to clean up temp file", "path", file.Name(), "error", err)
			}
		}
	}()

	// Hash on the read side so the data is only read once.
	src := io.Reader(&contextReader{ctx: ctx, r: body})
	if opts.verifier != nil {
		src = io.TeeReader(src, opts.verifier)
	}

	var dst io.Writer = file
	if opts.progress {
		dst = newProgressLogger(ctx, dst, logger, destPath, contentLength)
	}

	n, err := io.Copy(dst, src)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("%w: %w", ErrDownloadCancelled, err)
		}

		return fmt.Errorf("copying file body: %w", err)
	}

	if contentLength >= 0 && n != contentLength {
		return &Error{
			Err:    ErrContentLengthMismatch,
			Detail: fmt.Sprintf("expected %d bytes, got %d", contentLength, n),
		}
	}

	if err := opts.verifier.Verify(); err != nil {
		return err
	}

	if err := file.Sync(); err != nil {
		return &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("syncing temp file: %v", err)}
	}
	if err := file.Close(); err != nil {
		return &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("closing temp file: %v", err)}
	}
	if err := os.Rename(file.Name(), destPath); err != nil {
		return &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("renaming temp file: %v", err)}
	}

	successful = true

	return nil
}

// CheckDestination validates destPath before anything is written and
// returns the directory the temp file must be created in.
//
// Only absolute paths are accepted. An existing destination must be a
// writable regular file, and the parent directory must already exist.
func CheckDestination(destPath string) (string, error) {
	if destPath == "" {
		return "", &Error{Err: ErrInvalidDestination, Detail: "path must not be empty"}
	}

	if !filepath.IsAbs(destPath) {
		return "", &Error{Err: ErrInvalidDestination, Detail: fmt.Sprintf("only absolute paths are supported: %s", destPath)}
	}

	info, err := os.Stat(destPath)
	switch {
	case err == nil:
		if info.IsDir() {
			return "", &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("path already exists and is directory: %s", destPath)}
		}
		f, err := os.OpenFile(destPath, os.O_WRONLY, 0)
		if err != nil {
			return "", &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("cannot write to file: %s", destPath)}
		}
		_ = f.Close()
	case !errors.Is(err, fs.ErrNotExist):
		return "", &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("stat %s: %v", destPath, err)}
	}

	dir := filepath.Dir(destPath)
	info, err = os.Stat(dir)
	if err != nil {
		return "", &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("parent directory: %v", err)}
	}
	if !info.IsDir() {
		return "", &Error{Err: ErrFilesystem, Detail: fmt.Sprintf("parent is not a directory: %s", dir)}
	}

	return dir, nil
}
