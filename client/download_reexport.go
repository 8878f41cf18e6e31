package client

import (
	"hash"

	"github.com/aliucord/httpkit/client/download"
)

// Download types shared with [download], so callers of [Response.SaveToFile]
// and [Client.DownloadAsync] need only this package.
type (
	DownloadOption = download.Option
	DownloadError  = download.Error
	IntegrityError = download.IntegrityError
	DownloadResult = download.Result
	DownloadQueue  = download.Queue
)

// Download failures. Match them with [errors.Is]; [ErrChecksumMismatch]
// failures can also be unwrapped into an [*IntegrityError].
var (
	ErrFilesystem            = download.ErrFilesystem
	ErrChecksumMismatch      = download.ErrChecksumMismatch
	ErrContentLengthMismatch = download.ErrContentLengthMismatch
	ErrDownloadCancelled     = download.ErrDownloadCancelled
	ErrGroupShutdown         = download.ErrGroupShutdown
)

// NewDownloadQueue returns a queue for [Client.DownloadAsync] running at
// most maxConcurrent downloads at a time, or any number if maxConcurrent
// is not positive.
func NewDownloadQueue(maxConcurrent int) *DownloadQueue { return download.NewQueue(maxConcurrent) }

// WithSHA1 see [download.WithSHA1].
func WithSHA1(expected string) DownloadOption { return download.WithSHA1(expected) }

// WithChecksum see [download.WithChecksum].
func WithChecksum(newHash func() hash.Hash, expected string) DownloadOption {
	return download.WithChecksum(newHash, expected)
}

// WithProgress see [download.WithProgress].
func WithProgress() DownloadOption { return download.WithProgress() }

// WithSkipExisting see [download.WithSkipExisting].
func WithSkipExisting() DownloadOption { return download.WithSkipExisting() }
