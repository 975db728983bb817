package order

import "errors"

var (
	// ErrArchiveEntry indicates a listed file could not be opened while archiving.
	ErrArchiveEntry = errors.New("archive entry unavailable")
	// ErrEmptyArchive indicates an archive was requested for no files.
	ErrEmptyArchive = errors.New("no files to archive")
)
