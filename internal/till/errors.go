package till

import "errors"

// Error taxonomy for the durability core. Callers branch with errors.Is;
// wrapped detail travels via fmt.Errorf("%w").
var (
	// ErrPermissionDenied means an external storage grant was refused or
	// revoked. Surfaced so the caller can prompt the user again; never
	// retried silently more than once.
	ErrPermissionDenied = errors.New("storage permission denied")

	// ErrCapabilityUnavailable means the host does not support a requested
	// capability at all (as opposed to "not yet granted"). Callers fall
	// back to private storage instead of prompting.
	ErrCapabilityUnavailable = errors.New("capability unavailable on this host")

	// ErrNotFound means an expected file (live database, import file,
	// selected backup) is missing. Fatal to the current operation.
	ErrNotFound = errors.New("not found")

	// ErrEmptyBackup means a supplied import file parsed to zero usable
	// records. Nothing is applied.
	ErrEmptyBackup = errors.New("import contains no usable products")

	// ErrParse means structural parsing of an import file failed in both
	// the JSON and CSV readers.
	ErrParse = errors.New("unparseable import file")

	// ErrRemoteUnavailable means a network or remote-store error occurred
	// during push or pull. Sync state is left unchanged so a retry is safe.
	ErrRemoteUnavailable = errors.New("remote snapshot store unavailable")
)
