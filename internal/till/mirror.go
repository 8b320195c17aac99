package till

import "context"

// Mirror is a best-effort copy target for exported snapshot files, such as
// a remote object store. Upload failures are advisory: the export that
// triggered the upload has already succeeded.
type Mirror interface {
	// Upload stores content under name. Overwrites any previous object
	// with the same name.
	Upload(ctx context.Context, name string, content []byte) error
}
