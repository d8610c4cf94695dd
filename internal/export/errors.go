package export

import "errors"

// ErrDownloadFailed marks an attachment binary that could not be fetched.
// It is recorded per item and never aborts the export.
var ErrDownloadFailed = errors.New("media download failed")
