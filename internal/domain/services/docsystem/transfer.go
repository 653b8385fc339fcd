package docsystem

import (
	"context"
	"io"

	"hrdocs/internal/domain/models/docsystem"
)

// TransferEngine moves bytes in (upload) and out (file download, folder archive).
type TransferEngine interface {
	// Upload stores each file independently and persists the successes in one batch
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)

	// DownloadFile opens the bytes of a single file item
	DownloadFile(ctx context.Context, req *DownloadRequest) (*FileDownload, error)

	// DownloadFolder writes a zip archive of the folder subtree to w
	DownloadFolder(ctx context.Context, req *DownloadRequest, w io.Writer) (*ArchiveResult, error)
}

// UploadedFile is one file of an upload batch.
// Open is called once; the engine closes the returned reader.
type UploadedFile struct {
	Name     string
	MimeType string // optional, detected when empty
	Size     int64  // declared size, -1 when unknown
	Open     func() (io.ReadCloser, error)
}

// UploadRequest represents a batch upload into one folder
type UploadRequest struct {
	EmployeeID string
	ParentID   *string
	Files      []UploadedFile
	OwnerRole  docsystem.Role
}

// UploadFailure is a per-file warning of a best-effort batch
type UploadFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UploadResult reports the persisted items and the files that were skipped
type UploadResult struct {
	Uploaded []docsystem.Item `json:"uploaded"`
	Failed   []UploadFailure  `json:"failed"`
}

// DownloadRequest identifies the file or folder to export
type DownloadRequest struct {
	EmployeeID string
	ItemID     string
	Viewer     docsystem.Role
}

// FileDownload is an open file body; the caller must close Body.
type FileDownload struct {
	Name     string
	MimeType string
	Size     int64
	Body     io.ReadCloser
}

// ArchiveResult summarizes a folder export
type ArchiveResult struct {
	FileName string `json:"file_name"` // "<folder name>.zip"
	Entries  int    `json:"entries"`
	Skipped  int    `json:"skipped"` // files without retrievable bytes
}
