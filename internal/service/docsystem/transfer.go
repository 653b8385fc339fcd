package docsystem

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrdocs/internal/domain"
	models "hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
)

const defaultMimeType = "application/octet-stream"

var errFileTooLarge = errors.New("file exceeds the upload size limit")

type transferEngine struct {
	store    docsysRepo.ItemStore
	content  docsysRepo.ContentStore
	archives docsysSvc.ArchiveProvider
	policy   *Policy
	collator *NameCollator
	maxBytes int64
	newID    func() string
	now      func() time.Time
	logger   *slog.Logger
}

// NewTransferEngine creates a new transfer engine. maxBytes limits each
// uploaded file; nil policy or collator select the defaults.
func NewTransferEngine(
	store docsysRepo.ItemStore,
	content docsysRepo.ContentStore,
	archives docsysSvc.ArchiveProvider,
	policy *Policy,
	collator *NameCollator,
	maxBytes int64,
	logger *slog.Logger,
) docsysSvc.TransferEngine {
	return &transferEngine{
		store:    store,
		content:  content,
		archives: archives,
		policy:   policy,
		collator: collator,
		maxBytes: maxBytes,
		newID:    uuid.NewString,
		now:      time.Now,
		logger:   logger,
	}
}

func (e *transferEngine) load(ctx context.Context, employeeID string) (*Index, error) {
	items, err := e.store.List(ctx, employeeID)
	if err != nil {
		return nil, domain.WrapStore("list", err)
	}
	return NewIndex(items, e.policy, e.collator), nil
}

// Upload stores each file's bytes independently. A failing file is reported
// in the result and does not abort the batch; the successes are persisted
// with one UploadFiles call.
func (e *transferEngine) Upload(ctx context.Context, req *docsysSvc.UploadRequest) (*docsysSvc.UploadResult, error) {
	parentID := req.ParentID
	if parentID != nil && *parentID == "" {
		parentID = nil
	}

	idx, err := e.load(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	if !models.IsValidParent(idx.Items(), parentID) {
		return nil, domain.NewValidationError("parent folder does not exist")
	}

	result := &docsysSvc.UploadResult{
		Uploaded: []models.Item{},
		Failed:   []docsysSvc.UploadFailure{},
	}
	batch := make([]docsysRepo.NewFile, 0, len(req.Files))
	for _, f := range req.Files {
		file, err := e.ingest(ctx, req.EmployeeID, req.OwnerRole, f)
		if err != nil {
			e.logger.Warn("upload skipped file",
				"employee_id", req.EmployeeID,
				"name", f.Name,
				"error", err,
			)
			uploadFilesTotal.WithLabelValues("failed").Inc()
			result.Failed = append(result.Failed, docsysSvc.UploadFailure{Name: f.Name, Reason: err.Error()})
			continue
		}
		batch = append(batch, *file)
	}

	if len(batch) == 0 {
		return result, nil
	}

	uploaded, err := e.store.UploadFiles(ctx, req.EmployeeID, parentID, batch)
	if err != nil {
		uploadFilesTotal.WithLabelValues("failed").Add(float64(len(batch)))
		return nil, domain.WrapStore("upload_files", err)
	}
	uploadFilesTotal.WithLabelValues("ok").Add(float64(len(uploaded)))
	result.Uploaded = uploaded

	e.logger.Info("files uploaded",
		"employee_id", req.EmployeeID,
		"parent_id", models.ParentKey(parentID),
		"uploaded", len(uploaded),
		"failed", len(result.Failed),
	)
	return result, nil
}

// ingest writes one file to the content store
func (e *transferEngine) ingest(ctx context.Context, employeeID string, owner models.Role, f docsysSvc.UploadedFile) (*docsysRepo.NewFile, error) {
	name := strings.TrimSpace(f.Name)
	if err := validateName(name); err != nil {
		return nil, err
	}
	if e.maxBytes > 0 && f.Size > e.maxBytes {
		return nil, errFileTooLarge
	}
	if f.Open == nil {
		return nil, errors.New("file has no readable content")
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	defer rc.Close()

	var r io.Reader = rc
	if e.maxBytes > 0 {
		r = &limitReader{r: rc, remaining: e.maxBytes}
	}
	br := bufio.NewReader(r)
	mimeType, err := detectMimeType(name, f.MimeType, br)
	if err != nil {
		return nil, err
	}

	ref, size, err := e.content.Put(ctx, employeeID, name, mimeType, br)
	if err != nil {
		if errors.Is(err, errFileTooLarge) {
			return nil, errFileTooLarge
		}
		return nil, fmt.Errorf("failed to store content: %w", err)
	}
	uploadBytesTotal.Add(float64(size))

	return &docsysRepo.NewFile{
		ID:         e.newID(),
		Name:       name,
		OwnerRole:  owner,
		SizeBytes:  size,
		MimeType:   mimeType,
		ContentRef: ref,
		UploadedAt: e.now(),
	}, nil
}

// detectMimeType prefers the client type, then the extension, then sniffs
// the first bytes of br without consuming them
func detectMimeType(name, declared string, br *bufio.Reader) (string, error) {
	if declared != "" && declared != defaultMimeType {
		return declared, nil
	}
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(name))); byExt != "" {
		return byExt, nil
	}
	head, err := br.Peek(512)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		if errors.Is(err, errFileTooLarge) {
			return "", errFileTooLarge
		}
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return http.DetectContentType(head), nil
}

// limitReader fails once more than remaining bytes have been read
type limitReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errFileTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, errFileTooLarge
	}
	return n, err
}

// DownloadFile opens the bytes of a file item
func (e *transferEngine) DownloadFile(ctx context.Context, req *docsysSvc.DownloadRequest) (*docsysSvc.FileDownload, error) {
	idx, err := e.load(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	item, ok := idx.GetVisible(req.ItemID, req.Viewer)
	if !ok {
		return nil, domain.NewNotFoundError("item not found")
	}
	if !item.IsFile() {
		return nil, domain.NewValidationError("only files can be downloaded directly")
	}

	body, err := e.open(ctx, item)
	if err != nil {
		return nil, err
	}

	mimeType := item.MimeType
	if mimeType == "" {
		mimeType = defaultMimeType
	}
	return &docsysSvc.FileDownload{
		Name:     item.Name,
		MimeType: mimeType,
		Size:     item.SizeBytes,
		Body:     body,
	}, nil
}

// open resolves a file's content ref
func (e *transferEngine) open(ctx context.Context, item *models.Item) (io.ReadCloser, error) {
	unavailable := &domain.ContentUnavailableError{
		ItemID:  item.ID,
		Message: fmt.Sprintf("%q has no downloadable content", item.Name),
	}
	if !item.HasContent() {
		return nil, unavailable
	}
	body, err := e.content.Open(ctx, item.ContentRef)
	if err != nil {
		if errors.Is(err, domain.ErrContentUnavailable) {
			return nil, unavailable
		}
		return nil, &domain.StoreError{Op: "open_content", Err: err}
	}
	return body, nil
}

// DownloadFolder writes a zip of the folder's visible subtree to w. Entry
// paths start with the folder name; files without bytes are skipped.
func (e *transferEngine) DownloadFolder(ctx context.Context, req *docsysSvc.DownloadRequest, w io.Writer) (*docsysSvc.ArchiveResult, error) {
	idx, err := e.load(ctx, req.EmployeeID)
	if err != nil {
		return nil, err
	}
	folder, ok := idx.GetVisible(req.ItemID, req.Viewer)
	if !ok {
		return nil, domain.NewNotFoundError("folder not found")
	}
	if !folder.IsFolder() {
		return nil, domain.NewValidationError("only folders can be exported as an archive")
	}

	encoder, err := e.archives.Acquire(ctx)
	if err != nil {
		archivesTotal.WithLabelValues("unavailable").Inc()
		var capErr *domain.CapabilityUnavailableError
		if errors.As(err, &capErr) {
			return nil, err
		}
		return nil, &domain.CapabilityUnavailableError{Capability: ArchiveCapability, Message: err.Error()}
	}

	aw := encoder.Create(w)
	walk := &archiveWalk{engine: e, idx: idx, role: req.Viewer, writer: aw, seen: make(map[string]struct{})}
	if err := walk.folder(ctx, folder.ID, entryName(folder.Name)); err != nil {
		archivesTotal.WithLabelValues("failed").Inc()
		return nil, err
	}
	if err := aw.Finalize(); err != nil {
		archivesTotal.WithLabelValues("failed").Inc()
		return nil, &domain.StoreError{Op: "finalize_archive", Err: err}
	}

	archivesTotal.WithLabelValues("ok").Inc()
	archiveEntriesTotal.WithLabelValues("written").Add(float64(walk.entries))
	archiveEntriesTotal.WithLabelValues("skipped").Add(float64(walk.skipped))

	e.logger.Info("folder archived",
		"employee_id", req.EmployeeID,
		"folder_id", folder.ID,
		"entries", walk.entries,
		"skipped", walk.skipped,
	)
	return &docsysSvc.ArchiveResult{
		FileName: entryName(folder.Name) + ".zip",
		Entries:  walk.entries,
		Skipped:  walk.skipped,
	}, nil
}

// archiveWalk is the depth-first traversal of one folder export
type archiveWalk struct {
	engine *transferEngine
	idx    *Index
	role   models.Role
	writer docsysSvc.ArchiveWriter
	seen   map[string]struct{}

	entries int
	skipped int
}

func (a *archiveWalk) folder(ctx context.Context, folderID, prefix string) error {
	if _, dup := a.seen[folderID]; dup {
		return nil
	}
	a.seen[folderID] = struct{}{}
	if err := ctx.Err(); err != nil {
		return err
	}

	used := make(map[string]int)
	for _, file := range a.idx.ChildFiles(&folderID, a.role) {
		entryPath := prefix + "/" + uniqueEntryName(used, entryName(file.Name))
		if err := a.file(ctx, &file, entryPath); err != nil {
			return err
		}
	}
	for _, sub := range a.idx.ChildFolders(&folderID, a.role) {
		if err := a.folder(ctx, sub.ID, prefix+"/"+uniqueEntryName(used, entryName(sub.Name))); err != nil {
			return err
		}
	}
	return nil
}

func (a *archiveWalk) file(ctx context.Context, item *models.Item, entryPath string) error {
	body, err := a.engine.open(ctx, item)
	if err != nil {
		if errors.Is(err, domain.ErrContentUnavailable) {
			a.skipped++
			a.engine.logger.Warn("archive skipped file without content", "item_id", item.ID, "path", entryPath)
			return nil
		}
		return err
	}
	defer body.Close()

	if err := a.writer.AddEntry(entryPath, body); err != nil {
		return &domain.StoreError{Op: "write_archive", Err: err}
	}
	a.entries++
	return nil
}
