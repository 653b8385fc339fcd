// Package explorer holds the per-session document explorer controller: the
// Closed -> Loading -> Ready state machine, current folder, selection and
// clipboard, bound to the mutation and transfer engines.
package explorer

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"hrdocs/internal/config"
	"hrdocs/internal/domain"
	models "hrdocs/internal/domain/models/docsystem"
	docsysRepo "hrdocs/internal/domain/repositories/docsystem"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
	"hrdocs/internal/service/docsystem"
)

// State is the explorer lifecycle state
type State string

const (
	StateClosed  State = "closed"
	StateLoading State = "loading"
	StateReady   State = "ready"
)

// Services are the collaborators shared by all sessions
type Services struct {
	Store     docsysRepo.ItemStore
	Mutations docsysSvc.MutationEngine
	Transfers docsysSvc.TransferEngine
	Policy    *docsystem.Policy
	Collator  *docsystem.NameCollator
}

// Session is one explorer instance. Mutations are serialized by opMu; mu
// guards the fields. Every async result is applied only if the generation
// and employee it started with are still current.
type Session struct {
	id       string
	ownerID  string
	services *Services
	notifier docsysSvc.Notifier
	logger   *slog.Logger

	opMu sync.Mutex

	mu              sync.Mutex
	state           State
	generation      uint64
	viewer          models.Role
	employeeID      string
	currentFolderID *string
	selection       *models.ItemRef
	clipboard       *models.ClipboardEntry
	index           *docsystem.Index
	lastActive      time.Time
}

// NewSession creates a closed session
func NewSession(id, ownerID string, viewer models.Role, services *Services, notifier docsysSvc.Notifier, logger *slog.Logger) *Session {
	return &Session{
		id:         id,
		ownerID:    ownerID,
		services:   services,
		notifier:   notifier,
		logger:     logger.With("session_id", id),
		state:      StateClosed,
		viewer:     viewer,
		index:      docsystem.NewIndex(nil, services.Policy, services.Collator),
		lastActive: time.Now(),
	}
}

// ID returns the session id
func (s *Session) ID() string { return s.id }

// OwnerID returns the viewer that created the session
func (s *Session) OwnerID() string { return s.ownerID }

// State returns the current lifecycle state
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// EmployeeID returns the open employee ("" when closed)
func (s *Session) EmployeeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.employeeID
}

// SetViewer changes the viewer role; it applies from the next render on
func (s *Session) SetViewer(role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewer = role
	s.lastActive = time.Now()
}

// fail converts err into exactly one notification and returns it
func (s *Session) fail(op string, err error) error {
	if IsStale(err) {
		return err
	}
	msg, level := notificationFor(err)
	s.notifier.Notify(msg, level)
	s.logger.Debug("explorer operation failed", "op", op, "error", err)
	return err
}

// Open loads employeeID's items. Switching to another employee resets the
// current folder and selection but keeps the clipboard. An Open supersedes
// every operation still in flight.
func (s *Session) Open(ctx context.Context, employeeID string) error {
	employeeID = strings.TrimSpace(employeeID)
	if employeeID == "" {
		return s.fail("open", domain.NewValidationError("employee id is required"))
	}

	s.mu.Lock()
	s.generation++
	gen := s.generation
	if employeeID != s.employeeID {
		s.currentFolderID = nil
		s.selection = nil
		s.index = docsystem.NewIndex(nil, s.services.Policy, s.services.Collator)
	}
	s.employeeID = employeeID
	s.state = StateLoading
	s.lastActive = time.Now()
	s.mu.Unlock()

	items, err := s.services.Store.List(ctx, employeeID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		s.logger.Debug("discarding stale employee load", "employee_id", employeeID)
		return errStale
	}
	s.state = StateReady
	if err != nil {
		return s.fail("open", domain.WrapStore("list", err))
	}
	s.applyItemsLocked(items)
	s.logger.Info("employee opened", "employee_id", employeeID, "items", len(items))
	return nil
}

// Close moves to Closed from any state; results still in flight are dropped.
// The clipboard survives so a later paste into another employee is rejected.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.state = StateClosed
	s.employeeID = ""
	s.currentFolderID = nil
	s.selection = nil
	s.index = docsystem.NewIndex(nil, s.services.Policy, s.services.Collator)
}

// Refresh re-fetches the authoritative list
func (s *Session) Refresh(ctx context.Context) error {
	return s.mutate(ctx, "refresh", func(ctx context.Context, snap snapshot) (outcome, error) {
		return outcome{}, nil
	})
}

// applyItemsLocked swaps in a new list and re-validates the folder and selection
func (s *Session) applyItemsLocked(items []models.Item) {
	s.index = docsystem.NewIndex(items, s.services.Policy, s.services.Collator)
	s.guardLocked()
}

// guardLocked resets a current folder that no longer resolves to a visible
// folder and clears a selection that no longer resolves
func (s *Session) guardLocked() {
	if s.currentFolderID != nil {
		item, ok := s.index.GetVisible(*s.currentFolderID, s.viewer)
		if !ok || !item.IsFolder() {
			s.currentFolderID = nil
		}
	}
	if s.selection != nil {
		if _, ok := s.index.GetVisible(s.selection.ID, s.viewer); !ok {
			s.selection = nil
		}
	}
}

// snapshot is the session context an operation runs against
type snapshot struct {
	employeeID      string
	viewer          models.Role
	currentFolderID *string
	clipboard       *models.ClipboardEntry
}

// outcome is what a successful mutation applies to the session
type outcome struct {
	message string // success notification, empty for none
	apply   func() // runs under mu before the new list is applied
}

// mutate runs fn against the store with the session in Loading, then
// re-fetches the list once and returns to Ready. The result is discarded
// if the session was closed or reopened meanwhile.
func (s *Session) mutate(ctx context.Context, op string, fn func(context.Context, snapshot) (outcome, error)) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	s.mu.Lock()
	switch s.state {
	case StateClosed:
		s.mu.Unlock()
		return s.fail(op, domain.NewScopeError("no employee is open"))
	case StateLoading:
		s.mu.Unlock()
		return s.fail(op, domain.NewScopeError("documents are still loading"))
	}
	gen := s.generation
	snap := snapshot{
		employeeID:      s.employeeID,
		viewer:          s.viewer,
		currentFolderID: cloneID(s.currentFolderID),
		clipboard:       s.clipboard,
	}
	s.state = StateLoading
	s.lastActive = time.Now()
	s.mu.Unlock()

	result, opErr := fn(ctx, snap)

	// a failed operation may still have persisted part of its work
	items, listErr := s.services.Store.List(ctx, snap.employeeID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation || snap.employeeID != s.employeeID {
		s.logger.Debug("discarding stale result", "op", op, "employee_id", snap.employeeID)
		return errStale
	}
	s.state = StateReady

	if opErr != nil {
		if listErr == nil {
			s.applyItemsLocked(items)
		}
		return s.fail(op, opErr)
	}
	if result.apply != nil {
		result.apply()
	}
	if listErr != nil {
		return s.fail(op, domain.WrapStore("list", listErr))
	}
	s.applyItemsLocked(items)
	if result.message != "" {
		s.notifier.Notify(result.message, docsysSvc.LevelSuccess)
	}
	return nil
}

// read captures the context for a non-mutating operation
func (s *Session) read(op string) (snapshot, *docsystem.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return snapshot{}, nil, s.fail(op, domain.NewScopeError("no employee is open"))
	}
	s.lastActive = time.Now()
	return snapshot{
		employeeID:      s.employeeID,
		viewer:          s.viewer,
		currentFolderID: cloneID(s.currentFolderID),
		clipboard:       s.clipboard,
	}, s.index, nil
}

// Select updates the selection without a store round trip; nil clears it
func (s *Session) Select(ref *models.ItemRef) error {
	_, idx, err := s.read("select")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if ref == nil {
		s.selection = nil
		return nil
	}
	item, ok := idx.GetVisible(ref.ID, s.viewer)
	if !ok {
		return s.fail("select", domain.NewNotFoundError("item not found"))
	}
	s.selection = &models.ItemRef{Type: item.Type, ID: item.ID}
	return nil
}

// Navigate enters a folder (nil = root). It re-derives from the loaded list.
func (s *Session) Navigate(folderID *string) error {
	if folderID != nil && *folderID == "" {
		folderID = nil
	}
	snap, idx, err := s.read("navigate")
	if err != nil {
		return err
	}
	if folderID != nil {
		item, ok := idx.GetVisible(*folderID, snap.viewer)
		if !ok {
			return s.fail("navigate", domain.NewNotFoundError("folder not found"))
		}
		if !item.IsFolder() {
			return s.fail("navigate", domain.NewValidationError(fmt.Sprintf("%q is not a folder", item.Name)))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentFolderID = cloneID(folderID)
	s.selection = nil
	return nil
}

// NavigateUp enters the parent of the current folder; at the root it is a no-op
func (s *Session) NavigateUp() error {
	snap, idx, err := s.read("navigate_up")
	if err != nil {
		return err
	}
	if snap.currentFolderID == nil {
		return nil
	}
	var parent *string
	if item, ok := idx.Get(*snap.currentFolderID); ok {
		parent = item.ParentID
	}
	return s.Navigate(parent)
}

// CreateFolder creates a folder in the current folder
func (s *Session) CreateFolder(ctx context.Context, name string) (*models.Item, error) {
	var created *models.Item
	err := s.mutate(ctx, "create_folder", func(ctx context.Context, snap snapshot) (outcome, error) {
		folder, err := s.services.Mutations.CreateFolder(ctx, &docsysSvc.CreateFolderRequest{
			EmployeeID: snap.employeeID,
			ParentID:   snap.currentFolderID,
			Name:       name,
			OwnerRole:  snap.viewer,
		})
		if err != nil {
			return outcome{}, err
		}
		created = folder
		return outcome{message: fmt.Sprintf("Folder %q created", folder.Name)}, nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// Rename renames an item; an empty name is a cancelled prompt
func (s *Session) Rename(ctx context.Context, itemID, name string) (*docsysSvc.RenameResult, error) {
	var result *docsysSvc.RenameResult
	err := s.mutate(ctx, "rename", func(ctx context.Context, snap snapshot) (outcome, error) {
		res, err := s.services.Mutations.Rename(ctx, &docsysSvc.RenameRequest{
			EmployeeID: snap.employeeID,
			ItemID:     itemID,
			Name:       name,
			Viewer:     snap.viewer,
		})
		if err != nil {
			return outcome{}, err
		}
		result = res
		if !res.Changed {
			return outcome{}, nil
		}
		return outcome{message: fmt.Sprintf("Renamed to %q", res.Item.Name)}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes an item after explicit confirmation. A declined
// confirmation is a no-op, not an error. Deleting the current folder or one
// of its ancestors moves to the deleted item's former parent.
func (s *Session) Delete(ctx context.Context, itemID string, confirmed bool) (*docsysSvc.DeleteResult, error) {
	if !confirmed {
		return nil, nil
	}
	var result *docsysSvc.DeleteResult
	err := s.mutate(ctx, "delete", func(ctx context.Context, snap snapshot) (outcome, error) {
		res, err := s.services.Mutations.Delete(ctx, &docsysSvc.DeleteRequest{
			EmployeeID: snap.employeeID,
			ItemID:     itemID,
			Viewer:     snap.viewer,
		})
		if err != nil {
			return outcome{}, err
		}
		result = res

		deleted := make(map[string]struct{}, len(res.DeletedIDs))
		for _, id := range res.DeletedIDs {
			deleted[id] = struct{}{}
		}
		out := outcome{
			message: fmt.Sprintf("File %q deleted", res.Item.Name),
			apply: func() {
				if s.currentFolderID == nil {
					return
				}
				if _, gone := deleted[*s.currentFolderID]; gone {
					s.currentFolderID = cloneID(res.Item.ParentID)
				}
			},
		}
		if res.Item.IsFolder() {
			out.message = fmt.Sprintf("Folder %q deleted", res.Item.Name)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Copy records the item in the clipboard; nothing is written to the store
func (s *Session) Copy(itemID string) error {
	snap, idx, err := s.read("copy")
	if err != nil {
		return err
	}
	item, ok := idx.GetVisible(itemID, snap.viewer)
	if !ok {
		return s.fail("copy", domain.NewNotFoundError("item not found"))
	}

	s.mu.Lock()
	s.clipboard = &models.ClipboardEntry{EmployeeID: snap.employeeID, Type: item.Type, ID: item.ID}
	s.mu.Unlock()
	s.notifier.Notify(fmt.Sprintf("Copied %q", item.Name), docsysSvc.LevelInfo)
	return nil
}

// Clipboard returns the current clipboard entry, nil when empty
func (s *Session) Clipboard() *models.ClipboardEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clipboard == nil {
		return nil
	}
	clip := *s.clipboard
	return &clip
}

// Paste duplicates the clipboard item into the current folder
func (s *Session) Paste(ctx context.Context) (*docsysSvc.PasteResult, error) {
	var result *docsysSvc.PasteResult
	err := s.mutate(ctx, "paste", func(ctx context.Context, snap snapshot) (outcome, error) {
		res, err := s.services.Mutations.Paste(ctx, &docsysSvc.PasteRequest{
			EmployeeID:     snap.employeeID,
			Clipboard:      snap.clipboard,
			TargetParentID: snap.currentFolderID,
			Viewer:         snap.viewer,
		})
		if err != nil {
			return outcome{}, err
		}
		result = res
		return outcome{message: fmt.Sprintf("Pasted %q", res.Root.Name)}, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Upload stores files in the current folder. Each failed file produces its
// own warning; the rest of the batch still uploads.
func (s *Session) Upload(ctx context.Context, files []docsysSvc.UploadedFile) (*docsysSvc.UploadResult, error) {
	var result *docsysSvc.UploadResult
	err := s.mutate(ctx, "upload", func(ctx context.Context, snap snapshot) (outcome, error) {
		res, err := s.services.Transfers.Upload(ctx, &docsysSvc.UploadRequest{
			EmployeeID: snap.employeeID,
			ParentID:   snap.currentFolderID,
			Files:      files,
			OwnerRole:  snap.viewer,
		})
		if err != nil {
			return outcome{}, err
		}
		result = res
		out := outcome{apply: func() {
			for _, f := range res.Failed {
				s.notifier.Notify(fmt.Sprintf("Could not upload %q: %s", f.Name, f.Reason), docsysSvc.LevelWarn)
			}
		}}
		if len(res.Uploaded) > 0 {
			out.message = fmt.Sprintf("Uploaded %d file(s)", len(res.Uploaded))
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DownloadFile opens a file's bytes; the caller closes the body
func (s *Session) DownloadFile(ctx context.Context, itemID string) (*docsysSvc.FileDownload, error) {
	snap, _, err := s.read("download_file")
	if err != nil {
		return nil, err
	}
	dl, err := s.services.Transfers.DownloadFile(ctx, &docsysSvc.DownloadRequest{
		EmployeeID: snap.employeeID,
		ItemID:     itemID,
		Viewer:     snap.viewer,
	})
	if err != nil {
		return nil, s.fail("download_file", err)
	}
	return dl, nil
}

// DownloadFolder writes the folder archive to w
func (s *Session) DownloadFolder(ctx context.Context, itemID string, w io.Writer) (*docsysSvc.ArchiveResult, error) {
	snap, _, err := s.read("download_folder")
	if err != nil {
		return nil, err
	}
	res, err := s.services.Transfers.DownloadFolder(ctx, &docsysSvc.DownloadRequest{
		EmployeeID: snap.employeeID,
		ItemID:     itemID,
		Viewer:     snap.viewer,
	}, w)
	if err != nil {
		return nil, s.fail("download_folder", err)
	}
	if res.Skipped > 0 {
		s.notifier.Notify(fmt.Sprintf("%d file(s) without content were left out of %s", res.Skipped, res.FileName), docsysSvc.LevelWarn)
	}
	return res, nil
}

// IsFolder reports whether itemID is a folder visible to the viewer
func (s *Session) IsFolder(itemID string) bool {
	snap, idx, err := s.peek()
	if err != nil {
		return false
	}
	item, ok := idx.GetVisible(itemID, snap.viewer)
	return ok && item.IsFolder()
}

// peek is read without the closed-session notification
func (s *Session) peek() (snapshot, *docsystem.Index, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateClosed {
		return snapshot{}, nil, domain.NewScopeError("no employee is open")
	}
	return snapshot{employeeID: s.employeeID, viewer: s.viewer}, s.index, nil
}

// Search fuzzy-matches names of the visible items of the open employee
func (s *Session) Search(query string) ([]models.SearchResult, error) {
	snap, idx, err := s.read("search")
	if err != nil {
		return nil, err
	}
	return idx.Search(query, snap.viewer, config.MaxSearchResults), nil
}

// View is the render of a session: everything the browser paints
type View struct {
	SessionID       string                 `json:"session_id"`
	State           State                  `json:"state"`
	EmployeeID      string                 `json:"employee_id,omitempty"`
	ViewerRole      models.Role            `json:"viewer_role"`
	CurrentFolderID *string                `json:"current_folder_id"`
	Breadcrumbs     []models.Breadcrumb    `json:"breadcrumbs"`
	Folders         []models.Item          `json:"folders"`
	Files           []models.Item          `json:"files"`
	Tree            *models.TreeNode       `json:"tree"`
	Selection       *models.ItemRef        `json:"selection"`
	Clipboard       *models.ClipboardEntry `json:"clipboard"`
	Empty           bool                   `json:"empty"`
}

// View renders the session. Visibility is applied on every render.
func (s *Session) View() *View {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.guardLocked()
	v := &View{
		SessionID:       s.id,
		State:           s.state,
		EmployeeID:      s.employeeID,
		ViewerRole:      s.viewer,
		CurrentFolderID: cloneID(s.currentFolderID),
		Breadcrumbs:     s.index.Breadcrumbs(s.currentFolderID, s.viewer),
		Folders:         s.index.ChildFolders(s.currentFolderID, s.viewer),
		Files:           s.index.ChildFiles(s.currentFolderID, s.viewer),
		Tree:            s.index.Tree(s.viewer),
	}
	if s.selection != nil {
		sel := *s.selection
		v.Selection = &sel
	}
	if s.clipboard != nil {
		clip := *s.clipboard
		v.Clipboard = &clip
	}
	v.Empty = len(v.Folders) == 0 && len(v.Files) == 0
	return v
}

// LastActive returns when the session was last used
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

func cloneID(id *string) *string {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
