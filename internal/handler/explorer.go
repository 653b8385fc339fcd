package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"

	"hrdocs/internal/config"
	"hrdocs/internal/domain"
	"hrdocs/internal/domain/models/docsystem"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
	"hrdocs/internal/explorer"
	"hrdocs/internal/httputil"
)

// ExplorerHandler exposes explorer sessions over HTTP
type ExplorerHandler struct {
	manager        *explorer.Manager
	maxUploadBytes int64
	logger         *slog.Logger
}

// NewExplorerHandler creates a new explorer handler. maxUploadBytes limits
// each uploaded file.
func NewExplorerHandler(manager *explorer.Manager, maxUploadBytes int64, logger *slog.Logger) *ExplorerHandler {
	return &ExplorerHandler{
		manager:        manager,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// RegisterRoutes mounts the session routes on mux
func (h *ExplorerHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/sessions", h.CreateSession)
	mux.HandleFunc("GET /api/sessions/{id}", h.GetSession)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.DeleteSession)
	mux.HandleFunc("POST /api/sessions/{id}/employee", h.OpenEmployee)
	mux.HandleFunc("DELETE /api/sessions/{id}/employee", h.CloseEmployee)
	mux.HandleFunc("POST /api/sessions/{id}/refresh", h.Refresh)
	mux.HandleFunc("POST /api/sessions/{id}/navigate", h.Navigate)
	mux.HandleFunc("POST /api/sessions/{id}/navigate/up", h.NavigateUp)
	mux.HandleFunc("POST /api/sessions/{id}/select", h.Select)
	mux.HandleFunc("POST /api/sessions/{id}/folders", h.CreateFolder)
	mux.HandleFunc("PATCH /api/sessions/{id}/items/{itemId}", h.RenameItem)
	mux.HandleFunc("DELETE /api/sessions/{id}/items/{itemId}", h.DeleteItem)
	mux.HandleFunc("POST /api/sessions/{id}/items/{itemId}/copy", h.CopyItem)
	mux.HandleFunc("POST /api/sessions/{id}/paste", h.Paste)
	mux.HandleFunc("POST /api/sessions/{id}/uploads", h.Upload)
	mux.HandleFunc("GET /api/sessions/{id}/items/{itemId}/download", h.Download)
	mux.HandleFunc("GET /api/sessions/{id}/search", h.Search)
}

// SessionResponse is the body of every successful JSON response
type SessionResponse struct {
	Session       *explorer.View           `json:"session"`
	Notifications []docsysSvc.Notification `json:"notifications"`
	Result        interface{}              `json:"result,omitempty"`
}

type employeeRequest struct {
	EmployeeID string `json:"employee_id"`
}

type navigateRequest struct {
	FolderID httputil.OptionalString `json:"folder_id"`
}

type selectRequest struct {
	ID *string `json:"id"` // nil clears the selection
}

type nameRequest struct {
	Name string `json:"name"`
}

// session resolves the path session for the authenticated viewer and
// applies the viewer's current role
func (h *ExplorerHandler) session(w http.ResponseWriter, r *http.Request) (*explorer.Session, *explorer.Inbox, bool) {
	s, inbox, err := h.manager.Get(r.PathValue("id"), httputil.GetViewerID(r))
	if err != nil {
		handleError(w, err, nil)
		return nil, nil, false
	}
	s.SetViewer(httputil.GetViewerRole(r))
	return s, inbox, true
}

func respond(w http.ResponseWriter, status int, s *explorer.Session, inbox *explorer.Inbox, result interface{}) {
	httputil.RespondJSON(w, status, SessionResponse{
		Session:       s.View(),
		Notifications: inbox.Drain(),
		Result:        result,
	})
}

// CreateSession starts a session, optionally opening an employee right away.
// POST /api/sessions
// A failed initial load still returns 201; the failure is in notifications.
func (h *ExplorerHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req employeeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	s, inbox := h.manager.Create(httputil.GetViewerID(r), httputil.GetViewerRole(r))
	if req.EmployeeID != "" {
		if err := s.Open(r.Context(), req.EmployeeID); err != nil && !errors.Is(err, domain.ErrStore) {
			handleError(w, err, inbox)
			return
		}
	}
	respond(w, http.StatusCreated, s, inbox, nil)
}

// GetSession renders the session
// GET /api/sessions/{id}
func (h *ExplorerHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	respond(w, http.StatusOK, s, inbox, nil)
}

// DeleteSession closes and forgets the session
// DELETE /api/sessions/{id}
func (h *ExplorerHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.manager.Remove(r.PathValue("id"), httputil.GetViewerID(r)); err != nil {
		handleError(w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// OpenEmployee opens (or switches to) an employee
// POST /api/sessions/{id}/employee
func (h *ExplorerHandler) OpenEmployee(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	var req employeeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := s.Open(r.Context(), req.EmployeeID); err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusOK, s, inbox, nil)
}

// CloseEmployee closes the open employee; the clipboard is kept
// DELETE /api/sessions/{id}/employee
func (h *ExplorerHandler) CloseEmployee(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Close()
	respond(w, http.StatusOK, s, inbox, nil)
}

// Refresh re-fetches the employee's items
// POST /api/sessions/{id}/refresh
func (h *ExplorerHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Refresh(r.Context()); err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusOK, s, inbox, nil)
}

// Navigate enters a folder; a null folder_id goes to the root
// POST /api/sessions/{id}/navigate
func (h *ExplorerHandler) Navigate(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	var req navigateRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !req.FolderID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "folder_id is required (null for the root)")
		return
	}
	if err := s.Navigate(req.FolderID.Value); err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusOK, s, inbox, nil)
}

// NavigateUp enters the parent folder
// POST /api/sessions/{id}/navigate/up
func (h *ExplorerHandler) NavigateUp(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.NavigateUp(); err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusOK, s, inbox, nil)
}

// Select sets or clears the selection
// POST /api/sessions/{id}/select
func (h *ExplorerHandler) Select(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	var req selectRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	var ref *docsystem.ItemRef
	if req.ID != nil && *req.ID != "" {
		ref = &docsystem.ItemRef{ID: *req.ID}
	}
	if err := s.Select(ref); err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusOK, s, inbox, nil)
}

// CreateFolder creates a folder in the current folder
// POST /api/sessions/{id}/folders
func (h *ExplorerHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	folder, err := s.CreateFolder(r.Context(), req.Name)
	if err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusCreated, s, inbox, folder)
}

// RenameItem renames a file or folder. An empty name is a cancelled prompt
// and returns 200 with changed=false.
// PATCH /api/sessions/{id}/items/{itemId}
func (h *ExplorerHandler) RenameItem(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	var req nameRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := s.Rename(r.Context(), r.PathValue("itemId"), req.Name)
	if err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusOK, s, inbox, res)
}

// DeleteItem deletes an item and, for folders, everything below it.
// Without confirm=true nothing is deleted.
// DELETE /api/sessions/{id}/items/{itemId}?confirm=true
func (h *ExplorerHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	confirmed, _ := strconv.ParseBool(r.URL.Query().Get("confirm"))
	res, err := s.Delete(r.Context(), r.PathValue("itemId"), confirmed)
	if err != nil {
		handleError(w, err, inbox)
		return
	}
	if res == nil {
		respond(w, http.StatusOK, s, inbox, nil)
		return
	}
	respond(w, http.StatusOK, s, inbox, res)
}

// CopyItem puts an item on the clipboard
// POST /api/sessions/{id}/items/{itemId}/copy
func (h *ExplorerHandler) CopyItem(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Copy(r.PathValue("itemId")); err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusOK, s, inbox, nil)
}

// Paste duplicates the clipboard item into the current folder
// POST /api/sessions/{id}/paste
func (h *ExplorerHandler) Paste(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	res, err := s.Paste(r.Context())
	if err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusCreated, s, inbox, res)
}

// Upload stores the multipart "files" parts in the current folder.
// Oversized or unreadable files are reported per file; the rest are stored.
// POST /api/sessions/{id}/uploads
func (h *ExplorerHandler) Upload(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, int64(config.MaxUploadFiles)*h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(config.MaxMultipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.RespondError(w, http.StatusRequestEntityTooLarge, "upload exceeds the request size limit")
			return
		}
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("invalid multipart form: %v", err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			h.logger.Warn("failed to remove multipart temp files", "error", err)
		}
	}()

	headers := r.MultipartForm.File["files"]
	if len(headers) > config.MaxUploadFiles {
		httputil.RespondError(w, http.StatusBadRequest, fmt.Sprintf("at most %d files per upload", config.MaxUploadFiles))
		return
	}

	res, err := s.Upload(r.Context(), uploadedFiles(headers))
	if err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusCreated, s, inbox, res)
}

func uploadedFiles(headers []*multipart.FileHeader) []docsysSvc.UploadedFile {
	files := make([]docsysSvc.UploadedFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, docsysSvc.UploadedFile{
			Name:     fh.Filename,
			MimeType: fh.Header.Get("Content-Type"),
			Size:     fh.Size,
			Open: func() (io.ReadCloser, error) {
				return fh.Open()
			},
		})
	}
	return files
}

// Download streams a file's bytes or a zip archive of a folder subtree
// GET /api/sessions/{id}/items/{itemId}/download
func (h *ExplorerHandler) Download(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	itemID := r.PathValue("itemId")

	if s.IsFolder(itemID) {
		// Buffered so that a failed archive still gets a problem response
		var buf bytes.Buffer
		res, err := s.DownloadFolder(r.Context(), itemID, &buf)
		if err != nil {
			handleError(w, err, inbox)
			return
		}
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", attachment(res.FileName))
		w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
		w.Header().Set("X-Archive-Entries", strconv.Itoa(res.Entries))
		w.Header().Set("X-Archive-Skipped", strconv.Itoa(res.Skipped))
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(buf.Bytes()); err != nil {
			h.logger.Warn("archive write interrupted", "item_id", itemID, "error", err)
		}
		return
	}

	dl, err := s.DownloadFile(r.Context(), itemID)
	if err != nil {
		handleError(w, err, inbox)
		return
	}
	defer dl.Body.Close()

	w.Header().Set("Content-Type", dl.MimeType)
	w.Header().Set("Content-Disposition", attachment(dl.Name))
	if dl.Size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(dl.Size, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, dl.Body); err != nil {
		h.logger.Warn("download interrupted", "item_id", itemID, "error", err)
	}
}

func attachment(name string) string {
	if v := mime.FormatMediaType("attachment", map[string]string{"filename": name}); v != "" {
		return v
	}
	return "attachment"
}

// Search fuzzy-matches item names of the open employee
// GET /api/sessions/{id}/search?q=
func (h *ExplorerHandler) Search(w http.ResponseWriter, r *http.Request) {
	s, inbox, ok := h.session(w, r)
	if !ok {
		return
	}
	results, err := s.Search(r.URL.Query().Get("q"))
	if err != nil {
		handleError(w, err, inbox)
		return
	}
	respond(w, http.StatusOK, s, inbox, results)
}
