package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/templui/filesmanager/internal/ctxkeys"
	"github.com/templui/filesmanager/internal/model"
	"github.com/templui/filesmanager/internal/service"
)

type FileHandler struct {
	fileService *service.FileService
}

func NewFileHandler(fileService *service.FileService) *FileHandler {
	return &FileHandler{
		fileService: fileService,
	}
}

type createNodeRequest struct {
	Name     string         `json:"name"`
	Type     string         `json:"type"`
	ParentID model.ParentID `json:"parentId"`
	IsPublic bool           `json:"isPublic"`
	Data     string         `json:"data"`
}

func (h *FileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createNodeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	node, err := h.fileService.CreateNode(r.Context(), ctxkeys.UserID(r.Context()), service.CreateNodeInput{
		Name:     req.Name,
		Type:     req.Type,
		ParentID: req.ParentID,
		IsPublic: req.IsPublic,
		Data:     req.Data,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, node)
}

func (h *FileHandler) Show(w http.ResponseWriter, r *http.Request) {
	node, err := h.fileService.Node(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// List pages through the caller's nodes. Without parentId every node is
// listed; parentId=0 selects the root. A page that doesn't parse is page 0.
func (h *FileHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var parentID *model.ParentID
	if query.Has("parentId") {
		p := model.ParseParentID(query.Get("parentId"))
		parentID = &p
	}

	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 0 {
		page = 0
	}

	nodes, err := h.fileService.ListNodes(r.Context(), ctxkeys.UserID(r.Context()), parentID, page)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if nodes == nil {
		nodes = []*model.Node{}
	}

	writeJSON(w, http.StatusOK, nodes)
}

func (h *FileHandler) Publish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, true)
}

func (h *FileHandler) Unpublish(w http.ResponseWriter, r *http.Request) {
	h.setVisibility(w, r, false)
}

func (h *FileHandler) setVisibility(w http.ResponseWriter, r *http.Request, isPublic bool) {
	node, err := h.fileService.SetVisibility(r.Context(), ctxkeys.UserID(r.Context()), r.PathValue("id"), isPublic)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, node)
}

// Data streams a node's content. Anonymous callers only see public nodes.
func (h *FileHandler) Data(w http.ResponseWriter, r *http.Request) {
	content, contentType, err := h.fileService.Content(
		r.Context(),
		ctxkeys.UserID(r.Context()),
		r.PathValue("id"),
		r.URL.Query().Get("size"),
	)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	defer content.Close()

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, err = io.Copy(w, content)
	if err != nil {
		slog.Warn("failed to stream file content", "file_id", r.PathValue("id"), "error", err)
	}
}
