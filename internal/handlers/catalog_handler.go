package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/notesvault/notesvault/internal/catalog"
	"github.com/notesvault/notesvault/internal/service"
	"go.uber.org/zap"
)

// CatalogHandler exposes the subject/unit CRUD and stats endpoints.
type CatalogHandler struct {
	svc       *service.Service
	adminOnly mux.MiddlewareFunc
	maxUpload int64
}

// NewCatalogHandler creates a catalog handler. adminOnly guards the
// mutating routes; maxUpload caps request bodies in bytes.
func NewCatalogHandler(svc *service.Service, adminOnly mux.MiddlewareFunc, maxUpload int64) *CatalogHandler {
	return &CatalogHandler{svc: svc, adminOnly: adminOnly, maxUpload: maxUpload}
}

// RegisterRoutes registers the routes for this handler
func (h *CatalogHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/api/subjects", h.handleListSubjects).Methods("GET")
	router.HandleFunc("/api/subject/{subjectKey}", h.handleGetSubject).Methods("GET")
	router.HandleFunc("/api/stats", h.handleStats).Methods("GET")
	router.HandleFunc("/api/activity", h.handleActivity).Methods("GET")

	admin := router.PathPrefix("/api").Subrouter()
	admin.Use(h.adminOnly)
	admin.HandleFunc("/unit", h.handleCreateUnit).Methods("POST")
	admin.HandleFunc("/unit/{subjectKey}/{unitId}", h.handleUpdateUnit).Methods("PUT")
	admin.HandleFunc("/unit/{subjectKey}/{unitId}", h.handleDeleteUnit).Methods("DELETE")
	admin.HandleFunc("/subject/{subjectKey}", h.handleDeleteSubject).Methods("DELETE")
}

func (h *CatalogHandler) handleListSubjects(w http.ResponseWriter, req *http.Request) {
	snapshot, err := h.svc.ListSubjects(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snapshot)
}

func (h *CatalogHandler) handleGetSubject(w http.ResponseWriter, req *http.Request) {
	subj, err := h.svc.Subject(req.Context(), mux.Vars(req)["subjectKey"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, subj)
}

func (h *CatalogHandler) handleStats(w http.ResponseWriter, req *http.Request) {
	stats, err := h.svc.Stats(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *CatalogHandler) handleActivity(w http.ResponseWriter, req *http.Request) {
	activity, err := h.svc.RecentActivity(req.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if activity == nil {
		activity = []catalog.Activity{}
	}
	writeJSON(w, http.StatusOK, activity)
}

func (h *CatalogHandler) handleCreateUnit(w http.ResponseWriter, req *http.Request) {
	upload, cleanup, ok := h.parseUploadForm(w, req)
	if !ok {
		return
	}
	defer cleanup()

	in := service.CreateUnitInput{
		SubjectKey:     strings.TrimSpace(req.FormValue("subject")),
		SubjectDisplay: strings.TrimSpace(req.FormValue("subjectDisplay")),
		Draft: catalog.UnitDraft{
			Number:      req.FormValue("unitNumber"),
			Icon:        req.FormValue("unitIcon"),
			Title:       req.FormValue("unitTitle"),
			Description: req.FormValue("unitDescription"),
			Topics:      req.FormValue("unitTopics"),
			PagesCount:  req.FormValue("pagesCount"),
		},
		File: upload,
	}

	unit, err := h.svc.CreateUnit(req.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusCreated, "Unit created successfully", map[string]interface{}{"unit": unit})
}

func (h *CatalogHandler) handleUpdateUnit(w http.ResponseWriter, req *http.Request) {
	subjectKey, unitID, ok := unitVars(w, req)
	if !ok {
		return
	}
	upload, cleanup, parsed := h.parseUploadForm(w, req)
	if !parsed {
		return
	}
	defer cleanup()

	var patch catalog.UnitPatch
	if v, ok := formValue(req, "unitNumber"); ok {
		patch.Number = &v
	}
	if v, ok := formValue(req, "unitIcon"); ok {
		patch.Icon = &v
	}
	if v, ok := formValue(req, "unitTitle"); ok {
		patch.Title = &v
	}
	if v, ok := formValue(req, "unitDescription"); ok {
		patch.Description = &v
	}
	if v, ok := formValue(req, "unitTopics"); ok {
		patch.Topics = &v
	}
	if v, ok := formValue(req, "pagesCount"); ok {
		pages, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			writeFailure(w, http.StatusBadRequest, "pagesCount must be a number")
			return
		}
		patch.PagesCount = &pages
	}

	unit, err := h.svc.UpdateUnit(req.Context(), subjectKey, unitID, patch, upload)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Unit updated successfully", map[string]interface{}{"unit": unit})
}

func (h *CatalogHandler) handleDeleteUnit(w http.ResponseWriter, req *http.Request) {
	subjectKey, unitID, ok := unitVars(w, req)
	if !ok {
		return
	}
	if err := h.svc.DeleteUnit(req.Context(), subjectKey, unitID); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Unit deleted successfully", nil)
}

func (h *CatalogHandler) handleDeleteSubject(w http.ResponseWriter, req *http.Request) {
	if err := h.svc.DeleteSubject(req.Context(), mux.Vars(req)["subjectKey"]); err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "Subject deleted successfully", nil)
}

// parseUploadForm decodes a multipart form with an optional "file" part.
// The request body is capped; files are buffered by the multipart reader.
func (h *CatalogHandler) parseUploadForm(w http.ResponseWriter, req *http.Request) (*service.FileUpload, func(), bool) {
	req.Body = http.MaxBytesReader(w, req.Body, h.maxUpload)
	if err := req.ParseMultipartForm(32 << 20); err != nil {
		writeFailure(w, http.StatusBadRequest, "Invalid upload form")
		return nil, nil, false
	}
	cleanup := func() {
		if req.MultipartForm != nil {
			_ = req.MultipartForm.RemoveAll()
		}
	}

	file, header, err := req.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, cleanup, true
	}
	if err != nil {
		cleanup()
		writeFailure(w, http.StatusBadRequest, "Invalid file upload")
		return nil, nil, false
	}
	upload := &service.FileUpload{Name: header.Filename, Reader: file}
	prev := cleanup
	cleanup = func() {
		file.Close()
		prev()
	}
	return upload, cleanup, true
}

func unitVars(w http.ResponseWriter, req *http.Request) (string, int, bool) {
	vars := mux.Vars(req)
	unitID, err := strconv.Atoi(vars["unitId"])
	if err != nil {
		writeFailure(w, http.StatusBadRequest, "Unit id must be a number")
		return "", 0, false
	}
	return vars["subjectKey"], unitID, true
}

// formValue distinguishes "field absent" from "field set to empty", which
// partial updates need.
func formValue(req *http.Request, key string) (string, bool) {
	if req.MultipartForm != nil {
		if vs, ok := req.MultipartForm.Value[key]; ok && len(vs) > 0 {
			return vs[0], true
		}
		return "", false
	}
	if vs, ok := req.PostForm[key]; ok && len(vs) > 0 {
		return vs[0], true
	}
	return "", false
}
