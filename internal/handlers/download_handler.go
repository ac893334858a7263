package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/notesvault/notesvault/internal/service"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DownloadHandler serves unit files by their stored name.
type DownloadHandler struct {
	svc       *service.Service
	downloads metric.Int64Counter
}

func NewDownloadHandler(svc *service.Service, meter metric.Meter) *DownloadHandler {
	h := &DownloadHandler{svc: svc}
	if meter != nil {
		h.downloads, _ = meter.Int64Counter("catalog_downloads_total")
	}
	return h
}

// RegisterRoutes registers the routes for this handler
func (h *DownloadHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	router.HandleFunc("/download/{filename}", h.handleDownload).Methods("GET")
}

func (h *DownloadHandler) handleDownload(w http.ResponseWriter, req *http.Request) {
	name := mux.Vars(req)["filename"]

	rc, _, err := h.svc.OpenDownload(req.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	if h.downloads != nil {
		h.downloads.Add(req.Context(), 1)
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "application/octet-stream")
	http.ServeContent(w, req, name, time.Time{}, rc)
}
