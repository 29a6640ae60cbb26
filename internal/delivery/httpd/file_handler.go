package httpd

import (
	"net/http"

	"github.com/NourhenHamza/TalentGo-sub001/internal/models"
	"github.com/NourhenHamza/TalentGo-sub001/internal/workflow"
	"github.com/go-chi/chi/v5"
)

func (h *Handler) UploadReportFile(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	if h.maxUpload > 0 {
		// Room for the multipart envelope on top of the file itself.
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, string(workflow.KindValidation), "Invalid multipart form", nil)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, string(workflow.KindValidation), "File is required",
			map[string]string{"file": "required"})
		return
	}
	defer file.Close()

	req := &models.UploadReportFileRequest{
		FileName:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	}

	response, err := h.reportFileService.Upload(r.Context(), ac, req, file)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeCreated(w, response)
}

// DownloadReportFile resolves a report's stable fileUrl to a fresh presigned
// storage URL and redirects to it.
func (h *Handler) DownloadReportFile(w http.ResponseWriter, r *http.Request) {
	ac, ok := authContext(w, r)
	if !ok {
		return
	}

	url, err := h.reportFileService.DownloadURL(r.Context(), ac, chi.URLParam(r, "*"))
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	http.Redirect(w, r, url, http.StatusFound)
}
