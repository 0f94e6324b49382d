package http

import (
	"errors"
	"net/http"

	"familyfinance/internal/log"
	"familyfinance/internal/uploads"
)

// multipart framing allowance on top of the file size limit
const multipartOverhead = 64 << 10

type uploadResponse struct {
	URL      string `json:"url"`
	Filename string `json:"filename"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.uploads == nil {
		respondError(w, http.StatusServiceUnavailable, "Uploads are not configured")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.uploadMaxBytes+multipartOverhead)
	if err := r.ParseMultipartForm(s.uploadMaxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "File too large")
			return
		}
		respondError(w, http.StatusBadRequest, "Error retrieving file")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Error retrieving file")
		return
	}
	defer file.Close()

	if header.Size > s.uploadMaxBytes {
		respondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	name := uploads.NewName(header.Filename)
	url, err := s.uploads.Save(r.Context(), name, file, contentType)
	if err != nil {
		s.respondFailure(w, r, log.OpUpload, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "File uploaded",
		"filename", name,
		"size", header.Size)
	respondJSON(w, http.StatusOK, uploadResponse{URL: url, Filename: name})
}
