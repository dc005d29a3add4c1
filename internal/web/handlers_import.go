package web

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/JonMunkholm/SentinelAdmin/internal/core"
	"github.com/JonMunkholm/SentinelAdmin/internal/web/templates"
)

// allowedCSVTypes are the declared part types accepted for the "file" field.
// Browsers on Windows report CSV files as application/vnd.ms-excel.
var allowedCSVTypes = map[string]bool{
	"text/csv":                 true,
	"application/vnd.ms-excel": true,
}

// readUpload returns the bytes and name of the multipart "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, "", core.ErrFileTooLarge
		}
		return nil, "", fmt.Errorf("%w: %v", core.ErrMissingFile, err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", core.ErrMissingFile
	}
	defer file.Close()

	if !isCSVUpload(header.Filename, header.Header.Get("Content-Type")) {
		return nil, header.Filename, core.ErrInvalidFileType
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, header.Filename, fmt.Errorf("read upload: %w", err)
	}
	return data, header.Filename, nil
}

// isCSVUpload accepts a CSV media type or a .csv file name.
func isCSVUpload(name, contentType string) bool {
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		return true
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return allowedCSVTypes[strings.ToLower(mediaType)]
}

// handlePreviewImport classifies the rows of an uploaded CSV without writing.
func (s *Server) handlePreviewImport(w http.ResponseWriter, r *http.Request) {
	data, _, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.PreviewImport(r.Context(), data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		renderFragment(w, r, templates.PreviewSummary(result))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleImport inserts the rows of an uploaded CSV.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, name, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	result, err := s.service.ImportRecords(r.Context(), name, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		renderFragment(w, r, templates.ImportSummary(result))
		return
	}
	writeJSON(w, http.StatusOK, result)
}
