package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/anki-boi/PDF-to-MD/internal/apperr"
	"github.com/anki-boi/PDF-to-MD/internal/cleanup"
	"github.com/anki-boi/PDF-to-MD/internal/pipeline"
)

func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	// Limit total request size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024*1024) // extra 1MB for form overhead

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
			return
		}
		jsonError(w, "invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "Upload a PDF file first.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxUploadBytes+1))
	if err != nil {
		jsonError(w, "failed to read file", http.StatusInternalServerError)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		jsonError(w, fmt.Sprintf("file exceeds max size (%d bytes)", s.cfg.MaxUploadBytes), http.StatusRequestEntityTooLarge)
		return
	}

	opts, err := s.optionsFromForm(r)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	filename := sanitizeFilename(header.Filename)
	res, err := s.converter.Convert(r.Context(), pipeline.Request{
		SourceName: filename,
		Data:       data,
		Options:    opts,
	})
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.log.Error("conversion failed", "filename", filename, "status", code, "error", err)
		}
		jsonError(w, err.Error(), code)
		return
	}

	w.Header().Set("Content-Type", res.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": res.Filename}))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Header().Set("X-Extraction-Method", res.Diagnostics.Method)
	w.Header().Set("X-Chapter-Count", strconv.Itoa(res.Chapters))
	w.Write(res.Data)
}

// optionsFromForm reads the conversion options. Booleans are on only for
// the literal "true"; use_subdecks defaults to on when the field is absent.
func (s *Server) optionsFromForm(r *http.Request) (pipeline.Options, error) {
	opts := pipeline.Options{
		ForceOCR:        r.FormValue("force_ocr") == "true",
		OCRLang:         formOr(r, "ocr_lang", s.cfg.OCRLang),
		MinCharsPerPage: s.cfg.MinCharsPerPage,
		AICleanup:       r.FormValue("ai_cleanup") == "true",
		APIKey:          formOr(r, "api_key", s.cfg.CleanupAPIKey),
		Model:           formOr(r, "model", s.cfg.CleanupModel),
		Endpoint:        formOr(r, "endpoint", s.cfg.CleanupEndpoint),
		DeckName:        formOr(r, "deck_name", s.cfg.DeckName),
		UseSubdecks:     true,
	}
	if _, ok := r.Form["use_subdecks"]; ok {
		opts.UseSubdecks = r.FormValue("use_subdecks") == "true"
	}
	if v := strings.TrimSpace(r.FormValue("min_chars_per_page")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return opts, apperr.Input("min_chars_per_page must be an integer, got %q", v)
		}
		opts.MinCharsPerPage = n
	}
	format, err := pipeline.ParseFormat(r.FormValue("format"))
	if err != nil {
		return opts, err
	}
	opts.Format = format
	return opts, nil
}

func formOr(r *http.Request, key, fallback string) string {
	if v := strings.TrimSpace(r.FormValue(key)); v != "" {
		return v
	}
	return fallback
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	var apiErr *cleanup.APIError
	switch {
	case apperr.IsInput(err):
		return http.StatusBadRequest
	case apperr.IsDependency(err):
		return http.StatusServiceUnavailable
	case errors.As(err, &apiErr), errors.Is(err, pipeline.ErrCleanup):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func sanitizeFilename(name string) string {
	// Strip path components, keep only the base name.
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "document.pdf"
	}
	return name
}
