package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/atinyakov/StudyNotes/internal/service"
	"github.com/atinyakov/StudyNotes/internal/session"
	"github.com/atinyakov/StudyNotes/internal/staging"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// maxUploadMemory bounds the multipart form kept in memory; larger parts
// spill to temporary files.
const maxUploadMemory = 32 << 20

// DocumentService defines the PDF pipeline used by the HTTP handlers.
type DocumentService interface {
	Upload(ctx context.Context, username, filename, contentType string, r io.Reader) (*service.UploadResult, error)
	TopicNotes(ctx context.Context, relPath string, images []string, chapter, topic string) (*service.Notes, error)
	SubtopicNotes(ctx context.Context, relPath string, images []string, chapter, topic, subtopic string) (*service.Notes, error)
	Quiz(ctx context.Context, relPath, chapter string) ([]models.QuizQuestion, error)
}

// DocumentHandler serves the upload, notes and quiz APIs.
type DocumentHandler struct {
	Docs     DocumentService
	Sessions SessionManager
	Log      *zap.Logger
}

// Upload handles POST /upload_pdf/. The multipart field "file" must carry a
// PDF. The staged document becomes the session's active document and the
// response lists its topics.
func (h *DocumentHandler) Upload(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid upload form.")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No file provided.")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	res, err := h.Docs.Upload(r.Context(), sess.Username, header.Filename, contentType, file)
	if res != nil {
		if serr := h.Sessions.RegisterUpload(w, r, res.RelativePath, res.ImageFiles); serr != nil {
			h.Log.Error("record upload in session", zap.Error(serr))
			writeError(w, http.StatusInternalServerError, "Could not store the upload in the session.")
			return
		}
	}
	switch {
	case errors.Is(err, models.ErrInvalidInput) && !staging.IsPDF(contentType):
		writeError(w, http.StatusBadRequest, "Invalid file type. Please upload a PDF file.")
		return
	case errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		h.Log.Error("upload failed", zap.String("user", sess.Username), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error processing upload: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, models.UploadResponse{
		Message:  "File uploaded",
		FileName: res.FileName,
		Topics:   res.Topics,
	})
}

// Quiz handles GET /api/quiz/{chapter}.
func (h *DocumentHandler) Quiz(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if sess.UploadedFilePath == "" {
		h.Log.Error("no file found in session")
		writeError(w, http.StatusBadRequest, "No file found in session. Please upload a PDF.")
		return
	}

	chapter := param(r, "chapter")
	questions, err := h.Docs.Quiz(r.Context(), sess.UploadedFilePath, chapter)
	if h.stateError(w, err) {
		return
	}
	if err != nil {
		h.Log.Error("generate quiz", zap.String("chapter", chapter), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating quiz: %v", err))
		return
	}
	if questions == nil {
		questions = []models.QuizQuestion{}
	}
	writeJSON(w, http.StatusOK, models.QuizResponse{Questions: questions})
}

// SubtopicNotes handles GET /api/notes/{chapter}/{topic}/{subtopic}.
func (h *DocumentHandler) SubtopicNotes(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.activeDocument(w, r)
	if !ok {
		return
	}

	notes, err := h.Docs.SubtopicNotes(r.Context(), sess.UploadedFilePath, sess.ImageFiles,
		param(r, "chapter"), param(r, "topic"), param(r, "subtopic"))
	if h.stateError(w, err) {
		return
	}
	if err != nil {
		h.Log.Error("generate notes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating notes: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, models.SubtopicNotesResponse{
		Notes:     notes.Notes,
		Images:    notes.Images,
		Username:  sess.Username,
		PDFFolder: notes.PDFFolder,
	})
}

// TopicNotes handles GET /api/topic_notes/{chapter}/{topic}.
func (h *DocumentHandler) TopicNotes(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.activeDocument(w, r)
	if !ok {
		return
	}

	notes, err := h.Docs.TopicNotes(r.Context(), sess.UploadedFilePath, sess.ImageFiles,
		param(r, "chapter"), param(r, "topic"))
	if h.stateError(w, err) {
		return
	}
	if err != nil {
		h.Log.Error("generate topic notes", zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Error generating topic notes: %v", err))
		return
	}

	writeJSON(w, http.StatusOK, models.TopicNotesResponse{
		TopicNotes: notes.Notes,
		Images:     notes.Images,
		Username:   sess.Username,
		PDFFolder:  notes.PDFFolder,
	})
}

// activeDocument returns the session when it holds both a user and an
// uploaded document, otherwise it writes a 400 and reports false.
func (h *DocumentHandler) activeDocument(w http.ResponseWriter, r *http.Request) (*models.Session, bool) {
	sess := session.FromContext(r.Context())
	if sess.UploadedFilePath == "" || !sess.LoggedIn() {
		writeError(w, http.StatusBadRequest, "No file found in session or user not logged in.")
		return nil, false
	}
	return sess, true
}

// stateError writes a 400 for errors caused by missing session state or a
// staged file that has disappeared.
func (h *DocumentHandler) stateError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, models.ErrNotFound):
		writeError(w, http.StatusBadRequest, "File not found in storage. Please upload the PDF again.")
		return true
	case errors.Is(err, models.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "No file found in session. Please upload a PDF.")
		return true
	}
	return false
}

// param returns the chi URL parameter key. chi matches on the raw path
// only when the request carries escapes such as %2F, and only then is the
// value still encoded.
func param(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if dec, err := url.PathUnescape(v); err == nil {
		return dec
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}
