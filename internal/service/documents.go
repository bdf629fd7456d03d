package service

import (
	"context"
	"fmt"
	"io"
	"path"

	"github.com/atinyakov/StudyNotes/internal/gateway"
	"github.com/atinyakov/StudyNotes/internal/models"
	"go.uber.org/zap"
)

// Fallback texts used when the AI service returns no notes.
const (
	NoTopicNotes    = "No notes generated for this topic."
	NoSubtopicNotes = "No notes generated for this subtopic."
)

// Stager persists uploads and extracts their images.
type Stager interface {
	Stage(username, filename, contentType string, r io.Reader) (string, error)
	ExtractImages(ctx context.Context, pdfPath, imagesDir string) ([]string, error)
	ImagesDir(username string) string
	Relative(path string) (string, error)
	Resolve(rel string) (string, error)
}

// Gateway is the generative-AI capability used by the pipeline.
type Gateway interface {
	Register(ctx context.Context, filePath string) (gateway.FileHandle, error)
	ListTopics(ctx context.Context, h gateway.FileHandle) (models.Outline, error)
	TopicNotes(ctx context.Context, h gateway.FileHandle, chapter, topic string, knownImages []string) (models.NoteResult, error)
	SubtopicNotes(ctx context.Context, h gateway.FileHandle, chapter, topic, subtopic string, knownImages []string) (models.NoteResult, error)
	Quiz(ctx context.Context, h gateway.FileHandle, chapter string) (models.Quiz, error)
}

// StagedDocument describes a freshly uploaded document.
type StagedDocument struct {
	// FileName is the stored base name.
	FileName string
	// RelativePath is the PDF path relative to the upload root.
	RelativePath string
	// ImageFiles are the extracted images relative to the upload root, in page order.
	ImageFiles []string
}

// Notes is a note result shaped for the client.
type Notes struct {
	Notes     string
	Images    []models.NoteImage
	PDFFolder string
}

// DocumentService runs the upload → staging → AI pipeline.
type DocumentService struct {
	stager  Stager
	gateway Gateway
	log     *zap.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(stager Stager, gw Gateway, log *zap.Logger) *DocumentService {
	return &DocumentService{stager: stager, gateway: gw, log: log}
}

// Stage stores the upload for username and extracts its images.
func (s *DocumentService) Stage(ctx context.Context, username, filename, contentType string, r io.Reader) (*StagedDocument, error) {
	pdfPath, err := s.stager.Stage(username, filename, contentType, r)
	if err != nil {
		return nil, err
	}

	images, err := s.stager.ExtractImages(ctx, pdfPath, s.stager.ImagesDir(username))
	if err != nil {
		return nil, err
	}

	rel, err := s.stager.Relative(pdfPath)
	if err != nil {
		return nil, err
	}
	doc := &StagedDocument{
		FileName:     path.Base(rel),
		RelativePath: rel,
		ImageFiles:   make([]string, 0, len(images)),
	}
	for _, img := range images {
		relImg, err := s.stager.Relative(img)
		if err != nil {
			return nil, err
		}
		doc.ImageFiles = append(doc.ImageFiles, relImg)
	}
	return doc, nil
}

// UploadResult is a staged document together with its topic outline.
type UploadResult struct {
	StagedDocument
	Topics models.Outline
}

// Upload stages the document and lists its topics. When staging succeeds
// but the outline fails, the staged part of the result is returned
// alongside the error so callers can still record the upload.
func (s *DocumentService) Upload(ctx context.Context, username, filename, contentType string, r io.Reader) (*UploadResult, error) {
	doc, err := s.Stage(ctx, username, filename, contentType, r)
	if err != nil {
		return nil, err
	}
	res := &UploadResult{StagedDocument: *doc}

	res.Topics, err = s.Outline(ctx, doc.RelativePath)
	if err != nil {
		return res, err
	}
	s.log.Info("document uploaded",
		zap.String("user", username),
		zap.String("file", doc.FileName),
		zap.Int("images", len(doc.ImageFiles)),
		zap.Int("chapters", len(res.Topics.Chapters)),
	)
	return res, nil
}

// Outline registers the staged document and returns its topic outline.
func (s *DocumentService) Outline(ctx context.Context, relPath string) (models.Outline, error) {
	h, err := s.register(ctx, relPath)
	if err != nil {
		return models.Outline{}, err
	}
	return s.gateway.ListTopics(ctx, h)
}

// TopicNotes generates notes for a topic of the session's document.
func (s *DocumentService) TopicNotes(ctx context.Context, relPath string, images []string, chapter, topic string) (*Notes, error) {
	h, err := s.register(ctx, relPath)
	if err != nil {
		return nil, err
	}
	res, err := s.gateway.TopicNotes(ctx, h, chapter, topic, images)
	if err != nil {
		return nil, err
	}
	return shapeNotes(res, images, NoTopicNotes), nil
}

// SubtopicNotes generates notes for a subtopic of the session's document.
func (s *DocumentService) SubtopicNotes(ctx context.Context, relPath string, images []string, chapter, topic, subtopic string) (*Notes, error) {
	h, err := s.register(ctx, relPath)
	if err != nil {
		return nil, err
	}
	res, err := s.gateway.SubtopicNotes(ctx, h, chapter, topic, subtopic, images)
	if err != nil {
		return nil, err
	}
	return shapeNotes(res, images, NoSubtopicNotes), nil
}

// Quiz generates quiz questions for a chapter of the session's document.
func (s *DocumentService) Quiz(ctx context.Context, relPath, chapter string) ([]models.QuizQuestion, error) {
	h, err := s.register(ctx, relPath)
	if err != nil {
		return nil, err
	}
	quiz, err := s.gateway.Quiz(ctx, h, chapter)
	if err != nil {
		return nil, err
	}
	s.log.Info("generated quiz", zap.String("chapter", chapter), zap.Int("questions", len(quiz.Questions)))
	return quiz.Questions, nil
}

// register resolves relPath inside the upload root and uploads it to the
// AI service. A missing path is ErrInvalidInput, a missing file ErrNotFound.
func (s *DocumentService) register(ctx context.Context, relPath string) (gateway.FileHandle, error) {
	if relPath == "" {
		return gateway.FileHandle{}, fmt.Errorf("%w: no file found in session", models.ErrInvalidInput)
	}
	abs, err := s.stager.Resolve(relPath)
	if err != nil {
		s.log.Error("staged file missing", zap.String("path", relPath), zap.Error(err))
		return gateway.FileHandle{}, err
	}
	return s.gateway.Register(ctx, abs)
}

// shapeNotes keeps only images that were extracted for this document,
// reduces them to base names and derives the folder they live in.
func shapeNotes(res models.NoteResult, known []string, fallback string) *Notes {
	byPath := make(map[string]string, len(known))
	byBase := make(map[string]string, len(known))
	for _, k := range known {
		byPath[k] = k
		byBase[path.Base(k)] = k
	}

	out := &Notes{Notes: res.Notes, Images: []models.NoteImage{}}
	if out.Notes == "" {
		out.Notes = fallback
	}
	for _, img := range res.Images {
		match, ok := byPath[img.Filename]
		if !ok {
			match, ok = byBase[path.Base(img.Filename)]
		}
		if !ok {
			continue
		}
		if out.PDFFolder == "" {
			out.PDFFolder = path.Base(path.Dir(match))
		}
		out.Images = append(out.Images, models.NoteImage{Filename: path.Base(match), Caption: img.Caption})
	}
	return out
}
