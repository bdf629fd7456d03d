// Package gateway talks to the generative-AI service. Documents are
// registered by uploading them to Cloud Storage; outlines, notes and quizzes
// are generated by a Gemini model on Vertex AI that reads the registered file.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"cloud.google.com/go/vertexai/genai"
	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FileHandle identifies a document registered with the AI service.
type FileHandle struct {
	URI      string
	MIMEType string
}

// Config holds the settings needed to reach Vertex AI and Cloud Storage.
type Config struct {
	ProjectID string
	Region    string
	Model     string
	Bucket    string
	Prefix    string
	// Timeout bounds each call when positive. Zero means no timeout.
	Timeout time.Duration
}

// generator is satisfied by *genai.GenerativeModel.
type generator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// uploader stores an object and is satisfied by gcsUploader.
type uploader interface {
	Upload(ctx context.Context, object, contentType string, r io.Reader) error
}

// Gateway issues synchronous requests to the AI service. It never retries.
type Gateway struct {
	gen     generator
	up      uploader
	bucket  string
	prefix  string
	timeout time.Duration
	log     *zap.Logger
	closers []io.Closer
}

// New connects to Vertex AI and Cloud Storage using application default credentials.
func New(ctx context.Context, cfg Config, log *zap.Logger) (*Gateway, error) {
	if cfg.ProjectID == "" || cfg.Region == "" {
		return nil, fmt.Errorf("gateway: project and region cannot be empty")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gateway: file bucket cannot be empty")
	}

	aiClient, err := genai.NewClient(ctx, cfg.ProjectID, cfg.Region)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		_ = aiClient.Close()
		return nil, fmt.Errorf("storage.NewClient: %w", err)
	}

	m := aiClient.GenerativeModel(cfg.Model)
	m.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(SystemPrompt)},
	}
	m.GenerationConfig = genai.GenerationConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.2),
	}

	g := newGateway(m, gcsUploader{bucket: storageClient.Bucket(cfg.Bucket)}, cfg, log)
	g.closers = []io.Closer{aiClient, storageClient}
	return g, nil
}

func newGateway(gen generator, up uploader, cfg Config, log *zap.Logger) *Gateway {
	return &Gateway{
		gen:     gen,
		up:      up,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		timeout: cfg.Timeout,
		log:     log,
	}
}

// Close releases the underlying clients.
func (g *Gateway) Close() error {
	var errs []error
	for _, c := range g.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Register uploads the PDF at filePath and returns its handle. Every call
// creates a new object; uploads are not deduplicated.
func (g *Gateway) Register(ctx context.Context, filePath string) (FileHandle, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return FileHandle{}, fmt.Errorf("%w: open %s: %v", models.ErrNotFound, filepath.Base(filePath), err)
	}
	defer f.Close()

	object := path.Join(g.prefix, uuid.NewString(), filepath.Base(filePath))

	ctx, cancel := g.callContext(ctx)
	defer cancel()

	if err := g.up.Upload(ctx, object, "application/pdf", f); err != nil {
		return FileHandle{}, fmt.Errorf("%w: upload %s: %v", models.ErrUpstream, filepath.Base(filePath), err)
	}

	h := FileHandle{
		URI:      fmt.Sprintf("gs://%s/%s", g.bucket, object),
		MIMEType: "application/pdf",
	}
	g.log.Info("registered file", zap.String("uri", h.URI))
	return h, nil
}

// ListTopics asks for the chapter → topic → subtopic outline of the document.
func (g *Gateway) ListTopics(ctx context.Context, h FileHandle) (models.Outline, error) {
	text, err := g.generate(ctx, h, topicsPrompt)
	if err != nil {
		return models.Outline{}, err
	}

	var outline models.Outline
	if err := json.Unmarshal([]byte(text), &outline); err != nil {
		// some responses drop the wrapper object
		var chapters []models.Chapter
		if err2 := json.Unmarshal([]byte(text), &chapters); err2 != nil {
			return models.Outline{}, fmt.Errorf("%w: decode outline: %v", models.ErrUpstream, err)
		}
		outline.Chapters = chapters
	}
	if outline.Chapters == nil {
		outline.Chapters = []models.Chapter{}
	}
	return outline, nil
}

// TopicNotes asks for notes on one topic, letting the model choose among knownImages.
func (g *Gateway) TopicNotes(ctx context.Context, h FileHandle, chapter, topic string, knownImages []string) (models.NoteResult, error) {
	prompt := fmt.Sprintf(topicNotesPrompt, topic, chapter, imageList(knownImages))
	return g.notes(ctx, h, prompt)
}

// SubtopicNotes asks for notes on one subtopic, letting the model choose among knownImages.
func (g *Gateway) SubtopicNotes(ctx context.Context, h FileHandle, chapter, topic, subtopic string, knownImages []string) (models.NoteResult, error) {
	prompt := fmt.Sprintf(subtopicNotesPrompt, subtopic, topic, chapter, imageList(knownImages))
	return g.notes(ctx, h, prompt)
}

// Quiz asks for multiple-choice questions about a chapter.
func (g *Gateway) Quiz(ctx context.Context, h FileHandle, chapter string) (models.Quiz, error) {
	text, err := g.generate(ctx, h, fmt.Sprintf(quizPrompt, chapter))
	if err != nil {
		return models.Quiz{}, err
	}

	var quiz models.Quiz
	if err := json.Unmarshal([]byte(text), &quiz); err != nil {
		var questions []models.QuizQuestion
		if err2 := json.Unmarshal([]byte(text), &questions); err2 != nil {
			return models.Quiz{}, fmt.Errorf("%w: decode quiz: %v", models.ErrUpstream, err)
		}
		quiz.Questions = questions
	}
	if quiz.Questions == nil {
		quiz.Questions = []models.QuizQuestion{}
	}
	return quiz, nil
}

func (g *Gateway) notes(ctx context.Context, h FileHandle, prompt string) (models.NoteResult, error) {
	text, err := g.generate(ctx, h, prompt)
	if err != nil {
		return models.NoteResult{}, err
	}

	var res models.NoteResult
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return models.NoteResult{}, fmt.Errorf("%w: decode notes: %v", models.ErrUpstream, err)
	}
	if res.Images == nil {
		res.Images = []models.NoteImage{}
	}
	return res, nil
}

// refusalPhrases mark plain-text answers where the model declined the task.
// JSON answers are never scanned, their content is the document's.
var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot answer",
	"i cannot provide",
	"as a large language model",
}

// generate sends the file and prompt and returns the cleaned text answer.
func (g *Gateway) generate(ctx context.Context, h FileHandle, prompt string) (string, error) {
	if h.URI == "" {
		return "", fmt.Errorf("%w: file is not registered", models.ErrInvalidInput)
	}

	ctx, cancel := g.callContext(ctx)
	defer cancel()

	start := time.Now()
	resp, err := g.gen.GenerateContent(ctx,
		genai.FileData{MIMEType: h.MIMEType, FileURI: h.URI},
		genai.Text(prompt),
	)
	if err != nil {
		g.log.Error("generate content failed", zap.String("uri", h.URI), zap.Error(err))
		return "", fmt.Errorf("%w: generate content: %v", models.ErrUpstream, err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("%w: empty response", models.ErrUpstream)
	}
	if isRefusal(text) {
		return "", fmt.Errorf("%w: model refused the request", models.ErrUpstream)
	}

	g.log.Debug("generated content",
		zap.String("uri", h.URI),
		zap.Int("chars", len(text)),
		zap.Duration("took", time.Since(start)),
	)
	return text, nil
}

// isRefusal reports whether text is a plain-text answer carrying a refusal
// phrase instead of the requested JSON.
func isRefusal(text string) bool {
	if strings.HasPrefix(text, "{") || strings.HasPrefix(text, "[") {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func (g *Gateway) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout > 0 {
		return context.WithTimeout(ctx, g.timeout)
	}
	return context.WithCancel(ctx)
}

// extractText concatenates the text parts of the first candidate and
// strips a surrounding code fence.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			b.WriteString(string(txt))
		}
	}

	s := strings.TrimSpace(b.String())
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func imageList(images []string) string {
	if len(images) == 0 {
		return "(no images)"
	}
	var b strings.Builder
	for _, img := range images {
		b.WriteString("- ")
		b.WriteString(img)
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// gcsUploader writes objects into a Cloud Storage bucket.
type gcsUploader struct {
	bucket *storage.BucketHandle
}

func (u gcsUploader) Upload(ctx context.Context, object, contentType string, r io.Reader) error {
	w := u.bucket.Object(object).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, r); err != nil {
		_ = w.Close()
		return fmt.Errorf("copy to gcs: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finalize gcs write: %w", err)
	}
	return nil
}
