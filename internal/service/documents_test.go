package service

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/atinyakov/StudyNotes/internal/gateway"
	"github.com/atinyakov/StudyNotes/internal/models"
	"go.uber.org/zap"
)

const testRoot = "/srv/uploads"

type mockStager struct {
	StageFunc         func(username, filename, contentType string, r io.Reader) (string, error)
	ExtractImagesFunc func(ctx context.Context, pdfPath, imagesDir string) ([]string, error)
	ResolveFunc       func(rel string) (string, error)
}

func (m *mockStager) Stage(username, filename, contentType string, r io.Reader) (string, error) {
	return m.StageFunc(username, filename, contentType, r)
}

func (m *mockStager) ExtractImages(ctx context.Context, pdfPath, imagesDir string) ([]string, error) {
	return m.ExtractImagesFunc(ctx, pdfPath, imagesDir)
}

func (m *mockStager) ImagesDir(username string) string {
	return filepath.Join(testRoot, username, "images")
}

func (m *mockStager) Relative(p string) (string, error) {
	rel, err := filepath.Rel(testRoot, p)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", models.ErrInvalidInput
	}
	return filepath.ToSlash(rel), nil
}

func (m *mockStager) Resolve(rel string) (string, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(rel)
	}
	return filepath.Join(testRoot, rel), nil
}

type mockGateway struct {
	registered []string

	ListTopicsFunc    func(h gateway.FileHandle) (models.Outline, error)
	TopicNotesFunc    func(h gateway.FileHandle, chapter, topic string, images []string) (models.NoteResult, error)
	SubtopicNotesFunc func(h gateway.FileHandle, chapter, topic, subtopic string, images []string) (models.NoteResult, error)
	QuizFunc          func(h gateway.FileHandle, chapter string) (models.Quiz, error)
	RegisterErr       error
}

func (m *mockGateway) Register(_ context.Context, filePath string) (gateway.FileHandle, error) {
	if m.RegisterErr != nil {
		return gateway.FileHandle{}, m.RegisterErr
	}
	m.registered = append(m.registered, filePath)
	return gateway.FileHandle{URI: "gs://b/" + filepath.Base(filePath), MIMEType: "application/pdf"}, nil
}

func (m *mockGateway) ListTopics(_ context.Context, h gateway.FileHandle) (models.Outline, error) {
	return m.ListTopicsFunc(h)
}

func (m *mockGateway) TopicNotes(_ context.Context, h gateway.FileHandle, chapter, topic string, images []string) (models.NoteResult, error) {
	return m.TopicNotesFunc(h, chapter, topic, images)
}

func (m *mockGateway) SubtopicNotes(_ context.Context, h gateway.FileHandle, chapter, topic, subtopic string, images []string) (models.NoteResult, error) {
	return m.SubtopicNotesFunc(h, chapter, topic, subtopic, images)
}

func (m *mockGateway) Quiz(_ context.Context, h gateway.FileHandle, chapter string) (models.Quiz, error) {
	return m.QuizFunc(h, chapter)
}

func TestStage_RelativePaths(t *testing.T) {
	st := &mockStager{
		StageFunc: func(username, filename, contentType string, r io.Reader) (string, error) {
			return filepath.Join(testRoot, username, filename), nil
		},
		ExtractImagesFunc: func(ctx context.Context, pdfPath, imagesDir string) ([]string, error) {
			if imagesDir != filepath.Join(testRoot, "alice", "images") {
				t.Errorf("imagesDir = %q", imagesDir)
			}
			return []string{filepath.Join(imagesDir, "book_1.png"), filepath.Join(imagesDir, "book_2.jpg")}, nil
		},
	}
	svc := NewDocumentService(st, &mockGateway{}, zap.NewNop())

	doc, err := svc.Stage(context.Background(), "alice", "book.pdf", "application/pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	want := &StagedDocument{
		FileName:     "book.pdf",
		RelativePath: "alice/book.pdf",
		ImageFiles:   []string{"alice/images/book_1.png", "alice/images/book_2.jpg"},
	}
	if !reflect.DeepEqual(doc, want) {
		t.Errorf("Stage = %+v; want %+v", doc, want)
	}
}

func TestStage_NoImages(t *testing.T) {
	st := &mockStager{
		StageFunc: func(username, filename, contentType string, r io.Reader) (string, error) {
			return filepath.Join(testRoot, username, filename), nil
		},
		ExtractImagesFunc: func(context.Context, string, string) ([]string, error) {
			return []string{}, nil
		},
	}
	svc := NewDocumentService(st, &mockGateway{}, zap.NewNop())

	doc, err := svc.Stage(context.Background(), "alice", "book.pdf", "application/pdf", strings.NewReader("%PDF"))
	if err != nil {
		t.Fatalf("Stage returned error: %v", err)
	}
	if doc.ImageFiles == nil || len(doc.ImageFiles) != 0 {
		t.Errorf("ImageFiles = %#v; want empty non-nil slice", doc.ImageFiles)
	}
}

func TestStage_Errors(t *testing.T) {
	stageErr := &mockStager{
		StageFunc: func(string, string, string, io.Reader) (string, error) {
			return "", models.ErrInvalidInput
		},
	}
	svc := NewDocumentService(stageErr, &mockGateway{}, zap.NewNop())
	if _, err := svc.Stage(context.Background(), "alice", "a.txt", "text/plain", nil); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Stage error = %v; want ErrInvalidInput", err)
	}

	extractErr := &mockStager{
		StageFunc: func(username, filename, _ string, _ io.Reader) (string, error) {
			return filepath.Join(testRoot, username, filename), nil
		},
		ExtractImagesFunc: func(context.Context, string, string) ([]string, error) {
			return nil, models.ErrStorage
		},
	}
	svc = NewDocumentService(extractErr, &mockGateway{}, zap.NewNop())
	if _, err := svc.Stage(context.Background(), "alice", "a.pdf", "application/pdf", nil); !errors.Is(err, models.ErrStorage) {
		t.Errorf("Stage error = %v; want ErrStorage", err)
	}
}

func TestOutline_RegistersResolvedFile(t *testing.T) {
	gw := &mockGateway{
		ListTopicsFunc: func(h gateway.FileHandle) (models.Outline, error) {
			if h.URI != "gs://b/book.pdf" {
				t.Errorf("handle = %+v", h)
			}
			return models.Outline{Chapters: []models.Chapter{{Title: "Ch1"}}}, nil
		},
	}
	svc := NewDocumentService(&mockStager{}, gw, zap.NewNop())

	outline, err := svc.Outline(context.Background(), "alice/book.pdf")
	if err != nil {
		t.Fatalf("Outline returned error: %v", err)
	}
	if len(outline.Chapters) != 1 || outline.Chapters[0].Title != "Ch1" {
		t.Errorf("Outline = %+v", outline)
	}
	if want := []string{filepath.Join(testRoot, "alice/book.pdf")}; !reflect.DeepEqual(gw.registered, want) {
		t.Errorf("registered = %v; want %v", gw.registered, want)
	}
}

func TestUpload(t *testing.T) {
	stager := func() *mockStager {
		return &mockStager{
			StageFunc: func(username, filename, _ string, _ io.Reader) (string, error) {
				return filepath.Join(testRoot, username, filename), nil
			},
			ExtractImagesFunc: func(context.Context, string, string) ([]string, error) {
				return []string{}, nil
			},
		}
	}

	t.Run("topics listed", func(t *testing.T) {
		gw := &mockGateway{
			ListTopicsFunc: func(gateway.FileHandle) (models.Outline, error) {
				return models.Outline{Chapters: []models.Chapter{{Title: "Ch1"}}}, nil
			},
		}
		svc := NewDocumentService(stager(), gw, zap.NewNop())

		res, err := svc.Upload(context.Background(), "alice", "book.pdf", "application/pdf", strings.NewReader("%PDF"))
		if err != nil {
			t.Fatalf("Upload returned error: %v", err)
		}
		if res.RelativePath != "alice/book.pdf" || res.FileName != "book.pdf" {
			t.Errorf("staged part = %+v", res.StagedDocument)
		}
		if len(res.Topics.Chapters) != 1 {
			t.Errorf("Topics = %+v", res.Topics)
		}
	})

	t.Run("outline fails after staging", func(t *testing.T) {
		gw := &mockGateway{RegisterErr: models.ErrUpstream}
		svc := NewDocumentService(stager(), gw, zap.NewNop())

		res, err := svc.Upload(context.Background(), "alice", "book.pdf", "application/pdf", strings.NewReader("%PDF"))
		if !errors.Is(err, models.ErrUpstream) {
			t.Fatalf("Upload error = %v; want ErrUpstream", err)
		}
		if res == nil || res.RelativePath != "alice/book.pdf" {
			t.Errorf("expected staged result alongside error, got %+v", res)
		}
	})

	t.Run("staging fails", func(t *testing.T) {
		st := &mockStager{
			StageFunc: func(string, string, string, io.Reader) (string, error) {
				return "", models.ErrInvalidInput
			},
		}
		svc := NewDocumentService(st, &mockGateway{}, zap.NewNop())

		res, err := svc.Upload(context.Background(), "alice", "a.txt", "text/plain", nil)
		if !errors.Is(err, models.ErrInvalidInput) || res != nil {
			t.Errorf("Upload = %+v, %v; want nil, ErrInvalidInput", res, err)
		}
	})
}

func TestRegister_MissingState(t *testing.T) {
	svc := NewDocumentService(&mockStager{}, &mockGateway{}, zap.NewNop())
	if _, err := svc.Quiz(context.Background(), "", "Ch1"); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("Quiz error = %v; want ErrInvalidInput", err)
	}

	missing := &mockStager{ResolveFunc: func(string) (string, error) { return "", models.ErrNotFound }}
	svc = NewDocumentService(missing, &mockGateway{}, zap.NewNop())
	if _, err := svc.TopicNotes(context.Background(), "alice/gone.pdf", nil, "Ch1", "T"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("TopicNotes error = %v; want ErrNotFound", err)
	}

	svc = NewDocumentService(&mockStager{}, &mockGateway{RegisterErr: models.ErrUpstream}, zap.NewNop())
	if _, err := svc.Outline(context.Background(), "alice/book.pdf"); !errors.Is(err, models.ErrUpstream) {
		t.Errorf("Outline error = %v; want ErrUpstream", err)
	}
}

func TestTopicNotes_ShapesImages(t *testing.T) {
	known := []string{"alice/images/book_1.png", "alice/images/book_2.jpg"}
	gw := &mockGateway{
		TopicNotesFunc: func(h gateway.FileHandle, chapter, topic string, images []string) (models.NoteResult, error) {
			if chapter != "Ch1" || topic != "Cells" {
				t.Errorf("chapter/topic = %q/%q", chapter, topic)
			}
			if !reflect.DeepEqual(images, known) {
				t.Errorf("known images = %v", images)
			}
			return models.NoteResult{
				Notes: "Cells are small.",
				Images: []models.NoteImage{
					{Filename: "alice/images/book_2.jpg", Caption: "Mitochondria"},
					{Filename: "book_1.png", Caption: "A cell"},
					{Filename: "alice/images/invented.png", Caption: "Hallucinated"},
				},
			}, nil
		},
	}
	svc := NewDocumentService(&mockStager{}, gw, zap.NewNop())

	notes, err := svc.TopicNotes(context.Background(), "alice/book.pdf", known, "Ch1", "Cells")
	if err != nil {
		t.Fatalf("TopicNotes returned error: %v", err)
	}
	want := &Notes{
		Notes: "Cells are small.",
		Images: []models.NoteImage{
			{Filename: "book_2.jpg", Caption: "Mitochondria"},
			{Filename: "book_1.png", Caption: "A cell"},
		},
		PDFFolder: "images",
	}
	if !reflect.DeepEqual(notes, want) {
		t.Errorf("TopicNotes = %+v; want %+v", notes, want)
	}
}

func TestNotes_Fallbacks(t *testing.T) {
	gw := &mockGateway{
		TopicNotesFunc: func(gateway.FileHandle, string, string, []string) (models.NoteResult, error) {
			return models.NoteResult{}, nil
		},
		SubtopicNotesFunc: func(gateway.FileHandle, string, string, string, []string) (models.NoteResult, error) {
			return models.NoteResult{}, nil
		},
	}
	svc := NewDocumentService(&mockStager{}, gw, zap.NewNop())

	topic, err := svc.TopicNotes(context.Background(), "alice/book.pdf", nil, "Ch1", "T")
	if err != nil {
		t.Fatalf("TopicNotes returned error: %v", err)
	}
	if topic.Notes != NoTopicNotes || topic.PDFFolder != "" || topic.Images == nil || len(topic.Images) != 0 {
		t.Errorf("TopicNotes = %+v", topic)
	}

	sub, err := svc.SubtopicNotes(context.Background(), "alice/book.pdf", nil, "Ch1", "T", "S")
	if err != nil {
		t.Fatalf("SubtopicNotes returned error: %v", err)
	}
	if sub.Notes != NoSubtopicNotes {
		t.Errorf("SubtopicNotes notes = %q", sub.Notes)
	}
}

func TestQuiz_PassesThroughErrors(t *testing.T) {
	wantErr := errors.New("quota exceeded")
	gw := &mockGateway{
		QuizFunc: func(gateway.FileHandle, string) (models.Quiz, error) {
			return models.Quiz{}, wantErr
		},
	}
	svc := NewDocumentService(&mockStager{}, gw, zap.NewNop())

	if _, err := svc.Quiz(context.Background(), "alice/book.pdf", "Ch1"); err != wantErr {
		t.Fatalf("Quiz error = %v; want %v", err, wantErr)
	}
}
