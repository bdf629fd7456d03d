package http

import (
	"net/http"

	"github.com/atinyakov/StudyNotes/internal/middleware"
	"go.uber.org/zap"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// NewRouter constructs and returns an HTTP handler that serves the
// StudyNotes pages and API.
//
// Parameters:
//
//	authHandler  - signup, login and logout
//	docHandler   - upload, notes and quiz API
//	fileHandler  - staged images
//	pages        - HTML shells
//	sessions     - middleware loading the session into the request context
//	staticDir    - directory served under /static/
//	logger       - structured logger for request logging middleware
//
// Routes:
//
//	GET  /signup, /login                     → pages
//	POST /signup, /login                     → authHandler
//	GET  /logout                             → authHandler.Logout
//	GET  /                                   → pages.Home
//	POST /upload_pdf/                        → docHandler.Upload (login required)
//	GET  /quiz/{chapter}                     → pages.Quiz
//	GET  /topic/{chapter}/{topic}            → pages.Topic
//	GET  /subtopic/{chapter}/{topic}/{sub}   → pages.Subtopic
//	GET  /api/quiz/{chapter}                 → docHandler.Quiz
//	GET  /api/notes/{chapter}/{topic}/{sub}  → docHandler.SubtopicNotes
//	GET  /api/topic_notes/{chapter}/{topic}  → docHandler.TopicNotes
//	GET  /static/*                           → staticDir
//	GET  /images/*, /{image_name}            → fileHandler.Image
func NewRouter(
	authHandler *AuthHandler,
	docHandler *DocumentHandler,
	fileHandler *FileHandler,
	pages *Pages,
	sessions func(http.Handler) http.Handler,
	staticDir string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.Recoverer)
	r.Use(sessions)

	r.Get("/", pages.Home)
	r.Get("/signup", pages.SignupForm)
	r.Post("/signup", authHandler.Signup)
	r.Get("/login", pages.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)

	r.With(middleware.RequireLogin("You need to be logged in to upload a file.")).
		Post("/upload_pdf/", docHandler.Upload)

	r.Get("/quiz/{chapter}", pages.Quiz)
	r.Get("/topic/{chapter}/{topic}", pages.Topic)
	r.Get("/subtopic/{chapter}/{topic}/{subtopic}", pages.Subtopic)

	r.Route("/api", func(r chi.Router) {
		r.Get("/quiz/{chapter}", docHandler.Quiz)
		r.Get("/notes/{chapter}/{topic}/{subtopic}", docHandler.SubtopicNotes)
		r.Get("/topic_notes/{chapter}/{topic}", docHandler.TopicNotes)
	})

	static(r, staticDir)
	r.Get("/images/*", fileHandler.Image)
	r.Get("/{image_name}", fileHandler.Image)

	return r
}
