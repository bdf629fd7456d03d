package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/atinyakov/StudyNotes/internal/session"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// Pages renders the HTML shells. The pages fetch their content from the
// JSON API.
type Pages struct {
	tmpl *template.Template
	log  *zap.Logger
}

// pageData is the data every template receives.
type pageData struct {
	Title    string
	Username string
	Email    string
	Chapter  string
	Topic    string
	Subtopic string
}

// NewPages parses the embedded templates.
func NewPages(log *zap.Logger) (*Pages, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Pages{tmpl: tmpl, log: log}, nil
}

// Render executes the named template into w. Rendering goes through a
// buffer so a failing template never produces a half-written page.
func (p *Pages) Render(w http.ResponseWriter, r *http.Request, name string, data pageData) {
	sess := session.FromContext(r.Context())
	data.Username = sess.Username
	data.Email = sess.Email

	var buf bytes.Buffer
	if err := p.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		p.log.Error("render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// Home handles GET /.
func (p *Pages) Home(w http.ResponseWriter, r *http.Request) {
	p.Render(w, r, "index.html", pageData{Title: "Home"})
}

// SignupForm handles GET /signup.
func (p *Pages) SignupForm(w http.ResponseWriter, r *http.Request) {
	p.Render(w, r, "signup.html", pageData{Title: "Sign up"})
}

// LoginForm handles GET /login.
func (p *Pages) LoginForm(w http.ResponseWriter, r *http.Request) {
	p.Render(w, r, "login.html", pageData{Title: "Log in"})
}

// Quiz handles GET /quiz/{chapter}.
func (p *Pages) Quiz(w http.ResponseWriter, r *http.Request) {
	chapter := param(r, "chapter")
	p.Render(w, r, "quiz.html", pageData{Title: "Quiz", Chapter: chapter})
}

// Topic handles GET /topic/{chapter}/{topic}.
func (p *Pages) Topic(w http.ResponseWriter, r *http.Request) {
	d := pageData{Chapter: param(r, "chapter"), Topic: param(r, "topic")}
	d.Title = d.Topic
	p.Render(w, r, "topic.html", d)
}

// Subtopic handles GET /subtopic/{chapter}/{topic}/{subtopic}.
func (p *Pages) Subtopic(w http.ResponseWriter, r *http.Request) {
	d := pageData{Chapter: param(r, "chapter"), Topic: param(r, "topic"), Subtopic: param(r, "subtopic")}
	d.Title = d.Subtopic
	p.Render(w, r, "subtopic.html", d)
}
