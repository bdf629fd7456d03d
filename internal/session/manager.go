package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/atinyakov/StudyNotes/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CookieName is the name of the session cookie.
const CookieName = "studynotes_session"

type ctxKey struct{}

// current is the per-request view of the session.
type current struct {
	id   string
	sess *models.Session
}

// Manager binds sessions to requests through a cookie.
type Manager struct {
	store  Store
	ttl    time.Duration
	secure bool
	log    *zap.Logger
}

// NewManager returns a Manager backed by store. ttl sets the cookie
// lifetime; secure marks the cookie Secure.
func NewManager(store Store, ttl time.Duration, secure bool, log *zap.Logger) *Manager {
	return &Manager{store: store, ttl: ttl, secure: secure, log: log}
}

// Middleware loads the session named by the request cookie into the
// request context and extends the cookie's lifetime. Unknown or missing
// cookies yield an empty session.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cur := &current{sess: &models.Session{}}
		if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
			s, ok, err := m.store.Get(r.Context(), c.Value)
			switch {
			case err != nil:
				m.log.Warn("load session failed", zap.Error(err))
			case ok:
				cur.id, cur.sess = c.Value, s
				m.setCookie(w, c.Value, m.ttl)
			}
		}
		ctx := context.WithValue(r.Context(), ctxKey{}, cur)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// FromContext returns the request's session. It is never nil.
func FromContext(ctx context.Context) *models.Session {
	if cur, ok := ctx.Value(ctxKey{}).(*current); ok {
		return cur.sess
	}
	return &models.Session{}
}

func currentFrom(r *http.Request) *current {
	if cur, ok := r.Context().Value(ctxKey{}).(*current); ok {
		return cur
	}
	return &current{sess: &models.Session{}}
}

// Login records acc in a fresh session and issues its cookie. Any previous
// session of this browser is discarded.
func (m *Manager) Login(w http.ResponseWriter, r *http.Request, acc *models.Account) error {
	cur := currentFrom(r)
	if cur.id != "" {
		if err := m.store.Delete(r.Context(), cur.id); err != nil {
			m.log.Warn("drop previous session failed", zap.Error(err))
		}
	}

	cur.id = uuid.NewString()
	cur.sess = &models.Session{Username: acc.Username, Email: acc.Email}
	if err := m.store.Save(r.Context(), cur.id, cur.sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.setCookie(w, cur.id, m.ttl)
	return nil
}

// RegisterUpload makes relPath and images the session's active document,
// replacing whatever was there.
func (m *Manager) RegisterUpload(w http.ResponseWriter, r *http.Request, relPath string, images []string) error {
	cur := currentFrom(r)
	if cur.id == "" {
		cur.id = uuid.NewString()
	}
	cur.sess.UploadedFilePath = relPath
	cur.sess.ImageFiles = append([]string{}, images...)
	if err := m.store.Save(r.Context(), cur.id, cur.sess); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	m.setCookie(w, cur.id, m.ttl)
	return nil
}

// Logout deletes the session and expires the cookie.
func (m *Manager) Logout(w http.ResponseWriter, r *http.Request) error {
	cur := currentFrom(r)
	var err error
	if cur.id != "" {
		err = m.store.Delete(r.Context(), cur.id)
	}
	cur.id = ""
	cur.sess = &models.Session{}
	m.setCookie(w, "", -1)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (m *Manager) setCookie(w http.ResponseWriter, value string, maxAge time.Duration) {
	c := &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if maxAge < 0 {
		c.MaxAge = -1
	} else if maxAge > 0 {
		c.MaxAge = int(maxAge.Seconds())
	}
	http.SetCookie(w, c)
}
