package gtfs_web

import (
	"net/http"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"tarediiran-industries.com/transit-dashboard/internal/panel"
)

const sessionCookie = "gtfs_session"

// Session is one browser: its city and at most one open panel.
type Session struct {
	ID string

	mu     sync.Mutex
	city   string
	panel  panel.Panel
	notice string
}

func (session *Session) City() string {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.city
}

func (session *Session) SetCity(name string) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.city = name
}

func (session *Session) Panel() panel.Panel {
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.panel
}

// Replace installs p as the open panel and closes the one it displaces.
func (session *Session) Replace(p panel.Panel) {
	session.mu.Lock()
	previous := session.panel
	session.panel = p
	session.mu.Unlock()

	if previous != nil {
		previous.Close()
	}
}

func (session *Session) ClosePanel() {
	session.Replace(nil)
}

func (session *Session) SetNotice(notice string) {
	session.mu.Lock()
	defer session.mu.Unlock()
	session.notice = notice
}

// TakeNotice returns the pending notice and clears it.
func (session *Session) TakeNotice() string {
	session.mu.Lock()
	defer session.mu.Unlock()
	notice := session.notice
	session.notice = ""
	return notice
}

// SessionStore keeps the most recently used sessions. An evicted session
// has its panel closed, which cancels any fetch it still has in flight.
type SessionStore struct {
	cache       *lru.Cache[string, *Session]
	defaultCity string
	log         zerolog.Logger
}

func NewSessionStore(size int, defaultCity string, log zerolog.Logger) (*SessionStore, error) {
	store := &SessionStore{defaultCity: defaultCity, log: log}
	cache, err := lru.NewWithEvict(size, func(id string, session *Session) {
		session.ClosePanel()
		store.log.Debug().Str("session", id).Msg("session evicted")
	})
	if err != nil {
		return nil, err
	}
	store.cache = cache
	return store, nil
}

// Get returns the caller's session, starting a new one (and setting its
// cookie) when the request carries none or an unknown one.
func (store *SessionStore) Get(writer http.ResponseWriter, request *http.Request) *Session {
	if cookie, err := request.Cookie(sessionCookie); err == nil {
		if session, ok := store.cache.Get(cookie.Value); ok {
			return session
		}
	}

	session := &Session{ID: uuid.NewString(), city: store.defaultCity}
	store.cache.Add(session.ID, session)
	http.SetCookie(writer, &http.Cookie{
		Name:     sessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session
}

func (store *SessionStore) Len() int {
	return store.cache.Len()
}

// Close drops every session, closing their panels.
func (store *SessionStore) Close() {
	store.cache.Purge()
}
