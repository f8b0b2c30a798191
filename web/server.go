package web

import (
	"encoding/json"
	"net/http"
	"regexp"

	"github.com/gorilla/mux"
	"github.com/gorilla/sessions"
	"github.com/markbates/goth"
	"github.com/markbates/goth/gothic"
	"github.com/markbates/goth/providers/google"
	"github.com/rossesmond/src-bot/pkg/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionName = "session-name"

// Config for the companion web page: a static landing page plus a small JSON
// API listing participating servers behind a Google-OAuth email-domain gate.
type Config struct {
	Addr          string
	SessionSecret string
	GoogleKey     string
	GoogleSecret  string
	CallbackURL   string
	EmailPattern  string
	StaticDir     string
}

// guildEntry is the wire shape the landing page script consumes.
type guildEntry struct {
	Link     string
	Name     string
	ServerId string
	IconHash string
	Range    string
}

type Server struct {
	log     *zap.SugaredLogger
	db      *gorm.DB
	store   *sessions.CookieStore
	allowed *regexp.Regexp
	static  string
}

func NewServer(log *zap.SugaredLogger, db *gorm.DB, config Config) (*Server, error) {
	pattern := config.EmailPattern
	if pattern == "" {
		pattern = `umn\.edu$`
	}
	allowed, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}

	store := sessions.NewCookieStore([]byte(config.SessionSecret))
	gothic.Store = store
	goth.UseProviders(
		google.New(config.GoogleKey, config.GoogleSecret, config.CallbackURL),
	)

	return &Server{
		log:     log,
		db:      db,
		store:   store,
		allowed: allowed,
		static:  config.StaticDir,
	}, nil
}

// Router wires the API routes and the static landing page.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/auth/{provider}", s.AuthHandler)
	r.HandleFunc("/api/callback/{provider}", s.CallbackHandler)
	r.HandleFunc("/api/profile", s.ProfileHandler)
	r.HandleFunc("/api/guilds", s.GuildsHandler)
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(s.static)))
	return r
}

func withProvider(req *http.Request) *http.Request {
	return gothic.GetContextWithProvider(req, mux.Vars(req)["provider"])
}

func (s *Server) AuthHandler(res http.ResponseWriter, req *http.Request) {
	req = withProvider(req)
	if _, err := gothic.CompleteUserAuth(res, req); err == nil {
		res.Header().Set("Location", "/")
		res.WriteHeader(http.StatusTemporaryRedirect)
	} else {
		gothic.BeginAuthHandler(res, req)
	}
}

func (s *Server) CallbackHandler(res http.ResponseWriter, req *http.Request) {
	user, err := gothic.CompleteUserAuth(res, withProvider(req))
	if err != nil {
		s.log.Errorf("Error completing auth: %v", err)
		http.Error(res, "authentication failed", http.StatusUnauthorized)
		return
	}

	session, _ := s.store.Get(req, sessionName)
	session.Values["email"] = user.Email
	if err := session.Save(req, res); err != nil {
		s.log.Errorf("Error saving session: %v", err)
	}

	res.Header().Set("Location", "/")
	res.WriteHeader(http.StatusTemporaryRedirect)
}

// sessionEmail returns the logged-in email, or "" when there is none.
func (s *Server) sessionEmail(req *http.Request) string {
	session, _ := s.store.Get(req, sessionName)
	email, _ := session.Values["email"].(string)
	return email
}

// ProfileHandler reports whether the session belongs to an allowed email
// domain, as a bare JSON boolean.
func (s *Server) ProfileHandler(res http.ResponseWriter, req *http.Request) {
	email := s.sessionEmail(req)
	if email != "" && s.allowed.MatchString(email) {
		res.Write([]byte("true"))
	} else {
		res.Write([]byte("false"))
	}
}

// GuildsHandler lists participating servers. Gated the same way as the
// profile; unauthenticated callers get nothing.
func (s *Server) GuildsHandler(res http.ResponseWriter, req *http.Request) {
	email := s.sessionEmail(req)
	if email == "" || !s.allowed.MatchString(email) {
		return
	}

	var rows []models.WebGuild
	if err := s.db.Find(&rows).Error; err != nil {
		s.log.Errorf("Error listing guilds: %v", err)
		http.Error(res, "internal error", http.StatusInternalServerError)
		return
	}
	guilds := make([]guildEntry, 0, len(rows))
	for _, row := range rows {
		guilds = append(guilds, guildEntry{
			Link:     row.Link,
			Name:     row.Name,
			ServerId: row.ServerID,
			IconHash: row.IconHash,
			Range:    row.Range,
		})
	}
	res.Header().Set("Content-Type", "application/json")
	json.NewEncoder(res).Encode(guilds)
}
