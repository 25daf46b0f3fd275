package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-practice-web/internal/auth"
	"github.com/gokatarajesh/quiz-practice-web/internal/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page names. The auth package renders its own form pages by name.
const (
	PageHome           = "home"
	PageDashboard      = "dashboard"
	PagePractice       = "practice"
	PageQuiz           = "quiz"
	PageTestsTaken     = "tests_taken"
	PageProgress       = "progress"
	PageAdminDashboard = "admin_dashboard"
	PageError          = "error"
)

var pageTitles = map[string]string{
	auth.PageLogin:     "Login",
	auth.PageRegister:  "Register",
	auth.PageAdminGate: "Admin Access",
	PageHome:           "Quiz Practice",
	PageDashboard:      "Dashboard",
	PagePractice:       "Start a Practice Quiz",
	PageQuiz:           "Quiz",
	PageTestsTaken:     "Tests Taken",
	PageProgress:       "My Progress",
	PageAdminDashboard: "Admin Dashboard",
	PageError:          "Something went wrong",
}

// pageData is what every template receives.
type pageData struct {
	Title string
	User  *auth.Session
	Data  interface{}
}

// Renderer executes the embedded page templates inside the shared layout.
type Renderer struct {
	pages  map[string]*template.Template
	logger zerolog.Logger
}

var _ auth.Renderer = (*Renderer)(nil)

// NewRenderer parses every page once.
func NewRenderer(logger zerolog.Logger) (*Renderer, error) {
	r := &Renderer{
		pages:  make(map[string]*template.Template, len(pageTitles)),
		logger: logger.With().Str("component", "renderer").Logger(),
	}
	for page := range pageTitles {
		tmpl, err := template.New("layout.html").Funcs(templateFuncs).ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", page, err)
		}
		r.pages[page] = tmpl
	}
	return r, nil
}

// Render writes page with status. Template failures become a plain 500.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, page string, data interface{}) {
	tmpl, ok := r.pages[page]
	if !ok {
		r.logger.Error().Str("page", page).Msg("unknown page")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	pd := pageData{Title: pageTitles[page], Data: data}
	if sess, ok := auth.FromContext(req.Context()); ok {
		pd.User = sess
	}
	if titled, ok := data.(interface{ PageTitle() string }); ok && titled.PageTitle() != "" {
		pd.Title = titled.PageTitle()
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout.html", pd); err != nil {
		logger := logging.FromContext(req.Context())
		logger.Error().Err(err).Str("page", page).Msg("template execution failed")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

var templateFuncs = template.FuncMap{
	"inc": func(i int) int { return i + 1 },
	"isSelected": func(values []string, v string) bool {
		for _, s := range values {
			if s == v {
				return true
			}
		}
		return false
	},
}
