package routes

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	scs "github.com/alexedwards/scs/v2"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/briangreenhill/sheetcoach/internal/auth"
	"github.com/briangreenhill/sheetcoach/internal/coach"
	"github.com/briangreenhill/sheetcoach/internal/failure"
	appmw "github.com/briangreenhill/sheetcoach/internal/http/middleware"
	"github.com/briangreenhill/sheetcoach/internal/workout"
)

// Runner runs the pipeline once
type Runner interface {
	Run(ctx context.Context) (*coach.Result, error)
}

type Server struct {
	Router   *chi.Mux
	Sess     *scs.SessionManager
	Tmpl     *template.Template
	Pipeline Runner
	Forms    auth.FormToken
	Limit    int
	Log      zerolog.Logger
}

type ServerOptions struct {
	Sess     *scs.SessionManager
	Tmpl     *template.Template
	Pipeline Runner
	Secret   []byte
	Limit    int
	Log      zerolog.Logger
}

// NewSession returns the session manager the UI uses
func NewSession() *scs.SessionManager {
	sess := scs.New()
	sess.Lifetime = 12 * time.Hour
	sess.Cookie.HttpOnly = true
	sess.Cookie.SameSite = http.SameSiteLaxMode
	sess.Cookie.Secure = false
	return sess
}

func New(opts ServerOptions) *Server {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(hlog.NewHandler(opts.Log))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, d time.Duration) {
		hlog.FromRequest(r).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Dur("took", d).
			Msg("request")
	}))
	r.Use(chimw.Recoverer)

	sess := opts.Sess
	if sess == nil {
		sess = NewSession()
	}
	s := &Server{
		Router:   r,
		Sess:     sess,
		Tmpl:     opts.Tmpl,
		Pipeline: opts.Pipeline,
		Forms:    auth.FormToken{Secret: opts.Secret, TTL: 12 * time.Hour},
		Limit:    opts.Limit,
		Log:      opts.Log,
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("ok")); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("write health check response")
		}
	})

	r.Get("/", s.handleHome)
	r.With(appmw.Single()).Post("/run", s.handleRun)

	return s
}

// Handler returns the router wrapped with session loading
func (s *Server) Handler() http.Handler {
	return s.Sess.LoadAndSave(s.Router)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.Tmpl.ExecuteTemplate(w, name, data); err != nil {
		hlog.FromRequest(r).Error().Err(err).Str("template", name).Msg("render failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// flash is the outcome of the last run, shown once
type flash struct {
	RunID       string
	Date        string
	Workouts    int
	Tips        string
	NextWorkout string
	Raw         string
	Parsed      bool
	Error       string
	Warning     string
}

const (
	keyFormID      = "form_id"
	keyHasFlash    = "flash"
	keyRunID       = "flash_run_id"
	keyDate        = "flash_date"
	keyWorkouts    = "flash_workouts"
	keyTips        = "flash_tips"
	keyNextWorkout = "flash_next_workout"
	keyRaw         = "flash_raw"
	keyParsed      = "flash_parsed"
	keyError       = "flash_error"
	keyWarning     = "flash_warning"
)

func (s *Server) putFlash(ctx context.Context, f flash) {
	s.Sess.Put(ctx, keyHasFlash, true)
	s.Sess.Put(ctx, keyRunID, f.RunID)
	s.Sess.Put(ctx, keyDate, f.Date)
	s.Sess.Put(ctx, keyWorkouts, f.Workouts)
	s.Sess.Put(ctx, keyTips, f.Tips)
	s.Sess.Put(ctx, keyNextWorkout, f.NextWorkout)
	s.Sess.Put(ctx, keyRaw, f.Raw)
	s.Sess.Put(ctx, keyParsed, f.Parsed)
	s.Sess.Put(ctx, keyError, f.Error)
	s.Sess.Put(ctx, keyWarning, f.Warning)
}

func (s *Server) popFlash(ctx context.Context) *flash {
	if !s.Sess.PopBool(ctx, keyHasFlash) {
		return nil
	}
	return &flash{
		RunID:       s.Sess.PopString(ctx, keyRunID),
		Date:        s.Sess.PopString(ctx, keyDate),
		Workouts:    s.Sess.PopInt(ctx, keyWorkouts),
		Tips:        s.Sess.PopString(ctx, keyTips),
		NextWorkout: s.Sess.PopString(ctx, keyNextWorkout),
		Raw:         s.Sess.PopString(ctx, keyRaw),
		Parsed:      s.Sess.PopBool(ctx, keyParsed),
		Error:       s.Sess.PopString(ctx, keyError),
		Warning:     s.Sess.PopString(ctx, keyWarning),
	}
}

func (s *Server) formID(ctx context.Context) string {
	id := s.Sess.GetString(ctx, keyFormID)
	if id == "" {
		id = uuid.NewString()
		s.Sess.Put(ctx, keyFormID, id)
	}
	return id
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	s.render(w, r, "home", map[string]any{
		"Title": "Sheet Coach",
		"Limit": s.Limit,
		"Token": s.Forms.Issue(s.formID(ctx)),
		"Flash": s.popFlash(ctx),
	})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := hlog.FromRequest(r)

	_ = r.ParseForm()
	id := s.Sess.GetString(ctx, keyFormID)
	if err := s.Forms.Verify(r.Form.Get("token"), id); id == "" || err != nil {
		log.Warn().Err(err).Msg("form token rejected")
		http.Error(w, "invalid or expired form, reload the page", http.StatusForbidden)
		return
	}

	res, err := s.Pipeline.Run(ctx)
	var f flash
	if res != nil {
		f.RunID = res.RunID.String()
		f.Workouts = len(res.Workouts)
	}
	switch {
	case errors.Is(err, workout.ErrNoWorkouts):
		f.Warning = "No workouts logged yet. Add a workout_log row to your sheet and try again."
	case err != nil:
		log.Error().Err(err).Str("kind", string(failure.Classify(err))).Msg("run failed")
		f.Error = failure.Message(err)
	default:
		f.Date = res.Appended.Date
		f.Raw = res.Text
		f.Parsed = res.Parsed
		f.Tips = res.Plan.Tips
		f.NextWorkout = res.Plan.NextWorkout
	}

	s.putFlash(ctx, f)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
