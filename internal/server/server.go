// Package server exposes the genealogy engine over HTTP: CRUD for people
// and relationships, layout and export endpoints, and a websocket that
// pushes the tree version whenever the stored tree changes.
//
// The engine itself is single-writer; the server serializes all mutating
// requests through one mutex so concurrent HTTP clients cannot interleave
// tree mutations.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/bitdegree/heirloom/pkg/cache"
	"github.com/bitdegree/heirloom/pkg/canvas"
	apperrors "github.com/bitdegree/heirloom/pkg/errors"
	"github.com/bitdegree/heirloom/pkg/geom"
	"github.com/bitdegree/heirloom/pkg/layout"
	"github.com/bitdegree/heirloom/pkg/palette"
	"github.com/bitdegree/heirloom/pkg/render"
	"github.com/bitdegree/heirloom/pkg/store"
	"github.com/bitdegree/heirloom/pkg/tree"
)

// artifactTTL bounds how long cached exports live; the key changes with
// the tree anyway, so this only caps storage.
const artifactTTL = 24 * time.Hour

// exportMargin is the grid padding around the outermost nodes in exports.
const exportMargin = 200.0

// Server is the HTTP front end over one editing session.
type Server struct {
	mu       sync.Mutex // serializes tree mutations
	session  *store.Session
	store    store.Store
	palette  *palette.Palette
	cache    cache.Cache
	logger   *log.Logger
	layout   layout.Options
	hub      *hub
	exportVP *canvas.Viewport
}

// Options configures a Server.
type Options struct {
	Session *store.Session
	Store   store.Store
	Palette *palette.Palette
	Cache   cache.Cache // nil disables artifact caching
	Logger  *log.Logger
	Layout  layout.Options
}

// New creates a server over an open session.
func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewNullCache()
	}
	return &Server{
		session:  opts.Session,
		store:    opts.Store,
		palette:  opts.Palette,
		cache:    opts.Cache,
		logger:   opts.Logger,
		layout:   opts.Layout,
		hub:      newHub(opts.Logger),
		exportVP: canvas.NewViewport(),
	}
}

// Router builds the chi router with all routes registered.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/tree", s.handleGetTree)
		r.Post("/layout", s.handleLayout)

		r.Route("/people", func(r chi.Router) {
			r.Get("/", s.handleListPeople)
			r.Post("/", s.handleCreatePerson)
			r.Get("/{id}", s.handleGetPerson)
			r.Patch("/{id}", s.handleUpdatePerson)
			r.Delete("/{id}", s.handleDeletePerson)
		})

		r.Post("/links", s.handleCreateLink)
		r.Delete("/links", s.handleDeleteLink)
		r.Post("/partners", s.handleCreatePartner)
		r.Delete("/partners", s.handleDeletePartner)

		r.Get("/palette", s.handleGetPalette)
		r.Post("/palette", s.handleAssignColor)

		r.Get("/export/svg", s.handleExportSVG)
		r.Get("/export/dot", s.handleExportDOT)
	})

	r.Get("/ws", s.hub.handleWS)
	return r
}

// Run starts the HTTP server and the store watcher, blocking until ctx is
// done or the listener fails.
func (s *Server) Run(ctx context.Context, addr string) error {
	go s.watchStore(ctx)

	srv := &http.Server{Addr: addr, Handler: s.Router()}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.logger.Info("listening", "addr", addr)
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// watchStore reloads the session and notifies websocket clients when an
// out-of-process writer changes the store. Backends without watch support
// simply skip live reload.
func (s *Server) watchStore(ctx context.Context) {
	ch, err := s.store.Watch(ctx)
	if errors.Is(err, store.ErrWatchUnsupported) {
		s.logger.Debug("store watch unavailable", "err", err)
		return
	}
	if err != nil {
		s.logger.Error("store watch failed", "err", err)
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ch:
			s.mu.Lock()
			if err := s.session.Reload(ctx); err != nil {
				s.logger.Error("reload after external change failed", "err", err)
			}
			version := s.session.Tree.Version()
			s.mu.Unlock()
			s.hub.broadcast(version)
		}
	}
}

// commit saves the tree fire-and-forget and notifies websocket clients.
// Must be called with s.mu held.
func (s *Server) commit(ctx context.Context) {
	if err := s.session.Save(ctx); err != nil {
		s.logger.Error("save failed", "err", err)
	}
	s.hub.broadcast(s.session.Tree.Version())
}

// --- person handlers ---

type personPayload struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Generation int        `json:"generation"`
	X          float64    `json:"x"`
	Y          float64    `json:"y"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	Bio        string     `json:"bio,omitempty"`
}

func payloadFrom(p *tree.Person) personPayload {
	return personPayload{
		ID:         p.ID,
		Name:       p.Name,
		Generation: p.Generation,
		X:          p.Position.X,
		Y:          p.Position.Y,
		BirthDate:  p.BirthDate,
		Bio:        p.Bio,
	}
}

func (s *Server) handleListPeople(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	people := s.session.Tree.People()
	out := make([]personPayload, len(people))
	for i, p := range people {
		out[i] = payloadFrom(p)
	}
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTree(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap := tree.Take(s.session.Tree)
	version := s.session.Tree.Version()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"version": version, "tree": snap})
}

func (s *Server) handleCreatePerson(w http.ResponseWriter, r *http.Request) {
	var in personPayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed body"))
		return
	}
	if in.Name == "" {
		in.Name = "Relative"
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p := tree.NewPerson(in.Name)
	p.Generation = in.Generation
	p.Position = geom.Point{X: in.X, Y: in.Y}
	p.BirthDate = in.BirthDate
	p.Bio = in.Bio
	if err := s.session.Tree.Add(p); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "add person"))
		return
	}
	s.commit(r.Context())
	writeJSON(w, http.StatusCreated, payloadFrom(p))
}

func (s *Server) handleGetPerson(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.session.Tree.Person(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, apperrors.New(apperrors.ErrCodePersonNotFound, "person not found"))
		return
	}
	out := map[string]any{"person": payloadFrom(p)}
	out["parents"] = ids(s.session.Tree.Parents(p.ID))
	out["children"] = ids(s.session.Tree.Children(p.ID))
	out["partners"] = ids(s.session.Tree.Partners(p.ID))
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdatePerson(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Name      *string    `json:"name"`
		Bio       *string    `json:"bio"`
		BirthDate *time.Time `json:"birth_date"`
		X         *float64   `json:"x"`
		Y         *float64   `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.session.Tree.Person(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, apperrors.New(apperrors.ErrCodePersonNotFound, "person not found"))
		return
	}
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Bio != nil {
		p.Bio = *in.Bio
	}
	if in.BirthDate != nil {
		p.BirthDate = in.BirthDate
	}
	if in.X != nil {
		p.Position.X = *in.X
	}
	if in.Y != nil {
		p.Position.Y = *in.Y
	}
	s.session.Tree.Touch()
	s.commit(r.Context())
	writeJSON(w, http.StatusOK, payloadFrom(p))
}

func (s *Server) handleDeletePerson(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := chi.URLParam(r, "id")
	if _, ok := s.session.Tree.Person(id); !ok {
		writeError(w, apperrors.New(apperrors.ErrCodePersonNotFound, "person not found"))
		return
	}
	s.session.Tree.Remove(id)
	s.commit(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// --- relationship handlers ---

type edgePayload struct {
	ParentID string `json:"parent_id"`
	ChildID  string `json:"child_id"`
	AID      string `json:"a_id"`
	BID      string `json:"b_id"`
}

func (s *Server) handleCreateLink(w http.ResponseWriter, r *http.Request) {
	var in edgePayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed body"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.session.Tree.Link(in.ParentID, in.ChildID)
	switch {
	case errors.Is(err, tree.ErrUnknownPerson):
		writeError(w, apperrors.Wrap(apperrors.ErrCodePersonNotFound, err, "link"))
	case errors.Is(err, tree.ErrSelfRelation), errors.Is(err, tree.ErrCyclicLink):
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidLink, err, "link rejected"))
	case err != nil:
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "link"))
	default:
		s.commit(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeleteLink(w http.ResponseWriter, r *http.Request) {
	var in edgePayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed body"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Tree.Unlink(in.ParentID, in.ChildID)
	s.commit(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCreatePartner(w http.ResponseWriter, r *http.Request) {
	var in edgePayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed body"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	err := s.session.Tree.Partner(in.AID, in.BID)
	switch {
	case errors.Is(err, tree.ErrUnknownPerson):
		writeError(w, apperrors.Wrap(apperrors.ErrCodePersonNotFound, err, "partner"))
	case errors.Is(err, tree.ErrSelfRelation):
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidLink, err, "partner rejected"))
	case err != nil:
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "partner"))
	default:
		s.commit(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeletePartner(w http.ResponseWriter, r *http.Request) {
	var in edgePayload
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed body"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session.Tree.Unpartner(in.AID, in.BID)
	s.commit(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// --- layout, palette, export ---

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := layout.Compute(s.session.Tree, s.layout)
	layout.Apply(s.session.Tree, result)
	s.commit(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"placed":  len(result),
		"version": s.session.Tree.Version(),
	})
}

func (s *Server) handleGetPalette(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]any)
	assigned := make(map[int]string)
	for _, gen := range s.session.Tree.Generations() {
		if name, ok := s.palette.NameFor(gen); ok {
			assigned[gen] = name
		}
	}
	out["assigned"] = assigned
	out["available"] = s.palette.Available()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAssignColor(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Generation int    `json:"generation"`
		Name       string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "malformed body"))
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.palette.Assign(r.Context(), in.Name, in.Generation); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "assign color"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportSVG(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	snap, err := json.Marshal(tree.Take(s.session.Tree))
	if err != nil {
		s.mu.Unlock()
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInternal, err, "snapshot"))
		return
	}
	key := cache.ArtifactKey(snap, "scene-svg")
	if data, ok, cacheErr := s.cache.Get(r.Context(), key); cacheErr == nil && ok {
		s.mu.Unlock()
		w.Header().Set("Content-Type", "image/svg+xml")
		w.Write(data)
		return
	}

	scene := canvas.Compose(s.session.Tree, s.exportVP, s.palette.ColorFor, canvas.Bounds(s.session.Tree, exportMargin), nil)
	s.mu.Unlock()

	svg := render.SceneSVG(scene, render.SVGOptions{})
	if err := s.cache.Set(r.Context(), key, svg, artifactTTL); err != nil {
		s.logger.Debug("cache artifact failed", "err", err)
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Write(svg)
}

func (s *Server) handleExportDOT(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	dot := render.ToDOT(s.session.Tree, render.DOTOptions{Colors: s.palette.ColorFor})
	s.mu.Unlock()
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.Write([]byte(dot))
}

func ids(people []*tree.Person) []string {
	out := make([]string, len(people))
	for i, p := range people {
		out[i] = p.ID
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err *apperrors.Error) {
	status := http.StatusInternalServerError
	switch err.Code {
	case apperrors.ErrCodeInvalidInput, apperrors.ErrCodeInvalidLink, apperrors.ErrCodeInvalidFormat:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNotFound, apperrors.ErrCodePersonNotFound, apperrors.ErrCodeFileNotFound:
		status = http.StatusNotFound
	}
	writeJSON(w, status, map[string]string{
		"code":  string(err.Code),
		"error": apperrors.UserMessage(err),
	})
}
