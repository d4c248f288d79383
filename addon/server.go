package addon

import (
	"encoding/json"
	"fmt"
	"html/template"
	"io/fs"
	"log"
	"net/http"
	"strings"

	"github.com/carlmjohnson/requests"
)

// Server exposes the add-on over HTTP: the descriptor the host installs
// from, the lifecycle webhooks, the dialog content pages, and the API
// the dialog calls back into.
type Server struct {
	cfg        Config
	store      *InstallationStore
	descriptor Descriptor
	generator  Generator
	comments   CommentWriter
	dialogTmpl *template.Template
}

// NewServer wires the service together and validates the descriptor
// against the launcher's event bindings before anything is served.
func NewServer(cfg Config, store *InstallationStore) (*Server, error) {
	tmpl, err := DialogTemplate()
	if err != nil {
		return nil, fmt.Errorf("failed to parse dialog template %w", err)
	}

	descriptor := NewDescriptor(cfg.DescriptorParams())
	if err := descriptor.Validate(BoundEvents()); err != nil {
		return nil, err
	}

	return &Server{
		cfg:        cfg,
		store:      store,
		descriptor: descriptor,
		generator: Generator{
			Endpoint:    cfg.Generator.Endpoint,
			Model:       cfg.Generator.Model,
			MaxTokens:   cfg.Generator.MaxTokens,
			Temperature: cfg.Generator.Temperature,
		},
		comments:   CommentWriter{Heading: cfg.Generator.Heading},
		dialogTmpl: tmpl,
	}, nil
}

// RegisterRoutes registers all add-on routes on the given mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /atlassian-connect.json", s.serveDescriptor)
	mux.HandleFunc("POST /installed", s.installed)
	mux.HandleFunc("POST /uninstalled", s.uninstalled)
	mux.HandleFunc("GET /tracker-test-generator", s.trackerDialog)
	mux.HandleFunc("GET /wiki-test-generator", s.wikiDialog)
	mux.HandleFunc("GET /api/issue", s.issueDetails)
	mux.HandleFunc("GET /api/content", s.pageDetails)
	mux.HandleFunc("POST /api/generate", s.generate)
	mux.HandleFunc("POST /api/add-comment", s.addComment)
	mux.HandleFunc("GET /healthz", s.health)

	static, err := fs.Sub(embeddedAssets, "static")
	if err != nil {
		log.Printf("Static assets unavailable, /static/ not registered: %v", err)
		return
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
}

func (s *Server) serveDescriptor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.descriptor)
}

// lifecyclePayload is the host's installation handshake body.
type lifecyclePayload struct {
	ClientKey    string `json:"clientKey"`
	SharedSecret string `json:"sharedSecret"`
	BaseURL      string `json:"baseUrl"`
}

func (s *Server) installed(w http.ResponseWriter, r *http.Request) {
	var payload lifecyclePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if payload.ClientKey == "" {
		log.Printf("Installation without client key rejected")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "client key required"})
		return
	}
	// A re-install for a known tenant must prove it holds the previous
	// shared secret, otherwise anyone could swap in their own.
	if existing, err := s.store.Lookup(payload.ClientKey); err == nil {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "signed reinstall required"})
			return
		}
		claims, err := VerifyToken(token, existing)
		if err != nil {
			log.Printf("Reinstall for %s rejected: %v", payload.ClientKey, err)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
		// The proof must be bound to this tenant, not be merely any
		// token the old secret ever signed.
		if sub, _ := claims["sub"].(string); sub != payload.ClientKey {
			log.Printf("Reinstall for %s rejected: token subject %q does not match", payload.ClientKey, sub)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid token"})
			return
		}
	}
	if err := s.store.Install(Installation{
		ClientKey:    payload.ClientKey,
		SharedSecret: payload.SharedSecret,
		BaseURL:      payload.BaseURL,
	}); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	log.Printf("Installed tenant: %s", payload.ClientKey)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) uninstalled(w http.ResponseWriter, r *http.Request) {
	var payload lifecyclePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err == nil && payload.ClientKey != "" {
		log.Printf("Uninstalled tenant: %s", payload.ClientKey)
		s.store.Uninstall(payload.ClientKey)
	}
	w.WriteHeader(http.StatusNoContent)
}

// dialogPage is the data the dialog template renders with.
type dialogPage struct {
	Product   Product
	IssueKey  string
	PageID    string
	ClientKey string
}

func (s *Server) trackerDialog(w http.ResponseWriter, r *http.Request) {
	s.renderDialog(w, dialogPage{
		Product:   ProductTracker,
		IssueKey:  r.URL.Query().Get("issueKey"),
		ClientKey: r.URL.Query().Get("clientKey"),
	})
}

// The wiki launch URL carries only the client key; pageId is accepted
// when present because the host may append it, but nothing requires it.
func (s *Server) wikiDialog(w http.ResponseWriter, r *http.Request) {
	s.renderDialog(w, dialogPage{
		Product:   ProductWiki,
		PageID:    r.URL.Query().Get("pageId"),
		ClientKey: r.URL.Query().Get("clientKey"),
	})
}

func (s *Server) renderDialog(w http.ResponseWriter, page dialogPage) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.dialogTmpl.Execute(w, page); err != nil {
		log.Printf("Dialog render failed: %v", err)
	}
}

// tenantBuilder resolves the client key on a request to a configured
// host API builder for that tenant.
func (s *Server) tenantBuilder(clientKey string) (*requests.Builder, error) {
	inst, err := s.store.Lookup(clientKey)
	if err != nil {
		return nil, err
	}
	return HostAPIBuilder(inst, s.cfg.HostAPI.Email, s.cfg.HostAPI.APIToken), nil
}

func (s *Server) issueDetails(w http.ResponseWriter, r *http.Request) {
	key := r.URL.Query().Get("key")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing issue key"})
		return
	}
	builder, err := s.tenantBuilder(r.URL.Query().Get("clientKey"))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var details IssueDetails
	if err := details.FetchHostData(FetchHostDataParams{
		Context:        r.Context(),
		EntityID:       key,
		HostAPIBuilder: builder,
	}); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"summary":     details.Summary,
		"description": details.Description,
	})
}

func (s *Server) pageDetails(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing content id"})
		return
	}
	builder, err := s.tenantBuilder(r.URL.Query().Get("clientKey"))
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication required"})
		return
	}

	var details PageDetails
	if err := details.FetchHostData(FetchHostDataParams{
		Context:        r.Context(),
		EntityID:       id,
		HostAPIBuilder: builder,
	}); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"title": details.Title,
		"body":  details.Body,
	})
}

type generatePayload struct {
	Story  string `json:"story"`
	Format string `json:"format"`
}

func (s *Server) generate(w http.ResponseWriter, r *http.Request) {
	var payload generatePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if payload.Story == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "no user story provided"})
		return
	}

	result, err := s.generator.Generate(r.Context(), BuildPrompt(payload.Story, payload.Format))
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

type addCommentPayload struct {
	IssueKey  string `json:"issueKey"`
	Comment   string `json:"comment"`
	ClientKey string `json:"clientKey"`
}

func (s *Server) addComment(w http.ResponseWriter, r *http.Request) {
	var payload addCommentPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if payload.IssueKey == "" || payload.Comment == "" || payload.ClientKey == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing parameters"})
		return
	}
	builder, err := s.tenantBuilder(payload.ClientKey)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "installation not found"})
		return
	}

	if err := s.comments.AddComment(AddCommentParams{
		Context:        r.Context(),
		IssueKey:       payload.IssueKey,
		Body:           payload.Comment,
		Language:       FormatGherkin,
		HostAPIBuilder: builder,
	}); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "comment added"})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// bearerToken extracts a token from an Authorization header of the form
// "JWT <token>" or "Bearer <token>".
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	for _, scheme := range []string{"JWT ", "Bearer "} {
		if strings.HasPrefix(header, scheme) {
			return strings.TrimPrefix(header, scheme)
		}
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
