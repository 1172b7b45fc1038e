// Package api provides HTTP server and API documentation.
package api

import (
	_ "embed"
	"encoding/json"
	"html/template"
	"maps"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
)

//go:embed openapi.json
var openapiDocument []byte

var parsedDocument = sync.OnceValues(func() (map[string]any, error) {
	var doc map[string]any
	err := json.Unmarshal(openapiDocument, &doc)
	return doc, err
})

var swaggerPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<title>Careerpath API</title>
<link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body style="margin:0">
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
<script>
window.onload = () => {
  window.ui = SwaggerUIBundle({ url: {{.}}, dom_id: "#swagger-ui", deepLinking: true });
};
</script>
</body>
</html>`))

// DocsRouter serves Swagger UI and the OpenAPI document.
type DocsRouter struct {
	specURL string
}

// NewDocsRouter creates a DocsRouter whose UI loads the document from specURL.
func NewDocsRouter(specURL string) *DocsRouter {
	return &DocsRouter{specURL: specURL}
}

// Routes returns the documentation routes.
func (d *DocsRouter) Routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", d.page)
	router.Get("/openapi.json", d.document)
	return router
}

func (d *DocsRouter) page(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := swaggerPage.Execute(w, d.specURL); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// document serves the OpenAPI document with its server pointed at the
// host the request came in on, so "Try it out" works behind proxies.
func (d *DocsRouter) document(w http.ResponseWriter, r *http.Request) {
	doc, err := parsedDocument()
	if err != nil {
		http.Error(w, "invalid OpenAPI document", http.StatusInternalServerError)
		return
	}

	out := maps.Clone(doc)
	out["servers"] = []map[string]string{{"url": requestOrigin(r)}}

	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(out)
}

func requestOrigin(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
