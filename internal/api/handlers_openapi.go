package api

import (
	"bytes"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"html/template"
	"net/http"
)

//go:embed openapi/openapi.yaml
var openAPIDocument []byte

// openAPIETag is a strong validator over the embedded document. Clients that
// already hold the current revision get a 304.
var openAPIETag = func() string {
	sum := sha256.Sum256(openAPIDocument)
	return `"` + hex.EncodeToString(sum[:8]) + `"`
}()

const docsCacheControl = "public, max-age=3600"

// ServeOpenAPIDocument writes the embedded openapi.yaml.
func (h *Handlers) ServeOpenAPIDocument(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", docsCacheControl)
	w.Header().Set("ETag", openAPIETag)
	if r.Header.Get("If-None-Match") == openAPIETag {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openAPIDocument)
}

var docsPage = template.Must(template.New("docs").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
  <div id="swagger-ui" data-url="{{.DocumentURL}}"></div>
  <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
  <script>
    SwaggerUIBundle({
      url: document.getElementById('swagger-ui').dataset.url,
      dom_id: '#swagger-ui',
      presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
      layout: 'BaseLayout',
      deepLinking: true,
      displayRequestDuration: true,
      supportedSubmitMethods: ['get']
    });
  </script>
</body>
</html>`))

// renderedDocsPage is built once; the page only depends on route constants.
var renderedDocsPage = func() []byte {
	var buf bytes.Buffer
	_ = docsPage.Execute(&buf, struct{ Title, DocumentURL string }{
		Title:       "Bookmarks API",
		DocumentURL: APIPrefix + "/openapi.yaml",
	})
	return buf.Bytes()
}()

// ServeDocs renders a read-only Swagger UI over openapi.yaml. Try-it-out is
// limited to GET so the page cannot be used to submit bookmarks.
func (h *Handlers) ServeDocs(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", docsCacheControl)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(renderedDocsPage)
}
