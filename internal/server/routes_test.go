package server

import (
	"regexp"
	"strings"
	"testing"

	"resonate/internal/docs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pathParam = regexp.MustCompile(`:([A-Za-z_]+)`)

// Every API route must appear in the served OpenAPI document.
func TestRoutesAreDocumented(t *testing.T) {
	app := newTestApp(t, nil)
	doc, err := docs.Embedded()
	require.NoError(t, err)

	seen := 0
	for _, r := range app.GetRoutes(true) {
		if !strings.HasPrefix(r.Path, doc.BasePath+"/") || strings.HasPrefix(r.Path, doc.BasePath+"/swagger") {
			continue
		}
		switch r.Method {
		case "GET", "POST", "PUT", "DELETE", "PATCH":
		default:
			continue
		}

		path := strings.TrimPrefix(r.Path, doc.BasePath)
		path = strings.TrimSuffix(path, "/")
		path = pathParam.ReplaceAllString(path, "{$1}")
		assert.Truef(t, doc.HasOperation(r.Method, path), "undocumented route %s %s", r.Method, path)
		seen++
	}
	assert.Greater(t, seen, 20)
}
