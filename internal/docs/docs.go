// Package docs embeds the OpenAPI document served at /api/swagger and
// checks revisions of it for backward compatibility.
package docs

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/swaggo/swag"
	"gopkg.in/yaml.v3"
)

//go:embed swagger.yaml
var swaggerYAML []byte

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

// Operation is the part of an OpenAPI operation the compatibility check compares.
type Operation struct {
	Responses map[string]struct{}
}

// Document maps path -> lower-case method -> operation.
type Document struct {
	BasePath string
	Paths    map[string]map[string]Operation
}

// HasOperation reports whether method and path (without the base path) are documented.
func (d *Document) HasOperation(method, path string) bool {
	ops, ok := d.Paths[path]
	if !ok {
		return false
	}
	_, ok = ops[strings.ToLower(method)]
	return ok
}

// Raw returns the embedded YAML document.
func Raw() []byte {
	return swaggerYAML
}

// Embedded parses the embedded document.
func Embedded() (*Document, error) {
	return Parse(swaggerYAML)
}

// Parse reads a Swagger 2.0 or OpenAPI 3 YAML (or JSON) document.
func Parse(raw []byte) (*Document, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	pathsRaw, ok := doc["paths"]
	if !ok {
		return nil, errors.New("missing top-level paths field")
	}
	pathsMap, ok := toMap(pathsRaw)
	if !ok {
		return nil, errors.New("paths is not an object")
	}

	out := &Document{Paths: make(map[string]map[string]Operation)}
	if base, ok := doc["basePath"].(string); ok {
		out.BasePath = base
	}

	for pathKey, pathEntry := range pathsMap {
		pathOps, ok := toMap(pathEntry)
		if !ok {
			continue
		}

		ops := make(map[string]Operation)
		for methodKey, methodEntry := range pathOps {
			method := strings.ToLower(strings.TrimSpace(methodKey))
			if _, supported := supportedMethods[method]; !supported {
				continue
			}
			methodMap, ok := toMap(methodEntry)
			if !ok {
				continue
			}

			responses := make(map[string]struct{})
			if responsesMap, ok := toMap(methodMap["responses"]); ok {
				for code := range responsesMap {
					if normalized := strings.ToLower(strings.TrimSpace(code)); normalized != "" {
						responses[normalized] = struct{}{}
					}
				}
			}
			ops[method] = Operation{Responses: responses}
		}

		if len(ops) > 0 {
			out.Paths[pathKey] = ops
		}
	}

	return out, nil
}

// toMap accepts both decoder map shapes; integer keys such as bare response codes
// are stringified.
func toMap(v interface{}) (map[string]interface{}, bool) {
	switch t := v.(type) {
	case map[string]interface{}:
		return t, true
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// Compare lists the breaking changes from base to revision: removed paths,
// removed operations and removed response codes. Additions are never breaking.
func Compare(base, revision *Document) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}
			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf(
						"removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(code),
					))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}

// swaggerDoc serves the embedded YAML as JSON to the swagger UI.
type swaggerDoc struct {
	json string
}

func (s *swaggerDoc) ReadDoc() string {
	return s.json
}

func toJSON(raw []byte) (string, error) {
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return "", err
	}
	b, err := json.Marshal(normalize(doc))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// normalize rewrites nested maps so encoding/json can marshal them.
func normalize(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalize(val)
		}
		return t
	case map[interface{}]interface{}:
		out, _ := toMap(t)
		return normalize(out)
	case []interface{}:
		for i, val := range t {
			t[i] = normalize(val)
		}
		return t
	default:
		return v
	}
}

func init() {
	j, err := toJSON(swaggerYAML)
	if err != nil {
		j = "{}"
	}
	swag.Register(swag.Name, &swaggerDoc{json: j})
}
