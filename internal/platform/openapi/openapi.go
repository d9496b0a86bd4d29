// Package openapi serves an OpenAPI 3.0 description of the registered API
// routes.
package openapi

import (
	"net/http"
	"sort"
	"strings"

	"github.com/labstack/echo/v4"
)

// RouteLister is satisfied by (*echo.Echo).Routes.
type RouteLister func() []*echo.Route

// Generator builds an OpenAPI 3.0 spec from the echo route table. Only
// routes under prefix are described.
type Generator struct {
	routes  RouteLister
	title   string
	version string
	prefix  string
}

func NewGenerator(routes RouteLister, title, version, prefix string) *Generator {
	return &Generator{routes: routes, title: title, version: version, prefix: prefix}
}

// GenerateSpec produces the OpenAPI 3.0 spec as a map.
func (g *Generator) GenerateSpec() map[string]interface{} {
	paths := make(map[string]map[string]interface{})
	tagSet := make(map[string]bool)

	for _, r := range g.routes() {
		if !strings.HasPrefix(r.Path, g.prefix+"/") || r.Method == echo.RouteNotFound {
			continue
		}
		path, params := convertPath(r.Path)
		tag := tagFor(strings.TrimPrefix(r.Path, g.prefix))
		tagSet[tag] = true

		op := map[string]interface{}{
			"operationId": operationID(r.Method, strings.TrimPrefix(r.Path, g.prefix)),
			"tags":        []string{tag},
			"responses":   responsesFor(r.Method),
		}
		if len(params) > 0 {
			op["parameters"] = params
		}
		if r.Method == http.MethodPost || r.Method == http.MethodPut {
			op["requestBody"] = map[string]interface{}{
				"content": map[string]interface{}{
					"application/json": map[string]interface{}{
						"schema": map[string]string{"type": "object"},
					},
				},
			}
		}
		if paths[path] == nil {
			paths[path] = make(map[string]interface{})
		}
		paths[path][strings.ToLower(r.Method)] = op
	}

	tags := make([]string, 0, len(tagSet))
	for t := range tagSet {
		tags = append(tags, t)
	}
	sort.Strings(tags)
	tagObjs := make([]map[string]string, len(tags))
	for i, t := range tags {
		tagObjs[i] = map[string]string{"name": t}
	}

	return map[string]interface{}{
		"openapi": "3.0.3",
		"info": map[string]interface{}{
			"title":   g.title,
			"version": g.version,
		},
		"servers": []map[string]string{{"url": g.prefix}},
		"tags":    tagObjs,
		"paths":   paths,
		"components": map[string]interface{}{
			"schemas": map[string]interface{}{
				"Error":         errorSchema(),
				"SafetyVerdict": verdictSchema(),
			},
			"securitySchemes": map[string]interface{}{
				"bearerAuth": map[string]string{"type": "http", "scheme": "bearer", "bearerFormat": "JWT"},
			},
		},
		"security": []map[string][]string{{"bearerAuth": {}}},
	}
}

// convertPath turns /users/:id into /users/{id} and returns the path
// parameters.
func convertPath(p string) (string, []map[string]interface{}) {
	var params []map[string]interface{}
	segs := strings.Split(p, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, ":") {
			name := s[1:]
			segs[i] = "{" + name + "}"
			params = append(params, map[string]interface{}{
				"name":     name,
				"in":       "path",
				"required": true,
				"schema":   map[string]string{"type": "string"},
			})
		}
	}
	return strings.Join(segs, "/"), params
}

func tagFor(rel string) string {
	first := strings.SplitN(strings.TrimPrefix(rel, "/"), "/", 2)[0]
	if strings.HasSuffix(rel, "/search") || strings.Contains(rel, "/search/") {
		return "search"
	}
	return first
}

func operationID(method, rel string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(method))
	for _, s := range strings.Split(rel, "/") {
		if s == "" {
			continue
		}
		if strings.HasPrefix(s, ":") {
			s = "By" + strings.ToUpper(s[1:2]) + s[2:]
		} else {
			s = strings.ToUpper(s[:1]) + s[1:]
		}
		b.WriteString(s)
	}
	return b.String()
}

func responsesFor(method string) map[string]interface{} {
	errRef := map[string]interface{}{
		"description": "Error",
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{
				"schema": map[string]string{"$ref": "#/components/schemas/Error"},
			},
		},
	}
	ok := "200"
	if method == http.MethodPost {
		ok = "201"
	}
	return map[string]interface{}{
		ok:        map[string]string{"description": "Success"},
		"400":     errRef,
		"404":     errRef,
		"default": errRef,
	}
}

func errorSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"message": map[string]string{"type": "string"},
		},
	}
}

func verdictSchema() map[string]interface{} {
	return map[string]interface{}{
		"type":     "object",
		"required": []string{"can_take", "warning"},
		"properties": map[string]interface{}{
			"can_take": map[string]string{"type": "boolean"},
			"warning":  map[string]interface{}{"type": "string", "nullable": true},
		},
	}
}

// Handler serves the spec. Routes are read per request so routes added after
// the handler was registered are included.
func (g *Generator) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, g.GenerateSpec())
	}
}
