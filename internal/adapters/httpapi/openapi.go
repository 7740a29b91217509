package httpapi

import (
	"net/http"

	"cbcgrab/internal/httpjson"
)

// handleOpenAPI returns a minimal OpenAPI document describing the v1 surface.
func (s *Server) handleOpenAPI(w http.ResponseWriter, r *http.Request) {
	jsonOK := func(schemaRef string) map[string]any {
		return map[string]any{
			"description": "OK",
			"content": map[string]any{
				"application/json": map[string]any{
					"schema": map[string]any{"$ref": schemaRef},
				},
			},
		}
	}

	jsonErr := map[string]any{
		"description": "Error",
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": "#/components/schemas/Error"},
			},
		},
	}

	spec := map[string]any{
		"openapi": "3.0.3",
		"info": map[string]any{
			"title":   "cbcgrab API",
			"version": "v1",
		},
		"components": map[string]any{
			"schemas": map[string]any{
				"Error": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"error": map[string]any{"type": "string"},
					},
					"required": []any{"error"},
				},
				"Settings": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"defaultShow":           map[string]any{"type": "string"},
						"cacheTtlSeconds":       map[string]any{"type": "integer", "minimum": 1},
						"maxWorkers":            map[string]any{"type": "integer", "minimum": 1},
						"maxConcurrentResolves": map[string]any{"type": "integer", "minimum": 1},
						"outputDir":             map[string]any{"type": "string"},
						"audioFormat":           map[string]any{"type": "string"},
					},
					"additionalProperties": false,
				},
				"ResolveParams": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"url":         map[string]any{"type": "string", "description": "Story page URL"},
						"show":        map[string]any{"type": "string"},
						"feedUrl":     map[string]any{"type": "string"},
						"title":       map[string]any{"type": "string"},
						"provider":    map[string]any{"type": "string"},
						"ignoreCache": map[string]any{"type": "boolean"},
					},
					"required":             []any{"url"},
					"additionalProperties": false,
				},
				"Resolution": map[string]any{
					"type":                 "object",
					"additionalProperties": true,
				},
				"Job": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"id":        map[string]any{"type": "string"},
						"type":      map[string]any{"type": "string", "enum": []any{"resolve", "download"}},
						"state":     map[string]any{"type": "string", "enum": []any{"queued", "running", "completed", "failed", "canceled"}},
						"progress":  map[string]any{"type": "number", "format": "double"},
						"createdAt": map[string]any{"type": "string", "format": "date-time"},
						"updatedAt": map[string]any{"type": "string", "format": "date-time"},
						"params":    map[string]any{"type": "object", "additionalProperties": true},
						"result":    map[string]any{"type": "object", "additionalProperties": true},
						"errorCode": map[string]any{"type": "string"},
						"error":     map[string]any{"type": "string"},
					},
					"required":             []any{"id", "type", "state", "progress", "createdAt", "updatedAt"},
					"additionalProperties": false,
				},
				"JobList": map[string]any{
					"type":  "array",
					"items": map[string]any{"$ref": "#/components/schemas/Job"},
				},
			},
		},
		"paths": map[string]any{
			"/api/v1/health": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/version": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "OK"}}},
			},
			"/api/v1/events": map[string]any{
				"get": map[string]any{"responses": map[string]any{"200": map[string]any{"description": "SSE"}}},
			},
			"/api/v1/resolve": map[string]any{
				"post": map[string]any{
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/ResolveParams"},
							},
						},
					},
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Resolution"),
						"400": jsonErr,
						"404": jsonErr,
						"422": jsonErr,
						"502": jsonErr,
					},
				},
			},
			"/api/v1/shows/{slug}/feed": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Resolution"),
						"404": jsonErr,
						"502": jsonErr,
					},
				},
			},
			"/api/v1/jobs": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/JobList"),
						"500": jsonErr,
					},
				},
				"post": map[string]any{
					"responses": map[string]any{
						"201": jsonOK("#/components/schemas/Job"),
						"400": jsonErr,
						"500": jsonErr,
					},
				},
			},
			"/api/v1/jobs/{id}": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Job"),
						"404": jsonErr,
						"500": jsonErr,
					},
				},
			},
			"/api/v1/jobs/{id}/cancel": map[string]any{
				"post": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Job"),
						"404": jsonErr,
						"500": jsonErr,
					},
				},
			},
			"/api/v1/settings": map[string]any{
				"get": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Settings"),
						"500": jsonErr,
					},
				},
				"put": map[string]any{
					"responses": map[string]any{
						"200": jsonOK("#/components/schemas/Settings"),
						"400": jsonErr,
						"500": jsonErr,
					},
				},
			},
		},
	}

	httpjson.Write(w, http.StatusOK, spec)
}
