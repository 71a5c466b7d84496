// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/ingestion-service/main.go -o internal/ingestor/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/ingest": {
            "get": {
                "description": "Counts of feeds, raw articles per status, policies and articles",
                "produces": ["application/json"],
                "tags": ["ingest"],
                "summary": "Get ingestion status",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.StatusResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Runs every pipeline stage once and returns the run counters",
                "produces": ["application/json"],
                "tags": ["ingest"],
                "summary": "Trigger an ingestion run",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/dto.IngestResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/ingest/runs": {
            "get": {
                "description": "Audit rows of the most recent runs, newest first",
                "produces": ["application/json"],
                "tags": ["ingest"],
                "summary": "List recent ingestion runs",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of runs", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/entity.IngestionRun"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        },
        "/policies": {
            "get": {
                "description": "Active policies, most recently updated first, flattened with their latest event",
                "produces": ["application/json"],
                "tags": ["policies"],
                "summary": "Get the policy feed",
                "parameters": [
                    {"type": "integer", "description": "Maximum number of policies (default 20, max 100)", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/dto.PolicyFeedItem"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/dto.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "dto.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "dto.RunResult": {
            "type": "object",
            "properties": {
                "feedsInitialized": {"type": "integer"},
                "feedsFetched": {"type": "integer"},
                "articlesFetched": {"type": "integer"},
                "articlesNew": {"type": "integer"},
                "articlesApproved": {"type": "integer"},
                "articlesRejected": {"type": "integer"},
                "articlesSummarized": {"type": "integer"},
                "policiesCreated": {"type": "integer"},
                "eventsAdded": {"type": "integer"},
                "articlesErrored": {"type": "integer"},
                "errors": {"type": "array", "items": {"type": "string"}}
            }
        },
        "dto.IngestResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "results": {"$ref": "#/definitions/dto.RunResult"}
            }
        },
        "dto.IngestionStats": {
            "type": "object",
            "properties": {
                "feeds": {"type": "integer"},
                "rawArticles": {"type": "object", "additionalProperties": {"type": "integer"}},
                "policies": {"type": "integer"},
                "articles": {"type": "integer"},
                "generatedAt": {"type": "string"}
            }
        },
        "dto.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "stats": {"$ref": "#/definitions/dto.IngestionStats"}
            }
        },
        "dto.PolicyFeedItem": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "title": {"type": "string"},
                "shortTitle": {"type": "string"},
                "whoShouldCare": {"type": "string"},
                "summary": {"type": "string"},
                "impact": {"type": "string"},
                "sourceName": {"type": "string"},
                "sourceUrl": {"type": "string"},
                "category": {"type": "string"},
                "region": {"type": "string"},
                "status": {"type": "string"},
                "changeSummary": {"type": "string"},
                "publishedAt": {"type": "string"}
            }
        },
        "entity.IngestionRun": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "trigger": {"type": "string"},
                "status": {"type": "string"},
                "started_at": {"type": "string"},
                "completed_at": {"type": "string"},
                "result": {"type": "object"},
                "error_message": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Roundtable Ingestion API",
	Description:      "Triggers and inspects the Pennsylvania policy-news ingestion pipeline.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
