package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "AcadSync Timetable API",
        "description": "REST gateway over the timetable solver: variant browsing, approval and multi-format exports",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "Variants", "description": "Schedule variant listing, hydration and approval"},
        {"name": "Editor", "description": "Manual timetable cell edits"},
        {"name": "Exports", "description": "PDF/XLSX/CSV timetable exports"}
    ],
    "paths": {
        "/scopes/{course}/{year}/{semester}/variants": {
            "get": {
                "tags": ["Variants"],
                "summary": "List schedule variants for a scope",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "course", "in": "path", "required": true, "type": "string"},
                    {"name": "year", "in": "path", "required": true, "type": "integer"},
                    {"name": "semester", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Variant summaries sorted by rank", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "502": {"description": "Solver backend unavailable"}
                }
            }
        },
        "/generate": {
            "post": {
                "tags": ["Variants"],
                "summary": "Trigger timetable regeneration for a scope",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateRequest"}}
                ],
                "responses": {
                    "202": {"description": "Regeneration accepted"}
                }
            }
        },
        "/variants/{id}": {
            "get": {
                "tags": ["Variants"],
                "summary": "Fetch full variant detail with section and faculty grids",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "course", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Hydrated variant", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Variant not found"}
                }
            }
        },
        "/variants/{id}/approve": {
            "post": {
                "tags": ["Variants"],
                "summary": "Approve a variant, demoting every other variant in the scope",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "course", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "Approved"},
                    "409": {"description": "Backend rejected the approval"}
                }
            }
        },
        "/variants/{id}/export": {
            "get": {
                "tags": ["Exports"],
                "summary": "Render and download a timetable export synchronously",
                "security": [{"BearerAuth": []}],
                "produces": ["application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "text/csv"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "course", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "format", "in": "query", "required": true, "type": "string", "enum": ["pdf", "xlsx", "csv"]},
                    {"name": "target", "in": "query", "required": true, "type": "string", "enum": ["section", "faculty", "all-sections", "all-faculty"]},
                    {"name": "entityId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Rendered artifact"},
                    "400": {"description": "Unsupported format"},
                    "422": {"description": "No timetable data"}
                }
            }
        },
        "/variants/{id}/sections/{entityId}/cells": {
            "put": {
                "tags": ["Editor"],
                "summary": "Edit one cell of a section timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "entityId", "in": "path", "required": true, "type": "string"},
                    {"name": "course", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditCellRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated entity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/variants/{id}/faculty/{entityId}/cells": {
            "put": {
                "tags": ["Editor"],
                "summary": "Edit one cell of a faculty timetable",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "entityId", "in": "path", "required": true, "type": "string"},
                    {"name": "course", "in": "query", "required": true, "type": "string"},
                    {"name": "year", "in": "query", "required": true, "type": "integer"},
                    {"name": "semester", "in": "query", "required": true, "type": "integer"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/EditCellRequest"}}
                ],
                "responses": {
                    "200": {"description": "Updated entity", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a background export job",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Job queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job status",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Job status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Job not found"}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export artifact via its signed token",
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Artifact stream"},
                    "401": {"description": "Invalid or expired token"}
                }
            }
        }
    },
    "definitions": {
        "GenerateRequest": {
            "type": "object",
            "required": ["course", "year", "semester"],
            "properties": {
                "course": {"type": "string"},
                "year": {"type": "integer"},
                "semester": {"type": "integer"}
            }
        },
        "EditCellRequest": {
            "type": "object",
            "required": ["day", "period"],
            "properties": {
                "day": {"type": "string", "enum": ["MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY", "FRIDAY", "SATURDAY"]},
                "period": {"type": "integer"},
                "slot": {"$ref": "#/definitions/Slot"}
            }
        },
        "Slot": {
            "type": "object",
            "properties": {
                "subject": {"type": "string"},
                "counterpart": {"type": "string"},
                "room": {"type": "string"},
                "sessionType": {"type": "string"},
                "materialLink": {"type": "string"}
            }
        },
        "ExportRequest": {
            "type": "object",
            "required": ["course", "year", "semester", "variantId", "target", "format"],
            "properties": {
                "course": {"type": "string"},
                "year": {"type": "integer"},
                "semester": {"type": "integer"},
                "variantId": {"type": "string"},
                "rank": {"type": "integer"},
                "target": {"type": "string", "enum": ["section", "faculty", "all-sections", "all-faculty"]},
                "entityId": {"type": "string"},
                "format": {"type": "string", "enum": ["pdf", "xlsx", "csv"]}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
