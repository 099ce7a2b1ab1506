package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "GreenSteps API",
        "description": "School sustainability program: evidence submission, review and round progression",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and session info"},
        {"name": "Evidence", "description": "Evidence submission and browsing"},
        {"name": "Admin Evidence", "description": "Review queue, bulk operations and assignment"},
        {"name": "Requirements", "description": "Evidence requirement catalogue"},
        {"name": "Schools", "description": "Progression state and certificates"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Access token issued", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user claims",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/evidence": {
            "get": {
                "tags": ["Evidence"],
                "summary": "List evidence",
                "parameters": [
                    {"name": "schoolId", "in": "query", "type": "string"},
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "round", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "post": {
                "tags": ["Evidence"],
                "summary": "Submit evidence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SubmitEvidenceRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/Envelope"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/evidence/{id}": {
            "get": {
                "tags": ["Evidence"],
                "summary": "Get evidence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "delete": {
                "tags": ["Evidence"],
                "summary": "Delete evidence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/evidence/{id}/review": {
            "patch": {
                "tags": ["Admin Evidence"],
                "summary": "Approve or reject evidence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Reviewed", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Already reviewed", "schema": {"$ref": "#/definitions/Envelope"}},
                    "412": {"description": "Consent confirmation required", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/evidence/bulk-review": {
            "post": {
                "tags": ["Admin Evidence"],
                "summary": "Bulk review evidence",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "Per-item results", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/evidence/bulk-delete": {
            "delete": {
                "tags": ["Admin Evidence"],
                "summary": "Bulk delete evidence",
                "responses": {
                    "200": {"description": "Per-item results", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/evidence/homeless": {
            "get": {
                "tags": ["Admin Evidence"],
                "summary": "List evidence without requirement or bonus marker",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/evidence/{id}/assign": {
            "patch": {
                "tags": ["Admin Evidence"],
                "summary": "Assign reviewer",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Assigned", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/evidence/{id}/assign-requirement": {
            "patch": {
                "tags": ["Admin Evidence"],
                "summary": "Assign requirement to evidence",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Assigned", "schema": {"$ref": "#/definitions/Envelope"}},
                    "409": {"description": "Requirement conflict", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/evidence/{id}/check-duplicate": {
            "post": {
                "tags": ["Admin Evidence"],
                "summary": "Check duplicate requirement coverage",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Duplicate check result", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/evidence/{id}/mark-bonus": {
            "patch": {
                "tags": ["Admin Evidence"],
                "summary": "Toggle bonus marker",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/requirements": {
            "get": {
                "tags": ["Requirements"],
                "summary": "List requirements",
                "parameters": [
                    {"name": "stage", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/requirements": {
            "post": {
                "tags": ["Requirements"],
                "summary": "Create requirement",
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/admin/requirements/{id}": {
            "put": {
                "tags": ["Requirements"],
                "summary": "Update requirement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Updated", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            },
            "delete": {
                "tags": ["Requirements"],
                "summary": "Delete requirement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "409": {"description": "Requirement has linked evidence", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/schools/{id}/progression": {
            "get": {
                "tags": ["Schools"],
                "summary": "School progression snapshot",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/schools/{id}/certificates": {
            "get": {
                "tags": ["Schools"],
                "summary": "Signed certificate download link",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "round", "in": "query", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Envelope"}},
                    "404": {"description": "No certificate", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        },
        "/certificates/download": {
            "get": {
                "tags": ["Schools"],
                "summary": "Download certificate PDF",
                "parameters": [
                    {"name": "token", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "PDF stream"},
                    "401": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/Envelope"}}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "SubmitEvidenceRequest": {
            "type": "object",
            "required": ["title", "stage", "schoolId"],
            "properties": {
                "title": {"type": "string"},
                "description": {"type": "string"},
                "stage": {"type": "string", "enum": ["inspire", "investigate", "act"]},
                "visibility": {"type": "string", "enum": ["public", "private"]},
                "schoolId": {"type": "string"},
                "evidenceRequirementId": {"type": "string"},
                "isBonus": {"type": "boolean"},
                "fileUrls": {"type": "array", "items": {"type": "string"}},
                "videoLinks": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ReviewRequest": {
            "type": "object",
            "required": ["status"],
            "properties": {
                "status": {"type": "string", "enum": ["approved", "rejected"]},
                "reviewNotes": {"type": "string"},
                "consentConfirmed": {"type": "boolean"}
            }
        },
        "BulkReviewRequest": {
            "type": "object",
            "required": ["evidenceIds", "status"],
            "properties": {
                "evidenceIds": {"type": "array", "items": {"type": "string"}},
                "status": {"type": "string", "enum": ["approved", "rejected"]},
                "reviewNotes": {"type": "string"},
                "consentConfirmed": {"type": "boolean"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"}
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
        "Envelope": {
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
