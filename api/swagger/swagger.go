package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "TutorPulse Reliability API",
        "description": "Tutor reliability scoring over rolling reschedule-rate windows",
        "version": "0.1.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Sessions", "description": "Session outcome ingestion"},
        {"name": "Tutors", "description": "Tutor roster and reliability scores"},
        {"name": "Reports", "description": "Operator exports"},
        {"name": "Ops", "description": "Operational introspection"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Dependencies unavailable"}
                }
            }
        },
        "/sessions": {
            "post": {
                "tags": ["Sessions"],
                "summary": "Ingest a session outcome event",
                "parameters": [
                    {"name": "X-API-Key", "in": "header", "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/IngestSessionRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "200": {"description": "Duplicate, no-op", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Validation error", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Missing or invalid API key", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutors": {
            "get": {
                "tags": ["Tutors"],
                "summary": "List tutors with current risk status",
                "parameters": [
                    {"name": "risk_status", "in": "query", "type": "string", "enum": ["high_risk", "medium_risk", "low_risk"]},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"},
                    {"name": "sort", "in": "query", "type": "string"},
                    {"name": "order", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutors/{id}": {
            "get": {
                "tags": ["Tutors"],
                "summary": "Get tutor detail with reliability score",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutors/{id}/score": {
            "get": {
                "tags": ["Tutors"],
                "summary": "Get tutor reliability score",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "504": {"description": "Recalculation timed out", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/tutors/{id}/history": {
            "get": {
                "tags": ["Tutors"],
                "summary": "List a tutor's recent sessions",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/reports/risk-roster": {
            "get": {
                "tags": ["Reports"],
                "summary": "Export high-risk tutors as CSV or PDF",
                "parameters": [
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "400": {"description": "Unknown format", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/ops/failed-jobs": {
            "get": {
                "tags": ["Ops"],
                "summary": "List ingestion jobs that exhausted their retries",
                "parameters": [
                    {"name": "X-API-Key", "in": "header", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "IngestSessionRequest": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "tutor_id": {"type": "string"},
                "student_id": {"type": "string"},
                "scheduled_time": {"type": "string"},
                "completed_time": {"type": "string"},
                "status": {"type": "string", "enum": ["completed", "rescheduled", "no_show"]},
                "duration_minutes": {"type": "integer"},
                "reschedule": {"$ref": "#/definitions/ReschedulePayload"}
            },
            "required": ["session_id", "tutor_id", "student_id", "scheduled_time", "status"]
        },
        "ReschedulePayload": {
            "type": "object",
            "properties": {
                "initiator": {"type": "string", "enum": ["tutor", "student"]},
                "reason": {"type": "string"},
                "rescheduled_at": {"type": "string"}
            },
            "required": ["initiator", "rescheduled_at"]
        },
        "IngestAck": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"},
                "tutor_id": {"type": "string"},
                "duplicate": {"type": "boolean"},
                "status": {"type": "string"}
            }
        },
        "TutorScore": {
            "type": "object",
            "properties": {
                "tutor_id": {"type": "string"},
                "sessions_7d": {"type": "integer"},
                "reschedules_7d": {"type": "integer"},
                "reschedule_rate_7d": {"type": "number"},
                "sessions_30d": {"type": "integer"},
                "reschedules_30d": {"type": "integer"},
                "reschedule_rate_30d": {"type": "number"},
                "sessions_90d": {"type": "integer"},
                "reschedules_90d": {"type": "integer"},
                "reschedule_rate_90d": {"type": "number"},
                "risk_level": {"type": "string"},
                "is_high_risk": {"type": "boolean"},
                "risk_threshold": {"type": "number"},
                "last_calculated_at": {"type": "string"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "limit": {"type": "integer"},
                "offset": {"type": "integer"},
                "total_count": {"type": "integer"}
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
