package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Tutoring Platform API",
        "description": "Lesson scheduling and tutor payroll backend",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Authentication", "description": "Login and token management"},
        {"name": "Lessons", "description": "Lesson scheduling and lifecycle"},
        {"name": "Earnings", "description": "Bi-weekly tutor payroll"}
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Authenticate user",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "Token pair issued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/refresh": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Refresh access token",
                "responses": {
                    "200": {"description": "New token pair", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid or expired refresh token"}
                }
            }
        },
        "/auth/reset-password": {
            "post": {
                "tags": ["Authentication"],
                "summary": "Reset password",
                "responses": {
                    "202": {"description": "Temporary password emailed when the account exists"}
                }
            }
        },
        "/auth/me": {
            "get": {
                "tags": ["Authentication"],
                "summary": "Current user info",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/lessons": {
            "get": {
                "tags": ["Lessons"],
                "summary": "List lessons visible to the caller",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Lessons"],
                "summary": "Schedule a lesson or weekly bundle",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ScheduleLessonRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Tutor not available"}
                }
            }
        },
        "/lessons/availability": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Check tutor availability for a slot",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/lessons/bulk": {
            "patch": {
                "tags": ["Lessons"],
                "summary": "Apply one field set to many lessons",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Unknown lesson in set"}
                }
            }
        },
        "/lessons/sweep": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Manually run the status sweep",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Counts of promoted lessons"}
                }
            }
        },
        "/lessons/{id}": {
            "get": {
                "tags": ["Lessons"],
                "summary": "Get a lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "patch": {
                "tags": ["Lessons"],
                "summary": "Update lesson fields",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Lesson not editable or slot conflict"}
                }
            }
        },
        "/lessons/{id}/reschedule": {
            "put": {
                "tags": ["Lessons"],
                "summary": "Move a lesson to a new slot",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Tutor not available"}
                }
            }
        },
        "/lessons/{id}/cancel": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Cancel a lesson",
                "description": "Cancellations under 24 hours notice still count towards tutor pay",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Lesson already cancelled or completed"}
                }
            }
        },
        "/lessons/{id}/undo-cancel": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Reinstate a cancelled lesson",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Slot taken since cancellation"}
                }
            }
        },
        "/lessons/{id}/complete": {
            "post": {
                "tags": ["Lessons"],
                "summary": "Mark a lesson as taught",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "409": {"description": "Cancelled lessons cannot be completed"}
                }
            }
        },
        "/earnings/pending": {
            "get": {
                "tags": ["Earnings"],
                "summary": "List pending approvals",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/earnings/report": {
            "get": {
                "tags": ["Earnings"],
                "summary": "Cross-tutor earnings report",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/earnings/generate": {
            "post": {
                "tags": ["Earnings"],
                "summary": "Generate approvals for a period",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "period_start", "in": "query", "type": "string"},
                    {"name": "period_end", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Count created"}
                }
            }
        },
        "/earnings/config": {
            "get": {
                "tags": ["Earnings"],
                "summary": "Get payout configuration",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "put": {
                "tags": ["Earnings"],
                "summary": "Update payout configuration",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/earnings/periods/decide": {
            "post": {
                "tags": ["Earnings"],
                "summary": "Decide a tutor's period by boundary dates",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Dates do not match a payroll period or already decided"}
                }
            }
        },
        "/earnings/tutors/{id}": {
            "get": {
                "tags": ["Earnings"],
                "summary": "Tutor earnings summary and history",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/earnings/{id}/decide": {
            "post": {
                "tags": ["Earnings"],
                "summary": "Approve or reject a pending approval",
                "security": [{"BearerAuth": []}],
                "parameters": [{"name": "id", "in": "path", "required": true, "type": "string"}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Already decided"}
                }
            }
        },
        "/earnings/{id}/statement": {
            "get": {
                "tags": ["Earnings"],
                "summary": "Download a statement as CSV or PDF",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "required": ["email", "password", "user_type"],
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"},
                "user_type": {"type": "string", "enum": ["admin", "tutor", "student"]}
            }
        },
        "ScheduleLessonRequest": {
            "type": "object",
            "required": ["lesson_date", "lesson_time", "duration_minutes", "level", "topic", "type", "tutor_id", "student_id"],
            "properties": {
                "lesson_date": {"type": "string", "example": "2026-09-07"},
                "lesson_time": {"type": "string", "example": "14:30"},
                "duration_minutes": {"type": "integer"},
                "level": {"type": "string"},
                "topic": {"type": "string"},
                "type": {"type": "string", "enum": ["online", "in-person"]},
                "location": {"type": "string"},
                "tutor_id": {"type": "string"},
                "student_id": {"type": "string"},
                "weeks": {"type": "integer", "description": "weekly occurrences; more than 1 creates a bundle"}
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
                "message": {"type": "string"},
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
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
