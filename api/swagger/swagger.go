package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SIGA API",
        "description": "Academic records service: curriculum, enrollment, grading and period closure",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Courses", "description": "Curriculum catalogue"},
        {"name": "Periods", "description": "Academic periods and closure"},
        {"name": "Sections", "description": "Per-period course offerings"},
        {"name": "Students", "description": "Student records"},
        {"name": "Professors", "description": "Professor records"},
        {"name": "Enrollments", "description": "Eligibility and enrollment engine"},
        {"name": "Grades", "description": "Assessment entries"},
        {"name": "Transcripts", "description": "Completed-course ledger"},
        {"name": "Reports", "description": "PDF/CSV exports"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate with id-document and password",
                "responses": {
                    "200": {"description": "Access token issued"},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/periods/active": {
            "get": {
                "tags": ["Periods"],
                "summary": "Get the active period",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No active period"}
                }
            }
        },
        "/periods/close": {
            "post": {
                "tags": ["Periods"],
                "summary": "Close the active period",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Closure summary"},
                    "412": {"description": "No active period"}
                }
            }
        },
        "/enrollments/eligibility": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Classify course eligibility for a student",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "200": {"description": "Eligibility view"}
                }
            }
        },
        "/enrollments": {
            "post": {
                "tags": ["Enrollments"],
                "summary": "Enroll a student into a section",
                "security": [{"BearerAuth": []}],
                "responses": {
                    "201": {"description": "Enrollment created"},
                    "409": {"description": "Already enrolled or already passed"},
                    "412": {"description": "Section outside the active period"}
                }
            }
        }
    },
    "definitions": {
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
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
