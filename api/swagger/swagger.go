package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "University Registration API",
        "description": "Course catalog, curriculum plans, and section registration",
        "version": "0.1.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication"},
        {"name": "Courses", "description": "Catalog courses and curriculum plans"},
        {"name": "Sections", "description": "Scheduled course offerings"},
        {"name": "Students", "description": "Student records and schedules"},
        {"name": "Registrations", "description": "Section registration"},
        {"name": "Doctors", "description": "Faculty and assignments"}
    ],
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Authenticate and receive an access token",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/auth/logout": {
            "post": {
                "tags": ["Auth"],
                "summary": "End the current session",
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/courses": {
            "get": {
                "tags": ["Courses"],
                "summary": "List catalog courses",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Add or update a course",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateCourseRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "412": {"description": "Prerequisite not found"}
                }
            }
        },
        "/courses/{code}": {
            "get": {
                "tags": ["Courses"],
                "summary": "Get one course with its sections",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Delete a course",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Integrity violation"}
                }
            }
        },
        "/courses/{code}/plans": {
            "get": {
                "tags": ["Courses"],
                "summary": "List curriculum entries carrying the course",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Courses"],
                "summary": "Add the course to a program curriculum",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            },
            "delete": {
                "tags": ["Courses"],
                "summary": "Remove the course from a program curriculum",
                "parameters": [
                    {"name": "code", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlanRequest"}}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/sections": {
            "post": {
                "tags": ["Sections"],
                "summary": "Add or update a section",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateSectionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/sections/{id}": {
            "get": {
                "tags": ["Sections"],
                "summary": "Get one section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Sections"],
                "summary": "Delete a section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students",
                "parameters": [
                    {"name": "program", "in": "query", "type": "string"},
                    {"name": "level", "in": "query", "type": "integer"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "limit", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Students"],
                "summary": "Add a student",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CreateStudentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get one student with transcript and schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not found"}
                }
            },
            "delete": {
                "tags": ["Students"],
                "summary": "Delete a student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/students/{id}/credits": {
            "get": {
                "tags": ["Students"],
                "summary": "Get completed credit total",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/students/{id}/available-courses": {
            "get": {
                "tags": ["Students"],
                "summary": "List curriculum courses open to the student",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/students/{id}/schedule/export": {
            "get": {
                "tags": ["Students"],
                "summary": "Export the weekly schedule as CSV or PDF",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "File"}
                }
            }
        },
        "/students/{id}/registrations": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Register the student into a batch of sections",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Capacity, conflict, or duplicate"},
                    "412": {"description": "Prerequisites unmet"}
                }
            }
        },
        "/students/{id}/registrations/{sectionId}": {
            "delete": {
                "tags": ["Registrations"],
                "summary": "Remove one section from the student's schedule",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "sectionId", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "409": {"description": "Not registered"}
                }
            }
        },
        "/students/{id}/registrations/validate": {
            "post": {
                "tags": ["Registrations"],
                "summary": "Dry-run validation of a set of course codes",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ValidateRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/doctors": {
            "get": {
                "tags": ["Doctors"],
                "summary": "List doctors",
                "responses": {
                    "200": {"description": "OK"}
                }
            },
            "post": {
                "tags": ["Doctors"],
                "summary": "Add or update a doctor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SaveDoctorRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"}
                }
            }
        },
        "/doctors/{id}": {
            "delete": {
                "tags": ["Doctors"],
                "summary": "Delete a doctor",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/doctors/{id}/assignments": {
            "post": {
                "tags": ["Doctors"],
                "summary": "Assign the doctor to a course or section",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/AssignRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created"},
                    "409": {"description": "Time conflict"}
                }
            }
        },
        "/doctors/{id}/assignments/{aid}": {
            "delete": {
                "tags": ["Doctors"],
                "summary": "Remove an assignment",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "aid", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "No Content"}
                }
            }
        },
        "/doctors/{id}/schedule": {
            "get": {
                "tags": ["Doctors"],
                "summary": "List the doctor's assigned sections",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK"}
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
        "CreateCourseRequest": {
            "type": "object",
            "required": ["course_code", "name", "credits"],
            "properties": {
                "course_code": {"type": "string"},
                "name": {"type": "string"},
                "credits": {"type": "integer"},
                "lecture_hours": {"type": "integer"},
                "lab_hours": {"type": "integer"},
                "prerequisites": {"type": "array", "items": {"type": "string"}}
            }
        },
        "PlanRequest": {
            "type": "object",
            "required": ["program", "level"],
            "properties": {
                "program": {"type": "string"},
                "level": {"type": "integer"}
            }
        },
        "CreateSectionRequest": {
            "type": "object",
            "required": ["section_id", "course_code", "end_time", "max_capacity"],
            "properties": {
                "section_id": {"type": "string"},
                "course_code": {"type": "string"},
                "instructor": {"type": "string"},
                "start_time": {"type": "integer"},
                "end_time": {"type": "integer"},
                "hall": {"type": "string"},
                "max_capacity": {"type": "integer"},
                "days": {"type": "array", "items": {"type": "string"}}
            }
        },
        "CreateStudentRequest": {
            "type": "object",
            "required": ["student_id", "name", "email", "program", "level"],
            "properties": {
                "student_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "program": {"type": "string"},
                "level": {"type": "integer"}
            }
        },
        "RegisterRequest": {
            "type": "object",
            "required": ["section_ids"],
            "properties": {
                "section_ids": {"type": "array", "items": {"type": "string"}}
            }
        },
        "ValidateRequest": {
            "type": "object",
            "required": ["course_codes"],
            "properties": {
                "course_codes": {"type": "array", "items": {"type": "string"}}
            }
        },
        "SaveDoctorRequest": {
            "type": "object",
            "required": ["doctor_id", "name"],
            "properties": {
                "doctor_id": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "preferred_courses": {"type": "string"},
                "time_availability": {"type": "string"}
            }
        },
        "AssignRequest": {
            "type": "object",
            "required": ["course_code"],
            "properties": {
                "course_code": {"type": "string"},
                "section_id": {"type": "string"}
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
