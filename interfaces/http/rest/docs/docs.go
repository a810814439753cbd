// Package docs holds the OpenAPI document of the /api/v1 routes and registers
// it with swag so the router can serve it.
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
    "securityDefinitions": {
        "Session": {
            "type": "apiKey",
            "name": "X-Session-ID",
            "in": "header"
        }
    },
    "paths": {
        "/sessions": {
            "post": {
                "tags": ["sessions"],
                "summary": "Open a session",
                "produces": ["application/json"],
                "responses": {
                    "201": {"description": "Session created", "schema": {"$ref": "#/definitions/SessionResponse"}}
                }
            },
            "delete": {
                "tags": ["sessions"],
                "summary": "Close the current session",
                "security": [{"Session": []}],
                "responses": {
                    "204": {"description": "Session closed"},
                    "400": {"description": "Missing session", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/categories": {
            "get": {
                "tags": ["categories"],
                "summary": "List the category table",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "Categories with their colors"}
                }
            }
        },
        "/facts": {
            "get": {
                "tags": ["facts"],
                "summary": "List facts",
                "description": "Refetches when category or sort change or refresh is set; q filters the loaded list locally.",
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "category", "in": "query", "description": "Category name or all"},
                    {"type": "string", "name": "sort", "in": "query", "description": "field.direction, e.g. created_at.desc"},
                    {"type": "string", "name": "q", "in": "query", "description": "Case-insensitive text search"},
                    {"type": "boolean", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "List view", "schema": {"$ref": "#/definitions/ListResponse"}},
                    "400": {"description": "Invalid sort or missing session", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            },
            "post": {
                "tags": ["facts"],
                "summary": "Share a fact",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FactFields"}}
                ],
                "responses": {
                    "201": {"description": "Fact created", "schema": {"$ref": "#/definitions/FactResponse"}},
                    "400": {"description": "Invalid fact", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Store rejected the insert", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/facts/{factID}": {
            "get": {
                "tags": ["facts"],
                "summary": "Open the detail view of a fact",
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "factID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Detail view", "schema": {"$ref": "#/definitions/DetailResponse"}}
                }
            },
            "put": {
                "tags": ["facts"],
                "summary": "Save the edit form",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "factID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FactFields"}}
                ],
                "responses": {
                    "200": {"description": "Detail view after saving", "schema": {"$ref": "#/definitions/DetailResponse"}},
                    "400": {"description": "Invalid fact", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Not editing", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/facts/{factID}/votes/{field}": {
            "post": {
                "tags": ["votes"],
                "summary": "Add one vote",
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "factID", "in": "path", "required": true},
                    {"type": "string", "name": "field", "in": "path", "required": true, "enum": ["votesInteresting", "votesMindblowing", "votesFalse"]}
                ],
                "responses": {
                    "200": {"description": "Fact with the new count", "schema": {"$ref": "#/definitions/FactResponse"}},
                    "400": {"description": "Unknown vote field", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Vote already in flight", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/facts/{factID}/edit": {
            "post": {
                "tags": ["facts"],
                "summary": "Unlock the edit form",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "factID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/SecretRequest"}}
                ],
                "responses": {
                    "200": {"description": "Detail view", "schema": {"$ref": "#/definitions/DetailResponse"}},
                    "403": {"description": "Wrong secret key", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/facts/{factID}/delete": {
            "post": {
                "tags": ["facts"],
                "summary": "Delete a fact",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "factID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "schema": {"$ref": "#/definitions/SecretRequest"}}
                ],
                "responses": {
                    "200": {"description": "Detail view", "schema": {"$ref": "#/definitions/DetailResponse"}},
                    "403": {"description": "Wrong secret key", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/facts/{factID}/cancel": {
            "post": {
                "tags": ["facts"],
                "summary": "Leave the secret prompt or edit form",
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "factID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Detail view", "schema": {"$ref": "#/definitions/DetailResponse"}}
                }
            }
        },
        "/facts/{factID}/comments": {
            "get": {
                "tags": ["comments"],
                "summary": "List comments",
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "factID", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "Comments oldest first"}
                }
            },
            "post": {
                "tags": ["comments"],
                "summary": "Post a comment",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "security": [{"Session": []}],
                "parameters": [
                    {"type": "string", "name": "factID", "in": "path", "required": true},
                    {"name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/CommentRequest"}}
                ],
                "responses": {
                    "201": {"description": "Confirmed comment", "schema": {"$ref": "#/definitions/CommentResponse"}},
                    "400": {"description": "Empty comment", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "502": {"description": "Comment rolled back", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "boolean"},
                "code": {"type": "string"},
                "message": {"type": "string"}
            }
        },
        "SessionResponse": {
            "type": "object",
            "properties": {
                "session_id": {"type": "string"}
            }
        },
        "SecretRequest": {
            "type": "object",
            "properties": {
                "secret_key": {"type": "string"}
            }
        },
        "CommentRequest": {
            "type": "object",
            "properties": {
                "content": {"type": "string"}
            }
        },
        "FactFields": {
            "type": "object",
            "required": ["text", "source", "category"],
            "properties": {
                "title": {"type": "string", "maxLength": 200},
                "text": {"type": "string", "maxLength": 200},
                "source": {"type": "string", "format": "uri"},
                "category": {"type": "string"},
                "image_url": {"type": "string"},
                "secret_key": {"type": "string"}
            }
        },
        "FactResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "title": {"type": "string"},
                "display_title": {"type": "string"},
                "text": {"type": "string"},
                "source": {"type": "string"},
                "category": {"type": "string"},
                "category_color": {"type": "string"},
                "image_url": {"type": "string"},
                "votesInteresting": {"type": "integer"},
                "votesMindblowing": {"type": "integer"},
                "votesFalse": {"type": "integer"},
                "disputed": {"type": "boolean"},
                "protected": {"type": "boolean"},
                "vote_pending": {"type": "boolean"},
                "created_at": {"type": "string", "format": "date-time"},
                "short_user_id": {"type": "string"}
            }
        },
        "ListResponse": {
            "type": "object",
            "properties": {
                "category": {"type": "string"},
                "sort": {"type": "string"},
                "search": {"type": "string"},
                "loading": {"type": "boolean"},
                "superseded": {"type": "boolean"},
                "message": {"type": "string"},
                "facts": {"type": "array", "items": {"$ref": "#/definitions/FactResponse"}}
            }
        },
        "CommentResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "facts_id": {"type": "string"},
                "content": {"type": "string"},
                "short_user_id": {"type": "string"},
                "created_at": {"type": "string", "format": "date-time"},
                "state": {"type": "string", "enum": ["pending", "confirmed", "rolled_back"]}
            }
        },
        "DetailResponse": {
            "type": "object",
            "properties": {
                "fact": {"$ref": "#/definitions/FactResponse"},
                "comments": {"type": "array", "items": {"$ref": "#/definitions/CommentResponse"}},
                "state": {"type": "string"},
                "pending_action": {"type": "string"},
                "unavailable": {"type": "boolean"},
                "navigate_to_list": {"type": "boolean"},
                "form": {"$ref": "#/definitions/FactFields"},
                "message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "FactsHub API",
	Description:      "Share short facts, vote on them and discuss them in comments.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
