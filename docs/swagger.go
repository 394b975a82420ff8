// Package docs holds the generated OpenAPI document served at /swagger.
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
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    },
    "paths": {
        "/register": {
            "post": {
                "tags": ["Users"],
                "summary": "Register a new user",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/login": {
            "post": {
                "tags": ["Users"],
                "summary": "Log in with email and password",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/auth/google": {
            "post": {
                "tags": ["Users"],
                "summary": "Sign in with a Google authorization code",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/projects": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Projects"],
                "summary": "List the current user's projects",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Projects"],
                "summary": "Create a project",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tasks": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "List the current user's tasks",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "Create a task",
                "responses": {"201": {"description": "Created"}}
            }
        },
        "/tasks/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Tasks"],
                "summary": "Search tasks by name and description",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/tasks/{id}/sync": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["Calendar"],
                "summary": "Push a task to Google Calendar",
                "responses": {"200": {"description": "OK"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["Calendar"],
                "summary": "Update the linked calendar event",
                "responses": {"200": {"description": "OK"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["Calendar"],
                "summary": "Remove the linked calendar event",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/calendar": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["Calendar"],
                "summary": "Tasks and calendar events grouped by day",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/ai/suggestions": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["AI"],
                "summary": "Suggest tasks based on the user's open tasks",
                "responses": {"200": {"description": "OK"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "Planner API",
	Description:      "API for managing personal tasks, projects, and calendar sync.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
