// Package docs registers the OpenAPI document with the swag runtime.
// Regenerate with: swag init -g internal/api/handlers/base.go -o internal/api/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "Apache 2.0",
            "url": "https://www.apache.org/licenses/LICENSE-2.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/status": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Process, host and backend statistics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/zones": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["zones"],
                "summary": "List zones",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["zones"],
                "summary": "Create a zone",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/zones/{zone_id}": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["zones"],
                "summary": "Get zone details",
                "responses": {"200": {"description": "OK"}}
            },
            "patch": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["zones"],
                "summary": "Update a zone",
                "responses": {"202": {"description": "Accepted"}}
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["zones"],
                "summary": "Delete a zone",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/zones/{zone_id}/recordsets": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["recordsets"],
                "summary": "List recordsets in a zone",
                "responses": {"200": {"description": "OK"}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["recordsets"],
                "summary": "Create a recordset",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/reverse/floatingips": {
            "get": {
                "security": [{"ApiKeyAuth": []}],
                "produces": ["application/json"],
                "tags": ["reverse"],
                "summary": "List PTR records for the caller's floating IPs",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "type": "apiKey",
            "name": "X-API-Key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "2.0",
	Host:             "localhost:9001",
	BasePath:         "/v2",
	Schemes:          []string{},
	Title:            "Designate DNS API",
	Description:      "Multi-tenant DNS-as-a-Service control plane.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
