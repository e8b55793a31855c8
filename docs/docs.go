// Package docs registers the OpenAPI description served under /swagger.
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
        "/admins/code/{code}": {
            "get": {
                "summary": "Admin holding an authoritative code",
                "parameters": [
                    {"type": "string", "description": "authoritative code, leading zeros optional", "name": "code", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.Admin"}},
                    "404": {"description": "Not Found", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/admins/resolve": {
            "get": {
                "summary": "Admins containing a coordinate",
                "parameters": [
                    {"type": "number", "description": "latitude", "name": "lat", "in": "query", "required": true},
                    {"type": "number", "description": "longitude", "name": "lon", "in": "query", "required": true},
                    {"type": "string", "description": "authoritative code overriding its level", "name": "insee", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.Resolution"}},
                    "400": {"description": "Bad Request", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        }
    },
    "definitions": {
        "models.Coord": {
            "type": "object",
            "properties": {
                "lat": {"type": "number"},
                "lon": {"type": "number"}
            }
        },
        "models.Admin": {
            "type": "object",
            "properties": {
                "coord": {"$ref": "#/definitions/models.Coord"},
                "id": {"type": "string"},
                "insee": {"type": "string"},
                "level": {"type": "integer"},
                "name": {"type": "string"},
                "weight": {"type": "number"},
                "zip_code": {"type": "string"}
            }
        },
        "service.Resolution": {
            "type": "object",
            "properties": {
                "admins": {"type": "array", "items": {"$ref": "#/definitions/models.Admin"}},
                "ambiguous_levels": {"type": "array", "items": {"type": "integer"}},
                "weight": {"type": "number"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Admin geocoder API",
	Description:      "Resolves the administrative regions containing a coordinate.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
