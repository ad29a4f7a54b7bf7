// Package docs registers the marketplace API description with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{.Description}}",
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "securityDefinitions": {
        "bearer": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "paths": {
        "/auth/signup": {
            "post": {
                "tags": ["auth"],
                "summary": "Create an account and profile, then sign in",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SignUpRequest"}}],
                "responses": {
                    "201": {"description": "Signed in", "schema": {"$ref": "#/definitions/Session"}},
                    "400": {"description": "Validation failed", "schema": {"$ref": "#/definitions/Error"}},
                    "409": {"description": "Email already registered", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/auth/signin": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign in with email and password",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/SignInRequest"}}],
                "responses": {
                    "200": {"description": "Signed in", "schema": {"$ref": "#/definitions/Session"}},
                    "401": {"description": "Invalid credentials", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/auth/signout": {
            "post": {
                "tags": ["auth"],
                "summary": "Revoke the current session",
                "security": [{"bearer": []}],
                "responses": {"204": {"description": "Signed out"}}
            }
        },
        "/auth/events": {
            "get": {
                "tags": ["auth"],
                "summary": "Websocket stream of signed_in and signed_out events for the caller",
                "security": [{"bearer": []}],
                "responses": {"101": {"description": "Switching protocols"}}
            }
        },
        "/me": {
            "get": {
                "tags": ["profile"],
                "summary": "Current session and profile",
                "security": [{"bearer": []}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Session"}}}
            },
            "put": {
                "tags": ["profile"],
                "summary": "Edit own profile",
                "security": [{"bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ProfileUpdate"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}}}
            }
        },
        "/users/{id}": {
            "get": {
                "tags": ["profile"],
                "summary": "Public profile",
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/User"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/products": {
            "get": {
                "tags": ["products"],
                "summary": "Browse products, newest first",
                "parameters": [{"in": "query", "name": "q", "type": "string"}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Product"}}}}
            },
            "post": {
                "tags": ["products"],
                "summary": "Create a product (artisan)",
                "security": [{"bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ProductInput"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Product"}}}
            }
        },
        "/products/mine": {
            "get": {
                "tags": ["products"],
                "summary": "Products of the signed-in artisan",
                "security": [{"bearer": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/Product"}}}}
            }
        },
        "/products/{id}": {
            "put": {
                "tags": ["products"],
                "summary": "Edit an owned product",
                "security": [{"bearer": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/ProductInput"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/Product"}}}
            },
            "delete": {
                "tags": ["products"],
                "summary": "Delete an owned product",
                "security": [{"bearer": []}],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {"204": {"description": "Deleted"}}
            }
        },
        "/products/{id}/photo": {
            "put": {
                "tags": ["products"],
                "summary": "Upload a product photo as the raw request body",
                "security": [{"bearer": []}],
                "consumes": ["image/jpeg", "image/png", "image/webp", "image/gif"],
                "parameters": [{"in": "path", "name": "id", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Product"}},
                    "400": {"description": "Photo rejected", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/orders": {
            "get": {
                "tags": ["orders"],
                "summary": "Orders of the caller, as customer or artisan",
                "security": [{"bearer": []}],
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/OrderView"}}}}
            },
            "post": {
                "tags": ["orders"],
                "summary": "Place an order (customer)",
                "security": [{"bearer": []}],
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/OrderRequest"}}],
                "responses": {"201": {"description": "Created", "schema": {"$ref": "#/definitions/Order"}}}
            }
        },
        "/orders/{id}/status": {
            "patch": {
                "tags": ["orders"],
                "summary": "Move an order along its workflow (artisan)",
                "security": [{"bearer": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/StatusRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/Order"}},
                    "409": {"description": "Transition not allowed", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        },
        "/artisans/nearby": {
            "get": {
                "tags": ["map"],
                "summary": "Artisans with coordinates, nearest first",
                "parameters": [
                    {"in": "query", "name": "lat", "type": "number"},
                    {"in": "query", "name": "lng", "type": "number"}
                ],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/geocode": {
            "get": {
                "tags": ["map"],
                "summary": "Resolve a free-text place to coordinates",
                "parameters": [{"in": "query", "name": "q", "type": "string", "required": true}],
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "No match", "schema": {"$ref": "#/definitions/Error"}},
                    "502": {"description": "Upstream failure", "schema": {"$ref": "#/definitions/Error"}}
                }
            }
        }
    },
    "definitions": {
        "Error": {"type": "object", "properties": {"error": {"type": "string"}, "field": {"type": "string"}}},
        "SignUpRequest": {"type": "object", "properties": {
            "email": {"type": "string"}, "password": {"type": "string"}, "confirm_password": {"type": "string"},
            "name": {"type": "string"}, "role": {"type": "string", "enum": ["customer", "artisan"]},
            "location": {"type": "string"}, "latitude": {"type": "number"}, "longitude": {"type": "number"},
            "description": {"type": "string"}}},
        "SignInRequest": {"type": "object", "properties": {"email": {"type": "string"}, "password": {"type": "string"}}},
        "Session": {"type": "object", "properties": {"token": {"type": "string"}, "session": {"type": "object"}, "profile": {"$ref": "#/definitions/User"}}},
        "User": {"type": "object", "properties": {
            "id": {"type": "string"}, "name": {"type": "string"}, "role": {"type": "string"},
            "location": {"type": "string"}, "latitude": {"type": "number"}, "longitude": {"type": "number"},
            "description": {"type": "string"}}},
        "ProfileUpdate": {"type": "object", "properties": {
            "name": {"type": "string"}, "location": {"type": "string"}, "latitude": {"type": "number"},
            "longitude": {"type": "number"}, "description": {"type": "string"}}},
        "ProductInput": {"type": "object", "properties": {
            "name": {"type": "string"}, "description": {"type": "string"}, "price": {"type": "string"}}},
        "Product": {"type": "object", "properties": {
            "id": {"type": "string"}, "artisan_id": {"type": "string"}, "name": {"type": "string"},
            "description": {"type": "string"}, "price": {"type": "string"}, "photo_url": {"type": "string"}}},
        "OrderRequest": {"type": "object", "properties": {"product_id": {"type": "string"}}},
        "StatusRequest": {"type": "object", "properties": {"status": {"type": "string", "enum": ["accepted", "completed", "cancelled"]}}},
        "Order": {"type": "object", "properties": {
            "id": {"type": "string"}, "product_id": {"type": "string"}, "customer_id": {"type": "string"},
            "artisan_id": {"type": "string"}, "status": {"type": "string"}}},
        "Party": {"type": "object", "properties": {"name": {"type": "string"}, "location": {"type": "string"}}},
        "OrderView": {"type": "object", "properties": {
            "id": {"type": "string"}, "status": {"type": "string"},
            "product": {"$ref": "#/definitions/ProductInput"},
            "customer": {"$ref": "#/definitions/Party"},
            "artisan": {"$ref": "#/definitions/Party"}}}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Artisan Hub API",
	Description:      "Marketplace connecting local artisans with customers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
