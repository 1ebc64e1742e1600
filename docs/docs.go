// Package docs holds the OpenAPI description served at /swagger.
// Regenerate with: swag init -g cmd/server/main.go -o docs
package docs

import "github.com/swaggo/swag/v2"

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
		"/auth/login": {
			"post": {
				"operationId": "loginAuth",
				"summary": "User login",
				"tags": [
					"auth"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/identity.LoginInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"429": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/register": {
			"post": {
				"operationId": "registerAuth",
				"summary": "Register a customer account",
				"tags": [
					"auth"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/identity.RegisterInput"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/refresh": {
			"post": {
				"operationId": "refreshAuth",
				"summary": "Refresh access token",
				"tags": [
					"auth"
				],
				"produces": [
					"application/json"
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/identity.RefreshTokenInput"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/logout": {
			"post": {
				"operationId": "logoutAuth",
				"summary": "Sign out",
				"tags": [
					"auth"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": false,
						"schema": {
							"$ref": "#/definitions/identity.LogoutInput"
						}
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/auth/me": {
			"get": {
				"operationId": "meAuth",
				"summary": "Current account",
				"tags": [
					"auth"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"401": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/bookings": {
			"post": {
				"operationId": "createBooking",
				"summary": "Create a booking",
				"tags": [
					"bookings"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "header",
						"name": "Idempotency-Key",
						"type": "string"
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/booking.CreateBookingRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/bookings/mine": {
			"get": {
				"operationId": "listMyBookings",
				"summary": "List my bookings",
				"tags": [
					"bookings"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "query",
						"name": "status",
						"type": "string",
						"enum": [
							"pending",
							"confirmed",
							"in-progress",
							"completed",
							"cancelled"
						]
					},
					{
						"in": "query",
						"name": "variant_id",
						"type": "string",
						"format": "uuid"
					},
					{
						"in": "query",
						"name": "page",
						"type": "integer",
						"default": 1
					},
					{
						"in": "query",
						"name": "page_size",
						"type": "integer",
						"default": 20
					},
					{
						"in": "query",
						"name": "order_by",
						"type": "string",
						"enum": [
							"created_at",
							"preferred_date",
							"status",
							"quantity"
						]
					},
					{
						"in": "query",
						"name": "order_dir",
						"type": "string",
						"enum": [
							"asc",
							"desc"
						]
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/bookings/stats": {
			"get": {
				"operationId": "bookingStats",
				"summary": "Booking counts per status",
				"tags": [
					"bookings"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "query",
						"name": "customer_id",
						"type": "string",
						"format": "uuid"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/bookings/{id}": {
			"get": {
				"operationId": "getBooking",
				"summary": "Get a booking",
				"tags": [
					"bookings"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"format": "uuid"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/bookings/{id}/cancel": {
			"post": {
				"operationId": "cancelBooking",
				"summary": "Cancel my booking",
				"tags": [
					"bookings"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"format": "uuid"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/technicians": {
			"get": {
				"operationId": "listTechnicians",
				"summary": "List technicians",
				"tags": [
					"bookings"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					}
				}
			}
		},
		"/products/{id}/variants": {
			"get": {
				"operationId": "listProductVariants",
				"summary": "List variants of a product",
				"tags": [
					"catalog"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"format": "uuid"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/variants/{id}": {
			"get": {
				"operationId": "getVariant",
				"summary": "Get a variant",
				"tags": [
					"catalog"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"format": "uuid"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/variants/{id}/stock": {
			"get": {
				"operationId": "getVariantStock",
				"summary": "Stock of a variant",
				"tags": [
					"catalog"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"format": "uuid"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/bookings": {
			"get": {
				"operationId": "listAllBookings",
				"summary": "List all bookings",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "query",
						"name": "status",
						"type": "string",
						"enum": [
							"pending",
							"confirmed",
							"in-progress",
							"completed",
							"cancelled"
						]
					},
					{
						"in": "query",
						"name": "variant_id",
						"type": "string",
						"format": "uuid"
					},
					{
						"in": "query",
						"name": "page",
						"type": "integer",
						"default": 1
					},
					{
						"in": "query",
						"name": "page_size",
						"type": "integer",
						"default": 20
					},
					{
						"in": "query",
						"name": "order_by",
						"type": "string",
						"enum": [
							"created_at",
							"preferred_date",
							"status",
							"quantity"
						]
					},
					{
						"in": "query",
						"name": "order_dir",
						"type": "string",
						"enum": [
							"asc",
							"desc"
						]
					},
					{
						"in": "query",
						"name": "customer_id",
						"type": "string",
						"format": "uuid"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"403": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/bookings/{id}": {
			"patch": {
				"operationId": "updateBooking",
				"summary": "Confirm or update a booking",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"format": "uuid"
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/booking.UpdateBookingRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			},
			"delete": {
				"operationId": "deleteBooking",
				"summary": "Delete a booking",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"format": "uuid"
					}
				],
				"responses": {
					"204": {
						"description": "No Content"
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"500": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/products": {
			"post": {
				"operationId": "registerProduct",
				"summary": "Register a product",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/catalog.RegisterProductRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/variants/{id}": {
			"patch": {
				"operationId": "updateVariant",
				"summary": "Update a variant",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "path",
						"name": "id",
						"required": true,
						"type": "string",
						"format": "uuid"
					},
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/catalog.UpdateVariantRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/inventory/add": {
			"post": {
				"operationId": "addStock",
				"summary": "Add stock",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/inventory.AddStockRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/inventory/reduce": {
			"post": {
				"operationId": "reduceStock",
				"summary": "Reduce stock",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/inventory.ReduceStockRequest"
						}
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/warehouses": {
			"post": {
				"operationId": "createWarehouse",
				"summary": "Create a warehouse",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"in": "body",
						"name": "request",
						"required": true,
						"schema": {
							"$ref": "#/definitions/partner.CreateWarehouseRequest"
						}
					}
				],
				"responses": {
					"201": {
						"description": "Created",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"409": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			},
			"get": {
				"operationId": "listWarehouses",
				"summary": "List warehouses",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					}
				}
			}
		},
		"/admin/outbox/stats": {
			"get": {
				"operationId": "outboxStats",
				"summary": "Outbox entries per status",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					}
				}
			}
		},
		"/admin/outbox/dead": {
			"get": {
				"operationId": "listDeadLetters",
				"summary": "List dead letters",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "integer",
						"default": 1,
						"description": "Page number",
						"name": "page",
						"in": "query"
					},
					{
						"type": "integer",
						"default": 20,
						"description": "Page size",
						"name": "page_size",
						"in": "query"
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"400": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/outbox/dead/retry": {
			"post": {
				"operationId": "retryAllDeadLetters",
				"summary": "Requeue every dead letter",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					}
				}
			}
		},
		"/admin/outbox/{id}": {
			"get": {
				"operationId": "getOutboxEntry",
				"summary": "Get an outbox entry",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"format": "uuid",
						"description": "Outbox entry ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		},
		"/admin/outbox/{id}/retry": {
			"post": {
				"operationId": "retryDeadLetter",
				"summary": "Requeue a dead letter",
				"tags": [
					"admin"
				],
				"produces": [
					"application/json"
				],
				"security": [
					{
						"BearerAuth": []
					}
				],
				"parameters": [
					{
						"type": "string",
						"format": "uuid",
						"description": "Outbox entry ID",
						"name": "id",
						"in": "path",
						"required": true
					}
				],
				"responses": {
					"200": {
						"description": "OK",
						"schema": {
							"$ref": "#/definitions/handler.APIResponse"
						}
					},
					"404": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					},
					"422": {
						"description": "Error",
						"schema": {
							"$ref": "#/definitions/handler.ErrorResponse"
						}
					}
				}
			}
		}
	},
	"definitions": {
		"dto.ErrorInfo": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string",
					"example": "ERR_VALIDATION"
				},
				"message": {
					"type": "string"
				},
				"request_id": {
					"type": "string"
				},
				"details": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/dto.ValidationDetail"
					}
				}
			}
		},
		"dto.ValidationDetail": {
			"type": "object",
			"properties": {
				"field": {
					"type": "string"
				},
				"message": {
					"type": "string"
				}
			}
		},
		"dto.Meta": {
			"type": "object",
			"properties": {
				"total": {
					"type": "integer"
				},
				"page": {
					"type": "integer"
				},
				"page_size": {
					"type": "integer"
				},
				"total_pages": {
					"type": "integer"
				}
			}
		},
		"handler.APIResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean"
				},
				"data": {
					"type": "object"
				},
				"error": {
					"$ref": "#/definitions/dto.ErrorInfo"
				},
				"meta": {
					"$ref": "#/definitions/dto.Meta"
				}
			}
		},
		"handler.ErrorResponse": {
			"type": "object",
			"properties": {
				"success": {
					"type": "boolean",
					"example": false
				},
				"error": {
					"$ref": "#/definitions/dto.ErrorInfo"
				}
			}
		},
		"identity.LoginInput": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"password": {
					"type": "string"
				}
			},
			"required": [
				"username",
				"password"
			]
		},
		"identity.RegisterInput": {
			"type": "object",
			"properties": {
				"username": {
					"type": "string"
				},
				"password": {
					"type": "string"
				},
				"email": {
					"type": "string"
				},
				"display_name": {
					"type": "string"
				},
				"phone": {
					"type": "string"
				}
			},
			"required": [
				"username",
				"password"
			]
		},
		"identity.RefreshTokenInput": {
			"type": "object",
			"properties": {
				"refresh_token": {
					"type": "string"
				}
			},
			"required": [
				"refresh_token"
			]
		},
		"identity.LogoutInput": {
			"type": "object",
			"properties": {
				"refresh_token": {
					"type": "string"
				},
				"all_sessions": {
					"type": "boolean"
				}
			}
		},
		"booking.CreateBookingRequest": {
			"type": "object",
			"properties": {
				"customer_id": {
					"type": "string",
					"format": "uuid"
				},
				"variant_id": {
					"type": "string",
					"format": "uuid"
				},
				"quantity": {
					"type": "integer",
					"minimum": 1
				},
				"price_type": {
					"type": "string",
					"enum": [
						"free_install",
						"with_install"
					]
				},
				"preferred_date": {
					"type": "string",
					"example": "2030-06-01"
				},
				"preferred_time": {
					"type": "string",
					"example": "09:30"
				},
				"address": {
					"type": "string"
				},
				"description": {
					"type": "string"
				}
			},
			"required": [
				"variant_id",
				"quantity",
				"preferred_date",
				"preferred_time",
				"address"
			]
		},
		"booking.UpdateBookingRequest": {
			"type": "object",
			"properties": {
				"status": {
					"type": "string",
					"enum": [
						"pending",
						"confirmed",
						"in-progress",
						"completed",
						"cancelled"
					]
				},
				"quantity": {
					"type": "integer",
					"minimum": 1
				},
				"preferred_date": {
					"type": "string"
				},
				"preferred_time": {
					"type": "string"
				},
				"price_type": {
					"type": "string",
					"enum": [
						"free_install",
						"with_install"
					]
				},
				"description": {
					"type": "string"
				},
				"technicians": {
					"type": "array",
					"items": {
						"type": "string",
						"format": "uuid"
					}
				}
			}
		},
		"catalog.RegisterProductRequest": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"description": {
					"type": "string"
				},
				"variants": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/catalog.RegisterVariantRequest"
					}
				}
			},
			"required": [
				"code",
				"name",
				"variants"
			]
		},
		"catalog.RegisterVariantRequest": {
			"type": "object",
			"properties": {
				"capacity": {
					"type": "string"
				},
				"price": {
					"type": "string",
					"example": "2000"
				},
				"installation_fee": {
					"type": "string",
					"example": "150"
				},
				"initial_stock": {
					"type": "array",
					"items": {
						"$ref": "#/definitions/catalog.InitialStockRequest"
					}
				}
			},
			"required": [
				"capacity"
			]
		},
		"catalog.InitialStockRequest": {
			"type": "object",
			"properties": {
				"warehouse_id": {
					"type": "string",
					"format": "uuid"
				},
				"quantity": {
					"type": "integer",
					"minimum": 1
				},
				"stock_type": {
					"type": "string",
					"enum": [
						"Regular",
						"Reserved",
						"Damaged",
						"Demo"
					]
				}
			},
			"required": [
				"warehouse_id",
				"quantity"
			]
		},
		"catalog.UpdateVariantRequest": {
			"type": "object",
			"properties": {
				"capacity": {
					"type": "string"
				},
				"price": {
					"type": "string"
				},
				"installation_fee": {
					"type": "string"
				},
				"status": {
					"type": "string",
					"enum": [
						"active",
						"inactive"
					]
				}
			}
		},
		"inventory.AddStockRequest": {
			"type": "object",
			"properties": {
				"variant_id": {
					"type": "string",
					"format": "uuid"
				},
				"warehouse_id": {
					"type": "string",
					"format": "uuid"
				},
				"quantity": {
					"type": "integer",
					"minimum": 1
				},
				"stock_type": {
					"type": "string",
					"enum": [
						"Regular",
						"Reserved",
						"Damaged",
						"Demo"
					]
				}
			},
			"required": [
				"variant_id",
				"quantity"
			]
		},
		"inventory.ReduceStockRequest": {
			"type": "object",
			"properties": {
				"variant_id": {
					"type": "string",
					"format": "uuid"
				},
				"quantity": {
					"type": "integer",
					"minimum": 1
				}
			},
			"required": [
				"variant_id",
				"quantity"
			]
		},
		"partner.CreateWarehouseRequest": {
			"type": "object",
			"properties": {
				"code": {
					"type": "string"
				},
				"name": {
					"type": "string"
				},
				"address": {
					"type": "string"
				},
				"sort_order": {
					"type": "integer",
					"minimum": 0
				},
				"is_default": {
					"type": "boolean"
				}
			},
			"required": [
				"code",
				"name"
			]
		}
	},
	"securityDefinitions": {
		"BearerAuth": {
			"description": "Type \"Bearer\" followed by a space and the access token.",
			"type": "apiKey",
			"name": "Authorization",
			"in": "header"
		}
	}
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:		  "1.0",
	Host:			 "",
	BasePath:		 "/api/v1",
	Schemes:		  []string{},
	Title:			"Servicebook API",
	Description:	  "Inventory-aware booking of installation services",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:		"{{",
	RightDelim:	   "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
