// Package docs registra a especificação OpenAPI servida em /swagger.
// Gerado a partir das anotações dos handlers (swag init -g cmd/main.go); não editar à mão.
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
        "/auth/register": {"post": {"tags": ["auth"], "summary": "Registra um novo cliente", "responses": {"201": {"description": "Created"}}}},
        "/auth/login": {"post": {"tags": ["auth"], "summary": "Autentica um cliente e retorna um JWT", "responses": {"200": {"description": "OK"}}}},
        "/auth/me": {"get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Perfil do cliente autenticado", "responses": {"200": {"description": "OK"}}}},
        "/products": {
            "get": {"tags": ["catalog"], "summary": "Lista o catálogo", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Cadastra um item de catálogo com o lote inicial", "responses": {"201": {"description": "Created"}}}
        },
        "/products/{id}": {
            "get": {"tags": ["catalog"], "summary": "Busca um item de catálogo", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Atualiza um item de catálogo", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["catalog"], "summary": "Exclui um item de catálogo", "responses": {"204": {"description": "No Content"}}}
        },
        "/products/{id}/stock": {"get": {"tags": ["catalog"], "summary": "Estoque agregado por tamanho", "responses": {"200": {"description": "OK"}}}},
        "/inventory": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Lista os lotes de um item na ordem de consumo", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Cadastra um lote de estoque", "responses": {"201": {"description": "Created"}}}
        },
        "/inventory/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Busca um lote", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Substitui número e variantes do lote", "responses": {"200": {"description": "OK"}, "409": {"description": "Conflict"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["inventory"], "summary": "Remove um lote", "responses": {"204": {"description": "No Content"}}}
        },
        "/orders": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Lista todos os pedidos", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Cria um pedido e baixa o estoque", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/orders/checkout": {"post": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Fecha o carrinho como pedido", "responses": {"201": {"description": "Created"}}}},
        "/orders/{id}/cancel": {"post": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Cancela um pedido e devolve o estoque", "responses": {"200": {"description": "OK"}}}},
        "/orders/{id}/status": {"patch": {"security": [{"BearerAuth": []}], "tags": ["orders"], "summary": "Avança o status do pedido (admin)", "responses": {"200": {"description": "OK"}}}},
        "/cart": {"get": {"security": [{"BearerAuth": []}], "tags": ["cart"], "summary": "Mostra o carrinho com preços e subtotais", "responses": {"200": {"description": "OK"}}}},
        "/wishlist": {"get": {"security": [{"BearerAuth": []}], "tags": ["wishlist"], "summary": "Lista de desejos com nome, imagem e preço", "responses": {"200": {"description": "OK"}}}},
        "/prescriptions": {"post": {"security": [{"BearerAuth": []}], "tags": ["prescriptions"], "summary": "Envia uma receita (URL da imagem)", "responses": {"201": {"description": "Created"}}}},
        "/dashboard": {"get": {"security": [{"BearerAuth": []}], "tags": ["dashboard"], "summary": "Indicadores do painel", "responses": {"200": {"description": "OK"}}}},
        "/admins/login": {"post": {"tags": ["admins"], "summary": "Autentica um administrador", "responses": {"200": {"description": "OK"}}}},
        "/otp/request": {"post": {"tags": ["otp"], "summary": "Envia um código de redefinição por e-mail", "responses": {"204": {"description": "No Content"}, "429": {"description": "Too Many Requests"}}}},
        "/contact": {"post": {"tags": ["contact"], "summary": "Envia uma mensagem de contato", "responses": {"201": {"description": "Created"}}}}
    },
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo guarda as informações exportadas da especificação.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "PharmaCart API",
	Description:      "Farmácia e Mãe & Bebê: catálogo, estoque por lote, pedidos, receitas e painel.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
