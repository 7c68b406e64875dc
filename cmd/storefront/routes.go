package main

import (
	"net/http"

	"github.com/joao-fontenele/storefront/internal/auth"
	"github.com/joao-fontenele/storefront/internal/telemetry"
)

func (a *app) routes(mux *http.ServeMux) {
	handle := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}
	user := auth.RequireUser
	staff := auth.RequireStaff

	handle("POST /auth/users", a.accounts.HandleRegister)

	handle("GET /products", a.catalog.HandleListProducts)
	handle("POST /products", staff(a.catalog.HandleCreateProduct))
	handle("GET /products/low-inventory", staff(a.catalog.HandleLowInventory))
	handle("GET /products/{id}", a.catalog.HandleGetProduct)
	handle("PUT /products/{id}", staff(a.catalog.HandleUpdateProduct))
	handle("DELETE /products/{id}", staff(a.catalog.HandleDeleteProduct))
	handle("PUT /products/{id}/promotions", staff(a.catalog.HandleSetPromotions))
	handle("POST /products/{id}/inventory", staff(a.catalog.HandleAdjustInventory))
	handle("GET /products/{id}/reviews", a.catalog.HandleListReviews)
	handle("POST /products/{id}/reviews", a.catalog.HandleCreateReview)
	handle("GET /products/{id}/images", a.images.HandleList)
	handle("POST /products/{id}/images", staff(a.images.HandleUpload))
	handle("DELETE /products/{id}/images/{image}", staff(a.images.HandleDelete))

	handle("GET /collections", a.catalog.HandleListCollections)
	handle("POST /collections", staff(a.catalog.HandleCreateCollection))
	handle("GET /collections/{id}", a.catalog.HandleGetCollection)
	handle("PUT /collections/{id}", staff(a.catalog.HandleUpdateCollection))
	handle("DELETE /collections/{id}", staff(a.catalog.HandleDeleteCollection))

	handle("GET /promotions", a.catalog.HandleListPromotions)
	handle("POST /promotions", staff(a.catalog.HandleCreatePromotion))

	handle("POST /carts", a.carts.HandleCreate)
	handle("GET /carts/{id}", a.carts.HandleGet)
	handle("DELETE /carts/{id}", a.carts.HandleDelete)
	handle("POST /carts/{id}/items", a.carts.HandleAddItem)
	handle("PATCH /carts/{id}/items/{item}", a.carts.HandleUpdateItem)
	handle("DELETE /carts/{id}/items/{item}", a.carts.HandleRemoveItem)

	handle("POST /orders", user(a.orders.HandleCreate))
	handle("GET /orders", user(a.orders.HandleList))
	handle("GET /orders/{id}", user(a.orders.HandleGet))
	handle("PATCH /orders/{id}", staff(a.orders.HandleUpdatePaymentStatus))
	handle("DELETE /orders/{id}", user(a.orders.HandleCancel))

	handle("GET /customers/me", user(a.customers.HandleGetMe))
	handle("PUT /customers/me", user(a.customers.HandleUpdateMe))
	handle("GET /customers/me/addresses", user(a.customers.HandleListAddresses))
	handle("POST /customers/me/addresses", user(a.customers.HandleAddAddress))
	handle("GET /customers", staff(a.customers.HandleList))
	handle("PATCH /customers/{id}/membership", staff(a.customers.HandleSetMembership))

	handle("GET /tags/kinds", a.tags.HandleKinds)
	handle("GET /tags/{kind}/{id}", a.tags.HandleList)
	handle("POST /tags/{kind}/{id}", staff(a.tags.HandleTag))
	handle("DELETE /tags/{kind}/{id}/{tag}", staff(a.tags.HandleUntag))
}
