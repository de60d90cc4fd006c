package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	custommiddleware "github.com/pizzasmolina/shop-backend/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса магазина.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.GzipMiddleware)
	r.Use(custommiddleware.Logger(h.logger))

	r.Route("/usuarios", func(r chi.Router) {
		r.Post("/registro", h.Register)
		r.Post("/login", h.Login)
		r.Post("/recuperar-password", h.RecoverPassword)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Get("/verificar-usuario", h.VerifyUser)
			r.Get("/compras", h.GetPurchases)
		})
	})

	// Токен для checkout передаётся в теле запроса, поэтому маршрут без auth middleware.
	r.Route("/checkout", func(r chi.Router) {
		r.Post("/create-checkout-session", h.CreateCheckoutSession)
	})

	r.Route("/productos", func(r chi.Router) {
		r.Get("/", h.GetProducts)
		r.Post("/", h.CreateProduct)
		r.Delete("/{id}", h.DeleteProduct)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
