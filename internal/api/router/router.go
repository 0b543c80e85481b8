package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "pharmacart/docs" // registra a especificação do swagger

	"pharmacart/internal/api/admin"
	"pharmacart/internal/api/cart"
	"pharmacart/internal/api/catalog"
	"pharmacart/internal/api/contact"
	"pharmacart/internal/api/dashboard"
	"pharmacart/internal/api/inventory"
	"pharmacart/internal/api/order"
	"pharmacart/internal/api/otp"
	"pharmacart/internal/api/prescription"
	"pharmacart/internal/api/user"
	"pharmacart/internal/api/wishlist"
	"pharmacart/internal/domain"
	"pharmacart/internal/pkg/cache"
	"pharmacart/internal/pkg/logger"
	"pharmacart/internal/pkg/middleware"
)

// Handlers reúne os Handlers já inicializados por injeção de dependências.
type Handlers struct {
	User         *user.Handler
	Admin        *admin.Handler
	OTP          *otp.Handler
	Products     *catalog.Handler
	MotherBaby   *catalog.Handler
	Inventory    *inventory.Handler
	Orders       *order.Handler
	Cart         *cart.Handler
	Wishlist     *wishlist.Handler
	Prescription *prescription.Handler
	Contact      *contact.Handler
	Dashboard    *dashboard.Handler
}

// Options são os parâmetros de infraestrutura do roteador.
type Options struct {
	TokenSvc        middleware.TokenService
	Cache           cache.Client
	RateLimit       int
	RateLimitPeriod time.Duration
	RequestTimeout  time.Duration
	Logger          logger.Logger
}

// NewRouter configura e retorna o roteador HTTP principal.
func NewRouter(h Handlers, opt Options) http.Handler {
	if opt.RequestTimeout <= 0 {
		opt.RequestTimeout = 15 * time.Second
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID, chimw.RealIP, chimw.Recoverer)
	r.Use(requestLogger(opt.Logger))
	r.Use(chimw.Timeout(opt.RequestTimeout))

	r.Get("/ping", PingHandler)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	authenticated := middleware.NewAuthMiddleware(opt.TokenSvc)
	optionalAuth := middleware.NewOptionalAuthMiddleware(opt.TokenSvc)
	customerOnly := middleware.PermissionMiddleware(domain.RoleUser)
	adminOnly := middleware.PermissionMiddleware(domain.RoleAdmin, domain.RoleSuperAdmin)
	superOnly := middleware.PermissionMiddleware(domain.RoleSuperAdmin)
	limited := middleware.RateLimiter(opt.Cache, opt.RateLimit, opt.RateLimitPeriod, opt.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.With(limited).Post("/register", h.User.RegisterUserHandler)
			r.With(limited).Post("/login", h.User.LoginUserHandler)
			r.With(authenticated, customerOnly).Get("/me", h.User.MeHandler)
		})

		r.Route("/products", catalogRoutes(h.Products, optionalAuth, authenticated, adminOnly))
		r.Route("/mb/products", catalogRoutes(h.MotherBaby, optionalAuth, authenticated, adminOnly))

		r.Route("/inventory", func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/", h.Inventory.AddBatchHandler)
			r.Get("/", h.Inventory.ListBatchesHandler)
			r.Get("/stock", h.Inventory.StockBySizeHandler)
			r.Get("/{id}", h.Inventory.GetBatchHandler)
			r.Put("/{id}", h.Inventory.UpdateBatchHandler)
			r.Delete("/{id}", h.Inventory.DeleteBatchHandler)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(authenticated)
			r.With(customerOnly).Post("/", h.Orders.PlaceOrderHandler)
			r.With(customerOnly).Post("/checkout", h.Orders.CheckoutHandler)
			r.With(customerOnly).Get("/mine", h.Orders.ListMyOrdersHandler)
			r.Get("/{id}", h.Orders.GetOrderHandler)
			r.Post("/{id}/cancel", h.Orders.CancelOrderHandler)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", h.Orders.ListOrdersHandler)
				r.Patch("/{id}/status", h.Orders.UpdateStatusHandler)
				r.Delete("/{id}", h.Orders.DeleteOrderHandler)
			})
		})

		r.Route("/cart", func(r chi.Router) {
			r.Use(authenticated, customerOnly)
			r.Get("/", h.Cart.ViewHandler)
			r.Post("/", h.Cart.AddHandler)
			r.Delete("/", h.Cart.ClearHandler)
			r.Patch("/{id}", h.Cart.UpdateQuantityHandler)
			r.Delete("/{id}", h.Cart.RemoveHandler)
		})

		r.Route("/wishlist", func(r chi.Router) {
			r.Use(authenticated, customerOnly)
			r.Get("/", h.Wishlist.ListHandler)
			r.Post("/", h.Wishlist.AddHandler)
			r.Delete("/", h.Wishlist.RemoveHandler)
		})

		r.Route("/prescriptions", func(r chi.Router) {
			r.Use(authenticated)
			r.With(customerOnly).Post("/", h.Prescription.UploadHandler)
			r.With(customerOnly).Get("/mine", h.Prescription.ListMineHandler)
			r.Get("/{id}", h.Prescription.GetHandler)

			r.Group(func(r chi.Router) {
				r.Use(adminOnly)
				r.Get("/", h.Prescription.ListHandler)
				r.Post("/{id}/approve", h.Prescription.ApproveHandler)
				r.Post("/{id}/reject", h.Prescription.RejectHandler)
			})
		})

		r.With(authenticated, adminOnly).Get("/dashboard", h.Dashboard.SummaryHandler)
		r.Route("/reports", func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Get("/sales", h.Dashboard.SalesHandler)
			r.Get("/top-selling", h.Dashboard.TopSellingHandler)
			r.Get("/low-stock", h.Dashboard.LowStockHandler)
			r.Get("/expiring", h.Dashboard.ExpiringHandler)
		})

		r.Route("/admins", func(r chi.Router) {
			r.With(limited).Post("/login", h.Admin.LoginHandler)

			r.Group(func(r chi.Router) {
				r.Use(authenticated, adminOnly)
				r.Get("/", h.Admin.ListHandler)
				r.Get("/{id}", h.Admin.GetHandler)
				r.Post("/me/password", h.Admin.ChangePasswordHandler)
			})
			r.Group(func(r chi.Router) {
				r.Use(authenticated, superOnly)
				r.Post("/", h.Admin.CreateHandler)
				r.Patch("/{id}", h.Admin.UpdateHandler)
				r.Delete("/{id}", h.Admin.DeleteHandler)
			})
		})

		r.Route("/otp", func(r chi.Router) {
			r.Use(limited)
			r.Post("/request", h.OTP.RequestHandler)
			r.Post("/verify", h.OTP.VerifyHandler)
			r.Post("/reset", h.OTP.ResetHandler)
		})

		r.Route("/contact", func(r chi.Router) {
			r.With(limited).Post("/", h.Contact.SubmitHandler)
			r.With(authenticated, adminOnly).Get("/", h.Contact.ListHandler)
			r.With(authenticated, adminOnly).Delete("/{id}", h.Contact.DeleteHandler)
		})
	})

	return r
}

type middlewareFunc = func(http.Handler) http.Handler

// catalogRoutes monta as rotas de uma linha de catálogo.
func catalogRoutes(h *catalog.Handler, optionalAuth, authenticated, adminOnly middlewareFunc) func(chi.Router) {
	return func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", h.ListHandler)
			r.Get("/{id}", h.GetHandler)
			r.Get("/{id}/stock", h.StockHandler)
		})
		r.Group(func(r chi.Router) {
			r.Use(authenticated, adminOnly)
			r.Post("/", h.CreateHandler)
			r.Put("/{id}", h.UpdateHandler)
			r.Delete("/{id}", h.DeleteHandler)
			r.Post("/{id}/approve", h.ApproveHandler)
			r.Post("/{id}/unapprove", h.UnapproveHandler)
		})
	}
}

// requestLogger registra método, rota, status e duração de cada requisição.
func requestLogger(log logger.Logger) middlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.Info("Requisição concluída", map[string]interface{}{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      ww.Status(),
				"duration_ms": time.Since(start).Milliseconds(),
				"request_id":  chimw.GetReqID(r.Context()),
			})
		})
	}
}

// PingHandler é uma função utilitária para o health check.
func PingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("pong"))
}
