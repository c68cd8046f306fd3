package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rohanjoshi-dev/bitekart-backend/api/controllers"
	admincontrollers "github.com/rohanjoshi-dev/bitekart-backend/api/controllers/admin"
	cartcontrollers "github.com/rohanjoshi-dev/bitekart-backend/api/controllers/cart"
	ordercontrollers "github.com/rohanjoshi-dev/bitekart-backend/api/controllers/orders"
	vendorcontrollers "github.com/rohanjoshi-dev/bitekart-backend/api/controllers/vendor"
	webhookcontrollers "github.com/rohanjoshi-dev/bitekart-backend/api/controllers/webhooks"
	"github.com/rohanjoshi-dev/bitekart-backend/api/middleware"
	authsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/auth"
	cartsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/cart"
	checkoutsvc "github.com/rohanjoshi-dev/bitekart-backend/internal/checkout"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/notifications"
	orderssvc "github.com/rohanjoshi-dev/bitekart-backend/internal/orders"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/payments"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/products"
	"github.com/rohanjoshi-dev/bitekart-backend/internal/screenshots"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/config"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/enums"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/logger"
	"github.com/rohanjoshi-dev/bitekart-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Optional fields
// (Redis, Registry, WebhookGuard) may be nil; the affected routes
// degrade gracefully.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Pingers  map[string]controllers.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry

	Auth          authsvc.Service
	Cart          cartsvc.Service
	Checkout      checkoutsvc.Service
	Orders        orderssvc.Service
	Payments      payments.Service
	Screenshots   screenshots.Service
	Notifications *notifications.Service
	Products      products.Repository
	Settings      checkoutsvc.SettingsSource
	WebhookGuard  webhookcontrollers.EventGuard
}

func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	// Without redis the limiters become passthroughs.
	limitLogin := passthrough
	limitPayment := passthrough
	if d.Redis != nil {
		loginPolicy := middleware.NewRateLimitPolicy("login", cfg.RateLimit.LoginWindow, cfg.RateLimit.LoginLimit)
		paymentPolicy := middleware.NewRateLimitPolicy("verify", cfg.RateLimit.PaymentWindow, cfg.RateLimit.PaymentLimit)
		limitLogin = middleware.RateLimit(loginPolicy, d.Redis, logg)
		limitPayment = middleware.RateLimit(paymentPolicy, d.Redis, logg)
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Pingers))
	})

	if d.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/webhooks", func(r chi.Router) {
		r.Post("/razorpay", webhookcontrollers.Razorpay(d.Payments, d.WebhookGuard, logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(limitLogin).Post("/login", controllers.AuthLogin(d.Auth, logg))
		r.Post("/register", controllers.AuthRegister(d.Auth, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartcontrollers.Fetch(d.Cart, logg))
			r.Post("/items", cartcontrollers.AddItem(d.Cart, logg))
			r.Put("/items/{productId}", cartcontrollers.UpdateItem(d.Cart, logg))
			r.Delete("/items/{productId}", cartcontrollers.RemoveItem(d.Cart, logg))
			r.Delete("/", cartcontrollers.Clear(d.Cart, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", ordercontrollers.Checkout(d.Checkout, logg))
			r.Get("/", ordercontrollers.List(d.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(d.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.Cancel(d.Orders, logg))
			r.Post("/{orderId}/payment-intent", ordercontrollers.CreatePaymentIntent(d.Payments, logg))
			r.With(limitPayment).Post("/{orderId}/verify-payment", ordercontrollers.VerifyPayment(d.Payments, logg))
			r.Post("/{orderId}/upload-screenshot", ordercontrollers.UploadScreenshot(d.Screenshots, cfg.Uploads, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(d.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(d.Notifications, logg))
			r.Post("/device-tokens", controllers.RegisterDeviceToken(d.Notifications, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleVendor, logg))
			r.Get("/orders", vendorcontrollers.OrderQueue(d.Orders, logg))
			r.Put("/orders/{orderId}/status", vendorcontrollers.UpdateOrderStatus(d.Orders, logg))
			r.Get("/products", vendorcontrollers.ListProducts(d.Products, logg))
			r.Patch("/products/{productId}/availability", vendorcontrollers.SetProductAvailability(d.Products, logg))
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.RoleAdmin, logg))
			r.Get("/payment-screenshots", admincontrollers.ListScreenshots(d.Screenshots, logg))
			r.Put("/payment-screenshots/{screenshotId}/verify", admincontrollers.ReviewScreenshot(d.Screenshots, logg))
			r.Get("/delivery-settings", admincontrollers.GetDeliverySettings(d.Settings, cfg.Delivery, logg))
			r.Put("/delivery-settings", admincontrollers.UpdateDeliverySettings(d.Settings, logg))
		})
	})

	return r
}

func passthrough(next http.Handler) http.Handler { return next }
