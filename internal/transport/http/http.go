package httptransport

import (
	"context"
	_ "embed"
	"log/slog"
	"net/http"

	"github.com/addismart/storefront/internal/service/models/currency"
	"github.com/addismart/storefront/internal/service/models/order"
	"github.com/addismart/storefront/internal/service/models/payment"
	"github.com/addismart/storefront/internal/service/models/principal"
	"github.com/addismart/storefront/internal/service/services/orderledger"
	"github.com/addismart/storefront/internal/service/services/paymentsvc"
	cancelorder "github.com/addismart/storefront/internal/transport/http/cancel_order"
	createorder "github.com/addismart/storefront/internal/transport/http/create_order"
	initiatepayment "github.com/addismart/storefront/internal/transport/http/initiate_payment"
	listorders "github.com/addismart/storefront/internal/transport/http/list_orders"
	listpayments "github.com/addismart/storefront/internal/transport/http/list_payments"
	"github.com/addismart/storefront/internal/transport/http/middleware/auth"
	verifypayment "github.com/addismart/storefront/internal/transport/http/verify_payment"
	"github.com/addismart/storefront/pkg/http/middleware/trace"
	"github.com/addismart/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/spf13/viper"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

//go:embed openapi.json
var openapiDoc []byte

type orderService interface {
	CreateFromCart(ctx context.Context, p principal.Principal, req orderledger.CreateOrderRequest) (*order.Order, error)
	Cancel(ctx context.Context, p principal.Principal, orderID uuid.UUID) (*order.Order, error)
	GetOrders(ctx context.Context, p principal.Principal, query order.QueryOrdersModel) ([]order.Order, error)
}

type paymentService interface {
	Initiate(ctx context.Context, p principal.Principal, orderID uuid.UUID, providerKey string, cur currency.Currency) (*paymentsvc.InitiateOutcome, error)
	Verify(ctx context.Context, providerKey string, transactionRef string) (*paymentsvc.VerifyOutcome, error)
	GetPayments(ctx context.Context, p principal.Principal) ([]payment.Payment, error)
}

type HTTPTransport struct {
	server     *http.Server
	router     *chi.Mux
	orderSvc   orderService
	paymentSvc paymentService
}

func NewHTTPTransport(orderSvc orderService, paymentSvc paymentService) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:     server,
		router:     router,
		orderSvc:   orderSvc,
		paymentSvc: paymentSvc,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport. Verification
// endpoints are public: the redirect comes from the customer's browser and
// the webhook from the provider, neither carries gateway identity headers.
func (h *HTTPTransport) RegisterRoutes() {
	h.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.Middleware)

			r.Post("/orders", h.createOrder)
			r.Get("/orders", h.listOrders)
			r.Post("/orders/{orderID}/cancel", h.cancelOrder)
			r.Post("/payments/initiate/{orderID}", h.initiatePayment)
			r.Get("/payments", h.listPayments)
		})

		// Same path, method-split: GET is the customer's browser coming back
		// from checkout, POST is the provider's server-to-server webhook.
		r.Get("/payments/verify/{provider}/", h.verifyRedirect)
		r.Post("/payments/verify/{provider}/", h.verifyWebhook)
	})

	h.router.Get("/swagger/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(openapiDoc)
	})
	h.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orderSvc)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.orderSvc)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.orderSvc)
}

func (h *HTTPTransport) initiatePayment(w http.ResponseWriter, r *http.Request) {
	initiatepayment.InitiatePayment(w, r, h.paymentSvc)
}

func (h *HTTPTransport) verifyRedirect(w http.ResponseWriter, r *http.Request) {
	verifypayment.VerifyRedirect(w, r, h.paymentSvc)
}

func (h *HTTPTransport) verifyWebhook(w http.ResponseWriter, r *http.Request) {
	verifypayment.VerifyWebhook(w, r, h.paymentSvc)
}

func (h *HTTPTransport) listPayments(w http.ResponseWriter, r *http.Request) {
	listpayments.ListPayments(w, r, h.paymentSvc)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}
