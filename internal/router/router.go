package router

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"tutorlink/internal/approval"
	"tutorlink/internal/handler"
	"tutorlink/internal/handler/api"
	"tutorlink/internal/ledger"
	"tutorlink/internal/middleware"
	"tutorlink/internal/models"
	"tutorlink/internal/reconcile"
	"tutorlink/internal/repository"
)

// Services bundles what the routes are served by.
type Services struct {
	DB        *gorm.DB
	Ledger    *ledger.Ledger
	Engine    *reconcile.Engine
	Approval  *approval.Service
	Gateways  handler.CallbackGateways
	Deduper   middleware.DeliveryDeduper
	JWTSecret string
	AppURL    string
}

// Setup configures all routes for the Echo server.
func Setup(e *echo.Echo, s Services, logger *zap.Logger) {
	// Global middleware
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.CORS())
	e.Validator = api.NewValidator()

	// Handlers
	paymentHandler := api.NewPaymentHandler(s.Engine, repository.NewPaymentRepository(s.DB), logger)
	bookingHandler := api.NewBookingHandler(s.Ledger, s.Engine, logger)
	applicationHandler := api.NewApplicationHandler(s.Approval, logger)
	callbackHandler := handler.NewPaymentCallbackHandler(s.Engine, s.Gateways, s.Deduper, s.AppURL, logger)

	// Gateway callbacks carry their own signatures.
	callbacks := e.Group("/api/payments", middleware.APILogger(logger))
	callbacks.POST("/card/webhook", callbackHandler.CardWebhook)
	callbacks.POST("/wallet/ipn", callbackHandler.WalletIPN)
	callbacks.GET("/wallet/return", callbackHandler.WalletReturn)
	callbacks.GET("/bank/ipn", callbackHandler.BankIPN)
	callbacks.GET("/bank/return", callbackHandler.BankReturn)

	// API group with auth + logging middleware
	apiGroup := e.Group("/api", middleware.JWTAuth(s.JWTSecret), middleware.APILogger(logger))

	apiGroup.GET("/bookings", bookingHandler.List)
	apiGroup.POST("/bookings/accept", bookingHandler.Accept)
	apiGroup.GET("/bookings/:id", bookingHandler.Get)

	apiGroup.POST("/payments/card/create", paymentHandler.Create(models.GatewayCard))
	apiGroup.POST("/payments/card/onboard", paymentHandler.Onboard)
	apiGroup.POST("/payments/wallet/create", paymentHandler.Create(models.GatewayWallet))
	apiGroup.POST("/payments/bank/create", paymentHandler.Create(models.GatewayBank))
	apiGroup.POST("/payments/cash/declare", paymentHandler.DeclareCash)
	apiGroup.POST("/payments/cash/confirm", paymentHandler.ConfirmCash)
	apiGroup.POST("/payments/bank-transfer/submit", paymentHandler.SubmitBankTransfer)
	apiGroup.GET("/payments/bank-transfer/:id", paymentHandler.TransferInstructions)

	apiGroup.POST("/applications", applicationHandler.Submit)

	// Admin routes; the approval service also checks the stored role.
	admin := apiGroup.Group("/admin")
	admin.GET("/applications", applicationHandler.ListPending)
	admin.POST("/applications", applicationHandler.Review)
	admin.GET("/payments", paymentHandler.ListPayments, middleware.RequireRole(string(models.RoleAdmin)))

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}
