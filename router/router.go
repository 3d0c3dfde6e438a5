package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/tableside/config"
	"github.com/yeremiapane/tableside/controllers"
	"github.com/yeremiapane/tableside/middlewares"
	"github.com/yeremiapane/tableside/models"
	"github.com/yeremiapane/tableside/notify"
	"github.com/yeremiapane/tableside/services"
	"gorm.io/gorm"
)

// Dependencies are the long-lived collaborators the HTTP layer is built from.
type Dependencies struct {
	DB       *gorm.DB
	Config   *config.Config
	Hub      *notify.Hub
	Limiter  *middlewares.RateLimiter
	Policies services.PolicyProvider
	Sessions *services.SessionService
	Parties  *services.PartyService
	Orders   *services.OrderService
	Bills    *services.BillService
	OTP      *services.OTPService
	Waiter   *services.WaiterService
}

func SetupRouter(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	jwtSecret := []byte(cfg.Auth.JWTSecret)

	r := gin.New()
	r.Use(gin.Recovery())
	if err := r.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		panic(err)
	}

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.Server.AllowedOrigin))
	r.Use(middlewares.LoggerMiddleware())

	sessionCtrl := controllers.NewSessionController(deps.Sessions, deps.Parties)
	partyCtrl := controllers.NewPartyController(deps.Parties)
	orderCtrl := controllers.NewOrderController(deps.Orders)
	billCtrl := controllers.NewBillController(deps.Bills)
	guestCtrl := controllers.NewGuestController(deps.OTP, deps.Waiter)
	menuCtrl := controllers.NewMenuController(deps.DB, deps.Policies)
	userCtrl := controllers.NewUserController(deps.DB, jwtSecret, cfg.Auth.TokenTTL)
	tableCtrl := controllers.NewTableController(deps.DB, deps.Orders)
	feedCtrl := controllers.NewFeedController(deps.Hub, cfg.Server.AllowedOrigin)
	maintenanceCtrl := controllers.NewMaintenanceController(deps.Parties, deps.Bills)

	limit := func(action string) gin.HandlerFunc {
		return deps.Limiter.Limit(action, cfg.Guest.RateLimitMax, cfg.Guest.RateLimitWindow)
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.POST("/tables/:table_id/sessions", limit("session"), sessionCtrl.StartSession)

	guest := r.Group("/sessions/:session_id")
	guest.Use(middlewares.GuestAuth(deps.Sessions))
	{
		guest.GET("", sessionCtrl.GetSession)
		guest.GET("/menu", menuCtrl.GetMenus)

		guest.GET("/party", partyCtrl.GetParty)
		guest.POST("/party", limit("party"), partyCtrl.CreateParty)
		guest.POST("/party/join", limit("party_join"), partyCtrl.JoinParty)
		guest.POST("/party/close", limit("party"), partyCtrl.CloseParty)

		guest.GET("/orders", orderCtrl.GetOrders)
		guest.GET("/orders/:order_id", orderCtrl.GetOrderByID)
		guest.POST("/orders", limit("order"), orderCtrl.CreateOrder)

		bills := guest.Group("/bill-requests")
		bills.GET("/latest", billCtrl.GetLatestBillRequest)
		bills.GET("/:bill_id", billCtrl.GetBillRequest)
		bills.POST("", limit("bill_request"), middlewares.AuditLogger("bill.create", "session_id"), billCtrl.CreateBillRequest)
		bills.POST("/:bill_id/cancel", limit("bill_request"), middlewares.AuditLogger("bill.cancel", "bill_id"), billCtrl.CancelBillRequest)
		bills.POST("/:bill_id/close", limit("bill_request"), billCtrl.CloseBillRequest)

		guest.POST("/otp/request", limit("otp"), guestCtrl.RequestOTP)
		guest.POST("/otp/verify", limit("otp_verify"), guestCtrl.VerifyOTP)
		guest.POST("/waiter-calls", limit("waiter_call"), guestCtrl.CallWaiter)
	}

	r.POST("/staff/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)

	staff := r.Group("/staff")
	staff.Use(middlewares.AuthMiddleware(jwtSecret))
	staff.Use(middlewares.RoleCheck(models.RoleStaff, models.RoleWaiter))
	{
		staff.GET("/me", userCtrl.GetProfile)
		staff.GET("/tables", tableCtrl.GetAllTables)
		staff.POST("/tables", middlewares.RoleCheck(models.RoleStaff), tableCtrl.CreateTable)
		staff.GET("/tables/:table_id/orders", tableCtrl.GetTableOrders)
		staff.GET("/tables/:table_id/bill-requests", billCtrl.GetTableBillRequests)
		staff.POST("/bill-requests/:bill_id/confirm", middlewares.RoleCheck(models.RoleStaff), middlewares.AuditLogger("bill.confirm", "bill_id"), billCtrl.ConfirmPaid)
	}

	ws := r.Group("/staff/ws")
	ws.Use(middlewares.WebSocketAuthMiddleware(jwtSecret))
	ws.GET("", feedCtrl.StaffFeed)

	maintenance := r.Group("/maintenance")
	maintenance.Use(middlewares.MaintenanceKey(cfg.Auth.MaintenanceKey))
	{
		maintenance.POST("/parties/sweep-expired", maintenanceCtrl.SweepParties)
		maintenance.POST("/bill-requests/sweep-expired", maintenanceCtrl.SweepBillRequests)
	}

	return r
}
