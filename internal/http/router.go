package api

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"skitro/internal/domain"
	h "skitro/internal/http/handlers"
	"skitro/internal/http/middleware"
	"skitro/internal/metrics"
	"skitro/internal/utils"
)

// Options are the optional collaborators of the router.
type Options struct {
	JWTSecret   string
	CORSOrigins []string
	Redis       *redis.Client
	NewRelic    *newrelic.Application
}

func NewRouter(hs h.Handlers, opt Options) *gin.Engine {
	r := gin.New()
	if opt.NewRelic != nil {
		r.Use(nrgin.Middleware(opt.NewRelic))
	}
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(opt.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.Log.WithError(err).Warn("failed to set trusted proxies")
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"code":   "not_found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	auth := middleware.Authenticate(opt.JWTSecret)
	staff := middleware.RequireRoles(domain.RoleDriver, domain.RoleAdmin)

	api := r.Group("/api")
	{
		api.GET("/health", h.Health)
		api.GET("/db-check", hs.DBCheck)

		bookings := api.Group("/bookings")
		// provider redirect carries no token
		bookings.GET("/verify", hs.VerifyBookingCallback)

		rider := bookings.Group("", middleware.RequireRider(opt.JWTSecret)...)
		rider.POST("", middleware.Idempotency(opt.Redis), hs.CreateBooking)
		rider.POST("/verify", hs.VerifyBooking)
		rider.GET("/me", hs.MyBookings)

		bookings.GET("/refunds-owed", auth, middleware.RequireRoles(domain.RoleAdmin), hs.RefundsOwed)
		bookings.GET("/code/:code", auth, hs.GetBookingByCode)
		bookings.GET("/code/:code/e-ticket", auth, hs.GetETicketPDF)
		bookings.GET("/:id", auth, hs.GetBooking)

		trips := api.Group("/trips", auth)
		trips.POST("", staff, hs.CreateTrip)
		trips.GET("/driver/:driverId", hs.DriverTrips)
		trips.GET("/:id", hs.GetTrip)
		trips.GET("/:id/bookings", staff, hs.TripBookings)
		trips.GET("/:id/manifest", staff, hs.GetTripManifest)
		trips.POST("/:id/depart", staff, hs.DepartTrip)
		trips.POST("/:id/complete", staff, hs.CompleteTrip)
		trips.POST("/:id/cancel", staff, hs.CancelTrip)

		payments := api.Group("/payments")
		payments.POST("/webhook", hs.PaystackWebhook)
	}

	return r
}
