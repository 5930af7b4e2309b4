package routes

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"eventgo/auth"
	"eventgo/events"
	"eventgo/livefeed"
	"eventgo/metrics"
	"eventgo/middleware"
	"eventgo/profile"
	"eventgo/ratelim"
	"eventgo/tickets"
)

// Deps are the services the route table is built from.
type Deps struct {
	Auth        *auth.Service
	Profile     *profile.Service
	Events      *events.Service
	Tickets     *tickets.Service
	Hub         *livefeed.Hub
	Tokens      *middleware.Auth
	RateLimiter *ratelim.RateLimiter
}

// Index is a simple health check handler.
func Index(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	fmt.Fprint(w, "200")
}

func AddUtilityRoutes(router *httprouter.Router, d Deps) {
	router.GET("/health", Index)
	router.Handler(http.MethodGet, "/metrics", metrics.Handler())
}

func AddAuthRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/auth/register", d.RateLimiter.Limit(d.Auth.RegisterHandler))
	router.POST("/api/auth/login", d.RateLimiter.Limit(d.Auth.LoginHandler))
	router.POST("/api/auth/logout", d.Tokens.Authenticate(d.Auth.LogoutHandler))
	router.POST("/api/auth/refresh", d.RateLimiter.Limit(d.Tokens.Authenticate(d.Auth.RefreshHandler)))
	router.GET("/api/auth/me", d.Tokens.Authenticate(d.Auth.MeHandler))
}

func AddProfileRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/profile", d.Tokens.Authenticate(d.Profile.GetProfile))
	router.PUT("/api/profile", d.RateLimiter.Limit(d.Tokens.Authenticate(d.Profile.EditProfile)))
}

func AddEventsRoutes(router *httprouter.Router, d Deps) {
	router.GET("/api/events", d.Tokens.OptionalAuth(d.Events.GetEvents))
	router.GET("/api/events/:eventid", d.Events.GetEvent)
	router.GET("/api/events/:eventid/availability", d.Events.GetAvailability)
	router.POST("/api/events", d.RateLimiter.Limit(d.Tokens.RequireAdmin(d.Events.CreateEvent)))
	router.PUT("/api/events/:eventid", d.RateLimiter.Limit(d.Tokens.Authenticate(d.Events.EditEvent)))
	router.PUT("/api/events/:eventid/gallery", d.RateLimiter.Limit(d.Tokens.Authenticate(d.Events.EditGallery)))
	router.DELETE("/api/events/:eventid", d.RateLimiter.Limit(d.Tokens.Authenticate(d.Events.DeleteEvent)))

	router.GET("/api/events/:eventid/live", d.Tokens.OptionalAuth(livefeed.WebSocketHandler(d.Hub, d.Events.WatchAccess)))
}

func AddTicketRoutes(router *httprouter.Router, d Deps) {
	router.POST("/api/events/:eventid/purchase", d.RateLimiter.Limit(d.Tokens.Authenticate(d.Tickets.PurchaseHandler)))
	router.POST("/api/events/:eventid/tickets/generate", d.RateLimiter.Limit(d.Tokens.Authenticate(d.Tickets.GenerateHandler)))

	router.GET("/api/me/orders", d.Tokens.Authenticate(d.Tickets.MyOrders))
	router.GET("/api/me/orders/:orderid", d.Tokens.Authenticate(d.Tickets.MyOrder))
	router.GET("/api/me/tickets", d.Tokens.Authenticate(d.Tickets.MyTickets))

	router.GET("/api/tickets/:ticketid/qr.png", d.Tokens.Authenticate(d.Tickets.TicketQR))
	router.GET("/api/tickets/:ticketid/pdf", d.Tokens.Authenticate(d.Tickets.TicketPDF))

	router.POST("/api/scan", d.RateLimiter.Limit(d.Tokens.RequireAdmin(d.Tickets.ValidateQRHandler)))
	router.POST("/api/tickets/:ticketid/validate", d.RateLimiter.Limit(d.Tokens.RequireAdmin(d.Tickets.ValidateByID)))
}
