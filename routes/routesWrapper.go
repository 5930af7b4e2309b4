package routes

import (
	"github.com/julienschmidt/httprouter"
)

func RoutesWrapper(router *httprouter.Router, d Deps) {
	AddUtilityRoutes(router, d)
	AddAuthRoutes(router, d)
	AddProfileRoutes(router, d)
	AddEventsRoutes(router, d)
	AddTicketRoutes(router, d)
}
