package api

import (
	"net/http"

	"bitbucket.org/parqueoasis/tambola/config"
	"bitbucket.org/parqueoasis/tambola/middlewares"
	"bitbucket.org/parqueoasis/tambola/server"
)

// HealthcheckHandler indicates the service's healthy
func HealthcheckHandler(_ *config.AppContext, w *middlewares.ResponseWriter, _ *http.Request) {
	w.WriteJSON(http.StatusOK, map[string]string{"status": "healthy"}, nil, "")
}

// GetRoutes ...
func GetRoutes() []*server.Route {
	return []*server.Route{
		{Path: "/health", Methods: []string{"GET", "HEAD"}, Handler: HealthcheckHandler},

		// Player pages
		{Path: "/", Methods: []string{"GET", "HEAD"}, Handler: Index},
		{Path: "/qr.png", Methods: []string{"GET", "HEAD"}, Handler: RegisterQRCode},
		{Path: "/register", Methods: []string{"GET", "HEAD"}, Handler: RegisterForm},
		{Path: "/register", Methods: []string{"POST"}, Handler: Register},
		{Path: "/ticket", Methods: []string{"GET", "HEAD"}, Handler: ShowTicket},
		{Path: "/ticket.pdf", Methods: []string{"GET"}, Handler: TicketPDF},

		// Player API
		{Path: "/api/register", Methods: []string{"POST"}, Handler: RegisterJSON},
		{Path: "/api/ticket", Methods: []string{"GET", "HEAD"}, Handler: GetTicket},

		// Admin
		{Path: "/admin/login", Methods: []string{"GET", "HEAD"}, Handler: AdminLoginForm},
		{Path: "/admin/login", Methods: []string{"POST"}, Handler: AdminLogin},
		{Path: "/admin", Methods: []string{"GET", "HEAD"}, Handler: AdminPlayers, IsProtected: true},
		{Path: "/api/admin/login", Methods: []string{"POST"}, Handler: AdminLoginJSON},
		{Path: "/api/admin/players", Methods: []string{"GET", "HEAD"}, Handler: GetPlayers, IsProtected: true},
		{Path: "/api/admin/players/{code}", Methods: []string{"GET", "HEAD"}, Handler: GetPlayer, IsProtected: true},
	}
}
