package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	RouteAPIPrefix = "/api/v1/"

	// Auth Routes
	RouteAuthLogin    = "/api/v1/auth/login"
	RouteAuthRegister = "/api/v1/auth/register"
	RouteAuthRefresh  = "/api/v1/auth/refresh"
	RouteAuthLogout   = "/api/v1/auth/logout"
	RouteAuthMe       = "/api/v1/auth/me"

	// Staff Routes
	RouteStaffPing = "/api/v1/staff/ping"

	RouteHealth = "/healthz"
)

// refreshTokenParam is accepted as a query parameter on refresh and logout
const refreshTokenParam = "refreshToken"
