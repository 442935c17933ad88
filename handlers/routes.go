package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/Lei-jenny/Travel-with-Me/middleware"
)

// RegisterRoutes mounts the public auth routes and the authenticated API.
func RegisterRoutes(r *gin.Engine) {
	r.GET("/health", health)

	// ==========================================
	// AUTH ROUTES (public)
	// ==========================================
	auth := r.Group("/auth")
	{
		auth.POST("/register", Register)
		auth.POST("/login", Login)
	}

	// ==========================================
	// API ROUTES (authenticated)
	// ==========================================
	api := r.Group("/api")
	api.Use(middleware.AuthRequired())
	{
		// User
		api.GET("/users/me", GetProfile)
		api.PUT("/users/me", UpdateProfile)
		api.PUT("/users/me/fcm-token", UpdateFCMToken)
		api.POST("/users/search", SearchUsers)

		// Trips
		api.POST("/trips", CreateTrip)
		api.GET("/trips", GetTrips)
		api.GET("/trips/:id", GetTrip)
		api.POST("/trips/:id/members", AddMember)
		api.DELETE("/trips/:id/members/:uid", RemoveMember)

		// Itinerary
		api.POST("/trips/:id/itinerary", CreateItineraryItem)
		api.GET("/trips/:id/itinerary", GetItinerary)
		api.GET("/trips/:id/itinerary/unlogged", GetUnloggedItinerary)

		// Expenses
		api.POST("/trips/:id/expenses", CreateExpense)
		api.GET("/trips/:id/expenses", GetTripExpenses)
		api.GET("/expenses/:id", GetExpense)
		api.PUT("/expenses/:id", UpdateExpense)
		api.DELETE("/expenses/:id", DeleteExpense)

		// Ledger
		api.GET("/trips/:id/balances", GetTripBalances)
		api.GET("/trips/:id/settlements", GetTripSettlements)

		// Activity
		api.GET("/activity", GetActivity)
		api.GET("/trips/:id/activity", GetTripActivity)
	}
}
