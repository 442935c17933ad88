package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// POST /api/trips/:id/itinerary
func CreateItineraryItem(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}
	if err := svc.Trips.RequireMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	var req models.CreateItineraryItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	item, err := svc.Itinerary.Create(c.Request.Context(), tripID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Itinerary item added", item)
}

// GET /api/trips/:id/itinerary
func GetItinerary(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}
	if err := svc.Trips.RequireMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	items, err := svc.Itinerary.List(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", items)
}

// GET /api/trips/:id/itinerary/unlogged lists stops that have no expense yet.
func GetUnloggedItinerary(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}
	if err := svc.Trips.RequireMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	items, err := svc.Itinerary.Unlogged(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", items)
}
