package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// GET /api/activity is the feed across every trip the caller is on.
func GetActivity(c *gin.Context) {
	activities, err := svc.Activity.ForUser(c.Request.Context(), utils.GetCurrentUserID(c), pagination(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}

// GET /api/trips/:id/activity
func GetTripActivity(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}
	if err := svc.Trips.RequireMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	activities, err := svc.Activity.ForTrip(c.Request.Context(), tripID, pagination(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", activities)
}
