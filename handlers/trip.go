package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// POST /api/trips
func CreateTrip(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	var req models.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	trip, err := svc.Trips.Create(c.Request.Context(), userID, req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Trip created", trip.ToResponse())
}

// GET /api/trips
func GetTrips(c *gin.Context) {
	userID := utils.GetCurrentUserID(c)

	trips, err := svc.Trips.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.TripResponse, 0, len(trips))
	for i := range trips {
		responses = append(responses, trips[i].ToResponse())
	}
	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/trips/:id
func GetTrip(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}

	trip, err := svc.Trips.Get(c.Request.Context(), tripID, utils.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", trip.ToResponse())
}

// POST /api/trips/:id/members
func AddMember(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}

	var req models.AddMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	member, invited, err := svc.Trips.AddMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	if invited {
		utils.SuccessResponse(c, http.StatusAccepted, "Invitation sent", gin.H{"email": req.Email})
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Member added", member.ToResponse())
}

// DELETE /api/trips/:id/members/:uid
func RemoveMember(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}
	memberID, ok := pathID(c, "uid", "user")
	if !ok {
		return
	}

	if err := svc.Trips.RemoveMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c), memberID); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Member removed", nil)
}
