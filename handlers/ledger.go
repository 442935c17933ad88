package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// GET /api/trips/:id/balances
func GetTripBalances(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}
	if err := svc.Trips.RequireMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	view, err := svc.Ledger.TripLedger(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view.Balances)
}

// GET /api/trips/:id/settlements returns the suggested transfers that settle
// the trip, one plan per currency.
func GetTripSettlements(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}
	if err := svc.Trips.RequireMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	view, err := svc.Ledger.TripLedger(c.Request.Context(), tripID)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", view.Settlement)
}
