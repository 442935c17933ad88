package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Lei-jenny/Travel-with-Me/models"
	"github.com/Lei-jenny/Travel-with-Me/utils"
)

// POST /api/trips/:id/expenses
func CreateExpense(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}

	var req models.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	expense, err := svc.Expenses.Create(c.Request.Context(), tripID, utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Expense added", expense.ToResponse())
}

// GET /api/trips/:id/expenses
func GetTripExpenses(c *gin.Context) {
	tripID, ok := pathID(c, "id", "trip")
	if !ok {
		return
	}
	if err := svc.Trips.RequireMember(c.Request.Context(), tripID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	expenses, err := svc.Expenses.List(c.Request.Context(), tripID, pagination(c))
	if err != nil {
		respondError(c, err)
		return
	}

	responses := make([]models.ExpenseResponse, 0, len(expenses))
	for i := range expenses {
		responses = append(responses, expenses[i].ToResponse())
	}
	utils.SuccessResponse(c, http.StatusOK, "", responses)
}

// GET /api/expenses/:id
func GetExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "id", "expense")
	if !ok {
		return
	}

	expense, err := svc.Expenses.Get(c.Request.Context(), expenseID, utils.GetCurrentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "", expense.ToResponse())
}

// PUT /api/expenses/:id replaces the expense and all of its shares.
func UpdateExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "id", "expense")
	if !ok {
		return
	}

	var req models.ExpenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequest(c, err.Error())
		return
	}

	expense, err := svc.Expenses.Update(c.Request.Context(), expenseID, utils.GetCurrentUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Expense updated", expense.ToResponse())
}

// DELETE /api/expenses/:id
func DeleteExpense(c *gin.Context) {
	expenseID, ok := pathID(c, "id", "expense")
	if !ok {
		return
	}

	if err := svc.Expenses.Delete(c.Request.Context(), expenseID, utils.GetCurrentUserID(c)); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Expense deleted", nil)
}
