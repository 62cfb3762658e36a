package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Ram4lh0/Sleep-App/internal/auth"
	"github.com/Ram4lh0/Sleep-App/internal/service"
)

func PostGoal(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var req service.GoalRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid request: type and value required")
			return
		}

		if err := service.ValidateGoalRequest(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Goal validation failed")
			return
		}

		goal, err := service.CreateGoal(c.Request.Context(), app.GoalRepo(), user, &req, app.Clock())
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to save goal")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, goal, nil)
	}
}

func GetGoalProgress(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		goal, err := app.GoalRepo().GetGoal(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err, http.StatusInternalServerError), "No goal set for user")
			return
		}

		recs, err := app.Sleep().List(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch records for goal progress")
			return
		}

		progress := service.CalculateGoalProgress(goal, recs, app.Clock())
		HandleSuccess(c, app.Logger(), http.StatusOK, progress, nil)
	}
}
