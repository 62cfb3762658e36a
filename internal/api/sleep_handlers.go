package api

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ram4lh0/Sleep-App/internal/auth"
	"github.com/Ram4lh0/Sleep-App/internal/service"
)

// feedKeepAlive is how often an idle feed gets a ping event.
const feedKeepAlive = 25 * time.Second

func PostSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		var body service.SleepRecordRequest
		if err := c.ShouldBindJSON(&body); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		rec, err := app.Sleep().Create(c.Request.Context(), user, &body)
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err, http.StatusInternalServerError), "Failed to save record")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, rec, nil)
	}
}

func GetSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)

		recs, err := app.Sleep().List(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch records")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, recs, map[string]any{"total": len(recs)})
	}
}

func DeleteSleep(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		id := c.Param("id")

		if err := app.Sleep().Delete(c.Request.Context(), user.ID, id); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err, http.StatusInternalServerError), "Failed to delete record")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, gin.H{"id": id}, nil)
	}
}

func GetSleepStats(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		recs, err := app.Sleep().List(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch records for stats")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, service.CalculateSleepStats(recs), nil)
	}
}

func GetSleepChart(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		recs, err := app.Sleep().List(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch records for chart")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, service.ChartSeries(recs), map[string]any{"window": service.ChartWindow})
	}
}

func GetSleepExport(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		recs, err := app.Sleep().List(c.Request.Context(), user.ID)
		if err != nil {
			HandleError(c, app.Logger(), err, http.StatusInternalServerError, "Failed to fetch records for export")
			return
		}

		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", `attachment; filename="`+service.ExportFilename(app.Clock())+`"`)
		c.Status(http.StatusOK)
		if err := service.ExportCSV(c.Writer, recs); err != nil {
			app.Logger().Errorf("[request_id=%s] export for user_id=%s failed: %v", c.GetString("request_id"), user.ID, err)
		}
	}
}

// GetSleepFeed streams the caller's change events as Server-Sent Events
// until the client goes away or the hub shuts down.
func GetSleepFeed(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		events, cancel := app.Feed().Subscribe(user.ID)
		defer cancel()

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.SSEvent("ready", gin.H{"user_id": user.ID})
		c.Writer.Flush()

		ticker := time.NewTicker(feedKeepAlive)
		defer ticker.Stop()

		ctx := c.Request.Context()
		c.Stream(func(w io.Writer) bool {
			select {
			case ev, ok := <-events:
				if !ok {
					return false
				}
				c.SSEvent(string(ev.Type), ev)
				return true
			case <-ticker.C:
				c.SSEvent("ping", gin.H{"at": app.Clock().Now()})
				return true
			case <-ctx.Done():
				return false
			}
		})
	}
}
