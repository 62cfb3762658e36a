package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/auth"
)

type signInResponse struct {
	Token     string         `json:"token"`
	ExpiresAt time.Time      `json:"expires_at"`
	User      *internal.User `json:"user"`
}

func PostSignUp(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.SignUpRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		user, err := app.Accounts().SignUp(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err, http.StatusInternalServerError), "Sign up failed")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusCreated, user, nil)
	}
}

func PostSignIn(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req auth.SignInRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			HandleError(c, app.Logger(), err, http.StatusBadRequest, "Invalid JSON")
			return
		}

		sess, user, err := app.Accounts().SignIn(c.Request.Context(), &req)
		if err != nil {
			HandleError(c, app.Logger(), err, statusFor(err, http.StatusInternalServerError), "Sign in failed")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, signInResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, User: user}, nil)
	}
}

func PostSignOut(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := auth.CurrentUser(c)
		sessionID := c.GetString(auth.SessionKey)

		if err := app.Accounts().SignOut(c.Request.Context(), user.ID, sessionID); err != nil {
			HandleError(c, app.Logger(), err, statusFor(err, http.StatusInternalServerError), "Sign out failed")
			return
		}

		HandleSuccess(c, app.Logger(), http.StatusOK, gin.H{"signed_out": true}, nil)
	}
}

// GetSession reports who the bearer token belongs to.
func GetSession(app App) gin.HandlerFunc {
	return func(c *gin.Context) {
		HandleSuccess(c, app.Logger(), http.StatusOK, gin.H{
			"user":       auth.CurrentUser(c),
			"session_id": c.GetString(auth.SessionKey),
		}, nil)
	}
}
