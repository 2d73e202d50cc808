package main

import (
	"net/http"
	"time"
)

// Browser clients authenticate with HTTP-only cookies instead of carrying a
// bearer header; the same token codec backs both flows.

func (app *application) setAuthCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	secure := app.config.env == "production"

	http.SetCookie(w, &http.Cookie{
		Name:     "auth-token",
		Value:    accessToken,
		Path:     "/",
		Expires:  time.Now().Add(app.config.auth.token.accessTokenExp),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     "refresh-token",
		Value:    refreshToken,
		Path:     "/v1/authentication",
		Expires:  time.Now().Add(app.config.auth.token.refreshTokenExp),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (app *application) clearAuthCookies(w http.ResponseWriter) {
	for _, c := range []http.Cookie{
		{Name: "auth-token", Path: "/"},
		{Name: "token", Path: "/"},
		{Name: "refresh-token", Path: "/v1/authentication"},
	} {
		c.Value = ""
		c.Expires = time.Unix(0, 0)
		c.MaxAge = -1
		c.HttpOnly = true
		http.SetCookie(w, &c)
	}
}

// createTokenCookieHandler godoc
//
//	@Summary		Login (web)
//	@Description	Exchanges credentials for an HTTP-only cookie session
//	@Tags			authentication
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateUserTokenPayload	true	"User credentials"
//	@Success		200		{object}	store.User
//	@Failure		401		{object}	error
//	@Router			/authentication/web/token [post]
func (app *application) createTokenCookieHandler(w http.ResponseWriter, r *http.Request) {
	tokens, user, err := app.loginWithCredentials(w, r)
	if err != nil {
		return
	}

	app.setAuthCookies(w, tokens.AccessToken, tokens.RefreshToken)

	if err := app.jsonResponse(w, http.StatusOK, user); err != nil {
		app.internalServerError(w, r, err)
	}
}

// logoutCookieHandler godoc
//
//	@Summary		Logout (web)
//	@Description	Expires the session cookies
//	@Tags			authentication
//	@Produce		json
//	@Success		200	{object}	string
//	@Router			/authentication/web/logout [post]
func (app *application) logoutCookieHandler(w http.ResponseWriter, r *http.Request) {
	app.clearAuthCookies(w)

	if err := app.jsonResponse(w, http.StatusOK, map[string]string{"status": "logged out"}); err != nil {
		app.internalServerError(w, r, err)
	}
}
