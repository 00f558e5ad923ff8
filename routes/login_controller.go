package routes

import (
	"errors"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-chi/render"
	"github.com/mbolis/quick-forms/app"
	"github.com/mbolis/quick-forms/httpx"
	"github.com/mbolis/quick-forms/log"
	"github.com/mbolis/quick-forms/routes/middlewares"
	"github.com/mbolis/quick-forms/survey"
)

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// issueTokens runs an OAuth grant against the bearer server and decodes
// the issued tokens. ok is false when the grant was refused.
func issueTokens(app app.App, r *http.Request, grant url.Values) (tokens tokenResponse, ok bool, err error) {
	body := grant.Encode()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("content-type", "application/x-www-form-urlencoded")
	req.Header.Set("content-length", strconv.Itoa(len(body)))

	resp := httpx.NewResponseBuffer()
	app.UserCredentials(resp, req)
	if resp.Status() != http.StatusOK {
		log.Debugf("oauth.grant: %s refused with %d", grant.Get("grant_type"), resp.Status())
		return
	}

	err = resp.Decode(&tokens)
	return tokens, err == nil, err
}

func Login(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := loginRequest{}
		user, pass, ok := r.BasicAuth()
		if ok {
			creds.Email, creds.Password = user, pass
		} else if err := render.DecodeJSON(r.Body, &creds); err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "login.parse_body", "Email and password are required")
			return
		}

		if err := survey.ValidateStruct("login", creds); err != nil {
			httpx.WriteError(w, r, "login.validate", err)
			return
		}

		tokens, ok, err := issueTokens(app, r, url.Values{
			"grant_type": {"password"},
			"username":   {creds.Email},
			"password":   {creds.Password},
		})
		if err != nil {
			httpx.LogInternalError(w, r, "login.issue_tokens", err)
			return
		}
		if !ok {
			httpx.LogStatusMsg(w, r, http.StatusUnauthorized, log.DebugLevel, "login.credentials", "Invalid credentials")
			return
		}

		account, err := app.UserByEmail(r.Context(), creds.Email)
		if err != nil {
			httpx.WriteError(w, r, "login.user", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
			"expiresIn":    tokens.ExpiresIn,
			"user": map[string]any{
				"id":    account.ID,
				"email": account.Email,
			},
			"message": "Login successful",
		})
	}
}

var reRefresh = regexp.MustCompile(`(?i)^refresh\s+(.*)`)

func Refresh(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var token string
		if match := reRefresh.FindStringSubmatch(r.Header.Get("authorization")); match != nil {
			token = match[1]
		} else {
			body := struct {
				RefreshToken string `json:"refreshToken"`
			}{}
			err := render.DecodeJSON(r.Body, &body)
			if err != nil && !errors.Is(err, io.EOF) {
				httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "refresh.parse_body", "invalid refresh request: %s", err)
				return
			}
			token = body.RefreshToken
		}
		if token == "" {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.token")
			return
		}

		tokens, ok, err := issueTokens(app, r, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {token},
		})
		if err != nil {
			httpx.LogInternalError(w, r, "refresh.issue_tokens", err)
			return
		}
		if !ok {
			httpx.LogStatus(w, r, http.StatusUnauthorized, log.DebugLevel, "refresh.refused")
			return
		}

		render.JSON(w, r, map[string]any{
			"token":        tokens.AccessToken,
			"refreshToken": tokens.RefreshToken,
			"expiresIn":    tokens.ExpiresIn,
		})
	}
}

func Register(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := survey.Credentials{}
		err := render.DecodeJSON(r.Body, &creds)
		if err != nil {
			httpx.LogStatusMsg(w, r, http.StatusBadRequest, log.DebugLevel, "register.parse_body", "Email and password are required")
			return
		}

		user, err := app.Register(r.Context(), creds)
		if err != nil {
			httpx.WriteError(w, r, "register", err)
			return
		}

		render.Status(r, http.StatusCreated)
		render.JSON(w, r, map[string]any{
			"message": "User registered successfully",
			"user":    user,
		})
	}
}

func Dashboard(app app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := app.Me(r.Context(), middlewares.PrincipalFrom(r.Context()))
		if err != nil {
			httpx.WriteError(w, r, "dashboard.me", err)
			return
		}

		render.JSON(w, r, map[string]any{
			"message": "Welcome to the dashboard, " + user.Email,
			"user":    user,
		})
	}
}
