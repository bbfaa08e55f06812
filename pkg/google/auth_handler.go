package google

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/schedulr/schedulr/internal/config"
	"github.com/schedulr/schedulr/internal/rest"
	"github.com/schedulr/schedulr/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
)

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

type GoogleAuth struct {
	tokens      TokenRepository
	userService user.Provider
	oauthConfig *oauth2.Config
	host        string
}

func NewGoogleAuth(tokens TokenRepository, userService user.Provider, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/integrations/google/auth/callback",
		Scopes:       []string{calendar.CalendarEventsScope, calendar.CalendarReadonlyScope},
	}

	return &GoogleAuth{tokens: tokens, userService: userService, oauthConfig: oauthConfig, host: cfg.Host}
}

// OAuthLogin godoc
// @Summary Start Google Calendar authorization
// @Description Returns the Google consent URL. The optional finalUrl is where the browser lands after the callback.
// @Tags Google
// @Produce json
// @Param finalUrl query string false "Redirect target after authorization"
// @Success 200 {object} googleAuthRedirect
// @Router /api/integrations/google/auth/login [get]
// @Security XUserId
func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	currentUser, err := g.userService.GetCurrentUser(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusInternalServerError)
		return
	}

	stateNonce := uuid.NewString()
	finalUrl := g.redirectTarget(r.URL.Query().Get("finalUrl"))

	if err := g.tokens.ReplaceNonce(r.Context(), currentUser.Id, stateNonce); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, rest.ErrorResponse{
			Error: "Failed to handle Google authentication",
		})
		return
	}

	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := g.oauthConfig.AuthCodeURL(finalUrl+"|"+stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	rest.WriteJSON(w, http.StatusOK, googleAuthRedirect{RedirectUrl: u})
}

// OAuthCallback godoc
// @Summary Google authorization callback
// @Tags Google
// @Param code query string true "Authorization code"
// @Param state query string true "State created by the login endpoint"
// @Success 302
// @Failure 400 {object} rest.ErrorResponse "Invalid state"
// @Router /api/integrations/google/auth/callback [get]
func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	code := r.FormValue("code")
	state := r.FormValue("state")

	parts := strings.SplitN(state, "|", 2)
	if len(parts) != 2 || parts[1] == "" {
		rest.WriteError(w, http.StatusBadRequest, rest.ErrorResponse{
			Code:  rest.CodeInvalidData,
			Error: "Invalid Google authentication state",
		})
		return
	}
	finalUrl := g.redirectTarget(parts[0])
	nonce := parts[1]

	token, err := g.oauthConfig.Exchange(r.Context(), code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	if err := g.tokens.StoreToken(r.Context(), nonce, token); err != nil {
		if errors.Is(err, ErrUnknownNonce) {
			log.Warnf("Google auth callback with unknown nonce: %s", nonce)
		}
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}
	log.Debug("Successfully stored Google auth token for nonce: ", nonce)
	http.Redirect(w, r, finalUrl+"?success=true", http.StatusFound)
}

// redirectTarget keeps the browser on the application host. Anything pointing elsewhere is
// replaced by the host itself.
func (g *GoogleAuth) redirectTarget(finalUrl string) string {
	host, err := url.Parse(g.host)
	if err != nil {
		return g.host
	}
	target, err := url.Parse(finalUrl)
	if err != nil || finalUrl == "" {
		return g.host
	}
	if !target.IsAbs() && target.Host == "" && strings.HasPrefix(target.Path, "/") {
		return host.ResolveReference(target).String()
	}
	if target.Scheme != host.Scheme || target.Host != host.Host {
		log.Warnf("refusing Google auth redirect to %s", finalUrl)
		return g.host
	}
	return target.String()
}

func (g *GoogleAuth) getClient(ctx context.Context, userId int) (*http.Client, error) {
	token, err := g.tokens.GetToken(ctx, userId)
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google auth token: %w", err)
	}
	if token == nil {
		return nil, nil
	}
	return g.oauthConfig.Client(context.Background(), token), nil
}

// OAuthLogout godoc
// @Summary Disconnect Google Calendar
// @Tags Google
// @Success 204
// @Router /api/integrations/google/auth/logout [delete]
// @Security XUserId
func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusInternalServerError)
		return
	}

	if err := g.tokens.DeleteToken(r.Context(), userId); err != nil {
		rest.WriteError(w, http.StatusInternalServerError, rest.ErrorResponse{
			Error: "Failed to handle Google authentication",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
