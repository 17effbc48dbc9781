package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regintel/internal/utils"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

const googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"

// NewGoogleOAuthConfig returns nil when no client id is configured, which
// turns the Google routes into 503s.
func NewGoogleOAuthConfig(clientID, clientSecret, siteURL string) *oauth2.Config {
	if clientID == "" {
		return nil
	}
	return &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  strings.TrimSuffix(siteURL, "/") + "/api/auth/google/callback",
		Scopes: []string{
			"https://www.googleapis.com/auth/userinfo.email",
			"https://www.googleapis.com/auth/userinfo.profile",
		},
		Endpoint: google.Endpoint,
	}
}

// GoogleUserInfo Google 用户信息结构
type GoogleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
	Picture       string `json:"picture"`
}

// GoogleLogin GET /api/auth/google
func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	if h.oauthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	state, err := utils.RandomToken(32)
	if err != nil {
		respondError(c, err)
		return
	}

	// state 存入 session，回调时校验
	session := sessions.Default(c)
	session.Set("oauth_state", state)
	session.Save()

	c.Redirect(http.StatusTemporaryRedirect, h.oauthConfig.AuthCodeURL(state))
}

// GoogleCallback GET /api/auth/google/callback
func (h *AuthHandler) GoogleCallback(c *gin.Context) {
	if h.oauthConfig == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Google sign-in is not configured"})
		return
	}

	session := sessions.Default(c)
	savedState, _ := session.Get("oauth_state").(string)
	session.Delete("oauth_state")
	session.Save()

	if savedState == "" || c.Query("state") != savedState {
		badRequest(c, "Invalid OAuth state")
		return
	}

	code := c.Query("code")
	if code == "" {
		badRequest(c, "Missing authorization code")
		return
	}

	ctx := c.Request.Context()
	token, err := h.oauthConfig.Exchange(ctx, code)
	if err != nil {
		respondError(c, fmt.Errorf("exchange google token: %w", err))
		return
	}

	info, err := h.getGoogleUserInfo(ctx, token)
	if err != nil {
		respondError(c, err)
		return
	}
	if !info.VerifiedEmail {
		badRequest(c, "Google email is not verified")
		return
	}

	user, err := h.users.UpsertGoogleUser(ctx, info.ID, info.Email, info.Name, info.Picture)
	if err != nil {
		respondError(c, err)
		return
	}
	if err := signIn(c, user); err != nil {
		respondError(c, err)
		return
	}

	c.Redirect(http.StatusFound, h.siteURL)
}

func (h *AuthHandler) getGoogleUserInfo(ctx context.Context, token *oauth2.Token) (*GoogleUserInfo, error) {
	resp, err := h.oauthConfig.Client(ctx, token).Get(googleUserInfoURL)
	if err != nil {
		return nil, fmt.Errorf("fetch google user info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("获取用户信息失败: %d", resp.StatusCode)
	}

	var info GoogleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode google user info: %w", err)
	}
	return &info, nil
}
