package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/danielgtaylor/huma/v2"
	"github.com/gdg-garage/con-registration-api/internal/config"
	"github.com/gdg-garage/con-registration-api/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/oauth2"
	"gorm.io/gorm"
)

const (
	DiscordAuthorizeEndpoint = "https://discord.com/api/oauth2/authorize"
	DiscordTokenEndpoint     = "https://discord.com/api/oauth2/token"
	DiscordUserAPI           = "https://discord.com/api/users/@me"
	DiscordUserGuildsAPI     = "https://discord.com/api/users/@me/guilds"

	CookieName    = "auth_token"
	TokenDuration = 24 * time.Hour
)

var ErrInvalidToken = errors.New("invalid token")

type AuthHandler struct {
	oauthConfig *oauth2.Config
	db          *gorm.DB
	cfg         *config.Config
	discord     *discordgo.Session
}

// NewAuthHandler wires Discord login. discord may be nil, in which case role
// checks pass for every signed-in operator.
func NewAuthHandler(cfg *config.Config, db *gorm.DB, discord *discordgo.Session) *AuthHandler {
	return &AuthHandler{
		oauthConfig: &oauth2.Config{
			ClientID:     cfg.DiscordClientID,
			ClientSecret: cfg.DiscordClientSecret,
			RedirectURL:  cfg.DiscordRedirectURL,
			Scopes:       []string{"identify", "email", "guilds"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  DiscordAuthorizeEndpoint,
				TokenURL: DiscordTokenEndpoint,
			},
		},
		db:      db,
		cfg:     cfg,
		discord: discord,
	}
}

type RedirectOutput struct {
	Status   int
	Location string `header:"Location"`
}

func (h *AuthHandler) HandleLogin(ctx context.Context, input *struct{}) (*RedirectOutput, error) {
	return &RedirectOutput{
		Status:   http.StatusTemporaryRedirect,
		Location: h.oauthConfig.AuthCodeURL("state", oauth2.AccessTypeOnline),
	}, nil
}

type CallbackInput struct {
	Code string `query:"code"`
}

type CallbackOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      struct {
		Message string `json:"message"`
	}
}

type discordGuild struct {
	ID string `json:"id"`
}

type discordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Avatar   string `json:"avatar"`
}

func (h *AuthHandler) HandleCallback(ctx context.Context, input *CallbackInput) (*CallbackOutput, error) {
	if input.Code == "" {
		return nil, huma.Error400BadRequest("Code not found")
	}

	token, err := h.oauthConfig.Exchange(ctx, input.Code)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to exchange token")
	}
	client := h.oauthConfig.Client(ctx, token)

	if h.cfg.DiscordGuildID != "" {
		var guilds []discordGuild
		if err := getJSON(client, DiscordUserGuildsAPI, &guilds); err != nil {
			return nil, huma.Error500InternalServerError("Failed to get user guilds")
		}
		isMember := slices.ContainsFunc(guilds, func(g discordGuild) bool {
			return g.ID == h.cfg.DiscordGuildID
		})
		if !isMember {
			return nil, huma.Error403Forbidden("Access denied: You are not a member of the required guild.")
		}
	}

	var du discordUser
	if err := getJSON(client, DiscordUserAPI, &du); err != nil {
		return nil, huma.Error500InternalServerError("Failed to get user info")
	}

	var user models.User
	if err := h.db.FirstOrInit(&user, models.User{DiscordID: du.ID}).Error; err != nil {
		return nil, huma.Error500InternalServerError("Database error")
	}
	user.Username = du.Username
	user.Email = du.Email
	user.Avatar = du.Avatar
	if err := h.db.Save(&user).Error; err != nil {
		return nil, huma.Error500InternalServerError("Failed to save user")
	}

	jwtToken, err := h.GenerateToken(user.ID)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to generate token")
	}

	slog.Info("Operator logged in", "user", user.Username, "discord_id", user.DiscordID)
	out := &CallbackOutput{SetCookie: h.cookie(jwtToken)}
	out.Body.Message = fmt.Sprintf("Welcome %s! You are logged in.", user.Username)
	return out, nil
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: %s", url, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func (h *AuthHandler) cookie(token string) http.Cookie {
	return http.Cookie{
		Name:     CookieName,
		Value:    token,
		Expires:  time.Now().Add(TokenDuration),
		HttpOnly: true,
		Path:     "/",
	}
}

func (h *AuthHandler) GenerateToken(userID uint) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(TokenDuration).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(h.cfg.JWTSecret))
}

// ParseToken validates a signed token and returns its user id and expiry.
func (h *AuthHandler) ParseToken(tokenString string) (uint, time.Time, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(h.cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return 0, time.Time{}, ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, time.Time{}, ErrInvalidToken
	}
	userID, ok := claims["user_id"].(float64)
	if !ok {
		return 0, time.Time{}, ErrInvalidToken
	}
	var exp time.Time
	if e, err := claims.GetExpirationTime(); err == nil && e != nil {
		exp = e.Time
	}
	return uint(userID), exp, nil
}

// AuthInput carries the raw Cookie header for huma operations.
type AuthInput struct {
	Cookie string `header:"Cookie"`
}

// Authorize returns the caller's user id, preferring an identity the
// middleware already placed on the context.
func (h *AuthHandler) Authorize(ctx context.Context, cookieHeader string) (uint, error) {
	if id, ok := ctx.Value(UserIDKey).(uint); ok {
		return id, nil
	}
	cookies, err := http.ParseCookie(cookieHeader)
	if err != nil {
		return 0, huma.Error401Unauthorized("Unauthorized: No token found")
	}
	for _, c := range cookies {
		if c.Name != CookieName {
			continue
		}
		id, _, err := h.ParseToken(c.Value)
		if err != nil {
			return 0, huma.Error401Unauthorized("Unauthorized: Invalid token")
		}
		return id, nil
	}
	return 0, huma.Error401Unauthorized("Unauthorized: No token found")
}

// User loads the signed-in operator.
func (h *AuthHandler) User(ctx context.Context, cookieHeader string) (*models.User, error) {
	userID, err := h.Authorize(ctx, cookieHeader)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := h.db.WithContext(ctx).First(&user, userID).Error; err != nil {
		return nil, huma.Error404NotFound("User not found")
	}
	return &user, nil
}

type MeOutput struct {
	Body struct {
		ID        uint   `json:"id"`
		DiscordID string `json:"discord_id"`
		Username  string `json:"username"`
		Email     string `json:"email"`
		Avatar    string `json:"avatar"`
	}
}

func (h *AuthHandler) HandleMe(ctx context.Context, input *AuthInput) (*MeOutput, error) {
	user, err := h.User(ctx, input.Cookie)
	if err != nil {
		return nil, err
	}
	out := &MeOutput{}
	out.Body.ID = user.ID
	out.Body.DiscordID = user.DiscordID
	out.Body.Username = user.Username
	out.Body.Email = user.Email
	out.Body.Avatar = user.Avatar
	return out, nil
}

// CheckRole reports whether the Discord member holds the named guild role.
func (h *AuthHandler) CheckRole(discordID, roleName string) (bool, error) {
	if h.discord == nil || h.cfg.DiscordGuildID == "" {
		return true, nil
	}
	member, err := h.discord.GuildMember(h.cfg.DiscordGuildID, discordID)
	if err != nil {
		return false, fmt.Errorf("get guild member: %w", err)
	}
	roles, err := h.discord.GuildRoles(h.cfg.DiscordGuildID)
	if err != nil {
		return false, fmt.Errorf("get guild roles: %w", err)
	}
	for _, r := range roles {
		if r.Name == roleName && slices.Contains(member.Roles, r.ID) {
			return true, nil
		}
	}
	return false, nil
}

// RequireAdmin fails with 403 unless the operator holds the admin role.
func (h *AuthHandler) RequireAdmin(ctx context.Context, cookieHeader string) (*models.User, error) {
	user, err := h.User(ctx, cookieHeader)
	if err != nil {
		return nil, err
	}
	if h.cfg.DiscordAdminRole == "" {
		return user, nil
	}
	ok, err := h.CheckRole(user.DiscordID, h.cfg.DiscordAdminRole)
	if err != nil {
		return nil, huma.Error500InternalServerError("Failed to check role: " + err.Error())
	}
	if !ok {
		return nil, huma.Error403Forbidden("Access denied: missing " + h.cfg.DiscordAdminRole + " role")
	}
	return user, nil
}
