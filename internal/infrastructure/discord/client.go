package discord

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/railway-info/internal/config"
	"github.com/railway-info/internal/domain"
	"github.com/railway-info/internal/domain/repository"
	"go.uber.org/zap"
)

var (
	ErrNotConfigured = domain.ErrDiscordNotConfigured
	ErrUserNotFound  = domain.ErrDiscordUserNotFound
)

// apiUser is the subset of the Discord user object we read.
type apiUser struct {
	ID            string  `json:"id"`
	Username      string  `json:"username"`
	GlobalName    *string `json:"global_name"`
	Discriminator string  `json:"discriminator"`
	Avatar        *string `json:"avatar"`
}

type client struct {
	httpClient *http.Client
	apiURL     string
	cdnURL     string
	botToken   string
	logger     *zap.Logger
}

// NewClient creates a Discord API client.
func NewClient(cfg *config.DiscordConfig, logger *zap.Logger) repository.DiscordRepository {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &client{
		httpClient: &http.Client{Timeout: timeout},
		apiURL:     strings.TrimSuffix(cfg.APIURL, "/"),
		cdnURL:     strings.TrimSuffix(cfg.CDNURL, "/"),
		botToken:   cfg.BotToken,
		logger:     logger,
	}
}

// FetchUser loads a user profile with the bot token.
func (c *client) FetchUser(ctx context.Context, userID string) (*domain.DiscordProfile, error) {
	if c.botToken == "" || c.botToken == "YOUR_BOT_TOKEN_HERE" {
		return nil, ErrNotConfigured
	}

	url := fmt.Sprintf("%s/users/%s", c.apiURL, userID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bot "+c.botToken)
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("Calling Discord users API", zap.String("user_id", userID))

	var u apiUser
	if err := c.do(req, &u); err != nil {
		return nil, err
	}
	return c.toProfile(u, userID), nil
}

// AvatarURL builds the CDN url: animated hashes (a_*) are gifs, users
// without an avatar get one of the default embed avatars.
func (c *client) AvatarURL(userID, avatarHash, discriminator string) string {
	return AvatarURL(c.cdnURL, userID, avatarHash, discriminator)
}

func AvatarURL(cdnURL, userID, avatarHash, discriminator string) string {
	if avatarHash != "" {
		ext := "png"
		if strings.HasPrefix(avatarHash, "a_") {
			ext = "gif"
		}
		return fmt.Sprintf("%s/avatars/%s/%s.%s", cdnURL, userID, avatarHash, ext)
	}
	return fmt.Sprintf("%s/embed/avatars/%d.png", cdnURL, defaultAvatarIndex(userID, discriminator))
}

func defaultAvatarIndex(userID, discriminator string) uint64 {
	if discriminator != "" && discriminator != "0" {
		if d, err := strconv.ParseUint(discriminator, 10, 64); err == nil {
			return d % 5
		}
	}
	id, err := strconv.ParseUint(userID, 10, 64)
	if err != nil {
		return 0
	}
	return (id >> 22) % 6
}

func (c *client) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("Failed to execute request", zap.Error(err))
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		c.logger.Error("Discord API returned error",
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", string(body)))
		return fmt.Errorf("discord API error: status %d, body: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *client) toProfile(u apiUser, fallbackID string) *domain.DiscordProfile {
	id := u.ID
	if id == "" {
		id = fallbackID
	}
	p := &domain.DiscordProfile{
		ID:            id,
		Username:      u.Username,
		DisplayName:   u.Username,
		Discriminator: u.Discriminator,
	}
	if p.Discriminator == "" {
		p.Discriminator = "0"
	}
	if u.GlobalName != nil && *u.GlobalName != "" {
		p.DisplayName = *u.GlobalName
	}
	if u.Avatar != nil {
		p.AvatarHash = *u.Avatar
	}
	p.AvatarURL = c.AvatarURL(p.ID, p.AvatarHash, p.Discriminator)
	return p
}
