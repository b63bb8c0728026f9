package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"docchat-be/internal/config"
	"docchat-be/internal/dto"
	"docchat-be/internal/entity"
	"docchat-be/internal/pkg/logger"
	"docchat-be/internal/repository/specification"
	"docchat-be/internal/repository/unitofwork"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

type IOAuthService interface {
	GetLoginURL() (string, error)
	HandleCallback(ctx context.Context, code string) (*dto.LoginResponse, error)
}

type oauthService struct {
	uowFactory  unitofwork.RepositoryFactory
	conf        *oauth2.Config
	userInfoURL string
	logger      logger.ILogger
}

func NewOAuthService(uowFactory unitofwork.RepositoryFactory, cfg config.OAuthConfig, log logger.ILogger) IOAuthService {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURL,
		Scopes:       []string{"openid", "email", "profile", "groups"},
		Endpoint: oauth2.Endpoint{
			AuthURL:  cfg.AuthURL,
			TokenURL: cfg.TokenURL,
		},
	}

	return &oauthService{
		uowFactory:  uowFactory,
		conf:        conf,
		userInfoURL: cfg.UserInfoURL,
		logger:      log,
	}
}

func (s *oauthService) GetLoginURL() (string, error) {
	if s.conf.ClientID == "" {
		return "", errors.New("oauth is not configured")
	}

	b := make([]byte, 16)
	rand.Read(b)
	state := base64.URLEncoding.EncodeToString(b)

	return s.conf.AuthCodeURL(state), nil
}

// identityClaims is the subset of the userinfo response we care about.
type identityClaims struct {
	Sub          string   `json:"sub"`
	Email        string   `json:"email"`
	Name         string   `json:"name"`
	Picture      string   `json:"picture"`
	Groups       []string `json:"groups"`
	PrimaryGroup string   `json:"primary_group"`
}

// cleanGroups strips the leading slash some providers prefix group paths
// with, preserving order.
func cleanGroups(groups []string) []string {
	cleaned := make([]string, 0, len(groups))
	for _, g := range groups {
		g = strings.TrimPrefix(g, "/")
		if g != "" {
			cleaned = append(cleaned, g)
		}
	}
	return cleaned
}

func (s *oauthService) fetchUserInfo(accessToken string) (*identityClaims, error) {
	req, err := http.NewRequest("GET", s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed getting user info: %w", err)
	}
	defer resp.Body.Close()

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo returned status %d", resp.StatusCode)
	}

	var claims identityClaims
	if err := json.Unmarshal(content, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func (s *oauthService) HandleCallback(ctx context.Context, code string) (*dto.LoginResponse, error) {
	token, err := s.conf.Exchange(ctx, code)
	if err != nil {
		s.logger.Error("OAuth", "Code exchange failed", map[string]interface{}{"error": err.Error()})
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	claims, err := s.fetchUserInfo(token.AccessToken)
	if err != nil {
		s.logger.Error("OAuth", "Userinfo fetch failed", map[string]interface{}{"error": err.Error()})
		return nil, err
	}
	if claims.Email == "" {
		return nil, errors.New("identity provider returned no email")
	}

	groups := cleanGroups(claims.Groups)
	primaryGroup := strings.TrimPrefix(claims.PrimaryGroup, "/")
	if primaryGroup == "" && len(groups) > 0 {
		primaryGroup = groups[0]
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)

	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: claims.Email})
	if err != nil {
		return nil, err
	}

	if user == nil {
		var avatar *string
		if claims.Picture != "" {
			avatar = &claims.Picture
		}
		user = &entity.User{
			Id:           uuid.New(),
			Email:        claims.Email,
			FullName:     claims.Name,
			PasswordHash: nil,
			AvatarURL:    avatar,
			Role:         entity.UserRoleUser,
			Status:       entity.UserStatusActive,
			Groups:       groups,
			PrimaryGroup: primaryGroup,
			CreatedAt:    time.Now(),
			UpdatedAt:    time.Now(),
		}

		if err := uow.Begin(ctx); err != nil {
			return nil, err
		}
		if err := uow.UserRepository().Create(ctx, user); err != nil {
			uow.Rollback()
			return nil, err
		}
		if err := uow.Commit(); err != nil {
			return nil, err
		}

		s.logger.Info("OAuth", "New user created", map[string]interface{}{"user_id": user.Id, "groups": groups})
	} else {
		// The provider is authoritative for group membership; refresh it on
		// every login.
		user.Groups = groups
		user.PrimaryGroup = primaryGroup
		user.UpdatedAt = time.Now()
		if err := uow.UserRepository().Update(ctx, user); err != nil {
			return nil, err
		}
	}

	existingProvider, err := uow.UserRepository().FindProvider(ctx, specification.ByProvider{
		ProviderName:   "oidc",
		ProviderUserId: claims.Sub,
	})
	if err != nil {
		return nil, err
	}
	if existingProvider == nil {
		provider := &entity.UserProvider{
			Id:             uuid.New(),
			UserId:         user.Id,
			ProviderName:   "oidc",
			ProviderUserId: claims.Sub,
			AvatarURL:      claims.Picture,
			CreatedAt:      time.Now(),
		}
		if err := uow.UserRepository().CreateProvider(ctx, provider); err != nil {
			return nil, fmt.Errorf("failed to save provider info: %w", err)
		}
	}

	signedToken, err := signAccessToken(user)
	if err != nil {
		return nil, err
	}

	return &dto.LoginResponse{
		AccessToken: signedToken,
		User:        userToDTO(user),
	}, nil
}
