package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/yourusername/quiz-api/internal/config"
	"github.com/yourusername/quiz-api/internal/domain/entity"
	"github.com/yourusername/quiz-api/internal/domain/repository"
	"github.com/yourusername/quiz-api/internal/metrics"
	apperrors "github.com/yourusername/quiz-api/internal/pkg/errors"
)

// ErrFeatureDisabled возвращается, если вход через Google не настроен
var ErrFeatureDisabled = errors.New("feature_disabled")

// GoogleIdentity - нормализованные данные внешнего аккаунта
type GoogleIdentity struct {
	ExternalID    string
	Email         string
	Name          string
	Picture       string
	EmailVerified bool
}

// IdentityExchanger проверяет внешний токен у провайдера
type IdentityExchanger interface {
	Exchange(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

// GoogleTokenVerifier проверяет id_token через tokeninfo endpoint Google
type GoogleTokenVerifier struct {
	clientID     string
	tokenInfoURL string
	httpClient   *http.Client
	now          func() time.Time
}

// NewGoogleTokenVerifier создает верификатор по конфигурации
func NewGoogleTokenVerifier(cfg config.GoogleConfig) *GoogleTokenVerifier {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &GoogleTokenVerifier{
		clientID:     strings.TrimSpace(cfg.ClientID),
		tokenInfoURL: cfg.TokenInfoURL,
		httpClient:   &http.Client{Timeout: timeout},
		now:          time.Now,
	}
}

// Exchange проверяет токен в порядке: доступность провайдера -> ответ провайдера ->
// audience -> срок действия -> подтвержденный email.
func (v *GoogleTokenVerifier) Exchange(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	if v.clientID == "" {
		return nil, fmt.Errorf("%w: google client id is not configured", ErrFeatureDisabled)
	}
	idToken = strings.TrimSpace(idToken)
	if idToken == "" {
		return nil, apperrors.NewValidationError("token", "is required")
	}

	endpoint, err := url.Parse(v.tokenInfoURL)
	if err != nil {
		return nil, fmt.Errorf("invalid tokeninfo url: %w", err)
	}
	query := endpoint.Query()
	query.Set("id_token", idToken)
	endpoint.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build tokeninfo request: %w", err)
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		log.Printf("[GoogleOAuth] tokeninfo request failed: %v", err)
		return nil, fmt.Errorf("%w: %v", apperrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read tokeninfo response: %v", apperrors.ErrUpstream, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("%w: tokeninfo status %d", apperrors.ErrUpstream, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: google rejected the token", apperrors.ErrInvalidToken)
	}

	var info map[string]interface{}
	if err := json.Unmarshal(body, &info); err != nil {
		return nil, fmt.Errorf("%w: malformed tokeninfo response", apperrors.ErrUpstream)
	}

	if iss := claimString(info["iss"]); iss != "" && iss != "accounts.google.com" && iss != "https://accounts.google.com" {
		return nil, fmt.Errorf("%w: invalid issuer", apperrors.ErrInvalidToken)
	}
	if claimString(info["aud"]) != v.clientID {
		return nil, apperrors.ErrInvalidAudience
	}

	exp, err := strconv.ParseInt(claimString(info["exp"]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid exp claim", apperrors.ErrInvalidToken)
	}
	if !v.now().Before(time.Unix(exp, 0)) {
		return nil, apperrors.ErrExpiredToken
	}

	verified, ok := parseGoogleEmailVerifiedClaim(info["email_verified"])
	if !ok || !verified {
		return nil, apperrors.ErrEmailNotVerified
	}

	identity := &GoogleIdentity{
		ExternalID:    claimString(info["sub"]),
		Email:         entity.NormalizeEmail(claimString(info["email"])),
		Name:          strings.TrimSpace(claimString(info["name"])),
		Picture:       strings.TrimSpace(claimString(info["picture"])),
		EmailVerified: verified,
	}
	if identity.ExternalID == "" || identity.Email == "" {
		return nil, fmt.Errorf("%w: missing sub or email", apperrors.ErrInvalidToken)
	}
	return identity, nil
}

func claimString(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatInt(int64(val), 10)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}

func parseGoogleEmailVerifiedClaim(v interface{}) (bool, bool) {
	switch val := v.(type) {
	case bool:
		return val, true
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			return true, true
		case "false":
			return false, true
		}
	}
	return false, false
}

// GoogleOAuthService - вход через Google и привязка к локальным аккаунтам
type GoogleOAuthService struct {
	exchanger IdentityExchanger
	accounts  repository.AccountRepository
	tokens    TokenIssuer
	mailer    EmailService
}

// NewGoogleOAuthService создает GoogleOAuthService
func NewGoogleOAuthService(exchanger IdentityExchanger, accounts repository.AccountRepository, tokens TokenIssuer, mailer EmailService) *GoogleOAuthService {
	return &GoogleOAuthService{
		exchanger: exchanger,
		accounts:  accounts,
		tokens:    tokens,
		mailer:    mailer,
	}
}

// Login проверяет id_token, находит или создает аккаунт и выдает токены
func (s *GoogleOAuthService) Login(ctx context.Context, idToken string) (result *AuthResult, err error) {
	defer func() { metrics.ObserveAuth("google", err) }()

	identity, err := s.exchanger.Exchange(ctx, idToken)
	if err != nil {
		return nil, err
	}

	account, created, err := s.CreateOrGetAccount(ctx, identity)
	if err != nil {
		return nil, err
	}
	if !account.IsActive {
		return nil, apperrors.ErrAccountInactive
	}

	tokens, err := s.tokens.IssuePair(account)
	if err != nil {
		return nil, err
	}
	if created {
		sendWelcomeAsync(s.mailer, account.Email, account.Name)
	}
	return &AuthResult{Tokens: tokens, Account: account}, nil
}

// CreateOrGetAccount ищет аккаунт по внешнему id, затем по email, затем создает новый.
// Совпадение по email привязывает Google-идентичность к существующему аккаунту
// (в том числе парольному): провайдер подтвердил владение этим email.
func (s *GoogleOAuthService) CreateOrGetAccount(ctx context.Context, identity *GoogleIdentity) (*entity.Account, bool, error) {
	account, err := s.accounts.GetByExternalID(ctx, identity.ExternalID)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, false, err
	}

	account, err = s.accounts.GetByEmail(ctx, identity.Email)
	switch {
	case err == nil:
		if account.HasExternalIdentity() && *account.ExternalID != identity.ExternalID {
			return nil, false, fmt.Errorf("%w: email is linked to a different google account", apperrors.ErrConflict)
		}
		if err := s.accounts.LinkExternalID(ctx, account.ID, identity.ExternalID); err != nil {
			return nil, false, err
		}
		externalID := identity.ExternalID
		account.ExternalID = &externalID
		log.Printf("[GoogleOAuth] Linked google identity to existing account %s", account.ID)
		return account, false, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, false, err
	}

	externalID := identity.ExternalID
	account = &entity.Account{
		Email:      identity.Email,
		Name:       displayName(identity),
		ExternalID: &externalID,
		IsActive:   true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			// параллельный первый вход с тем же токеном
			if existing, lookupErr := s.accounts.GetByExternalID(ctx, identity.ExternalID); lookupErr == nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}
	log.Printf("[GoogleOAuth] Created account %s from google identity", account.ID)
	return account, true, nil
}

func displayName(identity *GoogleIdentity) string {
	name := strings.TrimSpace(identity.Name)
	if name == "" {
		name = strings.SplitN(identity.Email, "@", 2)[0]
	}
	if runes := []rune(name); len(runes) > MaxNameLength {
		name = string(runes[:MaxNameLength])
	}
	return name
}
