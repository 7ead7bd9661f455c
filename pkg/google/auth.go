package google

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rotisserie/eris"
)

const (
	defaultTokenURI = "https://oauth2.googleapis.com/token"
	jwtBearerGrant  = "urn:ietf:params:oauth:grant-type:jwt-bearer"
	tokenLifetime   = time.Hour
	// refresh this long before the reported expiry
	expiryMargin = time.Minute
)

// Scopes requested for spreadsheet reads and document writes.
var Scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
	"https://www.googleapis.com/auth/documents",
}

// TokenSource supplies OAuth2 bearer tokens.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource returning a fixed token.
type StaticToken string

// Token implements TokenSource.
func (s StaticToken) Token(context.Context) (string, error) {
	return string(s), nil
}

// ServiceAccount is the subset of a service-account key file used here.
type ServiceAccount struct {
	Type         string `json:"type"`
	ClientEmail  string `json:"client_email"`
	PrivateKeyID string `json:"private_key_id"`
	PrivateKey   string `json:"private_key"`
	TokenURI     string `json:"token_uri"`
}

// ParseServiceAccount decodes a service-account key file.
func ParseServiceAccount(data []byte) (*ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(data, &sa); err != nil {
		return nil, eris.Wrap(err, "google: parse service account")
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return nil, eris.New("google: service account is missing client_email or private_key")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = defaultTokenURI
	}
	return &sa, nil
}

// serviceAccountTokens exchanges signed JWT assertions for access tokens and
// caches them until shortly before expiry.
type serviceAccountTokens struct {
	sa     *ServiceAccount
	key    *rsa.PrivateKey
	scopes []string
	http   *http.Client
	now    func() time.Time

	mu      sync.Mutex
	token   string
	expires time.Time
}

// NewServiceAccountTokenSource creates a TokenSource for sa.
func NewServiceAccountTokenSource(sa *ServiceAccount, hc *http.Client, scopes ...string) (TokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(sa.PrivateKey))
	if err != nil {
		return nil, eris.Wrap(err, "google: parse private key")
	}
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if len(scopes) == 0 {
		scopes = Scopes
	}
	return &serviceAccountTokens{sa: sa, key: key, scopes: scopes, http: hc, now: time.Now}, nil
}

func (s *serviceAccountTokens) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expires.Add(-expiryMargin)) {
		return s.token, nil
	}

	assertion, err := s.assertion()
	if err != nil {
		return "", err
	}

	form := url.Values{}
	form.Set("grant_type", jwtBearerGrant)
	form.Set("assertion", assertion)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.sa.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return "", eris.Wrap(err, "google: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.http.Do(req)
	if err != nil {
		return "", eris.Wrap(err, "google: token request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", eris.Wrap(err, "google: read token response")
	}
	if resp.StatusCode != http.StatusOK {
		return "", &APIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &tok); err != nil {
		return "", eris.Wrap(err, "google: unmarshal token response")
	}
	if tok.AccessToken == "" {
		return "", eris.New("google: token response has no access_token")
	}

	s.token = tok.AccessToken
	s.expires = s.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return s.token, nil
}

func (s *serviceAccountTokens) assertion() (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"iss":   s.sa.ClientEmail,
		"scope": strings.Join(s.scopes, " "),
		"aud":   s.sa.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(tokenLifetime).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	if s.sa.PrivateKeyID != "" {
		tok.Header["kid"] = s.sa.PrivateKeyID
	}
	signed, err := tok.SignedString(s.key)
	if err != nil {
		return "", eris.Wrap(err, "google: sign assertion")
	}
	return signed, nil
}
