package sheets

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fitelo/sales-dashboard/pkg/utils"
	"github.com/golang-jwt/jwt/v5"
	"github.com/puzpuzpuz/xsync/v4"
)

// ReadOnlyScope is the only scope the dashboard ever asks for.
const ReadOnlyScope = "https://www.googleapis.com/auth/spreadsheets.readonly"

const (
	defaultTokenURI = "https://oauth2.googleapis.com/token"
	assertionTTL    = time.Hour
	// tokens are refreshed this long before Google expires them
	expirySkew = time.Minute
)

// ServiceAccount is the subset of a Google service-account key file we need.
type ServiceAccount struct {
	ClientEmail  string `json:"client_email"`
	PrivateKey   string `json:"private_key"`
	PrivateKeyID string `json:"private_key_id"`
	TokenURI     string `json:"token_uri"`
}

// ParseServiceAccount decodes a service-account key file.
func ParseServiceAccount(raw []byte) (ServiceAccount, error) {
	var sa ServiceAccount
	if err := json.Unmarshal(raw, &sa); err != nil {
		return ServiceAccount{}, fmt.Errorf("decode service account: %w", err)
	}
	if sa.ClientEmail == "" || sa.PrivateKey == "" {
		return ServiceAccount{}, errors.New("service account is missing client_email or private_key")
	}
	if sa.TokenURI == "" {
		sa.TokenURI = defaultTokenURI
	}
	return sa, nil
}

type accessToken struct {
	value  string
	expiry time.Time
}

// TokenSource exchanges signed JWT assertions for OAuth access tokens and
// caches them per scope set until shortly before they expire.
type TokenSource struct {
	account ServiceAccount
	key     *rsa.PrivateKey
	client  *http.Client
	cache   *xsync.Map[string, accessToken]
	now     func() time.Time
}

// NewTokenSource parses the account's PEM key up front so a bad key is a
// startup error, not a per-request one.
func NewTokenSource(account ServiceAccount, client *http.Client) (*TokenSource, error) {
	key, err := jwt.ParseRSAPrivateKeyFromPEM([]byte(account.PrivateKey))
	if err != nil {
		return nil, fmt.Errorf("parse service account key: %w", err)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &TokenSource{
		account: account,
		key:     key,
		client:  client,
		cache:   xsync.NewMap[string, accessToken](),
		now:     time.Now,
	}, nil
}

// Token returns a bearer token valid for scopes.
func (ts *TokenSource) Token(ctx context.Context, scopes ...string) (string, error) {
	scope := strings.Join(scopes, " ")
	if tok, ok := ts.cache.Load(scope); ok && ts.now().Before(tok.expiry.Add(-expirySkew)) {
		return tok.value, nil
	}

	tok, err := ts.exchange(ctx, scope)
	if err != nil {
		return "", err
	}
	ts.cache.Store(scope, tok)
	return tok.value, nil
}

// Invalidate drops the cached token for scopes, forcing a new exchange.
func (ts *TokenSource) Invalidate(scopes ...string) {
	ts.cache.Delete(strings.Join(scopes, " "))
}

func (ts *TokenSource) assertion(scope string) (string, error) {
	now := ts.now()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"iss":   ts.account.ClientEmail,
		"scope": scope,
		"aud":   ts.account.TokenURI,
		"iat":   now.Unix(),
		"exp":   now.Add(assertionTTL).Unix(),
	})
	if ts.account.PrivateKeyID != "" {
		token.Header["kid"] = ts.account.PrivateKeyID
	}
	return token.SignedString(ts.key)
}

func (ts *TokenSource) exchange(ctx context.Context, scope string) (accessToken, error) {
	signed, err := ts.assertion(scope)
	if err != nil {
		return accessToken{}, fmt.Errorf("sign assertion: %w", err)
	}

	form := url.Values{}
	form.Set("grant_type", "urn:ietf:params:oauth:grant-type:jwt-bearer")
	form.Set("assertion", signed)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, ts.account.TokenURI, strings.NewReader(form.Encode()))
	if err != nil {
		return accessToken{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := ts.client.Do(req)
	if err != nil {
		return accessToken{}, fmt.Errorf("token exchange: %w", err)
	}
	defer func() { _ = utils.DrainAndClose(resp.Body) }()

	if resp.StatusCode != http.StatusOK {
		return accessToken{}, &StatusError{Op: "token exchange", Code: resp.StatusCode}
	}

	var out struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return accessToken{}, fmt.Errorf("decode token response: %w", err)
	}
	if out.AccessToken == "" {
		return accessToken{}, errors.New("token response carried no access_token")
	}
	return accessToken{
		value:  out.AccessToken,
		expiry: ts.now().Add(time.Duration(out.ExpiresIn) * time.Second),
	}, nil
}
