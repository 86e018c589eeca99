package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	firebase "firebase.google.com/go"
	firebaseAuth "firebase.google.com/go/auth"
	"github.com/hashicorp/golang-lru/simplelru"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/tidepool-org/caretrack/errors"
)

var (
	ErrUnauthenticated          = fmt.Errorf("id token is invalid")
	AuthContextKey              = AuthKey("auth")
	AuthorizationHeaderKey      = echo.HeaderAuthorization
	BearerPrefix                = "Bearer "
	DefaultCacheSize            = 10000           // Cache up to 10000 tokens
	DefaultCacheEntryExpiration = 5 * time.Minute // Cache tokens for 5 minutes
)

type AuthKey string

type Auth struct {
	SubjectId string    `json:"subjectId"`
	Expiry    time.Time `json:"-"`
}

type Authenticator interface {
	ValidateAndSetAuthData(token string, ec echo.Context) (bool, error)
}

// TokenVerifier verifies Firebase ID tokens
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*firebaseAuth.Token, error)
}

type FirebaseAuthenticator struct {
	verifier TokenVerifier
}

var _ Authenticator = &FirebaseAuthenticator{}

type AuthMiddlewareOpts struct {
	Skipper middleware.Skipper
}

func NewAuthMiddleware(authenticator Authenticator, opts AuthMiddlewareOpts) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			// Allow skipping authentication for certain routes (e.g. readiness probe)
			if opts.Skipper != nil {
				if opts.Skipper(c) {
					return next(c)
				}
			}

			token := BearerToken(c.Request().Header.Get(AuthorizationHeaderKey))
			if token == "" {
				return fmt.Errorf("%w: id token is missing", errors.Unauthenticated)
			}

			valid, err := authenticator.ValidateAndSetAuthData(token, c)
			if err != nil {
				return fmt.Errorf("%w: %w", errors.Unauthenticated, err)
			} else if valid {
				return next(c)
			}
			return fmt.Errorf("%w: %w", errors.Unauthenticated, ErrUnauthenticated)
		}
	}
}

// BearerToken extracts the token of a bearer authorization header value
func BearerToken(header string) string {
	if len(header) <= len(BearerPrefix) || !strings.EqualFold(header[:len(BearerPrefix)], BearerPrefix) {
		return ""
	}
	return strings.TrimSpace(header[len(BearerPrefix):])
}

// NewAuthenticator returns a firebase authenticator that caches verified tokens
func NewAuthenticator(app *firebase.App) (Authenticator, error) {
	client, err := app.Auth(context.Background())
	if err != nil {
		return nil, fmt.Errorf("unable to create firebase auth client: %w", err)
	}

	return NewCachingAuthenticator(
		DefaultCacheSize,
		DefaultCacheEntryExpiration,
		NewFirebaseAuthenticator(client),
	)
}

func NewFirebaseAuthenticator(verifier TokenVerifier) Authenticator {
	return &FirebaseAuthenticator{verifier: verifier}
}

func (f *FirebaseAuthenticator) ValidateAndSetAuthData(token string, ec echo.Context) (bool, error) {
	verified, err := f.verifier.VerifyIDToken(ec.Request().Context(), token)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}
	if verified == nil || verified.UID == "" {
		return false, ErrUnauthenticated
	}

	SetAuthData(ec, &Auth{
		SubjectId: verified.UID,
		Expiry:    time.Unix(verified.Expires, 0),
	})
	return true, nil
}

func GetAuthData(ctx context.Context) *Auth {
	if auth, ok := ctx.Value(AuthContextKey).(*Auth); ok {
		return auth
	}

	return nil
}

// GetSubjectId returns the id of the authenticated caller or an empty string
func GetSubjectId(ctx context.Context) string {
	if auth := GetAuthData(ctx); auth != nil {
		return auth.SubjectId
	}
	return ""
}

func SetAuthData(ec echo.Context, auth *Auth) {
	ctx := context.WithValue(ec.Request().Context(), AuthContextKey, auth)
	ec.SetRequest(ec.Request().WithContext(ctx))
}

type CacheEntry struct {
	token  string
	auth   *Auth
	expiry time.Time
}

func (c CacheEntry) IsExpired() bool {
	return time.Now().After(c.expiry)
}

type CachingAuthenticator struct {
	delegate   Authenticator
	expiration time.Duration
	lru        *simplelru.LRU
	mu         *sync.Mutex
}

var _ Authenticator = &CachingAuthenticator{}

func NewCachingAuthenticator(size int, expiration time.Duration, delegate Authenticator) (Authenticator, error) {
	var onEvict simplelru.EvictCallback
	lru, err := simplelru.NewLRU(size, onEvict)
	if err != nil {
		return nil, err
	}

	return &CachingAuthenticator{
		delegate:   delegate,
		expiration: expiration,
		lru:        lru,
		mu:         &sync.Mutex{},
	}, nil
}

func (c CachingAuthenticator) ValidateAndSetAuthData(token string, ec echo.Context) (bool, error) {
	entry := c.getCachedEntry(token)
	if entry != nil {
		SetAuthData(ec, entry.auth)
		return true, nil
	}

	res, err := c.delegate.ValidateAndSetAuthData(token, ec)
	if err != nil || !res {
		return res, err
	}

	if auth := GetAuthData(ec.Request().Context()); auth != nil {
		// Never keep a token past its own expiry
		expiry := time.Now().Add(c.expiration)
		if !auth.Expiry.IsZero() && auth.Expiry.Before(expiry) {
			expiry = auth.Expiry
		}
		c.setCacheEntry(CacheEntry{
			token:  token,
			auth:   auth,
			expiry: expiry,
		})
	}

	return res, nil
}

func (c *CachingAuthenticator) getCachedEntry(token string) *CacheEntry {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.lru.Get(token); ok {
		entry := e.(CacheEntry)
		if entry.IsExpired() {
			c.lru.Remove(token)
			return nil
		}
		return &entry
	}

	return nil
}

func (c *CachingAuthenticator) setCacheEntry(entry CacheEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.lru.Add(entry.token, entry)
}
