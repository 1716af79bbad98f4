package httpapi

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-circulation-go/circulation/catalog"
)

const (
	localsPatron = "circulation.patron"
	bearerPrefix = "bearer "
)

var (
	ErrUnauthenticated = errors.New("missing or invalid bearer credential")
	ErrEmptySecret     = errors.New("jwt secret must not be empty")
)

// Claims is the payload of a patron credential.
type Claims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// JWTPatronResolver turns a bearer credential into the calling patron.
type JWTPatronResolver struct {
	secret []byte
}

// NewJWTPatronResolver creates a resolver verifying HS256 signatures with secret.
func NewJWTPatronResolver(secret string) (JWTPatronResolver, error) {
	if strings.TrimSpace(secret) == "" {
		return JWTPatronResolver{}, ErrEmptySecret
	}

	return JWTPatronResolver{secret: []byte(secret)}, nil
}

// Resolve verifies raw and returns the patron named by its claims.
// Expired tokens and tokens without a UUID subject or a known role are rejected.
func (r JWTPatronResolver) Resolve(raw string) (catalog.Patron, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(
		raw,
		claims,
		func(*jwt.Token) (any, error) { return r.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return catalog.Patron{}, errors.Join(ErrUnauthenticated, err)
	}

	if !token.Valid {
		return catalog.Patron{}, ErrUnauthenticated
	}

	patronID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return catalog.Patron{}, errors.Join(ErrUnauthenticated, err)
	}

	role, err := catalog.ParseRole(claims.Role)
	if err != nil {
		return catalog.Patron{}, errors.Join(ErrUnauthenticated, err)
	}

	return catalog.Patron{ID: patronID, Name: claims.Name, Role: role}, nil
}

// Issue signs a credential for patron valid for ttl from now. A non-positive ttl never expires.
func (r JWTPatronResolver) Issue(patron catalog.Patron, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		Role: string(patron.Role),
		Name: patron.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  patron.ID.String(),
			IssuedAt: jwt.NewNumericDate(now),
		},
	}

	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(r.secret)
}

// authenticate resolves the bearer credential and stores the patron in the request locals.
func authenticate(resolver JWTPatronResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
		if !strings.HasPrefix(strings.ToLower(header), bearerPrefix) {
			return ErrUnauthenticated
		}

		patron, err := resolver.Resolve(strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			return err
		}

		c.Locals(localsPatron, patron)

		return c.Next()
	}
}

func callerOf(c *fiber.Ctx) catalog.Patron {
	patron, _ := c.Locals(localsPatron).(catalog.Patron)

	return patron
}
