package auth

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Togather-Foundation/voluntier/internal/domain/failure"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	Role     string `json:"role"`
	Username string `json:"username,omitempty"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	secret []byte
	expiry time.Duration
	issuer string
}

var (
	ErrMissingToken = failure.New(failure.KindUnauthenticated, "missing token")
	ErrInvalidToken = failure.New(failure.KindUnauthenticated, "invalid token")
)

func NewJWTManager(secret string, expiry time.Duration, issuer string) *JWTManager {
	return &JWTManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: issuer,
	}
}

// Generate signs a session token for the given user. The subject claim is
// the decimal user id.
func (m *JWTManager) Generate(userID int64, username string, role Role) (string, error) {
	if userID <= 0 || role == "" {
		return "", ErrInvalidToken
	}

	now := time.Now()
	claims := &Claims{
		Role:     string(role),
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", failure.Internal(err, "sign token")
	}
	return signed, nil
}

func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrMissingToken
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if m.issuer != "" {
		opts = append(opts, jwt.WithIssuer(m.issuer))
	}

	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, opts...)
	if err != nil {
		return nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Authenticate validates a token and returns the principal it names.
func (m *JWTManager) Authenticate(tokenString string) (*Principal, error) {
	claims, err := m.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return PrincipalFromClaims(claims)
}

func TokenFromHeader(authHeader string) (string, error) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", ErrMissingToken
	}
	return strings.TrimSpace(parts[1]), nil
}

// PrincipalFromClaims converts validated claims into a Principal.
func PrincipalFromClaims(claims *Claims) (*Principal, error) {
	if claims == nil {
		return nil, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return nil, failure.Wrap(fmt.Errorf("subject %q: %w", claims.Subject, err), failure.KindUnauthenticated, "invalid token")
	}
	return &Principal{
		UserID:   id,
		Username: claims.Username,
		IsAdmin:  IsAdmin(claims.Role),
	}, nil
}
