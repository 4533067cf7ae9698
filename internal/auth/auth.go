// Package auth verifies bearer tokens issued by the external identity
// provider and resolves them to platform users.
package auth

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"

	"github.com/BradleyExton/canpoli-api/internal/models"
	"github.com/BradleyExton/canpoli-api/internal/repo"
)

// Claims is the identity extracted from a verified token.
type Claims struct {
	Subject string
	Email   *string
}

// Config controls token verification. Exactly one of HSSecret or
// RSAPublicKeyFile must be set.
type Config struct {
	Issuer           string
	Audience         []string
	HSSecret         string
	RSAPublicKeyFile string
}

// Verifier validates bearer tokens.
type Verifier struct {
	issuer   string
	audience []string
	secret   []byte
	rsaKey   *rsa.PublicKey
}

// NewVerifier constructs a verifier, loading the RSA public key when
// configured.
func NewVerifier(cfg Config) (*Verifier, error) {
	verifier := &Verifier{
		issuer:   strings.TrimSpace(cfg.Issuer),
		audience: cfg.Audience,
	}
	switch {
	case cfg.RSAPublicKeyFile != "":
		raw, err := os.ReadFile(cfg.RSAPublicKeyFile)
		if err != nil {
			return nil, fmt.Errorf("auth: read public key: %w", err)
		}
		key, err := parseRSAPublicKey(raw)
		if err != nil {
			return nil, err
		}
		verifier.rsaKey = key
	case cfg.HSSecret != "":
		verifier.secret = []byte(cfg.HSSecret)
	default:
		return nil, fmt.Errorf("auth: no token verification key configured")
	}
	return verifier, nil
}

func parseRSAPublicKey(raw []byte) (*rsa.PublicKey, error) {
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("auth: public key is not PEM encoded")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("auth: parse public key: %w", err)
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("auth: public key is not RSA")
	}
	return key, nil
}

// Verify parses and validates a token, returning its claims.
func (v *Verifier) Verify(tokenString string) (*Claims, error) {
	options := []jwt.ParserOption{}
	if v.issuer != "" {
		options = append(options, jwt.WithIssuer(v.issuer))
	}
	for _, audience := range v.audience {
		options = append(options, jwt.WithAudience(audience))
	}
	if v.rsaKey != nil {
		options = append(options, jwt.WithValidMethods([]string{"RS256"}))
	} else {
		options = append(options, jwt.WithValidMethods([]string{"HS256"}))
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if v.rsaKey != nil {
			return v.rsaKey, nil
		}
		return v.secret, nil
	}, options...)
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("auth: invalid token")
	}

	mapClaims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("auth: invalid token")
	}
	subject, _ := mapClaims.GetSubject()
	if subject == "" {
		return nil, fmt.Errorf("auth: invalid token")
	}
	return &Claims{Subject: subject, Email: extractEmail(mapClaims)}, nil
}

func extractEmail(claims jwt.MapClaims) *string {
	for _, key := range []string{"email", "email_address", "primary_email_address"} {
		if value, ok := claims[key].(string); ok && value != "" {
			return &value
		}
	}
	return nil
}

// ResolveUser upserts the platform user for a verified claim set: created
// on first sight, email refreshed on change.
func ResolveUser(ctx context.Context, db *gorm.DB, claims *Claims) (*models.User, error) {
	users := repo.NewUsers(db)
	user, err := users.GetByAuthUserID(ctx, claims.Subject)
	if err != nil {
		return nil, err
	}
	if user == nil {
		user = &models.User{
			AuthProvider: "clerk",
			AuthUserID:   claims.Subject,
			Email:        claims.Email,
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if claims.Email != nil && (user.Email == nil || *user.Email != *claims.Email) {
		user.Email = claims.Email
		if err := users.Save(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}
