package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/golang-jwt/jwt/v5"
	jsoniter "github.com/json-iterator/go"

	"github.com/libraryhub/library-server/internal/domain"
	"github.com/libraryhub/library-server/internal/id"
)

const (
	tokenIssuer   = "library-server"
	tokenAudience = "library-client"
)

// Token formats.
const (
	FormatJWT    = "jwt"
	FormatPASETO = "paseto"
)

// Verification errors.
var (
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)

// TokenIssuer issues and verifies access tokens.
type TokenIssuer interface {
	// Issue returns a signed or encrypted token for m and its expiry.
	Issue(m *domain.Member) (string, time.Time, error)
	// Verify returns the claims of a valid token. Expired tokens fail with
	// ErrTokenExpired and everything else with ErrInvalidToken.
	Verify(token string) (*AccessClaims, error)
}

// NewTokenIssuer returns the issuer for format. A nil now defaults to time.Now.
func NewTokenIssuer(format string, key []byte, ttl time.Duration, now func() time.Time) (TokenIssuer, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("token key must be %d bytes, got %d", KeySize, len(key))
	}
	if ttl <= 0 {
		return nil, errors.New("token lifetime must be positive")
	}
	if now == nil {
		now = time.Now
	}

	switch format {
	case FormatJWT, "":
		return &JWTIssuer{key: key, ttl: ttl, now: now}, nil
	case FormatPASETO:
		k, err := paseto.V4SymmetricKeyFromBytes(key)
		if err != nil {
			return nil, fmt.Errorf("create PASETO key: %w", err)
		}
		return &PASETOIssuer{key: k, ttl: ttl, now: now}, nil
	default:
		return nil, fmt.Errorf("unsupported token format %q", format)
	}
}

func newTokenID() (string, error) {
	jti, err := id.Generate("tok")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	return jti, nil
}

// JWTIssuer issues HS256 JSON Web Tokens.
type JWTIssuer struct {
	key []byte
	ttl time.Duration
	now func() time.Time
}

type jwtClaims struct {
	MemberID int64       `json:"member_id"`
	Email    string      `json:"email"`
	Name     string      `json:"name"`
	Role     domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// Issue implements TokenIssuer.
func (j *JWTIssuer) Issue(m *domain.Member) (string, time.Time, error) {
	jti, err := newTokenID()
	if err != nil {
		return "", time.Time{}, err
	}

	// JWT NumericDate has second precision.
	now := j.now().Truncate(time.Second)
	exp := now.Add(j.ttl)

	claims := jwtClaims{
		MemberID: m.ID,
		Email:    m.Email,
		Name:     m.Name,
		Role:     m.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(m.ID, 10),
			Audience:  jwt.ClaimStrings{tokenAudience},
			ExpiresAt: jwt.NewNumericDate(exp),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(j.key)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Verify implements TokenIssuer.
func (j *JWTIssuer) Verify(token string) (*AccessClaims, error) {
	var claims jwtClaims
	_, err := jwt.ParseWithClaims(token, &claims,
		func(*jwt.Token) (any, error) { return j.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	out := &AccessClaims{
		MemberID: claims.MemberID,
		Email:    claims.Email,
		Name:     claims.Name,
		Role:     claims.Role,
		Issuer:   claims.Issuer,
		Subject:  claims.Subject,
		TokenID:  claims.ID,
	}
	if len(claims.Audience) > 0 {
		out.Audience = claims.Audience[0]
	}
	if claims.ExpiresAt != nil {
		out.Expiration = claims.ExpiresAt.Time
	}
	if claims.NotBefore != nil {
		out.NotBefore = claims.NotBefore.Time
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}

// PASETOIssuer issues PASETO v4.local tokens. Claims are encrypted, so
// they are not readable without the key.
type PASETOIssuer struct {
	key paseto.V4SymmetricKey
	ttl time.Duration
	now func() time.Time
}

// Issue implements TokenIssuer.
func (p *PASETOIssuer) Issue(m *domain.Member) (string, time.Time, error) {
	jti, err := newTokenID()
	if err != nil {
		return "", time.Time{}, err
	}

	now := p.now()
	exp := now.Add(p.ttl)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(strconv.FormatInt(m.ID, 10))
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(exp)
	token.SetJti(jti)

	for key, value := range map[string]any{
		"member_id": m.ID,
		"email":     m.Email,
		"name":      m.Name,
		"role":      string(m.Role),
	} {
		if err := token.Set(key, value); err != nil {
			return "", time.Time{}, fmt.Errorf("set claim %s: %w", key, err)
		}
	}

	return token.V4Encrypt(p.key, nil), exp, nil
}

// Verify implements TokenIssuer.
func (p *PASETOIssuer) Verify(tokenString string) (*AccessClaims, error) {
	parser := paseto.NewParserWithoutExpiryCheck()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))

	token, err := parser.ParseV4Local(p.key, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	// Time rules are checked here so expiry can be told apart.
	now := p.now()
	exp, err := token.GetExpiration()
	if err != nil {
		return nil, fmt.Errorf("%w: missing expiration", ErrInvalidToken)
	}
	if !now.Before(exp) {
		return nil, ErrTokenExpired
	}
	if nbf, err := token.GetNotBefore(); err == nil && now.Before(nbf) {
		return nil, fmt.Errorf("%w: not yet valid", ErrInvalidToken)
	}

	var claims AccessClaims
	if err := jsoniter.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("%w: parse claims: %v", ErrInvalidToken, err)
	}
	return &claims, nil
}
