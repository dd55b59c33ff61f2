package auth

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ormasrl/tenderdesk/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

type accessClaims struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// Parse validates an access token and extracts the principal.
func (p *Parser) Parse(raw string) (model.Principal, error) {
	var claims accessClaims
	token, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil || !token.Valid {
		return model.Principal{}, ErrInvalidToken
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}
	orgID, err := uuid.Parse(claims.OrgID)
	if err != nil {
		return model.Principal{}, ErrInvalidToken
	}
	if claims.Role == "" {
		return model.Principal{}, ErrInvalidToken
	}

	return model.Principal{
		UserID: userID,
		OrgID:  orgID,
		Role:   claims.Role,
	}, nil
}
