package middleware

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

// CurrentClaims extracts the JWT claims set by JWTProtected.
func CurrentClaims(c *fiber.Ctx) (jwt.MapClaims, error) {
	token, ok := c.Locals("user").(*jwt.Token)
	if !ok || token == nil {
		return nil, errors.New("invalid token in context")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}
	return claims, nil
}

// CurrentUserID extracts the authenticated user's id from JWT claims.
func CurrentUserID(c *fiber.Ctx) (uint, error) {
	claims, err := CurrentClaims(c)
	if err != nil {
		return 0, err
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, errors.New("missing sub claim")
	}

	id, err := strconv.ParseUint(sub, 10, 64)
	if err != nil {
		return 0, errors.New("malformed sub claim")
	}
	return uint(id), nil
}

// CurrentUsername extracts the authenticated username from JWT claims.
func CurrentUsername(c *fiber.Ctx) (string, error) {
	claims, err := CurrentClaims(c)
	if err != nil {
		return "", err
	}

	username, ok := claims["username"].(string)
	if !ok || username == "" {
		return "", errors.New("missing username claim")
	}
	return username, nil
}
