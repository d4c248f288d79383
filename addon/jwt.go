package addon

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenLifetime is how long issued host tokens remain valid.
const TokenLifetime = time.Hour

// CreateToken issues an HS256 token for a request to the given tenant.
// The qsh claim binds the token to the canonical form of the request so a
// token captured for one URL cannot authorise another.
func CreateToken(issuer string, inst Installation, method string, requestURL string) (string, error) {
	qsh, err := CanonicalRequestHash(method, requestURL)
	if err != nil {
		return "", err
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": issuer,
		"sub": inst.ClientKey,
		"iat": now.Unix(),
		"exp": now.Add(TokenLifetime).Unix(),
		"qsh": qsh,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(inst.SharedSecret))
}

// VerifyToken parses a token against the tenant's shared secret and
// returns its claims. Any token not signed with HMAC is rejected outright.
func VerifyToken(tokenStr string, inst Installation) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(inst.SharedSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("addon: token verification failed: %w", err)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("addon: token carries no usable claims")
	}
	return claims, nil
}

// CanonicalRequestHash computes the qsh input for a request:
// METHOD&path&canonical-query, with the query parameters sorted by name
// and their values escaped. A request with no query still ends with the
// trailing separator.
func CanonicalRequestHash(method string, requestURL string) (string, error) {
	u, err := url.Parse(requestURL)
	if err != nil {
		return "", fmt.Errorf("addon: cannot canonicalise request URL %q: %w", requestURL, err)
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	params := u.Query()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	var pairs []string
	for _, name := range names {
		values := params[name]
		sort.Strings(values)
		escaped := make([]string, len(values))
		for i, v := range values {
			escaped[i] = url.QueryEscape(v)
		}
		pairs = append(pairs, fmt.Sprintf("%s=%s", url.QueryEscape(name), strings.Join(escaped, ",")))
	}

	return fmt.Sprintf("%s&%s&%s", strings.ToUpper(method), path, strings.Join(pairs, "&")), nil
}
