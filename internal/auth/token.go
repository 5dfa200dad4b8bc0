package auth

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Durée de validité d'un lien de réinitialisation : 1 heure
const resetTokenTTL = time.Hour

// NewResetToken signe un token de réinitialisation de mot de passe pour un
// utilisateur. Le token est autoporteur : pas de colonne reset_token en base.
func NewResetToken(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub":   strconv.FormatInt(userID, 10),
		"scope": "password_reset",
		"exp":   time.Now().Add(resetTokenTTL).Unix(),
		"iat":   time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}

// ParseResetToken valide un token de réinitialisation et retourne l'ID
// utilisateur. Refuse les tokens expirés, mal signés ou d'un autre scope.
func ParseResetToken(tokenStr string) (int64, error) {
	token, err := jwt.Parse(tokenStr, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("signature invalide")
		}
		return []byte(os.Getenv("JWT_SECRET")), nil
	})
	if err != nil || !token.Valid {
		return 0, fmt.Errorf("token invalide ou expiré")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("claims illisibles")
	}
	if scope, _ := claims["scope"].(string); scope != "password_reset" {
		return 0, fmt.Errorf("scope inattendu")
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fmt.Errorf("user ID manquant")
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("user ID invalide")
	}
	return userID, nil
}
