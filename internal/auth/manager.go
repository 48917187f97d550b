// Package auth handles user registration, login and JWT session tokens.
package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/planwise/planwise/internal/database"
	"github.com/planwise/planwise/internal/models"
)

// ErrInvalidCredentials is returned for any bad email/password combination.
// Login never reveals whether the email exists.
var ErrInvalidCredentials = errors.New("invalid email or password")

// Claims is the JWT payload for a logged-in user.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// LoginResponse is returned from Register and Login.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expires_in"`
	User      models.User `json:"user"`
}

// Manager authenticates users against the database and issues JWT tokens.
type Manager struct {
	db        *database.Database
	jwtSecret string
	tokenTTL  time.Duration
}

// NewManager creates an auth manager. An empty secret gets replaced by a
// random one, which invalidates all tokens on restart.
func NewManager(db *database.Database, jwtSecret string, tokenTTL time.Duration) *Manager {
	if jwtSecret == "" {
		jwtSecret = generateRandomSecret(32)
		log.Printf("[Auth] Generated random JWT secret for session (not persistent)")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Manager{
		db:        db,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
	}
}

// Register creates a user and returns a logged-in session.
func (m *Manager) Register(email, password, fullName string) (*LoginResponse, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}

	if _, _, err := m.db.GetUserByEmail(email); err == nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{Email: email, FullName: fullName}
	if err := m.db.CreateUser(user, string(hash)); err != nil {
		return nil, err
	}

	log.Printf("[Auth] Registered user %s", email)
	return m.session(user)
}

// Login authenticates an email/password pair and returns a session.
func (m *Manager) Login(email, password string) (*LoginResponse, error) {
	user, hash, err := m.db.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return m.session(user)
}

// ChangePassword verifies the old password and stores a new hash.
func (m *Manager) ChangePassword(userID, oldPassword, newPassword string) error {
	user, err := m.db.GetUser(userID)
	if err != nil {
		return fmt.Errorf("user not found")
	}
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	_, hash, err := m.db.GetUserByEmail(user.Email)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)); err != nil {
		return fmt.Errorf("incorrect password")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := m.db.UpdateUserPassword(userID, string(newHash)); err != nil {
		return err
	}

	log.Printf("[Auth] Password changed for user %s", user.Email)
	return nil
}

func (m *Manager) session(user *models.User) (*LoginResponse, error) {
	token, err := m.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &LoginResponse{
		Token:     token,
		ExpiresIn: int64(m.tokenTTL.Seconds()),
		User:      *user,
	}, nil
}

// GenerateToken creates a signed JWT for a user.
func (m *Manager) GenerateToken(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "planwise",
			Subject:   user.ID,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(m.jwtSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a JWT and returns its claims.
func (m *Manager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.jwtSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	return claims, nil
}

// generateRandomSecret generates a random hex secret string.
func generateRandomSecret(length int) string {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		panic(err)
	}
	return fmt.Sprintf("%x", bytes)
}
