package httpapi

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"kasirlokal/backend/internal/domain"
)

// UserSeed is a login account known at startup. Password may be plain text or
// an existing bcrypt hash; plain passwords are hashed before they are kept.
type UserSeed struct {
	Username string
	Password string
	Role     string
}

type AuthManager struct {
	mu         sync.RWMutex
	secret     []byte
	tokenTTL   time.Duration
	managerPIN string
	users      map[string]credential
	now        func() time.Time
}

type credential struct {
	password string
	role     string
}

type posCustomClaims struct {
	jwtlib.RegisteredClaims
	Role string `json:"role"`
}

func NewAuthManager(secret string, tokenTTL time.Duration, managerPIN string, seeds []UserSeed) (*AuthManager, error) {
	if secret == "" {
		secret = "dev-change-me"
	}
	if tokenTTL <= 0 {
		tokenTTL = 8 * time.Hour
	}
	// An unset PIN stays unhashed so ValidateManagerPIN never matches it.
	managerPIN = strings.TrimSpace(managerPIN)
	if managerPIN != "" && !isPasswordHash(managerPIN) {
		hashedPIN, err := hashPassword(managerPIN)
		if err != nil {
			return nil, fmt.Errorf("hash manager pin: %w", err)
		}
		managerPIN = hashedPIN
	}

	manager := &AuthManager{
		secret:     []byte(secret),
		tokenTTL:   tokenTTL,
		managerPIN: managerPIN,
		users:      make(map[string]credential, len(seeds)),
		now:        time.Now,
	}
	for _, seed := range seeds {
		if err := manager.addUser(seed); err != nil {
			return nil, err
		}
	}
	return manager, nil
}

func (a *AuthManager) addUser(seed UserSeed) error {
	username := strings.ToLower(strings.TrimSpace(seed.Username))
	if username == "" || strings.TrimSpace(seed.Password) == "" {
		// accounts without a password stay disabled
		return nil
	}
	if seed.Role != domain.RoleAdmin && seed.Role != domain.RoleCashier {
		return fmt.Errorf("user %s: unknown role %q", username, seed.Role)
	}

	password := seed.Password
	if !isPasswordHash(password) {
		hashed, err := hashPassword(password)
		if err != nil {
			return fmt.Errorf("user %s: hash password: %w", username, err)
		}
		password = hashed
	}

	a.mu.Lock()
	a.users[username] = credential{password: password, role: seed.Role}
	a.mu.Unlock()
	return nil
}

// Usernames lists the enabled accounts, sorted.
func (a *AuthManager) Usernames() []string {
	a.mu.RLock()
	defer a.mu.RUnlock()
	names := make([]string, 0, len(a.users))
	for name := range a.users {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (a *AuthManager) Login(req domain.LoginRequest) (domain.LoginResponse, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	a.mu.RLock()
	cred, ok := a.users[username]
	a.mu.RUnlock()
	if !ok {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}
	if !verifyPassword(cred.password, req.Password) {
		return domain.LoginResponse{}, errors.New("invalid credentials")
	}

	expiresAt := a.now().UTC().Add(a.tokenTTL)
	token, err := a.sign(username, cred.role, expiresAt)
	if err != nil {
		return domain.LoginResponse{}, err
	}

	return domain.LoginResponse{
		AccessToken: token,
		Role:        cred.role,
		ExpiresAt:   expiresAt.Format(time.RFC3339),
	}, nil
}

func (a *AuthManager) ParseToken(tokenStr string) (domain.Actor, error) {
	claims := &posCustomClaims{}
	token, err := jwtlib.ParseWithClaims(tokenStr, claims, func(t *jwtlib.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return a.secret, nil
	}, jwtlib.WithValidMethods([]string{"HS256"}), jwtlib.WithIssuer("kasirlokal"))
	if err != nil || !token.Valid {
		return domain.Actor{}, errors.New("invalid or expired token")
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return domain.Actor{}, errors.New("invalid token subject")
	}
	return domain.Actor{Username: sub, Role: claims.Role}, nil
}

func (a *AuthManager) sign(username, role string, expiresAt time.Time) (string, error) {
	claims := posCustomClaims{
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwtlib.NewNumericDate(a.now().UTC()),
			ExpiresAt: jwtlib.NewNumericDate(expiresAt),
			Issuer:    "kasirlokal",
		},
		Role: role,
	}
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

func (a *AuthManager) ValidateManagerPIN(pin string) bool {
	input := strings.TrimSpace(pin)
	if input == "" || !isPasswordHash(a.managerPIN) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(a.managerPIN), []byte(input)) == nil
}

func verifyPassword(stored string, input string) bool {
	if stored == "" || strings.TrimSpace(input) == "" || !isPasswordHash(stored) {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(input)) == nil
}

func hashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

func isPasswordHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}
