package types

import (
	"fmt"
	"strings"

	"github.com/fitelo/sales-dashboard/pkg/utils"
	"github.com/go-jose/go-jose/v4/json"
)

// Dashboard roles. SM users only see their own subtree.
const (
	RoleAdmin = "admin"
	RoleSM    = "sm"
)

// User is a dashboard account.
type User struct {
	Email string
	// Name is the display name; for SM users it must match the SM's name in
	// the Targets table.
	Name string
	Role string
	Hash []byte
}

type userConfig struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Hash     string `json:"hash"`
	Role     string `json:"role"`
}

// ParseUsers decodes DASHBOARD_USERS: a JSON object mapping email to
// {name, password | hash, role}. Plain passwords are hashed with bcrypt.
func ParseUsers(raw string) (map[string]User, error) {
	users := map[string]User{}
	if strings.TrimSpace(raw) == "" {
		return users, nil
	}

	var in map[string]userConfig
	if err := json.Unmarshal([]byte(raw), &in); err != nil {
		return nil, fmt.Errorf("parse dashboard users: %w", err)
	}
	for email, cfg := range in {
		secret := cfg.Hash
		if secret == "" {
			secret = cfg.Password
		}
		if secret == "" {
			return nil, fmt.Errorf("dashboard user %q has no password", email)
		}
		role := strings.ToLower(cfg.Role)
		if role != RoleAdmin && role != RoleSM {
			return nil, fmt.Errorf("dashboard user %q has unknown role %q", email, cfg.Role)
		}
		hash, err := utils.HashOrRead(secret)
		if err != nil {
			return nil, fmt.Errorf("hash password for %q: %w", email, err)
		}
		key := strings.ToLower(strings.TrimSpace(email))
		users[key] = User{Email: key, Name: strings.TrimSpace(cfg.Name), Role: role, Hash: hash}
	}
	return users, nil
}

// Session is the identity carried by a request.
type Session struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

// ScopedToSM reports whether the session only sees one SM subtree.
func (s Session) ScopedToSM() bool {
	return s.Role == RoleSM
}
