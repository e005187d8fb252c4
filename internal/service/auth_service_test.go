package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shams-academy/assessment/internal/config"
	"github.com/shams-academy/assessment/internal/model"
)

type memUsers struct {
	mu   sync.Mutex
	byID map[int]*model.User
	next int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[int]*model.User{}} }

func (m *memUsers) GetByID(_ context.Context, id int) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) Create(_ context.Context, u *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	u.ID = m.next
	m.byID[u.ID] = u
	return nil
}

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:    "test-secret",
		JWTExpiry:    time.Hour,
		BcryptCost:   4,
		TickInterval: time.Second,
		ResultTTL:    time.Hour,
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(testConfig(), newMemUsers())

	u, err := svc.Register(ctx, " Layla ", "Layla@Example.com", "password123", false)
	if err != nil {
		t.Fatal(err)
	}
	if u.Email != "layla@example.com" || u.Name != "Layla" {
		t.Errorf("registered %+v", u)
	}

	token, got, err := svc.Login(ctx, "layla@example.com", "password123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("user id = %d, want %d", got.ID, u.ID)
	}

	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != u.ID || claims.TokenType != TokenTypeLearner {
		t.Errorf("claims = %+v", claims)
	}
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(testConfig(), newMemUsers())
	if _, err := svc.Register(ctx, "Omar", "omar@example.com", "password123", true); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name, email, password string
	}{
		{"unknown email", "nobody@example.com", "password123"},
		{"wrong password", "omar@example.com", "password124"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := svc.Login(ctx, tc.email, tc.password)
			if !errors.Is(err, ErrInvalidCredentials) {
				t.Errorf("err = %v, want ErrInvalidCredentials", err)
			}
		})
	}
}

func TestAuthService_AdminTokenAndTampering(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(testConfig(), newMemUsers())
	u, _ := svc.Register(ctx, "Omar", "omar@example.com", "password123", true)

	token, err := svc.GenerateToken(u)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := svc.ValidateToken(token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.TokenType != TokenTypeAdmin {
		t.Errorf("TokenType = %q, want admin", claims.TokenType)
	}

	other := testConfig()
	other.JWTSecret = "another-secret"
	if _, err := NewAuthService(other, newMemUsers()).ValidateToken(token); err == nil {
		t.Error("token signed with another secret validated")
	}
}
