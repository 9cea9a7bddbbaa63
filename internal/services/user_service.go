package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"taxibackend/internal/domain"
	"taxibackend/internal/domain/models"
	"taxibackend/internal/repositories"
	"taxibackend/internal/utils"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

const invalidCredentials = "incorrect email or password"

// Tokens signs and verifies HS256 access tokens carrying user id and role.
type Tokens struct {
	Secret []byte
	TTL    time.Duration
	Now    func() time.Time
}

type tokenClaims struct {
	UserID int64  `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

func (t Tokens) now() time.Time {
	if t.Now != nil {
		return t.Now()
	}
	return time.Now()
}

func (t Tokens) Issue(u models.User) (string, error) {
	ttl := t.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	now := t.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		UserID: u.ID,
		Role:   u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	})
	signed, err := token.SignedString(t.Secret)
	if err != nil {
		return "", domain.InternalError{Msg: "could not sign token", Err: err}
	}
	return signed, nil
}

func (t Tokens) Parse(raw string) (domain.RequestContext, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(t.now))
	if err != nil {
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: "invalid or expired token"}
	}
	if claims.UserID <= 0 || claims.Role == "" {
		return domain.RequestContext{}, domain.UnauthorizedError{Msg: "invalid token claims"}
	}
	return domain.RequestContext{UserID: claims.UserID, Role: claims.Role}, nil
}

type LoginResult struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	User        models.User `json:"user"`
}

// UserService handles accounts and login.
type UserService struct {
	Store  repositories.Store
	Tokens Tokens
}

func validRole(role string) bool {
	switch role {
	case domain.RolePassenger, domain.RoleDriver, domain.RoleAdmin:
		return true
	}
	return false
}

func hashPassword(pw string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", domain.InternalError{Msg: "could not hash password", Err: err}
	}
	return string(hash), nil
}

// newUser builds the account row; role defaults to passenger.
func newUser(in models.UserCreate) (models.User, error) {
	role := strings.ToLower(strings.TrimSpace(in.Role))
	if role == "" {
		role = domain.RolePassenger
	}
	if !validRole(role) {
		return models.User{}, domain.ValidationError{Field: "role", Msg: "must be passenger, driver or admin"}
	}
	hash, err := hashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}
	return models.User{
		Email:        utils.NormalizeEmail(in.Email),
		FullName:     in.FullName,
		PhoneNumber:  in.PhoneNumber,
		Role:         role,
		PasswordHash: hash,
		IsActive:     true,
	}, nil
}

func ensureEmailFree(ctx context.Context, r repositories.Repos, email string, selfID int64) error {
	existing, err := r.Users.GetByEmail(ctx, email)
	switch {
	case err == nil && existing.ID != selfID:
		return domain.ConflictError{Resource: "user", Msg: "email already registered"}
	case err != nil && !domain.IsNotFound(err):
		return err
	}
	return nil
}

// Signup registers a passenger without authentication.
func (s UserService) Signup(ctx context.Context, in models.UserCreate) (models.User, error) {
	in.Role = domain.RolePassenger
	return s.Create(ctx, in)
}

func (s UserService) Create(ctx context.Context, in models.UserCreate) (models.User, error) {
	u, err := newUser(in)
	if err != nil {
		return models.User{}, err
	}
	err = s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if err := ensureEmailFree(ctx, r, u.Email, 0); err != nil {
			return err
		}
		return r.Users.Create(ctx, &u)
	})
	if err != nil {
		return models.User{}, err
	}
	utils.LogEventCtx(ctx, "USER", "create", fmt.Sprintf("user_id=%d role=%s", u.ID, u.Role))
	return u, nil
}

func (s UserService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	u, err := s.Store.Repos().Users.GetByEmail(ctx, utils.NormalizeEmail(email))
	if err != nil {
		if domain.IsNotFound(err) {
			return LoginResult{}, domain.UnauthorizedError{Msg: invalidCredentials}
		}
		return LoginResult{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return LoginResult{}, domain.UnauthorizedError{Msg: invalidCredentials}
	}
	if !u.IsActive {
		return LoginResult{}, domain.ForbiddenError{Msg: "inactive user"}
	}
	token, err := s.Tokens.Issue(u)
	if err != nil {
		return LoginResult{}, err
	}
	utils.LogEventCtx(ctx, "AUTH", "login", fmt.Sprintf("user_id=%d", u.ID))
	return LoginResult{AccessToken: token, TokenType: "bearer", User: u}, nil
}

// Get returns a user; non-admins may only read themselves.
func (s UserService) Get(ctx context.Context, rc domain.RequestContext, id int64) (models.User, error) {
	if !rc.IsAdmin() && rc.UserID != id {
		return models.User{}, domain.ForbiddenError{Msg: "the user doesn't have enough privileges"}
	}
	return s.Store.Repos().Users.GetByID(ctx, id)
}

func (s UserService) List(ctx context.Context, page domain.Page) ([]models.User, int, error) {
	page = page.Normalize()
	return s.Store.Repos().Users.List(ctx, page.Skip, page.Limit)
}

// applyUserUpdate copies present fields onto u.
func applyUserUpdate(u *models.User, upd models.UserUpdate) error {
	if upd.Email != nil {
		u.Email = utils.NormalizeEmail(*upd.Email)
	}
	if upd.FullName != nil {
		u.FullName = upd.FullName
	}
	if upd.PhoneNumber != nil {
		u.PhoneNumber = upd.PhoneNumber
	}
	if upd.Role != nil {
		role := strings.ToLower(strings.TrimSpace(*upd.Role))
		if !validRole(role) {
			return domain.ValidationError{Field: "role", Msg: "must be passenger, driver or admin"}
		}
		u.Role = role
	}
	if upd.IsActive != nil {
		u.IsActive = *upd.IsActive
	}
	if upd.Password != nil {
		hash, err := hashPassword(*upd.Password)
		if err != nil {
			return err
		}
		u.PasswordHash = hash
	}
	return nil
}

func (s UserService) Update(ctx context.Context, id int64, upd models.UserUpdate) (models.User, error) {
	var out models.User
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		u, err := r.Users.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := applyUserUpdate(&u, upd); err != nil {
			return err
		}
		if upd.Email != nil {
			if err := ensureEmailFree(ctx, r, u.Email, id); err != nil {
				return err
			}
		}
		if err := r.Users.Update(ctx, u); err != nil {
			return err
		}
		out = u
		return nil
	})
	if err != nil {
		return models.User{}, err
	}
	utils.LogEventCtx(ctx, "USER", "update", fmt.Sprintf("user_id=%d", id))
	return out, nil
}

// Delete removes another user's account. Admins cannot delete themselves.
func (s UserService) Delete(ctx context.Context, rc domain.RequestContext, id int64) error {
	if rc.UserID == id {
		return domain.ForbiddenError{Msg: "users are not allowed to delete themselves"}
	}
	err := s.Store.WithinTx(ctx, func(r repositories.Repos) error {
		if _, err := r.Users.GetByID(ctx, id); err != nil {
			return err
		}
		return r.Users.Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	utils.LogEventCtx(ctx, "USER", "delete", fmt.Sprintf("user_id=%d by=%d", id, rc.UserID))
	return nil
}

// Me loads the authenticated user.
func (s UserService) Me(ctx context.Context, rc domain.RequestContext) (models.User, error) {
	if rc.UserID <= 0 {
		return models.User{}, domain.UnauthorizedError{Msg: "not authenticated"}
	}
	return s.Store.Repos().Users.GetByID(ctx, rc.UserID)
}
