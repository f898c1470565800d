package service

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = &Error{KindConflict, "user with this email already exists"}
	ErrAuthenticationFailed = &Error{KindAuthentication, "authentication failed: invalid email or password"}
	ErrRoleNotSelectable    = &Error{KindValidation, "role must be TRAINER or CLIENT"}
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")
)

const minPasswordLength = 8

// TokenIssuer is the value placed in the iss claim of issued tokens.
const TokenIssuer = "fitness-scheduler"

// Claims is the JWT payload issued at login and checked by the API middleware.
type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error)
	Login(ctx context.Context, email, password string) (token string, user *domain.User, err error)
	// EnsureAdmin creates the bootstrap admin account unless the email is taken.
	EnsureAdmin(ctx context.Context, name, email, password string) error
	// Me returns the account behind an authenticated caller.
	Me(ctx context.Context, caller Caller) (*domain.User, error)
	GetJWTSecret() string
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	clientRepo    repository.ClientRepository
	tx            repository.Transactor
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(
	userRepo repository.UserRepository,
	clientRepo repository.ClientRepository,
	tx repository.Transactor,
	jwtSecret string,
	jwtExpiration time.Duration,
) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		clientRepo:    clientRepo,
		tx:            tx,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

func validateCredentials(name, email, password string) (string, string, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" || password == "" {
		return "", "", validationErrorf("name, email and password cannot be empty")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return "", "", validationErrorf("invalid email address")
	}
	if len(password) < minPasswordLength {
		return "", "", validationErrorf("password must be at least %d characters", minPasswordLength)
	}
	return name, email, nil
}

// Register creates a TRAINER or CLIENT account. A CLIENT also gets its client
// profile, starting with an INACTIVE subscription and no trainer.
func (s *authService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	if role != domain.RoleTrainer && role != domain.RoleClient {
		return nil, ErrRoleNotSelectable
	}
	return s.createUser(ctx, name, email, password, role)
}

func (s *authService) createUser(ctx context.Context, name, email, password string, role domain.Role) (*domain.User, error) {
	name, email, err := validateCredentials(name, email, password)
	if err != nil {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         role,
	}

	err = s.tx.WithTransaction(ctx, func(ctx context.Context) error {
		if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
			return ErrUserAlreadyExists
		} else if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		if _, err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrUserAlreadyExists
			}
			return fmt.Errorf("create user: %w", err)
		}

		if role == domain.RoleClient {
			client := &domain.Client{
				UserID:             user.ID,
				Name:               user.Name,
				SubscriptionStatus: domain.SubscriptionInactive,
			}
			if _, err := s.clientRepo.Create(ctx, client); err != nil {
				return fmt.Errorf("create client profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Remove password hash before returning
	user.PasswordHash = ""
	return user, nil
}

// EnsureAdmin creates the bootstrap admin when no account uses email yet.
func (s *authService) EnsureAdmin(ctx context.Context, name, email, password string) error {
	if _, err := s.userRepo.GetByEmail(ctx, email); err == nil {
		return nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return err
	}

	if name == "" {
		name = "Administrator"
	}
	admin, err := s.createUser(ctx, name, email, password, domain.RoleAdmin)
	if err != nil {
		if errors.Is(err, ErrUserAlreadyExists) {
			return nil
		}
		return err
	}
	log.WithField("email", admin.Email).Info("bootstrap admin created")
	return nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, email, password string) (token string, user *domain.User, err error) {
	if email == "" || password == "" {
		return "", nil, validationErrorf("email and password cannot be empty")
	}

	user, err = s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrAuthenticationFailed
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrAuthenticationFailed
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

func (s *authService) Me(ctx context.Context, caller Caller) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, caller.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	user.PasswordHash = ""
	return user, nil
}

// --- JWT Helper ---

func (s *authService) generateJWT(user *domain.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID.Hex(),
		Role:   string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtExpiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    TokenIssuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.jwtSecret))
}

// GetJWTSecret returns the JWT secret for middleware authentication
func (s *authService) GetJWTSecret() string {
	return s.jwtSecret
}
