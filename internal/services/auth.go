package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/assetshare/backend/internal/models"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	sharingCodeMin      = 100000
	sharingCodeSpan     = 900000
	sharingCodeAttempts = 10
)

var sharingCodePattern = regexp.MustCompile(`^[0-9]{6}$`)

type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthResult struct {
	User  *models.User
	Token string
}

type AuthService struct {
	DB       *gorm.DB
	validate *validator.Validate
	// newCode is swapped in tests to force collisions.
	newCode func() (string, error)
}

func NewAuthService(db *gorm.DB) *AuthService {
	return &AuthService{
		DB:       db,
		validate: validator.New(),
		newCode:  GenerateSharingCode,
	}
}

// GenerateSharingCode returns a uniformly random code in [100000, 999999].
func GenerateSharingCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(sharingCodeSpan))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+sharingCodeMin), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = normalizeEmail(in.Email)

	if err := s.validate.Struct(in); err != nil {
		return nil, registerValidationError(err)
	}

	exists, err := s.emailTaken(ctx, in.Email)
	if err != nil {
		return nil, serverError("Failed to register user", err)
	}
	if exists {
		return nil, conflictError("User already exists")
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, serverError("Failed to register user", err)
	}

	user := &models.User{
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: hash,
	}

	for attempt := 0; attempt < sharingCodeAttempts; attempt++ {
		code, taken, err := s.freshCode(ctx)
		if err != nil {
			return nil, serverError("Failed to register user", err)
		}
		if taken {
			continue
		}

		user.SharingCode = code
		createErr := s.DB.WithContext(ctx).Create(user).Error
		if createErr == nil {
			token, err := utils.GenerateToken(user.ID)
			if err != nil {
				return nil, serverError("Failed to issue token", err)
			}
			logger.InfoWithUser(user.ID.String(), "user_registered", map[string]interface{}{
				"email": user.Email,
			})
			return &AuthResult{User: user, Token: token}, nil
		}

		// A concurrent insert can win either unique index between check and create.
		user.ID = uuid.Nil
		if taken, err := s.emailTaken(ctx, in.Email); err == nil && taken {
			return nil, conflictError("User already exists")
		}
		if taken, err := s.codeTaken(ctx, code); err != nil || !taken {
			return nil, serverError("Failed to register user", createErr)
		}
	}

	return nil, serverError("Failed to allocate a sharing code", errors.New("sharing code attempts exhausted"))
}

func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, authError("Invalid email or password")
	}

	var user models.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("login_unknown_email", map[string]interface{}{"email": email})
			return nil, authError("Invalid email or password")
		}
		return nil, serverError("Failed to log in", err)
	}

	if !utils.CheckPassword(in.Password, user.PasswordHash) {
		logger.WarnWithUser(user.ID.String(), "login_bad_password", nil)
		return nil, authError("Invalid email or password")
	}

	token, err := utils.GenerateToken(user.ID)
	if err != nil {
		return nil, serverError("Failed to issue token", err)
	}
	return &AuthResult{User: &user, Token: token}, nil
}

// Authenticate maps a bearer token to the identity it was issued for.
// The user row is not consulted; handlers load it when they need it.
func (s *AuthService) Authenticate(token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, authError("Not authorized, no token")
	}
	claims, err := utils.ValidateToken(token)
	if err != nil {
		return uuid.Nil, authError("Not authorized, token failed")
	}
	return claims.UserID, nil
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	var user models.User
	err := s.DB.WithContext(ctx).First(&user, "id = ?", userID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("User not found")
		}
		return nil, serverError("Failed to load user", err)
	}
	return &user, nil
}

func (s *AuthService) FindBySharingCode(ctx context.Context, code string) (*models.User, error) {
	code = strings.TrimSpace(code)
	if !sharingCodePattern.MatchString(code) {
		return nil, notFoundError("User not found with this sharing code")
	}

	var user models.User
	err := s.DB.WithContext(ctx).Where("sharing_code = ?", code).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("User not found with this sharing code")
		}
		return nil, serverError("Failed to look up sharing code", err)
	}
	return &user, nil
}

// RegenerateSharingCode replaces the user's code in a single update; the old
// code stops resolving as soon as it commits.
func (s *AuthService) RegenerateSharingCode(ctx context.Context, userID uuid.UUID) (string, error) {
	if _, err := s.Profile(ctx, userID); err != nil {
		return "", err
	}

	for attempt := 0; attempt < sharingCodeAttempts; attempt++ {
		code, taken, err := s.freshCode(ctx)
		if err != nil {
			return "", serverError("Failed to regenerate sharing code", err)
		}
		if taken {
			continue
		}

		result := s.DB.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", userID).
			Update("sharing_code", code)
		if result.Error == nil {
			if result.RowsAffected == 0 {
				return "", notFoundError("User not found")
			}
			logger.InfoWithUser(userID.String(), "sharing_code_regenerated", nil)
			return code, nil
		}

		if taken, err := s.codeTaken(ctx, code); err != nil || !taken {
			return "", serverError("Failed to regenerate sharing code", result.Error)
		}
	}

	return "", serverError("Failed to allocate a sharing code", errors.New("sharing code attempts exhausted"))
}

func (s *AuthService) freshCode(ctx context.Context) (string, bool, error) {
	code, err := s.newCode()
	if err != nil {
		return "", false, err
	}
	taken, err := s.codeTaken(ctx, code)
	if err != nil {
		return "", false, err
	}
	return code, taken, nil
}

func (s *AuthService) codeTaken(ctx context.Context, code string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("sharing_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (s *AuthService) emailTaken(ctx context.Context, email string) (bool, error) {
	var count int64
	err := s.DB.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

func registerValidationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return validationError("Invalid user data")
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return validationError("Please add all fields")
		}
	}

	fe := fieldErrs[0]
	switch {
	case fe.Field() == "Email":
		return validationError("Please provide a valid email")
	case fe.Field() == "Password" && fe.Tag() == "min":
		return validationError("Password must be at least 6 characters")
	case fe.Field() == "Password" && fe.Tag() == "max":
		return validationError("Password must be at most 72 characters")
	default:
		return validationError(fmt.Sprintf("Invalid %s", strings.ToLower(fe.Field())))
	}
}
