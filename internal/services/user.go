package services

import (
	"context"
	"errors"
	"net/mail"
	"regintel/internal/models"
	"regintel/internal/utils"
	"strings"
	"time"

	"gorm.io/gorm"
)

var ErrEmailTaken = errors.New("email already registered")

const minPasswordLength = 8

type UserService struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewUserService(db *gorm.DB, timeout time.Duration) *UserService {
	return &UserService{db: db, timeout: timeout}
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, storageErr("load user", err)
	}
	return &user, nil
}

// Register creates a password account with the default "user" role.
func (s *UserService) Register(ctx context.Context, email, password, displayName string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidArg("malformed email")
	}
	if len(password) < minPasswordLength {
		return nil, invalidArg("password shorter than %d characters", minPasswordLength)
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		displayName = strings.Split(email, "@")[0]
	}

	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()
	tx := s.db.WithContext(ctx)

	var n int64
	if err := tx.Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return nil, storageErr("check email", err)
	}
	if n > 0 {
		return nil, ErrEmailTaken
	}

	user := models.User{
		DisplayName: displayName,
		Email:       email,
		Password:    hash,
		Role:        models.RoleUser,
	}
	if err := tx.Create(&user).Error; err != nil {
		return nil, storageErr("create user", err)
	}
	return &user, nil
}

// Authenticate checks an email/password pair. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User
	err := s.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUnauthenticated
	}
	if err != nil {
		return nil, storageErr("load user", err)
	}
	if !utils.CheckPasswordHash(password, user.Password) {
		return nil, ErrUnauthenticated
	}
	return &user, nil
}

// UpsertGoogleUser finds the account bound to googleID, or by email, binding
// the Google id on first sign-in; unknown identities get a new account.
func (s *UserService) UpsertGoogleUser(ctx context.Context, googleID, email, name, avatar string) (*models.User, error) {
	if googleID == "" || email == "" {
		return nil, invalidArg("incomplete google profile")
	}
	email = strings.ToLower(email)

	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var user models.User
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("google_id = ?", googleID).Or("email = ?", email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if name == "" {
				name = strings.Split(email, "@")[0]
			}
			user = models.User{
				DisplayName: name,
				Email:       email,
				Avatar:      avatar,
				Role:        models.RoleUser,
				GoogleID:    googleID,
			}
			return tx.Create(&user).Error
		}
		if err != nil {
			return err
		}
		if user.GoogleID == "" {
			user.GoogleID = googleID
			return tx.Model(&user).Update("google_id", googleID).Error
		}
		return nil
	})
	if err != nil {
		return nil, storageErr("upsert google user", err)
	}
	return &user, nil
}
