package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/internal/domain/entity"
	repo "github.com/oksasatya/skyport/internal/domain/repository"
	"github.com/oksasatya/skyport/pkg/helpers"
	"github.com/oksasatya/skyport/pkg/validation"
)

// Notifier delivers the confirmation link to a freshly registered address.
type Notifier interface {
	SendConfirmation(ctx context.Context, to, link string) error
}

// AccountService drives registration, email confirmation and login.
type AccountService struct {
	Users       repo.UserRepository
	Tokens      *helpers.ConfirmTokenCodec
	Notifier    Notifier
	Index       SearchIndex
	Logger      *logrus.Logger
	BaseURL     string
	MailTimeout time.Duration

	validate *validator.Validate
}

func NewAccountService(users repo.UserRepository, tokens *helpers.ConfirmTokenCodec, notifier Notifier, index SearchIndex, logger *logrus.Logger, baseURL string, mailTimeout time.Duration) *AccountService {
	return &AccountService{
		Users:       users,
		Tokens:      tokens,
		Notifier:    notifier,
		Index:       index,
		Logger:      logger,
		BaseURL:     strings.TrimRight(baseURL, "/"),
		MailTimeout: mailTimeout,
		validate:    validation.New(),
	}
}

// RegisterInput mirrors the registration form. Field order is the order
// errors are reported in.
type RegisterInput struct {
	Username        string `form:"username" validate:"required,min=1,max=40"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

type RegisterResult struct {
	User      *entity.User
	EmailSent bool
}

// Register creates an unconfirmed account and mails its confirmation link.
// A failed send is logged and reported through EmailSent; the account stays.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))

	if err := checkForm(s.validate, in); err != nil {
		return nil, err
	}
	if len(in.Password) > helpers.MaxPasswordBytes {
		return nil, &ValidationError{Field: "password", Message: fmt.Sprintf("Password must be at most %d bytes long.", helpers.MaxPasswordBytes)}
	}

	if _, err := s.Users.GetByUsername(ctx, in.Username); err == nil {
		return nil, repo.ErrDuplicateUsername
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if _, err := s.Users.GetByEmail(ctx, in.Email); err == nil {
		return nil, repo.ErrDuplicateEmail
	} else if !errors.Is(err, repo.ErrNotFound) {
		return nil, fmt.Errorf("lookup email: %w", err)
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &entity.User{Username: in.Username, Email: in.Email, PasswordHash: hash}
	// the store re-checks both keys; a concurrent registration loses here
	if err := s.Users.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	registrations.Add(1)
	s.Logger.WithFields(logrus.Fields{"user_id": u.ID, "username": u.Username}).Info("user registered")

	if s.Index != nil {
		if err := s.Index.IndexUser(ctx, *u); err != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID).Warn("index user failed")
		}
	}

	sendErr := s.sendConfirmation(ctx, u.Email)
	return &RegisterResult{User: u, EmailSent: sendErr == nil}, nil
}

// ConfirmEmail marks the token's account as confirmed. Replaying a token for
// an already confirmed account succeeds without changing it.
func (s *AccountService) ConfirmEmail(ctx context.Context, token string) (*entity.User, error) {
	email, err := s.Tokens.Decode(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	u, err := s.Users.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		s.Logger.WithField("email", email).Warn("valid confirmation token for unknown account")
		return nil, ErrUnknownConfirmation
	}
	if err != nil {
		return nil, fmt.Errorf("lookup email: %w", err)
	}
	if u.Confirmed {
		return u, nil
	}

	if err := s.Users.SetConfirmed(ctx, u.ID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUnknownConfirmation
		}
		return nil, fmt.Errorf("confirm user: %w", err)
	}
	confirmations.Add(1)
	s.Logger.WithField("user_id", u.ID).Info("email confirmed")

	now := time.Now().UTC()
	u.Confirmed = true
	u.ConfirmedAt = &now
	return u, nil
}

// Login checks credentials. Unknown usernames and wrong passwords return the
// same error after the same amount of bcrypt work.
func (s *AccountService) Login(ctx context.Context, username, password string) (*entity.User, error) {
	u, err := s.Users.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, repo.ErrNotFound) {
		helpers.CompareDummyPassword(password)
		loginFailures.Add(1)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("lookup username: %w", err)
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash, password) {
		loginFailures.Add(1)
		return nil, ErrInvalidCredentials
	}
	logins.Add(1)
	return u, nil
}

// ResendConfirmation mails a fresh link to an unconfirmed account.
func (s *AccountService) ResendConfirmation(ctx context.Context, u *entity.User) error {
	if u == nil {
		return ErrInvalidCredentials
	}
	current, err := s.Users.GetByUsername(ctx, u.Username)
	if err != nil {
		return fmt.Errorf("lookup username: %w", err)
	}
	if current.Confirmed {
		return ErrAlreadyConfirmed
	}
	return s.sendConfirmation(ctx, current.Email)
}

// ConfirmLink is the absolute URL mailed to the user.
func (s *AccountService) ConfirmLink(token string) string {
	return s.BaseURL + "/confirm_email/" + token
}

func (s *AccountService) sendConfirmation(ctx context.Context, email string) error {
	token, err := s.Tokens.Encode(email)
	if err != nil {
		return fmt.Errorf("encode confirmation token: %w", err)
	}

	if s.MailTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.MailTimeout)
		defer cancel()
	}
	if err := s.Notifier.SendConfirmation(ctx, email, s.ConfirmLink(token)); err != nil {
		emailFailures.Add(1)
		derr := &DeliveryError{To: email, Err: err}
		s.Logger.WithError(derr).Warn("confirmation email not sent")
		return derr
	}
	return nil
}

// checkForm validates a form struct and reports its first failing field.
func checkForm(v *validator.Validate, form any) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	if fe := validation.First(err); fe != nil {
		return &ValidationError{Field: fe.Field, Message: fe.Message}
	}
	return fmt.Errorf("validate form: %w", err)
}
