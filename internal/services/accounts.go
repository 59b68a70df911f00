// Package services contains the business logic. This file implements
// AccountService, which owns registration, login, the emailed token flows,
// self-service profile changes and user administration.
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskhub/internal/auth"
	"taskhub/internal/common"
	"taskhub/internal/mailer"
	"taskhub/internal/models"
	"taskhub/internal/repositories/users"
)

const (
	msgRequired         = "This field is required."
	msgBlank            = "This field may not be blank."
	msgDuplicateEmail   = "A user with that email already exists."
	msgPasswordsDiffer  = "Passwords do not match."
	msgInvalidResetLink = "Invalid reset link."
)

// AccountConfig is the part of the process configuration the account flows need.
type AccountConfig struct {
	FrontendURL           string
	ReverifyOnEmailChange bool
}

type AccountService struct {
	users  users.Repository
	tokens *auth.TokenIssuer
	links  *auth.ResetTokenGenerator
	mail   mailer.Mailer
	log    logrus.FieldLogger
	cfg    AccountConfig
	now    func() time.Time
}

func NewAccountService(repo users.Repository, tokens *auth.TokenIssuer, links *auth.ResetTokenGenerator,
	mail mailer.Mailer, log logrus.FieldLogger, cfg AccountConfig) *AccountService {
	return &AccountService{
		users:  repo,
		tokens: tokens,
		links:  links,
		mail:   mail,
		log:    log,
		cfg:    cfg,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

type RegisterInput struct {
	Email     string  `json:"email"`
	FirstName string  `json:"first_name"`
	LastName  string  `json:"last_name"`
	Password  *string `json:"password"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type SetNewPasswordInput struct {
	UID             string `json:"uuid"`
	Token           string `json:"token"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

type ChangePasswordInput struct {
	OldPassword     string `json:"old_password"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

type ChangeEmailInput struct {
	Password string `json:"password"`
	NewEmail string `json:"new_email"`
}

// ProfileInput carries the name fields of a profile update. Nil means unchanged.
type ProfileInput struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
}

// AdminPatchInput is the partial update an administrator may apply to a user.
type AdminPatchInput struct {
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	IsActive  *bool   `json:"is_active"`
}

// Register creates an active, unverified account. A random password is
// generated when none is given.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	password := auth.GeneratePassword()
	if in.Password != nil {
		password = *in.Password
	}
	u, err := s.createUser(ctx, in, password, false)
	if err != nil {
		return nil, err
	}
	s.sendVerification(ctx, u)
	return u, nil
}

// CreateSuperuser creates an administrator account with the registration rules.
func (s *AccountService) CreateSuperuser(ctx context.Context, in RegisterInput) (*models.User, error) {
	if in.Password == nil {
		return nil, common.FieldError("password", msgRequired)
	}
	return s.createUser(ctx, in, *in.Password, true)
}

func (s *AccountService) createUser(ctx context.Context, in RegisterInput, password string, admin bool) (*models.User, error) {
	v := common.NewValidationError()

	email := auth.NormalizeEmail(in.Email)
	if msg := auth.ValidateEmail(email); msg != "" {
		v.Add("email", msg)
	}
	first := cleanName(v, "first_name", in.FirstName)
	last := cleanName(v, "last_name", in.LastName)

	if password == "" {
		v.Add("password", msgBlank)
	} else {
		for _, p := range auth.PasswordProblems(password, email, first, last) {
			v.Add("password", p)
		}
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		IsActive:     true,
		IsStaff:      admin,
		IsSuperuser:  admin,
		IsVerified:   admin,
		DateJoined:   s.now(),
	}
	created, err := s.users.Create(ctx, u)
	if err != nil {
		return nil, mapDuplicate(err, "email")
	}
	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Login checks the credentials and returns a token pair. Unknown email, wrong
// password and inactive account are indistinguishable to the caller.
func (s *AccountService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	v := common.NewValidationError()
	if strings.TrimSpace(email) == "" {
		v.Add("email", msgRequired)
	}
	if password == "" {
		v.Add("password", msgRequired)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}

	u, err := s.users.GetByEmail(ctx, auth.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAuthenticationFailed
		}
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash) || !u.IsActive {
		return nil, common.ErrAuthenticationFailed
	}

	now := s.now()
	u.LastLogin = &now
	if _, err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	pair, err := s.tokens.Issue(u)
	if err != nil {
		return nil, err
	}
	return &LoginResult{AccessToken: pair.Access, RefreshToken: pair.Refresh}, nil
}

// RefreshToken exchanges a valid refresh token for a new access token.
func (s *AccountService) RefreshToken(ctx context.Context, refresh string) (string, error) {
	if refresh == "" {
		return "", common.FieldError("refresh", msgRequired)
	}
	claims, err := s.tokens.Parse(refresh, auth.RefreshToken)
	if err != nil {
		return "", err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrUnauthorized
		}
		return "", err
	}
	if !u.IsActive {
		return "", common.ErrUnauthorized
	}
	return s.tokens.Access(u)
}

// RequestPasswordReset mails a reset link when email belongs to an account. It
// succeeds either way so that callers cannot probe for accounts.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) error {
	email = auth.NormalizeEmail(email)
	if msg := auth.ValidateEmail(email); msg != "" {
		return common.FieldError("email", msg)
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil
		}
		return err
	}

	link := s.link("/change-password", url.Values{
		"token": {s.links.MakeToken(u)},
		"uuid":  {auth.EncodeUID(u.ID)},
	})
	msg, err := mailer.PasswordReset(u.Email, u.FullName(), link)
	if err != nil {
		return err
	}
	if err := s.mail.Send(ctx, msg); err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("send password reset email")
	}
	return nil
}

// CheckToken reports whether the pair from a reset link is still usable.
func (s *AccountService) CheckToken(ctx context.Context, uidb64, token string) error {
	_, err := s.userFromLink(ctx, uidb64, token)
	return err
}

// ConfirmPasswordReset sets a new password from a reset link and reactivates
// the account.
func (s *AccountService) ConfirmPasswordReset(ctx context.Context, in SetNewPasswordInput) error {
	if in.Password == "" || in.ConfirmPassword == "" {
		v := common.NewValidationError()
		if in.Password == "" {
			v.Add("password", msgRequired)
		}
		if in.ConfirmPassword == "" {
			v.Add("confirm_password", msgRequired)
		}
		return v
	}
	if in.Password != in.ConfirmPassword {
		return common.FieldError(common.NonFieldErrors, msgPasswordsDiffer)
	}

	u, err := s.userFromLink(ctx, in.UID, in.Token)
	if errors.Is(err, common.ErrInvalidToken) {
		return common.FieldError(common.NonFieldErrors, msgInvalidResetLink).Wrap(err)
	}
	if err != nil {
		return err
	}
	if problems := auth.PasswordProblems(in.Password, u.Email, u.FirstName, u.LastName); len(problems) > 0 {
		v := common.NewValidationError()
		for _, p := range problems {
			v.Add("password", p)
		}
		return v
	}
	if auth.CheckPassword(in.Password, u.PasswordHash) {
		return common.FieldError(common.NonFieldErrors, "New password must be different from the old one.")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	u.IsActive = true
	if _, err := s.users.Update(ctx, u); err != nil {
		return err
	}
	s.log.WithField("user_id", u.ID).Info("password reset")
	return nil
}

// ChangePassword replaces the password of an authenticated user.
func (s *AccountService) ChangePassword(ctx context.Context, u *models.User, in ChangePasswordInput) error {
	if !auth.CheckPassword(in.OldPassword, u.PasswordHash) {
		return common.FieldError("old_password", "Incorrect old password.")
	}
	if in.NewPassword == in.OldPassword {
		return common.FieldError("new_password", "New password must be different.")
	}
	if in.NewPassword != in.ConfirmPassword {
		return common.FieldError("confirm_password", msgPasswordsDiffer)
	}
	if problems := auth.PasswordProblems(in.NewPassword, u.Email, u.FirstName, u.LastName); len(problems) > 0 {
		v := common.NewValidationError()
		for _, p := range problems {
			v.Add("new_password", p)
		}
		return v
	}

	hash, err := auth.HashPassword(in.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = hash
	_, err = s.users.Update(ctx, u)
	return err
}

// ChangeEmail moves an authenticated user to a new address. When
// re-verification is enabled the account goes back to unverified and a new
// confirmation mail is sent.
func (s *AccountService) ChangeEmail(ctx context.Context, u *models.User, in ChangeEmailInput) (*models.User, error) {
	if !auth.CheckPassword(in.Password, u.PasswordHash) {
		return nil, common.FieldError("password", "Incorrect password.")
	}
	email := auth.NormalizeEmail(in.NewEmail)
	if strings.EqualFold(email, u.Email) {
		return nil, common.FieldError("new_email", "New email must be different.")
	}
	if msg := auth.ValidateEmail(email); msg != "" {
		return nil, common.FieldError("new_email", msg)
	}
	taken, err := s.users.ExistsByEmail(ctx, email, u.ID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, common.FieldError("new_email", msgDuplicateEmail).Wrap(common.ErrDuplicateEmail)
	}

	u.Email = email
	if s.cfg.ReverifyOnEmailChange {
		u.IsVerified = false
	}
	updated, err := s.users.Update(ctx, u)
	if err != nil {
		return nil, mapDuplicate(err, "new_email")
	}
	if s.cfg.ReverifyOnEmailChange {
		s.sendVerification(ctx, updated)
	}
	return updated, nil
}

// VerifyEmail marks the account behind a confirmation link as verified.
func (s *AccountService) VerifyEmail(ctx context.Context, uidb64, token string) error {
	u, err := s.userFromLink(ctx, uidb64, token)
	if err != nil {
		return err
	}
	if u.IsVerified {
		return common.ErrAlreadyVerified
	}
	u.IsVerified = true
	_, err = s.users.Update(ctx, u)
	return err
}

// UpdateMe changes the names of the authenticated user.
func (s *AccountService) UpdateMe(ctx context.Context, u *models.User, in ProfileInput) (*models.User, error) {
	v := common.NewValidationError()
	if in.FirstName != nil {
		u.FirstName = cleanName(v, "first_name", *in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = cleanName(v, "last_name", *in.LastName)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return s.users.Update(ctx, u)
}

// ListUsers returns one page of users for an administrator.
func (s *AccountService) ListUsers(ctx context.Context, f users.Filter, page models.PageRequest) (models.Page[models.UserSummary], error) {
	if f.OrderBy != "" && !users.ValidOrderBy(f.OrderBy) {
		return models.Page[models.UserSummary]{}, common.FieldError("order_by",
			fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", f.OrderBy))
	}
	page = page.Normalize()
	list, total, err := s.users.List(ctx, f, page)
	if err != nil {
		return models.Page[models.UserSummary]{}, err
	}
	out := make([]models.UserSummary, 0, len(list))
	for i := range list {
		out = append(out, list[i].Summary())
	}
	return models.NewPage(out, total, page), nil
}

func (s *AccountService) GetUser(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrNotFound
	}
	return s.users.GetByID(ctx, id)
}

// UpdateUser replaces the names of a user. Both names are required.
func (s *AccountService) UpdateUser(ctx context.Context, id string, in ProfileInput) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	v := common.NewValidationError()
	if in.FirstName == nil {
		v.Add("first_name", msgRequired)
	} else {
		u.FirstName = cleanName(v, "first_name", *in.FirstName)
	}
	if in.LastName == nil {
		v.Add("last_name", msgRequired)
	} else {
		u.LastName = cleanName(v, "last_name", *in.LastName)
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	return s.users.Update(ctx, u)
}

// PartialUpdateUser applies only the supplied fields.
func (s *AccountService) PartialUpdateUser(ctx context.Context, id string, in AdminPatchInput) (*models.User, error) {
	u, err := s.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}
	v := common.NewValidationError()
	if in.Email != nil {
		email := auth.NormalizeEmail(*in.Email)
		if msg := auth.ValidateEmail(email); msg != "" {
			v.Add("email", msg)
		} else if !strings.EqualFold(email, u.Email) {
			taken, err := s.users.ExistsByEmail(ctx, email, u.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, common.FieldError("email", msgDuplicateEmail).Wrap(common.ErrDuplicateEmail)
			}
		}
		u.Email = email
	}
	if in.FirstName != nil {
		u.FirstName = cleanName(v, "first_name", *in.FirstName)
	}
	if in.LastName != nil {
		u.LastName = cleanName(v, "last_name", *in.LastName)
	}
	if in.IsActive != nil {
		u.IsActive = *in.IsActive
	}
	if err := v.OrNil(); err != nil {
		return nil, err
	}
	updated, err := s.users.Update(ctx, u)
	if err != nil {
		return nil, mapDuplicate(err, "email")
	}
	return updated, nil
}

// DeleteUser removes a user. Their tasks stay behind without an owner.
func (s *AccountService) DeleteUser(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrNotFound
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("user deleted")
	return nil
}

// Authenticate resolves a Bearer access token to an active user.
func (s *AccountService) Authenticate(ctx context.Context, access string) (*models.User, error) {
	claims, err := s.tokens.Parse(access, auth.AccessToken)
	if err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthorized
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, common.ErrUnauthorized
	}
	return u, nil
}

// userFromLink decodes an emailed uid/token pair. Every failure collapses into
// common.ErrInvalidToken.
func (s *AccountService) userFromLink(ctx context.Context, uidb64, token string) (*models.User, error) {
	id, err := auth.DecodeUID(uidb64)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrInvalidToken
	}
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, err
	}
	if !s.links.CheckToken(u, token) {
		return nil, common.ErrInvalidToken
	}
	return u, nil
}

func (s *AccountService) sendVerification(ctx context.Context, u *models.User) {
	link := s.link("/validate-mail", url.Values{
		"uidb64": {auth.EncodeUID(u.ID)},
		"token":  {s.links.MakeToken(u)},
	})
	msg, err := mailer.Verification(u.Email, u.FullName(), link)
	if err == nil {
		err = s.mail.Send(ctx, msg)
	}
	if err != nil {
		s.log.WithError(err).WithField("user_id", u.ID).Error("send verification email")
	}
}

func (s *AccountService) link(path string, q url.Values) string {
	return s.cfg.FrontendURL + path + "?" + q.Encode()
}

func cleanName(v *common.ValidationError, field, raw string) string {
	name := auth.NormalizeName(raw)
	switch {
	case name == "":
		v.Add(field, msgBlank)
	case utf8.RuneCountInString(name) > auth.MaxNameLength:
		v.Add(field, fmt.Sprintf("Ensure this field has no more than %d characters.", auth.MaxNameLength))
	}
	return name
}

func mapDuplicate(err error, field string) error {
	if errors.Is(err, common.ErrDuplicateEmail) {
		return common.FieldError(field, msgDuplicateEmail).Wrap(common.ErrDuplicateEmail)
	}
	return err
}
