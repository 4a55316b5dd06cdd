package user

import (
	"context"
	"net/mail"

	"github.com/pkg/errors"

	"github.com/eduenglish/backend/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("User not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("Invalid email or password")
	ErrAccountDeactivated = errors.New("Account has been deactivated")
	ErrAdminProtected     = core.NewPermissionError("Admin accounts cannot be modified")

	errInvalidValue = "invalid value"
)

type (
	Repository interface {
		// CreateUser returns ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		GetUserByID(ctx context.Context, id string) (User, error)
		GetUserByEmail(ctx context.Context, email string) (User, error)
		// FilterUsers returns the matching users, newest first. A nil page returns them all.
		FilterUsers(ctx context.Context, filter QueryFilter, page *core.Pagination) ([]User, error)
		CountUsers(ctx context.Context, filter QueryFilter) (int64, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUsers(ctx context.Context, filter QueryFilter) (int64, error)
	}

	// Cache keeps users looked up by ID on every authenticated request.
	Cache interface {
		GetUser(ctx context.Context, id string) (User, bool)
		SetUser(ctx context.Context, usr User)
		DeleteUser(ctx context.Context, id string)
	}

	Service interface {
		Register(ctx context.Context, nu NewUser) (User, error)
		Create(ctx context.Context, nu NewUser, role string, isActive bool) (User, error)
		Authenticate(ctx context.Context, email, pwd string) (User, error)
		GetByID(ctx context.Context, id string) (User, error)
		// Lookup is GetByID going through the Cache.
		Lookup(ctx context.Context, id string) (User, error)
		GetByEmail(ctx context.Context, email string) (User, error)
		Query(ctx context.Context, filter QueryFilter, page core.Pagination) (Page, error)
		Filter(ctx context.Context, filter QueryFilter, page *core.Pagination) ([]User, error)
		Count(ctx context.Context, filter QueryFilter) (int64, error)
		Update(ctx context.Context, usr User) (User, error)
		ToggleStatus(ctx context.Context, id string) (User, error)
		Deactivate(ctx context.Context, id string) (User, error)
		Delete(ctx context.Context, filter QueryFilter) (int64, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, data ResetUserPassword) error
	}

	service struct {
		repo     Repository
		mailSvc  core.EmailService
		cache    Cache
		tokenGen *TokenGenerator
	}
)

var _ Service = (*service)(nil)

// NewService returns the user Service; cache may be nil.
func NewService(repo Repository, mailSvc core.EmailService, conf *core.Config, cache Cache) Service {
	return &service{
		repo:     repo,
		mailSvc:  mailSvc,
		cache:    cache,
		tokenGen: NewTokenGenerator(conf),
	}
}

func (svc *service) Register(ctx context.Context, nu NewUser) (User, error) {
	return svc.Create(ctx, nu, RoleUser, true)
}

func (svc *service) Create(ctx context.Context, nu NewUser, role string, isActive bool) (User, error) {
	now := core.Now()
	usr := User{
		Username:  core.CleanString(nu.Username),
		Email:     core.CleanString(nu.Email, true /* lower */),
		Role:      role,
		IsActive:  isActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if usr.Role == "" {
		usr.Role = RoleUser
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return User{}, core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (svc *service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrAccountDeactivated
	}

	now := core.Now()
	usr.LastLogin = &now
	usr, err = svc.Update(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "setting lastLogin")
	}
	return usr, nil
}

func (svc *service) GetByID(ctx context.Context, id string) (User, error) {
	if !core.IsValidID(id) {
		return User{}, ErrNotFound
	}
	return svc.repo.GetUserByID(ctx, id)
}

func (svc *service) Lookup(ctx context.Context, id string) (User, error) {
	if svc.cache != nil {
		if usr, ok := svc.cache.GetUser(ctx, id); ok {
			return usr, nil
		}
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if svc.cache != nil {
		svc.cache.SetUser(ctx, usr)
	}
	return usr, nil
}

func (svc *service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUserByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) Query(ctx context.Context, filter QueryFilter, page core.Pagination) (Page, error) {
	filter.Clean()
	filter.ExcludeAdmins = true
	page.Clean()

	users, err := svc.repo.FilterUsers(ctx, filter, &page)
	if err != nil {
		return Page{}, errors.Wrap(err, "filtering users")
	}
	total, err := svc.repo.CountUsers(ctx, filter)
	if err != nil {
		return Page{}, errors.Wrap(err, "counting users")
	}

	var stats Stats
	learners := QueryFilter{Role: RoleUser, Status: StatusAll}
	if stats.Total, err = svc.repo.CountUsers(ctx, learners); err != nil {
		return Page{}, errors.Wrap(err, "counting learners")
	}
	learners.Status = StatusActive
	if stats.Active, err = svc.repo.CountUsers(ctx, learners); err != nil {
		return Page{}, errors.Wrap(err, "counting active learners")
	}
	learners.Status = StatusInactive
	if stats.Inactive, err = svc.repo.CountUsers(ctx, learners); err != nil {
		return Page{}, errors.Wrap(err, "counting inactive learners")
	}

	if users == nil {
		users = []User{}
	}
	return Page{
		Users: users,
		Pagination: PageInfo{
			CurrentPage:  page.Page,
			TotalPages:   page.TotalPages(total),
			TotalItems:   total,
			ItemsPerPage: page.Limit,
		},
		Stats: stats,
	}, nil
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter, page *core.Pagination) ([]User, error) {
	return svc.repo.FilterUsers(ctx, filter, page)
}

func (svc *service) Count(ctx context.Context, filter QueryFilter) (int64, error) {
	return svc.repo.CountUsers(ctx, filter)
}

func (svc *service) Update(ctx context.Context, usr User) (User, error) {
	usr.UpdatedAt = core.Now()
	usr, err := svc.repo.UpdateUser(ctx, usr)
	if err != nil {
		return User{}, err
	}
	svc.invalidate(ctx, usr.ID)
	return usr, nil
}

func (svc *service) ToggleStatus(ctx context.Context, id string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.IsAdmin() {
		return User{}, ErrAdminProtected
	}
	usr.IsActive = !usr.IsActive
	return svc.Update(ctx, usr)
}

func (svc *service) Deactivate(ctx context.Context, id string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	if usr.IsAdmin() {
		return User{}, ErrAdminProtected
	}
	usr.IsActive = false
	return svc.Update(ctx, usr)
}

func (svc *service) Delete(ctx context.Context, filter QueryFilter) (int64, error) {
	users, err := svc.repo.FilterUsers(ctx, filter, nil)
	if err != nil {
		return 0, errors.Wrap(err, "filtering users")
	}
	n, err := svc.repo.DeleteUsers(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "deleting users")
	}
	for _, usr := range users {
		svc.invalidate(ctx, usr.ID)
	}
	return n, nil
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !usr.IsActive {
		return ErrNotFound
	}
	token, err := svc.tokenGen.MakeToken(usr)
	if err != nil {
		return errors.Wrap(err, "making password reset token")
	}

	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Username, Address: usr.Email}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]interface{}{
			"Username": usr.Username,
			"UID":      EncodeUID(usr),
			"Token":    token,
		},
	})
	return nil
}

func (svc *service) ResetPassword(ctx context.Context, data ResetUserPassword) error {
	invalidUID := core.NewValidationError(nil, core.FieldError{Field: "uid", Error: errInvalidValue})

	id, err := decodeUID(data.UID)
	if err != nil {
		return invalidUID
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return invalidUID
		}
		return errors.Wrap(err, "finding user by ID")
	}
	if err = svc.tokenGen.VerifyToken(usr, data.Token); err != nil {
		return core.NewValidationError(nil, core.FieldError{Field: "token", Error: errInvalidValue})
	}

	if err = usr.SetPassword(data.Password); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	if _, err = svc.Update(ctx, usr); err != nil {
		return errors.Wrap(err, "updating user")
	}
	return nil
}

func (svc *service) invalidate(ctx context.Context, id string) {
	if svc.cache != nil {
		svc.cache.DeleteUser(ctx, id)
	}
}
