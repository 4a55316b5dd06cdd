package user

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/eduenglish/backend/core"
)

// Roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Status filters
const (
	StatusAll      = "all"
	StatusActive   = "active"
	StatusInactive = "inactive"
)

var AllRoles = []string{RoleUser, RoleAdmin}

type User struct {
	ID           string     `json:"_id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"isActive"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"createdAt"`           // UTC
	UpdatedAt    time.Time  `json:"updatedAt"`           // UTC
	LastLogin    *time.Time `json:"lastLogin,omitempty"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewUser contains information needed to register a new User.
type NewUser struct {
	Username string `json:"username" validate:"required,notblank,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Username = core.CleanString(nu.Username)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	return validate.Struct(nu)
}

// LoginUser holds login credentials.
type LoginUser struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (lu *LoginUser) Validate(validate *validator.Validate) error {
	lu.Email = core.CleanString(lu.Email, true /* lower */)
	return validate.Struct(lu)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"passwordConfirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp *ResetUserPassword) Validate(validate *validator.Validate) error {
	return validate.Struct(rp)
}

// QueryFilter selects users; all set fields are ANDed.
type QueryFilter struct {
	Search        string    `query:"search"` // case-insensitive match on Username or Email
	Status        string    `query:"status"` // all | active | inactive
	Role          string    `query:"-"`
	ExcludeAdmins bool      `query:"-"`
	EmailSuffix   string    `query:"-"`
	CreatedFrom   time.Time `query:"-"`
	CreatedTo     time.Time `query:"-"` // exclusive
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
	if qf.Status != StatusActive && qf.Status != StatusInactive {
		qf.Status = StatusAll
	}
}

// Match reports whether usr satisfies the filter.
func (qf QueryFilter) Match(usr User) bool {
	if qf.Search != "" {
		search := strings.ToLower(qf.Search)
		if !(strings.Contains(strings.ToLower(usr.Username), search) || strings.Contains(usr.Email, search)) {
			return false
		}
	}
	switch qf.Status {
	case StatusActive:
		if !usr.IsActive {
			return false
		}
	case StatusInactive:
		if usr.IsActive {
			return false
		}
	}
	if qf.Role != "" && usr.Role != qf.Role {
		return false
	}
	if qf.ExcludeAdmins && usr.IsAdmin() {
		return false
	}
	if qf.EmailSuffix != "" && !strings.HasSuffix(usr.Email, qf.EmailSuffix) {
		return false
	}
	if !qf.CreatedFrom.IsZero() && usr.CreatedAt.Before(qf.CreatedFrom) {
		return false
	}
	if !qf.CreatedTo.IsZero() && !usr.CreatedAt.Before(qf.CreatedTo) {
		return false
	}
	return true
}

type (
	Stats struct {
		Total    int64 `json:"total"`
		Active   int64 `json:"active"`
		Inactive int64 `json:"inactive"`
	}

	PageInfo struct {
		CurrentPage  int   `json:"currentPage"`
		TotalPages   int64 `json:"totalPages"`
		TotalItems   int64 `json:"totalItems"`
		ItemsPerPage int   `json:"itemsPerPage"`
	}

	// Page is one page of the admin user listing.
	Page struct {
		Users      []User   `json:"users"`
		Pagination PageInfo `json:"pagination"`
		Stats      Stats    `json:"stats"`
	}
)
