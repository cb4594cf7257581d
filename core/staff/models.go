package staff

import (
	"context"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/chuolink/shule/core"
)

// Roles
const (
	// Administration
	RoleAdmin     = "admin:"
	RoleOwner     = "admin:owner"
	RolePrincipal = "admin:principal"
	RoleIT        = "admin:it"

	// Program coordinators
	RoleCoordinator = "coordinator:"

	// Front desk
	RoleReceptionist = "receptionist:"
)

var (
	AdminRoles        = []string{RoleAdmin, RoleOwner, RolePrincipal, RoleIT}
	CoordinatorRoles  = []string{RoleCoordinator}
	ReceptionistRoles = []string{RoleReceptionist}
	AllRoles          = getAllRoles()

	rolePriorities = map[string]int{
		// Administration: 30 - 21
		RoleOwner:     30,
		RolePrincipal: 29,
		RoleIT:        25,
		RoleAdmin:     21,

		// Coordinators: 20 - 11
		RoleCoordinator: 11,

		// Front desk: 10 - 1
		RoleReceptionist: 1,
	}

	Roles = []Role{
		{Name: "Receptionist", Value: RoleReceptionist},
		{Name: "Coordinator", Value: RoleCoordinator},
		{Name: "Admin", Value: RoleAdmin},
		{Name: "IT Admin", Value: RoleIT},
		{Name: "Principal", Value: RolePrincipal},
		{Name: "Owner", Value: RoleOwner},
	}
)

func getAllRoles() []string {
	all := make([]string, 0, 6)
	all = append(all, AdminRoles...)
	all = append(all, CoordinatorRoles...)
	all = append(all, ReceptionistRoles...)
	return all
}

func RolePriority(role string) int {
	return rolePriorities[role]
}

func MaxRolePriority(roles []string) int {
	var max int
	for _, role := range roles {
		if RolePriority(role) > max {
			max = RolePriority(role)
		}
	}
	return max
}

type Role struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type Staff struct {
	ID           string    `json:"id" bson:"_id,omitempty"`
	Name         string    `json:"name" bson:"name"`
	Username     string    `json:"username" bson:"username"`
	Email        string    `json:"email" bson:"email"`
	IsActive     bool      `json:"is_active" bson:"isActive"`
	Roles        []string  `json:"roles" bson:"roles"`
	PasswordHash []byte    `json:"-" bson:"passwordHash"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updated_at" bson:"updatedAt"` // UTC
	LastLogin    time.Time `json:"last_login" bson:"lastLogin"` // UTC
}

func (s *Staff) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	s.PasswordHash = hash
	return nil
}

func (s *Staff) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(s.PasswordHash, []byte(pwd))
}

func (s *Staff) RoleStartsWith(prefix string) bool {
	for _, role := range s.Roles {
		if strings.HasPrefix(role, prefix) {
			return true
		}
	}
	return false
}

func (s *Staff) IsAdmin() bool {
	return s.RoleStartsWith(RoleAdmin)
}

func (s *Staff) IsCoordinator() bool {
	return s.RoleStartsWith(RoleCoordinator)
}

func (s *Staff) IsReceptionist() bool {
	return s.RoleStartsWith(RoleReceptionist)
}

// HasRole reports an exact role match.
func (s *Staff) HasRole(role string) bool {
	for _, r := range s.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// NewStaff contains information needed to create a new Staff account.
type NewStaff struct {
	Name            string   `json:"name" validate:"required"`
	Username        string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	Password        string   `json:"password" validate:"required"`
	PasswordConfirm string   `json:"password_confirm" validate:"required,eqfield=Password"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
}

func (ns *NewStaff) Validate(ctx context.Context, svc Service) error {
	ns.Name = core.CleanString(ns.Name)
	ns.Username = core.CleanString(ns.Username, true /* lower */)
	ns.Email = core.CleanString(ns.Email, true /* lower */)

	if err := core.Validate.Struct(ns); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, ns.Username, ns.Email)
}

// UpdateStaff defines what information may be provided to modify an existing Staff account.
type UpdateStaff struct {
	Name            string   `json:"name"`
	Username        string   `json:"username" validate:"omitempty,min=6,alphanum_"`
	Email           string   `json:"email" validate:"omitempty,email"`
	IsActive        *bool    `json:"is_active"`
	Roles           []string `json:"roles" validate:"omitempty,allroles"`
	Password        string   `json:"password" validate:"omitempty"`
	PasswordConfirm string   `json:"password_confirm" validate:"required_with=Password,eqfield=Password"`
}

func (us *UpdateStaff) Validate(ctx context.Context, orig Staff, svc Service) error {
	name := core.CleanString(us.Name)
	if name != "" {
		us.Name = name
	} else {
		us.Name = orig.Name
	}

	uname := core.CleanString(us.Username, true /* lower */)
	if uname != "" {
		us.Username = uname
	} else {
		us.Username = orig.Username
	}

	email := core.CleanString(us.Email, true /* lower */)
	if email != "" {
		us.Email = email
	} else {
		us.Email = orig.Email
	}

	if err := core.Validate.Struct(us); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, us.Username, us.Email, orig)
}

type ResetStaffPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetStaffPassword) Validate() error { return core.Validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}
