package staff

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/chuolink/shule/core"
)

var (
	// errors
	ErrNotFound       = errors.New("staff member not found")
	ErrEmailExists    = errors.New("a staff member with this email already exists")
	ErrUsernameExists = errors.New("a staff member with this username already exists")
)

type (
	Repository interface {
		CheckUsernameUniqueness(ctx context.Context, username, email string, excluded ...Staff) error
		CreateStaff(ctx context.Context, stf Staff) (Staff, error)
		QueryAllStaff(ctx context.Context) ([]Staff, error)
		GetStaffByID(ctx context.Context, id string) (Staff, error)
		GetStaffByUsername(ctx context.Context, username string) (Staff, error)
		GetStaffByEmail(ctx context.Context, email string) (Staff, error)
		GetStaffByUsernameOrEmail(ctx context.Context, username string) (Staff, error)
		// FilterStaff applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Staff.Name, Staff.Username or Staff.Email.
		FilterStaff(ctx context.Context, filter QueryFilter) ([]Staff, error)
		UpdateStaff(ctx context.Context, stf Staff, isActive *bool) (Staff, error)
		DeleteStaffByID(ctx context.Context, ids ...string) error
		CountStaff(ctx context.Context) (int64, error)
		CountStaffByRole(ctx context.Context) (map[string]int64, error)
	}

	Service interface {
		CheckUniqueness(ctx context.Context, uname, email string, excluded ...Staff) error
		Create(ctx context.Context, ns NewStaff) (Staff, error)
		QueryAll(ctx context.Context) ([]Staff, error)
		GetByID(ctx context.Context, id string) (Staff, error)
		GetByUsername(ctx context.Context, uname string) (Staff, error)
		GetByEmail(ctx context.Context, email string) (Staff, error)
		GetByUsernameOrEmail(ctx context.Context, uname string) (Staff, error)
		Filter(ctx context.Context, filter QueryFilter) ([]Staff, error)
		Update(ctx context.Context, id string, us UpdateStaff) (Staff, error)
		Delete(ctx context.Context, ids ...string) error
		SetLastLogin(ctx context.Context, stf Staff) (Staff, error)
		RequestPasswordReset(ctx context.Context, email string) error
		ResetPassword(ctx context.Context, rp ResetStaffPassword) error
	}

	service struct {
		repo    Repository
		mailSvc core.EmailService
	}
)

var _ Service = (*service)(nil)

func NewService(repo Repository, mailSvc core.EmailService) Service {
	return &service{repo: repo, mailSvc: mailSvc}
}

func (svc *service) CheckUniqueness(ctx context.Context, uname, email string, excluded ...Staff) error {
	if err := svc.repo.CheckUsernameUniqueness(ctx, uname, email, excluded...); err != nil {
		var field string
		switch err {
		case ErrUsernameExists:
			field = "username"
		case ErrEmailExists:
			field = "email"
		default:
			return err
		}
		return core.NewValidationError(err, core.FieldError{Field: field, Error: err.Error()})
	}
	return nil
}

func (svc *service) Create(ctx context.Context, ns NewStaff) (Staff, error) {
	now := time.Now().UTC()
	stf := Staff{
		Name:      ns.Name,
		Username:  ns.Username,
		Email:     ns.Email,
		IsActive:  true,
		Roles:     ns.Roles,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := stf.SetPassword(ns.Password); err != nil {
		return Staff{}, err
	}
	return svc.repo.CreateStaff(ctx, stf)
}

func (svc *service) QueryAll(ctx context.Context) ([]Staff, error) {
	return svc.repo.QueryAllStaff(ctx)
}

func (svc *service) GetByID(ctx context.Context, id string) (Staff, error) {
	return svc.repo.GetStaffByID(ctx, id)
}

func (svc *service) GetByUsername(ctx context.Context, uname string) (Staff, error) {
	return svc.repo.GetStaffByUsername(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) GetByEmail(ctx context.Context, email string) (Staff, error) {
	return svc.repo.GetStaffByEmail(ctx, core.CleanString(email, true /* lower */))
}

func (svc *service) GetByUsernameOrEmail(ctx context.Context, uname string) (Staff, error) {
	return svc.repo.GetStaffByUsernameOrEmail(ctx, core.CleanString(uname, true /* lower */))
}

func (svc *service) Filter(ctx context.Context, filter QueryFilter) ([]Staff, error) {
	return svc.repo.FilterStaff(ctx, filter)
}

func (svc *service) Update(ctx context.Context, id string, us UpdateStaff) (Staff, error) {
	stf := Staff{
		ID:        id,
		Name:      us.Name,
		Username:  us.Username,
		Email:     us.Email,
		Roles:     us.Roles,
		UpdatedAt: time.Now().UTC(),
	}
	if us.Password != "" {
		if err := stf.SetPassword(us.Password); err != nil {
			return Staff{}, err
		}
	}
	return svc.repo.UpdateStaff(ctx, stf, us.IsActive)
}

func (svc *service) Delete(ctx context.Context, ids ...string) error {
	return svc.repo.DeleteStaffByID(ctx, ids...)
}

func (svc *service) SetLastLogin(ctx context.Context, stf Staff) (Staff, error) {
	stf.LastLogin = time.Now().UTC()
	return svc.repo.UpdateStaff(ctx, stf, nil)
}

func (svc *service) RequestPasswordReset(ctx context.Context, email string) error {
	stf, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	go svc.sendPasswordResetMail(stf)
	return nil
}

func (svc *service) sendPasswordResetMail(stf Staff) {
	token, err := MakeToken(stf)
	if err != nil {
		return
	}
	url := fmt.Sprintf("%s/password-reset/%s/%s", core.Conf.FrontendBaseURL, EncodeUID(stf), token)
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: stf.Name, Address: stf.Email}},
		Subject: "Password Reset",
		Body: fmt.Sprintf(
			"Hi %s,\n\nYou requested a password reset for your %s account.\n"+
				"Follow the link below to set a new password:\n\n%s\n\n"+
				"If you did not request this, you can safely ignore this email.",
			stf.Name, core.Conf.AppName, url,
		),
	})
}

func (svc *service) ResetPassword(ctx context.Context, rp ResetStaffPassword) error {
	id, err := decodeUID(rp.UID)
	if err != nil {
		return core.NewValidationError(errors.New("invalid uid"))
	}
	stf, err := svc.repo.GetStaffByID(ctx, id)
	if err != nil {
		return err
	}
	if err := verifyToken(stf, rp.Token); err != nil {
		return core.NewValidationError(err)
	}
	if err := stf.SetPassword(rp.Password); err != nil {
		return err
	}
	stf.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateStaff(ctx, stf, nil)
	return err
}
