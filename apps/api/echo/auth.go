package echoapi

import (
	"sort"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/chuolink/shule/core"
	"github.com/chuolink/shule/core/staff"
)

var (
	// appJWTConfig is the default JWT auth middleware config.
	appJWTConfig = middleware.JWTConfig{
		SigningKey:    []byte(core.Conf.SecretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    "staffToken",
		Claims:        new(Claims),
	}
	contextStaffKey = "staff"
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	OrigIssuedAt   int64    `json:"oriat,omitempty"`
	Username       string   `json:"username,omitempty"`
	Email          string   `json:"email,omitempty"`
	IsAdmin        bool     `json:"is_admin,omitempty"`        // -> ADMIN DASHBOARD
	IsCoordinator  bool     `json:"is_coordinator,omitempty"`  // -> COORDINATOR DASHBOARD
	IsReceptionist bool     `json:"is_receptionist,omitempty"` // -> FRONT DESK
	Roles          []string `json:"roles,omitempty"`
}

func GetStaffClaims(stf staff.Staff, origIat ...int64) *Claims {
	now := time.Now()
	nownix := now.Unix()

	var oriat int64
	if len(origIat) > 0 {
		oriat = origIat[0]
	} else {
		oriat = nownix
	}

	claims := &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    core.Conf.AppName,
			Subject:   stf.ID,
			Audience:  "Institute",
			ExpiresAt: now.Add(core.Conf.Server.JWTExpirationDelta).Unix(),
			IssuedAt:  nownix,
		},
		OrigIssuedAt:   oriat,
		Username:       stf.Username,
		Email:          stf.Email,
		IsAdmin:        stf.IsAdmin(),
		IsCoordinator:  stf.IsCoordinator(),
		IsReceptionist: stf.IsReceptionist(),
		Roles:          stf.Roles,
	}
	return claims
}

func authenticate(ctx echo.Context, uname, pwd string, svc staff.Service) (*Claims, error) {
	rctx := ctx.Request().Context()

	stf, err := svc.GetByUsernameOrEmail(rctx, uname)
	if err != nil {
		if err == staff.ErrNotFound {
			return nil, errAuthenticationFailed
		}
		return nil, errors.Wrap(err, "finding staff by username or email")
	}
	if err = stf.CheckPassword(pwd); err != nil {
		return nil, errAuthenticationFailed
	}
	if !stf.IsActive {
		return nil, errAccountDeactivated
	}
	stf, err = svc.SetLastLogin(rctx, stf)
	if err != nil {
		return nil, errors.Wrap(err, "setting lastLogin")
	}
	return GetStaffClaims(stf), nil
}

// GenerateToken generates a signed JWT token string representing the staff Claims.
func GenerateToken(claims *Claims) (string, error) {
	method := jwt.GetSigningMethod(appJWTConfig.SigningMethod)
	token := jwt.NewWithClaims(method, claims)

	ss, err := token.SignedString(appJWTConfig.SigningKey)
	if err != nil {
		return "", errors.New("signing token")
	}
	return ss, nil
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(appJWTConfig.ContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, errUnauthorized
}

func getContextStaff(ctx echo.Context, svc staff.Service, clms ...Claims) (staff.Staff, error) {
	if stf, ok := ctx.Get(contextStaffKey).(staff.Staff); ok {
		return stf, nil
	}

	var claims Claims
	var err error
	if len(clms) > 0 {
		claims = clms[0]
	} else {
		claims, err = getContextClaims(ctx)
		if err != nil {
			return staff.Staff{}, errors.Wrap(err, "getting context claims")
		}
	}

	stf, err := svc.GetByID(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return staff.Staff{}, errors.Wrap(err, "finding staff by ID")
	}
	ctx.Set(contextStaffKey, stf)
	return stf, nil
}

func contextHasAnyRole(ctx echo.Context, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	if claims, err := getContextClaims(ctx); err == nil {
		sort.Strings(claims.Roles)
		for _, role := range roles {
			if i := sort.SearchStrings(claims.Roles, role); i < len(claims.Roles) {
				if match := claims.Roles[i]; role == match {
					return true
				}
			}
		}
	}
	return false
}

func refreshToken(ctx echo.Context, svc staff.Service) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", errors.Wrap(err, "getting context claims")
	}

	stf, err := getContextStaff(ctx, svc, claims)
	if err != nil {
		return "", errors.Wrap(err, "getting context staff")
	}

	// check if account is still active
	if !stf.IsActive {
		return "", errAccountDeactivated
	}

	// check if refresh has not expired
	expTime := time.Unix(claims.OrigIssuedAt, 0).Add(core.Conf.Server.JWTRefreshExpirationDelta)
	if time.Now().After(expTime) {
		return "", errRefreshExpired
	}

	newClaims := GetStaffClaims(stf, claims.OrigIssuedAt)
	token, err := GenerateToken(newClaims)
	return token, errors.Wrap(err, "generating token")
}
