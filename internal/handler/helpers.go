package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"

	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/apierror"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/middleware"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/model"
	"github.com/swordfish098/Triple-T-s-Rewards-daniel/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// gt=0 and required work on point ratios.
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails;
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid JSON: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid query: "+err.Error()))
		return false
	}
	return validateStruct(c, req)
}

func validateStruct(c *gin.Context, req interface{}) bool {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
			return false
		}
		fields := make(map[string]string)
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// uintParam parses a positive path parameter, writing a 400 on failure.
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || v == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("invalid "+name))
		return 0, false
	}
	return uint(v), true
}

// actor returns the acting identity set by JWTAuth. Routes using it are
// always behind that middleware.
func actor(c *gin.Context) model.ActingIdentity {
	if id := middleware.GetIdentity(c); id != nil {
		return *id
	}
	return model.ActingIdentity{}
}

// respondError maps service errors to HTTP statuses. Anything unrecognised is
// handed to the ErrorHandler middleware as a 500.
func respondError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{verr.Field: verr.Message}))
	case errors.Is(err, service.ErrValidation):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrTOTPRequired):
		c.JSON(http.StatusUnauthorized, apierror.New(err.Error()))
	case errors.Is(err, service.ErrAccountLocked):
		c.JSON(http.StatusLocked, apierror.New(err.Error()))
	case errors.Is(err, service.ErrAuthorizationDenied):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.Is(err, service.ErrExpired):
		c.JSON(http.StatusGone, apierror.New(err.Error()))
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInsufficientBalance):
		c.JSON(http.StatusUnprocessableEntity, apierror.New(err.Error()))
	case errors.Is(err, service.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
	}
}

// sponsorScope resolves the sponsor a sponsor-area request works on: the
// caller itself, or for administrators the sponsor_code query parameter.
func sponsorScope(c *gin.Context) (uint, bool) {
	id := actor(c)
	switch id.Effective.Role {
	case model.RoleSponsor:
		return id.Effective.Code, true
	case model.RoleAdministrator:
		v, err := strconv.ParseUint(c.Query("sponsor_code"), 10, 64)
		if err != nil || v == 0 {
			c.JSON(http.StatusBadRequest, apierror.New("sponsor_code query parameter is required"))
			return 0, false
		}
		return uint(v), true
	default:
		c.JSON(http.StatusForbidden, apierror.NewRedirect("sponsor access required", id.Effective.Role.LandingPath()))
		return 0, false
	}
}
