package handler

import (
	"net/http"
	"strconv"

	"github.com/Jorgegzze/marbleworldinventory/internal/apierror"
	"github.com/Jorgegzze/marbleworldinventory/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails —
// the caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid JSON: "+err.Error()))
		return false
	}
	if err := validate.Struct(req); err != nil {
		fields := make(map[string]string)
		for _, fe := range err.(validator.ValidationErrors) {
			fields[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(fields))
		return false
	}
	return true
}

// pathID parses the :id route parameter. Writes the 400 itself on failure.
func pathID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid id"))
		return 0, false
	}
	return id, true
}

// writeServiceError maps service sentinel errors onto HTTP statuses:
// missing rows → 404, precondition violations → 409, the rest → 500.
func writeServiceError(c *gin.Context, err error) {
	switch {
	case err == service.ErrMaterialNotFound || err == service.ErrUserNotFound:
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case service.IsRejection(err):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case err == service.ErrEmailTaken:
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, apierror.New("Internal server error"))
	}
}
