package docsystem

import (
	"errors"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"hrdocs/internal/config"
	"hrdocs/internal/domain"
	docsysSvc "hrdocs/internal/domain/services/docsystem"
)

var nameRules = []validation.Rule{
	validation.Required.Error("name is required"),
	validation.RuneLength(1, config.MaxItemNameLength).Error("name is too long"),
}

// validateCreateFolderRequest trims and validates a folder creation request
func validateCreateFolderRequest(req *docsysSvc.CreateFolderRequest) error {
	req.Name = strings.TrimSpace(req.Name)
	if req.ParentID != nil && *req.ParentID == "" {
		req.ParentID = nil
	}
	return asValidationError(validation.ValidateStruct(req,
		validation.Field(&req.EmployeeID, validation.Required),
		validation.Field(&req.Name, nameRules...),
	))
}

// validateName checks an already trimmed item name
func validateName(name string) error {
	return asValidationError(validation.Validate(name, nameRules...))
}

// asValidationError converts ozzo errors into the domain validation error
func asValidationError(err error) error {
	if err == nil {
		return nil
	}
	var internal validation.InternalError
	if errors.As(err, &internal) {
		return err
	}
	return &domain.ValidationError{Message: err.Error()}
}
