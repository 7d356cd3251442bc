package handler

import (
	"errors"

	"github.com/ogurasousui/codex-employee-roster/internal/adapters/feed"
	"github.com/ogurasousui/codex-employee-roster/internal/core/company"
	"github.com/ogurasousui/codex-employee-roster/internal/core/employee"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func toStatusError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, employee.ErrInvalidRecord),
		errors.Is(err, employee.ErrInvalidEmail),
		errors.Is(err, employee.ErrInvalidRole),
		errors.Is(err, employee.ErrInvalidSalary),
		errors.Is(err, employee.ErrInvalidStatus),
		errors.Is(err, employee.ErrInvalidName),
		errors.Is(err, employee.ErrInvalidCompanyName),
		errors.Is(err, employee.ErrInvalidPageSize),
		errors.Is(err, employee.ErrInvalidPageToken),
		errors.Is(err, employee.ErrEmailImmutable),
		errors.Is(err, company.ErrInvalidCompanyName),
		errors.Is(err, feed.ErrMissingHeader),
		errors.Is(err, feed.ErrMalformedFeed):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, feed.ErrTooManyRecords):
		return status.Error(codes.ResourceExhausted, err.Error())
	case errors.Is(err, employee.ErrDuplicateEmail):
		return status.Error(codes.AlreadyExists, err.Error())
	case errors.Is(err, employee.ErrEmployeeNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
