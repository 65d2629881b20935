package httpadapter

import (
	"net/http"

	"github.com/docdesk/docdesk/internal/core/domain"
)

func mapErrorToHTTPStatus(err error) int {
	switch {
	case domain.IsKind(err, domain.ErrNoQuery):
		return http.StatusBadRequest
	case domain.IsKind(err, domain.ErrContentFetch):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrCompletion):
		return http.StatusBadGateway
	case domain.IsKind(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
