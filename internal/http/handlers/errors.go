package handlers

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/jmylchreest/camerad/internal/domain"
)

// mapServiceError translates a Control Facade error into the matching Huma
// HTTP status, using the domain error kind rather than string matching.
// Every error is surfaced to the caller as a human-readable string.
func mapServiceError(action string, err error) error {
	var de *domain.Error
	if !domain.As(err, &de) {
		return huma.Error500InternalServerError(action, err)
	}

	switch de.Kind {
	case domain.KindNotFound:
		return huma.Error404NotFound(de.Error())
	case domain.KindBackendMismatch, domain.KindNotSupported, domain.KindValidation:
		return huma.Error400BadRequest(de.Error())
	case domain.KindAlreadyActive:
		return huma.Error409Conflict(de.Error())
	case domain.KindProtocolFailure, domain.KindSpawnFailure, domain.KindPersistence:
		return huma.Error502BadGateway(de.Error())
	default:
		return huma.Error500InternalServerError(action, err)
	}
}
