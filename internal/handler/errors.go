package handler

import (
	"errors"
	"net/http"

	"storycraft/internal/model"
	"storycraft/internal/service"
	"storycraft/internal/storage"
)

// statusFor maps an error to the HTTP status and the message safe to show.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, storage.ErrStoryNotFound):
		return http.StatusNotFound, "story not found"
	case errors.Is(err, service.ErrSubmissionNotFound):
		return http.StatusNotFound, "submission not found"
	case errors.Is(err, service.ErrTrackerClosed):
		return http.StatusServiceUnavailable, "server is shutting down"
	}

	switch model.KindOf(err) {
	case model.KindValidation:
		return http.StatusBadRequest, model.PublicMessage(err)
	case model.KindGeneration:
		return http.StatusBadGateway, model.PublicMessage(err)
	}
	return http.StatusInternalServerError, model.PublicMessage(err)
}

func errorResponse(err error) (int, model.ErrorResponse) {
	status, msg := statusFor(err)
	return status, model.ErrorResponse{Error: msg, Kind: model.KindOf(err)}
}
