package handler

import (
	"time"

	"singo-backend/pkg/keydetect"
	"singo-backend/repository"
	"singo-backend/service"
)

// Handler carries the dependencies of every HTTP endpoint.
type Handler struct {
	Repo       repository.Repository
	Submission service.SubmissionService
	Songs      service.SongService
	KeyDetect  *keydetect.Client
	JWTSecret  string
	TokenTTL   time.Duration
}
