package handlers

import (
	"log/slog"

	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/recurring-engine/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	Firebase        *auth.Client
	LifecycleSvc    LifecycleService
	PreviewSvc      PreviewService
	GeneratorSvc    GeneratorService
	HorizonMonths   int
}
