package main

import (
	"net/http"

	"github.com/gorilla/handlers"
	"go.uber.org/zap"
)

// middleware wraps the router with CORS, panic recovery and access logging
func (rm *RouteManager) middleware(next http.Handler) http.Handler {
	stdLog := zap.NewStdLog(rm.logger.Named("http"))

	cors := handlers.CORS(
		handlers.AllowedOrigins(rm.allowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		handlers.AllowCredentials(),
		handlers.MaxAge(3600),
	)

	recovered := handlers.RecoveryHandler(
		handlers.RecoveryLogger(stdLog),
		handlers.PrintRecoveryStack(true),
	)(next)

	return handlers.CombinedLoggingHandler(stdLog.Writer(), cors(recovered))
}
