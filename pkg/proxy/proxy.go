package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sguter90/soilmaestro/pkg/narrative"
	"go.uber.org/zap"
)

const maxRequestBytes = 1 << 20

// Upstream sends chat requests to the narrative provider
type Upstream interface {
	Do(ctx context.Context, req narrative.ChatRequest) (*narrative.ChatResponse, error)
}

// Proxy exchanges a passphrase for a token and forwards authenticated
// chat-completion requests upstream with the server-held credential
type Proxy struct {
	issuer         *Issuer
	passphraseHash string
	upstream       Upstream
	logger         *zap.Logger
}

// New creates a proxy
func New(issuer *Issuer, passphraseHash string, upstream Upstream, logger *zap.Logger) *Proxy {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{
		issuer:         issuer,
		passphraseHash: passphraseHash,
		upstream:       upstream,
		logger:         logger.Named("proxy"),
	}
}

// TokenRequest is the body of the token exchange
type TokenRequest struct {
	Client     string `json:"client"`
	Passphrase string `json:"passphrase"`
}

// TokenResponse is returned by the token exchange
type TokenResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	Message   string    `json:"message,omitempty"`
}

// RegisterRoutes mounts the proxy under /api/v1/narrative
func (p *Proxy) RegisterRoutes(router *mux.Router) {
	narrativeRouter := router.PathPrefix("/api/v1/narrative").Subrouter()
	narrativeRouter.HandleFunc("/token", p.handleToken).Methods(http.MethodPost)

	narrativeRouter.Handle("/chat/completions", p.Middleware(http.HandlerFunc(p.handleChatCompletions))).Methods(http.MethodPost)
}

func (p *Proxy) handleToken(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, TokenResponse{Message: "Invalid request body"})
		return
	}
	if req.Client == "" {
		req.Client = "anonymous"
	}

	if err := VerifyPassphrase(p.passphraseHash, req.Passphrase); err != nil {
		p.logger.Warn("token exchange rejected", zap.String("client", req.Client))
		writeJSON(w, http.StatusUnauthorized, TokenResponse{Message: "Invalid passphrase"})
		return
	}

	token, expiresAt, err := p.issuer.GenerateToken(req.Client)
	if err != nil {
		p.logger.Error("failed to generate token", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, TokenResponse{Message: "Failed to generate token"})
		return
	}

	p.logger.Info("token issued", zap.String("client", req.Client), zap.Time("expires_at", expiresAt))
	writeJSON(w, http.StatusOK, TokenResponse{Success: true, Token: token, ExpiresAt: expiresAt})
}

func (p *Proxy) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req narrative.ChatRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, "messages must not be empty")
		return
	}

	client := ""
	if claims := ClaimsFromContext(r.Context()); claims != nil {
		client = claims.Client
	}

	start := time.Now()
	resp, err := p.upstream.Do(r.Context(), req)
	if err != nil {
		status := http.StatusBadGateway
		var statusErr *narrative.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			status = statusErr.StatusCode
		}
		p.logger.Warn("upstream request failed",
			zap.String("client", client),
			zap.Int("status", status),
			zap.Error(err))
		writeError(w, status, "narrative service request failed")
		return
	}

	p.logger.Debug("request forwarded",
		zap.String("client", client),
		zap.String("model", resp.Model),
		zap.Duration("duration", time.Since(start)))
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError answers in the chat-completion error shape so OpenAI-compatible
// clients surface the message
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, narrative.ChatResponse{Error: &narrative.APIError{Message: message}})
}
