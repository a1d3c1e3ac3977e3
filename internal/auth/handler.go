package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/2beens/liftlog/internal/telemetry/tracing"
	"github.com/2beens/liftlog/pkg"
)

// TokenHeader carries the session token on authenticated requests.
const TokenHeader = "X-LIFTLOG-TOKEN"

type sessionService interface {
	Register(ctx context.Context, creds Credentials, now time.Time) error
	Login(ctx context.Context, creds Credentials, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) (bool, error)
}

type LoginResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type Handler struct {
	service sessionService
}

func NewHandler(service sessionService) *Handler {
	return &Handler{
		service: service,
	}
}

func (handler *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.register")
	defer span.End()

	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	err := handler.service.Register(ctx, creds, time.Now())
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	case errors.Is(err, ErrAccountExists):
		http.Error(w, "error, account already exists", http.StatusConflict)
		return
	case err != nil:
		log.Errorf("register failed for %s: %s", creds.Email, err)
		http.Error(w, "error, register failed", http.StatusInternalServerError)
		return
	}

	log.Debugf("new account registered: %s", creds.Email)
	pkg.WriteResponse(w, pkg.ContentType.Text, "registered", http.StatusCreated)
}

func (handler *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	creds, ok := readCredentials(w, r)
	if !ok {
		return
	}

	token, err := handler.service.Login(ctx, creds, time.Now())
	if errors.Is(err, ErrWrongPassword) {
		log.Tracef("failed login attempt for user: %s", creds.Email)
		http.Error(w, "error, wrong credentials", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("login failed, generate token error: %s", err)
		http.Error(w, "generate token error", http.StatusInternalServerError)
		return
	}

	log.Trace("new login success")
	pkg.WriteJSON(w, LoginResponse{Token: token, Email: normalizeEmail(creds.Email)}, http.StatusOK)
}

func (handler *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	authToken := r.Header.Get(TokenHeader)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	loggedOut, err := handler.service.Logout(ctx, authToken)
	if err != nil {
		log.Tracef("[failed logout] => %s: %s", r.URL.Path, err)
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}
	if !loggedOut {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	log.Debugln("logout success")
	pkg.WriteTextResponseOK(w, "logged-out")
}

// readCredentials accepts a JSON body or a form; it writes the error response itself.
func readCredentials(w http.ResponseWriter, r *http.Request) (Credentials, bool) {
	var creds Credentials
	if r.Header.Get("Content-Type") == pkg.ContentType.JSON {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Tracef("credentials, unmarshal json params: %s", err)
			http.Error(w, "error, invalid request", http.StatusBadRequest)
			return Credentials{}, false
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Tracef("credentials, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return Credentials{}, false
		}
		creds = Credentials{
			Email:    r.Form.Get("email"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Email == "" {
		http.Error(w, "error, email empty", http.StatusBadRequest)
		return Credentials{}, false
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return Credentials{}, false
	}
	return creds, true
}
