package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/gymflow/internal/telemetry/tracing"
	"github.com/2beens/gymflow/pkg"
)

// TokenHeader carries the login session token on authenticated requests.
const TokenHeader = "X-GYMFLOW-TOKEN"

//go:generate mockgen -source=$GOFILE -destination=handler_mocks_test.go -package=auth_test

type loginService interface {
	Login(ctx context.Context, creds Credentials, createdAt time.Time) (string, error)
	Logout(ctx context.Context, token string) error
}

type LoginResponse struct {
	Token string `json:"token"`
}

type Handler struct {
	service loginService
}

func NewHandler(service loginService) *Handler {
	return &Handler{
		service: service,
	}
}

// SetupRoutes registers login and logout under /a. The given middlewares
// (rate limiting) wrap only these routes.
func (h *Handler) SetupRoutes(r *mux.Router, loginMiddlewares ...mux.MiddlewareFunc) {
	loginSubrouter := r.PathPrefix("/a").Subrouter()
	loginSubrouter.HandleFunc("/login", h.HandleLogin).Methods("POST", "OPTIONS").Name("login")
	loginSubrouter.HandleFunc("/logout", h.HandleLogout).Methods("GET", "POST", "OPTIONS").Name("logout")
	loginSubrouter.Use(loginMiddlewares...)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.login")
	defer span.End()

	var creds Credentials
	if r.Header.Get("Content-Type") == "application/json" {
		if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
			log.Errorf("login, unmarshal json params: %s", err)
			http.Error(w, "login failed", http.StatusBadRequest)
			return
		}
	} else {
		if err := r.ParseForm(); err != nil {
			log.Errorf("login failed, parse form error: %s", err)
			http.Error(w, "parse form error", http.StatusBadRequest)
			return
		}
		creds = Credentials{
			Username: r.Form.Get("username"),
			Password: r.Form.Get("password"),
		}
	}

	if creds.Username == "" {
		http.Error(w, "error, username empty", http.StatusBadRequest)
		return
	}
	if creds.Password == "" {
		http.Error(w, "error, password empty", http.StatusBadRequest)
		return
	}

	token, err := h.service.Login(ctx, creds, time.Now())
	if err != nil {
		if errors.Is(err, ErrWrongCredentials) {
			log.Tracef("failed login attempt for user: %s", creds.Username)
			http.Error(w, "error, wrong credentials", http.StatusUnauthorized)
			return
		}
		log.Errorf("login failed: %s", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}

	log.Trace("new login success")
	pkg.WriteJSON(w, LoginResponse{Token: token}, http.StatusOK)
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.auth.logout")
	defer span.End()

	authToken := r.Header.Get(TokenHeader)
	if authToken == "" {
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	if err := h.service.Logout(ctx, authToken); err != nil {
		if !errors.Is(err, ErrNotLoggedIn) {
			log.Errorf("logout: %s", err)
		}
		http.Error(w, "no can do", http.StatusUnauthorized)
		return
	}

	pkg.WriteResponse(w, pkg.ContentType.Text, "logged-out", http.StatusOK)
}
