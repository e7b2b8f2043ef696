package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/rl1809/food-ordering/internal/core/domain"
	"github.com/rl1809/food-ordering/internal/core/service"
	"github.com/rl1809/food-ordering/internal/port"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	maxBodyBytes         = 1 << 20
	healthCheckTimeout   = 2 * time.Second
)

// Dependency is a named backend checked by the health endpoints.
type Dependency struct {
	Name   string
	Pinger port.Pinger
}

type HTTPHandler struct {
	menuService  *service.MenuService
	orderService *service.OrderService
	authService  *service.AuthService
	dependencies []Dependency
	log          logrus.FieldLogger
}

func NewHTTPHandler(menuService *service.MenuService, orderService *service.OrderService,
	authService *service.AuthService, dependencies []Dependency, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{
		menuService:  menuService,
		orderService: orderService,
		authService:  authService,
		dependencies: dependencies,
		log:          log,
	}
}

// Router answers every collection path with and without a trailing slash.
func (h *HTTPHandler) Router() http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.writeJSON(w, req, http.StatusNotFound, ErrorResponse{Detail: "Not Found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		h.writeJSON(w, req, http.StatusMethodNotAllowed, ErrorResponse{Detail: "Method Not Allowed"})
	})

	r.HandleFunc("/", h.Root).Methods(http.MethodGet)
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	handle := func(path string, fn http.HandlerFunc, method string) {
		r.HandleFunc(path, fn).Methods(method)
		r.HandleFunc(path+"/", fn).Methods(method)
	}
	handle("/menu", h.ListMenu, http.MethodGet)
	handle("/menu", h.CreateMenuItem, http.MethodPost)
	handle("/orders", h.ListOrders, http.MethodGet)
	handle("/orders", h.CreateOrder, http.MethodPost)
	handle("/orders/{order_id}", h.GetOrder, http.MethodGet)
	handle("/register", h.Register, http.MethodPost)
	handle("/login", h.Login, http.MethodPost)

	return logMiddleware(h.log, r)
}

func (h *HTTPHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, r, http.StatusOK, map[string]string{"message": "Food ordering API is running!"})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	body := map[string]string{"status": "ok"}
	status := http.StatusOK
	for _, dep := range h.dependencies {
		if err := dep.Pinger.Ping(ctx); err != nil {
			h.log.WithError(err).WithField("dependency", dep.Name).Warn("health check failed")
			body[dep.Name] = "unavailable"
			body["status"] = "degraded"
			status = http.StatusServiceUnavailable
			continue
		}
		body[dep.Name] = "ok"
	}

	h.writeJSON(w, r, status, body)
}

func (h *HTTPHandler) ListMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.menuService.ListMenu(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]MenuItemResponse, 0, len(items))
	for _, item := range items {
		resp = append(resp, toMenuItemResponse(item))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *HTTPHandler) CreateMenuItem(w http.ResponseWriter, r *http.Request) {
	var req CreateMenuItemRequest
	if !h.decode(w, r, &req) {
		return
	}

	if req.Name == "" || req.Price == nil {
		h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Detail: "name and price are required"})
		return
	}

	item, err := h.menuService.CreateMenuItem(r.Context(), req.Name, *req.Price)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toMenuItemResponse(item))
}

func (h *HTTPHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	resp := make([]OrderResponse, 0, len(orders))
	for _, order := range orders {
		resp = append(resp, toOrderResponse(order))
	}
	h.writeJSON(w, r, http.StatusOK, resp)
}

func (h *HTTPHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), r.Header.Get(idempotencyKeyHeader), toOrderLines(req.Items))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orderService.GetOrder(r.Context(), mux.Vars(r)["order_id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, toOrderResponse(order))
}

func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !h.decode(w, r, &req) {
		return
	}

	role := string(domain.DefaultRole)
	if req.Role != nil {
		role = *req.Role
	}

	user, err := h.authService.Register(r.Context(), req.Username, req.Password, role)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSON(w, r, http.StatusOK, RegisterResponse{
		Msg:  fmt.Sprintf("User '%s' created successfully", user.Username),
		Role: user.Role,
	})
}

func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !h.decode(w, r, &req) {
		return
	}

	ok, err := h.authService.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	msg := "Login unsuccessful"
	if ok {
		msg = "Login successful"
	}
	h.writeJSON(w, r, http.StatusOK, MessageResponse{Msg: msg})
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.writeJSON(w, r, http.StatusBadRequest, ErrorResponse{Detail: "invalid request body"})
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, detail := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.log.WithError(err).WithField("request_id", requestID(r.Context())).Error("request failed")
	}
	h.writeJSON(w, r, status, ErrorResponse{Detail: detail})
}

func errorStatus(err error) (int, string) {
	var notFound *domain.MenuItemNotFoundError
	switch {
	case errors.As(err, &notFound):
		return http.StatusNotFound, fmt.Sprintf("Menu item %s not found", notFound.ID)
	case errors.Is(err, domain.ErrOrderNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, domain.ErrUsernameTaken):
		return http.StatusBadRequest, "User already exists"
	case errors.Is(err, domain.ErrInvalidRole):
		return http.StatusBadRequest, "Invalid role"
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate request"
	case errors.Is(err, service.ErrEmptyOrder),
		errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrInvalidPrice),
		errors.Is(err, service.ErrOrderTotalTooLarge),
		errors.Is(err, service.ErrMissingCredentials),
		errors.Is(err, domain.ErrPasswordTooLong):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// writeJSON answers 500 when data cannot be encoded.
func (h *HTTPHandler) writeJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		h.log.WithError(err).WithField("request_id", requestID(r.Context())).Error("failed to encode response")
		status = http.StatusInternalServerError
		body = []byte(`{"detail":"internal error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		h.log.WithError(err).WithField("request_id", requestID(r.Context())).Warn("failed to write response")
	}
}
