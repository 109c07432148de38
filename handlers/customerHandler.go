package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/tomdro61/shop-pilot-sub000/models"

	"github.com/gorilla/mux"
)

type CustomerService interface {
	CreateCustomer(ctx context.Context, req *models.CreateCustomerRequest) (*models.Customer, error)
	GetCustomerByID(ctx context.Context, id int) (*models.Customer, error)
	GetAllCustomers(ctx context.Context) ([]*models.Customer, error)
	SearchCustomers(ctx context.Context, query string, limit int) ([]*models.Customer, error)
	UpdateCustomer(ctx context.Context, id int, req *models.UpdateCustomerRequest) (*models.Customer, error)
	DeleteCustomer(ctx context.Context, id int) error
}

type CustomerHandler struct {
	service CustomerService
}

func NewCustomerHandler(service CustomerService) *CustomerHandler {
	return &CustomerHandler{service: service}
}

func (h *CustomerHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/customers", h.CreateCustomer).Methods("POST")
	router.HandleFunc("/customers", h.GetAllCustomers).Methods("GET")
	router.HandleFunc("/customers/search", h.SearchCustomers).Methods("GET")
	router.HandleFunc("/customers/{id:[0-9]+}", h.GetCustomerByID).Methods("GET")
	router.HandleFunc("/customers/{id:[0-9]+}", h.UpdateCustomer).Methods("PUT")
	router.HandleFunc("/customers/{id:[0-9]+}", h.DeleteCustomer).Methods("DELETE")
}

func (h *CustomerHandler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	var req models.CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	customer, err := h.service.CreateCustomer(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to create customer")
		return
	}

	writeJSONResponse(w, http.StatusCreated, customer)
}

func (h *CustomerHandler) GetAllCustomers(w http.ResponseWriter, r *http.Request) {
	customers, err := h.service.GetAllCustomers(r.Context())
	if err != nil {
		writeServiceError(w, r, err, "Failed to retrieve customers")
		return
	}

	writeJSONResponse(w, http.StatusOK, customers)
}

func (h *CustomerHandler) SearchCustomers(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeErrorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = n
	}

	customers, err := h.service.SearchCustomers(r.Context(), r.URL.Query().Get("q"), limit)
	if err != nil {
		writeServiceError(w, r, err, "Failed to search customers")
		return
	}

	writeJSONResponse(w, http.StatusOK, customers)
}

func (h *CustomerHandler) GetCustomerByID(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	customer, err := h.service.GetCustomerByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err, "Failed to retrieve customer")
		return
	}

	writeJSONResponse(w, http.StatusOK, customer)
}

func (h *CustomerHandler) UpdateCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	var req models.UpdateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid JSON payload")
		return
	}

	customer, err := h.service.UpdateCustomer(r.Context(), id, &req)
	if err != nil {
		writeServiceError(w, r, err, "Failed to update customer")
		return
	}

	writeJSONResponse(w, http.StatusOK, customer)
}

func (h *CustomerHandler) DeleteCustomer(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeErrorResponse(w, http.StatusBadRequest, "Invalid customer ID")
		return
	}

	if err := h.service.DeleteCustomer(r.Context(), id); err != nil {
		writeServiceError(w, r, err, "Failed to delete customer")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
