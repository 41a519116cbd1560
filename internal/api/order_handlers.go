package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/vaidashi/catering-api/internal/models"
	"github.com/vaidashi/catering-api/internal/money"
	"github.com/vaidashi/catering-api/internal/repository"
	"github.com/vaidashi/catering-api/internal/service"
)

type createOrderRequest struct {
	ClientID            string            `json:"client_id"`
	Items               []models.LineItem `json:"items"`
	Discount            money.Cents       `json:"discount_amount"`
	DeliveryDate        string            `json:"delivery_date"`
	DeliveryAddress     string            `json:"delivery_address"`
	SpecialInstructions string            `json:"special_instructions"`
	RewardID            string            `json:"reward_id"`
}

type statusRequest struct {
	Status models.Status `json:"status"`
}

// createOrderHandler places a new pending order
func (s *Server) createOrderHandler(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	deliveryDate, err := parseDate("delivery_date", req.DeliveryDate)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	order, err := s.services.Orders.CreateOrder(r.Context(), service.CreateOrderInput{
		ClientID:            req.ClientID,
		Items:               req.Items,
		Discount:            req.Discount,
		DeliveryDate:        deliveryDate,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		RewardID:            req.RewardID,
	})

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusCreated, order)
}

// getOrdersHandler lists orders, newest first
func (s *Server) getOrdersHandler(w http.ResponseWriter, r *http.Request) {
	filter := repository.OrderFilter{
		Status:      models.Status(r.URL.Query().Get("status")),
		ClientID:    r.URL.Query().Get("client_id"),
		ListOptions: parseListOptions(r),
	}

	orders, err := s.services.Orders.ListOrders(r.Context(), filter)

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, orders)
}

// getOrderStatusCountsHandler returns the dashboard counters
func (s *Server) getOrderStatusCountsHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := s.services.Orders.CountOrdersByStatus(r.Context())

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, counts)
}

// getOrderByIDHandler returns an order by ID
func (s *Server) getOrderByIDHandler(w http.ResponseWriter, r *http.Request) {
	order, err := s.services.Orders.GetOrder(r.Context(), mux.Vars(r)["id"])

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, order)
}

// updateOrderStatusHandler moves an order to the requested status
func (s *Server) updateOrderStatusHandler(w http.ResponseWriter, r *http.Request) {
	var req statusRequest

	if err := decodeJSON(r, &req); err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	order, err := s.services.Orders.UpdateOrderStatus(r.Context(), mux.Vars(r)["id"], req.Status, actingRole(r))

	if err != nil {
		s.respondWithServiceError(w, r, err)
		return
	}

	s.respondOK(w, http.StatusOK, order)
}
