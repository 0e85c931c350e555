package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"storefront/internal/domain"     // Importing domain models
	"storefront/internal/repository" // Row types and sentinels
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
	"github.com/sirupsen/logrus"    // Logging library
)

// MaxLineQuantity caps the quantity of a single checkout line
const MaxLineQuantity = 100

// Request struct for the customer part of a checkout
type CustomerRequest struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Request struct for one checkout line
type OrderLineRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// Request struct for checkout
type PlaceOrderRequest struct {
	Customer        CustomerRequest    `json:"customer"`
	Items           []OrderLineRequest `json:"items"`
	ShippingAddress string             `json:"shipping_address"`
	Notes           string             `json:"notes"`
}

// Request struct for status changes
type OrderStatusRequest struct {
	Status string `json:"status"`
}

func (r CustomerRequest) input() repository.CustomerInput {
	return repository.CustomerInput{
		FirstName:  utils.SanitizeInput(r.FirstName),
		LastName:   utils.SanitizeInput(r.LastName),
		Email:      strings.ToLower(utils.SanitizeInput(r.Email)),
		Phone:      utils.SanitizeInput(r.Phone),
		Address:    utils.SanitizeInput(r.Address),
		City:       utils.SanitizeInput(r.City),
		PostalCode: utils.SanitizeInput(r.PostalCode),
		Country:    utils.SanitizeInput(r.Country),
	}
}

// shippingCost reads the flat shipping cost from the site settings; missing or bad values mean free shipping
func shippingCost(c *gin.Context, settings SettingStore) decimal.Decimal {
	if settings == nil {
		return decimal.Zero
	}
	config, err := settings.Config(c.Request.Context())
	if err != nil {
		logrus.WithError(err).Warn("Failed to read shipping cost, charging none")
		return decimal.Zero
	}
	if v, ok := config["shipping_cost"].(float64); ok && v > 0 {
		return decimal.NewFromFloat(v).Round(2)
	}
	return decimal.Zero
}

// PlaceOrderHandler creates an order from a storefront checkout. Prices come from the
// catalog, never from the request.
func PlaceOrderHandler(orders OrderStore, settings SettingStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PlaceOrderRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Datos del pedido inválidos")
			return
		}
		customer := req.Customer.input()
		var errs []string
		if customer.FirstName == "" {
			errs = append(errs, "El nombre es requerido")
		}
		if !utils.ValidateEmail(customer.Email) {
			errs = append(errs, "Email válido es requerido")
		}
		if len(req.Items) == 0 {
			errs = append(errs, "El pedido debe contener al menos un producto")
		}
		lines := make([]repository.OrderLine, 0, len(req.Items))
		for _, it := range req.Items {
			if it.ProductID == 0 || it.Quantity < 1 || it.Quantity > MaxLineQuantity {
				errs = append(errs, "Producto o cantidad inválidos")
				break
			}
			lines = append(lines, repository.OrderLine{ProductID: it.ProductID, Quantity: it.Quantity})
		}
		if len(errs) > 0 {
			respondError(c, http.StatusBadRequest, "Datos del pedido inválidos", errs...)
			return
		}

		address := utils.SanitizeInput(req.ShippingAddress)
		if address == "" {
			address = strings.Join(nonEmpty(customer.Address, customer.City, customer.PostalCode, customer.Country), ", ")
		}
		order, err := orders.Place(c.Request.Context(), repository.OrderInput{
			Customer:        customer,
			Items:           lines,
			ShippingAmount:  shippingCost(c, settings),
			ShippingAddress: address,
			Notes:           utils.SanitizeInput(req.Notes),
		})
		var productErr *repository.ProductError
		switch {
		case errors.As(err, &productErr) && errors.Is(err, repository.ErrInsufficientStock):
			respondError(c, http.StatusBadRequest, "Stock insuficiente para "+productErr.Name)
			return
		case errors.Is(err, repository.ErrProductUnavailable):
			respondError(c, http.StatusBadRequest, "Uno de los productos ya no está disponible")
			return
		case errors.Is(err, repository.ErrEmptyOrder):
			respondError(c, http.StatusBadRequest, "El pedido debe contener al menos un producto")
			return
		case err != nil:
			internalError(c, "Error al crear el pedido", err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"order_id":     order.ID,
			"order_number": order.OrderNumber,
			"total":        order.TotalAmount.StringFixed(2),
		}).Info("Order placed")
		respondOK(c, http.StatusCreated, "Pedido creado exitosamente", gin.H{
			"id":           order.ID,
			"order_number": order.OrderNumber,
			"status":       order.Status,
			"subtotal":     order.Subtotal,
			"shipping":     order.ShippingAmount,
			"total_amount": order.TotalAmount,
		})
	}
}

// ListOrdersHandler returns one page of orders, optionally by status and search term
func ListOrdersHandler(orders OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := c.Query("status")
		if status != "" && !domain.OrderStatus(status).Valid() {
			respondError(c, http.StatusBadRequest, "Estado inválido")
			return
		}
		page, limit := pageQuery(c)
		rows, p, err := orders.List(c.Request.Context(), status, strings.TrimSpace(c.Query("search")), page, limit)
		if err != nil {
			internalError(c, "Error al obtener pedidos", err)
			return
		}
		respondList(c, rows, p)
	}
}

// GetOrderHandler returns one order with its lines
func GetOrderHandler(orders OrderStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Pedido no encontrado")
			return
		}
		order, err := orders.FindByID(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Pedido no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al obtener el pedido", err)
			return
		}
		respondOK(c, http.StatusOK, "", order)
	}
}

// UpdateOrderStatusHandler moves an order to another status
func UpdateOrderStatusHandler(orders OrderStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Pedido no encontrado")
			return
		}
		var req OrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil || !domain.OrderStatus(req.Status).Valid() {
			respondError(c, http.StatusBadRequest, "Estado inválido")
			return
		}
		number, err := orders.UpdateStatus(c.Request.Context(), id, domain.OrderStatus(req.Status))
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Pedido no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al actualizar el pedido", err)
			return
		}
		logActivity(c, activity, "order_status_updated", gin.H{"order_id": id, "order_number": number, "status": req.Status})
		respondOK(c, http.StatusOK, "Estado del pedido actualizado", nil)
	}
}

func nonEmpty(values ...string) []string {
	out := values[:0]
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}
