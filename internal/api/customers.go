package api

import (
	"errors"   // Error classification
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"storefront/internal/repository" // Row types and sentinels
	"storefront/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin" // Gin web framework
)

// Request struct for customer updates; omitted fields are left unchanged
type UpdateCustomerRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Address    *string `json:"address"`
	City       *string `json:"city"`
	PostalCode *string `json:"postal_code"`
	Country    *string `json:"country"`
}

// ListCustomersHandler returns one page of customers with order totals
func ListCustomersHandler(customers CustomerStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, limit := pageQuery(c)
		rows, p, err := customers.List(c.Request.Context(), strings.TrimSpace(c.Query("search")), page, limit)
		if err != nil {
			internalError(c, "Error al obtener clientes", err)
			return
		}
		respondList(c, rows, p)
	}
}

// GetCustomerHandler returns a customer with their orders
func GetCustomerHandler(customers CustomerStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Cliente no encontrado")
			return
		}
		customer, err := customers.FindByID(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Cliente no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al obtener el cliente", err)
			return
		}
		respondOK(c, http.StatusOK, "", customer)
	}
}

// CreateCustomerHandler adds a customer from the back office
func CreateCustomerHandler(customers CustomerStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Datos inválidos")
			return
		}
		in := req.input()
		if in.FirstName == "" || in.Email == "" {
			respondError(c, http.StatusBadRequest, "Nombre y email son requeridos")
			return
		}
		if !utils.ValidateEmail(in.Email) {
			respondError(c, http.StatusBadRequest, "Email inválido")
			return
		}
		id, err := customers.Create(c.Request.Context(), in)
		if errors.Is(err, repository.ErrDuplicate) || repository.IsDuplicateKey(err) {
			respondError(c, http.StatusBadRequest, "El email ya está registrado")
			return
		} else if err != nil {
			internalError(c, "Error al crear el cliente", err)
			return
		}
		logActivity(c, activity, "customer_created", gin.H{"customer_id": id, "email": in.Email})
		respondOK(c, http.StatusCreated, "Cliente creado exitosamente", gin.H{"id": id})
	}
}

// UpdateCustomerHandler changes the submitted fields of a customer
func UpdateCustomerHandler(customers CustomerStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Cliente no encontrado")
			return
		}
		var req UpdateCustomerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "Datos inválidos")
			return
		}
		fields := map[string]any{}
		for key, v := range map[string]*string{
			"first_name":  req.FirstName,
			"last_name":   req.LastName,
			"phone":       req.Phone,
			"address":     req.Address,
			"city":        req.City,
			"postal_code": req.PostalCode,
			"country":     req.Country,
		} {
			if v != nil {
				fields[key] = utils.SanitizeInput(*v)
			}
		}
		if name, ok := fields["first_name"]; ok && name == "" {
			respondError(c, http.StatusBadRequest, "El nombre es requerido")
			return
		}

		ctx := c.Request.Context()
		if req.Email != nil {
			email := strings.ToLower(utils.SanitizeInput(*req.Email))
			if !utils.ValidateEmail(email) {
				respondError(c, http.StatusBadRequest, "Email inválido")
				return
			}
			taken, err := customers.EmailTaken(ctx, email, id)
			if err != nil {
				internalError(c, "Error al actualizar el cliente", err)
				return
			}
			if taken {
				respondError(c, http.StatusBadRequest, "El email ya está registrado")
				return
			}
			fields["email"] = email
		}
		if len(fields) == 0 {
			respondError(c, http.StatusBadRequest, "No hay campos para actualizar")
			return
		}
		if err := customers.Update(ctx, id, fields); errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Cliente no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al actualizar el cliente", err)
			return
		}
		logActivity(c, activity, "customer_updated", gin.H{"customer_id": id, "fields": fieldNames(fields)})
		respondOK(c, http.StatusOK, "Cliente actualizado exitosamente", nil)
	}
}

// DeleteCustomerHandler removes a customer; their orders stay, detached
func DeleteCustomerHandler(customers CustomerStore, activity ActivityStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := paramID(c, "id")
		if !ok {
			respondError(c, http.StatusNotFound, "Cliente no encontrado")
			return
		}
		if err := customers.Delete(c.Request.Context(), id); errors.Is(err, repository.ErrNotFound) {
			respondError(c, http.StatusNotFound, "Cliente no encontrado")
			return
		} else if err != nil {
			internalError(c, "Error al eliminar el cliente", err)
			return
		}
		logActivity(c, activity, "customer_deleted", gin.H{"customer_id": id})
		respondOK(c, http.StatusOK, "Cliente eliminado exitosamente", nil)
	}
}
