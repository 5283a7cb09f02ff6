package handler

import (
	"net/http"
	"strconv"

	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
}

func NewInvoiceHandler(invoiceService service.InvoiceService) *InvoiceHandler {
	return &InvoiceHandler{invoiceService: invoiceService}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/facturas")
	{
		invoices.POST("/guardar", h.CreateInvoice)
		invoices.GET("/listar", h.ListInvoices)
		invoices.DELETE("/:id", h.DeleteInvoice)
	}
}

// CreateInvoice stores a captured invoice with its line items
// @Summary      Save invoice
// @Description  Persists an invoice and its items after reconciling the amount decomposition
// @Tags         facturas
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.CreateInvoiceRequest  true  "Invoice payload"
// @Success      201      {object}  response.Response{data=model.Invoice}
// @Failure      400      {object}  response.Response
// @Router       /api/facturas/guardar [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "invalid invoice payload: "+err.Error()))
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns a paginated invoice listing
// @Summary      List invoices
// @Description  Paginated invoice listing with optional status, type and issue-date filters
// @Tags         facturas
// @Security     BearerAuth
// @Produce      json
// @Param        estado        query     string  false  "Invoice status (pendiente, enviada_sii)"
// @Param        tipo_dte      query     int     false  "Document type code"
// @Param        fecha_inicio  query     string  false  "Issue date from (YYYY-MM-DD)"
// @Param        fecha_fin     query     string  false  "Issue date to (YYYY-MM-DD)"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 50)"
// @Success      200           {object}  response.Response{data=service.InvoiceListResult}
// @Router       /api/facturas/listar [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	params := pagination.Parse(c)
	docType, _ := strconv.Atoi(c.Query("tipo_dte"))

	result, err := h.invoiceService.ListInvoices(c.Request.Context(), service.InvoiceListQuery{
		DTEStatus: c.Query("estado"),
		DTEType:   docType,
		DateFrom:  c.Query("fecha_inicio"),
		DateTo:    c.Query("fecha_fin"),
		Page:      params.Page,
		Limit:     params.Limit,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DeleteInvoice removes an invoice and its items
// @Summary      Delete invoice
// @Tags         facturas
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      int  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/facturas/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Factura eliminada correctamente"}))
}
