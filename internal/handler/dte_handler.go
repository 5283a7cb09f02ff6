package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"erp-backend/internal/repository"
	"erp-backend/internal/service"
	"erp-backend/pkg/pagination"
	"erp-backend/pkg/response"

	"github.com/gin-gonic/gin"
)

type DTEHandler struct {
	dteService     service.DTEService
	queryService   service.DTEQueryService
	profileService service.CompanyProfileService
}

func NewDTEHandler(
	dteService service.DTEService,
	queryService service.DTEQueryService,
	profileService service.CompanyProfileService,
) *DTEHandler {
	return &DTEHandler{
		dteService:     dteService,
		queryService:   queryService,
		profileService: profileService,
	}
}

func (h *DTEHandler) RegisterRoutes(router *gin.RouterGroup) {
	dte := router.Group("/api/dte")
	{
		dte.POST("/generar-dte", h.GenerateDTE)
		dte.GET("/consultar-estado/:factura_id", h.CheckStatus)
		dte.GET("/descargar-xml/:factura_id", h.DownloadXML)
		dte.GET("/listar-dtes", h.ListDTEs)
		dte.POST("/reenviar-dte/:factura_id", h.ResendDTE)
		dte.GET("/dashboard-stats", h.DashboardStats)
		dte.GET("/configuracion-empresa", h.GetCompanyProfile)
		dte.PUT("/configuracion-empresa", h.UpsertCompanyProfile)
	}
}

type generateDTERequest struct {
	InvoiceID    json.Number `json:"factura_id" binding:"required"`
	DocumentType int         `json:"tipo_dte" binding:"required"`
}

// GenerateDTE runs the full pipeline for one invoice
// @Summary      Generate electronic tax document
// @Description  Allocates a folio, renders the XML and submits it to the SII for the given invoice
// @Tags         dte
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      generateDTERequest  true  "Invoice and document type"
// @Success      200      {object}  response.Response{data=service.GenerateDTEResult}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/dte/generar-dte [post]
func (h *DTEHandler) GenerateDTE(c *gin.Context) {
	var req generateDTERequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "factura_id and tipo_dte are required"))
		return
	}

	result, err := h.dteService.GenerateDTE(c.Request.Context(), req.InvoiceID.String(), req.DocumentType)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// CheckStatus reports the authority's current verdict for an invoice
// @Summary      Check DTE status
// @Description  Returns the SII verdict for the invoice's document, or sin_dte when none was generated
// @Tags         dte
// @Security     BearerAuth
// @Produce      json
// @Param        factura_id  path      int  true  "Invoice ID"
// @Success      200         {object}  response.Response{data=service.DTEStatusResult}
// @Failure      404         {object}  response.Response
// @Router       /api/dte/consultar-estado/{factura_id} [get]
func (h *DTEHandler) CheckStatus(c *gin.Context) {
	result, err := h.queryService.Status(c.Request.Context(), c.Param("factura_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DownloadXML streams the stored document payload
// @Summary      Download DTE XML
// @Description  Returns the rendered XML of the invoice's document as a file attachment
// @Tags         dte
// @Security     BearerAuth
// @Produce      xml
// @Param        factura_id  path  int  true  "Invoice ID"
// @Success      200  {string}  string  "XML document"
// @Failure      404  {object}  response.Response
// @Router       /api/dte/descargar-xml/{factura_id} [get]
func (h *DTEHandler) DownloadXML(c *gin.Context) {
	doc, err := h.queryService.DocumentXML(c.Request.Context(), c.Param("factura_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Filename))
	c.Data(http.StatusOK, "application/xml", []byte(doc.XML))
}

// ListDTEs lists generated documents with their latest submission
// @Summary      List DTEs
// @Description  Paginated listing of invoices carrying a folio, joined with the most recent submission
// @Tags         dte
// @Security     BearerAuth
// @Produce      json
// @Param        tipo_dte      query     int     false  "Document type code"
// @Param        estado_sii    query     string  false  "SII verdict filter"
// @Param        fecha_inicio  query     string  false  "Issue date from (YYYY-MM-DD)"
// @Param        fecha_fin     query     string  false  "Issue date to (YYYY-MM-DD)"
// @Param        page          query     int     false  "Page number (default 1)"
// @Param        limit         query     int     false  "Number of items per page (default 50)"
// @Success      200           {object}  response.Response{data=service.DTEListResult}
// @Router       /api/dte/listar-dtes [get]
func (h *DTEHandler) ListDTEs(c *gin.Context) {
	params := pagination.Parse(c)
	docType, _ := strconv.Atoi(c.Query("tipo_dte"))

	filter := repository.DTEListFilter{
		DTEType:   docType,
		SIIStatus: c.Query("estado_sii"),
		Page:      params.Page,
		Limit:     params.Limit,
	}
	if from, ok := parseDateQuery(c.Query("fecha_inicio")); ok {
		filter.DateFrom = from
	}
	if to, ok := parseDateQuery(c.Query("fecha_fin")); ok {
		filter.DateTo = to
	}

	result, err := h.queryService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// ResendDTE retries the authority submission for an existing document
// @Summary      Resend DTE
// @Description  Re-submits the stored XML of an already generated document, up to three attempts
// @Tags         dte
// @Security     BearerAuth
// @Produce      json
// @Param        factura_id  path      int  true  "Invoice ID"
// @Success      200         {object}  response.Response{data=service.ResendDTEResult}
// @Failure      404         {object}  response.Response
// @Failure      409         {object}  response.Response
// @Router       /api/dte/reenviar-dte/{factura_id} [post]
func (h *DTEHandler) ResendDTE(c *gin.Context) {
	result, err := h.dteService.ResendDTE(c.Request.Context(), c.Param("factura_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, result))
}

// DashboardStats aggregates the current month's documents
// @Summary      DTE dashboard statistics
// @Description  Totals by verdict and document type plus a per-day series for the current month
// @Tags         dte
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.DashboardStats}
// @Router       /api/dte/dashboard-stats [get]
func (h *DTEHandler) DashboardStats(c *gin.Context) {
	stats, err := h.queryService.DashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, stats))
}

// GetCompanyProfile returns the active issuer configuration
// @Summary      Get company profile
// @Description  Returns the active issuer configuration, or empty data when none has been saved
// @Tags         dte
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=model.CompanyProfile}
// @Router       /api/dte/configuracion-empresa [get]
func (h *DTEHandler) GetCompanyProfile(c *gin.Context) {
	profile, err := h.profileService.GetActive(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

// UpsertCompanyProfile creates or updates the issuer configuration
// @Summary      Save company profile
// @Description  Creates or updates the issuer configuration keyed by company RUT
// @Tags         dte
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        request  body      service.UpsertCompanyProfileRequest  true  "Issuer configuration"
// @Success      200      {object}  response.Response{data=model.CompanyProfile}
// @Failure      400      {object}  response.Response
// @Router       /api/dte/configuracion-empresa [put]
func (h *DTEHandler) UpsertCompanyProfile(c *gin.Context) {
	var req service.UpsertCompanyProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "rut_empresa, nombre_empresa and giro_empresa are required"))
		return
	}

	profile, err := h.profileService.Upsert(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, profile))
}

func parseDateQuery(value string) (*time.Time, bool) {
	if value == "" {
		return nil, false
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return nil, false
	}
	return &t, true
}
