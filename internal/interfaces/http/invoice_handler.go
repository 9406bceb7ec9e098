package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/application/dto"
)

// InvoiceHandler maneja las peticiones HTTP de facturación (protegido).
type InvoiceHandler struct {
	invoices *billing.InvoiceUseCase
	docs     *billing.DocumentUseCase
	export   *billing.ExportUseCase
}

// NewInvoiceHandler construye el handler.
func NewInvoiceHandler(invoices *billing.InvoiceUseCase, docs *billing.DocumentUseCase, export *billing.ExportUseCase) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, docs: docs, export: export}
}

// Create godoc
// @Summary      Crear factura
// @Description  Número YYYY-NNNN correlativo por usuario y año (4 dígitos, crece si se superan 9999).
// @Description  Los totales los calcula el servidor; currency por defecto la del usuario.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Factura"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.invoices.CreateInvoice(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar facturas
// @Description  status filtra por estado efectivo (SENT vencida = OVERDUE).
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "DRAFT, SENT, PAID u OVERDUE"
// @Param        year    query  int     false  "Año de emisión"
// @Param        limit   query  int     false  "Límite"  default(20)
// @Param        offset  query  int     false  "Offset"  default(0)
// @Success      200     {object}  dto.InvoiceListResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	in := dto.InvoiceListRequest{
		PageRequest: dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)},
		Status:      c.Query("status"),
		Year:        c.QueryInt("year", 0),
	}
	out, err := h.invoices.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Defaults godoc
// @Summary      Valores iniciales de una factura nueva
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        client_id  query  string  false  "Cliente (usa sus días de pago)"
// @Success      200        {object}  dto.InvoiceDefaultsResponse
// @Failure      404        {object}  dto.ErrorResponse
// @Router       /api/invoices/defaults [get]
func (h *InvoiceHandler) Defaults(c *fiber.Ctx) error {
	out, err := h.invoices.Defaults(c.UserContext(), c.Query("client_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Detalle de factura con líneas y cliente
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.invoices.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MarkSent godoc
// @Summary      Marcar como enviada
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/sent [put]
func (h *InvoiceHandler) MarkSent(c *fiber.Ctx) error {
	out, err := h.invoices.MarkSent(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MarkPaid godoc
// @Summary      Marcar como pagada
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/paid [put]
func (h *InvoiceHandler) MarkPaid(c *fiber.Ctx) error {
	out, err := h.invoices.MarkPaid(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// MarkOverdue godoc
// @Summary      Marcar como vencida
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/overdue [put]
func (h *InvoiceHandler) MarkOverdue(c *fiber.Ctx) error {
	out, err := h.invoices.MarkOverdue(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// PDF godoc
// @Summary      Descargar PDF
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *fiber.Ctx) error {
	doc, err := h.docs.InvoicePDF(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return sendDocument(c, doc)
}

// UBL godoc
// @Summary      Descargar UBL 2.1
// @Description  XML canónico; ETag = SHA-256 del contenido. Responde 304 si coincide If-None-Match.
// @Tags         invoices
// @Security     Bearer
// @Produce      application/xml
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/ubl [get]
func (h *InvoiceHandler) UBL(c *fiber.Ctx) error {
	doc, err := h.docs.InvoiceUBL(c.UserContext(), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	etag := `"` + doc.ETag + `"`
	c.Set(fiber.HeaderETag, etag)
	if c.Get(fiber.HeaderIfNoneMatch) == etag {
		return c.SendStatus(fiber.StatusNotModified)
	}
	return sendDocument(c, doc)
}

// Export godoc
// @Summary      Registro de facturas en XLSX
// @Tags         invoices
// @Security     Bearer
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        year  query  int  false  "Año (por defecto el actual)"
// @Success      200   {file}  binary
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices/export.xlsx [get]
func (h *InvoiceHandler) Export(c *fiber.Ctx) error {
	doc, err := h.export.ExportYear(c.UserContext(), c.QueryInt("year", 0))
	if err != nil {
		return writeError(c, err)
	}
	return sendDocument(c, doc)
}

func sendDocument(c *fiber.Ctx, doc *billing.Document) error {
	c.Set(fiber.HeaderContentType, doc.ContentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, doc.Filename))
	return c.Send(doc.Data)
}
