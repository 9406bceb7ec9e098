package billing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/jhoicas/facturador-api/internal/application/auth"
	"github.com/jhoicas/facturador-api/internal/domain"
	"github.com/jhoicas/facturador-api/internal/domain/repository"
)

// Document archivo generado a partir de una factura.
type Document struct {
	Filename    string
	ContentType string
	Data        []byte
	ETag        string // solo UBL: sha256 hex de Data
}

// DocumentUseCase genera los documentos de una factura (PDF y UBL 2.1).
type DocumentUseCase struct {
	invoiceRepo repository.InvoiceRepository
	clientRepo  repository.ClientRepository
	userRepo    repository.UserRepository
	pdf         InvoicePDFGenerator
	xml         InvoiceXMLBuilder
}

// NewDocumentUseCase construye el caso de uso inyectando todas sus dependencias.
func NewDocumentUseCase(
	invoiceRepo repository.InvoiceRepository,
	clientRepo repository.ClientRepository,
	userRepo repository.UserRepository,
	pdf InvoicePDFGenerator,
	xml InvoiceXMLBuilder,
) *DocumentUseCase {
	return &DocumentUseCase{
		invoiceRepo: invoiceRepo,
		clientRepo:  clientRepo,
		userRepo:    userRepo,
		pdf:         pdf,
		xml:         xml,
	}
}

// InvoicePDF genera el PDF de la factura del usuario autenticado.
// Retorna domain.ErrNotFound si la factura no existe o es de otro usuario.
func (uc *DocumentUseCase) InvoicePDF(ctx context.Context, invoiceID string) (*Document, error) {
	doc, err := uc.Load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	data, err := uc.pdf.GenerateInvoicePDF(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("pdf: generación fallida: %w", err)
	}
	return &Document{
		Filename:    fmt.Sprintf("invoice-%s.pdf", doc.Invoice.InvoiceNumber),
		ContentType: "application/pdf",
		Data:        data,
	}, nil
}

// InvoiceUBL genera el XML UBL 2.1 canónico; el ETag es el digest SHA-256 de los bytes.
func (uc *DocumentUseCase) InvoiceUBL(ctx context.Context, invoiceID string) (*Document, error) {
	doc, err := uc.Load(ctx, invoiceID)
	if err != nil {
		return nil, err
	}
	data, err := uc.xml.BuildInvoiceXML(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("ubl: generación fallida: %w", err)
	}
	sum := sha256.Sum256(data)
	return &Document{
		Filename:    fmt.Sprintf("invoice-%s.xml", doc.Invoice.InvoiceNumber),
		ContentType: "application/xml",
		Data:        data,
		ETag:        hex.EncodeToString(sum[:]),
	}, nil
}

// Load reúne factura, líneas, cliente y emisor.
func (uc *DocumentUseCase) Load(ctx context.Context, invoiceID string) (*InvoiceDocument, error) {
	userID, err := auth.RequireUserID(ctx)
	if err != nil {
		return nil, err
	}
	inv, err := uc.invoiceRepo.GetByID(ctx, userID, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("obtener factura: %w", err)
	}
	if inv == nil {
		return nil, domain.ErrNotFound
	}
	lines, err := uc.invoiceRepo.GetLines(ctx, inv.ID)
	if err != nil {
		return nil, fmt.Errorf("obtener líneas: %w", err)
	}
	client, err := uc.clientRepo.GetByID(ctx, userID, inv.ClientID)
	if err != nil {
		return nil, fmt.Errorf("obtener cliente: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("factura %s sin cliente", inv.ID)
	}
	issuer, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("obtener emisor: %w", err)
	}
	if issuer == nil {
		return nil, domain.ErrUserNotFound
	}
	return &InvoiceDocument{Invoice: inv, Lines: lines, Client: client, Issuer: issuer}, nil
}
