package billing_test

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/domain"
)

type fakeRenderer struct {
	got *billing.InvoiceDocument
}

func (r *fakeRenderer) GenerateInvoicePDF(_ context.Context, doc *billing.InvoiceDocument) ([]byte, error) {
	r.got = doc
	return []byte("%PDF-1.4 " + doc.Invoice.InvoiceNumber), nil
}

func (r *fakeRenderer) BuildInvoiceXML(_ context.Context, doc *billing.InvoiceDocument) ([]byte, error) {
	r.got = doc
	return []byte("<Invoice>" + doc.Invoice.InvoiceNumber + "</Invoice>"), nil
}

type fakeSpreadsheet struct {
	title string
	rows  []billing.ExportRow
}

func (s *fakeSpreadsheet) ExportInvoices(_ context.Context, title string, rows []billing.ExportRow) ([]byte, error) {
	s.title, s.rows = title, rows
	return []byte("xlsx"), nil
}

func TestDocumentUseCase(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")
	inv, err := f.invoices.CreateInvoice(ctx, scenarioRequest(clientID, "2024-01-15"))
	require.NoError(t, err)

	renderer := &fakeRenderer{}
	uc := billing.NewDocumentUseCase(f.store.Invoices(), f.store.Clients(), f.store.Users(), renderer, renderer)

	pdf, err := uc.InvoicePDF(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "invoice-2024-0001.pdf", pdf.Filename)
	assert.Equal(t, "application/pdf", pdf.ContentType)
	require.NotNil(t, renderer.got)
	assert.Equal(t, "Empresa u1", renderer.got.Issuer.DisplayName())
	assert.Equal(t, "ACME", renderer.got.Client.Name)
	assert.Len(t, renderer.got.Lines, 2)

	ubl, err := uc.InvoiceUBL(ctx, inv.ID)
	require.NoError(t, err)
	sum := sha256.Sum256(ubl.Data)
	assert.Equal(t, hex.EncodeToString(sum[:]), ubl.ETag)
	assert.Equal(t, "invoice-2024-0001.xml", ubl.Filename)

	ctxOther := f.user(t, "u2", "EUR")
	_, err = uc.InvoicePDF(ctxOther, inv.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExportUseCase(t *testing.T) {
	f := newFixture(t)
	ctx := f.user(t, "u1", "EUR")
	clientID := f.client(t, ctx, "ACME")
	for _, date := range []string{"2024-01-15", "2024-02-15", "2023-11-01"} {
		_, err := f.invoices.CreateInvoice(ctx, scenarioRequest(clientID, date))
		require.NoError(t, err)
	}

	sheet := &fakeSpreadsheet{}
	uc := billing.NewExportUseCase(f.store.Invoices(), f.store.Clients(), sheet, func() time.Time { return fixedNow })

	doc, err := uc.ExportYear(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, "invoices-2024.xlsx", doc.Filename)
	assert.Equal(t, "Facturas 2024", sheet.title)
	require.Len(t, sheet.rows, 2)
	assert.Equal(t, "2024-0001", sheet.rows[0].Invoice.InvoiceNumber)
	assert.Equal(t, "2024-0002", sheet.rows[1].Invoice.InvoiceNumber)
	assert.Equal(t, "ACME", sheet.rows[0].ClientName)

	_, err = uc.ExportYear(ctx, -5)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
