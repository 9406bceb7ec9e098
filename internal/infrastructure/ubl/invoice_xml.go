// Package ubl construye la representación UBL 2.1 de una factura en forma canónica (C14N).
package ubl

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"sort"
	"strconv"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"

	"github.com/jhoicas/facturador-api/internal/application/billing"
	"github.com/jhoicas/facturador-api/internal/domain/entity"
	"github.com/jhoicas/facturador-api/pkg/money"
)

// Namespaces UBL 2.1.
const (
	NsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	NsCac     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	NsCbc     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"
)

const (
	invoiceTypeCommercial = "380"
	unitCodeOne           = "C62"
	taxSchemeVAT          = "VAT"
	dateLayout            = "2006-01-02"
)

var _ billing.InvoiceXMLBuilder = (*XMLBuilder)(nil)

// XMLBuilder implementa billing.InvoiceXMLBuilder con etree. La salida es determinista.
type XMLBuilder struct{}

// NewXMLBuilder crea el builder.
func NewXMLBuilder() *XMLBuilder {
	return &XMLBuilder{}
}

// BuildInvoiceXML genera el XML canónico de la factura.
func (b *XMLBuilder) BuildInvoiceXML(_ context.Context, doc *billing.InvoiceDocument) ([]byte, error) {
	if doc == nil || doc.Invoice == nil || doc.Client == nil || doc.Issuer == nil {
		return nil, fmt.Errorf("ubl: faltan factura, cliente o emisor")
	}

	x := etree.NewDocument()
	root := x.CreateElement("Invoice")
	root.CreateAttr("xmlns", NsInvoice)
	root.CreateAttr("xmlns:cac", NsCac)
	root.CreateAttr("xmlns:cbc", NsCbc)

	inv := doc.Invoice
	cur := inv.Currency

	cbc(root, "UBLVersionID", "2.1")
	cbc(root, "ID", inv.InvoiceNumber)
	cbc(root, "IssueDate", inv.IssueDate.Format(dateLayout))
	cbc(root, "DueDate", inv.DueDate.Format(dateLayout))
	cbc(root, "InvoiceTypeCode", invoiceTypeCommercial)
	if inv.Notes != "" {
		cbc(root, "Note", inv.Notes)
	}
	cbc(root, "DocumentCurrencyCode", cur)

	supplier := root.CreateElement("cac:AccountingSupplierParty")
	writeParty(supplier, doc.Issuer.DisplayName(), doc.Issuer.CompanyAddress, doc.Issuer.VATNumber, doc.Issuer.Email)
	customer := root.CreateElement("cac:AccountingCustomerParty")
	writeParty(customer, doc.Client.Name, doc.Client.Address, doc.Client.VATNumber, doc.Client.Email)

	if inv.PaymentInstructions != "" || doc.Issuer.BankDetails != "" {
		pm := root.CreateElement("cac:PaymentMeans")
		cbc(pm, "PaymentMeansCode", "1")
		cbc(pm, "PaymentDueDate", inv.DueDate.Format(dateLayout))
		if inv.PaymentInstructions != "" {
			cbc(pm, "InstructionNote", inv.PaymentInstructions)
		}
		if doc.Issuer.BankDetails != "" {
			acc := pm.CreateElement("cac:PayeeFinancialAccount")
			cbc(acc, "ID", doc.Issuer.BankDetails)
		}
	}

	writeTaxTotal(root, doc.Lines, inv)

	totals := root.CreateElement("cac:LegalMonetaryTotal")
	amount(totals, "LineExtensionAmount", inv.Subtotal, cur)
	amount(totals, "TaxExclusiveAmount", inv.Subtotal, cur)
	amount(totals, "TaxInclusiveAmount", inv.Total, cur)
	amount(totals, "PayableAmount", inv.Total, cur)

	for i, l := range doc.Lines {
		writeLine(root, i+1, l, cur)
	}

	raw, err := x.WriteToBytes()
	if err != nil {
		return nil, fmt.Errorf("ubl: serializar: %w", err)
	}
	return canonicalize(raw)
}

func canonicalize(data []byte) ([]byte, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	out, err := c14n.Canonicalize(dec)
	if err != nil {
		return nil, fmt.Errorf("ubl: canonicalizar: %w", err)
	}
	return out, nil
}

func cbc(parent *etree.Element, tag, value string) *etree.Element {
	el := parent.CreateElement("cbc:" + tag)
	el.SetText(value)
	return el
}

// amount importe redondeado a la unidad mínima con currencyID.
func amount(parent *etree.Element, tag string, v decimal.Decimal, cur string) {
	el := cbc(parent, tag, money.Plain(v, cur))
	el.CreateAttr("currencyID", cur)
}

func writeParty(parent *etree.Element, name, address, vatNumber, email string) {
	party := parent.CreateElement("cac:Party")
	pn := party.CreateElement("cac:PartyName")
	cbc(pn, "Name", name)
	if address != "" {
		addr := party.CreateElement("cac:PostalAddress")
		cbc(addr, "StreetName", address)
	}
	if vatNumber != "" {
		pts := party.CreateElement("cac:PartyTaxScheme")
		cbc(pts, "CompanyID", vatNumber)
		ts := pts.CreateElement("cac:TaxScheme")
		cbc(ts, "ID", taxSchemeVAT)
	}
	if email != "" {
		contact := party.CreateElement("cac:Contact")
		cbc(contact, "ElectronicMail", email)
	}
}

type taxGroup struct {
	rate    decimal.Decimal
	taxable decimal.Decimal
	tax     decimal.Decimal
}

// writeTaxTotal un TaxSubtotal por tipo impositivo, en orden ascendente de tipo.
func writeTaxTotal(root *etree.Element, lines []*entity.InvoiceLine, inv *entity.Invoice) {
	groups := map[string]*taxGroup{}
	for _, l := range lines {
		key := l.TaxRate.String()
		g, ok := groups[key]
		if !ok {
			g = &taxGroup{rate: l.TaxRate, taxable: decimal.Zero, tax: decimal.Zero}
			groups[key] = g
		}
		base := l.Quantity.Mul(l.UnitPrice)
		g.taxable = g.taxable.Add(base)
		g.tax = g.tax.Add(l.LineTotal.Sub(base))
	}
	ordered := make([]*taxGroup, 0, len(groups))
	for _, g := range groups {
		ordered = append(ordered, g)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].rate.LessThan(ordered[j].rate) })

	tt := root.CreateElement("cac:TaxTotal")
	amount(tt, "TaxAmount", inv.TaxTotal, inv.Currency)
	for _, g := range ordered {
		sub := tt.CreateElement("cac:TaxSubtotal")
		amount(sub, "TaxableAmount", g.taxable, inv.Currency)
		amount(sub, "TaxAmount", g.tax, inv.Currency)
		writeTaxCategory(sub, "cac:TaxCategory", g.rate)
	}
}

func writeTaxCategory(parent *etree.Element, tag string, rate decimal.Decimal) {
	cat := parent.CreateElement(tag)
	cbc(cat, "Percent", rate.String())
	ts := cat.CreateElement("cac:TaxScheme")
	cbc(ts, "ID", taxSchemeVAT)
}

func writeLine(root *etree.Element, n int, l *entity.InvoiceLine, cur string) {
	el := root.CreateElement("cac:InvoiceLine")
	cbc(el, "ID", strconv.Itoa(n))
	qty := cbc(el, "InvoicedQuantity", l.Quantity.String())
	qty.CreateAttr("unitCode", unitCodeOne)
	amount(el, "LineExtensionAmount", l.Quantity.Mul(l.UnitPrice), cur)

	item := el.CreateElement("cac:Item")
	cbc(item, "Description", l.Description)
	cbc(item, "Name", l.Description)
	writeTaxCategory(item, "cac:ClassifiedTaxCategory", l.TaxRate)

	price := el.CreateElement("cac:Price")
	pa := cbc(price, "PriceAmount", l.UnitPrice.String())
	pa.CreateAttr("currencyID", cur)
}
