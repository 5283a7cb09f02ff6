package dte

import (
	"fmt"
	"strings"
	"time"

	"erp-backend/internal/model"

	"github.com/shopspring/decimal"
)

// IVARate is the fixed Chilean VAT rate applied when decomposing gross totals.
const IVARate = "0.19"

// Fixed receiver placeholders used when the invoice lacks counterparty details.
const (
	defaultReceiverRUT   = "66666666-6"
	defaultReceiverGiro  = "Giro Comercial"
	defaultReceiverAddr  = "Dirección Cliente"
	defaultReceiverComna = "Comuna Cliente"
	defaultReceiverCity  = "Santiago"
	defaultReceiverMail  = "cliente@email.com"
)

// Totals is the monetary decomposition embedded in the document.
type Totals struct {
	Net   decimal.Decimal
	Tax   decimal.Decimal
	Total decimal.Decimal
}

// Document is a rendered electronic tax document ready for submission.
type Document struct {
	XML     string
	Folio   int64
	Type    DocumentType
	Totals  Totals
	Stamped time.Time // generation timestamp embedded in the TED block
}

// ComputeTotals decomposes a gross amount at the fixed IVA rate:
// net = round(total / 1.19), tax = round(total - net). Round is
// half-away-from-zero, which for these positive amounts matches the
// original system's Math.round.
func ComputeTotals(gross decimal.Decimal) Totals {
	rate := decimal.RequireFromString(IVARate)
	net := gross.Div(decimal.NewFromInt(1).Add(rate)).Round(0)
	tax := gross.Sub(net).Round(0)
	return Totals{Net: net, Tax: tax, Total: net.Add(tax)}
}

// Renderer turns a validated invoice plus issuer profile into the SII DTE XML.
// It is a pure function of its inputs except for the generation timestamp,
// which the caller supplies.
type Renderer struct {
	defaults model.CompanyProfile
}

// NewRenderer builds a renderer with the issuer defaults substituted whenever
// no active company profile exists.
func NewRenderer(defaults model.CompanyProfile) *Renderer {
	return &Renderer{defaults: defaults}
}

// Render produces the full document for an invoice. profile may be nil; the
// configured defaults are used so generation never blocks on missing issuer
// configuration.
func (r *Renderer) Render(inv *model.Invoice, docType DocumentType, folio int64, profile *model.CompanyProfile, now time.Time) Document {
	issuer := r.defaults
	if profile != nil {
		issuer = *profile
	}

	issueDate := inv.IssueDate
	if issueDate.IsZero() {
		issueDate = now
	}
	fechaEmision := issueDate.Format("2006-01-02")

	receiverRUT := defaultReceiverRUT
	if inv.TaxID != nil && *inv.TaxID != "" {
		receiverRUT = *inv.TaxID
	}

	totals := ComputeTotals(inv.TotalAmount)
	taxRatePct := decimal.RequireFromString(IVARate).Mul(decimal.NewFromInt(100)).Round(0)

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<DTE version=\"1.0\" xmlns=\"http://www.sii.cl/SiiDte\">\n")
	fmt.Fprintf(&b, "    <Documento ID=\"MiPE%d\">\n", folio)
	b.WriteString("        <Encabezado>\n")
	b.WriteString("            <IdDoc>\n")
	fmt.Fprintf(&b, "                <TipoDTE>%d</TipoDTE>\n", docType)
	fmt.Fprintf(&b, "                <Folio>%d</Folio>\n", folio)
	fmt.Fprintf(&b, "                <FchEmis>%s</FchEmis>\n", fechaEmision)
	b.WriteString("                <IndNoRebaja>0</IndNoRebaja>\n")
	b.WriteString("                <TipoDespacho>1</TipoDespacho>\n")
	b.WriteString("                <IndTraslado>1</IndTraslado>\n")
	b.WriteString("                <TpoImpresion>N</TpoImpresion>\n")
	b.WriteString("                <IndServicio>3</IndServicio>\n")
	b.WriteString("                <MntBruto>1</MntBruto>\n")
	b.WriteString("                <FmaPago>1</FmaPago>\n")
	fmt.Fprintf(&b, "                <FchCancel>%s</FchCancel>\n", fechaEmision)
	b.WriteString("            </IdDoc>\n")
	b.WriteString("            <Emisor>\n")
	fmt.Fprintf(&b, "                <RUTEmisor>%s</RUTEmisor>\n", issuer.CompanyRUT)
	fmt.Fprintf(&b, "                <RznSoc><![CDATA[%s]]></RznSoc>\n", issuer.CompanyName)
	fmt.Fprintf(&b, "                <GiroEmis><![CDATA[%s]]></GiroEmis>\n", issuer.BusinessLine)
	fmt.Fprintf(&b, "                <Acteco>%s</Acteco>\n", issuer.ActivityCode)
	b.WriteString("                <CdgSIISucur>81208400</CdgSIISucur>\n")
	fmt.Fprintf(&b, "                <DirOrigen><![CDATA[%s]]></DirOrigen>\n", issuer.Address)
	fmt.Fprintf(&b, "                <CmnaOrigen>%s</CmnaOrigen>\n", issuer.Commune)
	fmt.Fprintf(&b, "                <CiudadOrigen>%s</CiudadOrigen>\n", issuer.City)
	fmt.Fprintf(&b, "                <Telefono>%s</Telefono>\n", issuer.Phone)
	fmt.Fprintf(&b, "                <CorreoEmisor>%s</CorreoEmisor>\n", issuer.Email)
	b.WriteString("            </Emisor>\n")
	b.WriteString("            <Receptor>\n")
	fmt.Fprintf(&b, "                <RUTRecep>%s</RUTRecep>\n", receiverRUT)
	fmt.Fprintf(&b, "                <RznSocRecep><![CDATA[%s]]></RznSocRecep>\n", inv.Counterparty)
	fmt.Fprintf(&b, "                <GiroRecep>%s</GiroRecep>\n", defaultReceiverGiro)
	fmt.Fprintf(&b, "                <DirRecep>%s</DirRecep>\n", defaultReceiverAddr)
	fmt.Fprintf(&b, "                <CmnaRecep>%s</CmnaRecep>\n", defaultReceiverComna)
	fmt.Fprintf(&b, "                <CiudadRecep>%s</CiudadRecep>\n", defaultReceiverCity)
	fmt.Fprintf(&b, "                <CorreoRecep>%s</CorreoRecep>\n", defaultReceiverMail)
	b.WriteString("            </Receptor>\n")
	b.WriteString("            <Totales>\n")
	fmt.Fprintf(&b, "                <MntNeto>%s</MntNeto>\n", totals.Net.StringFixed(0))
	b.WriteString("                <MntExe>0</MntExe>\n")
	fmt.Fprintf(&b, "                <TasaIVA>%s</TasaIVA>\n", taxRatePct.StringFixed(0))
	fmt.Fprintf(&b, "                <IVA>%s</IVA>\n", totals.Tax.StringFixed(0))
	fmt.Fprintf(&b, "                <MntTotal>%s</MntTotal>\n", totals.Total.StringFixed(0))
	b.WriteString("            </Totales>\n")
	b.WriteString("        </Encabezado>\n")

	for i, item := range inv.Items {
		writeDetail(&b, i+1, item)
	}

	firstItem := "Servicios"
	if len(inv.Items) > 0 && inv.Items[0].Description != "" {
		firstItem = inv.Items[0].Description
	}

	b.WriteString("        <TED version=\"1.0\">\n")
	b.WriteString("            <DD>\n")
	fmt.Fprintf(&b, "                <RE>%s</RE>\n", issuer.CompanyRUT)
	fmt.Fprintf(&b, "                <TD>%d</TD>\n", docType)
	fmt.Fprintf(&b, "                <F>%d</F>\n", folio)
	fmt.Fprintf(&b, "                <FE>%s</FE>\n", fechaEmision)
	fmt.Fprintf(&b, "                <RR>%s</RR>\n", receiverRUT)
	fmt.Fprintf(&b, "                <RSR><![CDATA[%s]]></RSR>\n", inv.Counterparty)
	fmt.Fprintf(&b, "                <MNT>%s</MNT>\n", totals.Total.StringFixed(0))
	fmt.Fprintf(&b, "                <IT1>%s</IT1>\n", firstItem)
	b.WriteString("                <CAF version=\"1.0\">\n")
	b.WriteString("                    <DA>\n")
	fmt.Fprintf(&b, "                        <RE>%s</RE>\n", issuer.CompanyRUT)
	fmt.Fprintf(&b, "                        <RS><![CDATA[%s]]></RS>\n", issuer.CompanyName)
	fmt.Fprintf(&b, "                        <TD>%d</TD>\n", docType)
	fmt.Fprintf(&b, "                        <RNG><D>%d</D><H>%d</H></RNG>\n", folio, folio+999)
	fmt.Fprintf(&b, "                        <FA>%s</FA>\n", fechaEmision)
	b.WriteString("                        <RSAPK><M><!-- RSA Key Mock --></M><E><!-- RSA Exponent Mock --></E></RSAPK>\n")
	b.WriteString("                        <IDK>300</IDK>\n")
	b.WriteString("                    </DA>\n")
	b.WriteString("                    <FRMA algoritmo=\"SHA1withRSA\"><!-- Firma Mock --></FRMA>\n")
	b.WriteString("                </CAF>\n")
	fmt.Fprintf(&b, "                <TSTED>%s</TSTED>\n", now.UTC().Format(time.RFC3339))
	b.WriteString("            </DD>\n")
	b.WriteString("            <FRMT algoritmo=\"SHA1withRSA\"><!-- Firma Electrónica Mock --></FRMT>\n")
	b.WriteString("        </TED>\n")
	b.WriteString("    </Documento>\n")
	b.WriteString("</DTE>")

	return Document{
		XML:     b.String(),
		Folio:   folio,
		Type:    docType,
		Totals:  totals,
		Stamped: now,
	}
}

// writeDetail emits one numbered line-item block, preserving the invoice's
// original item order.
func writeDetail(b *strings.Builder, line int, item model.InvoiceItem) {
	qty := item.Quantity
	if qty.IsZero() {
		qty = decimal.NewFromInt(1)
	}
	price := item.UnitPrice
	total := item.Total
	if total.IsZero() {
		total = qty.Mul(price)
	}

	desc := item.Description
	if desc == "" {
		desc = "Producto/Servicio"
	}
	category := ""
	if item.Category != nil {
		category = *item.Category
	}
	unit := "UN"
	if item.Unit != nil && *item.Unit != "" {
		unit = *item.Unit
	}

	b.WriteString("        <Detalle>\n")
	fmt.Fprintf(b, "            <NroLinDet>%d</NroLinDet>\n", line)
	b.WriteString("            <IndExe>0</IndExe>\n")
	fmt.Fprintf(b, "            <NmbItem><![CDATA[%s]]></NmbItem>\n", desc)
	fmt.Fprintf(b, "            <DscItem><![CDATA[%s]]></DscItem>\n", category)
	fmt.Fprintf(b, "            <QtyItem>%s</QtyItem>\n", qty.String())
	fmt.Fprintf(b, "            <UnmdItem>%s</UnmdItem>\n", unit)
	fmt.Fprintf(b, "            <PrcItem>%s</PrcItem>\n", price.String())
	fmt.Fprintf(b, "            <MontoItem>%s</MontoItem>\n", total.Round(0).StringFixed(0))
	b.WriteString("        </Detalle>\n")
}
