package dte

import (
	"strings"
	"testing"
	"time"

	"erp-backend/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeTotals(t *testing.T) {
	tests := []struct {
		gross string
		net   string
		tax   string
	}{
		{"119000", "100000", "19000"},
		{"100", "84", "16"},
		{"1", "1", "0"},
		{"2380", "2000", "380"},
	}

	for _, tt := range tests {
		totals := ComputeTotals(decimal.RequireFromString(tt.gross))
		assert.Equal(t, tt.net, totals.Net.StringFixed(0), "net of %s", tt.gross)
		assert.Equal(t, tt.tax, totals.Tax.StringFixed(0), "tax of %s", tt.gross)
		assert.Equal(t, tt.gross, totals.Total.StringFixed(0), "total of %s", tt.gross)
	}
}

func testDefaults() model.CompanyProfile {
	return model.CompanyProfile{
		CompanyRUT:   "76162804-6",
		CompanyName:  "Empresa Demo Ltda",
		BusinessLine: "Servicios Tecnológicos",
		ActivityCode: "620200",
		Address:      "Av. Las Condes 123",
		Commune:      "Las Condes",
		City:         "Santiago",
		Phone:        "+56 2 2345 6789",
		Email:        "contacto@empresa.cl",
	}
}

func renderInvoice() *model.Invoice {
	return &model.Invoice{
		ID:           1,
		IssueDate:    time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		Counterparty: "Proveedor Uno S.A.",
		TotalAmount:  decimal.NewFromInt(119000),
		Items: []model.InvoiceItem{
			{
				Description: "Servicio de mantención",
				Quantity:    decimal.NewFromInt(2),
				UnitPrice:   decimal.NewFromInt(50000),
				Total:       decimal.NewFromInt(100000),
			},
			{
				Description: "Repuestos",
				Quantity:    decimal.NewFromInt(1),
				UnitPrice:   decimal.NewFromInt(19000),
				Total:       decimal.NewFromInt(19000),
			},
		},
	}
}

func TestRenderEmbedsDocumentIdentity(t *testing.T) {
	r := NewRenderer(testDefaults())
	now := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	doc := r.Render(renderInvoice(), TypeFactura, 101, nil, now)

	assert.Equal(t, int64(101), doc.Folio)
	assert.Equal(t, TypeFactura, doc.Type)
	assert.Equal(t, now, doc.Stamped)

	assert.Contains(t, doc.XML, `<Documento ID="MiPE101">`)
	assert.Contains(t, doc.XML, "<TipoDTE>33</TipoDTE>")
	assert.Contains(t, doc.XML, "<Folio>101</Folio>")
	assert.Contains(t, doc.XML, "<FchEmis>2026-01-15</FchEmis>")
	assert.Contains(t, doc.XML, "<TSTED>2026-02-01T12:00:00Z</TSTED>")
}

func TestRenderUsesIssuerDefaultsWithoutProfile(t *testing.T) {
	r := NewRenderer(testDefaults())

	doc := r.Render(renderInvoice(), TypeFactura, 1, nil, time.Now())

	assert.Contains(t, doc.XML, "<RUTEmisor>76162804-6</RUTEmisor>")
	assert.Contains(t, doc.XML, "<RznSoc><![CDATA[Empresa Demo Ltda]]></RznSoc>")
}

func TestRenderPrefersActiveProfile(t *testing.T) {
	r := NewRenderer(testDefaults())
	profile := &model.CompanyProfile{
		CompanyRUT:   "11111111-1",
		CompanyName:  "Otra Empresa SpA",
		BusinessLine: "Comercio",
	}

	doc := r.Render(renderInvoice(), TypeBoleta, 1, profile, time.Now())

	assert.Contains(t, doc.XML, "<RUTEmisor>11111111-1</RUTEmisor>")
	assert.NotContains(t, doc.XML, "76162804-6")
}

func TestRenderReceiverFallsBackToPlaceholderRUT(t *testing.T) {
	r := NewRenderer(testDefaults())
	inv := renderInvoice()
	inv.TaxID = nil

	doc := r.Render(inv, TypeFactura, 1, nil, time.Now())
	assert.Contains(t, doc.XML, "<RUTRecep>66666666-6</RUTRecep>")

	taxID := "77777777-7"
	inv.TaxID = &taxID
	doc = r.Render(inv, TypeFactura, 1, nil, time.Now())
	assert.Contains(t, doc.XML, "<RUTRecep>77777777-7</RUTRecep>")
}

func TestRenderTotalsDecomposition(t *testing.T) {
	r := NewRenderer(testDefaults())

	doc := r.Render(renderInvoice(), TypeFactura, 1, nil, time.Now())

	assert.Contains(t, doc.XML, "<MntNeto>100000</MntNeto>")
	assert.Contains(t, doc.XML, "<TasaIVA>19</TasaIVA>")
	assert.Contains(t, doc.XML, "<IVA>19000</IVA>")
	assert.Contains(t, doc.XML, "<MntTotal>119000</MntTotal>")
}

func TestRenderPreservesItemOrder(t *testing.T) {
	r := NewRenderer(testDefaults())

	doc := r.Render(renderInvoice(), TypeFactura, 1, nil, time.Now())

	assert.Equal(t, 2, strings.Count(doc.XML, "<Detalle>"))
	first := strings.Index(doc.XML, "Servicio de mantención")
	second := strings.Index(doc.XML, "Repuestos")
	require.Greater(t, first, 0)
	require.Greater(t, second, 0)
	assert.Less(t, first, second)
	assert.Contains(t, doc.XML, "<NroLinDet>1</NroLinDet>")
	assert.Contains(t, doc.XML, "<NroLinDet>2</NroLinDet>")
}

func TestRenderItemDefaults(t *testing.T) {
	r := NewRenderer(testDefaults())
	inv := renderInvoice()
	inv.Items = []model.InvoiceItem{{UnitPrice: decimal.NewFromInt(500)}}

	doc := r.Render(inv, TypeFactura, 1, nil, time.Now())

	assert.Contains(t, doc.XML, "<NmbItem><![CDATA[Producto/Servicio]]></NmbItem>")
	assert.Contains(t, doc.XML, "<QtyItem>1</QtyItem>")
	assert.Contains(t, doc.XML, "<UnmdItem>UN</UnmdItem>")
	assert.Contains(t, doc.XML, "<MontoItem>500</MontoItem>")
}

func TestRenderCAFRangeCoversFolio(t *testing.T) {
	r := NewRenderer(testDefaults())

	doc := r.Render(renderInvoice(), TypeFactura, 200, nil, time.Now())

	assert.Contains(t, doc.XML, "<RNG><D>200</D><H>1199</H></RNG>")
}
