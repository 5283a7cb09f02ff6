package dte

import (
	"fmt"
	"sort"
	"strings"
)

// DocumentType is the numeric SII code identifying an electronic document class.
type DocumentType int

// Supported document types
const (
	TypeFactura      DocumentType = 33 // Factura Electrónica
	TypeBoleta       DocumentType = 39 // Boleta Electrónica
	TypeGuiaDespacho DocumentType = 52 // Guía de Despacho Electrónica
	TypeNotaDebito   DocumentType = 56 // Nota de Débito Electrónica
	TypeNotaCredito  DocumentType = 61 // Nota de Crédito Electrónica
)

// Category groups document types by their business role.
type Category string

const (
	CategorySale       Category = "venta"
	CategoryAdjustment Category = "ajuste"
	CategoryDispatch   Category = "despacho"
)

// TypeInfo carries the human label and short code of a document type.
type TypeInfo struct {
	Name     string
	Code     string
	Category Category
}

var documentTypes = map[DocumentType]TypeInfo{
	TypeFactura:      {Name: "Factura Electrónica", Code: "FE", Category: CategorySale},
	TypeBoleta:       {Name: "Boleta Electrónica", Code: "BE", Category: CategorySale},
	TypeGuiaDespacho: {Name: "Guía de Despacho Electrónica", Code: "GDE", Category: CategoryDispatch},
	TypeNotaDebito:   {Name: "Nota de Débito Electrónica", Code: "NDE", Category: CategoryAdjustment},
	TypeNotaCredito:  {Name: "Nota de Crédito Electrónica", Code: "NCE", Category: CategoryAdjustment},
}

// Lookup returns the metadata for a document type code.
func Lookup(code int) (TypeInfo, bool) {
	info, ok := documentTypes[DocumentType(code)]
	return info, ok
}

// IsValid reports whether code is a known document type.
func IsValid(code int) bool {
	_, ok := documentTypes[DocumentType(code)]
	return ok
}

// Name returns the human label for a document type, or a fallback for
// unknown codes.
func Name(code int) string {
	if info, ok := documentTypes[DocumentType(code)]; ok {
		return info.Name
	}
	return "Tipo Desconocido"
}

// ValidCodes returns the supported codes in ascending order, for error messages.
func ValidCodes() []int {
	codes := make([]int, 0, len(documentTypes))
	for t := range documentTypes {
		codes = append(codes, int(t))
	}
	sort.Ints(codes)
	return codes
}

// ValidCodesString renders the supported codes as "33, 39, 52, 56, 61".
func ValidCodesString() string {
	codes := ValidCodes()
	parts := make([]string, len(codes))
	for i, c := range codes {
		parts[i] = fmt.Sprintf("%d", c)
	}
	return strings.Join(parts, ", ")
}
