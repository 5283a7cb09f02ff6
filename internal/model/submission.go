package model

import "time"

// MaxSubmissionAttempts caps how many times a document may be (re)sent to the
// tax authority for a single invoice.
const MaxSubmissionAttempts = 3

// DTESubmission records one submission lifecycle for an invoice's electronic
// document: created on the first send, updated in place on every resend.
type DTESubmission struct {
	ID           int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	InvoiceID    int64      `gorm:"column:factura_id;not null;index" json:"factura_id"`
	Invoice      *Invoice   `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE" json:"-"`
	DocumentType int        `gorm:"column:tipo_dte;not null" json:"tipo_dte"`
	Folio        int64      `gorm:"column:folio;not null" json:"folio"`
	SIIStatus    string     `gorm:"column:estado_sii;type:varchar(50);index" json:"estado_sii"`
	SIIMessage   string     `gorm:"column:glosa_sii;type:text" json:"glosa_sii"`
	TrackID      string     `gorm:"column:track_id;type:varchar(100)" json:"track_id"`
	SentAt       time.Time  `gorm:"column:fecha_envio;not null" json:"fecha_envio"`
	RespondedAt  *time.Time `gorm:"column:fecha_respuesta_sii" json:"fecha_respuesta_sii"`
	RequestXML   string     `gorm:"column:xml_enviado;type:text" json:"-"`
	ResponseJSON string     `gorm:"column:xml_respuesta;type:text" json:"-"`
	Attempts     int        `gorm:"column:intentos_envio;not null;default:1" json:"intentos_envio"`
	CreatedAt    time.Time  `gorm:"column:fecha_creacion;autoCreateTime" json:"fecha_creacion"`
}

func (DTESubmission) TableName() string { return "dte_seguimiento" }
