package model

import "time"

// Operating environment constants for the tax authority integration
const (
	EnvironmentCertification = "certificacion"
	EnvironmentProduction    = "produccion"
)

// CompanyProfile holds the issuer configuration used when rendering electronic
// tax documents. At most one row is active at a time; when none exists the
// renderer falls back to the defaults carried by the process Config.
type CompanyProfile struct {
	ID           int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	CompanyRUT   string    `gorm:"column:rut_empresa;type:varchar(20);uniqueIndex;not null" json:"rut_empresa"`
	CompanyName  string    `gorm:"column:nombre_empresa;type:text;not null" json:"nombre_empresa"`
	BusinessLine string    `gorm:"column:giro_empresa;type:text" json:"giro_empresa"`
	ActivityCode string    `gorm:"column:actividad_economica;type:text" json:"actividad_economica"`
	Address      string    `gorm:"column:direccion;type:text" json:"direccion"`
	Commune      string    `gorm:"column:comuna;type:text" json:"comuna"`
	City         string    `gorm:"column:ciudad;type:text" json:"ciudad"`
	Phone        string    `gorm:"column:telefono;type:varchar(20)" json:"telefono"`
	Email        string    `gorm:"column:email;type:varchar(100)" json:"email"`
	Environment  string    `gorm:"column:ambiente;type:varchar(20);not null;default:'certificacion'" json:"ambiente"`
	Active       bool      `gorm:"column:activo;not null;default:true;index" json:"activo"`
	UpdatedAt    time.Time `gorm:"column:fecha_actualizacion;autoUpdateTime" json:"fecha_actualizacion"`
}

func (CompanyProfile) TableName() string { return "sii_configuracion" }
