package model

// FolioSequence backs the per-document-type folio allocator. LastFolio only
// ever moves forward; allocation happens through a single atomic
// UPSERT ... RETURNING statement, never read-then-write.
type FolioSequence struct {
	DocumentType int   `gorm:"column:tipo_dte;primaryKey" json:"tipo_dte"`
	LastFolio    int64 `gorm:"column:ultimo_folio;not null;default:0" json:"ultimo_folio"`
}

func (FolioSequence) TableName() string { return "folio_secuencias" }
