package coverage

// Provider is the provider dimension: one row per FCC provider ID.
// BrandName is overwritten on re-import (latest file wins).
type Provider struct {
	ProviderID int64   `gorm:"primaryKey" json:"provider_id"`
	BrandName  *string `json:"brand_name"`
}

func (Provider) TableName() string {
	return "coverage.providers"
}

// CensusBlock holds one census block polygon in EPSG:4326. The block set is
// replaced wholesale on every geometry import, never merged incrementally.
type CensusBlock struct {
	BlockID  int64  `gorm:"primaryKey" json:"block_id"`
	Geometry string `gorm:"type:geometry(MultiPolygon,4326)" json:"-"`
}

func (CensusBlock) TableName() string {
	return "coverage.census_blocks"
}

// BroadbandRecord is one provider's claimed availability at one location within
// one census block. Rows are created once and never updated; the natural key
// (provider_id, location_id, block_id) is enforced by a unique index.
//
// BlockID deliberately carries no foreign key: coverage files and the block
// geometry archive import independently and in either order, so referential
// pairing happens at query time via the inner join.
type BroadbandRecord struct {
	ID              int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	FRN             int64  `gorm:"column:frn" json:"frn"`
	ProviderID      int64  `gorm:"index:idx_broadband_natural_key,unique" json:"provider_id"`
	LocationID      int64  `gorm:"index:idx_broadband_natural_key,unique" json:"location_id"`
	Technology      int    `json:"technology"`
	MaxDownloadMbps int    `gorm:"column:max_download_mbps" json:"max_download_mbps"`
	MaxUploadMbps   int    `gorm:"column:max_upload_mbps" json:"max_upload_mbps"`
	LowLatency      bool   `json:"low_latency"`
	ServiceClass    string `json:"service_class"`
	StateCode       string `gorm:"type:varchar(2)" json:"state_code"`
	BlockID         int64  `gorm:"index:idx_broadband_natural_key,unique" json:"block_id"`
	H3Cell          string `gorm:"column:h3_cell" json:"h3_cell"`
}

func (BroadbandRecord) TableName() string {
	return "coverage.broadband_data"
}
