package models

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Chart - Biểu đồ gắn với một dataset
// DatasetID là tham chiếu không sở hữu: chart có thể trỏ tới dataset
// của principal khác nếu dataset đó public
type Chart struct {
	ID                        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name                      string             `json:"name" bson:"name"`                             // Tên chart
	VizType                   string             `json:"vizType,omitempty" bson:"vizType,omitempty"`   // Loại visualization (bar, line, ...)
	DatasetID                 string             `json:"datasetId" bson:"datasetId" index:"single:1"`  // Tham chiếu dataset (hex ObjectID)
	Mapping                   bson.M             `json:"mapping,omitempty" bson:"mapping,omitempty"`   // Mapping cột dữ liệu vào trục/chiều
	VizOptions                bson.M             `json:"vizOptions,omitempty" bson:"vizOptions,omitempty"`
	AppliedFilters            bson.M             `json:"appliedFilters,omitempty" bson:"appliedFilters,omitempty"`
	EnabledFilterOptionGroups []string           `json:"enabledFilterOptionGroups,omitempty" bson:"enabledFilterOptionGroups,omitempty"`
	Owner                     string             `json:"owner" bson:"owner" index:"single:1"`   // Principal sở hữu
	Public                    bool               `json:"public" bson:"public" index:"single:1"` // true = mọi principal đều đọc được
	IsMappingValid            *bool              `json:"isMappingValid,omitempty" bson:"isMappingValid,omitempty"` // nil được hiểu là true
	IsAIAssisted              bool               `json:"isAIAssisted" bson:"isAIAssisted"`
	CreatedAt                 int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt                 int64              `json:"updatedAt" bson:"updatedAt"`
}

// MappingValid trả về giá trị hiệu lực của IsMappingValid (nil = true)
func (c *Chart) MappingValid() bool {
	if c.IsMappingValid == nil {
		return true
	}
	return *c.IsMappingValid
}
