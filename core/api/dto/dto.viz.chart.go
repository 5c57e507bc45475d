package dto

// ChartCreateInput là input để tạo Chart
type ChartCreateInput struct {
	Name                      string                 `json:"name" validate:"required,no_xss"`               // Tên chart
	VizType                   string                 `json:"vizType,omitempty" validate:"omitempty,no_xss"` // Loại visualization
	DatasetID                 string                 `json:"datasetId" validate:"required"`                 // Hex ObjectID của dataset
	Mapping                   map[string]interface{} `json:"mapping,omitempty"`
	VizOptions                map[string]interface{} `json:"vizOptions,omitempty"`
	AppliedFilters            map[string]interface{} `json:"appliedFilters,omitempty"`
	EnabledFilterOptionGroups []string               `json:"enabledFilterOptionGroups,omitempty"`
	Public                    bool                   `json:"public"`
	IsMappingValid            *bool                  `json:"isMappingValid,omitempty"` // nil được hiểu là true
	IsAIAssisted              bool                   `json:"isAIAssisted"`
}

// ChartUpdateInput là input để cập nhật Chart
type ChartUpdateInput struct {
	Name                      *string                 `json:"name,omitempty" validate:"omitempty,no_xss"`
	VizType                   *string                 `json:"vizType,omitempty" validate:"omitempty,no_xss"`
	DatasetID                 *string                 `json:"datasetId,omitempty"`
	Mapping                   *map[string]interface{} `json:"mapping,omitempty"`
	VizOptions                *map[string]interface{} `json:"vizOptions,omitempty"`
	AppliedFilters            *map[string]interface{} `json:"appliedFilters,omitempty"`
	EnabledFilterOptionGroups *[]string               `json:"enabledFilterOptionGroups,omitempty"`
	Public                    *bool                   `json:"public,omitempty"`
	IsMappingValid            *bool                   `json:"isMappingValid,omitempty"`
	IsAIAssisted              *bool                   `json:"isAIAssisted,omitempty"`
}
