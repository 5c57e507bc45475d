package dto

// DatasetCreateInput là input để tạo Dataset
type DatasetCreateInput struct {
	Name        string `json:"name" validate:"required,no_xss"`                    // Tên dataset
	Category    string `json:"category,omitempty" validate:"omitempty,no_xss"`     // Nhóm chủ đề
	Description string `json:"description,omitempty" validate:"omitempty,no_xss"`  // Mô tả
	Source      string `json:"source,omitempty" validate:"omitempty,no_xss"`       // Nguồn dữ liệu
	SourceURL   string `json:"sourceUrl,omitempty"`                                // URL nguồn
	Public      bool   `json:"public"`                                             // true = mọi principal đều đọc được
}

// DatasetUpdateInput là input để cập nhật Dataset
type DatasetUpdateInput struct {
	Name        *string `json:"name,omitempty" validate:"omitempty,no_xss"`
	Category    *string `json:"category,omitempty" validate:"omitempty,no_xss"`
	Description *string `json:"description,omitempty" validate:"omitempty,no_xss"`
	Source      *string `json:"source,omitempty" validate:"omitempty,no_xss"`
	SourceURL   *string `json:"sourceUrl,omitempty"`
	Public      *bool   `json:"public,omitempty"`
}
