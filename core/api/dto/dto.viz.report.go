package dto

import (
	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
)

// ReportCreateInput là input để tạo Report
type ReportCreateInput struct {
	Name             string             `json:"name" validate:"required,no_xss"` // Tên report
	ShowHeader       bool               `json:"showHeader"`
	Title            string             `json:"title,omitempty" validate:"omitempty,no_xss"`
	SubTitle         string             `json:"subTitle,omitempty" validate:"omitempty,no_xss"`
	Rows             []models.ReportRow `json:"rows,omitempty"` // Item dạng tagged, chấp nhận cả dạng legacy
	BackgroundColor  string             `json:"backgroundColor,omitempty"`
	TitleColor       string             `json:"titleColor,omitempty"`
	DescriptionColor string             `json:"descriptionColor,omitempty"`
	DateColor        string             `json:"dateColor,omitempty"`
	Public           bool               `json:"public"`
	CreatedDate      string             `json:"createdDate,omitempty"`
}

// ReportUpdateInput là input để cập nhật Report
type ReportUpdateInput struct {
	Name             *string             `json:"name,omitempty" validate:"omitempty,no_xss"`
	ShowHeader       *bool               `json:"showHeader,omitempty"`
	Title            *string             `json:"title,omitempty" validate:"omitempty,no_xss"`
	SubTitle         *string             `json:"subTitle,omitempty" validate:"omitempty,no_xss"`
	Rows             *[]models.ReportRow `json:"rows,omitempty"`
	BackgroundColor  *string             `json:"backgroundColor,omitempty"`
	TitleColor       *string             `json:"titleColor,omitempty"`
	DescriptionColor *string             `json:"descriptionColor,omitempty"`
	DateColor        *string             `json:"dateColor,omitempty"`
	Public           *bool               `json:"public,omitempty"`
	CreatedDate      *string             `json:"createdDate,omitempty"`
}
