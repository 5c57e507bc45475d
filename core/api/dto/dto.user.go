package dto

// UserProfileUpdateInput là input để cập nhật hồ sơ người dùng trong danh bạ
type UserProfileUpdateInput struct {
	Name string `json:"name" validate:"required,no_xss"` // Tên hiển thị
}
