package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dataset - Nguồn dữ liệu dạng bảng
// Mỗi dataset thuộc về duy nhất một owner; nội dung chỉ owner được sửa
type Dataset struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name        string             `json:"name" bson:"name"`                               // Tên dataset
	Category    string             `json:"category,omitempty" bson:"category,omitempty"`   // Phân loại
	Description string             `json:"description,omitempty" bson:"description,omitempty"`
	Source      string             `json:"source,omitempty" bson:"source,omitempty"`       // Nguồn dữ liệu (tên nhà cung cấp)
	SourceURL   string             `json:"sourceUrl,omitempty" bson:"sourceUrl,omitempty"` // URL nguồn dữ liệu
	Owner       string             `json:"owner" bson:"owner" index:"single:1"`            // Principal sở hữu
	Public      bool               `json:"public" bson:"public" index:"single:1"`          // true = mọi principal đều đọc được
	CreatedAt   int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt   int64              `json:"updatedAt" bson:"updatedAt"`
}
