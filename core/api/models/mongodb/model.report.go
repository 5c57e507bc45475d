package models

import (
	"encoding/json"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/zimmerman-team/dx.server/core/utility"
)

// Các loại phần tử trong row của report
const (
	RowItemKindChartRef = "chart-ref" // Tham chiếu tới một chart theo id
	RowItemKindLiteral  = "literal"   // Nội dung literal (text, rich content, ...)
)

// RowItem là một phần tử trong row của report.
// Phần tử hoặc là tham chiếu chart (Kind = chart-ref, ChartID chứa hex ObjectID),
// hoặc là nội dung literal (Kind = literal, Value chứa nội dung).
//
// Dữ liệu cũ lưu phần tử dưới dạng giá trị trần không có tag phân loại:
// chuỗi là ObjectID hex hợp lệ được hiểu là tham chiếu chart, mọi giá trị khác
// là literal. Decode (JSON lẫn BSON) chấp nhận cả hai dạng; encode luôn ghi
// dạng có tag.
type RowItem struct {
	Kind    string      `json:"kind" bson:"kind"`
	ChartID string      `json:"chartId,omitempty" bson:"chartId,omitempty"`
	Value   interface{} `json:"value,omitempty" bson:"value,omitempty"`
}

// ReportRow là một hàng trong report, chứa danh sách các phần tử theo thứ tự
type ReportRow struct {
	Items []RowItem `json:"items" bson:"items"`
}

// Report - Báo cáo tổng hợp, ghép các chart theo từng hàng
type Report struct {
	ID              primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Name            string             `json:"name" bson:"name"` // Tên report
	ShowHeader      bool               `json:"showHeader" bson:"showHeader"`
	Title           string             `json:"title,omitempty" bson:"title,omitempty"`
	SubTitle        string             `json:"subTitle,omitempty" bson:"subTitle,omitempty"`
	Rows            []ReportRow        `json:"rows" bson:"rows"`
	BackgroundColor string             `json:"backgroundColor,omitempty" bson:"backgroundColor,omitempty"`
	TitleColor      string             `json:"titleColor,omitempty" bson:"titleColor,omitempty"`
	DescriptionColor string            `json:"descriptionColor,omitempty" bson:"descriptionColor,omitempty"`
	DateColor       string             `json:"dateColor,omitempty" bson:"dateColor,omitempty"`
	Owner           string             `json:"owner" bson:"owner" index:"single:1"`   // Principal sở hữu
	Public          bool               `json:"public" bson:"public" index:"single:1"` // true = mọi principal đều đọc được
	CreatedDate     string             `json:"createdDate,omitempty" bson:"createdDate,omitempty"` // Ngày tạo hiển thị trên report (được giữ nguyên khi nhân bản)
	CreatedAt       int64              `json:"createdAt" bson:"createdAt"`
	UpdatedAt       int64              `json:"updatedAt" bson:"updatedAt"`
}

// NewChartRefItem tạo phần tử tham chiếu chart
func NewChartRefItem(chartID string) RowItem {
	return RowItem{Kind: RowItemKindChartRef, ChartID: chartID}
}

// NewLiteralItem tạo phần tử literal
func NewLiteralItem(value interface{}) RowItem {
	return RowItem{Kind: RowItemKindLiteral, Value: value}
}

// IsChartRef kiểm tra phần tử có phải tham chiếu chart hay không
func (it RowItem) IsChartRef() bool {
	return it.Kind == RowItemKindChartRef
}

// classifyLegacyItem phân loại một chuỗi trần theo quy ước dữ liệu cũ:
// ObjectID hex hợp lệ = tham chiếu chart, còn lại = literal
func classifyLegacyItem(s string) RowItem {
	if utility.IsValidObjectID(s) {
		return NewChartRefItem(s)
	}
	return NewLiteralItem(s)
}

// MarshalJSON luôn ghi dạng có tag
func (it RowItem) MarshalJSON() ([]byte, error) {
	if it.IsChartRef() {
		return json.Marshal(map[string]interface{}{
			"kind":    RowItemKindChartRef,
			"chartId": it.ChartID,
		})
	}
	return json.Marshal(map[string]interface{}{
		"kind":  RowItemKindLiteral,
		"value": it.Value,
	})
}

// UnmarshalJSON chấp nhận cả dạng có tag lẫn giá trị trần của dữ liệu cũ
func (it *RowItem) UnmarshalJSON(b []byte) error {
	// Chuỗi trần (dữ liệu cũ)
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*it = classifyLegacyItem(s)
		return nil
	}

	// Object có tag kind
	var aux struct {
		Kind    string      `json:"kind"`
		ChartID string      `json:"chartId"`
		Value   interface{} `json:"value"`
	}
	if err := json.Unmarshal(b, &aux); err == nil {
		if aux.Kind == RowItemKindChartRef || aux.Kind == RowItemKindLiteral {
			it.Kind = aux.Kind
			it.ChartID = aux.ChartID
			it.Value = aux.Value
			return nil
		}
	}

	// Mọi giá trị khác là literal
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*it = NewLiteralItem(v)
	return nil
}

// MarshalBSONValue luôn ghi dạng document có tag
func (it RowItem) MarshalBSONValue() (bsontype.Type, []byte, error) {
	type rowItemDoc struct {
		Kind    string      `bson:"kind"`
		ChartID string      `bson:"chartId,omitempty"`
		Value   interface{} `bson:"value,omitempty"`
	}
	return bson.MarshalValue(rowItemDoc{Kind: it.Kind, ChartID: it.ChartID, Value: it.Value})
}

// UnmarshalBSONValue chấp nhận cả document có tag lẫn giá trị trần của dữ liệu cũ
func (it *RowItem) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}

	switch t {
	case bsontype.String:
		s, _ := rv.StringValueOK()
		*it = classifyLegacyItem(s)
		return nil

	case bsontype.EmbeddedDocument:
		var doc bson.Raw
		if err := rv.Unmarshal(&doc); err != nil {
			return err
		}
		if kindVal, err := doc.LookupErr("kind"); err == nil {
			if kind, ok := kindVal.StringValueOK(); ok && (kind == RowItemKindChartRef || kind == RowItemKindLiteral) {
				var aux struct {
					Kind    string      `bson:"kind"`
					ChartID string      `bson:"chartId"`
					Value   interface{} `bson:"value"`
				}
				if err := rv.Unmarshal(&aux); err != nil {
					return err
				}
				it.Kind = aux.Kind
				it.ChartID = aux.ChartID
				it.Value = aux.Value
				return nil
			}
		}
		// Document không có tag: coi là literal
		var m bson.M
		if err := rv.Unmarshal(&m); err != nil {
			return err
		}
		*it = NewLiteralItem(m)
		return nil

	case bsontype.Null:
		*it = NewLiteralItem(nil)
		return nil

	default:
		var v interface{}
		if err := rv.Unmarshal(&v); err != nil {
			return err
		}
		*it = NewLiteralItem(v)
		return nil
	}
}

// ChartRefs trả về danh sách id các chart được tham chiếu trong report, theo thứ tự gặp
func (r *Report) ChartRefs() []string {
	var refs []string
	for _, row := range r.Rows {
		for _, item := range row.Items {
			if item.IsChartRef() {
				refs = append(refs, item.ChartID)
			}
		}
	}
	return refs
}
