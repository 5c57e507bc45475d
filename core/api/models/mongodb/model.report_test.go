package models

import (
	"encoding/json"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRowItemJSON_LegacyPlainStrings(t *testing.T) {
	chartID := primitive.NewObjectID().Hex()
	raw := `{"rows":[{"items":["` + chartID + `","ghi chú tự do"]}]}`

	var r Report
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		t.Fatalf("unmarshal dữ liệu cũ: %v", err)
	}

	items := r.Rows[0].Items
	if !items[0].IsChartRef() || items[0].ChartID != chartID {
		t.Errorf("chuỗi hex hợp lệ phải thành chart-ref, got %+v", items[0])
	}
	if items[1].IsChartRef() || items[1].Value != "ghi chú tự do" {
		t.Errorf("chuỗi thường phải thành literal, got %+v", items[1])
	}
}

func TestRowItemJSON_TaggedRoundTrip(t *testing.T) {
	chartID := primitive.NewObjectID().Hex()
	src := Report{
		Name: "r",
		Rows: []ReportRow{{Items: []RowItem{
			NewChartRefItem(chartID),
			NewLiteralItem(map[string]interface{}{"text": "x"}),
		}}},
	}

	raw, err := json.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var back Report
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	items := back.Rows[0].Items
	if !items[0].IsChartRef() || items[0].ChartID != chartID {
		t.Errorf("chart-ref không qua được round trip: %+v", items[0])
	}
	if items[1].IsChartRef() {
		t.Errorf("literal bị nhận nhầm thành chart-ref: %+v", items[1])
	}
}

func TestRowItemBSON_LegacyPlainStrings(t *testing.T) {
	chartID := primitive.NewObjectID().Hex()
	legacy := bson.M{
		"name": "old report",
		"rows": []bson.M{{"items": []interface{}{chartID, "ghi chú"}}},
	}
	raw, err := bson.Marshal(legacy)
	if err != nil {
		t.Fatalf("marshal legacy doc: %v", err)
	}

	var r Report
	if err := bson.Unmarshal(raw, &r); err != nil {
		t.Fatalf("unmarshal legacy doc: %v", err)
	}

	items := r.Rows[0].Items
	if !items[0].IsChartRef() || items[0].ChartID != chartID {
		t.Errorf("chuỗi hex trong bson phải thành chart-ref, got %+v", items[0])
	}
	if items[1].IsChartRef() {
		t.Errorf("chuỗi thường trong bson phải thành literal, got %+v", items[1])
	}
}

func TestRowItemBSON_TaggedRoundTrip(t *testing.T) {
	chartID := primitive.NewObjectID().Hex()
	src := Report{
		Name: "r",
		Rows: []ReportRow{{Items: []RowItem{
			NewChartRefItem(chartID),
			NewLiteralItem("text"),
		}}},
	}

	raw, err := bson.Marshal(src)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back Report
	if err := bson.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	items := back.Rows[0].Items
	if !items[0].IsChartRef() || items[0].ChartID != chartID {
		t.Errorf("chart-ref không qua được round trip bson: %+v", items[0])
	}
	if items[1].IsChartRef() || items[1].Value != "text" {
		t.Errorf("literal không qua được round trip bson: %+v", items[1])
	}
}

func TestChartRefs_OrderAndFilter(t *testing.T) {
	id1 := primitive.NewObjectID().Hex()
	id2 := primitive.NewObjectID().Hex()
	r := Report{Rows: []ReportRow{
		{Items: []RowItem{NewChartRefItem(id1), NewLiteralItem("x")}},
		{Items: []RowItem{NewChartRefItem(id2)}},
	}}

	refs := r.ChartRefs()
	if len(refs) != 2 || refs[0] != id1 || refs[1] != id2 {
		t.Errorf("ChartRefs phải trả về đúng thứ tự gặp, got %v", refs)
	}
}

func TestChartMappingValid_NilMeansTrue(t *testing.T) {
	c := Chart{}
	if !c.MappingValid() {
		t.Error("isMappingValid nil phải được hiểu là true")
	}
	f := false
	c.IsMappingValid = &f
	if c.MappingValid() {
		t.Error("isMappingValid=false phải trả về false")
	}
}
