package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/backend"
	"github.com/zimmerman-team/dx.server/core/common"
)

var _ BaseServiceMongo[models.Dataset] = (*fakeStore[models.Dataset])(nil)

// fakeNotifier ghi lại các lần báo nhân bản payload cho data backend
type fakeNotifier struct {
	mu      sync.Mutex
	batches [][]backend.DatasetRename
	err     error
}

func (f *fakeNotifier) NotifyDatasetDuplication(ctx context.Context, renames []backend.DatasetRename) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.batches = append(f.batches, renames)
	return nil
}

type dupFixture struct {
	datasets *fakeStore[models.Dataset]
	charts   *fakeStore[models.Chart]
	reports  *fakeStore[models.Report]
	notifier *fakeNotifier
	svc      *DuplicationService
}

func newDupFixture(peers map[string][]string) *dupFixture {
	f := &dupFixture{
		datasets: newFakeStore[models.Dataset](),
		charts:   newFakeStore[models.Chart](),
		reports:  newFakeStore[models.Report](),
		notifier: &fakeNotifier{},
	}
	visibility := NewVisibilityService(&fakePeerResolver{peers: peers})
	f.svc = NewDuplicationService(f.datasets, f.charts, f.reports, visibility, f.notifier)
	return f
}

// seedPublicGraph tạo đồ thị public của alice: dataset <- chart <- report
func (f *dupFixture) seedPublicGraph(t *testing.T) (models.Dataset, models.Chart, models.Report) {
	t.Helper()
	ctx := context.Background()

	dataset, err := f.datasets.InsertOne(ctx, models.Dataset{
		Name: "World Data", Owner: "alice", Public: true,
	})
	if err != nil {
		t.Fatalf("seed dataset: %v", err)
	}

	chart, err := f.charts.InsertOne(ctx, models.Chart{
		Name: "World Chart", DatasetID: dataset.ID.Hex(), Owner: "alice", Public: true,
	})
	if err != nil {
		t.Fatalf("seed chart: %v", err)
	}

	report, err := f.reports.InsertOne(ctx, models.Report{
		Name: "World Report", Title: "World", BackgroundColor: "#fff",
		Owner: "alice", Public: true,
		Rows: []models.ReportRow{{Items: []models.RowItem{
			models.NewChartRefItem(chart.ID.Hex()),
			models.NewLiteralItem("chú thích"),
		}}},
	})
	if err != nil {
		t.Fatalf("seed report: %v", err)
	}
	return dataset, chart, report
}

func TestDuplicatePublicAssets_AnonymousRejected(t *testing.T) {
	f := newDupFixture(nil)
	_, err := f.svc.DuplicatePublicAssets(context.Background(), common.AnonymousPrincipal)
	if !errors.Is(err, common.ErrUnauthorizedAccess) {
		t.Errorf("principal ẩn danh phải bị từ chối, got err=%v", err)
	}
}

func TestDuplicatePublicAssets_SkipsWhenAlreadyOwningAssets(t *testing.T) {
	f := newDupFixture(nil)
	f.seedPublicGraph(t)
	ctx := context.Background()

	// bob đã sở hữu một chart: gate phải chặn, không side effect
	if _, err := f.charts.InsertOne(ctx, models.Chart{Name: "Mine", Owner: "bob"}); err != nil {
		t.Fatal(err)
	}

	summary, err := f.svc.DuplicatePublicAssets(ctx, "bob")
	if err != nil {
		t.Fatalf("DuplicatePublicAssets: %v", err)
	}
	if !summary.Skipped {
		t.Error("đã sở hữu asset thì phải Skipped=true")
	}
	if n := len(f.datasets.all()); n != 1 {
		t.Errorf("không được copy dataset khi skip, store có %d", n)
	}
	if len(f.notifier.batches) != 0 {
		t.Error("không được báo data backend khi skip")
	}
}

func TestDuplicatePublicAssets_CopiesGraph(t *testing.T) {
	f := newDupFixture(nil)
	srcDataset, srcChart, srcReport := f.seedPublicGraph(t)
	ctx := context.Background()

	// dataset private của alice không được copy
	if _, err := f.datasets.InsertOne(ctx, models.Dataset{Name: "Secret", Owner: "alice", Public: false}); err != nil {
		t.Fatal(err)
	}

	summary, err := f.svc.DuplicatePublicAssets(ctx, "bob")
	if err != nil {
		t.Fatalf("DuplicatePublicAssets: %v", err)
	}
	if summary.Skipped {
		t.Fatal("không được skip khi bob chưa có asset")
	}
	if summary.DatasetsCopied != 1 || summary.ChartsCopied != 1 || summary.ReportsCopied != 1 {
		t.Fatalf("summary sai: %+v", summary)
	}

	var copyDataset models.Dataset
	for _, d := range f.datasets.all() {
		if d.Owner == "bob" {
			copyDataset = d
		}
	}
	if copyDataset.ID.IsZero() {
		t.Fatal("không tìm thấy bản sao dataset của bob")
	}
	if copyDataset.Name != srcDataset.Name+" (Copy)" {
		t.Errorf("tên bản sao dataset phải có hậu tố, got %q", copyDataset.Name)
	}
	if copyDataset.Public {
		t.Error("bản sao phải private")
	}

	var copyChart models.Chart
	for _, c := range f.charts.all() {
		if c.Owner == "bob" {
			copyChart = c
		}
	}
	if copyChart.ID.IsZero() {
		t.Fatal("không tìm thấy bản sao chart của bob")
	}
	if copyChart.DatasetID != copyDataset.ID.Hex() {
		t.Errorf("datasetId của chart phải trỏ tới bản sao dataset, got %s want %s", copyChart.DatasetID, copyDataset.ID.Hex())
	}
	if !strings.HasSuffix(copyChart.Name, " (Copy)") {
		t.Errorf("tên bản sao chart phải có hậu tố, got %q", copyChart.Name)
	}
	if copyChart.IsMappingValid == nil {
		t.Error("bản sao chart phải ghi rõ isMappingValid")
	}

	var copyReport models.Report
	for _, r := range f.reports.all() {
		if r.Owner == "bob" {
			copyReport = r
		}
	}
	if copyReport.ID.IsZero() {
		t.Fatal("không tìm thấy bản sao report của bob")
	}
	if copyReport.Name != srcReport.Name+" (Copy)" {
		t.Errorf("tên bản sao report phải có hậu tố, got %q", copyReport.Name)
	}
	items := copyReport.Rows[0].Items
	if !items[0].IsChartRef() || items[0].ChartID != copyChart.ID.Hex() {
		t.Errorf("chart-ref trong rows phải được viết lại sang bản sao, got %+v", items[0])
	}
	if items[1].IsChartRef() || items[1].Value != "chú thích" {
		t.Errorf("literal trong rows phải giữ nguyên, got %+v", items[1])
	}

	// Data backend được báo đúng cặp tên hex cũ -> mới
	if len(f.notifier.batches) != 1 || len(f.notifier.batches[0]) != 1 {
		t.Fatalf("phải báo data backend đúng 1 lần với 1 cặp tên, got %v", f.notifier.batches)
	}
	rename := f.notifier.batches[0][0]
	if rename.DsName != srcDataset.ID.Hex() || rename.NewDsName != copyDataset.ID.Hex() {
		t.Errorf("cặp tên sai: %+v", rename)
	}

	// bob có hai chart ở hệ thống? không: chart source của alice vẫn nguyên
	if _, err := f.charts.FindOneById(ctx, srcChart.ID); err != nil {
		t.Errorf("chart nguồn phải còn nguyên: %v", err)
	}
}

func TestDuplicatePublicAssets_NotifierFailureTolerated(t *testing.T) {
	f := newDupFixture(nil)
	f.seedPublicGraph(t)
	f.notifier.err = errors.New("data backend down")

	summary, err := f.svc.DuplicatePublicAssets(context.Background(), "bob")
	if err != nil {
		t.Fatalf("lỗi data backend phải được nuốt (best-effort), got %v", err)
	}
	if summary.DatasetsCopied != 1 {
		t.Errorf("copy vẫn phải hoàn tất, summary: %+v", summary)
	}
}

func TestDuplicatePublicAssets_CompensatesOnChartFailure(t *testing.T) {
	f := newDupFixture(nil)
	f.seedPublicGraph(t)
	f.charts.insertErr = errors.New("write failed")

	_, err := f.svc.DuplicatePublicAssets(context.Background(), "bob")
	if err == nil {
		t.Fatal("copy chart lỗi thì phải trả lỗi")
	}

	// Saga: toàn bộ bản sao đã tạo phải bị xóa bù, chỉ còn dữ liệu gốc của alice
	for _, d := range f.datasets.all() {
		if d.Owner == "bob" {
			t.Errorf("bản sao dataset phải bị xóa bù, còn lại: %+v", d)
		}
	}
	for _, r := range f.reports.all() {
		if r.Owner == "bob" {
			t.Errorf("bản sao report phải bị xóa bù, còn lại: %+v", r)
		}
	}
}

func TestDuplicateReport_OwnReportReturnedAsIs(t *testing.T) {
	f := newDupFixture(nil)
	ctx := context.Background()

	own, err := f.reports.InsertOne(ctx, models.Report{Name: "Mine", Owner: "bob", Public: false})
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.DuplicateReport(ctx, "bob", own.ID)
	if err != nil {
		t.Fatalf("DuplicateReport: %v", err)
	}
	if got.ID != own.ID {
		t.Errorf("report của chính mình phải trả về nguyên bản, got %s want %s", got.ID.Hex(), own.ID.Hex())
	}
	if n := len(f.reports.all()); n != 1 {
		t.Errorf("không được tạo bản sao, store có %d report", n)
	}
}

func TestDuplicateReport_NotViewableRejected(t *testing.T) {
	f := newDupFixture(nil)
	ctx := context.Background()

	private, err := f.reports.InsertOne(ctx, models.Report{Name: "Secret", Owner: "carol", Public: false})
	if err != nil {
		t.Fatal(err)
	}

	_, err = f.svc.DuplicateReport(ctx, "bob", private.ID)
	if !errors.Is(err, common.ErrUnauthorizedAccess) {
		t.Errorf("report private ngoài tổ chức phải bị từ chối, got %v", err)
	}
}

func TestDuplicateReport_UnknownIdNotFound(t *testing.T) {
	f := newDupFixture(nil)
	_, err := f.svc.DuplicateReport(context.Background(), "bob", primitive.NewObjectID())
	if !errors.Is(err, common.ErrNotFound) {
		t.Errorf("report không tồn tại phải trả ErrNotFound, got %v", err)
	}
}

func TestDuplicateReport_ExistingEquivalentReturned(t *testing.T) {
	f := newDupFixture(nil)
	_, _, src := f.seedPublicGraph(t)
	ctx := context.Background()

	// bob đã từng copy: có report cùng title + backgroundColor
	prior, err := f.reports.InsertOne(ctx, models.Report{
		Name: "World Report (Copy)", Title: src.Title, BackgroundColor: src.BackgroundColor,
		Owner: "bob", Public: false,
	})
	if err != nil {
		t.Fatal(err)
	}

	got, err := f.svc.DuplicateReport(ctx, "bob", src.ID)
	if err != nil {
		t.Fatalf("DuplicateReport: %v", err)
	}
	if got.ID != prior.ID {
		t.Errorf("phải trả về bản copy có sẵn, got %s want %s", got.ID.Hex(), prior.ID.Hex())
	}
	if n := len(f.datasets.all()); n != 1 {
		t.Errorf("không được copy lại dataset, store có %d", n)
	}
}

func TestDuplicateReport_UntitledPriorCopyReturned(t *testing.T) {
	f := newDupFixture(nil)
	ctx := context.Background()

	// Report không có title/backgroundColor: các field rỗng bị lược bỏ khi
	// lưu, short-circuit vẫn phải nhận ra bản copy trước đó
	src, err := f.reports.InsertOne(ctx, models.Report{
		Name: "Untitled Report", Owner: "alice", Public: true,
		Rows: []models.ReportRow{{Items: []models.RowItem{
			models.NewLiteralItem("ghi chú"),
		}}},
	})
	if err != nil {
		t.Fatal(err)
	}

	first, err := f.svc.DuplicateReport(ctx, "bob", src.ID)
	if err != nil {
		t.Fatalf("DuplicateReport lần 1: %v", err)
	}

	second, err := f.svc.DuplicateReport(ctx, "bob", src.ID)
	if err != nil {
		t.Fatalf("DuplicateReport lần 2: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("lần 2 phải trả về bản copy của lần 1, got %s want %s", second.ID.Hex(), first.ID.Hex())
	}

	bobReports := 0
	for _, r := range f.reports.all() {
		if r.Owner == "bob" {
			bobReports++
		}
	}
	if bobReports != 1 {
		t.Errorf("bob chỉ được có 1 bản copy, store có %d", bobReports)
	}
}

func TestDuplicateReport_CopiesGraphWithoutSuffixingDeps(t *testing.T) {
	f := newDupFixture(nil)
	srcDataset, srcChart, src := f.seedPublicGraph(t)
	ctx := context.Background()

	// bob cũng có chart riêng được report tham chiếu: không copy, giữ nguyên ref
	ownChart, err := f.charts.InsertOne(ctx, models.Chart{Name: "Bob Chart", Owner: "bob", Public: false})
	if err != nil {
		t.Fatal(err)
	}
	src.Rows = append(src.Rows, models.ReportRow{Items: []models.RowItem{
		models.NewChartRefItem(ownChart.ID.Hex()),
	}})
	f.reports.docs[src.ID] = src

	got, err := f.svc.DuplicateReport(ctx, "bob", src.ID)
	if err != nil {
		t.Fatalf("DuplicateReport: %v", err)
	}

	if got.Name != src.Name+" (Copy)" {
		t.Errorf("chỉ tên report được gắn hậu tố, got %q", got.Name)
	}
	if got.Owner != "bob" || got.Public {
		t.Errorf("bản sao phải private và thuộc bob: %+v", got)
	}

	var copyChart models.Chart
	for _, c := range f.charts.all() {
		if c.Owner == "bob" && c.ID != ownChart.ID {
			copyChart = c
		}
	}
	if copyChart.ID.IsZero() {
		t.Fatal("chart được tham chiếu phải được copy theo")
	}
	if copyChart.Name != srcChart.Name {
		t.Errorf("tên chart copy theo không được gắn hậu tố, got %q", copyChart.Name)
	}

	var copyDataset models.Dataset
	for _, d := range f.datasets.all() {
		if d.Owner == "bob" {
			copyDataset = d
		}
	}
	if copyDataset.ID.IsZero() {
		t.Fatal("dataset của chart copy theo phải được copy theo")
	}
	if copyDataset.Name != srcDataset.Name {
		t.Errorf("tên dataset copy theo không được gắn hậu tố, got %q", copyDataset.Name)
	}
	if copyChart.DatasetID != copyDataset.ID.Hex() {
		t.Error("datasetId của chart copy phải trỏ tới dataset copy")
	}

	if got.Rows[0].Items[0].ChartID != copyChart.ID.Hex() {
		t.Errorf("ref chart của alice phải được viết lại, got %s", got.Rows[0].Items[0].ChartID)
	}
	if got.Rows[1].Items[0].ChartID != ownChart.ID.Hex() {
		t.Errorf("ref chart của chính bob phải giữ nguyên, got %s", got.Rows[1].Items[0].ChartID)
	}
}

func TestDeleteAccountAssets(t *testing.T) {
	f := newDupFixture(nil)
	f.seedPublicGraph(t)
	ctx := context.Background()

	if _, err := f.datasets.InsertOne(ctx, models.Dataset{Name: "Bob Data", Owner: "bob"}); err != nil {
		t.Fatal(err)
	}
	if _, err := f.reports.InsertOne(ctx, models.Report{Name: "Bob Report", Owner: "bob"}); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.DeleteAccountAssets(ctx, "bob"); err != nil {
		t.Fatalf("DeleteAccountAssets: %v", err)
	}

	for _, d := range f.datasets.all() {
		if d.Owner == "bob" {
			t.Errorf("dataset của bob phải bị xóa: %+v", d)
		}
	}
	if n := len(f.datasets.all()); n != 1 {
		t.Errorf("dataset của alice phải còn nguyên, store có %d", n)
	}
	if err := f.svc.DeleteAccountAssets(ctx, common.AnonymousPrincipal); !errors.Is(err, common.ErrUnauthorizedAccess) {
		t.Errorf("ẩn danh không được xóa account, got %v", err)
	}
}
