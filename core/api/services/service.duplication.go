package services

import (
	"context"
	"errors"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/backend"
	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/logger"
	"github.com/zimmerman-team/dx.server/core/utility"
)

// Hậu tố gắn vào tên bản sao (bulk: dataset/chart/report; landing: chỉ report)
const copySuffix = " (Copy)"

// DuplicationNotifier báo cho data backend nhân bản payload dataset.
// backend.Client thỏa interface này.
type DuplicationNotifier interface {
	NotifyDatasetDuplication(ctx context.Context, renames []backend.DatasetRename) error
}

// DuplicationSummary tóm tắt kết quả một lần duplicate bulk
type DuplicationSummary struct {
	Skipped        bool `json:"skipped"` // true = gate idempotency chặn, không có side effect
	DatasetsCopied int  `json:"datasetsCopied"`
	ChartsCopied   int  `json:"chartsCopied"`
	ReportsCopied  int  `json:"reportsCopied"`
}

// DuplicationService nhân bản đồ thị asset (dataset -> chart -> report) cho một
// principal: bulk khi lần đầu đăng nhập, hoặc một landing report đơn lẻ.
// Copy chạy theo saga: tạo lỗi giữa chừng thì xóa bù các bản ghi đã tạo
// trong kế hoạch này rồi trả lỗi.
type DuplicationService struct {
	datasets   BaseServiceMongo[models.Dataset]
	charts     BaseServiceMongo[models.Chart]
	reports    BaseServiceMongo[models.Report]
	visibility *VisibilityService
	notifier   DuplicationNotifier
}

// NewDuplicationService tạo mới DuplicationService
func NewDuplicationService(
	datasets BaseServiceMongo[models.Dataset],
	charts BaseServiceMongo[models.Chart],
	reports BaseServiceMongo[models.Report],
	visibility *VisibilityService,
	notifier DuplicationNotifier,
) *DuplicationService {
	return &DuplicationService{
		datasets:   datasets,
		charts:     charts,
		reports:    reports,
		visibility: visibility,
		notifier:   notifier,
	}
}

// createdAssets theo dõi các bản ghi đã tạo trong một kế hoạch copy để có thể xóa bù
type createdAssets struct {
	mu       sync.Mutex
	datasets []primitive.ObjectID
	charts   []primitive.ObjectID
	reports  []primitive.ObjectID
}

func (c *createdAssets) addDataset(id primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.datasets = append(c.datasets, id)
}

func (c *createdAssets) addChart(id primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.charts = append(c.charts, id)
}

func (c *createdAssets) addReport(id primitive.ObjectID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reports = append(c.reports, id)
}

// compensate xóa bù các bản ghi đã tạo, theo thứ tự ngược với thứ tự tạo.
// Lỗi xóa bù chỉ log, không che lỗi gốc.
func (s *DuplicationService) compensate(ctx context.Context, created *createdAssets) {
	created.mu.Lock()
	defer created.mu.Unlock()

	log := logger.GetAppLogger()
	for _, id := range created.reports {
		if err := s.reports.DeleteById(ctx, id); err != nil {
			log.WithError(err).WithField("report_id", id.Hex()).Warn("Xóa bù report thất bại")
		}
	}
	for _, id := range created.charts {
		if err := s.charts.DeleteById(ctx, id); err != nil {
			log.WithError(err).WithField("chart_id", id.Hex()).Warn("Xóa bù chart thất bại")
		}
	}
	for _, id := range created.datasets {
		if err := s.datasets.DeleteById(ctx, id); err != nil {
			log.WithError(err).WithField("dataset_id", id.Hex()).Warn("Xóa bù dataset thất bại")
		}
	}
}

// propagate báo data backend nhân bản payload các dataset vừa copy.
// Best-effort: lỗi chỉ log, không rollback, không trả về caller.
func (s *DuplicationService) propagate(ctx context.Context, renames []backend.DatasetRename) {
	if s.notifier == nil || len(renames) == 0 {
		return
	}

	if err := s.notifier.NotifyDatasetDuplication(ctx, renames); err != nil {
		logger.GetAppLogger().WithError(err).WithField("count", len(renames)).
			Warn("Báo nhân bản payload dataset cho data backend thất bại")
		return
	}

	logger.GetAppLogger().WithField("count", len(renames)).
		Info("Đã báo nhân bản payload dataset cho data backend")
}

// copyDatasets copy một lô dataset cho target, chạy song song.
// Trả về map hex id nguồn -> hex id bản sao và danh sách cặp tên gửi data backend.
func (s *DuplicationService) copyDatasets(ctx context.Context, target string, sources []models.Dataset, suffix bool, created *createdAssets) (map[string]string, []backend.DatasetRename, error) {
	idMap := make(map[string]string, len(sources))
	renames := make([]backend.DatasetRename, 0, len(sources))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, src := range sources {
		wg.Add(1)
		go func(src models.Dataset) {
			defer wg.Done()

			dup := src
			dup.ID = primitive.NilObjectID
			dup.Owner = target
			dup.Public = false
			if suffix {
				dup.Name = src.Name + copySuffix
			}

			inserted, err := s.datasets.InsertOne(ctx, dup)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			created.addDataset(inserted.ID)
			idMap[src.ID.Hex()] = inserted.ID.Hex()
			renames = append(renames, backend.DatasetRename{
				DsName:    src.ID.Hex(),
				NewDsName: inserted.ID.Hex(),
			})
		}(src)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return idMap, renames, nil
}

// copyCharts copy một lô chart cho target, chạy song song.
// datasetId được viết lại qua datasetMap; không có trong map thì giữ nguyên tham chiếu.
func (s *DuplicationService) copyCharts(ctx context.Context, target string, sources []models.Chart, datasetMap map[string]string, suffix bool, created *createdAssets) (map[string]string, error) {
	idMap := make(map[string]string, len(sources))

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	for _, src := range sources {
		wg.Add(1)
		go func(src models.Chart) {
			defer wg.Done()

			dup := src
			dup.ID = primitive.NilObjectID
			dup.Owner = target
			dup.Public = false
			if suffix {
				dup.Name = src.Name + copySuffix
			}
			if newID, ok := datasetMap[src.DatasetID]; ok {
				dup.DatasetID = newID
			}
			mappingValid := src.MappingValid()
			dup.IsMappingValid = &mappingValid

			inserted, err := s.charts.InsertOne(ctx, dup)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			created.addChart(inserted.ID)
			idMap[src.ID.Hex()] = inserted.ID.Hex()
		}(src)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return idMap, nil
}

// copyReport copy một report cho target. Tên luôn gắn hậu tố; các item chart-ref
// trong rows được viết lại qua chartMap, literal giữ nguyên.
func (s *DuplicationService) copyReport(ctx context.Context, target string, src models.Report, chartMap map[string]string, created *createdAssets) (models.Report, error) {
	dup := src
	dup.ID = primitive.NilObjectID
	dup.Owner = target
	dup.Public = false
	dup.Name = src.Name + copySuffix
	dup.Rows = rewriteRows(src.Rows, chartMap)

	inserted, err := s.reports.InsertOne(ctx, dup)
	if err != nil {
		var zero models.Report
		return zero, err
	}

	created.addReport(inserted.ID)
	return inserted, nil
}

// equalOrAbsent trả về giá trị để match một field string trong filter.
// Field empty string bị lược bỏ khi insert, nên giá trị rỗng phải match theo
// null/missing thay vì chuỗi rỗng.
func equalOrAbsent(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}

// rewriteRows viết lại các item chart-ref qua chartMap (không có trong map thì giữ nguyên)
func rewriteRows(rows []models.ReportRow, chartMap map[string]string) []models.ReportRow {
	out := make([]models.ReportRow, len(rows))
	for i, row := range rows {
		items := make([]models.RowItem, len(row.Items))
		for j, item := range row.Items {
			if item.IsChartRef() {
				if newID, ok := chartMap[item.ChartID]; ok {
					items[j] = models.NewChartRefItem(newID)
					continue
				}
			}
			items[j] = item
		}
		out[i] = models.ReportRow{Items: items}
	}
	return out
}

// DuplicatePublicAssets copy toàn bộ asset public về cho target (lần đầu đăng nhập).
// Gate idempotency: target đã sở hữu bất kỳ asset nào thì bỏ qua, không có side effect.
// Gate này có race TOCTOU giữa hai request song song của cùng principal; chấp nhận
// vì duplicate thừa vô hại và UI chỉ gọi một lần.
func (s *DuplicationService) DuplicatePublicAssets(ctx context.Context, target string) (*DuplicationSummary, error) {
	if target == "" || target == common.AnonymousPrincipal {
		return nil, common.ErrUnauthorizedAccess
	}

	ownedFilter := bson.M{"owner": target}
	for _, owns := range []func(context.Context, interface{}) (bool, error){
		s.datasets.DocumentExists,
		s.charts.DocumentExists,
		s.reports.DocumentExists,
	} {
		owned, err := owns(ctx, ownedFilter)
		if err != nil {
			return nil, err
		}
		if owned {
			logger.GetAppLogger().WithField("principal", target).
				Info("Principal đã sở hữu asset, bỏ qua duplicate bulk")
			return &DuplicationSummary{Skipped: true}, nil
		}
	}

	publicFilter := bson.M{"public": true}
	srcDatasets, err := s.datasets.Find(ctx, publicFilter, nil)
	if err != nil {
		return nil, err
	}
	srcCharts, err := s.charts.Find(ctx, publicFilter, nil)
	if err != nil {
		return nil, err
	}
	srcReports, err := s.reports.Find(ctx, publicFilter, nil)
	if err != nil {
		return nil, err
	}

	created := &createdAssets{}

	datasetMap, renames, err := s.copyDatasets(ctx, target, srcDatasets, true, created)
	if err != nil {
		s.compensate(ctx, created)
		return nil, err
	}
	s.propagate(ctx, renames)

	chartMap, err := s.copyCharts(ctx, target, srcCharts, datasetMap, true, created)
	if err != nil {
		s.compensate(ctx, created)
		return nil, err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		nReports int
	)
	for _, src := range srcReports {
		wg.Add(1)
		go func(src models.Report) {
			defer wg.Done()
			_, err := s.copyReport(ctx, target, src, chartMap, created)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			nReports++
		}(src)
	}
	wg.Wait()

	if firstErr != nil {
		s.compensate(ctx, created)
		return nil, firstErr
	}

	summary := &DuplicationSummary{
		DatasetsCopied: len(datasetMap),
		ChartsCopied:   len(chartMap),
		ReportsCopied:  nReports,
	}
	logger.GetAppLogger().WithFields(map[string]interface{}{
		"principal": target,
		"datasets":  summary.DatasetsCopied,
		"charts":    summary.ChartsCopied,
		"reports":   summary.ReportsCopied,
	}).Info("Duplicate bulk hoàn tất")
	return summary, nil
}

// DuplicateReport copy một landing report về cho principal, kéo theo các chart
// được report tham chiếu và các dataset các chart đó dùng. Tên dataset/chart
// giữ nguyên; chỉ tên report gắn hậu tố.
//
// Short-circuit:
//   - report đã thuộc principal: trả về nguyên bản, không tạo gì.
//   - principal đã có report tương đương (cùng title + backgroundColor, owner là
//     principal) của một chủ khác: trả về bản có sẵn, không tạo gì.
func (s *DuplicationService) DuplicateReport(ctx context.Context, principal string, reportID primitive.ObjectID) (models.Report, error) {
	var zero models.Report

	if principal == "" || principal == common.AnonymousPrincipal {
		return zero, common.ErrUnauthorizedAccess
	}

	src, err := s.reports.FindOneById(ctx, reportID)
	if err != nil {
		return zero, err
	}

	if !s.visibility.CanView(ctx, principal, src.Owner, src.Public) {
		return zero, common.ErrUnauthorizedAccess
	}

	if src.Owner == principal {
		return src, nil
	}

	existing, err := s.reports.FindOne(ctx, bson.M{
		"title":           equalOrAbsent(src.Title),
		"owner":           principal,
		"backgroundColor": equalOrAbsent(src.BackgroundColor),
	}, nil)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return zero, err
	}

	chartsToCopy, datasetsToCopy, err := s.planReportGraph(ctx, principal, &src)
	if err != nil {
		return zero, err
	}

	created := &createdAssets{}

	datasetMap, renames, err := s.copyDatasets(ctx, principal, datasetsToCopy, false, created)
	if err != nil {
		s.compensate(ctx, created)
		return zero, err
	}
	s.propagate(ctx, renames)

	chartMap, err := s.copyCharts(ctx, principal, chartsToCopy, datasetMap, false, created)
	if err != nil {
		s.compensate(ctx, created)
		return zero, err
	}

	dup, err := s.copyReport(ctx, principal, src, chartMap, created)
	if err != nil {
		s.compensate(ctx, created)
		return zero, err
	}

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"principal": principal,
		"report_id": src.ID.Hex(),
		"copy_id":   dup.ID.Hex(),
		"datasets":  len(datasetMap),
		"charts":    len(chartMap),
	}).Info("Duplicate landing report hoàn tất")
	return dup, nil
}

// planReportGraph thu thập các chart được report tham chiếu và các dataset các
// chart đó dùng, lọc theo visibility của principal. Chart/dataset đã thuộc
// principal hoặc không nhìn thấy được thì không copy (tham chiếu giữ nguyên).
func (s *DuplicationService) planReportGraph(ctx context.Context, principal string, src *models.Report) ([]models.Chart, []models.Dataset, error) {
	chartIDs := make([]primitive.ObjectID, 0)
	for _, ref := range src.ChartRefs() {
		if utility.IsValidObjectID(ref) {
			chartIDs = append(chartIDs, utility.String2ObjectID(ref))
		}
	}

	var chartsToCopy []models.Chart
	datasetIDSet := make(map[string]bool)
	if len(chartIDs) > 0 {
		refCharts, err := s.charts.FindManyByIds(ctx, chartIDs)
		if err != nil {
			return nil, nil, err
		}
		for _, chart := range refCharts {
			if chart.Owner == principal {
				continue
			}
			if !s.visibility.CanView(ctx, principal, chart.Owner, chart.Public) {
				continue
			}
			chartsToCopy = append(chartsToCopy, chart)
			if utility.IsValidObjectID(chart.DatasetID) {
				datasetIDSet[chart.DatasetID] = true
			}
		}
	}

	var datasetsToCopy []models.Dataset
	if len(datasetIDSet) > 0 {
		datasetIDs := make([]primitive.ObjectID, 0, len(datasetIDSet))
		for hex := range datasetIDSet {
			datasetIDs = append(datasetIDs, utility.String2ObjectID(hex))
		}
		refDatasets, err := s.datasets.FindManyByIds(ctx, datasetIDs)
		if err != nil {
			return nil, nil, err
		}
		for _, dataset := range refDatasets {
			if dataset.Owner == principal {
				continue
			}
			if !s.visibility.CanView(ctx, principal, dataset.Owner, dataset.Public) {
				continue
			}
			datasetsToCopy = append(datasetsToCopy, dataset)
		}
	}

	return chartsToCopy, datasetsToCopy, nil
}

// DeleteAccountAssets xóa toàn bộ asset thuộc principal (dataset, chart, report)
func (s *DuplicationService) DeleteAccountAssets(ctx context.Context, principal string) error {
	if principal == "" || principal == common.AnonymousPrincipal {
		return common.ErrUnauthorizedAccess
	}

	ownedFilter := bson.M{"owner": principal}

	nDatasets, err := s.datasets.DeleteMany(ctx, ownedFilter)
	if err != nil {
		return err
	}
	nCharts, err := s.charts.DeleteMany(ctx, ownedFilter)
	if err != nil {
		return err
	}
	nReports, err := s.reports.DeleteMany(ctx, ownedFilter)
	if err != nil {
		return err
	}

	logger.GetAppLogger().WithFields(map[string]interface{}{
		"principal": principal,
		"datasets":  nDatasets,
		"charts":    nCharts,
		"reports":   nReports,
	}).Info("Đã xóa toàn bộ asset của tài khoản")
	return nil
}
