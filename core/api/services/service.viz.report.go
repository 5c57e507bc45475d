package services

import (
	"fmt"

	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/global"
)

// ReportService là service quản lý Report
type ReportService struct {
	*BaseServiceMongoImpl[models.Report]
}

// NewReportService tạo mới ReportService
func NewReportService() (*ReportService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Reports)
	if !exist {
		return nil, fmt.Errorf("failed to get reports collection: %v", common.ErrNotFound)
	}

	return &ReportService{
		BaseServiceMongoImpl: NewBaseServiceMongo[models.Report](collection),
	}, nil
}
