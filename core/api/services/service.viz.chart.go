package services

import (
	"fmt"

	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/global"
)

// ChartService là service quản lý Chart
type ChartService struct {
	*BaseServiceMongoImpl[models.Chart]
}

// NewChartService tạo mới ChartService
func NewChartService() (*ChartService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Charts)
	if !exist {
		return nil, fmt.Errorf("failed to get charts collection: %v", common.ErrNotFound)
	}

	return &ChartService{
		BaseServiceMongoImpl: NewBaseServiceMongo[models.Chart](collection),
	}, nil
}
