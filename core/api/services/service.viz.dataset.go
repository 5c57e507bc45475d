package services

import (
	"fmt"

	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/global"
)

// DatasetService là service quản lý Dataset
type DatasetService struct {
	*BaseServiceMongoImpl[models.Dataset]
}

// NewDatasetService tạo mới DatasetService
func NewDatasetService() (*DatasetService, error) {
	collection, exist := global.RegistryCollections.Get(global.MongoDB_ColNames.Datasets)
	if !exist {
		return nil, fmt.Errorf("failed to get datasets collection: %v", common.ErrNotFound)
	}

	return &DatasetService{
		BaseServiceMongoImpl: NewBaseServiceMongo[models.Dataset](collection),
	}, nil
}
