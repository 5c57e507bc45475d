package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zimmerman-team/dx.server/core/api/dto"
	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/api/services"
	"github.com/zimmerman-team/dx.server/core/backend"
	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/logger"
	"github.com/zimmerman-team/dx.server/core/utility"
)

// DatasetHandler xử lý các request liên quan đến Dataset
type DatasetHandler struct {
	BaseHandler[models.Dataset, dto.DatasetCreateInput, dto.DatasetUpdateInput]
	DatasetService *services.DatasetService
	visibility     *services.VisibilityService
	backend        *backend.Client
}

// NewDatasetHandler tạo mới DatasetHandler
func NewDatasetHandler(visibility *services.VisibilityService, backendClient *backend.Client) (*DatasetHandler, error) {
	datasetService, err := services.NewDatasetService()
	if err != nil {
		return nil, fmt.Errorf("failed to create dataset service: %v", err)
	}

	baseHandler := NewBaseHandler[models.Dataset, dto.DatasetCreateInput, dto.DatasetUpdateInput](datasetService)
	return &DatasetHandler{
		BaseHandler:    *baseHandler,
		DatasetService: datasetService,
		visibility:     visibility,
		backend:        backendClient,
	}, nil
}

// Create tạo dataset mới, owner là principal của request
func (h *DatasetHandler) Create(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input dto.DatasetCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		model := models.Dataset{
			Name:        input.Name,
			Category:    input.Category,
			Description: input.Description,
			Source:      input.Source,
			SourceURL:   input.SourceURL,
			Owner:       GetPrincipal(c),
			Public:      input.Public,
		}

		data, err := h.DatasetService.InsertOne(c.Context(), model)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// List trả về các dataset principal được thấy (public + của mình + của peer)
func (h *DatasetHandler) List(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter := h.visibility.Filter(c.Context(), GetPrincipal(c), bson.M{})
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		// Có query page/limit thì trả về kết quả phân trang
		if c.Query("page") != "" || c.Query("limit") != "" {
			page, limit := h.ParsePagination(c)
			data, err := h.DatasetService.FindWithPagination(c.Context(), filter, page, limit, opts)
			h.HandleResponse(c, data, err)
			return nil
		}

		data, err := h.DatasetService.Find(c.Context(), filter, opts)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// Count đếm các dataset principal được thấy
func (h *DatasetHandler) Count(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter := h.visibility.Filter(c.Context(), GetPrincipal(c), bson.M{})

		count, err := h.DatasetService.CountDocuments(c.Context(), filter)
		h.HandleResponse(c, fiber.Map{"count": count}, err)
		return nil
	})
}

// GetById trả về một dataset nếu principal được thấy nó
func (h *DatasetHandler) GetById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		data, err := h.DatasetService.FindOneById(c.Context(), utility.String2ObjectID(id))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if !h.visibility.CanView(c.Context(), GetPrincipal(c), data.Owner, data.Public) {
			h.HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		h.HandleResponse(c, data, nil)
		return nil
	})
}

// Update cập nhật dataset, chỉ owner được sửa
func (h *DatasetHandler) Update(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		var input dto.DatasetUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		objectID := utility.String2ObjectID(id)
		existing, err := h.DatasetService.FindOneById(c.Context(), objectID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if existing.Owner != GetPrincipal(c) {
			h.HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		set := map[string]interface{}{}
		if input.Name != nil {
			set["name"] = *input.Name
		}
		if input.Category != nil {
			set["category"] = *input.Category
		}
		if input.Description != nil {
			set["description"] = *input.Description
		}
		if input.Source != nil {
			set["source"] = *input.Source
		}
		if input.SourceURL != nil {
			set["sourceUrl"] = *input.SourceURL
		}
		if input.Public != nil {
			set["public"] = *input.Public
		}

		data, err := h.DatasetService.UpdateById(c.Context(), objectID, &services.UpdateData{Set: set})
		h.HandleResponse(c, data, err)
		return nil
	})
}

// Delete xóa dataset, chỉ owner được xóa.
// Sau khi xóa bản ghi, báo data backend dọn payload (best-effort, lỗi chỉ log).
func (h *DatasetHandler) Delete(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		objectID := utility.String2ObjectID(id)
		existing, err := h.DatasetService.FindOneById(c.Context(), objectID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if existing.Owner != GetPrincipal(c) {
			h.HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		if err := h.DatasetService.DeleteById(c.Context(), objectID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		if h.backend != nil {
			if err := h.backend.DeleteDataset(c.Context(), id); err != nil {
				logger.GetAppLogger().WithError(err).WithField("dataset_id", id).
					Warn("Báo xóa payload dataset cho data backend thất bại")
			}
		}

		h.HandleResponse(c, fiber.Map{"deleted": true}, nil)
		return nil
	})
}

// PublicList trả về các dataset public (không cần auth)
func (h *DatasetHandler) PublicList(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		data, err := h.DatasetService.Find(c.Context(), bson.M{"public": true}, opts)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// PublicCount đếm các dataset public
func (h *DatasetHandler) PublicCount(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		count, err := h.DatasetService.CountDocuments(c.Context(), bson.M{"public": true})
		h.HandleResponse(c, fiber.Map{"count": count}, err)
		return nil
	})
}

// PublicGetById trả về một dataset public
func (h *DatasetHandler) PublicGetById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		data, err := h.DatasetService.FindOneById(c.Context(), utility.String2ObjectID(id))
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if !data.Public {
			h.HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		h.HandleResponse(c, data, nil)
		return nil
	})
}
