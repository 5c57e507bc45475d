package handler

import (
	"fmt"

	"github.com/gofiber/fiber/v3"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/zimmerman-team/dx.server/core/api/dto"
	models "github.com/zimmerman-team/dx.server/core/api/models/mongodb"
	"github.com/zimmerman-team/dx.server/core/api/services"
	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/utility"
)

// ChartHandler xử lý các request liên quan đến Chart
type ChartHandler struct {
	BaseHandler[models.Chart, dto.ChartCreateInput, dto.ChartUpdateInput]
	ChartService *services.ChartService
	visibility   *services.VisibilityService
}

// NewChartHandler tạo mới ChartHandler
func NewChartHandler(visibility *services.VisibilityService) (*ChartHandler, error) {
	chartService, err := services.NewChartService()
	if err != nil {
		return nil, fmt.Errorf("failed to create chart service: %v", err)
	}

	baseHandler := NewBaseHandler[models.Chart, dto.ChartCreateInput, dto.ChartUpdateInput](chartService)
	return &ChartHandler{
		BaseHandler:  *baseHandler,
		ChartService: chartService,
		visibility:   visibility,
	}, nil
}

// Create tạo chart mới, owner là principal của request
func (h *ChartHandler) Create(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input dto.ChartCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		model := models.Chart{
			Name:                      input.Name,
			VizType:                   input.VizType,
			DatasetID:                 input.DatasetID,
			Mapping:                   bson.M(input.Mapping),
			VizOptions:                bson.M(input.VizOptions),
			AppliedFilters:            bson.M(input.AppliedFilters),
			EnabledFilterOptionGroups: input.EnabledFilterOptionGroups,
			Owner:                     GetPrincipal(c),
			Public:                    input.Public,
			IsMappingValid:            input.IsMappingValid,
			IsAIAssisted:              input.IsAIAssisted,
		}

		data, err := h.ChartService.InsertOne(c.Context(), model)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// List trả về các chart principal được thấy (public + của mình + của peer)
func (h *ChartHandler) List(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter := h.visibility.Filter(c.Context(), GetPrincipal(c), bson.M{})
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		// Có query page/limit thì trả về kết quả phân trang
		if c.Query("page") != "" || c.Query("limit") != "" {
			page, limit := h.ParsePagination(c)
			data, err := h.ChartService.FindWithPagination(c.Context(), filter, page, limit, opts)
			h.HandleResponse(c, data, err)
			return nil
		}

		data, err := h.ChartService.Find(c.Context(), filter, opts)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// Count đếm các chart principal được thấy
func (h *ChartHandler) Count(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter := h.visibility.Filter(c.Context(), GetPrincipal(c), bson.M{})

		count, err := h.ChartService.CountDocuments(c.Context(), filter)
		h.HandleResponse(c, fiber.Map{"count": count}, err)
		return nil
	})
}

// GetById trả về một chart nếu principal được thấy nó
func (h *ChartHandler) GetById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		data, err := h.ChartService.FindOneById(c.Context(), utility.String2ObjectID(id))
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

// Update cập nhật chart, chỉ owner được sửa
func (h *ChartHandler) Update(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		var input dto.ChartUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		objectID := utility.String2ObjectID(id)
		existing, err := h.ChartService.FindOneById(c.Context(), objectID)
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
		if input.VizType != nil {
			set["vizType"] = *input.VizType
		}
		if input.DatasetID != nil {
			set["datasetId"] = *input.DatasetID
		}
		if input.Mapping != nil {
			set["mapping"] = bson.M(*input.Mapping)
		}
		if input.VizOptions != nil {
			set["vizOptions"] = bson.M(*input.VizOptions)
		}
		if input.AppliedFilters != nil {
			set["appliedFilters"] = bson.M(*input.AppliedFilters)
		}
		if input.EnabledFilterOptionGroups != nil {
			set["enabledFilterOptionGroups"] = *input.EnabledFilterOptionGroups
		}
		if input.Public != nil {
			set["public"] = *input.Public
		}
		if input.IsMappingValid != nil {
			set["isMappingValid"] = *input.IsMappingValid
		}
		if input.IsAIAssisted != nil {
			set["isAIAssisted"] = *input.IsAIAssisted
		}

		data, err := h.ChartService.UpdateById(c.Context(), objectID, &services.UpdateData{Set: set})
		h.HandleResponse(c, data, err)
		return nil
	})
}

// Delete xóa chart, chỉ owner được xóa
func (h *ChartHandler) Delete(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		objectID := utility.String2ObjectID(id)
		existing, err := h.ChartService.FindOneById(c.Context(), objectID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if existing.Owner != GetPrincipal(c) {
			h.HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		if err := h.ChartService.DeleteById(c.Context(), objectID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, fiber.Map{"deleted": true}, nil)
		return nil
	})
}

// PublicList trả về các chart public (không cần auth)
func (h *ChartHandler) PublicList(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		data, err := h.ChartService.Find(c.Context(), bson.M{"public": true}, opts)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// PublicCount đếm các chart public
func (h *ChartHandler) PublicCount(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		count, err := h.ChartService.CountDocuments(c.Context(), bson.M{"public": true})
		h.HandleResponse(c, fiber.Map{"count": count}, err)
		return nil
	})
}

// PublicGetById trả về một chart public
func (h *ChartHandler) PublicGetById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		data, err := h.ChartService.FindOneById(c.Context(), utility.String2ObjectID(id))
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
