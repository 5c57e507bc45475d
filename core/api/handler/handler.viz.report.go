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

// ReportHandler xử lý các request liên quan đến Report
type ReportHandler struct {
	BaseHandler[models.Report, dto.ReportCreateInput, dto.ReportUpdateInput]
	ReportService *services.ReportService
	visibility    *services.VisibilityService
}

// NewReportHandler tạo mới ReportHandler
func NewReportHandler(visibility *services.VisibilityService) (*ReportHandler, error) {
	reportService, err := services.NewReportService()
	if err != nil {
		return nil, fmt.Errorf("failed to create report service: %v", err)
	}

	baseHandler := NewBaseHandler[models.Report, dto.ReportCreateInput, dto.ReportUpdateInput](reportService)
	return &ReportHandler{
		BaseHandler:   *baseHandler,
		ReportService: reportService,
		visibility:    visibility,
	}, nil
}

// Create tạo report mới, owner là principal của request
func (h *ReportHandler) Create(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		var input dto.ReportCreateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		model := models.Report{
			Name:             input.Name,
			ShowHeader:       input.ShowHeader,
			Title:            input.Title,
			SubTitle:         input.SubTitle,
			Rows:             input.Rows,
			BackgroundColor:  input.BackgroundColor,
			TitleColor:       input.TitleColor,
			DescriptionColor: input.DescriptionColor,
			DateColor:        input.DateColor,
			Owner:            GetPrincipal(c),
			Public:           input.Public,
			CreatedDate:      input.CreatedDate,
		}

		data, err := h.ReportService.InsertOne(c.Context(), model)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// List trả về các report principal được thấy (public + của mình + của peer)
func (h *ReportHandler) List(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter := h.visibility.Filter(c.Context(), GetPrincipal(c), bson.M{})
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

		// Có query page/limit thì trả về kết quả phân trang
		if c.Query("page") != "" || c.Query("limit") != "" {
			page, limit := h.ParsePagination(c)
			data, err := h.ReportService.FindWithPagination(c.Context(), filter, page, limit, opts)
			h.HandleResponse(c, data, err)
			return nil
		}

		data, err := h.ReportService.Find(c.Context(), filter, opts)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// Count đếm các report principal được thấy
func (h *ReportHandler) Count(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		filter := h.visibility.Filter(c.Context(), GetPrincipal(c), bson.M{})

		count, err := h.ReportService.CountDocuments(c.Context(), filter)
		h.HandleResponse(c, fiber.Map{"count": count}, err)
		return nil
	})
}

// GetById trả về một report nếu principal được thấy nó
func (h *ReportHandler) GetById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		data, err := h.ReportService.FindOneById(c.Context(), utility.String2ObjectID(id))
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

// Update cập nhật report, chỉ owner được sửa
func (h *ReportHandler) Update(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		var input dto.ReportUpdateInput
		if err := h.ParseRequestBody(c, &input); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		objectID := utility.String2ObjectID(id)
		existing, err := h.ReportService.FindOneById(c.Context(), objectID)
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
		if input.ShowHeader != nil {
			set["showHeader"] = *input.ShowHeader
		}
		if input.Title != nil {
			set["title"] = *input.Title
		}
		if input.SubTitle != nil {
			set["subTitle"] = *input.SubTitle
		}
		if input.Rows != nil {
			set["rows"] = *input.Rows
		}
		if input.BackgroundColor != nil {
			set["backgroundColor"] = *input.BackgroundColor
		}
		if input.TitleColor != nil {
			set["titleColor"] = *input.TitleColor
		}
		if input.DescriptionColor != nil {
			set["descriptionColor"] = *input.DescriptionColor
		}
		if input.DateColor != nil {
			set["dateColor"] = *input.DateColor
		}
		if input.Public != nil {
			set["public"] = *input.Public
		}
		if input.CreatedDate != nil {
			set["createdDate"] = *input.CreatedDate
		}

		data, err := h.ReportService.UpdateById(c.Context(), objectID, &services.UpdateData{Set: set})
		h.HandleResponse(c, data, err)
		return nil
	})
}

// Delete xóa report, chỉ owner được xóa
func (h *ReportHandler) Delete(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		objectID := utility.String2ObjectID(id)
		existing, err := h.ReportService.FindOneById(c.Context(), objectID)
		if err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}
		if existing.Owner != GetPrincipal(c) {
			h.HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		if err := h.ReportService.DeleteById(c.Context(), objectID); err != nil {
			h.HandleResponse(c, nil, err)
			return nil
		}

		h.HandleResponse(c, fiber.Map{"deleted": true}, nil)
		return nil
	})
}

// PublicList trả về các report public (không cần auth)
func (h *ReportHandler) PublicList(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
		data, err := h.ReportService.Find(c.Context(), bson.M{"public": true}, opts)
		h.HandleResponse(c, data, err)
		return nil
	})
}

// PublicCount đếm các report public
func (h *ReportHandler) PublicCount(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		count, err := h.ReportService.CountDocuments(c.Context(), bson.M{"public": true})
		h.HandleResponse(c, fiber.Map{"count": count}, err)
		return nil
	})
}

// PublicGetById trả về một report public
func (h *ReportHandler) PublicGetById(c fiber.Ctx) error {
	return h.SafeHandler(c, func() error {
		id := h.GetIDFromContext(c)
		if !utility.IsValidObjectID(id) {
			h.HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		data, err := h.ReportService.FindOneById(c.Context(), utility.String2ObjectID(id))
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
