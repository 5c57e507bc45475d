package handler

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/gofiber/fiber/v3"

	"github.com/zimmerman-team/dx.server/core/api/dto"
	"github.com/zimmerman-team/dx.server/core/api/services"
	"github.com/zimmerman-team/dx.server/core/common"
	"github.com/zimmerman-team/dx.server/core/directory"
	"github.com/zimmerman-team/dx.server/core/global"
	"github.com/zimmerman-team/dx.server/core/logger"
	"github.com/zimmerman-team/dx.server/core/utility"
)

// UserHandler xử lý các thao tác mức tài khoản: duplicate asset, xóa tài khoản,
// cập nhật hồ sơ, Intercom identity hash
type UserHandler struct {
	duplication    *services.DuplicationService
	directory      *directory.Client
	intercomSecret string
}

// NewUserHandler tạo mới UserHandler
func NewUserHandler(duplication *services.DuplicationService, directoryClient *directory.Client, intercomSecret string) *UserHandler {
	return &UserHandler{
		duplication:    duplication,
		directory:      directoryClient,
		intercomSecret: intercomSecret,
	}
}

// parseBody parse và validate request body vào input
func (h *UserHandler) parseBody(c fiber.Ctx, input interface{}) error {
	decoder := json.NewDecoder(bytes.NewReader(c.Body()))
	decoder.UseNumber()
	if err := decoder.Decode(input); err != nil {
		return common.NewError(common.ErrCodeValidationFormat, common.MsgValidationError, common.StatusBadRequest, err)
	}
	if err := global.Validate.Struct(input); err != nil {
		return common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, err)
	}
	return nil
}

// DuplicateAssets copy toàn bộ asset public về cho principal trong lần đăng nhập đầu.
// Hồ sơ danh bạ được hỏi trước: đã đăng nhập nhiều lần thì bỏ qua luôn; danh bạ lỗi
// thì rơi xuống gate đếm asset của service.
func (h *UserHandler) DuplicateAssets(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		principal := GetPrincipal(c)
		if principal == common.AnonymousPrincipal {
			HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		if h.directory != nil {
			profile, err := h.directory.GetProfile(c.Context(), principal)
			if err != nil {
				logger.GetAppLogger().WithError(err).WithField("principal", principal).
					Warn("Không đọc được hồ sơ danh bạ, dựa vào gate đếm asset")
			} else if profile.LoginsCount > 1 {
				HandleResponse(c, &services.DuplicationSummary{Skipped: true}, nil)
				return nil
			}
		}

		summary, err := h.duplication.DuplicatePublicAssets(c.Context(), principal)
		HandleResponse(c, summary, err)
		return nil
	})
}

// DuplicateLandingReport copy một landing report (kèm chart và dataset nó dùng) về cho principal
func (h *UserHandler) DuplicateLandingReport(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		id := c.Params("id")
		if !utility.IsValidObjectID(id) {
			HandleResponse(c, nil, common.NewError(common.ErrCodeValidationInput, common.MsgValidationError, common.StatusBadRequest, nil))
			return nil
		}

		report, err := h.duplication.DuplicateReport(c.Context(), GetPrincipal(c), utility.String2ObjectID(id))
		HandleResponse(c, report, err)
		return nil
	})
}

// DeleteAccount xóa toàn bộ asset của principal rồi xóa tài khoản khỏi danh bạ (best-effort)
func (h *UserHandler) DeleteAccount(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		principal := GetPrincipal(c)
		if principal == common.AnonymousPrincipal {
			HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		if err := h.duplication.DeleteAccountAssets(c.Context(), principal); err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		if h.directory != nil {
			if err := h.directory.DeleteUser(c.Context(), principal); err != nil {
				logger.GetAppLogger().WithError(err).WithField("principal", principal).
					Warn("Xóa tài khoản khỏi danh bạ thất bại")
			}
		}

		HandleResponse(c, fiber.Map{"deleted": true}, nil)
		return nil
	})
}

// UpdateProfile cập nhật tên hiển thị của principal trong danh bạ
func (h *UserHandler) UpdateProfile(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		principal := GetPrincipal(c)
		if principal == common.AnonymousPrincipal {
			HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		var input dto.UserProfileUpdateInput
		if err := h.parseBody(c, &input); err != nil {
			HandleResponse(c, nil, err)
			return nil
		}

		if err := h.directory.UpdateProfile(c.Context(), principal, input.Name); err != nil {
			HandleResponse(c, nil, common.NewError(
				common.ErrCodeBusinessOperation,
				"Cập nhật hồ sơ thất bại",
				common.StatusInternalServerError,
				err,
			))
			return nil
		}

		HandleResponse(c, fiber.Map{"updated": true}, nil)
		return nil
	})
}

// IntercomHash trả về HMAC-SHA256 của principal id với Intercom secret,
// dùng cho Intercom identity verification phía client
func (h *UserHandler) IntercomHash(c fiber.Ctx) error {
	return SafeHandler(c, func() error {
		principal := GetPrincipal(c)
		if principal == common.AnonymousPrincipal {
			HandleResponse(c, nil, common.ErrUnauthorizedAccess)
			return nil
		}

		mac := hmac.New(sha256.New, []byte(h.intercomSecret))
		mac.Write([]byte(principal))
		hash := hex.EncodeToString(mac.Sum(nil))

		HandleResponse(c, fiber.Map{"hash": hash}, nil)
		return nil
	})
}
