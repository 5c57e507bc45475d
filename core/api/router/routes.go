package router

import (
	"fmt"

	"github.com/gofiber/fiber/v3"

	"github.com/zimmerman-team/dx.server/core/api/handler"
	"github.com/zimmerman-team/dx.server/core/api/middleware"
	"github.com/zimmerman-team/dx.server/core/api/services"
	"github.com/zimmerman-team/dx.server/core/backend"
	"github.com/zimmerman-team/dx.server/core/directory"
)

// ============================================================================
// ⚠️ QUAN TRỌNG: BUG FIBER V3 - CÁCH ĐĂNG KÝ MIDDLEWARE
// ============================================================================
//
// Fiber v3 có BUG nghiêm trọng với cách đăng ký middleware trực tiếp trong route.
// Middleware sẽ KHÔNG được gọi nếu dùng cách trực tiếp!
//
// ❌ CÁCH SAI (KHÔNG HOẠT ĐỘNG):
//    router.Get("/path", middleware.RequireAuth(secret), handler)
//    → Middleware sẽ KHÔNG được gọi, request sẽ bỏ qua middleware!
//
// ✅ CÁCH ĐÚNG (PHẢI DÙNG):
//    authMiddleware := middleware.RequireAuth(secret)
//    registerRouteWithMiddleware(router, "/prefix", "GET", "/path", []fiber.Handler{authMiddleware}, handler)
//    → Middleware sẽ được gọi đúng cách thông qua .Use() method
//
// ============================================================================

// AssetRoutes là surface chung của ba handler asset (dataset, chart, report)
type AssetRoutes interface {
	Create(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Count(c fiber.Ctx) error
	GetById(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Delete(c fiber.Ctx) error
	PublicList(c fiber.Ctx) error
	PublicCount(c fiber.Ctx) error
	PublicGetById(c fiber.Ctx) error
}

// RoutePrefix chứa các prefix cơ bản cho API
type RoutePrefix struct {
	Base string // Prefix cơ bản (/api)
	V1   string // Prefix cho API version 1 (/api/v1)
}

// NewRoutePrefix tạo mới một instance của RoutePrefix với các giá trị mặc định
func NewRoutePrefix() RoutePrefix {
	base := "/api"
	return RoutePrefix{
		Base: base,
		V1:   base + "/v1",
	}
}

// Dependencies gom các phụ thuộc đã khởi tạo ở bootstrap cho việc dựng handler
type Dependencies struct {
	JwtSecret         string
	IntercomSecretKey string
	Visibility        *services.VisibilityService
	Duplication       *services.DuplicationService
	Backend           *backend.Client
	Directory         *directory.Client
}

// Router quản lý việc định tuyến cho API
type Router struct {
	app *fiber.App
}

// NewRouter tạo mới một instance của Router
func NewRouter(app *fiber.App) *Router {
	return &Router{
		app: app,
	}
}

// registerRouteWithMiddleware đăng ký route với middleware sử dụng .Use() method (cách đúng theo Fiber v3)
//
// ❌ KHÔNG DÙNG cách trực tiếp: router.Get(path, middleware, handler) - middleware sẽ KHÔNG được gọi!
// ✅ PHẢI DÙNG cách này: registerRouteWithMiddleware với .Use() method
func registerRouteWithMiddleware(router fiber.Router, prefix string, method string, path string, middlewares []fiber.Handler, handler fiber.Handler) {
	// Tạo group với prefix, middleware sẽ chỉ áp dụng cho routes trong group này
	routeGroup := router.Group(prefix)
	for _, mw := range middlewares {
		routeGroup.Use(mw)
	}

	// Đăng ký route với path tương đối (không có prefix vì đã có trong group)
	switch method {
	case "GET":
		routeGroup.Get(path, handler)
	case "POST":
		routeGroup.Post(path, handler)
	case "PUT":
		routeGroup.Put(path, handler)
	case "PATCH":
		routeGroup.Patch(path, handler)
	case "DELETE":
		routeGroup.Delete(path, handler)
	}
}

// registerAssetRoutes đăng ký surface chuẩn cho một loại asset:
// đọc qua optional-auth (ẩn danh thấy public), ghi qua require-auth,
// nhánh /public không cần auth.
func registerAssetRoutes(router fiber.Router, prefix string, h AssetRoutes, requireAuth, optionalAuth fiber.Handler) {
	registerRouteWithMiddleware(router, prefix, "GET", "/public", nil, h.PublicList)
	registerRouteWithMiddleware(router, prefix, "GET", "/public/count", nil, h.PublicCount)
	registerRouteWithMiddleware(router, prefix, "GET", "/public/:id", nil, h.PublicGetById)

	registerRouteWithMiddleware(router, prefix, "GET", "/", []fiber.Handler{optionalAuth}, h.List)
	registerRouteWithMiddleware(router, prefix, "GET", "/count", []fiber.Handler{optionalAuth}, h.Count)
	registerRouteWithMiddleware(router, prefix, "GET", "/:id", []fiber.Handler{optionalAuth}, h.GetById)

	registerRouteWithMiddleware(router, prefix, "POST", "/", []fiber.Handler{requireAuth}, h.Create)
	registerRouteWithMiddleware(router, prefix, "PATCH", "/:id", []fiber.Handler{requireAuth}, h.Update)
	registerRouteWithMiddleware(router, prefix, "DELETE", "/:id", []fiber.Handler{requireAuth}, h.Delete)
}

// SetupRoutes khởi tạo các handler và đăng ký toàn bộ route của API
func (r *Router) SetupRoutes(deps Dependencies) error {
	prefix := NewRoutePrefix()
	v1 := r.app.Group(prefix.V1)

	requireAuth := middleware.RequireAuth(deps.JwtSecret)
	optionalAuth := middleware.OptionalAuth(deps.JwtSecret)

	datasetHandler, err := handler.NewDatasetHandler(deps.Visibility, deps.Backend)
	if err != nil {
		return fmt.Errorf("failed to create dataset handler: %v", err)
	}
	chartHandler, err := handler.NewChartHandler(deps.Visibility)
	if err != nil {
		return fmt.Errorf("failed to create chart handler: %v", err)
	}
	reportHandler, err := handler.NewReportHandler(deps.Visibility)
	if err != nil {
		return fmt.Errorf("failed to create report handler: %v", err)
	}
	userHandler := handler.NewUserHandler(deps.Duplication, deps.Directory, deps.IntercomSecretKey)

	registerAssetRoutes(v1, "/datasets", datasetHandler, requireAuth, optionalAuth)
	registerAssetRoutes(v1, "/charts", chartHandler, requireAuth, optionalAuth)
	registerAssetRoutes(v1, "/reports", reportHandler, requireAuth, optionalAuth)

	registerRouteWithMiddleware(v1, "/users", "POST", "/duplicate-assets", []fiber.Handler{requireAuth}, userHandler.DuplicateAssets)
	registerRouteWithMiddleware(v1, "/users", "GET", "/duplicate-landing-report/:id", []fiber.Handler{requireAuth}, userHandler.DuplicateLandingReport)
	registerRouteWithMiddleware(v1, "/users", "POST", "/delete-account", []fiber.Handler{requireAuth}, userHandler.DeleteAccount)
	registerRouteWithMiddleware(v1, "/users", "PATCH", "/update-profile", []fiber.Handler{requireAuth}, userHandler.UpdateProfile)
	registerRouteWithMiddleware(v1, "/users", "GET", "/intercom-hash", []fiber.Handler{requireAuth}, userHandler.IntercomHash)

	return nil
}
