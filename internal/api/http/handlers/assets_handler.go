package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campus-it/helpdesk/internal/api/dto"
	"github.com/campus-it/helpdesk/internal/domain"
	"github.com/campus-it/helpdesk/internal/service"
	apperrors "github.com/campus-it/helpdesk/pkg/util/errorutil"
)

// AssetsHandler exposes the asset registry to staff.
type AssetsHandler struct {
	assets *service.AssetService
}

// NewAssetsHandler constructs handler.
func NewAssetsHandler(assets *service.AssetService) *AssetsHandler {
	return &AssetsHandler{assets: assets}
}

// List GET /staff/assets.
func (h *AssetsHandler) List(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	filter := service.AssetListFilter{
		Search: strings.TrimSpace(c.Query("search")),
		Sort:   c.Query("sort"),
	}
	if typ := c.Query("asset_type"); typ != "" {
		t := domain.AssetType(typ)
		filter.Type = &t
	}
	if active := c.Query("is_active"); active != "" {
		v, err := strconv.ParseBool(active)
		if err != nil {
			return apperrors.NewValidationError("is_active must be true or false", map[string]any{"is_active": active})
		}
		filter.Active = &v
	}
	filter.Limit, filter.Offset = pageBounds(c)

	page, err := h.assets.List(c.UserContext(), staff, filter)
	if err != nil {
		return err
	}
	items := make([]dto.AssetResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, assetResponse(&page.Items[i], false))
	}
	return c.JSON(fiber.Map{"data": dto.AssetListResponse{Items: items, Total: page.Total}})
}

// Get GET /staff/assets/:inventory.
func (h *AssetsHandler) Get(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	asset, err := h.assets.Get(c.UserContext(), staff, c.Params("inventory"))
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, staff, asset)
}

// Create POST /staff/assets.
func (h *AssetsHandler) Create(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req service.AssetInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	asset, err := h.assets.Create(c.UserContext(), staff, req)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusCreated, staff, asset)
}

// Update PUT /staff/assets/:inventory.
func (h *AssetsHandler) Update(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	var req service.AssetInput
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	asset, err := h.assets.Update(c.UserContext(), staff, c.Params("inventory"), req)
	if err != nil {
		return err
	}
	return h.render(c, http.StatusOK, staff, asset)
}

// Delete DELETE /staff/assets/:inventory.
func (h *AssetsHandler) Delete(c *fiber.Ctx) error {
	staff, err := staffPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.assets.Delete(c.UserContext(), staff, c.Params("inventory")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *AssetsHandler) render(c *fiber.Ctx, status int, staff *domain.StaffMember, asset *domain.Asset) error {
	withSecrets, err := h.assets.ModifiableBy(c.UserContext(), staff, asset)
	if err != nil {
		return err
	}
	return c.Status(status).JSON(fiber.Map{"data": assetResponse(asset, withSecrets)})
}
