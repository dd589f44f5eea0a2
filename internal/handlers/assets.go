package handlers

import (
	"mime"
	"path/filepath"
	"strings"

	"github.com/assetshare/backend/internal/middleware"
	"github.com/assetshare/backend/internal/services"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/gofiber/fiber/v2"
)

type AssetsHandler struct {
	Assets  *services.AssetService
	Uploads *services.UploadService
}

func NewAssetsHandler(assets *services.AssetService, uploads *services.UploadService) *AssetsHandler {
	return &AssetsHandler{
		Assets:  assets,
		Uploads: uploads,
	}
}

type renameRequest struct {
	FileName string `json:"fileName"`
}

type shareRequest struct {
	SharingCode string `json:"sharingCode"`
}

type unshareRequest struct {
	UserID string `json:"userId"`
}

func (h *AssetsHandler) Upload(c *fiber.Ctx) error {
	identity := middleware.GetIdentity(c)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "No file uploaded")
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = mime.TypeByExtension(strings.ToLower(filepath.Ext(fileHeader.Filename)))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	file, err := fileHeader.Open()
	if err != nil {
		return respondError(c, "asset_upload_open_failed", err)
	}
	defer file.Close()

	asset, err := h.Uploads.Upload(c.UserContext(), identity, &services.UploadInput{
		FileName: filepath.Base(fileHeader.Filename),
		MimeType: contentType,
		Size:     fileHeader.Size,
		Reader:   file,
	})
	if err != nil {
		return respondError(c, "asset_upload_failed", err)
	}
	return utils.Success(c, fiber.StatusCreated, asset)
}

func (h *AssetsHandler) List(c *fiber.Ctx) error {
	assets, err := h.Assets.List(c.UserContext(), middleware.GetIdentity(c), services.ListFilter{
		Type:  c.Query("type"),
		Query: c.Query("query"),
	})
	if err != nil {
		return respondError(c, "asset_list_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, assets)
}

func (h *AssetsHandler) Get(c *fiber.Ctx) error {
	assetID, ok := parseAssetID(c)
	if !ok {
		return utils.Error(c, fiber.StatusNotFound, "Asset not found")
	}

	asset, err := h.Assets.Get(c.UserContext(), middleware.GetIdentity(c), assetID)
	if err != nil {
		return respondError(c, "asset_get_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, asset)
}

func (h *AssetsHandler) Update(c *fiber.Ctx) error {
	assetID, ok := parseAssetID(c)
	if !ok {
		return utils.Error(c, fiber.StatusNotFound, "Asset not found")
	}

	var req renameRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	asset, err := h.Assets.Rename(c.UserContext(), middleware.GetIdentity(c), assetID, req.FileName)
	if err != nil {
		return respondError(c, "asset_update_failed", err)
	}
	return utils.Success(c, fiber.StatusOK, asset)
}

func (h *AssetsHandler) Delete(c *fiber.Ctx) error {
	assetID, ok := parseAssetID(c)
	if !ok {
		return utils.Error(c, fiber.StatusNotFound, "Asset not found")
	}

	if err := h.Assets.Delete(c.UserContext(), middleware.GetIdentity(c), assetID); err != nil {
		return respondError(c, "asset_delete_failed", err)
	}
	return utils.Message(c, fiber.StatusOK, "Asset removed")
}

func (h *AssetsHandler) Share(c *fiber.Ctx) error {
	assetID, ok := parseAssetID(c)
	if !ok {
		return utils.Error(c, fiber.StatusNotFound, "Asset not found")
	}

	var req shareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if _, err := h.Assets.Share(c.UserContext(), middleware.GetIdentity(c), assetID, req.SharingCode); err != nil {
		return respondError(c, "asset_share_failed", err)
	}
	return utils.Message(c, fiber.StatusOK, "Asset shared successfully")
}

func (h *AssetsHandler) Unshare(c *fiber.Ctx) error {
	assetID, ok := parseAssetID(c)
	if !ok {
		return utils.Error(c, fiber.StatusNotFound, "Asset not found")
	}

	var req unshareRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.Error(c, fiber.StatusBadRequest, "Invalid request body")
	}

	if err := h.Assets.Unshare(c.UserContext(), middleware.GetIdentity(c), assetID, req.UserID); err != nil {
		return respondError(c, "asset_unshare_failed", err)
	}
	return utils.Message(c, fiber.StatusOK, "Asset unshared successfully")
}

func (h *AssetsHandler) Download(c *fiber.Ctx) error {
	assetID, ok := parseAssetID(c)
	if !ok {
		return utils.Error(c, fiber.StatusNotFound, "Asset not found")
	}

	asset, reader, err := h.Assets.Open(c.UserContext(), middleware.GetIdentity(c), assetID)
	if err != nil {
		return respondError(c, "asset_download_failed", err)
	}

	c.Set("Content-Type", asset.FileType)
	c.Set("Content-Disposition", contentDisposition(asset.FileName))
	// SendStream closes the reader once the body is written.
	return c.SendStream(reader, int(asset.FileSize))
}

// contentDisposition switches to the RFC 2231 filename* form for non-ASCII names.
func contentDisposition(fileName string) string {
	if value := mime.FormatMediaType("attachment", map[string]string{"filename": fileName}); value != "" {
		return value
	}
	return "attachment"
}
