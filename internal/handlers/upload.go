package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/kmazurov/storefront/internal/assets"
)

type UploadHandler struct {
	Assets assets.Store
}

// UploadProductImage accepts a multipart "image" file and returns the
// delivery URL from the image host.
func (h *UploadHandler) UploadProductImage(c echo.Context) error {
	if h.Assets == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "image uploads are not configured")
	}

	fh, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "no file uploaded")
	}

	src, err := fh.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	defer src.Close()

	ctx, cancel := context.WithTimeout(c.Request().Context(), 30*time.Second)
	defer cancel()

	url, err := h.Assets.Upload(ctx, src, "products")
	if err != nil {
		c.Logger().Errorf("image upload failed: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "image upload failed")
	}

	return c.JSON(http.StatusOK, echo.Map{"image_url": url})
}
