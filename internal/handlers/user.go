package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/kmazurov/storefront/internal/assets"
	"github.com/kmazurov/storefront/internal/hash"
	"github.com/kmazurov/storefront/internal/middleware/auth"
	"github.com/kmazurov/storefront/internal/models"
	"github.com/kmazurov/storefront/internal/mykafka"
)

type UserHandler struct {
	DB       *gorm.DB
	Assets   assets.Store
	Producer *mykafka.Producer
}

func (h *UserHandler) publish(c echo.Context, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, "user_events", fmt.Sprint(event["userID"]), event); err != nil {
		c.Logger().Errorf("Kafka publish error: %v", err)
	}
}

func (h *UserHandler) loadUser(c echo.Context) (*models.User, error) {
	userID, err := auth.UserID(c)
	if err != nil {
		return nil, err
	}
	var user models.User
	if err := h.DB.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, echo.NewHTTPError(http.StatusNotFound, "user not found")
		}
		return nil, echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return &user, nil
}

func (h *UserHandler) GetProfile(c echo.Context) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// deleteAvatarAsset removes the previous avatar from the image host.
// Best-effort: failures are logged and never fail the calling operation.
func (h *UserHandler) deleteAvatarAsset(c echo.Context, avatar string) {
	if h.Assets == nil || assets.IsDefaultAvatar(avatar) {
		return
	}
	publicID := assets.PublicIDFromURL(avatar)
	if publicID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()
	if err := h.Assets.Delete(ctx, publicID); err != nil {
		c.Logger().Warnf("avatar delete failed: %v", err)
	}
}

// UpdateProfile mutates only the allow-listed fields: name and avatar.
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var req struct {
		Name   *string `json:"name"`
		Avatar *string `json:"avatar"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Avatar != nil && *req.Avatar != user.Avatar {
		h.deleteAvatarAsset(c, user.Avatar)
		user.Avatar = *req.Avatar
	}

	if err := h.DB.Save(user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"name":   user.Name,
		"avatar": user.Avatar,
	})
}

func (h *UserHandler) ChangePassword(c echo.Context) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.NewPassword == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "new password is required")
	}
	if !hash.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		return echo.NewHTTPError(http.StatusBadRequest, "current password incorrect")
	}

	newHash, err := hash.HashPassword(req.NewPassword)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	user.PasswordHash = newHash

	if err := h.DB.Save(user).Error; err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "password changed"})
}

// DeleteAccount verifies the password, then in one transaction removes every
// non-delivered order (restoring its stock), detaches delivered orders, and
// deletes the user with their sessions. The avatar asset is cleaned up after
// commit, best-effort.
func (h *UserHandler) DeleteAccount(c echo.Context) error {
	user, err := h.loadUser(c)
	if err != nil {
		return err
	}

	var req struct {
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "password is required")
	}
	if !hash.CheckPassword(user.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusBadRequest, "password incorrect")
	}

	txErr := h.DB.Transaction(func(tx *gorm.DB) error {
		var orders []models.Order
		if err := tx.Preload("Items").Where("user_id = ?", user.ID).Find(&orders).Error; err != nil {
			return err
		}

		for i := range orders {
			order := &orders[i]
			if order.Status != models.StatusDelivered {
				if err := removeOrderWithRestore(tx, order); err != nil {
					return err
				}
				continue
			}
			// Delivered orders stay as financial history, detached
			// from the account being deleted.
			if err := tx.Model(order).Update("user_id", nil).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("user_id = ?", user.ID).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.User{}, user.ID).Error
	})
	if txErr != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, txErr.Error())
	}

	h.deleteAvatarAsset(c, user.Avatar)

	h.publish(c, map[string]any{
		"type":   "user_deleted",
		"userID": user.ID,
	})

	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted, orders cleaned up"})
}
