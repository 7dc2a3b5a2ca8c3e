package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"accounts/internal/media"
	"accounts/internal/models"
	"accounts/internal/response"
)

type ProfileService interface {
	Current(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	UpdateAccount(ctx context.Context, userID primitive.ObjectID, fullName, email string) (*models.User, error)
	UpdateAvatar(ctx context.Context, userID primitive.ObjectID, f *media.File) (*models.User, error)
	UpdateCoverImage(ctx context.Context, userID primitive.ObjectID, f *media.File) (*models.User, error)
}

type UpdateAccountRequest struct {
	FullName string `json:"fullName" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

func GetCurrentUser(profiles ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c, "http.GetCurrentUser")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, storeTimeout)
		defer cancel()

		user, err := profiles.Current(ctx, userID)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, user, "Current user fetched successfully")
	}
}

func UpdateAccount(profiles ProfileService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "http.UpdateAccount"

		userID, ok := requireUserID(c, op)
		if !ok {
			return
		}

		var req UpdateAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(op, err))
			return
		}

		ctx, cancel := requestContext(c, storeTimeout)
		defer cancel()

		user, err := profiles.UpdateAccount(ctx, userID, req.FullName, req.Email)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, user, "Account details updated successfully")
	}
}

func UpdateAvatar(profiles ProfileService) gin.HandlerFunc {
	return imageUpdate("http.UpdateAvatar", "avatar", "Avatar image updated successfully", profiles.UpdateAvatar)
}

func UpdateCoverImage(profiles ProfileService) gin.HandlerFunc {
	return imageUpdate("http.UpdateCoverImage", "coverImage", "Cover image updated successfully", profiles.UpdateCoverImage)
}

type imageUpdater func(ctx context.Context, userID primitive.ObjectID, f *media.File) (*models.User, error)

func imageUpdate(op, field, message string, update imageUpdater) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := requireUserID(c, op)
		if !ok {
			return
		}

		if err := parseMultipart(c, op); err != nil {
			response.Error(c, err)
			return
		}

		file, closeFile, err := formFile(c, field)
		defer closeFile()
		if err != nil {
			response.Error(c, bindError(op, err))
			return
		}

		ctx, cancel := requestContext(c, uploadTimeout)
		defer cancel()

		user, err := update(ctx, userID, file)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, http.StatusOK, user, message)
	}
}
