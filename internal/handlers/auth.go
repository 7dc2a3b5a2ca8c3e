package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"accounts/internal/middleware"
	"accounts/internal/models"
	"accounts/internal/response"
	"accounts/internal/session"
)

// SessionService is the subset of *session.Manager used by the auth routes.
type SessionService interface {
	Register(ctx context.Context, in session.RegisterInput) (*models.User, error)
	Login(ctx context.Context, in session.LoginInput) (*session.LoginResult, error)
	Logout(ctx context.Context, userID primitive.ObjectID) error
	Refresh(ctx context.Context, presented string) (*session.TokenPair, error)
	ChangePassword(ctx context.Context, userID primitive.ObjectID, oldPassword, newPassword string) error
}

type LoginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

type loginResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
}

type tokensResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Register expects multipart form fields fullName, email, username, password
// and the files avatar (required) and coverImage (optional).
func Register(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "http.Register"

		if err := parseMultipart(c, op); err != nil {
			response.Error(c, err)
			return
		}

		avatar, closeAvatar, err := formFile(c, "avatar")
		defer closeAvatar()
		if err != nil {
			response.Error(c, bindError(op, err))
			return
		}
		cover, closeCover, err := formFile(c, "coverImage")
		defer closeCover()
		if err != nil {
			response.Error(c, bindError(op, err))
			return
		}

		ctx, cancel := requestContext(c, uploadTimeout)
		defer cancel()

		user, err := sessions.Register(ctx, session.RegisterInput{
			FullName:   c.PostForm("fullName"),
			Email:      c.PostForm("email"),
			Username:   c.PostForm("username"),
			Password:   c.PostForm("password"),
			Avatar:     avatar,
			CoverImage: cover,
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		response.OK(c, http.StatusCreated, user, "User registered successfully")
	}
}

func Login(sessions SessionService, cookies CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "http.Login"

		var req LoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(op, err))
			return
		}

		ctx, cancel := requestContext(c, storeTimeout)
		defer cancel()

		result, err := sessions.Login(ctx, session.LoginInput{
			Username: req.Username,
			Email:    req.Email,
			Password: req.Password,
		})
		if err != nil {
			response.Error(c, err)
			return
		}

		setAuthCookies(c, cookies, result.Tokens)
		response.OK(c, http.StatusOK, loginResponse{
			User:         result.User,
			AccessToken:  result.Tokens.AccessToken.Token,
			RefreshToken: result.Tokens.RefreshToken.Token,
		}, "User logged in successfully")
	}
}

func Logout(sessions SessionService, cookies CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "http.Logout"

		userID, ok := requireUserID(c, op)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c, storeTimeout)
		defer cancel()

		if err := sessions.Logout(ctx, userID); err != nil {
			response.Error(c, err)
			return
		}

		clearAuthCookies(c, cookies)
		response.OK(c, http.StatusOK, nil, "User logged out")
	}
}

// RefreshToken reads the refresh token from the refreshToken cookie, falling
// back to the JSON body.
func RefreshToken(sessions SessionService, cookies CookieConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "http.RefreshToken"

		presented, _ := c.Cookie(middleware.RefreshTokenCookie)
		if strings.TrimSpace(presented) == "" {
			var req RefreshRequest
			if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
				response.Error(c, bindError(op, err))
				return
			}
			presented = req.RefreshToken
		}

		ctx, cancel := requestContext(c, storeTimeout)
		defer cancel()

		pair, err := sessions.Refresh(ctx, presented)
		if err != nil {
			response.Error(c, err)
			return
		}

		setAuthCookies(c, cookies, *pair)
		response.OK(c, http.StatusOK, tokensResponse{
			AccessToken:  pair.AccessToken.Token,
			RefreshToken: pair.RefreshToken.Token,
		}, "Access token refreshed")
	}
}

func ChangePassword(sessions SessionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		const op = "http.ChangePassword"

		userID, ok := requireUserID(c, op)
		if !ok {
			return
		}

		var req ChangePasswordRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, bindError(op, err))
			return
		}

		ctx, cancel := requestContext(c, storeTimeout)
		defer cancel()

		if err := sessions.ChangePassword(ctx, userID, req.OldPassword, req.NewPassword); err != nil {
			response.Error(c, err)
			return
		}

		response.OK(c, http.StatusOK, nil, "Password changed successfully")
	}
}
