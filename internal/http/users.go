package http

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"taskflow/internal/auth"
	"taskflow/internal/domain"
	"taskflow/internal/service"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User         *domain.User `json:"user"`
	AccessToken  string       `json:"accesstoken"`
	RefreshToken string       `json:"refreshtoken"`
}

func (h *Handler) register(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes+1<<20)

	avatarPath, err := h.saveAvatar(c)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if avatarPath != "" {
		defer func() {
			if err := os.Remove(avatarPath); err != nil && !os.IsNotExist(err) {
				h.logger.WithError(err).WithField("path", avatarPath).Warn("remove temp avatar")
			}
		}()
	}

	sess, err := h.users.Register(c.Request.Context(), service.RegisterInput{
		FullName:   c.PostForm("fullname"),
		Email:      c.PostForm("email"),
		Password:   c.PostForm("password"),
		AvatarPath: avatarPath,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookies(c, sess.Tokens)
	respond(c, http.StatusCreated, "User registered successfully", toSessionResponse(sess))
}

// saveAvatar stores the multipart avatar under a fresh name in the temp dir. A missing
// file yields an empty path and is left to the service to reject.
func (h *Handler) saveAvatar(c *gin.Context) (string, error) {
	file, err := c.FormFile("avatar")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", domain.Validation("request body too large")
		}
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", domain.Validation("invalid multipart form")
	}
	if file.Size > h.opts.MaxUploadBytes {
		return "", domain.Validation("avatar is too large")
	}

	if err := os.MkdirAll(h.opts.TempDir, 0o755); err != nil {
		return "", domain.Internal("failed to prepare upload dir", err)
	}
	dst := filepath.Join(h.opts.TempDir, uuid.NewString()+strings.ToLower(filepath.Ext(file.Filename)))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		return "", domain.Internal("failed to store upload", err)
	}
	return dst, nil
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	sess, err := h.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setSessionCookies(c, sess.Tokens)
	respond(c, http.StatusOK, "User logged in successfully", toSessionResponse(sess))
}

func (h *Handler) logout(c *gin.Context) {
	user := currentUser(c)
	if err := h.users.Logout(c.Request.Context(), user.ID, currentClaims(c)); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearSessionCookies(c)
	respond(c, http.StatusOK, "User logged out", nil)
}

// me reloads the caller so the response reflects the stored record.
func (h *Handler) me(c *gin.Context) {
	user, err := h.users.GetByID(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respond(c, http.StatusOK, "", user)
}

func (h *Handler) setSessionCookies(c *gin.Context, pair auth.TokenPair) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, pair.AccessToken, seconds(h.opts.AccessTTL), "/", "", h.opts.SecureCookies, true)
	c.SetCookie(refreshCookie, pair.RefreshToken, seconds(h.opts.RefreshTTL), "/", "", h.opts.SecureCookies, true)
}

func (h *Handler) clearSessionCookies(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(accessCookie, "", -1, "/", "", h.opts.SecureCookies, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", h.opts.SecureCookies, true)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}

func toSessionResponse(sess *service.Session) sessionResponse {
	return sessionResponse{
		User:         sess.User,
		AccessToken:  sess.Tokens.AccessToken,
		RefreshToken: sess.Tokens.RefreshToken,
	}
}
