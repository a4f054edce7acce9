package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"connectify/internal/apperror"
	"connectify/internal/domain"
	"connectify/internal/service"
)

// MaxImageBytes caps the size of an uploaded post image.
const MaxImageBytes = 5 << 20

// Handler wires HTTP routes to domain services.
type Handler struct {
	users  service.UserService
	feed   service.FeedService
	posts  service.PostService
	logger *logrus.Logger
}

func NewHandler(users service.UserService, feed service.FeedService, posts service.PostService, logger *logrus.Logger) *Handler {
	if logger == nil {
		logger = logrus.New()
	}
	return &Handler{
		users:  users,
		feed:   feed,
		posts:  posts,
		logger: logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(), requestLogger(h.logger))

	api := router.Group("/api")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
		api.POST("/auth/register", h.register)
		api.POST("/auth/login", h.login)
	}

	secured := api.Group("")
	secured.Use(h.requireAuth())
	{
		secured.GET("/auth/session", h.session)
		secured.POST("/auth/logout", h.logout)
		secured.GET("/feed", h.loadFeed)
		secured.POST("/posts", h.createPost)
		secured.POST("/posts/:id/like", h.toggleLike)
		secured.PATCH("/users/me", h.updateProfile)
		secured.GET("/users/:id", h.getProfile)
		secured.GET("/users/:id/posts", h.listUserPosts)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

type registerRequest struct {
	Email          string `json:"email" binding:"required"`
	Password       string `json:"password" binding:"required"`
	RegisterSecret string `json:"registerSecret"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type toggleLikeRequest struct {
	CurrentlyLiked *bool `json:"currentlyLiked" binding:"required"`
}

type updateProfileRequest struct {
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	AvatarURL   *string `json:"avatarUrl"`
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	id, err := h.users.Register(c.Request.Context(), req.Email, req.Password, req.RegisterSecret)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id.ID, "email": id.Email})
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	session, err := h.users.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SessionResponse{
		Token:     session.Token,
		ExpiresAt: session.ExpiresAt.UTC().Format(timeLayout),
		User:      userToResponse(session.User, true),
	})
}

func (h *Handler) logout(c *gin.Context) {
	if err := h.users.SignOut(c.Request.Context(), currentIdentity(c)); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) session(c *gin.Context) {
	user, err := h.users.EnsureProfile(c.Request.Context(), currentIdentity(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user, true))
}

func (h *Handler) loadFeed(c *gin.Context) {
	feed, err := h.feed.LoadFeed(c.Request.Context(), currentIdentity(c).ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]FeedPostResponse, len(feed))
	for i := range feed {
		resp[i] = feedPostToResponse(feed[i])
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) createPost(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxImageBytes+1<<20)

	image, err := readImage(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	post, err := h.posts.CreatePost(c.Request.Context(), currentIdentity(c).ID, c.PostForm("content"), image)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, postToResponse(*post))
}

// readImage returns the optional "image" part of a multipart post form.
func readImage(c *gin.Context) (*domain.ImageUpload, error) {
	header, err := c.FormFile("image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperror.ValidationFailed("image", fmt.Sprintf("image must be %d MB or less", MaxImageBytes>>20))
		}
		return nil, apperror.ValidationFailed("image", "could not read the uploaded image")
	}
	if header.Size > MaxImageBytes {
		return nil, apperror.ValidationFailed("image", fmt.Sprintf("image must be %d MB or less", MaxImageBytes>>20))
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxImageBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(data) > MaxImageBytes {
		return nil, apperror.ValidationFailed("image", fmt.Sprintf("image must be %d MB or less", MaxImageBytes>>20))
	}

	return &domain.ImageUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

func (h *Handler) toggleLike(c *gin.Context) {
	var req toggleLikeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "currentlyLiked is required", "field": "currentlyLiked"})
		return
	}

	state, err := h.feed.ToggleLike(c.Request.Context(), currentIdentity(c).ID, c.Param("id"), *req.CurrentlyLiked)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, LikeStateResponse{
		PostID:     state.PostID,
		Liked:      state.Liked,
		LikesCount: state.LikesCount,
	})
}

func (h *Handler) getProfile(c *gin.Context) {
	user, err := h.users.GetProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user, user.ID == currentIdentity(c).ID))
}

func (h *Handler) updateProfile(c *gin.Context) {
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile update"})
		return
	}

	user, err := h.users.UpdateProfile(c.Request.Context(), currentIdentity(c).ID, domain.ProfilePatch{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		AvatarURL:   req.AvatarURL,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, userToResponse(*user, true))
}

func (h *Handler) listUserPosts(c *gin.Context) {
	posts, err := h.posts.ListUserPosts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	resp := make([]PostResponse, len(posts))
	for i := range posts {
		resp[i] = postToResponse(posts[i])
	}
	c.JSON(http.StatusOK, resp)
}
