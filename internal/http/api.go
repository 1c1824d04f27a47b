package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"inkwell/internal/auth"
	"inkwell/internal/domain"
	"inkwell/internal/repository"
	"inkwell/internal/service"
)

const ctxUserID = "userID"

// Handler wires HTTP routes to domain services. Browser flows answer with
// redirects plus flash messages; API flows answer with JSON and bearer tokens.
type Handler struct {
	users     service.UserService
	posts     service.PostService
	follows   service.FollowService
	sessions  *SessionManager
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *logrus.Logger
}

func NewHandler(
	users service.UserService,
	posts service.PostService,
	follows service.FollowService,
	sessions *SessionManager,
	jwtSecret []byte,
	tokenTTL time.Duration,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		users:     users,
		posts:     posts,
		follows:   follows,
		sessions:  sessions,
		jwtSecret: jwtSecret,
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware())

	router.GET("/", h.home)
	router.POST("/register", h.register)
	router.POST("/login", h.login)
	router.POST("/logout", h.requireSession(), h.logout)

	router.GET("/post/:id", h.viewPost)
	router.POST("/create-post", h.requireSession(), h.createPost)
	router.POST("/post/:id/edit", h.requireSession(), h.editPost)
	router.POST("/post/:id/delete", h.requireSession(), h.deletePost)

	router.POST("/search", h.search)
	router.GET("/profile/:username", h.profile)
	router.POST("/addFollow/:username", h.requireSession(), h.addFollow)
	router.POST("/removeFollow/:username", h.requireSession(), h.removeFollow)
	router.POST("/doesUsernameExist", h.doesUsernameExist)
	router.POST("/doesEmailExist", h.doesEmailExist)

	api := router.Group("/api")
	{
		api.POST("/login", h.apiLogin)
		api.POST("/create-post", h.requireToken(), h.apiCreatePost)
		api.DELETE("/post/:id", h.requireToken(), h.apiDeletePost)
		api.GET("/profile/:username/posts", h.apiProfilePosts)
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// requireSession gates browser routes. Unauthenticated callers are bounced
// home with a flash, like every other browser-flow failure.
func (h *Handler) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := h.sessions.Viewer(c.Request)
		if !ok {
			_ = h.sessions.Flash(c.Writer, c.Request, FlashErrors, "You must be logged in to perform that action.")
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Set(ctxUserID, user.ID)
		c.Next()
	}
}

// requireToken gates API routes on a bearer token, taken from the
// Authorization header or, failing that, a token field in the request body.
func (h *Handler) requireToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := auth.UserIDFromToken(tokenFromRequest(c), h.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Sorry, you must provide a valid token."})
			return
		}
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

func tokenFromRequest(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer"))
	}
	if c.ContentType() == "application/json" {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return ""
		}
		// handlers still bind the body after the middleware peeks at it
		c.Request.Body = io.NopCloser(bytes.NewReader(data))
		var body struct {
			Token string `json:"token"`
		}
		_ = json.Unmarshal(data, &body)
		return body.Token
	}
	return c.PostForm("token")
}

// viewerID returns the acting account id: the gated value if a middleware ran,
// otherwise the session user, otherwise 0 for anonymous.
func (h *Handler) viewerID(c *gin.Context) int64 {
	if id, ok := c.Get(ctxUserID); ok {
		return id.(int64)
	}
	if user, ok := h.sessions.Viewer(c.Request); ok {
		return user.ID
	}
	return 0
}

func (h *Handler) flashAll(c *gin.Context, category string, messages []string) {
	for _, msg := range messages {
		_ = h.sessions.Flash(c.Writer, c.Request, category, msg)
	}
}

func (h *Handler) home(c *gin.Context) {
	if user, ok := h.sessions.Viewer(c.Request); ok {
		feed, err := h.posts.Feed(c.Request.Context(), user.ID)
		if err != nil {
			h.logger.WithError(err).Warn("load feed")
			feed = []domain.PostView{}
		}
		c.JSON(http.StatusOK, gin.H{
			"username": user.Username,
			"avatar":   user.Avatar,
			"feed":     feed,
			"success":  h.sessions.Flashes(c.Writer, c.Request, FlashSuccess),
			"errors":   h.sessions.Flashes(c.Writer, c.Request, FlashErrors),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"errors":         h.sessions.Flashes(c.Writer, c.Request, FlashErrors),
		"registerErrors": h.sessions.Flashes(c.Writer, c.Request, FlashRegister),
	})
}

func (h *Handler) register(c *gin.Context) {
	user, err := h.users.Register(
		c.Request.Context(),
		c.PostForm("username"),
		c.PostForm("email"),
		c.PostForm("password"),
	)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			h.flashAll(c, FlashRegister, verrs)
		} else {
			h.logger.WithError(err).Error("register")
			_ = h.sessions.Flash(c.Writer, c.Request, FlashRegister, domain.ErrTryAgainLater)
		}
		c.Redirect(http.StatusFound, "/")
		return
	}

	if err := h.sessions.SignIn(c.Writer, c.Request, user); err != nil {
		h.logger.WithError(err).Warn("issue session after register")
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) login(c *gin.Context) {
	user, err := h.users.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		// every failure looks the same to the caller
		_ = h.sessions.Flash(c.Writer, c.Request, FlashErrors, "Invalid username / password.")
		c.Redirect(http.StatusFound, "/")
		return
	}

	if err := h.sessions.SignIn(c.Writer, c.Request, user); err != nil {
		h.logger.WithError(err).Warn("issue session after login")
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) logout(c *gin.Context) {
	_ = h.sessions.SignOut(c.Writer, c.Request)
	c.Redirect(http.StatusFound, "/")
}

func (h *Handler) viewPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	post, err := h.posts.FindByID(c.Request.Context(), id, h.viewerID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) createPost(c *gin.Context) {
	post, err := h.posts.Create(c.Request.Context(), h.viewerID(c), c.PostForm("title"), c.PostForm("body"))
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			h.flashAll(c, FlashErrors, verrs)
		}
		c.Redirect(http.StatusFound, "/create-post")
		return
	}

	_ = h.sessions.Flash(c.Writer, c.Request, FlashSuccess, "New post successfully created.")
	c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d", post.ID))
}

func (h *Handler) editPost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	err = h.posts.Update(c.Request.Context(), id, h.viewerID(c), c.PostForm("title"), c.PostForm("body"))
	switch {
	case err == nil:
		_ = h.sessions.Flash(c.Writer, c.Request, FlashSuccess, "Post successfully updated.")
		c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d/edit", id))
	case errors.Is(err, service.ErrForbidden), errors.Is(err, repository.ErrNotFound):
		_ = h.sessions.Flash(c.Writer, c.Request, FlashErrors, "You do not have permission to perform that action.")
		c.Redirect(http.StatusFound, "/")
	default:
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			h.flashAll(c, FlashErrors, verrs)
		}
		c.Redirect(http.StatusFound, fmt.Sprintf("/post/%d/edit", id))
	}
}

func (h *Handler) deletePost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	if err := h.posts.Delete(c.Request.Context(), id, h.viewerID(c)); err != nil {
		_ = h.sessions.Flash(c.Writer, c.Request, FlashErrors, "You do not have permission to perform that action.")
		c.Redirect(http.StatusFound, "/")
		return
	}

	_ = h.sessions.Flash(c.Writer, c.Request, FlashSuccess, "Post successfully deleted.")
	user, _ := h.sessions.Viewer(c.Request)
	c.Redirect(http.StatusFound, "/profile/"+user.Username)
}

type searchRequest struct {
	SearchTerm string `json:"searchTerm" form:"searchTerm"`
}

func (h *Handler) search(c *gin.Context) {
	var req searchRequest
	// malformed input is treated as an empty search, never an error
	_ = c.ShouldBind(&req)
	c.JSON(http.StatusOK, h.posts.Search(c.Request.Context(), req.SearchTerm))
}

func (h *Handler) addFollow(c *gin.Context) {
	h.changeFollow(c, h.follows.Follow)
}

func (h *Handler) removeFollow(c *gin.Context) {
	h.changeFollow(c, h.follows.Unfollow)
}

func (h *Handler) changeFollow(c *gin.Context, transition func(ctx context.Context, followerID int64, username string) error) {
	username := c.Param("username")
	if err := transition(c.Request.Context(), h.viewerID(c), username); err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			h.flashAll(c, FlashErrors, verrs)
		} else {
			h.logger.WithError(err).Error("change follow")
			_ = h.sessions.Flash(c.Writer, c.Request, FlashErrors, domain.ErrTryAgainLater)
		}
		c.Redirect(http.StatusFound, "/")
		return
	}
	c.Redirect(http.StatusFound, "/profile/"+username)
}

func (h *Handler) profile(c *gin.Context) {
	ctx := c.Request.Context()

	profileUser, err := h.users.GetByUsername(ctx, c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	viewerID := h.viewerID(c)

	posts, err := h.posts.ListByAuthor(ctx, profileUser.ID, viewerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	followers, err := h.follows.Followers(ctx, profileUser.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	following, err := h.follows.Following(ctx, profileUser.ID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	postCount, _ := h.posts.CountByAuthor(ctx, profileUser.ID)
	followerCount, _ := h.follows.CountFollowers(ctx, profileUser.ID)
	followingCount, _ := h.follows.CountFollowing(ctx, profileUser.ID)
	isFollowing, _ := h.follows.IsFollowing(ctx, profileUser.ID, viewerID)

	c.JSON(http.StatusOK, gin.H{
		"profileUsername": profileUser.Username,
		"profileAvatar":   profileUser.Avatar(),
		"isFollowing":     isFollowing,
		"isOwnProfile":    viewerID == profileUser.ID,
		"counts": gin.H{
			"postCount":      postCount,
			"followerCount":  followerCount,
			"followingCount": followingCount,
		},
		"posts":     posts,
		"followers": followers,
		"following": following,
	})
}

type usernameProbe struct {
	Username string `json:"username" form:"username"`
}

type emailProbe struct {
	Email string `json:"email" form:"email"`
}

func (h *Handler) doesUsernameExist(c *gin.Context) {
	var req usernameProbe
	_ = c.ShouldBind(&req)
	exists, err := h.users.UsernameExists(c.Request.Context(), req.Username)
	if err != nil {
		h.logger.WithError(err).Warn("username probe")
	}
	c.JSON(http.StatusOK, exists)
}

func (h *Handler) doesEmailExist(c *gin.Context) {
	var req emailProbe
	_ = c.ShouldBind(&req)
	exists, err := h.users.EmailExists(c.Request.Context(), req.Email)
	if err != nil {
		h.logger.WithError(err).Warn("email probe")
	}
	c.JSON(http.StatusOK, exists)
}

type apiLoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) apiLogin(c *gin.Context) {
	var req apiLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	user, err := h.users.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Sorry, your values are not correct."})
		return
	}

	token, err := auth.GenerateToken(user.ID, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.WithError(err).Error("sign token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

type apiCreatePostRequest struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

func (h *Handler) apiCreatePost(c *gin.Context) {
	var req apiCreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	post, err := h.posts.Create(c.Request.Context(), h.viewerID(c), req.Title, req.Body)
	if err != nil {
		var verrs domain.ValidationErrors
		if errors.As(err, &verrs) {
			c.JSON(http.StatusBadRequest, gin.H{"errors": []string(verrs)})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.ErrTryAgainLater})
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *Handler) apiDeletePost(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
		return
	}

	err = h.posts.Delete(c.Request.Context(), id, h.viewerID(c))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"deleted": id})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to perform that action."})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "post not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.ErrTryAgainLater})
	}
}

func (h *Handler) apiProfilePosts(c *gin.Context) {
	user, err := h.users.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}

	posts, err := h.posts.ListByAuthor(c.Request.Context(), user.ID, 0)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": domain.ErrTryAgainLater})
		return
	}
	c.JSON(http.StatusOK, posts)
}
