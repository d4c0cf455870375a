package api

import (
	"crypto/subtle"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/LJTian/ArxivHub/internal/manager"
)

type Server struct {
	manager *manager.Manager
}

func NewServer(m *manager.Manager) *Server {
	return &Server{manager: m}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/papers", s.listPapers)
		v1.POST("/papers/sort", s.setSort)
		v1.POST("/papers/next", s.nextPage)
		v1.POST("/papers/prev", s.prevPage)
		v1.POST("/papers/refresh", s.refresh)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// listPapers 渲染当前页；请求先过缓存闸门，过期则由本次请求承担刷新耗时
func (s *Server) listPapers(c *gin.Context) {
	if err := s.manager.RefreshIfStale(c.Request.Context()); err != nil {
		log.Printf("api: refresh error: %v", err)
		// 刷新失败但仍有旧数据时继续服务旧数据
		view := s.manager.RenderPage()
		if view.Total > 0 {
			c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": view})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "refresh_failed",
			"message": "failed to fetch papers, please try again later",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": s.manager.RenderPage()})
}

type sortRequest struct {
	Method string `json:"method"`
}

// setSort 切换排序模式（hot/new/rising，未知值回退 hot），总是回到第 1 页
func (s *Server) setSort(c *gin.Context) {
	var req sortRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": "bad_request", "message": "invalid body"})
		return
	}
	view := s.manager.SetSortMethod(req.Method)
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": view})
}

func (s *Server) nextPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": s.manager.NextPage()})
}

func (s *Server) prevPage(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": s.manager.PrevPage()})
}

// refresh 显式触发一次缓存闸门检查；TTL 内等价于直接渲染当前页
func (s *Server) refresh(c *gin.Context) {
	if err := s.manager.RefreshIfStale(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{
			"code":    "refresh_failed",
			"message": "failed to fetch papers, please try again later",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "ok", "message": "success", "data": s.manager.RenderPage()})
}

// BasicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// /health 不做认证，便于健康检查。
func BasicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
