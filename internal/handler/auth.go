package handlers

import (
	"encoding/json"

	"RuralCare/internal/models"
	"RuralCare/pkg/errors"
	"RuralCare/pkg/middleware"
	"RuralCare/pkg/response"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

const (
	principalSessionKey = "principal"
	principalContextKey = "principal"
)

// loadPrincipal 从会话恢复身份；未登录时不做处理
func (h *Handlers) loadPrincipal(c *gin.Context) {
	raw, ok := sessions.Default(c).Get(principalSessionKey).(string)
	if !ok || raw == "" {
		c.Next()
		return
	}
	var p models.Principal
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		c.Next()
		return
	}
	c.Set(principalContextKey, &p)
	c.Set(middleware.UserIDKey, p.ID)
	c.Set(middleware.UsernameKey, p.Name)
	c.Set(middleware.RoleKey, string(p.Role))
	c.Next()
}

// CurrentPrincipal 当前登录身份，未登录返回 nil
func CurrentPrincipal(c *gin.Context) *models.Principal {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return nil
	}
	p, _ := v.(*models.Principal)
	return p
}

// AuthRequired 要求已登录
func AuthRequired(c *gin.Context) {
	if CurrentPrincipal(c) == nil {
		response.AbortWithError(c, errors.Unauthorized("Unauthorized"))
		return
	}
	c.Next()
}

// RoleRequired 要求角色之一
func RoleRequired(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := CurrentPrincipal(c)
		if p == nil {
			response.AbortWithError(c, errors.Unauthorized("Unauthorized"))
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		response.AbortWithError(c, errors.Forbidden("Forbidden"))
	}
}

type registerRequest struct {
	Email        string `json:"email" binding:"required"`
	Password     string `json:"password" binding:"required"`
	Name         string `json:"name" binding:"required"`
	Phone        string `json:"phone"`
	Village      string `json:"village"`
	AssignedArea string `json:"assignedArea"`
}

func (h *Handlers) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Email, password and name are required", nil)
		return
	}
	w := &models.Worker{
		Email:        req.Email,
		Name:         req.Name,
		Phone:        req.Phone,
		Village:      req.Village,
		AssignedArea: req.AssignedArea,
	}
	if err := models.RegisterWorker(h.db, w, req.Password); err != nil {
		response.AbortWithError(c, err)
		return
	}
	response.Created(c, "Registration successful", w)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *Handlers) handleLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, "Email and password are required", nil)
		return
	}
	p, err := models.Authenticate(h.db, req.Email, req.Password)
	if err != nil {
		response.AbortWithError(c, err)
		return
	}
	raw, _ := json.Marshal(p)
	session := sessions.Default(c)
	session.Set(principalSessionKey, string(raw))
	if err := session.Save(); err != nil {
		response.AbortWithError(c, errors.Internal(err, "Failed to save session"))
		return
	}
	c.Set(middleware.UserIDKey, p.ID)
	c.Set(middleware.UsernameKey, p.Name)
	c.Set(middleware.RoleKey, string(p.Role))
	response.Success(c, "Login successful", p)
}

func (h *Handlers) handleLogout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		response.AbortWithError(c, errors.Internal(err, "Failed to clear session"))
		return
	}
	response.Success(c, "Logged out", nil)
}

func (h *Handlers) handleMe(c *gin.Context) {
	response.Success(c, "", CurrentPrincipal(c))
}
