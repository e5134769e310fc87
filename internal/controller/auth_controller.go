package controller

import (
	"errors"
	"strings"

	"edulearn_backend/internal/model"
	"edulearn_backend/internal/service"
	"edulearn_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Service *service.AuthService
}

func NewAuthController(svc *service.AuthService) *AuthController {
	return &AuthController{Service: svc}
}

type SignupRequest struct {
	Email     string         `json:"email" binding:"required"`
	Password  string         `json:"password" binding:"required"`
	FirstName string         `json:"firstName" binding:"required"`
	LastName  string         `json:"lastName" binding:"required"`
	Role      model.UserRole `json:"role"`
}

type LoginRequest struct {
	Email    string         `json:"email" binding:"required"`
	Password string         `json:"password" binding:"required"`
	Role     model.UserRole `json:"role"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// @Summary 用户注册
// @Tags 认证模块
// @Accept json
// @Produce json
// @Param body body SignupRequest true "注册信息"
// @Success 201 {object} util.Response
// @Router /api/auth/signup [post]
func (c *AuthController) Signup(ctx *gin.Context) {
	var req SignupRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !util.ValidateEmail(email) {
		util.BadRequest(ctx, "Invalid email format")
		return
	}
	if problems := util.ValidatePassword(req.Password); len(problems) > 0 {
		util.BadRequest(ctx, problems[0])
		return
	}

	user := &model.User{
		Email:     email,
		Password:  req.Password,
		FirstName: strings.TrimSpace(req.FirstName),
		LastName:  strings.TrimSpace(req.LastName),
		Role:      req.Role,
	}
	if err := c.Service.Register(user); err != nil {
		if errors.Is(err, util.ErrEmailRegistered) {
			util.BadRequest(ctx, "User already exists")
			return
		}
		util.LogInternalError(ctx, err)
		return
	}

	token, _, err := c.Service.Login(email, req.Password)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"user": user, "token": token})
}

// @Summary 用户登录
// @Tags 认证模块
// @Accept json
// @Produce json
// @Param body body LoginRequest true "登录信息"
// @Success 200 {object} util.Response
// @Router /api/auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !util.ValidateEmail(email) {
		util.BadRequest(ctx, "Invalid email format")
		return
	}

	token, user, err := c.Service.Login(email, req.Password)
	if err != nil {
		util.Unauthorized(ctx)
		return
	}
	// 前端按角色入口登录时校验角色匹配
	if req.Role != "" && user.Role != req.Role {
		util.Unauthorized(ctx)
		return
	}

	util.Success(ctx, gin.H{"user": user, "token": token})
}

// @Summary 刷新 token
// @Tags 认证模块
// @Accept json
// @Produce json
// @Param body body RefreshRequest true "refresh token"
// @Success 200 {object} util.Response
// @Router /api/auth/refresh [post]
func (c *AuthController) Refresh(ctx *gin.Context) {
	var req RefreshRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	token, err := c.Service.RefreshToken(req.RefreshToken)
	if err != nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, gin.H{"token": token})
}

// @Summary 获取当前登录用户
// @Tags 认证模块
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Router /api/auth/me [get]
func (c *AuthController) Me(ctx *gin.Context) {
	user := c.Service.GetCurrentUser(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	util.Success(ctx, gin.H{"user": user})
}
