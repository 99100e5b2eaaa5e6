package httpapi

import (
	"net/http"
	"strconv"

	"github.com/MrEthical07/natours"
	"github.com/MrEthical07/natours/account"
	"github.com/MrEthical07/natours/internal/flows"
	"github.com/MrEthical07/natours/middleware"
	"github.com/gin-gonic/gin"
)

type updateMeBody struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Photo           *string `json:"photo"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
	PasswordCurrent *string `json:"passwordCurrent"`
}

type adminUpdateBody struct {
	Name   *string `json:"name"`
	Email  *string `json:"email"`
	Photo  *string `json:"photo"`
	Role   *string `json:"role"`
	Active *bool   `json:"active"`
}

func (s *Server) handleSession(c *gin.Context) {
	a, ok := middleware.AccountFromContext(c)
	if !ok {
		c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"loggedIn": false}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"loggedIn": true, "user": a}})
}

func (s *Server) handleMe(c *gin.Context) {
	me, _ := middleware.AccountFromContext(c)
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": me}})
}

func (s *Server) handleUpdateMe(c *gin.Context) {
	me, _ := middleware.AccountFromContext(c)
	var body updateMeBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, errInvalidBody)
		return
	}
	updated, err := s.engine.UpdateProfile(c.Request.Context(), me.ID, natours.ProfileUpdate{
		Name:              body.Name,
		Email:             body.Email,
		Photo:             body.Photo,
		HasPasswordFields: body.Password != nil || body.PasswordConfirm != nil || body.PasswordCurrent != nil,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": updated}})
}

func (s *Server) handleDeleteMe(c *gin.Context) {
	me, _ := middleware.AccountFromContext(c)
	if err := s.engine.Deactivate(c.Request.Context(), me.ID); err != nil {
		s.fail(c, err)
		return
	}
	middleware.ClearToken(c, s.cookieOptions())
	c.Status(http.StatusNoContent)
}

// Bounds keep (page-1)*limit well inside int range.
const (
	maxPageSize = 100
	maxPage     = 1_000_000
)

func (s *Server) handleListUsers(c *gin.Context) {
	limit, err := queryInt(c, "limit", 100)
	if err != nil {
		s.fail(c, err)
		return
	}
	page, err := queryInt(c, "page", 1)
	if err != nil {
		s.fail(c, err)
		return
	}
	if limit < 1 || limit > maxPageSize {
		limit = maxPageSize
	}
	if page < 1 {
		page = 1
	}
	if page > maxPage {
		s.fail(c, flows.Fail(natours.ErrBadRequest, "invalid page"))
		return
	}
	users, err := s.engine.ListAccounts(c.Request.Context(), account.ListOptions{
		Role:   account.Role(c.Query("role")),
		Limit:  limit,
		Offset: (page - 1) * limit,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": len(users),
		"data":    gin.H{"users": users},
	})
}

func (s *Server) handleGetUser(c *gin.Context) {
	u, err := s.engine.GetAccount(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": u}})
}

func (s *Server) handleAdminUpdateUser(c *gin.Context) {
	actor, _ := middleware.AccountFromContext(c)
	var body adminUpdateBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, errInvalidBody)
		return
	}
	upd := natours.AdminUpdate{Name: body.Name, Email: body.Email, Photo: body.Photo, Active: body.Active}
	if body.Role != nil {
		role := account.Role(*body.Role)
		upd.Role = &role
	}
	u, err := s.engine.AdminUpdateAccount(c.Request.Context(), actor.ID, c.Param("id"), upd)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "data": gin.H{"user": u}})
}

func (s *Server) handleDeleteUser(c *gin.Context) {
	actor, _ := middleware.AccountFromContext(c)
	if err := s.engine.DeleteAccount(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, flows.Fail(natours.ErrBadRequest, "invalid "+key)
	}
	return n, nil
}
