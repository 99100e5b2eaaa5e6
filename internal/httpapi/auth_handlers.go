package httpapi

import (
	"net/http"

	"github.com/MrEthical07/natours"
	"github.com/MrEthical07/natours/internal/flows"
	"github.com/MrEthical07/natours/middleware"
	"github.com/gin-gonic/gin"
)

var errInvalidBody = flows.Fail(natours.ErrBadRequest, "invalid request body")

type signupBody struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Photo           string `json:"photo"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type forgotBody struct {
	Email string `json:"email"`
}

type resetBody struct {
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

type updatePasswordBody struct {
	PasswordCurrent string `json:"passwordCurrent"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"passwordConfirm"`
}

func (s *Server) handleSignup(c *gin.Context) {
	var body signupBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, errInvalidBody)
		return
	}
	sess, err := s.engine.Signup(c.Request.Context(), natours.SignupRequest{
		Name:            body.Name,
		Email:           body.Email,
		Photo:           body.Photo,
		Password:        body.Password,
		PasswordConfirm: body.PasswordConfirm,
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendSession(c, http.StatusCreated, sess)
}

func (s *Server) handleLogin(c *gin.Context) {
	var body loginBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, errInvalidBody)
		return
	}
	sess, err := s.engine.Login(c.Request.Context(), body.Email, body.Password)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendSession(c, http.StatusOK, sess)
}

// handleLogout needs no session: it only overwrites the cookie.
func (s *Server) handleLogout(c *gin.Context) {
	if a := s.engine.CurrentAccount(c.Request.Context(), middleware.ExtractToken(c.Request)); a != nil {
		s.engine.Logout(c.Request.Context(), a.ID)
	}
	middleware.ClearToken(c, s.cookieOptions())
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

func (s *Server) handleForgotPassword(c *gin.Context) {
	var body forgotBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, errInvalidBody)
		return
	}
	if err := s.engine.ForgotPassword(c.Request.Context(), body.Email, s.resetURLBase(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "Token sent to email!"})
}

func (s *Server) handleResetPassword(c *gin.Context) {
	var body resetBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, errInvalidBody)
		return
	}
	sess, err := s.engine.ResetPassword(c.Request.Context(), c.Param("token"), body.Password, body.PasswordConfirm)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendSession(c, http.StatusOK, sess)
}

func (s *Server) handleUpdatePassword(c *gin.Context) {
	me, _ := middleware.AccountFromContext(c)
	var body updatePasswordBody
	if err := c.ShouldBindJSON(&body); err != nil {
		s.fail(c, errInvalidBody)
		return
	}
	sess, err := s.engine.UpdatePassword(c.Request.Context(), me.ID, body.PasswordCurrent, body.Password, body.PasswordConfirm)
	if err != nil {
		s.fail(c, err)
		return
	}
	s.sendSession(c, http.StatusOK, sess)
}
