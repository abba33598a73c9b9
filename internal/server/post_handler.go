package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"telecast/internal/domain"
	"telecast/internal/service"
	apperrors "telecast/pkg/errors"
	"telecast/pkg/response"
	"telecast/pkg/validator"
)

type upsertPostRequest struct {
	ID        string          `json:"id" validate:"required"`
	ChannelID string          `json:"channelId" validate:"required"`
	Date      string          `json:"date" validate:"required"`
	Time      string          `json:"time" validate:"required"`
	Timezone  string          `json:"timezone"`
	Text      string          `json:"text"`
	Image     string          `json:"image"`
	Buttons   []domain.Button `json:"buttons" validate:"omitempty,dive"`
}

type postView struct {
	ID        string          `json:"id"`
	ChannelID string          `json:"channelId"`
	Date      string          `json:"date"`
	Time      string          `json:"time"`
	Timezone  string          `json:"timezone"`
	Text      string          `json:"text,omitempty"`
	Image     string          `json:"image,omitempty"`
	Buttons   []domain.Button `json:"buttons,omitempty"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	SentAt    *time.Time      `json:"sentAt,omitempty"`
}

func toPostView(p *domain.Post) postView {
	return postView{
		ID:        p.ID,
		ChannelID: p.ChannelID,
		Date:      p.Date,
		Time:      p.Time,
		Timezone:  p.Timezone,
		Text:      p.Text,
		Image:     p.Image.Raw,
		Buttons:   p.Buttons,
		Status:    string(p.Status),
		Error:     p.Error,
		CreatedAt: p.CreatedAt,
		SentAt:    p.SentAt,
	}
}

func (s *Server) upsertPost(c echo.Context) error {
	var req upsertPostRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	p, err := s.Service.CreateOrReplacePost(c.Request().Context(), service.PostInput{
		ID:        req.ID,
		ChannelID: req.ChannelID,
		Date:      req.Date,
		Time:      req.Time,
		Timezone:  req.Timezone,
		Text:      req.Text,
		Image:     req.Image,
		Buttons:   req.Buttons,
	})
	if err != nil {
		return s.writeError(c, err)
	}

	return response.Created(c, "post scheduled", toPostView(p))
}

func (s *Server) listPosts(c echo.Context) error {
	posts, err := s.Service.ListPosts(c.Request().Context())
	if err != nil {
		return s.writeError(c, err)
	}

	views := make([]postView, 0, len(posts))
	for _, p := range posts {
		views = append(views, toPostView(p))
	}
	return response.Ok(c, views)
}

func (s *Server) getPost(c echo.Context) error {
	p, err := s.Service.GetPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return response.Ok(c, toPostView(p))
}

func (s *Server) deletePost(c echo.Context) error {
	if err := s.Service.DeletePost(c.Request().Context(), c.Param("id")); err != nil {
		return s.writeError(c, err)
	}
	return response.OkWithMessage(c, "post deleted", nil)
}

func (s *Server) sendPostNow(c echo.Context) error {
	p, err := s.Service.SendPostNow(c.Request().Context(), c.Param("id"))
	if err != nil {
		return s.writeError(c, err)
	}
	return response.Ok(c, toPostView(p))
}

func (s *Server) writeError(c echo.Context, err error) error {
	switch {
	case apperrors.IsInvalidInput(err):
		return response.BadRequest(c, err)
	case apperrors.IsNotFound(err):
		return response.NotFound(c, err)
	case apperrors.IsTerminalPost(err):
		return response.Conflict(c, err)
	default:
		s.Logger.Error("Request failed", "path", c.Path(), "error", err)
		return response.InternalServerError(c, err)
	}
}
