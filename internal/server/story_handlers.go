package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/salcon83/lifebooks-ai/internal/apperr"
	"github.com/salcon83/lifebooks-ai/internal/story"
)

func (s *Server) handleCreateStory(c *gin.Context) {
	var req story.NewStory
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err), nil)
		return
	}

	saved, err := s.deps.Store.Save(c.Request.Context(), req)
	if err != nil {
		abort(c, err, nil)
		return
	}

	s.logger.Info("story saved", "id", saved.ID, "story_type", saved.StoryType, "words", saved.WordCount)
	c.JSON(http.StatusCreated, gin.H{"story": saved})
}

func storyID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		abort(c, fmt.Errorf("%w: invalid story id %q", apperr.ErrInvalidInput, c.Param("id")), nil)
		return 0, false
	}

	return id, true
}

func (s *Server) handleGetStory(c *gin.Context) {
	id, ok := storyID(c)
	if !ok {
		return
	}

	got, err := s.deps.Store.Get(c.Request.Context(), id)
	if err != nil {
		abort(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"story": got})
}

func (s *Server) handleListStories(c *gin.Context) {
	stories, err := s.deps.Store.List(c.Request.Context())
	if err != nil {
		abort(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"stories": stories})
}

func (s *Server) handleAutoSave(c *gin.Context) {
	id, ok := storyID(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, fmt.Errorf("%w: %w", apperr.ErrInvalidInput, err), nil)
		return
	}

	saved, err := s.deps.Store.AutoSave(c.Request.Context(), id, req.Content)
	if err != nil {
		abort(c, err, nil)
		return
	}

	c.JSON(http.StatusOK, gin.H{"story": saved, "last_auto_save": saved.LastAutoSave})
}
