package server

import (
	"quorum/internal/models"
	"quorum/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetQuestions handles GET /api/questions?category=&sort=&limit=&offset=
func (s *Server) GetQuestions(c *fiber.Ctx) error {
	p := parsePagination(c, 20)
	questions, err := s.questionService.List(c.Context(), service.ListQuestionsInput{
		CategorySlug: c.Query("category"),
		Sort:         c.Query("sort"),
		Limit:        p.Limit,
		Offset:       p.Offset,
	})
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"questions": questions})
}

// SearchQuestions handles GET /api/questions/search?q=
func (s *Server) SearchQuestions(c *fiber.Ctx) error {
	questions, err := s.questionService.Search(c.Context(), c.Query("q"))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"questions": questions})
}

// GetQuestion handles GET /api/questions/:id. Fetching a question counts as
// one view.
func (s *Server) GetQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	question, answers, err := s.questionService.Get(c.Context(), id)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"question": question,
		"answers":  answers,
	})
}

// CreateQuestion handles POST /api/questions
func (s *Server) CreateQuestion(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Content     string `json:"content"`
		CategoryID  uint   `json:"category_id"`
		AuthorName  string `json:"author_name"`
		MediaURL    string `json:"media_url"`
		CodeSnippet string `json:"code_snippet"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	question, err := s.questionService.Create(c.Context(), service.CreateQuestionInput{
		Title:       req.Title,
		Content:     req.Content,
		CategoryID:  req.CategoryID,
		AuthorName:  req.AuthorName,
		MediaURL:    req.MediaURL,
		CodeSnippet: req.CodeSnippet,
	}, s.currentUser(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"question": question})
}

// UpdateQuestion handles PATCH /api/questions/:id
func (s *Server) UpdateQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Title    *string `json:"title"`
		Content  *string `json:"content"`
		IsPinned *bool   `json:"is_pinned"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	question, err := s.questionService.Update(c.Context(), id, service.UpdateQuestionInput{
		Title:    req.Title,
		Content:  req.Content,
		IsPinned: req.IsPinned,
	}, s.currentUser(c))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"question": question})
}

// DeleteQuestion handles DELETE /api/questions/:id
func (s *Server) DeleteQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.questionService.Delete(c.Context(), id, s.currentUser(c)); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"message": "Question deleted"})
}

// PinQuestion handles POST /api/questions/:id/pin
func (s *Server) PinQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	// Body is optional; a bare POST pins, {"pinned": false} unpins.
	var req struct {
		Pinned *bool `json:"pinned"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	pinned := true
	if req.Pinned != nil {
		pinned = *req.Pinned
	}

	if err := s.questionService.SetPinned(c.Context(), id, pinned, s.currentUser(c)); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"pinned": pinned})
}

// VoteQuestion handles POST /api/questions/:id/vote
func (s *Server) VoteQuestion(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		Direction string `json:"direction"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	question, err := s.questionService.Vote(c.Context(), id, models.VoteDirection(req.Direction))
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"question": question})
}
