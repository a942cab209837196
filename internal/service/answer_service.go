package service

import (
	"context"
	"log/slog"
	"strings"

	"quorum/internal/karma"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/observability"
	"quorum/internal/repository"
	"quorum/internal/validation"
)

type AnswerService struct {
	answerRepo   repository.AnswerRepository
	questionRepo repository.QuestionRepository
	userRepo     repository.UserRepository
}

type CreateAnswerInput struct {
	QuestionID  uint
	Content     string
	AuthorName  string
	MediaURL    string
	CodeSnippet string
}

type UpdateAnswerInput struct {
	Content *string
}

func NewAnswerService(
	answerRepo repository.AnswerRepository,
	questionRepo repository.QuestionRepository,
	userRepo repository.UserRepository,
) *AnswerService {
	return &AnswerService{
		answerRepo:   answerRepo,
		questionRepo: questionRepo,
		userRepo:     userRepo,
	}
}

// Create posts an answer on a question. An authenticated author earns the
// answer reward.
func (s *AnswerService) Create(ctx context.Context, in CreateAnswerInput, actor *models.User) (*models.Answer, error) {
	content := strings.TrimSpace(in.Content)
	if err := validation.ValidateAnswerContent(content); err != nil {
		return nil, err
	}

	if _, err := s.questionRepo.GetByID(ctx, in.QuestionID); err != nil {
		return nil, err
	}

	answer := &models.Answer{
		QuestionID:  in.QuestionID,
		Content:     content,
		AuthorName:  strings.TrimSpace(in.AuthorName),
		MediaURL:    in.MediaURL,
		CodeSnippet: in.CodeSnippet,
	}
	if actor != nil {
		answer.UserID = &actor.ID
		if answer.AuthorName == "" {
			answer.AuthorName = actor.Username
		}
	}

	if err := s.answerRepo.Create(ctx, answer); err != nil {
		return nil, err
	}

	if actor != nil {
		awardKarma(ctx, s.userRepo, actor.ID, karma.RewardPostAnswer, "post_answer")
	}

	observability.AnswersCreated.Inc()
	middleware.Logger.InfoContext(ctx, "answer created",
		slog.Uint64("answer_id", uint64(answer.ID)),
		slog.Uint64("question_id", uint64(in.QuestionID)),
	)
	return answer, nil
}

// Update edits an answer's content. Moderator only.
func (s *AnswerService) Update(ctx context.Context, id uint, in UpdateAnswerInput, actor *models.User) (*models.Answer, error) {
	if actor == nil || !actor.Role.CanModerate() {
		return nil, models.NewForbiddenError("Moderator role required")
	}

	answer, err := s.answerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.Content != nil {
		content := strings.TrimSpace(*in.Content)
		if err := validation.ValidateAnswerContent(content); err != nil {
			return nil, err
		}
		answer.Content = content
	}

	if err := s.answerRepo.Update(ctx, answer); err != nil {
		return nil, err
	}
	return answer, nil
}

// Delete removes an answer and releases its slot in the parent question's
// answer count. Moderator only.
func (s *AnswerService) Delete(ctx context.Context, id uint, actor *models.User) error {
	if actor == nil || !actor.Role.CanModerate() {
		return models.NewForbiddenError("Moderator role required")
	}
	if _, err := s.answerRepo.GetByID(ctx, id); err != nil {
		return err
	}
	if err := s.answerRepo.Delete(ctx, id); err != nil {
		return err
	}

	middleware.Logger.InfoContext(ctx, "answer deleted",
		slog.Uint64("answer_id", uint64(id)),
		slog.Uint64("actor_id", uint64(actor.ID)),
	)
	return nil
}

// Vote applies one vote to the answer's counter and the matching karma
// reward to its author. No voter identity is recorded.
func (s *AnswerService) Vote(ctx context.Context, id uint, direction models.VoteDirection) (*models.Answer, error) {
	if !direction.Valid() {
		return nil, models.NewValidationError("Vote direction must be 'up' or 'down'")
	}

	answer, err := s.answerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.answerRepo.AddVotes(ctx, id, direction.Delta()); err != nil {
		return nil, err
	}

	if answer.UserID != nil {
		if direction == models.VoteUp {
			awardKarma(ctx, s.userRepo, *answer.UserID, karma.RewardAnswerUpvote, "answer_upvote")
		} else {
			awardKarma(ctx, s.userRepo, *answer.UserID, karma.RewardAnswerDownvote, "answer_downvote")
		}
	}

	observability.VotesCast.WithLabelValues("answer", string(direction)).Inc()
	return s.answerRepo.GetByID(ctx, id)
}

// Accept marks an answer as the question's resolving answer. Allowed for the
// question's author or a moderator; the answer's author earns the accept
// reward.
func (s *AnswerService) Accept(ctx context.Context, id uint, actor *models.User) (*models.Answer, error) {
	if actor == nil {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	answer, err := s.answerRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	question, err := s.questionRepo.GetByID(ctx, answer.QuestionID)
	if err != nil {
		return nil, err
	}

	isAuthor := question.UserID != nil && *question.UserID == actor.ID
	if !isAuthor && !actor.Role.CanModerate() {
		return nil, models.NewForbiddenError("Only the question author or a moderator may accept an answer")
	}

	alreadyAccepted := answer.IsAccepted
	if err := s.answerRepo.Accept(ctx, id); err != nil {
		return nil, err
	}

	// Accepting the same answer again is a no-op for karma.
	if answer.UserID != nil && !alreadyAccepted {
		awardKarma(ctx, s.userRepo, *answer.UserID, karma.RewardAnswerAccepted, "answer_accepted")
	}

	middleware.Logger.InfoContext(ctx, "answer accepted",
		slog.Uint64("answer_id", uint64(id)),
		slog.Uint64("question_id", uint64(answer.QuestionID)),
		slog.Uint64("actor_id", uint64(actor.ID)),
	)
	return s.answerRepo.GetByID(ctx, id)
}
