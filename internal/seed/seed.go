// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"quorum/internal/karma"
	"quorum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Options configures a seeding run.
type Options struct {
	NumUsers     int
	NumQuestions int
	ShouldClean  bool
}

// Seeder populates the database with plausible forum content.
type Seeder struct {
	db   *gorm.DB
	rand *rand.Rand
}

// NewSeeder creates a Seeder bound to the provided Gorm DB.
func NewSeeder(db *gorm.DB) *Seeder {
	gofakeit.Seed(time.Now().UnixNano())
	return &Seeder{
		db:   db,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// defaultCategories is the built-in category set every fresh install gets.
var defaultCategories = []models.Category{
	{Name: "General", Slug: "general", Description: "Anything that fits nowhere else", Icon: "chat", Color: "#6366f1"},
	{Name: "Programming", Slug: "programming", Description: "Code, tools and debugging", Icon: "code", Color: "#22c55e"},
	{Name: "Hardware", Slug: "hardware", Description: "Builds, components and repairs", Icon: "cpu", Color: "#f59e0b"},
	{Name: "Networking", Slug: "networking", Description: "Routing, DNS and connectivity", Icon: "globe", Color: "#06b6d4"},
	{Name: "Off Topic", Slug: "off-topic", Description: "Everything else entirely", Icon: "coffee", Color: "#ec4899"},
}

var defaultFAQs = []models.FAQ{
	{Question: "How do I earn karma?", Answer: "Ask questions, post answers and have them upvoted or accepted. Karma never drops below zero.", Order: 1},
	{Question: "Who can accept an answer?", Answer: "The question's author, or any moderator.", Order: 2},
	{Question: "What do pinned questions mean?", Answer: "Moderators pin important questions; they sort before everything else in every listing.", Order: 3},
	{Question: "Can I post without an account?", Answer: "Voting is open to everyone. Posting questions and answers requires an account.", Order: 4},
}

// ClearAll removes all seeded content. Development convenience only.
func (s *Seeder) ClearAll() error {
	tables := []string{"answers", "questions", "faqs", "categories", "password_reset_tokens", "sessions", "users"}
	for _, table := range tables {
		if err := s.db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

// Categories inserts the default category and FAQ sets, skipping any that
// already exist.
func (s *Seeder) Categories() error {
	for i := range defaultCategories {
		cat := defaultCategories[i]
		if err := s.db.Where(models.Category{Slug: cat.Slug}).FirstOrCreate(&cat).Error; err != nil {
			return fmt.Errorf("seeding category %q: %w", cat.Slug, err)
		}
	}
	var general models.Category
	if err := s.db.Where("slug = ?", "general").First(&general).Error; err != nil {
		return err
	}
	for i := range defaultFAQs {
		faq := defaultFAQs[i]
		faq.CategoryID = general.ID
		if err := s.db.Where(models.FAQ{Question: faq.Question}).FirstOrCreate(&faq).Error; err != nil {
			return fmt.Errorf("seeding FAQ: %w", err)
		}
	}
	return nil
}

// Users creates n accounts with a shared development password. The first
// account is the owner, the second an admin, the third a moderator.
func (s *Seeder) Users(n int) ([]*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte("devpassword1"), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	roleFor := func(i int) models.Role {
		switch i {
		case 0:
			return models.RoleOwner
		case 1:
			return models.RoleAdmin
		case 2:
			return models.RoleModerator
		default:
			return models.RoleMember
		}
	}

	users := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		name := gofakeit.Name()
		user := &models.User{
			Username:    s.uniqueUsername(),
			Password:    string(hash),
			DisplayName: name,
			Email:       gofakeit.Email(),
			Role:        roleFor(i),
		}
		if err := s.db.Create(user).Error; err != nil {
			return nil, fmt.Errorf("seeding user: %w", err)
		}
		users = append(users, user)
	}
	return users, nil
}

func (s *Seeder) uniqueUsername() string {
	base := strings.ToLower(gofakeit.Username())
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return -1
		}
	}, base)
	if len(base) < 3 {
		base = "user"
	}
	if len(base) > 20 {
		base = base[:20]
	}
	return fmt.Sprintf("%s%d", strings.Trim(base, "_-"), s.rand.Intn(100000))
}

// Questions creates n questions with answers, votes and matching karma, so a
// seeded board looks lived-in rather than freshly wiped.
func (s *Seeder) Questions(n int, users []*models.User) error {
	if len(users) == 0 {
		return fmt.Errorf("seeding questions requires users")
	}

	var categories []models.Category
	if err := s.db.Find(&categories).Error; err != nil {
		return err
	}
	if len(categories) == 0 {
		return fmt.Errorf("seeding questions requires categories")
	}

	for i := 0; i < n; i++ {
		author := users[s.rand.Intn(len(users))]
		category := categories[s.rand.Intn(len(categories))]

		question := &models.Question{
			Title:      s.questionTitle(),
			Content:    gofakeit.Paragraph(1, 3, 12, " "),
			CategoryID: category.ID,
			AuthorName: author.Username,
			UserID:     &author.ID,
			Votes:      s.rand.Intn(30) - 5,
			ViewCount:  s.rand.Intn(500),
			CreatedAt:  s.pastTime(90),
		}
		if err := s.db.Create(question).Error; err != nil {
			return fmt.Errorf("seeding question: %w", err)
		}
		if err := s.addKarma(author.ID, karma.RewardAskQuestion); err != nil {
			return err
		}

		numAnswers := s.rand.Intn(5)
		for j := 0; j < numAnswers; j++ {
			replier := users[s.rand.Intn(len(users))]
			answer := &models.Answer{
				QuestionID: question.ID,
				Content:    gofakeit.Paragraph(1, 2, 10, " "),
				AuthorName: replier.Username,
				UserID:     &replier.ID,
				Votes:      s.rand.Intn(15) - 3,
				IsAccepted: j == 0 && s.rand.Intn(3) == 0,
				CreatedAt:  question.CreatedAt.Add(time.Duration(1+s.rand.Intn(72)) * time.Hour),
			}
			if err := s.db.Create(answer).Error; err != nil {
				return fmt.Errorf("seeding answer: %w", err)
			}
			reward := karma.RewardPostAnswer
			if answer.IsAccepted {
				reward += karma.RewardAnswerAccepted
			}
			if err := s.addKarma(replier.ID, reward); err != nil {
				return err
			}
		}
		if numAnswers > 0 {
			if err := s.db.Model(question).Update("answer_count", numAnswers).Error; err != nil {
				return err
			}
		}
	}

	// A couple of pinned questions make the listings look moderated.
	return s.db.Model(&models.Question{}).
		Where("id IN (SELECT id FROM questions ORDER BY votes DESC LIMIT 2)").
		Update("is_pinned", true).Error
}

func (s *Seeder) questionTitle() string {
	starters := []string{"How do I", "Why does", "What is the best way to", "Is it possible to", "Help with"}
	title := fmt.Sprintf("%s %s", starters[s.rand.Intn(len(starters))], strings.TrimSuffix(gofakeit.HackerPhrase(), "!"))
	if len(title) > 200 {
		title = title[:200]
	}
	return title
}

func (s *Seeder) pastTime(maxDays int) time.Time {
	return time.Now().UTC().
		Add(-time.Duration(s.rand.Intn(maxDays*24)) * time.Hour).
		Add(-time.Duration(s.rand.Intn(60)) * time.Minute)
}

func (s *Seeder) addKarma(userID uint, delta int) error {
	return s.db.Model(&models.User{}).Where("id = ?", userID).
		Update("karma", gorm.Expr("CASE WHEN karma + ? < 0 THEN 0 ELSE karma + ? END", delta, delta)).Error
}

// Run executes a full seeding pass with the given options.
func (s *Seeder) Run(opts Options) error {
	if opts.ShouldClean {
		if err := s.ClearAll(); err != nil {
			return err
		}
	}
	if err := s.Categories(); err != nil {
		return err
	}
	users, err := s.Users(opts.NumUsers)
	if err != nil {
		return err
	}
	return s.Questions(opts.NumQuestions, users)
}
