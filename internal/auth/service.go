package auth

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/RishiKendai/assignment-portal/internal/models"
	"github.com/RishiKendai/assignment-portal/internal/portal"
	"github.com/RishiKendai/assignment-portal/internal/repository"
	"github.com/rs/zerolog/log"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email or roll number already exists")
	ErrSignupCode         = errors.New("invalid teacher signup code")
)

// UserStore is the persistence the auth service needs
type UserStore interface {
	InsertStudent(ctx context.Context, student *models.Student) error
	InsertTeacher(ctx context.Context, teacher *models.Teacher) error
	GetStudentByEmail(ctx context.Context, email string) (*models.Student, error)
	GetTeacherByEmail(ctx context.Context, email string) (*models.Teacher, error)
}

type Service struct {
	users      UserStore
	tokens     *TokenManager
	signupCode string
}

// NewService builds the auth service. An empty signupCode lets anyone
// register as a teacher.
func NewService(users UserStore, tokens *TokenManager, signupCode string) *Service {
	return &Service{users: users, tokens: tokens, signupCode: signupCode}
}

func (s *Service) RegisterStudent(ctx context.Context, req models.StudentRegisterRequest) (*models.Student, error) {
	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	student := &models.Student{
		Name:   strings.TrimSpace(req.Name),
		RollNo: strings.TrimSpace(req.RollNo),
		Email:  req.Email,
		Phone:  strings.TrimSpace(req.Phone),
		Cohort: portal.CleanCohort(models.Cohort{
			Year:    req.Year,
			Branch:  req.Branch,
			Section: req.Section,
		}),
		PasswordHash: hash,
	}
	if err := s.users.InsertStudent(ctx, student); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register student: %w", err)
	}

	log.Info().Str("studentId", student.ID).Msg("Student registered")
	return student, nil
}

func (s *Service) RegisterTeacher(ctx context.Context, req models.TeacherRegisterRequest, signupCode string) (*models.Teacher, error) {
	if s.signupCode != "" && subtle.ConstantTimeCompare([]byte(s.signupCode), []byte(signupCode)) != 1 {
		return nil, ErrSignupCode
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		PasswordHash: hash,
	}
	if err := s.users.InsertTeacher(ctx, teacher); err != nil {
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to register teacher: %w", err)
	}

	log.Info().Str("teacherId", teacher.ID).Msg("Teacher registered")
	return teacher, nil
}

func (s *Service) LoginStudent(ctx context.Context, req models.LoginRequest) (string, error) {
	student, err := s.users.GetStudentByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to look up student: %w", err)
	}
	if student == nil || !CheckPassword(student.PasswordHash, req.Password) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(student.ID, RoleStudent)
}

func (s *Service) LoginTeacher(ctx context.Context, req models.LoginRequest) (string, error) {
	teacher, err := s.users.GetTeacherByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("failed to look up teacher: %w", err)
	}
	if teacher == nil || !CheckPassword(teacher.PasswordHash, req.Password) {
		return "", ErrInvalidCredentials
	}
	return s.tokens.Issue(teacher.ID, RoleTeacher)
}

// Tokens exposes the manager the HTTP middleware verifies against
func (s *Service) Tokens() *TokenManager {
	return s.tokens
}
