package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
)

type studentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ListStudentsByMess(ctx context.Context, messID string, page, pageSize int) ([]models.StudentInfo, int, error)
	ListUnverifiedStudents(ctx context.Context, messID string) ([]models.StudentInfo, error)
	CountUnverifiedStudents(ctx context.Context, messID string) (int, error)
	VerifyAllStudents(ctx context.Context, messID string) (int, error)
	SetStudentVerified(ctx context.Context, id string, verified bool) error
	RemoveStudent(ctx context.Context, id string) error
}

// StudentService covers the manager-side administration of mess members.
type StudentService struct {
	users  studentUserRepository
	logger *zap.Logger
}

// NewStudentService constructs a StudentService.
func NewStudentService(users studentUserRepository, logger *zap.Logger) *StudentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{users: users, logger: logger}
}

// List returns students of the manager's mess.
func (s *StudentService) List(ctx context.Context, manager *models.User, page, pageSize int) ([]models.StudentInfo, *models.Pagination, error) {
	if manager.MessID == nil {
		return nil, nil, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess")
	}
	students, total, err := s.users.ListStudentsByMess(ctx, *manager.MessID, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	if students == nil {
		students = []models.StudentInfo{}
	}
	if page < 1 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	return students, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// ListUnverified returns students of the manager's mess still awaiting
// approval.
func (s *StudentService) ListUnverified(ctx context.Context, manager *models.User) ([]models.StudentInfo, error) {
	if manager.MessID == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess")
	}
	students, err := s.users.ListUnverifiedStudents(ctx, *manager.MessID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list unverified students")
	}
	if students == nil {
		students = []models.StudentInfo{}
	}
	return students, nil
}

// CountUnverified returns how many students of the manager's mess are
// awaiting approval.
func (s *StudentService) CountUnverified(ctx context.Context, manager *models.User) (int, error) {
	if manager.MessID == nil {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess")
	}
	count, err := s.users.CountUnverifiedStudents(ctx, *manager.MessID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unverified students")
	}
	return count, nil
}

// VerifyAll approves every pending student of the manager's mess and returns
// how many were approved.
func (s *StudentService) VerifyAll(ctx context.Context, manager *models.User) (int, error) {
	if manager.MessID == nil {
		return 0, appErrors.Clone(appErrors.ErrForbidden, "manager has no mess")
	}
	count, err := s.users.VerifyAllStudents(ctx, *manager.MessID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify students")
	}
	s.logger.Info("pending students approved",
		zap.Int("count", count),
		zap.String("manager_id", manager.ID),
	)
	return count, nil
}

// SetVerified approves or suspends a student of the manager's mess. Only
// verified students count toward attendance statistics.
func (s *StudentService) SetVerified(ctx context.Context, manager *models.User, studentID string, verified bool) error {
	if err := s.authorize(ctx, manager, studentID); err != nil {
		return err
	}
	if err := s.users.SetStudentVerified(ctx, studentID, verified); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	s.logger.Info("student verification changed",
		zap.String("student_id", studentID),
		zap.Bool("verified", verified),
		zap.String("manager_id", manager.ID),
	)
	return nil
}

// Remove detaches a student from the manager's mess.
func (s *StudentService) Remove(ctx context.Context, manager *models.User, studentID string) error {
	if err := s.authorize(ctx, manager, studentID); err != nil {
		return err
	}
	if err := s.users.RemoveStudent(ctx, studentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove student")
	}
	s.logger.Info("student removed from mess",
		zap.String("student_id", studentID),
		zap.String("manager_id", manager.ID),
	)
	return nil
}

func (s *StudentService) authorize(ctx context.Context, manager *models.User, studentID string) error {
	if manager.MessID == nil {
		return appErrors.Clone(appErrors.ErrForbidden, "manager has no mess")
	}
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Role != models.RoleStudent || student.MessID == nil || *student.MessID != *manager.MessID {
		return appErrors.Clone(appErrors.ErrForbidden, "student does not belong to your mess")
	}
	return nil
}
