package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mfms/mess-api/internal/models"
	appErrors "github.com/mfms/mess-api/pkg/errors"
)

type studentRepoStub struct {
	students map[string]*models.User
	verified map[string]bool
	removed  []string
}

func newStudentRepoStub() *studentRepoStub {
	return &studentRepoStub{students: map[string]*models.User{}, verified: map[string]bool{}}
}

func (s *studentRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.students[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *studentRepoStub) ListStudentsByMess(ctx context.Context, messID string, page, pageSize int) ([]models.StudentInfo, int, error) {
	var out []models.StudentInfo
	for _, u := range s.students {
		if u.MessID != nil && *u.MessID == messID {
			out = append(out, models.StudentInfo{ID: u.ID, Name: u.Name, Email: u.Email, IsVerified: u.IsVerified})
		}
	}
	return out, len(out), nil
}

func (s *studentRepoStub) ListUnverifiedStudents(ctx context.Context, messID string) ([]models.StudentInfo, error) {
	var out []models.StudentInfo
	for _, u := range s.students {
		if u.MessID != nil && *u.MessID == messID && !u.IsVerified {
			out = append(out, models.StudentInfo{ID: u.ID, Name: u.Name, Email: u.Email})
		}
	}
	return out, nil
}

func (s *studentRepoStub) CountUnverifiedStudents(ctx context.Context, messID string) (int, error) {
	students, _ := s.ListUnverifiedStudents(ctx, messID)
	return len(students), nil
}

func (s *studentRepoStub) VerifyAllStudents(ctx context.Context, messID string) (int, error) {
	count := 0
	for _, u := range s.students {
		if u.MessID != nil && *u.MessID == messID && !u.IsVerified {
			s.verified[u.ID] = true
			count++
		}
	}
	return count, nil
}

func (s *studentRepoStub) SetStudentVerified(ctx context.Context, id string, verified bool) error {
	if _, ok := s.students[id]; !ok {
		return sql.ErrNoRows
	}
	s.verified[id] = verified
	return nil
}

func (s *studentRepoStub) RemoveStudent(ctx context.Context, id string) error {
	if _, ok := s.students[id]; !ok {
		return sql.ErrNoRows
	}
	s.removed = append(s.removed, id)
	return nil
}

func studentAdminFixture() (*models.User, *studentRepoStub) {
	messID := "m1"
	otherMess := "m2"
	manager := &models.User{ID: "mgr1", Role: models.RoleManager, MessID: &messID}
	repo := newStudentRepoStub()
	repo.students["s1"] = &models.User{ID: "s1", Name: "Asha", Role: models.RoleStudent, MessID: &messID}
	repo.students["s2"] = &models.User{ID: "s2", Name: "Ravi", Role: models.RoleStudent, MessID: &otherMess}
	return manager, repo
}

func TestVerifyStudentInOwnMess(t *testing.T) {
	manager, repo := studentAdminFixture()
	svc := NewStudentService(repo, nil)

	require.NoError(t, svc.SetVerified(context.Background(), manager, "s1", true))
	assert.True(t, repo.verified["s1"])
}

func TestVerifyStudentOfOtherMessIsForbidden(t *testing.T) {
	manager, repo := studentAdminFixture()
	svc := NewStudentService(repo, nil)

	err := svc.SetVerified(context.Background(), manager, "s2", true)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRemoveUnknownStudent(t *testing.T) {
	manager, repo := studentAdminFixture()
	svc := NewStudentService(repo, nil)

	err := svc.Remove(context.Background(), manager, "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestVerifyAllApprovesOnlyOwnMess(t *testing.T) {
	manager, repo := studentAdminFixture()
	svc := NewStudentService(repo, nil)

	count, err := svc.VerifyAll(context.Background(), manager)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.True(t, repo.verified["s1"])
	assert.False(t, repo.verified["s2"])
}

func TestCountUnverified(t *testing.T) {
	manager, repo := studentAdminFixture()
	svc := NewStudentService(repo, nil)

	count, err := svc.CountUnverified(context.Background(), manager)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestListStudentsOfMess(t *testing.T) {
	manager, repo := studentAdminFixture()
	svc := NewStudentService(repo, nil)

	students, pagination, err := svc.List(context.Background(), manager, 1, 20)
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "Asha", students[0].Name)
	assert.Equal(t, 1, pagination.TotalCount)
}
