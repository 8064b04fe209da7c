package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"orgfees/internal/core"
	"orgfees/internal/log"
	"orgfees/internal/store"
)

// detailTransactionLimit caps the transactions embedded in detail views.
const detailTransactionLimit = 500

// DirectoryService manages organizations, categories and students. Records
// cannot be deleted while other records still reference them.
type DirectoryService struct {
	store store.EntityStore
}

func NewDirectoryService(st store.EntityStore) *DirectoryService {
	return &DirectoryService{store: st}
}

type CategoryDetail struct {
	Category             core.Category      `json:"category"`
	Organization         *core.Organization `json:"organization"`
	CategoryTransactions []core.Transaction `json:"categoryTransactions"`
}

type StudentDetail struct {
	Student             core.Student       `json:"student"`
	StudentTransactions []core.Transaction `json:"studentTransactions"`
}

func (s *DirectoryService) CreateOrganization(ctx context.Context, in core.OrganizationInput) (core.Organization, error) {
	if err := in.Validate(); err != nil {
		return core.Organization{}, err
	}
	org := core.Organization{ID: core.NewID(), Name: strings.TrimSpace(in.Name)}
	if err := s.store.CreateOrganization(ctx, org); err != nil {
		return core.Organization{}, fmt.Errorf("save organization: %w", err)
	}
	s.logger(ctx).InfoContext(ctx, "Organization created", log.FieldOperation, log.OpCreate, "organization_id", org.ID.Hex())
	return org, nil
}

func (s *DirectoryService) GetOrganization(ctx context.Context, id string) (core.Organization, error) {
	oid, err := core.ParseID(id)
	if err != nil {
		return core.Organization{}, core.NotFound(core.ReasonOrganizationNotFound)
	}
	org, err := s.store.GetOrganization(ctx, oid)
	if err != nil {
		return core.Organization{}, notFoundAs(err, core.ReasonOrganizationNotFound, "get organization")
	}
	return org, nil
}

func (s *DirectoryService) ListOrganizations(ctx context.Context) ([]core.Organization, error) {
	orgs, err := s.store.ListOrganizations(ctx)
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

// DeleteOrganization is refused while any category belongs to the organization.
func (s *DirectoryService) DeleteOrganization(ctx context.Context, id string) (core.Organization, error) {
	org, err := s.GetOrganization(ctx, id)
	if err != nil {
		return core.Organization{}, err
	}
	categories, err := s.store.ListCategories(ctx, &org.ID)
	if err != nil {
		return core.Organization{}, fmt.Errorf("list organization categories: %w", err)
	}
	if len(categories) > 0 {
		return core.Organization{}, core.Conflict(core.ReasonOrganizationInUse)
	}
	deleted, err := s.store.DeleteOrganization(ctx, org.ID)
	if err != nil {
		return core.Organization{}, notFoundAs(err, core.ReasonOrganizationNotFound, "delete organization")
	}
	s.logger(ctx).InfoContext(ctx, "Organization deleted", log.FieldOperation, log.OpDelete, "organization_id", org.ID.Hex())
	return deleted, nil
}

// CreateCategory requires the owning organization to exist.
func (s *DirectoryService) CreateCategory(ctx context.Context, in core.CategoryInput) (core.Category, error) {
	if err := in.Validate(); err != nil {
		return core.Category{}, err
	}
	orgID, _ := core.ParseID(in.OrganizationID)
	if _, err := s.store.GetOrganization(ctx, orgID); err != nil {
		return core.Category{}, notFoundAsInvalid(err, core.ReasonInvalidOrganization, "lookup organization")
	}

	fee, _ := core.ParseFee(in.Fee)
	category := core.Category{
		ID:             core.NewID(),
		Name:           strings.TrimSpace(in.Name),
		Fee:            fee,
		OrganizationID: orgID,
	}
	if err := s.store.CreateCategory(ctx, category); err != nil {
		return core.Category{}, fmt.Errorf("save category: %w", err)
	}
	s.logger(ctx).InfoContext(ctx, "Category created", log.FieldOperation, log.OpCreate, log.FieldCategoryID, category.ID.Hex())
	return category, nil
}

func (s *DirectoryService) GetCategory(ctx context.Context, id string) (core.Category, error) {
	oid, err := core.ParseID(id)
	if err != nil {
		return core.Category{}, core.NotFound(core.ReasonCategoryNotFound)
	}
	category, err := s.store.GetCategory(ctx, oid)
	if err != nil {
		return core.Category{}, notFoundAs(err, core.ReasonCategoryNotFound, "get category")
	}
	return category, nil
}

// GetCategoryDetail returns the category, its organization (nil if it has
// since disappeared) and its most recent transactions.
func (s *DirectoryService) GetCategoryDetail(ctx context.Context, id string) (CategoryDetail, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return CategoryDetail{}, err
	}

	detail := CategoryDetail{Category: category}
	org, err := s.store.GetOrganization(ctx, category.OrganizationID)
	switch {
	case err == nil:
		detail.Organization = &org
	case !errors.Is(err, core.ErrNotFound):
		return CategoryDetail{}, fmt.Errorf("get category organization: %w", err)
	}

	detail.CategoryTransactions, _, err = s.store.ListTransactions(ctx, core.TransactionQuery{
		CategoryID: &category.ID,
		Limit:      detailTransactionLimit,
	})
	if err != nil {
		return CategoryDetail{}, fmt.Errorf("list category transactions: %w", err)
	}
	return detail, nil
}

// ListCategories lists all categories, or one organization's when organizationID is set.
func (s *DirectoryService) ListCategories(ctx context.Context, organizationID string) ([]core.Category, error) {
	var orgID *primitive.ObjectID
	if organizationID != "" {
		id, err := core.ParseID(organizationID)
		if err != nil {
			return nil, core.Invalid(core.ReasonInvalidOrganization)
		}
		orgID = &id
	}
	categories, err := s.store.ListCategories(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// UpdateCategory changes name and fee. The owning organization is fixed.
func (s *DirectoryService) UpdateCategory(ctx context.Context, id string, in core.CategoryInput) (core.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	if err := in.ValidateUpdate(); err != nil {
		return core.Category{}, err
	}
	category.Name = strings.TrimSpace(in.Name)
	category.Fee, _ = core.ParseFee(in.Fee)

	if err := s.store.UpdateCategory(ctx, category); err != nil {
		return core.Category{}, notFoundAs(err, core.ReasonCategoryNotFound, "update category")
	}
	s.logger(ctx).InfoContext(ctx, "Category updated", log.FieldOperation, log.OpUpdate, log.FieldCategoryID, category.ID.Hex())
	return category, nil
}

// DeleteCategory is refused while any transaction references the category.
func (s *DirectoryService) DeleteCategory(ctx context.Context, id string) (core.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return core.Category{}, err
	}
	_, refs, err := s.store.ListTransactions(ctx, core.TransactionQuery{CategoryID: &category.ID, Limit: 1})
	if err != nil {
		return core.Category{}, fmt.Errorf("count category transactions: %w", err)
	}
	if refs > 0 {
		return core.Category{}, core.Conflict(core.ReasonCategoryInUse)
	}
	deleted, err := s.store.DeleteCategory(ctx, category.ID)
	if err != nil {
		return core.Category{}, notFoundAs(err, core.ReasonCategoryNotFound, "delete category")
	}
	s.logger(ctx).InfoContext(ctx, "Category deleted", log.FieldOperation, log.OpDelete, log.FieldCategoryID, category.ID.Hex())
	return deleted, nil
}

func (s *DirectoryService) CreateStudent(ctx context.Context, in core.StudentInput) (core.Student, error) {
	if err := in.Validate(); err != nil {
		return core.Student{}, err
	}
	student := in.Student()
	if err := s.store.CreateStudent(ctx, student); err != nil {
		if errors.Is(err, core.ErrDuplicate) {
			return core.Student{}, core.Conflict(core.ReasonStudentExists)
		}
		return core.Student{}, fmt.Errorf("save student: %w", err)
	}
	s.logger(ctx).InfoContext(ctx, "Student created", log.FieldOperation, log.OpCreate, log.FieldStudentID, student.StudentID)
	return student, nil
}

func (s *DirectoryService) GetStudent(ctx context.Context, studentID string) (core.Student, error) {
	studentID = strings.TrimSpace(studentID)
	if studentID == "" {
		return core.Student{}, core.NotFound(core.ReasonStudentNotFound)
	}
	student, err := s.store.GetStudent(ctx, studentID)
	if err != nil {
		return core.Student{}, notFoundAs(err, core.ReasonStudentNotFound, "get student")
	}
	return student, nil
}

// GetStudentDetail returns the student and their most recent transactions.
func (s *DirectoryService) GetStudentDetail(ctx context.Context, studentID string) (StudentDetail, error) {
	student, err := s.GetStudent(ctx, studentID)
	if err != nil {
		return StudentDetail{}, err
	}
	txs, _, err := s.store.ListTransactions(ctx, core.TransactionQuery{
		ByStudents: true,
		StudentIDs: []string{student.StudentID},
		Limit:      detailTransactionLimit,
	})
	if err != nil {
		return StudentDetail{}, fmt.Errorf("list student transactions: %w", err)
	}
	return StudentDetail{Student: student, StudentTransactions: txs}, nil
}

func (s *DirectoryService) ListStudents(ctx context.Context, course string) ([]core.Student, error) {
	students, err := s.store.ListStudents(ctx, strings.TrimSpace(course))
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// UpdateStudent replaces the profile of studentID. The student id itself
// cannot change.
func (s *DirectoryService) UpdateStudent(ctx context.Context, studentID string, in core.StudentInput) (core.Student, error) {
	existing, err := s.GetStudent(ctx, studentID)
	if err != nil {
		return core.Student{}, err
	}
	in.StudentID = existing.StudentID
	if err := in.Validate(); err != nil {
		return core.Student{}, err
	}
	student := in.Student()
	if err := s.store.UpdateStudent(ctx, student); err != nil {
		return core.Student{}, notFoundAs(err, core.ReasonStudentNotFound, "update student")
	}
	s.logger(ctx).InfoContext(ctx, "Student updated", log.FieldOperation, log.OpUpdate, log.FieldStudentID, student.StudentID)
	return student, nil
}

// DeleteStudent is refused while any transaction references the student.
func (s *DirectoryService) DeleteStudent(ctx context.Context, studentID string) (core.Student, error) {
	student, err := s.GetStudent(ctx, studentID)
	if err != nil {
		return core.Student{}, err
	}
	_, refs, err := s.store.ListTransactions(ctx, core.TransactionQuery{
		ByStudents: true,
		StudentIDs: []string{student.StudentID},
		Limit:      1,
	})
	if err != nil {
		return core.Student{}, fmt.Errorf("count student transactions: %w", err)
	}
	if refs > 0 {
		return core.Student{}, core.Conflict(core.ReasonStudentInUse)
	}
	deleted, err := s.store.DeleteStudent(ctx, student.StudentID)
	if err != nil {
		return core.Student{}, notFoundAs(err, core.ReasonStudentNotFound, "delete student")
	}
	s.logger(ctx).InfoContext(ctx, "Student deleted", log.FieldOperation, log.OpDelete, log.FieldStudentID, student.StudentID)
	return deleted, nil
}

func (s *DirectoryService) logger(ctx context.Context) *log.Logger {
	return log.FromContext(ctx).WithComponent(log.ComponentDirectory)
}

// notFoundAsInvalid reports a missing referenced record as a validation failure.
func notFoundAsInvalid(err error, reason, op string) error {
	if errors.Is(err, core.ErrNotFound) {
		return core.Invalid(reason)
	}
	return fmt.Errorf("%s: %w", op, err)
}
