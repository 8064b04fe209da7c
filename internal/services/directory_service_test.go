package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"orgfees/internal/core"
	"orgfees/internal/store/memory"
)

func studentInput(id, course string) core.StudentInput {
	return core.StudentInput{
		StudentID: id,
		Firstname: "Ana",
		Lastname:  "Reyes",
		Email:     "ana@example.edu",
		Course:    course,
		Gender:    "female",
		Year:      2,
	}
}

func TestDirectory_Organizations(t *testing.T) {
	ctx := context.Background()
	svc := NewDirectoryService(memory.New())

	_, err := svc.CreateOrganization(ctx, core.OrganizationInput{Name: "   "})
	requireReason(t, err, core.KindValidation, core.ReasonInvalidName)

	org, err := svc.CreateOrganization(ctx, core.OrganizationInput{Name: "  Computer Society "})
	require.NoError(t, err)
	assert.Equal(t, "Computer Society", org.Name)

	got, err := svc.GetOrganization(ctx, org.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, org, got)

	orgs, err := svc.ListOrganizations(ctx)
	require.NoError(t, err)
	assert.Len(t, orgs, 1)

	_, err = svc.GetOrganization(ctx, "nope")
	requireReason(t, err, core.KindNotFound, core.ReasonOrganizationNotFound)

	_, err = svc.DeleteOrganization(ctx, org.ID.Hex())
	require.NoError(t, err)
	_, err = svc.GetOrganization(ctx, org.ID.Hex())
	requireReason(t, err, core.KindNotFound, core.ReasonOrganizationNotFound)
}

func TestDirectory_Categories(t *testing.T) {
	ctx := context.Background()
	svc := NewDirectoryService(memory.New())

	org, err := svc.CreateOrganization(ctx, core.OrganizationInput{Name: "Computer Society"})
	require.NoError(t, err)

	tests := []struct {
		name   string
		in     core.CategoryInput
		reason string
	}{
		{"blank name", core.CategoryInput{Name: "", Fee: "100", OrganizationID: org.ID.Hex()}, core.ReasonInvalidName},
		{"negative fee", core.CategoryInput{Name: "Membership", Fee: "-1", OrganizationID: org.ID.Hex()}, core.ReasonInvalidFee},
		{"malformed organization", core.CategoryInput{Name: "Membership", Fee: "100", OrganizationID: "x"}, core.ReasonInvalidOrganization},
		{"unknown organization", core.CategoryInput{Name: "Membership", Fee: "100", OrganizationID: unknownCategoryID}, core.ReasonInvalidOrganization},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCategory(ctx, tt.in)
			requireReason(t, err, core.KindValidation, tt.reason)
		})
	}

	category, err := svc.CreateCategory(ctx, core.CategoryInput{Name: "Membership", Fee: "100", OrganizationID: org.ID.Hex()})
	require.NoError(t, err)
	assert.Equal(t, org.ID, category.OrganizationID)
	assert.Equal(t, "100.00", core.FormatAmount(category.Fee))

	listed, err := svc.ListCategories(ctx, org.ID.Hex())
	require.NoError(t, err)
	assert.Len(t, listed, 1)

	_, err = svc.ListCategories(ctx, "bad")
	requireReason(t, err, core.KindValidation, core.ReasonInvalidOrganization)

	updated, err := svc.UpdateCategory(ctx, category.ID.Hex(), core.CategoryInput{Name: "Annual Membership", Fee: "150.5"})
	require.NoError(t, err)
	assert.Equal(t, "Annual Membership", updated.Name)
	assert.Equal(t, "150.50", core.FormatAmount(updated.Fee))
	assert.Equal(t, org.ID, updated.OrganizationID)

	_, err = svc.DeleteOrganization(ctx, org.ID.Hex())
	requireReason(t, err, core.KindConflict, core.ReasonOrganizationInUse)

	detail, err := svc.GetCategoryDetail(ctx, category.ID.Hex())
	require.NoError(t, err)
	require.NotNil(t, detail.Organization)
	assert.Equal(t, org.Name, detail.Organization.Name)
	assert.Empty(t, detail.CategoryTransactions)

	_, err = svc.DeleteCategory(ctx, category.ID.Hex())
	require.NoError(t, err)
	_, err = svc.DeleteCategory(ctx, category.ID.Hex())
	requireReason(t, err, core.KindNotFound, core.ReasonCategoryNotFound)
}

func TestDirectory_Students(t *testing.T) {
	ctx := context.Background()
	svc := NewDirectoryService(memory.New())

	student, err := svc.CreateStudent(ctx, studentInput(" 2301106590 ", "BSCS"))
	require.NoError(t, err)
	assert.Equal(t, "2301106590", student.StudentID)

	_, err = svc.CreateStudent(ctx, studentInput("2301106590", "BSIT"))
	requireReason(t, err, core.KindConflict, core.ReasonStudentExists)

	bad := studentInput("2301106591", "BSCS")
	bad.Email = "not an email"
	_, err = svc.CreateStudent(ctx, bad)
	requireReason(t, err, core.KindValidation, core.ReasonInvalidEmail)

	_, err = svc.CreateStudent(ctx, studentInput("2301106592", "BSIT"))
	require.NoError(t, err)

	bscs, err := svc.ListStudents(ctx, "BSCS")
	require.NoError(t, err)
	require.Len(t, bscs, 1)
	assert.Equal(t, student.StudentID, bscs[0].StudentID)

	all, err := svc.ListStudents(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	change := studentInput("ignored", "BSN")
	change.Year = 3
	updated, err := svc.UpdateStudent(ctx, student.StudentID, change)
	require.NoError(t, err)
	assert.Equal(t, student.StudentID, updated.StudentID)
	assert.Equal(t, "BSN", updated.Course)
	assert.Equal(t, 3, updated.Year)

	_, err = svc.GetStudent(ctx, "missing")
	requireReason(t, err, core.KindNotFound, core.ReasonStudentNotFound)
}

func TestDirectory_DeleteRestrictedByTransactions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := NewDirectoryService(f.store)

	tx, err := f.service.CreateTransaction(ctx, f.input("100"), staff)
	require.NoError(t, err)

	_, err = dir.DeleteCategory(ctx, f.category.ID.Hex())
	requireReason(t, err, core.KindConflict, core.ReasonCategoryInUse)

	_, err = dir.DeleteStudent(ctx, f.student.StudentID)
	requireReason(t, err, core.KindConflict, core.ReasonStudentInUse)

	studentDetail, err := dir.GetStudentDetail(ctx, f.student.StudentID)
	require.NoError(t, err)
	require.Len(t, studentDetail.StudentTransactions, 1)
	assert.Equal(t, tx.ID, studentDetail.StudentTransactions[0].ID)

	categoryDetail, err := dir.GetCategoryDetail(ctx, f.category.ID.Hex())
	require.NoError(t, err)
	require.Len(t, categoryDetail.CategoryTransactions, 1)

	_, err = f.service.DeleteTransaction(ctx, tx.ID.Hex(), staff)
	require.NoError(t, err)

	_, err = dir.DeleteStudent(ctx, f.student.StudentID)
	require.NoError(t, err)
	_, err = dir.DeleteCategory(ctx, f.category.ID.Hex())
	require.NoError(t, err)
}

func TestDirectory_CategoryDetailWithoutOrganization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	dir := NewDirectoryService(f.store)

	_, err := f.store.DeleteOrganization(ctx, f.category.OrganizationID)
	require.NoError(t, err)

	detail, err := dir.GetCategoryDetail(ctx, f.category.ID.Hex())
	require.NoError(t, err)
	assert.Nil(t, detail.Organization)
	assert.NotNil(t, detail.CategoryTransactions)
}
