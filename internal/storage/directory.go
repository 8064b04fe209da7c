package storage

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"orgfees/internal/core"
)

func (r *SQLiteRepository) CreateOrganization(ctx context.Context, o core.Organization) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO organizations (id, name) VALUES (?, ?)`, o.ID.Hex(), o.Name)
	return translate(err, "insert organization "+o.ID.Hex())
}

func (r *SQLiteRepository) GetOrganization(ctx context.Context, id primitive.ObjectID) (core.Organization, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name FROM organizations WHERE id = ?`, id.Hex())
	o, err := scanOrganization(row)
	return o, translate(err, "get organization "+id.Hex())
}

func (r *SQLiteRepository) ListOrganizations(ctx context.Context) ([]core.Organization, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM organizations ORDER BY name`)
	if err != nil {
		return nil, translate(err, "list organizations")
	}
	defer rows.Close()

	out := []core.Organization{}
	for rows.Next() {
		o, err := scanOrganization(rows)
		if err != nil {
			return nil, translate(err, "scan organization")
		}
		out = append(out, o)
	}
	return out, translate(rows.Err(), "list organizations")
}

func (r *SQLiteRepository) DeleteOrganization(ctx context.Context, id primitive.ObjectID) (core.Organization, error) {
	o, err := r.GetOrganization(ctx, id)
	if err != nil {
		return o, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM organizations WHERE id = ?`, id.Hex())
	if err != nil {
		return o, translate(err, "delete organization "+id.Hex())
	}
	return o, requireAffected(res, "delete organization "+id.Hex())
}

func (r *SQLiteRepository) CreateCategory(ctx context.Context, c core.Category) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, fee, organization_id) VALUES (?, ?, ?, ?)`,
		c.ID.Hex(), c.Name, c.Fee.String(), c.OrganizationID.Hex())
	return translate(err, "insert category "+c.ID.Hex())
}

func (r *SQLiteRepository) GetCategory(ctx context.Context, id primitive.ObjectID) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `SELECT id, name, fee, organization_id FROM categories WHERE id = ?`, id.Hex())
	c, err := scanCategory(row)
	return c, translate(err, "get category "+id.Hex())
}

func (r *SQLiteRepository) ListCategories(ctx context.Context, organizationID *primitive.ObjectID) ([]core.Category, error) {
	query := `SELECT id, name, fee, organization_id FROM categories`
	var args []any
	if organizationID != nil {
		query += ` WHERE organization_id = ?`
		args = append(args, organizationID.Hex())
	}
	query += ` ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list categories")
	}
	defer rows.Close()

	out := []core.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, translate(err, "scan category")
		}
		out = append(out, c)
	}
	return out, translate(rows.Err(), "list categories")
}

func (r *SQLiteRepository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, fee = ?, organization_id = ? WHERE id = ?`,
		c.Name, c.Fee.String(), c.OrganizationID.Hex(), c.ID.Hex())
	if err != nil {
		return translate(err, "update category "+c.ID.Hex())
	}
	return requireAffected(res, "update category "+c.ID.Hex())
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id primitive.ObjectID) (core.Category, error) {
	c, err := r.GetCategory(ctx, id)
	if err != nil {
		return c, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id.Hex())
	if err != nil {
		return c, translate(err, "delete category "+id.Hex())
	}
	return c, requireAffected(res, "delete category "+id.Hex())
}

const studentColumns = `student_id, firstname, lastname, middlename, email, course, gender, year`

func (r *SQLiteRepository) CreateStudent(ctx context.Context, s core.Student) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO students (`+studentColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		s.StudentID, s.Firstname, s.Lastname, s.Middlename, s.Email, s.Course, s.Gender, s.Year)
	return translate(err, "insert student "+s.StudentID)
}

func (r *SQLiteRepository) GetStudent(ctx context.Context, studentID string) (core.Student, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+studentColumns+` FROM students WHERE student_id = ?`, studentID)
	s, err := scanStudent(row)
	return s, translate(err, "get student "+studentID)
}

func (r *SQLiteRepository) ListStudents(ctx context.Context, course string) ([]core.Student, error) {
	query := `SELECT ` + studentColumns + ` FROM students`
	var args []any
	if course != "" {
		query += ` WHERE course = ?`
		args = append(args, course)
	}
	query += ` ORDER BY lastname, student_id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translate(err, "list students")
	}
	defer rows.Close()

	out := []core.Student{}
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, translate(err, "scan student")
		}
		out = append(out, s)
	}
	return out, translate(rows.Err(), "list students")
}

func (r *SQLiteRepository) UpdateStudent(ctx context.Context, s core.Student) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE students SET firstname = ?, lastname = ?, middlename = ?, email = ?, course = ?, gender = ?, year = ?
		 WHERE student_id = ?`,
		s.Firstname, s.Lastname, s.Middlename, s.Email, s.Course, s.Gender, s.Year, s.StudentID)
	if err != nil {
		return translate(err, "update student "+s.StudentID)
	}
	return requireAffected(res, "update student "+s.StudentID)
}

func (r *SQLiteRepository) DeleteStudent(ctx context.Context, studentID string) (core.Student, error) {
	s, err := r.GetStudent(ctx, studentID)
	if err != nil {
		return s, err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM students WHERE student_id = ?`, studentID)
	if err != nil {
		return s, translate(err, "delete student "+studentID)
	}
	return s, requireAffected(res, "delete student "+studentID)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanOrganization(row scanner) (core.Organization, error) {
	var (
		o  core.Organization
		id string
	)
	if err := row.Scan(&id, &o.Name); err != nil {
		return o, err
	}
	return o, parseHex(id, &o.ID)
}

func scanCategory(row scanner) (core.Category, error) {
	var (
		c         core.Category
		id, orgID string
		fee       string
	)
	if err := row.Scan(&id, &c.Name, &fee, &orgID); err != nil {
		return c, err
	}
	if err := parseHex(id, &c.ID); err != nil {
		return c, err
	}
	if err := parseHex(orgID, &c.OrganizationID); err != nil {
		return c, err
	}
	var err error
	c.Fee, err = decimal.NewFromString(fee)
	if err != nil {
		return c, fmt.Errorf("category %s fee %q: %w", id, fee, err)
	}
	return c, nil
}

func scanStudent(row scanner) (core.Student, error) {
	var s core.Student
	err := row.Scan(&s.StudentID, &s.Firstname, &s.Lastname, &s.Middlename, &s.Email, &s.Course, &s.Gender, &s.Year)
	return s, err
}

func parseHex(s string, dst *primitive.ObjectID) error {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return fmt.Errorf("stored id %q: %w", s, err)
	}
	*dst = id
	return nil
}
