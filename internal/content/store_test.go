// internal/content/store_test.go
//
// Unit-tests for the content stores using sqlmock.
//
// Run: go test ./internal/content -v

package content

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/pressroom/internal/fault"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	return sqlx.NewDb(db, "mysql"), mock
}

func TestExists_Hit(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT 1 FROM automation_post WHERE tenant_id = ? AND slug = ? LIMIT 1`)).
		WithArgs(uint64(7), "seo-tips-abc").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	got, err := NewAutomationStore(db).Exists(context.Background(), 7, "seo-tips-abc")
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if !got {
		t.Fatalf("expected exists = true")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestExists_Miss(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT 1 FROM blog_post WHERE tenant_id = ? AND slug = ? LIMIT 1`)).
		WithArgs(uint64(7), "nothing-here").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	got, err := NewBlogStore(db).Exists(context.Background(), 7, "nothing-here")
	if err != nil {
		t.Fatalf("Exists error: %v", err)
	}
	if got {
		t.Fatalf("expected exists = false")
	}
}

func TestInsert_DuplicateKeyIsConflict(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectExec("INSERT INTO automation_post").
		WillReturnError(errDup{})

	_, err := NewAutomationStore(db).Insert(context.Background(), &Post{
		TenantID: 7, Slug: "taken", Title: "t", Status: StatusPublished,
	})
	if !fault.IsKind(err, fault.KindConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
}

func TestArchive_ScopedToTenant(t *testing.T) {
	db, mock := newMock(t)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta(
		`UPDATE automation_post SET status = ? WHERE tenant_id = ? AND id = ?`)).
		WithArgs(StatusArchived, uint64(7), uint64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := NewAutomationStore(db).Archive(context.Background(), 7, 42); err != nil {
		t.Fatalf("Archive error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

type errDup struct{}

func (errDup) Error() string {
	return "Error 1062 (23000): Duplicate entry 'taken' for key 'uq_tenant_slug'"
}
