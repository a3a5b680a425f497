package categories

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgerline/erpcore/pkg/aggregate"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/query"
)

var stamp = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func newTestRepository(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return NewRepository(mock, aggregate.SystemIdentity{User: "clerk"}), mock
}

func intPtr(i int) *int { return &i }

func categoryRow(mock pgxmock.PgxPoolIface, id int, code string, parentId *int, path string) *pgxmock.Rows {
	return mock.NewRows(append([]string{"id"}, categoryColumns...)).
		AddRow(id, code, code, "PARTNER", parentId, path, false, "system", stamp, "system", stamp)
}

func TestGetValidParentsExcludesSubtree(t *testing.T) {
	repo, mock := newTestRepository(t)

	category := &datamodel.Category{}
	category.Id = 2
	category.HierarchyPath = "RETAIL>ONLINE"

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM category WHERE (is_deleted = FALSE) AND (id <> $1) AND (hierarchy_path <> $2) AND (hierarchy_path NOT LIKE $3)")).
		WithArgs(2, "RETAIL>ONLINE", "RETAIL>ONLINE>%").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, .+ FROM category WHERE .+ ORDER BY hierarchy_path").
		WithArgs(2, "RETAIL>ONLINE", "RETAIL>ONLINE>%").
		WillReturnRows(categoryRow(mock, 1, "RETAIL", nil, "RETAIL"))

	result, err := repo.GetValidParents(context.Background(), query.Page{}, category)
	require.NoError(t, err)
	assert.Equal(t, 1, result.RecordCount)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "RETAIL", result.Records[0].ObjectCode)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveNewCategoryBuildsPath(t *testing.T) {
	repo, mock := newTestRepository(t)

	category := &datamodel.Category{}
	category.ObjectCode = "ONLINE"
	category.ObjectName = "Online retail"
	category.CategoryType = "PARTNER"
	category.ParentId = 1

	mock.ExpectQuery("SELECT id, .+ FROM category WHERE id = .+ AND is_deleted = FALSE").
		WithArgs(1).
		WillReturnRows(categoryRow(mock, 1, "RETAIL", nil, "RETAIL"))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO category")).
		WithArgs("ONLINE", "Online retail", "PARTNER", 1, "RETAIL>ONLINE", false,
			"clerk", pgxmock.AnyArg(), "clerk", pgxmock.AnyArg()).
		WillReturnRows(mock.NewRows([]string{"id"}).AddRow(2))

	require.NoError(t, repo.Save(context.Background(), category))
	assert.Equal(t, 2, category.Id)
	assert.Equal(t, "RETAIL>ONLINE", category.HierarchyPath)
	assert.Equal(t, "clerk", category.CreatedUser)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReparentRejectsCycle(t *testing.T) {
	repo, mock := newTestRepository(t)

	category := &datamodel.Category{}
	category.Id = 1
	category.ObjectCode = "RETAIL"
	category.HierarchyPath = "RETAIL"

	// The candidate parent sits inside the category's own subtree.
	mock.ExpectQuery("SELECT id, .+ FROM category WHERE id = .+ AND is_deleted = FALSE").
		WithArgs(2).
		WillReturnRows(categoryRow(mock, 2, "ONLINE", intPtr(1), "RETAIL>ONLINE"))

	err := repo.Reparent(context.Background(), category, 2)
	assert.ErrorIs(t, err, ErrCycleDetected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReparentRewritesSubtreePaths(t *testing.T) {
	repo, mock := newTestRepository(t)

	category := &datamodel.Category{}
	category.Id = 2
	category.ObjectCode = "ONLINE"
	category.HierarchyPath = "RETAIL>ONLINE"

	mock.ExpectQuery("SELECT id, .+ FROM category WHERE id = .+ AND is_deleted = FALSE").
		WithArgs(3).
		WillReturnRows(categoryRow(mock, 3, "WHOLESALE", nil, "WHOLESALE"))
	mock.ExpectQuery("SELECT id, .+ FROM category WHERE id = .+").
		WithArgs(2).
		WillReturnRows(categoryRow(mock, 2, "ONLINE", intPtr(1), "RETAIL>ONLINE"))

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE category SET")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(regexp.QuoteMeta(
		"UPDATE category SET hierarchy_path = $1 || substr(hierarchy_path, $2) WHERE hierarchy_path LIKE $3")).
		WithArgs("WHOLESALE>ONLINE", len("RETAIL>ONLINE")+1, "RETAIL>ONLINE>%").
		WillReturnResult(pgxmock.NewResult("UPDATE", 4))
	mock.ExpectCommit()

	require.NoError(t, repo.Reparent(context.Background(), category, 3))
	assert.Equal(t, 3, category.ParentId)
	assert.Equal(t, "WHOLESALE>ONLINE", category.HierarchyPath)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveWithoutPathChangeSkipsRewrite(t *testing.T) {
	repo, mock := newTestRepository(t)

	category := &datamodel.Category{}
	category.Id = 2
	category.ObjectCode = "ONLINE"
	category.ObjectName = "Online retail, renamed"
	category.ParentId = 1
	category.HierarchyPath = "RETAIL>ONLINE"

	mock.ExpectQuery("SELECT id, .+ FROM category WHERE id = .+ AND is_deleted = FALSE").
		WithArgs(1).
		WillReturnRows(categoryRow(mock, 1, "RETAIL", nil, "RETAIL"))
	mock.ExpectQuery("SELECT id, .+ FROM category WHERE id = .+").
		WithArgs(2).
		WillReturnRows(categoryRow(mock, 2, "ONLINE", intPtr(1), "RETAIL>ONLINE"))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE category SET")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	require.NoError(t, repo.Save(context.Background(), category))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDescendants(t *testing.T) {
	repo, mock := newTestRepository(t)

	root := &datamodel.Category{}
	root.HierarchyPath = "RETAIL"

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT COUNT(*) FROM category WHERE (is_deleted = FALSE) AND (hierarchy_path LIKE $1)")).
		WithArgs("RETAIL>%").
		WillReturnRows(mock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT id, .+ FROM category WHERE .+ ORDER BY hierarchy_path").
		WithArgs("RETAIL>%").
		WillReturnRows(categoryRow(mock, 2, "ONLINE", intPtr(1), "RETAIL>ONLINE"))

	descendants, err := repo.Descendants(context.Background(), root)
	require.NoError(t, err)
	require.Len(t, descendants, 1)
	assert.Equal(t, "RETAIL>ONLINE", descendants[0].HierarchyPath)
	assert.NoError(t, mock.ExpectationsWereMet())
}
