package repository

import (
	"context"
	"strings"

	"github.com/ledgerline/erpcore/internal/database"
	"github.com/ledgerline/erpcore/pkg/datamodel"
	"github.com/ledgerline/erpcore/pkg/query"
)

// QuickSearchTerm is the parsed form of a quick-search input. Column is the
// target column of the contains match.
type QuickSearchTerm struct {
	Column string
	Text   string
}

// ParseQuickSearch applies the quick-search mini grammar: an "id:" or
// "code:" prefix targets the code column, anything else targets the name
// column. Matching is case-insensitive contains.
func ParseQuickSearch(searchText string) QuickSearchTerm {
	text := strings.TrimSpace(searchText)
	lower := strings.ToLower(text)
	for _, prefix := range []string{"id:", "code:"} {
		if strings.HasPrefix(lower, prefix) {
			return QuickSearchTerm{
				Column: "code",
				Text:   strings.TrimSpace(text[len(prefix):]),
			}
		}
	}
	return QuickSearchTerm{Column: "name", Text: text}
}

// QuickSearch runs the mini-grammar search over the code or name column,
// optionally excluding a set of identifiers (typically rows already picked
// in the caller's UI).
func (r *Repository[T]) QuickSearch(ctx context.Context, page query.Page, searchText string, excludeIds []int) (datamodel.SearchResult[T], error) {
	term := ParseQuickSearch(searchText)
	return r.SearchWith(ctx, page, func(b *query.Builder) {
		if term.Text != "" {
			column := r.desc.nameColumn()
			if term.Column == "code" {
				column = r.desc.codeColumn()
			}
			b.Where(column+" ILIKE '%' || ? || '%'", term.Text)
		}
		if len(excludeIds) > 0 {
			b.Where("id <> ALL(?)", excludeIds)
		}
	})
}

// SearchWith runs a filtered search. The configure function adds predicates
// and ordering to the builder; soft-deleted rows are always excluded and a
// default ordering is applied when configure adds none. The count and data
// statements render from the same builder, so the record count always
// agrees with the page contents.
func (r *Repository[T]) SearchWith(ctx context.Context, page query.Page, configure func(b *query.Builder)) (datamodel.SearchResult[T], error) {
	var result datamodel.SearchResult[T]

	b, err := r.buildSearch(page, configure)
	if err != nil {
		return result, err
	}

	total, err := r.runCount(ctx, b)
	if err != nil {
		return result, err
	}
	result.RecordCount = total
	if total == 0 {
		return result, nil
	}

	dataSQL, dataArgs := b.Render("SELECT " + r.desc.selectList() + " FROM " + r.desc.Table + " /**where**/ /**orderby**/ /**window**/")
	rows, err := r.db.Query(ctx, dataSQL, dataArgs...)
	if err != nil {
		return result, database.ErrorHandling(dataSQL, err)
	}
	defer rows.Close()
	for rows.Next() {
		entity, err := r.desc.Scan(rows)
		if err != nil {
			return result, database.ErrorHandling(dataSQL, err)
		}
		result.Records = append(result.Records, entity)
	}
	if err := rows.Err(); err != nil {
		return result, database.ErrorHandling(dataSQL, err)
	}
	return result, nil
}

// CountWith counts the rows the configure function's predicates match.
func (r *Repository[T]) CountWith(ctx context.Context, configure func(b *query.Builder)) (int, error) {
	b, err := r.buildSearch(query.Page{}, configure)
	if err != nil {
		return 0, err
	}
	return r.runCount(ctx, b)
}

// PaginationWith produces the paging metadata of a search without fetching
// any rows. It renders the count statement from the same predicates a
// SearchWith call with the same configure function would use.
func (r *Repository[T]) PaginationWith(ctx context.Context, page query.Page, configure func(b *query.Builder)) (datamodel.PaginationDescriptor, error) {
	descriptor := datamodel.PaginationDescriptor{
		ObjectType: r.desc.ObjectType,
		PageSize:   page.Size,
	}
	total, err := r.CountWith(ctx, configure)
	if err != nil {
		return descriptor, err
	}
	descriptor.RecordCount = total
	descriptor.PageCount = query.PageCount(total, page.Size)
	return descriptor, nil
}

// SearchPageIds is the first phase of a join-safe paged load: it returns
// only the identifiers of the requested page, so the caller can hydrate the
// full graph with a second statement over `id = ANY($1)` without the joins
// corrupting the page window.
func (r *Repository[T]) SearchPageIds(ctx context.Context, page query.Page, configure func(b *query.Builder)) ([]int, error) {
	b, err := r.buildSearch(page, configure)
	if err != nil {
		return nil, err
	}
	idSQL, idArgs := b.Render("SELECT id FROM " + r.desc.Table + " /**where**/ /**orderby**/ /**window**/")
	rows, err := r.db.Query(ctx, idSQL, idArgs...)
	if err != nil {
		return nil, database.ErrorHandling(idSQL, err)
	}
	defer rows.Close()
	var ids []int
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, database.ErrorHandling(idSQL, err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, database.ErrorHandling(idSQL, err)
	}
	return ids, nil
}

func (r *Repository[T]) buildSearch(page query.Page, configure func(b *query.Builder)) (*query.Builder, error) {
	b := query.NewBuilder()
	b.Where("is_deleted = FALSE")
	if configure != nil {
		configure(b)
	}
	if !b.HasOrdering() {
		b.OrderBy(r.desc.defaultOrder())
	}
	if !page.Unpaged() {
		limit, offset, err := page.Window()
		if err != nil {
			return nil, err
		}
		b.Window(limit, offset)
	}
	return b, nil
}

func (r *Repository[T]) runCount(ctx context.Context, b *query.Builder) (int, error) {
	countSQL, countArgs := b.Render("SELECT COUNT(*) FROM " + r.desc.Table + " /**where**/")
	var total int
	if err := r.db.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return 0, database.ErrorHandling(countSQL, err)
	}
	return total, nil
}
