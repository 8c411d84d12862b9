package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"gstbooks/internal/core/apperror"
	"gstbooks/internal/core/id"
	"gstbooks/internal/domain"
	"gstbooks/internal/domain/catalogs/party"
	"gstbooks/internal/infrastructure/storage/postgres"
)

const partiesTable = "cat_parties"

// Compile-time check.
var _ party.Repository = (*PartyRepo)(nil)

// PartyRepo implements party.Repository.
type PartyRepo struct {
	txManager *postgres.TxManager
	builder   squirrel.StatementBuilderType
}

// NewPartyRepo creates a new party repository.
func NewPartyRepo(txManager *postgres.TxManager) *PartyRepo {
	return &PartyRepo{
		txManager: txManager,
		builder:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

var partyColumns = []string{
	"id", "deletion_mark", "version",
	"name", "kind", "gstin", "state_code", "gst_enabled",
}

func (r *PartyRepo) Create(ctx context.Context, p *party.Party) error {
	q := r.builder.Insert(partiesTable).
		Columns(partyColumns...).
		Values(
			p.ID, p.DeletionMark, p.Version,
			p.Name, p.Kind, p.GSTIN, p.StateCode, p.GSTEnabled,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert party: %w", err)
	}
	return nil
}

func (r *PartyRepo) GetByID(ctx context.Context, partyID id.ID) (*party.Party, error) {
	q := r.builder.Select(partyColumns...).
		From(partiesTable).
		Where(squirrel.Eq{"id": partyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var p party.Party
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &p, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("party", partyID)
		}
		return nil, fmt.Errorf("get party: %w", err)
	}
	return &p, nil
}

func (r *PartyRepo) Update(ctx context.Context, p *party.Party) error {
	q := r.builder.Update(partiesTable).
		Set("deletion_mark", p.DeletionMark).
		Set("version", p.Version+1).
		Set("name", p.Name).
		Set("kind", p.Kind).
		Set("gstin", p.GSTIN).
		Set("state_code", p.StateCode).
		Set("gst_enabled", p.GSTEnabled).
		Where(squirrel.Eq{"id": p.ID, "version": p.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update party: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("party", p.ID)
	}
	p.SetVersion(p.Version + 1)
	return nil
}

// Delete soft-deletes the party; documents keep referencing it.
func (r *PartyRepo) Delete(ctx context.Context, partyID id.ID) error {
	q := r.builder.Update(partiesTable).
		Set("deletion_mark", true).
		Where(squirrel.Eq{"id": partyID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("party", partyID)
	}
	return nil
}

func (r *PartyRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*party.Party], error) {
	result := domain.ListResult[*party.Party]{
		Items:  []*party.Party{},
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	where := squirrel.And{}
	if !filter.IncludeDeleted {
		where = append(where, squirrel.Eq{"deletion_mark": false})
	}
	if len(filter.IDs) > 0 {
		where = append(where, squirrel.Eq{"id": filter.IDs})
	}
	if filter.Search != "" {
		where = append(where, squirrel.Or{
			squirrel.ILike{"name": "%" + filter.Search + "%"},
			squirrel.ILike{"gstin": "%" + filter.Search + "%"},
		})
	}

	countQ := r.builder.Select("COUNT(*)").From(partiesTable).Where(where)
	sql, args, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}
	if err := r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count parties: %w", err)
	}

	q := r.builder.Select(partyColumns...).
		From(partiesTable).
		Where(where).
		OrderBy("name").
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset))

	sql, args, err = q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("select parties: %w", err)
	}
	return result, nil
}
