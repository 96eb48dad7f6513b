// Copyright (c) 2024 Telar Social
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	uuid "github.com/gofrs/uuid"
	"github.com/lib/pq"
	"github.com/qolzam/mailer/internal/database/postgres"
	"github.com/qolzam/mailer/internal/types"
	mailingErrors "github.com/qolzam/mailer/mailings/errors"
	"github.com/qolzam/mailer/mailings/models"
)

const mailingColumns = `m.id, m.owner_id, m.message_id, m.status, m.started_at, m.ended_at, m.last_cycle, m.created_at, m.updated_at`

// mailingRow carries the aggregated recipient ids next to the mailing columns.
type mailingRow struct {
	models.Mailing
	RecipientList pq.StringArray `db:"recipient_ids"`
}

func (r mailingRow) toModel() (models.Mailing, error) {
	m := r.Mailing
	m.RecipientIDs = make([]uuid.UUID, 0, len(r.RecipientList))
	for _, raw := range r.RecipientList {
		id, err := uuid.FromString(raw)
		if err != nil {
			return m, fmt.Errorf("parse recipient id %q: %w", raw, err)
		}
		m.RecipientIDs = append(m.RecipientIDs, id)
	}
	return m, nil
}

type postgresRepository struct {
	client *postgres.Client
}

// NewPostgresRepository creates a mailing repository on client.
func NewPostgresRepository(client *postgres.Client) Repository {
	return &postgresRepository{client: client}
}

func (r *postgresRepository) Create(ctx context.Context, mailing *models.Mailing) error {
	if mailing.ObjectId == uuid.Nil {
		mailing.ObjectId = uuid.Must(uuid.NewV4())
	}
	if mailing.Status == "" {
		mailing.Status = models.StatusCreated
	}
	now := time.Now().UTC()
	mailing.CreatedAt = now
	mailing.UpdatedAt = now

	return r.client.WithTransaction(ctx, func(txCtx context.Context) error {
		query := `
			INSERT INTO mailings (id, owner_id, message_id, status, started_at, ended_at, last_cycle, created_at, updated_at)
			VALUES (:id, :owner_id, :message_id, :status, :started_at, :ended_at, :last_cycle, :created_at, :updated_at)
		`
		if _, err := r.client.Executor(txCtx).NamedExecContext(txCtx, query, mailing); err != nil {
			return fmt.Errorf("insert mailing: %w", err)
		}
		return r.linkRecipients(txCtx, mailing.ObjectId, mailing.RecipientIDs)
	})
}

func (r *postgresRepository) linkRecipients(ctx context.Context, mailingID uuid.UUID, recipientIDs []uuid.UUID) error {
	if len(recipientIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO mailing_recipients (mailing_id, recipient_id)
		SELECT $1, unnest($2::uuid[])
		ON CONFLICT DO NOTHING
	`
	if _, err := r.client.Executor(ctx).ExecContext(ctx, query, mailingID, pq.Array(idStrings(recipientIDs))); err != nil {
		return fmt.Errorf("link mailing recipients: %w", err)
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, scope types.Scope, id uuid.UUID) (*models.Mailing, error) {
	query := `SELECT ` + mailingColumns + `,
			COALESCE(array_agg(mr.recipient_id::text) FILTER (WHERE mr.recipient_id IS NOT NULL), '{}') AS recipient_ids
		FROM mailings m
		LEFT JOIN mailing_recipients mr ON mr.mailing_id = m.id
		WHERE m.id = $1 AND ($2::boolean OR m.owner_id = $3)
		GROUP BY m.id`

	var row mailingRow
	if err := r.client.Executor(ctx).GetContext(ctx, &row, query, id, scope.All, scope.OwnerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mailingErrors.ErrMailingNotFound
		}
		return nil, fmt.Errorf("find mailing: %w", err)
	}

	mailing, err := row.toModel()
	if err != nil {
		return nil, err
	}
	return &mailing, nil
}

func (r *postgresRepository) List(ctx context.Context, scope types.Scope) ([]models.Mailing, error) {
	query := `SELECT ` + mailingColumns + `,
			COALESCE(array_agg(mr.recipient_id::text) FILTER (WHERE mr.recipient_id IS NOT NULL), '{}') AS recipient_ids
		FROM mailings m
		LEFT JOIN mailing_recipients mr ON mr.mailing_id = m.id
		WHERE ($1::boolean OR m.owner_id = $2)
		GROUP BY m.id
		ORDER BY m.created_at DESC, m.id DESC`

	var rows []mailingRow
	if err := r.client.Executor(ctx).SelectContext(ctx, &rows, query, scope.All, scope.OwnerID); err != nil {
		return nil, fmt.Errorf("list mailings: %w", err)
	}

	mailings := make([]models.Mailing, 0, len(rows))
	for _, row := range rows {
		m, err := row.toModel()
		if err != nil {
			return nil, err
		}
		mailings = append(mailings, m)
	}
	return mailings, nil
}

func (r *postgresRepository) Count(ctx context.Context, scope types.Scope) (int, error) {
	var total int
	query := `SELECT COUNT(*) FROM mailings WHERE ($1::boolean OR owner_id = $2)`
	if err := r.client.Executor(ctx).GetContext(ctx, &total, query, scope.All, scope.OwnerID); err != nil {
		return 0, fmt.Errorf("count mailings: %w", err)
	}
	return total, nil
}

func (r *postgresRepository) Update(ctx context.Context, scope types.Scope, mailing *models.Mailing) error {
	mailing.UpdatedAt = time.Now().UTC()

	return r.client.WithTransaction(ctx, func(txCtx context.Context) error {
		query := `
			UPDATE mailings
			SET message_id = $1, started_at = $2, ended_at = $3, updated_at = $4
			WHERE id = $5 AND ($6::boolean OR owner_id = $7)
			RETURNING owner_id, status, last_cycle, created_at`

		row := r.client.Executor(txCtx).QueryRowxContext(txCtx, query,
			mailing.MessageID, mailing.StartedAt, mailing.EndedAt, mailing.UpdatedAt,
			mailing.ObjectId, scope.All, scope.OwnerID)
		if err := row.Scan(&mailing.OwnerID, &mailing.Status, &mailing.LastCycle, &mailing.CreatedAt); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return mailingErrors.ErrMailingNotFound
			}
			return fmt.Errorf("update mailing: %w", err)
		}

		if _, err := r.client.Executor(txCtx).ExecContext(txCtx,
			`DELETE FROM mailing_recipients WHERE mailing_id = $1`, mailing.ObjectId); err != nil {
			return fmt.Errorf("unlink mailing recipients: %w", err)
		}
		return r.linkRecipients(txCtx, mailing.ObjectId, mailing.RecipientIDs)
	})
}

func (r *postgresRepository) Delete(ctx context.Context, scope types.Scope, id uuid.UUID) error {
	query := `DELETE FROM mailings WHERE id = $1 AND ($2::boolean OR owner_id = $3)`

	result, err := r.client.Executor(ctx).ExecContext(ctx, query, id, scope.All, scope.OwnerID)
	if err != nil {
		return fmt.Errorf("delete mailing: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return mailingErrors.ErrMailingNotFound
	}
	return nil
}

func (r *postgresRepository) ForeignReferences(ctx context.Context, ownerID, messageID uuid.UUID, recipientIDs []uuid.UUID) (bool, []uuid.UUID, error) {
	exec := r.client.Executor(ctx)

	var messageOwned bool
	if err := exec.GetContext(ctx, &messageOwned,
		`SELECT EXISTS (SELECT 1 FROM messages WHERE id = $1 AND owner_id = $2)`, messageID, ownerID); err != nil {
		return false, nil, fmt.Errorf("check message owner: %w", err)
	}

	var owned []uuid.UUID
	if len(recipientIDs) > 0 {
		query := `SELECT id FROM recipients WHERE id = ANY($1::uuid[]) AND owner_id = $2`
		if err := exec.SelectContext(ctx, &owned, query, pq.Array(idStrings(recipientIDs)), ownerID); err != nil {
			return false, nil, fmt.Errorf("check recipient owners: %w", err)
		}
	}

	ownedSet := make(map[uuid.UUID]bool, len(owned))
	for _, id := range owned {
		ownedSet[id] = true
	}
	var foreign []uuid.UUID
	for _, id := range recipientIDs {
		if !ownedSet[id] {
			foreign = append(foreign, id)
		}
	}
	return messageOwned, foreign, nil
}

func (r *postgresRepository) MarkStarted(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.setStatus(ctx, id, models.StatusStarted)
}

func (r *postgresRepository) MarkFinished(ctx context.Context, id uuid.UUID) (bool, error) {
	return r.setStatus(ctx, id, models.StatusFinished)
}

// setStatus never leaves Finished. Setting Started on a Started mailing still reports true.
func (r *postgresRepository) setStatus(ctx context.Context, id uuid.UUID, status models.Status) (bool, error) {
	query := `
		UPDATE mailings
		SET status = $2, updated_at = NOW()
		WHERE id = $1 AND status <> 'Finished'`

	result, err := r.client.Executor(ctx).ExecContext(ctx, query, id, status)
	if err != nil {
		return false, fmt.Errorf("set mailing status %s: %w", status, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return rows > 0, nil
}

func (r *postgresRepository) AdvanceCycle(ctx context.Context, id uuid.UUID) (int, error) {
	query := `
		UPDATE mailings
		SET last_cycle = last_cycle + 1, updated_at = NOW()
		WHERE id = $1 AND status = 'Started'
		RETURNING last_cycle`

	var cycle int
	if err := r.client.Executor(ctx).GetContext(ctx, &cycle, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, mailingErrors.ErrMailingFinished
		}
		return 0, fmt.Errorf("advance mailing cycle: %w", err)
	}
	return cycle, nil
}

func (r *postgresRepository) FindDelivery(ctx context.Context, id uuid.UUID) (*models.Delivery, error) {
	exec := r.client.Executor(ctx)

	var head struct {
		models.Mailing
		Subject string `db:"subject"`
		Body    string `db:"body"`
	}
	query := `SELECT ` + mailingColumns + `, msg.subject, msg.body
		FROM mailings m
		JOIN messages msg ON msg.id = m.message_id
		WHERE m.id = $1`
	if err := exec.GetContext(ctx, &head, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, mailingErrors.ErrMailingNotFound
		}
		return nil, fmt.Errorf("find mailing delivery: %w", err)
	}

	recipients := []models.DeliveryRecipient{}
	recipientQuery := `
		SELECT r.id, r.email, r.initials
		FROM mailing_recipients mr
		JOIN recipients r ON r.id = mr.recipient_id
		WHERE mr.mailing_id = $1
		ORDER BY r.email, r.id`
	if err := exec.SelectContext(ctx, &recipients, recipientQuery, id); err != nil {
		return nil, fmt.Errorf("find mailing recipients: %w", err)
	}

	delivery := &models.Delivery{
		Mailing:    head.Mailing,
		Subject:    head.Subject,
		Body:       head.Body,
		Recipients: recipients,
	}
	for _, rcp := range recipients {
		delivery.Mailing.RecipientIDs = append(delivery.Mailing.RecipientIDs, rcp.ID)
	}
	return delivery, nil
}

func (r *postgresRepository) ListDue(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return r.selectIDs(ctx, `SELECT id FROM mailings WHERE status = 'Created' AND started_at <= $1 ORDER BY started_at`, now)
}

func (r *postgresRepository) ListExpired(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	return r.selectIDs(ctx, `SELECT id FROM mailings WHERE status = 'Started' AND ended_at <= $1 ORDER BY ended_at`, now)
}

func (r *postgresRepository) ListStarted(ctx context.Context) ([]uuid.UUID, error) {
	return r.selectIDs(ctx, `SELECT id FROM mailings WHERE status = 'Started' ORDER BY started_at`)
}

func (r *postgresRepository) selectIDs(ctx context.Context, query string, args ...interface{}) ([]uuid.UUID, error) {
	ids := []uuid.UUID{}
	if err := r.client.Executor(ctx).SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select mailing ids: %w", err)
	}
	return ids, nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
