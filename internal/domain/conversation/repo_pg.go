package conversation

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepoPG returns a PostgreSQL-backed conversation repository.
func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const conversationCols = `c.id, c.title, c.patient_id, c.created_by,
	c.sendbird_channel_url, c.created_at,
	p.first_name, p.last_name, u.email`

func scanConversation(row pgx.Row) (*Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.ID, &c.Title, &c.PatientID, &c.CreatedBy,
		&c.SendbirdChannelURL, &c.CreatedAt,
		&c.PatientFirstName, &c.PatientLastName, &c.CreatorEmail,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrConversationNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *repoPG) CreateWithMembers(ctx context.Context, conv *Conversation, members []Member) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO conversations (title, patient_id, created_by, sendbird_channel_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		conv.Title, conv.PatientID, conv.CreatedBy, conv.SendbirdChannelURL,
	).Scan(&conv.ID, &conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	for i := range members {
		members[i].ConversationID = conv.ID
		err = tx.QueryRow(ctx, `
			INSERT INTO conversation_members (conversation_id, user_id, is_compliant, compliance_note)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			conv.ID, members[i].UserID, members[i].IsCompliant, members[i].ComplianceNote,
		).Scan(&members[i].ID, &members[i].CreatedAt)
		if err != nil {
			return fmt.Errorf("insert member %s: %w", members[i].UserID, err)
		}
	}

	return tx.Commit(ctx)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationCols+`
		FROM conversations c
		JOIN patients p ON p.id = c.patient_id
		JOIN users u ON u.id = c.created_by
		WHERE c.id = $1`, id)
	return scanConversation(row)
}

func (r *repoPG) FindByChannelURL(ctx context.Context, channelURL string) (*Conversation, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+conversationCols+`
		FROM conversations c
		JOIN patients p ON p.id = c.patient_id
		JOIN users u ON u.id = c.created_by
		WHERE c.sendbird_channel_url = $1`, channelURL)
	return scanConversation(row)
}

func (r *repoPG) ListForUser(ctx context.Context, userID uuid.UUID) ([]Conversation, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+conversationCols+`
		FROM conversations c
		JOIN patients p ON p.id = c.patient_id
		JOIN users u ON u.id = c.created_by
		JOIN conversation_members m ON m.conversation_id = c.id
		WHERE m.user_id = $1 AND m.is_compliant
		ORDER BY c.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Conversation
	for rows.Next() {
		c, err := scanConversation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (r *repoPG) Members(ctx context.Context, conversationID uuid.UUID) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT m.id, m.conversation_id, m.user_id, m.is_compliant, m.compliance_note, m.created_at,
			u.first_name, u.last_name, u.email, u.is_external, u.phone_number, o.name
		FROM conversation_members m
		JOIN users u ON u.id = m.user_id
		LEFT JOIN organizations o ON o.id = u.organization_id
		WHERE m.conversation_id = $1
		ORDER BY m.created_at`, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Member
	for rows.Next() {
		var m Member
		err := rows.Scan(
			&m.ID, &m.ConversationID, &m.UserID, &m.IsCompliant, &m.ComplianceNote, &m.CreatedAt,
			&m.FirstName, &m.LastName, &m.Email, &m.IsExternal, &m.PhoneNumber, &m.OrganizationName,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *repoPG) IsCompliantMember(ctx context.Context, conversationID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM conversation_members
			WHERE conversation_id = $1 AND user_id = $2 AND is_compliant
		)`, conversationID, userID).Scan(&exists)
	return exists, err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM conversation_members WHERE conversation_id = $1`, id); err != nil {
		return fmt.Errorf("delete members: %w", err)
	}

	tag, err := tx.Exec(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConversationNotFound
	}

	return tx.Commit(ctx)
}
