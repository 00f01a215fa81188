package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/tenantguard/internal/models"
)

// PolicyStore implements store.PolicyStore using PostgreSQL.
type PolicyStore struct {
	pool *pgxpool.Pool
}

// NewPolicyStore creates a new PostgreSQL-backed policy store.
func NewPolicyStore(pool *pgxpool.Pool) *PolicyStore {
	return &PolicyStore{
		pool: pool,
	}
}

// ListByOrganization returns all ABAC policies for an organization.
func (s *PolicyStore) ListByOrganization(ctx context.Context, orgID uuid.UUID) ([]*models.AbacPolicy, error) {
	query := `
		SELECT policy_id, org_id, name, effect, resource, actions, match, enabled, created_at, updated_at
		FROM abac_policies
		WHERE org_id = $1
		ORDER BY created_at
	`

	rows, err := s.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list policies: %w", mapPostgresError(err))
	}
	defer rows.Close()

	var policies []*models.AbacPolicy
	for rows.Next() {
		var policy models.AbacPolicy
		var actions []string
		var match []byte

		err := rows.Scan(
			&policy.PolicyID,
			&policy.OrgID,
			&policy.Name,
			&policy.Effect,
			&policy.Resource,
			&actions,
			&match,
			&policy.Enabled,
			&policy.CreatedAt,
			&policy.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan policy: %w", err)
		}

		policy.Actions = make([]models.Action, 0, len(actions))
		for _, action := range actions {
			policy.Actions = append(policy.Actions, models.Action(action))
		}

		if err := json.Unmarshal(match, &policy.Match); err != nil {
			return nil, fmt.Errorf("failed to decode policy match: %w", err)
		}

		policies = append(policies, &policy)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating policies: %w", err)
	}

	return policies, nil
}

// Replace swaps the organization's full policy set in a single transaction.
func (s *PolicyStore) Replace(ctx context.Context, orgID uuid.UUID, policies []*models.AbacPolicy) error {
	for _, policy := range policies {
		if err := policy.Validate(); err != nil {
			return err
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback is safe to call after commit

	if _, err := tx.Exec(ctx, `DELETE FROM abac_policies WHERE org_id = $1`, orgID); err != nil {
		return fmt.Errorf("failed to clear policies: %w", mapPostgresError(err))
	}

	query := `
		INSERT INTO abac_policies (
			policy_id, org_id, name, effect, resource, actions, match, enabled, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, now(), now()
		)
	`

	for _, policy := range policies {
		policyID := policy.PolicyID
		if policyID == uuid.Nil {
			policyID = uuid.Must(uuid.NewV7())
		}

		actions := make([]string, 0, len(policy.Actions))
		for _, action := range policy.Actions {
			actions = append(actions, string(action))
		}

		match, err := json.Marshal(policy.Match)
		if err != nil {
			return fmt.Errorf("failed to encode policy match: %w", err)
		}

		_, err = tx.Exec(ctx, query,
			policyID,
			orgID,
			policy.Name,
			policy.Effect,
			policy.Resource,
			actions,
			match,
			policy.Enabled,
		)
		if err != nil {
			return fmt.Errorf("failed to insert policy: %w", mapPostgresError(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit policy replacement: %w", err)
	}

	log.Debug().
		Str("org_id", orgID.String()).
		Int("count", len(policies)).
		Msg("Replaced policy set")

	return nil
}
