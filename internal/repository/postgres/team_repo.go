package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/family-office/internal/model"
)

// TeamRepo implements repository.TeamRepository.
type TeamRepo struct{ db *DB }

// NewTeamRepo constructs a team repository.
func NewTeamRepo(db *DB) *TeamRepo { return &TeamRepo{db: db} }

// IsMember reports whether the user belongs to the team.
func (r *TeamRepo) IsMember(ctx context.Context, teamID, userID uuid.UUID) (bool, error) {
	const q = `SELECT EXISTS (SELECT 1 FROM team_members WHERE team_id=$1 AND user_id=$2)`
	var ok bool
	if err := r.db.Pool.QueryRow(ctx, q, teamID, userID).Scan(&ok); err != nil {
		return false, err
	}
	return ok, nil
}

// PrimaryTeam returns the earliest team membership of the user.
func (r *TeamRepo) PrimaryTeam(ctx context.Context, userID uuid.UUID) (*model.Team, error) {
	const q = `
SELECT t.id, t.name, t.owner_id, t.created_at
FROM teams t JOIN team_members m ON m.team_id = t.id
WHERE m.user_id = $1
ORDER BY m.created_at, t.id
LIMIT 1`
	var t model.Team
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&t.ID, &t.Name, &t.OwnerID, &t.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}
