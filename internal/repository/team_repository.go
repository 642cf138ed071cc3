package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamboard/teamboard/internal/domain"
)

// TeamRepository manages persistence for teams and their members.
type TeamRepository interface {
	Create(ctx context.Context, team *domain.Team) error
	Update(ctx context.Context, team *domain.Team) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Team, error)
	List(ctx context.Context) ([]domain.Team, error)
	AddMember(ctx context.Context, teamID string, member domain.Member) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	UpdateMemberRole(ctx context.Context, teamID, userID string, role domain.Role) error
}

type teamRepository struct {
	pool *pgxpool.Pool
}

// NewTeamRepository constructs repository.
func NewTeamRepository(pool *pgxpool.Pool) TeamRepository {
	return &teamRepository{pool: pool}
}

func (r *teamRepository) Create(ctx context.Context, team *domain.Team) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		const query = `
            INSERT INTO teams (name, description, picture_profile, created_by)
            VALUES ($1,$2,$3,$4)
            RETURNING id, created_at, updated_at`
		if err := tx.QueryRow(ctx, query,
			team.Name,
			team.Description,
			team.PictureProfile,
			team.CreatedBy,
		).Scan(&team.ID, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return err
		}
		for i, m := range team.Members {
			if _, err := tx.Exec(ctx,
				`INSERT INTO team_members (team_id, user_id, role, position) VALUES ($1,$2,$3,$4)`,
				team.ID, m.UserID, string(m.Role), i,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *teamRepository) Update(ctx context.Context, team *domain.Team) error {
	const query = `
        UPDATE teams SET name=$1, description=$2, picture_profile=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING updated_at`
	return r.pool.QueryRow(ctx, query,
		team.Name,
		team.Description,
		team.PictureProfile,
		team.ID,
	).Scan(&team.UpdatedAt)
}

func (r *teamRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) GetByID(ctx context.Context, id string) (*domain.Team, error) {
	const query = `
        SELECT id, name, description, picture_profile, created_by, created_at, updated_at
        FROM teams WHERE id=$1`
	var team domain.Team
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&team.ID,
		&team.Name,
		&team.Description,
		&team.PictureProfile,
		&team.CreatedBy,
		&team.CreatedAt,
		&team.UpdatedAt,
	); err != nil {
		return nil, err
	}
	teams := []domain.Team{team}
	if err := r.loadMembers(ctx, teams); err != nil {
		return nil, err
	}
	return &teams[0], nil
}

func (r *teamRepository) List(ctx context.Context) ([]domain.Team, error) {
	const query = `
        SELECT id, name, description, picture_profile, created_by, created_at, updated_at
        FROM teams ORDER BY created_at, id`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Team
	for rows.Next() {
		var team domain.Team
		if err := rows.Scan(&team.ID, &team.Name, &team.Description, &team.PictureProfile, &team.CreatedBy, &team.CreatedAt, &team.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, team)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadMembers(ctx, result); err != nil {
		return nil, err
	}
	return result, nil
}

// loadMembers fills Members for every team in place, with resolved user summaries.
func (r *teamRepository) loadMembers(ctx context.Context, teams []domain.Team) error {
	if len(teams) == 0 {
		return nil
	}
	ids := make([]string, len(teams))
	index := make(map[string]int, len(teams))
	for i := range teams {
		ids[i] = teams[i].ID
		index[teams[i].ID] = i
		teams[i].Members = []domain.Member{}
	}

	const query = `
        SELECT tm.team_id, tm.user_id, tm.role, u.full_name, u.email, u.picture
        FROM team_members tm JOIN users u ON u.id = tm.user_id
        WHERE tm.team_id = ANY($1)
        ORDER BY tm.team_id, tm.position, tm.user_id`
	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			teamID  string
			role    string
			summary domain.UserSummary
		)
		if err := rows.Scan(&teamID, &summary.ID, &role, &summary.FullName, &summary.Email, &summary.Picture); err != nil {
			return err
		}
		i, ok := index[teamID]
		if !ok {
			continue
		}
		user := summary
		teams[i].Members = append(teams[i].Members, domain.Member{
			UserID: summary.ID,
			Role:   domain.Role(role),
			User:   &user,
		})
	}
	return rows.Err()
}

func (r *teamRepository) AddMember(ctx context.Context, teamID string, member domain.Member) error {
	const query = `
        INSERT INTO team_members (team_id, user_id, role, position)
        VALUES ($1, $2, $3, (SELECT COALESCE(MAX(position) + 1, 0) FROM team_members WHERE team_id = $1))`
	_, err := r.pool.Exec(ctx, query, teamID, member.UserID, string(member.Role))
	return translate(err)
}

func (r *teamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM team_members WHERE team_id=$1 AND user_id=$2`, teamID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *teamRepository) UpdateMemberRole(ctx context.Context, teamID, userID string, role domain.Role) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE team_members SET role=$1 WHERE team_id=$2 AND user_id=$3`, string(role), teamID, userID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
