package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"huusy-marketplace/internal/models"
)

const agentSelect = `
	SELECT id, full_name, email, agency_name, phone, profile_image_url, description, created_at
	FROM account_pro`

func scanAgent(row scanner) (models.Agent, error) {
	var (
		a                          models.Agent
		name, email, agency, phone sql.NullString
		profileImage, description  sql.NullString
		createdAt                  sql.NullTime
	)
	if err := row.Scan(&a.ID, &name, &email, &agency, &phone, &profileImage, &description, &createdAt); err != nil {
		return models.Agent{}, err
	}
	a.FullName = name.String
	a.Email = email.String
	a.AgencyName = agency.String
	a.Phone = phone.String
	a.ProfileImageURL = profileImage.String
	a.Description = description.String
	a.CreatedAt = nullTime(createdAt)
	return a, nil
}

// FetchAgents returns every pro account, newest first.
func FetchAgents(ctx context.Context, db *sql.DB) ([]models.Agent, error) {
	rows, err := db.QueryContext(ctx, agentSelect+`
	ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	agents := make([]models.Agent, 0)
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func FetchAgentByID(ctx context.Context, db *sql.DB, id string) (*models.Agent, error) {
	a, err := scanAgent(db.QueryRowContext(ctx, agentSelect+`
	WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func Agents(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()
	agents, err := FetchAgents(ctx, db)
	if err != nil {
		return nil, 0, 0, err
	}
	return agents, len(agents), time.Since(start).Milliseconds(), nil
}

func AgentByID(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	agentID, err := stringParam(params, "agentId")
	if err != nil {
		return nil, 0, 0, err
	}

	start := time.Now()
	agent, err := FetchAgentByID(ctx, db, agentID)
	if err != nil {
		return nil, 0, 0, err
	}
	return agent, 1, time.Since(start).Milliseconds(), nil
}
