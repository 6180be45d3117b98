package storage

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/gymbucket/gymbucket/internal/models"
)

// ListClients returns a trainer's roster ordered by name.
func (db *DB) ListClients(ctx context.Context, trainerID int64) ([]models.Client, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, trainer_id, name, email, phone, created_at FROM clients
		 WHERE trainer_id = $1 ORDER BY name`, trainerID)
	if err != nil {
		return nil, fmt.Errorf("querying clients: %w", err)
	}
	defer rows.Close()

	var result []models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.TrainerID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// CreateClient adds c to its trainer's roster.
func (db *DB) CreateClient(ctx context.Context, c *models.Client) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := db.Pool.QueryRow(ctx,
		`INSERT INTO clients (id, trainer_id, name, email, phone) VALUES ($1,$2,$3,$4,$5)
		 RETURNING created_at`,
		c.ID, c.TrainerID, c.Name, c.Email, c.Phone).Scan(&c.CreatedAt)
	if err != nil {
		return wrap("inserting client", err)
	}
	return nil
}

// CountClients returns the size of a trainer's roster.
func (db *DB) CountClients(ctx context.Context, trainerID int64) (int, error) {
	var n int
	if err := db.Pool.QueryRow(ctx, `SELECT count(*) FROM clients WHERE trainer_id = $1`, trainerID).Scan(&n); err != nil {
		return 0, wrap("counting clients", err)
	}
	return n, nil
}
