package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
)

type StudentRepository struct {
	*base.Repository
}

func NewStudentRepository(pool *pgxpool.Pool) *StudentRepository {
	return &StudentRepository{Repository: base.NewRepository(pool)}
}

// GetByNetID получает студента по NetId
func (r *StudentRepository) GetByNetID(ctx context.Context, netID string) (*model.Student, error) {
	query := `
		SELECT net_id, name, email, phone_number
		FROM students
		WHERE net_id = $1
	`

	var s model.Student
	err := r.QueryRow(ctx, query, netID).Scan(&s.NetID, &s.Name, &s.Email, &s.PhoneNumber)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get student by net id: %w", err)
	}

	return &s, nil
}
