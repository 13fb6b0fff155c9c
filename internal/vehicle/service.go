package vehicle

import (
	"context"
	"errors"

	"github.com/Neoznzoe/drivr/internal/db"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrNotFound = errors.New("vehicle not found")

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Create(ctx context.Context, input Vehicle) (Vehicle, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO vehicles (id, owner_id, make, model, year, plate, nickname)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING created_at
	`, input.ID, input.OwnerID, input.Make, input.Model, input.Year, input.Plate, input.Nickname)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Vehicle{}, err
	}
	return input, nil
}

func (s *Service) Get(ctx context.Context, id string) (Vehicle, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, owner_id, make, model, COALESCE(year,0), COALESCE(plate,''), COALESCE(nickname,''), created_at
		FROM vehicles WHERE id=$1
	`, id)
	var v Vehicle
	err := row.Scan(&v.ID, &v.OwnerID, &v.Make, &v.Model, &v.Year, &v.Plate, &v.Nickname, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, ErrNotFound
	}
	if err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

func (s *Service) Update(ctx context.Context, id string, patch Vehicle) (Vehicle, error) {
	v, err := s.Get(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	if patch.Make != "" {
		v.Make = patch.Make
	}
	if patch.Model != "" {
		v.Model = patch.Model
	}
	if patch.Year != 0 {
		v.Year = patch.Year
	}
	if patch.Plate != "" {
		v.Plate = patch.Plate
	}
	if patch.Nickname != "" {
		v.Nickname = patch.Nickname
	}

	_, err = s.db.Exec(ctx, `
		UPDATE vehicles SET make=$2, model=$3, year=$4, plate=$5, nickname=$6 WHERE id=$1
	`, v.ID, v.Make, v.Model, v.Year, v.Plate, v.Nickname)
	if err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM vehicles WHERE id=$1`, id)
	return err
}

func (s *Service) ByOwner(ctx context.Context, ownerID string) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, owner_id, make, model, COALESCE(year,0), COALESCE(plate,''), COALESCE(nickname,''), created_at
		FROM vehicles WHERE owner_id=$1
		ORDER BY created_at
	`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.OwnerID, &v.Make, &v.Model, &v.Year, &v.Plate, &v.Nickname, &v.CreatedAt); err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}
	return vehicles, rows.Err()
}
