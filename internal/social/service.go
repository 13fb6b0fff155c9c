package social

import (
	"context"

	"github.com/Neoznzoe/drivr/internal/db"

	"github.com/google/uuid"
)

type Service struct {
	db db.Querier
}

func NewService(db db.Querier) *Service {
	return &Service{db: db}
}

func (s *Service) Follow(ctx context.Context, followerID, followingID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO user_follows (follower_id, following_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, followerID, followingID)
	return err
}

func (s *Service) Unfollow(ctx context.Context, followerID, followingID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM user_follows WHERE follower_id=$1 AND following_id=$2
	`, followerID, followingID)
	return err
}

func (s *Service) Like(ctx context.Context, sessionID, userID string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO session_likes (session_id, user_id)
		VALUES ($1,$2)
		ON CONFLICT DO NOTHING
	`, sessionID, userID)
	return err
}

func (s *Service) Unlike(ctx context.Context, sessionID, userID string) error {
	_, err := s.db.Exec(ctx, `
		DELETE FROM session_likes WHERE session_id=$1 AND user_id=$2
	`, sessionID, userID)
	return err
}

func (s *Service) AddComment(ctx context.Context, input Comment) (Comment, error) {
	input.ID = uuid.NewString()
	row := s.db.QueryRow(ctx, `
		INSERT INTO session_comments (id, session_id, user_id, body)
		VALUES ($1,$2,$3,$4)
		RETURNING created_at
	`, input.ID, input.SessionID, input.UserID, input.Body)
	if err := row.Scan(&input.CreatedAt); err != nil {
		return Comment{}, err
	}
	return input, nil
}

func (s *Service) Comments(ctx context.Context, sessionID string) ([]Comment, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, user_id, body, created_at
		FROM session_comments WHERE session_id=$1
		ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []Comment
	for rows.Next() {
		var c Comment
		if err := rows.Scan(&c.ID, &c.SessionID, &c.UserID, &c.Body, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Service) AddPhoto(ctx context.Context, sessionID, url string) (SessionPhoto, error) {
	photo := SessionPhoto{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		URL:       url,
	}
	row := s.db.QueryRow(ctx, `
		INSERT INTO session_photos (id, session_id, photo_url)
		VALUES ($1,$2,$3)
		RETURNING created_at
	`, photo.ID, photo.SessionID, photo.URL)
	if err := row.Scan(&photo.CreatedAt); err != nil {
		return SessionPhoto{}, err
	}
	return photo, nil
}

func (s *Service) Photos(ctx context.Context, sessionID string) ([]SessionPhoto, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, session_id, photo_url, created_at
		FROM session_photos WHERE session_id=$1
		ORDER BY created_at
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var photos []SessionPhoto
	for rows.Next() {
		var p SessionPhoto
		if err := rows.Scan(&p.ID, &p.SessionID, &p.URL, &p.CreatedAt); err != nil {
			return nil, err
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// Feed lists recent completed sessions from the user and everyone they
// follow, newest first.
func (s *Service) Feed(ctx context.Context, userID string) ([]FeedItem, error) {
	rows, err := s.db.Query(ctx, `
		SELECT se.id, se.user_id, u.username, se.vehicle_id, COALESCE(se.total_distance_m,0), se.started_at, se.ended_at,
		       (SELECT COUNT(*) FROM session_likes l WHERE l.session_id=se.id),
		       (SELECT COUNT(*) FROM session_comments sc WHERE sc.session_id=se.id)
		FROM sessions se
		JOIN users u ON u.id = se.user_id
		WHERE se.status='completed'
		  AND (se.user_id=$1 OR se.user_id IN (SELECT following_id FROM user_follows WHERE follower_id=$1))
		ORDER BY se.ended_at DESC
		LIMIT 100
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var feed []FeedItem
	for rows.Next() {
		var f FeedItem
		if err := rows.Scan(&f.SessionID, &f.UserID, &f.Username, &f.VehicleID, &f.DistanceM, &f.StartedAt, &f.EndedAt, &f.LikeCount, &f.CommentCount); err != nil {
			return nil, err
		}
		feed = append(feed, f)
	}
	return feed, rows.Err()
}
