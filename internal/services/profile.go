package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/athletiq/socialgraph/internal/models"
)

var ErrProfileNotFound = errors.New("athlete profile not found")

const profileColumns = `id, username, display_name, avatar_url, sport, experience_tier, bio,
	is_public, allow_direct_messages, allow_friend_requests, visibility, moderation, created_at`

// ProfileService reads athlete profiles from the profile database. The wider
// product owns this data; the engine only consumes it.
type ProfileService struct {
	db DB
}

func NewProfileService(db DB) *ProfileService {
	return &ProfileService{db: db}
}

func (s *ProfileService) FetchProfile(ctx context.Context, id uuid.UUID) (*models.AthleteProfile, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+profileColumns+" FROM athlete_profiles WHERE id = $1",
		id,
	)
	profile, err := scanProfile(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetching profile: %w", err)
	}
	return profile, nil
}

// SearchProfiles matches usernames case-insensitively. Only profiles whose
// is_public flag is set are searchable; the finer visibility tiers are
// applied by the caller.
func (s *ProfileService) SearchProfiles(ctx context.Context, query string, limit int) ([]*models.AthleteProfile, error) {
	query = strings.TrimSpace(query)
	if len(query) < 2 {
		return []*models.AthleteProfile{}, nil
	}
	if limit < 1 {
		limit = 20
	}

	pattern := "%" + strings.ToLower(query) + "%"

	rows, err := s.db.Query(ctx,
		`SELECT `+profileColumns+` FROM athlete_profiles
		 WHERE LOWER(username) LIKE $1 AND is_public = true
		 ORDER BY username
		 LIMIT $2`,
		pattern, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}
	defer rows.Close()

	var results []*models.AthleteProfile
	for rows.Next() {
		profile, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning profile: %w", err)
		}
		results = append(results, profile)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("searching profiles: %w", err)
	}

	if results == nil {
		results = []*models.AthleteProfile{}
	}
	return results, nil
}

func scanProfile(row Row) (*models.AthleteProfile, error) {
	p := &models.AthleteProfile{}
	err := row.Scan(
		&p.ID, &p.Username, &p.DisplayName, &p.AvatarURL, &p.Sport, &p.ExperienceTier, &p.Bio,
		&p.IsPublic, &p.ParentalControls.AllowDirectMessages, &p.ParentalControls.AllowFriendRequests,
		&p.ParentalControls.Visibility, &p.ParentalControls.Moderation, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}
