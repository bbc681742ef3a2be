package handlers

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const athleteIDContextKey contextKey = "athlete_id"

func SetAthleteID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, athleteIDContextKey, id)
}

func AthleteID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(athleteIDContextKey).(uuid.UUID)
	return id, ok
}
