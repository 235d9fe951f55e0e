package api

import (
	"context"

	"github.com/fairwaylabs/clubfinder/internal/recommend"
)

// Recommender defines the pipeline operation needed by handlers.
type Recommender interface {
	Recommend(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}
