package scraper

import (
	"context"

	"thebanscraper/pkg/classifier"
	"thebanscraper/pkg/models"
)

// TombSource lists and fetches tomb documentation pages
type TombSource interface {
	ListTombs(ctx context.Context) ([]models.TombPage, error)
	FetchTomb(ctx context.Context, page models.TombPage) (models.TombPage, error)
}

// PageClassifier finds the section images of one text on a tomb page
type PageClassifier interface {
	Classify(page models.TombPage) (classifier.Result, error)
}
