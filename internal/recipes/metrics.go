package recipes

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	recipesCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cookbook_recipe_creations_total",
			Help: "Recipe creation attempts by outcome",
		},
		[]string{"outcome"},
	)

	ingredientsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "cookbook_ingredients_created_total",
			Help: "Ingredients added to the shared catalog",
		},
	)

	ratingsApplied = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cookbook_recipe_ratings_total",
			Help: "Rating attempts by outcome",
		},
		[]string{"outcome"},
	)
)
