package forecast_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/openbudget/forecast-engine/forecast"
	"github.com/openbudget/forecast-engine/recurrence"
)

func TestCategoryTree_ChildInheritsNearestAncestorPool(t *testing.T) {
	tree := forecast.NewCategoryTree()
	tree.SetPool("Housing", []recurrence.ContainerID{"checking"})
	tree.SetPool("Housing/Utilities", []recurrence.ContainerID{"utilities"})

	// Own pool wins over the ancestor's
	assert.Equal(t, []recurrence.ContainerID{"utilities"}, tree.AllowedContainers("Housing/Utilities"))
	// A deeper path walks up to the nearest declared pool
	assert.Equal(t, []recurrence.ContainerID{"utilities"}, tree.AllowedContainers("Housing/Utilities/Power"))
	assert.Equal(t, []recurrence.ContainerID{"checking"}, tree.AllowedContainers("Housing/Rent"))
	// A path with no declared ancestor is unrestricted
	assert.Nil(t, tree.AllowedContainers("Leisure/Travel"))
}

func TestCategoryTree_SetPoolInvalidatesDescendants(t *testing.T) {
	tree := forecast.NewCategoryTree()
	tree.SetPool("Housing", []recurrence.ContainerID{"checking"})

	// Prime the memo, then re-declare
	_ = tree.AllowedContainers("Housing/Rent")
	tree.SetPool("Housing", []recurrence.ContainerID{"joint"})

	assert.Equal(t, []recurrence.ContainerID{"joint"}, tree.AllowedContainers("Housing/Rent"))
}

func TestCheckPost_RejectsContainerOutsidePool(t *testing.T) {
	tree := forecast.NewCategoryTree()
	tree.SetPool("Housing", []recurrence.ContainerID{"checking", "joint"})

	post := forecast.BudgetPost{
		Name: "Rent", Direction: forecast.Expense, Category: "Housing/Rent",
		Patterns: []recurrence.AmountPattern{{
			Amount:     100000,
			Start:      date(2024, time.January, 1),
			Recurrence: recurrence.MonthlyFixed{DayOfMonth: 1},
			Containers: []recurrence.ContainerID{"savings"},
		}},
	}

	err := tree.CheckPost(post)
	assert.ErrorIs(t, err, forecast.ErrInvalidPattern)

	post.Patterns[0].Containers = []recurrence.ContainerID{"joint"}
	assert.NoError(t, tree.CheckPost(post))
}

func TestCheckPost_TransferPostsAreExempt(t *testing.T) {
	tree := forecast.NewCategoryTree()
	tree.SetPool("Housing", []recurrence.ContainerID{"checking"})

	post := forecast.BudgetPost{
		Name: "Shuffle", Direction: forecast.Transfer, Category: "Housing",
		FromContainer: "anything", ToContainer: "else",
	}

	assert.NoError(t, tree.CheckPost(post))
}

func TestCheckPost_UnrestrictedCategoryAllowsAnyContainer(t *testing.T) {
	tree := forecast.NewCategoryTree()

	post := forecast.BudgetPost{
		Name: "Misc", Direction: forecast.Expense, Category: "Whatever",
		Patterns: []recurrence.AmountPattern{{
			Amount:     100,
			Start:      date(2024, time.January, 1),
			Recurrence: recurrence.Once{},
			Containers: []recurrence.ContainerID{"anything"},
		}},
	}

	assert.NoError(t, tree.CheckPost(post))
}
