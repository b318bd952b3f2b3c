package ingest

import (
	"testing"

	"github.com/poiesic/cohort/core"
	"github.com/stretchr/testify/assert"
)

func TestProfileText(t *testing.T) {
	p := &core.Persona{
		Id: "p1",
		KeyValues: map[string]any{
			"demographics": "Gender: Female\nAge: 30-49\nGeographic region: West\nIncome: $50,000-$75,000",
		},
		ConsumerSummary: map[string]string{
			"cognitive_style": "Analytical",
			"risk_preference": "Cautious\nwith money",
		},
	}

	got := ProfileText(p)
	assert.Equal(t,
		"Demographics: Female, 30-49, West, , , $50,000-$75,000,. Analytical. . Cautious with money. . . . . . .",
		got)
}

func TestProfileText_Empty(t *testing.T) {
	assert.Empty(t, ProfileText(&core.Persona{Id: "p1"}))
	assert.Empty(t, ProfileText(&core.Persona{Id: "p1", ConsumerSummary: map[string]string{"unrelated": "x"}}))
	assert.Empty(t, ProfileText(&core.Persona{Id: "p1", KeyValues: map[string]any{"demographics": "no labelled fields"}}))
	assert.Contains(t, ProfileText(&core.Persona{Id: "p1", KeyValues: map[string]any{"demographics": "Gender: Male"}}), "Demographics: Male,")
}

func TestClusterText(t *testing.T) {
	p := &core.Persona{
		Id: "p1",
		ConsumerSummary: map[string]string{
			"demographic_overview": "Urban renter.",
			"financial_attitude":   "Saves first.",
			"cognitive_style":      "ignored",
		},
	}
	assert.Equal(t, "Urban renter.  Saves first.", ClusterText(p))
	assert.Empty(t, ClusterText(&core.Persona{Id: "p2"}))
}
