package cities

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"trainmapper.org/internal/schedule"
)

func TestDeriveNames(t *testing.T) {
	stops := []schedule.Stop{
		{ID: "1", Name: "Paris Nord"},
		{ID: "2", Name: "Marseille Saint-Charles"},
		{ID: "3", Name: "Paris Gare de Lyon"},
		{ID: "4", Name: "  "},
		{ID: "5", Name: "Lyon Part-Dieu"},
		{ID: "6", Name: "AIX-EN-PROVENCE TGV"},
	}

	assert.Equal(t, []string{"aix-en-provence", "lyon", "marseille", "paris"}, DeriveNames(stops))
	assert.Empty(t, DeriveNames(nil))
}
