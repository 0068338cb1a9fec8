package service

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

func TestWriteSalesCSV(t *testing.T) {
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	report := &SalesReport{
		Days: []models.SalesReportRow{
			{Day: day, Orders: 3, Revenue: 75000},
			{Day: day.AddDate(0, 0, 1), Orders: 1, Revenue: 19900},
		},
		TopProducts: []models.TopProductRow{
			{ProductID: 42, Name: "Mechanical Keyboard", Units: 4, Revenue: 79600},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteSalesCSV(&buf, report))

	out := buf.String()
	assert.Contains(t, out, "day,orders,revenue_cents\n")
	assert.Contains(t, out, "2024-03-01,3,75000\n")
	assert.Contains(t, out, "2024-03-02,1,19900\n")
	assert.Contains(t, out, "product_id,name,units,revenue_cents\n")
	assert.Contains(t, out, "42,Mechanical Keyboard,4,79600\n")
}

func TestWriteSalesCSVEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSalesCSV(&buf, &SalesReport{}))
	assert.Contains(t, buf.String(), "day,orders,revenue_cents\n")
}
