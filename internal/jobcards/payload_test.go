package jobcards

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

func detail(name string, qty int, hwPort string) models.FormulaDetail {
	item := &models.InventoryItem{ID: uuid.New(), Name: name}
	if hwPort != "" {
		item.HardwarePort = &hwPort
	}
	return models.FormulaDetail{InventoryID: item.ID, RequiredQuantity: qty, Inventory: item}
}

func TestBuildMaterialPayload(t *testing.T) {
	payload, err := BuildMaterialPayload([]models.FormulaDetail{
		detail("Saline", 30, "P1"),
		detail("Dextrose", 20, "P2"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Saline:30:P1,Dextrose:20:P2", payload)
}

func TestBuildMaterialPayloadStripsDelimiters(t *testing.T) {
	payload, err := BuildMaterialPayload([]models.FormulaDetail{
		detail("NaCl: 0,9%", 10, "P3"),
	})
	require.NoError(t, err)
	assert.Equal(t, "NaCl 09%:10:P3", payload)
}

func TestBuildMaterialPayloadMissingPort(t *testing.T) {
	_, err := BuildMaterialPayload([]models.FormulaDetail{
		detail("Saline", 30, "P1"),
		detail("Heparin", 5, ""),
	})
	require.Error(t, err)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, pkgerrors.CodeConfiguration, appErr.Code())
	assert.Contains(t, appErr.Message(), "Heparin")
}

func TestTaskName(t *testing.T) {
	id := uuid.MustParse("11111111-2222-3333-4444-555555555555")
	assert.Equal(t, "Job-11111111-2222-3333-4444-555555555555-Dilution-Mix", TaskName(id))
}
