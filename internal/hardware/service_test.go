package hardware

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	pkgerrors "github.com/thedilution/dilution-backend/pkg/errors"
)

func newHardwareTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:hardware_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Hardware{}, &models.HardwareLog{}))
	return db
}

func newHardwareService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	return svc
}

func TestCreateAndGetHardware(t *testing.T) {
	svc := newHardwareService(t, newHardwareTestDB(t))
	ctx := context.Background()

	machine, err := svc.Create(ctx, CreateInput{Name: "Mixer A", Description: "bench 3"})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, machine.ID)

	got, err := svc.Get(ctx, machine.ID)
	require.NoError(t, err)
	assert.Equal(t, "Mixer A", got.Name)
	assert.False(t, got.Online)
}

func TestCreateHardwareRequiresName(t *testing.T) {
	svc := newHardwareService(t, newHardwareTestDB(t))

	_, err := svc.Create(context.Background(), CreateInput{Name: "   "})
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestRecordLogStampsServerSide(t *testing.T) {
	db := newHardwareTestDB(t)
	svc := newHardwareService(t, db)
	ctx := context.Background()

	machine, err := svc.Create(ctx, CreateInput{Name: "Mixer A"})
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	entry, err := svc.RecordLog(ctx, LogInput{
		HardwareID:  machine.ID,
		SensorType:  "temperature",
		SensorValue: 21.4,
		UnitMeasure: "C",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, machine.ID, entry.HardwareID)
	assert.False(t, entry.AnomalyFlag)
	assert.True(t, entry.Timestamp.After(before))
}

func TestRecordLogValidation(t *testing.T) {
	db := newHardwareTestDB(t)
	svc := newHardwareService(t, db)
	ctx := context.Background()

	machine, err := svc.Create(ctx, CreateInput{Name: "Mixer A"})
	require.NoError(t, err)

	cases := []struct {
		name  string
		input LogInput
		code  pkgerrors.Code
	}{
		{"missing hardware id", LogInput{SensorType: "temperature", UnitMeasure: "C"}, pkgerrors.CodeValidation},
		{"missing sensor type", LogInput{HardwareID: machine.ID, UnitMeasure: "C"}, pkgerrors.CodeValidation},
		{"missing unit", LogInput{HardwareID: machine.ID, SensorType: "temperature"}, pkgerrors.CodeValidation},
		{"unknown machine", LogInput{HardwareID: uuid.New(), SensorType: "temperature", UnitMeasure: "C"}, pkgerrors.CodeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RecordLog(ctx, tc.input)
			require.Error(t, err)
			typed := pkgerrors.As(err)
			require.NotNil(t, typed)
			assert.Equal(t, tc.code, typed.Code())
		})
	}
}

func TestListLogsForHardwareFiltersByMachine(t *testing.T) {
	db := newHardwareTestDB(t)
	svc := newHardwareService(t, db)
	ctx := context.Background()

	mixer, err := svc.Create(ctx, CreateInput{Name: "Mixer A"})
	require.NoError(t, err)
	shaker, err := svc.Create(ctx, CreateInput{Name: "Shaker B"})
	require.NoError(t, err)

	for _, input := range []LogInput{
		{HardwareID: mixer.ID, SensorType: "temperature", SensorValue: 21.4, UnitMeasure: "C"},
		{HardwareID: mixer.ID, SensorType: "vibration", SensorValue: 0.8, UnitMeasure: "mm/s", AnomalyFlag: true},
		{HardwareID: shaker.ID, SensorType: "temperature", SensorValue: 23.1, UnitMeasure: "C"},
	} {
		_, err := svc.RecordLog(ctx, input)
		require.NoError(t, err)
	}

	mixerLogs, err := svc.ListLogsForHardware(ctx, mixer.ID)
	require.NoError(t, err)
	require.Len(t, mixerLogs, 2)
	for _, entry := range mixerLogs {
		assert.Equal(t, mixer.ID, entry.HardwareID)
	}

	all, err := svc.ListLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestListLogsForUnknownHardware(t *testing.T) {
	svc := newHardwareService(t, newHardwareTestDB(t))

	_, err := svc.ListLogsForHardware(context.Background(), uuid.New())
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}
