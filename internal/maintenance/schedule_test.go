package maintenance

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// fakeScheduleCollection is an in-memory ScheduleCollection.
type fakeScheduleCollection struct {
	states map[string]models.ScheduleState
}

func newFakeScheduleCollection() *fakeScheduleCollection {
	return &fakeScheduleCollection{states: make(map[string]models.ScheduleState)}
}

func (f *fakeScheduleCollection) UpsertSchedule(_ context.Context, state models.ScheduleState) error {
	f.states[state.VehicleID] = state
	return nil
}

func (f *fakeScheduleCollection) FindScheduleByVehicleID(_ context.Context, vehicleID string) (*models.ScheduleState, error) {
	state, ok := f.states[vehicleID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &state, nil
}

func newTestEngine() (*Engine, *fakeScheduleCollection) {
	coll := newFakeScheduleCollection()
	engine := NewEngine(coll)
	engine.now = func() time.Time { return testNow }
	return engine, coll
}

func TestRefreshProjectsAllTiers(t *testing.T) {
	engine, coll := newTestEngine()
	profile := BuildProfile(models.CategorySedan, 2023, testNow)

	state, err := engine.Refresh(context.Background(), "v1", profile, nil, floatPtr(20000))
	assert.NoError(t, err)

	assert.Equal(t, testNow.AddDate(0, 6, 0), *state.Oil.NextDueDate)
	assert.Equal(t, 25000.0, *state.Oil.NextDueMileage)
	assert.Equal(t, testNow.AddDate(0, 12, 0), *state.Minor.NextDueDate)
	assert.Equal(t, 35000.0, *state.Minor.NextDueMileage)
	assert.Equal(t, testNow.AddDate(0, 24, 0), *state.Major.NextDueDate)
	assert.Equal(t, 50000.0, *state.Major.NextDueMileage)

	stored, err := coll.FindScheduleByVehicleID(context.Background(), "v1")
	assert.NoError(t, err)
	assert.Equal(t, state.Profile, stored.Profile)
}

func TestRefreshWithoutMileageOmitsMileageProjections(t *testing.T) {
	engine, _ := newTestEngine()
	profile := BuildProfile(models.CategorySedan, 2023, testNow)

	state, err := engine.Refresh(context.Background(), "v1", profile, nil, nil)
	assert.NoError(t, err)
	assert.NotNil(t, state.Oil.NextDueDate, "date projection is always computable")
	assert.Nil(t, state.Oil.NextDueMileage)
	assert.Nil(t, state.Oil.LastServiceMileage)
}

func TestRefreshElectricSkipsOilTier(t *testing.T) {
	engine, _ := newTestEngine()
	profile := BuildProfile(models.CategoryElectric, 2023, testNow)

	state, err := engine.Refresh(context.Background(), "ev1", profile, nil, floatPtr(10000))
	assert.NoError(t, err)
	assert.Nil(t, state.Oil.NextDueDate)
	assert.Nil(t, state.Oil.NextDueMileage)
	assert.NotNil(t, state.Minor.NextDueDate)
}

func TestRefreshOverwritesExistingState(t *testing.T) {
	engine, coll := newTestEngine()
	profile := BuildProfile(models.CategorySedan, 2023, testNow)

	_, err := engine.Refresh(context.Background(), "v1", profile, nil, floatPtr(20000))
	assert.NoError(t, err)
	_, err = engine.Refresh(context.Background(), "v1", profile, nil, floatPtr(30000))
	assert.NoError(t, err)

	assert.Len(t, coll.states, 1)
	assert.Equal(t, 35000.0, *coll.states["v1"].Oil.NextDueMileage)
}

func TestAdvanceRecomputesOnlyThatTier(t *testing.T) {
	engine, _ := newTestEngine()
	profile := BuildProfile(models.CategorySedan, 2023, testNow)
	_, err := engine.Refresh(context.Background(), "v1", profile, nil, floatPtr(20000))
	assert.NoError(t, err)

	completed := testNow.AddDate(0, 11, 0)
	state, err := engine.Advance(context.Background(), "v1", models.TierMinor, completed, floatPtr(34000))
	assert.NoError(t, err)

	// advanced tier re-anchored
	assert.Equal(t, completed.AddDate(0, 12, 0), *state.Minor.NextDueDate)
	assert.Equal(t, 49000.0, *state.Minor.NextDueMileage)

	// major tier numerically unchanged
	assert.Equal(t, testNow.AddDate(0, 24, 0), *state.Major.NextDueDate)
	assert.Equal(t, 50000.0, *state.Major.NextDueMileage)
	// oil tier unchanged too
	assert.Equal(t, 25000.0, *state.Oil.NextDueMileage)
}

func TestAdvanceWithoutScheduleIsNotFound(t *testing.T) {
	engine, _ := newTestEngine()
	_, err := engine.Advance(context.Background(), "missing", models.TierOil, testNow, nil)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestAdvanceRejectsUnknownTier(t *testing.T) {
	engine, _ := newTestEngine()
	_, err := engine.Advance(context.Background(), "v1", "wheel_polish", testNow, nil)
	assert.ErrorIs(t, err, ErrUnknownTier)
}

func TestAdvanceUntrackedTierForElectric(t *testing.T) {
	engine, _ := newTestEngine()
	profile := BuildProfile(models.CategoryElectric, 2023, testNow)
	_, err := engine.Refresh(context.Background(), "ev1", profile, nil, nil)
	assert.NoError(t, err)

	_, err = engine.Advance(context.Background(), "ev1", models.TierOil, testNow, nil)
	assert.ErrorIs(t, err, ErrUnknownTier)
}
