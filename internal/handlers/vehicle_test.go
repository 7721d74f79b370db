package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/vin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// fakeStore backs every collection interface with in-memory maps.
type fakeStore struct {
	mu        sync.Mutex
	vehicles  map[string]models.Vehicle
	customers map[string]models.Customer
	records   []models.ServiceRecord
	schedules map[string]models.ScheduleState
	reminders map[string]models.Reminder
	invoices  map[string]models.Invoice
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vehicles:  make(map[string]models.Vehicle),
		customers: make(map[string]models.Customer),
		schedules: make(map[string]models.ScheduleState),
		reminders: make(map[string]models.Reminder),
		invoices:  make(map[string]models.Invoice),
	}
}

func (f *fakeStore) collections() *db.Collections {
	return &db.Collections{
		Vehicles:       f,
		Customers:      f,
		ServiceRecords: f,
		Schedules:      f,
		Reminders:      f,
		Invoices:       f,
	}
}

func (f *fakeStore) InsertVehicle(_ context.Context, vehicle models.Vehicle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	vehicle.ID = primitive.NewObjectID()
	f.vehicles[vehicle.ID.Hex()] = vehicle
	return vehicle.ID.Hex(), nil
}

func (f *fakeStore) FindVehicleByID(_ context.Context, id string) (*models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.vehicles[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &v, nil
}

func (f *fakeStore) FindActiveVehicles(_ context.Context) ([]models.Vehicle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Vehicle
	for _, v := range f.vehicles {
		if v.Status == "active" {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateVehicle(_ context.Context, id string, vehicle models.Vehicle) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.vehicles[id]; !ok {
		return db.ErrNotFound
	}
	f.vehicles[id] = vehicle
	return nil
}

func (f *fakeStore) DeleteVehicle(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vehicles, id)
	return nil
}

func (f *fakeStore) FindCustomerByID(_ context.Context, id string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &c, nil
}

func (f *fakeStore) InsertServiceRecord(_ context.Context, record models.ServiceRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeStore) FindServiceHistory(_ context.Context, vehicleID string) ([]models.ServiceRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.ServiceRecord
	for _, r := range f.records {
		if r.VehicleID == vehicleID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) UpsertSchedule(_ context.Context, state models.ScheduleState) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.schedules[state.VehicleID] = state
	return nil
}

func (f *fakeStore) FindScheduleByVehicleID(_ context.Context, vehicleID string) (*models.ScheduleState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.schedules[vehicleID]
	if !ok {
		return nil, db.ErrNotFound
	}
	return &s, nil
}

func (f *fakeStore) InsertReminder(_ context.Context, reminder models.Reminder) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	reminder.ID = primitive.NewObjectID()
	f.reminders[reminder.ID.Hex()] = reminder
	return reminder.ID.Hex(), nil
}

func (f *fakeStore) FindDuePending(_ context.Context, now time.Time, limit int64) ([]models.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Reminder
	for _, r := range f.reminders {
		if r.Status == models.ReminderPending && !r.ScheduledAt.After(now) && r.CreatedAt.Before(now) {
			out = append(out, r)
		}
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeStore) MarkReminderSent(_ context.Context, id string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return db.ErrNotFound
	}
	r.Status = models.ReminderSent
	r.SentAt = &sentAt
	f.reminders[id] = r
	return nil
}

func (f *fakeStore) MarkReminderFailed(_ context.Context, id string, errMsg string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reminders[id]
	if !ok {
		return db.ErrNotFound
	}
	r.Status = models.ReminderFailed
	r.Error = errMsg
	f.reminders[id] = r
	return nil
}

func (f *fakeStore) HasRecentReminder(_ context.Context, customerID, reminderType string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.reminders {
		if r.CustomerID == customerID && r.Type == reminderType && !r.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) FindSentPastDue(_ context.Context, now time.Time) ([]models.Invoice, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Invoice
	for _, inv := range f.invoices {
		if inv.Status == models.InvoiceSent && inv.DueDate.Before(now) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (f *fakeStore) MarkInvoiceOverdue(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.invoices[id]
	if !ok {
		return db.ErrNotFound
	}
	inv.Status = models.InvoiceOverdue
	f.invoices[id] = inv
	return nil
}

// decoderServer serves a canned vPIC-style decode response.
func decoderServer(t *testing.T, status int, result map[string]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		payload := map[string]interface{}{
			"Count":   1,
			"Message": "Results returned successfully",
			"Results": []map[string]string{result},
		}
		json.NewEncoder(w).Encode(payload)
	}))
}

func sedanDecodeResult() map[string]string {
	return map[string]string{
		"Make":            "HONDA",
		"Model":           "Accord",
		"ModelYear":       "2021",
		"FuelTypePrimary": "Gasoline",
		"VehicleType":     "PASSENGER CAR",
		"BodyClass":       "Sedan/Saloon",
		"ErrorCode":       "0",
	}
}

func newVehicleHandler(store *fakeStore, decoderURL string) *VehicleHandler {
	decoder := vin.NewDecoderWithClient(decoderURL, http.DefaultClient)
	engine := maintenance.NewEngine(store)
	return NewVehicleHandler(decoder, engine, store.collections())
}

func TestRegisterVehicle(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)

	body := []byte(`{"customer_id":"cust-1","vin":"1HGCM82633A004352","current_mileage":22400}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.RegisterVehicle(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID       string          `json:"id"`
		Category models.Category `json:"category"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, models.CategorySedan, resp.Category)

	stored, err := store.FindVehicleByID(context.Background(), resp.ID)
	assert.NoError(t, err)
	assert.Equal(t, "cust-1", stored.CustomerID)
	assert.Equal(t, "active", stored.Status)

	state, err := store.FindScheduleByVehicleID(context.Background(), resp.ID)
	assert.NoError(t, err)
	assert.NotNil(t, state.Oil.NextDueDate)
	assert.NotNil(t, state.Oil.NextDueMileage)
}

func TestRegisterVehicleInvalidVIN(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)

	body := []byte(`{"customer_id":"cust-1","vin":"TOO-SHORT"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.RegisterVehicle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.vehicles)
}

func TestRegisterVehicleNoDecodeData(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, map[string]string{
		"ErrorCode": "11",
		"ErrorText": "Incorrect model year",
	})
	defer server.Close()
	h := newVehicleHandler(store, server.URL)

	body := []byte(`{"customer_id":"cust-1","vin":"1HGCM82633A004352"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.RegisterVehicle(rec, req)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestRegisterVehicleLookupFailure(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusInternalServerError, nil)
	defer server.Close()
	h := newVehicleHandler(store, server.URL)

	body := []byte(`{"customer_id":"cust-1","vin":"1HGCM82633A004352"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.RegisterVehicle(rec, req)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

// registerTestVehicle seeds a sedan with a schedule through the real handler.
func registerTestVehicle(t *testing.T, h *VehicleHandler, mileage float64) string {
	t.Helper()
	body, _ := json.Marshal(map[string]interface{}{
		"customer_id":     "cust-1",
		"vin":             "1HGCM82633A004352",
		"current_mileage": mileage,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.RegisterVehicle(rec, req)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		ID string `json:"id"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.ID
}

func TestCompleteServiceAdvancesTier(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)
	id := registerTestVehicle(t, h, 22400)

	before, err := store.FindScheduleByVehicleID(context.Background(), id)
	assert.NoError(t, err)
	minorBefore := *before.Minor.NextDueDate

	body := []byte(`{"service_type":"Oil Change","tier":"oil_change","mileage":23000,"cost":79.99,"technician":"M. Diaz"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/"+id+"/services", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.VehicleSubresource(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, store.records, 1)
	assert.Equal(t, "Oil Change", store.records[0].ServiceType)

	after, err := store.FindScheduleByVehicleID(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, 23000.0, *after.Oil.LastServiceMileage)
	assert.Equal(t, minorBefore, *after.Minor.NextDueDate, "other tiers must stay untouched")

	vehicle, err := store.FindVehicleByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, 23000.0, *vehicle.CurrentMileage)
}

func TestCompleteServiceRejectsUnknownTier(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)
	id := registerTestVehicle(t, h, 22400)

	body := []byte(`{"service_type":"Oil Change","tier":"mega_service","mileage":23000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/"+id+"/services", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.VehicleSubresource(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, store.records)
}

func TestCompleteServiceUnknownVehicle(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)

	body := []byte(`{"service_type":"Oil Change","mileage":23000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/nope/services", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.VehicleSubresource(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCompleteServiceKeepsHigherOdometer(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)
	id := registerTestVehicle(t, h, 22400)

	// A backfilled record with an older, lower reading.
	body := []byte(`{"service_type":"Tire Rotation","mileage":18000}`)
	req := httptest.NewRequest(http.MethodPost, "/api/vehicles/"+id+"/services", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	h.VehicleSubresource(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	vehicle, err := store.FindVehicleByID(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, 22400.0, *vehicle.CurrentMileage)
}

func TestGetScheduleReturnsProjections(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)
	id := registerTestVehicle(t, h, 22400)

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/"+id+"/schedule", nil)
	rec := httptest.NewRecorder()
	h.VehicleSubresource(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		VehicleID   string                  `json:"vehicle_id"`
		Projections []models.TierProjection `json:"projections"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, id, resp.VehicleID)
	assert.Len(t, resp.Projections, 3)
}

func TestGetScheduleMissing(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/nope/schedule", nil)
	rec := httptest.NewRecorder()
	h.VehicleSubresource(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetRecommendations(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)
	id := registerTestVehicle(t, h, 22400)

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/"+id+"/recommendations", nil)
	rec := httptest.NewRecorder()
	h.VehicleSubresource(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Recommendations []models.ServiceRecommendation `json:"recommendations"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Recommendations)
}

func TestVehicleSubresourceUnknownPath(t *testing.T) {
	store := newFakeStore()
	server := decoderServer(t, http.StatusOK, sedanDecodeResult())
	defer server.Close()
	h := newVehicleHandler(store, server.URL)

	req := httptest.NewRequest(http.MethodGet, "/api/vehicles/abc/telemetry", nil)
	rec := httptest.NewRecorder()
	h.VehicleSubresource(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
