package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestListing(t *testing.T, events ...Event) (*Listing, *EventStore) {
	t.Helper()

	store := NewEventStore(NewMemorySlots(), "")
	require.NoError(t, store.Save(context.Background(), events))

	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)

	return NewListing(store, WithClock(func() time.Time { return now }), WithLocation(time.UTC)), store
}

func TestHandlers_GetEvents(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	zeta := Event{Name: "Z", Type: "Fair", Date: "2030-03-01", Time: "10:00", Address: "Zeta Ave"}
	alpha := Event{Name: "A", Type: "Fair", Date: "2030-03-02", Time: "11:00", Address: "Alpha Way"}
	expired := Event{Name: "Old", Type: "Fair", Date: "2020-01-01", Time: "10:00", Address: "B St"}

	tests := []struct {
		name           string
		query          string
		stored         []Event
		expectedStatus int
		expectedPage   *Page
		expectedStored []Event
	}{
		{
			name:           "unsorted",
			stored:         []Event{zeta, expired, alpha},
			expectedStatus: http.StatusOK,
			expectedPage: &Page{
				Order:  OrderUnsorted,
				Lines:  Render([]Event{zeta, alpha}),
				Events: []Event{zeta, alpha},
			},
			expectedStored: []Event{zeta, alpha},
		},
		{
			name:           "explicit none",
			query:          "?sort=none",
			stored:         []Event{zeta, alpha},
			expectedStatus: http.StatusOK,
			expectedPage: &Page{
				Order:  OrderUnsorted,
				Lines:  Render([]Event{zeta, alpha}),
				Events: []Event{zeta, alpha},
			},
			expectedStored: []Event{zeta, alpha},
		},
		{
			name:           "sorted by address",
			query:          "?sort=address",
			stored:         []Event{zeta, alpha},
			expectedStatus: http.StatusOK,
			expectedPage: &Page{
				Order:  OrderByAddress,
				Lines:  Render([]Event{alpha, zeta}),
				Events: []Event{alpha, zeta},
			},
			expectedStored: []Event{zeta, alpha},
		},
		{
			name:           "nothing upcoming",
			stored:         []Event{expired},
			expectedStatus: http.StatusOK,
			expectedPage: &Page{
				Order:  OrderUnsorted,
				Lines:  []string{NoUpcomingEvents},
				Events: []Event{},
			},
			expectedStored: []Event{},
		},
		{
			name:           "unknown sort",
			query:          "?sort=name",
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			listing, store := newTestListing(t, tt.stored...)
			h := NewHandlers(listing)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/events"+tt.query, nil)

			h.GetEvents(c)

			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedPage != nil {
				var page Page
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
				assert.Equal(t, *tt.expectedPage, page)
				assert.Equal(t, tt.expectedStored, store.Load(context.Background()))
			}
		})
	}
}

func TestHandlers_GetEvents_SaveFailure(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	slots := new(MockSlotStore)
	slots.On("Get", mock.Anything, DefaultSlotKey).Return(nil, ErrSlotNotFound)
	slots.On("Put", mock.Anything, DefaultSlotKey, mock.Anything).Return(errors.New("db error"))

	h := NewHandlers(NewListing(NewEventStore(slots, "")))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)

	h.GetEvents(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	slots.AssertExpectations(t)
}

func TestHandlers_GetEvents_ReadFailure(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	slots := new(MockSlotStore)
	slots.On("Get", mock.Anything, DefaultSlotKey).Return(nil, errors.New("connection reset"))

	h := NewHandlers(NewListing(NewEventStore(slots, "")))
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/events", nil)

	h.GetEvents(c)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	slots.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything)
}

func TestHandlers_PostEvents(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	valid := Event{Name: "Gala", Type: "Music", Date: "2999-01-01", Time: "10:00", Address: "A St"}

	tests := []struct {
		name           string
		body           any
		putErr         error
		expectedStatus int
	}{
		{
			name:           "success",
			body:           valid,
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "validation failure",
			body:           Event{Name: ""},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "invalid json",
			body:           "invalid",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "store failure",
			body:           valid,
			putErr:         errors.New("db error"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			slots := new(MockSlotStore)
			if tt.name == "success" || tt.name == "store failure" {
				slots.On("Get", mock.Anything, DefaultSlotKey).Return(nil, ErrSlotNotFound)
				slots.On("Put", mock.Anything, DefaultSlotKey, mock.Anything).Return(tt.putErr)
			}

			h := NewHandlers(NewListing(NewEventStore(slots, "")))
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			var jsonBody []byte
			if s, ok := tt.body.(string); ok {
				jsonBody = []byte(s)
			} else {
				jsonBody, _ = json.Marshal(tt.body)
			}

			c.Request = httptest.NewRequest(http.MethodPost, "/events", bytes.NewBuffer(jsonBody))

			h.PostEvents(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			slots.AssertExpectations(t)
		})
	}
}

func TestHandlers_PruneEvents(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	listing, _ := newTestListing(t,
		Event{Name: "old", Date: "2020-01-01", Time: "10:00"},
		Event{Name: "new", Date: "2999-01-01", Time: "10:00"},
	)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/events/prune", nil)

	NewHandlers(listing).PruneEvents(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"removed":1,"remaining":1}`, w.Body.String())
}

func TestHandlers_GetCalendar(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	listing, _ := newTestListing(t,
		Event{Name: "Gala", Type: "Music", Date: "2030-02-01", Time: "20:00", Address: "A St"},
		Event{Name: "Gone", Type: "Music", Date: "2020-02-01", Time: "20:00", Address: "B St"},
	)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/events/calendar.ics", nil)

	NewHandlers(listing).GetCalendar(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/calendar"))
	assert.Contains(t, w.Body.String(), "SUMMARY:Gala")
	assert.NotContains(t, w.Body.String(), "Gone")
}

func TestRegisterRoutes(t *testing.T) {
	t.Parallel()
	gin.SetMode(gin.TestMode)

	listing, store := newTestListing(t)

	denyWrites := func(c *gin.Context) { c.AbortWithStatus(http.StatusUnauthorized) }

	router := gin.New()
	RegisterRoutes(router, NewHandlers(listing), denyWrites)

	tests := []struct {
		method         string
		path           string
		expectedStatus int
	}{
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/events", http.StatusOK},
		{http.MethodGet, "/events/calendar.ics", http.StatusOK},
		{http.MethodPost, "/events", http.StatusUnauthorized},
		{http.MethodPost, "/events/prune", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, strings.NewReader(`{}`)))
		assert.Equal(t, tt.expectedStatus, w.Code, "%s %s", tt.method, tt.path)
	}

	assert.Empty(t, store.Load(context.Background()))
}
