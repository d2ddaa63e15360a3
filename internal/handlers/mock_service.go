package handlers

import (
	"context"
	"net/http"
	"time"

	"hvacctl/internal/billing"
	"hvacctl/internal/models"
	"hvacctl/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockRoom struct {
	powerOnErr      error
	powerOffErr     error
	setFanSpeedErr  error
	setTargetErr    error
	checkoutErr     error
	state           models.RoomState
	stateErr        error
	allStates       []models.RoomState

	lastRoomID      string
	lastFanSpeed    models.FanSpeed
	lastMode        models.Mode
	lastTarget      float64

	powerOnCalled  int
	powerOffCalled int
}

func (m *mockRoom) PowerOn(ctx context.Context, roomID string) error {
	m.powerOnCalled++
	m.lastRoomID = roomID
	return m.powerOnErr
}
func (m *mockRoom) PowerOff(ctx context.Context, roomID string) error {
	m.powerOffCalled++
	m.lastRoomID = roomID
	return m.powerOffErr
}
func (m *mockRoom) SetFanSpeed(ctx context.Context, roomID string, speed models.FanSpeed) error {
	m.lastRoomID = roomID
	m.lastFanSpeed = speed
	return m.setFanSpeedErr
}
func (m *mockRoom) SetTarget(ctx context.Context, roomID string, mode models.Mode, target float64) error {
	m.lastRoomID = roomID
	m.lastMode = mode
	m.lastTarget = target
	return m.setTargetErr
}
func (m *mockRoom) CheckoutReset(ctx context.Context, roomID string) error {
	m.lastRoomID = roomID
	return m.checkoutErr
}
func (m *mockRoom) GetState(roomID string) (models.RoomState, error) {
	return m.state, m.stateErr
}
func (m *mockRoom) GetAllStates() []models.RoomState {
	return m.allStates
}

type mockBilling struct {
	snapshot billing.Snapshot
	ok       bool
}

func (m *mockBilling) Current(roomID string, nightsStayed int) (billing.Snapshot, bool) {
	return m.snapshot, m.ok
}

type mockEventLog struct {
	resp       []models.Event
	err        error
	lastFrom   time.Time
	lastTo     time.Time
	lastRoomID string
	lastType   string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.Event, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastRoomID = f.RoomID
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
