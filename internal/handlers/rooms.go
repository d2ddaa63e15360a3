package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"hvacctl/internal/models"

	"github.com/gin-gonic/gin"
)

var errUnknownRoomForBill = errors.New("unknown room")

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK         = "ok"
	statusPoweredOn  = "powered_on"
	statusPoweredOff = "powered_off"
	statusFanSet     = "fan_speed_set"
	statusTargetSet  = "target_set"
	statusCheckedOut = "checked_out"

	errPowerOn     = "failed to power on room"
	errPowerOff    = "failed to power off room"
	errFanSpeed    = "failed to set fan speed"
	errTarget      = "failed to set target"
	errCheckout    = "failed to reset room"
	errGetState    = "failed to load room state"
	errGetAll      = "failed to load rooms"
	errGetBill     = "failed to load bill"
	errInvalidBody = "invalid body: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondWithStatusAndState responds with a status and the room's current
// state if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, roomID, status string, extra gin.H) {
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	if st, err := h.services.GetState(roomID); err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

type fanSpeedRequest struct {
	FanSpeed string `json:"fan_speed" binding:"required"` // LOW | MID | HIGH
}

type targetRequest struct {
	Mode       string  `json:"mode" binding:"required"` // COOL | HEAT
	TargetTemp float64 `json:"target_temp" binding:"required"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Power on a room's unit
// @Tags         rooms
// @Produce      json
// @Param        room_id  path  string  true  "Room ID"
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/rooms/{room_id}/power-on [post]
// @Security     BearerAuth
func (h *Handler) powerOn(c *gin.Context) {
	roomID := c.Param("room_id")
	ctx := c.Request.Context()
	if err := h.services.PowerOn(ctx, roomID); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errPowerOn, "room_power_on_failed", err, "room_id", roomID)
		return
	}
	h.respondWithStatusAndState(c, roomID, statusPoweredOn, gin.H{})
}

// @Summary      Power off a room's unit
// @Tags         rooms
// @Produce      json
// @Param        room_id  path  string  true  "Room ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/rooms/{room_id}/power-off [post]
// @Security     BearerAuth
func (h *Handler) powerOff(c *gin.Context) {
	roomID := c.Param("room_id")
	ctx := c.Request.Context()
	if err := h.services.PowerOff(ctx, roomID); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errPowerOff, "room_power_off_failed", err, "room_id", roomID)
		return
	}
	h.respondWithStatusAndState(c, roomID, statusPoweredOff, gin.H{})
}

// @Summary      Set fan speed
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        room_id  path  string  true  "Room ID"
// @Param        body  body   fanSpeedRequest  true  "Fan speed payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/rooms/{room_id}/fan-speed [post]
// @Security     BearerAuth
func (h *Handler) setFanSpeed(c *gin.Context) {
	roomID := c.Param("room_id")
	var req fanSpeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.SetFanSpeed(ctx, roomID, models.FanSpeed(req.FanSpeed)); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errFanSpeed, "room_set_fan_speed_failed", err, "room_id", roomID)
		return
	}
	h.respondWithStatusAndState(c, roomID, statusFanSet, gin.H{"fan_speed": req.FanSpeed})
}

// @Summary      Set target temperature and mode
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        room_id  path  string  true  "Room ID"
// @Param        body  body   targetRequest  true  "Target payload"
// @Success      200   {object}  map[string]interface{}
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /api/v1/rooms/{room_id}/target [post]
// @Security     BearerAuth
func (h *Handler) setTarget(c *gin.Context) {
	roomID := c.Param("room_id")
	var req targetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBody + err.Error()})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.SetTarget(ctx, roomID, models.Mode(req.Mode), req.TargetTemp); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errTarget, "room_set_target_failed", err, "room_id", roomID)
		return
	}
	h.respondWithStatusAndState(c, roomID, statusTargetSet, gin.H{"mode": req.Mode, "target_temp": req.TargetTemp})
}

// @Summary      Reset a room at checkout
// @Tags         rooms
// @Produce      json
// @Param        room_id  path  string  true  "Room ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/rooms/{room_id}/checkout [post]
// @Security     BearerAuth
func (h *Handler) checkout(c *gin.Context) {
	roomID := c.Param("room_id")
	ctx := c.Request.Context()
	if err := h.services.CheckoutReset(ctx, roomID); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errCheckout, "room_checkout_failed", err, "room_id", roomID)
		return
	}
	h.respondWithStatusAndState(c, roomID, statusCheckedOut, gin.H{})
}

// @Summary      Get a room's state
// @Tags         rooms
// @Produce      json
// @Param        room_id  path  string  true  "Room ID"
// @Success      200  {object}  models.RoomState
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{room_id} [get]
// @Security     BearerAuth
func (h *Handler) getRoom(c *gin.Context) {
	roomID := c.Param("room_id")
	st, err := h.services.GetState(roomID)
	if err != nil {
		h.logAndJSONError(c, http.StatusNotFound, errGetState, "room_get_state_failed", err, "room_id", roomID)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Get all rooms' state
// @Tags         rooms
// @Produce      json
// @Success      200  {array}  models.RoomState
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/rooms [get]
// @Security     BearerAuth
func (h *Handler) getAllRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.services.GetAllStates())
}

// @Summary      Get a room's current bill breakdown
// @Tags         rooms
// @Produce      json
// @Param        room_id  path  string  true  "Room ID"
// @Param        nights   query  int    false  "Nights stayed (for accommodation fee)"
// @Success      200  {object}  billing.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/rooms/{room_id}/bill [get]
// @Security     BearerAuth
func (h *Handler) getBill(c *gin.Context) {
	roomID := c.Param("room_id")
	nights := 0
	if s := c.Query("nights"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n >= 0 {
			nights = n
		}
	}
	snap, ok := h.services.Current(roomID, nights)
	if !ok {
		h.logAndJSONError(c, http.StatusNotFound, errGetBill, "room_get_bill_failed", errUnknownRoomForBill, "room_id", roomID)
		return
	}
	c.JSON(http.StatusOK, snap)
}
