package watchmode

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hostpatch/hostpatch/internal/core/mediaguard"
	"github.com/hostpatch/hostpatch/internal/opt/jobq"
	"github.com/hostpatch/hostpatch/internal/opt/shared/x/httpx"
)

type WatchController struct {
	Service Service
}

func NewWatchController(s Service) *WatchController {
	return &WatchController{Service: s}
}

func (c *WatchController) StatusHandler(w http.ResponseWriter, _ *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, c.Service.Status())
}

func (c *WatchController) BriefConfigHandler(w http.ResponseWriter, r *http.Request) {
	httpx.WriteJSON(w, http.StatusOK, c.Service.BriefConfig(r.Context()))
}

func (c *WatchController) RunWaiterHandler(w http.ResponseWriter, _ *http.Request) {
	if err := c.Service.RunWaiter(); err != nil {
		if errors.Is(err, jobq.ErrJobQueueFull) {
			httpx.WriteJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
			return
		}
		httpx.WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "scheduled"})
}

func (c *WatchController) InitHandler(w http.ResponseWriter, _ *http.Request) {
	c.Service.TriggerInit()
	httpx.WriteJSON(w, http.StatusAccepted, map[string]string{"status": "scheduled"})
}

type sinkRequest struct {
	DeviceID string `json:"device_id"`
}

func (c *WatchController) SetSinkHandler(w http.ResponseWriter, r *http.Request) {
	var req sinkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "expect json body with device_id", http.StatusBadRequest)
		return
	}
	if err := c.Service.SetSink(r.Context(), req.DeviceID); err != nil {
		httpx.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *WatchController) DisplayMediaHandler(w http.ResponseWriter, r *http.Request) {
	c.mediaHandler(w, r, c.Service.GetDisplayMedia)
}

func (c *WatchController) UserMediaHandler(w http.ResponseWriter, r *http.Request) {
	c.mediaHandler(w, r, c.Service.GetUserMedia)
}

func (c *WatchController) mediaHandler(
	w http.ResponseWriter,
	r *http.Request,
	call func(context.Context, mediaguard.Constraints) (mediaguard.Stream, error),
) {
	var constraints mediaguard.Constraints
	if err := json.NewDecoder(r.Body).Decode(&constraints); err != nil {
		http.Error(w, "expect json body with constraints", http.StatusBadRequest)
		return
	}
	stream, err := call(r.Context(), constraints)
	if err != nil {
		httpx.WriteJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, stream)
}
