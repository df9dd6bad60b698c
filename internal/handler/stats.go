package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"marketboard-updater/internal/service"
	"marketboard-updater/pkg/apierror"
	"marketboard-updater/pkg/response"
)

// StatsHandler serves the cached pipeline statistics and accepts manual
// update requests.
type StatsHandler struct {
	stats   *service.StatisticsService
	builder *service.QueueBuilder
}

// NewStatsHandler creates a stats handler.
func NewStatsHandler(stats *service.StatisticsService, builder *service.QueueBuilder) *StatsHandler {
	return &StatsHandler{stats: stats, builder: builder}
}

// GetStats handles GET /api/v1/stats. Serves the cached snapshot only;
// computation happens on the estimator schedule, never per request.
func (h *StatsHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stats.GetStatistics(r.Context())
	if err != nil {
		response.Error(w, apierror.InternalError("failed to read statistics"))
		return
	}
	if snapshot == nil {
		response.Error(w, apierror.NotFound("no statistics snapshot available yet"))
		return
	}
	response.OK(w, snapshot)
}

// RequestUpdate handles POST /api/v1/items/{item}/servers/{server}/update.
// Flags the item for a one-shot update across the server's data center.
func (h *StatsHandler) RequestUpdate(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.Atoi(chi.URLParam(r, "item"))
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid item id"))
		return
	}
	serverID, err := strconv.Atoi(chi.URLParam(r, "server"))
	if err != nil {
		response.Error(w, apierror.BadRequest("invalid server id"))
		return
	}

	bucket := 0
	if v := r.URL.Query().Get("bucket"); v != "" {
		bucket, err = strconv.Atoi(v)
		if err != nil {
			response.Error(w, apierror.BadRequest("invalid bucket"))
			return
		}
	}

	if err := h.builder.RequestManualUpdate(r.Context(), itemID, serverID, bucket); err != nil {
		response.Error(w, apierror.BadRequest(err.Error()))
		return
	}
	response.NoContent(w)
}
