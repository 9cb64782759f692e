package handlers

import (
	"net/http"
	"time"

	"timeTracker/internal/handlers/dto"
	"timeTracker/internal/logger"
	"timeTracker/internal/middleware"

	"go.uber.org/zap"
)

type HeatmapHandler struct {
	HeatmapService HeatmapService
}

func NewHeatmapHandler(heatmapService HeatmapService) HeatmapHandler {
	return HeatmapHandler{
		HeatmapService: heatmapService,
	}
}

func (h *HeatmapHandler) GetHeatmap(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	logger.HttpRequestInfo(r, "HTTP_IN:")

	var from, to *time.Time
	if raw := r.URL.Query().Get("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			responseWithError(w, http.StatusBadRequest, "неверное значение from: "+err.Error())
			return
		}
		from = &t
	}
	if raw := r.URL.Query().Get("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			responseWithError(w, http.StatusBadRequest, "неверное значение to: "+err.Error())
			return
		}
		to = &t
	}

	days, err := h.HeatmapService.Range(r.Context(), middleware.GetUserID(r.Context()), from, to)
	if err != nil {
		if handleBusinessError(w, err, "не удалось получить тепловую карту") {
			return
		}
		logger.Error("HTTP: Ошибка Service", err,
			zap.String("operation", "get_heatmap"))

		responseWithError(w, http.StatusInternalServerError, "внутренняя ошибка сервера")
		return
	}

	logger.Info("HTTP_OUT: Тепловая карта получена",
		zap.Int("days", len(days)),
		zap.Duration("ms", time.Since(start)),
		zap.Int("http_status", http.StatusOK))

	responseWithJSON(w, http.StatusOK, toPayload("heatmap", dto.FromHeatmap(days)))
}
