package api

import (
	"net/http"
)

func (h *Handler) WatcherStatus(w http.ResponseWriter, r *http.Request) {
	if h.watcher == nil {
		h.writeError(w, http.StatusNotImplemented, "watcher is not configured")
		return
	}
	h.writeJSON(w, http.StatusOK, h.watcher.Stats())
}

func (h *Handler) EnrollJob(w http.ResponseWriter, r *http.Request) {
	if h.watcher == nil {
		h.writeError(w, http.StatusNotImplemented, "watcher is not configured")
		return
	}
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := h.watcher.Enroll(jobID); err != nil {
		h.logger.Warnf("[EnrollJob] Enrollment of job %d failed: %v", jobID, err)
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"job_id": jobID, "watching": true})
}

func (h *Handler) WatchedJobStats(w http.ResponseWriter, r *http.Request) {
	if h.watcher == nil {
		h.writeError(w, http.StatusNotImplemented, "watcher is not configured")
		return
	}
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	stats, err := h.watcher.JobStats(jobID)
	if err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *Handler) StopWatching(w http.ResponseWriter, r *http.Request) {
	if h.watcher == nil {
		h.writeError(w, http.StatusNotImplemented, "watcher is not configured")
		return
	}
	jobID, err := jobIDFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid job id")
		return
	}

	if err := h.watcher.Stop(jobID); err != nil {
		h.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"job_id": jobID, "watching": false})
}
