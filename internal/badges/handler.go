package badges

import (
	"net/http"

	"github.com/2beens/healthify/internal/telemetry/tracing"
	"github.com/2beens/healthify/pkg"

	log "github.com/sirupsen/logrus"
)

type Handler struct {
	catalog catalogSource
}

func NewHandler(catalog catalogSource) *Handler {
	return &Handler{
		catalog: catalog,
	}
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.badges.list")
	defer span.End()

	catalog, err := h.catalog.List(ctx)
	if err != nil {
		log.Errorf("list badges: %s", err)
		if pkg.IsTransientDBError(err) {
			pkg.WriteErrorResponse(w, http.StatusServiceUnavailable, pkg.ErrCodeTransient, "badges unavailable, try again")
			return
		}
		pkg.WriteErrorResponse(w, http.StatusInternalServerError, pkg.ErrCodeInternal, "error fetching badges")
		return
	}

	pkg.WriteJSONResponse(w, http.StatusOK, catalog)
}
