package handle

import (
	"net/http"

	"wheres-my-tab/internal/settlement/app/core"
)

func Health(store core.IStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext(r)
		defer cancel()

		if err := store.IsAlive(ctx); err != nil {
			jsonError(w, http.StatusServiceUnavailable, core.ErrDBConn)
			return
		}
		jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
