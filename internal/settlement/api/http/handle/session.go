package handle

import (
	"net/http"

	"wheres-my-tab/internal/settlement/app/services"
	"wheres-my-tab/internal/settlement/domain/dto"
	"wheres-my-tab/internal/xpkg/logger"
)

type SessionHandler struct {
	sessionService *services.SessionService
	mylog          logger.Logger
}

func NewSessionHandler(sessionService *services.SessionService, mylog logger.Logger) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		mylog:          mylog,
	}
}

func (sh *SessionHandler) Tables() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext(r)
		defer cancel()

		tables, err := sh.sessionService.Tables(ctx)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, tables)
	}
}

func (sh *SessionHandler) Open() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tableID, err := pathUUID(r, "table_id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.OpenSessionRequest
		if err := decodeJSON(r, &req); err != nil {
			sh.mylog.Action("parse_failed").Error("Failed to parse open request", err)
			jsonError(w, http.StatusBadRequest, err)
			return
		}
		req.TableID = tableID

		ctx, cancel := requestContext(r)
		defer cancel()

		session, err := sh.sessionService.Open(ctx, req)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusCreated, session)
	}
}

func (sh *SessionHandler) List() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := requestContext(r)
		defer cancel()

		sessions, err := sh.sessionService.List(ctx, r.URL.Query().Get("status"))
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, sessions)
	}
}

func (sh *SessionHandler) Get() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		view, err := sh.sessionService.Get(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, view)
	}
}

func (sh *SessionHandler) History() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		entries, err := sh.sessionService.History(ctx, id)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, entries)
	}
}

func (sh *SessionHandler) SetCover() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.CoverRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		view, err := sh.sessionService.SetCoverApplied(ctx, id, req.Include)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, view)
	}
}

func (sh *SessionHandler) Close() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.CloseSessionRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		session, err := sh.sessionService.Close(ctx, id, req)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, session)
	}
}

func (sh *SessionHandler) Transfer() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.TransferRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		session, err := sh.sessionService.Transfer(ctx, id, req.TableID)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, session)
	}
}

func (sh *SessionHandler) OverrideTotal() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		var req dto.OverrideTotalRequest
		if err := decodeJSON(r, &req); err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		session, err := sh.sessionService.OverrideTotal(ctx, id, req)
		if err != nil {
			writeError(w, err)
			return
		}
		jsonResponse(w, http.StatusOK, session)
	}
}

func (sh *SessionHandler) Delete() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathUUID(r, "id")
		if err != nil {
			jsonError(w, http.StatusBadRequest, err)
			return
		}

		ctx, cancel := requestContext(r)
		defer cancel()

		if err := sh.sessionService.Delete(ctx, id); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
