package handle

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"wheres-my-tab/internal/settlement/app/core"

	"github.com/google/uuid"
)

var (
	errParseJSON = errors.New("failed to parse JSON")
	errInternal  = errors.New("internal error")
)

// jsonResponse writes data as JSON with the given status code.
func jsonResponse(w http.ResponseWriter, code int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

// jsonError writes an error response as JSON with the specified HTTP status code.
func jsonError(w http.ResponseWriter, code int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"error": err.Error(),
		"code":  code,
	})
}

var (
	badRequest = []error{
		core.ErrInvalidAmount,
		core.ErrInvalidCovers,
		core.ErrInvalidPaymentMethod,
		core.ErrInvalidQuantity,
		core.ErrInvalidPrice,
		core.ErrFieldIsEmpty,
		core.ErrReasonRequired,
		core.ErrEmptySelection,
		core.ErrItemNotInSession,
	}
	notFound = []error{
		core.ErrSessionNotFound,
		core.ErrTableNotFound,
		core.ErrOrderNotFound,
		core.ErrItemNotFound,
		core.ErrPaymentNotFound,
	}
	conflict = []error{
		core.ErrOverpayRejected,
		core.ErrSessionAlreadyClosed,
		core.ErrDestinationOccupied,
		core.ErrTableAlreadyOpen,
		core.ErrCoverAlreadyPaid,
		core.ErrItemAlreadyPaid,
		core.ErrSelectionExceedsRemain,
		core.ErrConfirmationRequired,
		core.ErrTotalBelowPaid,
	}
)

func statusOf(err error) int {
	for _, group := range []struct {
		code int
		errs []error
	}{
		{http.StatusBadRequest, badRequest},
		{http.StatusNotFound, notFound},
		{http.StatusConflict, conflict},
		{http.StatusServiceUnavailable, []error{core.ErrDBConn}},
	} {
		for _, target := range group.errs {
			if errors.Is(err, target) {
				return group.code
			}
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// writeError maps a service error to its status. Unknown errors are not
// echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	code := statusOf(err)
	if code == http.StatusInternalServerError {
		err = errInternal
	}
	jsonError(w, code, err)
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %v", errParseJSON, err)
	}
	return nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %q", name, r.PathValue(name))
	}
	return id, nil
}

func requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), core.WaitTime*time.Second)
}
