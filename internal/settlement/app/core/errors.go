package core

import (
	"errors"

	xerrors "wheres-my-tab/internal/xpkg/errors"
)

var (
	ErrHelp = xerrors.ErrHelp

	ErrDBConn = errors.New("db connection failure")

	ErrInvalidAmount          = errors.New("amount must be a positive finite number")
	ErrOverpayRejected        = errors.New("amount exceeds the remaining balance")
	ErrSessionAlreadyClosed   = errors.New("session is already closed")
	ErrDestinationOccupied    = errors.New("destination table already has an open session")
	ErrTableAlreadyOpen       = errors.New("table already has an open session")
	ErrConfirmationRequired   = errors.New("closing a session with zero total requires confirmation")
	ErrCoverAlreadyPaid       = errors.New("cover charge is already partly paid and cannot be removed")
	ErrItemAlreadyPaid        = errors.New("item quantity cannot go below its paid quantity")
	ErrItemNotInSession       = errors.New("item does not belong to this session")
	ErrSelectionExceedsRemain = errors.New("selected quantity exceeds what is left to pay")
	ErrEmptySelection         = errors.New("nothing selected")
	ErrTotalBelowPaid         = errors.New("total cannot drop below the amount already paid")

	ErrInvalidCovers        = errors.New("covers cannot be negative")
	ErrInvalidPaymentMethod = errors.New("payment method must be cash, card or online")
	ErrInvalidQuantity      = errors.New("quantity must be at least 1")
	ErrInvalidPrice         = errors.New("price cannot be negative")
	ErrFieldIsEmpty         = errors.New("field is empty")
	ErrReasonRequired       = errors.New("a reason is required for a total override")

	ErrSessionNotFound = errors.New("session not found")
	ErrTableNotFound   = errors.New("table not found")
	ErrOrderNotFound   = errors.New("order not found")
	ErrItemNotFound    = errors.New("order item not found")
	ErrPaymentNotFound = errors.New("payment not found")
)
