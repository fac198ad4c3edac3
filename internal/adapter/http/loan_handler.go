package http

import (
	"net/http"
	"time"

	"apparatus-lending/internal/adapter/middleware"
	"apparatus-lending/internal/domain/borrow"
	"apparatus-lending/internal/usecase/loan"

	"github.com/labstack/echo/v4"
)

type LoanHandler struct{ ledger *loan.Ledger }

func NewLoanHandler(ledger *loan.Ledger) *LoanHandler { return &LoanHandler{ledger: ledger} }

type lineReq struct {
	TypeID   uint64 `json:"type_id"  validate:"required"`
	Quantity int    `json:"quantity" validate:"required,gte=1,lte=100"`
}

type submitReq struct {
	FormType           string    `json:"form_type"            validate:"required,oneof=borrow reservation"`
	BorrowDate         string    `json:"borrow_date"          validate:"required,datetime=2006-01-02"`
	ExpectedReturnDate string    `json:"expected_return_date" validate:"required,datetime=2006-01-02"`
	Items              []lineReq `json:"items"                validate:"required,min=1,dive"`
}

type remarksReq struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

type damageReq struct {
	UnitID  uint64 `json:"unit_id" validate:"required"`
	Remarks string `json:"remarks" validate:"max=1000"`
}

// Submit opens a form for the calling borrower.
func (h *LoanHandler) Submit(c echo.Context) error {
	var req submitReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	// formats were checked by the validator
	borrowDate, _ := time.Parse(dateLayout, req.BorrowDate)
	returnDate, _ := time.Parse(dateLayout, req.ExpectedReturnDate)

	in := loan.SubmitInput{
		BorrowerID:         middleware.Actor(c),
		FormType:           borrow.FormType(req.FormType),
		BorrowDate:         borrowDate,
		ExpectedReturnDate: returnDate,
	}
	for _, l := range req.Items {
		in.Lines = append(in.Lines, loan.LineInput{TypeID: l.TypeID, Quantity: l.Quantity})
	}
	dto, err := h.ledger.Submit(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// transition binds the common form-id + remarks request and runs op.
func (h *LoanHandler) transition(c echo.Context, op func(in loan.TransitionInput) (any, error)) error {
	formID, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	var req remarksReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	out, err := op(loan.TransitionInput{FormID: formID, ActorID: middleware.Actor(c), Remarks: req.Remarks})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *LoanHandler) Approve(c echo.Context) error {
	return h.transition(c, func(in loan.TransitionInput) (any, error) {
		return h.ledger.Approve(c.Request().Context(), in)
	})
}

func (h *LoanHandler) Reject(c echo.Context) error {
	return h.transition(c, func(in loan.TransitionInput) (any, error) {
		return h.ledger.Reject(c.Request().Context(), in)
	})
}

// MarkChecking is called by the borrower handing the items back.
func (h *LoanHandler) MarkChecking(c echo.Context) error {
	return h.transition(c, func(in loan.TransitionInput) (any, error) {
		return h.ledger.MarkChecking(c.Request().Context(), in)
	})
}

func (h *LoanHandler) ConfirmReturn(c echo.Context) error {
	return h.transition(c, func(in loan.TransitionInput) (any, error) {
		return h.ledger.ConfirmReturn(c.Request().Context(), in)
	})
}

func (h *LoanHandler) ConfirmLateReturn(c echo.Context) error {
	return h.transition(c, func(in loan.TransitionInput) (any, error) {
		return h.ledger.ConfirmLateReturn(c.Request().Context(), in)
	})
}

func (h *LoanHandler) MarkOverdue(c echo.Context) error {
	return h.transition(c, func(in loan.TransitionInput) (any, error) {
		return h.ledger.MarkOverdue(c.Request().Context(), in)
	})
}

func (h *LoanHandler) MarkDamaged(c echo.Context) error {
	formID, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	var req damageReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	dto, err := h.ledger.MarkDamaged(c.Request().Context(), loan.DamageInput{
		FormID: formID, UnitID: req.UnitID, ActorID: middleware.Actor(c), Remarks: req.Remarks,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

func (h *LoanHandler) RestoreUnit(c echo.Context) error {
	unitID, ok := pathID(c, "id")
	if !ok {
		return badPath(c, "id")
	}
	dto, err := h.ledger.RestoreDamagedUnit(c.Request().Context(), loan.RestoreInput{UnitID: unitID, ActorID: middleware.Actor(c)})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
