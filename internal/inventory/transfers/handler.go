package transfers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"TSUMUGI-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// POST /transfers (確認済みコマンドの送信)
	r.POST("/transfers", h.CreateTransfer)
	// GET /transfers (履歴・検索)
	r.GET("/transfers", h.ListTransfers)
	// GET /transfers/:transfer_key (ID or ULID)
	r.GET("/transfers/:transfer_key", h.GetTransfer)
}

// ---------- handlers ----------

// CreateTransfer godoc
// @Summary 在庫振替の実行
// @Tags transfers
// @Accept json
// @Produce json
// @Param body body CreateTransferRequest true "transfer command"
// @Success 201 {object} TransferResponse
// @Router /transfers [post]
func (h *Handler) CreateTransfer(c *gin.Context) {
	var req CreateTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}

	actor := auth.ActorFrom(c)
	res, err := h.svc.CreateTransfer(c.Request.Context(), actor, req)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}

	c.Header("Location", "/transfers/"+res.TransferULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListTransfers(c *gin.Context) {
	f := TransferFilter{}
	if v := c.Query("product_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.ProductID = id
		}
	}
	if v := c.Query("location_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.LocationID = id
		}
	}
	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.To = &t
		}
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
	res, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetTransfer(c *gin.Context) {
	res, err := h.svc.GetByKey(c.Request.Context(), c.Param("transfer_key"))
	if err != nil {
		c.JSON(ToHTTPStatus(err), errorFromErr(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

func parseIntDefault(s string, d int) int {
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return d
	}
	return v
}

type errorDTO struct {
	Error struct {
		Code    Code   `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field,omitempty"`
	} `json:"error"`
}

func errorBody(code Code, msg string) errorDTO {
	var e errorDTO
	e.Error.Code = code
	e.Error.Message = msg
	return e
}

func errorFromErr(err error) errorDTO {
	var e errorDTO
	if api, ok := err.(*APIError); ok {
		e.Error.Code = api.Code
		e.Error.Message = api.Message
		e.Error.Field = api.Field
		return e
	}
	e.Error.Code = CodeInternal
	e.Error.Message = err.Error()
	return e
}
