package lots

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TSUMUGI-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	// 入荷
	r.POST("/lots", h.Receive)
	// 一覧・詳細
	r.GET("/lots", h.List)
	r.GET("/lots/:lot_id", h.Get)
	r.PUT("/lots/:lot_id", h.Update)
	// 振替ワークフローのロット選択肢（商品起点）
	r.GET("/products/:product_key/lots", h.ListActiveForProduct)
}

func (h *Handler) Receive(c *gin.Context) {
	var req ReceiveLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	actor := auth.ActorFrom(c)
	res, err := h.svc.Receive(c.Request.Context(), actor, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Header("Location", "/lots/"+strconv.FormatInt(res.LotID, 10))
	c.JSON(http.StatusCreated, res)
}

// ListActiveForProduct: 有効・残量ありのロットをロット番号順で返す。
// 拠点スコープ付きロールはJWTのアクセス可能拠点で絞り込む。
func (h *Handler) ListActiveForProduct(c *gin.Context) {
	productID, err := strconv.ParseInt(c.Param("product_key"), 10, 64)
	if err != nil || productID <= 0 {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid product id"))
		return
	}

	actor := auth.ActorFrom(c)
	var accessible []int64
	if auth.RoleIsLocationScoped(actor.Role) {
		accessible = actor.LocationIDs
		if accessible == nil {
			accessible = []int64{}
		}
	}

	res, err := h.svc.ListActive(c.Request.Context(), productID, accessible)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	if res == nil {
		res = []LotResponse{}
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) List(c *gin.Context) {
	f := LotFilter{Status: c.Query("status")}
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
	res, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("lot_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid lot_id"))
		return
	}
	res, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("lot_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid lot_id"))
		return
	}
	var req UpdateLotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json"))
		return
	}
	actor := auth.ActorFrom(c)
	res, err := h.svc.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

type errorDTO struct {
	Error APIError `json:"error"`
}

func apiErr(code Code, msg string) errorDTO {
	return errorDTO{Error: APIError{Code: code, Message: msg}}
}

func apiErrFrom(err error) errorDTO {
	if api, ok := err.(*APIError); ok {
		return errorDTO{Error: *api}
	}
	return apiErr(CodeInternal, err.Error())
}
