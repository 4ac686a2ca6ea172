package locations

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TSUMUGI-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/locations", h.Create)
	r.GET("/locations", h.List)
	r.GET("/locations/:location_id", h.Get)
	r.PUT("/locations/:location_id", h.Update)
}

func (h *Handler) Create(c *gin.Context) {
	if !requireWrite(c, "create") {
		return
	}
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusCreated, res)
}

// List:
//   - active=1 で有効拠点のみ
//   - exclude で振替元を除外（振替先ピッカー用）
//   - q で名前の部分一致検索
func (h *Handler) List(c *gin.Context) {
	q := c.Query("q")
	if c.Query("active") == "1" || c.Query("active") == "true" {
		exclude := int64(0)
		if v := c.Query("exclude"); v != "" {
			if id, err := strconv.ParseInt(v, 10, 64); err == nil {
				exclude = id
			}
		}
		res, err := h.svc.ListActive(c.Request.Context(), exclude, q)
		if err != nil {
			c.JSON(toHTTPStatus(err), apiErrFrom(err))
			return
		}
		c.JSON(http.StatusOK, res)
		return
	}

	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("location_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid location_id"))
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
	if !requireWrite(c, "update") {
		return
	}
	id, err := strconv.ParseInt(c.Param("location_id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid location_id"))
		return
	}
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

// ---------- helpers ----------

// 拠点マスタの変更は管理者ロールのみ
func requireWrite(c *gin.Context, action string) bool {
	actor := auth.ActorFrom(c)
	if !actor.HasPermission("locations", action, 0) {
		c.JSON(http.StatusForbidden, apiErr(CodePermissionDenied, "拠点マスタを変更する権限がありません"))
		return false
	}
	return true
}

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
