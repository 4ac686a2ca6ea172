package products

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TSUMUGI-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/products", h.Create)
	r.GET("/products", h.List)
	r.GET("/products/:product_key", h.Get)
	r.PUT("/products/:product_key", h.Update)
}

func (h *Handler) Create(c *gin.Context) {
	if !requireWrite(c, "create") {
		return
	}
	var req CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json"))
		return
	}
	res, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Header("Location", "/products/"+res.ProductULID)
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) List(c *gin.Context) {
	f := ProductFilter{
		NameQuery: c.Query("q"),
		Category:  c.Query("category"),
	}
	if v := c.Query("active"); v == "1" || v == "true" {
		f.ActiveOnly = true
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "desc"),
	}
	res, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) Get(c *gin.Context) {
	res, err := h.svc.GetByKey(c.Request.Context(), c.Param("product_key"))
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
	// 更新はID指定のみ
	id, err := strconv.ParseInt(c.Param("product_key"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid product_id"))
		return
	}
	var req UpdateProductRequest
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

// マスタ変更は管理者ロールのみ
func requireWrite(c *gin.Context, action string) bool {
	actor := auth.ActorFrom(c)
	if !actor.HasPermission("products", action, 0) {
		c.JSON(http.StatusForbidden, apiErr(CodePermissionDenied, "商品マスタを変更する権限がありません"))
		return false
	}
	return true
}

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
