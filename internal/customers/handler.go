package customers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"TSUMUGI-backend/internal/platform/auth"
)

type Handler struct{ svc *Service }

func RegisterRoutes(r gin.IRoutes, svc *Service) {
	h := &Handler{svc: svc}

	r.POST("/customers", h.CreateCustomer)
	r.GET("/customers", h.ListCustomers)
	r.GET("/customers/:customer_id", h.GetCustomer)
	r.PATCH("/customers/:customer_id", h.UpdateCustomer)
	r.POST("/customers/:customer_id/red-list", h.RedList)
	r.DELETE("/customers/:customer_id/red-list", h.UnRedList)
}

func (h *Handler) CreateCustomer(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json or missing required fields"))
		return
	}
	actor := auth.ActorFrom(c)
	res, err := h.svc.Create(c.Request.Context(), actor, req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.Header("Location", "/customers/"+strconv.FormatInt(res.CustomerID, 10))
	c.JSON(http.StatusCreated, res)
}

func (h *Handler) ListCustomers(c *gin.Context) {
	f := CustomerFilter{
		NameQuery:     c.Query("q"),
		RedListedOnly: c.Query("red_listed") == "1",
	}
	p := Page{
		Limit:  parseIntDefault(c.Query("limit"), 50),
		Offset: parseIntDefault(c.Query("offset"), 0),
		Order:  c.DefaultQuery("order", "asc"),
	}
	res, err := h.svc.List(c.Request.Context(), f, p)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	res, err := h.svc.GetByKey(c.Request.Context(), c.Param("customer_id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	var req UpdateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "invalid json"))
		return
	}
	actor := auth.ActorFrom(c)
	res, err := h.svc.Update(c.Request.Context(), actor, c.Param("customer_id"), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) RedList(c *gin.Context) {
	var req RedListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, apiErr(CodeInvalidArgument, "reason is required"))
		return
	}
	actor := auth.ActorFrom(c)
	res, err := h.svc.RedList(c.Request.Context(), actor, c.Param("customer_id"), req)
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) UnRedList(c *gin.Context) {
	actor := auth.ActorFrom(c)
	res, err := h.svc.UnRedList(c.Request.Context(), actor, c.Param("customer_id"))
	if err != nil {
		c.JSON(toHTTPStatus(err), apiErrFrom(err))
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
