package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"dudebox-backend/moderation"
	"dudebox-backend/store"
)

type API struct {
	engine *gin.Engine
}

type handlers struct {
	db  *store.DB
	svc *moderation.Service
}

func setupRouter(db *store.DB, svc *moderation.Service) *gin.Engine {
	r := gin.Default()
	h := &handlers{db: db, svc: svc}

	// Ping test
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
		})
	})

	r.POST("/stores", h.registerStore)
	r.PUT("/stores/:id", h.updateStore)
	r.GET("/storefront/:subdomain", h.getStorefront)

	r.POST("/stores/:id/products", h.submitProduct)
	r.PUT("/stores/:id/products/:product_id", h.updateProduct)

	r.POST("/stores/:id/change-requests", h.fileChangeRequest)
	r.GET("/stores/:id/change-requests/count", h.getPendingCount)

	r.GET("/admin/change-requests", h.getPendingQueue)
	r.POST("/admin/change-requests/:id/approve", h.approveChangeRequest)
	r.POST("/admin/change-requests/:id/reject", h.rejectChangeRequest)
	r.GET("/admin/stores/:id/moderation-log", h.getModerationLog)

	return r
}

func New(db *store.DB, svc *moderation.Service) (*API, error) {
	return &API{
		engine: setupRouter(db, svc),
	}, nil
}

func (a *API) Run(port string) {
	a.engine.Run(":" + port)
}

func errStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, store.ErrValidation),
		errors.Is(err, store.ErrInvalidChangeType),
		errors.Is(err, store.ErrMissingTarget):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params.ByName(name), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

// outcomeMessage is the inline notice a vendor sees next to their saved
// submission. Details go out by email.
func outcomeMessage(outcome *moderation.Outcome) string {
	switch {
	case outcome == nil:
		return ""
	case outcome.ManualReview:
		return "Your submission is awaiting review by our team."
	case outcome.Action.Suspend:
		return "Your store was suspended for a policy violation. Check your email for details."
	case outcome.Action.Hide:
		return "Your content was hidden for a policy violation. Check your email for details."
	case outcome.Action.Notify:
		return "Your content was flagged for review. Check your email for details."
	default:
		return ""
	}
}

func (h *handlers) registerStore(c *gin.Context) {
	var input StoreInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := &store.Store{
		OwnerID:      input.OwnerID,
		Name:         input.Name,
		Subdomain:    input.Subdomain,
		ContactEmail: input.ContactEmail,
		Description:  input.Description,
		MakerBio:     input.MakerBio,
		WelcomeText:  input.WelcomeText,
		PolicyText:   input.PolicyText,
		LogoURL:      input.LogoURL,
		BannerURL:    input.BannerURL,
	}
	outcome, err := h.svc.RegisterStore(c.Request.Context(), st)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, SubmissionResponse{
		Store:   parseStoreResponse(st),
		Message: outcomeMessage(outcome),
	})
}

func (h *handlers) updateStore(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input StoreUpdateInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.db.GetStoreByID(id)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.svc.UpdateStore(c.Request.Context(), st, moderation.StoreUpdate{
		Name:         input.Name,
		ContactEmail: input.ContactEmail,
		Description:  input.Description,
		MakerBio:     input.MakerBio,
		WelcomeText:  input.WelcomeText,
		PolicyText:   input.PolicyText,
		LogoURL:      input.LogoURL,
		BannerURL:    input.BannerURL,
	})
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SubmissionResponse{
		Store:   parseStoreResponse(st),
		Message: outcomeMessage(outcome),
	})
}

func (h *handlers) getStorefront(c *gin.Context) {
	subdomain := c.Params.ByName("subdomain")
	st, err := h.db.GetStoreBySubdomain(subdomain)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	products, err := h.db.GetVisibleProductsByStoreID(st.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := StorefrontResponse{Store: *parseStoreResponse(st)}
	for i := range products {
		response.Products = append(response.Products, *parseProductResponse(&products[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlers) submitProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input ProductInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.db.GetStoreByID(id)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	product := &store.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
	}
	outcome, err := h.svc.SubmitProduct(c.Request.Context(), st, product)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, SubmissionResponse{
		Product: parseProductResponse(product),
		Message: outcomeMessage(outcome),
	})
}

func (h *handlers) updateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	productID, ok := idParam(c, "product_id")
	if !ok {
		return
	}
	var input ProductUpdateInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.db.GetStoreByID(id)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}
	product, err := h.db.GetProductByID(productID)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.svc.UpdateProduct(c.Request.Context(), st, product, moderation.ProductUpdate{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		ImageURL:    input.ImageURL,
		Active:      input.Active,
	})
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, SubmissionResponse{
		Product: parseProductResponse(product),
		Message: outcomeMessage(outcome),
	})
}

func (h *handlers) fileChangeRequest(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input ChangeRequestInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st, err := h.db.GetStoreByID(id)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	req, err := h.svc.FileChangeRequest(c.Request.Context(), st, input.ChangeType, input.ProductID, input.NewData)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, parseChangeRequestResponse(req))
}

func (h *handlers) getPendingCount(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	count, err := h.db.GetPendingChangesCount(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"pending": count})
}

func (h *handlers) getPendingQueue(c *gin.Context) {
	requests, err := h.db.GetAllPendingChangeRequests()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]ChangeRequestResponse, 0, len(requests))
	for i := range requests {
		response = append(response, parseChangeRequestResponse(&requests[i]))
	}
	c.JSON(http.StatusOK, response)
}

func (h *handlers) approveChangeRequest(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input ReviewInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.db.ApplyChangeRequest(id, input.ReviewerID)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, parseChangeRequestResponse(req))
}

func (h *handlers) rejectChangeRequest(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var input ReviewInput
	if err := c.BindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := h.db.RejectChangeRequest(id, input.ReviewerID, input.Reason)
	if err != nil {
		c.JSON(errStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, parseChangeRequestResponse(req))
}

func (h *handlers) getModerationLog(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	entries, err := h.db.GetModerationLogsByStoreID(id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	response := make([]ModerationLogResponse, 0, len(entries))
	for _, entry := range entries {
		var categories []string
		if entry.Categories != "" {
			categories = strings.Split(entry.Categories, ",")
		}
		response = append(response, ModerationLogResponse{
			ID:          entry.ID,
			ContentType: entry.ContentType,
			ProductID:   entry.ProductID,
			IsViolation: entry.IsViolation,
			Severity:    entry.Severity,
			Categories:  categories,
			Reason:      entry.Reason,
			Confidence:  entry.Confidence,
			CheckedAt:   entry.CheckedAt,
		})
	}
	c.JSON(http.StatusOK, response)
}
