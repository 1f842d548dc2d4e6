package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"shop-service/internal/service"
	"shop-service/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler contains HTTP handlers
type Handler struct {
	store           *store.Store
	cartService     *service.CartService
	pricingService  *service.PricingService
	checkoutService *service.CheckoutService
	jwtSecret       []byte
	cookieMaxAge    time.Duration
}

// NewHandler creates a new HTTP handler
func NewHandler(
	store *store.Store,
	cartService *service.CartService,
	pricingService *service.PricingService,
	checkoutService *service.CheckoutService,
	jwtSecret []byte,
	cookieMaxAge time.Duration,
) *Handler {
	return &Handler{
		store:           store,
		cartService:     cartService,
		pricingService:  pricingService,
		checkoutService: checkoutService,
		jwtSecret:       jwtSecret,
		cookieMaxAge:    cookieMaxAge,
	}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(gin.Logger())

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(CartSession(h.cookieMaxAge))
	v1.Use(Auth(h.jwtSecret))
	{
		v1.GET("/categories", h.listCategories)
		v1.GET("/products", h.listProducts)
		v1.GET("/products/:id", h.getProduct)

		v1.GET("/cart", h.viewCart)
		v1.POST("/cart/items/:id", h.addCartItem)
		v1.PUT("/cart/items/:id", h.setCartItemQuantity)
		v1.DELETE("/cart/items/:id", h.removeCartItem)
		v1.DELETE("/cart", h.clearCart)

		v1.GET("/checkout", h.reviewCheckout)
		v1.POST("/checkout", h.submitCheckout)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// listCategories returns all catalog categories
func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.store.GetCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// listProducts returns products, optionally filtered by category, together
// with the shopper's current cart badge
func (h *Handler) listProducts(c *gin.Context) {
	var categoryID int64
	if raw := c.Query("category_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category ID"})
			return
		}
		categoryID = id
	}

	products, err := h.store.GetProducts(c.Request.Context(), categoryID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products"})
		return
	}

	count, err := h.cartService.ItemCount(c.Request.Context(), currentShopper(c))
	if err != nil {
		count = 0
	}

	c.JSON(http.StatusOK, gin.H{
		"products":             products,
		"cart_products_amount": count,
	})
}

// getProduct returns one available product
func (h *Handler) getProduct(c *gin.Context) {
	productID, ok := paramID(c)
	if !ok {
		return
	}

	product, err := h.store.GetAvailableProductByID(c.Request.Context(), productID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get product"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"product": product})
}

// viewCart returns the priced selection of the shopper's current cart
func (h *Handler) viewCart(c *gin.Context) {
	shopper := currentShopper(c)

	order, err := h.cartService.ResolveCurrentOrder(c.Request.Context(), shopper)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to resolve cart"})
		return
	}
	if order == nil {
		c.JSON(http.StatusOK, gin.H{"selection": nil})
		return
	}

	selection, err := h.pricingService.PriceSelection(c.Request.Context(), order.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to price cart"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"order_id": order.ID, "selection": selection})
}

// addCartItem adds one unit of a product to the cart
func (h *Handler) addCartItem(c *gin.Context) {
	productID, ok := paramID(c)
	if !ok {
		return
	}

	err := h.cartService.AddItem(c.Request.Context(), currentShopper(c), productID)
	if err != nil {
		h.renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product added to cart"})
}

type quantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// setCartItemQuantity overwrites a cart line's quantity
func (h *Handler) setCartItemQuantity(c *gin.Context) {
	productID, ok := paramID(c)
	if !ok {
		return
	}

	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	err := h.cartService.SetItemQuantity(c.Request.Context(), currentShopper(c), productID, req.Quantity)
	if err != nil {
		h.renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Quantity updated"})
}

// removeCartItem deletes a cart line; absent lines are fine
func (h *Handler) removeCartItem(c *gin.Context) {
	productID, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.cartService.RemoveItem(c.Request.Context(), currentShopper(c), productID); err != nil {
		h.renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Product removed from cart"})
}

// clearCart deletes every line of the cart
func (h *Handler) clearCart(c *gin.Context) {
	if err := h.cartService.ClearCart(c.Request.Context(), currentShopper(c)); err != nil {
		h.renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}

// reviewCheckout returns the order review, gated by business hours
func (h *Handler) reviewCheckout(c *gin.Context) {
	review, err := h.checkoutService.ReviewOrder(c.Request.Context(), currentShopper(c))
	if err != nil {
		h.renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// submitCheckout finalizes the shopper's order
func (h *Handler) submitCheckout(c *gin.Context) {
	var input service.ShippingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	result, err := h.checkoutService.Submit(c.Request.Context(), currentShopper(c), input)

	var notifErr *service.NotificationError
	if errors.As(err, &notifErr) {
		// Completion already committed; the shopper only needs the warning.
		c.JSON(http.StatusOK, gin.H{
			"order_id":          result.OrderID,
			"status":            result.Status,
			"notification_sent": false,
			"warning":           "Order confirmed, but the confirmation message could not be sent",
		})
		return
	}
	if err != nil {
		h.renderServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id < 1 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product ID"})
		return 0, false
	}
	return id, true
}

// renderServiceError maps domain errors onto HTTP responses
func (h *Handler) renderServiceError(c *gin.Context, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": verr.Fields})
	case errors.Is(err, service.ErrProductNotFound),
		errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, service.ErrNoActiveOrder):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrShopClosed):
		c.JSON(http.StatusConflict, gin.H{"closed": true, "error": "The shop is currently closed"})
	case errors.Is(err, service.ErrOrderCompleted):
		c.JSON(http.StatusConflict, gin.H{"error": "Order already completed"})
	case errors.Is(err, service.ErrCheckoutInProgress):
		c.JSON(http.StatusConflict, gin.H{"error": "Checkout already in progress"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error", "details": err.Error()})
	}
}
