package api

import (
	"fmt"
	"net/http"
	"strings"

	"smrt/internal/service"
	"smrt/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	siteTitleTemplate = "%s | SMRT"
	siteDefaultTitle  = "SMRT"
	siteDescription   = "SMRT is your smart destination for electronics, computers, and tech essentials. " +
		"Shop top brands, great prices, fast US shipping, and worldwide delivery."
)

// SiteMetadata is the shared page metadata for the storefront
type SiteMetadata struct {
	Name          string `json:"name"`
	TitleTemplate string `json:"title_template"`
	DefaultTitle  string `json:"default_title"`
	Description   string `json:"description"`
	BaseURL       string `json:"base_url"`
}

// Title renders a page title; an empty page name yields the default title.
func (m SiteMetadata) Title(page string) string {
	if strings.TrimSpace(page) == "" {
		return m.DefaultTitle
	}
	return fmt.Sprintf(m.TitleTemplate, page)
}

func (h *Handler) siteMetadata() SiteMetadata {
	return SiteMetadata{
		Name:          h.site.Name,
		TitleTemplate: siteTitleTemplate,
		DefaultTitle:  siteDefaultTitle,
		Description:   siteDescription,
		BaseURL:       strings.TrimRight(h.site.BaseURL, "/"),
	}
}

func (h *Handler) getSite(c *gin.Context) {
	c.JSON(http.StatusOK, h.siteMetadata())
}

func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.svc.Catalog.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, "Failed to list categories", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

func (h *Handler) createCategory(c *gin.Context) {
	var req service.CreateCategoryRequest
	if !bindJSON(c, &req) {
		return
	}
	category, err := h.svc.Catalog.CreateCategory(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to create category", err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handler) deleteCategory(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete category", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listProducts(c *gin.Context) {
	filter := store.ProductFilter{
		Limit:  queryInt(c, "limit", 20),
		Offset: queryInt(c, "offset", 0),
	}
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid category_id"})
			return
		}
		filter.CategoryID = &id
	}

	products, err := h.svc.Catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, "Failed to list products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

func (h *Handler) createProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.svc.Catalog.CreateProduct(c.Request.Context(), &req)
	if err != nil {
		respondError(c, "Failed to create product", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func (h *Handler) getProduct(c *gin.Context) {
	detail, err := h.svc.Catalog.GetProductDetail(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, "Product not found", err)
		return
	}

	name := ""
	if detail.Name != nil {
		name = *detail.Name
	}
	site := h.siteMetadata()
	c.JSON(http.StatusOK, gin.H{
		"product": detail,
		"title":   site.Title(name),
		"url":     site.BaseURL + "/products/" + detail.Slug,
	})
}

func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req service.UpdateProductRequest
	if !bindJSON(c, &req) {
		return
	}
	product, err := h.svc.Catalog.UpdateProduct(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "Failed to update product", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, "Failed to delete product", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) addProductImage(c *gin.Context) {
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	var req service.AddImageRequest
	if !bindJSON(c, &req) {
		return
	}
	image, err := h.svc.Catalog.AddProductImage(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, "Failed to add product image", err)
		return
	}
	c.JSON(http.StatusCreated, image)
}
