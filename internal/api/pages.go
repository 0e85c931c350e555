package api

import (
	"embed"         // Embedded templates
	"errors"        // Error classification
	"html/template" // HTML rendering
	"net/http"      // HTTP status codes
	"strings"       // String manipulation
	"time"          // Footer year

	"storefront/internal/middleware" // API path detection and identity
	"storefront/internal/repository" // Row types and sentinels
	"storefront/internal/upload"     // Upload directories

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Money formatting
	"github.com/sirupsen/logrus"    // Logging library
)

//go:embed templates/*.tmpl
var templateFS embed.FS

const (
	defaultSiteName     = "AlquimiaTechnologic"
	placeholderImage    = "/images/placeholder.jpg"
	homeFeaturedLimit   = 8
	homeCategoriesLimit = 6
	relatedLimit        = 4
	searchPageLimit     = 24
)

// Templates parses the embedded storefront and admin templates
func Templates() (*template.Template, error) {
	return template.New("").Funcs(template.FuncMap{
		"money": func(d decimal.Decimal) string { return "$" + d.StringFixed(2) },
		"imageURL": func(name string) string {
			return "/uploads/" + upload.DirProducts + "/" + name
		},
		"productImage": func(name *string) string {
			if name == nil || *name == "" {
				return placeholderImage
			}
			return "/uploads/" + upload.DirProducts + "/" + *name
		},
		"categoryImage": func(name *string) string {
			if name == nil || *name == "" {
				return placeholderImage
			}
			return "/uploads/" + upload.DirCategories + "/" + *name
		},
		"deref": func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
		"inc": func(n int) int { return n + 1 },
		"dec": func(n int) int { return n - 1 },
	}).ParseFS(templateFS, "templates/*.tmpl")
}

// renderPage fills the layout values every template expects and renders name
func renderPage(c *gin.Context, status int, name string, settings SettingStore, rdb *redis.Client, data gin.H) {
	config := map[string]any{}
	if settings != nil {
		loaded, err := siteConfig(c, settings, rdb)
		if err != nil {
			logrus.WithError(err).Warn("Failed to load site config for page")
		} else {
			config = loaded
		}
	}
	siteName := defaultSiteName
	if v, ok := config["site_name"].(string); ok && v != "" {
		siteName = v
	}
	page := gin.H{
		"config":      config,
		"siteName":    siteName,
		"title":       siteName,
		"description": "",
		"query":       "",
		"year":        time.Now().Year(),
	}
	if admin, ok := middleware.CurrentAdmin(c); ok {
		page["admin"] = admin
	}
	for k, v := range data {
		page[k] = v
	}
	c.HTML(status, name, page)
}

// pageError logs err and renders the error page
func pageError(c *gin.Context, settings SettingStore, rdb *redis.Client, err error) {
	logrus.WithFields(logrus.Fields{"path": c.Request.URL.Path}).WithError(err).Error("Failed to render page")
	renderPage(c, http.StatusInternalServerError, "error.tmpl", settings, rdb, gin.H{"title": "Error"})
}

// HomePageHandler renders the home page with categories and featured products
func HomePageHandler(categories CategoryStore, products ProductStore, settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		cats, err := categories.List(ctx, true, homeCategoriesLimit)
		if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		featured, err := products.Featured(ctx, homeFeaturedLimit)
		if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		renderPage(c, http.StatusOK, "index.tmpl", settings, rdb, gin.H{"categories": cats, "featured": featured})
	}
}

// ProductsPageHandler renders the catalog, filtered by the same query parameters as the API
func ProductsPageHandler(categories CategoryStore, products ProductStore, settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		f, _ := productFilter(c, false)
		rows, p, err := products.List(ctx, f)
		if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		cats, err := categories.List(ctx, true, 0)
		if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		renderPage(c, http.StatusOK, "products.tmpl", settings, rdb, gin.H{
			"title":      "Productos",
			"products":   rows,
			"pagination": p,
			"categories": cats,
		})
	}
}

// CategoryPageHandler renders the products of one active category
func CategoryPageHandler(categories CategoryStore, products ProductStore, settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		category, err := categories.FindBySlug(ctx, c.Param("slug"))
		if errors.Is(err, repository.ErrNotFound) {
			renderPage(c, http.StatusNotFound, "404.tmpl", settings, rdb, gin.H{"title": "Página no encontrada"})
			return
		} else if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		f, _ := productFilter(c, false)
		f.Category = category.Slug
		rows, p, err := products.List(ctx, f)
		if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		cats, err := categories.List(ctx, true, 0)
		if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		renderPage(c, http.StatusOK, "products.tmpl", settings, rdb, gin.H{
			"title":       category.Name,
			"description": category.Description,
			"category":    category,
			"products":    rows,
			"pagination":  p,
			"categories":  cats,
		})
	}
}

// ProductPageHandler renders one active product with related products from its category
func ProductPageHandler(products ProductStore, settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		product, err := products.FindBySlug(ctx, c.Param("slug"))
		if errors.Is(err, repository.ErrNotFound) {
			renderPage(c, http.StatusNotFound, "404.tmpl", settings, rdb, gin.H{"title": "Página no encontrada"})
			return
		} else if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		related, err := products.Related(ctx, product, relatedLimit)
		if err != nil {
			pageError(c, settings, rdb, err)
			return
		}
		title := product.Name
		if product.MetaTitle != "" {
			title = product.MetaTitle
		}
		description := product.ShortDescription
		if product.MetaDescription != "" {
			description = product.MetaDescription
		}
		renderPage(c, http.StatusOK, "product.tmpl", settings, rdb, gin.H{
			"title":       title,
			"description": description,
			"product":     product,
			"related":     related,
		})
	}
}

// SearchPageHandler renders search results; queries shorter than 2 characters show the empty form
func SearchPageHandler(products ProductStore, settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := strings.TrimSpace(c.Query("q"))
		var rows []repository.ProductRow
		if len([]rune(q)) >= 2 {
			var err error
			rows, err = products.Search(c.Request.Context(), q, repository.ProductFilter{}, searchPageLimit, 0)
			if err != nil {
				pageError(c, settings, rdb, err)
				return
			}
		} else {
			q = ""
		}
		renderPage(c, http.StatusOK, "search.tmpl", settings, rdb, gin.H{"title": "Buscar", "query": q, "products": rows})
	}
}

// ContentPageHandler renders an editable content page, falling back to an empty page titled fallbackTitle
func ContentPageHandler(pages PageStore, slug, fallbackTitle string, settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		data := gin.H{"title": fallbackTitle, "content": template.HTML("")}
		page, err := pages.FindBySlug(c.Request.Context(), slug)
		switch {
		case err == nil:
			// Page content is written by admins in the back office
			data["title"] = page.Title
			data["content"] = template.HTML(page.Content)
		case !errors.Is(err, repository.ErrNotFound):
			logrus.WithField("slug", slug).WithError(err).Warn("Failed to load content page")
		}
		renderPage(c, http.StatusOK, "page.tmpl", settings, rdb, data)
	}
}

// StaticPageHandler renders a template that needs only the layout values
func StaticPageHandler(name, title string, settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		renderPage(c, http.StatusOK, name, settings, rdb, gin.H{"title": title})
	}
}

// AdminDashboardPageHandler renders the back-office shell for the authenticated admin
func AdminDashboardPageHandler(settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		admin, _ := middleware.CurrentAdmin(c)
		renderPage(c, http.StatusOK, "admin_dashboard.tmpl", settings, rdb, gin.H{"title": "Panel de administración", "admin": admin})
	}
}

// NotFoundHandler answers unknown API paths with JSON and everything else with the 404 page
func NotFoundHandler(settings SettingStore, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if middleware.IsAPIPath(path) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Endpoint no encontrado", "path": path})
			return
		}
		renderPage(c, http.StatusNotFound, "404.tmpl", settings, rdb, gin.H{"title": "Página no encontrada"})
	}
}
