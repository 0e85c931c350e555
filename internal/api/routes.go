package api

import (
	"net/http"      // HTTP status codes
	"path/filepath" // Static directories
	"time"          // Process start

	"storefront/internal/middleware" // Auth, roles and throttles
	"storefront/internal/repository" // Concrete repositories
	"storefront/internal/upload"     // Image uploads

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
)

// Deps is everything the routes need
type Deps struct {
	Admins     AdminStore
	Categories CategoryStore
	Products   ProductStore
	Orders     OrderStore
	Customers  CustomerStore
	Settings   SettingStore
	Newsletter NewsletterStore
	Tokens     TokenStore
	Activity   ActivityStore
	Pages      PageStore
	Stats      StatsStore
	Health     HealthChecker

	Uploads       *upload.Store
	Redis         *redis.Client
	LoginAttempts middleware.AttemptCounter // Failed logins per IP
	APILimiter    middleware.AttemptCounter // Requests per IP on /api, nil disables it
	Auth          AuthConfig
	Environment   string
	StaticDir     string
	Started       time.Time
}

// WithRepositories fills the store fields from the MySQL repositories
func (d Deps) WithRepositories(r *repository.Repositories) Deps {
	d.Admins = r.Admins
	d.Categories = r.Categories
	d.Products = r.Products
	d.Orders = r.Orders
	d.Customers = r.Customers
	d.Settings = r.Settings
	d.Newsletter = r.Newsletter
	d.Tokens = r.Tokens
	d.Activity = r.Activity
	d.Pages = r.Pages
	d.Stats = r.Stats
	return d
}

// RegisterRoutes mounts the JSON API, the admin area, the storefront pages and static files on r
func RegisterRoutes(r *gin.Engine, d Deps) error {
	tmpl, err := Templates()
	if err != nil {
		return err
	}
	r.SetHTMLTemplate(tmpl)
	if d.LoginAttempts == nil {
		d.LoginAttempts = middleware.NewMemoryCounter(middleware.LoginWindow, middleware.LoginMaxAttempts)
	}

	r.GET("/health", HealthHandler(d.Health, d.Started, d.Environment))

	// Public API
	api := r.Group("/api")
	if d.APILimiter != nil {
		api.Use(middleware.RateLimit(d.APILimiter, middleware.APIMaxRequests))
	}
	api.GET("/products", ListProductsHandler(d.Products, false))
	api.GET("/products/:id", GetProductHandler(d.Products, true))
	api.GET("/categories", ListCategoriesHandler(d.Categories, d.Redis, false))
	api.GET("/categories/:slug", GetCategoryHandler(d.Categories))
	api.GET("/search", SearchHandler(d.Products))
	api.GET("/config", ConfigHandler(d.Settings, d.Redis))
	api.POST("/newsletter", NewsletterHandler(d.Newsletter))
	api.POST("/orders", PlaceOrderHandler(d.Orders, d.Settings))

	// Authentication
	auth := api.Group("/auth")
	auth.POST("/login", middleware.BruteForceProtection(d.LoginAttempts), LoginHandler(d.Admins, d.Activity, d.LoginAttempts, d.Auth))
	auth.POST("/forgot-password", ForgotPasswordHandler(d.Admins, d.Tokens, d.Activity, d.Auth))
	auth.POST("/reset-password", ResetPasswordHandler(d.Tokens, d.Activity, d.Auth))

	requireToken := middleware.JWTAuthMiddleware(d.Auth.Secret, d.Admins)
	session := auth.Group("", requireToken)
	session.GET("/verify", VerifyHandler())
	session.POST("/logout", LogoutHandler(d.Activity))
	session.GET("/profile", ProfileHandler(d.Admins))
	session.PUT("/profile", UpdateProfileHandler(d.Admins, d.Activity))
	session.PUT("/change-password", ChangePasswordHandler(d.Admins, d.Activity))

	superAdmin := session.Group("/admins", middleware.RequireSuperAdmin())
	superAdmin.GET("", ListAdminsHandler(d.Admins))
	superAdmin.POST("", CreateAdminHandler(d.Admins, d.Activity))
	superAdmin.PUT("/:id", UpdateAdminHandler(d.Admins, d.Activity))
	superAdmin.DELETE("/:id", DeleteAdminHandler(d.Admins, d.Activity))

	registerAdminRoutes(api.Group("", requireToken, middleware.RequireAdmin()), d)

	// Admin area
	r.GET("/admin", func(c *gin.Context) { c.Redirect(http.StatusFound, "/admin/login") })
	r.GET("/admin/login", StaticPageHandler("admin_login.tmpl", "Iniciar sesión", d.Settings, d.Redis))
	admin := r.Group("/admin", requireToken, middleware.RequireAdmin())
	admin.GET("/dashboard", AdminDashboardPageHandler(d.Settings, d.Redis))
	admin.GET("/products", ListProductsHandler(d.Products, true))
	admin.GET("/products/:id", GetProductHandler(d.Products, false))
	admin.GET("/categories", ListCategoriesHandler(d.Categories, d.Redis, true))
	registerAdminRoutes(admin, d)

	// Storefront pages; a valid bearer token adds the back-office link
	pages := r.Group("", middleware.OptionalAuth(d.Auth.Secret, d.Admins))
	pages.GET("/", HomePageHandler(d.Categories, d.Products, d.Settings, d.Redis))
	pages.GET("/productos", ProductsPageHandler(d.Categories, d.Products, d.Settings, d.Redis))
	pages.GET("/categoria/:slug", CategoryPageHandler(d.Categories, d.Products, d.Settings, d.Redis))
	pages.GET("/producto/:slug", ProductPageHandler(d.Products, d.Settings, d.Redis))
	pages.GET("/buscar", SearchPageHandler(d.Products, d.Settings, d.Redis))
	pages.GET("/carrito", StaticPageHandler("cart.tmpl", "Carrito de compras", d.Settings, d.Redis))
	pages.GET("/contacto", StaticPageHandler("contact.tmpl", "Contacto", d.Settings, d.Redis))
	pages.GET("/acerca-de", ContentPageHandler(d.Pages, "acerca-de", "Acerca de", d.Settings, d.Redis))
	pages.GET("/terminos-condiciones", ContentPageHandler(d.Pages, "terminos-condiciones", "Términos y Condiciones", d.Settings, d.Redis))
	pages.GET("/politica-privacidad", ContentPageHandler(d.Pages, "politica-privacidad", "Política de Privacidad", d.Settings, d.Redis))

	// Static files and uploads
	if d.StaticDir != "" {
		for _, dir := range []string{"css", "js", "images"} {
			r.Static("/"+dir, filepath.Join(d.StaticDir, dir))
		}
		r.StaticFile("/favicon.ico", filepath.Join(d.StaticDir, "favicon.ico"))
	}
	if d.Uploads != nil {
		r.Static("/uploads", d.Uploads.Root)
	}

	r.NoRoute(NotFoundHandler(d.Settings, d.Redis))
	return nil
}

// registerAdminRoutes mounts the back-office JSON endpoints on g, which must already require an admin
func registerAdminRoutes(g *gin.RouterGroup, d Deps) {
	g.POST("/products", CreateProductHandler(d.Products, d.Uploads, d.Activity, d.Redis))
	g.PUT("/products/:id", UpdateProductHandler(d.Products, d.Uploads, d.Activity, d.Redis))
	g.DELETE("/products/:id", DeleteProductHandler(d.Products, d.Uploads, d.Activity, d.Redis))
	g.PUT("/products/:id/images/:imageId/primary", SetPrimaryImageHandler(d.Products, d.Activity))
	g.DELETE("/products/:id/images/:imageId", DeleteProductImageHandler(d.Products, d.Uploads, d.Activity))

	g.POST("/categories", CreateCategoryHandler(d.Categories, d.Uploads, d.Activity, d.Redis))
	g.PUT("/categories/:id", UpdateCategoryHandler(d.Categories, d.Uploads, d.Activity, d.Redis))
	g.DELETE("/categories/:id", DeleteCategoryHandler(d.Categories, d.Uploads, d.Activity, d.Redis))

	g.GET("/stats", StatsHandler(d.Stats))

	g.GET("/orders", ListOrdersHandler(d.Orders))
	g.GET("/orders/:id", GetOrderHandler(d.Orders))
	g.PUT("/orders/:id/status", UpdateOrderStatusHandler(d.Orders, d.Activity))

	g.GET("/customers", ListCustomersHandler(d.Customers))
	g.GET("/customers/:id", GetCustomerHandler(d.Customers))
	g.POST("/customers", CreateCustomerHandler(d.Customers, d.Activity))
	g.PUT("/customers/:id", UpdateCustomerHandler(d.Customers, d.Activity))
	g.DELETE("/customers/:id", DeleteCustomerHandler(d.Customers, d.Activity))

	g.GET("/settings", ListSettingsHandler(d.Settings))
	g.PUT("/settings", UpdateSettingsHandler(d.Settings, d.Activity, d.Redis))

	g.GET("/newsletter/subscribers", ListSubscribersHandler(d.Newsletter))
	g.DELETE("/newsletter/subscribers/:id", DeleteSubscriberHandler(d.Newsletter, d.Activity))

	g.GET("/activity", ListActivityHandler(d.Activity))
}
