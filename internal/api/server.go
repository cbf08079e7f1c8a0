package api

import (
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/akozyrev/tenderwatch/internal/db"
	"github.com/akozyrev/tenderwatch/internal/econ"
	"github.com/akozyrev/tenderwatch/internal/models"
	"github.com/akozyrev/tenderwatch/internal/search"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"
)

type Server struct {
	Store  *db.Store
	Search *search.Service
	Engine *econ.Engine
	Echo   *echo.Echo
	DB     *pgxpool.Pool
}

func NewServer(pool *pgxpool.Pool, searchSvc *search.Service) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// CORS: allow frontend origins from env or default to localhost
	allowedOrigins := []string{"http://localhost:4200"}
	if extra := os.Getenv("CORS_ORIGINS"); extra != "" {
		for _, o := range strings.Split(extra, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				allowedOrigins = append(allowedOrigins, o)
			}
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))

	s := &Server{
		DB:     pool,
		Store:  db.NewStore(pool),
		Search: searchSvc,
		Engine: econ.NewEngine(),
		Echo:   e,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")
	api.GET("/tenders", s.handleListTenders)
	api.GET("/tenders/:regNumber", s.handleGetTender)
	api.POST("/search", s.handleSearch)
	api.POST("/economics/calculate", s.handleCalculate)
	api.GET("/economics/templates", s.handleTemplates)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleListTenders(c echo.Context) error {
	limit := 20
	offset := 0
	var minPrice, maxPrice float64

	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		offset = o
	}
	if v, err := strconv.ParseFloat(c.QueryParam("min_price"), 64); err == nil && v > 0 {
		minPrice = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("max_price"), 64); err == nil && v > 0 {
		maxPrice = v
	}

	tenders, err := s.Store.List(c.Request().Context(), db.ListParams{
		Query:      c.QueryParam("q"),
		Status:     c.QueryParam("status"),
		TenderType: c.QueryParam("type"),
		MinPrice:   minPrice,
		MaxPrice:   maxPrice,
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		c.Logger().Errorf("Failed to list tenders: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"items": tenders,
		"count": len(tenders),
	})
}

func (s *Server) handleGetTender(c echo.Context) error {
	regNumber := c.Param("regNumber")
	forceRefresh := c.QueryParam("refresh") == "true"

	tender, err := s.Search.GetDetails(c.Request().Context(), regNumber, forceRefresh)
	if err != nil {
		c.Logger().Errorf("Failed to get tender %s: %v", regNumber, err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}
	if tender == nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, tender)
}

type searchRequest struct {
	Query         string               `json:"query"`
	Limit         int                  `json:"limit"`
	Filters       models.SearchFilters `json:"filters"`
	MaxAttempts   int                  `json:"max_attempts"`
	NoCache       bool                 `json:"no_cache"`
	WithStats     bool                 `json:"with_stats"`
	EnrichDetails bool                 `json:"enrich_details"`
}

func (s *Server) handleSearch(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Query) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "query is required"})
	}
	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 10
	}

	criteria := models.SearchCriteria{
		Query:         req.Query,
		Limit:         req.Limit,
		Filters:       req.Filters,
		EnrichDetails: req.EnrichDetails,
	}

	var results []models.SearchResult
	var err error
	if req.MaxAttempts > 1 {
		results, err = s.Search.SearchWithRetry(c.Request().Context(), criteria, req.MaxAttempts)
	} else {
		results, err = s.Search.Search(c.Request().Context(), criteria, !req.NoCache)
	}
	if err != nil {
		c.Logger().Errorf("Search failed: %v", err)
		return c.JSON(http.StatusBadGateway, map[string]string{"error": err.Error()})
	}

	resp := map[string]interface{}{
		"items": results,
		"count": len(results),
	}
	if req.WithStats {
		resp["stats"] = search.Stats(results)
	}
	return c.JSON(http.StatusOK, resp)
}

type calculateRequest struct {
	TenderAmount   decimal.Decimal            `json:"tender_amount"`
	ProjectName    string                     `json:"project_name"`
	TotalAmount    decimal.Decimal            `json:"total_amount"`
	DurationMonths int                        `json:"duration_months"`
	ProjectType    econ.ProjectType           `json:"project_type"`
	Team           map[string]float64         `json:"team"`
	TeamTemplate   string                     `json:"team_template"`
	OverheadCosts  map[string]decimal.Decimal `json:"overhead_costs"`
	Taxes          map[string]float64         `json:"taxes"`
}

func (s *Server) handleCalculate(c echo.Context) error {
	var req calculateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	team := map[string]econ.TeamRole{}
	if req.TeamTemplate != "" {
		tpl, ok := econ.TeamTemplate(req.TeamTemplate)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "unknown team template: " + req.TeamTemplate})
		}
		team = tpl
	}
	for name, pct := range req.Team {
		role, err := econ.NewTeamRole(name, pct)
		if err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		team[name] = role
	}

	totalAmount := req.TotalAmount
	if totalAmount.IsZero() {
		totalAmount = req.TenderAmount
	}

	cfg, err := econ.NewProjectConfig(req.ProjectName, totalAmount, req.DurationMonths,
		req.ProjectType, team, req.OverheadCosts, req.Taxes)
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	}

	tenderAmount := req.TenderAmount
	if tenderAmount.IsZero() {
		tenderAmount = totalAmount
	}

	return c.JSON(http.StatusOK, s.Engine.Calculate(tenderAmount, cfg))
}

func (s *Server) handleTemplates(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"names":     econ.TemplateNames(),
		"templates": econ.DefaultTeamTemplates,
	})
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
