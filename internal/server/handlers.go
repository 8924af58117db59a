package server

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/ppiankov/credence/internal/model"
	"github.com/ppiankov/credence/internal/report"
)

func (s *Server) health(c echo.Context) error {
	if err := s.store.Ping(c.Request().Context()); err != nil {
		s.log.WithError(err).Warn("health check failed")
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// listAnalyses returns all analyses, optionally filtered by ?category=
func (s *Server) listAnalyses(c echo.Context) error {
	analyses, err := s.store.ListAnalyses(c.Request().Context())
	if err != nil {
		return err
	}

	if raw := c.QueryParam("category"); raw != "" {
		category := model.Category(raw)
		if category.Rank() < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown category "+strconv.Quote(raw))
		}
		filtered := analyses[:0]
		for _, a := range analyses {
			if a.FinalCategory == category {
				filtered = append(filtered, a)
			}
		}
		analyses = filtered
	}

	if analyses == nil {
		analyses = []model.AnalysisResult{}
	}
	return c.JSON(http.StatusOK, analyses)
}

func (s *Server) getAnalysis(c echo.Context) error {
	postID, err := strconv.ParseInt(c.Param("postId"), 10, 64)
	if err != nil || postID <= 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "postId must be a positive integer")
	}

	analysis, err := s.store.GetAnalysis(c.Request().Context(), postID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analysis)
}

func (s *Server) summary(c echo.Context) error {
	summary, err := report.Generate(c.Request().Context(), s.store)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}
