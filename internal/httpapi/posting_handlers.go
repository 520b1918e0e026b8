package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"careerfit.kr/careerfit/internal/db"
	"careerfit.kr/careerfit/internal/fingerprint"
	"careerfit.kr/careerfit/internal/globaltime"
	payloadschema "careerfit.kr/careerfit/schema"
)

const maxIngestBodyBytes = 64 * 1024

func (s *Server) handleHealth(c echo.Context) error {
	return success(c, map[string]any{
		"service": "careerfit",
		"time":    globaltime.UTC(),
	})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.QueryStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query stats failed")
		return internalError(c, "Failed to load stats")
	}
	return success(c, stats)
}

func (s *Server) handlePostings(c echo.Context) error {
	page := parsePositiveInt(c.QueryParam("page"), 1)
	pageSize := parsePositiveInt(c.QueryParam("page_size"), defaultPageSize)
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	items, total, err := s.pool.ListPostings(c.Request().Context(), db.PostingListOptions{
		Query:    c.QueryParam("q"),
		Location: c.QueryParam("location"),
		Sector:   c.QueryParam("sector"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("query postings failed")
		return internalError(c, "Failed to load postings")
	}

	return success(c, map[string]any{
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

func (s *Server) handlePostingDetail(c echo.Context) error {
	linkHash := strings.ToLower(strings.TrimSpace(c.Param("link_hash")))
	if len(linkHash) != fingerprint.HexLength {
		return fail(c, http.StatusBadRequest, "link_hash must be a 64-character hex fingerprint", nil)
	}

	detail, err := s.pool.GetPostingDetail(c.Request().Context(), linkHash)
	if err != nil {
		if db.IsNoRows(err) {
			return failNotFound(c, "Posting not found")
		}
		s.logger.Error().Err(err).Str("link_hash", linkHash).Msg("query posting detail failed")
		return internalError(c, "Failed to load posting")
	}

	// The board counts a detail read as a view.
	if err := s.pool.IncrementViewCount(c.Request().Context(), detail.PostingID); err != nil {
		s.logger.Warn().Err(err).Int64("posting_id", detail.PostingID).Msg("view count increment failed")
	} else {
		detail.ViewCount++
	}

	return success(c, detail)
}

func (s *Server) handlePostingIngest(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxIngestBodyBytes+1))
	if err != nil {
		return fail(c, http.StatusBadRequest, "Failed to read request body", nil)
	}
	if len(body) > maxIngestBodyBytes {
		return fail(c, http.StatusRequestEntityTooLarge, "Payload too large", nil)
	}

	record, err := payloadschema.ValidatePostingPayload(json.RawMessage(body))
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}

	if err := s.upserter.UpsertPosting(c.Request().Context(), *record); err != nil {
		s.logger.Error().Err(err).Str("link", record.Link).Msg("manual posting ingest failed")
		return internalError(c, "Failed to persist posting")
	}

	return successWithStatus(c, http.StatusCreated, map[string]any{
		"link_hash": fingerprint.Hash(record.Link),
	})
}

// handleRefresh triggers one refresh cycle in the background. The cycle
// logs its own outcome; the caller only learns that it was started.
func (s *Server) handleRefresh(c echo.Context) error {
	if s.refresh == nil {
		return fail(c, http.StatusServiceUnavailable, "Refresh is not configured", nil)
	}

	go func() {
		if err := s.refresh(context.Background()); err != nil {
			s.logger.Error().Err(err).Msg("manual refresh cycle failed")
		}
	}()

	return successWithStatus(c, http.StatusAccepted, map[string]any{
		"started": true,
	})
}

func parsePositiveInt(raw string, fallback int) int {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return fallback
	}
	value, err := strconv.Atoi(trimmed)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
