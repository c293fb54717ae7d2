package server

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/KaramelBytes/leaseup/internal/dataset"
	"github.com/KaramelBytes/leaseup/internal/insight"
	"github.com/KaramelBytes/leaseup/internal/plot"
	"github.com/KaramelBytes/leaseup/internal/stats"
)

// ViewParams select the season filter and the cluster under inspection.
type ViewParams struct {
	Season  string `form:"season" json:"season"`
	Cluster *int   `form:"cluster" json:"cluster"`
}

func (p *ViewParams) season() string {
	if p.Season == "" {
		return dataset.AllSeasons
	}
	return p.Season
}

// selection is the resolved view for one request.
type selection struct {
	Season    string
	Table     *dataset.Table
	Clusters  []int
	Requested int
	Cluster   int
	Reset     bool
}

func (s *Server) selectView(p *ViewParams) selection {
	sel := selection{Season: p.season()}
	sel.Table = s.table.FilterSeason(sel.Season)
	sel.Clusters = sel.Table.ClusterIDs()
	if p.Cluster != nil {
		sel.Requested = *p.Cluster
	} else if len(sel.Clusters) > 0 {
		sel.Requested = sel.Clusters[0]
	}
	sel.Cluster, sel.Reset = stats.ResolveCluster(sel.Clusters, sel.Requested)
	return sel
}

func sendError(c *gin.Context, err error) {
	var ie *insight.Error
	switch {
	case errors.As(err, &ie):
		c.JSON(insightStatus(ie.Kind), gin.H{"error": ie.Message(), "kind": ie.Kind, "detail": ie.Err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func insightStatus(k insight.Kind) int {
	switch k {
	case insight.KindTimeout:
		return http.StatusGatewayTimeout
	case insight.KindAuth:
		return http.StatusUnauthorized
	case insight.KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusBadGateway
	}
}

func get(f func() (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := f()
		if err != nil {
			sendError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

func getP[P any](f func(*P) (any, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		var params P
		if err := c.ShouldBindQuery(&params); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		result, err := f(&params)
		if err != nil {
			sendError(c, err)
			return
		}
		if page, ok := result.(htmlPage); ok {
			c.HTML(http.StatusOK, page.name, page.data)
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

type htmlPage struct {
	name string
	data any
}

func (s *Server) seasons() (any, error) {
	return gin.H{"seasons": append([]string{dataset.AllSeasons}, s.table.Seasons()...)}, nil
}

func (s *Server) clusters(p *ViewParams) (any, error) {
	sel := s.selectView(p)
	return gin.H{
		"season":   sel.Season,
		"clusters": sel.Clusters,
		"sizes":    sel.Table.ClusterSizes(),
	}, nil
}

// recordRow is the property table projection. Missing numerics encode as null.
type recordRow struct {
	ProjID           string       `json:"proj_id"`
	RentAtDelivery   stats.Number `json:"rent_at_delivery"`
	AgeAtDelivery    stats.Number `json:"age_at_delivery"`
	SeasonOfDelivery string       `json:"season_of_delivery"`
	Cluster          int          `json:"cluster"`
}

func toRows(t *dataset.Table) []recordRow {
	return lo.Map(t.Records(), func(r dataset.Record, _ int) recordRow {
		return recordRow{
			ProjID:           r.ProjID,
			RentAtDelivery:   stats.Number(r.RentAtDelivery),
			AgeAtDelivery:    stats.Number(r.AgeAtDelivery),
			SeasonOfDelivery: r.SeasonOfDelivery,
			Cluster:          r.Cluster,
		}
	})
}

func (s *Server) records(p *ViewParams) (any, error) {
	sel := s.selectView(p)
	return gin.H{
		"season":  sel.Season,
		"count":   sel.Table.Len(),
		"records": toRows(sel.Table),
	}, nil
}

type summaryView struct {
	Season    string            `json:"season"`
	Requested int               `json:"requested"`
	Cluster   int               `json:"cluster"`
	Reset     bool              `json:"reset"`
	Clusters  []int             `json:"clusters"`
	Summary   stats.Summary     `json:"summary"`
	Describe  stats.Description `json:"describe"`
}

func (s *Server) summaryFor(sel selection) summaryView {
	return summaryView{
		Season:    sel.Season,
		Requested: sel.Requested,
		Cluster:   sel.Cluster,
		Reset:     sel.Reset,
		Clusters:  sel.Clusters,
		Summary:   stats.Summarize(sel.Table, sel.Cluster),
		Describe:  stats.Describe(sel.Table.FilterCluster(sel.Cluster)),
	}
}

func (s *Server) summary(p *ViewParams) (any, error) {
	return s.summaryFor(s.selectView(p)), nil
}

func (s *Server) insight(c *gin.Context) {
	var p ViewParams
	if err := c.ShouldBindJSON(&p); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if s.gen == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "insight generation is not configured", "kind": insight.KindUnavailable})
		return
	}
	sel := s.selectView(&p)
	sum := stats.Summarize(sel.Table, sel.Cluster)
	res, err := s.gen.Generate(c.Request.Context(), sum)
	if err != nil {
		s.log.Warn("insight request failed", "season", sel.Season, "cluster", sel.Cluster, "err", err)
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"season": sel.Season,
		"reset":  sel.Reset,
		"result": res,
	})
}

func (s *Server) chartHTML(c *gin.Context) {
	season := c.DefaultQuery("season", dataset.AllSeasons)
	var buf bytes.Buffer
	if err := plot.RenderHTML(&buf, s.table.FilterSeason(season), plot.Options{Subtitle: "Season: " + season}); err != nil {
		sendError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

func (s *Server) chartPNG(c *gin.Context) {
	season := c.DefaultQuery("season", dataset.AllSeasons)
	var buf bytes.Buffer
	if err := plot.RenderPNG(&buf, s.table.FilterSeason(season), plot.Options{Subtitle: "Season: " + season}); err != nil {
		sendError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", buf.Bytes())
}

type indexData struct {
	Title       string
	DatasetName string
	Rows        int
	Seasons     []string
	Model       string
	Insight     bool
	Records     []dataset.Record
	View        summaryView
}

func (s *Server) index(p *ViewParams) (any, error) {
	sel := s.selectView(p)
	data := indexData{
		Title:       "Property Lease-Up Dashboard",
		DatasetName: s.opts.DatasetName,
		Rows:        s.table.Len(),
		Seasons:     append([]string{dataset.AllSeasons}, s.table.Seasons()...),
		Insight:     s.gen != nil,
		Records:     sel.Table.Records(),
		View:        s.summaryFor(sel),
	}
	if s.gen != nil {
		data.Model = s.gen.Model()
	}
	return htmlPage{name: "index.html", data: data}, nil
}
