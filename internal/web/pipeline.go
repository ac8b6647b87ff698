package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"PolicyDigest/internal/domain"
	"PolicyDigest/internal/pipeline"
	"PolicyDigest/internal/usecase"
)

var stageHeadings = map[domain.Stage]string{
	domain.StageGmail:  "Newsletters",
	domain.StageNews:   "Agency news",
	domain.StageHouse:  "House committees",
	domain.StageSenate: "Senate committees",
}

func (s *Server) handleIndex(c *gin.Context) {
	c.HTML(http.StatusOK, "index.html", gin.H{"Title": "Policy Digest"})
}

func (s *Server) handleStartPage(c *gin.Context) {
	st, err := s.curation.State(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "start.html", gin.H{
		"Title":     "Start",
		"StartDate": st.StartDate,
		"UseAI":     st.UseAI,
	})
}

func (s *Server) handleStart(c *gin.Context) {
	startDate := c.PostForm("start_date")
	useAI := cast.ToBool(c.PostForm("use_ai"))
	st, err := s.curation.Start(c.Request.Context(), sessionID(c), startDate, useAI)
	if err != nil {
		c.HTML(statusFor(err), "start.html", gin.H{
			"Title":     "Start",
			"StartDate": startDate,
			"UseAI":     useAI,
			"Error":     err.Error(),
		})
		return
	}
	c.Redirect(http.StatusSeeOther, pagePath(st.Stage))
}

func (s *Server) handleStagePage(stage domain.Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.renderStage(c, stage, http.StatusOK, nil)
	}
}

func (s *Server) renderStage(c *gin.Context, stage domain.Stage, status int, failure error) {
	view, err := s.curation.Render(c.Request.Context(), sessionID(c), stage)
	if err != nil {
		s.fail(c, err)
		return
	}
	// one blank row for new entries
	view.Rows = append(view.Rows, pipeline.ManualRow{})

	data := gin.H{
		"Title":   stageHeadings[stage],
		"View":    view,
		"Prefix":  stage.ManualPrefix(),
		"Gmail":   stage == domain.StageGmail,
		"HasPrev": stage != domain.StageGmail,
	}
	if failure != nil {
		data["Error"] = failure.Error()
	}
	c.HTML(status, "stage.html", data)
}

func (s *Server) handleStageSubmit(stage domain.Stage) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		sid := sessionID(c)

		action := pipeline.Kind(c.PostForm("action"))
		if action == pipeline.ActionLoad {
			if err := s.curation.Load(ctx, sid, stage); err != nil {
				s.logger.Warn("stage load failed", "stage", stage, "error", err)
				s.renderStage(c, stage, http.StatusBadGateway, err)
				return
			}
			c.Redirect(http.StatusSeeOther, pagePath(stage))
			return
		}

		st, err := s.curation.Submit(ctx, sid, stage, action, parseStageForm(c, stage))
		if err != nil {
			s.renderStage(c, stage, statusFor(err), err)
			return
		}
		c.Redirect(http.StatusSeeOther, pagePath(st.Stage))
	}
}

// parseStageForm reads checked ids and the positional manual rows
// <prefix>_title_<i>, <prefix>_url_<i>, <prefix>_date_<i> up to <prefix>_count.
func parseStageForm(c *gin.Context, stage domain.Stage) usecase.Form {
	prefix := stage.ManualPrefix()
	form := usecase.Form{Checked: c.PostFormArray("selected")}

	count := cast.ToInt(c.PostForm(prefix + "_count"))
	for i := 0; i < count; i++ {
		field := func(name string) string {
			return strings.TrimSpace(c.PostForm(fmt.Sprintf("%s_%s_%d", prefix, name, i)))
		}
		form.Rows = append(form.Rows, pipeline.ManualRow{
			Title:  field("title"),
			URL:    field("url"),
			Date:   field("date"),
			Origin: field("origin"),
		})
	}
	return form
}

func (s *Server) handleCategorizePage(c *gin.Context) {
	st, err := s.curation.State(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	type count struct {
		Stage domain.Stage
		Items int
	}
	var counts []count
	total := 0
	for _, stage := range domain.FetchStages() {
		n := len(st.Selections[stage])
		total += n
		counts = append(counts, count{Stage: stage, Items: n})
	}
	c.HTML(http.StatusOK, "categorize.html", gin.H{
		"Title":  "Categorize",
		"Counts": counts,
		"Total":  total,
		"Ready":  st.Ready[domain.StageCategorize],
		"UseAI":  st.UseAI,
	})
}

func (s *Server) handleCategorize(c *gin.Context) {
	res, err := s.curation.Categorize(c.Request.Context(), sessionID(c))
	if err != nil {
		s.fail(c, err)
		return
	}
	s.logger.Debug("categorize finished", "items", res.Items, "rebuilt", res.Rebuilt)
	c.Redirect(http.StatusSeeOther, "/pipeline/review")
}

func (s *Server) handleReview(c *gin.Context) {
	view, err := s.curation.Review(c.Request.Context(), sessionID(c))
	if err != nil {
		if statusFor(err) == http.StatusConflict {
			c.Redirect(http.StatusSeeOther, "/pipeline/categorize")
			return
		}
		s.fail(c, err)
		return
	}
	c.HTML(http.StatusOK, "review.html", gin.H{
		"Title":  "Review",
		"View":   view,
		"Labels": domain.Labels(),
	})
}

type moveRequest struct {
	ID       string       `json:"id" binding:"required"`
	From     domain.Label `json:"from"`
	To       domain.Label `json:"to" binding:"required"`
	Position int          `json:"position"`
}

func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if err := s.curation.Move(c.Request.Context(), sessionID(c), req.ID, req.From, req.To, req.Position); err != nil {
		c.JSON(statusFor(err), gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) handleRename(c *gin.Context) {
	err := s.curation.Rename(c.Request.Context(), sessionID(c), c.PostForm("id"), strings.TrimSpace(c.PostForm("title")))
	s.backToReview(c, err)
}

func (s *Server) handleAddSublink(c *gin.Context) {
	link := domain.Link{
		Title: strings.TrimSpace(c.PostForm("title")),
		URL:   strings.TrimSpace(c.PostForm("url")),
	}
	err := s.curation.AddSublink(c.Request.Context(), sessionID(c), c.PostForm("id"), link)
	s.backToReview(c, err)
}

func (s *Server) handleRemoveSublink(c *gin.Context) {
	index, err := cast.ToIntE(c.PostForm("index"))
	if err != nil {
		index = -1
	}
	err = s.curation.RemoveSublink(c.Request.Context(), sessionID(c), c.PostForm("id"), index)
	s.backToReview(c, err)
}

func (s *Server) backToReview(c *gin.Context, err error) {
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/pipeline/review")
}

func (s *Server) handleExport(c *gin.Context) {
	var buf bytes.Buffer
	if err := s.curation.Export(c.Request.Context(), sessionID(c), &buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="policy-digest.pdf"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) handleReset(c *gin.Context) {
	if err := s.curation.Reset(c.Request.Context(), sessionID(c)); err != nil {
		s.fail(c, err)
		return
	}
	c.Redirect(http.StatusSeeOther, "/pipeline/start")
}
