package web

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"PolicyDigest/internal/domain"
)

func (s *Server) handleEventsPage(c *gin.Context) {
	c.HTML(http.StatusOK, "events.html", gin.H{"Title": "Hearing events", "URL": ""})
}

func (s *Server) handleCreateEvent(c *gin.Context) {
	pageURL := strings.TrimSpace(c.PostForm("url"))
	res, err := s.calendar.CreateFromURL(c.Request.Context(), pageURL)
	if err != nil {
		s.logger.Warn("event create failed", "url", pageURL, "error", err)
		c.HTML(statusFor(err), "events.html", gin.H{
			"Title": "Hearing events",
			"URL":   pageURL,
			"Error": err.Error(),
		})
		return
	}
	c.HTML(http.StatusOK, "events.html", gin.H{
		"Title":  "Hearing events",
		"URL":    "",
		"Result": res,
		"Start":  res.Draft.Start.In(s.calendar.Location()).Format("Monday, January 2, 2006 3:04 PM"),
	})
}

// pullRange reads the start and end query dates. ok is false when neither
// was given.
func (s *Server) pullRange(c *gin.Context) (from, to time.Time, ok bool, err error) {
	start, end := strings.TrimSpace(c.Query("start")), strings.TrimSpace(c.Query("end"))
	if start == "" && end == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if end == "" {
		end = start
	}
	if start == "" {
		start = end
	}
	loc := s.calendar.Location()
	if from, err = time.ParseInLocation(domain.DateLayout, start, loc); err != nil {
		return from, to, true, fmt.Errorf("invalid start date %q", start)
	}
	if to, err = time.ParseInLocation(domain.DateLayout, end, loc); err != nil {
		return from, to, true, fmt.Errorf("invalid end date %q", end)
	}
	return from, to, true, nil
}

func (s *Server) handlePull(c *gin.Context) {
	data := gin.H{"Title": "Pull events", "Start": c.Query("start"), "End": c.Query("end")}

	from, to, ok, err := s.pullRange(c)
	if !ok {
		c.HTML(http.StatusOK, "pull.html", data)
		return
	}
	if err != nil {
		data["Error"] = err.Error()
		c.HTML(http.StatusBadRequest, "pull.html", data)
		return
	}

	events, err := s.calendar.Pull(c.Request.Context(), from, to)
	if err != nil {
		data["Error"] = err.Error()
		c.HTML(statusFor(err), "pull.html", data)
		return
	}
	data["Searched"] = true
	data["Days"] = s.calendar.GroupByDay(events)
	data["Count"] = len(events)
	data["Loc"] = s.calendar.Location()
	c.HTML(http.StatusOK, "pull.html", data)
}

func (s *Server) handlePullPDF(c *gin.Context) {
	from, to, ok, err := s.pullRange(c)
	if !ok || err != nil {
		if err == nil {
			err = fmt.Errorf("start date is required")
		}
		c.HTML(http.StatusBadRequest, "error.html", gin.H{"Title": "Bad request", "Status": http.StatusBadRequest, "Error": err.Error()})
		return
	}

	var buf bytes.Buffer
	if err := s.calendar.PDF(c.Request.Context(), from, to, &buf); err != nil {
		s.fail(c, err)
		return
	}
	name := fmt.Sprintf("hearings-%s-%s.pdf", from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (s *Server) handleICS(c *gin.Context) {
	id := c.Param("id")
	var buf bytes.Buffer
	if err := s.calendar.ICS(c.Request.Context(), id, &buf); err != nil {
		s.fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "event-"+id+".ics"))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}
