package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/comit-io/galaxyapi/internal/api/shared"
	"github.com/comit-io/galaxyapi/internal/apperrors"
	"github.com/comit-io/galaxyapi/internal/email"
	"github.com/comit-io/galaxyapi/internal/search"
)

func queryInt(c *gin.Context, op, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperrors.Validation(op, name+" must be an integer")
	}
	return n, nil
}

// handleSearch maps q, fq, sort, fl, rows and start onto a Solr select.
func (h *Handlers) handleSearch(c *gin.Context) {
	const op = "api.Search"

	rows, err := queryInt(c, op, "rows")
	if err != nil {
		shared.Fail(c, op, err)
		return
	}
	start, err := queryInt(c, op, "start")
	if err != nil {
		shared.Fail(c, op, err)
		return
	}

	q := search.Query{
		Core:    c.Param("core"),
		Q:       c.Query("q"),
		Filters: c.QueryArray("fq"),
		Sort:    c.Query("sort"),
		Rows:    rows,
		Start:   start,
	}
	if fl := c.Query("fl"); fl != "" {
		q.Fields = strings.Split(fl, ",")
	}

	results, err := h.Search.Search(c.Request.Context(), q)
	if err != nil {
		shared.Fail(c, op, err)
		return
	}
	shared.OK(c, http.StatusOK, results)
}

func (h *Handlers) handleSearchFields(c *gin.Context) {
	fields, err := h.Search.Fields(c.Request.Context(), c.Param("core"))
	if err != nil {
		shared.Fail(c, "api.SearchFields", err)
		return
	}
	shared.OK(c, http.StatusOK, fields)
}

func (h *Handlers) handleListQueues(c *gin.Context) {
	queues, err := h.Queues.Queues(c.Request.Context())
	if err != nil {
		shared.Fail(c, "api.ListQueues", err)
		return
	}
	shared.OK(c, http.StatusOK, queues)
}

func (h *Handlers) handleGetQueue(c *gin.Context) {
	queue, err := h.Queues.Queue(c.Request.Context(), c.Param("name"))
	if err != nil {
		shared.Fail(c, "api.GetQueue", err)
		return
	}
	shared.OK(c, http.StatusOK, queue)
}

func (h *Handlers) handleSendEmail(c *gin.Context) {
	const op = "api.SendEmail"

	var msg email.EmailMessage
	if err := c.ShouldBindJSON(&msg); err != nil {
		shared.Fail(c, op, apperrors.Validation(op, "to and subject are required"))
		return
	}
	if err := h.Mailer.SendEmail(c.Request.Context(), &msg); err != nil {
		shared.Fail(c, op, err)
		return
	}
	shared.OK(c, http.StatusAccepted, gin.H{"sent": true})
}
